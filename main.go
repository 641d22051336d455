package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/handsup/donation-platform/routes"
	"github.com/handsup/donation-platform/services"
	"github.com/handsup/donation-platform/utils"
)

func main() {
	workDir, err := os.Getwd()
	if err != nil {
		log.Fatalf("Failed to get working dir: %v", err)
	}
	log.Printf("Working dir: %s", workDir)

	cfg, err := utils.LoadConfig(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := utils.InitDatabase(cfg.Database, cfg.IsProduction())
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	if cfg.Database.AutoMigrate {
		if err := utils.MigrateDatabase(db); err != nil {
			log.Fatalf("Database migration failed: %v", err)
		}
	}

	var gateways []services.Gateway
	if cfg.StripeEnabled() {
		gateways = append(gateways, services.NewStripeGateway(cfg.Stripe.SecretKey, cfg.Stripe.Currency, nil))
		log.Printf("Card payments enabled via Stripe")
	} else {
		log.Printf("Warning: STRIPE_SECRET_KEY not set, card payments disabled")
	}
	if cfg.PayPalEnabled() {
		paypal, err := services.NewPayPalGateway(cfg.PayPal.ClientID, cfg.PayPal.ClientSecret,
			services.PayPalBaseURL(cfg.PayPal.Mode), cfg.PayPal.Currency)
		if err != nil {
			log.Fatalf("Failed to init PayPal client: %v", err)
		}
		gateways = append(gateways, paypal)
		log.Printf("PayPal payments enabled (%s)", cfg.PayPal.Mode)
	} else {
		log.Printf("Warning: PayPal credentials not set, PayPal payments disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	feed := routes.NewFeed()
	go feed.Run(ctx)

	donations := services.NewDonationService(db, cfg.BaseURL, gateways...)
	donations.SetNotifier(feed)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	rt := routes.NewRoutes(cfg, routes.Services{
		Auth:      services.NewAuthService(db, cfg.SecretKey),
		Catalog:   services.NewCatalogService(db),
		Donations: donations,
		Admin:     services.NewAdminService(db),
	}, feed)
	router, err := routes.NewRouter(rt)
	if err != nil {
		log.Fatalf("Failed to build router: %v", err)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("Server running on %s (listening on %s)", cfg.BaseURL, addr)
	log.Printf("Server mode: %s, environment: %s", gin.Mode(), cfg.Env)

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Failed to start server: %v", err)
	}
	log.Printf("Server stopped")
}
