package routes

import (
	"encoding/base64"
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/handsup/donation-platform/models"
	"github.com/handsup/donation-platform/services"
)

const (
	sessionCookie = "session"
	flashCookie   = "flash"
	flashMaxAge   = 300

	userKey  = "user"
	flashKey = "flash"
)

// loadUser resolves the session cookie into the current user, if any.
func (rt *Routes) loadUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(sessionCookie)
		if err != nil || token == "" {
			c.Next()
			return
		}

		userID, err := rt.auth.ParseToken(token)
		if err != nil {
			rt.clearSession(c)
			c.Next()
			return
		}
		user, err := rt.auth.UserByID(c.Request.Context(), userID)
		if err != nil {
			log.Printf("Session for unknown user %d: %v", userID, err)
			rt.clearSession(c)
			c.Next()
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

func currentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(userKey); ok {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}

// requireLogin redirects anonymous visitors to the login page.
func (rt *Routes) requireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if currentUser(c) == nil {
			redirectToLogin(c)
			return
		}
		c.Next()
	}
}

// requireAdmin lets only administrators through.
func (rt *Routes) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		if user == nil {
			redirectToLogin(c)
			return
		}
		if !user.IsAdmin {
			log.Printf("Access denied: user %d requested %s", user.ID, c.Request.URL.Path)
			rt.addFlash(c, "Access denied")
			c.Redirect(http.StatusFound, "/")
			c.Abort()
			return
		}
		c.Next()
	}
}

func redirectToLogin(c *gin.Context) {
	target := "/login"
	if c.Request.Method == http.MethodGet {
		target += "?next=" + url.QueryEscape(c.Request.URL.RequestURI())
	}
	c.Redirect(http.StatusFound, target)
	c.Abort()
}

// safeNext only allows local redirect targets.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return ""
	}
	return next
}

func (rt *Routes) setCookie(c *gin.Context, name, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, maxAge, "/", "", rt.cfg.IsProduction(), true)
}

func (rt *Routes) startSession(c *gin.Context, user *models.User) error {
	token, err := rt.auth.IssueToken(user)
	if err != nil {
		return err
	}
	rt.setCookie(c, sessionCookie, token, int(services.SessionTTL.Seconds()))
	return nil
}

func (rt *Routes) clearSession(c *gin.Context) {
	rt.setCookie(c, sessionCookie, "", -1)
}

// addFlash queues a one-time message shown on the next rendered page.
func (rt *Routes) addFlash(c *gin.Context, message string) {
	messages := append(pendingFlashes(c), message)
	c.Set(flashKey, messages)

	raw, err := json.Marshal(messages)
	if err != nil {
		return
	}
	rt.setCookie(c, flashCookie, base64.RawURLEncoding.EncodeToString(raw), flashMaxAge)
}

func pendingFlashes(c *gin.Context) []string {
	if v, ok := c.Get(flashKey); ok {
		if messages, ok := v.([]string); ok {
			return messages
		}
	}
	return nil
}

// popFlashes returns messages from the previous redirect plus this request, then clears them.
func (rt *Routes) popFlashes(c *gin.Context) []string {
	var messages []string
	if raw, err := c.Cookie(flashCookie); err == nil && raw != "" {
		if data, err := base64.RawURLEncoding.DecodeString(raw); err == nil {
			_ = json.Unmarshal(data, &messages)
		}
		rt.setCookie(c, flashCookie, "", -1)
	}
	if pending := pendingFlashes(c); len(pending) > 0 {
		messages = append(messages, pending...)
		c.Set(flashKey, []string(nil))
		rt.setCookie(c, flashCookie, "", -1)
	}
	return messages
}
