package routes

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/handsup/donation-platform/services"
)

func (rt *Routes) LoginPage(c *gin.Context) {
	if currentUser(c) != nil {
		c.Redirect(http.StatusFound, "/")
		return
	}
	rt.html(c, http.StatusOK, "pages/login.html", gin.H{
		"Title": "Login",
		"Next":  safeNext(c.Query("next")),
	})
}

func (rt *Routes) Login(c *gin.Context) {
	var form loginForm
	if err := c.ShouldBind(&form); err != nil {
		rt.html(c, http.StatusBadRequest, "pages/login.html", gin.H{
			"Title":  "Login",
			"Form":   form,
			"Next":   safeNext(form.Next),
			"Errors": formErrors(err),
		})
		return
	}

	user, err := rt.auth.Authenticate(c.Request.Context(), form.Email, form.Password)
	if err != nil {
		if !errors.Is(err, services.ErrInvalidCredentials) {
			rt.serverError(c, err)
			return
		}
		rt.addFlash(c, "Invalid email or password")
		rt.html(c, http.StatusUnauthorized, "pages/login.html", gin.H{
			"Title": "Login",
			"Form":  form,
			"Next":  safeNext(form.Next),
		})
		return
	}

	if err := rt.startSession(c, user); err != nil {
		rt.serverError(c, err)
		return
	}
	log.Printf("User %d logged in", user.ID)

	if user.IsAdmin {
		c.Redirect(http.StatusFound, "/admin")
		return
	}
	if next := safeNext(form.Next); next != "" {
		c.Redirect(http.StatusFound, next)
		return
	}
	c.Redirect(http.StatusFound, "/")
}

func (rt *Routes) RegisterPage(c *gin.Context) {
	if currentUser(c) != nil {
		c.Redirect(http.StatusFound, "/")
		return
	}
	rt.html(c, http.StatusOK, "pages/register.html", gin.H{"Title": "Register"})
}

func (rt *Routes) Register(c *gin.Context) {
	var form registerForm
	if err := c.ShouldBind(&form); err != nil {
		rt.html(c, http.StatusBadRequest, "pages/register.html", gin.H{
			"Title":  "Register",
			"Form":   form,
			"Errors": formErrors(err),
		})
		return
	}

	_, err := rt.auth.Register(c.Request.Context(), services.RegisterInput{
		FullName: form.FullName,
		Email:    form.Email,
		Phone:    form.Phone,
		Password: form.Password,
	})
	if err != nil {
		if !errors.Is(err, services.ErrEmailTaken) {
			rt.serverError(c, err)
			return
		}
		rt.addFlash(c, "Email already registered")
		rt.html(c, http.StatusConflict, "pages/register.html", gin.H{
			"Title": "Register",
			"Form":  form,
		})
		return
	}

	rt.addFlash(c, "Registration successful!")
	c.Redirect(http.StatusFound, "/login")
}

func (rt *Routes) Logout(c *gin.Context) {
	rt.clearSession(c)
	c.Redirect(http.StatusFound, "/")
}
