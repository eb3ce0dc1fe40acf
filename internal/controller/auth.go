package controller

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"session-todos/internal/middleware"
	"session-todos/internal/models"
	"session-todos/internal/service"
	"session-todos/pkg/logger"
)

// Authenticator verifies and registers local accounts.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*models.Identity, error)
	Register(ctx context.Context, username, password string) (*models.Identity, error)
}

// AuthHandler serves the login, logout and signup routes.
type AuthHandler struct {
	users    Authenticator
	sessions *middleware.Sessions
	dev      bool
}

// NewAuthHandler returns a handler over users.
func NewAuthHandler(users Authenticator, sessions *middleware.Sessions, dev bool) *AuthHandler {
	return &AuthHandler{users: users, sessions: sessions, dev: dev}
}

// LoginForm handles GET /login.
func (h *AuthHandler) LoginForm(c *gin.Context) {
	if middleware.Current(c).Authenticated() {
		c.Redirect(http.StatusFound, "/")
		return
	}
	c.HTML(http.StatusOK, "login.html", page(c, h.sessions, "Sign in"))
}

// Login handles POST /login/password.
func (h *AuthHandler) Login(c *gin.Context) {
	ctx := c.Request.Context()
	id, err := h.users.Authenticate(ctx, c.PostForm("username"), c.PostForm("password"))
	if errors.Is(err, service.ErrInvalidCredentials) {
		logger.Info(ctx, "Login rejected")
		h.flash(c, "Incorrect username or password.", "/login")
		return
	}
	if err != nil {
		fail(c, "Login", err, h.dev)
		return
	}
	h.start(c, id)
}

// Logout handles POST /logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	next, err := h.sessions.Manager.Logout(c.Request.Context(), middleware.Current(c))
	if err != nil {
		fail(c, "Logout", err, h.dev)
		return
	}
	if err := h.sessions.Save(c, next); err != nil {
		fail(c, "Logout", err, h.dev)
		return
	}
	c.Redirect(http.StatusFound, "/")
}

// SignupForm handles GET /signup.
func (h *AuthHandler) SignupForm(c *gin.Context) {
	c.HTML(http.StatusOK, "signup.html", page(c, h.sessions, "Sign up"))
}

// Signup handles POST /signup and logs the new account in.
func (h *AuthHandler) Signup(c *gin.Context) {
	id, err := h.users.Register(c.Request.Context(), c.PostForm("username"), c.PostForm("password"))
	switch {
	case errors.Is(err, service.ErrMissingFields):
		h.flash(c, "Username and password are required.", "/signup")
		return
	case errors.Is(err, service.ErrUsernameTaken):
		h.flash(c, "That username is already taken.", "/signup")
		return
	case errors.Is(err, service.ErrPasswordTooLong):
		h.flash(c, "Password must be at most 72 bytes.", "/signup")
		return
	case err != nil:
		fail(c, "Signup", err, h.dev)
		return
	}
	logger.Info(c.Request.Context(), "User registered", "owner_id", id.ID)
	h.start(c, id)
}

// start rotates the session onto id and sends the browser to the list.
func (h *AuthHandler) start(c *gin.Context, id *models.Identity) {
	next, err := h.sessions.Manager.Login(c.Request.Context(), middleware.Current(c), id)
	if err != nil {
		fail(c, "Login", err, h.dev)
		return
	}
	if err := h.sessions.Save(c, next); err != nil {
		fail(c, "Login", err, h.dev)
		return
	}
	c.Redirect(http.StatusFound, "/")
}

func (h *AuthHandler) flash(c *gin.Context, msg, to string) {
	sess := middleware.Current(c)
	sess.AddMessage(msg)
	if err := h.sessions.Save(c, sess); err != nil {
		fail(c, "Flash", err, h.dev)
		return
	}
	c.Redirect(http.StatusFound, to)
}
