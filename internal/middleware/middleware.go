package middleware

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"session-todos/internal/session"
	"session-todos/pkg/logger"
)

const (
	sessionKey    = "session"
	csrfField     = "_csrf"
	csrfHeader    = "X-CSRF-Token"
	requestHeader = "X-Request-ID"
)

// ErrUnauthenticated is returned by OwnerID when nobody is logged in.
var ErrUnauthenticated = errors.New("login required")

// RequestLogger tags the request context with a request id and logs one line
// per request.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		id := c.GetHeader(requestHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestHeader, id)
		ctx := logger.WithRequestID(c.Request.Context(), id)
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		logger.Info(ctx, "HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
		)
	}
}

// Sessions loads the browser's session before handlers run and writes the
// cookie whenever a session is saved.
type Sessions struct {
	Manager *session.Manager
	Cookie  string
	Secure  bool
}

// Load attaches the current session to the request. New sessions are saved
// straight away so forms rendered for them carry a usable CSRF token.
func (s *Sessions) Load() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		cookie, _ := c.Cookie(s.Cookie)
		sess, fresh, err := s.Manager.Load(ctx, cookie)
		if err != nil {
			logger.Error(ctx, "Session load failed", "error", err)
			abortWithError(c, http.StatusInternalServerError, "Session store unavailable")
			return
		}
		if fresh {
			if err := s.Save(c, sess); err != nil {
				logger.Error(ctx, "Session save failed", "error", err)
				abortWithError(c, http.StatusInternalServerError, "Session store unavailable")
				return
			}
		}
		c.Set(sessionKey, sess)
		if sess.Authenticated() {
			c.Request = c.Request.WithContext(logger.With(ctx, "owner_id", sess.UserID))
		}
		c.Next()
	}
}

// Save persists sess and sets the session cookie on the response.
func (s *Sessions) Save(c *gin.Context, sess *session.Session) error {
	value, err := s.Manager.Save(c.Request.Context(), sess)
	if err != nil {
		return err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.Cookie, value, int(s.Manager.TTL().Seconds()), "/", "", s.Secure, true)
	c.Set(sessionKey, sess)
	return nil
}

// Current returns the session attached by Load.
func Current(c *gin.Context) *session.Session {
	if v, ok := c.Get(sessionKey); ok {
		if sess, ok := v.(*session.Session); ok {
			return sess
		}
	}
	return nil
}

// OwnerID returns the logged-in user's id, or ErrUnauthenticated.
func OwnerID(c *gin.Context) (string, error) {
	sess := Current(c)
	if !sess.Authenticated() {
		return "", ErrUnauthenticated
	}
	return sess.UserID, nil
}

// RequireLogin redirects anonymous requests to the login page.
func RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !Current(c).Authenticated() {
			logger.Debug(c.Request.Context(), "Login required", "path", c.Request.URL.Path)
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

// CSRF rejects state-changing requests whose token does not match the session's.
func CSRF() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}
		sess := Current(c)
		token := c.GetHeader(csrfHeader)
		if token == "" {
			token = c.PostForm(csrfField)
		}
		if sess == nil || sess.CSRFToken == "" ||
			subtle.ConstantTimeCompare([]byte(token), []byte(sess.CSRFToken)) != 1 {
			logger.Debug(c.Request.Context(), "CSRF token mismatch", "path", c.Request.URL.Path)
			abortWithError(c, http.StatusForbidden, "Invalid CSRF token")
			return
		}
		c.Next()
	}
}

func abortWithError(c *gin.Context, status int, message string) {
	c.HTML(status, "error.html", gin.H{
		"Title":   http.StatusText(status),
		"Status":  status,
		"Message": message,
	})
	c.Abort()
}
