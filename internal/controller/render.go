package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"session-todos/internal/middleware"
	"session-todos/internal/service"
	"session-todos/pkg/logger"
)

// page builds the template data every page shares. Flash messages are
// consumed here, so the session is saved when any were pending.
func page(c *gin.Context, sessions *middleware.Sessions, title string) gin.H {
	data := gin.H{"Title": title}
	sess := middleware.Current(c)
	if sess == nil {
		return data
	}
	data["CSRFToken"] = sess.CSRFToken
	data["Username"] = sess.Username
	if msgs := sess.PopMessages(); len(msgs) > 0 {
		data["Messages"] = msgs
		if err := sessions.Save(c, sess); err != nil {
			logger.Warn(c.Request.Context(), "Session save after flash failed", "error", err)
		}
	}
	return data
}

// renderError writes the error page. Error details are shown only in development.
func renderError(c *gin.Context, status int, message string, err error, dev bool) {
	data := gin.H{
		"Title":   http.StatusText(status),
		"Status":  status,
		"Message": message,
	}
	if dev && err != nil {
		data["Detail"] = err.Error()
	}
	c.HTML(status, "error.html", data)
}

// fail maps a service error to a response. Store failures and anything
// unexpected are fatal to the request.
func fail(c *gin.Context, op string, err error, dev bool) {
	ctx := c.Request.Context()
	switch {
	case errors.Is(err, service.ErrOwnerRequired), errors.Is(err, middleware.ErrUnauthenticated):
		c.Redirect(http.StatusFound, "/login")
	default:
		logger.Error(ctx, op+" failed", "error", err)
		renderError(c, http.StatusInternalServerError, "Something went wrong", err, dev)
	}
}

// NotFound renders the 404 page for unmatched routes.
func NotFound(dev bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		renderError(c, http.StatusNotFound, "Not Found", nil, dev)
	}
}
