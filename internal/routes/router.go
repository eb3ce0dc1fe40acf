package routes

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"session-todos/internal/controller"
	"session-todos/internal/middleware"
	"session-todos/internal/service"
	"session-todos/internal/views"
)

// Dependencies are the services the router hands to its controllers.
type Dependencies struct {
	Todos       *service.TodoService
	Users       controller.Authenticator
	Sessions    *middleware.Sessions
	DB          controller.Pinger
	Development bool
}

// Router builds the HTTP handler for the app.
func Router(deps Dependencies) (*gin.Engine, error) {
	if !deps.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	tmpl, err := views.Templates()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger())
	router.SetHTMLTemplate(tmpl)
	router.NoRoute(controller.NotFound(deps.Development))

	// Health for load balancers and K8s probes
	router.GET("/health", controller.Health)
	router.GET("/ready", controller.Ready(deps.DB, controller.PingFunc(deps.Sessions.Manager.Ping)))
	router.StaticFileFS("/css/todos.css", "todos.css", http.FS(views.Static()))

	todos := controller.NewTodoHandler(deps.Todos, deps.Sessions, deps.Development)
	auth := controller.NewAuthHandler(deps.Users, deps.Sessions, deps.Development)

	// Public: session and CSRF, no login
	web := router.Group("")
	web.Use(deps.Sessions.Load(), middleware.CSRF())
	{
		web.GET("/", todos.Index)
		web.GET("/login", auth.LoginForm)
		web.POST("/login/password", auth.Login)
		web.POST("/logout", auth.Logout)
		web.GET("/signup", auth.SignupForm)
		web.POST("/signup", auth.Signup)
	}

	// Protected: login required
	app := web.Group("")
	app.Use(middleware.RequireLogin())
	{
		app.GET("/active", todos.Active)
		app.GET("/completed", todos.Completed)
		app.POST("/", todos.CreateTodo)
		app.POST("/toggle-all", todos.ToggleAll)
		app.POST("/clear-completed", todos.ClearCompleted)
		app.POST("/:id", todos.UpdateTodo)
		app.POST("/:id/delete", todos.DeleteTodo)
	}

	return router, nil
}
