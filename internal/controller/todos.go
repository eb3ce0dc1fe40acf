package controller

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"session-todos/internal/middleware"
	"session-todos/internal/models"
	"session-todos/internal/service"
)

// TodoHandler serves the todo list pages and form posts.
type TodoHandler struct {
	todos    *service.TodoService
	sessions *middleware.Sessions
	dev      bool
}

// NewTodoHandler returns a handler over todos.
func NewTodoHandler(todos *service.TodoService, sessions *middleware.Sessions, dev bool) *TodoHandler {
	return &TodoHandler{todos: todos, sessions: sessions, dev: dev}
}

// Index renders the landing page for visitors and the unfiltered list for
// logged-in users.
func (h *TodoHandler) Index(c *gin.Context) {
	if !middleware.Current(c).Authenticated() {
		c.HTML(http.StatusOK, "home.html", page(c, h.sessions, ""))
		return
	}
	h.render(c, models.FilterNone)
}

// Active renders only items that are not completed.
func (h *TodoHandler) Active(c *gin.Context) { h.render(c, models.FilterActive) }

// Completed renders only completed items.
func (h *TodoHandler) Completed(c *gin.Context) { h.render(c, models.FilterCompleted) }

func (h *TodoHandler) render(c *gin.Context, filter models.Filter) {
	owner, err := middleware.OwnerID(c)
	if err != nil {
		fail(c, "ListTodos", err, h.dev)
		return
	}
	list, err := h.todos.List(c.Request.Context(), owner, filter)
	if err != nil {
		fail(c, "ListTodos", err, h.dev)
		return
	}
	data := page(c, h.sessions, "")
	data["Filter"] = string(filter)
	data["List"] = list
	c.HTML(http.StatusOK, "index.html", data)
}

// CreateTodo handles POST /.
func (h *TodoHandler) CreateTodo(c *gin.Context) {
	req := models.CreateTodoRequest{Title: c.PostForm("title"), Completed: formFlag(c, "completed")}
	h.mutate(c, "CreateTodo", func(ctx context.Context, owner string) error {
		_, err := h.todos.Create(ctx, owner, req)
		return err
	})
}

// UpdateTodo handles POST /:id. An empty title deletes the item.
func (h *TodoHandler) UpdateTodo(c *gin.Context) {
	id, ok := todoID(c)
	if !ok {
		NotFound(h.dev)(c)
		return
	}
	req := models.UpdateTodoRequest{Title: c.PostForm("title"), Completed: formFlag(c, "completed")}
	h.mutate(c, "UpdateTodo", func(ctx context.Context, owner string) error {
		_, err := h.todos.Update(ctx, owner, id, req)
		return err
	})
}

// DeleteTodo handles POST /:id/delete.
func (h *TodoHandler) DeleteTodo(c *gin.Context) {
	id, ok := todoID(c)
	if !ok {
		NotFound(h.dev)(c)
		return
	}
	h.mutate(c, "DeleteTodo", func(ctx context.Context, owner string) error {
		return h.todos.Delete(ctx, owner, id)
	})
}

// ToggleAll handles POST /toggle-all.
func (h *TodoHandler) ToggleAll(c *gin.Context) {
	completed := formFlag(c, "completed")
	h.mutate(c, "ToggleAll", func(ctx context.Context, owner string) error {
		return h.todos.ToggleAll(ctx, owner, completed)
	})
}

// ClearCompleted handles POST /clear-completed.
func (h *TodoHandler) ClearCompleted(c *gin.Context) {
	h.mutate(c, "ClearCompleted", func(ctx context.Context, owner string) error {
		return h.todos.ClearCompleted(ctx, owner)
	})
}

// mutate runs the authorize and execute stages of a form post, then sends the
// browser back to the view it came from.
func (h *TodoHandler) mutate(c *gin.Context, op string, execute func(ctx context.Context, owner string) error) {
	owner, err := middleware.OwnerID(c)
	if err != nil {
		fail(c, op, err, h.dev)
		return
	}
	if err := execute(c.Request.Context(), owner); err != nil {
		fail(c, op, err, h.dev)
		return
	}
	c.Redirect(http.StatusFound, models.ParseFilter(c.PostForm("filter")).Path())
}

// formFlag maps a checkbox field to an optional flag: present with any value
// means true, absent means nil.
func formFlag(c *gin.Context, name string) *bool {
	if _, ok := c.GetPostForm(name); ok {
		t := true
		return &t
	}
	return nil
}

// todoID parses the numeric :id segment.
func todoID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
