package service

import (
	"context"
	"strings"
	"time"

	"session-todos/internal/models"
	"session-todos/pkg/logger"
)

// TodoStore is the persistence the service needs. Every method is one
// owner-scoped statement.
type TodoStore interface {
	ListByOwner(ctx context.Context, ownerID string) ([]models.Todo, error)
	Create(ctx context.Context, todo *models.Todo) error
	Update(ctx context.Context, id int64, ownerID, title string, completed bool) (int64, error)
	Delete(ctx context.Context, id int64, ownerID string) (int64, error)
	SetAllCompleted(ctx context.Context, ownerID string, completed bool) (int64, error)
	DeleteCompleted(ctx context.Context, ownerID string) (int64, error)
}

// EventPublisher receives a change event after each successful mutation.
type EventPublisher interface {
	Publish(ctx context.Context, evt *models.TodoEvent) error
}

// UpdateResult tells the caller what Update did.
type UpdateResult int

const (
	UpdateResultUpdated UpdateResult = iota
	UpdateResultDeleted
)

// TodoService implements the todo operations for an already-authenticated owner.
type TodoService struct {
	store  TodoStore
	events EventPublisher
	now    func() time.Time
}

// NewTodoService returns a service over store. events may be nil.
func NewTodoService(store TodoStore, events EventPublisher) *TodoService {
	return &TodoService{store: store, events: events, now: time.Now}
}

// List returns the owner's items matching filter. Counts are always taken over
// the unfiltered set so tab badges stay stable across filters.
func (s *TodoService) List(ctx context.Context, ownerID string, filter models.Filter) (*models.TodoList, error) {
	if ownerID == "" {
		return nil, ErrOwnerRequired
	}
	all, err := s.store.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, storeErr("list", err)
	}

	list := &models.TodoList{Filter: filter, Todos: make([]models.Todo, 0, len(all))}
	for _, t := range all {
		if !t.Completed {
			list.ActiveCount++
		}
		if filter.Match(t) {
			list.Todos = append(list.Todos, t)
		}
	}
	list.CompletedCount = len(all) - list.ActiveCount
	return list, nil
}

// Create adds an item. A title that is empty after trimming is a no-op and
// returns (nil, nil).
func (s *TodoService) Create(ctx context.Context, ownerID string, req models.CreateTodoRequest) (*models.Todo, error) {
	if ownerID == "" {
		return nil, ErrOwnerRequired
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, nil
	}

	todo := &models.Todo{OwnerID: ownerID, Title: title, Completed: models.Flag(req.Completed)}
	if err := s.store.Create(ctx, todo); err != nil {
		return nil, storeErr("create", err)
	}
	completed := todo.Completed
	s.publish(ctx, &models.TodoEvent{
		Action: models.ActionCreated, OwnerID: ownerID, TodoID: todo.ID,
		Title: todo.Title, Completed: &completed, Affected: 1,
	})
	return todo, nil
}

// Update renames and sets completed on (id, owner). An empty trimmed title
// deletes the item instead. Rows owned by someone else are left untouched, no
// error is reported and no event is published.
func (s *TodoService) Update(ctx context.Context, ownerID string, id int64, req models.UpdateTodoRequest) (UpdateResult, error) {
	if ownerID == "" {
		return UpdateResultUpdated, ErrOwnerRequired
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		if err := s.Delete(ctx, ownerID, id); err != nil {
			return UpdateResultDeleted, err
		}
		return UpdateResultDeleted, nil
	}

	completed := models.Flag(req.Completed)
	n, err := s.store.Update(ctx, id, ownerID, title, completed)
	if err != nil {
		return UpdateResultUpdated, storeErr("update", err)
	}
	if n > 0 {
		s.publish(ctx, &models.TodoEvent{
			Action: models.ActionUpdated, OwnerID: ownerID, TodoID: id,
			Title: title, Completed: &completed, Affected: n,
		})
	}
	return UpdateResultUpdated, nil
}

// Delete removes (id, owner). Deleting a missing item succeeds.
func (s *TodoService) Delete(ctx context.Context, ownerID string, id int64) error {
	if ownerID == "" {
		return ErrOwnerRequired
	}
	n, err := s.store.Delete(ctx, id, ownerID)
	if err != nil {
		return storeErr("delete", err)
	}
	if n > 0 {
		s.publish(ctx, &models.TodoEvent{Action: models.ActionDeleted, OwnerID: ownerID, TodoID: id, Affected: n})
	}
	return nil
}

// ToggleAll overwrites completed on every item the owner has. It is a blanket
// set, not an inversion.
func (s *TodoService) ToggleAll(ctx context.Context, ownerID string, completed *bool) error {
	if ownerID == "" {
		return ErrOwnerRequired
	}
	flag := models.Flag(completed)
	n, err := s.store.SetAllCompleted(ctx, ownerID, flag)
	if err != nil {
		return storeErr("toggle all", err)
	}
	s.publish(ctx, &models.TodoEvent{Action: models.ActionToggledAll, OwnerID: ownerID, Completed: &flag, Affected: n})
	return nil
}

// ClearCompleted deletes every completed item the owner has.
func (s *TodoService) ClearCompleted(ctx context.Context, ownerID string) error {
	if ownerID == "" {
		return ErrOwnerRequired
	}
	n, err := s.store.DeleteCompleted(ctx, ownerID)
	if err != nil {
		return storeErr("clear completed", err)
	}
	s.publish(ctx, &models.TodoEvent{Action: models.ActionClearedCompleted, OwnerID: ownerID, Affected: n})
	return nil
}

// publish is best-effort: the mutation has already committed.
func (s *TodoService) publish(ctx context.Context, evt *models.TodoEvent) {
	if s.events == nil {
		return
	}
	evt.OccurredAt = s.now().UTC()
	if err := s.events.Publish(ctx, evt); err != nil {
		logger.Debug(ctx, "Publish todo event failed", "error", err, "action", evt.Action)
	}
}
