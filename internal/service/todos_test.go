package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"session-todos/internal/models"
	"session-todos/internal/repository"
	"session-todos/internal/testutil"
)

type recordingPublisher struct {
	events []models.TodoEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, evt *models.TodoEvent) error {
	p.events = append(p.events, *evt)
	return p.err
}

func newTodoService(t *testing.T) (*TodoService, *recordingPublisher) {
	t.Helper()
	pub := &recordingPublisher{}
	svc := NewTodoService(repository.NewTodoRepository(testutil.NewSQLiteDB(t)), pub)
	svc.now = func() time.Time { return time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC) }
	return svc, pub
}

func boolPtr(b bool) *bool { return &b }

func create(t *testing.T, svc *TodoService, owner, title string, completed *bool) *models.Todo {
	t.Helper()
	td, err := svc.Create(context.Background(), owner, models.CreateTodoRequest{Title: title, Completed: completed})
	require.NoError(t, err)
	require.NotNil(t, td)
	return td
}

func list(t *testing.T, svc *TodoService, owner string, f models.Filter) *models.TodoList {
	t.Helper()
	l, err := svc.List(context.Background(), owner, f)
	require.NoError(t, err)
	return l
}

func TestList_OwnersAreIsolated(t *testing.T) {
	svc, _ := newTodoService(t)
	create(t, svc, "alice", "alice one", nil)
	create(t, svc, "alice", "alice two", boolPtr(true))
	create(t, svc, "bob", "bob one", nil)

	for _, f := range []models.Filter{models.FilterNone, models.FilterActive, models.FilterCompleted} {
		for _, td := range list(t, svc, "bob", f).Todos {
			assert.Equal(t, "bob", td.OwnerID, "filter %q leaked another owner's item", f)
		}
	}
	assert.Len(t, list(t, svc, "bob", models.FilterNone).Todos, 1)
	assert.Len(t, list(t, svc, "alice", models.FilterNone).Todos, 2)
}

func TestCreate_WhitespaceTitleIsNoop(t *testing.T) {
	svc, pub := newTodoService(t)
	create(t, svc, "alice", "keep", nil)

	td, err := svc.Create(context.Background(), "alice", models.CreateTodoRequest{Title: "   \t\n"})
	require.NoError(t, err)
	assert.Nil(t, td)
	assert.Equal(t, 1, list(t, svc, "alice", models.FilterNone).Total())
	assert.Len(t, pub.events, 1)
}

func TestCreate_TrimsTitleAndHonoursFlag(t *testing.T) {
	svc, pub := newTodoService(t)

	td := create(t, svc, "alice", "  buy milk  ", nil)
	assert.Equal(t, "buy milk", td.Title)
	assert.False(t, td.Completed)
	assert.NotZero(t, td.ID)

	done := create(t, svc, "alice", "done already", boolPtr(true))
	assert.True(t, done.Completed)

	require.Len(t, pub.events, 2)
	assert.Equal(t, models.ActionCreated, pub.events[0].Action)
	assert.Equal(t, td.ID, pub.events[0].TodoID)
	assert.Equal(t, time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC), pub.events[0].OccurredAt)
}

func TestList_FilterPartitionAndStableCounts(t *testing.T) {
	svc, _ := newTodoService(t)
	create(t, svc, "alice", "a", nil)
	create(t, svc, "alice", "b", boolPtr(true))
	create(t, svc, "alice", "c", nil)
	create(t, svc, "alice", "d", boolPtr(true))
	create(t, svc, "alice", "e", nil)

	all := list(t, svc, "alice", models.FilterNone)
	active := list(t, svc, "alice", models.FilterActive)
	completed := list(t, svc, "alice", models.FilterCompleted)

	assert.Equal(t, len(all.Todos), len(active.Todos)+len(completed.Todos))
	for _, l := range []*models.TodoList{all, active, completed} {
		assert.Equal(t, 3, l.ActiveCount)
		assert.Equal(t, 2, l.CompletedCount)
		assert.Equal(t, len(all.Todos), l.ActiveCount+l.CompletedCount)
	}
	for _, td := range active.Todos {
		assert.False(t, td.Completed)
	}
	for _, td := range completed.Todos {
		assert.True(t, td.Completed)
	}
	assert.Equal(t, models.FilterActive, active.Filter)

	titles := make([]string, 0, len(all.Todos))
	for _, td := range all.Todos {
		titles = append(titles, td.Title)
	}
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, titles)
}

func TestDelete_IsIdempotent(t *testing.T) {
	svc, pub := newTodoService(t)
	td := create(t, svc, "alice", "gone soon", nil)
	create(t, svc, "alice", "stays", nil)

	require.NoError(t, svc.Delete(context.Background(), "alice", td.ID))
	after := list(t, svc, "alice", models.FilterNone)
	require.NoError(t, svc.Delete(context.Background(), "alice", td.ID))
	assert.Equal(t, after, list(t, svc, "alice", models.FilterNone))
	assert.Len(t, after.Todos, 1)

	require.NoError(t, svc.Delete(context.Background(), "alice", 9999))
	require.Len(t, pub.events, 3, "only the delete that matched a row is published")
	assert.Equal(t, models.ActionDeleted, pub.events[2].Action)
	assert.Equal(t, td.ID, pub.events[2].TodoID)
	assert.Equal(t, int64(1), pub.events[2].Affected)
}

func TestToggleAll_IsABlanketSet(t *testing.T) {
	svc, _ := newTodoService(t)
	create(t, svc, "alice", "a", nil)
	create(t, svc, "alice", "b", boolPtr(true))
	create(t, svc, "bob", "untouched", nil)
	ctx := context.Background()

	require.NoError(t, svc.ToggleAll(ctx, "alice", boolPtr(true)))
	assert.Empty(t, list(t, svc, "alice", models.FilterActive).Todos)
	require.NoError(t, svc.ToggleAll(ctx, "alice", boolPtr(true)))
	assert.Empty(t, list(t, svc, "alice", models.FilterActive).Todos)

	require.NoError(t, svc.ToggleAll(ctx, "alice", nil))
	assert.Empty(t, list(t, svc, "alice", models.FilterCompleted).Todos)
	assert.Len(t, list(t, svc, "alice", models.FilterActive).Todos, 2)

	assert.Equal(t, 1, list(t, svc, "bob", models.FilterActive).ActiveCount)
}

func TestClearCompleted_RemovesExactlyCompleted(t *testing.T) {
	svc, _ := newTodoService(t)
	ctx := context.Background()
	a := create(t, svc, "alice", "a", nil)
	b := create(t, svc, "alice", "b", nil)
	c := create(t, svc, "alice", "c", nil)
	create(t, svc, "bob", "bob done", boolPtr(true))

	_, err := svc.Update(ctx, "alice", a.ID, models.UpdateTodoRequest{Title: "a", Completed: boolPtr(true)})
	require.NoError(t, err)
	_, err = svc.Update(ctx, "alice", b.ID, models.UpdateTodoRequest{Title: "b", Completed: boolPtr(true)})
	require.NoError(t, err)

	require.NoError(t, svc.ClearCompleted(ctx, "alice"))

	remaining := list(t, svc, "alice", models.FilterNone)
	require.Len(t, remaining.Todos, 1)
	assert.Equal(t, c.ID, remaining.Todos[0].ID)
	assert.Equal(t, 1, list(t, svc, "bob", models.FilterCompleted).CompletedCount)
}

func TestUpdate_SetsTitleAndClearsFlagWhenAbsent(t *testing.T) {
	svc, pub := newTodoService(t)
	ctx := context.Background()
	mine := create(t, svc, "alice", "Old Title", boolPtr(true))
	theirs := create(t, svc, "bob", "Bob's", nil)

	res, err := svc.Update(ctx, "alice", mine.ID, models.UpdateTodoRequest{Title: "  New Title "})
	require.NoError(t, err)
	assert.Equal(t, UpdateResultUpdated, res)

	got := list(t, svc, "alice", models.FilterNone).Todos
	require.Len(t, got, 1)
	assert.Equal(t, "New Title", got[0].Title)
	assert.False(t, got[0].Completed)

	// Ids are global; bob's id under alice's ownership matches nothing.
	res, err = svc.Update(ctx, "alice", theirs.ID, models.UpdateTodoRequest{Title: "hijack", Completed: boolPtr(true)})
	require.NoError(t, err)
	assert.Equal(t, UpdateResultUpdated, res)
	bobs := list(t, svc, "bob", models.FilterNone).Todos
	require.Len(t, bobs, 1)
	assert.Equal(t, "Bob's", bobs[0].Title)
	assert.False(t, bobs[0].Completed)

	require.Len(t, pub.events, 3, "a foreign id publishes nothing")
	assert.Equal(t, models.ActionUpdated, pub.events[2].Action)
	assert.Equal(t, mine.ID, pub.events[2].TodoID)
	assert.Equal(t, "New Title", pub.events[2].Title)
}

func TestUpdate_EmptyTitleDeletesItem(t *testing.T) {
	svc, pub := newTodoService(t)
	ctx := context.Background()
	td := create(t, svc, "alice", "doomed", nil)
	theirs := create(t, svc, "bob", "safe", nil)

	res, err := svc.Update(ctx, "alice", td.ID, models.UpdateTodoRequest{Title: "   "})
	require.NoError(t, err)
	assert.Equal(t, UpdateResultDeleted, res)
	assert.Empty(t, list(t, svc, "alice", models.FilterNone).Todos)
	assert.Equal(t, models.ActionDeleted, pub.events[len(pub.events)-1].Action)

	published := len(pub.events)
	res, err = svc.Update(ctx, "alice", theirs.ID, models.UpdateTodoRequest{Title: ""})
	require.NoError(t, err)
	assert.Equal(t, UpdateResultDeleted, res)
	assert.Len(t, list(t, svc, "bob", models.FilterNone).Todos, 1)
	assert.Len(t, pub.events, published)
}

func TestOperationsRequireOwner(t *testing.T) {
	svc, _ := newTodoService(t)
	ctx := context.Background()

	_, err := svc.List(ctx, "", models.FilterNone)
	assert.ErrorIs(t, err, ErrOwnerRequired)
	_, err = svc.Create(ctx, "", models.CreateTodoRequest{Title: "x"})
	assert.ErrorIs(t, err, ErrOwnerRequired)
	_, err = svc.Update(ctx, "", 1, models.UpdateTodoRequest{Title: "x"})
	assert.ErrorIs(t, err, ErrOwnerRequired)
	assert.ErrorIs(t, svc.Delete(ctx, "", 1), ErrOwnerRequired)
	assert.ErrorIs(t, svc.ToggleAll(ctx, "", nil), ErrOwnerRequired)
	assert.ErrorIs(t, svc.ClearCompleted(ctx, ""), ErrOwnerRequired)
}

type brokenStore struct{ err error }

func (s brokenStore) ListByOwner(context.Context, string) ([]models.Todo, error) { return nil, s.err }
func (s brokenStore) Create(context.Context, *models.Todo) error { return s.err }
func (s brokenStore) Update(context.Context, int64, string, string, bool) (int64, error) {
	return 0, s.err
}
func (s brokenStore) Delete(context.Context, int64, string) (int64, error) { return 0, s.err }
func (s brokenStore) SetAllCompleted(context.Context, string, bool) (int64, error) { return 0, s.err }
func (s brokenStore) DeleteCompleted(context.Context, string) (int64, error) { return 0, s.err }

func TestStoreFailuresSurfaceAsStoreError(t *testing.T) {
	cause := errors.New("connection refused")
	pub := &recordingPublisher{}
	svc := NewTodoService(brokenStore{err: cause}, pub)
	ctx := context.Background()

	errs := []error{}
	_, err := svc.List(ctx, "alice", models.FilterNone)
	errs = append(errs, err)
	_, err = svc.Create(ctx, "alice", models.CreateTodoRequest{Title: "x"})
	errs = append(errs, err)
	_, err = svc.Update(ctx, "alice", 1, models.UpdateTodoRequest{Title: "x"})
	errs = append(errs, err)
	_, err = svc.Update(ctx, "alice", 1, models.UpdateTodoRequest{Title: ""})
	errs = append(errs, err)
	errs = append(errs, svc.Delete(ctx, "alice", 1), svc.ToggleAll(ctx, "alice", nil), svc.ClearCompleted(ctx, "alice"))

	for _, err := range errs {
		assert.ErrorIs(t, err, ErrStore)
		assert.ErrorIs(t, err, cause)
		var se *StoreError
		assert.ErrorAs(t, err, &se)
	}
	assert.Empty(t, pub.events, "failed mutations must not publish")
}

func TestPublishFailureDoesNotFailMutation(t *testing.T) {
	svc, pub := newTodoService(t)
	pub.err = errors.New("broker down")

	td, err := svc.Create(context.Background(), "alice", models.CreateTodoRequest{Title: "still saved"})
	require.NoError(t, err)
	require.NotNil(t, td)
	assert.Len(t, list(t, svc, "alice", models.FilterNone).Todos, 1)
}
