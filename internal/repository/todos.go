package repository

import (
	"context"
	"database/sql"

	"session-todos/internal/database"
	"session-todos/internal/models"
	"session-todos/pkg/logger"
)

// TodoRepository runs the single-statement todo queries. Every statement is
// scoped by owner_id.
type TodoRepository struct {
	db *database.DB
}

// NewTodoRepository returns a repository bound to db.
func NewTodoRepository(db *database.DB) *TodoRepository {
	return &TodoRepository{db: db}
}

// completedValue maps the logical flag onto the nullable column: true or NULL.
func completedValue(completed bool) any {
	if completed {
		return true
	}
	return nil
}

// ListByOwner returns all of the owner's todos in insertion order.
func (r *TodoRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Todo, error) {
	rows, err := r.db.QueryContext(ctx,
		r.db.Rebind(`SELECT id, owner_id, title, completed FROM todos WHERE owner_id = ? ORDER BY id`), ownerID)
	if err != nil {
		logger.Error(ctx, "Repository ListByOwner failed", "error", err)
		return nil, err
	}
	defer rows.Close()

	todos := []models.Todo{}
	for rows.Next() {
		var (
			t         models.Todo
			completed sql.NullBool
		)
		if err := rows.Scan(&t.ID, &t.OwnerID, &t.Title, &completed); err != nil {
			logger.Error(ctx, "Repository scan todo failed", "error", err)
			return nil, err
		}
		t.Completed = completed.Valid && completed.Bool
		todos = append(todos, t)
	}
	return todos, rows.Err()
}

// Create inserts todo and sets its store-assigned ID.
func (r *TodoRepository) Create(ctx context.Context, todo *models.Todo) error {
	const q = `INSERT INTO todos (owner_id, title, completed) VALUES (?, ?, ?)`
	args := []any{todo.OwnerID, todo.Title, completedValue(todo.Completed)}

	if r.db.Dialect.Returning {
		if err := r.db.QueryRowContext(ctx, r.db.Rebind(q+` RETURNING id`), args...).Scan(&todo.ID); err != nil {
			logger.Error(ctx, "Repository Create failed", "error", err)
			return err
		}
		return nil
	}

	res, err := r.db.ExecContext(ctx, r.db.Rebind(q), args...)
	if err != nil {
		logger.Error(ctx, "Repository Create failed", "error", err)
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	todo.ID = id
	return nil
}

// Update sets title and completed on the row matching (id, owner). Zero rows
// affected is not an error.
func (r *TodoRepository) Update(ctx context.Context, id int64, ownerID, title string, completed bool) (int64, error) {
	return r.exec(ctx, "Update",
		`UPDATE todos SET title = ?, completed = ? WHERE id = ? AND owner_id = ?`,
		title, completedValue(completed), id, ownerID)
}

// Delete removes the row matching (id, owner).
func (r *TodoRepository) Delete(ctx context.Context, id int64, ownerID string) (int64, error) {
	return r.exec(ctx, "Delete", `DELETE FROM todos WHERE id = ? AND owner_id = ?`, id, ownerID)
}

// SetAllCompleted overwrites completed on every row the owner has.
func (r *TodoRepository) SetAllCompleted(ctx context.Context, ownerID string, completed bool) (int64, error) {
	return r.exec(ctx, "SetAllCompleted", `UPDATE todos SET completed = ? WHERE owner_id = ?`,
		completedValue(completed), ownerID)
}

// DeleteCompleted removes every completed row the owner has.
func (r *TodoRepository) DeleteCompleted(ctx context.Context, ownerID string) (int64, error) {
	return r.exec(ctx, "DeleteCompleted", `DELETE FROM todos WHERE owner_id = ? AND completed = ?`, ownerID, true)
}

func (r *TodoRepository) exec(ctx context.Context, op, query string, args ...any) (int64, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		logger.Error(ctx, "Repository "+op+" failed", "error", err)
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, nil
}
