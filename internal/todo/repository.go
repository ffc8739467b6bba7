package todo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/redmonkez12/todos-api/internal/database"
)

var ErrNotFound = errors.New("todo not found")

// Repository handles todo persistence. Every query is scoped to an owner.
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// Count returns the number of todos the owner has
func (r *Repository) Count(ctx context.Context, ownerID int64) (int, error) {
	count, err := r.db.NewSelect().
		Model((*database.Todo)(nil)).
		Where("owner_id = ?", ownerID).
		Count(ctx)

	if err != nil {
		return 0, fmt.Errorf("failed to count todos: %w", err)
	}

	return count, nil
}

// List returns a window of the owner's todos, newest first
func (r *Repository) List(ctx context.Context, ownerID int64, offset, limit int) ([]*Todo, error) {
	var rows []database.Todo
	err := r.db.NewSelect().
		Model(&rows).
		Where("owner_id = ?", ownerID).
		OrderExpr("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Scan(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}

	todos := make([]*Todo, 0, len(rows))
	for i := range rows {
		todos = append(todos, mapDBTodoToModel(&rows[i]))
	}

	return todos, nil
}

func (r *Repository) Create(ctx context.Context, ownerID int64, title, text string, imageFilename *string) (*Todo, error) {
	now := time.Now().UTC()
	row := &database.Todo{
		OwnerID:       ownerID,
		Title:         title,
		Text:          text,
		ImageFilename: imageFilename,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	_, err := r.db.NewInsert().
		Model(row).
		Returning("*").
		Exec(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to create todo: %w", err)
	}

	return mapDBTodoToModel(row), nil
}

// Get returns ErrNotFound for todos of other owners
func (r *Repository) Get(ctx context.Context, ownerID, id int64) (*Todo, error) {
	row := new(database.Todo)
	err := r.db.NewSelect().
		Model(row).
		Where("id = ?", id).
		Where("owner_id = ?", ownerID).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get todo: %w", err)
	}

	return mapDBTodoToModel(row), nil
}

// Update overwrites title, text and image filename
func (r *Repository) Update(ctx context.Context, ownerID, id int64, title, text string, imageFilename *string) (*Todo, error) {
	result, err := r.db.NewUpdate().
		Model((*database.Todo)(nil)).
		Set("title = ?", title).
		Set("text = ?", text).
		Set("image_filename = ?", imageFilename).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Where("owner_id = ?", ownerID).
		Exec(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to update todo: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, ErrNotFound
	}

	return r.Get(ctx, ownerID, id)
}

// Delete removes the todo and returns it as it was stored
func (r *Repository) Delete(ctx context.Context, ownerID, id int64) (*Todo, error) {
	var deleted *Todo

	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		row := new(database.Todo)
		err := tx.NewSelect().
			Model(row).
			Where("id = ?", id).
			Where("owner_id = ?", ownerID).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to get todo: %w", err)
		}

		if _, err := tx.NewDelete().
			Model((*database.Todo)(nil)).
			Where("id = ?", row.ID).
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to delete todo: %w", err)
		}

		deleted = mapDBTodoToModel(row)
		return nil
	})

	if err != nil {
		return nil, err
	}

	return deleted, nil
}

// OwnerHasImage reports whether one of the owner's todos references filename
func (r *Repository) OwnerHasImage(ctx context.Context, ownerID int64, filename string) (bool, error) {
	exists, err := r.db.NewSelect().
		Model((*database.Todo)(nil)).
		Where("owner_id = ?", ownerID).
		Where("image_filename = ?", filename).
		Exists(ctx)

	if err != nil {
		return false, fmt.Errorf("failed to look up image owner: %w", err)
	}

	return exists, nil
}

func mapDBTodoToModel(row *database.Todo) *Todo {
	return &Todo{
		ID:            row.ID,
		OwnerID:       row.OwnerID,
		Title:         row.Title,
		Text:          row.Text,
		ImageFilename: row.ImageFilename,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
}
