package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/djschool-api/internal/models"
	"github.com/noah-isme/djschool-api/pkg/database"
)

// CurriculumRepository stores modules and lessons. Order indexes are assigned
// under an advisory lock on their scope so concurrent inserts never collide.
type CurriculumRepository struct {
	db *sqlx.DB
}

// NewCurriculumRepository creates a CurriculumRepository.
func NewCurriculumRepository(db *sqlx.DB) *CurriculumRepository {
	return &CurriculumRepository{db: db}
}

func levelScope(level models.StudentLevel) string { return "curriculum:level:" + string(level) }

func moduleScope(moduleID string) string { return "curriculum:module:" + moduleID }

func nextModuleIndex(ctx context.Context, tx *sqlx.Tx, level models.StudentLevel) (int, error) {
	if err := database.LockScope(ctx, tx, levelScope(level)); err != nil {
		return 0, err
	}
	var next int
	err := tx.GetContext(ctx, &next, `SELECT COALESCE(MAX(order_index), 0) + 1 FROM curriculum_modules WHERE level = $1`, level)
	return next, err
}

// CreateModule appends a module to the end of its level.
func (r *CurriculumRepository) CreateModule(ctx context.Context, m *models.CurriculumModule) error {
	now := time.Now().UTC()
	m.ID = uuid.NewString()
	m.CreatedAt, m.UpdatedAt = now, now
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		next, err := nextModuleIndex(ctx, tx, m.Level)
		if err != nil {
			return err
		}
		m.OrderIndex = next
		const insert = `INSERT INTO curriculum_modules (id, title, description, level, order_index, created_at, updated_at)
            VALUES (:id, :title, :description, :level, :order_index, :created_at, :updated_at)`
		_, err = tx.NamedExecContext(ctx, insert, m)
		return err
	})
	if err != nil {
		return storeErr(err, "create module")
	}
	return nil
}

// UpdateModule edits a module. Moving it to another level appends it there.
func (r *CurriculumRepository) UpdateModule(ctx context.Context, id string, in models.CurriculumModule) (*models.CurriculumModule, error) {
	var out models.CurriculumModule
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var current models.CurriculumModule
		if err := tx.GetContext(ctx, &current, `SELECT * FROM curriculum_modules WHERE id = $1 FOR UPDATE`, id); err != nil {
			return err
		}
		index := current.OrderIndex
		if in.Level != current.Level {
			next, err := nextModuleIndex(ctx, tx, in.Level)
			if err != nil {
				return err
			}
			index = next
		}
		const update = `UPDATE curriculum_modules SET title = $2, description = $3, level = $4, order_index = $5, updated_at = $6
            WHERE id = $1 RETURNING *`
		return tx.GetContext(ctx, &out, update, id, in.Title, in.Description, in.Level, index, time.Now().UTC())
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("module")
		}
		return nil, storeErr(err, "update module")
	}
	return &out, nil
}

// DeleteModule removes a module and, by cascade, its lessons.
func (r *CurriculumRepository) DeleteModule(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM curriculum_modules WHERE id = $1`, id)
	if err != nil {
		return storeErr(err, "delete module")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound("module")
	}
	return nil
}

// CreateLesson appends a lesson to the end of its module.
func (r *CurriculumRepository) CreateLesson(ctx context.Context, l *models.CurriculumLesson) error {
	now := time.Now().UTC()
	l.ID = uuid.NewString()
	l.CreatedAt, l.UpdatedAt = now, now
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var exists bool
		if err := tx.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM curriculum_modules WHERE id = $1)`, l.ModuleID); err != nil {
			return err
		}
		if !exists {
			return sql.ErrNoRows
		}
		if err := database.LockScope(ctx, tx, moduleScope(l.ModuleID)); err != nil {
			return err
		}
		if err := tx.GetContext(ctx, &l.OrderIndex, `SELECT COALESCE(MAX(order_index), 0) + 1 FROM curriculum_lessons WHERE module_id = $1`, l.ModuleID); err != nil {
			return err
		}
		const insert = `INSERT INTO curriculum_lessons (id, module_id, title, content, order_index, created_at, updated_at)
            VALUES (:id, :module_id, :title, :content, :order_index, :created_at, :updated_at)`
		_, err := tx.NamedExecContext(ctx, insert, l)
		return err
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notFound("module")
		}
		return storeErr(err, "create lesson")
	}
	return nil
}

// DeleteLesson removes a lesson. Remaining lessons keep their indexes.
func (r *CurriculumRepository) DeleteLesson(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM curriculum_lessons WHERE id = $1`, id)
	if err != nil {
		return storeErr(err, "delete lesson")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound("lesson")
	}
	return nil
}
