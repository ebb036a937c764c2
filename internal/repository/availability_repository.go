package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/djschool-api/internal/models"
	"github.com/noah-isme/djschool-api/pkg/database"
)

// AvailabilityRepository stores instructor weekly schedules.
type AvailabilityRepository struct {
	db *sqlx.DB
}

// NewAvailabilityRepository creates an AvailabilityRepository.
func NewAvailabilityRepository(db *sqlx.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

// Replace swaps the whole schedule of instructorID in one transaction. Either
// every slot is stored or the previous schedule is kept.
func (r *AvailabilityRepository) Replace(ctx context.Context, instructorID string, slots []models.AvailabilitySlot) ([]models.AvailabilitySlot, error) {
	stored := make([]models.AvailabilitySlot, len(slots))
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM instructor_availability WHERE instructor_id = $1`, instructorID); err != nil {
			return err
		}
		const insert = `INSERT INTO instructor_availability (id, instructor_id, day_of_week, start_time, end_time)
            VALUES (:id, :instructor_id, :day_of_week, :start_time, :end_time)`
		for i, slot := range slots {
			slot.ID = uuid.NewString()
			slot.InstructorID = instructorID
			if _, err := tx.NamedExecContext(ctx, insert, slot); err != nil {
				return err
			}
			stored[i] = slot
		}
		return nil
	})
	if err != nil {
		return nil, storeErr(err, "replace availability")
	}
	return stored, nil
}
