package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/djschool-api/internal/models"
	"github.com/noah-isme/djschool-api/internal/schema"
	appErrors "github.com/noah-isme/djschool-api/pkg/errors"
)

type availabilityRepository interface {
	Replace(ctx context.Context, instructorID string, slots []models.AvailabilitySlot) ([]models.AvailabilitySlot, error)
}

// AvailabilityService reads and replaces instructor weekly schedules.
type AvailabilityService struct {
	collections *Collections
	repo        availabilityRepository
	coordinator *RefreshCoordinator
	validator   *validator.Validate
}

// NewAvailabilityService constructs an AvailabilityService.
func NewAvailabilityService(collections *Collections, repo availabilityRepository, coordinator *RefreshCoordinator, validate *validator.Validate) *AvailabilityService {
	return &AvailabilityService{collections: collections, repo: repo, coordinator: coordinator, validator: ensureValidator(validate)}
}

// Get returns the weekly slots of instructorID.
func (s *AvailabilityService) Get(ctx context.Context, instructorID string) ([]models.AvailabilitySlot, error) {
	return s.collections.Availability.Fetch(ctx, schema.Availability.InstructorID.Eq(instructorID)).Unwrap()
}

// Replace swaps the whole schedule atomically.
func (s *AvailabilityService) Replace(ctx context.Context, instructorID string, req models.ReplaceAvailabilityRequest) (Result[[]models.AvailabilitySlot], error) {
	return RunMutation(ctx, s.coordinator, Mutation[[]models.AvailabilitySlot]{
		Name:          "availability.replace",
		RequireActor:  true,
		TargetID:      instructorID,
		RequireTarget: true,
		Check: func(ctx context.Context) error {
			if err := s.validator.Struct(req); err != nil {
				return validationError(err)
			}
			if err := checkSlots(req.Slots); err != nil {
				return err
			}
			return requireSelfOrAdmin(ctx, instructorID)
		},
		Write: func(ctx context.Context) ([]models.AvailabilitySlot, error) {
			return s.repo.Replace(ctx, instructorID, req.Slots)
		},
		Success:    "Availability saved",
		Invalidate: []string{TagAvailability},
	})
}

// checkSlots rejects empty windows and overlapping slots on the same day.
func checkSlots(slots []models.AvailabilitySlot) error {
	type window struct{ start, end time.Time }
	byDay := make(map[int][]window)
	for _, slot := range slots {
		start, _ := time.Parse("15:04", slot.StartTime)
		end, _ := time.Parse("15:04", slot.EndTime)
		if !end.After(start) {
			return appErrors.Clone(appErrors.ErrValidation, "slot end must be after start")
		}
		for _, w := range byDay[slot.DayOfWeek] {
			if start.Before(w.end) && w.start.Before(end) {
				return appErrors.Clone(appErrors.ErrValidation, "slots overlap")
			}
		}
		byDay[slot.DayOfWeek] = append(byDay[slot.DayOfWeek], window{start, end})
	}
	return nil
}
