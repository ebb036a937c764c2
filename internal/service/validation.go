package service

import (
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/djschool-api/internal/models"
	appErrors "github.com/noah-isme/djschool-api/pkg/errors"
)

// NewValidator returns a validator with the domain enum tags registered.
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("student_level", func(fl validator.FieldLevel) bool {
		_, ok := models.ParseStudentLevel(fl.Field().String())
		return ok
	})
	_ = v.RegisterValidation("attendance_status", func(fl validator.FieldLevel) bool {
		return models.AttendanceStatus(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		return models.UserRole(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		_, err := time.Parse("15:04", fl.Field().String())
		return err == nil
	})
	return v
}

func ensureValidator(v *validator.Validate) *validator.Validate {
	if v == nil {
		return NewValidator()
	}
	return v
}

// validationError converts validator output into an ErrValidation whose
// message names the failing fields.
func validationError(err error) error {
	if err == nil {
		return nil
	}
	var fields []string
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range verrs {
			fields = append(fields, strings.ToLower(fe.Field())+" "+fe.Tag())
		}
	}
	msg := "validation failed"
	if len(fields) > 0 {
		msg = "invalid " + strings.Join(fields, ", ")
	}
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, msg)
}

// checkPassword enforces the local minimum length before any I/O.
func checkPassword(password string, minLength int) error {
	if minLength <= 0 {
		minLength = 6
	}
	if len(password) < minLength {
		return appErrors.Clone(appErrors.ErrValidation, "password must be at least "+strconv.Itoa(minLength)+" characters")
	}
	return nil
}
