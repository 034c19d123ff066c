// Package validate holds the report field rules shared by the HTTP handlers and
// the report service.
package validate

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/campuslostfound/lostfound/internal/model"
)

var v = newValidator()

func newValidator() *validator.Validate {
	vd := validator.New(validator.WithRequiredStructEnabled())
	_ = vd.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return model.IsCategory(fl.Field().String())
	})
	_ = vd.RegisterValidation("date", layout(time.DateOnly))
	_ = vd.RegisterValidation("clock", layout("15:04"))
	return vd
}

func layout(l string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		_, err := time.Parse(l, fl.Field().String())
		return err == nil
	}
}

// Struct validates s and returns a model.ErrValidation listing every failed field.
func Struct(s interface{}) error {
	return joined(problems(s))
}

// Report applies the CreateReport rules to a domain report. The owner must be set.
func Report(r *model.Report) error {
	msgs := problems(CreateReport{
		Kind:        string(r.Kind),
		Category:    r.Category,
		Title:       r.Title,
		Description: r.Description,
		Location:    r.Location,
		OccurredOn:  r.OccurredOn,
		OccurredAt:  r.OccurredAt,
		ImageRef:    r.ImageRef,
	})
	if r.OwnerID == "" {
		msgs = append(msgs, "ownerId is required")
	}
	return joined(msgs)
}

func problems(s interface{}) []string {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return []string{err.Error()}
	}
	msgs := make([]string, 0, len(ves))
	for _, fe := range ves {
		msgs = append(msgs, describe(fe))
	}
	return msgs
}

func joined(msgs []string) error {
	if len(msgs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", model.ErrValidation, strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := lowerFirst(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "max":
		return fmt.Sprintf("%s exceeds %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "category":
		return fmt.Sprintf("%s must be one of: %s", field, strings.Join(model.Categories, ", "))
	case "date":
		return field + " must be YYYY-MM-DD"
	case "clock":
		return field + " must be HH:MM"
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// -------- Request bodies ----------

// CreateReport is the body of POST /api/reports.
type CreateReport struct {
	Kind        string  `json:"kind" validate:"required,oneof=lost found"`
	Category    string  `json:"category" validate:"required,category"`
	Title       string  `json:"title" validate:"required,max=200"`
	Description string  `json:"description" validate:"max=4000"`
	Location    string  `json:"location" validate:"required,max=200"`
	OccurredOn  string  `json:"occurredOn" validate:"required,date"`
	OccurredAt  *string `json:"occurredAt,omitempty" validate:"omitempty,clock"`
	ImageRef    string  `json:"imageRef" validate:"omitempty,url,max=2048"`
}

// MatchTrigger is the body of POST /api/match. Presence is checked by the handler so
// the error message stays stable; Struct only checks the kind.
type MatchTrigger struct {
	ItemID   string `json:"itemId"`
	ItemType string `json:"itemType" validate:"omitempty,oneof=lost found"`
}
