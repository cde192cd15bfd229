package mentorship

import (
	"errors"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/mentorship-hub/mentorship-engine/internal/domain/shared"
)

const (
	// DateLayout is the wire and storage layout of a session date.
	DateLayout = "2006-01-02"

	// TimeLayout is the wire and storage layout of a session start time.
	TimeLayout = "15:04"
)

var (
	structValidator *validator.Validate
	validatorOnce   sync.Once
)

// V returns the shared validator instance with the domain rules registered.
func V() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("notblank", notBlankValidator)
		_ = v.RegisterValidation("sessiondate", layoutValidator(DateLayout))
		_ = v.RegisterValidation("sessiontime", layoutValidator(TimeLayout))
		structValidator = v
	})
	return structValidator
}

func notBlankValidator(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func layoutValidator(layout string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		_, err := time.Parse(layout, fl.Field().String())
		return err == nil
	}
}

// Validate runs struct validation and converts failures into a
// *shared.ValidationError keyed by JSON field name.
func Validate(s interface{}) error {
	err := V().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return shared.WrapError("validation", "Struct", shared.ErrValidation, "invalid input", err)
	}

	verr := &shared.ValidationError{}
	for _, fe := range fieldErrs {
		verr.Add(fieldPath(fe), describe(fe))
	}
	return verr
}

// fieldPath drops the top-level struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		if fe.Kind() == reflect.Slice {
			return "must have at least " + fe.Param() + " item(s)"
		}
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "must be at most " + fe.Param() + " characters"
		}
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	case "sessiondate":
		return "must be a date in YYYY-MM-DD format"
	case "sessiontime":
		return "must be a time in HH:MM format"
	default:
		return "is invalid"
	}
}
