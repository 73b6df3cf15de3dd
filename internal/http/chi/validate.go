package chi

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/marcelsud/bookshelf-api/book"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateRequest reports request problems with the same error type the
// domain uses, so both map to 400 the same way.
func validateRequest(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return fmt.Errorf("validating request: %w", err)
	}
	problems := make([]string, 0, len(errs))
	for _, fe := range errs {
		problems = append(problems, describe(fe))
	}
	return &book.ValidationError{Problems: problems}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "min":
		return fe.Field() + " is required"
	case "gte":
		return fe.Field() + " must not be negative"
	case "isdefault":
		return fe.Field() + " must not be set"
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}
