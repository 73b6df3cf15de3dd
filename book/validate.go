package book

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

/* Book carries no tags, so its rules are registered as a map.
 * Every adapter runs Validate before writing, on the full (merged) book.
 */
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// the error can only come from an empty tag name
	_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		c, ok := fl.Field().Interface().(Category)
		return ok && c.Validate() == nil
	})
	v.RegisterStructValidationMapRules(map[string]string{
		"Title":    "required",
		"Author":   "required",
		"Price":    "gte=0",
		"Category": "category",
	}, Book{})
	return v
}

// Validate checks the field rules of b. Failures are returned as *ValidationError.
func Validate(b Book) error {
	err := validate.Struct(b)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validating book: %w", err)
	}
	verr := &ValidationError{}
	for _, fe := range fieldErrs {
		verr.Problems = append(verr.Problems, describe(fe))
	}
	return verr
}

func describe(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "gte":
		return field + " must not be negative"
	case "category":
		names := make([]string, 0, len(Categories()))
		for _, c := range Categories() {
			names = append(names, c.String())
		}
		return field + " must be one of " + strings.Join(names, ", ")
	}
	return fmt.Sprintf("%s failed %s", field, fe.Tag())
}

// ValidID reports whether id has the identifier format of the store (24 hex chars).
func ValidID(id string) bool {
	return primitive.IsValidObjectID(id)
}

// NewID generates a fresh identifier. Adapters without native ObjectIDs use it
// so ids look the same whatever the backend.
func NewID() string {
	return primitive.NewObjectID().Hex()
}
