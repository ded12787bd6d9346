package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate holds the field rules for Item and User. It caches struct
// metadata and is safe for concurrent use.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// notblank rejects strings that are empty after trimming whitespace.
	if err := v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	}); err != nil {
		panic(fmt.Sprintf("catalog: failed to register notblank: %v", err))
	}
	return v
}

// check validates fields and returns the sentinel error of the first
// failing field, in struct field order.
//
// PARAMETERS:
//   - fields: A struct carrying `validate` tags.
//   - sentinels: The error to report per struct field name.
//
// RETURNS:
//   - nil when every rule passes.
//   - The mapped sentinel, or the wrapped validator error for an unmapped field.
func check(fields any, sentinels map[string]error) error {
	err := validate.Struct(fields)
	if err == nil {
		return nil
	}

	var failures validator.ValidationErrors
	if errors.As(err, &failures) && len(failures) > 0 {
		if sentinel, ok := sentinels[failures[0].Field()]; ok {
			return sentinel
		}
	}
	return fmt.Errorf("failed to validate %T: %w", fields, err)
}
