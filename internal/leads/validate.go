package leads

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// notblank trims text and checks set length, which is exactly "missing".
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	return v
}

// Validate returns the identifiers of every required field that is empty.
// Text fields count as empty when only whitespace remains after trimming,
// multi-select fields when nothing is selected. The result is never nil and
// follows the field declaration order.
func Validate(values FormValues) []string {
	missing := []string{}
	err := validate.Struct(values)
	if err == nil {
		return missing
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		// Only reachable on programmer error (non-struct input).
		panic(err)
	}
	for _, fe := range fieldErrs {
		missing = append(missing, fe.Field())
	}
	return missing
}
