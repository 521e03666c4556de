// Package validation wraps go-playground/validator with the domain rules for
// tool inputs and maps validation failures onto the tool error taxonomy.
package validation

import (
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/tablegate/tablegate/pkg/toolerr"
)

var (
	v    *validator.Validate
	once sync.Once

	// Field names embeddable in formulas: letters, digits, spaces,
	// underscore, hyphen; must start with a letter.
	fieldNameRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9 _\-]{0,63}$`)
)

// Validator returns the singleton validator with custom rules registered.
func Validator() *validator.Validate {
	once.Do(func() {
		v = validator.New()

		// Report failures by json tag name so error text matches the tool
		// schema the caller saw.
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})

		_ = v.RegisterValidation("fieldname", func(fl validator.FieldLevel) bool {
			return fieldNameRe.MatchString(fl.Field().String())
		})
	})
	return v
}

// ValidateStruct validates a tool-input struct. Required-field failures come
// back as *toolerr.MissingArgumentError naming the argument; everything else
// is returned as-is for VALIDATION classification.
func ValidateStruct(s any) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}
	if ve, ok := err.(validator.ValidationErrors); ok && len(ve) > 0 {
		fe := ve[0]
		if fe.Tag() == "required" {
			return &toolerr.MissingArgumentError{Key: fe.Field()}
		}
	}
	return err
}
