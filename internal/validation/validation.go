// Package validation provides input validation utilities
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/asaskevich/govalidator"
	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func instance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Violation describes the first field of a request body that failed validation.
type Violation struct {
	Field string
	Tag   string
	Param string
}

func (v *Violation) Error() string {
	switch v.Tag {
	case "required":
		return fmt.Sprintf("'%s' is required", v.Field)
	case "max":
		return fmt.Sprintf("'%s' cannot exceed %s characters", v.Field, v.Param)
	case "min":
		return fmt.Sprintf("'%s' must be at least %s characters", v.Field, v.Param)
	default:
		return fmt.Sprintf("'%s' is not valid", v.Field)
	}
}

// Missing reports whether the violation is an absent required field.
func (v *Violation) Missing() bool {
	return v.Tag == "required"
}

// Struct validates the `validate` tags of a request struct and returns the
// first failure as a *Violation.
func Struct(s any) error {
	err := instance().Struct(s)
	if err == nil {
		return nil
	}
	var errs validator.ValidationErrors
	if errors.As(err, &errs) && len(errs) > 0 {
		return &Violation{Field: errs[0].Field(), Tag: errs[0].Tag(), Param: errs[0].Param()}
	}
	return err
}

// ValidatePassword checks the accepted password length.
func ValidatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < 4 {
		return fmt.Errorf("password must be at least 4 characters long")
	}
	if n > 12 {
		return fmt.Errorf("password must not exceed 12 characters")
	}
	return nil
}

// ValidateName checks that a display name has 2 to 32 characters made of
// letters, spaces and hyphens.
func ValidateName(name string) error {
	n := utf8.RuneCountInString(name)
	if n < 2 {
		return fmt.Errorf("name must be at least 2 characters long")
	}
	if n > 32 {
		return fmt.Errorf("name must not exceed 32 characters")
	}

	letters := strings.NewReplacer(" ", "", "-", "").Replace(name)
	if letters == "" || !govalidator.IsUTFLetter(letters) {
		return fmt.Errorf("name can only contain letters, spaces and hyphens")
	}
	return nil
}

// ValidateEmail checks email format
func ValidateEmail(email string) error {
	if len(email) > 254 {
		return fmt.Errorf("email must not exceed 254 characters")
	}
	if !govalidator.IsEmail(email) {
		return fmt.Errorf("invalid email format")
	}
	return nil
}
