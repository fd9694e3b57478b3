// internal/validator/validator.go
package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"expense-hive/internal/domain"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var Validate *validator.Validate

var (
	hexColorRe  = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)
	nonBlankRe  = regexp.MustCompile(`\S`)
	passwordSet = regexp.MustCompile(`^[A-Za-z\d@$!%*?&]{8,}$`)
)

const passwordMessage = "password must be at least 8 characters long and contain at least one uppercase letter, one lowercase letter, one number, and one special character"

func init() {
	Validate = validator.New(validator.WithRequiredStructEnabled())

	// Messages name fields the way clients send them.
	Validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	_ = Validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return nonBlankRe.MatchString(fl.Field().String())
	})

	_ = Validate.RegisterValidation("hexcolor6", func(fl validator.FieldLevel) bool {
		return hexColorRe.MatchString(fl.Field().String())
	})

	_ = Validate.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		_, err := domain.ParseDate(fl.Field().String())
		return err == nil
	})

	// At most two decimal places.
	_ = Validate.RegisterValidation("cents", func(fl validator.FieldLevel) bool {
		return decimal.NewFromFloat(fl.Field().Float()).Exponent() >= -2
	})

	_ = Validate.RegisterValidation("strongpassword", func(fl validator.FieldLevel) bool {
		return StrongPassword(fl.Field().String())
	})
}

// StrongPassword mirrors the registration rule: eight or more characters
// from letters, digits and @$!%*?&, with each class present.
func StrongPassword(s string) bool {
	if !passwordSet.MatchString(s) {
		return false
	}
	var lower, upper, digit, special bool
	for _, r := range s {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		default:
			special = true
		}
	}
	return lower && upper && digit && special
}

// Struct validates v and returns a *domain.ValidationError listing every
// failed field, or nil.
func Struct(v any) error {
	err := Validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.NewValidationError(err.Error())
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, fieldErrorToString(e))
	}
	return domain.NewValidationError(msgs...)
}

func fieldErrorToString(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%q is required", e.Field())
	case "notblank":
		return fmt.Sprintf("%q must not be blank", e.Field())
	case "max":
		return fmt.Sprintf("%q length must be less than or equal to %s characters long", e.Field(), e.Param())
	case "gt":
		return fmt.Sprintf("%q must be a positive number", e.Field())
	case "cents":
		return fmt.Sprintf("%q must have no more than 2 decimal places", e.Field())
	case "isodate":
		return fmt.Sprintf("%q must be in ISO 8601 date format", e.Field())
	case "hexcolor6":
		return fmt.Sprintf("%q must be a hex color like #A1B2C3", e.Field())
	case "email":
		return fmt.Sprintf("%q must be a valid email", e.Field())
	case "strongpassword":
		return passwordMessage
	default:
		return fmt.Sprintf("%q is invalid", e.Field())
	}
}
