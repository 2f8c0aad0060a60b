package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/snwareresearch/project-tracker/internal"
)

// PasswordSymbols is the fixed set of symbols a password must draw from.
const PasswordSymbols = "@$!%*#?&"

// PasswordMaxLength is the longest input bcrypt hashes (72 bytes). The policy
// allows ASCII only, so bytes and characters agree.
const (
	PasswordMinLength = 6
	PasswordMaxLength = 72
)

// Validator wraps go-playground/validator with the organisation's rules
// (email domain, password policy) and reports failures as AppErrors.
type Validator struct {
	v           *validator.Validate
	emailDomain string
}

// New builds a Validator accepting only addresses under emailDomain.
func New(emailDomain string) *Validator {
	domain := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(emailDomain), "@"))
	orgEmail := regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@` + regexp.QuoteMeta(domain) + `$`)

	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("orgemail", func(fl validator.FieldLevel) bool {
		return orgEmail.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return ValidPassword(fl.Field().String())
	})

	_ = v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		_, ok := ParseDate(fl.Field().String())
		return ok
	})

	return &Validator{v: v, emailDomain: domain}
}

// EmailDomain is the organisational domain signups must belong to.
func (val *Validator) EmailDomain() string {
	return val.emailDomain
}

// Struct validates s and returns nil or a VALIDATION_FAILED AppError listing
// every failing field.
func (val *Validator) Struct(s interface{}) *apperrors.AppError {
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.NewValidationError(err.Error(), apperrors.ErrCodeValidationFailed)
	}

	details := apperrors.ValidationErrors{Errors: make([]apperrors.ValidationError, 0, len(fieldErrs))}
	for _, fe := range fieldErrs {
		details.Errors = append(details.Errors, apperrors.ValidationError{
			Field:   fe.Field(),
			Message: val.message(fe),
			Code:    strings.ToUpper(fe.Tag()),
		})
	}

	return apperrors.NewValidationError("Validation failed", apperrors.ErrCodeValidationFailed).
		WithDetails(details)
}

// Password checks a single password value against the policy.
func (val *Validator) Password(field, password string) *apperrors.AppError {
	if ValidPassword(password) {
		return nil
	}
	return apperrors.NewValidationFieldError(field, passwordMessage(field), apperrors.ErrCodeValidationFailed)
}

func (val *Validator) message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("at least %s %s entry is required", fe.Param(), field)
		}
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must not exceed %s characters", field, fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "orgemail":
		return fmt.Sprintf("Only @%s emails are allowed", val.emailDomain)
	case "password":
		return passwordMessage(field)
	case "isodate":
		return fmt.Sprintf("%s must be a date (YYYY-MM-DD) or RFC 3339 timestamp", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func passwordMessage(field string) string {
	return fmt.Sprintf("%s must be %d-%d characters of letters, digits and %s, with at least one of each",
		field, PasswordMinLength, PasswordMaxLength, PasswordSymbols)
}

// ValidPassword reports whether p satisfies the password policy: length
// bounds, only letters, digits and PasswordSymbols, and at least one of each.
func ValidPassword(p string) bool {
	if len(p) < PasswordMinLength || len(p) > PasswordMaxLength {
		return false
	}

	var letter, digit, symbol bool
	for _, c := range p {
		switch {
		case (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z'):
			letter = true
		case c >= '0' && c <= '9':
			digit = true
		case strings.ContainsRune(PasswordSymbols, c):
			symbol = true
		default:
			return false
		}
	}
	return letter && digit && symbol
}

var dateLayouts = []string{time.RFC3339, "2006-01-02"}

// ParseDate accepts an RFC 3339 timestamp or a plain YYYY-MM-DD date.
func ParseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
