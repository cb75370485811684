package usecase

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/duihelp/leadgen/internal/core/domain"
)

// LeadValidator checks a submission and reports every invalid field.
type LeadValidator struct {
	validate *validator.Validate
}

func NewLeadValidator() *LeadValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		n := len(phoneDigits(fl.Field().String()))
		return n >= 10 && n <= 15
	})
	return &LeadValidator{validate: v}
}

func (lv *LeadValidator) Validate(s domain.LeadSubmission) error {
	verr := &domain.ValidationError{}

	if err := lv.validate.Struct(s); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return domain.WrapError(domain.ErrValidation, "validate lead", err)
		}
		for _, fe := range fieldErrs {
			verr.Add(fe.Field(), fieldMessage(fe))
		}
	}
	if !s.ConsentToContact {
		verr.Add("consent_to_contact", "consent to contact must be given")
	}
	return verr.OrNil()
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "phone":
		return field + " must contain 10 to 15 digits"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "gte", "lte":
		return field + " must be between 0 and 1"
	default:
		return field + " is invalid"
	}
}

func phoneDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeRecency maps loose spellings ("This Week", "this-week") onto
// the canonical recency buckets.
func NormalizeRecency(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	if s == "" {
		return string(domain.RecencyUnknown)
	}
	return s
}
