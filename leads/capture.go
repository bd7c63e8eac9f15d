package leads

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"lead-checkout/models"

	"github.com/go-playground/validator/v10"
)

type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field %v", e.Field)
}

type InvalidEmailError struct {
	Email string
}

func (e *InvalidEmailError) Error() string {
	return fmt.Sprintf("invalid email %q", e.Email)
}

type InvalidPhoneError struct {
	Digits int
}

func (e *InvalidPhoneError) Error() string {
	return fmt.Sprintf("invalid phone: %v digits, want at least %v", e.Digits, PhoneDigits)
}

var emailShape = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type contactForm struct {
	Email string `validate:"required,leademail"`
	Phone string `validate:"required,leadphone"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// registration only fails on an empty tag or nil func
	_ = v.RegisterValidation("leademail", func(fl validator.FieldLevel) bool {
		return emailShape.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("leadphone", func(fl validator.FieldLevel) bool {
		return len(Digits(fl.Field().String())) >= PhoneDigits
	})
	return v
}

// Validate checks the contact fields in the order the form reports them:
// both present, then email shape, then phone length.
func Validate(email, phone string) error {
	form := contactForm{Email: strings.TrimSpace(email), Phone: strings.TrimSpace(phone)}
	err := validate.Struct(form)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("failed to validate contact: %w", err)
	}
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			return &MissingFieldError{Field: strings.ToLower(fe.Field())}
		}
	}
	for _, fe := range verrs {
		if fe.Tag() == "leademail" {
			return &InvalidEmailError{Email: form.Email}
		}
	}
	return &InvalidPhoneError{Digits: len(Digits(form.Phone))}
}

// IsValidationError reports whether err came from Validate, i.e. nothing
// has been persisted or sent yet and the user only needs to fix the input.
func IsValidationError(err error) bool {
	var missing *MissingFieldError
	var email *InvalidEmailError
	var phone *InvalidPhoneError
	return errors.As(err, &missing) || errors.As(err, &email) || errors.As(err, &phone)
}

// Capture validates the raw contact fields and builds the pending lead
// for the selected plan.
func Capture(email, phone string, plan models.PlanContext) (models.CustomerLead, error) {
	err := Validate(email, phone)
	if err != nil {
		return models.CustomerLead{}, err
	}

	return models.CustomerLead{
		Email:     strings.TrimSpace(email),
		Phone:     FormatPhone(phone),
		PhoneE164: PhoneE164(phone),
		PlanID:    plan.PlanID,
		PlanName:  plan.PlanName,
		PlanPrice: plan.PriceLabel,
		IsAnnual:  plan.IsAnnual,
		SetupFee:  plan.SetupFee,
		Status:    models.LeadStatusPending,
	}, nil
}
