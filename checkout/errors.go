package checkout

import (
	"errors"

	"lead-checkout/catalog"
	"lead-checkout/leads"
	"lead-checkout/models"
	"lead-checkout/payments"
)

// User-facing messages. Raw store or processor errors never reach the user.
const (
	MessageMissingField = "Por favor, preencha todos os campos."
	MessageInvalidEmail = "Por favor, insira um email válido."
	MessageInvalidPhone = "Por favor, insira um número de WhatsApp válido."
	MessageRetry        = "Houve um erro ao processar sua solicitação. Tente novamente."
)

// UserMessage maps any checkout error to what the user is shown.
func UserMessage(err error) string {
	var missing *leads.MissingFieldError
	var email *leads.InvalidEmailError
	var phone *leads.InvalidPhoneError
	switch {
	case errors.As(err, &missing):
		return MessageMissingField
	case errors.As(err, &email):
		return MessageInvalidEmail
	case errors.As(err, &phone):
		return MessageInvalidPhone
	default:
		return MessageRetry
	}
}

// Outcome is the metrics label for how an attempt ended.
func Outcome(err error) string {
	var unknown *catalog.UnknownPlanError
	var perr *models.PersistenceError
	var serr *payments.SessionCreationError
	switch {
	case err == nil:
		return "redirected"
	case leads.IsValidationError(err):
		return "invalid_input"
	case errors.As(err, &perr):
		return "persistence_error"
	case errors.As(err, &unknown):
		return "unknown_plan"
	case errors.As(err, &serr):
		return "session_error"
	default:
		return "redirect_error"
	}
}
