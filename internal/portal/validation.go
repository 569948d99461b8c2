package portal

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// ErrInvalidRequest reports a request that failed validation before any remote call.
var ErrInvalidRequest = errors.New("invalid request")

// LoginRequest is a document-number login.
type LoginRequest struct {
	DocumentNumber string `validate:"required,min=6,max=12,alphanum"`
}

// RechargeRequest adds funds to the player's balance.
type RechargeRequest struct {
	Amount        decimal.Decimal `validate:"gte=10,lte=1000"`
	PaymentMethod string          `validate:"required,max=50"`
}

// TicketRequest opens a support ticket.
type TicketRequest struct {
	Subject     string `validate:"required,min=5,max=255"`
	Category    string `validate:"max=100"`
	Description string `validate:"required,min=10,max=2000"`
}

// ClaimRequest redeems a promotion code.
type ClaimRequest struct {
	Code string `validate:"required,max=50"`
}

func newValidator() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
	return validate
}

func decimalValue(field reflect.Value) any {
	amount, ok := field.Interface().(decimal.Decimal)
	if !ok {
		return nil
	}
	value, _ := amount.Float64()
	return value
}

func validateRequest(validate *validator.Validate, request any) error {
	err := validate.Struct(request)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	problems := make([]string, 0, len(validationErrors))
	for _, fieldError := range validationErrors {
		problems = append(problems, describeFieldError(fieldError))
	}
	return fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(problems, "; "))
}

func describeFieldError(fieldError validator.FieldError) string {
	field := strings.ToLower(fieldError.Field())
	switch fieldError.Tag() {
	case "required":
		return field + " is required"
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, fieldError.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", field, fieldError.Param())
	case "alphanum":
		return field + " must be alphanumeric"
	default:
		return fmt.Sprintf("%s failed %s", field, fieldError.Tag())
	}
}
