package booking

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Domenick1991/airreserve/internal/domain"
	"github.com/go-playground/validator/v10"
)

type CreateBookingInput struct {
	FlightID       int64  `json:"flight_id" validate:"required,gt=0"`
	SeatClass      string `json:"seat_class" validate:"required,seat_class"`
	PassengerName  string `json:"passenger_name" validate:"required,max=200"`
	PassengerEmail string `json:"passenger_email" validate:"required,email,max=254"`
	PassengerPhone string `json:"passenger_phone" validate:"omitempty,max=32"`
}

func newInputValidator() *validator.Validate {
	v := validator.New()
	// Registration only fails for an empty tag or nil func.
	_ = v.RegisterValidation("seat_class", func(fl validator.FieldLevel) bool {
		_, err := domain.ParseSeatClass(fl.Field().String())
		return err == nil
	})
	return v
}

// validationError flattens validator output into a single ErrInvalidArgument.
func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %w", domain.ErrInvalidArgument, err)
	}
	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", domain.ErrInvalidArgument, strings.Join(messages, "; "))
}
