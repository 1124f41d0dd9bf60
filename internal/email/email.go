package email

import (
	"context"
	"fmt"

	"github.com/Domenick1991/airreserve/internal/domain"
	"github.com/sirupsen/logrus"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender stands in for a mail gateway: it renders the message and logs it.
type Sender struct {
	logger *logrus.Logger
}

func NewSender(logger *logrus.Logger) *Sender {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Sender{logger: logger}
}

func (s *Sender) Send(ctx context.Context, event domain.BookingEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, err := Render(event)
	if err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"to":      msg.To,
		"subject": msg.Subject,
		"pnr":     event.PNR,
		"event":   event.Type,
	}).Info("email sent")
	return nil
}

func Render(event domain.BookingEvent) (Message, error) {
	if event.Email == "" {
		return Message{}, fmt.Errorf("%w: booking %s has no e-mail", domain.ErrInvalidArgument, event.PNR)
	}

	flight := event.FlightNumber
	if flight == "" {
		flight = fmt.Sprintf("#%d", event.FlightID)
	}

	switch event.Type {
	case domain.EventBookingCreated:
		return Message{
			To:      event.Email,
			Subject: fmt.Sprintf("Booking %s confirmed", event.PNR),
			Body: fmt.Sprintf("Dear %s,\n\nyour %s seat %s on flight %s is confirmed.\nBooking reference: %s\nPrice paid: %d.%02d\n",
				event.PassengerName, event.SeatClass, event.SeatNumber, flight, event.BookingReference,
				event.PricePaidCents/100, event.PricePaidCents%100),
		}, nil
	case domain.EventBookingCancelled:
		return Message{
			To:      event.Email,
			Subject: fmt.Sprintf("Booking %s cancelled", event.PNR),
			Body: fmt.Sprintf("Dear %s,\n\nyour booking %s on flight %s has been cancelled.\n",
				event.PassengerName, event.PNR, flight),
		}, nil
	default:
		return Message{}, fmt.Errorf("%w: unsupported event type %q", domain.ErrInvalidArgument, event.Type)
	}
}
