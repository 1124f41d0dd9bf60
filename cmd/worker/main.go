package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/airreserve/config"
	"github.com/Domenick1991/airreserve/internal/domain"
	"github.com/Domenick1991/airreserve/internal/email"
	"github.com/Domenick1991/airreserve/internal/kafka"
	"github.com/Domenick1991/airreserve/internal/logger"
	"github.com/Domenick1991/airreserve/internal/rabbitmq"
	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	log := logger.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sender := email.NewSender(log)
	notify := func(ctx context.Context, event domain.BookingEvent) {
		if err := sender.Send(ctx, event); err != nil {
			log.WithError(err).WithField("pnr", event.PNR).Warn("notification skipped")
		}
	}

	switch cfg.Events.Broker {
	case config.BrokerKafka:
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Events.NotificationsTopic, log)
		defer consumer.Close()

		err = consumer.Consume(ctx, func(ctx context.Context, msg kafkaGo.Message) error {
			event, err := kafka.DecodeBookingEvent(msg)
			if err != nil {
				log.WithError(err).Warn("dropping malformed event")
				return nil
			}
			notify(ctx, event)
			return nil
		})
	case config.BrokerRabbitMQ:
		subscriber := rabbitmq.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, log)
		err = subscriber.Consume(ctx, cfg.Events.NotificationsTopic, func(ctx context.Context, body []byte) error {
			var event domain.BookingEvent
			if err := json.Unmarshal(body, &event); err != nil {
				return err
			}
			notify(ctx, event)
			return nil
		})
	default:
		log.Infof("events broker is %q, nothing to consume", cfg.Events.Broker)
		<-ctx.Done()
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("consumer stopped: %v", err)
	}
	log.Info("worker stopped")
}
