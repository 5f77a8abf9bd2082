// Command ledger-events consumes ledger events from AMQP and logs them.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mmynk/fintrack/internal/config"
	"github.com/mmynk/fintrack/internal/events"
	"github.com/mmynk/fintrack/pkg/logging"
)

func main() {
	logging.Setup()
	cfg := config.Load()

	if cfg.AMQPURL == "" {
		slog.Error("AMQP_URL is required")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := events.DialAMQP(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		slog.Error("Failed to connect to AMQP", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	slog.Info("Consuming ledger events", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	err = client.Consume(ctx, func(ctx context.Context, e events.Event) error {
		slog.InfoContext(ctx, "Ledger event",
			"type", e.Type,
			"user_id", e.UserID,
			"entity_id", e.EntityID,
			"amount", e.Amount.String(),
			"at", e.At,
		)
		return nil
	})
	if err != nil && ctx.Err() == nil {
		slog.Error("Consumer stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("Consumer stopped")
}
