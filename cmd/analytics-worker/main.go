package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rabbitmq/amqp091-go"

	"github.com/shortlyhq/shortly/internal"
	"github.com/shortlyhq/shortly/internal/cache"
	"github.com/shortlyhq/shortly/internal/config"
	applog "github.com/shortlyhq/shortly/internal/logger"
	"github.com/shortlyhq/shortly/internal/queue"
	"github.com/shortlyhq/shortly/internal/store"
)

const batchSize = 100

func main() {
	if err := godotenv.Load(".env"); err != nil {
		slog.Warn(".env file not found, relying on env vars", "err", err)
	}

	cfg, err := config.LoadWorker()
	if err != nil {
		slog.Error("Invalid configuration", "err", err)
		os.Exit(1)
	}

	applog.Init(applog.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: cfg.Log.Service,
		Env:     cfg.Log.Env,
		Output:  cfg.Log.Output,
	})

	db, err := store.New(cfg.Database.URL, cfg.Database.GormLogLevel)
	if err != nil {
		slog.Error("Unable to connect to database", "err", err)
		os.Exit(1)
	}

	ca := cache.New(cache.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Timeout:  cfg.Redis.Timeout,
	})

	clickQueue, err := queue.Dial(cfg.RabbitMQ.URL, cfg.RabbitMQ.ClickQueue)
	if err != nil {
		slog.Error("Unable to connect to RabbitMQ", "err", err)
		os.Exit(1)
	}
	defer clickQueue.Close()

	msgs, err := clickQueue.Consume()
	if err != nil {
		slog.Error("Failed to start consumer", "err", err)
		os.Exit(1)
	}

	slog.Info("Analytics worker started. Waiting for click events...")

	go consumeClicks(db, msgs)
	go drainBuffers(db, ca, cfg.FlushInterval)
	go sweepExpired(db, cfg.SweepInterval)

	// Block forever
	select {}
}

// consumeClicks batches queued click events and persists each batch in one
// transaction, acking on success and re-queueing on failure.
func consumeClicks(db *store.Store, msgs <-chan amqp091.Delivery) {
	var events []internal.ClickEvent
	var deliveries []amqp091.Delivery

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	flush := func() {
		if len(events) == 0 {
			return
		}
		err := db.RecordClickBatch(context.Background(), events)
		if err != nil {
			slog.Error("Failed to persist click batch, nacking", "count", len(events), "err", err)
			for _, d := range deliveries {
				d.Nack(false, true)
			}
		} else {
			slog.Info("Persisted click batch", "count", len(events))
			for _, d := range deliveries {
				d.Ack(false)
			}
		}
		events, deliveries = nil, nil
	}

	for {
		select {
		case d, ok := <-msgs:
			if !ok {
				slog.Warn("RabbitMQ channel closed")
				flush()
				return
			}
			var event internal.ClickEvent
			if err := json.Unmarshal(d.Body, &event); err != nil {
				slog.Error("Dropping undecodable message", "err", err)
				d.Reject(false)
				continue
			}
			events = append(events, event)
			deliveries = append(deliveries, d)
			if len(events) >= batchSize {
				flush()
				ticker.Reset(2 * time.Second)
			}
		case <-ticker.C:
			flush()
		}
	}
}

// drainBuffers picks up click events that never reached the queue and were
// parked in the Redis buffer by the resolver's fallback path.
func drainBuffers(db *store.Store, ca *cache.Cache, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		for _, code := range ca.ScanClickBuffers(ctx) {
			events := ca.FlushClickBuffer(ctx, code)
			if len(events) == 0 {
				continue
			}
			if err := db.RecordClickBatch(ctx, events); err != nil {
				// Buffer already cleared; these clicks are lost. Accepted
				// at-least-effort semantics for the async path.
				slog.Error("Failed to persist drained clicks", "code", code, "count", len(events), "err", err)
				continue
			}
			slog.Info("Drained click buffer", "code", code, "count", len(events))
		}
		cancel()
	}
}

// sweepExpired is the store's passive expiry pass.
func sweepExpired(db *store.Store, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		removed, err := db.SweepExpired(ctx)
		cancel()
		if err != nil {
			slog.Error("Expiry sweep failed", "err", err)
			continue
		}
		if removed > 0 {
			slog.Info("Expiry sweep removed links", "count", removed)
		}
	}
}
