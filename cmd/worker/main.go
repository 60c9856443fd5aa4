package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"gympoint/internal/checkin"
	"gympoint/internal/config"
	"gympoint/internal/queue"
	"gympoint/internal/stats"
	"gympoint/internal/store"
)

// The worker consumes check-in events and keeps the daily attendance
// counters in Redis current.
func main() {
	cfg := config.Load()
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("component", "worker").Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info().Msg("shutdown signal received")
		cancel()
	}()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, queue.CheckinKey)
	}

	tracker := stats.NewTracker(redisClient.Client)

	messages, err := q.Consume(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("queue consume init failed")
	}

	logger.Info().Msg("worker started, waiting for messages")
	for msg := range messages {
		if msg.Type != "checkin" {
			continue
		}

		var evt checkin.Event
		if err := json.Unmarshal(msg.Body, &evt); err != nil {
			logger.Warn().Err(err).Msg("dropping malformed message")
			continue
		}

		if err := tracker.RecordCheckin(ctx, evt.CreatedAt); err != nil {
			logger.Warn().Err(err).Int64("student_id", evt.StudentID).Msg("stats update failed")
			continue
		}
		logger.Info().Int64("student_id", evt.StudentID).Time("created_at", evt.CreatedAt).Msg("checkin counted")
	}

	logger.Info().Msg("worker stopped")
}
