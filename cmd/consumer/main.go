package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/caminante/caminante-api/internal/queue"
)

// The consumer runs as its own process so the API can be scaled and
// restarted independently of event processing. It drains seat.events
// and appends the audit log; stopping it never affects reservations.
func main() {
	if os.Getenv("APP_ENV") != "prod" {
		_ = godotenv.Load()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("seat-consumer starting")
	if err := queue.StartSeatConsumer(ctx); err != nil {
		log.Fatalf("seat-consumer: %v", err)
	}
	log.Printf("seat-consumer stopped")
}
