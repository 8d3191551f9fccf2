package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"rollcall/internal/config"
	"rollcall/internal/directory"
	"rollcall/internal/metrics"
	"rollcall/internal/notify"
	"rollcall/internal/queue"
	"rollcall/internal/store"
	"rollcall/internal/streak"
)

// Worker consumes absence events, advances streaks and sends absence emails.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		log.Fatalf("migrate failed: %v", err)
	}

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "rollcall:absences")
	}

	var mailer notify.Mailer
	if cfg.MailConsole || cfg.SendGridKey == "" {
		log.Println("mail delivery disabled, logging messages instead")
		mailer = notify.ConsoleMailer{}
	} else {
		mailer = notify.NewSendGridMailer(cfg.SendGridKey, cfg.MailFromName, cfg.MailFromAddr)
	}

	dir := directory.NewRepository(db.Client)
	tracker := streak.NewTracker(streak.NewRepository(db.Client))
	dispatcher := notify.NewDispatcher(dir, mailer, tracker)

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for absence events...")
	for msg := range messages {
		if msg.Type != queue.TypeAbsence {
			continue
		}
		evt, err := queue.DecodeAbsence(msg)
		if err != nil {
			log.Printf("bad absence event: %v", err)
			continue
		}
		dispatcher.HandleAbsence(ctx, evt)
		metrics.AbsencesProcessed.Inc()
	}

	log.Println("worker stopped")
}
