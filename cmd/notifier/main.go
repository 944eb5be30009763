package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joaoc-dev/blueledger-sub001/internal/auth"
	"github.com/joaoc-dev/blueledger-sub001/internal/config"
	appKafka "github.com/joaoc-dev/blueledger-sub001/internal/kafka"
	kafkahandlers "github.com/joaoc-dev/blueledger-sub001/internal/kafka/handlers"
	"github.com/joaoc-dev/blueledger-sub001/internal/websocket"
)

// The notifier bridges the notifications topic to websocket clients. Each
// connected user gets an opaque refresh ping when a notification lands; the
// actual inbox is served by the API server.
func main() {
	// 1. Load configuration.
	cfg, err := config.LoadConfig("")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	log.Printf("%s notifier configuration loaded.", cfg.AppName)

	// 2. Start the websocket hub.
	hub := websocket.NewHub()
	go hub.Run()

	// 3. Start the Kafka consumer feeding the hub.
	consumer, err := appKafka.NewConfluentKafkaConsumer(cfg.Kafka)
	if err != nil {
		log.Fatalf("Failed to create Kafka consumer: %v", err)
	}
	defer consumer.Close()

	consumerLogic := kafkahandlers.NewNotificationConsumerLogic(hub)

	consumerCtx, cancelConsumer := context.WithCancel(context.Background())
	defer cancelConsumer()

	go func() {
		topics := []string{cfg.Kafka.NotificationsTopic}
		log.Printf("Notification consumer starting, topic: %s, group: %s", cfg.Kafka.NotificationsTopic, cfg.Kafka.NotifierGroup)
		err := consumer.Consume(consumerCtx, topics, cfg.Kafka.NotifierGroup, consumerLogic.HandleNotificationEvent)
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("Notification consumer error: %v", err)
		}
		log.Println("Notification consumer stopped.")
	}()

	// 4. Websocket endpoint. The token travels as a query parameter because
	// browser websocket clients cannot set an Authorization header.
	mux := http.NewServeMux()
	mux.HandleFunc(cfg.Notifier.WebSocketPath, func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}
		claims, err := auth.ValidateToken(token, cfg.Auth.JWTSecretKey)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		websocket.ServeWs(hub, claims.UserID, w, r, cfg.WebSocket)
	})

	// 5. Start the HTTP server with graceful shutdown.
	serverAddr := fmt.Sprintf("%s:%s", cfg.Notifier.Host, cfg.Notifier.Port)
	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      mux,
		ReadTimeout:  cfg.Notifier.ReadTimeout,
		WriteTimeout: cfg.Notifier.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Notifier listening on %s (websocket path %s)", serverAddr, cfg.Notifier.WebSocketPath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Notifier failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutdown signal received, stopping notifier...")

	cancelConsumer()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("Notifier forced to shut down: %v", err)
	}
	log.Println("Notifier stopped.")
}
