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

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	redisDriver "github.com/redis/go-redis/v9"

	"github.com/joaoc-dev/blueledger-sub001/internal/config"
	"github.com/joaoc-dev/blueledger-sub001/internal/handlers/apiserver"
	appKafka "github.com/joaoc-dev/blueledger-sub001/internal/kafka"
	"github.com/joaoc-dev/blueledger-sub001/internal/middleware"
	appRedis "github.com/joaoc-dev/blueledger-sub001/internal/redis"
	"github.com/joaoc-dev/blueledger-sub001/internal/services"
	"github.com/joaoc-dev/blueledger-sub001/internal/storage"
)

func main() {
	// 1. Load configuration.
	cfg, err := config.LoadConfig("")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	log.Printf("%s API server configuration loaded.", cfg.AppName)

	// 2. Initialize the database connection.
	db, err := storage.InitDB(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	if err := storage.AutoMigrateTables(db); err != nil {
		log.Fatalf("Failed to migrate database tables: %v", err)
	}
	log.Println("Database connection and migration succeeded.")

	// 3. Initialize the Redis client backing the rate limiter.
	redisClient := redisDriver.NewClient(&redisDriver.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	log.Println("Connected to Redis.")
	rateLimiter := appRedis.NewFixedWindowLimiter(redisClient, cfg.RateLimit.Requests, cfg.RateLimit.Window)

	// 4. Initialize repositories.
	userRepo := storage.NewGormUserRepository(db)
	friendshipRepo := storage.NewGormFriendshipRepository(db)
	groupRepo := storage.NewGormGroupRepository(db)
	membershipRepo := storage.NewGormMembershipRepository(db)
	notificationRepo := storage.NewGormNotificationRepository(db)
	txManager := storage.NewGormTxManager(db)

	// 5. Initialize the Kafka producer for notification events.
	kfkProducer, err := appKafka.NewConfluentKafkaProducer(cfg.Kafka)
	if err != nil {
		log.Fatalf("Failed to create Kafka producer: %v", err)
	}
	defer kfkProducer.Close()
	log.Println("Kafka producer initialized.")

	// 6. Initialize services.
	notificationService := services.NewNotificationService(notificationRepo, kfkProducer, cfg.Kafka)
	friendshipService := services.NewFriendshipService(friendshipRepo, userRepo, notificationService)
	groupService := services.NewGroupService(groupRepo, membershipRepo, userRepo, txManager, notificationService)

	// 7. Initialize handlers.
	friendshipHandler := apiserver.NewFriendshipHandler(friendshipService)
	groupHandler := apiserver.NewGroupHandler(groupService)
	notificationHandler := apiserver.NewNotificationHandler(notificationService)

	// 8. Routes. Everything under /api/v1 requires a valid bearer token;
	// state-changing routes additionally pass through the rate limiter.
	r := mux.NewRouter()

	apiRouter := r.PathPrefix("/api/v1").Subrouter()
	apiRouter.Use(func(next http.Handler) http.Handler {
		return middleware.AuthMiddleware(next, cfg.Auth)
	})

	limited := func(bucket string, h http.Handler) http.Handler {
		return middleware.RateLimitMiddleware(h, rateLimiter, bucket)
	}

	// Friendship routes.
	apiRouter.Handle("/friendships", limited("friendships", http.HandlerFunc(friendshipHandler.RequestFriendshipHandler))).Methods(http.MethodPost)
	apiRouter.Handle("/friendships/{friendshipID:[0-9]+}/accept", limited("friendships", friendshipHandler.AcceptFriendshipHandler())).Methods(http.MethodPost)
	apiRouter.Handle("/friendships/{friendshipID:[0-9]+}/decline", limited("friendships", friendshipHandler.DeclineFriendshipHandler())).Methods(http.MethodPost)
	apiRouter.Handle("/friendships/{friendshipID:[0-9]+}/cancel", limited("friendships", friendshipHandler.CancelFriendshipHandler())).Methods(http.MethodPost)
	apiRouter.Handle("/friendships/{friendshipID:[0-9]+}/remove", limited("friendships", friendshipHandler.RemoveFriendshipHandler())).Methods(http.MethodPost)
	apiRouter.HandleFunc("/friendships", friendshipHandler.ListFriendsHandler).Methods(http.MethodGet)
	apiRouter.HandleFunc("/friendships/pending", friendshipHandler.ListPendingRequestsHandler).Methods(http.MethodGet)

	// Group and membership routes.
	apiRouter.Handle("/groups", limited("groups", http.HandlerFunc(groupHandler.CreateGroupHandler))).Methods(http.MethodPost)
	apiRouter.HandleFunc("/groups", groupHandler.ListUserGroupsHandler).Methods(http.MethodGet)
	apiRouter.Handle("/groups/{groupID:[0-9]+}/invites", limited("groups", http.HandlerFunc(groupHandler.InviteToGroupHandler))).Methods(http.MethodPost)
	apiRouter.Handle("/groups/{groupID:[0-9]+}/leave", limited("groups", http.HandlerFunc(groupHandler.LeaveGroupHandler))).Methods(http.MethodPost)
	apiRouter.Handle("/groups/{groupID:[0-9]+}/transfer-ownership", limited("groups", http.HandlerFunc(groupHandler.TransferOwnershipHandler))).Methods(http.MethodPost)
	apiRouter.HandleFunc("/groups/{groupID:[0-9]+}/members", groupHandler.ListMembersHandler).Methods(http.MethodGet)
	apiRouter.Handle("/memberships/{membershipID:[0-9]+}/accept", limited("groups", groupHandler.AcceptInviteHandler())).Methods(http.MethodPost)
	apiRouter.Handle("/memberships/{membershipID:[0-9]+}/decline", limited("groups", groupHandler.DeclineInviteHandler())).Methods(http.MethodPost)
	apiRouter.Handle("/memberships/{membershipID:[0-9]+}/cancel", limited("groups", groupHandler.CancelInviteHandler())).Methods(http.MethodPost)
	apiRouter.Handle("/memberships/{membershipID:[0-9]+}/kick", limited("groups", groupHandler.KickMemberHandler())).Methods(http.MethodPost)

	// Notification inbox routes.
	apiRouter.HandleFunc("/notifications", notificationHandler.ListNotificationsHandler).Methods(http.MethodGet)
	apiRouter.HandleFunc("/notifications/{notificationID:[0-9]+}/read", notificationHandler.MarkNotificationReadHandler).Methods(http.MethodPost)

	// 9. CORS from configuration.
	corsOptions := []handlers.CORSOption{
		handlers.AllowedOrigins(cfg.APIServer.CORS.AllowedOrigins),
		handlers.AllowedMethods(cfg.APIServer.CORS.AllowedMethods),
		handlers.AllowedHeaders(cfg.APIServer.CORS.AllowedHeaders),
		handlers.ExposedHeaders(cfg.APIServer.CORS.ExposedHeaders),
		handlers.MaxAge(cfg.APIServer.CORS.MaxAge),
	}
	if cfg.APIServer.CORS.AllowCredentials {
		corsOptions = append(corsOptions, handlers.AllowCredentials())
	}
	corsHandler := handlers.CORS(corsOptions...)(r)

	// 10. Start the HTTP server with graceful shutdown.
	serverAddr := fmt.Sprintf("%s:%s", cfg.APIServer.Host, cfg.APIServer.Port)
	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      corsHandler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("API server listening on %s", serverAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("API server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutdown signal received, stopping API server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("API server forced to shut down: %v", err)
	}
	log.Println("API server stopped.")
}
