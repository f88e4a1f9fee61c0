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

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/tablemenu/api/internal/config"
	"github.com/tablemenu/api/internal/database"
	"github.com/tablemenu/api/internal/events"
	"github.com/tablemenu/api/internal/router"
	"github.com/tablemenu/api/internal/ws"
	"github.com/ulule/limiter/v3"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.MigrateOnStart {
		if err := database.Migrate(cfg.DatabaseURL); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		log.Println("Database migrations applied")
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Unable to ping database: %v", err)
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Invalid REDIS_URL: %v", err)
	}
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("Unable to ping redis: %v", err)
	}

	limits, err := sredis.NewStoreWithOptions(rdb, limiter.StoreOptions{Prefix: "ratelimit"})
	if err != nil {
		log.Fatalf("Unable to create rate limit store: %v", err)
	}

	hub := ws.NewHub()
	go hub.Run(ctx)

	publisher := newPublisher(ctx, cfg, hub)

	handler, err := router.New(cfg, pool, rdb, hub, publisher, limits)
	if err != nil {
		log.Fatalf("Unable to build router: %v", err)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.RequestTimeout,
		IdleTimeout:       2 * time.Minute,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("ERROR: shutdown: %v", err)
	}
}

// newPublisher publishes straight to the local hub, or through Kafka when
// brokers are configured. With Kafka, a relay feeds the topic back into the
// local hub so every instance serves every event.
func newPublisher(ctx context.Context, cfg *config.Config, hub *ws.Hub) events.Publisher {
	local := events.NewHubPublisher(hub)
	if len(cfg.KafkaBrokers) == 0 {
		return local
	}

	writer := events.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaTopic)
	reader := events.NewKafkaReader(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroupID)
	go func() {
		<-ctx.Done()
		writer.Close()
		reader.Close()
	}()
	go events.NewRelay(reader, local).Run(ctx)

	log.Printf("Publishing order events to kafka topic %s", cfg.KafkaTopic)
	return events.NewKafkaPublisher(writer)
}
