package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	booking_db "ticket-engine/internal/booking/db"
	"ticket-engine/internal/config"
	"ticket-engine/internal/database"
	"ticket-engine/internal/kafka"
	"ticket-engine/internal/logger"
	"ticket-engine/internal/render/assets"
	"ticket-engine/internal/render/pdf"
	"ticket-engine/internal/render/variables"
	"ticket-engine/internal/templates"
	"ticket-engine/internal/tickets/codegen"
	ticket_db "ticket-engine/internal/tickets/db"
	"ticket-engine/internal/tickets/redislock"
	tickets "ticket-engine/internal/tickets/service"
	"ticket-engine/internal/tickets/ticket_api"
)

func verifyConnections(ctx context.Context, cfg *config.Config, log *logger.Logger) (*bun.DB, *redis.Client) {
	if cfg.Database.DSN == "" {
		log.Fatal("CONFIG", "POSTGRES_DSN not set")
	}

	sqldb, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
	}
	sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)

	if err := sqldb.Ping(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
	}
	log.Info("DATABASE", "PostgreSQL connection successful")

	bunDB := bun.NewDB(sqldb, pgdialect.New())

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Redis connection error: %v", err))
	}
	log.Info("DATABASE", fmt.Sprintf("Redis connection successful to %s", cfg.Redis.Addr))

	return bunDB, redisClient
}

func main() {
	log := logger.NewLogger()
	defer log.Close()

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	}
	cfg := config.Load()

	ctx := context.Background()
	bunDB, redisClient := verifyConnections(ctx, cfg, log)
	defer bunDB.Close()
	defer redisClient.Close()

	if err := database.Bootstrap(ctx, bunDB); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Schema bootstrap failed: %v", err))
	}

	ticketDB := &ticket_db.DB{Bun: bunDB}
	bookingDB := &booking_db.DB{Bun: bunDB}
	templateDB := &templates.DB{Bun: bunDB}

	httpClient := &http.Client{Timeout: cfg.Renderer.FetchTimeout}
	resolver := assets.NewResolver(httpClient, cfg.Assets.Root, log)
	builder := variables.NewBuilder(resolver, cfg.Assets.BaseURL, log)

	service := &tickets.TicketService{
		TicketDB:   ticketDB,
		BookingDB:  bookingDB,
		TemplateDB: templateDB,
		Codes:      codegen.NewGenerator(ticketDB),
		Variables:  builder,
		Primary:    pdf.NewExternalRenderer(cfg.Renderer.WkhtmltopdfPath, cfg.Renderer.Timeout, log),
		Fallback:   pdf.NewFallbackRenderer(cfg.Assets.FontDir),
		Locker:     redislock.New(redisClient, cfg.Redis.LockTTL),
		Logger:     log,
	}

	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer producer.Close()
		service.Publisher = producer
		log.Info("KAFKA", fmt.Sprintf("Publishing issuance events to %s", cfg.Kafka.Topic))
	}

	handler := ticket_api.NewHandler(service, log)

	r := chi.NewRouter()
	r.Route("/bookings/{bookingID}", func(r chi.Router) {
		r.Post("/tickets", handler.EnsureTickets)
		r.Get("/document", handler.DownloadDocument)
	})
	r.Post("/templates/preview", handler.PreviewTemplate)

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("APP", fmt.Sprintf("Ticket service on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("APP", fmt.Sprintf("HTTP error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_ = server.Shutdown(ctxShutdown)
	log.Info("APP", "Ticket service shutdown complete")
}
