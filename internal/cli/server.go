package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/config"
	"quiz-attempt-service/internal/domain"
	"quiz-attempt-service/internal/infra/memory"
	pgstore "quiz-attempt-service/internal/infra/postgres"
	redisstore "quiz-attempt-service/internal/infra/redis"
	transport "quiz-attempt-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// attemptStore bundles the two sides of attempt history that every backend
// implements together.
type attemptStore interface {
	app.EligibilityProvider
	app.AttemptSink
}

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz attempt server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var source app.Catalog = sampleCatalog()
	if pool != nil {
		source = pgstore.NewCatalog(pool)
	}

	catalogTTL := config.TTLDuration(cfg.Catalog.TTL, 10*time.Minute)
	var catalog app.Catalog
	if redisClient != nil {
		catalog = redisstore.NewCatalogCache(redisClient, source, catalogTTL)
	} else {
		catalog = memory.NewCatalogCache(source, catalogTTL)
	}

	var store attemptStore
	switch {
	case redisClient != nil:
		store = redisstore.NewAttemptStore(redisClient, catalog, redisTTL)
	case pool != nil:
		store = pgstore.NewAttemptStore(pool)
	default:
		store = memory.NewAttemptStore(catalog)
	}

	wsHandler := transport.NewWSHandler(func(studentKey string) *app.AttemptMachine {
		return app.NewAttemptMachine(catalog, store, store, studentKey)
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz attempt service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleCatalog provides a minimal data set for running without Postgres;
// production deployments load the catalog from the database.
func sampleCatalog() *memory.StaticCatalog {
	return memory.NewStaticCatalog(
		map[string]domain.Course{
			"course-1": {ID: "course-1", Title: "Sample Course", ExamMinutes: 10},
		},
		map[string]domain.QuizPackage{
			"pkg-1": {ID: "pkg-1", CourseID: "course-1", Title: "Sample Package", MaxRetakes: 3},
		},
		map[string][]domain.Question{
			"pkg-1": {
				{
					ID:            "q1",
					Text:          "What is 2 + 2?",
					Type:          domain.TypeMultipleChoice,
					Options:       []string{"3", "4", "5"},
					CorrectAnswer: "4",
					Points:        1,
				},
				{
					ID:            "q2",
					Text:          "The sky is blue.",
					Type:          domain.TypeTrueFalse,
					CorrectAnswer: "true",
					Points:        1,
				},
			},
		},
	)
}
