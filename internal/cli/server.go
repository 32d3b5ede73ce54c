package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/auth"
	"live-quiz-service/internal/config"
	"live-quiz-service/internal/domain"
	"live-quiz-service/internal/infra/memory"
	pgstore "live-quiz-service/internal/infra/postgres"
	redisstore "live-quiz-service/internal/infra/redis"
	transport "live-quiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the live quiz server",
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

	secret := cfg.Auth.Secret
	if secret == "" {
		secret = os.Getenv("JWT_SECRET")
	}
	if secret == "" {
		secret = "insecure-dev-secret"
		log.Printf("warning: no auth secret configured, using an insecure development secret")
	}
	tokens := auth.NewTokenService(secret, config.TTLDuration(cfg.Auth.TokenTTL, 0))

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

	var (
		quizStore transport.QuizAdminStore
		userStore transport.UserStore
		loader    memory.QuizLoader
	)
	if pool != nil {
		pg := pgstore.NewQuizStore(pool)
		quizStore = pg
		loader = pg
		userStore = pgstore.NewUserStore(pool)
	} else {
		mem := memory.NewQuizStore()
		seedSampleQuizzes(mem)
		quizStore = mem
		loader = mem
		userStore = memory.NewUserStore()
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizRepo app.QuizRepository
	if redisClient != nil {
		quizRepo = redisstore.NewQuizCache(redisClient, loader, quizTTL)
	} else {
		quizRepo = memory.NewQuizCache(loader, quizTTL)
	}

	var sessions app.SessionRepository
	if redisClient != nil {
		sessions = redisstore.NewSessionStore(redisClient, redisTTL)
	} else {
		sessions = memory.NewSessionStore()
	}

	coordinator := app.NewCoordinator(sessions, quizRepo)
	registry := transport.NewRegistry()
	router := transport.NewRouter(registry, coordinator)
	coordinator.SetBroadcaster(router)
	wsHandler := transport.NewWSHandler(coordinator, tokens, registry, router)
	apiHandler := transport.NewAPIHandler(userStore, quizStore, tokens)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	apiHandler.Register(mux)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting live quiz service on :%s", finalPort)
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

// seedSampleQuizzes loads a minimal quiz so the coordinator is usable
// without postgres.
func seedSampleQuizzes(store *memory.QuizStore) {
	store.Put(domain.Quiz{
		ID:    1,
		Title: "Node.js Basics",
		Questions: []domain.Question{
			{
				ID:                 1,
				Text:               "What is Node.js?",
				Options:            []string{"Runtime", "Framework", "Library"},
				CorrectOptionIndex: 0,
			},
			{
				ID:                 2,
				Text:               "Which company maintains the V8 engine?",
				Options:            []string{"Mozilla", "Google", "Apple"},
				CorrectOptionIndex: 1,
			},
		},
	})
}
