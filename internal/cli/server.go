package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"futur-genie-quiz/internal/app"
	"futur-genie-quiz/internal/config"
	"futur-genie-quiz/internal/infra/memory"
	redisinfra "futur-genie-quiz/internal/infra/redis"
	"futur-genie-quiz/internal/logging"
	transport "futur-genie-quiz/internal/transport/http"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
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
	log, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}

	if cfg.Storage == "postgres" {
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
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

	backend, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer backend.close()

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, time.Hour)

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizRepo app.QuizRepository
	if redisClient != nil {
		quizRepo = redisinfra.NewQuizRepository(redisClient, backend.loader, quizTTL, log)
	} else {
		quizRepo = memory.NewQuizRepository(backend.loader, quizTTL)
	}

	var (
		store   app.SessionRepository
		counter transport.LiveCounter
	)
	if redisClient != nil {
		redisStore := redisinfra.NewSessionStore(redisClient, redisTTL, log)
		store, counter = redisStore, redisStore
	} else {
		store = memory.NewSessionStore()
	}

	retry := app.ExponentialRetry(
		cfg.Submit.MaxRetries,
		config.TTLDuration(cfg.Submit.InitialInterval, 500*time.Millisecond),
		config.TTLDuration(cfg.Submit.MaxInterval, 5*time.Second),
	)
	service := app.NewQuizService(store, quizRepo, backend.sink, backend.policy,
		app.WithRetryPolicy(retry), app.WithLogger(log))
	wsHandler := transport.NewWSHandler(service, log)

	janitorCtx, stopJanitor := context.WithCancel(context.Background())
	defer stopJanitor()
	go service.RunJanitor(janitorCtx,
		config.TTLDuration(cfg.Session.SweepInterval, time.Minute),
		config.TTLDuration(cfg.Session.IdleTimeout, 45*time.Minute))

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", transport.HealthHandler(counter, log))
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.WithField("port", finalPort).WithField("storage", cfg.Storage).Info("starting quiz engine")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("failed to start server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server...")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
