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
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"classdeck-quiz-service/internal/app"
	"classdeck-quiz-service/internal/config"
	"classdeck-quiz-service/internal/domain"
	"classdeck-quiz-service/internal/infra/memory"
	infraMongo "classdeck-quiz-service/internal/infra/mongo"
	pgloader "classdeck-quiz-service/internal/infra/postgres"
	redissession "classdeck-quiz-service/internal/infra/redis"
	transport "classdeck-quiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz session server",
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

	var archive app.Archive
	if cfg.Mongo.URI != "" {
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
		if err != nil {
			return err
		}
		defer func() { _ = client.Disconnect(context.Background()) }()
		dbName := cfg.Mongo.Database
		if dbName == "" {
			dbName = "classdeck"
		}
		archive = infraMongo.NewArchive(client.Database(dbName))
	}

	var loader memory.QuizLoader = memory.NewStaticQuizLoader(sampleQuizzes())
	if pool != nil {
		loader = pgloader.NewQuizLoader(pool)
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizRepo app.QuizRepository
	if redisClient != nil {
		quizRepo = redissession.NewQuizRepository(redisClient, loader, quizTTL)
	} else {
		quizRepo = memory.NewQuizRepository(loader, quizTTL)
	}

	var store app.SessionRepository
	if redisClient != nil {
		store = redissession.NewSessionStore(redisClient, redisTTL)
	} else {
		store = memory.NewSessionStore()
	}

	service := app.NewSessionService(store, quizRepo, archive)
	service.SetForcedSubmitPolicy(app.ForcedSubmitPolicy{
		Retries: cfg.Quiz.ForcedSubmitRetries,
		Backoff: config.TTLDuration(cfg.Quiz.ForcedSubmitBackoff, 250*time.Millisecond),
	})

	studentWS := transport.NewStudentWSHandler(service)
	teacherWS := transport.NewTeacherWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws/student", studentWS.ServeWS)
	mux.HandleFunc("/ws/teacher", teacherWS.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz session service on :%s", finalPort)
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

// sampleQuizzes provides a minimal question set for running without
// Postgres; production deployments load quizzes from the database.
func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"demo-quiz": {
			ID:    "demo-quiz",
			Title: "Demo Quiz",
			Questions: []domain.Question{
				{
					ID:               "q1",
					Type:             domain.TypeMC,
					Text:             "What is 2 + 2?",
					CorrectAnswer:    "4",
					IncorrectAnswers: []string{"3", "5"},
					TimeLimit:        30,
				},
				{
					ID:            "q2",
					Type:          domain.TypeFIB,
					Text:          "The capital of France is ____.",
					CorrectAnswer: "Paris",
				},
				{
					ID:            "q3",
					Type:          domain.TypeOrdering,
					Text:          "Order the planets from the Sun.",
					CorrectAnswer: "Mercury|Venus|Earth|Mars",
				},
			},
		},
	}
}
