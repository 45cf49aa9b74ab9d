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
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/issakobayashi1992/Lightning-league/internal/app"
	"github.com/issakobayashi1992/Lightning-league/internal/config"
	"github.com/issakobayashi1992/Lightning-league/internal/domain"
	"github.com/issakobayashi1992/Lightning-league/internal/game"
	"github.com/issakobayashi1992/Lightning-league/internal/infra/memory"
	pginfra "github.com/issakobayashi1992/Lightning-league/internal/infra/postgres"
	redisinfra "github.com/issakobayashi1992/Lightning-league/internal/infra/redis"
	transport "github.com/issakobayashi1992/Lightning-league/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the game server",
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

	var loader memory.QuestionLoader = memory.NewStaticQuestionLoader(sampleQuestions())
	if pool != nil {
		loader = pginfra.NewQuestionLoader(pool)
	}
	questionTTL := config.TTLDuration(cfg.Questions.TTL, 10*time.Minute)
	questionRepo := memory.NewQuestionRepository(loader, questionTTL)

	var history app.HistoryStore = memory.NewHistoryStore()
	var aggregates app.AggregateStore = memory.NewAggregateStore()
	if pool != nil {
		history = pginfra.NewHistoryStore(pool)
		aggregates = pginfra.NewAggregateStore(pool)
	}
	if redisClient != nil {
		aggregates = redisinfra.NewAggregateStore(redisClient, aggregates, redisTTL)
	}

	var matchStore app.MatchStore
	if redisClient != nil {
		matchStore = redisinfra.NewMatchStore(redisClient, redisTTL)
	} else {
		matchStore = memory.NewMatchStore()
	}

	gameCfg := cfg.Game.WithDefaults()
	settings := game.Settings{
		QuestionTime:        time.Duration(gameCfg.QuestionTimeSeconds) * time.Second,
		Hesitation:          time.Duration(gameCfg.HesitationSeconds) * time.Second,
		WordsPerMinute:      gameCfg.WordsPerMinute,
		QuestionsPerSession: gameCfg.QuestionsPerSession,
	}
	if err := settings.Validate(); err != nil {
		return err
	}

	committer := app.NewSummaryCommitter(history, aggregates)
	matchSvc := app.NewMatchService(clockwork.NewRealClock(), settings, matchStore, questionRepo, committer)
	practiceSvc := app.NewPracticeService(matchSvc, aggregates)
	wsHandler := transport.NewWSHandler(matchSvc, practiceSvc)
	apiHandler := transport.NewAPIHandler(matchSvc, practiceSvc)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	mux.HandleFunc("/matches", apiHandler.CreateMatch)
	mux.HandleFunc("/stats", apiHandler.PlayerStats)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting lightning league on :%s", finalPort)
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

// sampleQuestions provides a minimal question bank so the server is playable
// without a database.
func sampleQuestions() []domain.Question {
	return []domain.Question{
		{
			ID:            "q1",
			SubjectArea:   "MA",
			Text:          "what is the sum of the interior angles of a triangle in degrees",
			CorrectAnswer: "one hundred eighty",
			Distractors:   []string{"ninety", "two hundred seventy", "three hundred sixty"},
			IsPublic:      true,
			ImportYear:    2024,
		},
		{
			ID:            "q2",
			SubjectArea:   "SC",
			Text:          "by which process do green plants convert light energy into chemical energy",
			CorrectAnswer: "photosynthesis",
			Distractors:   []string{"respiration", "fermentation", "transpiration"},
			IsPublic:      true,
			ImportYear:    2024,
		},
		{
			ID:            "q3",
			SubjectArea:   "SS",
			Text:          "which river flows through the city of cairo on its way to the mediterranean",
			CorrectAnswer: "the nile",
			Distractors:   []string{"the congo", "the niger", "the zambezi"},
			IsPublic:      true,
			ImportYear:    2024,
		},
		{
			ID:            "q4",
			SubjectArea:   "LA",
			Text:          "what is the term for a word that has the same meaning as another word",
			CorrectAnswer: "synonym",
			Distractors:   []string{"antonym", "homonym", "acronym"},
			IsPublic:      true,
			ImportYear:    2024,
		},
	}
}
