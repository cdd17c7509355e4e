package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"quizwizz-play/internal/app"
	"quizwizz-play/internal/config"
	"quizwizz-play/internal/infra/memory"
	pgstore "quizwizz-play/internal/infra/postgres"
	redisstore "quizwizz-play/internal/infra/redis"
	"quizwizz-play/internal/infra/restapi"
	"quizwizz-play/internal/infra/sqlite"
	"quizwizz-play/internal/play"
	"quizwizz-play/internal/prefs"
)

// backend holds the connections a command needs. Everything is optional and driven
// by the config: no redis address means in-memory stores, and so on.
type backend struct {
	cfg     config.Config
	redis   *redis.Client
	pool    *pgxpool.Pool
	db      *bun.DB
	api     *restapi.Client
	closers []func() error
}

func openBackend(ctx context.Context, cfg config.Config) (*backend, error) {
	b := &backend{cfg: cfg}

	if cfg.Redis.Addr != "" {
		b.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		b.closers = append(b.closers, b.redis.Close)
	}

	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		b.pool = pool
		b.closers = append(b.closers, func() error { pool.Close(); return nil })

		b.db = openBun(cfg.Postgres.URL)
		b.closers = append(b.closers, b.db.Close)
	}

	api, err := restapi.New(cfg.API.BaseURL, config.Duration(cfg.API.Timeout, 10*time.Second))
	if err != nil {
		b.Close()
		return nil, err
	}
	b.api = api
	return b, nil
}

func openBun(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

func (b *backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			log.Printf("close: %v", err)
		}
	}
	b.closers = nil
}

// quizLoader picks the quiz source named by quiz.source.
func (b *backend) quizLoader() (memory.QuizLoader, error) {
	switch b.cfg.Quiz.Source {
	case "", "static":
		return memory.NewStaticQuizLoader(sampleQuizzes()), nil
	case "postgres":
		if b.pool == nil {
			return nil, fmt.Errorf("quiz source postgres needs postgres.url")
		}
		return pgstore.NewQuizLoader(b.pool), nil
	case "api":
		return b.api, nil
	default:
		return nil, fmt.Errorf("unknown quiz source %q", b.cfg.Quiz.Source)
	}
}

func (b *backend) quizRepository(loader memory.QuizLoader) app.QuizRepository {
	ttl := config.TTLDuration(b.cfg.Quiz.TTL, 10*time.Minute)
	if b.redis != nil {
		return redisstore.NewQuizRepository(b.redis, loader, ttl)
	}
	return memory.NewQuizRepository(loader, ttl)
}

func (b *backend) sessionStore() app.SessionRepository {
	if b.redis != nil {
		return redisstore.NewSessionStore(b.redis, config.TTLDuration(b.cfg.Redis.TTL, 10*time.Minute))
	}
	return memory.NewSessionStore()
}

// prefsStore opens the preference store named by prefs.store.
func (b *backend) prefsStore(ctx context.Context) (prefs.Store, error) {
	switch b.cfg.Prefs.Store {
	case "", "memory":
		return memory.NewKVStore(), nil
	case "redis":
		if b.redis == nil {
			return nil, fmt.Errorf("prefs store redis needs redis.addr")
		}
		return redisstore.NewKVStore(b.redis, b.cfg.Prefs.Prefix), nil
	case "sqlite":
		dsn := fmt.Sprintf("file:%s?mode=rwc&_pragma=busy_timeout(5000)", b.cfg.Prefs.SQLitePath)
		store, err := sqlite.Open(ctx, dsn)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, store.Close)
		return store, nil
	default:
		return nil, fmt.Errorf("unknown prefs store %q", b.cfg.Prefs.Store)
	}
}

// resultHistory is nil without postgres.
func (b *backend) resultHistory() *pgstore.ResultHistory {
	if b.db == nil {
		return nil
	}
	return pgstore.NewResultHistory(b.db)
}

func (b *backend) playOptions() []play.Option {
	defaults := play.DefaultDelays()
	return []play.Option{play.WithDelays(play.Delays{
		Advance:  config.Duration(b.cfg.Play.AdvanceDelay, defaults.Advance),
		Feedback: config.Duration(b.cfg.Play.FeedbackDelay, defaults.Feedback),
		Notice:   config.Duration(b.cfg.Play.NoticeDelay, defaults.Notice),
	})}
}

// playService wires the play service with its results collaborator.
func (b *backend) playService(ctx context.Context) (*app.PlayService, *pgstore.ResultHistory, error) {
	loader, err := b.quizLoader()
	if err != nil {
		return nil, nil, err
	}
	store, err := b.prefsStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	history := b.resultHistory()

	var sink app.ResultHistory
	if history != nil {
		sink = history
	}
	recorder := app.NewResultRecorder(store, sink, 5*time.Second)
	service := app.NewPlayService(b.sessionStore(), b.quizRepository(loader), recorder, b.playOptions()...)
	service.SetSessionTTL(
		config.Duration(b.cfg.Play.SessionTTL, app.DefaultIdleTTL),
		config.Duration(b.cfg.Play.FinishedTTL, app.DefaultFinishedTTL),
	)
	return service, history, nil
}
