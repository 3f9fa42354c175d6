// Package app wires the infrastructure shared by the hospital binaries:
// logger, event journal, report cache and the event log itself.
package app

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/MRamiBalles/ecshospital/internal/engine"
	"github.com/MRamiBalles/ecshospital/internal/events"
	"github.com/MRamiBalles/ecshospital/internal/infra/cache"
	"github.com/MRamiBalles/ecshospital/internal/infra/storage"
	"github.com/MRamiBalles/ecshospital/internal/platform/config"
	"github.com/MRamiBalles/ecshospital/internal/platform/logger"
)

// Infra holds the optional backends of one run.
type Infra struct {
	RunID    string
	EventLog *events.EventLog
	Journal  *storage.Journal   // nil without a database
	Repo     storage.Repository // nil without a database
	Cache    *cache.ReportCache // nil without redis
	Logger   *logger.Logger

	db    *sqlx.DB
	redis *cache.GoRedisClient
}

// NewLogger builds the process logger from configuration.
func NewLogger(cfg *config.Config) *logger.Logger {
	return logger.New(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
}

// Open connects the backends named in cfg. A Postgres DSN wins over a SQLite
// path; with neither, events stay in memory. Redis is optional.
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Infra, error) {
	infra := &Infra{
		RunID:  uuid.NewString(),
		Logger: log,
	}

	var err error
	limits := storage.PoolLimits{MaxOpen: cfg.Tuning.DBMaxOpenConns, MaxIdle: cfg.Tuning.DBMaxIdleConns}
	switch {
	case cfg.PostgresDSN != "":
		log.Info("Connecting to PostgreSQL journal...")
		infra.db, err = storage.InitPostgres(cfg.PostgresDSN, limits)
	case cfg.SQLitePath != "":
		log.Info("Initializing SQLite journal '" + cfg.SQLitePath + "'...")
		infra.db, err = storage.InitSQLite(cfg.SQLitePath)
	}
	if err != nil {
		return nil, err
	}

	if infra.db != nil {
		infra.Repo = storage.NewSQLRepository(infra.db)
		infra.Journal = storage.NewJournal(infra.Repo, cfg.Tuning.JournalBuffer, log)
		infra.EventLog = events.NewEventLog(infra.RunID, infra.Journal)
	} else {
		infra.EventLog = events.NewEventLog(infra.RunID, nil)
	}

	if cfg.RedisAddr != "" {
		log.Info("Connecting to Redis report cache at " + cfg.RedisAddr + "...")
		infra.redis, err = cache.NewGoRedisClient(ctx, cfg.RedisAddr, cfg.Tuning.RedisPoolSize)
		if err != nil {
			infra.Close(ctx)
			return nil, err
		}
		infra.Cache = cache.NewReportCache(infra.redis, 0)
	}
	return infra, nil
}

// Reporters returns the backends that want every DayReport.
func (i *Infra) Reporters() []engine.Reporter {
	var out []engine.Reporter
	if i.Journal != nil {
		out = append(out, i.Journal)
	}
	if i.Cache != nil {
		out = append(out, i.Cache)
	}
	return out
}

// Close drains the journal and releases connections.
func (i *Infra) Close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	var errs []error
	if i.Journal != nil {
		errs = append(errs, i.Journal.Close(ctx))
	}
	if i.db != nil {
		errs = append(errs, i.db.Close())
	}
	if i.redis != nil {
		errs = append(errs, i.redis.Close())
	}
	return errors.Join(errs...)
}
