package postgres

import (
	"context"
	"fmt"

	"github.com/Cleverse/go-utilities/utils"
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/brc20-indexer/common/errs"
	"github.com/gaze-network/brc20-indexer/pkg/logger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	pgxslog "github.com/mcosta74/pgx-slog"
)

const (
	DefaultMaxConns = 16
	DefaultMinConns = 0
	DefaultLogLevel = tracelog.LogLevelError
)

type Config struct {
	Host     string `mapstructure:"host"`     // Default is 127.0.0.1
	Port     string `mapstructure:"port"`     // Default is 5432
	User     string `mapstructure:"user"`     // Default is empty
	Password string `mapstructure:"password"` // Default is empty
	DBName   string `mapstructure:"db_name"`  // Default is postgres
	SSLMode  string `mapstructure:"ssl_mode"` // Default is prefer
	URL      string `mapstructure:"url"`      // If URL is provided, other fields are ignored

	MaxConns int32 `mapstructure:"max_conns"` // Default is 16
	MinConns int32 `mapstructure:"min_conns"` // Default is 0

	Debug bool `mapstructure:"debug"`
}

// NewPool creates a new connection pool and checks that the database is reachable.
func NewPool(ctx context.Context, conf Config) (*pgxpool.Pool, error) {
	if conf.MinConns < 0 || conf.MaxConns < 0 || (conf.MaxConns > 0 && conf.MinConns > conf.MaxConns) {
		return nil, errors.Wrapf(errs.InvalidArgument, "invalid pool size, min: %d, max: %d", conf.MinConns, conf.MaxConns)
	}

	poolConfig, err := pgxpool.ParseConfig(conf.String())
	if err != nil {
		return nil, errors.Join(errs.InvalidArgument, errors.Wrap(err, "failed to parse config to create a new connection pool"))
	}
	poolConfig.MaxConns = utils.Default(conf.MaxConns, DefaultMaxConns)
	poolConfig.MinConns = utils.Default(conf.MinConns, DefaultMinConns)
	poolConfig.ConnConfig.Tracer = conf.QueryTracer()

	connPool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create a new connection pool")
	}
	if err := connPool.Ping(ctx); err != nil {
		connPool.Close()
		return nil, errors.Wrap(err, "failed to connect to the database")
	}
	return connPool, nil
}

// String returns the connection string (DSN format or URL format)
func (conf Config) String() string {
	if conf.URL != "" {
		return conf.URL
	}
	connString := fmt.Sprintf("host=%s dbname=%s port=%s sslmode=%s",
		utils.Default(conf.Host, "127.0.0.1"),
		utils.Default(conf.DBName, "postgres"),
		utils.Default(conf.Port, "5432"),
		utils.Default(conf.SSLMode, "prefer"),
	)
	if conf.User != "" {
		connString += " user=" + conf.User
	}
	if conf.Password != "" {
		connString += " password=" + conf.Password
	}
	return connString
}

// MigrationURL returns the connection string in URL format, as golang-migrate expects it.
func (conf Config) MigrationURL() string {
	if conf.URL != "" {
		return conf.URL
	}
	userInfo := ""
	if conf.User != "" {
		userInfo = conf.User
		if conf.Password != "" {
			userInfo += ":" + conf.Password
		}
		userInfo += "@"
	}
	return fmt.Sprintf("postgres://%s%s:%s/%s?sslmode=%s",
		userInfo,
		utils.Default(conf.Host, "127.0.0.1"),
		utils.Default(conf.Port, "5432"),
		utils.Default(conf.DBName, "postgres"),
		utils.Default(conf.SSLMode, "prefer"),
	)
}

func (conf Config) QueryTracer() pgx.QueryTracer {
	loglevel := DefaultLogLevel
	if conf.Debug {
		loglevel = tracelog.LogLevelTrace
	}
	return &tracelog.TraceLog{
		Logger:   pgxslog.NewLogger(logger.With("package", "postgres")),
		LogLevel: loglevel,
	}
}
