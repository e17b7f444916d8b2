package postgres

import (
	"context"
	"net"
	"net/url"
	"time"

	"github.com/Cleverse/go-utilities/utils"
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/erc20-indexer/pkg/logger"
	"github.com/gaze-network/erc20-indexer/pkg/logger/slogx"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	pgxslog "github.com/mcosta74/pgx-slog"
)

const (
	DefaultMaxConns        = 16
	DefaultMinConns        = 0
	DefaultConnectTimeout  = 10 * time.Second
	DefaultApplicationName = "erc20-indexer"
	DefaultLogLevel        = tracelog.LogLevelError
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

// NewPool connects a pool and pings the database once.
func NewPool(ctx context.Context, conf Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(conf.String())
	if err != nil {
		return nil, errors.Wrap(err, "can't parse postgres config")
	}
	poolConfig.MaxConns = utils.Default(conf.MaxConns, DefaultMaxConns)
	poolConfig.MinConns = utils.Default(conf.MinConns, DefaultMinConns)
	if poolConfig.ConnConfig.ConnectTimeout == 0 {
		poolConfig.ConnConfig.ConnectTimeout = DefaultConnectTimeout
	}
	if _, ok := poolConfig.ConnConfig.RuntimeParams["application_name"]; !ok {
		poolConfig.ConnConfig.RuntimeParams["application_name"] = DefaultApplicationName
	}
	poolConfig.ConnConfig.Tracer = conf.QueryTracer()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, errors.Wrap(err, "can't create postgres connection pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "can't connect to postgres")
	}
	logger.InfoContext(ctx, "Connected to postgres",
		slogx.String("host", poolConfig.ConnConfig.Host),
		slogx.String("database", poolConfig.ConnConfig.Database),
		slogx.Int("max_conns", int(poolConfig.MaxConns)),
	)
	return pool, nil
}

// String returns the connection URL. Credentials are escaped, so they may contain any character.
func (conf Config) String() string {
	if conf.URL != "" {
		return conf.URL
	}

	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(utils.Default(conf.Host, "127.0.0.1"), utils.Default(conf.Port, "5432")),
		Path:   "/" + utils.Default(conf.DBName, "postgres"),
	}
	switch {
	case conf.User != "" && conf.Password != "":
		u.User = url.UserPassword(conf.User, conf.Password)
	case conf.User != "":
		u.User = url.User(conf.User)
	}
	u.RawQuery = url.Values{"sslmode": {utils.Default(conf.SSLMode, "prefer")}}.Encode()
	return u.String()
}

func (conf Config) QueryTracer() pgx.QueryTracer {
	level := DefaultLogLevel
	if conf.Debug {
		level = tracelog.LogLevelTrace
	}
	return &tracelog.TraceLog{
		Logger:   pgxslog.NewLogger(logger.With("package", "postgres")),
		LogLevel: level,
	}
}
