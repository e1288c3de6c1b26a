package config

import (
	"fmt"
	"net"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/multierr"
)

// Config is read once at process start by every binary under cmd/.
type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	Settlement   SettlementConfig
	Scheduler    SchedulerConfig
}

// Load reads the environment, resolves the database DSN and reports every
// invalid setting at once.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.resolveDSN(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var err error
	switch strings.ToLower(c.App.LogFormat) {
	case "json", "console":
	default:
		err = multierr.Append(err, fmt.Errorf("%s must be json or console, got %q", EnvLogFormat, c.App.LogFormat))
	}
	switch strings.ToLower(strings.TrimSpace(c.DB.Driver)) {
	case DriverPostgres, DriverSQLite:
	default:
		err = multierr.Append(err, fmt.Errorf("%s must be %s or %s, got %q", EnvDBDriver, DriverPostgres, DriverSQLite, c.DB.Driver))
	}
	if c.Scheduler.Interval <= 0 {
		err = multierr.Append(err, fmt.Errorf("%s must be positive", EnvSchedulerInterval))
	}
	if c.Scheduler.LockTTL < c.Scheduler.JobTimeout {
		err = multierr.Append(err, fmt.Errorf("%s must not be shorter than %s", EnvSchedulerLockTTL, EnvSchedulerJobTimeout))
	}
	if len(strings.TrimSpace(c.Settlement.CurrencyCode)) != 3 {
		err = multierr.Append(err, fmt.Errorf("%s must be an ISO 4217 code, got %q", EnvCurrency, c.Settlement.CurrencyCode))
	}
	return err
}

type AppConfig struct {
	Env          string `envconfig:"CICLOS_APP_ENV" required:"true"`
	Port         string `envconfig:"CICLOS_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"CICLOS_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"CICLOS_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"CICLOS_LOG_WARN_STACK" default:"false"`

	// CORSOrigins is a comma separated allow list; empty means local dev origins.
	CORSOrigins []string `envconfig:"CICLOS_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool  { return strings.EqualFold(a.Env, AppEnvDev) }
func (a AppConfig) IsProd() bool { return strings.EqualFold(a.Env, AppEnvProd) }

// DBConfig takes either a full DSN or the discrete Postgres parts.
type DBConfig struct {
	DSN    string `envconfig:"CICLOS_DB_DSN"`
	Driver string `envconfig:"CICLOS_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"CICLOS_DB_HOST"`
	Port     int    `envconfig:"CICLOS_DB_PORT" default:"5432"`
	User     string `envconfig:"CICLOS_DB_USER"`
	Password string `envconfig:"CICLOS_DB_PASSWORD"`
	Name     string `envconfig:"CICLOS_DB_NAME"`
	SSLMode  string `envconfig:"CICLOS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CICLOS_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"CICLOS_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"CICLOS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CICLOS_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	// SlowQueryThreshold logs statements slower than this at warn; zero disables it.
	SlowQueryThreshold time.Duration `envconfig:"CICLOS_DB_SLOW_QUERY" default:"500ms"`
}

func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DriverSQLite)
}

func (db *DBConfig) resolveDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		return fmt.Errorf("%s is required when %s=%s", EnvDBDSN, EnvDBDriver, DriverSQLite)
	}

	var missing []string
	for env, value := range map[string]string{EnvDBHost: db.Host, EnvDBUser: db.User, EnvDBName: db.Name} {
		if value == "" {
			missing = append(missing, env)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	u := url.URL{
		Scheme: DriverPostgres,
		User:   url.UserPassword(db.User, db.Password),
		Host:   net.JoinHostPort(db.Host, strconv.Itoa(db.Port)),
		Path:   db.Name,
	}
	if db.Password == "" {
		u.User = url.User(db.User)
	}
	if db.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {db.SSLMode}}.Encode()
	}
	db.DSN = u.String()
	return nil
}

// RedisConfig is optional; leaving both URL and Address empty disables
// idempotency storage and the distributed scheduler lock.
type RedisConfig struct {
	URL          string        `envconfig:"CICLOS_REDIS_URL"`
	Address      string        `envconfig:"CICLOS_REDIS_ADDR"`
	Password     string        `envconfig:"CICLOS_REDIS_PASSWORD"`
	DB           int           `envconfig:"CICLOS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CICLOS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CICLOS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CICLOS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CICLOS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CICLOS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"CICLOS_AUTO_MIGRATE" default:"false"`
}

// SchedulerConfig drives cmd/scheduler. MetricsAddr empty disables the metrics listener.
type SchedulerConfig struct {
	Interval    time.Duration `envconfig:"CICLOS_SCHEDULER_INTERVAL" default:"5m"`
	LockTTL     time.Duration `envconfig:"CICLOS_SCHEDULER_LOCK_TTL" default:"10m"`
	JobTimeout  time.Duration `envconfig:"CICLOS_SCHEDULER_JOB_TIMEOUT" default:"2m"`
	MetricsAddr string        `envconfig:"CICLOS_SCHEDULER_METRICS_ADDR"`
}

type SettlementConfig struct {
	CurrencyCode string `envconfig:"CICLOS_SETTLEMENT_CURRENCY" default:"BRL"`
}
