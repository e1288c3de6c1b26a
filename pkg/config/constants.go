package config

const EnvPrefix = "CICLOS"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv              = "CICLOS_APP_ENV"
	EnvPort                = "CICLOS_APP_PORT"
	EnvLogLevel            = "CICLOS_LOG_LEVEL"
	EnvLogFormat           = "CICLOS_LOG_FORMAT"
	EnvDBDSN               = "CICLOS_DB_DSN"
	EnvDBDriver            = "CICLOS_DB_DRIVER"
	EnvDBHost              = "CICLOS_DB_HOST"
	EnvDBUser              = "CICLOS_DB_USER"
	EnvDBPassword          = "CICLOS_DB_PASSWORD"
	EnvDBName              = "CICLOS_DB_NAME"
	EnvRedisAddr           = "CICLOS_REDIS_ADDR"
	EnvAutoMigrate         = "CICLOS_AUTO_MIGRATE"
	EnvSchedulerInterval   = "CICLOS_SCHEDULER_INTERVAL"
	EnvSchedulerLockTTL    = "CICLOS_SCHEDULER_LOCK_TTL"
	EnvSchedulerJobTimeout = "CICLOS_SCHEDULER_JOB_TIMEOUT"
	EnvCurrency            = "CICLOS_SETTLEMENT_CURRENCY"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)
