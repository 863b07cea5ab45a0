package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Eventing      EventingConfig
	GCP           GCPConfig
	GCS           GCSConfig
	Documents     DocumentsConfig
	PubSub        PubSubConfig
	Mail          MailConfig
	Reschedule    RescheduleConfig
	Quotes        QuotesConfig
	Outbox        OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ISTMO_APP_ENV" required:"true"`
	Port         string `envconfig:"ISTMO_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"ISTMO_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ISTMO_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"ISTMO_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"ISTMO_DB_DSN"`
	Driver string `envconfig:"ISTMO_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"ISTMO_DB_HOST"`
	LegacyPort     int    `envconfig:"ISTMO_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ISTMO_DB_USER"`
	LegacyPassword string `envconfig:"ISTMO_DB_PASSWORD"`
	LegacyName     string `envconfig:"ISTMO_DB_NAME"`
	LegacySSLMode  string `envconfig:"ISTMO_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ISTMO_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ISTMO_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ISTMO_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ISTMO_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ISTMO_REDIS_URL" required:"true"`
	Address      string        `envconfig:"ISTMO_REDIS_ADDR"`
	Password     string        `envconfig:"ISTMO_REDIS_PASSWORD"`
	DB           int           `envconfig:"ISTMO_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ISTMO_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ISTMO_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ISTMO_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ISTMO_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ISTMO_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"ISTMO_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"ISTMO_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"ISTMO_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"ISTMO_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"ISTMO_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"ISTMO_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"ISTMO_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"ISTMO_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"ISTMO_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"ISTMO_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"ISTMO_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"ISTMO_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"ISTMO_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"ISTMO_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"ISTMO_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"ISTMO_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"ISTMO_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName        string        `envconfig:"ISTMO_GCS_BUCKET_NAME" required:"true"`
	UploadURLExpiry   time.Duration `envconfig:"ISTMO_GCS_UPLOAD_URL_EXPIRY" default:"15m"`
	DownloadURLExpiry time.Duration `envconfig:"ISTMO_GCS_DOWNLOAD_URL_EXPIRY" default:"15m"`
}

type DocumentsConfig struct {
	MaxUploadMB int `envconfig:"ISTMO_DOCUMENTS_MAX_UPLOAD_MB" default:"50"`
}

type PubSubConfig struct {
	MailTopic        string `envconfig:"ISTMO_PUBSUB_MAIL_TOPIC" default:"istmo-mail-events"`
	MailSubscription string `envconfig:"ISTMO_PUBSUB_MAIL_SUBSCRIPTION" required:"true"`
}

// MailConfig points at the transactional email HTTP API.
type MailConfig struct {
	APIBaseURL  string        `envconfig:"ISTMO_MAIL_API_BASE_URL" default:"https://api.resend.com"`
	APIKey      string        `envconfig:"ISTMO_MAIL_API_KEY"`
	DefaultFrom string        `envconfig:"ISTMO_MAIL_FROM_EMAIL" default:"operaciones@istmo-energy.com"`
	Timeout     time.Duration `envconfig:"ISTMO_MAIL_TIMEOUT" default:"10s"`
}

type RescheduleConfig struct {
	TokenTTL      time.Duration `envconfig:"ISTMO_RESCHEDULE_TOKEN_TTL" default:"168h"`
	PublicBaseURL string        `envconfig:"ISTMO_RESCHEDULE_PUBLIC_BASE_URL" default:"https://portal.istmo-energy.com"`
}

type QuotesConfig struct {
	// ITBMS is Panama's transfer tax; quotes default to the standard rate.
	DefaultTaxRate string `envconfig:"ISTMO_QUOTES_DEFAULT_TAX_RATE" default:"0.07"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"ISTMO_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"ISTMO_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"ISTMO_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
