package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Env        string `env:"ENV" env-default:"development"`
	ServerPort int    `env:"PORT" env-default:"5000"`
	LogLevel   string `env:"LOG_LEVEL" env-default:"info"`
	CORSOrigin string `env:"CORS_ORIGIN" env-default:"http://localhost:3000"`
	Auth       AuthConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Storage    StorageConfig
	MQ         MQConfig
}

// AuthConfig is read once at startup and handed to the token service and
// password hasher. Nothing mutates it afterwards.
type AuthConfig struct {
	JWTSecret string   `env:"JWT_SECRET" env-required:"true"`
	TokenTTL  Duration `env:"JWT_EXPIRE" env-default:"7d"`

	BcryptCost      int `env:"BCRYPT_COST" env-default:"10"`
	HashConcurrency int `env:"BCRYPT_MAX_CONCURRENT" env-default:"0"`

	// AllowAdminSignup lets an unauthenticated caller request the admin role
	// at registration.
	AllowAdminSignup bool `env:"ALLOW_ADMIN_SIGNUP" env-default:"true"`
}

type DatabaseConfig struct {
	URL      string `env:"DATABASE_URL"`
	Host     string `env:"DB_HOST" env-default:"localhost"`
	Port     int    `env:"DB_PORT" env-default:"5432"`
	User     string `env:"DB_USER" env-default:"ecostore"`
	Password string `env:"DB_PASSWORD" env-default:"password"`
	DBName   string `env:"DB_NAME" env-default:"ecostore"`
	UseSSL   bool   `env:"DB_SSL" env-default:"false"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" env-default:"0"`
}

// Enabled reports whether a Redis server is configured.
func (c RedisConfig) Enabled() bool {
	return strings.TrimSpace(c.Addr) != ""
}

const (
	StorageBackendNone  = "none"
	StorageBackendMinio = "minio"
	StorageBackendGCS   = "gcs"
	StorageBackendS3    = "s3"
)

type StorageConfig struct {
	Backend string `env:"STORAGE_BACKEND" env-default:"none"`
	Minio   MinioConfig
	GCS     GCSConfig
	S3      S3Config
}

type MinioConfig struct {
	Endpoint  string `env:"MINIO_ENDPOINT"`
	AccessKey string `env:"MINIO_ACCESS_KEY"`
	SecretKey string `env:"MINIO_SECRET_KEY"`
	Bucket    string `env:"MINIO_BUCKET" env-default:"ecostore-exports"`
	UseSSL    bool   `env:"MINIO_USE_SSL" env-default:"false"`
}

type GCSConfig struct {
	Bucket          string `env:"GCS_BUCKET"`
	ProjectID       string `env:"GCS_PROJECT_ID"`
	CredentialsFile string `env:"GCS_CREDENTIALS_FILE"`
}

type S3Config struct {
	Bucket       string `env:"S3_BUCKET"`
	Region       string `env:"S3_REGION" env-default:"us-east-1"`
	Endpoint     string `env:"S3_ENDPOINT"`
	AccessKey    string `env:"S3_ACCESS_KEY"`
	SecretKey    string `env:"S3_SECRET_KEY"`
	UsePathStyle bool   `env:"S3_USE_PATH_STYLE" env-default:"false"`
}

const (
	MQBackendNone     = "none"
	MQBackendRabbitMQ = "rabbitmq"
	MQBackendPubSub   = "pubsub"
)

type MQConfig struct {
	Backend       string `env:"MQ_BACKEND" env-default:"none"`
	EventsChannel string `env:"MQ_EVENTS_CHANNEL" env-default:"auth-events"`
	RabbitMQ      RabbitMQConfig
	PubSub        PubSubConfig
}

type RabbitMQConfig struct {
	URL             string `env:"RABBITMQ_URL"`
	PrefetchCount   int    `env:"RABBITMQ_PREFETCH" env-default:"10"`
	QueueDurable    bool   `env:"RABBITMQ_QUEUE_DURABLE" env-default:"true"`
	QueueAutoDelete bool   `env:"RABBITMQ_QUEUE_AUTO_DELETE" env-default:"false"`
}

type PubSubConfig struct {
	ProjectID          string `env:"PUBSUB_PROJECT_ID"`
	CredentialsFile    string `env:"PUBSUB_CREDENTIALS_FILE"`
	SubscriptionSuffix string `env:"PUBSUB_SUBSCRIPTION_SUFFIX" env-default:"-sub"`
}

// LoadConfig reads the process environment. In dev, a local .env file is
// loaded first.
func LoadConfig() (Config, error) {
	if os.Getenv("ENV") == "dev" {
		_ = godotenv.Load()
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		return Config{}, fmt.Errorf("read config: JWT_SECRET is required")
	}
	if cfg.Auth.TokenTTL <= 0 {
		return Config{}, fmt.Errorf("read config: JWT_EXPIRE must be positive")
	}
	return cfg, nil
}

// Duration is a time.Duration that also accepts a whole number of days
// ("7d") as used by JWT_EXPIRE.
type Duration time.Duration

// SetValue implements cleanenv.Setter.
func (d *Duration) SetValue(raw string) error {
	parsed, err := ParseDuration(raw)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// ParseDuration parses Go duration strings plus a "<n>d" day form.
func ParseDuration(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("empty duration")
	}
	if days, ok := strings.CutSuffix(raw, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", raw)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", raw)
	}
	return parsed, nil
}
