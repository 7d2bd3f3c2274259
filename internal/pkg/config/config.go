package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	envparse "github.com/caarlos0/env/v10"

	"github.com/ManuelReschke/PayFox/internal/pkg/env"
)

const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// Config is the complete runtime configuration.
type Config struct {
	App      AppConfig      `envPrefix:"APP_"`
	Stripe   StripeConfig   `envPrefix:"STRIPE_"`
	Supabase SupabaseConfig `envPrefix:"SUPABASE_"`
	Database DatabaseConfig `envPrefix:"DB_"`
	Cache    CacheConfig    `envPrefix:"CACHE_"`
	Queue    QueueConfig    `envPrefix:"QUEUE_"`
	SMTP     SMTPConfig     `envPrefix:"SMTP_"`
	S3       S3Config       `envPrefix:"S3_"`
	Kafka    KafkaConfig    `envPrefix:"KAFKA_"`

	// FunctionsBaseURL is where the email functions are reachable. Defaults
	// to this service, which serves them at its root.
	FunctionsBaseURL string `env:"FUNCTIONS_BASE_URL"`
	SiteOrigin       string `env:"SITE_ORIGIN" envDefault:"https://www.jenatechandai.com"`
	RateLimitMax     int    `env:"RATE_LIMIT_MAX" envDefault:"20"`
}

type AppConfig struct {
	Host string `env:"HOST" envDefault:"0.0.0.0"`
	Port string `env:"PORT" envDefault:"4000"`
	Env  string `env:"ENV" envDefault:"prod"`
}

type StripeConfig struct {
	SecretKey     string `env:"SECRET_KEY,required,notEmpty"`
	WebhookSecret string `env:"WEBHOOK_SECRET,required,notEmpty"`
}

type SupabaseConfig struct {
	URL            string `env:"URL,required,notEmpty"`
	ServiceRoleKey string `env:"SERVICE_ROLE_KEY,required,notEmpty"`
	AnonKey        string `env:"ANON_KEY,required,notEmpty"`
	JWTSecret      string `env:"JWT_SECRET"`
}

type DatabaseConfig struct {
	Driver   string `env:"DRIVER" envDefault:"postgres"`
	DSN      string `env:"DSN"`
	Host     string `env:"HOST" envDefault:"127.0.0.1"`
	Port     string `env:"PORT"`
	User     string `env:"USER"`
	Password string `env:"PASSWORD"`
	Name     string `env:"NAME"`
}

type CacheConfig struct {
	Host     string `env:"HOST" envDefault:"localhost"`
	Port     string `env:"PORT" envDefault:"6379"`
	Password string `env:"PASSWORD"`
}

type QueueConfig struct {
	Backend string `env:"BACKEND" envDefault:"redis"`
	Workers int    `env:"WORKERS" envDefault:"5"`
}

type SMTPConfig struct {
	Host     string `env:"HOST"`
	Port     string `env:"PORT" envDefault:"587"`
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
	Sender   string `env:"SENDER"`
}

type S3Config struct {
	Region          string        `env:"REGION" envDefault:"us-east-1"`
	Bucket          string        `env:"BUCKET"`
	AccessKeyID     string        `env:"ACCESS_KEY_ID"`
	SecretAccessKey string        `env:"SECRET_ACCESS_KEY"`
	EndpointURL     string        `env:"ENDPOINT_URL"`
	LinkTTL         time.Duration `env:"LINK_TTL" envDefault:"72h"`
}

type KafkaConfig struct {
	Brokers []string `env:"BROKERS" envSeparator:","`
	Topic   string   `env:"TOPIC" envDefault:"payfox.payments"`
}

// Load reads the configuration from the process environment and the
// loaded .env file.
func Load() (*Config, error) {
	return Parse(env.Environ())
}

// Parse reads the configuration from the given variables only.
func Parse(environ map[string]string) (*Config, error) {
	cfg := &Config{}
	if err := envparse.ParseWithOptions(cfg, envparse.Options{Environment: environ}); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	cfg.Supabase.URL = strings.TrimRight(cfg.Supabase.URL, "/")
	if cfg.FunctionsBaseURL == "" {
		cfg.FunctionsBaseURL = cfg.App.LocalURL()
	}
	cfg.FunctionsBaseURL = strings.TrimRight(cfg.FunctionsBaseURL, "/")

	switch cfg.Database.Driver {
	case DriverPostgres, DriverMySQL:
	default:
		return nil, fmt.Errorf("invalid configuration: unsupported DB_DRIVER %q", cfg.Database.Driver)
	}
	switch cfg.Queue.Backend {
	case "redis", "local":
	default:
		return nil, fmt.Errorf("invalid configuration: unsupported QUEUE_BACKEND %q", cfg.Queue.Backend)
	}
	return cfg, nil
}

// LoadDatabase reads only the DB_* variables. Tools that do not talk to
// Stripe use it instead of Load.
func LoadDatabase() (DatabaseConfig, error) {
	return ParseDatabase(env.Environ())
}

// ParseDatabase reads the DB_* variables from environ.
func ParseDatabase(environ map[string]string) (DatabaseConfig, error) {
	var db DatabaseConfig
	opts := envparse.Options{Environment: environ, Prefix: "DB_"}
	if err := envparse.ParseWithOptions(&db, opts); err != nil {
		return db, fmt.Errorf("invalid database configuration: %w", err)
	}
	switch db.Driver {
	case DriverPostgres, DriverMySQL:
	default:
		return db, fmt.Errorf("invalid database configuration: unsupported DB_DRIVER %q", db.Driver)
	}
	return db, nil
}

// IsDev reports whether the service runs in development mode.
func (c *Config) IsDev() bool {
	return c.App.Env == "dev"
}

// Addr is the HTTP listen address.
func (c AppConfig) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// LocalURL is the base URL other components of this process use to call its
// own HTTP routes. Wildcard listen hosts resolve to loopback.
func (c AppConfig) LocalURL() string {
	host := c.Host
	switch host {
	case "", "0.0.0.0":
		host = "127.0.0.1"
	case "::":
		host = "::1"
	}
	return "http://" + net.JoinHostPort(host, c.Port)
}

// Addr is the Redis address.
func (c CacheConfig) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// ConnectionString returns DSN when set, otherwise builds one for the driver.
func (c DatabaseConfig) ConnectionString() string {
	if c.DSN != "" {
		return c.DSN
	}
	port := c.Port
	switch c.Driver {
	case DriverMySQL:
		if port == "" {
			port = "3306"
		}
		// "user:pass@tcp(127.0.0.1:3306)/dbname?charset=utf8mb4&parseTime=True&loc=UTC"
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			c.User, c.Password, c.Host, port, c.Name)
	default:
		if port == "" {
			port = "5432"
		}
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
			c.Host, c.User, c.Password, c.Name, port)
	}
}

// MigrateURL returns the golang-migrate database URL for the driver.
func (c DatabaseConfig) MigrateURL() string {
	port := c.Port
	switch c.Driver {
	case DriverMySQL:
		if port == "" {
			port = "3306"
		}
		return fmt.Sprintf("mysql://%s:%s@tcp(%s:%s)/%s?multiStatements=true", c.User, c.Password, c.Host, port, c.Name)
	default:
		if port == "" {
			port = "5432"
		}
		return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", c.User, c.Password, c.Host, port, c.Name)
	}
}
