package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/himarplupi/bot-himarpl/internal/dal"
	"github.com/himarplupi/bot-himarpl/internal/ratelimit"
	"github.com/himarplupi/bot-himarpl/internal/service"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Dev      bool   `envconfig:"DEV" default:"false"`
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`

	TelegramBotToken    string `envconfig:"TELEGRAM_BOT_TOKEN"`
	TelegramBotUsername string `envconfig:"TELEGRAM_BOT_USERNAME"`
	TelegramBotAPIURL   string `envconfig:"TELEGRAM_BOT_API_URL" default:"https://api.telegram.org"`
	TelegramBotSecret   string `envconfig:"TELEGRAM_BOT_SECRET"`
	APIToken            string `envconfig:"API_TOKEN"`

	Storage     string `envconfig:"STORAGE" default:"postgres"`
	DatabaseURL string `envconfig:"DATABASE_URL"`
	DBPath      string `envconfig:"DB_PATH" default:"data/bot.db"`

	RateLimitBackend  string        `envconfig:"RATE_LIMIT_BACKEND" default:"local"`
	RateLimitRequests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"10"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"10s"`
	TrustProxyHeaders bool          `envconfig:"TRUST_PROXY_HEADERS" default:"true"`

	NotifyBatchSize  int           `envconfig:"NOTIFY_BATCH_SIZE" default:"25"`
	NotifyBatchDelay time.Duration `envconfig:"NOTIFY_BATCH_DELAY" default:"1s"`
	ResumeSchedule   string        `envconfig:"RESUME_SCHEDULE" default:"@every 5m"`
	BlogBaseURL      string        `envconfig:"BLOG_BASE_URL" default:"https://blog.himarpl.com"`
	ResponsesPath    string        `envconfig:"RESPONSES_PATH"`

	SSMPrefix string `envconfig:"SSM_PREFIX"`
}

// ParameterStore is the subset of the SSM client used to resolve secrets.
type ParameterStore interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// Load reads the environment (and a .env file when present). Outside of dev
// mode secrets are then overridden from SSM when SSM_PREFIX is set. The
// result is not validated; callers pick Validate or ValidateTelegram.
func Load(ctx context.Context) (*Config, error) {
	// missing .env is fine, existing variables win
	_ = godotenv.Load()

	res := &Config{}
	if err := envconfig.Process("", res); err != nil {
		return nil, fmt.Errorf("envconfig process: %w", err)
	}

	if res.Dev || res.SSMPrefix == "" {
		return res, nil
	}

	awsConf, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	if err := res.ApplySSM(ctx, ssm.NewFromConfig(awsConf)); err != nil {
		return nil, err
	}

	return res, nil
}

// ApplySSM overrides secrets with the parameters stored under SSMPrefix.
// Parameters that do not exist keep the environment value.
func (c *Config) ApplySSM(ctx context.Context, store ParameterStore) error {
	prefix := strings.TrimRight(c.SSMPrefix, "/")
	for name, dst := range map[string]*string{
		"telegram-bot-token":  &c.TelegramBotToken,
		"telegram-bot-secret": &c.TelegramBotSecret,
		"api-token":           &c.APIToken,
		"database-url":        &c.DatabaseURL,
	} {
		param, err := store.GetParameter(ctx, &ssm.GetParameterInput{
			Name:           aws.String(prefix + "/" + name),
			WithDecryption: aws.Bool(true),
		})
		if err != nil {
			var notFound *types.ParameterNotFound
			if errors.As(err, &notFound) {
				continue
			}
			return fmt.Errorf("get SSM parameter %s: %w", name, err)
		}
		if param.Parameter == nil || param.Parameter.Value == nil {
			continue
		}
		*dst = *param.Parameter.Value
	}
	return nil
}

// ValidateTelegram checks the values needed to talk to the Bot API and to
// derive the webhook secret token.
func (c *Config) ValidateTelegram() error {
	var errs []error
	if c.TelegramBotToken == "" {
		errs = append(errs, errors.New("TELEGRAM_BOT_TOKEN is required"))
	}
	if c.TelegramBotUsername == "" {
		errs = append(errs, errors.New("TELEGRAM_BOT_USERNAME is required"))
	}
	if c.TelegramBotSecret == "" {
		errs = append(errs, errors.New("TELEGRAM_BOT_SECRET is required"))
	}
	if _, err := url.ParseRequestURI(c.TelegramBotAPIURL); err != nil {
		errs = append(errs, fmt.Errorf("TELEGRAM_BOT_API_URL: %w", err))
	}
	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInvalidConfig}, errs...)...)
	}
	return nil
}

// Validate checks everything the webhook server needs.
func (c *Config) Validate() error {
	var errs []error
	if err := c.ValidateTelegram(); err != nil {
		errs = append(errs, err)
	}
	if c.APIToken == "" {
		errs = append(errs, errors.New("API_TOKEN is required"))
	}

	switch c.Storage {
	case dal.BackendPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for postgres storage"))
		}
	case dal.BackendBolt:
		if c.DBPath == "" {
			errs = append(errs, errors.New("DB_PATH is required for bolt storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE %q", c.Storage))
	}

	switch c.RateLimitBackend {
	case ratelimit.BackendLocal:
	case ratelimit.BackendPostgres:
		if c.Storage != dal.BackendPostgres {
			errs = append(errs, errors.New("RATE_LIMIT_BACKEND=postgres requires STORAGE=postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown RATE_LIMIT_BACKEND %q", c.RateLimitBackend))
	}
	if err := c.RateLimit().Validate(); err != nil {
		errs = append(errs, err)
	}

	if c.NotifyBatchSize <= 0 {
		errs = append(errs, fmt.Errorf("NOTIFY_BATCH_SIZE must be positive, got %d", c.NotifyBatchSize))
	}
	if c.NotifyBatchDelay < 0 {
		errs = append(errs, fmt.Errorf("NOTIFY_BATCH_DELAY must not be negative, got %s", c.NotifyBatchDelay))
	}
	if err := service.ValidateSchedule(c.ResumeSchedule); err != nil {
		errs = append(errs, fmt.Errorf("RESUME_SCHEDULE: %w", err))
	}
	if _, err := url.ParseRequestURI(c.BlogBaseURL); err != nil {
		errs = append(errs, fmt.Errorf("BLOG_BASE_URL: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInvalidConfig}, errs...)...)
	}
	return nil
}

func (c *Config) RateLimit() ratelimit.Config {
	return ratelimit.Config{
		Requests: c.RateLimitRequests,
		Window:   c.RateLimitWindow,
	}
}

func (c *Config) Notifications() service.NotificationsConfig {
	return service.NotificationsConfig{
		BatchSize:   c.NotifyBatchSize,
		BatchDelay:  c.NotifyBatchDelay,
		BlogBaseURL: c.BlogBaseURL,
	}
}
