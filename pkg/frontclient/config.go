package frontclient

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/fivetwenty-io/front-go/internal/constants"
	"github.com/fivetwenty-io/front-go/pkg/front"
)

// LoadOptions controls where LoadConfig looks for settings.
type LoadOptions struct {
	// ConfigFile is an optional YAML file.
	ConfigFile string
	// EnvFile is a dotenv file loaded before reading the environment. When
	// empty, ./.env is loaded if it exists.
	EnvFile string
}

// Setting keys. Environment variables use the FRONT_ prefix with dots
// replaced by underscores, e.g. FRONT_OAUTH_CLIENT_ID.
const (
	keyAPIEndpoint  = "api_endpoint"
	keyAPIKey       = "api_key"
	keyTokenURL     = "token_url"
	keyHTTPTimeout  = "http_timeout"
	keyRetryMax     = "retry_max"
	keyRetryWaitMin = "retry_wait_min"
	keyRetryWaitMax = "retry_wait_max"
	keyRetryJitter  = "retry_jitter"
	keyRateLimit    = "rate_limit"
	keyRateBurst    = "rate_burst"
	keyDebug        = "debug"
	keyUserAgent    = "user_agent"
	keyClientID     = "oauth.client_id"
	keyClientSecret = "oauth.client_secret"
	keyAccessToken  = "oauth.access_token"
	keyRefreshToken = "oauth.refresh_token"
	keyTokenFile    = "oauth.token_file"
	keyNATSURL      = "oauth.nats.url"
	keyNATSBucket   = "oauth.nats.bucket"
	keyNATSKey      = "oauth.nats.key"
	keyLogLevel     = "log.level"
	keyLogFormat    = "log.format"
)

const logFormatConsole = "console"

var settingKeys = []string{
	keyAPIEndpoint, keyAPIKey, keyTokenURL, keyHTTPTimeout, keyRetryMax,
	keyRetryWaitMin, keyRetryWaitMax, keyRetryJitter, keyRateLimit, keyRateBurst,
	keyDebug, keyUserAgent, keyClientID, keyClientSecret, keyAccessToken,
	keyRefreshToken, keyTokenFile, keyNATSURL, keyNATSBucket, keyNATSKey,
	keyLogLevel, keyLogFormat,
}

// LoadConfig builds a front.Config from an optional YAML file and FRONT_*
// environment variables, environment taking precedence. OAuth is configured
// when any oauth.* setting is present; a token file or NATS URL under oauth
// selects the token persister. Setting log.level attaches a zerolog logger
// writing JSON, or console output with log.format "console", to stderr.
func LoadConfig(ctx context.Context, opts LoadOptions) (*front.Config, error) {
	err := loadEnvFile(opts.EnvFile)
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for _, key := range settingKeys {
		err = v.BindEnv(key)
		if err != nil {
			return nil, fmt.Errorf("binding %s: %w", key, err)
		}
	}

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		v.SetConfigType("yaml")

		err = v.ReadInConfig()
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	config := &front.Config{
		APIEndpoint:  v.GetString(keyAPIEndpoint),
		APIKey:       v.GetString(keyAPIKey),
		TokenURL:     v.GetString(keyTokenURL),
		HTTPTimeout:  v.GetDuration(keyHTTPTimeout),
		RetryMax:     v.GetInt(keyRetryMax),
		RetryWaitMin: v.GetDuration(keyRetryWaitMin),
		RetryWaitMax: v.GetDuration(keyRetryWaitMax),
		RateLimit:    v.GetFloat64(keyRateLimit),
		RateBurst:    v.GetInt(keyRateBurst),
		Debug:        v.GetBool(keyDebug),
		UserAgent:    v.GetString(keyUserAgent),
	}

	if level := v.GetString(keyLogLevel); level != "" {
		config.Logger, err = newLogger(level, v.GetString(keyLogFormat))
		if err != nil {
			return nil, err
		}
	}

	if v.IsSet(keyRetryJitter) {
		jitter := v.GetFloat64(keyRetryJitter)
		config.RetryJitter = &jitter
	}

	if hasOAuthSettings(v) {
		config.OAuth = &front.OAuthConfig{
			ClientID:     v.GetString(keyClientID),
			ClientSecret: v.GetString(keyClientSecret),
			AccessToken:  v.GetString(keyAccessToken),
			RefreshToken: v.GetString(keyRefreshToken),
		}

		config.OAuth.Persister, err = persisterFromSettings(ctx, v)
		if err != nil {
			return nil, err
		}
	}

	return config, nil
}

func hasOAuthSettings(v *viper.Viper) bool {
	for _, key := range []string{keyClientID, keyClientSecret, keyAccessToken, keyRefreshToken} {
		if v.GetString(key) != "" {
			return true
		}
	}

	return false
}

func persisterFromSettings(ctx context.Context, v *viper.Viper) (front.TokenPersister, error) {
	if url := v.GetString(keyNATSURL); url != "" {
		return DialNATSTokenPersister(ctx, url, v.GetString(keyNATSBucket), v.GetString(keyNATSKey))
	}

	if path := v.GetString(keyTokenFile); path != "" {
		return NewFileTokenPersister(path)
	}

	return nil, nil //nolint:nilnil // no persister configured
}

func loadEnvFile(path string) error {
	if path == "" {
		err := godotenv.Load()
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading .env: %w", err)
		}

		return nil
	}

	err := godotenv.Load(path)
	if err != nil {
		return fmt.Errorf("loading env file %s: %w", path, err)
	}

	return nil
}

func newLogger(level, format string) (front.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var zl zerolog.Logger
	if strings.EqualFold(format, logFormatConsole) {
		zl = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		zl = zerolog.New(os.Stderr)
	}

	return front.NewZerologLogger(zl.Level(lvl).With().Timestamp().Logger()), nil
}
