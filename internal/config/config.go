package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env                 string
	Port                string
	DatabaseURL         string
	RedisURL            string
	TiingoAPIKey        string
	SendinblueAPIKey    string // SENDINBLUE_API_KEY for drift-alert emails (Brevo)
	MailFrom            string // MAIL_FROM sender email
	FrontendURLEndsWith string
	DevPassword         string
	DriftCron           string // cron spec for the daily check, default midnight
	QuoteCacheTTL       int    // seconds, latest-price cache in Redis
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	port := viper.GetString("PORT")
	if port == "" {
		port = "8080"
	}
	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	dbURL := viper.GetString("DATABASE_URL_DEV")
	if env == "production" {
		dbURL = viper.GetString("DATABASE_URL_PROD")
	} else if env == "test" {
		dbURL = viper.GetString("DATABASE_URL_TEST")
	}
	if dbURL == "" {
		dbURL = viper.GetString("DATABASE_URL")
	}

	cronSpec := viper.GetString("DRIFT_CRON")
	if cronSpec == "" {
		cronSpec = "0 0 * * *"
	}

	ttl := viper.GetInt("QUOTE_CACHE_TTL")
	if ttl <= 0 {
		ttl = 60
	}

	return &Config{
		Env:                 env,
		Port:                port,
		DatabaseURL:         dbURL,
		RedisURL:            viper.GetString("REDIS_URL"),
		TiingoAPIKey:        viper.GetString("TIINGO_API_KEY"),
		SendinblueAPIKey:    viper.GetString("SENDINBLUE_API_KEY"),
		MailFrom:            viper.GetString("MAIL_FROM"),
		FrontendURLEndsWith: viper.GetString("FRONTEND_URL_ENDS_WITH"),
		DevPassword:         viper.GetString("DEV_PASSWORD"),
		DriftCron:           cronSpec,
		QuoteCacheTTL:       ttl,
	}, nil
}
