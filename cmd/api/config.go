package main

import (
	"errors"
	"fmt"
	"github.com/ardanlabs/conf"
)

type Config struct {
	Port            string `conf:"default:8080,env:PORT"`
	DBCon           string `conf:"default:user=ps_user password=ps_password dbname=skillforge sslmode=disable host=localhost,env:DB_CONN"`
	JWTKey          string `conf:"default:your_secret_key,env:JWT_KEY"`
	StripeKey       string `conf:"default:,env:STRIPE_KEY"`
	SendgridKey     string `conf:"default:,env:SENDGRID_KEY"`
	RedisAddr       string `conf:"default:,env:REDIS_ADDR"`
	RedisPassword   string `conf:"default:,env:REDIS_PASSWORD"`
	RedisDB         int    `conf:"default:0,env:REDIS_DB"`
	GenAIKey        string `conf:"default:,env:GENAI_KEY"`
	GenAIModel      string `conf:"default:gemini-2.0-flash,env:GENAI_MODEL"`
	NewRelicLicense string `conf:"default:,env:NEW_RELIC_LICENSE_KEY"`
}

func ReadConfig() (*Config, error) {
	var cfg Config
	help, err := conf.ParseOSArgs("APP", &cfg)

	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil, fmt.Errorf("parsing config: %w", err)
		}
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return &cfg, nil
}
