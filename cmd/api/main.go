package main

import (
	"context"
	"strconv"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/sendgrid/sendgrid-go"
	log "github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v74"

	"skillforge/internal/database"
	"skillforge/internal/leaderboard"
	"skillforge/internal/notifications"
	"skillforge/internal/questiongen"
)

func main() {
	log.Println("starting skillforge server")

	cfg, err := ReadConfig()
	if err != nil {
		log.Fatalf("reading config: %v", err)
	}

	port, err := strconv.Atoi(cfg.Port)
	if err != nil {
		log.Fatalf("converting port to integer: %v", err)
	}

	db, err := database.NewClient(cfg.DBCon)
	if err != nil {
		log.Fatalf("creating database client: %v", err)
	}
	defer db.Close()

	stripe.Key = cfg.StripeKey

	var sender *notifications.Sender
	if cfg.SendgridKey != "" {
		sender = notifications.NewSender(sendgrid.NewSendClient(cfg.SendgridKey))
	}

	var board *leaderboard.Board
	if cfg.RedisAddr != "" {
		board, err = leaderboard.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Errorf("connecting to redis, leaderboards fall back to postgres: %v", err)
			board = nil
		} else {
			defer board.Close()
		}
	}

	var generator *questiongen.Generator
	if cfg.GenAIKey != "" {
		generator, err = questiongen.New(context.Background(), cfg.GenAIKey, cfg.GenAIModel)
		if err != nil {
			log.Fatalf("creating question generator: %v", err)
		}
	}

	var nrApp *newrelic.Application
	if cfg.NewRelicLicense != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName("skillforge-api"),
			newrelic.ConfigLicense(cfg.NewRelicLicense),
		)
		if err != nil {
			log.Fatalf("creating newrelic application: %v", err)
		}
	}

	server := NewServer(port, db, cfg.JWTKey, sender, board, generator, nrApp)

	log.Fatal(server.Run())
}
