package main

import (
	"database/sql"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	log "github.com/sirupsen/logrus"
)

const (
	defaultConn = "user=ps_user password=ps_password dbname=skillforge sslmode=disable host=0.0.0.0"
	sourceURL   = "file://./migrations"
)

func main() {
	log.SetLevel(log.InfoLevel)

	dbConn := os.Getenv("DB_CONN")
	if dbConn == "" {
		dbConn = defaultConn
	}

	log.Printf("applying skillforge migrations from %s", sourceURL)

	db, err := sql.Open("postgres", dbConn)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Errorf("closing the db: %v", err)
		}
	}()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		log.Fatalf("preparing migration driver: %v", err)
	}

	m, err := migrate.NewWithDatabaseInstance(sourceURL, "postgres", driver)
	if err != nil {
		log.Fatalf("loading migrations: %v", err)
	}

	if err := m.Up(); err != nil {
		if err == migrate.ErrNoChange {
			log.Println("schema already up to date")
			return
		}
		log.Fatalf("applying migrations: %v", err)
	}

	log.Println("schema migrated")
}
