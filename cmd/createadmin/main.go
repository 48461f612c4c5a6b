// Command createadmin creates an admin account, or reports the
// existing one when the email is already registered.
package main

import (
	"errors"
	"fmt"

	"github.com/ardanlabs/conf"
	log "github.com/sirupsen/logrus"

	"skillforge/internal/database"
	"skillforge/internal/model"
)

type Config struct {
	DBCon    string `conf:"default:user=ps_user password=ps_password dbname=skillforge sslmode=disable host=localhost,env:DB_CONN"`
	Username string `conf:"default:admin"`
	Email    string `conf:"required"`
	Password string `conf:"required,noprint"`
}

func main() {
	var cfg Config
	help, err := conf.ParseOSArgs("APP", &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return
		}
		log.Fatalf("parsing config: %v", err)
	}

	if len(cfg.Password) < 8 {
		log.Fatal("password must be at least 8 characters")
	}

	db, err := database.NewClient(cfg.DBCon)
	if err != nil {
		log.Fatalf("creating database client: %v", err)
	}
	defer db.Close()

	if existing, err := db.GetUserByEmail(cfg.Email); err == nil {
		if existing.UserType == model.RoleAdmin {
			log.Printf("admin %q already exists with id %d", cfg.Email, existing.ID)
			return
		}
		log.Fatalf("a %s account already uses %q", existing.UserType, cfg.Email)
	}

	user, err := db.CreateUser(cfg.Username, cfg.Email, cfg.Password, model.RoleAdmin, "")
	if err != nil {
		log.Fatalf("creating admin: %v", err)
	}

	log.Printf("created admin %q with id %d", user.Email, user.ID)
}
