package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/editorial-cms/internal/config"
	"github.com/editorial-cms/internal/database"
	"github.com/editorial-cms/internal/models"
	"github.com/editorial-cms/internal/repository"
	"github.com/editorial-cms/internal/service"
	"github.com/editorial-cms/internal/validation"
	"github.com/editorial-cms/pkg/logger"
)

func main() {
	username := flag.String("username", "", "admin username")
	email := flag.String("email", "", "admin email")
	password := flag.String("password", "", "admin password (falls back to ADMIN_PASSWORD)")
	role := flag.String("role", "editor", "admin role: admin or editor")
	migrations := flag.String("migrations", "./migrations", "migrations directory")
	rollback := flag.Bool("migrate-down", false, "roll back the last migration and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if *rollback {
		if err := db.MigrateDown(*migrations); err != nil {
			log.Fatal().Err(err).Msg("Failed to roll back migration")
		}
		return
	}
	if err := db.RunMigrations(*migrations); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	if *password == "" {
		*password = os.Getenv("ADMIN_PASSWORD")
	}

	services := service.NewServices(repository.New(db), service.Infra{}, cfg, log)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	admin := &models.Admin{Username: *username, Email: *email, Role: *role}
	err = services.Auth.CreateAdmin(ctx, admin, *password)

	var verrs validation.Errors
	switch {
	case errors.As(err, &verrs):
		for _, ve := range verrs {
			fmt.Fprintf(os.Stderr, "%s: %s\n", ve.Field, ve.Message)
		}
		os.Exit(2)
	case errors.Is(err, service.ErrConflict):
		fmt.Fprintf(os.Stderr, "an admin with email %s already exists\n", *email)
		os.Exit(2)
	case err != nil:
		log.Fatal().Err(err).Msg("Failed to create admin")
	}

	log.Info().Int64("admin_id", admin.ID).Str("email", admin.Email).Str("role", admin.Role).Msg("Admin created")
}
