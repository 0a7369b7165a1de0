// Command admin bootstraps a user account (and optionally its todo-list)
// directly against the database.
package main

import (
	"context"
	"database/sql"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/dmitrijs2005/todolist/internal/admin"
	"github.com/dmitrijs2005/todolist/internal/logging"
	"github.com/dmitrijs2005/todolist/internal/server/config"
	"github.com/dmitrijs2005/todolist/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/todolist/internal/server/services"
)

func main() {
	ctx := context.Background()
	cfg := config.LoadConfig()
	logger := logging.New(os.Stderr, cfg.LogLevel)

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	defer db.Close()

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		log.Fatalf("migrations error: %v", err)
	}

	us := services.NewUserService(db, rm, cfg, services.WithLogger(logger))
	ts := services.NewTodolistService(db, rm, services.WithLogger(logger))

	if _, err := admin.Bootstrap(ctx, os.Stdin, os.Stdout, us, ts); err != nil {
		log.Printf("bootstrap failed: %v", err)
		os.Exit(1)
	}
}
