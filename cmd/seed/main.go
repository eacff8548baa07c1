package main

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/prasetyo-adi/go-todo-api/config"
	"github.com/prasetyo-adi/go-todo-api/pkg/helpers"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	email := "demo@example.com"
	password := "password123"
	name := "Demo User"
	hash, err := helpers.HashPassword(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	var id string
	err = db.QueryRow(`
		INSERT INTO users (email, password_hash, name, avatar_url)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name
		RETURNING id
	`, email, hash, name, "").Scan(&id)
	if err != nil {
		log.Fatalf("failed to seed user: %v", err)
	}
	fmt.Printf("seeded user: id=%s email=%s password=%s\n", id, email, password)

	todos := []struct {
		title    string
		status   string
		priority string
		tags     string
	}{
		{"Buy groceries", "pending", "medium", "{errands,home}"},
		{"Finish quarterly report", "in_progress", "high", "{work}"},
		{"Water the plants", "completed", "low", "{home}"},
	}
	for _, t := range todos {
		if _, err := db.Exec(`
			INSERT INTO todos (user_id, title, status, priority, tags)
			SELECT $1, $2, $3, $4, $5
			WHERE NOT EXISTS (SELECT 1 FROM todos WHERE user_id = $1 AND title = $2)
		`, id, t.title, t.status, t.priority, t.tags); err != nil {
			log.Fatalf("failed to seed todo %q: %v", t.title, err)
		}
	}
	fmt.Println("seeded sample todos")
}
