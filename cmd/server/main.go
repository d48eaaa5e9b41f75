package main

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/c1nnmnz/surveyuin-team-sub000/internal/api"
	"github.com/c1nnmnz/surveyuin-team-sub000/internal/config"
	dbstore "github.com/c1nnmnz/surveyuin-team-sub000/internal/db"
	"github.com/c1nnmnz/surveyuin-team-sub000/internal/middleware"
	"github.com/c1nnmnz/surveyuin-team-sub000/internal/storage"
	"github.com/c1nnmnz/surveyuin-team-sub000/internal/survey"
)

func main() {
	cfg := config.New()

	store, kv, err := buildStores(cfg)
	if err != nil {
		log.Fatalf("storage init: %v", err)
	}
	seedDirectory(store)

	progress := survey.NewProgressService(kv)
	auth := survey.NewAuthService(store, progress, middleware.SignToken)
	router := api.NewRouter(store, auth)

	log.Printf("surveyuin server listening on %s", cfg.Addr())
	if err := http.ListenAndServe(cfg.Addr(), router.Handler()); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

// buildStores opens the sqlite-backed store and progress KV when a path
// is configured, falling back to in-memory for development.
func buildStores(cfg *config.Config) (api.Store, storage.KeyValueStore, error) {
	path := cfg.SQLitePath()
	if path == "" {
		return api.NewMemoryStore(), storage.NewMemoryKV(), nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?cache=shared&_busy_timeout=5000", filepath.ToSlash(path))
	sqliteDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := dbstore.Migrate(sqliteDB); err != nil {
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}
	store, err := dbstore.NewStore(sqliteDB)
	if err != nil {
		return nil, nil, fmt.Errorf("init sqlite store: %w", err)
	}
	kv, err := storage.NewSQLiteKV(sqliteDB)
	if err != nil {
		return nil, nil, fmt.Errorf("init sqlite kv: %w", err)
	}
	return store, kv, nil
}

// seedDirectory installs a starter service directory on an empty store.
func seedDirectory(store api.Store) {
	existing, err := store.ListServices()
	if err != nil || len(existing) > 0 {
		return
	}
	units := []*survey.ServiceUnit{
		{ID: "1", Name: "Academic Administration Bureau", Category: "academic", Faculty: "university"},
		{ID: "2", Name: "Library Service Desk", Category: "academic", Faculty: "university"},
		{ID: "3", Name: "Student Affairs Office", Category: "student", Faculty: "university"},
		{ID: "4", Name: "Finance and Tuition Office", Category: "finance", Faculty: "university"},
		{ID: "5", Name: "Integrated Service Unit", Category: "general", Faculty: "university"},
	}
	for _, su := range units {
		if err := store.AddService(su); err != nil {
			log.Printf("seed: add service %s: %v", su.ID, err)
		}
	}
}
