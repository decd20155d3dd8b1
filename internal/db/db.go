// Package db owns the storage pool and the query layer for the telemetry
// store: one shared *sql.DB per process, one query sub-module per entity
// (station.go, location.go, reading.go), and the Repository (repository.go)
// that enforces the cross-entity invariants on top of them.
package db

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/tailscale/tailsql/server/tailsql"
	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
	"tailscale.com/tsweb"
)

// maxConns bounds the shared connection pool. Checkout blocks until a
// connection frees up; the busy_timeout pragma below bounds how long a writer
// waits on the sqlite write lock itself.
const maxConns = 5

// schema.sql contains the baseline schema: stations, locations, readings and
// their indexes.
//
//go:embed schema.sql
var schemaSQL string

type DB struct {
	*sql.DB
}

// OpenDB opens the database and configures the pool without touching the
// schema.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{db}, nil
}

// NewDB opens the database and ensures the baseline schema exists.
func NewDB(path string) (*DB, error) {
	db, err := OpenDB(path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

// dsn appends the per-connection pragmas. They have to ride on the DSN rather
// than a one-off Exec because the pool opens connections lazily and every
// connection needs them. _txlock=immediate makes transactions take the write
// lock up front; a deferred transaction that reads before writing can fail
// with SQLITE_BUSY_SNAPSHOT under concurrent writers, which busy_timeout does
// not retry.
func dsn(path string) string {
	return "file:" + url.PathEscape(path) +
		"?_txlock=immediate&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
}

// dbtx is the subset of *sql.DB and *sql.Tx the query layer runs on, so the
// same statement helpers serve both pooled and transactional calls.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// isConstraintViolation reports whether err belongs to the sqlite constraint
// error family (unique, foreign key, not null).
func isConstraintViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
	}
	return false
}

// AttachAdminRoutes mounts SQL live-debugging and backup endpoints on mux.
// These are operator tools, not part of the telemetry API; main mounts them
// only behind the -debug flag.
func (db *DB) AttachAdminRoutes(mux *http.ServeMux, path string) {
	debug := tsweb.Debugger(mux)

	tsql, err := tailsql.NewServer(tailsql.Options{
		RoutePrefix: "/debug/tailsql/",
	})
	if err != nil {
		log.Fatalf("failed to create tailsql server: %v", err)
	}
	tsql.SetDB("sqlite://"+path, db.DB, &tailsql.DBOptions{
		Label: "Telemetry DB",
	})
	debug.Handle("tailsql/", "SQL live debugging", tsql.NewMux())

	debug.Handle("backup", "Create and download a backup of the database now", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		backupPath := fmt.Sprintf("backup-%d.db", time.Now().Unix())
		if _, err := db.DB.Exec("VACUUM INTO ?", backupPath); err != nil {
			http.Error(w, fmt.Sprintf("failed to create backup: %v", err), http.StatusInternalServerError)
			return
		}
		defer func() {
			if err := os.Remove(backupPath); err != nil {
				log.Printf("failed to remove backup file: %v", err)
			}
		}()

		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", backupPath))
		w.Header().Set("Content-Type", "application/octet-stream")
		http.ServeFile(w, r, backupPath)
	}))
}
