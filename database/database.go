package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/Daysof1/proyecto/models"

	_ "github.com/lib/pq"
)

// TxTimeout bounds every transactional operation; a transaction that runs
// past it is aborted and surfaces a retryable timeout to the caller.
const TxTimeout = 5 * time.Second

type DB struct {
	*sql.DB
}

var Database *DB

// Connect establishes a connection to the PostgreSQL database
func Connect(databaseURL string) (*DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	Database = &DB{db}
	return Database, nil
}

// InitializeTables creates all tables if they don't exist
func (db *DB) InitializeTables() error {
	// Enable pgcrypto extension for gen_random_uuid()
	if _, err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "pgcrypto";`); err != nil {
		return fmt.Errorf("failed to enable pgcrypto extension: %w", err)
	}

	// Creation order respects foreign key dependencies
	tables := []interface {
		TableName() string
		CreateTableSQL() string
	}{
		models.User{},
		models.Category{},
		models.Subcategory{},
		models.Product{},
		models.CartLine{},
		models.Order{},
		models.OrderLine{},
	}

	for _, table := range tables {
		if _, err := db.Exec(table.CreateTableSQL()); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table.TableName(), err)
		}
		log.Printf("Table %s ready", table.TableName())
	}

	return nil
}

// WithTx runs fn inside a read-committed transaction with a bounded timeout.
// The transaction is rolled back if fn returns an error, the context is
// cancelled, or fn panics; it is committed otherwise.
func (db *DB) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	ctx, cancel := context.WithTimeout(ctx, TxTimeout)
	defer cancel()

	tx, err := db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
