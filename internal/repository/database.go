package repository

import (
	"context"
	"errors"
	"fmt"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Global error declarations.
var (
	ErrNoPrices = errors.New("no prices found in datasource")
)

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type pricesRepository interface {
	GetDailyPrices(ctx context.Context, arg GetDailyPricesParams) ([]DailyPrice, error)
}

type predictionsRepository interface {
	GetPredictions(ctx context.Context, arg GetPredictionsParams) ([]Prediction, error)
}

// Database struct that holds the database connection and queries.
type Database struct {
	prices      pricesRepository
	predictions predictionsRepository
	queries     *Queries
	conn        *pgxpool.Pool
}

// NewDatabase creates a new Database instance and verifies connectivity.
func NewDatabase(ctx context.Context, dbURL string) (*Database, error) {
	config, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// Register shopspring decimal
	config.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	conn, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}
	// Ensure the connection is established.
	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, err
	}

	queries := NewQueries(conn)
	return &Database{
		prices:      queries,
		predictions: queries,
		queries:     queries,
		conn:        conn,
	}, nil
}

// Migrate creates the input tables when they do not exist yet.
func (db *Database) Migrate(ctx context.Context) error {
	return db.queries.CreateSchema(ctx)
}

func (db *Database) Close() {
	if db.conn != nil {
		db.conn.Close()
	}
}
