package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "chatpush/internal/errors"
	"chatpush/internal/migrations"
	"chatpush/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

// PostgresStore is the messages store for a hosted Postgres database
type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ Store = (*PostgresStore)(nil)

// NewPostgres connects to dsn and applies pending migrations
func NewPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database connection string: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := stdlib.OpenDBFromPool(pool)
	_, err = migrations.Apply(ctx, db, migrations.DriverPostgres)
	// closing the adapter leaves the pool open
	_ = db.Close()
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (p *PostgresStore) Close() error {
	p.pool.Close()
	return nil
}

func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *PostgresStore) SaveMessage(ctx context.Context, msg *models.ChatMessage) error {
	createdAt := msg.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	err := retryableDBOperationNoReturn(ctx, func() error {
		_, err := p.pool.Exec(ctx, PgInsertMessageQuery, msg.ID, msg.Location, msg.UserID, msg.Content, createdAt)
		return err
	}, "save message")
	if err != nil {
		return apperrors.NewDatabaseError("insert", err)
	}
	return nil
}

func (p *PostgresStore) GetMessage(ctx context.Context, id string) (*models.ChatMessage, error) {
	var msg models.ChatMessage
	err := p.pool.QueryRow(ctx, PgSelectMessageByIDQuery, id).Scan(
		&msg.ID, &msg.Location, &msg.UserID, &msg.Content, &msg.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("message", id)
	}
	if err != nil {
		return nil, apperrors.NewDatabaseError("select", err)
	}
	return &msg, nil
}

func (p *PostgresStore) CountMessages(ctx context.Context) (int64, error) {
	var count int64
	if err := p.pool.QueryRow(ctx, PgCountMessagesQuery).Scan(&count); err != nil {
		return 0, apperrors.NewDatabaseError("count", err)
	}
	return count, nil
}

func (p *PostgresStore) DeleteRecentMessages(ctx context.Context, filter models.PurgeFilter) (int64, error) {
	if len(filter.UserIDs) == 0 {
		return 0, nil
	}

	deleted, err := retryableDBOperation(ctx, func() (int64, error) {
		tag, err := p.pool.Exec(ctx, PgDeleteRecentMessagesQuery, filter.Location, filter.UserIDs, filter.Since)
		if err != nil {
			return 0, err
		}
		return tag.RowsAffected(), nil
	}, "delete recent messages")
	if err != nil {
		return 0, apperrors.NewDatabaseError("delete", err)
	}
	return deleted, nil
}

func (p *PostgresStore) DeleteMessagesByID(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return []string{}, nil
	}

	deleted, err := retryableDBOperation(ctx, func() ([]string, error) {
		rows, err := p.pool.Query(ctx, PgDeleteMessagesByIDQuery, ids)
		if err != nil {
			return nil, err
		}
		return pgx.CollectRows(rows, pgx.RowTo[string])
	}, "delete messages by id")
	if err != nil {
		return nil, apperrors.NewDatabaseError("delete", err)
	}
	return deleted, nil
}
