package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	apperrors "chatpush/internal/errors"
	"chatpush/internal/migrations"
	"chatpush/internal/models"
	"chatpush/internal/security"

	_ "github.com/mattn/go-sqlite3"
)

// Database is the SQLite messages store
type Database struct {
	db *sql.DB
}

var _ Store = (*Database)(nil)

func New(dbPath string) (*Database, error) {
	if len(dbPath) == 0 || dbPath[0] == '\x00' {
		return nil, fmt.Errorf("invalid database path")
	}

	// Validate database path to prevent directory traversal
	if err := security.ValidateFilePath(dbPath); err != nil {
		return nil, fmt.Errorf("invalid database path: %w", err)
	}

	file, err := os.OpenFile(dbPath, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to create database file: %w", err)
	}
	if err := file.Close(); err != nil {
		return nil, fmt.Errorf("failed to close database file: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to ping database: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := migrations.Apply(context.Background(), db, migrations.DriverSQLite); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to initialize schema: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Database{db: db}, nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

// Ping checks the database connection
func (d *Database) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// SaveMessage inserts a chat message. A zero CreatedAt is stored as now.
func (d *Database) SaveMessage(ctx context.Context, msg *models.ChatMessage) error {
	createdAt := msg.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	err := retryableDBOperationNoReturn(ctx, func() error {
		_, err := d.db.ExecContext(ctx, InsertMessageQuery,
			msg.ID, msg.Location, msg.UserID, msg.Content, createdAt.UnixMilli())
		return err
	}, "save message")
	if err != nil {
		return apperrors.NewDatabaseError("insert", err)
	}
	return nil
}

// GetMessage returns the message with id
func (d *Database) GetMessage(ctx context.Context, id string) (*models.ChatMessage, error) {
	var msg models.ChatMessage
	var createdAtMs int64

	err := d.db.QueryRowContext(ctx, SelectMessageByIDQuery, id).Scan(
		&msg.ID, &msg.Location, &msg.UserID, &msg.Content, &createdAtMs,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("message", id)
	}
	if err != nil {
		return nil, apperrors.NewDatabaseError("select", err)
	}

	msg.CreatedAt = time.UnixMilli(createdAtMs)
	return &msg, nil
}

// CountMessages returns the number of stored messages
func (d *Database) CountMessages(ctx context.Context) (int64, error) {
	var count int64
	if err := d.db.QueryRowContext(ctx, CountMessagesQuery).Scan(&count); err != nil {
		return 0, apperrors.NewDatabaseError("count", err)
	}
	return count, nil
}

// DeleteRecentMessages deletes the messages matching filter and returns how many were removed
func (d *Database) DeleteRecentMessages(ctx context.Context, filter models.PurgeFilter) (int64, error) {
	if len(filter.UserIDs) == 0 {
		return 0, nil
	}

	query := fmt.Sprintf(DeleteRecentMessagesQuery, placeholders(len(filter.UserIDs)))
	args := make([]interface{}, 0, len(filter.UserIDs)+2)
	args = append(args, filter.Location)
	for _, id := range filter.UserIDs {
		args = append(args, id)
	}
	args = append(args, filter.Since.UnixMilli())

	deleted, err := retryableDBOperation(ctx, func() (int64, error) {
		res, err := d.db.ExecContext(ctx, query, args...)
		if err != nil {
			return 0, err
		}
		return res.RowsAffected()
	}, "delete recent messages")
	if err != nil {
		return 0, apperrors.NewDatabaseError("delete", err)
	}
	return deleted, nil
}

// DeleteMessagesByID deletes the listed messages and returns the ids that existed
func (d *Database) DeleteMessagesByID(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return []string{}, nil
	}

	query := fmt.Sprintf(DeleteMessagesByIDQuery, placeholders(len(ids)))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	deleted, err := retryableDBOperation(ctx, func() ([]string, error) {
		rows, err := d.db.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		out := make([]string, 0, len(ids))
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				return nil, err
			}
			out = append(out, id)
		}
		return out, rows.Err()
	}, "delete messages by id")
	if err != nil {
		return nil, apperrors.NewDatabaseError("delete", err)
	}
	return deleted, nil
}
