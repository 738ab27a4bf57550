package database

import "strings"

// Message queries (sqlite3 dialect)
const (
	InsertMessageQuery = `
		INSERT INTO messages (id, location, user_id, content, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	SelectMessageByIDQuery = `
		SELECT id, location, user_id, content, created_at
		FROM messages
		WHERE id = ?
	`

	CountMessagesQuery = `SELECT COUNT(*) FROM messages`

	// %s is replaced by the user id placeholders
	DeleteRecentMessagesQuery = `
		DELETE FROM messages
		WHERE location = ?
		  AND user_id IN (%s)
		  AND created_at >= ?
	`

	// %s is replaced by the id placeholders
	DeleteMessagesByIDQuery = `
		DELETE FROM messages
		WHERE id IN (%s)
		RETURNING id
	`
)

// Message queries (postgres dialect)
const (
	PgInsertMessageQuery = `
		INSERT INTO messages (id, location, user_id, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	PgSelectMessageByIDQuery = `
		SELECT id, location, user_id, content, created_at
		FROM messages
		WHERE id = $1
	`

	PgCountMessagesQuery = `SELECT COUNT(*) FROM messages`

	PgDeleteRecentMessagesQuery = `
		DELETE FROM messages
		WHERE location = $1
		  AND user_id = ANY($2::text[])
		  AND created_at >= $3
	`

	PgDeleteMessagesByIDQuery = `
		DELETE FROM messages
		WHERE id = ANY($1::text[])
		RETURNING id
	`
)

// placeholders returns "?, ?, ..." for n bound parameters
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
