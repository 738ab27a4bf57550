package models

import (
	"time"
)

// ChatMessage is a row of the chat messages table. Only the fields used
// by the admin deletions are modelled.
type ChatMessage struct {
	ID        string    `db:"id" json:"id"`
	Location  string    `db:"location" json:"location"`
	UserID    string    `db:"user_id" json:"user_id"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// PurgeFilter selects the messages removed by the scoped purge
type PurgeFilter struct {
	Location string
	UserIDs  []string
	Since    time.Time
}

// PurgeResult is the response body of the scoped purge endpoint
type PurgeResult struct {
	Version      int  `json:"version"`
	Success      bool `json:"success"`
	SinceMinutes int  `json:"sinceMinutes"`
}

// DeleteResult is the response body of the id-list delete endpoint
type DeleteResult struct {
	Deleted int      `json:"deleted"`
	IDs     []string `json:"ids"`
}
