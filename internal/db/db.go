package db

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

// Connect opens the postgres pool and applies the schema.
func Connect(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return db, nil
}

// Migrate runs every schema statement in order. Statements are idempotent.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for i, m := range migrations {
		if _, err := db.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	log.Info().Int("statements", len(migrations)).Msg("database migrations applied")
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
        id SERIAL PRIMARY KEY,
        username TEXT NOT NULL,
        email TEXT NOT NULL UNIQUE,
        avatar TEXT NOT NULL DEFAULT '',
        last_seen TIMESTAMPTZ
    );`,
	`CREATE TABLE IF NOT EXISTS chats (
        id SERIAL PRIMARY KEY,
        name TEXT NOT NULL DEFAULT '',
        avatar TEXT NOT NULL DEFAULT '',
        is_group BOOLEAN NOT NULL DEFAULT FALSE,
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    );`,
	`CREATE TABLE IF NOT EXISTS chat_members (
        chat_id INT NOT NULL REFERENCES chats(id) ON DELETE CASCADE,
        user_id INT NOT NULL REFERENCES users(id),
        joined_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        PRIMARY KEY (chat_id, user_id)
    );`,
	`CREATE INDEX IF NOT EXISTS chat_members_user_idx ON chat_members (user_id);`,
	`CREATE TABLE IF NOT EXISTS direct_chats (
        user_low INT NOT NULL,
        user_high INT NOT NULL,
        chat_id INT REFERENCES chats(id) ON DELETE CASCADE,
        PRIMARY KEY (user_low, user_high),
        CHECK (user_low < user_high)
    );`,
	`CREATE TABLE IF NOT EXISTS messages (
        id SERIAL PRIMARY KEY,
        chat_id INT NOT NULL REFERENCES chats(id) ON DELETE CASCADE,
        sender_id INT NOT NULL REFERENCES users(id),
        text TEXT NOT NULL,
        is_edited BOOLEAN NOT NULL DEFAULT FALSE,
        edited_at TIMESTAMPTZ,
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    );`,
	`CREATE INDEX IF NOT EXISTS messages_chat_created_idx ON messages (chat_id, created_at, id);`,
	`CREATE TABLE IF NOT EXISTS removed_messages (
        message_id INT NOT NULL UNIQUE REFERENCES messages(id) ON DELETE CASCADE,
        removed_by INT NOT NULL,
        removed_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    );`,
	`CREATE TABLE IF NOT EXISTS message_reactions (
        id SERIAL PRIMARY KEY,
        message_id INT NOT NULL REFERENCES messages(id) ON DELETE CASCADE,
        user_id INT NOT NULL REFERENCES users(id),
        reaction TEXT,
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        UNIQUE (message_id, user_id, reaction)
    );`,
	`CREATE TABLE IF NOT EXISTS media_attachments (
        message_id INT PRIMARY KEY REFERENCES messages(id) ON DELETE CASCADE,
        media_type TEXT NOT NULL CHECK (media_type IN ('image', 'video', 'audio')),
        url TEXT NOT NULL,
        duration INT,
        thumbnail_url TEXT,
        updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    );`,
	`CREATE TABLE IF NOT EXISTS calls (
        id UUID PRIMARY KEY,
        caller_id INT NOT NULL REFERENCES users(id),
        receiver_id INT NOT NULL REFERENCES users(id),
        call_type TEXT NOT NULL CHECK (call_type IN ('audio', 'video')),
        status TEXT NOT NULL DEFAULT 'initiated',
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        ended_at TIMESTAMPTZ
    );`,
	`CREATE TABLE IF NOT EXISTS stories (
        id SERIAL PRIMARY KEY,
        user_id INT NOT NULL REFERENCES users(id),
        media_url TEXT NOT NULL DEFAULT '',
        media_type TEXT NOT NULL DEFAULT 'image' CHECK (media_type IN ('image', 'video', 'text')),
        caption TEXT NOT NULL DEFAULT '',
        background_color TEXT NOT NULL DEFAULT '',
        font_style TEXT NOT NULL DEFAULT '',
        duration INT NOT NULL DEFAULT 5,
        views_count INT NOT NULL DEFAULT 0,
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        expires_at TIMESTAMPTZ NOT NULL
    );`,
	`CREATE INDEX IF NOT EXISTS stories_user_expires_idx ON stories (user_id, expires_at);`,
	`CREATE TABLE IF NOT EXISTS story_mentions (
        story_id INT NOT NULL REFERENCES stories(id) ON DELETE CASCADE,
        user_id INT NOT NULL REFERENCES users(id),
        PRIMARY KEY (story_id, user_id)
    );`,
	`CREATE TABLE IF NOT EXISTS story_views (
        story_id INT NOT NULL REFERENCES stories(id) ON DELETE CASCADE,
        viewer_id INT NOT NULL REFERENCES users(id),
        viewed_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        PRIMARY KEY (story_id, viewer_id)
    );`,
	`CREATE TABLE IF NOT EXISTS story_reactions (
        story_id INT NOT NULL REFERENCES stories(id) ON DELETE CASCADE,
        user_id INT NOT NULL REFERENCES users(id),
        emoji TEXT NOT NULL,
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        PRIMARY KEY (story_id, user_id)
    );`,
}
