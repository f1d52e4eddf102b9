package database

import (
	"context"
	"fmt"
	"strings"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS vocab_databases (
		id {{pk}},
		user_id BIGINT NOT NULL,
		name TEXT NOT NULL,
		created_at {{ts}} NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_vocab_databases_user ON vocab_databases(user_id)`,
	`CREATE TABLE IF NOT EXISTS word_senses (
		id {{pk}},
		database_id BIGINT NOT NULL REFERENCES vocab_databases(id) ON DELETE CASCADE,
		word TEXT NOT NULL,
		part_of_speech TEXT NOT NULL DEFAULT '',
		first_position INTEGER NOT NULL,
		translation TEXT NOT NULL DEFAULT '',
		UNIQUE(database_id, first_position)
	)`,
	`CREATE TABLE IF NOT EXISTS known_words (
		user_id BIGINT NOT NULL,
		database_id BIGINT NOT NULL REFERENCES vocab_databases(id) ON DELETE CASCADE,
		word TEXT NOT NULL,
		part_of_speech TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (user_id, database_id, word, part_of_speech)
	)`,
	`CREATE TABLE IF NOT EXISTS cards (
		id {{pk}},
		user_id BIGINT NOT NULL,
		database_id BIGINT NOT NULL REFERENCES vocab_databases(id) ON DELETE CASCADE,
		word_sense_id BIGINT NOT NULL REFERENCES word_senses(id) ON DELETE CASCADE,
		state TEXT NOT NULL DEFAULT 'new',
		ease_factor INTEGER NOT NULL DEFAULT 2500,
		interval_days INTEGER NOT NULL DEFAULT 0,
		repetitions INTEGER NOT NULL DEFAULT 0,
		lapses INTEGER NOT NULL DEFAULT 0,
		due_at {{ts}} NOT NULL,
		last_reviewed_at {{ts}},
		counted_learned BOOLEAN NOT NULL DEFAULT FALSE,
		version INTEGER NOT NULL DEFAULT 0,
		created_at {{ts}} NOT NULL,
		updated_at {{ts}} NOT NULL,
		UNIQUE(user_id, word_sense_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_cards_owner ON cards(user_id, database_id)`,
	`CREATE TABLE IF NOT EXISTS batches (
		user_id BIGINT NOT NULL,
		database_id BIGINT NOT NULL REFERENCES vocab_databases(id) ON DELETE CASCADE,
		batch_number INTEGER NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT FALSE,
		is_completed BOOLEAN NOT NULL DEFAULT FALSE,
		words_learned_count INTEGER NOT NULL DEFAULT 0,
		total_words INTEGER NOT NULL DEFAULT 0,
		created_at {{ts}} NOT NULL,
		PRIMARY KEY (user_id, database_id, batch_number)
	)`,
	`CREATE TABLE IF NOT EXISTS batch_words (
		user_id BIGINT NOT NULL,
		database_id BIGINT NOT NULL,
		batch_number INTEGER NOT NULL,
		ordinal INTEGER NOT NULL,
		word_sense_id BIGINT NOT NULL,
		PRIMARY KEY (user_id, database_id, batch_number, ordinal),
		FOREIGN KEY (user_id, database_id, batch_number)
			REFERENCES batches(user_id, database_id, batch_number) ON DELETE CASCADE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_batch_words_sense ON batch_words(user_id, database_id, word_sense_id)`,
	`CREATE TABLE IF NOT EXISTS user_settings (
		user_id BIGINT PRIMARY KEY,
		notification_enabled BOOLEAN NOT NULL DEFAULT TRUE,
		notification_hour INTEGER NOT NULL DEFAULT 9,
		telegram_chat_id BIGINT NOT NULL DEFAULT 0,
		updated_at {{ts}} NOT NULL
	)`,
}

func schemaReplacer(driver string) *strings.Replacer {
	if driver == DriverPostgres {
		return strings.NewReplacer("{{pk}}", "BIGSERIAL PRIMARY KEY", "{{ts}}", "TIMESTAMPTZ")
	}
	return strings.NewReplacer("{{pk}}", "INTEGER PRIMARY KEY AUTOINCREMENT", "{{ts}}", "TIMESTAMP")
}

// initializeSchema creates necessary tables if they don't exist
func (s *Store) initializeSchema(ctx context.Context) error {
	r := schemaReplacer(s.db.DriverName())
	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, r.Replace(stmt)); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	return nil
}
