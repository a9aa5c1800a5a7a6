package database

import (
	"context"
	"database/sql"
	"fmt"
)

const mysqlSchema = `CREATE TABLE IF NOT EXISTS reservations (
    id          BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
    sender      VARCHAR(64)  NOT NULL,
    full_name   VARCHAR(255) NOT NULL,
    kind        ENUM('General','VIP') NOT NULL,
    party_size  INT UNSIGNED NOT NULL,
    confirmed   TINYINT(1)   NOT NULL DEFAULT 1,
    created_at  DATETIME     NOT NULL,
    referral    VARCHAR(64)  NOT NULL DEFAULT 'Organic',
    INDEX idx_reservations_sender (sender),
    CHECK (party_size >= 1)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

var sqliteSchema = []string{`CREATE TABLE IF NOT EXISTS reservations (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    sender      TEXT     NOT NULL,
    full_name   TEXT     NOT NULL,
    kind        TEXT     NOT NULL CHECK (kind IN ('General','VIP')),
    party_size  INTEGER  NOT NULL CHECK (party_size >= 1),
    confirmed   BOOLEAN  NOT NULL DEFAULT 1,
    created_at  DATETIME NOT NULL,
    referral    TEXT     NOT NULL DEFAULT 'Organic'
)`,
	`CREATE INDEX IF NOT EXISTS idx_reservations_sender ON reservations (sender)`,
}

// Migrate creates the reservations table for the given driver.  It is
// idempotent and safe to run on every start.
func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	stmts := sqliteSchema
	if driver == DriverMySQL {
		stmts = []string{mysqlSchema}
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate reservations: %w", err)
		}
	}
	return nil
}
