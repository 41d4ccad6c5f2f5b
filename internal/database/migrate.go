package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is applied in order by Migrate.  Every statement is idempotent so
// Migrate can run on each start.  Dates and times are stored as the fixed
// width strings the API uses ("YYYY-MM-DD", "HH:MM"), which keeps ordering
// lexicographic and avoids time zone conversion of calendar dates.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS time_slots (
		id             CHAR(36)     NOT NULL,
		slot_date      CHAR(10)     NOT NULL,
		slot_time      CHAR(5)      NOT NULL,
		service_type   VARCHAR(128) NOT NULL,
		status         ENUM('available','booked','maintenance','blocked') NOT NULL DEFAULT 'available',
		booking_id     CHAR(36)     NULL,
		customer_name  VARCHAR(255) NULL,
		customer_email VARCHAR(255) NULL,
		customer_phone VARCHAR(64)  NULL,
		created_at     DATETIME(6)  NOT NULL,
		updated_at     DATETIME(6)  NOT NULL,
		PRIMARY KEY (id),
		UNIQUE KEY uq_time_slots_tuple (slot_date, slot_time, service_type),
		KEY idx_time_slots_booking (booking_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id            CHAR(36)     NOT NULL,
		name          VARCHAR(255) NOT NULL,
		email         VARCHAR(255) NOT NULL,
		phone         VARCHAR(64)  NOT NULL DEFAULT '',
		service       VARCHAR(128) NOT NULL,
		booking_date  CHAR(10)     NOT NULL,
		booking_time  CHAR(5)      NOT NULL,
		participants  INT          NOT NULL DEFAULT 1,
		message       TEXT         NOT NULL,
		selected_game VARCHAR(255) NOT NULL DEFAULT '',
		status        VARCHAR(32)  NOT NULL,
		created_at    DATETIME(6)  NOT NULL,
		PRIMARY KEY (id),
		KEY idx_bookings_date (booking_date),
		KEY idx_bookings_created (created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS contact_messages (
		id         CHAR(36)     NOT NULL,
		name       VARCHAR(255) NOT NULL,
		email      VARCHAR(255) NOT NULL,
		subject    VARCHAR(255) NOT NULL,
		message    TEXT         NOT NULL,
		created_at DATETIME(6)  NOT NULL,
		PRIMARY KEY (id),
		KEY idx_contact_created (created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS payment_transactions (
		session_id     VARCHAR(255) NOT NULL,
		booking_id     CHAR(36)     NOT NULL,
		amount_cents   BIGINT       NOT NULL,
		currency       CHAR(3)      NOT NULL,
		status         VARCHAR(32)  NOT NULL,
		payment_status VARCHAR(32)  NOT NULL DEFAULT '',
		created_at     DATETIME(6)  NOT NULL,
		updated_at     DATETIME(6)  NOT NULL,
		PRIMARY KEY (session_id),
		KEY idx_payment_booking (booking_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates the tables the repositories expect.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
