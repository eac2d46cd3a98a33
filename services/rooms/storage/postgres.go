package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/xilidan/jazz/pkg/gen"
	"github.com/xilidan/jazz/pkg/logger"
	"github.com/xilidan/jazz/services/rooms/entity"
)

// PostgresStore keeps the room mapping in Postgres. The lib/pq driver is
// registered by the composition root.
type PostgresStore struct {
	db    *sql.DB
	uuids gen.UUIDGenerator
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{
		db:    db,
		uuids: gen.UUID(),
	}
}

// EnsureSchema creates the rooms table when it does not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	const query = `
		CREATE TABLE IF NOT EXISTS jazz_rooms (
			id         UUID PRIMARY KEY,
			label      TEXT NOT NULL UNIQUE,
			room_id    TEXT NOT NULL,
			room_url   TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create jazz_rooms table: %w", err)
	}
	return nil
}

func (s *PostgresStore) SaveRooms(ctx context.Context, records []entity.RoomRecord) error {
	log := logger.FromContext(ctx)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	const query = `
		INSERT INTO jazz_rooms (id, label, room_id, room_url)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (label) DO NOTHING`

	for _, r := range records {
		if _, err := tx.ExecContext(ctx, query, s.uuids.Next(), r.Label, r.RoomID, r.RoomURL); err != nil {
			return fmt.Errorf("failed to save room %q: %w", r.Label, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rooms: %w", err)
	}

	log.Debug("saved room mapping", "count", len(records))
	return nil
}

func (s *PostgresStore) ListRooms(ctx context.Context) ([]entity.RoomRecord, error) {
	const query = `
		SELECT label, room_id, room_url
		FROM jazz_rooms
		ORDER BY created_at, label`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	defer rows.Close()

	var records []entity.RoomRecord
	for rows.Next() {
		var r entity.RoomRecord
		if err := rows.Scan(&r.Label, &r.RoomID, &r.RoomURL); err != nil {
			return nil, fmt.Errorf("failed to scan room row: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rooms: %w", err)
	}
	return records, nil
}
