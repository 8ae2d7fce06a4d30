package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"chainfeed/internal/model"
)

// Store provides Postgres persistence for feed events.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the event tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS account_updates (
			pubkey text NOT NULL,
			slot bigint NOT NULL,
			owner text NOT NULL,
			lamports bigint NOT NULL,
			executable boolean NOT NULL,
			rent_epoch bigint NOT NULL,
			data bytea NOT NULL,
			received_at timestamptz NOT NULL,
			PRIMARY KEY (pubkey, slot)
		);
		CREATE TABLE IF NOT EXISTS slot_updates (
			slot bigint PRIMARY KEY,
			parent bigint,
			status text NOT NULL,
			received_at timestamptz NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// PutEventBatch upserts a batch of event records into their tables.
func (s *Store) PutEventBatch(ctx context.Context, events []model.EventRecord) error {
	if len(events) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, event := range events {
		switch event.Kind {
		case model.RecordKindAccount:
			batch.Queue(`
				INSERT INTO account_updates (
					pubkey, slot, owner, lamports, executable, rent_epoch, data, received_at
				) VALUES ($1, $2, $3, $4, $5, $6, decode($7, 'base64'), $8)
				ON CONFLICT (pubkey, slot)
				DO UPDATE SET
					owner = EXCLUDED.owner,
					lamports = EXCLUDED.lamports,
					executable = EXCLUDED.executable,
					rent_epoch = EXCLUDED.rent_epoch,
					data = EXCLUDED.data,
					received_at = EXCLUDED.received_at
			`,
				event.Pubkey,
				int64(event.Slot),
				event.Owner,
				int64(event.Lamports),
				event.Executable,
				int64(event.RentEpoch),
				event.Data,
				event.ReceivedAt,
			)
		case model.RecordKindSlot:
			var parent *int64
			if event.Parent != nil {
				p := int64(*event.Parent)
				parent = &p
			}
			batch.Queue(`
				INSERT INTO slot_updates (slot, parent, status, received_at)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (slot)
				DO UPDATE SET
					parent = COALESCE(EXCLUDED.parent, slot_updates.parent),
					status = EXCLUDED.status,
					received_at = EXCLUDED.received_at
			`,
				int64(event.Slot),
				parent,
				event.Status,
				event.ReceivedAt,
			)
		}
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}
