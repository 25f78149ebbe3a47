package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ayusman/poivr/internal/trick"
)

// TrickRecord is a trick event stored against a session.
type TrickRecord struct {
	ID         int64         `json:"id"`
	SessionID  string        `json:"session_id"`
	Kind       trick.Kind    `json:"kind"`
	Variant    trick.Variant `json:"variant,omitempty"`
	Limb       trick.Limb    `json:"limb"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// Event returns the trick event of the record.
func (t *TrickRecord) Event() trick.Event {
	return trick.Event{Kind: t.Kind, Variant: t.Variant, Limb: t.Limb}
}

// TrickRepository provides operations on recorded tricks.
type TrickRepository struct {
	db *sql.DB
}

// Tricks returns the trick repository for this store.
func (s *Store) Tricks() *TrickRepository {
	return &TrickRepository{db: s.db}
}

// Record stores e as having occurred at the given time in a session.
func (r *TrickRepository) Record(sessionID string, e trick.Event, at time.Time) (*TrickRecord, error) {
	result, err := r.db.Exec(
		`INSERT INTO trick_events (session_id, kind, variant, limb, occurred_at)
		 VALUES (?, ?, ?, ?, ?)`,
		sessionID, e.Kind.String(), string(e.Variant), string(e.Limb), at,
	)
	if err != nil {
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return &TrickRecord{
		ID:         id,
		SessionID:  sessionID,
		Kind:       e.Kind,
		Variant:    e.Variant,
		Limb:       e.Limb,
		OccurredAt: at,
	}, nil
}

// ListBySession retrieves every trick of a session in the order they occurred.
func (r *TrickRepository) ListBySession(sessionID string) ([]TrickRecord, error) {
	rows, err := r.db.Query(
		`SELECT id, session_id, kind, variant, limb, occurred_at
		 FROM trick_events
		 WHERE session_id = ?
		 ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []TrickRecord
	for rows.Next() {
		var t TrickRecord
		var kind, variant, limb string
		if err := rows.Scan(&t.ID, &t.SessionID, &kind, &variant, &limb, &t.OccurredAt); err != nil {
			return nil, err
		}

		t.Kind, err = trick.ParseKind(kind)
		if err != nil {
			return nil, fmt.Errorf("trick %d: %w", t.ID, err)
		}
		t.Variant = trick.Variant(variant)
		t.Limb = trick.Limb(limb)
		records = append(records, t)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

// CountBySession returns how many tricks of each kind a session holds.
// Kinds that never occurred are absent.
func (r *TrickRepository) CountBySession(sessionID string) (map[trick.Kind]int, error) {
	rows, err := r.db.Query(
		`SELECT kind, COUNT(*) FROM trick_events WHERE session_id = ? GROUP BY kind`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[trick.Kind]int)
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, err
		}

		kind, err := trick.ParseKind(name)
		if err != nil {
			return nil, err
		}
		counts[kind] = n
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return counts, nil
}
