// Package audit records posted and reversed journal entries in a local
// key-value store. The trail is advisory: it is written after the ledger
// transaction commits and is never part of the atomic unit.
package audit

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/pigeonworks-llc/go-ledger/pkg/ledger"
)

// Event kinds.
const (
	KindPosted   = "posted"
	KindReversed = "reversed"
)

const bucketEvents = "events"

// Event is one audit trail record.
type Event struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	EntryID     int64     `json:"entry_id"`
	EntryNumber string    `json:"entry_number"`
	Date        string    `json:"date"`
	Description string    `json:"description,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	LineCount   int       `json:"line_count,omitempty"`
	TotalDebit  float64   `json:"total_debit,omitempty"`
	TotalCredit float64   `json:"total_credit,omitempty"`
	RecordedAt  time.Time `json:"recorded_at"`
}

// Trail is a bbolt-backed audit trail.
type Trail struct {
	db *bolt.DB
}

// Open opens (or creates) the audit trail at the given path.
func Open(path string) (*Trail, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit trail: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketEvents))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create audit bucket: %w", err)
	}

	return &Trail{db: db}, nil
}

// Close closes the trail.
func (t *Trail) Close() error {
	return t.db.Close()
}

// RecordPosted appends a posted-entry event.
func (t *Trail) RecordPosted(s ledger.PostedSummary) error {
	return t.append(Event{
		ID:          uuid.NewString(),
		Kind:        KindPosted,
		EntryID:     s.EntryID,
		EntryNumber: s.EntryNumber,
		Date:        s.Date,
		Description: s.Description,
		LineCount:   s.LineCount,
		TotalDebit:  s.TotalDebit,
		TotalCredit: s.TotalCredit,
		RecordedAt:  time.Now(),
	})
}

// RecordReversed appends a reversed-entry event.
func (t *Trail) RecordReversed(s ledger.ReversedSummary) error {
	return t.append(Event{
		ID:          uuid.NewString(),
		Kind:        KindReversed,
		EntryID:     s.EntryID,
		EntryNumber: s.EntryNumber,
		Date:        s.Date,
		Reason:      s.Reason,
		RecordedAt:  time.Now(),
	})
}

// List returns all events in recording order.
func (t *Trail) List() ([]Event, error) {
	var events []Event

	err := t.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketEvents))
		if b == nil {
			return fmt.Errorf("bucket %s not found", bucketEvents)
		}

		return b.ForEach(func(k, v []byte) error {
			var event Event
			if err := json.Unmarshal(v, &event); err != nil {
				return fmt.Errorf("failed to unmarshal event: %w", err)
			}
			events = append(events, event)
			return nil
		})
	})

	return events, err
}

// Hooks returns poster callbacks that write to the trail. Failures are
// logged and swallowed; an audit miss never fails a posting.
func (t *Trail) Hooks() (func(ledger.PostedSummary), func(ledger.ReversedSummary)) {
	onPosted := func(s ledger.PostedSummary) {
		if err := t.RecordPosted(s); err != nil {
			slog.Error("failed to record posted entry", "entry_number", s.EntryNumber, "error", err)
		}
	}
	onReversed := func(s ledger.ReversedSummary) {
		if err := t.RecordReversed(s); err != nil {
			slog.Error("failed to record reversed entry", "entry_number", s.EntryNumber, "error", err)
		}
	}
	return onPosted, onReversed
}

// append stores an event under the next sequence key.
func (t *Trail) append(event Event) error {
	return t.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketEvents))
		if b == nil {
			return fmt.Errorf("bucket %s not found", bucketEvents)
		}

		seq, err := b.NextSequence()
		if err != nil {
			return err
		}

		data, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("failed to marshal event: %w", err)
		}

		return b.Put(itob(int64(seq)), data)
	})
}

// itob converts an int64 to a byte slice for use as a bbolt key.
func itob(v int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(v))
	return b
}
