package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// record is the on-disk representation of one remembered entry.
type record struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

const keyPrefix = "mem:"

// BadgerStore is the default Store implementation, backed by an embedded
// badger key-value database. Search performs a token-overlap ranking over
// scanned records rather than a real full-text index; this is a
// best-effort default sufficient to make the binary runnable and testable.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadgerStore opens (creating if absent) a badger database at path.
func OpenBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("memory: open badger: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// Close releases the underlying database.
func (b *BadgerStore) Close() error {
	return b.db.Close()
}

// Remember writes a new record and returns its generated ID and timestamp.
func (b *BadgerStore) Remember(ctx context.Context, content string, tags []string) (string, time.Time, error) {
	rec := record{
		ID:        uuid.NewString(),
		Content:   content,
		Tags:      tags,
		CreatedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("memory: marshal record: %w", err)
	}
	err = b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyPrefix+rec.ID), data)
	})
	if err != nil {
		return "", time.Time{}, fmt.Errorf("memory: write record: %w", err)
	}
	return rec.ID, rec.CreatedAt, nil
}

// Search scans stored records and ranks them by token overlap with query.
func (b *BadgerStore) Search(ctx context.Context, query string, limit int) ([]Match, error) {
	if limit <= 0 || limit > 20 {
		limit = 20
	}
	queryTokens := tokenize(query)
	if len(queryTokens) == 0 {
		return nil, nil
	}

	var matches []Match
	err := b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte(keyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			err := item.Value(func(val []byte) error {
				var rec record
				if err := json.Unmarshal(val, &rec); err != nil {
					return nil // skip malformed records rather than failing the whole search
				}
				score := overlapScore(queryTokens, tokenize(rec.Content))
				if score <= 0 {
					return nil
				}
				matches = append(matches, Match{
					ID:        rec.ID,
					Score:     score,
					Snippet:   snippet(rec.Content, 160),
					CreatedAt: rec.CreatedAt,
				})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("memory: search: %w", err)
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func tokenize(s string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(s))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

func overlapScore(query, doc map[string]struct{}) float64 {
	if len(query) == 0 {
		return 0
	}
	var hits int
	for tok := range query {
		if _, ok := doc[tok]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(query))
}

func snippet(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
