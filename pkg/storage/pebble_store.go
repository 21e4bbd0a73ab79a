package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/pebble"

	"github.com/tuannm-coder/MatchingEngine/pkg/engine"
)

// TradeStore journals executed trades in Pebble, keyed by the engine's
// trade sequence so replayed trades overwrite rather than duplicate.
type TradeStore struct {
	db *pebble.DB
}

func NewTradeStore(path string) (*TradeStore, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, err
	}
	return &TradeStore{db: db}, nil
}

func (s *TradeStore) Close() error { return s.db.Close() }

// keys: t:<8-byte big-endian seq>
func kTrade(seq uint64) []byte {
	k := make([]byte, 2+8)
	copy(k, "t:")
	binary.BigEndian.PutUint64(k[2:], seq)
	return k
}

func (s *TradeStore) SaveTrade(t *engine.TradeRecord) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal trade: %w", err)
	}
	if err := s.db.Set(kTrade(t.Seq), data, pebble.Sync); err != nil {
		return fmt.Errorf("save trade %d: %w", t.Seq, err)
	}
	return nil
}

// RecentTrades returns up to limit trades, newest first.
func (s *TradeStore) RecentTrades(limit int) ([]engine.TradeRecord, error) {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: kTrade(0),
		UpperBound: []byte("t;"), // ';' is the byte after ':', spans every trade key
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	out := make([]engine.TradeRecord, 0, limit)
	for ok := iter.Last(); ok && len(out) < limit; ok = iter.Prev() {
		var t engine.TradeRecord
		if err := json.Unmarshal(iter.Value(), &t); err != nil {
			return nil, fmt.Errorf("decode trade: %w", err)
		}
		out = append(out, t)
	}
	return out, iter.Error()
}

// LastSeq returns the highest stored trade sequence, or 0 if none.
func (s *TradeStore) LastSeq() (uint64, error) {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: kTrade(0),
		UpperBound: []byte("t;"),
	})
	if err != nil {
		return 0, err
	}
	defer iter.Close()

	if !iter.Last() {
		return 0, iter.Error()
	}
	key := iter.Key()
	if len(key) != 10 {
		return 0, fmt.Errorf("malformed trade key %q", key)
	}
	return binary.BigEndian.Uint64(key[2:]), nil
}
