package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/rapidex/rescache/errors"
	"github.com/rapidex/rescache/pkg/retry"
	"github.com/rapidex/rescache/storage"
)

// persistedStateVersion guards the durable record format. A version
// mismatch discards the record instead of guessing.
const persistedStateVersion = 1

// persistedEntry is the durable form of one cache entry. Values are kept
// as raw JSON so a restored cache can decode them into its own value type.
type persistedEntry struct {
	Key         string          `json:"key"`
	Value       json.RawMessage `json:"value"`
	CreatedAt   time.Time       `json:"created_at"`
	TTL         time.Duration   `json:"ttl"`
	AccessCount int64           `json:"access_count"`
	Tags        []string        `json:"tags,omitempty"`
	Priority    Priority        `json:"priority"`
}

// persistedState is the single durable record written under the storage key.
type persistedState struct {
	Version int              `json:"version"`
	SavedAt time.Time        `json:"saved_at"`
	Entries []persistedEntry `json:"entries"`
}

// persister writes a priority-selected subset of entries to durable
// storage on a debounced schedule. Every failure degrades to a logged
// no-op: persistence is an optimization, never a correctness dependency.
type persister struct {
	store    storage.Store
	key      string
	debounce time.Duration
	retryCfg retry.Config
	logger   *slog.Logger

	// snapshot is supplied by the owning cache and captures the entries
	// eligible for persistence at flush time.
	snapshot func() []persistedEntry

	mu     sync.Mutex
	timer  *time.Timer
	closed bool
}

func newPersister(
	store storage.Store, key string, debounce time.Duration,
	retryCfg retry.Config, logger *slog.Logger, snapshot func() []persistedEntry,
) *persister {
	return &persister{
		store:    store,
		key:      key,
		debounce: debounce,
		retryCfg: retryCfg,
		logger:   logger,
		snapshot: snapshot,
	}
}

// schedule arms (or re-arms) the debounce timer. Bursts of mutations
// collapse into a single write.
func (p *persister) schedule() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	if p.timer != nil {
		p.timer.Stop()
	}
	p.timer = time.AfterFunc(p.debounce, p.flush)
}

// flush serializes the current snapshot and writes it through the store,
// retrying transient failures briefly.
func (p *persister) flush() {
	state := persistedState{
		Version: persistedStateVersion,
		SavedAt: time.Now(),
		Entries: p.snapshot(),
	}

	data, err := json.Marshal(state)
	if err != nil {
		p.logger.Warn("cache persistence skipped: state not serializable", "error", err)
		return
	}

	err = retry.Do(context.Background(), p.retryCfg, func() error {
		if err := p.store.SetItem(p.key, string(data)); err != nil {
			if errors.IsTransient(err) {
				return err
			}
			return retry.NonRetryable(err)
		}
		return nil
	})
	if err != nil {
		p.logger.Warn("cache persistence write failed",
			"storage_key", p.key,
			"entries", len(state.Entries),
			"error", err)
		return
	}

	p.logger.Debug("cache state persisted",
		"storage_key", p.key,
		"entries", len(state.Entries),
		"bytes", len(data))
}

// flushNow cancels any pending debounce and writes synchronously. Used on
// Close so high priority entries survive a clean shutdown.
func (p *persister) flushNow() {
	p.mu.Lock()
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.mu.Unlock()

	p.flush()
}

// restore reads the durable record and returns its entries. A missing,
// corrupt, or mismatched record yields nil; corrupt records are removed
// so they are not re-read forever.
func (p *persister) restore() []persistedEntry {
	raw, ok, err := p.store.GetItem(p.key)
	if err != nil {
		p.logger.Warn("cache restore skipped: storage read failed", "error", err)
		return nil
	}
	if !ok {
		return nil
	}

	var state persistedState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		p.logger.Warn("cache restore skipped: corrupt record", "error", err)
		if removeErr := p.store.RemoveItem(p.key); removeErr != nil {
			p.logger.Warn("failed to remove corrupt record", "error", removeErr)
		}
		return nil
	}
	if state.Version != persistedStateVersion {
		p.logger.Warn("cache restore skipped: unsupported record version",
			"version", state.Version)
		return nil
	}

	return state.Entries
}

// close stops the debounce timer. Further schedule calls become no-ops.
func (p *persister) close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}
