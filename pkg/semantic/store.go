// Package semantic implements the Semantic Store: a
// metadata table (sqlite, same storage pattern as pkg/episodic) paired with
// an injected ann.Index holding the actual vectors, and an injected
// embedding.Embedder turning text into vectors. Grounded on
// pkg/episodic/client.go's "embed migrations, wrap a thin handle around the
// pool" shape, generalized to also own an in-memory vector index.
package semantic

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/bentman/JARVISv5/pkg/ann"
	"github.com/bentman/JARVISv5/pkg/embedding"
	"github.com/bentman/JARVISv5/pkg/jarvismodel"
)

// Store is the Semantic Store's handle: sqlite-backed metadata plus an
// injected vector index and embedder.
type Store struct {
	db       *sql.DB
	index    ann.Index
	embedder embedding.Embedder
	mu       sync.RWMutex
}

// Hit is one scored semantic search result.
type Hit struct {
	Entry      jarvismodel.SemanticEntry
	Similarity float64
}

// Open opens (creating if necessary) the semantic store's metadata database
// at path, applies pending migrations, and rebuilds index from metadata if
// index arrives empty while rows already exist, recovering from a missing
// or corrupt index by re-embedding the stored texts (vectors themselves are
// not stored in the metadata table).
func Open(ctx context.Context, path string, index ann.Index, embedder embedding.Embedder) (*Store, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=synchronous(FULL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening semantic store: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging semantic store: %w", err)
	}
	if err := applyMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{db: db, index: index, embedder: embedder}
	if index.Len() == 0 {
		if err := s.rebuildIndex(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// rebuildIndex re-embeds every stored text and re-adds it to the vector
// index, for recovery when the index arrives missing or corrupt while the
// metadata table is intact.
func (s *Store) rebuildIndex(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `SELECT vector_id, text FROM semantic_entries`)
	if err != nil {
		return fmt.Errorf("listing semantic entries for rebuild: %w", err)
	}
	defer rows.Close()

	type pending struct {
		id   int64
		text string
	}
	var all []pending
	for rows.Next() {
		var p pending
		if err := rows.Scan(&p.id, &p.text); err != nil {
			return fmt.Errorf("scanning semantic entry for rebuild: %w", err)
		}
		all = append(all, p)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, p := range all {
		vec, err := s.embedder.Embed(ctx, p.text)
		if err != nil {
			return fmt.Errorf("re-embedding entry %d during rebuild: %w", p.id, err)
		}
		if err := s.index.Add(ctx, p.id, vec); err != nil {
			return fmt.Errorf("re-adding entry %d during rebuild: %w", p.id, err)
		}
	}
	return nil
}

// Add embeds text, stores it with metadata, and indexes the resulting
// vector. If indexing fails after the metadata row is committed, the row
// still persists durably and is re-indexed the next time Open finds the
// index empty (the index is a derived, rebuildable structure; the metadata
// table is the source of truth).
func (s *Store) Add(ctx context.Context, text string, metadata map[string]any) (int64, error) {
	if metadata == nil {
		metadata = map[string]any{}
	}
	if _, ok := metadata["timestamp"]; !ok {
		metadata["timestamp"] = time.Now().UTC().Format(time.RFC3339)
	}
	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return 0, fmt.Errorf("marshaling semantic entry metadata: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO semantic_entries (text, metadata, timestamp) VALUES (?, ?, ?)`,
		text, string(metaJSON), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("inserting semantic entry: %w", err)
	}
	vectorID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading semantic entry id: %w", err)
	}

	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return vectorID, fmt.Errorf("embedding semantic entry %d: %w", vectorID, err)
	}
	if err := s.index.Add(ctx, vectorID, vec); err != nil {
		return vectorID, fmt.Errorf("indexing semantic entry %d: %w", vectorID, err)
	}
	return vectorID, nil
}

// SearchText embeds queryText and returns the k nearest stored entries,
// ordered by descending similarity then ascending vector id. An empty store
// returns an empty slice, not an error. Searches share a read lock, so they
// run alongside each other but never against a half-finished Add.
func (s *Store) SearchText(ctx context.Context, queryText string, k int) ([]Hit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.index.Len() == 0 || k <= 0 {
		return nil, nil
	}

	queryVec, err := s.embedder.Embed(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("embedding search query: %w", err)
	}

	matches, err := s.index.Search(ctx, queryVec, k)
	if err != nil {
		return nil, fmt.Errorf("searching vector index: %w", err)
	}

	hits := make([]Hit, 0, len(matches))
	for _, m := range matches {
		entry, err := s.loadEntry(ctx, m.VectorID)
		if err != nil {
			return nil, err
		}
		if entry == nil {
			continue // metadata deleted out from under a stale index entry
		}
		hits = append(hits, Hit{
			Entry:      *entry,
			Similarity: 1.0 / (1.0 + m.Distance),
		})
	}
	return hits, nil
}

func (s *Store) loadEntry(ctx context.Context, vectorID int64) (*jarvismodel.SemanticEntry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT vector_id, text, metadata FROM semantic_entries WHERE vector_id = ?`, vectorID)

	var entry jarvismodel.SemanticEntry
	var metaJSON string
	if err := row.Scan(&entry.VectorID, &entry.Text, &metaJSON); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("loading semantic entry %d: %w", vectorID, err)
	}
	if err := json.Unmarshal([]byte(metaJSON), &entry.Metadata); err != nil {
		return nil, fmt.Errorf("parsing semantic entry %d metadata: %w", vectorID, err)
	}
	return &entry, nil
}
