package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/naveenkrish13/Fyers-OAuth-Token-Retrival/internal/domain/oauth"
)

const recordTimeLayout = "20060102_150405"

// FileTokenRepo persists one pretty-printed JSON file per exchange under a
// flat directory. Files are write-once: a new record always gets a new key,
// and nothing is ever overwritten or deleted.
type FileTokenRepo struct {
	mu   sync.Mutex
	dir  string
	node *snowflake.Node
	now  func() time.Time
}

var _ TokenRepository = (*FileTokenRepo)(nil)

// NewFileTokenRepo creates the repository rooted at dir. The directory is
// created on first save.
func NewFileTokenRepo(dir string, node *snowflake.Node) *FileTokenRepo {
	return &FileTokenRepo{dir: dir, node: node, now: time.Now}
}

// Save assigns the record its timestamp-derived key and writes the raw
// provider response to disk. The snowflake suffix keeps two exchanges in the
// same second from colliding while filenames stay timestamp-ordered.
func (r *FileTokenRepo) Save(_ context.Context, record *oauth.TokenRecord) error {
	if record == nil {
		return fmt.Errorf("token repo: nil record")
	}
	if record.RetrievedAt.IsZero() {
		record.RetrievedAt = r.now()
	}
	if record.ID == "" {
		record.ID = fmt.Sprintf("token_%s_%d", record.RetrievedAt.Format(recordTimeLayout), r.node.Generate())
	}

	payload := record.Raw
	if payload == nil {
		payload = map[string]any{"access_token": record.AccessToken}
	}
	data, err := json.MarshalIndent(payload, "", "    ")
	if err != nil {
		return fmt.Errorf("token repo: marshal record: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.MkdirAll(r.dir, 0o700); err != nil {
		return fmt.Errorf("token repo: create dir: %w", err)
	}

	path := filepath.Join(r.dir, record.ID+".json")
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("token repo: create %s: %w", record.ID, err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("token repo: write %s: %w", record.ID, err)
	}
	return nil
}

// List returns all saved records, newest first. Files that cannot be read or
// parsed are skipped rather than failing the whole listing.
func (r *FileTokenRepo) List(_ context.Context) ([]oauth.TokenRecord, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("token repo: read dir: %w", err)
	}

	var records []oauth.TokenRecord
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		record, err := r.load(strings.TrimSuffix(name, ".json"))
		if err != nil {
			continue
		}
		records = append(records, *record)
	}

	sort.Slice(records, func(i, j int) bool {
		if !records[i].RetrievedAt.Equal(records[j].RetrievedAt) {
			return records[i].RetrievedAt.After(records[j].RetrievedAt)
		}
		return records[i].ID > records[j].ID
	})
	return records, nil
}

// Get loads a single record by its key.
func (r *FileTokenRepo) Get(_ context.Context, id string) (*oauth.TokenRecord, error) {
	if id == "" || id != filepath.Base(id) || strings.Contains(id, "..") {
		return nil, oauth.ErrTokenNotFound
	}
	return r.load(id)
}

func (r *FileTokenRepo) load(id string) (*oauth.TokenRecord, error) {
	path := filepath.Join(r.dir, id+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, oauth.ErrTokenNotFound
		}
		return nil, fmt.Errorf("token repo: read %s: %w", id, err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("token repo: decode %s: %w", id, err)
	}

	record := &oauth.TokenRecord{ID: id, Raw: raw}
	if token, ok := raw["access_token"].(string); ok {
		record.AccessToken = token
	}
	record.RetrievedAt = r.recordTime(id, path)
	return record, nil
}

// recordTime recovers the creation timestamp from the key, falling back to
// the file modification time for keys in an unexpected shape.
func (r *FileTokenRepo) recordTime(id, path string) time.Time {
	parts := strings.SplitN(strings.TrimPrefix(id, "token_"), "_", 3)
	if len(parts) >= 2 {
		if ts, err := time.ParseInLocation(recordTimeLayout, parts[0]+"_"+parts[1], time.Local); err == nil {
			return ts
		}
	}
	if info, err := os.Stat(path); err == nil {
		return info.ModTime()
	}
	return time.Time{}
}
