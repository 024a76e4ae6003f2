package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/amishk599/jobfeed/internal/model"
)

// FileStore keeps each snapshot in its own JSON file under dir. Each file is
// replaced atomically via rename; the set of three is not, so Load repairs
// any cross-file inconsistency left by a crash between renames.
type FileStore struct {
	dir string
}

var _ model.StateStore = (*FileStore)(nil)

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(part string) string {
	return filepath.Join(s.dir, part+".json")
}

func (s *FileStore) Load(_ context.Context) (*model.Snapshot, error) {
	parts := make(map[string][]byte, len(partNames))
	for _, name := range partNames {
		data, err := os.ReadFile(s.path(name))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s snapshot: %w", name, err)
		}
		parts[name] = data
	}
	return decodeParts(parts)
}

// Save keeps subscriptions.json from ever naming a pair whose seen-set and
// counter are not on disk. Removed pairs are dropped from subscriptions first,
// then seen and counters are written, then subscriptions again with any added
// pairs. A crash or failed write at any step leaves at worst orphan
// seen/counter entries, which Load drops.
func (s *FileStore) Save(_ context.Context, snap *model.Snapshot) error {
	parts, err := encodeParts(snap)
	if err != nil {
		return err
	}

	prev, err := s.loadSubscriptions()
	if err != nil {
		return err
	}
	if kept, removed := retainSubscriptions(prev, snap.Subscriptions); removed {
		data, err := json.Marshal(kept)
		if err != nil {
			return fmt.Errorf("encoding %s snapshot: %w", partSubscriptions, err)
		}
		if err := writeFileAtomic(s.path(partSubscriptions), data); err != nil {
			return fmt.Errorf("writing %s snapshot: %w", partSubscriptions, err)
		}
	}

	for _, name := range []string{partSeen, partCounters, partSubscriptions} {
		if err := writeFileAtomic(s.path(name), parts[name]); err != nil {
			return fmt.Errorf("writing %s snapshot: %w", name, err)
		}
	}
	return nil
}

func (s *FileStore) loadSubscriptions() (map[string][]string, error) {
	data, err := os.ReadFile(s.path(partSubscriptions))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s snapshot: %w", partSubscriptions, err)
	}
	var subs map[string][]string
	if len(data) > 0 {
		if err := json.Unmarshal(data, &subs); err != nil {
			return nil, fmt.Errorf("decoding %s snapshot: %w", partSubscriptions, err)
		}
	}
	return subs, nil
}

// retainSubscriptions returns the pairs of prev that are still in next, and
// whether any pair of prev is missing from next.
func retainSubscriptions(prev, next map[string][]string) (map[string][]string, bool) {
	kept := make(map[string][]string, len(prev))
	removed := false
	for sub, kws := range prev {
		for _, kw := range kws {
			if !slices.Contains(next[sub], kw) {
				removed = true
				continue
			}
			kept[sub] = append(kept[sub], kw)
		}
	}
	return kept, removed
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
