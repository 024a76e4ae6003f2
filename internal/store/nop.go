package store

import (
	"context"

	"github.com/amishk599/jobfeed/internal/model"
)

// NopStore is used in dry-run mode and by read-only commands. It loads from
// an underlying store, or starts empty when there is none, and discards saves.
type NopStore struct {
	source model.StateStore
}

var _ model.StateStore = (*NopStore)(nil)

// NewNopStore wraps source. A nil source always loads an empty snapshot.
func NewNopStore(source model.StateStore) *NopStore { return &NopStore{source: source} }

func (s *NopStore) Load(ctx context.Context) (*model.Snapshot, error) {
	if s.source == nil {
		return model.NewSnapshot(), nil
	}
	return s.source.Load(ctx)
}

func (s *NopStore) Save(context.Context, *model.Snapshot) error { return nil }
