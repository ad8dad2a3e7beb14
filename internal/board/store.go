package board

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/inamate/inamate/canvas-go/internal/db/dbgen"
)

// Store is the persistence surface the service needs. *dbgen.Queries
// satisfies it; MemoryStore backs servers started without a database.
type Store interface {
	CreateBoard(ctx context.Context, arg dbgen.CreateBoardParams) (dbgen.Board, error)
	GetBoard(ctx context.Context, id string) (dbgen.Board, error)
	ListBoards(ctx context.Context) ([]dbgen.Board, error)
	DeleteBoard(ctx context.Context, id string) error
	CreateSnapshot(ctx context.Context, arg dbgen.CreateSnapshotParams) error
	GetLatestSnapshot(ctx context.Context, boardID string) (dbgen.Snapshot, error)
	PruneSnapshots(ctx context.Context, arg dbgen.PruneSnapshotsParams) (int64, error)
}

var _ Store = (*dbgen.Queries)(nil)

type MemoryStore struct {
	mu        sync.Mutex
	boards    map[string]dbgen.Board
	snapshots map[string][]dbgen.Snapshot
	now       func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		boards:    make(map[string]dbgen.Board),
		snapshots: make(map[string][]dbgen.Snapshot),
		now:       time.Now,
	}
}

func (m *MemoryStore) CreateBoard(_ context.Context, arg dbgen.CreateBoardParams) (dbgen.Board, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	b := dbgen.Board{ID: arg.ID, Name: arg.Name, CreatedAt: now, UpdatedAt: now}
	m.boards[arg.ID] = b
	return b, nil
}

func (m *MemoryStore) GetBoard(_ context.Context, id string) (dbgen.Board, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.boards[id]
	if !ok {
		return dbgen.Board{}, dbgen.ErrNotFound
	}
	return b, nil
}

func (m *MemoryStore) ListBoards(_ context.Context) ([]dbgen.Board, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]dbgen.Board, 0, len(m.boards))
	for _, b := range m.boards {
		out = append(out, b)
	}
	slices.SortFunc(out, func(a, b dbgen.Board) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return strings.Compare(b.ID, a.ID)
	})
	return out, nil
}

func (m *MemoryStore) DeleteBoard(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.boards[id]; !ok {
		return dbgen.ErrNotFound
	}
	delete(m.boards, id)
	delete(m.snapshots, id)
	return nil
}

func (m *MemoryStore) CreateSnapshot(_ context.Context, arg dbgen.CreateSnapshotParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.boards[arg.BoardID]
	if !ok {
		return dbgen.ErrNotFound
	}
	now := m.now()
	m.snapshots[arg.BoardID] = append(m.snapshots[arg.BoardID], dbgen.Snapshot{
		ID:        arg.ID,
		BoardID:   arg.BoardID,
		Version:   arg.Version,
		Scene:     slices.Clone(arg.Scene),
		CreatedAt: now,
	})
	b.UpdatedAt = now
	m.boards[arg.BoardID] = b
	return nil
}

func (m *MemoryStore) GetLatestSnapshot(_ context.Context, boardID string) (dbgen.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snaps := m.snapshots[boardID]
	if len(snaps) == 0 {
		return dbgen.Snapshot{}, dbgen.ErrNotFound
	}
	latest := snaps[0]
	for _, s := range snaps[1:] {
		if s.Version > latest.Version {
			latest = s
		}
	}
	return latest, nil
}

func (m *MemoryStore) PruneSnapshots(_ context.Context, arg dbgen.PruneSnapshotsParams) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snaps := m.snapshots[arg.BoardID]
	if len(snaps) == 0 {
		return 0, nil
	}
	var maxVersion int32
	for _, s := range snaps {
		maxVersion = max(maxVersion, s.Version)
	}
	kept := snaps[:0]
	for _, s := range snaps {
		if s.Version > maxVersion-arg.Keep {
			kept = append(kept, s)
		}
	}
	pruned := int64(len(snaps) - len(kept))
	m.snapshots[arg.BoardID] = kept
	return pruned, nil
}
