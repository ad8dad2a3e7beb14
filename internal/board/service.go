// Package board manages boards and their persisted scene snapshots.
package board

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/inamate/inamate/canvas-go/internal/db/dbgen"
	"github.com/inamate/inamate/canvas-go/internal/scene"
	"github.com/inamate/inamate/canvas-go/internal/typeid"
)

var ErrBoardNotFound = errors.New("board not found")

// KeepSnapshots is how many scene versions are retained per board.
const KeepSnapshots = 20

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

type Board struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// Create makes a board seeded with an empty version-1 scene.
func (s *Service) Create(ctx context.Context, name string) (*Board, error) {
	boardID := typeid.NewBoardID()

	dbBoard, err := s.store.CreateBoard(ctx, dbgen.CreateBoardParams{ID: boardID, Name: name})
	if err != nil {
		return nil, fmt.Errorf("create board: %w", err)
	}

	err = s.store.CreateSnapshot(ctx, dbgen.CreateSnapshotParams{
		ID:      typeid.NewSnapshotID(),
		BoardID: boardID,
		Version: 1,
		Scene:   json.RawMessage(`[]`),
	})
	if err != nil {
		return nil, fmt.Errorf("create initial snapshot: %w", err)
	}

	return dbBoardToBoard(dbBoard), nil
}

func (s *Service) Get(ctx context.Context, boardID string) (*Board, error) {
	dbBoard, err := s.store.GetBoard(ctx, boardID)
	if err != nil {
		return nil, mapErr("get board", err)
	}
	return dbBoardToBoard(dbBoard), nil
}

func (s *Service) List(ctx context.Context) ([]Board, error) {
	dbBoards, err := s.store.ListBoards(ctx)
	if err != nil {
		return nil, fmt.Errorf("list boards: %w", err)
	}
	boards := make([]Board, len(dbBoards))
	for i, b := range dbBoards {
		boards[i] = *dbBoardToBoard(b)
	}
	return boards, nil
}

func (s *Service) Delete(ctx context.Context, boardID string) error {
	if err := s.store.DeleteBoard(ctx, boardID); err != nil {
		return mapErr("delete board", err)
	}
	return nil
}

// LatestSnapshot returns the raw JSON of the newest scene.
func (s *Service) LatestSnapshot(ctx context.Context, boardID string) (json.RawMessage, error) {
	if _, err := s.store.GetBoard(ctx, boardID); err != nil {
		return nil, mapErr("get board", err)
	}
	snap, err := s.store.GetLatestSnapshot(ctx, boardID)
	if err != nil {
		return nil, mapErr("get latest snapshot", err)
	}
	return snap.Scene, nil
}

// LatestScene decodes the newest scene and returns it with its version.
func (s *Service) LatestScene(ctx context.Context, boardID string) (scene.Scene, int, error) {
	if _, err := s.store.GetBoard(ctx, boardID); err != nil {
		return nil, 0, mapErr("get board", err)
	}
	snap, err := s.store.GetLatestSnapshot(ctx, boardID)
	if errors.Is(err, dbgen.ErrNotFound) {
		return scene.Scene{}, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("get latest snapshot: %w", err)
	}
	var sc scene.Scene
	if err := json.Unmarshal(snap.Scene, &sc); err != nil {
		return nil, 0, fmt.Errorf("decode snapshot %s: %w", snap.ID, err)
	}
	return sc, int(snap.Version), nil
}

// SaveScene stores sc as the board's next version and prunes old ones.
func (s *Service) SaveScene(ctx context.Context, boardID string, sc scene.Scene) (int, error) {
	data, err := json.Marshal(sc)
	if err != nil {
		return 0, fmt.Errorf("marshal scene: %w", err)
	}

	version := int32(1)
	latest, err := s.store.GetLatestSnapshot(ctx, boardID)
	switch {
	case err == nil:
		version = latest.Version + 1
	case !errors.Is(err, dbgen.ErrNotFound):
		return 0, fmt.Errorf("get latest snapshot: %w", err)
	}

	err = s.store.CreateSnapshot(ctx, dbgen.CreateSnapshotParams{
		ID:      typeid.NewSnapshotID(),
		BoardID: boardID,
		Version: version,
		Scene:   data,
	})
	if err != nil {
		return 0, mapErr("create snapshot", err)
	}

	if _, err := s.store.PruneSnapshots(ctx, dbgen.PruneSnapshotsParams{BoardID: boardID, Keep: KeepSnapshots}); err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}
	return int(version), nil
}

func mapErr(op string, err error) error {
	if errors.Is(err, dbgen.ErrNotFound) {
		return ErrBoardNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

func dbBoardToBoard(b dbgen.Board) *Board {
	return &Board{
		ID:        b.ID,
		Name:      b.Name,
		CreatedAt: b.CreatedAt.Format(time.RFC3339),
		UpdatedAt: b.UpdatedAt.Format(time.RFC3339),
	}
}
