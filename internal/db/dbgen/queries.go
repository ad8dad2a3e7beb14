// Package dbgen holds the typed board and snapshot queries.
package dbgen

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("not found")

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Board struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Snapshot struct {
	ID        string
	BoardID   string
	Version   int32
	Scene     json.RawMessage
	CreatedAt time.Time
}

type CreateBoardParams struct {
	ID   string
	Name string
}

const createBoard = `
INSERT INTO boards (id, name) VALUES ($1, $2)
RETURNING id, name, created_at, updated_at`

func (q *Queries) CreateBoard(ctx context.Context, arg CreateBoardParams) (Board, error) {
	var b Board
	err := q.db.QueryRow(ctx, createBoard, arg.ID, arg.Name).Scan(&b.ID, &b.Name, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

const getBoard = `SELECT id, name, created_at, updated_at FROM boards WHERE id = $1`

func (q *Queries) GetBoard(ctx context.Context, id string) (Board, error) {
	var b Board
	err := q.db.QueryRow(ctx, getBoard, id).Scan(&b.ID, &b.Name, &b.CreatedAt, &b.UpdatedAt)
	return b, notFound(err)
}

const listBoards = `SELECT id, name, created_at, updated_at FROM boards ORDER BY updated_at DESC`

func (q *Queries) ListBoards(ctx context.Context) ([]Board, error) {
	rows, err := q.db.Query(ctx, listBoards)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Board, error) {
		var b Board
		err := row.Scan(&b.ID, &b.Name, &b.CreatedAt, &b.UpdatedAt)
		return b, err
	})
}

const deleteBoard = `DELETE FROM boards WHERE id = $1`

func (q *Queries) DeleteBoard(ctx context.Context, id string) error {
	tag, err := q.db.Exec(ctx, deleteBoard, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type CreateSnapshotParams struct {
	ID      string
	BoardID string
	Version int32
	Scene   json.RawMessage
}

// The board's updated_at follows its newest snapshot.
const createSnapshot = `
WITH snap AS (
	INSERT INTO snapshots (id, board_id, version, scene) VALUES ($1, $2, $3, $4)
	RETURNING board_id, created_at
)
UPDATE boards SET updated_at = snap.created_at FROM snap WHERE boards.id = snap.board_id`

func (q *Queries) CreateSnapshot(ctx context.Context, arg CreateSnapshotParams) error {
	_, err := q.db.Exec(ctx, createSnapshot, arg.ID, arg.BoardID, arg.Version, arg.Scene)
	return err
}

const getLatestSnapshot = `
SELECT id, board_id, version, scene, created_at FROM snapshots
WHERE board_id = $1 ORDER BY version DESC LIMIT 1`

func (q *Queries) GetLatestSnapshot(ctx context.Context, boardID string) (Snapshot, error) {
	var s Snapshot
	err := q.db.QueryRow(ctx, getLatestSnapshot, boardID).Scan(&s.ID, &s.BoardID, &s.Version, &s.Scene, &s.CreatedAt)
	return s, notFound(err)
}

type PruneSnapshotsParams struct {
	BoardID string
	Keep    int32
}

const pruneSnapshots = `
DELETE FROM snapshots WHERE board_id = $1 AND version <= (
	SELECT max(version) FROM snapshots WHERE board_id = $1
) - $2`

// PruneSnapshots keeps only the newest Keep snapshots of a board.
func (q *Queries) PruneSnapshots(ctx context.Context, arg PruneSnapshotsParams) (int64, error) {
	tag, err := q.db.Exec(ctx, pruneSnapshots, arg.BoardID, arg.Keep)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
