// Package session runs one live canvas engine per open board and bridges it
// to a WebSocket client.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/inamate/inamate/canvas-go/internal/engine"
	"github.com/inamate/inamate/canvas-go/internal/scene"
)

var ErrBoardOpen = errors.New("board is already open")

// SceneStore loads and persists board scenes. *board.Service satisfies it.
type SceneStore interface {
	LatestScene(ctx context.Context, boardID string) (scene.Scene, int, error)
	SaveScene(ctx context.Context, boardID string, sc scene.Scene) (int, error)
}

const (
	DefaultAutosaveInterval = 10 * time.Second
	saveTimeout             = 10 * time.Second
)

type Hub struct {
	store    SceneStore
	autosave time.Duration
	engOpts  []engine.Option
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	sessions map[string]*Session // boardID -> session
}

// NewHub creates a hub whose engines are built with engOpts.
func NewHub(store SceneStore, autosave time.Duration, logger *slog.Logger, engOpts ...engine.Option) *Hub {
	if autosave <= 0 {
		autosave = DefaultAutosaveInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		store:    store,
		autosave: autosave,
		engOpts:  engOpts,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		sessions: make(map[string]*Session),
	}
}

// Open loads the board's latest scene into a new engine and starts its
// event loop. Only one session per board may be open at a time.
func (h *Hub) Open(ctx context.Context, boardID string) (*Session, error) {
	h.mu.Lock()
	if _, ok := h.sessions[boardID]; ok {
		h.mu.Unlock()
		return nil, ErrBoardOpen
	}
	// Reserve the slot while the scene loads.
	h.sessions[boardID] = nil
	h.mu.Unlock()

	sess, err := h.newSession(ctx, boardID)
	h.mu.Lock()
	if err != nil || h.ctx.Err() != nil {
		delete(h.sessions, boardID)
		h.mu.Unlock()
		if err == nil {
			sess.eng.Close()
			err = errors.New("hub stopped")
		}
		return nil, err
	}
	h.sessions[boardID] = sess
	h.wg.Add(1)
	h.mu.Unlock()

	go func() {
		defer h.wg.Done()
		sess.run()
	}()

	h.logger.Info("board opened", "board", boardID, "version", sess.loaded)
	return sess, nil
}

func (h *Hub) newSession(ctx context.Context, boardID string) (*Session, error) {
	sc, version, err := h.store.LatestScene(ctx, boardID)
	if err != nil {
		return nil, fmt.Errorf("load board %s: %w", boardID, err)
	}

	sctx, cancel := context.WithCancel(h.ctx)
	logger := h.logger.With("board", boardID)
	opts := append([]engine.Option{engine.WithContext(sctx), engine.WithLogger(logger)}, h.engOpts...)
	eng, err := engine.NewEngine(sc, opts...)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("open board %s: %w", boardID, err)
	}

	return &Session{
		hub:          h,
		boardID:      boardID,
		eng:          eng,
		logger:       logger,
		ctx:          sctx,
		cancel:       cancel,
		inbox:        make(chan *Message, inboxSize),
		send:         make(chan []byte, sendSize),
		done:         make(chan struct{}),
		loaded:       version,
		savedVersion: eng.Version(),
		savedAt:      version,
	}, nil
}

func (h *Hub) remove(s *Session) {
	h.mu.Lock()
	if h.sessions[s.boardID] == s {
		delete(h.sessions, s.boardID)
	}
	h.mu.Unlock()
	h.logger.Info("board closed", "board", s.boardID)
}

// IsOpen reports whether a session is live for boardID.
func (h *Hub) IsOpen(boardID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.sessions[boardID]
	return ok
}

// Stop closes every session, waiting for their final saves.
func (h *Hub) Stop() {
	h.mu.Lock()
	h.cancel()
	h.mu.Unlock()
	h.wg.Wait()
}
