package session

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/inamate/inamate/canvas-go/internal/scene"
)

type fakeStore struct {
	mu     sync.Mutex
	scenes map[string]scene.Scene
	saves  int
	ver    map[string]int
}

func newFakeStore(boardIDs ...string) *fakeStore {
	s := &fakeStore{scenes: make(map[string]scene.Scene), ver: make(map[string]int)}
	for _, id := range boardIDs {
		s.scenes[id] = scene.Scene{}
		s.ver[id] = 1
	}
	return s
}

var errNoBoard = errors.New("no such board")

func (s *fakeStore) LatestScene(_ context.Context, id string) (scene.Scene, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.scenes[id]
	if !ok {
		return nil, 0, errNoBoard
	}
	return sc.Clone(), s.ver[id], nil
}

func (s *fakeStore) SaveScene(_ context.Context, id string, sc scene.Scene) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scenes[id] = sc.Clone()
	s.ver[id]++
	s.saves++
	return s.ver[id], nil
}

func (s *fakeStore) snapshot(id string) (scene.Scene, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scenes[id], s.saves
}

func newTestHub(t *testing.T, store SceneStore, autosave time.Duration) *Hub {
	t.Helper()
	h := NewHub(store, autosave, slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(h.Stop)
	return h
}

func submit(t *testing.T, s *Session, typ string, payload any) {
	t.Helper()
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatal(err)
		}
		raw = data
	}
	if !s.Submit(&Message{Type: typ, Payload: raw}) {
		t.Fatalf("Submit(%s) rejected", typ)
	}
}

// next returns the next outbound message of the given type.
func next(t *testing.T, out <-chan []byte, typ string) Message {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case data, ok := <-out:
			if !ok {
				t.Fatalf("outbox closed waiting for %s", typ)
			}
			var msg Message
			if err := json.Unmarshal(data, &msg); err != nil {
				t.Fatal(err)
			}
			if msg.Type == typ {
				return msg
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s", typ)
		}
	}
}

func drawRectangle(t *testing.T, s *Session) {
	t.Helper()
	submit(t, s, TypeTool, ToolPayload{Tool: "rectangle"})
	submit(t, s, TypePointerDown, map[string]any{"x": 10, "y": 10})
	submit(t, s, TypePointerMove, map[string]any{"x": 50, "y": 40})
	submit(t, s, TypePointerUp, map[string]any{"x": 50, "y": 40})
}

func waitDone(t *testing.T, s *Session) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("session did not close")
	}
}

func TestCloseSavesScene(t *testing.T) {
	store := newFakeStore("board_a")
	hub := newTestHub(t, store, time.Hour)

	sess, err := hub.Open(context.Background(), "board_a")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	drawRectangle(t, sess)
	sess.Close()
	waitDone(t, sess)

	sc, saves := store.snapshot("board_a")
	if saves != 1 || len(sc) != 1 {
		t.Fatalf("saves = %d, scene has %d elements", saves, len(sc))
	}
	shape, ok := sc[0].(*scene.Shape)
	if !ok {
		t.Fatalf("element is %T", sc[0])
	}
	want := scene.Rect{X: 10, Y: 10, Width: 40, Height: 30}
	if got := (scene.Rect{X: shape.X, Y: shape.Y, Width: shape.Width, Height: shape.Height}); got != want {
		t.Errorf("shape rect = %+v, want %+v", got, want)
	}
	if hub.IsOpen("board_a") {
		t.Error("board still open after close")
	}
}

func TestUnchangedSessionDoesNotSave(t *testing.T) {
	store := newFakeStore("board_a")
	hub := newTestHub(t, store, time.Hour)

	sess, err := hub.Open(context.Background(), "board_a")
	if err != nil {
		t.Fatal(err)
	}
	submit(t, sess, TypeUndo, nil)
	sess.Close()
	waitDone(t, sess)

	if _, saves := store.snapshot("board_a"); saves != 0 {
		t.Errorf("saves = %d, want 0", saves)
	}
}

func TestOneSessionPerBoard(t *testing.T) {
	hub := newTestHub(t, newFakeStore("board_a"), time.Hour)
	ctx := context.Background()

	first, err := hub.Open(ctx, "board_a")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := hub.Open(ctx, "board_a"); !errors.Is(err, ErrBoardOpen) {
		t.Errorf("second Open = %v, want ErrBoardOpen", err)
	}

	first.Close()
	waitDone(t, first)
	again, err := hub.Open(ctx, "board_a")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	again.Close()
}

func TestOpenMissingBoard(t *testing.T) {
	hub := newTestHub(t, newFakeStore(), time.Hour)
	if _, err := hub.Open(context.Background(), "board_missing"); !errors.Is(err, errNoBoard) {
		t.Errorf("Open = %v, want errNoBoard", err)
	}
	if hub.IsOpen("board_missing") {
		t.Error("failed open left a reservation")
	}
}

func TestAutosave(t *testing.T) {
	store := newFakeStore("board_a")
	hub := newTestHub(t, store, 10*time.Millisecond)

	sess, err := hub.Open(context.Background(), "board_a")
	if err != nil {
		t.Fatal(err)
	}
	out := sess.Outbox()
	drawRectangle(t, sess)

	saved := next(t, out, TypeSaved)
	var p SavedPayload
	if err := json.Unmarshal(saved.Payload, &p); err != nil {
		t.Fatal(err)
	}
	if p.Version != 2 {
		t.Errorf("saved version = %d, want 2", p.Version)
	}
	if sc, _ := store.snapshot("board_a"); len(sc) != 1 {
		t.Errorf("stored scene has %d elements", len(sc))
	}
}

func TestRejectedMessages(t *testing.T) {
	hub := newTestHub(t, newFakeStore("board_a"), time.Hour)
	sess, err := hub.Open(context.Background(), "board_a")
	if err != nil {
		t.Fatal(err)
	}
	out := sess.Outbox()

	tests := []struct {
		typ     string
		payload any
		want    string
	}{
		{"bogus", nil, "unknown message type"},
		{TypeTool, ToolPayload{Tool: "lasso"}, "lasso"},
		{TypeWheel, nil, "missing payload"},
		{TypeCropConfirm, nil, "no crop in progress"},
	}
	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			submit(t, sess, tt.typ, tt.payload)
			msg := next(t, out, TypeError)
			var p ErrorPayload
			if err := json.Unmarshal(msg.Payload, &p); err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(strings.ToLower(p.Message), tt.want) {
				t.Errorf("error = %q, want it to mention %q", p.Message, tt.want)
			}
		})
	}
}

func TestImageAddDuringGestureSurvivesCancel(t *testing.T) {
	store := newFakeStore("board_a")
	hub := newTestHub(t, store, time.Hour)
	sess, err := hub.Open(context.Background(), "board_a")
	if err != nil {
		t.Fatal(err)
	}

	submit(t, sess, TypeTool, ToolPayload{Tool: "rectangle"})
	submit(t, sess, TypePointerDown, map[string]any{"x": 10, "y": 10})
	submit(t, sess, TypePointerMove, map[string]any{"x": 50, "y": 40})
	submit(t, sess, TypeImageAdd, ImageAddPayload{Src: "/assets/a.png", Width: 20, Height: 20, MediaType: "image/png", X: 200, Y: 200})
	submit(t, sess, TypeKey, map[string]any{"key": "Escape"})
	sess.Close()
	waitDone(t, sess)

	sc, _ := store.snapshot("board_a")
	if len(sc) != 1 || sc[0].Kind() != scene.KindImage {
		t.Fatalf("saved scene = %v, want the image only", sc.IDs())
	}
	img := sc[0].(*scene.Image)
	if img.X != 190 || img.Y != 190 {
		t.Errorf("image at %v,%v, want 190,190", img.X, img.Y)
	}
}

func TestSubmitKeepsPointerUp(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := &Session{
		ctx:    ctx,
		cancel: cancel,
		inbox:  make(chan *Message, 1),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	if !s.Submit(&Message{Type: TypePointerMove}) {
		t.Fatal("first move rejected")
	}
	if s.Submit(&Message{Type: TypePointerMove}) {
		t.Fatal("move accepted into a full inbox")
	}

	accepted := make(chan bool, 1)
	go func() { accepted <- s.Submit(&Message{Type: TypePointerUp}) }()

	if msg := <-s.inbox; msg.Type != TypePointerMove {
		t.Fatalf("first message = %s", msg.Type)
	}
	select {
	case ok := <-accepted:
		if !ok {
			t.Fatal("pointer.up rejected")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("pointer.up never queued")
	}
	if msg := <-s.inbox; msg.Type != TypePointerUp {
		t.Errorf("second message = %s, want %s", msg.Type, TypePointerUp)
	}
}

func TestSubmitPointerUpAfterClose(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		ctx:    ctx,
		cancel: cancel,
		inbox:  make(chan *Message, 1),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	s.inbox <- &Message{Type: TypePointerMove}

	accepted := make(chan bool, 1)
	go func() { accepted <- s.Submit(&Message{Type: TypePointerLeave}) }()
	cancel()

	select {
	case ok := <-accepted:
		if ok {
			t.Error("pointer.leave accepted after close")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Submit blocked after close")
	}
}

func TestStopSavesOpenSessions(t *testing.T) {
	store := newFakeStore("board_a", "board_b")
	hub := NewHub(store, time.Hour, slog.New(slog.NewTextHandler(io.Discard, nil)))

	for _, id := range []string{"board_a", "board_b"} {
		sess, err := hub.Open(context.Background(), id)
		if err != nil {
			t.Fatal(err)
		}
		drawRectangle(t, sess)
		// The frame after pointer.up shows the inbox has been drained.
		for range 5 {
			next(t, sess.Outbox(), TypeFrame)
		}
	}
	hub.Stop()

	if _, saves := store.snapshot("board_a"); saves != 2 {
		t.Errorf("saves = %d, want 2", saves)
	}
	if _, err := hub.Open(context.Background(), "board_a"); err == nil {
		t.Error("Open succeeded on a stopped hub")
	}
}

func TestWebSocketClient(t *testing.T) {
	store := newFakeStore("board_a")
	hub := newTestHub(t, store, time.Hour)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := hub.Open(r.Context(), "board_a")
		if err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			sess.Close()
			return
		}
		NewClient(sess, conn).Serve(r.Context())
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}

	read := func() Message {
		t.Helper()
		_, data, err := conn.Read(ctx)
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatal(err)
		}
		return msg
	}
	write := func(typ string, payload any) {
		t.Helper()
		raw, _ := json.Marshal(payload)
		data, _ := json.Marshal(Message{Type: typ, Payload: raw})
		if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}

	welcome := read()
	if welcome.Type != TypeWelcome || welcome.ClientID == "" {
		t.Fatalf("first message = %+v", welcome)
	}
	if msg := read(); msg.Type != TypeFrame {
		t.Fatalf("second message type = %s, want frame", msg.Type)
	}

	write(TypeTool, ToolPayload{Tool: "circle"})
	write(TypePointerDown, map[string]any{"x": 0, "y": 0})
	write(TypePointerMove, map[string]any{"x": 20, "y": 20})
	write(TypePointerUp, map[string]any{"x": 20, "y": 20})

	var frame struct {
		Commands []json.RawMessage `json:"commands"`
		CanUndo  bool              `json:"canUndo"`
	}
	for range 4 {
		msg := read()
		if msg.Type != TypeFrame {
			t.Fatalf("message type = %s, want frame", msg.Type)
		}
		if err := json.Unmarshal(msg.Payload, &frame); err != nil {
			t.Fatal(err)
		}
	}
	if len(frame.Commands) != 1 || !frame.CanUndo {
		t.Errorf("final frame has %d commands, canUndo %v", len(frame.Commands), frame.CanUndo)
	}

	conn.Close(websocket.StatusNormalClosure, "")
	deadline := time.Now().Add(5 * time.Second)
	for hub.IsOpen("board_a") && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if sc, saves := store.snapshot("board_a"); saves != 1 || len(sc) != 1 {
		t.Errorf("after disconnect saves = %d, elements = %d", saves, len(sc))
	}
}
