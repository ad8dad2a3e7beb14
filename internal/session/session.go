package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/inamate/inamate/canvas-go/internal/engine"
	"github.com/inamate/inamate/canvas-go/internal/raster"
)

const (
	inboxSize = 256
	sendSize  = 256
)

// Session owns one board's engine. All engine calls happen on the run
// goroutine.
type Session struct {
	hub     *Hub
	boardID string
	eng     *engine.Engine
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	inbox chan *Message
	send  chan []byte
	done  chan struct{}

	loaded       int    // snapshot version the scene was loaded from
	savedVersion uint64 // engine version at the last save
	savedAt      int    // stored snapshot version
}

func (s *Session) BoardID() string { return s.boardID }

// LoadedVersion is the snapshot version the session was opened from.
func (s *Session) LoadedVersion() int { return s.loaded }

// Done is closed after the final save.
func (s *Session) Done() <-chan struct{} { return s.done }

// Close ends the session. The scene is saved before Done closes.
func (s *Session) Close() { s.cancel() }

// Submit queues a client message for the event loop. It reports false when
// the session is closed or the inbox is full. Messages that end a gesture
// wait for room instead of being dropped.
func (s *Session) Submit(msg *Message) bool {
	select {
	case <-s.ctx.Done():
		return false
	default:
	}
	if endsGesture(msg.Type) {
		select {
		case s.inbox <- msg:
			return true
		case <-s.ctx.Done():
			return false
		}
	}
	select {
	case s.inbox <- msg:
		return true
	default:
		s.logger.Warn("session inbox full, dropping message", "type", msg.Type)
		return false
	}
}

func endsGesture(typ string) bool {
	return typ == TypePointerUp || typ == TypePointerLeave
}

// Outbox yields encoded server messages. It is closed when the session ends.
func (s *Session) Outbox() <-chan []byte { return s.send }

func (s *Session) run() {
	ticker := time.NewTicker(s.hub.autosave)
	defer func() {
		ticker.Stop()
		s.shutdown()
	}()

	s.sendFrame()
	for {
		select {
		case msg := <-s.inbox:
			s.handle(msg)
			s.sendFrame()
		case done := <-s.eng.Completions():
			s.eng.Apply(done)
			s.sendFrame()
		case <-ticker.C:
			s.save(s.ctx)
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Session) shutdown() {
	// Apply input that was queued before the close.
	for drained := false; !drained; {
		select {
		case msg := <-s.inbox:
			s.handle(msg)
		default:
			drained = true
		}
	}
	// A dropped connection ends the gesture like the pointer leaving.
	if _, active := s.eng.Mode(); active {
		s.eng.PointerLeave()
	}
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	s.save(ctx)
	cancel()
	s.eng.Close()
	s.hub.remove(s)
	close(s.send)
	close(s.done)
}

// save persists the scene when it changed and no gesture is in flight.
func (s *Session) save(ctx context.Context) {
	if s.eng.Version() == s.savedVersion {
		return
	}
	if _, active := s.eng.Mode(); active {
		return
	}
	version, err := s.hub.store.SaveScene(ctx, s.boardID, s.eng.Scene())
	if err != nil {
		s.logger.Error("autosave failed", "error", err)
		return
	}
	s.savedVersion = s.eng.Version()
	s.savedAt = version
	s.logger.Debug("board saved", "version", version)
	s.emit(TypeSaved, SavedPayload{Version: version})
}

func (s *Session) handle(msg *Message) {
	if err := s.dispatch(msg); err != nil {
		s.logger.Debug("message rejected", "type", msg.Type, "error", err)
		s.emit(TypeError, ErrorPayload{Message: err.Error()})
	}
}

func (s *Session) dispatch(msg *Message) error {
	eng := s.eng
	switch msg.Type {
	case TypePointerDown, TypePointerMove, TypePointerUp:
		var ev engine.PointerEvent
		if err := decode(msg, &ev); err != nil {
			return err
		}
		switch msg.Type {
		case TypePointerDown:
			eng.PointerDown(ev)
		case TypePointerMove:
			eng.PointerMove(ev)
		default:
			eng.PointerUp(ev)
		}
	case TypePointerLeave:
		eng.PointerLeave()
	case TypeWheel:
		var p WheelPayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		eng.Wheel(p.X, p.Y, p.DeltaY)
	case TypeKey:
		var ev engine.KeyEvent
		if err := decode(msg, &ev); err != nil {
			return err
		}
		eng.KeyDown(ev)
	case TypeViewport:
		var p ViewportPayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		eng.SetViewport(p.X, p.Y, p.Width, p.Height)
	case TypeTool:
		var p ToolPayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		tool, err := engine.ParseTool(p.Tool)
		if err != nil {
			return err
		}
		eng.SetTool(tool)
	case TypeStyle:
		var st engine.Style
		if err := decode(msg, &st); err != nil {
			return err
		}
		eng.SetStyle(st)
	case TypeSelect:
		var p SelectPayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		eng.SetSelection(p.IDs)
	case TypeSelectAll:
		eng.SelectAll()
	case TypeDelete:
		eng.DeleteSelected()
	case TypeLayer:
		var p LayerPayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		op, err := engine.ParseLayerOp(p.Op)
		if err != nil {
			return err
		}
		if p.ID != "" {
			eng.Reorder(p.ID, op)
		} else {
			eng.ReorderSelected(op)
		}
	case TypeUndo:
		eng.Undo()
	case TypeRedo:
		eng.Redo()
	case TypeCropBegin:
		var p CropBeginPayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		return eng.BeginCrop(p.ID)
	case TypeCropConfirm:
		return eng.ConfirmCrop()
	case TypeCropCancel:
		eng.CancelCrop()
	case TypeImageDrop, TypeImagePaste:
		var p ImagePayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		if msg.Type == TypeImageDrop {
			return eng.DropImage(p.MediaType, p.Data, p.X, p.Y)
		}
		return eng.PasteImage(p.MediaType, p.Data)
	case TypeImageAdd:
		var p ImageAddPayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		if p.Src == "" || p.Width <= 0 || p.Height <= 0 {
			return fmt.Errorf("%s: source and positive size required", msg.Type)
		}
		if !raster.IsImageMediaType(p.MediaType) {
			return fmt.Errorf("%w: %q", engine.ErrNotImage, p.MediaType)
		}
		eng.AddImageElement(p.Src, p.Width, p.Height, raster.NormalizeMediaType(p.MediaType), eng.Viewport().ToCanvas(p.X, p.Y))
	case TypeGenerate:
		var p GeneratePayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		return eng.RequestGeneration(p.Prompt)
	case TypeErrorClear:
		eng.ClearError()
	default:
		return fmt.Errorf("unknown message type %q", msg.Type)
	}
	return nil
}

func decode(msg *Message, v any) error {
	if len(msg.Payload) == 0 {
		return fmt.Errorf("%s: missing payload", msg.Type)
	}
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		return fmt.Errorf("%s: invalid payload: %w", msg.Type, err)
	}
	return nil
}

func (s *Session) sendFrame() {
	s.emit(TypeFrame, s.eng.Render())
}

func (s *Session) emit(typ string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("marshal payload", "type", typ, "error", err)
		return
	}
	s.push(&Message{Type: typ, BoardID: s.boardID, Payload: data})
}

func (s *Session) push(msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error("marshal message", "error", err)
		return
	}
	select {
	case s.send <- data:
	default:
		s.logger.Warn("session send buffer full, dropping message", "type", msg.Type)
	}
}
