package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/inamate/inamate/canvas-go/internal/board"
	"github.com/inamate/inamate/canvas-go/internal/raster"
	"github.com/inamate/inamate/canvas-go/internal/scene"
)

// SceneSource yields the stored scene of a board.
type SceneSource interface {
	LatestScene(ctx context.Context, boardID string) (scene.Scene, int, error)
}

type Handler struct {
	source SceneSource
	loader raster.Loader
}

func NewHandler(source SceneSource, loader raster.Loader) *Handler {
	return &Handler{source: source, loader: loader}
}

// Export handles GET /api/boards/{boardId}/export?format=png|jpeg|pdf.
// Optional query parameters: scale, padding, background.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	boardID := mux.Vars(r)["boardId"]
	q := r.URL.Query()

	format, err := ParseFormat(q.Get("format"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	opts := Options{Format: format, Scale: 1, Padding: DefaultPadding, Title: boardID}

	if s := q.Get("scale"); s != "" {
		scale, err := strconv.ParseFloat(s, 64)
		if err != nil || scale <= 0 || scale > MaxScale {
			http.Error(w, fmt.Sprintf("invalid scale: must be in (0, %d]", MaxScale), http.StatusBadRequest)
			return
		}
		opts.Scale = scale
	}
	if s := q.Get("padding"); s != "" {
		padding, err := strconv.ParseFloat(s, 64)
		if err != nil || padding < 0 {
			http.Error(w, "invalid padding", http.StatusBadRequest)
			return
		}
		opts.Padding = padding
	}
	if s := q.Get("background"); s != "" {
		bg, ok := raster.ParseColor(s)
		if !ok {
			http.Error(w, "invalid background color", http.StatusBadRequest)
			return
		}
		opts.Background = bg
	}

	sc, version, err := h.source.LatestScene(r.Context(), boardID)
	if err != nil {
		if errors.Is(err, board.ErrBoardNotFound) {
			http.Error(w, "board not found", http.StatusNotFound)
			return
		}
		slog.Error("load scene for export", "error", err, "board", boardID)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	data, err := Render(r.Context(), sc, h.loader, opts)
	if err != nil {
		slog.Error("export failed", "error", err, "board", boardID, "format", format)
		http.Error(w, fmt.Sprintf("export failed: %v", err), http.StatusInternalServerError)
		return
	}

	ext := string(format)
	if format == FormatJPEG {
		ext = "jpg"
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s-v%d.%s"`, sanitize(boardID), version, ext))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)

	slog.Info("export complete", "board", boardID, "format", format, "size", len(data))
}

func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, name)
}
