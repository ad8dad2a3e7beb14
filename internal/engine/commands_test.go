package engine

import (
	"encoding/json"
	"testing"

	"github.com/inamate/inamate/canvas-go/internal/scene"
)

func TestCompileDrawCommands(t *testing.T) {
	circle := &scene.Shape{ID: "c", Shape: scene.ShapeCircle, X: 0, Y: 0, Width: 20, Height: 10, Stroke: "#000000", StrokeWidth: 1, Fill: "#ff0000"}
	sc := scene.Scene{
		imageEl("img", 0, 0, 10, 10),
		&scene.Path{ID: "empty"},
		&scene.Path{ID: "p", Points: []scene.Point{pt(0, 0), pt(5, 5)}, Stroke: "#111111", StrokeWidth: 3},
		rectShape("r", 1, 2, 3, 4),
		circle,
	}
	cmds := CompileDrawCommands(sc)
	if len(cmds) != 4 {
		t.Fatalf("got %d commands, want 4 (empty path skipped)", len(cmds))
	}
	if cmds[0].Op != "image" || cmds[0].Width != 10 || cmds[0].Src == "" {
		t.Errorf("image command = %+v", cmds[0])
	}
	if cmds[1].ObjectID != "p" || len(cmds[1].Path) != 2 || cmds[1].Path[1][0] != "L" {
		t.Errorf("path command = %+v", cmds[1])
	}
	if cmds[2].Fill != "" || !cmds[2].Closed || len(cmds[2].Path) != 5 {
		t.Errorf("rect command = %+v", cmds[2])
	}
	if cmds[3].Fill != "#ff0000" || len(cmds[3].Path) != 6 {
		t.Errorf("circle command = %+v", cmds[3])
	}
	// The ellipse starts at the right-most point of the shape.
	if start := cmds[3].Path[0]; start[1] != 20.0 || start[2] != 5.0 {
		t.Errorf("ellipse start = %v", start)
	}
}

func TestHitTestTopmost(t *testing.T) {
	sc := scene.Scene{
		rectShape("bottom", 0, 0, 100, 100),
		rectShape("top", 50, 50, 100, 100),
		&scene.Path{ID: "line", Points: []scene.Point{pt(200, 10), pt(300, 10)}, StrokeWidth: 4},
	}
	tests := []struct {
		p    scene.Point
		want string
	}{
		{pt(10, 10), "bottom"},
		{pt(75, 75), "top"},
		{pt(250, 11), "line"},
		{pt(250, 20), ""},
		{pt(-1, -1), ""},
	}
	for _, tt := range tests {
		if got := HitTest(sc, tt.p); got != tt.want {
			t.Errorf("HitTest(%v) = %q, want %q", tt.p, got, tt.want)
		}
	}
}

func TestRenderFrame(t *testing.T) {
	e := newTestEngine(t, []scene.Element{imageEl("img", 0, 0, 100, 50), rectShape("s", 200, 0, 10, 10)})
	e.ZoomAt(0, 0, 2)

	f := e.Render()
	if len(f.Commands) != 2 || f.Zoom != 2 || f.SelectionBounds != nil || len(f.Handles) != 0 {
		t.Errorf("idle frame = %+v", f)
	}
	if f.View[0] != 2 || f.View[3] != 2 {
		t.Errorf("view = %v", f.View)
	}

	e.SetSelection([]string{"img"})
	f = e.Render()
	if len(f.Handles) != 8 {
		t.Fatalf("handles = %d, want 8", len(f.Handles))
	}
	if f.Handles[7].Handle != HandleBottomRight || f.Handles[7].X != 100 || f.Handles[7].Y != 50 {
		t.Errorf("br handle = %+v", f.Handles[7])
	}

	if err := e.BeginCrop("img"); err != nil {
		t.Fatal(err)
	}
	f = e.Render()
	if f.Crop == nil || f.Crop.Box != f.Crop.Bounds || len(f.Crop.Handles) != 8 {
		t.Errorf("crop frame = %+v", f.Crop)
	}
	if len(f.Handles) != 0 {
		t.Error("resize handles are hidden while cropping")
	}

	if _, err := json.Marshal(f); err != nil {
		t.Errorf("marshal frame: %v", err)
	}
}
