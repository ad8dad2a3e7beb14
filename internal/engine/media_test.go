package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/inamate/inamate/canvas-go/internal/scene"
)

type fakeGenerator struct {
	res *GenerationResult
	err error
	got GenerationRequest
}

func (f *fakeGenerator) Edit(_ context.Context, req GenerationRequest) (*GenerationResult, error) {
	f.got = req
	return f.res, f.err
}

func TestDropImageRejectsNonImage(t *testing.T) {
	e := newTestEngine(t, nil)
	err := e.DropImage("text/plain", []byte("hello"), 0, 0)
	if !errors.Is(err, ErrNotImage) {
		t.Fatalf("err = %v", err)
	}
	if e.Error() == "" {
		t.Error("error slot not set")
	}
	if e.Pending() != 0 || e.History().Len() != 1 {
		t.Errorf("pending %d, history %d", e.Pending(), e.History().Len())
	}
}

func TestDropImageCentresUnderPointer(t *testing.T) {
	e := newTestEngine(t, nil)
	if err := e.DropImage("image/png", pngBytes(t, 40, 30), 100, 100); err != nil {
		t.Fatal(err)
	}
	if e.Pending() != 1 {
		t.Errorf("pending = %d", e.Pending())
	}
	await(t, e)

	sc := e.Scene()
	if len(sc) != 1 {
		t.Fatalf("scene = %v", idsOf(sc))
	}
	img := sc[0].(*scene.Image)
	if got := scene.BoundsOf(img); got != (scene.Rect{X: 80, Y: 85, Width: 40, Height: 30}) {
		t.Errorf("bounds = %+v", got)
	}
	if got := e.Selection(); len(got) != 1 || got[0] != img.ID {
		t.Errorf("selection = %v", got)
	}
	if img.MediaType != "image/png" {
		t.Errorf("media type = %q", img.MediaType)
	}
}

func TestPasteImageCentresInViewport(t *testing.T) {
	e := newTestEngine(t, nil)
	e.SetViewport(0, 0, 800, 600)
	if err := e.PasteImage("image/png", pngBytes(t, 40, 30)); err != nil {
		t.Fatal(err)
	}
	await(t, e)
	img := e.Scene()[0].(*scene.Image)
	if img.X != 380 || img.Y != 285 {
		t.Errorf("placed at %v,%v", img.X, img.Y)
	}
}

func TestDropCorruptImage(t *testing.T) {
	e := newTestEngine(t, nil)
	if err := e.DropImage("image/png", []byte("not a png"), 0, 0); err != nil {
		t.Fatal(err)
	}
	await(t, e)
	if e.Error() == "" || len(e.Scene()) != 0 {
		t.Errorf("error %q, scene %v", e.Error(), idsOf(e.Scene()))
	}
}

func TestCompletionDuringGestureWaits(t *testing.T) {
	e := newTestEngine(t, nil)
	e.SetTool(ToolDraw)
	down(e, 0, 0)
	if err := e.DropImage("image/png", pngBytes(t, 4, 4), 50, 50); err != nil {
		t.Fatal(err)
	}
	await(t, e)
	if len(e.Scene()) != 1 {
		t.Fatalf("image added mid-gesture: %v", idsOf(e.Scene()))
	}
	move(e, 10, 10)
	up(e, 10, 10)

	sc := e.Scene()
	if len(sc) != 2 || sc[0].Kind() != scene.KindPath || sc[1].Kind() != scene.KindImage {
		t.Errorf("scene = %v", idsOf(sc))
	}
	if e.History().Len() != 3 {
		t.Errorf("history len = %d, want 3", e.History().Len())
	}
}

func TestAddImageDuringDragWaitsForCancel(t *testing.T) {
	e := newTestEngine(t, []scene.Element{rectShape("a", 0, 0, 10, 10)})
	down(e, 5, 5)
	move(e, 105, 105)

	id := e.AddImageElement("data:image/png;base64,", 20, 20, "image/png", pt(300, 300))
	if len(e.Scene()) != 1 {
		t.Fatalf("image added mid-gesture: %v", idsOf(e.Scene()))
	}
	if !e.History().InGesture() {
		t.Fatal("add ended the gesture")
	}

	e.KeyDown(KeyEvent{Key: "Escape"})
	a := mustFind(t, e, "a").(*scene.Shape)
	if a.X != 0 || a.Y != 0 {
		t.Errorf("a at %v,%v, want 0,0", a.X, a.Y)
	}
	sc := e.Scene()
	if len(sc) != 2 || sc[1].ElementID() != id {
		t.Errorf("scene = %v, want [a %s]", idsOf(sc), id)
	}
	if e.History().Len() != 2 {
		t.Errorf("history len = %d, want 2", e.History().Len())
	}
	if got := e.Selection(); len(got) != 1 || got[0] != id {
		t.Errorf("selection = %v", got)
	}
}

func TestAddImageDuringDragCommitsSeparately(t *testing.T) {
	e := newTestEngine(t, []scene.Element{rectShape("a", 0, 0, 10, 10)})
	down(e, 5, 5)
	move(e, 55, 5)
	id := e.AddImageElement("data:image/png;base64,", 20, 20, "image/png", pt(300, 300))
	move(e, 105, 5)
	up(e, 105, 5)

	if e.History().Len() != 3 {
		t.Fatalf("history len = %d, want 3", e.History().Len())
	}
	if a := mustFind(t, e, "a").(*scene.Shape); a.X != 100 {
		t.Errorf("a.X = %v, want 100", a.X)
	}
	mustFind(t, e, id)

	e.Undo()
	if _, ok := e.Scene().Find(id); ok {
		t.Error("undo should remove the image only")
	}
	if a := mustFind(t, e, "a").(*scene.Shape); a.X != 100 {
		t.Errorf("after undo a.X = %v, want 100", a.X)
	}
}

func TestStaleCompletionAppendsToCurrent(t *testing.T) {
	e := newTestEngine(t, nil)
	e.commit(appendElement(rectShape("a", 0, 0, 10, 10)))
	if err := e.DropImage("image/png", pngBytes(t, 4, 4), 0, 0); err != nil {
		t.Fatal(err)
	}
	e.Undo()
	await(t, e)

	sc := e.Scene()
	if len(sc) != 1 || sc[0].Kind() != scene.KindImage {
		t.Errorf("scene = %v", idsOf(sc))
	}
	if e.History().CanRedo() {
		t.Error("the undone entry should be discarded")
	}
}

func TestRequestGeneration(t *testing.T) {
	gen := &fakeGenerator{res: &GenerationResult{Data: pngBytes(t, 10, 10), MediaType: "image/png"}}
	e := newTestEngine(t, []scene.Element{
		pngImage(t, "img", 0, 0, 100, 50, 10, 5),
		rectShape("s", 0, 60, 10, 10),
	}, WithGenerator(gen))
	e.SetSelection([]string{"img", "s"})

	if err := e.RequestGeneration("  make it blue "); err != nil {
		t.Fatal(err)
	}
	if !e.Generating() {
		t.Error("generation should be in flight")
	}
	await(t, e)

	if e.Generating() {
		t.Error("generation should be done")
	}
	if gen.got.Prompt != "make it blue" || len(gen.got.Images) != 1 || gen.got.Images[0].MediaType != "image/png" {
		t.Errorf("request = %q with %d images", gen.got.Prompt, len(gen.got.Images))
	}
	sc := e.Scene()
	if len(sc) != 3 {
		t.Fatalf("scene = %v", idsOf(sc))
	}
	out := sc[2].(*scene.Image)
	// Right of the selection bounds (0,0)-(100,70).
	if got := scene.BoundsOf(out); got != (scene.Rect{X: 120, Y: 0, Width: 10, Height: 10}) {
		t.Errorf("bounds = %+v", got)
	}
	if got := e.Selection(); len(got) != 1 || got[0] != out.ID {
		t.Errorf("selection = %v", got)
	}
}

func TestRequestGenerationRejectsInput(t *testing.T) {
	gen := &fakeGenerator{}
	tests := []struct {
		name     string
		opts     []Option
		selected []string
		prompt   string
		want     error
	}{
		{"empty prompt", []Option{WithGenerator(gen)}, []string{"img"}, "   ", ErrEmptyPrompt},
		{"no generator", nil, []string{"img"}, "go", ErrGenerationUnavailable},
		{"no image selected", []Option{WithGenerator(gen)}, []string{"s"}, "go", ErrNoImageSelected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t, []scene.Element{imageEl("img", 0, 0, 10, 10), rectShape("s", 20, 0, 10, 10)}, tt.opts...)
			e.SetSelection(tt.selected)
			if err := e.RequestGeneration(tt.prompt); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if e.Error() != tt.want.Error() {
				t.Errorf("error slot = %q", e.Error())
			}
			if e.Pending() != 0 {
				t.Error("nothing should be in flight")
			}
		})
	}
}

func TestRequestGenerationFailures(t *testing.T) {
	tests := []struct {
		name string
		gen  *fakeGenerator
		want string
	}{
		{"service error", &fakeGenerator{err: errors.New("quota exceeded")}, "quota exceeded"},
		{"no image", &fakeGenerator{res: &GenerationResult{}}, ErrNoImageReturned.Error()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t, []scene.Element{pngImage(t, "img", 0, 0, 10, 10, 2, 2)}, WithGenerator(tt.gen))
			e.SetSelection([]string{"img"})
			if err := e.RequestGeneration("go"); err != nil {
				t.Fatal(err)
			}
			await(t, e)
			if e.Error() != tt.want {
				t.Errorf("error = %q, want %q", e.Error(), tt.want)
			}
			if e.History().Len() != 1 {
				t.Errorf("history len = %d", e.History().Len())
			}
		})
	}
}
