//go:build js && wasm

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"syscall/js"

	"github.com/inamate/inamate/canvas-go/internal/engine"
	"github.com/inamate/inamate/canvas-go/internal/raster"
	"github.com/inamate/inamate/canvas-go/internal/scene"
)

var (
	eng    *engine.Engine
	loader = &fetchLoader{}
)

func main() {
	var err error
	eng, err = newEngine(scene.Scene{})
	if err != nil {
		panic(err)
	}

	canvasEngine := js.Global().Get("Object").New()

	// --- Commands (frontend → engine) ---
	canvasEngine.Set("loadScene", js.FuncOf(loadScene))
	canvasEngine.Set("setAssetBaseURL", js.FuncOf(setAssetBaseURL))
	canvasEngine.Set("pointerDown", js.FuncOf(pointerDown))
	canvasEngine.Set("pointerMove", js.FuncOf(pointerMove))
	canvasEngine.Set("pointerUp", js.FuncOf(pointerUp))
	canvasEngine.Set("pointerLeave", js.FuncOf(pointerLeave))
	canvasEngine.Set("wheel", js.FuncOf(wheel))
	canvasEngine.Set("keyDown", js.FuncOf(keyDown))
	canvasEngine.Set("contextMenu", js.FuncOf(contextMenu))
	canvasEngine.Set("setTool", js.FuncOf(setTool))
	canvasEngine.Set("setStyle", js.FuncOf(setStyle))
	canvasEngine.Set("setViewport", js.FuncOf(setViewport))
	canvasEngine.Set("setSelection", js.FuncOf(setSelection))
	canvasEngine.Set("selectAll", js.FuncOf(selectAll))
	canvasEngine.Set("deleteSelected", js.FuncOf(deleteSelected))
	canvasEngine.Set("reorder", js.FuncOf(reorder))
	canvasEngine.Set("undo", js.FuncOf(undo))
	canvasEngine.Set("redo", js.FuncOf(redo))
	canvasEngine.Set("beginCrop", js.FuncOf(beginCrop))
	canvasEngine.Set("confirmCrop", js.FuncOf(confirmCrop))
	canvasEngine.Set("cancelCrop", js.FuncOf(cancelCrop))
	canvasEngine.Set("dropImage", js.FuncOf(dropImage))
	canvasEngine.Set("pasteImage", js.FuncOf(pasteImage))
	canvasEngine.Set("addImage", js.FuncOf(addImage))
	canvasEngine.Set("generate", js.FuncOf(generate))
	canvasEngine.Set("clearError", js.FuncOf(clearError))
	canvasEngine.Set("tick", js.FuncOf(tick))

	// --- Queries (frontend ← engine) ---
	canvasEngine.Set("render", js.FuncOf(render))
	canvasEngine.Set("hitTest", js.FuncOf(hitTest))
	canvasEngine.Set("getScene", js.FuncOf(getScene))
	canvasEngine.Set("getSelection", js.FuncOf(getSelection))

	js.Global().Set("canvasEngine", canvasEngine)
	js.Global().Set("canvasWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

func newEngine(sc scene.Scene) (*engine.Engine, error) {
	return engine.NewEngine(sc, engine.WithLoader(loader))
}

// fetchLoader resolves data: URIs locally and asset URLs through fetch.
type fetchLoader struct {
	baseURL string
}

func (l *fetchLoader) Load(ctx context.Context, src string) ([]byte, error) {
	if strings.HasPrefix(src, "data:") {
		return raster.DataURILoader{}.Load(ctx, src)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+src, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", src, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", src, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func result(err error) interface{} {
	if err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}
	return js.ValueOf(map[string]interface{}{"ok": true})
}

func pointerEvent(args []js.Value) engine.PointerEvent {
	var ev engine.PointerEvent
	if len(args) > 0 {
		ev.X = args[0].Float()
	}
	if len(args) > 1 {
		ev.Y = args[1].Float()
	}
	if len(args) > 2 {
		ev.Button = args[2].Int()
	}
	if len(args) > 3 {
		ev.Shift = args[3].Truthy()
	}
	return ev
}

func bytesArg(v js.Value) []byte {
	if v.Type() == js.TypeString {
		data, _, err := raster.DecodeDataURI(v.String())
		if err != nil {
			return nil
		}
		return data
	}
	buf := make([]byte, v.Get("length").Int())
	js.CopyBytesToGo(buf, v)
	return buf
}

// --- Command Handlers ---

func loadScene(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing scene JSON"})
	}
	var sc scene.Scene
	if err := json.Unmarshal([]byte(args[0].String()), &sc); err != nil {
		return result(err)
	}
	next, err := newEngine(sc)
	if err != nil {
		return result(err)
	}
	eng.Close()
	eng = next
	return result(nil)
}

func setAssetBaseURL(this js.Value, args []js.Value) interface{} {
	if len(args) > 0 {
		loader.baseURL = strings.TrimRight(args[0].String(), "/")
	}
	return nil
}

func pointerDown(this js.Value, args []js.Value) interface{} {
	eng.PointerDown(pointerEvent(args))
	return nil
}

func pointerMove(this js.Value, args []js.Value) interface{} {
	eng.PointerMove(pointerEvent(args))
	return nil
}

func pointerUp(this js.Value, args []js.Value) interface{} {
	eng.PointerUp(pointerEvent(args))
	return nil
}

func pointerLeave(this js.Value, args []js.Value) interface{} {
	eng.PointerLeave()
	return nil
}

func wheel(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return nil
	}
	eng.Wheel(args[0].Float(), args[1].Float(), args[2].Float())
	return nil
}

func keyDown(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(false)
	}
	var ev engine.KeyEvent
	if err := json.Unmarshal([]byte(args[0].String()), &ev); err != nil {
		return js.ValueOf(false)
	}
	return js.ValueOf(eng.KeyDown(ev))
}

func contextMenu(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.ContextMenu())
}

func setTool(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	tool, err := engine.ParseTool(args[0].String())
	if err != nil {
		return result(err)
	}
	eng.SetTool(tool)
	return result(nil)
}

func setStyle(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	var st engine.Style
	if err := json.Unmarshal([]byte(args[0].String()), &st); err != nil {
		return result(err)
	}
	eng.SetStyle(st)
	return result(nil)
}

func setViewport(this js.Value, args []js.Value) interface{} {
	if len(args) < 4 {
		return nil
	}
	eng.SetViewport(args[0].Float(), args[1].Float(), args[2].Float(), args[3].Float())
	return nil
}

func setSelection(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || args[0].Type() != js.TypeObject {
		eng.SetSelection(nil)
		return nil
	}

	arr := args[0]
	length := arr.Length()
	ids := make([]string, length)
	for i := 0; i < length; i++ {
		ids[i] = arr.Index(i).String()
	}
	eng.SetSelection(ids)
	return nil
}

func selectAll(this js.Value, args []js.Value) interface{} {
	eng.SelectAll()
	return nil
}

func deleteSelected(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.DeleteSelected())
}

// reorder(op) moves the selection; reorder(op, id) moves one element.
func reorder(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(false)
	}
	op, err := engine.ParseLayerOp(args[0].String())
	if err != nil {
		return js.ValueOf(false)
	}
	if len(args) > 1 && args[1].Type() == js.TypeString {
		return js.ValueOf(eng.Reorder(args[1].String(), op))
	}
	return js.ValueOf(eng.ReorderSelected(op))
}

func undo(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.Undo())
}

func redo(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.Redo())
}

func beginCrop(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing element id"})
	}
	return result(eng.BeginCrop(args[0].String()))
}

func confirmCrop(this js.Value, args []js.Value) interface{} {
	return result(eng.ConfirmCrop())
}

func cancelCrop(this js.Value, args []js.Value) interface{} {
	eng.CancelCrop()
	return nil
}

// dropImage(mediaType, bytes, screenX, screenY); bytes is a Uint8Array or a
// data URI.
func dropImage(this js.Value, args []js.Value) interface{} {
	if len(args) < 4 {
		return js.ValueOf(map[string]interface{}{"error": "missing arguments"})
	}
	return result(eng.DropImage(args[0].String(), bytesArg(args[1]), args[2].Float(), args[3].Float()))
}

func pasteImage(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf(map[string]interface{}{"error": "missing arguments"})
	}
	return result(eng.PasteImage(args[0].String(), bytesArg(args[1])))
}

// addImage(src, width, height, mediaType, screenX, screenY) places an
// uploaded asset.
func addImage(this js.Value, args []js.Value) interface{} {
	if len(args) < 6 {
		return js.ValueOf("")
	}
	center := eng.Viewport().ToCanvas(args[4].Float(), args[5].Float())
	return js.ValueOf(eng.AddImageElement(args[0].String(), args[1].Float(), args[2].Float(), raster.NormalizeMediaType(args[3].String()), center))
}

func generate(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return result(engine.ErrEmptyPrompt)
	}
	return result(eng.RequestGeneration(args[0].String()))
}

func clearError(this js.Value, args []js.Value) interface{} {
	eng.ClearError()
	return nil
}

// tick applies finished background work. It returns true when the frame
// should be redrawn.
func tick(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.Drain() > 0)
}

// --- Query Handlers ---

func render(this js.Value, args []js.Value) interface{} {
	data, err := json.Marshal(eng.Render())
	if err != nil {
		return js.ValueOf("{}")
	}
	return js.ValueOf(string(data))
}

// hitTest takes screen coordinates.
func hitTest(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf("")
	}
	return js.ValueOf(eng.HitTest(eng.Viewport().ToCanvas(args[0].Float(), args[1].Float())))
}

func getScene(this js.Value, args []js.Value) interface{} {
	data, err := json.Marshal(eng.Scene())
	if err != nil {
		return js.ValueOf("[]")
	}
	return js.ValueOf(string(data))
}

func getSelection(this js.Value, args []js.Value) interface{} {
	ids := eng.Selection()
	out := make([]interface{}, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return js.ValueOf(out)
}
