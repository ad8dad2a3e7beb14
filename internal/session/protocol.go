package session

import "encoding/json"

type Message struct {
	Type     string          `json:"type"`
	BoardID  string          `json:"boardId,omitempty"`
	ClientID string          `json:"clientId,omitempty"`
	Seq      int64           `json:"seq,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

const (
	// Server to client
	TypeWelcome = "welcome"
	TypeFrame   = "frame"
	TypeError   = "error"
	TypeSaved   = "saved"

	// Pointer and viewport input
	TypePointerDown  = "pointer.down"
	TypePointerMove  = "pointer.move"
	TypePointerUp    = "pointer.up"
	TypePointerLeave = "pointer.leave"
	TypeWheel        = "wheel"
	TypeKey          = "key"
	TypeViewport     = "viewport"

	// Tool state
	TypeTool  = "tool"
	TypeStyle = "style"

	// Scene commands
	TypeSelect    = "select"
	TypeSelectAll = "select.all"
	TypeDelete    = "delete"
	TypeLayer     = "layer"
	TypeUndo      = "undo"
	TypeRedo      = "redo"

	TypeCropBegin   = "crop.begin"
	TypeCropConfirm = "crop.confirm"
	TypeCropCancel  = "crop.cancel"

	TypeImageDrop  = "image.drop"
	TypeImagePaste = "image.paste"
	TypeImageAdd   = "image.add"
	TypeGenerate   = "generate"
	TypeErrorClear = "error.clear"
)

type WelcomePayload struct {
	ClientID string `json:"clientId"`
	BoardID  string `json:"boardId"`
	Version  int    `json:"version"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

type SavedPayload struct {
	Version int `json:"version"`
}

type WheelPayload struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	DeltaY float64 `json:"deltaY"`
}

type ViewportPayload struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type ToolPayload struct {
	Tool string `json:"tool"`
}

type SelectPayload struct {
	IDs []string `json:"ids"`
}

// LayerPayload reorders one element, or the selection when ID is empty.
type LayerPayload struct {
	Op string `json:"op"`
	ID string `json:"id,omitempty"`
}

type CropBeginPayload struct {
	ID string `json:"id"`
}

// ImagePayload carries dropped or pasted bytes. X and Y are the screen
// drop point and are ignored for paste.
type ImagePayload struct {
	MediaType string  `json:"mediaType"`
	Data      []byte  `json:"data"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
}

// ImageAddPayload places an already uploaded asset centred on the screen
// point X, Y.
type ImageAddPayload struct {
	Src       string  `json:"src"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	MediaType string  `json:"mediaType"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
}

type GeneratePayload struct {
	Prompt string `json:"prompt"`
}
