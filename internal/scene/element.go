package scene

import "github.com/inamate/inamate/canvas-go/internal/typeid"

// Kind discriminates the element variants.
type Kind string

const (
	KindImage Kind = "image"
	KindPath  Kind = "path"
	KindShape Kind = "shape"
)

// ShapeKind is the geometry drawn by a Shape element.
type ShapeKind string

const (
	ShapeRectangle ShapeKind = "rectangle"
	ShapeCircle    ShapeKind = "circle"
	ShapeTriangle  ShapeKind = "triangle"
)

// Valid reports whether k is one of the known shape kinds.
func (k ShapeKind) Valid() bool {
	switch k {
	case ShapeRectangle, ShapeCircle, ShapeTriangle:
		return true
	}
	return false
}

// Transparent is the fill value that disables filling a shape.
const Transparent = "transparent"

// Element is a scene object. The set of implementations is closed: *Image,
// *Path and *Shape.
type Element interface {
	ElementID() string
	Kind() Kind
	// Clone returns a deep copy that shares no mutable state with the receiver.
	Clone() Element
	element()
}

// Image is a placed raster image.
type Image struct {
	ID        string  `json:"id"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	Src       string  `json:"src"` // data: URI or asset URL
	MediaType string  `json:"mediaType"`
}

// Path is a freehand stroke. Points are kept in stroke order.
type Path struct {
	ID          string  `json:"id"`
	Points      []Point `json:"points"`
	Stroke      string  `json:"stroke"`
	StrokeWidth float64 `json:"strokeWidth"`
}

// Shape is a geometric primitive inscribed in its rect.
type Shape struct {
	ID          string    `json:"id"`
	Shape       ShapeKind `json:"shape"`
	X           float64   `json:"x"`
	Y           float64   `json:"y"`
	Width       float64   `json:"width"`
	Height      float64   `json:"height"`
	Stroke      string    `json:"stroke"`
	StrokeWidth float64   `json:"strokeWidth"`
	Fill        string    `json:"fill"`
}

func (e *Image) ElementID() string { return e.ID }
func (e *Path) ElementID() string  { return e.ID }
func (e *Shape) ElementID() string { return e.ID }

func (*Image) Kind() Kind { return KindImage }
func (*Path) Kind() Kind  { return KindPath }
func (*Shape) Kind() Kind { return KindShape }

func (e *Image) Clone() Element {
	c := *e
	return &c
}

func (e *Path) Clone() Element {
	c := *e
	c.Points = append([]Point(nil), e.Points...)
	return &c
}

func (e *Shape) Clone() Element {
	c := *e
	return &c
}

func (*Image) element() {}
func (*Path) element()  {}
func (*Shape) element() {}

// NewImage creates an image element with a fresh id.
func NewImage(x, y, width, height float64, src, mediaType string) *Image {
	return &Image{
		ID:        typeid.NewImageID(),
		X:         x,
		Y:         y,
		Width:     width,
		Height:    height,
		Src:       src,
		MediaType: mediaType,
	}
}

// NewPath creates a path element starting at p.
func NewPath(p Point, stroke string, strokeWidth float64) *Path {
	return &Path{
		ID:          typeid.NewPathID(),
		Points:      []Point{p},
		Stroke:      stroke,
		StrokeWidth: strokeWidth,
	}
}

// NewShape creates a zero-size shape anchored at p.
func NewShape(kind ShapeKind, p Point, stroke string, strokeWidth float64, fill string) *Shape {
	return &Shape{
		ID:          typeid.NewShapeID(),
		Shape:       kind,
		X:           p.X,
		Y:           p.Y,
		Stroke:      stroke,
		StrokeWidth: strokeWidth,
		Fill:        fill,
	}
}
