package engine

import (
	"math"

	"github.com/inamate/inamate/canvas-go/internal/scene"
)

// DefaultSnapThreshold is the snapping distance in screen pixels.
const DefaultSnapThreshold = 5.0

// GuideOrientation tells whether a guide is a vertical or horizontal line.
type GuideOrientation string

const (
	GuideVertical   GuideOrientation = "v"
	GuideHorizontal GuideOrientation = "h"
)

// Guide is an alignment line shown while a snap is active. Position is the x
// of a vertical guide or the y of a horizontal one; Start and End bound the
// segment along the other axis.
type Guide struct {
	Orientation GuideOrientation `json:"type"`
	Position    float64          `json:"position"`
	Start       float64          `json:"start"`
	End         float64          `json:"end"`
}

// SnapResult is the delta to apply after alignment plus the guides to draw.
type SnapResult struct {
	DX     float64
	DY     float64
	Guides []Guide
}

type snapHit struct {
	line   float64
	moving scene.Rect
}

// Snap aligns a drag. moving holds the bounds of every dragged element at its
// frozen start position, static the bounds of every other element, and
// (dx, dy) the raw drag delta. threshold is in canvas units.
//
// Each axis snaps independently to the static line closest to where one of
// the moving lines would land; ties keep the first candidate found. An axis
// with no candidate closer than threshold keeps its raw delta.
func Snap(moving, static []scene.Rect, dx, dy, threshold float64) SnapResult {
	res := SnapResult{DX: dx, DY: dy}
	if len(moving) == 0 || len(static) == 0 || threshold <= 0 {
		return res
	}

	var staticV, staticH []float64
	for _, r := range static {
		lines := scene.SnapPointsOf(r)
		staticV = append(staticV, lines.V[:]...)
		staticH = append(staticH, lines.H[:]...)
	}

	bestV, bestH := threshold, threshold
	var hitV, hitH *snapHit
	for _, m := range moving {
		lines := scene.SnapPointsOf(m)
		for _, ml := range lines.V {
			for _, sl := range staticV {
				offset := sl - ml
				if dist := math.Abs(offset - dx); dist < bestV {
					bestV = dist
					res.DX = offset
					hitV = &snapHit{line: sl, moving: m}
				}
			}
		}
		for _, ml := range lines.H {
			for _, sl := range staticH {
				offset := sl - ml
				if dist := math.Abs(offset - dy); dist < bestH {
					bestH = dist
					res.DY = offset
					hitH = &snapHit{line: sl, moving: m}
				}
			}
		}
	}

	if hitV != nil {
		r := hitV.moving.Translate(res.DX, res.DY)
		res.Guides = append(res.Guides, Guide{Orientation: GuideVertical, Position: hitV.line, Start: r.Y, End: r.Bottom()})
	}
	if hitH != nil {
		r := hitH.moving.Translate(res.DX, res.DY)
		res.Guides = append(res.Guides, Guide{Orientation: GuideHorizontal, Position: hitH.line, Start: r.X, End: r.Right()})
	}
	return res
}
