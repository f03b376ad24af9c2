package overlay

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"ppestation/internal/models"
)

// Placement is one box resolved to integer surface coordinates with its
// rendered label text.
type Placement struct {
	X1, Y1, X2, Y2 int
	Label          string
}

// Layout maps boxes onto a rendering surface of the given dimensions. The
// surface is assumed resized to the source frame's native size, so box
// coordinates transfer 1:1 with no scaling; boxes that fall outside the
// surface or are degenerate are dropped.
func Layout(width, height int, boxes []models.BoundingBox) []Placement {
	placements := make([]Placement, 0, len(boxes))
	for _, box := range boxes {
		if !box.Valid() {
			continue
		}
		if box.X1 < 0 || box.Y1 < 0 || box.X2 > float64(width) || box.Y2 > float64(height) {
			continue
		}
		placements = append(placements, Placement{
			X1:    int(box.X1),
			Y1:    int(box.Y1),
			X2:    int(box.X2),
			Y2:    int(box.Y2),
			Label: FormatLabel(box),
		})
	}
	return placements
}

// FormatLabel renders the overlay caption for a box.
func FormatLabel(box models.BoundingBox) string {
	return fmt.Sprintf("%s (%.1f%%)", box.Label, box.Confidence*100)
}

// Renderer draws bounding boxes onto frames. Every call decodes the frame
// fresh, so the drawing surface always matches the frame's native
// dimensions; reusing a stale surface would misalign the boxes.
type Renderer struct {
	outline color.RGBA
}

// NewRenderer creates a renderer with the default green outline.
func NewRenderer() *Renderer {
	return &Renderer{
		outline: color.RGBA{R: 0, G: 255, B: 0, A: 0},
	}
}

// Annotate draws the given boxes over the JPEG frame and returns the
// re-encoded result. Prior drawings never survive a redraw because the
// surface is rebuilt from the source frame each time.
func (r *Renderer) Annotate(frame []byte, boxes []models.BoundingBox) ([]byte, error) {
	mat, err := gocv.IMDecode(frame, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame: %v", err)
	}
	defer mat.Close()

	if mat.Empty() {
		return nil, fmt.Errorf("decoded frame is empty")
	}

	for _, p := range Layout(mat.Cols(), mat.Rows(), boxes) {
		rect := image.Rect(p.X1, p.Y1, p.X2, p.Y2)
		if err := gocv.Rectangle(&mat, rect, r.outline, 2); err != nil {
			return nil, fmt.Errorf("failed to draw rectangle: %v", err)
		}

		pt := image.Pt(p.X1, p.Y1-5)
		if err := gocv.PutText(&mat, p.Label, pt, gocv.FontHersheySimplex, 0.5, r.outline, 1); err != nil {
			return nil, fmt.Errorf("failed to draw label: %v", err)
		}
	}

	buf, err := gocv.IMEncode(".jpg", mat)
	if err != nil {
		return nil, fmt.Errorf("failed to encode frame: %v", err)
	}
	defer buf.Close()

	annotated := make([]byte, len(buf.GetBytes()))
	copy(annotated, buf.GetBytes())

	return annotated, nil
}
