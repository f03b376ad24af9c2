package overlay

import (
	"testing"

	"ppestation/internal/models"
)

func TestLayout_Alignment(t *testing.T) {
	// With the surface sized to the frame's native dimensions, box
	// coordinates transfer 1:1 with no scaling.
	boxes := []models.BoundingBox{
		{X1: 10, Y1: 20, X2: 110, Y2: 220, Confidence: 0.9, Label: "person"},
		{X1: 0, Y1: 0, X2: 640, Y2: 480, Confidence: 0.5, Label: "vest"},
	}

	placements := Layout(640, 480, boxes)
	if len(placements) != 2 {
		t.Fatalf("Expected 2 placements, got %d", len(placements))
	}

	for i, p := range placements {
		box := boxes[i]
		if float64(p.X1) != box.X1 || float64(p.Y1) != box.Y1 ||
			float64(p.X2) != box.X2 || float64(p.Y2) != box.Y2 {
			t.Errorf("Placement %d does not match box coordinates: %+v vs %+v", i, p, box)
		}
	}
}

func TestLayout_DropsDegenerateBoxes(t *testing.T) {
	boxes := []models.BoundingBox{
		{X1: 100, Y1: 100, X2: 50, Y2: 200, Label: "person"},  // x1 > x2
		{X1: 100, Y1: 100, X2: 100, Y2: 200, Label: "person"}, // zero width
		{X1: 10, Y1: 20, X2: 30, Y2: 40, Label: "helmet"},
	}

	placements := Layout(640, 480, boxes)
	if len(placements) != 1 {
		t.Fatalf("Expected 1 placement, got %d", len(placements))
	}
	if placements[0].X1 != 10 {
		t.Errorf("Wrong box survived: %+v", placements[0])
	}
}

func TestLayout_DropsOutOfSurfaceBoxes(t *testing.T) {
	boxes := []models.BoundingBox{
		{X1: -5, Y1: 10, X2: 50, Y2: 60, Label: "person"},
		{X1: 600, Y1: 10, X2: 700, Y2: 60, Label: "person"},
		{X1: 10, Y1: 400, X2: 50, Y2: 500, Label: "person"},
	}

	if placements := Layout(640, 480, boxes); len(placements) != 0 {
		t.Errorf("Expected boxes outside the surface to be dropped, got %d", len(placements))
	}
}

func TestFormatLabel(t *testing.T) {
	tests := []struct {
		box  models.BoundingBox
		want string
	}{
		{models.BoundingBox{Label: "helmet", Confidence: 0.873}, "helmet (87.3%)"},
		{models.BoundingBox{Label: "person", Confidence: 1}, "person (100.0%)"},
		{models.BoundingBox{Label: "vest", Confidence: 0}, "vest (0.0%)"},
	}

	for _, tt := range tests {
		if got := FormatLabel(tt.box); got != tt.want {
			t.Errorf("FormatLabel(%q, %v) = %q, want %q", tt.box.Label, tt.box.Confidence, got, tt.want)
		}
	}
}
