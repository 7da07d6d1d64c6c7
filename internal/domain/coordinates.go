package domain

import "fmt"

// Coordinates is the position and size of an element on a source page.
// Immutable; compared by value.
type Coordinates struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// NewCoordinates validates that position and dimensions are non-negative.
func NewCoordinates(x, y, width, height float64) (Coordinates, error) {
	if x < 0 || y < 0 {
		return Coordinates{}, fmt.Errorf("coordinates cannot be negative: x=%g y=%g", x, y)
	}
	if width < 0 || height < 0 {
		return Coordinates{}, fmt.Errorf("dimensions cannot be negative: w=%g h=%g", width, height)
	}
	return Coordinates{X: x, Y: y, Width: width, Height: height}, nil
}

// CoordinatesFromMap reads coordinates from a decoded JSON object,
// accepting both primary and legacy key names. Negative values are
// rejected the same way NewCoordinates rejects them.
func CoordinatesFromMap(data map[string]any) (Coordinates, error) {
	return NewCoordinates(
		FirstFloat(data, 0, "x"),
		FirstFloat(data, 0, "y"),
		FirstFloat(data, 0, "width", "ancho"),
		FirstFloat(data, 0, "height", "alto"),
	)
}

// Area returns width*height.
func (c Coordinates) Area() float64 {
	return c.Width * c.Height
}

// Overlaps reports whether two boxes intersect.
func (c Coordinates) Overlaps(other Coordinates) bool {
	return !(c.X+c.Width < other.X ||
		other.X+other.Width < c.X ||
		c.Y+c.Height < other.Y ||
		other.Y+other.Height < c.Y)
}

func (c Coordinates) String() string {
	return fmt.Sprintf("(%.2f, %.2f) [%.2fx%.2f]", c.X, c.Y, c.Width, c.Height)
}
