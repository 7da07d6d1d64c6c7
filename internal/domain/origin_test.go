package domain

import "testing"

func TestOriginFromMapCoordinates(t *testing.T) {
	o, err := OriginFromMap(map[string]any{
		"titulo":         "Artículo 1545",
		"pagina":         float64(12),
		"longitud_texto": float64(340),
		"coordenadas": map[string]any{
			"x":     float64(56.5),
			"y":     float64(120),
			"ancho": float64(480),
			"alto":  float64(64),
		},
	})
	if err != nil {
		t.Fatalf("OriginFromMap: %v", err)
	}
	if o.Coordinates == nil {
		t.Fatal("coordinates not parsed")
	}
	if o.Coordinates.X != 56.5 || o.Coordinates.Width != 480 || o.Coordinates.Height != 64 {
		t.Errorf("coordinates = %s", o.Coordinates)
	}
}

func TestOriginFromMapDropsNegativeCoordinates(t *testing.T) {
	o, err := OriginFromMap(map[string]any{
		"titulo":      "Artículo 1560",
		"pagina":      float64(3),
		"coordenadas": map[string]any{"x": float64(-10), "y": float64(5)},
	})
	if err != nil {
		t.Fatalf("OriginFromMap: %v", err)
	}
	if o.Coordinates != nil {
		t.Errorf("negative coordinates kept: %s", o.Coordinates)
	}
}

func TestCoordinatesFromMapValidates(t *testing.T) {
	c, err := CoordinatesFromMap(map[string]any{
		"x": float64(1), "y": float64(2), "width": float64(3), "height": float64(4),
	})
	if err != nil {
		t.Fatalf("CoordinatesFromMap: %v", err)
	}
	if c.Area() != 12 {
		t.Errorf("area = %g, want 12", c.Area())
	}
	if _, err := CoordinatesFromMap(map[string]any{"width": float64(-1)}); err == nil {
		t.Error("negative width accepted")
	}
}
