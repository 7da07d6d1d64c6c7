package domain

import "fmt"

// Origin records where in the source document a question came from, for
// traceability back to the original text.
type Origin struct {
	Title       string       `json:"titulo"`
	Page        int          `json:"pagina"`
	Coordinates *Coordinates `json:"coordenadas,omitempty"`
	TextLength  int          `json:"longitud_texto"`
	SectionID   string       `json:"id_seccion,omitempty"`
	Author      string       `json:"autor,omitempty"`
	Source      string       `json:"fuente,omitempty"`
}

// NewOrigin validates the required reference fields.
func NewOrigin(title string, page int, textLength int) (Origin, error) {
	if title == "" {
		return Origin{}, fmt.Errorf("origin: title is required")
	}
	if page < 1 {
		return Origin{}, fmt.Errorf("origin: page must be >= 1, got %d", page)
	}
	if textLength < 0 {
		return Origin{}, fmt.Errorf("origin: text length must be >= 0, got %d", textLength)
	}
	return Origin{Title: title, Page: page, TextLength: textLength}, nil
}

// OriginFromSection derives an origin from a classified section.
func OriginFromSection(s *Section) Origin {
	return Origin{
		Title:       s.Title,
		Page:        s.Page,
		Coordinates: s.Coordinates,
		TextLength:  s.TextLength(),
		SectionID:   s.ID,
	}
}

// OriginFromMap builds an origin from a decoded JSON object. Both the current
// field names and their English counterparts are accepted.
func OriginFromMap(data map[string]any) (Origin, error) {
	o := Origin{
		Title:      FirstString(data, "", "titulo", "title"),
		Page:       FirstInt(data, 1, "pagina", "page"),
		TextLength: FirstInt(data, 0, "longitud_texto", "text_length"),
		SectionID:  FirstString(data, "", "id_seccion", "section_id"),
		Author:     FirstString(data, "", "autor", "author"),
		Source:     FirstString(data, "", "fuente", "source"),
	}
	if o.Title == "" {
		o.Title = "Sin título"
	}
	if cm := FirstMap(data, "coordenadas", "coordinates"); cm != nil {
		if c, err := CoordinatesFromMap(cm); err == nil {
			o.Coordinates = &c
		}
	}
	return o, nil
}

// Reference renders a short human-readable citation.
func (o Origin) Reference() string {
	return fmt.Sprintf("%s (pág. %d)", o.Title, o.Page)
}

// ToMap serializes the origin for export, omitting empty optional fields.
func (o Origin) ToMap() map[string]any {
	m := map[string]any{
		"titulo":         o.Title,
		"pagina":         o.Page,
		"longitud_texto": o.TextLength,
	}
	if o.Coordinates != nil {
		m["coordenadas"] = map[string]any{
			"x":      o.Coordinates.X,
			"y":      o.Coordinates.Y,
			"width":  o.Coordinates.Width,
			"height": o.Coordinates.Height,
		}
	}
	if o.SectionID != "" {
		m["id_seccion"] = o.SectionID
	}
	if o.Author != "" {
		m["autor"] = o.Author
	}
	if o.Source != "" {
		m["fuente"] = o.Source
	}
	return m
}
