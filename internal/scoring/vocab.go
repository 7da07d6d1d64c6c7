package scoring

import "regexp"

// defaultLegalTerms is the built-in legal vocabulary used by the relevance
// and density metrics. Engines copy it so runtime additions stay per-engine.
var defaultLegalTerms = []string{
	// general
	"artículo", "ley", "decreto", "norma", "reglamento", "código",
	"constitución", "jurisprudencia", "sentencia", "resolución",
	// concepts
	"derecho", "deber", "obligación", "facultad", "competencia",
	"responsabilidad", "sanción", "multa", "pena", "delito",
	// procedure
	"recurso", "apelación", "demanda", "querella", "denuncia",
	"proceso", "juicio", "instancia", "procedimiento",
	// subjects
	"tribunal", "juez", "parte", "demandante", "demandado",
	"acusado", "imputado", "fiscal", "abogado",
	// legal effects
	"nulo", "válido", "vigente", "derogado", "modificado",
	"aplicable", "exigible", "prescrito", "caducado",
	// deadlines
	"plazo", "término", "día", "hábil", "inhábil", "mes", "año",
	"vencimiento", "prórroga", "suspensión", "interrupción",
}

// clarityIndicators are the connectors and discourse markers counted by the
// contextual clarity metric. Presence is what matters, not repetition.
var clarityIndicators = []string{
	// logical connectors
	"por lo tanto", "en consecuencia", "debido a", "dado que",
	"puesto que", "ya que", "porque", "así que",
	// enumerations
	"primero", "segundo", "tercero", "finalmente",
	"en primer lugar", "en segundo lugar", "por último",
	// definitions
	"se entiende por", "es decir", "esto es", "a saber",
	"se define como", "consiste en", "significa",
	// exceptions and conditions
	"salvo", "excepto", "sin perjuicio", "a menos que",
	"siempre que", "cuando", "si", "en caso de",
}

// referencePatterns match explicit normative citations.
var referencePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)artículo\s+\d+`),
	regexp.MustCompile(`(?i)inciso\s+\w+`),
	regexp.MustCompile(`(?i)párrafo\s+\d+`),
	regexp.MustCompile(`(?i)literal\s+\w+`),
	regexp.MustCompile(`(?i)numeral\s+\d+`),
	regexp.MustCompile(`(?i)capítulo\s+[IVX]+`),
	regexp.MustCompile(`(?i)título\s+[IVX]+`),
	regexp.MustCompile(`(?i)ley\s+\d+`),
	regexp.MustCompile(`(?i)decreto\s+\d+`),
}

var (
	wordRe        = regexp.MustCompile(`[\p{L}\p{N}_]+`)
	sentenceRe    = regexp.MustCompile(`[.!?]+`)
	articleRe     = regexp.MustCompile(`(?im)artículo\s+\d+[.:]|^\s*\d+\.`)
	definitionRe  = regexp.MustCompile(`(?i)se\s+(?:entiende|define|considera)\s+(?:por|como)`)
	enumerationRe = regexp.MustCompile(`(?im)^\s*\d+\.|primero|segundo|tercero|a\)|b\)|c\)`)
)
