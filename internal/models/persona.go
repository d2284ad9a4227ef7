// internal/models/persona.go
package models

type PersonaStyle string

const (
	StyleFriendly     PersonaStyle = "friendly"
	StyleProfessional PersonaStyle = "professional"
	StyleConcise      PersonaStyle = "concise"
)

type ReadingLevel string

const (
	Reading6th  ReadingLevel = "6th"
	Reading8th  ReadingLevel = "8th"
	Reading10th ReadingLevel = "10th"
)

type EmojiDensity string

const (
	EmojiLow    EmojiDensity = "low"
	EmojiMedium EmojiDensity = "medium"
	EmojiHigh   EmojiDensity = "high"
)

// Persona holds the stylistic knobs applied at render time. It never
// influences rule matching or offer math.
type Persona struct {
	Style        PersonaStyle `json:"style"`
	ReadingLevel ReadingLevel `json:"readingLevel"`
	Emoji        EmojiDensity `json:"emoji"`
}

// DefaultPersona is used when a caller supplies no persona.
func DefaultPersona() Persona {
	return Persona{Style: StyleFriendly, ReadingLevel: Reading8th, Emoji: EmojiMedium}
}
