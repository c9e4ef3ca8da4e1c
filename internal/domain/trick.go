package domain

// Difficulty grades a trick definition
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
	DifficultyPro          Difficulty = "pro"
)

// Valid reports whether d is one of the known difficulty grades
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced, DifficultyPro:
		return true
	}
	return false
}

// Trick is an immutable trick definition from the catalog
type Trick struct {
	ID          int        `json:"id"`
	Name        string     `json:"name"`
	Difficulty  Difficulty `json:"difficulty"`
	Points      int        `json:"points"`
	Description string     `json:"description"`
}

// DeckState is the serialized form of the deck, as catalog trick ids
type DeckState struct {
	DrawPile    []int `json:"draw_pile"`
	DiscardPile []int `json:"discard_pile"`
	InView      []int `json:"in_view,omitempty"`
}

// DeckStatus reports how many cards are left to draw
type DeckStatus struct {
	Remaining int `json:"remaining"`
	Total     int `json:"total"`
}
