package domain

// PowerUpType identifies a power-up effect
type PowerUpType string

const (
	PowerUpShield      PowerUpType = "shield"
	PowerUpChooseTrick PowerUpType = "choose_trick"
)

// PowerUpTypes lists every power-up type in a stable order
var PowerUpTypes = []PowerUpType{PowerUpShield, PowerUpChooseTrick}

// Valid reports whether t is a known power-up type
func (t PowerUpType) Valid() bool {
	return t == PowerUpShield || t == PowerUpChooseTrick
}

// PowerUp is a single power-up held in a player's inventory
type PowerUp struct {
	InstanceID string      `json:"instance_id"`
	Type       PowerUpType `json:"type"`
}

// Player represents a participant in the game
type Player struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Letters      int       `json:"letters"`
	IsEliminated bool      `json:"is_eliminated"`
	IsCreator    bool      `json:"is_creator"`
	IsLeader     bool      `json:"is_leader"`
	Score        int       `json:"score"`
	PowerUps     []PowerUp `json:"power_ups"`

	// ShieldActive is set by a Shield activation and consumed by the next miss.
	ShieldActive bool `json:"shield_active"`
}

// CountPowerUps returns how many instances of t the player holds
func (p *Player) CountPowerUps(t PowerUpType) int {
	n := 0
	for _, pu := range p.PowerUps {
		if pu.Type == t {
			n++
		}
	}
	return n
}

// clone returns a deep copy of the player
func (p Player) clone() Player {
	out := p
	out.PowerUps = append([]PowerUp(nil), p.PowerUps...)
	return out
}
