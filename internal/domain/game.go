package domain

import "time"

// Status represents the lifecycle stage of a game
type Status string

const (
	StatusLobby  Status = "lobby"
	StatusActive Status = "active"
	StatusEnded  Status = "ended"
)

// TrickResult is the outcome of a trick attempt
type TrickResult string

const (
	ResultLanded TrickResult = "landed"
	ResultMissed TrickResult = "missed"
)

// Valid reports whether r is a known trick result
func (r TrickResult) Valid() bool {
	return r == ResultLanded || r == ResultMissed
}

const (
	// DefaultWord is the game word spelled out by missed tricks
	DefaultWord = "SKATE"
	// DefaultPowerUpGrantChance is the chance of a comeback grant per resolved trick
	DefaultPowerUpGrantChance = 0.2
	// MaxPlayers caps the roster size
	MaxPlayers = 16
	// MinPlayers is the number of players needed to start a game
	MinPlayers = 2
)

// Settings holds per-game tunables
type Settings struct {
	Word               string  `json:"word"`
	WordLength         int     `json:"word_length"`
	PowerUpGrantChance float64 `json:"power_up_grant_chance"`
}

// DefaultSettings returns the standard S.K.A.T.E settings
func DefaultSettings() Settings {
	return Settings{
		Word:               DefaultWord,
		WordLength:         len(DefaultWord),
		PowerUpGrantChance: DefaultPowerUpGrantChance,
	}
}

// Letter returns the game word letter at the given 0-based index
func (s Settings) Letter(index int) string {
	if index < 0 || index >= len(s.Word) {
		return ""
	}
	return s.Word[index : index+1]
}

// GameState is the aggregate root of a game
type GameState struct {
	GameID                 string   `json:"game_id"`
	Status                 Status   `json:"status"`
	Players                []Player `json:"players"`
	CurrentPlayerID        int      `json:"current_player_id"`
	CurrentLeaderID        int      `json:"current_leader_id"`
	CurrentTrick           *Trick   `json:"current_trick"`
	Round                  int      `json:"round"`
	LeaderConsecutiveLands int      `json:"leader_consecutive_lands"`
	PendingTrickOptions    []Trick  `json:"pending_trick_options,omitempty"`
	PendingChooserID       int      `json:"pending_chooser_id,omitempty"`
	WinnerID               *int     `json:"winner_id"`
	EventLog               []string `json:"event_log"`
	Settings               Settings `json:"settings"`

	// TurnsThisRound counts lands and misses since the last round boundary.
	TurnsThisRound int `json:"turns_this_round"`
	// PendingLeaderRotation is set by a leader's third straight land.
	PendingLeaderRotation bool `json:"pending_leader_rotation"`
	// NextPlayerID is the id handed to the next added player.
	NextPlayerID int `json:"next_player_id"`
}

// Player returns the player with the given id, or nil
func (g *GameState) Player(id int) *Player {
	for i := range g.Players {
		if g.Players[i].ID == id {
			return &g.Players[i]
		}
	}
	return nil
}

// PlayerIndex returns the roster index of the player with the given id, or -1
func (g *GameState) PlayerIndex(id int) int {
	for i := range g.Players {
		if g.Players[i].ID == id {
			return i
		}
	}
	return -1
}

// ActiveCount returns the number of non-eliminated players
func (g *GameState) ActiveCount() int {
	n := 0
	for _, p := range g.Players {
		if !p.IsEliminated {
			n++
		}
	}
	return n
}

// Clone returns a deep copy of the state
func (g *GameState) Clone() *GameState {
	out := *g
	out.Players = make([]Player, len(g.Players))
	for i, p := range g.Players {
		out.Players[i] = p.clone()
	}
	if g.CurrentTrick != nil {
		t := *g.CurrentTrick
		out.CurrentTrick = &t
	}
	if g.WinnerID != nil {
		w := *g.WinnerID
		out.WinnerID = &w
	}
	out.PendingTrickOptions = append([]Trick(nil), g.PendingTrickOptions...)
	out.EventLog = append([]string(nil), g.EventLog...)
	return &out
}

// AddEvent appends an entry to the event log
func (g *GameState) AddEvent(entry string) {
	g.EventLog = append(g.EventLog, entry)
}

// Snapshot is the persisted blob holding the full engine state
type Snapshot struct {
	Version   int       `json:"version"`
	GameState GameState `json:"game_state"`
	DeckState DeckState `json:"deck_state"`
	SavedAt   time.Time `json:"saved_at"`
}

// SnapshotVersion is the current snapshot schema version
const SnapshotVersion = 1

// GameView is the state sent to clients
type GameView struct {
	State GameState  `json:"state"`
	Deck  DeckStatus `json:"deck"`
}
