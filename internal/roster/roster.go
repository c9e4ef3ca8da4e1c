// Package roster validates and mutates the set of players in a game.
package roster

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ensured/skate-deck-sub000/internal/domain"
	"github.com/ensured/skate-deck-sub000/internal/powerup"
)

const (
	MinNameLength = 2
	MaxNameLength = 20
)

var namePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9 _.'-]*$`)

// ValidateName trims the name and checks its length and character set
func ValidateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if n := len([]rune(name)); n < MinNameLength || n > MaxNameLength {
		return "", fmt.Errorf("%w: must be %d-%d characters", domain.ErrInvalidName, MinNameLength, MaxNameLength)
	}
	if !namePattern.MatchString(name) {
		return "", fmt.Errorf("%w: only letters, digits, spaces and _ . ' - are allowed", domain.ErrInvalidName)
	}
	return name, nil
}

// nameTaken reports whether another player already uses the name, ignoring case
func nameTaken(state *domain.GameState, name string, exceptID int) bool {
	for _, p := range state.Players {
		if p.ID != exceptID && strings.EqualFold(p.Name, name) {
			return true
		}
	}
	return false
}

// AddPlayer appends a new player to a lobby roster. The first player becomes
// creator and leader. Every player starts with one of each power-up.
func AddPlayer(state *domain.GameState, name string, maxPlayers int) (domain.Player, error) {
	if state.Status != domain.StatusLobby {
		return domain.Player{}, domain.ErrGameAlreadyActive
	}
	name, err := ValidateName(name)
	if err != nil {
		return domain.Player{}, err
	}
	if nameTaken(state, name, 0) {
		return domain.Player{}, domain.ErrDuplicateName
	}
	if maxPlayers <= 0 || maxPlayers > domain.MaxPlayers {
		maxPlayers = domain.MaxPlayers
	}
	if len(state.Players) >= maxPlayers {
		return domain.Player{}, domain.ErrRosterFull
	}

	if state.NextPlayerID < 1 {
		state.NextPlayerID = 1
	}
	player := domain.Player{
		ID:       state.NextPlayerID,
		Name:     name,
		PowerUps: powerup.StartingInventory(),
	}
	state.NextPlayerID++

	if len(state.Players) == 0 {
		player.IsCreator = true
		player.IsLeader = true
		state.CurrentLeaderID = player.ID
		state.CurrentPlayerID = player.ID
	}
	state.Players = append(state.Players, player)
	state.AddEvent(fmt.Sprintf("%s joined the game", player.Name))
	return player, nil
}

// RemovePlayer removes a player from a lobby roster. The creator stays.
func RemovePlayer(state *domain.GameState, id int) error {
	if state.Status != domain.StatusLobby {
		return domain.ErrGameAlreadyActive
	}
	idx := state.PlayerIndex(id)
	if idx < 0 {
		return domain.ErrPlayerNotFound
	}
	if state.Players[idx].IsCreator {
		return domain.ErrCannotRemoveCreator
	}
	name := state.Players[idx].Name
	state.Players = append(state.Players[:idx], state.Players[idx+1:]...)
	state.AddEvent(fmt.Sprintf("%s left the game", name))
	return nil
}

// RenamePlayer changes a player's name while the game is in the lobby
func RenamePlayer(state *domain.GameState, id int, name string) error {
	if state.Status != domain.StatusLobby {
		return domain.ErrGameAlreadyActive
	}
	p := state.Player(id)
	if p == nil {
		return domain.ErrPlayerNotFound
	}
	name, err := ValidateName(name)
	if err != nil {
		return err
	}
	if nameTaken(state, name, id) {
		return domain.ErrDuplicateName
	}
	if p.Name != name {
		state.AddEvent(fmt.Sprintf("%s is now %s", p.Name, name))
		p.Name = name
	}
	return nil
}

// Creator returns the creator of the roster, or nil when the roster is empty
func Creator(state *domain.GameState) *domain.Player {
	for i := range state.Players {
		if state.Players[i].IsCreator {
			return &state.Players[i]
		}
	}
	return nil
}

// NextActive returns the id of the first non-eliminated player after fromID
// in roster order, wrapping around. It returns 0 when nobody is left.
func NextActive(state *domain.GameState, fromID int) int {
	n := len(state.Players)
	if n == 0 {
		return 0
	}
	start := state.PlayerIndex(fromID)
	for step := 1; step <= n; step++ {
		p := state.Players[(start+step+n)%n]
		if !p.IsEliminated {
			return p.ID
		}
	}
	return 0
}

// FirstActive returns the id of the first non-eliminated player in roster order
func FirstActive(state *domain.GameState) int {
	for _, p := range state.Players {
		if !p.IsEliminated {
			return p.ID
		}
	}
	return 0
}

// SetLeader makes id the only leader
func SetLeader(state *domain.GameState, id int) {
	for i := range state.Players {
		state.Players[i].IsLeader = state.Players[i].ID == id
	}
	state.CurrentLeaderID = id
}

// Reset clears letters, scores and eliminations, restores the starting
// inventory, and makes the creator leader and current player again.
func Reset(state *domain.GameState) {
	for i := range state.Players {
		p := &state.Players[i]
		p.Letters = 0
		p.Score = 0
		p.IsEliminated = false
		p.ShieldActive = false
		p.PowerUps = powerup.StartingInventory()
	}
	state.CurrentLeaderID = 0
	state.CurrentPlayerID = 0
	if c := Creator(state); c != nil {
		SetLeader(state, c.ID)
		state.CurrentPlayerID = c.ID
	}
}
