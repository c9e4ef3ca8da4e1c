package domain

import "time"

// IntentType identifies a player intent forwarded by a presentation layer
type IntentType string

const (
	IntentAddPlayer       IntentType = "add_player"
	IntentRemovePlayer    IntentType = "remove_player"
	IntentRenamePlayer    IntentType = "rename_player"
	IntentStartGame       IntentType = "start_game"
	IntentSubmitResult    IntentType = "submit_result"
	IntentActivatePowerUp IntentType = "activate_power_up"
	IntentResetPlayers    IntentType = "reset_players"
	IntentNewGame         IntentType = "new_game"
)

// Intent is a single engine operation request, shared by HTTP, WebSocket and Kafka
type Intent struct {
	Type     IntentType  `json:"type"`
	PlayerID int         `json:"player_id,omitempty"`
	Name     string      `json:"name,omitempty"`
	Result   TrickResult `json:"result,omitempty"`
	PowerUp  PowerUpType `json:"power_up,omitempty"`
	TrickID  *int        `json:"trick_id,omitempty"`
}

// PlayerResult is a player's final standing in a finished game
type PlayerResult struct {
	PlayerID int    `json:"player_id"`
	Name     string `json:"name"`
	Letters  int    `json:"letters"`
	Score    int    `json:"score"`
	Winner   bool   `json:"winner"`
}

// GameResult is the history record of a finished game
type GameResult struct {
	GameID     string         `json:"game_id"`
	Word       string         `json:"word"`
	WinnerName string         `json:"winner_name"`
	Rounds     int            `json:"rounds"`
	Players    []PlayerResult `json:"players"`
	EventLog   []string       `json:"event_log,omitempty"`
	EndedAt    time.Time      `json:"ended_at"`
}

// PlayerStats aggregates a player name's results across finished games
type PlayerStats struct {
	Name        string `json:"name"`
	GamesPlayed int64  `json:"games_played"`
	Wins        int64  `json:"wins"`
	TotalScore  int64  `json:"total_score"`
}
