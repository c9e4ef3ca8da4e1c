package game

import (
	"errors"
	"io"
	"log/slog"
	"math/rand"
	"reflect"
	"strings"
	"testing"

	"github.com/ensured/skate-deck-sub000/internal/catalog"
	"github.com/ensured/skate-deck-sub000/internal/domain"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestEngine builds a deterministic engine with no comeback grants and the
// given players already in the lobby
func newTestEngine(t *testing.T, seed int64, names ...string) (*Engine, []domain.Player) {
	t.Helper()
	settings := domain.DefaultSettings()
	settings.PowerUpGrantChance = 0
	e, err := New(catalog.AllTricks(), Options{
		Settings: settings,
		Rng:      rand.New(rand.NewSource(seed)),
		Logger:   quietLogger(),
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	players := make([]domain.Player, 0, len(names))
	for _, n := range names {
		p, err := e.AddPlayer(n)
		if err != nil {
			t.Fatalf("add %s: %v", n, err)
		}
		players = append(players, p)
	}
	return e, players
}

func mustStart(t *testing.T, e *Engine) {
	t.Helper()
	if err := e.StartGame(); err != nil {
		t.Fatalf("start: %v", err)
	}
}

func mustSubmit(t *testing.T, e *Engine, r domain.TrickResult) {
	t.Helper()
	if err := e.SubmitTrickResult(r); err != nil {
		t.Fatalf("submit %s: %v", r, err)
	}
}

func hasEvent(s *domain.GameState, substr string) bool {
	for _, ev := range s.EventLog {
		if strings.Contains(ev, substr) {
			return true
		}
	}
	return false
}

func TestValidateSettings(t *testing.T) {
	tests := []struct {
		name    string
		in      domain.Settings
		wantErr bool
		wantLen int
	}{
		{name: "defaults filled", in: domain.Settings{}, wantLen: 5},
		{name: "grind", in: domain.Settings{Word: "GRIND", PowerUpGrantChance: 0.5}, wantLen: 5},
		{name: "three letters", in: domain.Settings{Word: "PIG"}, wantLen: 3},
		{name: "lowercase", in: domain.Settings{Word: "skate"}, wantErr: true},
		{name: "too short", in: domain.Settings{Word: "GO"}, wantErr: true},
		{name: "length mismatch", in: domain.Settings{Word: "SKATE", WordLength: 4}, wantErr: true},
		{name: "chance above one", in: domain.Settings{Word: "SKATE", PowerUpGrantChance: 1.5}, wantErr: true},
		{name: "negative chance", in: domain.Settings{Word: "SKATE", PowerUpGrantChance: -0.1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateSettings(tt.in)
			if tt.wantErr {
				if !errors.Is(err, domain.ErrInvalidRequest) {
					t.Fatalf("err = %v, want ErrInvalidRequest", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.WordLength != tt.wantLen {
				t.Fatalf("word length = %d, want %d", got.WordLength, tt.wantLen)
			}
		})
	}
}

func TestStartGame(t *testing.T) {
	e, players := newTestEngine(t, 1, "Alpha")

	if err := e.StartGame(); !errors.Is(err, domain.ErrNotEnoughPlayers) {
		t.Fatalf("err = %v, want ErrNotEnoughPlayers", err)
	}
	if _, err := e.AddPlayer("Bravo"); err != nil {
		t.Fatalf("add: %v", err)
	}
	mustStart(t, e)

	s := e.State()
	if s.Status != domain.StatusActive || s.CurrentTrick == nil {
		t.Fatalf("status = %s trick = %v", s.Status, s.CurrentTrick)
	}
	if s.CurrentPlayerID != players[0].ID || s.CurrentLeaderID != players[0].ID {
		t.Fatal("creator should lead and go first")
	}
	if s.Round != 1 {
		t.Fatalf("round = %d, want 1", s.Round)
	}
	if err := e.StartGame(); !errors.Is(err, domain.ErrGameAlreadyActive) {
		t.Fatalf("err = %v, want ErrGameAlreadyActive", err)
	}

	st := e.DeckStatus()
	if st.Total != catalog.Size() || st.Remaining != catalog.Size()-1 {
		t.Fatalf("deck status = %+v", st)
	}
}

func TestStartGameWithEmptyCatalog(t *testing.T) {
	e, err := New(nil, Options{Settings: domain.DefaultSettings(), Rng: rand.New(rand.NewSource(1)), Logger: quietLogger()})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	e.AddPlayer("Alpha")
	e.AddPlayer("Bravo")

	if err := e.StartGame(); !errors.Is(err, domain.ErrDeckExhausted) {
		t.Fatalf("err = %v, want ErrDeckExhausted", err)
	}
	if s := e.State(); s.Status != domain.StatusLobby {
		t.Fatalf("failed start left status %s", s.Status)
	}
}

func TestBasicMiss(t *testing.T) {
	e, p := newTestEngine(t, 2, "Alpha", "Bravo", "Charlie")
	mustStart(t, e)
	first := e.State().CurrentTrick.ID

	mustSubmit(t, e, domain.ResultMissed)

	s := e.State()
	a := s.Player(p[0].ID)
	if a.Letters != 1 {
		t.Fatalf("letters = %d, want 1", a.Letters)
	}
	if a.IsLeader || s.CurrentLeaderID != p[1].ID {
		t.Fatalf("leader = %d, want %d", s.CurrentLeaderID, p[1].ID)
	}
	if s.CurrentPlayerID != p[1].ID {
		t.Fatalf("current = %d, want %d", s.CurrentPlayerID, p[1].ID)
	}
	if s.Round != 2 {
		t.Fatalf("round = %d, want 2", s.Round)
	}
	if s.CurrentTrick.ID == first {
		t.Fatal("expected a new trick after a miss")
	}
	if !hasEvent(s, `got the letter "S"`) {
		t.Fatalf("event log missing letter S: %v", s.EventLog)
	}
}

func TestEliminationEndsGame(t *testing.T) {
	e, p := newTestEngine(t, 3, "Alpha", "Bravo")
	mustStart(t, e)

	for step := 0; step < 100; step++ {
		s := e.State()
		if s.Status == domain.StatusEnded {
			break
		}
		if s.CurrentPlayerID == p[0].ID {
			mustSubmit(t, e, domain.ResultMissed)
		} else {
			mustSubmit(t, e, domain.ResultLanded)
		}
	}

	s := e.State()
	if s.Status != domain.StatusEnded {
		t.Fatalf("game did not end: %s", s.Status)
	}
	if s.WinnerID == nil || *s.WinnerID != p[1].ID {
		t.Fatalf("winner = %v, want %d", s.WinnerID, p[1].ID)
	}
	a := s.Player(p[0].ID)
	if !a.IsEliminated || a.Letters != 5 {
		t.Fatalf("loser = %+v", *a)
	}
	if !s.Player(p[1].ID).IsLeader {
		t.Fatal("winner should hold leadership")
	}
	if !hasEvent(s, "wins the game") {
		t.Fatal("missing win event")
	}

	if err := e.SubmitTrickResult(domain.ResultLanded); !errors.Is(err, domain.ErrGameNotActive) {
		t.Fatalf("err = %v, want ErrGameNotActive", err)
	}
}

func TestLeaderStreakRotatesAtRoundEnd(t *testing.T) {
	e, p := newTestEngine(t, 4, "Alpha", "Bravo", "Charlie")
	mustStart(t, e)

	// Two full rounds of lands, then the leader's third straight land.
	for i := 0; i < 6; i++ {
		mustSubmit(t, e, domain.ResultLanded)
	}
	before := e.State()
	if before.CurrentPlayerID != p[0].ID || before.LeaderConsecutiveLands != 2 {
		t.Fatalf("current = %d streak = %d", before.CurrentPlayerID, before.LeaderConsecutiveLands)
	}
	mustSubmit(t, e, domain.ResultLanded)

	s := e.State()
	if !s.PendingLeaderRotation {
		t.Fatal("third straight land should schedule a rotation")
	}
	if s.CurrentTrick.ID == before.CurrentTrick.ID {
		t.Fatal("third straight land should draw a new trick mid-round")
	}
	if s.LeaderConsecutiveLands != 0 {
		t.Fatalf("streak = %d, want 0 after the streak draw", s.LeaderConsecutiveLands)
	}
	if s.TurnsThisRound != 1 {
		t.Fatalf("turns this round = %d, want 1", s.TurnsThisRound)
	}
	if s.CurrentLeaderID != p[0].ID {
		t.Fatal("leader changed before the round ended")
	}
	if s.Round != 3 || s.CurrentPlayerID != p[1].ID {
		t.Fatalf("round = %d current = %d", s.Round, s.CurrentPlayerID)
	}
	if !hasEvent(s, "landed 3 in a row") {
		t.Fatal("missing streak event")
	}
	streakTrick := s.CurrentTrick.ID

	mustSubmit(t, e, domain.ResultLanded)
	mustSubmit(t, e, domain.ResultLanded)

	s = e.State()
	if s.CurrentLeaderID != p[1].ID || !s.Player(p[1].ID).IsLeader || s.Player(p[0].ID).IsLeader {
		t.Fatalf("leader = %d, want %d", s.CurrentLeaderID, p[1].ID)
	}
	if s.PendingLeaderRotation || s.LeaderConsecutiveLands != 0 {
		t.Fatal("rotation should clear the streak")
	}
	if s.Round != 4 {
		t.Fatalf("round = %d, want 4", s.Round)
	}
	if s.CurrentTrick.ID == streakTrick {
		t.Fatal("round end should draw a new trick")
	}
}

func TestShieldBlocksLetter(t *testing.T) {
	e, p := newTestEngine(t, 5, "Alpha", "Bravo", "Charlie")
	mustStart(t, e)

	if err := e.ActivatePowerUp(p[0].ID, domain.PowerUpShield, nil); err != nil {
		t.Fatalf("shield: %v", err)
	}
	s := e.State()
	if s.CurrentPlayerID != p[1].ID {
		t.Fatalf("shield should pass the turn, current = %d", s.CurrentPlayerID)
	}
	if !s.Player(p[0].ID).ShieldActive {
		t.Fatal("shield not armed")
	}

	mustSubmit(t, e, domain.ResultLanded)
	mustSubmit(t, e, domain.ResultLanded)
	if cur := e.State().CurrentPlayerID; cur != p[0].ID {
		t.Fatalf("current = %d, want %d", cur, p[0].ID)
	}
	mustSubmit(t, e, domain.ResultMissed)

	s = e.State()
	a := s.Player(p[0].ID)
	if a.Letters != 0 || a.ShieldActive {
		t.Fatalf("shield should absorb one letter: %+v", *a)
	}
	if !hasEvent(s, "shield blocked") {
		t.Fatal("missing shield event")
	}

	if err := e.ActivatePowerUp(p[0].ID, domain.PowerUpShield, nil); !errors.Is(err, domain.ErrPowerUpNotHeld) {
		t.Fatalf("err = %v, want ErrPowerUpNotHeld", err)
	}
}

func TestChooseTrickTwoStep(t *testing.T) {
	e, p := newTestEngine(t, 6, "Alpha", "Bravo")
	mustStart(t, e)
	before := e.DeckStatus()
	old := e.State().CurrentTrick.ID

	if err := e.ActivatePowerUp(p[0].ID, domain.PowerUpChooseTrick, nil); err != nil {
		t.Fatalf("reveal: %v", err)
	}
	s := e.State()
	if len(s.PendingTrickOptions) != 3 || s.PendingChooserID != p[0].ID {
		t.Fatalf("pending = %v", s.PendingTrickOptions)
	}
	if got := e.PeekDeck(3); !reflect.DeepEqual(got, s.PendingTrickOptions) {
		t.Fatalf("peek = %v, want pending options", got)
	}
	if e.DeckStatus() != before {
		t.Fatal("revealed options still count as remaining")
	}

	bad := 9999
	if err := e.ActivatePowerUp(p[0].ID, domain.PowerUpChooseTrick, &bad); !errors.Is(err, domain.ErrInvalidSelection) {
		t.Fatalf("err = %v, want ErrInvalidSelection", err)
	}
	if !reflect.DeepEqual(e.State(), s) {
		t.Fatal("rejected selection changed the state")
	}

	pick := s.PendingTrickOptions[1]
	if err := e.ActivatePowerUp(p[0].ID, domain.PowerUpChooseTrick, &pick.ID); err != nil {
		t.Fatalf("select: %v", err)
	}
	s = e.State()
	if s.CurrentTrick.ID != pick.ID {
		t.Fatalf("current trick = %d, want %d", s.CurrentTrick.ID, pick.ID)
	}
	if len(s.PendingTrickOptions) != 0 {
		t.Fatal("pending options not cleared")
	}
	if s.CurrentPlayerID != p[0].ID {
		t.Fatal("choosing a trick should not pass the turn")
	}

	snap := e.Snapshot()
	if len(snap.DeckState.DiscardPile) != 1 || snap.DeckState.DiscardPile[0] != old {
		t.Fatalf("discard = %v, want [%d]", snap.DeckState.DiscardPile, old)
	}
	if len(snap.DeckState.InView) != 0 {
		t.Fatal("unchosen options should be back in the draw pile")
	}
}

func TestChooseTrickOneShotRollsBack(t *testing.T) {
	e, p := newTestEngine(t, 7, "Alpha", "Bravo")
	mustStart(t, e)

	bad := 9999
	if err := e.ActivatePowerUp(p[1].ID, domain.PowerUpChooseTrick, &bad); !errors.Is(err, domain.ErrInvalidSelection) {
		t.Fatalf("err = %v, want ErrInvalidSelection", err)
	}
	if n := e.State().Player(p[1].ID).CountPowerUps(domain.PowerUpChooseTrick); n != 1 {
		t.Fatalf("failed one-shot consumed the power-up, count = %d", n)
	}

	options := e.PeekDeck(3)
	if len(options) != 3 {
		t.Fatalf("peek = %v", options)
	}
	if again := e.PeekDeck(3); !reflect.DeepEqual(again, options) {
		t.Fatal("peek is not idempotent")
	}
	if err := e.ActivatePowerUp(p[1].ID, domain.PowerUpChooseTrick, &options[2].ID); err != nil {
		t.Fatalf("one-shot: %v", err)
	}
	if cur := e.State().CurrentTrick.ID; cur != options[2].ID {
		t.Fatalf("current trick = %d, want %d", cur, options[2].ID)
	}

	snap := e.Snapshot()
	if snap.DeckState.DrawPile[0] != options[0].ID || snap.DeckState.DrawPile[1] != options[1].ID {
		t.Fatalf("unchosen options not back on top: %v", snap.DeckState.DrawPile[:2])
	}
}

func TestSubmitClearsPendingOptions(t *testing.T) {
	e, p := newTestEngine(t, 8, "Alpha", "Bravo")
	mustStart(t, e)

	if err := e.ActivatePowerUp(p[0].ID, domain.PowerUpChooseTrick, nil); err != nil {
		t.Fatalf("reveal: %v", err)
	}
	mustSubmit(t, e, domain.ResultLanded)

	s := e.State()
	if len(s.PendingTrickOptions) != 0 || s.PendingChooserID != 0 {
		t.Fatal("submitting should abandon the pending options")
	}
	if len(e.Snapshot().DeckState.InView) != 0 {
		t.Fatal("abandoned options still in view")
	}
}

func TestRejectedOperationsLeaveStateUntouched(t *testing.T) {
	e, p := newTestEngine(t, 9, "Alpha", "Bravo")

	if err := e.SubmitTrickResult(domain.ResultLanded); !errors.Is(err, domain.ErrGameNotActive) {
		t.Fatalf("err = %v, want ErrGameNotActive", err)
	}
	if err := e.ActivatePowerUp(p[0].ID, domain.PowerUpShield, nil); !errors.Is(err, domain.ErrGameNotActive) {
		t.Fatalf("err = %v, want ErrGameNotActive", err)
	}
	mustStart(t, e)
	before := e.State()

	checks := []struct {
		name string
		op   func() error
		want error
	}{
		{"add while active", func() error { _, err := e.AddPlayer("Charlie"); return err }, domain.ErrGameAlreadyActive},
		{"remove while active", func() error { return e.RemovePlayer(p[1].ID) }, domain.ErrGameAlreadyActive},
		{"rename while active", func() error { return e.UpdatePlayerName(p[1].ID, "Zed") }, domain.ErrGameAlreadyActive},
		{"bad result", func() error { return e.SubmitTrickResult("bailed") }, domain.ErrInvalidRequest},
		{"unknown player", func() error { return e.ActivatePowerUp(42, domain.PowerUpShield, nil) }, domain.ErrPlayerNotFound},
		{"unknown power-up", func() error { return e.ActivatePowerUp(p[0].ID, "teleport", nil) }, domain.ErrPowerUpNotHeld},
	}
	for _, c := range checks {
		t.Run(c.name, func(t *testing.T) {
			if err := c.op(); !errors.Is(err, c.want) {
				t.Fatalf("err = %v, want %v", err, c.want)
			}
			if !reflect.DeepEqual(e.State(), before) {
				t.Fatal("state changed")
			}
		})
	}
}

func TestResetPlayersAndNewGame(t *testing.T) {
	e, p := newTestEngine(t, 10, "Alpha", "Bravo", "Charlie")
	mustStart(t, e)
	mustSubmit(t, e, domain.ResultMissed)
	mustSubmit(t, e, domain.ResultLanded)
	oldID := e.State().GameID

	e.ResetPlayers()
	s := e.State()
	if s.Status != domain.StatusLobby || s.CurrentTrick != nil || s.Round != 1 {
		t.Fatalf("reset state = %+v", s)
	}
	if s.GameID == oldID {
		t.Fatal("reset should start a new game id")
	}
	if len(s.Players) != 3 {
		t.Fatalf("players = %d, want 3", len(s.Players))
	}
	for _, pl := range s.Players {
		if pl.Letters != 0 || pl.Score != 0 || pl.IsEliminated || len(pl.PowerUps) != 2 {
			t.Fatalf("player not reset: %+v", pl)
		}
	}
	if s.CurrentLeaderID != p[0].ID || s.CurrentPlayerID != p[0].ID {
		t.Fatal("creator should lead after a reset")
	}
	if st := e.DeckStatus(); st.Remaining != st.Total {
		t.Fatalf("deck not rebuilt: %+v", st)
	}

	added, err := e.AddPlayer("Delta")
	if err != nil {
		t.Fatalf("add after reset: %v", err)
	}
	if added.ID <= p[2].ID {
		t.Fatalf("player id %d reused", added.ID)
	}

	e.NewGame()
	s = e.State()
	if len(s.Players) != 0 || s.Status != domain.StatusLobby {
		t.Fatalf("new game state = %+v", s)
	}
}

// TestRandomPlayHoldsInvariants drives random games to the end and checks the
// leader, deck and letter invariants after every step.
func TestRandomPlayHoldsInvariants(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		rng := rand.New(rand.NewSource(seed * 31))
		e, err := New(catalog.AllTricks(), Options{
			Settings: domain.DefaultSettings(),
			Rng:      rand.New(rand.NewSource(seed)),
			Logger:   quietLogger(),
		})
		if err != nil {
			t.Fatalf("new: %v", err)
		}
		n := 2 + rng.Intn(4)
		for i := 0; i < n; i++ {
			e.AddPlayer(string(rune('A'+i)) + "-skater")
		}
		mustStart(t, e)

		letters := map[int]int{}
		ended := false
		for step := 0; step < 5000; step++ {
			s := e.State()
			if s.Status == domain.StatusEnded {
				ended = true
				break
			}
			switch roll := rng.Intn(10); {
			case roll < 8:
				r := domain.ResultLanded
				if rng.Intn(2) == 0 {
					r = domain.ResultMissed
				}
				mustSubmit(t, e, r)
			case len(s.PendingTrickOptions) > 0:
				pick := s.PendingTrickOptions[rng.Intn(len(s.PendingTrickOptions))].ID
				if err := e.ActivatePowerUp(s.PendingChooserID, domain.PowerUpChooseTrick, &pick); err != nil {
					t.Fatalf("seed %d: select: %v", seed, err)
				}
			default:
				pl := s.Players[rng.Intn(len(s.Players))]
				pu := domain.PowerUpTypes[rng.Intn(len(domain.PowerUpTypes))]
				_ = e.ActivatePowerUp(pl.ID, pu, nil)
			}
			checkInvariants(t, e, letters)
		}
		if !ended {
			t.Fatalf("seed %d: game did not end", seed)
		}
		s := e.State()
		if s.WinnerID == nil || s.ActiveCount() != 1 || s.Player(*s.WinnerID).IsEliminated {
			t.Fatalf("seed %d: bad final state, winner %v", seed, s.WinnerID)
		}
	}
}

func checkInvariants(t *testing.T, e *Engine, letters map[int]int) {
	t.Helper()
	snap := e.Snapshot()
	s := snap.GameState

	if s.Status == domain.StatusActive {
		leaders := 0
		for _, p := range s.Players {
			if p.IsLeader {
				leaders++
				if p.ID != s.CurrentLeaderID || p.IsEliminated {
					t.Fatalf("bad leader %+v", p)
				}
			}
		}
		if leaders != 1 {
			t.Fatalf("%d leaders", leaders)
		}
		if cur := s.Player(s.CurrentPlayerID); cur == nil || cur.IsEliminated {
			t.Fatalf("current player %d is not active", s.CurrentPlayerID)
		}
	}

	held := len(snap.DeckState.DrawPile) + len(snap.DeckState.DiscardPile) + len(snap.DeckState.InView)
	if s.CurrentTrick != nil {
		held++
	}
	if held != catalog.Size() {
		t.Fatalf("deck holds %d of %d tricks", held, catalog.Size())
	}

	for _, p := range s.Players {
		if p.Letters < letters[p.ID] {
			t.Fatalf("player %d letters went from %d to %d", p.ID, letters[p.ID], p.Letters)
		}
		letters[p.ID] = p.Letters
		if p.IsEliminated != (p.Letters >= s.Settings.WordLength) {
			t.Fatalf("player %d eliminated=%v with %d letters", p.ID, p.IsEliminated, p.Letters)
		}
		if n := p.CountPowerUps(domain.PowerUpShield); n > 2 {
			t.Fatalf("player %d holds %d shields", p.ID, n)
		}
	}
}
