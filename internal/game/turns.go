package game

import (
	"fmt"

	"github.com/ensured/skate-deck-sub000/internal/domain"
	"github.com/ensured/skate-deck-sub000/internal/powerup"
	"github.com/ensured/skate-deck-sub000/internal/roster"
)

// LeaderStreak is the number of straight leader lands that forces a new trick
// and hands leadership on at the next round boundary.
const LeaderStreak = 3

func (t *transition) start() error {
	s := t.state
	if s.Status != domain.StatusLobby {
		return domain.ErrGameAlreadyActive
	}
	if len(s.Players) < domain.MinPlayers {
		return domain.ErrNotEnoughPlayers
	}

	t.deck.Initialize(t.catalog)
	trick, err := t.deck.Draw()
	if err != nil {
		return err
	}

	creator := roster.Creator(s)
	s.Status = domain.StatusActive
	s.CurrentTrick = &trick
	s.CurrentPlayerID = creator.ID
	roster.SetLeader(s, creator.ID)
	s.Round = 1
	s.TurnsThisRound = 0
	s.LeaderConsecutiveLands = 0
	s.PendingLeaderRotation = false
	s.PendingTrickOptions = nil
	s.PendingChooserID = 0
	s.WinnerID = nil
	s.AddEvent(fmt.Sprintf("Game on! %s leads with %s", creator.Name, trick.Name))
	return nil
}

func (t *transition) submit(result domain.TrickResult) error {
	t.clearPending()
	actor := t.state.Player(t.state.CurrentPlayerID)
	if actor == nil || actor.IsEliminated {
		return fmt.Errorf("%w: no current player", domain.ErrGameNotActive)
	}
	if result == domain.ResultLanded {
		return t.landed(actor)
	}
	return t.missed(actor)
}

func (t *transition) missed(p *domain.Player) error {
	s := t.state
	wasLeader := p.ID == s.CurrentLeaderID
	trickName := s.CurrentTrick.Name

	if p.ShieldActive {
		p.ShieldActive = false
		s.AddEvent(fmt.Sprintf("%s missed %s but the shield blocked the letter", p.Name, trickName))
	} else {
		letter := s.Settings.Letter(p.Letters)
		p.Letters++
		s.AddEvent(fmt.Sprintf("%s missed %s and got the letter %q", p.Name, trickName, letter))
		if p.Letters >= s.Settings.WordLength {
			p.IsEliminated = true
			s.AddEvent(fmt.Sprintf("%s spelled %s and is out", p.Name, s.Settings.Word))
		}
	}

	if s.ActiveCount() <= 1 {
		t.end()
		return nil
	}

	if err := t.nextTrick(); err != nil {
		return err
	}
	s.CurrentPlayerID = roster.NextActive(s, p.ID)
	s.Round++
	s.TurnsThisRound = 0

	if wasLeader {
		s.PendingLeaderRotation = false
		t.rotateLeader(p.ID)
	} else if s.PendingLeaderRotation {
		s.PendingLeaderRotation = false
		t.rotateLeader(s.CurrentLeaderID)
	}

	powerup.Grant(s, t.rng)
	return nil
}

func (t *transition) landed(p *domain.Player) error {
	s := t.state
	s.AddEvent(fmt.Sprintf("%s landed %s (+%d)", p.Name, s.CurrentTrick.Name, s.CurrentTrick.Points))
	p.Score += s.CurrentTrick.Points

	streak := false
	if p.ID == s.CurrentLeaderID {
		s.LeaderConsecutiveLands++
		if s.LeaderConsecutiveLands >= LeaderStreak {
			s.LeaderConsecutiveLands = 0
			s.PendingLeaderRotation = true
			streak = true
			s.AddEvent(fmt.Sprintf("%s landed %d in a row", p.Name, LeaderStreak))
		}
	}

	s.CurrentPlayerID = roster.NextActive(s, p.ID)
	s.TurnsThisRound++

	switch {
	case s.TurnsThisRound >= s.ActiveCount():
		s.Round++
		s.TurnsThisRound = 0
		if err := t.nextTrick(); err != nil {
			return err
		}
		if s.PendingLeaderRotation {
			s.PendingLeaderRotation = false
			t.rotateLeader(s.CurrentLeaderID)
		}
	case streak:
		if err := t.nextTrick(); err != nil {
			return err
		}
	}

	powerup.Grant(s, t.rng)
	return nil
}

// nextTrick discards the current trick and draws a replacement
func (t *transition) nextTrick() error {
	s := t.state
	if s.CurrentTrick != nil {
		t.deck.Discard(*s.CurrentTrick)
		s.CurrentTrick = nil
	}
	trick, err := t.deck.Draw()
	if err != nil {
		return err
	}
	s.CurrentTrick = &trick
	s.AddEvent(fmt.Sprintf("New trick: %s", trick.Name))
	return nil
}

// rotateLeader hands leadership to the next active player after fromID
func (t *transition) rotateLeader(fromID int) {
	s := t.state
	next := roster.NextActive(s, fromID)
	if next == 0 {
		return
	}
	roster.SetLeader(s, next)
	s.LeaderConsecutiveLands = 0
	s.AddEvent(fmt.Sprintf("%s is now the leader", s.Player(next).Name))
}

// passTurn moves the turn on without a trick attempt
func (t *transition) passTurn() {
	s := t.state
	t.clearPending()
	from := s.Player(s.CurrentPlayerID)
	s.CurrentPlayerID = roster.NextActive(s, s.CurrentPlayerID)
	if from != nil {
		s.AddEvent(fmt.Sprintf("%s passed the turn to %s", from.Name, s.Player(s.CurrentPlayerID).Name))
	}
}

// clearPending returns any peeked cards to the deck
func (t *transition) clearPending() {
	t.deck.Abandon()
	t.state.PendingTrickOptions = nil
	t.state.PendingChooserID = 0
}

func (t *transition) end() {
	s := t.state
	t.clearPending()
	winner := roster.FirstActive(s)
	s.Status = domain.StatusEnded
	if winner == 0 {
		return
	}
	s.WinnerID = &winner
	if leader := s.Player(s.CurrentLeaderID); leader == nil || leader.IsEliminated {
		roster.SetLeader(s, winner)
	}
	s.AddEvent(fmt.Sprintf("%s wins the game!", s.Player(winner).Name))
}
