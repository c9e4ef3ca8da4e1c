package service

import (
	"context"
	"fmt"

	"github.com/ensured/skate-deck-sub000/internal/domain"
)

// ApplyIntent dispatches a forwarded player intent to the matching operation
func (s *GameService) ApplyIntent(ctx context.Context, in domain.Intent) error {
	switch in.Type {
	case domain.IntentAddPlayer:
		_, err := s.AddPlayer(ctx, in.Name)
		return err
	case domain.IntentRemovePlayer:
		return s.RemovePlayer(ctx, in.PlayerID)
	case domain.IntentRenamePlayer:
		return s.RenamePlayer(ctx, in.PlayerID, in.Name)
	case domain.IntentStartGame:
		return s.StartGame(ctx)
	case domain.IntentSubmitResult:
		return s.SubmitResult(ctx, in.Result)
	case domain.IntentActivatePowerUp:
		return s.ActivatePowerUp(ctx, in.PlayerID, in.PowerUp, in.TrickID)
	case domain.IntentResetPlayers:
		s.ResetPlayers(ctx)
		return nil
	case domain.IntentNewGame:
		s.NewGame(ctx)
		return nil
	}
	return fmt.Errorf("%w: unknown intent type %q", domain.ErrInvalidRequest, in.Type)
}

// ApplyIntents applies intents in order. Rejected intents are logged and
// skipped; the count of applied intents is returned.
func (s *GameService) ApplyIntents(ctx context.Context, intents []domain.Intent) int {
	applied := 0
	for _, in := range intents {
		if err := s.ApplyIntent(ctx, in); err != nil {
			s.logger.Debug("intent rejected",
				"type", in.Type,
				"player_id", in.PlayerID,
				"error", err,
			)
			continue
		}
		applied++
	}
	return applied
}
