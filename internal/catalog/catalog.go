// Package catalog holds the static trick definitions used to build the deck.
package catalog

import "github.com/ensured/skate-deck-sub000/internal/domain"

var tricks = []domain.Trick{
	{ID: 1, Name: "Ollie", Difficulty: domain.DifficultyBeginner, Points: 10, Description: "Pop the tail and level out in the air."},
	{ID: 2, Name: "Nollie", Difficulty: domain.DifficultyBeginner, Points: 15, Description: "An ollie popped off the nose."},
	{ID: 3, Name: "Pop Shove-it", Difficulty: domain.DifficultyBeginner, Points: 15, Description: "Pop the board into a 180 spin under your feet."},
	{ID: 4, Name: "Frontside 180", Difficulty: domain.DifficultyBeginner, Points: 15, Description: "Ollie and turn your body and board 180 degrees frontside."},
	{ID: 5, Name: "Backside 180", Difficulty: domain.DifficultyBeginner, Points: 15, Description: "Ollie and turn your body and board 180 degrees backside."},
	{ID: 6, Name: "Fakie Ollie", Difficulty: domain.DifficultyBeginner, Points: 10, Description: "An ollie while rolling backwards."},
	{ID: 7, Name: "Manual", Difficulty: domain.DifficultyBeginner, Points: 10, Description: "Balance on the back wheels for a board length."},
	{ID: 8, Name: "Boneless", Difficulty: domain.DifficultyBeginner, Points: 15, Description: "Plant the front foot, grab and jump back on."},
	{ID: 9, Name: "Kickflip", Difficulty: domain.DifficultyIntermediate, Points: 25, Description: "Flick the board into a full flip along its length."},
	{ID: 10, Name: "Heelflip", Difficulty: domain.DifficultyIntermediate, Points: 25, Description: "Flip the board with the heel, rotating away from the toes."},
	{ID: 11, Name: "Varial Kickflip", Difficulty: domain.DifficultyIntermediate, Points: 30, Description: "A kickflip combined with a backside shove-it."},
	{ID: 12, Name: "360 Shove-it", Difficulty: domain.DifficultyIntermediate, Points: 30, Description: "Pop the board into a full 360 spin."},
	{ID: 13, Name: "Nose Manual", Difficulty: domain.DifficultyIntermediate, Points: 20, Description: "Balance on the front wheels for a board length."},
	{ID: 14, Name: "Frontside Boardslide", Difficulty: domain.DifficultyIntermediate, Points: 25, Description: "Slide the middle of the board along a rail, facing forward."},
	{ID: 15, Name: "50-50 Grind", Difficulty: domain.DifficultyIntermediate, Points: 25, Description: "Grind a ledge on both trucks."},
	{ID: 16, Name: "5-0 Grind", Difficulty: domain.DifficultyIntermediate, Points: 25, Description: "Grind a ledge on the back truck only."},
	{ID: 17, Name: "Frontside 360", Difficulty: domain.DifficultyIntermediate, Points: 30, Description: "Ollie and spin a full rotation frontside."},
	{ID: 18, Name: "Hardflip", Difficulty: domain.DifficultyAdvanced, Points: 40, Description: "A frontside shove-it combined with a kickflip, flipping between the legs."},
	{ID: 19, Name: "Inward Heelflip", Difficulty: domain.DifficultyAdvanced, Points: 40, Description: "A backside shove-it combined with a heelflip."},
	{ID: 20, Name: "Tre Flip", Difficulty: domain.DifficultyAdvanced, Points: 45, Description: "A 360 shove-it combined with a kickflip."},
	{ID: 21, Name: "Laser Flip", Difficulty: domain.DifficultyAdvanced, Points: 50, Description: "A frontside 360 shove-it combined with a heelflip."},
	{ID: 22, Name: "Smith Grind", Difficulty: domain.DifficultyAdvanced, Points: 40, Description: "Grind on the back truck with the nose dipped below the ledge."},
	{ID: 23, Name: "Feeble Grind", Difficulty: domain.DifficultyAdvanced, Points: 40, Description: "Grind on the back truck with the front truck over the rail."},
	{ID: 24, Name: "Crooked Grind", Difficulty: domain.DifficultyAdvanced, Points: 40, Description: "Grind on the front truck with the board angled."},
	{ID: 25, Name: "Nollie Heelflip", Difficulty: domain.DifficultyAdvanced, Points: 45, Description: "A heelflip popped off the nose."},
	{ID: 26, Name: "Switch Kickflip", Difficulty: domain.DifficultyAdvanced, Points: 40, Description: "A kickflip from your opposite stance."},
	{ID: 27, Name: "360 Flip Late Flip", Difficulty: domain.DifficultyPro, Points: 70, Description: "A tre flip followed by a late kickflip before landing."},
	{ID: 28, Name: "Hardflip Late Flip", Difficulty: domain.DifficultyPro, Points: 70, Description: "A hardflip followed by a late flip."},
	{ID: 29, Name: "Nollie Laser Flip", Difficulty: domain.DifficultyPro, Points: 75, Description: "A laser flip popped off the nose."},
	{ID: 30, Name: "Switch Tre Flip", Difficulty: domain.DifficultyPro, Points: 65, Description: "A tre flip from your opposite stance."},
	{ID: 31, Name: "Double Kickflip", Difficulty: domain.DifficultyPro, Points: 60, Description: "Two full kickflip rotations before catching."},
	{ID: 32, Name: "Bigspin Heelflip", Difficulty: domain.DifficultyPro, Points: 60, Description: "A heelflip with a 360 board spin and a 180 body turn."},
}

var byID = func() map[int]domain.Trick {
	m := make(map[int]domain.Trick, len(tricks))
	for _, t := range tricks {
		m[t.ID] = t
	}
	return m
}()

// AllTricks returns a copy of every trick definition in catalog order.
func AllTricks() []domain.Trick {
	out := make([]domain.Trick, len(tricks))
	copy(out, tricks)
	return out
}

// Lookup returns the trick with the given id.
func Lookup(id int) (domain.Trick, bool) {
	t, ok := byID[id]
	return t, ok
}

// Size returns the number of tricks in the catalog.
func Size() int {
	return len(tricks)
}
