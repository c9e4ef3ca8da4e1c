// Package deck manages the shuffled trick deck: draw pile, discard pile and
// the cards currently set aside by a peek.
package deck

import (
	"fmt"
	"math/rand"

	"github.com/ensured/skate-deck-sub000/internal/domain"
)

// Deck owns the undrawn cards, the discard pile and any peeked cards.
//
// Every catalog trick is in exactly one of draw pile, discard pile, in-view
// set, or held by the caller as the current trick.
type Deck struct {
	total   int
	draw    []domain.Trick
	discard []domain.Trick
	inView  []domain.Trick
	rng     *rand.Rand
}

// New returns a deck initialized from the catalog.
func New(catalog []domain.Trick, rng *rand.Rand) *Deck {
	d := &Deck{rng: rng}
	d.Initialize(catalog)
	return d
}

// Initialize sets the draw pile to a uniformly random permutation of the
// catalog and empties the discard pile and the in-view set.
func (d *Deck) Initialize(catalog []domain.Trick) {
	d.total = len(catalog)
	d.draw = make([]domain.Trick, len(catalog))
	copy(d.draw, catalog)
	d.shuffle(d.draw)
	d.discard = nil
	d.inView = nil
}

// shuffle is an in-place Fisher-Yates shuffle
func (d *Deck) shuffle(cards []domain.Trick) {
	d.rng.Shuffle(len(cards), func(i, j int) { cards[i], cards[j] = cards[j], cards[i] })
}

// reshuffle moves the shuffled discard pile to the back of the draw pile
func (d *Deck) reshuffle() {
	if len(d.discard) == 0 {
		return
	}
	pile := d.discard
	d.discard = nil
	d.shuffle(pile)
	d.draw = append(d.draw, pile...)
}

// Draw removes and returns the first card of the draw pile, reshuffling the
// discard pile in when the draw pile is empty. Cards in view are never drawn.
func (d *Deck) Draw() (domain.Trick, error) {
	if len(d.draw) == 0 {
		d.reshuffle()
	}
	if len(d.draw) == 0 {
		return domain.Trick{}, domain.ErrDeckExhausted
	}
	t := d.draw[0]
	d.draw = d.draw[1:]
	return t, nil
}

// Discard appends a trick to the discard pile.
func (d *Deck) Discard(t domain.Trick) {
	d.discard = append(d.discard, t)
}

// Peek sets aside up to n cards from the front of the draw pile and returns
// them. Any earlier peek is abandoned first, so consecutive peeks without an
// intervening draw or selection return the same cards in the same order.
func (d *Deck) Peek(n int) []domain.Trick {
	d.Abandon()
	if n <= 0 {
		return nil
	}
	if len(d.draw) < n {
		d.reshuffle()
	}
	if n > len(d.draw) {
		n = len(d.draw)
	}
	d.inView = append([]domain.Trick(nil), d.draw[:n]...)
	d.draw = append([]domain.Trick(nil), d.draw[n:]...)
	return d.InView()
}

// InView returns a copy of the cards currently set aside by a peek.
func (d *Deck) InView() []domain.Trick {
	return append([]domain.Trick(nil), d.inView...)
}

// Select takes the in-view card with the given id out of the deck and returns
// the remaining in-view cards to the front of the draw pile.
func (d *Deck) Select(id int) (domain.Trick, error) {
	for i, t := range d.inView {
		if t.ID != id {
			continue
		}
		rest := make([]domain.Trick, 0, len(d.inView)-1)
		rest = append(rest, d.inView[:i]...)
		rest = append(rest, d.inView[i+1:]...)
		d.inView = rest
		d.Abandon()
		return t, nil
	}
	return domain.Trick{}, domain.ErrInvalidSelection
}

// Abandon returns the in-view cards to the front of the draw pile in their
// original relative order.
func (d *Deck) Abandon() {
	if len(d.inView) == 0 {
		return
	}
	pile := make([]domain.Trick, 0, len(d.inView)+len(d.draw))
	pile = append(pile, d.inView...)
	pile = append(pile, d.draw...)
	d.draw = pile
	d.inView = nil
}

// Status reports cards left to draw, counting cards in view as still in the deck.
func (d *Deck) Status() domain.DeckStatus {
	return domain.DeckStatus{
		Remaining: len(d.draw) + len(d.inView),
		Total:     d.total,
	}
}

// Clone returns an independent copy sharing the random source.
func (d *Deck) Clone() *Deck {
	return &Deck{
		total:   d.total,
		draw:    append([]domain.Trick(nil), d.draw...),
		discard: append([]domain.Trick(nil), d.discard...),
		inView:  append([]domain.Trick(nil), d.inView...),
		rng:     d.rng,
	}
}

// State returns the serialized deck.
func (d *Deck) State() domain.DeckState {
	return domain.DeckState{
		DrawPile:    ids(d.draw),
		DiscardPile: ids(d.discard),
		InView:      ids(d.inView),
	}
}

func ids(cards []domain.Trick) []int {
	out := make([]int, len(cards))
	for i, c := range cards {
		out[i] = c.ID
	}
	return out
}

// Restore rebuilds a deck from its serialized form. Every id must belong to
// the catalog and appear at most once.
func Restore(state domain.DeckState, catalog []domain.Trick, rng *rand.Rand) (*Deck, error) {
	known := make(map[int]domain.Trick, len(catalog))
	for _, t := range catalog {
		known[t.ID] = t
	}
	seen := make(map[int]bool, len(catalog))

	resolve := func(pile string, in []int) ([]domain.Trick, error) {
		out := make([]domain.Trick, 0, len(in))
		for _, id := range in {
			t, ok := known[id]
			if !ok {
				return nil, fmt.Errorf("%w: unknown trick %d in %s", domain.ErrInvalidSnapshot, id, pile)
			}
			if seen[id] {
				return nil, fmt.Errorf("%w: duplicate trick %d in %s", domain.ErrInvalidSnapshot, id, pile)
			}
			seen[id] = true
			out = append(out, t)
		}
		return out, nil
	}

	draw, err := resolve("draw pile", state.DrawPile)
	if err != nil {
		return nil, err
	}
	discard, err := resolve("discard pile", state.DiscardPile)
	if err != nil {
		return nil, err
	}
	inView, err := resolve("in-view set", state.InView)
	if err != nil {
		return nil, err
	}

	return &Deck{
		total:   len(catalog),
		draw:    draw,
		discard: discard,
		inView:  inView,
		rng:     rng,
	}, nil
}
