package deck

import (
	"fmt"
	"math/rand"
)

type Suit int

const (
	Spades Suit = iota
	Hearts
	Diamonds
	Clubs
)

func (s Suit) String() string {
	switch s {
	case Spades:
		return "SPADES"
	case Hearts:
		return "HEARTS"
	case Diamonds:
		return "DIAMONDS"
	case Clubs:
		return "CLUBS"
	default:
		return "Invalid suit"
	}
}

func (s Suit) Unicode() string {
	switch s {
	case Spades:
		return "♠"
	case Hearts:
		return "♥"
	case Diamonds:
		return "♦"
	case Clubs:
		return "♣"
	default:
		return "Invalid suit"
	}
}

// Card is an immutable (rank, suit) pair. Rank 1 is an Ace, ranks 11-13
// are the face cards.
type Card struct {
	Rank int
	Suit Suit
}

// NoCard is the sentinel carried by wire events that report a result
// without dealing a card.
var NoCard = Card{}

func NewCard(s Suit, rank int) Card {
	if rank < 1 || rank > 13 {
		panic(fmt.Sprintf("invalid card rank %d", rank))
	}
	return Card{
		Rank: rank,
		Suit: s,
	}
}

func (c Card) String() string {
	return fmt.Sprintf("%d of %s %s", c.Rank, c.Suit.String(), c.Suit.Unicode())
}

// Deck holds the undealt cards of a single round. Draw takes from the
// end; an exhausted deck silently rebuilds and reshuffles a full 52-card
// set, so Draw never fails.
type Deck struct {
	cards []Card
}

func New() *Deck {
	d := &Deck{}
	d.refill()
	return d
}

// From builds a deck with a fixed card order. Draw still takes from the
// end, so the last card given is the first one drawn.
func From(cards ...Card) *Deck {
	d := &Deck{cards: make([]Card, len(cards))}
	copy(d.cards, cards)
	return d
}

func (d *Deck) refill() {
	d.cards = d.cards[:0]
	for suit := Spades; suit <= Clubs; suit++ {
		for rank := 1; rank <= 13; rank++ {
			d.cards = append(d.cards, NewCard(suit, rank))
		}
	}
	rand.Shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
}

func (d *Deck) Draw() Card {
	if len(d.cards) == 0 {
		d.refill()
	}
	c := d.cards[len(d.cards)-1]
	d.cards = d.cards[:len(d.cards)-1]
	return c
}

func (d *Deck) Remaining() int {
	return len(d.cards)
}

// Hand is the ordered cards held by one side of a round.
type Hand []Card

// Value computes the blackjack total. Aces count as 11, then drop to 1
// one at a time while the total busts. The computation never mutates the
// hand, so it is safe to call repeatedly.
func (h Hand) Value() int {
	total := 0
	aces := 0
	for _, c := range h {
		switch {
		case c.Rank == 1:
			aces++
			total += 11
		case c.Rank >= 10:
			total += 10
		default:
			total += c.Rank
		}
	}
	for total > 21 && aces > 0 {
		total -= 10
		aces--
	}
	return total
}
