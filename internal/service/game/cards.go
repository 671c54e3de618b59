package game

import (
	"math/rand"
	"strings"

	appErr "oneten-service/pkg/errors"
)

// Joker is the single extra card in the 53-card deck. It belongs to every
// trump suit and to no plain suit.
const Joker = "Joker"

var suits = []string{"H", "D", "C", "S"}

var deckRanks = []string{"2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K", "A"}

var suitNames = map[string]string{
	"H": "Hearts",
	"D": "Diamonds",
	"C": "Clubs",
	"S": "Spades",
}

// Rank bands. Trump cards always beat lead-suit cards, lead-suit cards
// always beat off-suit cards.
const (
	rankFiveOfTrump  = 1015
	rankJackOfTrump  = 1014
	rankJoker        = 1013
	rankAceOfHearts  = 1012
	rankAceOfTrump   = 1011
	rankKingOfTrump  = 1010
	rankQueenOfTrump = 1009
)

// Number trumps follow the "highest in red, lowest in black" rule: in Hearts
// and Diamonds 10 is the best number card and 2 the worst, in Clubs and
// Spades the order flips.
var redTrumpNumbers = map[string]int{
	"10": 1008, "9": 1007, "8": 1006, "7": 1005,
	"6": 1004, "4": 1003, "3": 1002, "2": 1001,
}

var blackTrumpNumbers = map[string]int{
	"2": 1008, "3": 1007, "4": 1006, "6": 1005,
	"7": 1004, "8": 1003, "9": 1002, "10": 1001,
}

// Plain-suit order when the card follows the lead. The Ace is the lowest red
// card but the fourth-best black card.
var redLeadOrder = map[string]int{
	"K": 513, "Q": 512, "J": 511, "10": 510, "9": 509, "8": 508,
	"7": 507, "6": 506, "5": 505, "4": 504, "3": 503, "2": 502, "A": 501,
}

var blackLeadOrder = map[string]int{
	"K": 513, "Q": 512, "J": 511, "A": 510, "2": 509, "3": 508,
	"4": 507, "5": 506, "6": 505, "7": 504, "8": 503, "9": 502, "10": 501,
}

// NewDeck returns the 53 cards in random order.
func NewDeck() []string {
	deck := make([]string, 0, 53)
	for _, s := range suits {
		for _, r := range deckRanks {
			deck = append(deck, s+r)
		}
	}
	deck = append(deck, Joker)
	rand.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})
	return deck
}

// SuitOf returns H, D, C or S, or "" for the Joker.
func SuitOf(card string) string {
	if card == Joker || card == "" {
		return ""
	}
	return card[:1]
}

// RankOf returns the rank part of a card code ("2".."10", "J", "Q", "K", "A").
func RankOf(card string) string {
	if card == Joker || len(card) < 2 {
		return ""
	}
	return card[1:]
}

func isRedSuit(suit string) bool {
	return suit == "H" || suit == "D"
}

// IsValidCard reports whether card is one of the 53 deck cards.
func IsValidCard(card string) bool {
	if card == Joker {
		return true
	}
	suit := SuitOf(card)
	if _, ok := suitNames[suit]; !ok {
		return false
	}
	rank := RankOf(card)
	for _, r := range deckRanks {
		if r == rank {
			return true
		}
	}
	return false
}

// IsTrump reports whether card is a trump under trumpSuit. The Joker and the
// Ace of Hearts are trump in every suit.
func IsTrump(card, trumpSuit string) bool {
	if card == Joker || card == "HA" {
		return true
	}
	return SuitOf(card) == trumpSuit
}

// RenegingRank orders the four reneging cards: the 5 of trump outranks the
// Jack of trump, which outranks the Joker, which outranks the Ace of Hearts.
// Non-reneging cards rank 0.
func RenegingRank(card, trumpSuit string) int {
	switch {
	case card == trumpSuit+"5":
		return 4
	case card == trumpSuit+"J":
		return 3
	case card == Joker:
		return 2
	case card == "HA":
		return 1
	}
	return 0
}

// IsRenegingCard reports whether card may be held back when its suit is led,
// unless a higher reneging card forces it out.
func IsRenegingCard(card, trumpSuit string) bool {
	return RenegingRank(card, trumpSuit) > 0
}

// RankValue returns the comparable strength of a card within a trick.
// Trump cards score in the 1000s, lead-suit cards in the 500s, everything
// else 0.
func RankValue(card, trumpSuit, leadSuit string) int {
	if IsTrump(card, trumpSuit) {
		switch {
		case card == trumpSuit+"5":
			return rankFiveOfTrump
		case card == trumpSuit+"J":
			return rankJackOfTrump
		case card == Joker:
			return rankJoker
		case card == "HA":
			if trumpSuit == "H" {
				return rankAceOfTrump
			}
			return rankAceOfHearts
		case card == trumpSuit+"A":
			return rankAceOfTrump
		case card == trumpSuit+"K":
			return rankKingOfTrump
		case card == trumpSuit+"Q":
			return rankQueenOfTrump
		}
		if isRedSuit(trumpSuit) {
			return redTrumpNumbers[RankOf(card)]
		}
		return blackTrumpNumbers[RankOf(card)]
	}

	if SuitOf(card) == leadSuit {
		if isRedSuit(leadSuit) {
			return redLeadOrder[RankOf(card)]
		}
		return blackLeadOrder[RankOf(card)]
	}

	return 0
}

// effectiveLeadSuit is the suit a trick's lead card demands. A trump lead,
// including the Joker or the Ace of Hearts, demands trump.
func effectiveLeadSuit(leadCard, trumpSuit string) string {
	if IsTrump(leadCard, trumpSuit) {
		return trumpSuit
	}
	return SuitOf(leadCard)
}

// highestRenegingInTrick returns the best reneging rank played so far, 0 if
// none.
func highestRenegingInTrick(trick []PlayedCard, trumpSuit string) int {
	highest := 0
	for _, pc := range trick {
		if r := RenegingRank(pc.Card, trumpSuit); r > highest {
			highest = r
		}
	}
	return highest
}

// MustFollowSuit reports whether a hand holds at least one card that is
// obliged to follow leadSuit. Reneging cards of the lead suit only count
// when a higher reneging card has already been played in the trick. When the
// lead suit is trump, the Joker and the Ace of Hearts belong to it.
func MustFollowSuit(hand []string, leadSuit, trumpSuit string, trick []PlayedCard) bool {
	highestPlayed := highestRenegingInTrick(trick, trumpSuit)
	for _, card := range hand {
		inLeadSuit := SuitOf(card) == leadSuit ||
			(leadSuit == trumpSuit && IsTrump(card, trumpSuit))
		if !inLeadSuit {
			continue
		}
		if r := RenegingRank(card, trumpSuit); r > 0 {
			if highestPlayed > r {
				return true
			}
			continue
		}
		return true
	}
	return false
}

// forcedFollowCards lists the cards a hand would satisfy the lead with, for
// rule-violation messages.
func forcedFollowCards(hand []string, leadSuit, trumpSuit string, trick []PlayedCard) []string {
	highestPlayed := highestRenegingInTrick(trick, trumpSuit)
	var forced []string
	for _, card := range hand {
		inLeadSuit := SuitOf(card) == leadSuit ||
			(leadSuit == trumpSuit && IsTrump(card, trumpSuit))
		if !inLeadSuit {
			continue
		}
		if r := RenegingRank(card, trumpSuit); r > 0 && highestPlayed <= r {
			continue
		}
		forced = append(forced, card)
	}
	return forced
}

// NormalizeTrumpSuit accepts "H" or "Hearts" in any case and returns the
// single-letter suit.
func NormalizeTrumpSuit(input string) (string, error) {
	s := strings.TrimSpace(input)
	if len(s) == 1 {
		u := strings.ToUpper(s)
		if _, ok := suitNames[u]; ok {
			return u, nil
		}
	}
	for letter, name := range suitNames {
		if strings.EqualFold(s, name) {
			return letter, nil
		}
	}
	return "", appErr.Validation("invalid trump suit: %s", input)
}

// maxSwapCardsFor shrinks the swap allowance as the table fills so the
// remaining deck can serve every non-winner.
func maxSwapCardsFor(playerCount int) int {
	switch {
	case playerCount >= 8:
		return 1
	case playerCount == 7:
		return 2
	default:
		return 3
	}
}
