package wager

import "github.com/shopspring/decimal"

type pokerHand struct {
	name        string
	probability float64
	multiplier  decimal.Decimal
}

var pokerHands = []pokerHand{
	{name: "Pair", probability: 0.4, multiplier: decimal.RequireFromString("1.5")},
	{name: "Two Pair", probability: 0.2, multiplier: decimal.NewFromInt(2)},
	{name: "Three of a Kind", probability: 0.1, multiplier: decimal.NewFromInt(3)},
	{name: "Straight", probability: 0.05, multiplier: decimal.NewFromInt(5)},
	{name: "Flush", probability: 0.03, multiplier: decimal.NewFromInt(6)},
	{name: "Full House", probability: 0.02, multiplier: decimal.NewFromInt(8)},
	{name: "Four of a Kind", probability: 0.005, multiplier: decimal.NewFromInt(25)},
	{name: "Royal Flush", probability: 0.001, multiplier: decimal.NewFromInt(100)},
}

const pokerHighCard = "High Card"

type pokerResolver struct{}

func (pokerResolver) Validate(Parameters) error {
	return nil
}

func (pokerResolver) Resolve(random Random, _ Parameters) Ruling {
	return pokerRuling(random.Float64())
}

// pokerRuling walks the cumulative hand table. Draws past the last tier
// fall through to a losing high card.
func pokerRuling(draw float64) Ruling {
	cumulative := 0.0
	for _, hand := range pokerHands {
		cumulative += hand.probability
		if draw <= cumulative {
			return Ruling{Multiplier: hand.multiplier, Description: hand.name}
		}
	}
	return Ruling{Multiplier: multiplierLoss, Description: pokerHighCard}
}
