package wager

import (
	"strings"

	"github.com/shopspring/decimal"
)

const slotsReelCount = 3

var slotsSymbols = []string{"🍒", "🍋", "🍊", "🍇", "⭐", "💎"}

const slotsJackpotSymbol = "🍒"

var (
	slotsJackpot   = decimal.NewFromInt(50)
	slotsThreeKind = decimal.NewFromInt(10)
	slotsPair      = decimal.NewFromInt(3)
)

type slotsResolver struct{}

func (slotsResolver) Validate(Parameters) error {
	return nil
}

func (slotsResolver) Resolve(random Random, _ Parameters) Ruling {
	reels := make([]string, slotsReelCount)
	for index := range reels {
		reels[index] = slotsSymbols[random.IntN(len(slotsSymbols))]
	}
	return slotsRuling(reels[0], reels[1], reels[2])
}

func slotsRuling(first string, second string, third string) Ruling {
	description := strings.Join([]string{first, second, third}, " ")
	switch {
	case first == second && second == third && first == slotsJackpotSymbol:
		return Ruling{Multiplier: slotsJackpot, Description: description + " JACKPOT!"}
	case first == second && second == third:
		return Ruling{Multiplier: slotsThreeKind, Description: description + " Three of a kind!"}
	case first == second || second == third || first == third:
		return Ruling{Multiplier: slotsPair, Description: description + " Two of a kind!"}
	default:
		return Ruling{Multiplier: multiplierLoss, Description: description}
	}
}
