package wager

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const crapsDieFaces = 6

var crapsAnySevenPayout = decimal.NewFromInt(4)

type crapsResolver struct{}

func (crapsResolver) Validate(parameters Parameters) error {
	return validateBetChoice(GameCraps, parameters)
}

func (crapsResolver) Resolve(random Random, parameters Parameters) Ruling {
	return crapsRuling(rollDie(random, crapsDieFaces)+rollDie(random, crapsDieFaces), parameters)
}

func crapsRuling(total int, parameters Parameters) Ruling {
	description := fmt.Sprintf("Rolled %d", total)
	won := false
	multiplier := multiplierEven
	switch parameters.normalizedBet() {
	case BetPass:
		won = total == 7 || total == 11
	case BetDontPass:
		won = total == 2 || total == 3
	case BetField:
		won = total == 2 || total == 3 || total == 4 || total >= 9
	case BetAnySeven:
		won = total == 7
		multiplier = crapsAnySevenPayout
	}
	if !won {
		return Ruling{Multiplier: multiplierLoss, Description: description}
	}
	return Ruling{Multiplier: multiplier, Description: description}
}
