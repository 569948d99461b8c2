package wager

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	roulettePockets   = 37
	rouletteMaxNumber = roulettePockets - 1
)

var rouletteStraightUp = decimal.NewFromInt(36)

var rouletteRedNumbers = map[int]struct{}{
	1: {}, 3: {}, 5: {}, 7: {}, 9: {}, 12: {}, 14: {}, 16: {}, 18: {},
	19: {}, 21: {}, 23: {}, 25: {}, 27: {}, 30: {}, 32: {}, 34: {}, 36: {},
}

type rouletteResolver struct{}

func (rouletteResolver) Validate(parameters Parameters) error {
	if err := validateBetChoice(GameRoulette, parameters); err != nil {
		return err
	}
	if parameters.normalizedBet() != BetNumber {
		return nil
	}
	if parameters.Number == nil {
		return fmt.Errorf("%w: number bet requires a number", ErrInvalidParameters)
	}
	if *parameters.Number < 0 || *parameters.Number > rouletteMaxNumber {
		return fmt.Errorf("%w: number %d out of range", ErrInvalidParameters, *parameters.Number)
	}
	return nil
}

func (rouletteResolver) Resolve(random Random, parameters Parameters) Ruling {
	return rouletteRuling(random.IntN(roulettePockets), parameters)
}

func rouletteColor(number int) string {
	if number == 0 {
		return "green"
	}
	if _, red := rouletteRedNumbers[number]; red {
		return BetRed
	}
	return BetBlack
}

// rouletteRuling rules a bet against the winning pocket. Zero is neither
// red, black, even nor odd.
func rouletteRuling(number int, parameters Parameters) Ruling {
	description := fmt.Sprintf("Ball landed on %d (%s)", number, rouletteColor(number))
	won := false
	multiplier := multiplierEven
	switch parameters.normalizedBet() {
	case BetRed, BetBlack:
		won = number != 0 && rouletteColor(number) == parameters.normalizedBet()
	case BetEven:
		won = number != 0 && number%2 == 0
	case BetOdd:
		won = number%2 == 1
	case BetNumber:
		won = parameters.Number != nil && *parameters.Number == number
		multiplier = rouletteStraightUp
	}
	if !won {
		return Ruling{Multiplier: multiplierLoss, Description: description}
	}
	return Ruling{Multiplier: multiplier, Description: description}
}
