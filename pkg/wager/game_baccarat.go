package wager

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const baccaratCardFaces = 9

var (
	baccaratBankerPayout = decimal.RequireFromString("1.95")
	baccaratTiePayout    = decimal.NewFromInt(8)
)

type baccaratResolver struct{}

func (baccaratResolver) Validate(parameters Parameters) error {
	return validateBetChoice(GameBaccarat, parameters)
}

func (baccaratResolver) Resolve(random Random, parameters Parameters) Ruling {
	player := (rollDie(random, baccaratCardFaces) + rollDie(random, baccaratCardFaces)) % 10
	banker := (rollDie(random, baccaratCardFaces) + rollDie(random, baccaratCardFaces)) % 10
	return baccaratRuling(player, banker, parameters)
}

func baccaratRuling(player int, banker int, parameters Parameters) Ruling {
	description := fmt.Sprintf("player %d, banker %d", player, banker)
	switch bet := parameters.normalizedBet(); {
	case bet == BetPlayer && player > banker:
		return Ruling{Multiplier: multiplierEven, Description: "Player wins, " + description}
	case bet == BetBanker && banker > player:
		return Ruling{Multiplier: baccaratBankerPayout, Description: "Banker wins, " + description}
	case bet == BetTie && player == banker:
		return Ruling{Multiplier: baccaratTiePayout, Description: "Tie, " + description}
	default:
		return Ruling{Multiplier: multiplierLoss, Description: "Lost, " + description}
	}
}
