package wager

import "fmt"

const (
	blackjackCardFaces = 10
	blackjackLimit     = 21
)

type blackjackResolver struct{}

func (blackjackResolver) Validate(Parameters) error {
	return nil
}

func (blackjackResolver) Resolve(random Random, _ Parameters) Ruling {
	player := rollDie(random, blackjackCardFaces) + rollDie(random, blackjackCardFaces)
	dealer := rollDie(random, blackjackCardFaces) + rollDie(random, blackjackCardFaces)
	return blackjackRuling(player, dealer)
}

// blackjackRuling rules a two-card hand against the dealer's two cards.
// A player bust loses even when the dealer also busts.
func blackjackRuling(player int, dealer int) Ruling {
	hands := fmt.Sprintf("player %d, dealer %d", player, dealer)
	switch {
	case player > blackjackLimit:
		return Ruling{Multiplier: multiplierLoss, Description: "Bust! " + hands}
	case dealer > blackjackLimit:
		return Ruling{Multiplier: multiplierEven, Description: "Dealer busts! " + hands}
	case player > dealer:
		return Ruling{Multiplier: multiplierEven, Description: "You win! " + hands}
	case player == dealer:
		return Ruling{Multiplier: multiplierPush, Description: "Push. " + hands}
	default:
		return Ruling{Multiplier: multiplierLoss, Description: "Dealer wins. " + hands}
	}
}
