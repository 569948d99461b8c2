package wager

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// GameKind tags the rule set a wager is resolved with.
type GameKind string

const (
	GameSimple    GameKind = "simple"
	GameBlackjack GameKind = "blackjack"
	GameRoulette  GameKind = "roulette"
	GameSlots     GameKind = "slots"
	GamePoker     GameKind = "poker"
	GameBaccarat  GameKind = "baccarat"
	GameCraps     GameKind = "craps"
)

// String returns the wire value.
func (kind GameKind) String() string {
	return string(kind)
}

// ParseGameKind validates a game identifier.
func ParseGameKind(raw string) (GameKind, error) {
	kind := GameKind(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := gameCatalog[kind]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownGame, raw)
	}
	return kind, nil
}

// Bet choices accepted by the games that take one.
const (
	BetRed      = "red"
	BetBlack    = "black"
	BetEven     = "even"
	BetOdd      = "odd"
	BetNumber   = "number"
	BetPlayer   = "player"
	BetBanker   = "banker"
	BetTie      = "tie"
	BetPass     = "pass"
	BetDontPass = "dontpass"
	BetField    = "field"
	BetAnySeven = "any7"
)

// Ruling is a resolver's verdict for one draw, before the stake is applied.
type Ruling struct {
	Multiplier  decimal.Decimal
	Description string
}

// Resolver draws and rules one play of a game. Resolve is only called with
// parameters that passed Validate.
type Resolver interface {
	Validate(parameters Parameters) error
	Resolve(random Random, parameters Parameters) Ruling
}

// Game describes one entry of the game catalog.
type Game struct {
	Kind        GameKind
	Name        string
	Description string
	MinimumBet  decimal.Decimal
	Bets        []string
	resolver    Resolver
}

var (
	multiplierLoss = decimal.Zero
	multiplierPush = decimal.NewFromInt(1)
	multiplierEven = decimal.NewFromInt(2)
)

var gameOrder = []GameKind{GameBlackjack, GameRoulette, GamePoker, GameSlots, GameBaccarat, GameCraps, GameSimple}

var gameCatalog = map[GameKind]Game{
	GameSimple: {
		Kind:        GameSimple,
		Name:        "Quick Play",
		Description: "Single draw, 45% chance to double up",
		MinimumBet:  decimal.NewFromInt(1),
		resolver:    simpleResolver{},
	},
	GameBlackjack: {
		Kind:        GameBlackjack,
		Name:        "Blackjack",
		Description: "Classic card game",
		MinimumBet:  decimal.NewFromInt(5),
		resolver:    blackjackResolver{},
	},
	GameRoulette: {
		Kind:        GameRoulette,
		Name:        "Roulette",
		Description: "European roulette",
		MinimumBet:  decimal.NewFromInt(1),
		Bets:        []string{BetRed, BetBlack, BetEven, BetOdd, BetNumber},
		resolver:    rouletteResolver{},
	},
	GameSlots: {
		Kind:        GameSlots,
		Name:        "Slots",
		Description: "Three-reel slot machine",
		MinimumBet:  decimal.RequireFromString("0.25"),
		resolver:    slotsResolver{},
	},
	GamePoker: {
		Kind:        GamePoker,
		Name:        "Poker",
		Description: "Texas Hold'em",
		MinimumBet:  decimal.NewFromInt(10),
		resolver:    pokerResolver{},
	},
	GameBaccarat: {
		Kind:        GameBaccarat,
		Name:        "Baccarat",
		Description: "Elegant card game",
		MinimumBet:  decimal.NewFromInt(25),
		Bets:        []string{BetPlayer, BetBanker, BetTie},
		resolver:    baccaratResolver{},
	},
	GameCraps: {
		Kind:        GameCraps,
		Name:        "Craps",
		Description: "Dice game",
		MinimumBet:  decimal.NewFromInt(5),
		Bets:        []string{BetPass, BetDontPass, BetField, BetAnySeven},
		resolver:    crapsResolver{},
	},
}

// Games lists the catalog in display order.
func Games() []Game {
	games := make([]Game, 0, len(gameOrder))
	for _, kind := range gameOrder {
		games = append(games, gameCatalog[kind])
	}
	return games
}

// LookupGame returns the catalog entry for kind.
func LookupGame(kind GameKind) (Game, error) {
	game, ok := gameCatalog[kind]
	if !ok {
		return Game{}, fmt.Errorf("%w: %q", ErrUnknownGame, kind)
	}
	return game, nil
}

// Resolve computes the outcome of one play. It performs no I/O.
func Resolve(kind GameKind, amount decimal.Decimal, parameters Parameters, random Random) (Outcome, error) {
	game, err := LookupGame(kind)
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: %w", ErrInvalidWager, err)
	}
	if !amount.IsPositive() {
		return Outcome{}, fmt.Errorf("%w: amount must be greater than zero", ErrInvalidWager)
	}
	if random == nil {
		return Outcome{}, fmt.Errorf("%w: random source is nil", ErrInvalidServiceConfig)
	}
	if err := game.resolver.Validate(parameters); err != nil {
		return Outcome{}, fmt.Errorf("%w: %w", ErrInvalidWager, err)
	}
	return game.outcome(amount, game.resolver.Resolve(random, parameters)), nil
}

func (game Game) outcome(amount decimal.Decimal, ruling Ruling) Outcome {
	multiplier := ruling.Multiplier
	if multiplier.IsNegative() {
		multiplier = multiplierLoss
	}
	return Outcome{
		Game:        game.Kind,
		Amount:      amount,
		Multiplier:  multiplier,
		Payout:      roundPayout(amount, multiplier),
		Description: game.Name + descriptionSeparator + ruling.Description,
	}
}

// acceptsBet reports whether bet is one of the choices listed for the game.
func acceptsBet(choices []string, bet string) bool {
	for _, choice := range choices {
		if choice == bet {
			return true
		}
	}
	return false
}

func validateBetChoice(kind GameKind, parameters Parameters) error {
	bet := parameters.normalizedBet()
	if !acceptsBet(gameCatalog[kind].Bets, bet) {
		return fmt.Errorf("%w: %s does not accept bet %q", ErrInvalidParameters, kind, parameters.Bet)
	}
	return nil
}
