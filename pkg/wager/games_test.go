package wager

import (
	"errors"
	"testing"
)

func TestSimpleRuling(test *testing.T) {
	test.Parallel()
	assertDecimal(test, "win", "2", simpleRuling(0.44).Multiplier)
	assertDecimal(test, "threshold", "0", simpleRuling(0.45).Multiplier)
	assertDecimal(test, "loss", "0", simpleRuling(0.99).Multiplier)
}

func TestBlackjackRuling(test *testing.T) {
	test.Parallel()
	testCases := []struct {
		name   string
		player int
		dealer int
		want   string
	}{
		{name: "player bust", player: 22, dealer: 18, want: "0"},
		{name: "both bust", player: 23, dealer: 25, want: "0"},
		{name: "dealer bust", player: 15, dealer: 22, want: "2"},
		{name: "player higher", player: 20, dealer: 17, want: "2"},
		{name: "push", player: 18, dealer: 18, want: "1"},
		{name: "dealer higher", player: 12, dealer: 19, want: "0"},
	}
	for _, testCase := range testCases {
		assertDecimal(test, testCase.name, testCase.want, blackjackRuling(testCase.player, testCase.dealer).Multiplier)
	}
}

func TestRouletteZeroLosesOutsideBets(test *testing.T) {
	test.Parallel()
	for _, bet := range []string{BetRed, BetBlack, BetEven, BetOdd} {
		assertDecimal(test, bet, "0", rouletteRuling(0, Parameters{Bet: bet}).Multiplier)
	}
	assertDecimal(test, "straight zero", "36", rouletteRuling(0, NumberParameters(0)).Multiplier)
}

func TestRouletteRuling(test *testing.T) {
	test.Parallel()
	testCases := []struct {
		name       string
		number     int
		parameters Parameters
		want       string
	}{
		{name: "red hit", number: 1, parameters: Parameters{Bet: "RED"}, want: "2"},
		{name: "red miss", number: 2, parameters: Parameters{Bet: BetRed}, want: "0"},
		{name: "black hit", number: 2, parameters: Parameters{Bet: BetBlack}, want: "2"},
		{name: "black miss", number: 36, parameters: Parameters{Bet: BetBlack}, want: "0"},
		{name: "even hit", number: 36, parameters: Parameters{Bet: BetEven}, want: "2"},
		{name: "odd hit", number: 35, parameters: Parameters{Bet: BetOdd}, want: "2"},
		{name: "odd miss", number: 10, parameters: Parameters{Bet: BetOdd}, want: "0"},
		{name: "number hit", number: 17, parameters: NumberParameters(17), want: "36"},
		{name: "number miss", number: 18, parameters: NumberParameters(17), want: "0"},
	}
	for _, testCase := range testCases {
		assertDecimal(test, testCase.name, testCase.want, rouletteRuling(testCase.number, testCase.parameters).Multiplier)
	}
}

func TestRouletteValidation(test *testing.T) {
	test.Parallel()
	resolver := rouletteResolver{}
	outOfRange := 37
	invalid := []Parameters{{}, {Bet: "green"}, {Bet: BetNumber}, {Bet: BetNumber, Number: &outOfRange}, NumberParameters(-1)}
	for _, parameters := range invalid {
		if err := resolver.Validate(parameters); !errors.Is(err, ErrInvalidParameters) {
			test.Fatalf("%+v: expected ErrInvalidParameters, got %v", parameters, err)
		}
	}
	for _, parameters := range []Parameters{{Bet: BetRed}, {Bet: " Odd "}, NumberParameters(0), NumberParameters(36)} {
		if err := resolver.Validate(parameters); err != nil {
			test.Fatalf("%+v: unexpected error %v", parameters, err)
		}
	}
}

func TestSlotsRuling(test *testing.T) {
	test.Parallel()
	assertDecimal(test, "jackpot", "50", slotsRuling("🍒", "🍒", "🍒").Multiplier)
	assertDecimal(test, "three diamonds", "10", slotsRuling("💎", "💎", "💎").Multiplier)
	assertDecimal(test, "two cherries", "3", slotsRuling("🍒", "🍒", "🍋").Multiplier)
	assertDecimal(test, "outer pair", "3", slotsRuling("⭐", "🍋", "⭐").Multiplier)
	assertDecimal(test, "no match", "0", slotsRuling("🍒", "🍋", "⭐").Multiplier)
}

func TestPokerRulingUsesCumulativeTable(test *testing.T) {
	test.Parallel()
	testCases := []struct {
		draw float64
		want string
		hand string
	}{
		{draw: 0, want: "1.5", hand: "Pair"},
		{draw: 0.4, want: "1.5", hand: "Pair"},
		{draw: 0.5, want: "2", hand: "Two Pair"},
		{draw: 0.65, want: "3", hand: "Three of a Kind"},
		{draw: 0.72, want: "5", hand: "Straight"},
		{draw: 0.77, want: "6", hand: "Flush"},
		{draw: 0.79, want: "8", hand: "Full House"},
		{draw: 0.804, want: "25", hand: "Four of a Kind"},
		{draw: 0.8055, want: "100", hand: "Royal Flush"},
		{draw: 0.9, want: "0", hand: pokerHighCard},
		{draw: 0.999, want: "0", hand: pokerHighCard},
	}
	for _, testCase := range testCases {
		ruling := pokerRuling(testCase.draw)
		assertDecimal(test, testCase.hand, testCase.want, ruling.Multiplier)
		if ruling.Description != testCase.hand {
			test.Fatalf("draw %v: expected %s, got %s", testCase.draw, testCase.hand, ruling.Description)
		}
	}
}

func TestBaccaratRuling(test *testing.T) {
	test.Parallel()
	testCases := []struct {
		name   string
		player int
		banker int
		bet    string
		want   string
	}{
		{name: "player wins", player: 8, banker: 3, bet: BetPlayer, want: "2"},
		{name: "player loses", player: 3, banker: 8, bet: BetPlayer, want: "0"},
		{name: "banker wins", player: 2, banker: 9, bet: BetBanker, want: "1.95"},
		{name: "banker on tie", player: 5, banker: 5, bet: BetBanker, want: "0"},
		{name: "tie", player: 5, banker: 5, bet: BetTie, want: "8"},
		{name: "tie miss", player: 6, banker: 5, bet: BetTie, want: "0"},
	}
	for _, testCase := range testCases {
		assertDecimal(test, testCase.name, testCase.want, baccaratRuling(testCase.player, testCase.banker, Parameters{Bet: testCase.bet}).Multiplier)
	}
}

func TestCrapsRuling(test *testing.T) {
	test.Parallel()
	testCases := []struct {
		bet   string
		total int
		want  string
	}{
		{bet: BetPass, total: 7, want: "2"},
		{bet: BetPass, total: 11, want: "2"},
		{bet: BetPass, total: 2, want: "0"},
		{bet: BetDontPass, total: 3, want: "2"},
		{bet: BetDontPass, total: 12, want: "0"},
		{bet: BetField, total: 4, want: "2"},
		{bet: BetField, total: 12, want: "2"},
		{bet: BetField, total: 7, want: "0"},
		{bet: BetAnySeven, total: 7, want: "4"},
		{bet: BetAnySeven, total: 8, want: "0"},
	}
	for _, testCase := range testCases {
		assertDecimal(test, testCase.bet, testCase.want, crapsRuling(testCase.total, Parameters{Bet: testCase.bet}).Multiplier)
	}
}

func TestResolveAppliesStakeAndLabel(test *testing.T) {
	test.Parallel()
	random := &scriptedRandom{ints: []int{4, 4}}
	outcome, err := Resolve(GameBaccarat, mustDecimal(test, "25"), Parameters{Bet: BetBanker}, &scriptedRandom{ints: []int{0, 0, 3, 4}})
	if err != nil {
		test.Fatalf("resolve: %v", err)
	}
	assertDecimal(test, "multiplier", "1.95", outcome.Multiplier)
	assertDecimal(test, "payout", "48.75", outcome.Payout)
	if outcome.Description != "Baccarat - Banker wins, player 2, banker 9" {
		test.Fatalf("unexpected description %q", outcome.Description)
	}

	outcome, err = Resolve(GameCraps, mustDecimal(test, "5"), Parameters{Bet: BetAnySeven}, random)
	if err != nil {
		test.Fatalf("resolve craps: %v", err)
	}
	assertDecimal(test, "craps payout", "0", outcome.Payout)
	if outcome.PaysOut() {
		test.Fatalf("expected a losing roll of 10")
	}
}

func TestResolveRejectsInvalidInput(test *testing.T) {
	test.Parallel()
	random := NewSeededRandom(1)
	testCases := []struct {
		name       string
		game       GameKind
		amount     string
		parameters Parameters
	}{
		{name: "unknown game", game: GameKind("keno"), amount: "5"},
		{name: "zero amount", game: GameSimple, amount: "0"},
		{name: "baccarat without side", game: GameBaccarat, amount: "25"},
		{name: "craps unknown bet", game: GameCraps, amount: "5", parameters: Parameters{Bet: "hardway"}},
	}
	for _, testCase := range testCases {
		if _, err := Resolve(testCase.game, mustDecimal(test, testCase.amount), testCase.parameters, random); !errors.Is(err, ErrInvalidWager) {
			test.Fatalf("%s: expected ErrInvalidWager, got %v", testCase.name, err)
		}
	}
}

func TestSeededResolveIsReproducible(test *testing.T) {
	test.Parallel()
	for _, game := range Games() {
		parameters := Parameters{}
		if len(game.Bets) > 0 {
			parameters.Bet = game.Bets[0]
		}
		first, err := Resolve(game.Kind, game.MinimumBet, parameters, NewSeededRandom(99))
		if err != nil {
			test.Fatalf("%s: %v", game.Kind, err)
		}
		second, err := Resolve(game.Kind, game.MinimumBet, parameters, NewSeededRandom(99))
		if err != nil {
			test.Fatalf("%s: %v", game.Kind, err)
		}
		if first.Description != second.Description || !first.Payout.Equal(second.Payout) {
			test.Fatalf("%s: seeded outcomes differ: %+v vs %+v", game.Kind, first, second)
		}
	}
}

func TestCatalogMinimumBets(test *testing.T) {
	test.Parallel()
	expected := map[GameKind]string{
		GameSimple:    "1",
		GameBlackjack: "5",
		GameRoulette:  "1",
		GameSlots:     "0.25",
		GamePoker:     "10",
		GameBaccarat:  "25",
		GameCraps:     "5",
	}
	games := Games()
	if len(games) != len(expected) {
		test.Fatalf("expected %d games, got %d", len(expected), len(games))
	}
	for _, game := range games {
		assertDecimal(test, game.Kind.String(), expected[game.Kind], game.MinimumBet)
	}
	if _, err := ParseGameKind(" Roulette "); err != nil {
		test.Fatalf("parse: %v", err)
	}
	if _, err := ParseGameKind("keno"); !errors.Is(err, ErrUnknownGame) {
		test.Fatalf("expected ErrUnknownGame, got %v", err)
	}
}
