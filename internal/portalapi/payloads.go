package portalapi

import (
	"encoding/json"

	"github.com/MarkoPoloResearchLab/wagering/internal/portal"
	"github.com/MarkoPoloResearchLab/wagering/internal/remote"
	"github.com/MarkoPoloResearchLab/wagering/pkg/wager"
	"github.com/shopspring/decimal"
)

const amountPlaces = 2

type loginRequest struct {
	DocumentNumber string `json:"document_number"`
}

type playRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Bet    string          `json:"bet"`
	Number *int            `json:"number"`
}

type rechargeRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method"`
}

type ticketRequest struct {
	Subject     string `json:"subject"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

type balancePayload struct {
	Available string `json:"available"`
	Points    int64  `json:"points"`
}

type profilePayload struct {
	PlayerID       string `json:"player_id"`
	FullName       string `json:"full_name"`
	DocumentNumber string `json:"document_number"`
	Tier           string `json:"tier"`
}

type gamePayload struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	MinimumBet  string   `json:"minimum_bet"`
	Bets        []string `json:"bets"`
}

type playPayload struct {
	PlayID           string         `json:"play_id"`
	Game             string         `json:"game"`
	Amount           string         `json:"amount"`
	Multiplier       string         `json:"multiplier"`
	Payout           string         `json:"payout"`
	Net              string         `json:"net"`
	Description      string         `json:"description"`
	Status           string         `json:"status"`
	CreditConfirmed  bool           `json:"credit_confirmed"`
	CreditFailure    string         `json:"credit_failure,omitempty"`
	BalanceRefreshed bool           `json:"balance_refreshed"`
	Balance          balancePayload `json:"balance"`
	CreatedUnixUTC   int64          `json:"created_unix_utc"`
}

type playHistoryPayload struct {
	PlayID            string `json:"play_id"`
	Game              string `json:"game"`
	Amount            string `json:"amount"`
	Multiplier        string `json:"multiplier"`
	Payout            string `json:"payout"`
	Description       string `json:"description"`
	Status            string `json:"status"`
	CreatedUnixUTC    int64  `json:"created_unix_utc"`
	ReconciledUnixUTC int64  `json:"reconciled_unix_utc,omitempty"`
}

type promotionPayload struct {
	ID          int64  `json:"id"`
	Code        string `json:"code"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Kind        string `json:"kind"`
	Value       string `json:"value"`
	StartsAt    string `json:"starts_at"`
	EndsAt      string `json:"ends_at"`
	MaxUses     int64  `json:"max_uses"`
	Uses        int64  `json:"uses"`
	Claimable   bool   `json:"claimable"`
}

type transactionPayload struct {
	ID            int64  `json:"id"`
	Kind          string `json:"kind"`
	Amount        string `json:"amount"`
	Description   string `json:"description"`
	CreatedAt     string `json:"created_at"`
	Location      string `json:"location"`
	PointsEarned  int64  `json:"points_earned"`
	PaymentMethod string `json:"payment_method"`
}

type ticketPayload struct {
	ID          int64  `json:"id"`
	Number      string `json:"number"`
	Kind        string `json:"kind"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
	Subject     string `json:"subject"`
	Description string `json:"description"`
	Category    string `json:"category"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
	AssignedTo  string `json:"assigned_to"`
	Resolution  string `json:"resolution"`
}

type dashboardPayload struct {
	Balance          balancePayload     `json:"balance"`
	BalanceAvailable bool               `json:"balance_available"`
	Promotions       []promotionPayload `json:"promotions"`
	PromotionsLoaded bool               `json:"promotions_loaded"`
	Games            []gamePayload      `json:"games"`
}

type claimPayload struct {
	Message string          `json:"message"`
	Benefit json.RawMessage `json:"benefit,omitempty"`
	Balance balancePayload  `json:"balance"`
}

func newBalancePayload(balance wager.Balance) balancePayload {
	return balancePayload{Available: balance.Available.StringFixed(amountPlaces), Points: balance.Points}
}

func newProfilePayload(profile remote.Profile) profilePayload {
	return profilePayload{
		PlayerID:       profile.ID,
		FullName:       profile.FullName,
		DocumentNumber: profile.DocumentNumber,
		Tier:           profile.Tier,
	}
}

func newGamePayloads(games []wager.Game) []gamePayload {
	payloads := make([]gamePayload, 0, len(games))
	for _, game := range games {
		bets := game.Bets
		if bets == nil {
			bets = []string{}
		}
		payloads = append(payloads, gamePayload{
			ID:          game.Kind.String(),
			Name:        game.Name,
			Description: game.Description,
			MinimumBet:  game.MinimumBet.StringFixed(amountPlaces),
			Bets:        bets,
		})
	}
	return payloads
}

func newPlayPayload(result wager.PlayResult) playPayload {
	return playPayload{
		PlayID:           result.PlayID.String(),
		Game:             result.Outcome.Game.String(),
		Amount:           result.Outcome.Amount.StringFixed(amountPlaces),
		Multiplier:       result.Outcome.Multiplier.String(),
		Payout:           result.Outcome.Payout.StringFixed(amountPlaces),
		Net:              result.Outcome.Net().StringFixed(amountPlaces),
		Description:      result.Outcome.Description,
		Status:           result.Status.String(),
		CreditConfirmed:  result.CreditConfirmed,
		CreditFailure:    result.CreditFailure.String(),
		BalanceRefreshed: result.BalanceRefreshed,
		Balance:          newBalancePayload(result.Balance),
		CreatedUnixUTC:   result.CreatedUnixUTC,
	}
}

func newPlayHistoryPayloads(records []wager.PlayRecord) []playHistoryPayload {
	payloads := make([]playHistoryPayload, 0, len(records))
	for _, record := range records {
		payloads = append(payloads, playHistoryPayload{
			PlayID:            record.PlayID.String(),
			Game:              record.Game.String(),
			Amount:            record.Amount.StringFixed(amountPlaces),
			Multiplier:        record.Multiplier.String(),
			Payout:            record.Payout.StringFixed(amountPlaces),
			Description:       record.Description,
			Status:            record.Status.String(),
			CreatedUnixUTC:    record.CreatedUnixUTC,
			ReconciledUnixUTC: record.ReconciledUnixUTC,
		})
	}
	return payloads
}

func newPromotionPayloads(promotions []remote.Promotion) []promotionPayload {
	payloads := make([]promotionPayload, 0, len(promotions))
	for _, promotion := range promotions {
		payloads = append(payloads, promotionPayload{
			ID:          promotion.ID,
			Code:        promotion.Code,
			Title:       promotion.Title,
			Description: promotion.Description,
			Kind:        promotion.Kind,
			Value:       promotion.Value.StringFixed(amountPlaces),
			StartsAt:    promotion.StartsAt,
			EndsAt:      promotion.EndsAt,
			MaxUses:     promotion.MaxUses,
			Uses:        promotion.Uses,
			Claimable:   promotion.Claimable,
		})
	}
	return payloads
}

func newTransactionPayloads(transactions []remote.Transaction) []transactionPayload {
	payloads := make([]transactionPayload, 0, len(transactions))
	for _, transaction := range transactions {
		payloads = append(payloads, transactionPayload{
			ID:            transaction.ID,
			Kind:          transaction.Kind,
			Amount:        transaction.Amount.StringFixed(amountPlaces),
			Description:   transaction.Description,
			CreatedAt:     transaction.CreatedAt,
			Location:      transaction.Location,
			PointsEarned:  transaction.PointsEarned,
			PaymentMethod: transaction.PaymentMethod,
		})
	}
	return payloads
}

func newTicketPayloads(tickets []remote.Ticket) []ticketPayload {
	payloads := make([]ticketPayload, 0, len(tickets))
	for _, ticket := range tickets {
		payloads = append(payloads, ticketPayload(ticket))
	}
	return payloads
}

func newDashboardPayload(dashboard portal.Dashboard) dashboardPayload {
	return dashboardPayload{
		Balance:          newBalancePayload(dashboard.Balance),
		BalanceAvailable: dashboard.BalanceAvailable,
		Promotions:       newPromotionPayloads(dashboard.Promotions),
		PromotionsLoaded: dashboard.PromotionsLoaded,
		Games:            newGamePayloads(dashboard.Games),
	}
}
