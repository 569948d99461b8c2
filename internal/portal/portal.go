// Package portal implements the customer-facing operations of the casino
// portal on top of the casino API.
package portal

import (
	"context"
	"fmt"
	"strings"

	"github.com/MarkoPoloResearchLab/wagering/internal/remote"
	"github.com/MarkoPoloResearchLab/wagering/pkg/wager"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultListLimit          = 50
	maxListLimit              = 200
	rechargeDescriptionPrefix = "Balance recharge - "
	rechargeReferencePrefix   = "recharge:"
)

// Remote is the subset of the casino API the portal uses.
type Remote interface {
	wager.TransactionService
	LoginCustomer(ctx context.Context, documentNumber string) (remote.LoginResult, error)
	FetchProfile(ctx context.Context, credential wager.Credential, playerID wager.PlayerID) (remote.Profile, error)
	ListActivePromotions(ctx context.Context, credential wager.Credential, playerID wager.PlayerID) ([]remote.Promotion, error)
	ClaimPromotion(ctx context.Context, credential wager.Credential, playerID wager.PlayerID, code string) (remote.Claim, error)
	ListTransactions(ctx context.Context, credential wager.Credential, playerID wager.PlayerID, limit int) ([]remote.Transaction, error)
	CreateTicket(ctx context.Context, credential wager.Credential, playerID wager.PlayerID, request remote.TicketRequest) (int64, error)
	ListTickets(ctx context.Context, credential wager.Credential, playerID wager.PlayerID, limit int) ([]remote.Ticket, error)
}

// Service runs portal operations for one logged-in player at a time.
type Service struct {
	remote   Remote
	logger   *zap.Logger
	validate *validator.Validate
}

// Dashboard is the landing page data.
type Dashboard struct {
	Balance          wager.Balance
	BalanceAvailable bool
	Promotions       []remote.Promotion
	PromotionsLoaded bool
	Games            []wager.Game
}

// NewService wires a Service.
func NewService(api Remote, logger *zap.Logger) (*Service, error) {
	if api == nil {
		return nil, fmt.Errorf("%w: remote dependency is nil", wager.ErrInvalidServiceConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{remote: api, logger: logger, validate: newValidator()}, nil
}

// Login authenticates a customer by document number and opens a session.
func (service *Service) Login(ctx context.Context, documentNumber string) (*wager.Session, remote.Profile, error) {
	request := LoginRequest{DocumentNumber: strings.TrimSpace(documentNumber)}
	if err := validateRequest(service.validate, request); err != nil {
		return nil, remote.Profile{}, err
	}
	result, err := service.remote.LoginCustomer(ctx, request.DocumentNumber)
	if err != nil {
		return nil, remote.Profile{}, err
	}
	playerID, err := wager.NewPlayerID(result.Profile.ID)
	if err != nil {
		return nil, remote.Profile{}, fmt.Errorf("%w: %w", remote.ErrInvalidResponse, err)
	}
	credential, err := wager.NewCredential(result.AccessToken)
	if err != nil {
		return nil, remote.Profile{}, fmt.Errorf("%w: %w", remote.ErrInvalidResponse, err)
	}
	playerSession, err := wager.NewSession(playerID, credential, wager.Balance{
		Available: result.Profile.Balance,
		Points:    result.Profile.Points,
	})
	if err != nil {
		return nil, remote.Profile{}, err
	}
	service.logger.Info("customer logged in", zap.String("player_id", playerID.String()))
	return playerSession, result.Profile, nil
}

// Dashboard loads balance, promotions and the game catalog concurrently. A
// failed balance shows as zero and failed promotions as an empty list; only an
// expired session fails the page.
func (service *Service) Dashboard(ctx context.Context, playerSession *wager.Session) (Dashboard, error) {
	dashboard := Dashboard{Games: wager.Games(), Promotions: []remote.Promotion{}}
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		balance, err := service.RefreshBalance(groupCtx, playerSession)
		if err != nil {
			if remote.IsSessionExpired(err) {
				return err
			}
			service.logger.Warn("dashboard balance unavailable", zap.String("player_id", playerSession.PlayerID().String()), zap.Error(err))
			return nil
		}
		dashboard.Balance = balance
		dashboard.BalanceAvailable = true
		return nil
	})
	group.Go(func() error {
		promotions, err := service.remote.ListActivePromotions(groupCtx, playerSession.Credential(), playerSession.PlayerID())
		if err != nil {
			if remote.IsSessionExpired(err) {
				return err
			}
			service.logger.Warn("dashboard promotions unavailable", zap.String("player_id", playerSession.PlayerID().String()), zap.Error(err))
			return nil
		}
		dashboard.Promotions = promotions
		dashboard.PromotionsLoaded = true
		return nil
	})
	if err := group.Wait(); err != nil {
		return Dashboard{}, err
	}
	return dashboard, nil
}

// RefreshBalance reloads the authoritative balance into the session.
func (service *Service) RefreshBalance(ctx context.Context, playerSession *wager.Session) (wager.Balance, error) {
	balance, err := service.remote.FetchBalance(ctx, playerSession.Credential(), playerSession.PlayerID())
	if err != nil {
		return wager.Balance{}, err
	}
	playerSession.UpdateBalance(balance)
	return balance, nil
}

// Recharge credits the player's balance through the chosen payment method.
func (service *Service) Recharge(ctx context.Context, playerSession *wager.Session, request RechargeRequest) (wager.Balance, error) {
	request.PaymentMethod = strings.TrimSpace(request.PaymentMethod)
	if err := validateRequest(service.validate, request); err != nil {
		return wager.Balance{}, err
	}
	reference, err := wager.NewReference(rechargeReferencePrefix + uuid.NewString())
	if err != nil {
		return wager.Balance{}, err
	}
	if err := service.remote.SubmitTransaction(ctx, playerSession.Credential(), wager.TransactionRecord{
		PlayerID:      playerSession.PlayerID(),
		Kind:          wager.TransactionKindCredit,
		Amount:        request.Amount,
		Description:   rechargeDescriptionPrefix + request.PaymentMethod,
		PaymentMethod: request.PaymentMethod,
		Reference:     reference,
	}); err != nil {
		return wager.Balance{}, err
	}
	service.logger.Info("balance recharged",
		zap.String("player_id", playerSession.PlayerID().String()),
		zap.String("amount", request.Amount.StringFixed(2)),
		zap.String("payment_method", request.PaymentMethod),
	)
	return service.refreshAfterWrite(ctx, playerSession), nil
}

// Promotions lists the promotions the player may claim.
func (service *Service) Promotions(ctx context.Context, playerSession *wager.Session) ([]remote.Promotion, error) {
	return service.remote.ListActivePromotions(ctx, playerSession.Credential(), playerSession.PlayerID())
}

// ClaimPromotion redeems a promotion code and refreshes the balance.
func (service *Service) ClaimPromotion(ctx context.Context, playerSession *wager.Session, code string) (remote.Claim, wager.Balance, error) {
	request := ClaimRequest{Code: strings.TrimSpace(code)}
	if err := validateRequest(service.validate, request); err != nil {
		return remote.Claim{}, wager.Balance{}, err
	}
	claim, err := service.remote.ClaimPromotion(ctx, playerSession.Credential(), playerSession.PlayerID(), request.Code)
	if err != nil {
		return remote.Claim{}, wager.Balance{}, err
	}
	return claim, service.refreshAfterWrite(ctx, playerSession), nil
}

// Transactions lists the player's recent transactions.
func (service *Service) Transactions(ctx context.Context, playerSession *wager.Session, limit int) ([]remote.Transaction, error) {
	return service.remote.ListTransactions(ctx, playerSession.Credential(), playerSession.PlayerID(), normalizeLimit(limit))
}

// Tickets lists the player's support tickets.
func (service *Service) Tickets(ctx context.Context, playerSession *wager.Session, limit int) ([]remote.Ticket, error) {
	return service.remote.ListTickets(ctx, playerSession.Credential(), playerSession.PlayerID(), normalizeLimit(limit))
}

// SubmitTicket opens a support inquiry and returns its id.
func (service *Service) SubmitTicket(ctx context.Context, playerSession *wager.Session, request TicketRequest) (int64, error) {
	request = TicketRequest{
		Subject:     strings.TrimSpace(request.Subject),
		Category:    strings.TrimSpace(request.Category),
		Description: strings.TrimSpace(request.Description),
	}
	if err := validateRequest(service.validate, request); err != nil {
		return 0, err
	}
	return service.remote.CreateTicket(ctx, playerSession.Credential(), playerSession.PlayerID(), remote.TicketRequest{
		Subject:     request.Subject,
		Category:    request.Category,
		Description: request.Description,
	})
}

// refreshAfterWrite reloads the balance after a successful write; on failure
// the cached balance is returned.
func (service *Service) refreshAfterWrite(ctx context.Context, playerSession *wager.Session) wager.Balance {
	balance, err := service.RefreshBalance(ctx, playerSession)
	if err != nil {
		service.logger.Warn("balance refresh failed", zap.String("player_id", playerSession.PlayerID().String()), zap.Error(err))
		return playerSession.Balance()
	}
	return balance
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}
