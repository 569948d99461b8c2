package portalapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/MarkoPoloResearchLab/wagering/internal/portal"
	"github.com/MarkoPoloResearchLab/wagering/internal/remote"
	"github.com/MarkoPoloResearchLab/wagering/internal/session"
	"github.com/MarkoPoloResearchLab/wagering/pkg/wager"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	errorCodeInvalidPayload      = "invalid_payload"
	errorCodeInvalidWager        = "invalid_wager"
	errorCodeInsufficientBalance = "insufficient_balance"
	errorCodePlayInProgress      = "play_in_progress"
	errorCodeTransactionFailed   = "transaction_failed"
	errorCodeSessionExpired      = "session_expired"
	errorCodeUpstream            = "upstream_error"
	errorCodeUnauthorized        = "unauthorized"
	errorCodeJournalDisabled     = "journal_disabled"
	queryKeyLimit                = "limit"
	requestCallBudget            = 3
	warningCreditRetry           = "your prize could not be confirmed yet and will be retried"
	warningCreditReview          = "your prize could not be confirmed yet and is under review"
)

type httpHandler struct {
	logger    *zap.Logger
	portal    *portal.Service
	processor *wager.Processor
	sessions  *session.Manager
	journal   wager.Journal
	cfg       Config
}

func (handler *httpHandler) requestContext(ctx *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx.Request.Context(), handler.cfg.CasinoTimeout*requestCallBudget)
}

func (handler *httpHandler) handleLogin(ctx *gin.Context) {
	var request loginRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse(errorCodeInvalidPayload, "expected JSON body"))
		return
	}
	requestCtx, cancel := handler.requestContext(ctx)
	defer cancel()

	playerSession, profile, err := handler.portal.Login(requestCtx, request.DocumentNumber)
	if err != nil {
		if remote.IsSessionExpired(err) {
			ctx.JSON(http.StatusUnauthorized, errorResponse(errorCodeUnauthorized, "customer not found or inactive"))
			return
		}
		handler.respondError(ctx, nil, err)
		return
	}
	token, entry, err := handler.sessions.Issue(playerSession, profile.FullName)
	if err != nil {
		handler.logger.Error("session issue failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, errorResponse("session_error", "session unavailable"))
		return
	}
	handler.setSessionCookie(ctx, token, handler.sessions.TTL())
	ctx.JSON(http.StatusOK, gin.H{
		"token":   token,
		"expires": entry.ExpiresAt.Unix(),
		"profile": newProfilePayload(profile),
		"balance": newBalancePayload(playerSession.Balance()),
	})
}

func (handler *httpHandler) handleSession(ctx *gin.Context) {
	entry, ok := session.FromContext(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, errorResponse(errorCodeUnauthorized, "missing session"))
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"player_id": entry.Session.PlayerID().String(),
		"display":   entry.DisplayName,
		"expires":   entry.ExpiresAt.Unix(),
		"balance":   newBalancePayload(entry.Session.Balance()),
	})
}

func (handler *httpHandler) handleLogout(ctx *gin.Context) {
	entry, ok := session.FromContext(ctx)
	if ok {
		handler.sessions.Revoke(entry.ID)
	}
	handler.clearSessionCookie(ctx)
	ctx.Status(http.StatusNoContent)
}

func (handler *httpHandler) handleDashboard(ctx *gin.Context) {
	entry, ok := session.FromContext(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, errorResponse(errorCodeUnauthorized, "missing session"))
		return
	}
	requestCtx, cancel := handler.requestContext(ctx)
	defer cancel()

	dashboard, err := handler.portal.Dashboard(requestCtx, entry.Session)
	if err != nil {
		handler.respondError(ctx, &entry, err)
		return
	}
	ctx.JSON(http.StatusOK, newDashboardPayload(dashboard))
}

func (handler *httpHandler) handleWallet(ctx *gin.Context) {
	entry, ok := session.FromContext(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, errorResponse(errorCodeUnauthorized, "missing session"))
		return
	}
	requestCtx, cancel := handler.requestContext(ctx)
	defer cancel()

	balance, err := handler.portal.RefreshBalance(requestCtx, entry.Session)
	if err != nil {
		handler.respondError(ctx, &entry, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"balance": newBalancePayload(balance)})
}

func (handler *httpHandler) handleGames(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"games": newGamePayloads(wager.Games())})
}

func (handler *httpHandler) handlePlay(ctx *gin.Context) {
	entry, ok := session.FromContext(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, errorResponse(errorCodeUnauthorized, "missing session"))
		return
	}
	kind, err := wager.ParseGameKind(ctx.Param("game"))
	if err != nil {
		ctx.JSON(http.StatusNotFound, errorResponse(errorCodeInvalidWager, err.Error()))
		return
	}
	var request playRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse(errorCodeInvalidPayload, "expected JSON body with amount"))
		return
	}
	requestCtx, cancel := handler.requestContext(ctx)
	defer cancel()

	result, err := handler.processor.Play(requestCtx, entry.Session, kind, request.Amount, wager.Parameters{Bet: request.Bet, Number: request.Number})
	if err != nil && errors.Is(err, wager.ErrCreditUnconfirmed) {
		handler.logger.Warn("prize credit unconfirmed",
			zap.String("player_id", entry.Session.PlayerID().String()),
			zap.String("play_id", result.PlayID.String()),
			zap.String("credit_failure", result.CreditFailure.String()),
			zap.Error(err),
		)
		warning := warningCreditReview
		if result.CreditFailure == wager.CreditFailureRejected {
			warning = warningCreditRetry
		}
		ctx.JSON(http.StatusOK, gin.H{
			"play":    newPlayPayload(result),
			"warning": warning,
		})
		return
	}
	if err != nil {
		handler.respondError(ctx, &entry, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"play": newPlayPayload(result)})
}

func (handler *httpHandler) handlePlays(ctx *gin.Context) {
	entry, ok := session.FromContext(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, errorResponse(errorCodeUnauthorized, "missing session"))
		return
	}
	if handler.journal == nil {
		ctx.JSON(http.StatusNotFound, errorResponse(errorCodeJournalDisabled, "play history is not recorded"))
		return
	}
	limit, ok := parseLimit(ctx)
	if !ok {
		return
	}
	if limit == 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	records, err := handler.journal.ListPlays(ctx.Request.Context(), entry.Session.PlayerID(), limit)
	if err != nil {
		handler.logger.Error("play history failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, errorResponse("journal_error", "play history unavailable"))
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"plays": newPlayHistoryPayloads(records)})
}

func (handler *httpHandler) handleRecharge(ctx *gin.Context) {
	entry, ok := session.FromContext(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, errorResponse(errorCodeUnauthorized, "missing session"))
		return
	}
	var request rechargeRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse(errorCodeInvalidPayload, "expected JSON body with amount and payment_method"))
		return
	}
	requestCtx, cancel := handler.requestContext(ctx)
	defer cancel()

	balance, err := handler.portal.Recharge(requestCtx, entry.Session, portal.RechargeRequest{
		Amount:        request.Amount,
		PaymentMethod: request.PaymentMethod,
	})
	if err != nil {
		handler.respondError(ctx, &entry, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"balance": newBalancePayload(balance)})
}

func (handler *httpHandler) handlePromotions(ctx *gin.Context) {
	entry, ok := session.FromContext(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, errorResponse(errorCodeUnauthorized, "missing session"))
		return
	}
	requestCtx, cancel := handler.requestContext(ctx)
	defer cancel()

	promotions, err := handler.portal.Promotions(requestCtx, entry.Session)
	if err != nil {
		handler.respondError(ctx, &entry, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"promotions": newPromotionPayloads(promotions)})
}

func (handler *httpHandler) handleClaim(ctx *gin.Context) {
	entry, ok := session.FromContext(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, errorResponse(errorCodeUnauthorized, "missing session"))
		return
	}
	requestCtx, cancel := handler.requestContext(ctx)
	defer cancel()

	claim, balance, err := handler.portal.ClaimPromotion(requestCtx, entry.Session, ctx.Param("code"))
	if err != nil {
		handler.respondError(ctx, &entry, err)
		return
	}
	ctx.JSON(http.StatusOK, claimPayload{
		Message: claim.Message,
		Benefit: claim.Benefit,
		Balance: newBalancePayload(balance),
	})
}

func (handler *httpHandler) handleTransactions(ctx *gin.Context) {
	entry, ok := session.FromContext(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, errorResponse(errorCodeUnauthorized, "missing session"))
		return
	}
	limit, ok := parseLimit(ctx)
	if !ok {
		return
	}
	requestCtx, cancel := handler.requestContext(ctx)
	defer cancel()

	transactions, err := handler.portal.Transactions(requestCtx, entry.Session, limit)
	if err != nil {
		handler.respondError(ctx, &entry, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"transactions": newTransactionPayloads(transactions)})
}

func (handler *httpHandler) handleTickets(ctx *gin.Context) {
	entry, ok := session.FromContext(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, errorResponse(errorCodeUnauthorized, "missing session"))
		return
	}
	limit, ok := parseLimit(ctx)
	if !ok {
		return
	}
	requestCtx, cancel := handler.requestContext(ctx)
	defer cancel()

	tickets, err := handler.portal.Tickets(requestCtx, entry.Session, limit)
	if err != nil {
		handler.respondError(ctx, &entry, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"tickets": newTicketPayloads(tickets)})
}

func (handler *httpHandler) handleCreateTicket(ctx *gin.Context) {
	entry, ok := session.FromContext(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, errorResponse(errorCodeUnauthorized, "missing session"))
		return
	}
	var request ticketRequest
	if err := ctx.ShouldBindJSON(&request); err != nil && !errors.Is(err, io.EOF) {
		ctx.JSON(http.StatusBadRequest, errorResponse(errorCodeInvalidPayload, "expected JSON body"))
		return
	}
	requestCtx, cancel := handler.requestContext(ctx)
	defer cancel()

	ticketID, err := handler.portal.SubmitTicket(requestCtx, entry.Session, portal.TicketRequest{
		Subject:     request.Subject,
		Category:    request.Category,
		Description: request.Description,
	})
	if err != nil {
		handler.respondError(ctx, &entry, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"ticket_id": ticketID})
}

// respondError maps domain and upstream failures onto the error envelope. An
// expired upstream session also ends the portal session.
func (handler *httpHandler) respondError(ctx *gin.Context, entry *session.Entry, err error) {
	var apiError *remote.APIError
	switch {
	case remote.IsSessionExpired(err):
		if entry != nil {
			handler.sessions.Revoke(entry.ID)
		}
		handler.clearSessionCookie(ctx)
		ctx.JSON(http.StatusUnauthorized, errorResponse(errorCodeSessionExpired, "session expired, please log in again"))
	case errors.Is(err, portal.ErrInvalidRequest):
		ctx.JSON(http.StatusBadRequest, errorResponse(errorCodeInvalidPayload, err.Error()))
	case errors.Is(err, wager.ErrInsufficientBalance):
		ctx.JSON(http.StatusUnprocessableEntity, errorResponse(errorCodeInsufficientBalance, "insufficient balance"))
	case errors.Is(err, wager.ErrInvalidWager):
		ctx.JSON(http.StatusBadRequest, errorResponse(errorCodeInvalidWager, err.Error()))
	case errors.Is(err, wager.ErrPlayInProgress):
		ctx.JSON(http.StatusConflict, errorResponse(errorCodePlayInProgress, "another play is in progress"))
	case errors.Is(err, wager.ErrTransactionFailed):
		handler.logger.Error("wager debit failed", zap.Error(err))
		ctx.JSON(http.StatusBadGateway, errorResponse(errorCodeTransactionFailed, "the wager could not be placed"))
	case errors.As(err, &apiError) && apiError.StatusCode < http.StatusInternalServerError:
		ctx.JSON(http.StatusBadRequest, errorResponse(errorCodeUpstream, apiError.Detail))
	default:
		handler.logger.Error("casino api request failed", zap.Error(err))
		ctx.JSON(http.StatusBadGateway, errorResponse(errorCodeUpstream, "casino api unavailable"))
	}
}

func (handler *httpHandler) setSessionCookie(ctx *gin.Context, token string, ttl time.Duration) {
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(handler.sessions.CookieName(), token, int(ttl.Seconds()), "/", "", handler.cfg.CookieSecure, true)
}

func (handler *httpHandler) clearSessionCookie(ctx *gin.Context) {
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(handler.sessions.CookieName(), "", -1, "/", "", handler.cfg.CookieSecure, true)
}

func parseLimit(ctx *gin.Context) (int, bool) {
	raw := ctx.Query(queryKeyLimit)
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		ctx.JSON(http.StatusBadRequest, errorResponse(errorCodeInvalidPayload, "limit must be a non-negative integer"))
		return 0, false
	}
	return limit, true
}

func errorResponse(code string, message string) gin.H {
	return gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	}
}
