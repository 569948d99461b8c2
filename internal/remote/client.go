// Package remote is the HTTP client for the casino API that owns customer
// balances, promotions, transactions and support tickets.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/MarkoPoloResearchLab/wagering/pkg/wager"
)

const (
	defaultTimeout      = 5 * time.Second
	maxErrorBodyBytes   = 64 << 10
	maxSuccessBodyBytes = 4 << 20
)

// Config describes how to reach the casino API.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client talks to the casino API. It satisfies wager.TransactionService.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

var _ wager.TransactionService = (*Client)(nil)

// NewClient validates cfg and builds a Client.
func NewClient(cfg Config) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if trimmed == "" {
		return nil, fmt.Errorf("%w: base url is required", ErrInvalidConfig)
	}
	baseURL, err := url.Parse(trimmed)
	if err != nil || baseURL.Scheme == "" || baseURL.Host == "" {
		return nil, fmt.Errorf("%w: base url %q is not absolute", ErrInvalidConfig, cfg.BaseURL)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{baseURL: baseURL, httpClient: httpClient}, nil
}

// LoginCustomer exchanges a document number for a bearer token.
func (client *Client) LoginCustomer(ctx context.Context, documentNumber string) (LoginResult, error) {
	var data loginData
	message, err := client.do(ctx, http.MethodPost, pathCustomerLogin, nil, wager.Credential{}, loginRequest{DocumentNumber: documentNumber}, &data)
	if err != nil {
		return LoginResult{}, err
	}
	if strings.TrimSpace(data.AccessToken) == "" {
		return LoginResult{}, fmt.Errorf("%w: login response without token", ErrInvalidResponse)
	}
	return LoginResult{
		AccessToken:      data.AccessToken,
		ExpiresInSeconds: data.ExpiresIn,
		Message:          message,
		Profile:          data.Customer.toProfile(),
	}, nil
}

// FetchProfile loads the customer record.
func (client *Client) FetchProfile(ctx context.Context, credential wager.Credential, playerID wager.PlayerID) (Profile, error) {
	customerID, err := wireCustomerID(playerID)
	if err != nil {
		return Profile{}, err
	}
	var data profileData
	if _, err := client.do(ctx, http.MethodGet, pathCustomers+customerID.String(), nil, credential, nil, &data); err != nil {
		return Profile{}, err
	}
	return data.toProfile(), nil
}

// FetchBalance reads the authoritative balance and loyalty points.
func (client *Client) FetchBalance(ctx context.Context, credential wager.Credential, playerID wager.PlayerID) (wager.Balance, error) {
	profile, err := client.FetchProfile(ctx, credential, playerID)
	if err != nil {
		return wager.Balance{}, err
	}
	return wager.Balance{Available: profile.Balance, Points: profile.Points}, nil
}

// SubmitTransaction posts one signed transaction.
func (client *Client) SubmitTransaction(ctx context.Context, credential wager.Credential, record wager.TransactionRecord) error {
	customerID, err := wireCustomerID(record.PlayerID)
	if err != nil {
		return err
	}
	request := transactionRequest{
		CustomerID:    customerID,
		Kind:          record.Kind.String(),
		Amount:        json.Number(record.Amount.String()),
		Description:   record.Description,
		PaymentMethod: record.PaymentMethod,
		Reference:     record.Reference.String(),
	}
	_, err = client.do(ctx, http.MethodPost, pathTransactions, nil, credential, request, nil)
	return err
}

// ListActivePromotions returns the promotions the customer may claim.
func (client *Client) ListActivePromotions(ctx context.Context, credential wager.Credential, playerID wager.PlayerID) ([]Promotion, error) {
	customerID, err := wireCustomerID(playerID)
	if err != nil {
		return nil, err
	}
	promotions := make([]Promotion, 0)
	query := url.Values{queryCustomerID: []string{customerID.String()}}
	if _, err := client.do(ctx, http.MethodGet, pathActivePromotions, query, credential, nil, &promotions); err != nil {
		return nil, err
	}
	return promotions, nil
}

// ClaimPromotion redeems a promotion code for the customer.
func (client *Client) ClaimPromotion(ctx context.Context, credential wager.Credential, playerID wager.PlayerID, code string) (Claim, error) {
	customerID, err := wireCustomerID(playerID)
	if err != nil {
		return Claim{}, err
	}
	var benefit json.RawMessage
	query := url.Values{queryCustomerID: []string{customerID.String()}}
	path := pathPromotions + url.PathEscape(strings.TrimSpace(code)) + pathClaimSuffix
	message, err := client.do(ctx, http.MethodPost, path, query, credential, nil, &benefit)
	if err != nil {
		return Claim{}, err
	}
	return Claim{Message: message, Benefit: benefit}, nil
}

// ListTransactions returns the customer's most recent transactions.
func (client *Client) ListTransactions(ctx context.Context, credential wager.Credential, playerID wager.PlayerID, limit int) ([]Transaction, error) {
	customerID, err := wireCustomerID(playerID)
	if err != nil {
		return nil, err
	}
	transactions := make([]Transaction, 0)
	if _, err := client.do(ctx, http.MethodGet, pathCustomerHistory+customerID.String(), limitQuery(limit), credential, nil, &transactions); err != nil {
		return nil, err
	}
	return transactions, nil
}

// CreateTicket opens a support ticket and returns its id.
func (client *Client) CreateTicket(ctx context.Context, credential wager.Credential, playerID wager.PlayerID, request TicketRequest) (int64, error) {
	customerID, err := wireCustomerID(playerID)
	if err != nil {
		return 0, err
	}
	var data struct {
		TicketID int64 `json:"ticket_id"`
	}
	body := ticketCreateRequest{
		CustomerID:  customerID,
		Kind:        ticketKindInquiry,
		Priority:    ticketPriorityDefault,
		Subject:     request.Subject,
		Category:    request.Category,
		Description: request.Description,
	}
	if _, err := client.do(ctx, http.MethodPost, pathTickets, nil, credential, body, &data); err != nil {
		return 0, err
	}
	return data.TicketID, nil
}

// ListTickets returns the customer's support tickets.
func (client *Client) ListTickets(ctx context.Context, credential wager.Credential, playerID wager.PlayerID, limit int) ([]Ticket, error) {
	customerID, err := wireCustomerID(playerID)
	if err != nil {
		return nil, err
	}
	tickets := make([]Ticket, 0)
	if _, err := client.do(ctx, http.MethodGet, pathCustomerTickets+customerID.String(), limitQuery(limit), credential, nil, &tickets); err != nil {
		return nil, err
	}
	return tickets, nil
}

// do sends one request and decodes the envelope's data into out. It returns
// the envelope message.
func (client *Client) do(ctx context.Context, method string, path string, query url.Values, credential wager.Credential, body any, out any) (string, error) {
	endpoint := client.baseURL.JoinPath(path)
	if len(query) > 0 {
		endpoint.RawQuery = query.Encode()
	}
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return "", fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}
	request, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return "", fmt.Errorf("build %s %s: %w", method, path, err)
	}
	request.Header.Set(headerContentType, contentTypeJSON)
	if token := credential.String(); token != "" {
		request.Header.Set(headerAuthorization, bearerPrefix+token)
	}

	response, err := client.httpClient.Do(request)
	if err != nil {
		return "", fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer response.Body.Close()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return "", decodeAPIError(response)
	}
	var decoded envelope
	if err := json.NewDecoder(io.LimitReader(response.Body, maxSuccessBodyBytes)).Decode(&decoded); err != nil {
		return "", fmt.Errorf("%w: %s %s: %v", ErrInvalidResponse, method, path, err)
	}
	if !decoded.Success {
		return "", &APIError{StatusCode: response.StatusCode, Detail: decoded.Message}
	}
	if out != nil && len(decoded.Data) > 0 && string(decoded.Data) != "null" {
		if err := json.Unmarshal(decoded.Data, out); err != nil {
			return "", fmt.Errorf("%w: %s %s data: %v", ErrInvalidResponse, method, path, err)
		}
	}
	return decoded.Message, nil
}

func decodeAPIError(response *http.Response) error {
	apiError := &APIError{StatusCode: response.StatusCode}
	raw, err := io.ReadAll(io.LimitReader(response.Body, maxErrorBodyBytes))
	if err != nil || len(raw) == 0 {
		return apiError
	}
	var body errorBody
	if json.Unmarshal(raw, &body) != nil || len(body.Detail) == 0 {
		return apiError
	}
	var detail string
	if json.Unmarshal(body.Detail, &detail) == nil {
		apiError.Detail = detail
		return apiError
	}
	apiError.Detail = string(body.Detail)
	return apiError
}

func (data profileData) toProfile() Profile {
	return Profile{
		ID:             data.ID.String(),
		FullName:       data.FullName,
		DocumentNumber: data.DocumentNumber,
		Tier:           data.Tier,
		Balance:        data.Balance,
		Points:         data.Points,
	}
}

// wireCustomerID renders a player id as the integer the API expects.
func wireCustomerID(playerID wager.PlayerID) (json.Number, error) {
	if _, err := strconv.ParseInt(playerID.String(), 10, 64); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidPlayerID, playerID.String())
	}
	return json.Number(playerID.String()), nil
}

func limitQuery(limit int) url.Values {
	if limit <= 0 {
		return nil
	}
	return url.Values{queryLimit: []string{strconv.Itoa(limit)}}
}

// IsSessionExpired reports whether err came from a rejected bearer token.
func IsSessionExpired(err error) bool {
	return errors.Is(err, ErrSessionExpired)
}
