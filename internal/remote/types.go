package remote

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Wire keys and values understood by the casino API.
const (
	headerAuthorization = "Authorization"
	headerContentType   = "Content-Type"
	bearerPrefix        = "Bearer "
	contentTypeJSON     = "application/json"

	pathCustomerLogin     = "/auth/cliente-login"
	pathCustomers         = "/clientes/"
	pathActivePromotions  = "/promociones/activas"
	pathPromotions        = "/promociones/"
	pathClaimSuffix       = "/canjear"
	pathTransactions      = "/transacciones"
	pathCustomerHistory   = "/transacciones/cliente/"
	pathTickets           = "/tickets"
	pathCustomerTickets   = "/tickets/cliente/"
	queryCustomerID       = "cliente_id"
	queryLimit            = "limite"
	ticketKindInquiry     = "consulta"
	ticketPriorityDefault = "MEDIA"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

type loginRequest struct {
	DocumentNumber string `json:"numero_documento"`
}

type loginData struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	ExpiresIn   int64       `json:"expires_in"`
	Customer    profileData `json:"cliente"`
}

type profileData struct {
	ID             json.Number     `json:"id"`
	FullName       string          `json:"nombre_completo"`
	DocumentNumber string          `json:"numero_documento"`
	Tier           string          `json:"tipo_cliente"`
	Balance        decimal.Decimal `json:"saldo"`
	Points         int64           `json:"puntos_acumulados"`
}

type transactionRequest struct {
	CustomerID    json.Number `json:"cliente_id"`
	Kind          string      `json:"tipo"`
	Amount        json.Number `json:"monto"`
	Description   string      `json:"descripcion"`
	PaymentMethod string      `json:"metodo_pago"`
	Reference     string      `json:"numero_referencia,omitempty"`
}

type ticketCreateRequest struct {
	CustomerID  json.Number `json:"cliente_id"`
	Kind        string      `json:"tipo"`
	Priority    string      `json:"prioridad"`
	Subject     string      `json:"asunto"`
	Category    string      `json:"categoria,omitempty"`
	Description string      `json:"descripcion"`
}

// Profile is the customer record returned at login and by the customer endpoint.
type Profile struct {
	ID             string
	FullName       string
	DocumentNumber string
	Tier           string
	Balance        decimal.Decimal
	Points         int64
}

// LoginResult carries the bearer token and the customer it was issued for.
type LoginResult struct {
	AccessToken      string
	ExpiresInSeconds int64
	Message          string
	Profile          Profile
}

// Promotion is one active promotion offered to a customer.
type Promotion struct {
	ID          int64           `json:"id"`
	Code        string          `json:"codigo"`
	Title       string          `json:"titulo"`
	Description string          `json:"descripcion"`
	Kind        string          `json:"tipo"`
	Value       decimal.Decimal `json:"valor"`
	StartsAt    string          `json:"fecha_inicio"`
	EndsAt      string          `json:"fecha_fin"`
	MaxUses     int64           `json:"usos_maximos"`
	Uses        int64           `json:"usos_actuales"`
	Claimable   bool            `json:"puede_canjearse"`
}

// Claim is the API's answer to a promotion redemption.
type Claim struct {
	Message string
	Benefit json.RawMessage
}

// Transaction is one entry of a customer's transaction history.
type Transaction struct {
	ID            int64           `json:"id"`
	Kind          string          `json:"tipo"`
	Amount        decimal.Decimal `json:"monto"`
	Description   string          `json:"descripcion"`
	CreatedAt     string          `json:"fecha_transaccion"`
	Location      string          `json:"ubicacion"`
	PointsEarned  int64           `json:"puntos_ganados"`
	PaymentMethod string          `json:"metodo_pago"`
}

// TicketRequest is a support ticket submission.
type TicketRequest struct {
	Subject     string
	Category    string
	Description string
}

// Ticket is one support ticket of a customer.
type Ticket struct {
	ID          int64  `json:"id"`
	Number      string `json:"numero_ticket"`
	Kind        string `json:"tipo"`
	Status      string `json:"estado"`
	Priority    string `json:"prioridad"`
	Subject     string `json:"asunto"`
	Description string `json:"descripcion"`
	Category    string `json:"categoria"`
	CreatedAt   string `json:"fecha_creacion"`
	UpdatedAt   string `json:"fecha_actualizacion"`
	AssignedTo  string `json:"asignado_a"`
	Resolution  string `json:"resolucion"`
}
