// Package remotetest is an in-memory stand-in for the casino API, mounted on a
// chi router so client, portal and facade tests can run against real HTTP.
package remotetest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Routes that accept injected faults.
const (
	RouteLogin        = "POST /auth/cliente-login"
	RouteCustomer     = "GET /clientes/{id}"
	RoutePromotions   = "GET /promociones/activas"
	RouteClaim        = "POST /promociones/{codigo}/canjear"
	RouteDebit        = "POST /transacciones juego"
	RouteCredit       = "POST /transacciones ingreso"
	RouteTransactions = "GET /transacciones/cliente/{id}"
	RouteCreateTicket = "POST /tickets"
	RouteTickets      = "GET /tickets/cliente/{id}"
)

const (
	kindWager  = "juego"
	kindCredit = "ingreso"
	kindBonus  = "bono"
)

// Customer is a seeded account.
type Customer struct {
	ID             int64
	FullName       string
	DocumentNumber string
	Tier           string
	Balance        decimal.Decimal
	Points         int64
	Inactive       bool
}

// Promotion is a seeded promotion.
type Promotion struct {
	ID          int64
	Code        string
	Title       string
	Description string
	Kind        string
	Value       decimal.Decimal
	StartsAt    string
	EndsAt      string
	MaxUses     int64
	Uses        int64
}

// Fault makes a route answer with StatusCode. Times limits how many requests
// fail; zero means every request. Commit applies a transaction before the
// fault is answered, as when the acknowledgement is lost on the way back.
type Fault struct {
	StatusCode int
	Detail     string
	Times      int
	Commit     bool
}

// Transaction is a transaction the fake accepted.
type Transaction struct {
	ID            int64
	CustomerID    int64
	Kind          string
	Amount        decimal.Decimal
	Description   string
	PaymentMethod string
	Reference     string
}

// Ticket is a ticket the fake accepted.
type Ticket struct {
	ID          int64
	Number      string
	CustomerID  int64
	Kind        string
	Priority    string
	Subject     string
	Category    string
	Description string
}

// Server is the fake casino API.
type Server struct {
	mutex         sync.Mutex
	customers     map[int64]*Customer
	tokens        map[string]int64
	serviceTokens map[string]struct{}
	promotions    []*Promotion
	transactions  []Transaction
	tickets       []Ticket
	faults        map[string]*Fault
	hits          map[string]int
	router        chi.Router
}

// New builds an empty fake.
func New() *Server {
	server := &Server{
		customers:     make(map[int64]*Customer),
		tokens:        make(map[string]int64),
		serviceTokens: make(map[string]struct{}),
		faults:        make(map[string]*Fault),
		hits:          make(map[string]int),
	}
	router := chi.NewRouter()
	router.Post("/auth/cliente-login", server.handleLogin)
	router.Group(func(router chi.Router) {
		router.Use(server.requireToken)
		router.Get("/clientes/{id}", server.handleCustomer)
		router.Get("/promociones/activas", server.handlePromotions)
		router.Post("/promociones/{codigo}/canjear", server.handleClaim)
		router.Post("/transacciones", server.handleCreateTransaction)
		router.Get("/transacciones/cliente/{id}", server.handleTransactions)
		router.Post("/tickets", server.handleCreateTicket)
		router.Get("/tickets/cliente/{id}", server.handleTickets)
	})
	server.router = router
	return server
}

// Handler exposes the router.
func (server *Server) Handler() http.Handler {
	return server.router
}

// AddCustomer seeds a customer.
func (server *Server) AddCustomer(customer Customer) {
	server.mutex.Lock()
	defer server.mutex.Unlock()
	stored := customer
	server.customers[customer.ID] = &stored
}

// AddPromotion seeds an active promotion.
func (server *Server) AddPromotion(promotion Promotion) {
	server.mutex.Lock()
	defer server.mutex.Unlock()
	stored := promotion
	server.promotions = append(server.promotions, &stored)
}

// IssueToken returns a bearer token bound to customerID.
func (server *Server) IssueToken(customerID int64) string {
	server.mutex.Lock()
	defer server.mutex.Unlock()
	return server.issueTokenLocked(customerID)
}

// AddServiceToken registers a token that may act on any customer.
func (server *Server) AddServiceToken(token string) {
	server.mutex.Lock()
	defer server.mutex.Unlock()
	server.serviceTokens[token] = struct{}{}
}

// RevokeTokens invalidates every customer token.
func (server *Server) RevokeTokens() {
	server.mutex.Lock()
	defer server.mutex.Unlock()
	server.tokens = make(map[string]int64)
}

// SetFault injects a fault on route.
func (server *Server) SetFault(route string, fault Fault) {
	server.mutex.Lock()
	defer server.mutex.Unlock()
	stored := fault
	if stored.StatusCode == 0 {
		stored.StatusCode = http.StatusInternalServerError
	}
	server.faults[route] = &stored
}

// ClearFault removes the fault on route.
func (server *Server) ClearFault(route string) {
	server.mutex.Lock()
	defer server.mutex.Unlock()
	delete(server.faults, route)
}

// Balance returns the authoritative balance of customerID.
func (server *Server) Balance(customerID int64) decimal.Decimal {
	server.mutex.Lock()
	defer server.mutex.Unlock()
	customer, ok := server.customers[customerID]
	if !ok {
		return decimal.Zero
	}
	return customer.Balance
}

// Transactions returns the accepted transactions in arrival order.
func (server *Server) Transactions() []Transaction {
	server.mutex.Lock()
	defer server.mutex.Unlock()
	return append([]Transaction(nil), server.transactions...)
}

// Tickets returns the accepted tickets.
func (server *Server) Tickets() []Ticket {
	server.mutex.Lock()
	defer server.mutex.Unlock()
	return append([]Ticket(nil), server.tickets...)
}

// Hits reports how many requests reached route, faults included.
func (server *Server) Hits(route string) int {
	server.mutex.Lock()
	defer server.mutex.Unlock()
	return server.hits[route]
}

func (server *Server) issueTokenLocked(customerID int64) string {
	token := "tok-" + uuid.NewString()
	server.tokens[token] = customerID
	return token
}

// fault records a hit on route and returns the injected fault, if any.
func (server *Server) fault(route string) *Fault {
	server.mutex.Lock()
	defer server.mutex.Unlock()
	server.hits[route]++
	fault, ok := server.faults[route]
	if !ok {
		return nil
	}
	if fault.Times > 0 {
		fault.Times--
		if fault.Times == 0 {
			delete(server.faults, route)
		}
	}
	triggered := *fault
	return &triggered
}

func (server *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		token := strings.TrimPrefix(request.Header.Get("Authorization"), "Bearer ")
		server.mutex.Lock()
		_, customerToken := server.tokens[token]
		_, serviceToken := server.serviceTokens[token]
		server.mutex.Unlock()
		if token == "" || (!customerToken && !serviceToken) {
			writeDetail(writer, http.StatusUnauthorized, "Token inválido")
			return
		}
		next.ServeHTTP(writer, request)
	})
}

func (server *Server) handleLogin(writer http.ResponseWriter, request *http.Request) {
	if fault := server.fault(RouteLogin); fault != nil {
		writeDetail(writer, fault.StatusCode, fault.Detail)
		return
	}
	var body struct {
		DocumentNumber string `json:"numero_documento"`
	}
	if err := json.NewDecoder(request.Body).Decode(&body); err != nil {
		writeDetail(writer, http.StatusUnprocessableEntity, "invalid body")
		return
	}
	server.mutex.Lock()
	defer server.mutex.Unlock()
	for _, customer := range server.customers {
		if customer.DocumentNumber != body.DocumentNumber || customer.Inactive {
			continue
		}
		token := server.issueTokenLocked(customer.ID)
		writeData(writer, "Bienvenido "+customer.FullName, map[string]any{
			"access_token": token,
			"token_type":   "bearer",
			"expires_in":   86400,
			"user_type":    "cliente",
			"cliente":      customerPayload(customer),
		})
		return
	}
	writeDetail(writer, http.StatusUnauthorized, "Cliente no encontrado o inactivo")
}

func (server *Server) handleCustomer(writer http.ResponseWriter, request *http.Request) {
	if fault := server.fault(RouteCustomer); fault != nil {
		writeDetail(writer, fault.StatusCode, fault.Detail)
		return
	}
	customerID, ok := pathCustomerID(writer, request)
	if !ok {
		return
	}
	server.mutex.Lock()
	defer server.mutex.Unlock()
	customer, exists := server.customers[customerID]
	if !exists {
		writeDetail(writer, http.StatusNotFound, "Cliente no encontrado")
		return
	}
	writeData(writer, "Cliente encontrado", customerPayload(customer))
}

func (server *Server) handlePromotions(writer http.ResponseWriter, _ *http.Request) {
	if fault := server.fault(RoutePromotions); fault != nil {
		writeDetail(writer, fault.StatusCode, fault.Detail)
		return
	}
	server.mutex.Lock()
	defer server.mutex.Unlock()
	payload := make([]map[string]any, 0, len(server.promotions))
	for _, promotion := range server.promotions {
		payload = append(payload, map[string]any{
			"id":              promotion.ID,
			"codigo":          promotion.Code,
			"titulo":          promotion.Title,
			"descripcion":     promotion.Description,
			"tipo":            promotion.Kind,
			"valor":           json.Number(promotion.Value.String()),
			"fecha_inicio":    promotion.StartsAt,
			"fecha_fin":       promotion.EndsAt,
			"usos_maximos":    promotion.MaxUses,
			"usos_actuales":   promotion.Uses,
			"puede_canjearse": promotion.MaxUses == 0 || promotion.Uses < promotion.MaxUses,
		})
	}
	writeData(writer, fmt.Sprintf("Se encontraron %d promociones activas", len(payload)), payload)
}

func (server *Server) handleClaim(writer http.ResponseWriter, request *http.Request) {
	if fault := server.fault(RouteClaim); fault != nil {
		writeDetail(writer, fault.StatusCode, fault.Detail)
		return
	}
	customerID, err := strconv.ParseInt(request.URL.Query().Get("cliente_id"), 10, 64)
	if err != nil {
		writeDetail(writer, http.StatusUnprocessableEntity, "cliente_id requerido")
		return
	}
	code := chi.URLParam(request, "codigo")
	server.mutex.Lock()
	defer server.mutex.Unlock()
	for _, promotion := range server.promotions {
		if promotion.Code != code {
			continue
		}
		if promotion.MaxUses > 0 && promotion.Uses >= promotion.MaxUses {
			writeDetail(writer, http.StatusBadRequest, "La promoción no puede canjearse (expirada o agotada)")
			return
		}
		promotion.Uses++
		if customer, ok := server.customers[customerID]; ok && promotion.Kind == kindBonus {
			customer.Balance = customer.Balance.Add(promotion.Value)
		}
		writeData(writer, "Promoción canjeada exitosamente", map[string]any{
			"tipo":  promotion.Kind,
			"valor": json.Number(promotion.Value.String()),
		})
		return
	}
	writeDetail(writer, http.StatusBadRequest, "Código de promoción no válido")
}

func (server *Server) handleCreateTransaction(writer http.ResponseWriter, request *http.Request) {
	var body struct {
		CustomerID    int64           `json:"cliente_id"`
		Kind          string          `json:"tipo"`
		Amount        decimal.Decimal `json:"monto"`
		Description   string          `json:"descripcion"`
		PaymentMethod string          `json:"metodo_pago"`
		Reference     string          `json:"numero_referencia"`
	}
	if err := json.NewDecoder(request.Body).Decode(&body); err != nil {
		writeDetail(writer, http.StatusUnprocessableEntity, "invalid body")
		return
	}
	route := "POST /transacciones " + body.Kind
	fault := server.fault(route)
	if fault != nil && !fault.Commit {
		writeDetail(writer, fault.StatusCode, fault.Detail)
		return
	}
	server.mutex.Lock()
	defer server.mutex.Unlock()
	customer, ok := server.customers[body.CustomerID]
	if !ok {
		writeDetail(writer, http.StatusBadRequest, "Cliente no encontrado")
		return
	}
	next := customer.Balance.Add(body.Amount)
	if body.Kind == kindWager && next.IsNegative() {
		writeDetail(writer, http.StatusBadRequest, "Saldo insuficiente")
		return
	}
	customer.Balance = next
	if body.Kind == kindWager {
		customer.Points += body.Amount.Abs().Div(decimal.NewFromInt(10)).IntPart()
	}
	transaction := Transaction{
		ID:            int64(len(server.transactions) + 1),
		CustomerID:    body.CustomerID,
		Kind:          body.Kind,
		Amount:        body.Amount,
		Description:   body.Description,
		PaymentMethod: body.PaymentMethod,
		Reference:     body.Reference,
	}
	server.transactions = append(server.transactions, transaction)
	if fault != nil {
		writeDetail(writer, fault.StatusCode, fault.Detail)
		return
	}
	writeData(writer, "Transacción procesada exitosamente", map[string]any{"transaccion_id": transaction.ID})
}

func (server *Server) handleTransactions(writer http.ResponseWriter, request *http.Request) {
	if fault := server.fault(RouteTransactions); fault != nil {
		writeDetail(writer, fault.StatusCode, fault.Detail)
		return
	}
	customerID, ok := pathCustomerID(writer, request)
	if !ok {
		return
	}
	limit := queryLimit(request, 50)
	server.mutex.Lock()
	defer server.mutex.Unlock()
	payload := make([]map[string]any, 0)
	for index := len(server.transactions) - 1; index >= 0 && len(payload) < limit; index-- {
		transaction := server.transactions[index]
		if transaction.CustomerID != customerID {
			continue
		}
		payload = append(payload, map[string]any{
			"id":                transaction.ID,
			"tipo":              transaction.Kind,
			"monto":             json.Number(transaction.Amount.String()),
			"descripcion":       transaction.Description,
			"fecha_transaccion": "2024-01-01T00:00:00",
			"ubicacion":         "",
			"puntos_ganados":    0,
			"metodo_pago":       transaction.PaymentMethod,
		})
	}
	writeData(writer, fmt.Sprintf("Se encontraron %d transacciones", len(payload)), payload)
}

func (server *Server) handleCreateTicket(writer http.ResponseWriter, request *http.Request) {
	if fault := server.fault(RouteCreateTicket); fault != nil {
		writeDetail(writer, fault.StatusCode, fault.Detail)
		return
	}
	var body struct {
		CustomerID  int64  `json:"cliente_id"`
		Kind        string `json:"tipo"`
		Priority    string `json:"prioridad"`
		Subject     string `json:"asunto"`
		Category    string `json:"categoria"`
		Description string `json:"descripcion"`
	}
	if err := json.NewDecoder(request.Body).Decode(&body); err != nil {
		writeDetail(writer, http.StatusUnprocessableEntity, "invalid body")
		return
	}
	server.mutex.Lock()
	defer server.mutex.Unlock()
	ticket := Ticket{
		ID:          int64(len(server.tickets) + 1),
		Number:      fmt.Sprintf("TK%06d", len(server.tickets)+1),
		CustomerID:  body.CustomerID,
		Kind:        body.Kind,
		Priority:    body.Priority,
		Subject:     body.Subject,
		Category:    body.Category,
		Description: body.Description,
	}
	server.tickets = append(server.tickets, ticket)
	writeData(writer, "Ticket creado exitosamente", map[string]any{"ticket_id": ticket.ID})
}

func (server *Server) handleTickets(writer http.ResponseWriter, request *http.Request) {
	if fault := server.fault(RouteTickets); fault != nil {
		writeDetail(writer, fault.StatusCode, fault.Detail)
		return
	}
	customerID, ok := pathCustomerID(writer, request)
	if !ok {
		return
	}
	limit := queryLimit(request, 50)
	server.mutex.Lock()
	defer server.mutex.Unlock()
	if _, exists := server.customers[customerID]; !exists {
		writeDetail(writer, http.StatusNotFound, "Cliente no encontrado")
		return
	}
	tickets := make([]Ticket, 0)
	for _, ticket := range server.tickets {
		if ticket.CustomerID == customerID {
			tickets = append(tickets, ticket)
		}
	}
	sort.Slice(tickets, func(left, right int) bool { return tickets[left].ID > tickets[right].ID })
	if len(tickets) > limit {
		tickets = tickets[:limit]
	}
	payload := make([]map[string]any, 0, len(tickets))
	for _, ticket := range tickets {
		payload = append(payload, map[string]any{
			"id":                  ticket.ID,
			"numero_ticket":       ticket.Number,
			"tipo":                ticket.Kind,
			"estado":              "ABIERTO",
			"prioridad":           ticket.Priority,
			"asunto":              ticket.Subject,
			"descripcion":         ticket.Description,
			"categoria":           ticket.Category,
			"fecha_creacion":      "2024-01-01T00:00:00",
			"fecha_actualizacion": nil,
			"asignado_a":          nil,
			"resolucion":          "",
		})
	}
	writeData(writer, fmt.Sprintf("Se encontraron %d tickets para el cliente", len(payload)), payload)
}

func customerPayload(customer *Customer) map[string]any {
	return map[string]any{
		"id":                customer.ID,
		"nombre_completo":   customer.FullName,
		"numero_documento":  customer.DocumentNumber,
		"tipo_cliente":      customer.Tier,
		"saldo":             json.Number(customer.Balance.String()),
		"puntos_acumulados": customer.Points,
	}
}

func pathCustomerID(writer http.ResponseWriter, request *http.Request) (int64, bool) {
	customerID, err := strconv.ParseInt(chi.URLParam(request, "id"), 10, 64)
	if err != nil {
		writeDetail(writer, http.StatusUnprocessableEntity, "id inválido")
		return 0, false
	}
	return customerID, true
}

func queryLimit(request *http.Request, fallback int) int {
	limit, err := strconv.Atoi(request.URL.Query().Get("limite"))
	if err != nil || limit <= 0 {
		return fallback
	}
	return limit
}

func writeData(writer http.ResponseWriter, message string, data any) {
	writeJSON(writer, http.StatusOK, map[string]any{"success": true, "message": message, "data": data})
}

func writeDetail(writer http.ResponseWriter, status int, detail string) {
	writeJSON(writer, status, map[string]any{"detail": detail})
}

func writeJSON(writer http.ResponseWriter, status int, body any) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	_ = json.NewEncoder(writer).Encode(body)
}
