// Package session keeps the server-side registry of logged-in players and the
// signed cookies that point at it.
package session

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/MarkoPoloResearchLab/wagering/pkg/wager"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	contextKeyEntry     = "session_entry"
	headerAuthorization = "Authorization"
	bearerPrefix        = "Bearer "
	defaultTTL          = 12 * time.Hour
	sweepInterval       = time.Minute
)

var (
	// ErrInvalidConfig reports an unusable manager configuration.
	ErrInvalidConfig = errors.New("invalid session config")
	// ErrInvalidToken reports a token that does not verify.
	ErrInvalidToken = errors.New("invalid session token")
	// ErrUnknownSession reports a verified token whose session is gone.
	ErrUnknownSession = errors.New("unknown session")
)

// Config describes how session tokens are signed and carried.
type Config struct {
	SigningKey []byte
	Issuer     string
	CookieName string
	TTL        time.Duration
}

// Claims are the JWT claims of a session cookie.
type Claims struct {
	DisplayName string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Entry is one live session.
type Entry struct {
	ID          string
	DisplayName string
	ExpiresAt   time.Time
	Session     *wager.Session
}

// Manager issues, resolves and revokes sessions. Expired entries are dropped
// by the next Issue after sweepInterval has passed.
type Manager struct {
	cfg       Config
	nowFn     func() time.Time
	mutex     sync.RWMutex
	entries   map[string]Entry
	nextSweep time.Time
}

// NewManager validates cfg and builds a Manager.
func NewManager(cfg Config, now func() time.Time) (*Manager, error) {
	if len(cfg.SigningKey) == 0 {
		return nil, fmt.Errorf("%w: signing key is required", ErrInvalidConfig)
	}
	if strings.TrimSpace(cfg.Issuer) == "" {
		return nil, fmt.Errorf("%w: issuer is required", ErrInvalidConfig)
	}
	if strings.TrimSpace(cfg.CookieName) == "" {
		return nil, fmt.Errorf("%w: cookie name is required", ErrInvalidConfig)
	}
	if cfg.TTL <= 0 {
		cfg.TTL = defaultTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Manager{cfg: cfg, nowFn: now, entries: make(map[string]Entry)}, nil
}

// CookieName returns the cookie carrying the session token.
func (manager *Manager) CookieName() string {
	return manager.cfg.CookieName
}

// TTL returns how long an issued session stays valid.
func (manager *Manager) TTL() time.Duration {
	return manager.cfg.TTL
}

// Issue registers playerSession and returns its signed token.
func (manager *Manager) Issue(playerSession *wager.Session, displayName string) (string, Entry, error) {
	if playerSession == nil {
		return "", Entry{}, wager.ErrInvalidSession
	}
	now := manager.nowFn().UTC()
	entry := Entry{
		ID:          uuid.NewString(),
		DisplayName: displayName,
		ExpiresAt:   now.Add(manager.cfg.TTL),
		Session:     playerSession,
	}
	claims := &Claims{
		DisplayName: displayName,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        entry.ID,
			Subject:   playerSession.PlayerID().String(),
			Issuer:    manager.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(entry.ExpiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(manager.cfg.SigningKey)
	if err != nil {
		return "", Entry{}, fmt.Errorf("sign session: %w", err)
	}
	manager.mutex.Lock()
	manager.sweepExpiredLocked(now)
	manager.entries[entry.ID] = entry
	manager.mutex.Unlock()
	return signed, entry, nil
}

// Resolve verifies token and returns the live session it names.
func (manager *Manager) Resolve(token string) (Entry, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return manager.cfg.SigningKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(manager.cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(manager.nowFn),
	)
	if err != nil || !parsed.Valid {
		return Entry{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	manager.mutex.RLock()
	entry, ok := manager.entries[claims.ID]
	manager.mutex.RUnlock()
	if !ok {
		return Entry{}, ErrUnknownSession
	}
	if !manager.nowFn().Before(entry.ExpiresAt) {
		manager.Revoke(entry.ID)
		return Entry{}, ErrUnknownSession
	}
	if entry.Session.PlayerID().String() != claims.Subject {
		return Entry{}, fmt.Errorf("%w: subject mismatch", ErrInvalidToken)
	}
	return entry, nil
}

// Revoke forgets the session id.
func (manager *Manager) Revoke(id string) {
	manager.mutex.Lock()
	defer manager.mutex.Unlock()
	delete(manager.entries, id)
}

func (manager *Manager) sweepExpiredLocked(now time.Time) {
	if now.Before(manager.nextSweep) {
		return
	}
	manager.nextSweep = now.Add(sweepInterval)
	for id, entry := range manager.entries {
		if !now.Before(entry.ExpiresAt) {
			delete(manager.entries, id)
		}
	}
}

// Middleware rejects requests without a live session and stores the entry on
// the gin context.
func (manager *Manager) Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token := manager.tokenFromRequest(ctx.Request)
		if token == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse("unauthorized", "missing session"))
			return
		}
		entry, err := manager.Resolve(token)
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse("unauthorized", "invalid session"))
			return
		}
		ctx.Set(contextKeyEntry, entry)
		ctx.Next()
	}
}

// FromContext returns the entry stored by Middleware.
func FromContext(ctx *gin.Context) (Entry, bool) {
	value, ok := ctx.Get(contextKeyEntry)
	if !ok {
		return Entry{}, false
	}
	entry, ok := value.(Entry)
	return entry, ok
}

func (manager *Manager) tokenFromRequest(request *http.Request) string {
	if cookie, err := request.Cookie(manager.cfg.CookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	header := request.Header.Get(headerAuthorization)
	if strings.HasPrefix(header, bearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
	}
	return ""
}

func errorResponse(code string, message string) gin.H {
	return gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	}
}
