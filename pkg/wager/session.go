package wager

import (
	"fmt"
	"sync"
)

// Session is the explicit context for one logged-in player: who they are, the
// credential used against the casino API, and an advisory copy of their balance.
type Session struct {
	playerID   PlayerID
	credential Credential

	balanceMutex sync.RWMutex
	balance      Balance

	playMutex sync.Mutex
}

// NewSession validates the identity and credential and seeds the cached balance.
func NewSession(playerID PlayerID, credential Credential, balance Balance) (*Session, error) {
	if playerID.String() == "" {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSession, ErrInvalidPlayerID)
	}
	if credential.String() == "" {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSession, ErrInvalidCredential)
	}
	return &Session{playerID: playerID, credential: credential, balance: balance}, nil
}

// PlayerID returns the session owner.
func (session *Session) PlayerID() PlayerID {
	return session.playerID
}

// Credential returns the bearer token for the casino API.
func (session *Session) Credential() Credential {
	return session.credential
}

// Balance returns the cached balance. It is advisory only.
func (session *Session) Balance() Balance {
	session.balanceMutex.RLock()
	defer session.balanceMutex.RUnlock()
	return session.balance
}

// UpdateBalance overwrites the cached balance; the last write wins.
func (session *Session) UpdateBalance(balance Balance) {
	session.balanceMutex.Lock()
	defer session.balanceMutex.Unlock()
	session.balance = balance
}

func (session *Session) beginPlay() bool {
	return session.playMutex.TryLock()
}

func (session *Session) endPlay() {
	session.playMutex.Unlock()
}
