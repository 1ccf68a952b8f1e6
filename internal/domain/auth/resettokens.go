package auth

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"
)

// resetTokenStore guarda tokens de recuperación en memoria. Un solo uso,
// con expiración. No sobrevive reinicios, aceptable para el flujo de
// "olvidé mi contraseña".
type resetTokenStore struct {
	mu     sync.Mutex
	ttl    time.Duration
	tokens map[string]resetToken
	now    func() time.Time
}

type resetToken struct {
	userID    string
	expiresAt time.Time
}

func newResetTokenStore(ttl time.Duration) *resetTokenStore {
	return &resetTokenStore{
		ttl:    ttl,
		tokens: make(map[string]resetToken),
		now:    time.Now,
	}
}

// Issue genera un token nuevo para el usuario. Purga expirados de paso.
func (s *resetTokenStore) Issue(userID string) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	token := hex.EncodeToString(buf)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.purgeLocked()
	s.tokens[token] = resetToken{
		userID:    userID,
		expiresAt: s.now().Add(s.ttl),
	}
	return token, nil
}

// Consume valida y quema el token. Segundo uso del mismo token falla.
func (s *resetTokenStore) Consume(token string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rt, ok := s.tokens[token]
	if !ok {
		return "", false
	}
	delete(s.tokens, token)

	if s.now().After(rt.expiresAt) {
		return "", false
	}
	return rt.userID, true
}

func (s *resetTokenStore) purgeLocked() {
	now := s.now()
	for t, rt := range s.tokens {
		if now.After(rt.expiresAt) {
			delete(s.tokens, t)
		}
	}
}
