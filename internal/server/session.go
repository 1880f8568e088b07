package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ButyrinIA/spacetraveling/internal/content"
	"github.com/ButyrinIA/spacetraveling/internal/metrics"
	"github.com/ButyrinIA/spacetraveling/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionBusy: a previous "load more" on the session has not returned yet.
	ErrSessionBusy = errors.New("session busy")
)

// tokenLifetime ограничивает жизнь токена; простаивающие сессии удаляются раньше по TTL
const tokenLifetime = 12 * time.Hour

// session owns one listing Controller. mu is only ever taken with TryLock.
type session struct {
	id   string
	mu   sync.Mutex
	ctrl *content.Controller

	seenMu   sync.Mutex
	lastSeen time.Time
}

// loadMore appends the next page and returns only the posts it added.
func (s *session) loadMore(ctx context.Context) (models.PaginatedPosts, error) {
	if !s.mu.TryLock() {
		return models.PaginatedPosts{}, ErrSessionBusy
	}
	defer s.mu.Unlock()

	before := s.ctrl.Len()
	if err := s.ctrl.LoadNextPage(ctx); err != nil {
		return models.PaginatedPosts{}, err
	}
	return models.PaginatedPosts{
		Posts:   s.ctrl.Posts()[before:],
		HasMore: s.ctrl.HasMore(),
	}, nil
}

func (s *session) touch(now time.Time) {
	s.seenMu.Lock()
	s.lastSeen = now
	s.seenMu.Unlock()
}

func (s *session) idleSince(now time.Time) time.Duration {
	s.seenMu.Lock()
	defer s.seenMu.Unlock()
	return now.Sub(s.lastSeen)
}

type sessionStore struct {
	mu       sync.Mutex
	sessions map[string]*session
	secret   []byte
	ttl      time.Duration
	// limit <= 0 означает без ограничения
	limit int
	now   func() time.Time
}

func newSessionStore(secret []byte, ttl time.Duration, limit int) *sessionStore {
	return &sessionStore{
		sessions: make(map[string]*session),
		secret:   secret,
		ttl:      ttl,
		limit:    limit,
		now:      time.Now,
	}
}

// create registers a session for ctrl and returns its token.
func (st *sessionStore) create(ctrl *content.Controller) (*session, string, error) {
	sess := &session{id: uuid.NewString(), ctrl: ctrl}
	sess.touch(st.now())

	token, err := generateToken(st.secret, sess.id, st.now())
	if err != nil {
		return nil, "", err
	}

	st.mu.Lock()
	if st.limit > 0 && len(st.sessions) >= st.limit {
		st.evictOldestLocked()
	}
	st.sessions[sess.id] = sess
	metrics.ActiveSessions.Set(float64(len(st.sessions)))
	st.mu.Unlock()
	return sess, token, nil
}

// evictOldestLocked drops the session idle the longest. st.mu must be held.
func (st *sessionStore) evictOldestLocked() {
	now := st.now()
	oldestID := ""
	var oldestIdle time.Duration
	for id, sess := range st.sessions {
		if idle := sess.idleSince(now); oldestID == "" || idle > oldestIdle {
			oldestID, oldestIdle = id, idle
		}
	}
	delete(st.sessions, oldestID)
}

// lookup validates token and returns the live session it names.
func (st *sessionStore) lookup(token string) (*session, error) {
	id, err := validateJWT(st.secret, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionNotFound, err)
	}

	st.mu.Lock()
	sess, ok := st.sessions[id]
	st.mu.Unlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	st.touch(sess)
	return sess, nil
}

// touch marks sess as used now.
func (st *sessionStore) touch(sess *session) {
	sess.touch(st.now())
}

func (st *sessionStore) len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// sweep removes sessions idle longer than the TTL and reports how many went.
func (st *sessionStore) sweep() int {
	now := st.now()

	st.mu.Lock()
	defer st.mu.Unlock()
	removed := 0
	for id, sess := range st.sessions {
		if sess.idleSince(now) > st.ttl {
			delete(st.sessions, id)
			removed++
		}
	}
	metrics.ActiveSessions.Set(float64(len(st.sessions)))
	return removed
}

// janitor sweeps every interval until ctx is done.
func (st *sessionStore) janitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st.sweep()
		}
	}
}

func generateToken(secret []byte, sessionID string, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sid": sessionID,
		"iat": now.Unix(),
		"exp": now.Add(tokenLifetime).Unix(),
	})
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

func validateJWT(secret []byte, tokenStr string) (string, error) {
	if tokenStr == "" {
		return "", errors.New("пустой токен")
	}

	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("неверный токен: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", errors.New("неверный токен")
	}
	sid, ok := claims["sid"].(string)
	if !ok || sid == "" {
		return "", errors.New("в токене нет sid")
	}
	return sid, nil
}
