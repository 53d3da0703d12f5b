package shared

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// FlashMessage represents a one-time notification stored in session.
type FlashMessage struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Flash kinds understood by the templates.
const (
	FlashSuccess = "success"
	FlashInfo    = "info"
	FlashWarning = "warning"
	FlashError   = "error"
)

// CartLine is one product entry of the session cart.
type CartLine struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// SessionManager orchestrates cookie based sessions backed by Redis.
type SessionManager struct {
	client     *redis.Client
	cookieName string
	ttl        time.Duration
	secure     bool
	secret     []byte
}

// Session is the explicit per-visitor record: optional customer identity,
// optional admin identity, the cart and pending flash messages.
type Session struct {
	ID            string
	values        map[string]string
	customerID    int64
	customerEmail string
	adminID       int64
	cart          []CartLine
	flashes       []FlashMessage
	isNew         bool
	dirty         bool
	staleID       string
}

type sessionPayload struct {
	Values        map[string]string `json:"values"`
	CustomerID    int64             `json:"customer_id,omitempty"`
	CustomerEmail string            `json:"customer_email,omitempty"`
	AdminID       int64             `json:"admin_id,omitempty"`
	Cart          []CartLine        `json:"cart,omitempty"`
	Flashes       []FlashMessage    `json:"flashes,omitempty"`
}

// NewSessionManager constructs a SessionManager.
func NewSessionManager(client *redis.Client, cookieName string, secret string, ttl time.Duration, secure bool) *SessionManager {
	return &SessionManager{
		client:     client,
		cookieName: cookieName,
		ttl:        ttl,
		secure:     secure,
		secret:     []byte(secret),
	}
}

// Load loads or creates a new session for request.
func (sm *SessionManager) Load(ctx context.Context, r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(sm.cookieName)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return sm.newSession(), nil
		}
		return nil, err
	}

	payload, err := sm.client.Get(ctx, sm.redisKey(cookie.Value)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			// Expired or unknown token: start over with a fresh identifier.
			return sm.newSession(), nil
		}
		return nil, err
	}

	var stored sessionPayload
	if err := json.Unmarshal(payload, &stored); err != nil {
		return nil, err
	}

	sess := sm.newSession()
	sess.ID = cookie.Value
	if stored.Values != nil {
		sess.values = stored.Values
	}
	sess.customerID = stored.CustomerID
	sess.customerEmail = stored.CustomerEmail
	sess.adminID = stored.AdminID
	sess.cart = stored.Cart
	sess.flashes = stored.Flashes
	sess.isNew = false
	sess.dirty = false
	return sess, nil
}

// Commit persists the session and writes cookie headers as needed. A clean
// session only has its Redis lifetime extended to match the refreshed cookie.
func (sm *SessionManager) Commit(ctx context.Context, w http.ResponseWriter, r *http.Request, sess *Session) error {
	if sess == nil {
		return nil
	}

	if sess.staleID != "" {
		if err := sm.client.Del(ctx, sm.redisKey(sess.staleID)).Err(); err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		sess.staleID = ""
	}

	if sess.ID == "" {
		sess.ID = sm.generateSessionID()
	}

	if sess.dirty || sess.isNew {
		data, err := json.Marshal(sess.payload())
		if err != nil {
			return err
		}
		if err := sm.client.Set(ctx, sm.redisKey(sess.ID), data, sm.ttl).Err(); err != nil {
			return err
		}
		sess.dirty = false
		sess.isNew = false
	} else if err := sm.client.Expire(ctx, sm.redisKey(sess.ID), sm.ttl).Err(); err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sm.cookieName,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   sm.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(sm.ttl),
	})
	return nil
}

// Reset wipes every value of the session and rotates its identifier. The
// previous record is deleted on commit; flashes added afterwards survive.
func (sm *SessionManager) Reset(sess *Session) {
	if sess == nil {
		return
	}
	if !sess.isNew {
		sess.staleID = sess.ID
	}
	sess.ID = sm.generateSessionID()
	sess.values = make(map[string]string)
	sess.customerID = 0
	sess.customerEmail = ""
	sess.adminID = 0
	sess.cart = nil
	sess.flashes = nil
	sess.isNew = true
	sess.dirty = true
}

// Renew rotates the session identifier and keeps its contents. Call it when
// the privilege level of a session changes.
func (sm *SessionManager) Renew(sess *Session) {
	if sess == nil {
		return
	}
	if !sess.isNew {
		sess.staleID = sess.ID
	}
	sess.ID = sm.generateSessionID()
	sess.isNew = true
	sess.dirty = true
}

// CookieName returns the cookie identifier used for sessions.
func (sm *SessionManager) CookieName() string {
	return sm.cookieName
}

// Set stores a key-value pair.
func (s *Session) Set(key, value string) {
	if s.values == nil {
		s.values = make(map[string]string)
	}
	s.values[key] = value
	s.dirty = true
}

// Get retrieves a value.
func (s *Session) Get(key string) string {
	if s.values == nil {
		return ""
	}
	return s.values[key]
}

// SetCustomer marks the session as logged in for the given customer.
func (s *Session) SetCustomer(id int64, email string) {
	s.customerID = id
	s.customerEmail = email
	s.dirty = true
}

// Customer returns the logged in customer id, if any.
func (s *Session) Customer() (int64, bool) {
	if s == nil || s.customerID == 0 {
		return 0, false
	}
	return s.customerID, true
}

// CustomerEmail returns the email of the logged in customer.
func (s *Session) CustomerEmail() string {
	if s == nil {
		return ""
	}
	return s.customerEmail
}

// SetAdmin marks the session as an authenticated back-office session.
func (s *Session) SetAdmin(id int64) {
	s.adminID = id
	s.dirty = true
}

// ClearAdmin drops the admin flag only, keeping cart and customer state.
func (s *Session) ClearAdmin() {
	if s.adminID == 0 {
		return
	}
	s.adminID = 0
	s.dirty = true
}

// Admin returns the admin id, if the session is logged into the back office.
func (s *Session) Admin() (int64, bool) {
	if s == nil || s.adminID == 0 {
		return 0, false
	}
	return s.adminID, true
}

// CartLines returns a copy of the cart in insertion order.
func (s *Session) CartLines() []CartLine {
	if s == nil || len(s.cart) == 0 {
		return nil
	}
	out := make([]CartLine, len(s.cart))
	copy(out, s.cart)
	return out
}

// SetCartLines replaces the cart.
func (s *Session) SetCartLines(lines []CartLine) {
	s.cart = make([]CartLine, len(lines))
	copy(s.cart, lines)
	s.dirty = true
}

// AddFlash queues a flash message.
func (s *Session) AddFlash(msg FlashMessage) {
	s.flashes = append(s.flashes, msg)
	s.dirty = true
}

// PopFlash retrieves and clears the oldest flash message.
func (s *Session) PopFlash() *FlashMessage {
	if s == nil || len(s.flashes) == 0 {
		return nil
	}
	msg := s.flashes[0]
	s.flashes = s.flashes[1:]
	s.dirty = true
	return &msg
}

func (s *Session) payload() sessionPayload {
	return sessionPayload{
		Values:        s.values,
		CustomerID:    s.customerID,
		CustomerEmail: s.customerEmail,
		AdminID:       s.adminID,
		Cart:          s.cart,
		Flashes:       s.flashes,
	}
}

func (sm *SessionManager) newSession() *Session {
	return &Session{
		ID:      sm.generateSessionID(),
		values: make(map[string]string),
		isNew:  true,
		dirty:  true,
	}
}

func (sm *SessionManager) redisKey(id string) string {
	return "session:" + id
}

func (sm *SessionManager) generateSessionID() string {
	if id, err := uuid.NewRandom(); err == nil {
		return id.String()
	}
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return base64.RawURLEncoding.EncodeToString([]byte(time.Now().Format(time.RFC3339Nano)))
	}
	if len(sm.secret) > 0 {
		for i := range b {
			b[i] ^= sm.secret[i%len(sm.secret)]
		}
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
