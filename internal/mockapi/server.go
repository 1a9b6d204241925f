// Package mockapi is an in-process fake of the bar-management backend used by
// tests and by gatectl's mock-server command.
package mockapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/MrEthical07/goGate/api"
	"github.com/MrEthical07/goGate/jwt"
	"github.com/MrEthical07/goGate/session"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"
)

// BasePath is where the API is mounted, matching the real backend.
const BasePath = "/api/v1"

var (
	ErrDuplicateUser    = errors.New("user already exists")
	ErrUnknownUser      = errors.New("unknown user")
	ErrUnknownBar       = errors.New("unknown bar")
	ErrUnknownInvite    = errors.New("unknown invitation")
	ErrPasswordTooShort = errors.New("password must be at least 6 characters")
)

// User seeds an account.
type User struct {
	Email      string
	Name       string
	Password   string
	SuperAdmin bool
}

// Request is one request as seen by the server.
type Request struct {
	Method        string
	Path          string
	Authorization string
	RequestID     string
}

type account struct {
	identity session.Identity
	hash     []byte
}

type invitation struct {
	email string
	barID string
	role  session.Role
}

type barRecord struct {
	bar     api.Bar
	stats   api.BarStats
	members map[string]session.Role
}

// Server is the fake backend. The zero value is not usable; call [New].
type Server struct {
	tokens *jwt.Manager
	now    func() time.Time
	cost   int

	mu          sync.Mutex
	accounts    map[string]*account
	bars        map[string]*barRecord
	invitations map[string]invitation
	resets      map[string]string
	issued      map[string]string
	revoked     map[string]bool
	down        bool
	requests    []Request
}

// New returns a Server signing tokens with key (at least 32 bytes).
func New(key []byte, ttl time.Duration) (*Server, error) {
	if ttl <= 0 {
		ttl = time.Hour
	}
	m, err := jwt.NewManager(jwt.Config{TTL: ttl, Key: key, Issuer: "mockapi"})
	if err != nil {
		return nil, err
	}
	return &Server{
		tokens:      m,
		now:         time.Now,
		cost:        bcrypt.MinCost,
		accounts:    make(map[string]*account),
		bars:        make(map[string]*barRecord),
		invitations: make(map[string]invitation),
		resets:      make(map[string]string),
		issued:      make(map[string]string),
		revoked:     make(map[string]bool),
	}, nil
}

// AddUser creates an account and returns its identity.
func (s *Server) AddUser(u User) (session.Identity, error) {
	if len(u.Password) < 6 {
		return session.Identity{}, ErrPasswordTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), s.cost)
	if err != nil {
		return session.Identity{}, err
	}
	email := normalizeEmail(u.Email)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[email]; ok {
		return session.Identity{}, ErrDuplicateUser
	}
	acc := &account{
		identity: session.Identity{
			ID:           "u-" + uuid.NewString(),
			Email:        email,
			DisplayName:  u.Name,
			IsPrivileged: u.SuperAdmin,
		},
		hash: hash,
	}
	s.accounts[email] = acc
	return acc.identity.Clone(), nil
}

// AddBar creates a bar owned by ownerEmail.
func (s *Server) AddBar(ownerEmail string, req api.CreateBarRequest) (api.Bar, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[normalizeEmail(ownerEmail)]
	if !ok {
		return api.Bar{}, ErrUnknownUser
	}
	return s.addBarLocked(acc, req), nil
}

func (s *Server) addBarLocked(owner *account, req api.CreateBarRequest) api.Bar {
	rec := &barRecord{
		bar: api.Bar{
			ID:      "b-" + uuid.NewString(),
			Name:    req.Name,
			City:    req.City,
			Address: req.Address,
			Active:  true,
		},
		members: map[string]session.Role{owner.identity.ID: session.RoleOwner},
	}
	s.bars[rec.bar.ID] = rec
	owner.identity.Memberships = append(owner.identity.Memberships, session.Membership{
		BarID:   rec.bar.ID,
		BarName: rec.bar.Name,
		Role:    session.RoleOwner,
		Active:  true,
	})
	return rec.bar
}

// SetStats replaces the stats returned for barID.
func (s *Server) SetStats(barID string, stats api.BarStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.bars[barID]
	if !ok {
		return ErrUnknownBar
	}
	rec.stats = stats
	return nil
}

// Invite creates an invitation and returns its one-time token.
func (s *Server) Invite(barID, email string, role session.Role) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inviteLocked(barID, email, role)
}

func (s *Server) inviteLocked(barID, email string, role session.Role) (string, error) {
	if _, ok := s.bars[barID]; !ok {
		return "", ErrUnknownBar
	}
	token := uuid.NewString()
	s.invitations[token] = invitation{email: normalizeEmail(email), barID: barID, role: role}
	return token, nil
}

// ResetToken issues a password reset token for email.
func (s *Server) ResetToken(email string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email = normalizeEmail(email)
	if _, ok := s.accounts[email]; !ok {
		return "", ErrUnknownUser
	}
	token := uuid.NewString()
	s.resets[token] = email
	return token, nil
}

// Revoke makes every token issued so far for userID answer 401.
func (s *Server) Revoke(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, uid := range s.issued {
		if uid == userID {
			s.revoked[token] = true
		}
	}
}

// RevokeToken makes token answer 401.
func (s *Server) RevokeToken(token string) {
	s.mu.Lock()
	s.revoked[token] = true
	s.mu.Unlock()
}

// SetDown makes every endpoint answer 503 while down is true.
func (s *Server) SetDown(down bool) {
	s.mu.Lock()
	s.down = down
	s.mu.Unlock()
}

// Requests returns the requests received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// Handler returns the router with the API mounted under [BasePath].
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.record)
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	v1 := r.PathPrefix(BasePath).Subrouter()
	v1.HandleFunc("/bar-management/auth/login", s.handleLogin).Methods(http.MethodPost)
	v1.HandleFunc("/bar-management/auth/register", s.handleRegister).Methods(http.MethodPost)
	v1.HandleFunc("/bar-management/auth/reset-password", s.handleResetPassword).Methods(http.MethodPost)
	v1.HandleFunc("/bar-management/invitations/{token}", s.handleVerifyInvitation).Methods(http.MethodGet)

	authed := v1.PathPrefix("/bar-management/bars").Subrouter()
	authed.Use(s.authenticate)
	authed.HandleFunc("", s.handleListBars).Methods(http.MethodGet)
	authed.HandleFunc("", s.handleCreateBar).Methods(http.MethodPost)
	authed.HandleFunc("/{barId}/stats", s.handleBarStats).Methods(http.MethodGet)
	authed.HandleFunc("/{barId}/invite", s.handleInvite).Methods(http.MethodPost)

	return r
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:        r.Method,
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
			RequestID:     r.Header.Get("X-Request-Id"),
		})
		down := s.down
		s.mu.Unlock()

		if id := r.Header.Get("X-Request-Id"); id != "" {
			w.Header().Set("X-Request-Id", id)
		}
		if down {
			writeError(w, http.StatusServiceUnavailable, "service unavailable")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type accountKey struct{}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			writeError(w, http.StatusUnauthorized, "missing token")
			return
		}
		claims, err := s.tokens.Parse(raw)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		s.mu.Lock()
		revoked := s.revoked[raw]
		acc := s.accountByIDLocked(claims.UID)
		s.mu.Unlock()
		if revoked || acc == nil {
			writeError(w, http.StatusUnauthorized, "token revoked")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), accountKey{}, acc)))
	})
}

func (s *Server) accountByIDLocked(id string) *account {
	for _, acc := range s.accounts {
		if acc.identity.ID == id {
			return acc
		}
	}
	return nil
}

func (s *Server) issueLocked(acc *account) (api.LoginResult, error) {
	token, err := s.tokens.Issue(acc.identity.ID, acc.identity.Email, s.now())
	if err != nil {
		return api.LoginResult{}, err
	}
	s.issued[token] = acc.identity.ID
	return api.LoginResult{Token: token, User: acc.identity.Clone()}, nil
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[normalizeEmail(req.Email)]
	if !ok || bcrypt.CompareHashAndPassword(acc.hash, []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	res, err := s.issueLocked(acc)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token issue failed")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req api.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if len(req.Password) < 6 {
		writeError(w, http.StatusBadRequest, ErrPasswordTooShort.Error())
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "hash failed")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invitations[req.InvitationToken]
	if !ok {
		writeError(w, http.StatusNotFound, ErrUnknownInvite.Error())
		return
	}
	delete(s.invitations, req.InvitationToken)

	acc, exists := s.accounts[inv.email]
	if !exists {
		acc = &account{identity: session.Identity{
			ID:          "u-" + uuid.NewString(),
			Email:       inv.email,
			DisplayName: req.Name,
		}}
		s.accounts[inv.email] = acc
	}
	acc.hash = hash
	bar := s.bars[inv.barID]
	bar.members[acc.identity.ID] = inv.role
	acc.identity.Memberships = append(acc.identity.Memberships, session.Membership{
		BarID:   bar.bar.ID,
		BarName: bar.bar.Name,
		Role:    inv.role,
		Active:  bar.bar.Active,
	})

	res, err := s.issueLocked(acc)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token issue failed")
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if len(req.Password) < 6 {
		writeError(w, http.StatusBadRequest, ErrPasswordTooShort.Error())
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "hash failed")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	email, ok := s.resets[req.Token]
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid reset token")
		return
	}
	delete(s.resets, req.Token)
	s.accounts[email].hash = hash
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleVerifyInvitation(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]

	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invitations[token]
	if !ok {
		writeError(w, http.StatusNotFound, ErrUnknownInvite.Error())
		return
	}
	writeJSON(w, http.StatusOK, api.Invitation{
		Email:   inv.email,
		BarID:   inv.barID,
		BarName: s.bars[inv.barID].bar.Name,
		Role:    inv.role,
	})
}

func (s *Server) handleListBars(w http.ResponseWriter, r *http.Request) {
	acc := r.Context().Value(accountKey{}).(*account)

	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]api.Bar, 0, len(acc.identity.Memberships))
	for _, m := range acc.identity.Memberships {
		rec, ok := s.bars[m.BarID]
		if !ok {
			continue
		}
		bar := rec.bar
		bar.Role = m.Role
		bar.PendingOrders = rec.stats.PendingOrders
		bar.PendingPhotos = rec.stats.PendingPhotos
		out = append(out, bar)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateBar(w http.ResponseWriter, r *http.Request) {
	acc := r.Context().Value(accountKey{}).(*account)
	var req api.CreateBarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	s.mu.Lock()
	bar := s.addBarLocked(acc, req)
	s.mu.Unlock()

	bar.Role = session.RoleOwner
	writeJSON(w, http.StatusCreated, bar)
}

func (s *Server) handleBarStats(w http.ResponseWriter, r *http.Request) {
	acc := r.Context().Value(accountKey{}).(*account)
	barID := mux.Vars(r)["barId"]

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.bars[barID]
	if !ok {
		writeError(w, http.StatusNotFound, ErrUnknownBar.Error())
		return
	}
	if _, member := rec.members[acc.identity.ID]; !member && !acc.identity.IsPrivileged {
		writeError(w, http.StatusForbidden, "not a member of this bar")
		return
	}
	writeJSON(w, http.StatusOK, rec.stats)
}

func (s *Server) handleInvite(w http.ResponseWriter, r *http.Request) {
	acc := r.Context().Value(accountKey{}).(*account)
	barID := mux.Vars(r)["barId"]
	var req struct {
		Email string       `json:"email"`
		Role  session.Role `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !req.Role.Valid() || req.Email == "" {
		writeError(w, http.StatusBadRequest, "email and valid role are required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.bars[barID]
	if !ok {
		writeError(w, http.StatusNotFound, ErrUnknownBar.Error())
		return
	}
	role := rec.members[acc.identity.ID]
	if role != session.RoleOwner && role != session.RoleManager && !acc.identity.IsPrivileged {
		writeError(w, http.StatusForbidden, "insufficient role")
		return
	}
	token, err := s.inviteLocked(barID, req.Email, req.Role)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, api.InviteResult{InvitationLink: "/register?token=" + token})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}
