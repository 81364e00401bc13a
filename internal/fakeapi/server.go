// Package fakeapi is an in-memory Mzansi Plates API for local development
// and tests. It serves sample restaurants, recipes and events, issues
// HS256 tokens on login and keeps users and favourites in memory.
package fakeapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mzansiplatess/plates-cli/internal/models"
)

// TokenTTL is the lifetime of issued tokens.
const TokenTTL = 24 * time.Hour

type fault struct {
	status int
	body   string
}

type account struct {
	user     models.User
	password string
}

// Server is the fake API. Its zero value is not usable; call New.
type Server struct {
	secret []byte
	log    logrus.FieldLogger
	now    func() time.Time
	router chi.Router

	restaurants []models.Restaurant
	recipes     []models.Recipe
	events      []models.Event

	mu         sync.Mutex
	accounts   map[string]*account // by lower-cased email
	favourites []models.Favourite
	faults     map[string]fault
}

// Option configures a Server.
type Option func(*Server)

// WithSecret sets the token signing key.
func WithSecret(secret []byte) Option {
	return func(s *Server) { s.secret = secret }
}

// WithLogger logs each request.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Server) { s.log = l }
}

// WithClock replaces time.Now for token issuing.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New creates a server seeded with sample data and the demo account.
func New(opts ...Option) *Server {
	s := &Server{
		secret:      []byte("plates-dev-secret"),
		now:         time.Now,
		restaurants: sampleRestaurants(),
		recipes:     sampleRecipes(),
		events:      sampleEvents(),
		accounts:    map[string]*account{},
		faults:      map[string]fault{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.accounts[DemoEmail] = &account{
		user:     models.User{ID: "demo-user", Name: "Demo Cook", Email: DemoEmail, City: "Durban", IsEmailVerified: true},
		password: DemoPassword,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(s.logRequests, s.injectFaults)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeData(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/restaurants", s.listRestaurants)
	r.Get("/restaurants/{id}", s.getRestaurant)
	r.Get("/recipes", s.listRecipes)
	r.Get("/recipes/{id}", s.getRecipe)
	r.Get("/events", s.listEvents)
	r.Get("/events/{id}", s.getEvent)

	r.Post("/auth/login", s.login)
	r.Post("/users", s.createUser)

	r.Route("/favourites", func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Get("/", s.listFavourites)
		r.Post("/", s.addFavourite)
		r.Delete("/{id}", s.removeFavourite)
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// SetFault makes every request whose path starts with prefix fail with
// status and a plain-text body until ClearFaults.
func (s *Server) SetFault(prefix string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[prefix] = fault{status: status, body: body}
}

// ClearFaults removes every injected fault.
func (s *Server) ClearFaults() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = map[string]fault{}
}

func (s *Server) injectFaults(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		var hit *fault
		for prefix, f := range s.faults {
			if strings.HasPrefix(r.URL.Path, prefix) {
				hit = &f
				break
			}
		}
		s.mu.Unlock()

		if hit != nil {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(hit.status)
			_, _ = w.Write([]byte(hit.body))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.log == nil {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"request_id": r.Header.Get("X-Request-ID"),
			"duration":   time.Since(start).String(),
		}).Info("request")
	})
}

// --- responses

type envelope struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data,omitempty"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
	Timestamp string `json:"timestamp"`
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data, Timestamp: time.Now().UTC().Format(time.RFC3339)})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{Success: false, Error: msg, Timestamp: time.Now().UTC().Format(time.RFC3339)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// --- catalogue

type query struct {
	q         string
	city      string
	category  string
	minRating float64
	maxPrice  float64
	page      int
	limit     int
	sortBy    string
	asc       bool
}

func parseQuery(r *http.Request) query {
	v := r.URL.Query()
	q := query{
		q:        strings.ToLower(strings.TrimSpace(v.Get("q"))),
		city:     v.Get("city"),
		category: v.Get("category"),
		sortBy:   v.Get("sortBy"),
		asc:      v.Get("sortOrder") == "asc",
		page:     1,
	}
	q.minRating, _ = strconv.ParseFloat(v.Get("minRating"), 64)
	q.maxPrice, _ = strconv.ParseFloat(v.Get("maxPrice"), 64)
	if p, err := strconv.Atoi(v.Get("page")); err == nil && p > 0 {
		q.page = p
	}
	if l, err := strconv.Atoi(v.Get("limit")); err == nil && l > 0 {
		q.limit = l
	}
	return q
}

func (q query) matches(name, description, city, category string, rating float64) bool {
	if q.q != "" && !strings.Contains(strings.ToLower(name+" "+description), q.q) {
		return false
	}
	if q.city != "" && !strings.EqualFold(q.city, city) {
		return false
	}
	if q.category != "" && !strings.EqualFold(q.category, category) {
		return false
	}
	return rating >= q.minRating
}

func paginate[T any](items []T, q query) []T {
	if q.limit == 0 {
		return items
	}
	start := (q.page - 1) * q.limit
	if start >= len(items) {
		return []T{}
	}
	return items[start:min(start+q.limit, len(items))]
}

func sortByRating[T any](items []T, q query, rating func(T) float64) {
	if q.sortBy != "rating" {
		return
	}
	sort.SliceStable(items, func(i, j int) bool {
		if q.asc {
			return rating(items[i]) < rating(items[j])
		}
		return rating(items[i]) > rating(items[j])
	})
}

func (s *Server) listRestaurants(w http.ResponseWriter, r *http.Request) {
	q := parseQuery(r)
	out := []models.Restaurant{}
	for _, it := range s.restaurants {
		if q.matches(it.Name, it.Description, it.City, "", it.Rating) {
			out = append(out, it)
		}
	}
	sortByRating(out, q, func(it models.Restaurant) float64 { return it.Rating })
	writeData(w, http.StatusOK, paginate(out, q))
}

func (s *Server) listRecipes(w http.ResponseWriter, r *http.Request) {
	q := parseQuery(r)
	out := []models.Recipe{}
	for _, it := range s.recipes {
		if q.matches(it.Name, it.Description, "", it.Category, it.Rating) {
			out = append(out, it)
		}
	}
	sortByRating(out, q, func(it models.Recipe) float64 { return it.Rating })
	writeData(w, http.StatusOK, paginate(out, q))
}

func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	q := parseQuery(r)
	out := []models.Event{}
	for _, it := range s.events {
		if !q.matches(it.Name, it.Description, it.City, it.Category, 0) {
			continue
		}
		if q.maxPrice > 0 && it.Price > q.maxPrice {
			continue
		}
		out = append(out, it)
	}
	writeData(w, http.StatusOK, paginate(out, q))
}

func find[T any](items []T, id string, idOf func(T) string) (T, bool) {
	for _, it := range items {
		if idOf(it) == id {
			return it, true
		}
	}
	var zero T
	return zero, false
}

func (s *Server) getRestaurant(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if it, ok := find(s.restaurants, id, func(x models.Restaurant) string { return x.ID }); ok {
		writeData(w, http.StatusOK, it)
		return
	}
	writeError(w, http.StatusNotFound, "Restaurant not found")
}

func (s *Server) getRecipe(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if it, ok := find(s.recipes, id, func(x models.Recipe) string { return x.ID }); ok {
		writeData(w, http.StatusOK, it)
		return
	}
	writeError(w, http.StatusNotFound, "Recipe not found")
}

func (s *Server) getEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if it, ok := find(s.events, id, func(x models.Event) string { return x.ID }); ok {
		writeData(w, http.StatusOK, it)
		return
	}
	writeError(w, http.StatusNotFound, "Event not found")
}

// --- accounts

type claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// IssueToken signs a token for the user.
func (s *Server) IssueToken(user models.User) (string, error) {
	now := s.now()
	c := claims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    "plates-fakeapi",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
}

func (s *Server) verifyToken(raw string) (string, error) {
	token, err := jwt.ParseWithClaims(raw, &claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", err
	}
	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid || c.Subject == "" {
		return "", errors.New("invalid token")
	}
	return c.Subject, nil
}

type userKey struct{}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			writeError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		userID, err := s.verifyToken(raw)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				writeError(w, http.StatusUnauthorized, "Token expired")
				return
			}
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		r.Header.Set("X-User-ID", userID)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	acct, ok := s.accounts[strings.ToLower(strings.TrimSpace(body.Email))]
	s.mu.Unlock()
	if !ok || acct.password != body.Password {
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, err := s.IssueToken(acct.user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Could not issue token")
		return
	}
	writeData(w, http.StatusOK, map[string]any{"token": token, "user": acct.user})
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var u models.User
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	u.Name = strings.TrimSpace(u.Name)
	u.Email = strings.TrimSpace(u.Email)
	if u.Name == "" || u.Email == "" || !strings.Contains(u.Email, "@") {
		writeError(w, http.StatusBadRequest, "Name and a valid email are required")
		return
	}
	if len(u.Password) < 6 {
		writeError(w, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	}

	key := strings.ToLower(u.Email)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[key]; exists {
		writeError(w, http.StatusConflict, "Email already registered")
		return
	}

	password := u.Password
	u.Password = ""
	u.ID = uuid.NewString()
	now := s.now().UTC().Format(time.RFC3339)
	u.CreatedAt, u.UpdatedAt = now, now
	prefs := models.DefaultPreferences()
	u.Preferences = &prefs
	s.accounts[key] = &account{user: u, password: password}
	writeData(w, http.StatusCreated, u)
}

// --- favourites

func (s *Server) listFavourites(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-ID")
	itemType := strings.ToUpper(r.URL.Query().Get("type"))

	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Favourite{}
	for _, f := range s.favourites {
		if f.UserID != userID {
			continue
		}
		if itemType != "" && string(f.ItemType) != itemType {
			continue
		}
		out = append(out, f)
	}
	writeData(w, http.StatusOK, out)
}

func (s *Server) exists(t models.FavouriteType, id string) bool {
	switch t {
	case models.FavouriteRestaurant:
		_, ok := find(s.restaurants, id, func(x models.Restaurant) string { return x.ID })
		return ok
	case models.FavouriteRecipe:
		_, ok := find(s.recipes, id, func(x models.Recipe) string { return x.ID })
		return ok
	case models.FavouriteEvent:
		_, ok := find(s.events, id, func(x models.Event) string { return x.ID })
		return ok
	}
	return false
}

func (s *Server) addFavourite(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ItemType string `json:"itemType"`
		ItemID   string `json:"itemId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	t, err := models.ParseFavouriteType(body.ItemType)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid item type")
		return
	}
	if !s.exists(t, body.ItemID) {
		writeError(w, http.StatusNotFound, "Item not found")
		return
	}

	userID := r.Header.Get("X-User-ID")
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.favourites {
		if f.UserID == userID && f.ItemType == t && f.ItemID == body.ItemID {
			writeData(w, http.StatusOK, f)
			return
		}
	}
	now := s.now().UTC().Format(time.RFC3339)
	f := models.Favourite{ID: uuid.NewString(), UserID: userID, ItemType: t, ItemID: body.ItemID, CreatedAt: now, UpdatedAt: now}
	s.favourites = append(s.favourites, f)
	writeData(w, http.StatusCreated, f)
}

func (s *Server) removeFavourite(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	userID := r.Header.Get("X-User-ID")

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, f := range s.favourites {
		if f.ID == id && f.UserID == userID {
			s.favourites = append(s.favourites[:i], s.favourites[i+1:]...)
			writeData(w, http.StatusOK, map[string]string{"message": "Favourite removed"})
			return
		}
	}
	writeError(w, http.StatusNotFound, "Favourite not found")
}
