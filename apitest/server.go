// Package apitest provides an in-memory product backend for tests. It serves
// the same routes as the real API and records every request it receives.
package apitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"

	"product-console/models"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/umakantv/go-utils/errs"
	"golang.org/x/crypto/bcrypt"
)

// Request is a recorded request
type Request struct {
	Method        string
	Path          string
	Authorization string
	RequestID     string
}

type user struct {
	name         string
	passwordHash []byte
}

func newUser(name, password string) (user, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return user{}, err
	}
	return user{name: name, passwordHash: hash}, nil
}

// Server is a fake product backend
type Server struct {
	*httptest.Server

	mu           sync.Mutex
	products     []models.Product
	users        map[string]user
	tokens       map[string]string
	failNext     map[string]int
	listOverride string
	requests     []Request
}

// Route names accepted by FailNext
const (
	RouteList     = "ListProducts"
	RouteFeatured = "ListFeatured"
	RoutePrice    = "ListByPrice"
	RouteRating   = "ListByRating"
	RouteCreate   = "CreateProduct"
	RouteUpdate   = "UpdateProduct"
	RouteDelete   = "DeleteProduct"
	RouteLogin    = "Login"
	RouteSignup   = "Signup"
)

// New starts a fake backend; it is closed automatically by Close
func New() *Server {
	s := &Server{
		users:    make(map[string]user),
		tokens:   make(map[string]string),
		failNext: make(map[string]int),
	}

	r := mux.NewRouter()
	r.Use(s.record)

	r.HandleFunc("/api/product/", s.listProducts).Methods(http.MethodGet).Name(RouteList)
	r.HandleFunc("/api/product/featured", s.requireAuth(s.listFeatured)).Methods(http.MethodGet).Name(RouteFeatured)
	r.HandleFunc("/api/product/price/{max}", s.requireAuth(s.listByPrice)).Methods(http.MethodGet).Name(RoutePrice)
	r.HandleFunc("/api/product/rating/{min}", s.requireAuth(s.listByRating)).Methods(http.MethodGet).Name(RouteRating)
	r.HandleFunc("/api/product/add", s.requireAuth(s.createProduct)).Methods(http.MethodPost).Name(RouteCreate)
	r.HandleFunc("/api/product/{id}", s.requireAuth(s.updateProduct)).Methods(http.MethodPut).Name(RouteUpdate)
	r.HandleFunc("/api/product/{id}", s.requireAuth(s.deleteProduct)).Methods(http.MethodDelete).Name(RouteDelete)
	r.HandleFunc("/api/user/signup", s.signup).Methods(http.MethodPost).Name(RouteSignup)
	r.HandleFunc("/api/user/login", s.login).Methods(http.MethodPost).Name(RouteLogin)

	s.Server = httptest.NewServer(r)
	return s
}

// Seed appends products in order; products without an id get one
func (s *Server) Seed(products ...models.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range products {
		if p.ID == "" {
			p.ID = uuid.New().String()
		}
		s.products = append(s.products, p)
	}
}

// Products returns the backend's current products
func (s *Server) Products() []models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Product(nil), s.products...)
}

// AddUser registers a user that can log in
func (s *Server) AddUser(name, email, password string) {
	u, err := newUser(name, password)
	if err != nil {
		panic(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[email] = u
}

// IssueToken returns a valid bearer token without going through login
func (s *Server) IssueToken(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issueTokenLocked(email)
}

func (s *Server) issueTokenLocked(email string) string {
	token := "tok_" + uuid.New().String()
	s.tokens[token] = email
	return token
}

// RevokeToken makes a previously issued token invalid (simulates expiry)
func (s *Server) RevokeToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
}

// FailNext makes the next request to the named route answer with status
func (s *Server) FailNext(route string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext[route] = status
}

// OverrideList makes every listing endpoint answer with the raw JSON body
func (s *Server) OverrideList(body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listOverride = body
}

// Requests returns the recorded requests
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// record stores each request and applies any pending FailNext
func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := ""
		if route := mux.CurrentRoute(r); route != nil {
			name = route.GetName()
		}

		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:        r.Method,
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
			RequestID:     r.Header.Get("X-Request-ID"),
		})
		status, fail := s.failNext[name]
		if fail {
			delete(s.failNext, name)
		}
		s.mu.Unlock()

		if fail {
			writeJSON(w, status, errs.NewInternalServerError("Injected failure"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireAuth rejects requests without a known bearer token
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if len(auth) <= 7 || auth[:7] != "Bearer " {
			writeJSON(w, http.StatusUnauthorized, errs.NewAuthenticationError("Missing bearer token"))
			return
		}

		s.mu.Lock()
		_, ok := s.tokens[auth[7:]]
		s.mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusUnauthorized, errs.NewAuthenticationError("Invalid token"))
			return
		}
		next(w, r)
	}
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	s.writeList(w, func(models.Product) bool { return true })
}

func (s *Server) listFeatured(w http.ResponseWriter, r *http.Request) {
	s.writeList(w, func(p models.Product) bool { return p.Featured })
}

func (s *Server) listByPrice(w http.ResponseWriter, r *http.Request) {
	max, err := strconv.ParseFloat(mux.Vars(r)["max"], 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errs.NewValidationError("Invalid price"))
		return
	}
	s.writeList(w, func(p models.Product) bool { return p.Price < max })
}

func (s *Server) listByRating(w http.ResponseWriter, r *http.Request) {
	min, err := strconv.Atoi(mux.Vars(r)["min"])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errs.NewValidationError("Invalid rating"))
		return
	}
	s.writeList(w, func(p models.Product) bool { return p.Rating >= min })
}

func (s *Server) writeList(w http.ResponseWriter, keep func(models.Product) bool) {
	s.mu.Lock()
	override := s.listOverride
	products := make([]models.Product, 0, len(s.products))
	for _, p := range s.products {
		if keep(p) {
			products = append(products, p)
		}
	}
	s.mu.Unlock()

	if override != "" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(override))
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (s *Server) createProduct(w http.ResponseWriter, r *http.Request) {
	var in models.ProductInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, errs.NewValidationError("Invalid JSON"))
		return
	}
	if in.Name == "" || in.Company == "" || in.Rating < 1 || in.Rating > 5 {
		writeJSON(w, http.StatusBadRequest, errs.NewValidationError("Invalid product"))
		return
	}

	p := models.Product{
		ID:       uuid.New().String(),
		Name:     models.StringPtr(in.Name),
		Price:    in.Price,
		Company:  in.Company,
		Rating:   in.Rating,
		Featured: in.Featured,
	}

	s.mu.Lock()
	s.products = append(s.products, p)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) updateProduct(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var update models.ProductUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeJSON(w, http.StatusBadRequest, errs.NewValidationError("Invalid JSON"))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.products {
		if p.ID == id {
			s.products[i] = update.Apply(p)
			writeJSON(w, http.StatusOK, s.products[i])
			return
		}
	}
	writeJSON(w, http.StatusNotFound, errs.NewNotFoundError("Product not found"))
}

func (s *Server) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.products {
		if p.ID == id {
			s.products = append(s.products[:i], s.products[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]string{"message": "Product deleted successfully"})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, errs.NewNotFoundError("Product not found"))
}

func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errs.NewValidationError("Invalid JSON"))
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, errs.NewValidationError("Name, email, and password are required"))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[req.Email]; exists {
		writeJSON(w, http.StatusConflict, errs.NewValidationError("User already exists"))
		return
	}
	u, err := newUser(req.Name, req.Password)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errs.NewValidationError("Invalid password"))
		return
	}
	s.users[req.Email] = u
	writeJSON(w, http.StatusCreated, models.AuthResponse{Token: s.issueTokenLocked(req.Email), ExpiresIn: 3600})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errs.NewValidationError("Invalid JSON"))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[req.Email]
	if !ok || bcrypt.CompareHashAndPassword(u.passwordHash, []byte(req.Password)) != nil {
		writeJSON(w, http.StatusUnauthorized, errs.NewValidationError("Invalid credentials"))
		return
	}
	writeJSON(w, http.StatusOK, models.AuthResponse{Token: s.issueTokenLocked(req.Email), ExpiresIn: 3600})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
