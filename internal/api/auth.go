package api

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/MohamedMedhat18/HEO-System/internal/storage"
)

const tokenLifetime = 24 * time.Hour

type authClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func jwtSecretFromEnv() []byte {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		// sessions won't survive a restart without a configured secret
		secret = uuid.New().String()
		log.Println("Warning: JWT_SECRET not set, using a per-process secret")
	}
	return []byte(secret)
}

// EnsureDefaultAdmin seeds the first admin account on an empty user
// table so a fresh deployment can be signed in to.
func EnsureDefaultAdmin(store storage.Storage) error {
	count, err := store.CountUsers()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "admin123"
		log.Println("Warning: ADMIN_PASSWORD not set, default admin uses the built-in password")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := store.AddUser(storage.User{
		Username:     "admin",
		PasswordHash: string(hash),
		Role:         "admin",
	}); err != nil {
		return err
	}
	log.Println("Seeded default admin account")
	return nil
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "Method not allowed"})
		return
	}
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}
	user, err := h.storage.GetUserByUsername(body.Username)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "Invalid credentials"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)); err != nil {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "Invalid credentials"})
		log.Printf("API ERROR: Failed login attempt for %s\n", body.Username)
		return
	}
	token, err := h.issueToken(user)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Failed to issue token"})
		log.Printf("API ERROR: Failed to sign token for %s: %v\n", user.Username, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"token": token,
		"role":  user.Role,
	})
	log.Printf("HTTP: User %s signed in\n", user.Username)
}

func (h *Handler) issueToken(user storage.User) (string, error) {
	now := time.Now()
	claims := authClaims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			ID:        uuid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenLifetime)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.jwtSecret)
}

// Register creates a staff account. Restricted to signed-in users; the
// first admin comes from EnsureDefaultAdmin.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "Method not allowed"})
		return
	}
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}
	if len(body.Password) < 8 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Password must be at least 8 characters"})
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Failed to hash password"})
		return
	}
	if err := h.storage.AddUser(storage.User{
		Username:     body.Username,
		PasswordHash: string(hash),
		Role:         body.Role,
	}); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "created"})
	log.Printf("HTTP: Registered user %s\n", body.Username)
}

// RequireAuth wraps a handler with bearer-token validation.
func (h *Handler) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		tokenStr, found := strings.CutPrefix(header, "Bearer ")
		if !found || tokenStr == "" {
			writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "Missing bearer token"})
			return
		}
		claims := &authClaims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
			return h.jwtSecret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "Invalid or expired token"})
			return
		}
		next(w, r)
	}
}
