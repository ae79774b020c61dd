// This is a **development token service**: it mints session and
// anti-forgery tokens for a given user id and role so the job-board API
// can be exercised locally without going through registration.
package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"

	"github.com/gartstein/jobboard/internal/jobboard/auth"
	"github.com/gartstein/jobboard/internal/jobboard/models"
	"github.com/google/uuid"
)

const (
	defaultPort   = "8081"       // Default port for the token service
	defaultSecret = "jwt_secret" // Secret for signing JWT
)

// TokenResponse represents the response structure
type TokenResponse struct {
	Token     string `json:"token"`
	CSRFToken string `json:"csrf_token"`
}

// tokenHandler generates a session JWT plus a matching anti-forgery
// token and returns both in a JSON response. The user id and role come
// from query parameters; a missing user id gets a fresh one.
func tokenHandler(w http.ResponseWriter, r *http.Request) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = defaultSecret
	}

	userID := uuid.New()
	if raw := r.URL.Query().Get("user_id"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			http.Error(w, "invalid user_id", http.StatusBadRequest)
			return
		}
		userID = parsed
	}

	role, err := models.ParseRole(r.URL.Query().Get("role"))
	if err != nil {
		role = models.RoleJobSeeker
	}

	token, err := auth.GenerateToken(auth.Principal{UserID: userID, Role: role}, secret)
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}
	csrf, err := auth.IssueCSRFToken(userID, secret)
	if err != nil {
		http.Error(w, "Failed to generate anti-forgery token", http.StatusInternalServerError)
		return
	}

	resp := TokenResponse{Token: token, CSRFToken: csrf}
	w.Header().Set("Content-Type", "application/json")
	err = json.NewEncoder(w).Encode(resp)
	if err != nil {
		http.Error(w, "Failed to encode token", http.StatusInternalServerError)
	}
}

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}
	http.HandleFunc("/token", tokenHandler)

	log.Printf("Token service running on port %s", port)
	log.Fatal(http.ListenAndServe(":"+port, nil))
}
