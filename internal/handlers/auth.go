package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"fuelfleet-backend/internal/models"
	"fuelfleet-backend/pkg/utils"
)

// Login authenticates by email and password and returns a signed JWT.
func Login(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.Error(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Email == "" || req.Password == "" {
			utils.Error(w, http.StatusBadRequest, "email and password are required")
			return
		}

		var user models.User
		if err := db.Get(&user, `SELECT * FROM users WHERE email = $1`, req.Email); err != nil {
			utils.Error(w, http.StatusUnauthorized, "invalid credentials")
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
			utils.Error(w, http.StatusUnauthorized, "invalid credentials")
			return
		}

		jwtSecret := os.Getenv("APP_JWT_SECRET")
		if jwtSecret == "" {
			log.Println("JWT secret not configured")
			utils.Error(w, http.StatusInternalServerError, "internal server error")
			return
		}

		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"user_id": user.ID,
			"email":   user.Email,
			"role":    user.Role,
			"exp":     time.Now().Add(7 * 24 * time.Hour).Unix(),
		})
		signed, err := token.SignedString([]byte(jwtSecret))
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, "failed to sign token")
			return
		}

		utils.Success(w, models.LoginResponse{Token: signed, User: user})
	}
}

// UpdateFCMToken stores the device push token for the authenticated user.
func UpdateFCMToken(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := userClaims(r)
		if !ok {
			utils.Error(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		var req struct {
			Token string `json:"fcm_token"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
			utils.Error(w, http.StatusBadRequest, "fcm_token is required")
			return
		}

		_, err := db.Exec(`UPDATE users SET fcm_token = $1, updated_at = $2 WHERE id = $3`,
			req.Token, time.Now().Unix(), claims.UserID)
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, "failed to update token")
			return
		}

		utils.Success(w, map[string]string{"message": "token updated"})
	}
}
