package websocket

import (
	"log"
	"net/http"
	"os"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"

	"fuelfleet-backend/internal/location"
	"fuelfleet-backend/internal/middleware"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins in development
		// TODO: Restrict in production
		return true
	},
}

// HandleWebSocket upgrades an HTTP connection to a WebSocket session.
// Browsers cannot set headers on WebSocket requests, so the token comes
// from the query string; an Auth-middleware context is the fallback.
func HandleWebSocket(hub *Hub, store *location.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var claims middleware.UserClaims

		if tokenString := r.URL.Query().Get("token"); tokenString != "" {
			jwtSecret := os.Getenv("APP_JWT_SECRET")
			if jwtSecret == "" {
				log.Println("JWT secret not configured")
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}

			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !token.Valid {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			mapClaims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			claims, ok = middleware.ClaimsFromMap(mapClaims)
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
		} else {
			var ok bool
			claims, ok = middleware.GetUserFromContext(r)
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("ws upgrade failed: %v", err)
			return
		}

		client := NewClient(claims.UserID, claims.Role, conn, hub, store)
		hub.Register(client)

		go client.WritePump()
		go client.ReadPump()
	}
}
