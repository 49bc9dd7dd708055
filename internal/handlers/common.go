package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"fuelfleet-backend/internal/middleware"
)

func userClaims(r *http.Request) (middleware.UserClaims, bool) {
	return middleware.GetUserFromContext(r)
}

// urlParamInt parses a chi URL parameter as an integer id.
func urlParamInt(r *http.Request, name string) (int, bool) {
	v, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}
