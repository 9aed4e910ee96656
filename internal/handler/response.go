package handler

import (
	"net/http"

	"github.com/memegen/memebot/internal/httputil"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, status, data)
}
