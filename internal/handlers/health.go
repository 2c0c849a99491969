package handlers

import (
	"encoding/json"
	"net/http"
)

func handleHealth() http.Handler {
	type response struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_ = json.NewEncoder(w).Encode(response{Status: "ok", Message: "Server is running"})
	})
}
