package api

import (
	"encoding/json"
	"net/http"

	"github.com/ZacxDev/reel-composer/internal/failure"
)

// ErrorBody is the JSON returned for every failed request.
type ErrorBody struct {
	Error     string `json:"error"`
	Kind      string `json:"kind"`
	Retryable bool   `json:"retryable"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, err error) {
	kind := failure.KindOf(err)
	writeJSON(w, failure.HTTPStatus(kind), ErrorBody{
		Error:     err.Error(),
		Kind:      string(kind),
		Retryable: failure.Retryable(err),
	})
}
