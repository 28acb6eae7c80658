package web

import (
	"encoding/json"
	"log"
	"net/http"
)

// response mirrors the gateway's own envelope so a front end written
// against the backend can read the facade without translation.
type response struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func writeSuccess(w http.ResponseWriter, data any, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(response{Status: "success", Data: data}); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

func writeMessage(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(response{Status: "success", Message: message}); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

func writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(response{Status: "error", Message: message}); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}
