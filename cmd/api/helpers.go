package main

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"skillforge/internal/database"
	"skillforge/internal/model"
)

func (s *Server) respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Errorf("encoding response: %v", err)
	}
}

// errForbidden marks ownership and enrollment check failures.
var errForbidden = errors.New("forbidden")

// writeError maps the database and model error kinds onto status codes
// and hands everything else back as a 500.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var validation model.ValidationError
	switch {
	case errors.Is(err, errForbidden):
		http.Error(w, "Forbidden", http.StatusForbidden)
	case errors.Is(err, database.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, database.ErrDuplicate):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.As(err, &validation):
		http.Error(w, validation.Reason, http.StatusBadRequest)
	default:
		log.Errorf("handling request: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

// muxVar reads a string path variable.
func muxVar(r *http.Request, name string) string {
	return mux.Vars(r)[name]
}

// urlIntVar reads a numeric path variable.
func urlIntVar(r *http.Request, name string) (int, error) {
	value, err := strconv.Atoi(mux.Vars(r)[name])
	if err != nil {
		return 0, model.ValidationError{Reason: "invalid " + name}
	}
	return value, nil
}

func queryInt(r *http.Request, name, fallback string) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		raw = fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return value
}

// clientIP strips the port from RemoteAddr, preferring the
// X-Forwarded-For header when a proxy set one.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
