package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/rapidex/rescache/cache"
)

// server exposes the cache over a small JSON HTTP API. Values are stored
// as raw JSON documents.
type server struct {
	cache   *cache.Cache[json.RawMessage]
	metrics http.Handler
	logger  *slog.Logger
}

func newServer(c *cache.Cache[json.RawMessage], metrics http.Handler, logger *slog.Logger) http.Handler {
	s := &server{cache: c, metrics: metrics, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /stats", s.handleStats)
	mux.HandleFunc("GET /keys", s.handleKeys)
	mux.HandleFunc("GET /cache/{key}", s.handleGet)
	mux.HandleFunc("PUT /cache/{key}", s.handleSet)
	mux.HandleFunc("DELETE /cache/{key}", s.handleDelete)
	mux.HandleFunc("POST /invalidate", s.handleInvalidateTag)
	mux.HandleFunc("POST /clear", s.handleClear)
	mux.Handle("GET /metrics", metrics)

	return mux
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.cache.Stats())
}

func (s *server) handleKeys(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"keys": s.cache.Keys()})
}

func (s *server) handleGet(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	value, ok := s.cache.Get(key)
	if !ok {
		writeError(w, http.StatusNotFound, "key not found")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(value)
}

func (s *server) handleSet(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read body: "+err.Error())
		return
	}
	if !json.Valid(body) {
		writeError(w, http.StatusBadRequest, "body must be a JSON document")
		return
	}

	options, err := entryOptionsFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.cache.Set(key, body, options...); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"key": key, "status": "stored"})
}

func (s *server) handleDelete(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	if !s.cache.Invalidate(key) {
		writeError(w, http.StatusNotFound, "key not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"key": key, "status": "invalidated"})
}

func (s *server) handleInvalidateTag(w http.ResponseWriter, r *http.Request) {
	tag := r.URL.Query().Get("tag")
	if tag == "" {
		writeError(w, http.StatusBadRequest, "missing tag parameter")
		return
	}

	removed := s.cache.InvalidateByTag(tag)
	s.logger.Info("tag invalidation requested", "tag", tag, "removed", removed)
	writeJSON(w, http.StatusOK, map[string]any{"tag": tag, "removed": removed})
}

func (s *server) handleClear(w http.ResponseWriter, _ *http.Request) {
	s.cache.Clear()
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// entryOptionsFromQuery parses ttl, priority and tags query parameters.
func entryOptionsFromQuery(r *http.Request) ([]cache.EntryOption, error) {
	var options []cache.EntryOption
	query := r.URL.Query()

	if raw := query.Get("ttl"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil {
			return nil, err
		}
		options = append(options, cache.WithTTL(ttl))
	}

	if raw := query.Get("priority"); raw != "" {
		priority, err := cache.ParsePriority(raw)
		if err != nil {
			return nil, err
		}
		options = append(options, cache.WithPriority(priority))
	}

	if raw := query.Get("tags"); raw != "" {
		options = append(options, cache.WithTags(strings.Split(raw, ",")...))
	}

	return options, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
