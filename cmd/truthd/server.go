package main

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/ritamzico/truth"
	"github.com/ritamzico/truth/internal/document"
	"github.com/ritamzico/truth/internal/serialization"
)

var allowedOrigins = []string{
	"http://localhost:5173",
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func corsMiddleware(next http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if _, ok := allowed[origin]; ok {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// server holds the single Program every request is served against, plus
// the id->Document index HTTP handlers address (a Program indexes
// documents by self URI and internal ID the same way, but the REST
// surface only ever addresses by ID).
type server struct {
	log *zap.Logger
	p   *truth.Program

	mu   sync.RWMutex
	docs map[string]*document.Document
}

func newServer(log *zap.Logger, p *truth.Program) *server {
	s := &server{log: log, p: p, docs: make(map[string]*document.Document)}
	p.OnDocumentCreate(func(e truth.DocumentCreateEvent) {
		s.mu.Lock()
		s.docs[e.Document.ID] = e.Document
		s.mu.Unlock()
	})
	p.OnDocumentDelete(func(e truth.DocumentDeleteEvent) {
		s.mu.Lock()
		delete(s.docs, e.Document.ID)
		s.mu.Unlock()
	})
	return s
}

func (s *server) mux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/documents", s.handleDocuments)
	mux.HandleFunc("/documents/", s.handleDocumentSubresource)
	return corsMiddleware(mux)
}

func (s *server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	doc := s.p.OpenDocumentFromText(body.Text)
	writeJSON(w, http.StatusCreated, serialization.MarshalDocument(doc))
}

// handleDocumentSubresource dispatches "/documents/{id}/faults" and
// "/documents/{id}/tree".
func (s *server) handleDocumentSubresource(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/documents/")
	id, sub, ok := strings.Cut(rest, "/")
	if !ok {
		writeError(w, http.StatusNotFound, "missing subresource")
		return
	}

	s.mu.RLock()
	doc, ok := s.docs[id]
	s.mu.RUnlock()
	if !ok {
		writeError(w, http.StatusNotFound, "no document with that id")
		return
	}

	switch sub {
	case "faults":
		serialized := serialization.MarshalDocument(doc)
		writeJSON(w, http.StatusOK, serialized.Statements)
	case "tree":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(doc.ToString(true)))
	default:
		writeError(w, http.StatusNotFound, "unknown subresource")
	}
}
