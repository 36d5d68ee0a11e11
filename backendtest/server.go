// Package backendtest provides an in-memory message backend for tests.
package backendtest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gorilla/mux"

	"chatdesk/models"
)

// Request is one request observed by the server.
type Request struct {
	Method    string
	Path      string
	RequestID string
	Body      string
}

// Server is an httptest server speaking the /messages resource protocol.
type Server struct {
	srv *httptest.Server

	mu       sync.Mutex
	messages []models.Message
	requests []Request
	failNext map[string][]int
	failAll  map[string]int
}

// New starts a server seeded with messages and closes it when the test ends.
func New(t testing.TB, seed ...models.Message) *Server {
	t.Helper()

	s := &Server{
		messages: append([]models.Message(nil), seed...),
		failNext: make(map[string][]int),
		failAll:  make(map[string]int),
	}

	router := mux.NewRouter()
	router.Use(s.record)
	router.Use(s.injectFailures)
	router.HandleFunc("/messages", s.list).Methods(http.MethodGet)
	router.HandleFunc("/messages", s.create).Methods(http.MethodPost)
	router.HandleFunc("/messages/{id}", s.update).Methods(http.MethodPut)
	router.HandleFunc("/messages/{id}", s.remove).Methods(http.MethodDelete)

	s.srv = httptest.NewServer(router)
	t.Cleanup(s.srv.Close)
	return s
}

// URL returns the base address of the server.
func (s *Server) URL() string {
	return s.srv.URL
}

// FailNext makes the next request with method answer status.
func (s *Server) FailNext(method string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext[method] = append(s.failNext[method], status)
}

// FailAlways makes every request with method answer status until Reset.
func (s *Server) FailAlways(method string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failAll[method] = status
}

// Reset clears injected failures.
func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = make(map[string][]int)
	s.failAll = make(map[string]int)
}

// Messages returns a copy of the stored collection.
func (s *Server) Messages() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Message(nil), s.messages...)
}

// Requests returns the requests observed so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			body, _ = io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewReader(body))
		}
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:    r.Method,
			Path:      r.URL.Path,
			RequestID: r.Header.Get("X-Request-Id"),
			Body:      string(body),
		})
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		status := s.failAll[r.Method]
		if queued := s.failNext[r.Method]; status == 0 && len(queued) > 0 {
			status = queued[0]
			s.failNext[r.Method] = queued[1:]
		}
		s.mu.Unlock()

		if status != 0 {
			http.Error(w, http.StatusText(status), status)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) list(w http.ResponseWriter, _ *http.Request) {
	messages := s.Messages()
	if messages == nil {
		messages = []models.Message{}
	}
	writeJSON(w, http.StatusOK, messages)
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	var msg models.Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil || msg.ID == "" {
		http.Error(w, "invalid message", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexOf(msg.ID) >= 0 {
		http.Error(w, "duplicate id", http.StatusConflict)
		return
	}
	s.messages = append(s.messages, msg)
	writeJSON(w, http.StatusCreated, msg)
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid message", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOf(id)
	if idx < 0 {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	s.messages[idx].Message = payload.Message
	writeJSON(w, http.StatusOK, s.messages[idx])
}

func (s *Server) remove(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOf(id)
	if idx < 0 {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	s.messages = append(s.messages[:idx], s.messages[idx+1:]...)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) indexOf(id string) int {
	for i, msg := range s.messages {
		if msg.ID == id {
			return i
		}
	}
	return -1
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
