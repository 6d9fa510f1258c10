// Package stubapi is an in-process stand-in for the target document API. The
// core client's end-to-end tests run against it, and the harness runner can be
// pointed at it with -selftest to exercise the whole suite without touching a
// real workspace. It implements the login exchange, bearer-token checking,
// in-memory CRUD for the record families, and scripted fault injection
// (429/5xx/connection drops) so tests can provoke every retry path on demand.
package stubapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
)

const (
	DefaultUsername = "stub-user"
	DefaultPassword = "stub-password"

	loginPath  = "/auth/login"
	statusPath = "/workspace/info"
)

// Fault is one scripted response. A queued fault is consumed by the next
// request whose path matches its prefix, before any normal handling.
type Fault struct {
	Status  int
	Headers http.Header
	Body    []byte
}

type record struct {
	ID     string                 `json:"id"`
	Code   string                 `json:"code"`
	Fields map[string]interface{} `json:"fields,omitempty"`
	Tags   []string               `json:"tags,omitempty"`
}

type store struct {
	records map[string]*record // by ID
}

// Server is the stub API. It is an http.Handler; tests normally wrap it in an
// httptest.Server.
type Server struct {
	mu            sync.Mutex
	username      string
	password      string
	expiresIn     int
	loginCount    int
	failLogins    int
	rejectBearer  bool
	tokens        map[string]bool
	stores        map[string]*store
	faults        map[string][]Fault
	requestCounts map[string]int
}

// New creates a stub server with the default credentials, one-hour tokens,
// and empty record stores for the document-records, object-records, and
// reference-data families.
func New() *Server {
	s := &Server{
		username:  DefaultUsername,
		password:  DefaultPassword,
		expiresIn: 3600,
		tokens:    make(map[string]bool),
		stores: map[string]*store{
			"document-records": {records: make(map[string]*record)},
			"object-records":   {records: make(map[string]*record)},
			"reference-data":   {records: make(map[string]*record)},
		},
		faults:        make(map[string][]Fault),
		requestCounts: make(map[string]int),
	}
	s.seedReferenceData()
	return s
}

func (s *Server) seedReferenceData() {
	for _, code := range []string{"CZK", "EUR", "USD"} {
		id := uuid.NewString()
		s.stores["reference-data"].records[id] = &record{
			ID:     id,
			Code:   code,
			Fields: map[string]interface{}{"kind": "currency"},
		}
	}
}

// SetTokenLifetime overrides the expiresIn value reported by the login
// exchange, in seconds.
func (s *Server) SetTokenLifetime(seconds int) {
	s.mu.Lock()
	s.expiresIn = seconds
	s.mu.Unlock()
}

// FailNextLogins makes the next n login exchanges fail with a 403.
func (s *Server) FailNextLogins(n int) {
	s.mu.Lock()
	s.failLogins = n
	s.mu.Unlock()
}

// LoginCount reports how many successful login exchanges have happened.
func (s *Server) LoginCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loginCount
}

// RevokeAllTokens invalidates every issued token, so the next authenticated
// request gets a 401 until the client logs in again.
func (s *Server) RevokeAllTokens() {
	s.mu.Lock()
	s.tokens = make(map[string]bool)
	s.mu.Unlock()
}

// RejectBearer controls whether bearer tokens are honored at all. While set,
// every authenticated request gets a 401 even with a freshly issued token,
// which is how tests provoke a 401 immediately after a successful re-login.
func (s *Server) RejectBearer(reject bool) {
	s.mu.Lock()
	s.rejectBearer = reject
	s.mu.Unlock()
}

// PushFault queues a scripted response for the next request whose path starts
// with pathPrefix.
func (s *Server) PushFault(pathPrefix string, f Fault) {
	s.mu.Lock()
	s.faults[pathPrefix] = append(s.faults[pathPrefix], f)
	s.mu.Unlock()
}

// RequestCount reports how many requests have been received for paths starting
// with pathPrefix, including ones answered by scripted faults.
func (s *Server) RequestCount(pathPrefix string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for path, n := range s.requestCounts {
		if strings.HasPrefix(path, pathPrefix) {
			total += n
		}
	}
	return total
}

// RecordCount reports how many records exist in the given family's store.
func (s *Server) RecordCount(family string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.stores[family]; ok {
		return len(st.records)
	}
	return 0
}

func (s *Server) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	s.mu.Lock()
	s.requestCounts[req.URL.Path]++
	fault, hasFault := s.popFaultLocked(req.URL.Path)
	s.mu.Unlock()

	if hasFault {
		for k, vv := range fault.Headers {
			for _, v := range vv {
				w.Header().Add(k, v)
			}
		}
		w.WriteHeader(fault.Status)
		if fault.Body != nil {
			_, _ = w.Write(fault.Body)
		}
		return
	}

	switch {
	case req.URL.Path == statusPath:
		s.handleStatus(w)
	case req.URL.Path == loginPath:
		s.handleLogin(w, req)
	default:
		if !s.checkAuth(req) {
			writeJSON(w, 401, map[string]string{"error": "invalid or expired token"})
			return
		}
		s.handleResource(w, req)
	}
}

func (s *Server) popFaultLocked(path string) (Fault, bool) {
	for prefix, queue := range s.faults {
		if strings.HasPrefix(path, prefix) && len(queue) > 0 {
			f := queue[0]
			s.faults[prefix] = queue[1:]
			return f, true
		}
	}
	return Fault{}, false
}

func (s *Server) handleStatus(w http.ResponseWriter) {
	writeJSON(w, 200, map[string]interface{}{
		"description":      "stub document API",
		"version":          "7.0-stub",
		"resourceFamilies": []string{"document-records", "object-records", "reference-data", "tags", "search"},
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, req *http.Request) {
	var creds struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	body, _ := io.ReadAll(req.Body)
	if err := json.Unmarshal(body, &creds); err != nil {
		writeJSON(w, 400, map[string]string{"error": "malformed login request"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failLogins > 0 {
		s.failLogins--
		writeJSON(w, 403, map[string]string{"error": "login temporarily disabled"})
		return
	}
	if creds.Username != s.username || creds.Password != s.password {
		writeJSON(w, 403, map[string]string{"error": "bad credentials"})
		return
	}
	s.loginCount++
	token := fmt.Sprintf("stub-token-%d-%s", s.loginCount, uuid.NewString())
	s.tokens[token] = true
	writeJSON(w, 200, map[string]interface{}{
		"accessToken": token,
		"expiresIn":   s.expiresIn,
	})
}

func (s *Server) checkAuth(req *http.Request) bool {
	header := req.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return false
	}
	token := strings.TrimPrefix(header, "Bearer ")
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rejectBearer {
		return false
	}
	return s.tokens[token]
}

func writeJSON(w http.ResponseWriter, status int, value interface{}) {
	if value == nil {
		w.WriteHeader(status)
		return
	}
	data, _ := json.Marshal(value)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
