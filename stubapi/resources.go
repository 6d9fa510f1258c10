package stubapi

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// handleResource routes an authenticated request to the in-memory store for
// its resource family. Paths look like /{family}, /{family}/{id},
// /{family}/code/{code}, /{family}/bulk, /{family}/bulk-delete,
// /{family}/search, /{family}/{id}/tags.
func (s *Server) handleResource(w http.ResponseWriter, req *http.Request) {
	parts := strings.Split(strings.Trim(req.URL.Path, "/"), "/")
	family := parts[0]

	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.stores[family]
	if !ok {
		writeJSON(w, 404, map[string]string{"error": "unknown resource family " + family})
		return
	}

	body, _ := io.ReadAll(req.Body)

	switch {
	case len(parts) == 1 && req.Method == "POST":
		s.createRecord(w, st, body)
	case len(parts) == 1 && req.Method == "GET":
		writeJSON(w, 200, st.all())
	case len(parts) == 2 && parts[1] == "bulk" && req.Method == "POST":
		s.bulkCreate(w, st, body)
	case len(parts) == 2 && parts[1] == "bulk-delete" && req.Method == "POST":
		s.bulkDelete(w, st, body)
	case len(parts) == 2 && parts[1] == "search" && req.Method == "POST":
		s.search(w, st, body)
	case len(parts) == 3 && parts[1] == "code" && req.Method == "GET":
		if rec := st.byCode(parts[2]); rec != nil {
			writeJSON(w, 200, rec)
		} else {
			writeJSON(w, 404, map[string]string{"error": "no record with code " + parts[2]})
		}
	case len(parts) == 3 && parts[2] == "tags":
		s.updateTags(w, st, parts[1], req.Method, body)
	case len(parts) == 2:
		s.recordByID(w, st, parts[1], req.Method, body)
	default:
		writeJSON(w, 404, map[string]string{"error": "unrecognized path " + req.URL.Path})
	}
}

func (st *store) all() []*record {
	out := make([]*record, 0, len(st.records))
	for _, r := range st.records {
		out = append(out, r)
	}
	return out
}

func (st *store) byCode(code string) *record {
	for _, r := range st.records {
		if r.Code == code {
			return r
		}
	}
	return nil
}

func (s *Server) newRecordFrom(body []byte) (*record, error) {
	var fields map[string]interface{}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &fields); err != nil {
			return nil, err
		}
	}
	rec := &record{ID: uuid.NewString(), Fields: fields}
	if code, ok := fields["code"].(string); ok {
		rec.Code = code
	} else {
		rec.Code = "REC-" + rec.ID[:8]
	}
	return rec, nil
}

func (s *Server) createRecord(w http.ResponseWriter, st *store, body []byte) {
	rec, err := s.newRecordFrom(body)
	if err != nil {
		writeJSON(w, 400, map[string]string{"error": "malformed record body"})
		return
	}
	st.records[rec.ID] = rec
	writeJSON(w, 201, rec)
}

func (s *Server) bulkCreate(w http.ResponseWriter, st *store, body []byte) {
	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		writeJSON(w, 400, map[string]string{"error": "bulk body must be a JSON array"})
		return
	}
	created := make([]*record, 0, len(items))
	for _, item := range items {
		rec, err := s.newRecordFrom(item)
		if err != nil {
			writeJSON(w, 400, map[string]string{"error": "malformed record in bulk body"})
			return
		}
		st.records[rec.ID] = rec
		created = append(created, rec)
	}
	writeJSON(w, 201, created)
}

func (s *Server) bulkDelete(w http.ResponseWriter, st *store, body []byte) {
	var params struct {
		IDs []string `json:"ids"`
	}
	if err := json.Unmarshal(body, &params); err != nil {
		writeJSON(w, 400, map[string]string{"error": "malformed bulk-delete body"})
		return
	}
	deleted := 0
	for _, id := range params.IDs {
		if _, ok := st.records[id]; ok {
			delete(st.records, id)
			deleted++
		}
	}
	writeJSON(w, 200, map[string]int{"deleted": deleted})
}

func (s *Server) search(w http.ResponseWriter, st *store, body []byte) {
	var query struct {
		Field string      `json:"field"`
		Value interface{} `json:"value"`
	}
	if err := json.Unmarshal(body, &query); err != nil {
		writeJSON(w, 400, map[string]string{"error": "malformed search body"})
		return
	}
	var matches []*record
	for _, r := range st.records {
		if query.Field == "" || r.Fields[query.Field] == query.Value {
			matches = append(matches, r)
		}
	}
	if matches == nil {
		matches = []*record{}
	}
	writeJSON(w, 200, matches)
}

func (s *Server) recordByID(w http.ResponseWriter, st *store, id, method string, body []byte) {
	rec, exists := st.records[id]
	switch method {
	case "GET":
		if !exists {
			writeJSON(w, 404, map[string]string{"error": "no record with id " + id})
			return
		}
		writeJSON(w, 200, rec)
	case "PUT":
		if !exists {
			writeJSON(w, 404, map[string]string{"error": "no record with id " + id})
			return
		}
		var fields map[string]interface{}
		if err := json.Unmarshal(body, &fields); err != nil {
			writeJSON(w, 400, map[string]string{"error": "malformed record body"})
			return
		}
		rec.Fields = fields
		if code, ok := fields["code"].(string); ok {
			rec.Code = code
		}
		writeJSON(w, 200, rec)
	case "PATCH":
		if !exists {
			writeJSON(w, 404, map[string]string{"error": "no record with id " + id})
			return
		}
		var fields map[string]interface{}
		if err := json.Unmarshal(body, &fields); err != nil {
			writeJSON(w, 400, map[string]string{"error": "malformed patch body"})
			return
		}
		if rec.Fields == nil {
			rec.Fields = make(map[string]interface{})
		}
		for k, v := range fields {
			rec.Fields[k] = v
		}
		writeJSON(w, 200, rec)
	case "DELETE":
		// Deleting an absent record is a no-op, which is what makes delete
		// idempotent for the client.
		delete(st.records, id)
		writeJSON(w, 204, nil)
	default:
		writeJSON(w, 405, map[string]string{"error": "method not allowed"})
	}
}

func (s *Server) updateTags(w http.ResponseWriter, st *store, id, method string, body []byte) {
	rec, exists := st.records[id]
	if !exists {
		writeJSON(w, 404, map[string]string{"error": "no record with id " + id})
		return
	}
	var params struct {
		Tags []string `json:"tags"`
	}
	if err := json.Unmarshal(body, &params); err != nil {
		writeJSON(w, 400, map[string]string{"error": "malformed tags body"})
		return
	}
	switch method {
	case "POST":
		for _, tag := range params.Tags {
			if !containsString(rec.Tags, tag) {
				rec.Tags = append(rec.Tags, tag)
			}
		}
	case "DELETE":
		var kept []string
		for _, tag := range rec.Tags {
			if !containsString(params.Tags, tag) {
				kept = append(kept, tag)
			}
		}
		rec.Tags = kept
	default:
		writeJSON(w, 405, map[string]string{"error": "method not allowed"})
		return
	}
	writeJSON(w, 200, rec)
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
