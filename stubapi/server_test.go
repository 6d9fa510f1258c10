package stubapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doJSON(t *testing.T, handler http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func login(t *testing.T, s *Server) string {
	t.Helper()
	w := doJSON(t, s, "POST", loginPath, "", map[string]string{
		"username": DefaultUsername,
		"password": DefaultPassword,
	})
	require.Equal(t, 200, w.Code)
	var resp struct {
		AccessToken string `json:"accessToken"`
		ExpiresIn   int    `json:"expiresIn"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)
	return resp.AccessToken
}

func TestLoginExchange(t *testing.T) {
	s := New()

	token := login(t, s)
	assert.True(t, strings.HasPrefix(token, "stub-token-1-"))
	assert.Equal(t, 1, s.LoginCount())

	w := doJSON(t, s, "POST", loginPath, "", map[string]string{
		"username": DefaultUsername,
		"password": "wrong",
	})
	assert.Equal(t, 403, w.Code)
	assert.Equal(t, 1, s.LoginCount())
}

func TestRequestsWithoutTokenAreRejected(t *testing.T) {
	s := New()
	w := doJSON(t, s, "GET", "/document-records", "", nil)
	assert.Equal(t, 401, w.Code)

	w = doJSON(t, s, "GET", "/document-records", "made-up-token", nil)
	assert.Equal(t, 401, w.Code)
}

func TestStatusEndpointNeedsNoAuth(t *testing.T) {
	s := New()
	w := doJSON(t, s, "GET", statusPath, "", nil)
	require.Equal(t, 200, w.Code)
	var info struct {
		ResourceFamilies []string `json:"resourceFamilies"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Contains(t, info.ResourceFamilies, "document-records")
}

func TestRecordLifecycle(t *testing.T) {
	s := New()
	token := login(t, s)

	w := doJSON(t, s, "POST", "/document-records", token,
		map[string]interface{}{"code": "DOC-1", "name": "first"})
	require.Equal(t, 201, w.Code)
	var created record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "DOC-1", created.Code)
	require.NotEmpty(t, created.ID)

	w = doJSON(t, s, "GET", "/document-records/"+created.ID, token, nil)
	assert.Equal(t, 200, w.Code)

	w = doJSON(t, s, "GET", "/document-records/code/DOC-1", token, nil)
	assert.Equal(t, 200, w.Code)

	w = doJSON(t, s, "PATCH", "/document-records/"+created.ID, token,
		map[string]interface{}{"status": "archived"})
	require.Equal(t, 200, w.Code)
	var patched record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &patched))
	assert.Equal(t, "archived", patched.Fields["status"])
	assert.Equal(t, "first", patched.Fields["name"], "patch must merge, not replace")

	w = doJSON(t, s, "DELETE", "/document-records/"+created.ID, token, nil)
	assert.Equal(t, 204, w.Code)
	assert.Empty(t, w.Body.Bytes())

	// Deleting again is a no-op, not an error.
	w = doJSON(t, s, "DELETE", "/document-records/"+created.ID, token, nil)
	assert.Equal(t, 204, w.Code)

	w = doJSON(t, s, "GET", "/document-records/"+created.ID, token, nil)
	assert.Equal(t, 404, w.Code)
}

func TestTagsAreASet(t *testing.T) {
	s := New()
	token := login(t, s)

	w := doJSON(t, s, "POST", "/document-records", token, map[string]interface{}{"code": "DOC-T"})
	require.Equal(t, 201, w.Code)
	var created record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	tagsPath := "/document-records/" + created.ID + "/tags"
	doJSON(t, s, "POST", tagsPath, token, map[string][]string{"tags": {"a", "b"}})
	w = doJSON(t, s, "POST", tagsPath, token, map[string][]string{"tags": {"b", "c"}})
	require.Equal(t, 200, w.Code)
	var tagged record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tagged))
	assert.ElementsMatch(t, []string{"a", "b", "c"}, tagged.Tags)

	w = doJSON(t, s, "DELETE", tagsPath, token, map[string][]string{"tags": {"a", "c"}})
	require.Equal(t, 200, w.Code)
	var trimmed record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &trimmed))
	assert.Equal(t, []string{"b"}, trimmed.Tags)
}

func TestSearchMatchesByField(t *testing.T) {
	s := New()
	token := login(t, s)

	doJSON(t, s, "POST", "/document-records", token, map[string]interface{}{"code": "A", "kind": "invoice"})
	doJSON(t, s, "POST", "/document-records", token, map[string]interface{}{"code": "B", "kind": "contract"})

	w := doJSON(t, s, "POST", "/document-records/search", token,
		map[string]interface{}{"field": "kind", "value": "invoice"})
	require.Equal(t, 200, w.Code)
	var matches []record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &matches))
	require.Len(t, matches, 1)
	assert.Equal(t, "A", matches[0].Code)

	// No matches comes back as an empty array, never null.
	w = doJSON(t, s, "POST", "/document-records/search", token,
		map[string]interface{}{"field": "kind", "value": "memo"})
	assert.Equal(t, "[]", strings.TrimSpace(w.Body.String()))
}

func TestBulkCreateAndDelete(t *testing.T) {
	s := New()
	token := login(t, s)

	w := doJSON(t, s, "POST", "/document-records/bulk", token,
		[]map[string]interface{}{{"code": "A"}, {"code": "B"}, {"code": "C"}})
	require.Equal(t, 201, w.Code)
	var created []record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.Len(t, created, 3)
	assert.Equal(t, 3, s.RecordCount("document-records"))

	w = doJSON(t, s, "POST", "/document-records/bulk-delete", token,
		map[string][]string{"ids": {created[0].ID, created[1].ID, "missing"}})
	require.Equal(t, 200, w.Code)
	var result struct {
		Deleted int `json:"deleted"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, 2, result.Deleted)
	assert.Equal(t, 1, s.RecordCount("document-records"))
}

func TestScriptedFaultsAreConsumedInOrder(t *testing.T) {
	s := New()
	token := login(t, s)

	headers := make(http.Header)
	headers.Set("Retry-After", "1")
	s.PushFault("/document-records", Fault{Status: 429, Headers: headers})
	s.PushFault("/document-records", Fault{Status: 503})

	w := doJSON(t, s, "GET", "/document-records", token, nil)
	assert.Equal(t, 429, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))

	w = doJSON(t, s, "GET", "/document-records", token, nil)
	assert.Equal(t, 503, w.Code)

	w = doJSON(t, s, "GET", "/document-records", token, nil)
	assert.Equal(t, 200, w.Code)

	assert.Equal(t, 3, s.RequestCount("/document-records"))
}

func TestFaultsAreServedBeforeAuth(t *testing.T) {
	s := New()
	s.PushFault("/document-records", Fault{Status: 500})

	// No token at all, but the fault still fires first.
	w := doJSON(t, s, "GET", "/document-records", "", nil)
	assert.Equal(t, 500, w.Code)
}

func TestRevokeAllTokens(t *testing.T) {
	s := New()
	token := login(t, s)

	w := doJSON(t, s, "GET", "/document-records", token, nil)
	require.Equal(t, 200, w.Code)

	s.RevokeAllTokens()
	w = doJSON(t, s, "GET", "/document-records", token, nil)
	assert.Equal(t, 401, w.Code)

	fresh := login(t, s)
	w = doJSON(t, s, "GET", "/document-records", fresh, nil)
	assert.Equal(t, 200, w.Code)
}

func TestReferenceDataIsSeeded(t *testing.T) {
	s := New()
	token := login(t, s)

	w := doJSON(t, s, "GET", "/reference-data/code/CZK", token, nil)
	require.Equal(t, 200, w.Code)
	var rec record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	assert.Equal(t, "CZK", rec.Code)
	assert.Equal(t, "currency", rec.Fields["kind"])
}
