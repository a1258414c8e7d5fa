package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/csindex/csindexd/index"
	"github.com/csindex/csindexd/store"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

func fakeBinary(t *testing.T, dir, name, script string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755))
	return path
}

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	dir := t.TempDir()
	bin := t.TempDir()
	indexer := fakeBinary(t, bin, "cindex", `exit 0`)
	searcher := fakeBinary(t, bin, "csearch", `echo "/a.go:1:hello world"`)

	idxFile := filepath.Join(dir, "index")
	require.NoError(t, index.Write(index.Empty(), idxFile))

	ctx, err := store.New(dir, indexer, searcher, nil)
	require.NoError(t, err)
	return New(ctx, 10), idxFile
}

func TestHandleIndexSinglePath(t *testing.T) {
	s, _ := newTestServer(t)
	body := []byte(`{"path": "/some/file.go"}`)
	req := httptest.NewRequest(http.MethodPost, "/index", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.True(t, env.Success)
	require.Equal(t, "true", string(env.Data))
}

func TestHandleIndexPathList(t *testing.T) {
	s, _ := newTestServer(t)
	body := []byte(`{"path": ["/a/one.go", "/a/two.go"]}`)
	req := httptest.NewRequest(http.MethodPost, "/index", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.True(t, env.Success)

	var results []bool
	require.NoError(t, json.Unmarshal(env.Data, &results))
	require.Equal(t, []bool{true}, results)
}

func TestHandleSearchReturnsParsedHits(t *testing.T) {
	s, _ := newTestServer(t)
	body := []byte(`{"pattern": "hello"}`)
	req := httptest.NewRequest(http.MethodPost, "/search", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.True(t, env.Success)

	var results []store.Result
	require.NoError(t, json.Unmarshal(env.Data, &results))
	require.Len(t, results, 1)
	require.Equal(t, "/a.go", results[0].File)
}

func TestHandleSearchRejectsMissingPattern(t *testing.T) {
	s, _ := newTestServer(t)
	body := []byte(`{}`)
	req := httptest.NewRequest(http.MethodPost, "/search", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleStatReportsEmptyIndex(t *testing.T) {
	s, idxFile := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/stat?index_file="+idxFile, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.True(t, env.Success)

	var st index.Stat
	require.NoError(t, json.Unmarshal(env.Data, &st))
	require.Equal(t, 0, st.NumPaths)
	require.Equal(t, 0, st.NumNames)
	require.Equal(t, 0, st.NumPostings)
}

func TestHandlePruneDryRunDoesNotMutate(t *testing.T) {
	s, idxFile := newTestServer(t)
	before, err := os.ReadFile(idxFile)
	require.NoError(t, err)

	body, _ := json.Marshal(pruneRequest{Paths: []string{"/nope"}})
	req := httptest.NewRequest(http.MethodPost, "/prune?dry_run=true", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	after, err := os.ReadFile(idxFile)
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestHandleIndexRejectsGetMethod(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/index", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
