// Package httpapi exposes Context operations as JSON HTTP endpoints.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/csindex/csindexd/store"
	"github.com/csindex/csindexd/x"
)

// Server wraps a store.Context with the HTTP handlers that expose it.
type Server struct {
	Store      *store.Context
	MaxResults int
}

// New returns a Server backed by ctx, using defaultMaxResults whenever a
// request doesn't specify one.
func New(ctx *store.Context, defaultMaxResults int) *Server {
	return &Server{Store: ctx, MaxResults: defaultMaxResults}
}

// Handler builds the mux routing the spec's /index and /search endpoints,
// plus the supplemental /prune and /stat endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/index", s.handleIndex)
	mux.HandleFunc("/search", s.handleSearch)
	mux.HandleFunc("/prune", s.handlePrune)
	mux.HandleFunc("/stat", s.handleStat)
	return mux
}

// indexRequest's "path" field is, per the HTTP contract, either a single
// path string or a list of paths.
type indexRequest struct {
	Path  string
	Paths []string
}

func (r *indexRequest) UnmarshalJSON(b []byte) error {
	var wire struct {
		Path json.RawMessage `json:"path"`
	}
	if err := json.Unmarshal(b, &wire); err != nil {
		return err
	}
	if len(wire.Path) == 0 {
		return nil
	}
	if err := json.Unmarshal(wire.Path, &r.Path); err == nil {
		return nil
	}
	return json.Unmarshal(wire.Path, &r.Paths)
}

// handleIndex treats a "path" string as "index one", and a "path" list as
// "index all" — it does not attempt to recursively expand a
// directory given as a single path.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		x.SetStatus(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req indexRequest
	if !x.ParseRequest(w, r, &req) {
		return
	}

	if len(req.Paths) > 0 {
		results, err := s.Store.IndexAll(r.Context(), req.Paths)
		if !s.reply(w, err) {
			return
		}
		x.Reply(w, results)
		return
	}
	if req.Path == "" {
		x.SetStatus(w, http.StatusBadRequest, "missing path or paths")
		return
	}
	success, err := s.Store.Index(r.Context(), req.Path)
	if !s.reply(w, err) {
		return
	}
	x.Reply(w, success)
}

type searchRequest struct {
	Pattern    string `json:"pattern"`
	IgnoreCase bool   `json:"ignorecase,omitempty"`
	PathFilter string `json:"pathfilter,omitempty"`
	MaxResults int    `json:"max_results,omitempty"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		x.SetStatus(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req searchRequest
	if !x.ParseRequest(w, r, &req) {
		return
	}
	if req.Pattern == "" {
		x.SetStatus(w, http.StatusBadRequest, "missing pattern")
		return
	}
	maxResults := req.MaxResults
	if maxResults == 0 {
		maxResults = s.MaxResults
	}

	results, err := s.Store.Search(r.Context(), req.Pattern, store.SearchOptions{
		IgnoreCase: req.IgnoreCase,
		PathFilter: req.PathFilter,
		MaxResults: maxResults,
	})
	if !s.reply(w, err) {
		return
	}
	x.Reply(w, results)
}

type pruneRequest struct {
	Paths []string `json:"paths,omitempty"`
	Names []string `json:"names,omitempty"`
}

func (s *Server) handlePrune(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		x.SetStatus(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req pruneRequest
	if !x.ParseRequest(w, r, &req) {
		return
	}
	if len(req.Paths) == 0 && len(req.Names) == 0 {
		x.SetStatus(w, http.StatusBadRequest, "missing paths or names")
		return
	}

	dryRun := r.URL.Query().Get("dry_run") == "true"
	if dryRun {
		namesRemoved, postingsRemoved, err := s.Store.PruneDryRun(req.Paths)
		if !s.reply(w, err) {
			return
		}
		x.Reply(w, map[string]int{"names_removed": namesRemoved, "postings_removed": postingsRemoved})
		return
	}

	var err error
	if len(req.Paths) > 0 {
		err = s.Store.PrunePaths(req.Paths)
	} else {
		err = s.Store.PruneFiles(req.Names)
	}
	if !s.reply(w, err) {
		return
	}
	x.Reply(w, true)
}

func (s *Server) handleStat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		x.SetStatus(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	indexFile := r.URL.Query().Get("index_file")
	if indexFile == "" {
		x.SetStatus(w, http.StatusBadRequest, "missing index_file")
		return
	}
	st, err := store.Stat(indexFile)
	if !s.reply(w, err) {
		return
	}
	x.Reply(w, st)
}

// reply writes an error response and returns false if err is non-nil,
// mapping InvalidIndex to a 400 and everything else to a 500. It returns
// true (writing nothing) when err is nil, so the caller can proceed to
// write its own success payload.
func (s *Server) reply(w http.ResponseWriter, err error) bool {
	if err == nil {
		return true
	}
	glog.Errorf("httpapi: %v", err)
	if errors.Is(err, x.ErrInvalidIndex) {
		x.SetStatus(w, http.StatusBadRequest, err.Error())
		return false
	}
	x.SetStatus(w, http.StatusInternalServerError, err.Error())
	return false
}
