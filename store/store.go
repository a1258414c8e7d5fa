// Package store implements the directory-backed collection of index files
// a Context manages: resolving input paths to index files, dispatching the
// external indexer/searcher against them, and running the mutation engine
// against every index file in the store for pruning.
package store

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/csindex/csindexd/dispatch"
	"github.com/csindex/csindexd/index"
)

// Resolver maps an input path to the absolute path of the index file that
// should hold it.
type Resolver interface {
	Resolve(ctx context.Context, inputPath string) (string, error)
}

// SingleFileResolver collapses every input to one index file named
// "index" directly under the store directory — the default resolver.
type SingleFileResolver struct {
	Dir string
}

// Resolve implements Resolver.
func (r SingleFileResolver) Resolve(_ context.Context, _ string) (string, error) {
	return filepath.Join(r.Dir, "index"), nil
}

// Result is one parsed search hit.
type Result struct {
	File string `json:"file"`
	Line int    `json:"line"`
	Text string `json:"text"`
}

// SearchOptions configures Context.Search.
type SearchOptions struct {
	IgnoreCase bool
	PathFilter string
	MaxResults int
}

// Context is a directory-backed collection of index files, a resolver
// deciding which index file a given input path belongs to, and a mutex
// serializing the environment-variable-then-spawn critical section shared
// by every dispatch against any index file in this store.
type Context struct {
	Dir      string
	Resolver Resolver
	Indexer  string
	Searcher string

	d *dispatch.Dispatcher
}

// New creates (if absent) the store directory dir and returns a Context
// using resolver, or SingleFileResolver if resolver is nil.
func New(dir, indexerBinary, searcherBinary string, resolver Resolver) (*Context, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating store directory")
	}
	if resolver == nil {
		resolver = SingleFileResolver{Dir: dir}
	}
	return &Context{
		Dir:      dir,
		Resolver: resolver,
		Indexer:  indexerBinary,
		Searcher: searcherBinary,
		d:        dispatch.New(),
	}, nil
}

// IndexFileFor exposes ctx.Resolver's decision for path without dispatching
// anything.
func (ctx *Context) IndexFileFor(gctx context.Context, path string) (string, error) {
	return ctx.Resolver.Resolve(gctx, path)
}

// Index dispatches the indexer binary against path, targeting whichever
// index file the resolver assigns it. It returns whether the indexer
// reported success; it never raises for tool failure.
func (ctx *Context) Index(gctx context.Context, path string) (bool, error) {
	target, err := ctx.Resolver.Resolve(gctx, path)
	if err != nil {
		return false, errors.Wrap(err, "resolving index file")
	}
	res, err := ctx.d.Run(gctx, []string{ctx.Indexer, path}, target, 0, 0)
	if err != nil {
		return false, err
	}
	return res.Success, nil
}

// IndexAll groups paths by resolved index file and dispatches one indexer
// invocation per group, with all of that group's paths as arguments. It
// returns one success flag per group, in the order the groups were first
// seen.
func (ctx *Context) IndexAll(gctx context.Context, paths []string) ([]bool, error) {
	order := make([]string, 0)
	groups := make(map[string][]string)
	for _, p := range paths {
		target, err := ctx.Resolver.Resolve(gctx, p)
		if err != nil {
			return nil, errors.Wrap(err, "resolving index file")
		}
		if _, ok := groups[target]; !ok {
			order = append(order, target)
		}
		groups[target] = append(groups[target], p)
	}

	results := make([]bool, 0, len(order))
	for _, target := range order {
		argv := append([]string{ctx.Indexer}, groups[target]...)
		res, err := ctx.d.Run(gctx, argv, target, 0, 0)
		if err != nil {
			return nil, err
		}
		results = append(results, res.Success)
	}
	return results, nil
}

// PathsIndexed dispatches "-list" against every index file in the store and
// returns the union of reported paths. It raises if any per-index
// invocation fails.
func (ctx *Context) PathsIndexed(gctx context.Context) ([]string, error) {
	files, err := ctx.indices()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	for _, f := range files {
		res, err := ctx.d.Run(gctx, []string{ctx.Indexer, "-list"}, f, 0, 0)
		if err != nil {
			return nil, err
		}
		if !res.Success {
			return nil, errors.Errorf("listing paths in %s: indexer reported failure", f)
		}
		for _, line := range splitLines(res.Stdout) {
			line = strings.TrimSpace(line)
			if line != "" {
				seen[line] = true
			}
		}
	}

	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out, nil
}

// ClearIndices removes every file in the store directory.
func (ctx *Context) ClearIndices() error {
	files, err := ctx.indices()
	if err != nil {
		return err
	}
	for _, f := range files {
		if err := os.Remove(f); err != nil {
			return errors.Wrapf(err, "removing %s", f)
		}
		glog.Infof("store: removed index file %s", f)
	}
	return nil
}

// Indices lists the absolute paths of files in the store directory.
func (ctx *Context) Indices() ([]string, error) {
	return ctx.indices()
}

func (ctx *Context) indices() ([]string, error) {
	entries, err := os.ReadDir(ctx.Dir)
	if err != nil {
		return nil, errors.Wrap(err, "reading store directory")
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		out = append(out, filepath.Join(ctx.Dir, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}

// PrunePaths opens, decodes, mutates, and rewrites every index file in the
// store, removing any path matching a byte-exact prefix of an entry in
// paths (see index.PrunePaths for the preserved startswith semantics).
func (ctx *Context) PrunePaths(paths []string) error {
	return ctx.mutateEach(func(idx *index.Index) {
		index.PrunePaths(idx, paths)
	})
}

// PruneFiles opens, decodes, mutates, and rewrites every index file in the
// store, removing any name in names.
func (ctx *Context) PruneFiles(names []string) error {
	return ctx.mutateEach(func(idx *index.Index) {
		var positions []int
		var matched []string
		nameSet := make(map[string]bool, len(names))
		for _, n := range names {
			nameSet[n] = true
		}
		for i, n := range idx.Names.Entries {
			if nameSet[n] {
				matched = append(matched, n)
				positions = append(positions, i)
			}
		}
		index.PruneFiles(idx, matched, positions)
	})
}

// PruneDryRun runs the mutation engine's computation for PrunePaths against
// every index file in the store without writing anything back, summing the
// counts of names and postings that would be removed.
func (ctx *Context) PruneDryRun(paths []string) (namesRemoved, postingsRemoved int, err error) {
	files, err := ctx.indices()
	if err != nil {
		return 0, 0, err
	}
	for _, f := range files {
		idx, err := index.Read(f)
		if err != nil {
			return 0, 0, err
		}
		n, p := index.DryRunPrune(idx, paths)
		namesRemoved += n
		postingsRemoved += p
	}
	return namesRemoved, postingsRemoved, nil
}

func (ctx *Context) mutateEach(mutate func(idx *index.Index)) error {
	files, err := ctx.indices()
	if err != nil {
		return err
	}
	for _, f := range files {
		idx, err := index.Read(f)
		if err != nil {
			return err
		}
		before := idx.Stat()
		mutate(idx)
		after := idx.Stat()
		if err := index.Write(idx, f); err != nil {
			return err
		}
		glog.Infof("store: pruned %s: names %d -> %d, postings %d -> %d",
			f, before.NumNames, after.NumNames, before.NumPostings, after.NumPostings)
	}
	return nil
}

// Search dispatches the searcher binary against every index file in the
// store, parsing and accumulating "file:line:text" hits. It stops early
// once more than opts.MaxResults results have accumulated.
func (ctx *Context) Search(gctx context.Context, pattern string, opts SearchOptions) ([]Result, error) {
	argv := []string{ctx.Searcher}
	if opts.PathFilter != "" {
		argv = append(argv, "-f", opts.PathFilter)
	}
	if opts.IgnoreCase {
		argv = append(argv, "-i")
	}
	argv = append(argv, "-n", pattern)

	files, err := ctx.indices()
	if err != nil {
		return nil, err
	}

	var results []Result
	for _, f := range files {
		res, err := ctx.d.Run(gctx, argv, f, opts.MaxResults, opts.MaxResults)
		if err != nil {
			return nil, err
		}
		for _, line := range splitLines(res.Stdout) {
			line = strings.TrimSpace(line)
			hit, ok := parseHit(line)
			if !ok {
				continue
			}
			results = append(results, hit)
			if opts.MaxResults > 0 && len(results) > opts.MaxResults {
				return results, nil
			}
		}
	}
	return results, nil
}

// parseHit parses a searcher output line of the form "file:line:text",
// skipping anything malformed rather than raising, per the search
// contract's best-effort parsing rule.
func parseHit(line string) (Result, bool) {
	if line == "" || !strings.HasPrefix(line, "/") {
		return Result{}, false
	}
	parts := strings.SplitN(line, ":", 3)
	if len(parts) != 3 {
		return Result{}, false
	}
	n, err := strconv.Atoi(parts[1])
	if err != nil {
		return Result{}, false
	}
	return Result{File: parts[0], Line: n, Text: parts[2]}, true
}

func splitLines(b []byte) []string {
	var out []string
	scanner := bufio.NewScanner(bytes.NewReader(b))
	for scanner.Scan() {
		out = append(out, scanner.Text())
	}
	return out
}

// Stat reads and summarizes a single index file, for the /stat endpoint and
// the inspect CLI command.
func Stat(indexFile string) (index.Stat, error) {
	idx, err := index.Read(indexFile)
	if err != nil {
		return index.Stat{}, err
	}
	return idx.Stat(), nil
}

// FormatStat renders a Stat the way a human-facing log line or CLI summary
// should, using humanized byte counts for the underlying file size.
func FormatStat(indexFile string, st index.Stat) string {
	size := int64(0)
	if fi, err := os.Stat(indexFile); err == nil {
		size = fi.Size()
	}
	return fmt.Sprintf("%s: %d paths, %d names, %d postings, %s",
		indexFile, st.NumPaths, st.NumNames, st.NumPostings, humanize.Bytes(uint64(size)))
}
