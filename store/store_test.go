package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseHitAcceptsWellFormedLine(t *testing.T) {
	hit, ok := parseHit("/src/main.go:42:func main() {")
	require.True(t, ok)
	require.Equal(t, Result{File: "/src/main.go", Line: 42, Text: "func main() {"}, hit)
}

func TestParseHitRejectsMalformedLines(t *testing.T) {
	cases := []string{
		"",
		"relative/path.go:1:x",
		"/no/line/number:abc:x",
		"/too/few/fields",
	}
	for _, c := range cases {
		_, ok := parseHit(c)
		require.False(t, ok, "expected %q to be rejected", c)
	}
}

func TestParseHitKeepsTextContainingColons(t *testing.T) {
	hit, ok := parseHit("/a.go:10:a := b:c")
	require.True(t, ok)
	require.Equal(t, "a := b:c", hit.Text)
}

func TestSingleFileResolverCollapsesAllInputs(t *testing.T) {
	r := SingleFileResolver{Dir: "/tmp/store"}
	a, err := r.Resolve(nil, "/a")
	require.NoError(t, err)
	b, err := r.Resolve(nil, "/b")
	require.NoError(t, err)
	require.Equal(t, a, b)
	require.Equal(t, "/tmp/store/index", a)
}
