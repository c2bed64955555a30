package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNamePatternStar(t *testing.T) {
	p, err := compileNamePattern("*.log")
	require.NoError(t, err)

	assert.True(t, p.match("app.log"))
	assert.False(t, p.match("app.log.bak"))
	assert.False(t, p.match("app.txt"))
}

func TestNamePatternCollapsesDoubleStar(t *testing.T) {
	p, err := compileNamePattern("**.bak")
	require.NoError(t, err)

	assert.True(t, p.match("x.bak"))
	assert.False(t, p.match("dir/x.bak"))
}

func TestNamePatternUnterminatedClass(t *testing.T) {
	p, err := compileNamePattern("a[b")
	require.NoError(t, err)

	assert.True(t, p.match("a[b"))
	assert.False(t, p.match("ab"))
}

func TestGlobToRegex(t *testing.T) {
	tests := []struct {
		glob string
		want string
	}{
		{glob: "*.go", want: `[^/]*\.go`},
		{glob: "?", want: "[^/]"},
		{glob: "[!a]", want: "[^a]"},
		{glob: "a(b)", want: `a\(b\)`},
	}
	for _, tt := range tests {
		t.Run(tt.glob, func(t *testing.T) {
			assert.Equal(t, tt.want, globToRegex(tt.glob))
		})
	}
}
