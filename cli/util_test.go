package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMustGet(t *testing.T) {
	assert.Equal(t, 5, MustGet(5, nil))
	assert.Panics(t, func() {
		MustGet(0, errors.New("no such flag"))
	})
}

func TestSplitCommand(t *testing.T) {
	tests := map[string]struct {
		line, name, rest string
	}{
		"Name only":          {line: "status", name: "status"},
		"Name and args":      {line: "throttle 3 100", name: "throttle", rest: "3 100"},
		"Surrounding spaces": {line: "  point   4 1 ", name: "point", rest: "4 1"},
		"Tab separated":      {line: "t\t3 10", name: "t", rest: "3 10"},
		"Empty":              {line: "   "},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			cmd, rest := splitCommand(tc.line)
			assert.Equal(t, tc.name, cmd)
			assert.Equal(t, tc.rest, rest)
		})
	}
}

func TestLevenshtein(t *testing.T) {
	assert.Equal(t, 0, levenshtein("point", "point"))
	assert.Equal(t, 2, levenshtein("piont", "point"))
	assert.Equal(t, 5, levenshtein("", "point"))
	assert.Equal(t, 3, levenshtein("kitten", "sitting"))
}

func TestSuggest(t *testing.T) {
	names := []string{"throttle", "point", "light", "help", "exit", "quit"}
	assert.Equal(t, []string{"point"}, suggest("pint", names))
	assert.Equal(t, []string{"throttle"}, suggest("THROTLE", names))
	assert.Empty(t, suggest("foobarbaz", names))
	assert.Empty(t, suggest("point", names), "Exact matches are not suggestions")
}
