package cli

import (
	"regexp"
	"slices"
	"strings"
)

var keyCleansePattern = regexp.MustCompile(`\s`)

func cleanseKey(key string) string {
	return keyCleansePattern.ReplaceAllString(strings.ToLower(key), "")
}

// MustGet is used with a [pflag.FlagSet] getter to panic if the flag is not defined, or is not the right type.
// The developer usually knows whether a get call will fail, so this function makes it easier to avoid global flag state.
func MustGet[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}

// splitCommand separates the command name from the rest of a line.
func splitCommand(line string) (string, string) {
	line = strings.TrimSpace(line)
	idx := strings.IndexAny(line, " \t")
	if idx < 0 {
		return line, ""
	}
	return line[:idx], strings.TrimSpace(line[idx+1:])
}

// levenshtein calculates the edit distance between two strings.
func levenshtein(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

const maxSuggestDistance = 2

// suggest returns the names closest to input, nearest first.
func suggest(input string, names []string) []string {
	input = strings.ToLower(input)
	type candidate struct {
		name string
		dist int
	}
	var found []candidate
	for _, name := range names {
		if d := levenshtein(input, name); d > 0 && d <= maxSuggestDistance {
			found = append(found, candidate{name, d})
		}
	}
	slices.SortFunc(found, func(a, b candidate) int {
		if a.dist != b.dist {
			return a.dist - b.dist
		}
		return strings.Compare(a.name, b.name)
	})
	result := make([]string, 0, min(len(found), 3))
	for i := 0; i < len(found) && i < 3; i++ {
		result = append(result, found[i].name)
	}
	return result
}
