// Package keyexpr implements the key expression grammar: validation,
// canonization, and the intersection and inclusion relations used to route
// samples and queries.
//
// A key expression is a '/'-separated list of chunks. A chunk is either a
// literal, the single-chunk wildcard "*", the multi-chunk wildcard "**", or
// a literal containing "$*" sub-chunk wildcards. Chunks starting with '@'
// are verbatim: wildcards never match them.
package keyexpr

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid key expression")

// Validate reports whether expr is a canonical key expression.
func Validate(expr string) error {
	if expr == "" {
		return fmt.Errorf("%w: empty", ErrInvalid)
	}
	if strings.HasPrefix(expr, "/") || strings.HasSuffix(expr, "/") {
		return fmt.Errorf("%w: %q starts or ends with '/'", ErrInvalid, expr)
	}
	if strings.ContainsAny(expr, "#?") {
		return fmt.Errorf("%w: %q contains '#' or '?'", ErrInvalid, expr)
	}
	chunks := strings.Split(expr, "/")
	for i, chunk := range chunks {
		if err := validateChunk(expr, chunk); err != nil {
			return err
		}
		if i > 0 && chunk == "**" && chunks[i-1] == "**" {
			return fmt.Errorf("%w: %q is not canonical (\"**/**\")", ErrInvalid, expr)
		}
		if i > 0 && chunk == "*" && chunks[i-1] == "**" {
			return fmt.Errorf("%w: %q is not canonical (\"**/*\")", ErrInvalid, expr)
		}
	}
	return nil
}

func validateChunk(expr, chunk string) error {
	if chunk == "" {
		return fmt.Errorf("%w: %q contains an empty chunk", ErrInvalid, expr)
	}
	if chunk == "*" || chunk == "**" {
		return nil
	}
	if chunk == "$*" {
		return fmt.Errorf("%w: %q is not canonical (lone \"$*\")", ErrInvalid, expr)
	}
	if strings.Contains(chunk, "$*$*") {
		return fmt.Errorf("%w: %q is not canonical (\"$*$*\")", ErrInvalid, expr)
	}
	for i := 0; i < len(chunk); i++ {
		switch chunk[i] {
		case '*':
			if i == 0 || chunk[i-1] != '$' {
				return fmt.Errorf("%w: %q has a '*' inside chunk %q", ErrInvalid, expr, chunk)
			}
		case '$':
			if i+1 >= len(chunk) || chunk[i+1] != '*' {
				return fmt.Errorf("%w: %q has a '$' not followed by '*'", ErrInvalid, expr)
			}
		}
	}
	return nil
}

// Canonize rewrites expr into its canonical form and validates the result.
func Canonize(expr string) (string, error) {
	if expr == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalid)
	}
	chunks := strings.Split(expr, "/")
	out := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		for strings.Contains(chunk, "$*$*") {
			chunk = strings.ReplaceAll(chunk, "$*$*", "$*")
		}
		if chunk == "$*" {
			chunk = "*"
		}
		out = append(out, chunk)
	}
	// "**/**" collapses; "**/*" becomes "*/**" so single wildcards lead.
	for changed := true; changed; {
		changed = false
		for i := 1; i < len(out); i++ {
			if out[i-1] == "**" && out[i] == "**" {
				out = append(out[:i], out[i+1:]...)
				changed = true
				break
			}
			if out[i-1] == "**" && out[i] == "*" {
				out[i-1], out[i] = "*", "**"
				changed = true
				break
			}
		}
	}
	canon := strings.Join(out, "/")
	if err := Validate(canon); err != nil {
		return "", err
	}
	return canon, nil
}

// Join appends suffix to prefix as new chunks and canonizes the result.
func Join(prefix, suffix string) (string, error) {
	if err := Validate(prefix); err != nil {
		return "", err
	}
	return Canonize(prefix + "/" + suffix)
}

// Concat appends suffix to the last chunk of prefix. The result must be a
// valid key expression; a '*' may not be glued to another '*'.
func Concat(prefix, suffix string) (string, error) {
	if err := Validate(prefix); err != nil {
		return "", err
	}
	if strings.HasSuffix(prefix, "*") && strings.HasPrefix(suffix, "*") {
		return "", fmt.Errorf("%w: concatenating %q and %q would merge wildcards", ErrInvalid, prefix, suffix)
	}
	joined := prefix + suffix
	if err := Validate(joined); err != nil {
		return "", err
	}
	return joined, nil
}

// Equals reports whether a and b are the same key expression.
func Equals(a, b string) bool {
	return a == b
}

// Intersects reports whether at least one key matches both a and b.
func Intersects(a, b string) bool {
	return intersect(strings.Split(a, "/"), strings.Split(b, "/"))
}

// Includes reports whether every key matching b also matches a.
func Includes(a, b string) bool {
	return include(strings.Split(a, "/"), strings.Split(b, "/"))
}

func verbatim(chunk string) bool {
	return strings.HasPrefix(chunk, "@")
}

func allDoubleStar(chunks []string) bool {
	for _, chunk := range chunks {
		if chunk != "**" {
			return false
		}
	}
	return true
}

// relate evaluates a relation over the suffix pairs (a[i:], b[j:]) of two
// sequences of lengths la and lb. step computes one pair and recurses
// through next; every pair is computed at most once, so wildcards cost
// O(la*lb) instead of backtracking.
func relate(la, lb int, step func(i, j int, next func(i, j int) bool) bool) bool {
	memo := make([]int8, (la+1)*(lb+1))
	var next func(i, j int) bool
	next = func(i, j int) bool {
		k := i*(lb+1) + j
		if memo[k] != 0 {
			return memo[k] > 0
		}
		ok := step(i, j, next)
		memo[k] = -1
		if ok {
			memo[k] = 1
		}
		return ok
	}
	return next(0, 0)
}

func intersect(a, b []string) bool {
	return relate(len(a), len(b), func(i, j int, next func(i, j int) bool) bool {
		switch {
		case i == len(a) && j == len(b):
			return true
		case i == len(a):
			return allDoubleStar(b[j:])
		case j == len(b):
			return allDoubleStar(a[i:])
		case a[i] == "**":
			return next(i+1, j) || !verbatim(b[j]) && next(i, j+1)
		case b[j] == "**":
			return next(i, j+1) || !verbatim(a[i]) && next(i+1, j)
		}
		return chunkIntersects(a[i], b[j]) && next(i+1, j+1)
	})
}

func include(a, b []string) bool {
	return relate(len(a), len(b), func(i, j int, next func(i, j int) bool) bool {
		switch {
		case i == len(a) && j == len(b):
			return true
		case i == len(a):
			return false
		case a[i] == "**":
			return next(i+1, j) || j < len(b) && !verbatim(b[j]) && next(i, j+1)
		case j == len(b):
			return false
		case b[j] == "**":
			return false
		}
		return chunkIncludes(a[i], b[j]) && next(i+1, j+1)
	})
}

func chunkIntersects(a, b string) bool {
	if a == b {
		return true
	}
	if verbatim(a) || verbatim(b) {
		return false
	}
	if a == "*" || b == "*" {
		return true
	}
	return globIntersect(tokens(a), tokens(b))
}

func chunkIncludes(a, b string) bool {
	if a == b {
		return true
	}
	if verbatim(a) || verbatim(b) {
		return false
	}
	if a == "*" {
		return true
	}
	if b == "*" {
		return false
	}
	return globInclude(tokens(a), tokens(b))
}

// star marks a "$*" sub-chunk wildcard in a tokenized chunk.
const star = -1

func tokens(chunk string) []int {
	out := make([]int, 0, len(chunk))
	for i := 0; i < len(chunk); i++ {
		if chunk[i] == '$' && i+1 < len(chunk) && chunk[i+1] == '*' {
			out = append(out, star)
			i++
			continue
		}
		out = append(out, int(chunk[i]))
	}
	return out
}

func globIntersect(a, b []int) bool {
	return relate(len(a), len(b), func(i, j int, next func(i, j int) bool) bool {
		switch {
		case i == len(a) && j == len(b):
			return true
		case i < len(a) && a[i] == star:
			return next(i+1, j) || j < len(b) && next(i, j+1)
		case j < len(b) && b[j] == star:
			return next(i, j+1) || i < len(a) && next(i+1, j)
		case i == len(a) || j == len(b):
			return false
		}
		return a[i] == b[j] && next(i+1, j+1)
	})
}

func globInclude(a, b []int) bool {
	return relate(len(a), len(b), func(i, j int, next func(i, j int) bool) bool {
		switch {
		case i == len(a) && j == len(b):
			return true
		case i < len(a) && a[i] == star:
			return next(i+1, j) || j < len(b) && next(i, j+1)
		case i == len(a) || j == len(b):
			return false
		case b[j] == star:
			return false
		}
		return a[i] == b[j] && next(i+1, j+1)
	})
}
