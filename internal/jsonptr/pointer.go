// Package jsonptr implements RFC 6901 JSON Pointer read/write over the
// dynamic JSON trees (any / map[string]any / []any / scalars) that templates'
// base_dashboard documents are modeled as.
package jsonptr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/openclaw/plashboard/internal/domain"
)

// Tokens splits a JSON pointer into its decoded reference tokens. "" denotes
// the whole-document pointer (no tokens); "/" is a single empty-string token.
func Tokens(pointer string) ([]string, error) {
	if pointer == "" {
		return nil, nil
	}
	if !strings.HasPrefix(pointer, "/") {
		return nil, fmt.Errorf("%w: pointer %q must start with \"/\"", domain.ErrPointerInvalid, pointer)
	}
	raw := strings.Split(pointer[1:], "/")
	tokens := make([]string, len(raw))
	for i, t := range raw {
		tokens[i] = decodeToken(t)
	}
	return tokens, nil
}

func decodeToken(t string) string {
	t = strings.ReplaceAll(t, "~1", "/")
	t = strings.ReplaceAll(t, "~0", "~")
	return t
}

// Read walks doc along pointer and returns the value found there.
func Read(doc any, pointer string) (any, error) {
	tokens, err := Tokens(pointer)
	if err != nil {
		return nil, err
	}
	cur := doc
	for i, tok := range tokens {
		next, err := step(cur, tok, pointer, i)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

func step(cur any, tok string, pointer string, depth int) (any, error) {
	switch v := cur.(type) {
	case map[string]any:
		val, ok := v[tok]
		if !ok {
			return nil, fmt.Errorf("%w: pointer path not found: %q (at token %d %q)", domain.ErrPointerNotFound, pointer, depth, tok)
		}
		return val, nil
	case []any:
		idx, err := strconv.Atoi(tok)
		if err != nil || idx < 0 || idx >= len(v) {
			return nil, fmt.Errorf("%w: array index %q out of range in pointer %q", domain.ErrPointerInvalid, tok, pointer)
		}
		return v[idx], nil
	default:
		return nil, fmt.Errorf("%w: token %q does not resolve against a non-container value in pointer %q", domain.ErrPointerInvalid, tok, pointer)
	}
}

// Write sets the value at pointer within doc. It requires the final token to
// resolve to an existing object key or an existing, in-range array index —
// writes never create new keys or extend arrays, since the base document's
// skeleton is authoritative.
func Write(doc any, pointer string, value any) error {
	tokens, err := Tokens(pointer)
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		return fmt.Errorf("%w: cannot write to the whole-document pointer", domain.ErrPointerInvalid)
	}

	cur := doc
	for i, tok := range tokens[:len(tokens)-1] {
		next, err := step(cur, tok, pointer, i)
		if err != nil {
			return err
		}
		cur = next
	}

	last := tokens[len(tokens)-1]
	switch v := cur.(type) {
	case map[string]any:
		if _, ok := v[last]; !ok {
			return fmt.Errorf("%w: pointer path not found: %q", domain.ErrPointerNotFound, pointer)
		}
		v[last] = value
		return nil
	case []any:
		idx, err := strconv.Atoi(last)
		if err != nil || idx < 0 || idx >= len(v) {
			return fmt.Errorf("%w: array index %q out of range in pointer %q", domain.ErrPointerInvalid, last, pointer)
		}
		v[idx] = value
		return nil
	default:
		return fmt.Errorf("%w: parent of pointer %q is not a container", domain.ErrPointerInvalid, pointer)
	}
}

// Exists reports whether pointer resolves within doc without error.
func Exists(doc any, pointer string) bool {
	_, err := Read(doc, pointer)
	return err == nil
}
