package frame

import (
	"bytes"
	"encoding/json"
	"errors"
)

var (
	// ErrNoObject means the buffer holds no object start at all. The caller
	// must retain the whole buffer and wait for more bytes.
	ErrNoObject = errors.New("frame: no object start in buffer")
	// ErrIncomplete means an object has started but its closing brace has
	// not arrived. The caller must retain the buffer and retry later.
	ErrIncomplete = errors.New("frame: incomplete object")
	// ErrDecode means a brace-balanced span failed JSON validation. The
	// caller's recovery is to skip to the next object start (NextStart).
	ErrDecode = errors.New("frame: object failed to decode")
)

// Extract pulls the first complete JSON object out of buf.
//
// Leading non-JSON noise before the first '{' is tolerated and consumed
// together with the object. On success it returns the raw object span and
// the index immediately past the consumed bytes; everything before that
// index is fully consumed and must never be re-parsed. On ErrNoObject and
// ErrIncomplete the advance is always 0.
func Extract(buf []byte) ([]byte, int, error) {
	start := bytes.IndexByte(buf, '{')
	if start < 0 {
		return nil, 0, ErrNoObject
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(buf); i++ {
		c := buf[i]

		if escaped {
			escaped = false
			continue
		}
		if c == '\\' {
			escaped = true
			continue
		}
		if c == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}

		switch c {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				span := buf[start : i+1]
				if !json.Valid(span) {
					return nil, 0, ErrDecode
				}
				return span, i + 1, nil
			}
		}
	}

	return nil, 0, ErrIncomplete
}

// NextStart returns the index of the next '{' strictly after the first
// one, or -1 if there is none. It is the recovery point after ErrDecode:
// everything before the returned index is discarded.
func NextStart(buf []byte) int {
	first := bytes.IndexByte(buf, '{')
	if first < 0 || first+1 >= len(buf) {
		return -1
	}
	next := bytes.IndexByte(buf[first+1:], '{')
	if next < 0 {
		return -1
	}
	return first + 1 + next
}
