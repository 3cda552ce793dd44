package frame

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
)

func TestExtractByteAtATime(t *testing.T) {
	obj, err := json.Marshal(map[string]any{"ShotNumber": 7, "Message": "ok"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	for i := 1; i < len(obj); i++ {
		_, n, err := Extract(obj[:i])
		if !errors.Is(err, ErrIncomplete) && !errors.Is(err, ErrNoObject) {
			t.Fatalf("prefix len=%d: expected incomplete/no-object, got %v", i, err)
		}
		if n != 0 {
			t.Fatalf("prefix len=%d: advance=%d, want 0", i, n)
		}
	}

	span, n, err := Extract(obj)
	if err != nil {
		t.Fatalf("full buffer: %v", err)
	}
	if n != len(obj) {
		t.Fatalf("advance=%d, want %d", n, len(obj))
	}
	if !bytes.Equal(span, obj) {
		t.Fatalf("span mismatch: %q", span)
	}
}

func TestExtractConcatenatedObjects(t *testing.T) {
	a := []byte(`{"Code":201,"Message":"first"}`)
	b := []byte(`{"Code":200,"Message":"second"}`)
	buf := append(append([]byte{}, a...), b...)

	span, n, err := Extract(buf)
	if err != nil {
		t.Fatalf("first extract: %v", err)
	}
	if !bytes.Equal(span, a) {
		t.Fatalf("first span mismatch: %q", span)
	}
	buf = buf[n:]

	span, n, err = Extract(buf)
	if err != nil {
		t.Fatalf("second extract: %v", err)
	}
	if !bytes.Equal(span, b) {
		t.Fatalf("second span mismatch: %q", span)
	}
	if n != len(buf) {
		t.Fatalf("leftover bytes after second extract: %d", len(buf)-n)
	}
}

func TestExtractBraceInsideString(t *testing.T) {
	buf := []byte(`{"note":"a { b","ok":true}`)
	span, n, err := Extract(buf)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if n != len(buf) {
		t.Fatalf("advance=%d, want %d", n, len(buf))
	}
	var out struct {
		Note string `json:"note"`
	}
	if err := json.Unmarshal(span, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Note != "a { b" {
		t.Fatalf("note=%q", out.Note)
	}
}

func TestExtractEscapedQuoteInsideString(t *testing.T) {
	buf := []byte(`{"note":"say \"}\" twice"}`)
	_, n, err := Extract(buf)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if n != len(buf) {
		t.Fatalf("advance=%d, want %d", n, len(buf))
	}
}

func TestExtractIncompleteThenComplete(t *testing.T) {
	buf := []byte(`{"a":1`)
	_, n, err := Extract(buf)
	if !errors.Is(err, ErrIncomplete) {
		t.Fatalf("expected ErrIncomplete, got %v", err)
	}
	if n != 0 {
		t.Fatalf("advance=%d, want 0", n)
	}

	buf = append(buf, '}')
	span, n, err := Extract(buf)
	if err != nil {
		t.Fatalf("extract after append: %v", err)
	}
	if n != len(buf) {
		t.Fatalf("advance=%d, want %d", n, len(buf))
	}
	if string(span) != `{"a":1}` {
		t.Fatalf("span=%q", span)
	}
}

func TestExtractConsumesLeadingNoise(t *testing.T) {
	buf := []byte("garbage\n\t{\"a\":1}")
	span, n, err := Extract(buf)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if string(span) != `{"a":1}` {
		t.Fatalf("span=%q", span)
	}
	if n != len(buf) {
		t.Fatalf("advance=%d, want %d", n, len(buf))
	}
}

func TestExtractNoObject(t *testing.T) {
	_, n, err := Extract([]byte("no json here"))
	if !errors.Is(err, ErrNoObject) {
		t.Fatalf("expected ErrNoObject, got %v", err)
	}
	if n != 0 {
		t.Fatalf("advance=%d, want 0", n)
	}
}

func TestExtractMalformedSpanRecovery(t *testing.T) {
	// Balanced braces but invalid JSON, followed by a good object.
	buf := []byte(`{bad}{"a":1}`)
	_, _, err := Extract(buf)
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}

	idx := NextStart(buf)
	if idx != 5 {
		t.Fatalf("NextStart=%d, want 5", idx)
	}
	span, n, err := Extract(buf[idx:])
	if err != nil {
		t.Fatalf("extract after skip: %v", err)
	}
	if string(span) != `{"a":1}` {
		t.Fatalf("span=%q", span)
	}
	if n != len(buf)-idx {
		t.Fatalf("advance=%d", n)
	}
}

func TestNextStartNoFurtherObject(t *testing.T) {
	if idx := NextStart([]byte(`{bad`)); idx != -1 {
		t.Fatalf("NextStart=%d, want -1", idx)
	}
	if idx := NextStart([]byte(`no braces`)); idx != -1 {
		t.Fatalf("NextStart=%d, want -1", idx)
	}
}
