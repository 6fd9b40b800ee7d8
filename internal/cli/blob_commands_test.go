package cli

import (
	"testing"

	"github.com/eazure-dev/eazure/frame"
)

func TestLocalObjectJSONParsesDocument(t *testing.T) {
	doc := []byte(`{"real": "json", "n": 3}`)
	obj, err := localObject("settings.json", doc)
	if err != nil {
		t.Fatalf("localObject: %v", err)
	}
	m, ok := obj.(map[string]any)
	if !ok {
		// A string here means the document would re-encode as a quoted
		// JSON string literal instead of the document itself.
		t.Fatalf("obj = %T, want map[string]any", obj)
	}
	if m["real"] != "json" {
		t.Errorf(`m["real"] = %v, want "json"`, m["real"])
	}
}

func TestLocalObjectJSONRejectsInvalid(t *testing.T) {
	if _, err := localObject("bad.json", []byte("{not json")); err == nil {
		t.Error("expected parse error")
	}
}

func TestLocalObjectCSVParsesFrame(t *testing.T) {
	obj, err := localObject("rows.csv", []byte("id,v\n1,a\n2,b\n"))
	if err != nil {
		t.Fatalf("localObject: %v", err)
	}
	f, ok := obj.(*frame.Frame)
	if !ok {
		t.Fatalf("obj = %T, want *frame.Frame", obj)
	}
	if f.Len() != 2 {
		t.Errorf("rows = %d, want 2", f.Len())
	}
}

func TestLocalObjectGobRejected(t *testing.T) {
	if _, err := localObject("state.gob", []byte("anything")); err == nil {
		t.Error("expected error for gob upload")
	}
}

func TestLocalObjectTextPassesThrough(t *testing.T) {
	obj, err := localObject("notes.txt", []byte("hello"))
	if err != nil {
		t.Fatalf("localObject: %v", err)
	}
	if obj != "hello" {
		t.Errorf("obj = %v, want hello", obj)
	}
}
