package jsonutil

import (
	"strings"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	type decision struct {
		Msg     string `json:"msg"`
		Trigger string `json:"trigger"`
	}

	data, err := Marshal(decision{Msg: "py/sqli (error)", Trigger: "id-match"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got decision
	if err := Unmarshal(data, &got); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Trigger != "id-match" {
		t.Errorf("got trigger %q, want %q", got.Trigger, "id-match")
	}
}

func TestMarshalIndent(t *testing.T) {
	data, err := MarshalIndent(map[string]int{"errors": 2}, "  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(data), "\n") {
		t.Error("expected indented output")
	}
}

func TestValid(t *testing.T) {
	if !Valid([]byte(`{"ok":true}`)) {
		t.Error("expected valid JSON")
	}
	if Valid([]byte(`{"ok":`)) {
		t.Error("expected invalid JSON")
	}
}
