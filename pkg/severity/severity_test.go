package severity

import (
	"errors"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		label   string
		want    Severity
		wantErr bool
	}{
		{"critical", Critical, false},
		{"Critical", Critical, false},
		{"HIGH", High, false},
		{"error", Error, false},
		{"errors", Error, false},
		{"warning", Warning, false},
		{"warnings", Warning, false},
		{"notes", Note, false},
		{"moderate", Moderate, false},
		{"all", All, false},
		{"NONE", None, false},
		{" low ", Low, false},
		{"bogus", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, err := Normalize(tt.label)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Normalize(%q) expected error, got %q", tt.label, got)
				}
				if !errors.Is(err, ErrUnknown) {
					t.Errorf("error should wrap ErrUnknown, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Normalize(%q) unexpected error: %v", tt.label, err)
			}
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.label, got, tt.want)
			}
		})
	}
}

func TestAtOrAbove(t *testing.T) {
	tests := []struct {
		threshold Severity
		wantLen   int
		wantLast  Severity
	}{
		{Critical, 1, Critical},
		{High, 2, High},
		{Error, 3, Error},
		{Medium, 4, Medium},
		{Moderate, 5, Moderate},
		{Low, 6, Low},
		{Warning, 7, Warning},
		{Note, 8, Note},
	}

	for _, tt := range tests {
		t.Run(string(tt.threshold), func(t *testing.T) {
			got := AtOrAbove(tt.threshold)
			if len(got) != tt.wantLen {
				t.Fatalf("AtOrAbove(%q) returned %d severities, want %d", tt.threshold, len(got), tt.wantLen)
			}
			if got[0] != Critical {
				t.Errorf("prefix must start at critical, got %q", got[0])
			}
			if got[len(got)-1] != tt.wantLast {
				t.Errorf("prefix must end at %q, got %q", tt.wantLast, got[len(got)-1])
			}
		})
	}
}

func TestAtOrAbovePrefixes(t *testing.T) {
	// Every threshold yields a contiguous prefix of the canonical list.
	full := List()
	for _, threshold := range full {
		set := AtOrAbove(threshold)
		for i, s := range set {
			if s != full[i] {
				t.Errorf("AtOrAbove(%q)[%d] = %q, want %q", threshold, i, s, full[i])
			}
		}
	}
}

func TestAtOrAbovePseudoLevels(t *testing.T) {
	if got := AtOrAbove(All); len(got) != len(List()) {
		t.Errorf("AtOrAbove(all) = %d severities, want full list", len(got))
	}
	if got := AtOrAbove(None); len(got) != 0 {
		t.Errorf("AtOrAbove(none) = %v, want empty", got)
	}
	// Unknown thresholds behave as none.
	if got := AtOrAbove(Severity("bogus")); len(got) != 0 {
		t.Errorf("AtOrAbove(bogus) = %v, want empty", got)
	}
}

func TestScoreOrdering(t *testing.T) {
	list := List()
	for i := 1; i < len(list); i++ {
		if list[i-1].Score() <= list[i].Score() {
			t.Errorf("%q should score higher than %q", list[i-1], list[i])
		}
	}
	if Severity("bogus").Score() != 0 {
		t.Error("unknown severities should score 0")
	}
}

func TestContains(t *testing.T) {
	set := AtOrAbove(Error)
	if !Contains(set, High) {
		t.Error("high should be at or above error")
	}
	if Contains(set, Warning) {
		t.Error("warning should not be at or above error")
	}
}
