package transcript

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestAppendPreservesOrder(t *testing.T) {
	log := NewLog()
	log.Append(RoleUser, "first")
	log.Append(RoleAssistant, "second")
	log.Append(RoleUser, "third")

	got := log.All()
	if len(got) != 3 {
		t.Fatalf("All() returned %d turns, want 3", len(got))
	}
	want := []Turn{
		{Role: RoleUser, Text: "first"},
		{Role: RoleAssistant, Text: "second"},
		{Role: RoleUser, Text: "third"},
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("turn[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestLen(t *testing.T) {
	log := NewLog()
	if log.Len() != 0 {
		t.Errorf("empty log Len() = %d, want 0", log.Len())
	}
	log.Append(RoleUser, "hi")
	log.Append(RoleAssistant, "hello")
	if log.Len() != 2 {
		t.Errorf("Len() = %d, want 2", log.Len())
	}
}

func TestAllReturnsCopy(t *testing.T) {
	log := NewLog()
	log.Append(RoleUser, "original")

	got := log.All()
	got[0].Text = "mutated"

	if log.All()[0].Text != "original" {
		t.Error("mutating All() result changed the log")
	}
}

func TestTailReturnsCopy(t *testing.T) {
	log := NewLog()
	log.Append(RoleUser, "original")

	got := log.Tail(1)
	got[0].Text = "mutated"

	if log.All()[0].Text != "original" {
		t.Error("mutating Tail() result changed the log")
	}
}

func TestTail(t *testing.T) {
	log := NewLog()
	for _, text := range []string{"a", "b", "c", "d", "e"} {
		log.Append(RoleUser, text)
	}

	tests := []struct {
		name string
		n    int
		want []string
	}{
		{"last two", 2, []string{"d", "e"}},
		{"exact length", 5, []string{"a", "b", "c", "d", "e"}},
		{"more than length", 10, []string{"a", "b", "c", "d", "e"}},
		{"one", 1, []string{"e"}},
		{"zero", 0, []string{}},
		{"negative", -3, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := log.Tail(tt.n)
			if got == nil {
				t.Fatal("Tail() returned nil, want non-nil slice")
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Tail(%d) returned %d turns, want %d", tt.n, len(got), len(tt.want))
			}
			for i, text := range tt.want {
				if got[i].Text != text {
					t.Errorf("Tail(%d)[%d].Text = %q, want %q", tt.n, i, got[i].Text, text)
				}
			}
		})
	}
}

func TestTailEmptyLog(t *testing.T) {
	log := NewLog()
	got := log.Tail(10)
	if got == nil || len(got) != 0 {
		t.Errorf("Tail(10) on empty log = %v, want empty slice", got)
	}
}

func TestFormatJSON(t *testing.T) {
	turns := []Turn{
		{Role: RoleUser, Text: "hi"},
		{Role: RoleAssistant, Text: "hello there"},
	}

	result := FormatJSON(turns)

	// Must be valid JSON.
	var decoded []Turn
	if err := json.Unmarshal([]byte(result), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v\noutput: %s", err, result)
	}
	if len(decoded) != 2 {
		t.Fatalf("got %d entries, want 2", len(decoded))
	}
	if decoded[0].Role != RoleUser || decoded[0].Text != "hi" {
		t.Errorf("decoded[0] = %+v, want user/hi", decoded[0])
	}

	// Two-space indentation.
	if !strings.Contains(result, "\n  {") {
		t.Errorf("output not indented with two spaces:\n%s", result)
	}
}

func TestFormatJSON_EscapesContent(t *testing.T) {
	turns := []Turn{{Role: RoleUser, Text: "say \"hi\"\nplease"}}

	result := FormatJSON(turns)

	var decoded []Turn
	if err := json.Unmarshal([]byte(result), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v\noutput: %s", err, result)
	}
	if decoded[0].Text != turns[0].Text {
		t.Errorf("round-trip changed text: %q, want %q", decoded[0].Text, turns[0].Text)
	}
}

func TestFormatJSON_Empty(t *testing.T) {
	if got := FormatJSON(nil); got != "[]" {
		t.Errorf("FormatJSON(nil) = %q, want %q", got, "[]")
	}
	if got := FormatJSON([]Turn{}); got != "[]" {
		t.Errorf("FormatJSON(empty) = %q, want %q", got, "[]")
	}
}
