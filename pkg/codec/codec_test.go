package codec

import (
	"errors"
	"testing"
)

func TestEncode(t *testing.T) {
	if got := string(Encode("Alice", "hello")); got != "Alice: hello" {
		t.Fatalf("Encode = %q, want %q", got, "Alice: hello")
	}
	if got := string(Encode("", "")); got != ": " {
		t.Fatalf("Encode of empty pair = %q, want %q", got, ": ")
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantSender string
		wantText   string
		wantErr    error
	}{
		{name: "plain", raw: "Alice: hello", wantSender: "Alice", wantText: "hello"},
		{name: "separator in text", raw: "Bob: note: see below", wantSender: "Bob", wantText: "note: see below"},
		{name: "empty text", raw: "Carol: ", wantSender: "Carol", wantText: ""},
		{name: "empty sender", raw: ": orphan", wantSender: "", wantText: "orphan"},
		{name: "colon without space", raw: "Dave:hi", wantErr: ErrNotAMessage},
		{name: "empty buffer", raw: "", wantErr: ErrNotAMessage},
		{name: "garbage", raw: "\x7f\x01noise", wantErr: ErrNotAMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender, text, err := Decode([]byte(tt.raw))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Decode(%q) error = %v, want %v", tt.raw, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Decode(%q) unexpected error: %v", tt.raw, err)
			}
			if sender != tt.wantSender || text != tt.wantText {
				t.Errorf("Decode(%q) = (%q, %q), want (%q, %q)", tt.raw, sender, text, tt.wantSender, tt.wantText)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	pairs := [][2]string{
		{"Alice", "hello"},
		{"Bob", "a: b: c"},
		{"Émilie", "ça va? 👋"},
		{"x", ""},
	}
	for _, p := range pairs {
		sender, text, err := Decode(Encode(p[0], p[1]))
		if err != nil {
			t.Fatalf("round trip %q: %v", p, err)
		}
		if sender != p[0] || text != p[1] {
			t.Errorf("round trip %q got (%q, %q)", p, sender, text)
		}
	}
}

func TestSenderWithSeparatorMisparses(t *testing.T) {
	// known limitation: first-occurrence split
	sender, text, err := Decode(Encode("Dr: Who", "hi"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sender != "Dr" || text != "Who: hi" {
		t.Fatalf("got (%q, %q), want (%q, %q)", sender, text, "Dr", "Who: hi")
	}
}
