package normalize

import (
	"reflect"
	"testing"

	"github.com/dalemusser/waffle/pantry/text"
)

func TestEmail(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"user@example.com", "user@example.com"},
		{"USER@EXAMPLE.COM", "user@example.com"},
		{"  User@Example.Com  ", "user@example.com"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := Email(tt.input)
			if got != tt.want {
				t.Errorf("Email(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Ada Lovelace", "Ada Lovelace"},
		{"  Ada   Lovelace  ", "Ada Lovelace"},
		{"", ""},
		{"UPPERCASE NAME", "UPPERCASE NAME"}, // Name preserves case
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := Name(tt.input)
			if got != tt.want {
				t.Errorf("Name(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestUsername(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"gopher", "gopher"},
		{"  Gopher  ", "gopher"},
		{"ADA_L", "ada_l"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := Username(tt.input)
			if got != tt.want {
				t.Errorf("Username(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestRole(t *testing.T) {
	if got := Role("  ADMIN "); got != "admin" {
		t.Errorf("Role = %q, want admin", got)
	}
}

func TestQueryParam(t *testing.T) {
	if got := QueryParam("  Go  "); got != "Go" {
		t.Errorf("QueryParam = %q, want Go", got)
	}
}

func TestTopics(t *testing.T) {
	got := Topics([]string{" go ", "", "rust", "go", "   "})
	want := []string{text.Fold("go"), text.Fold("rust")}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Topics = %v, want %v", got, want)
	}
	if Topics(nil) != nil {
		t.Error("expected nil for nil input")
	}
}
