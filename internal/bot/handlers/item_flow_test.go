package handlers

import (
	"errors"
	"testing"
)

func TestCustomerNameFromTitle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		title string
		want  string
	}{
		{name: "region and channel stripped", title: "NW Retail ACME Stores", want: "ACME Stores"},
		{name: "three words", title: "NW Retail ACME", want: "ACME"},
		{name: "two words kept whole", title: "ACME Stores", want: "ACME Stores"},
		{name: "single word", title: "ACME", want: "ACME"},
		{name: "surrounding whitespace trimmed", title: "  ACME Stores  ", want: "ACME Stores"},
		{name: "empty title", title: "", want: "Auto Customer -42"},
		{name: "blank title", title: "   ", want: "Auto Customer -42"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := customerNameFromTitle(tc.title, -42); got != tc.want {
				t.Errorf("customerNameFromTitle(%q) = %q, want %q", tc.title, got, tc.want)
			}
		})
	}
}

func TestErrorDetail(t *testing.T) {
	t.Parallel()

	if got := errorDetail(nil); got != "" {
		t.Errorf("errorDetail(nil) = %q, want empty", got)
	}

	if got := errorDetail(errors.New("boom")); got != "\nboom" {
		t.Errorf("errorDetail() = %q", got)
	}
}

func TestParseAssignToken(t *testing.T) {
	t.Parallel()

	chatID, userID, ok := parseAssignToken("assign_sm:-100500:777")
	if !ok || chatID != -100500 || userID != 777 {
		t.Errorf("parseAssignToken() = %d, %d, %v", chatID, userID, ok)
	}

	tests := []struct {
		name string
		data string
	}{
		{name: "empty", data: ""},
		{name: "foreign prefix", data: "pick_uom:1:2:3"},
		{name: "missing candidate", data: "assign_sm:-100500"},
		{name: "extra part", data: "assign_sm:1:2:3"},
		{name: "bad chat id", data: "assign_sm:x:2"},
		{name: "bad candidate id", data: "assign_sm:1:x"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if _, _, ok := parseAssignToken(tc.data); ok {
				t.Errorf("parseAssignToken(%q) was accepted", tc.data)
			}
		})
	}
}
