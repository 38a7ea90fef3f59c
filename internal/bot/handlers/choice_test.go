package handlers

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/edgard/salesbridge/internal/database"
)

func TestChoiceTokenRoundTrip(t *testing.T) {
	t.Parallel()

	data := encodeChoiceToken(opPick, database.KindItemGroup, -100200300, 42, 7)
	if data != "pick_item_group:-100200300:42:7" {
		t.Fatalf("encodeChoiceToken() = %q", data)
	}

	token, ok := parseChoiceToken(data)
	if !ok {
		t.Fatalf("parseChoiceToken(%q) was rejected", data)
	}

	if token.Op != opPick || token.Kind != database.KindItemGroup {
		t.Errorf("parseChoiceToken(%q) op/kind = %q/%q", data, token.Op, token.Kind)
	}

	if token.ChatID != -100200300 || token.UserID != 42 || token.RawValue != "7" {
		t.Errorf("parseChoiceToken(%q) = %+v", data, token)
	}
}

func TestParseChoiceTokenRejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data string
	}{
		{name: "empty", data: ""},
		{name: "foreign prefix", data: "assign_sm:1:2"},
		{name: "too few parts", data: "pick_uom:1:2"},
		{name: "too many parts", data: "page_uom:1:2:3:4"},
		{name: "bad chat id", data: "pick_uom:x:2:3"},
		{name: "bad user id", data: "page_uom:1:x:3"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if _, ok := parseChoiceToken(tc.data); ok {
				t.Errorf("parseChoiceToken(%q) was accepted", tc.data)
			}
		})
	}
}

func TestParseChoiceTokenLeavesKindToCaller(t *testing.T) {
	t.Parallel()

	token, ok := parseChoiceToken("pick_bogus:1:2:3")
	if !ok {
		t.Fatal("parseChoiceToken rejected a structurally valid token")
	}

	if token.Kind.Valid() {
		t.Errorf("kind %q unexpectedly valid", token.Kind)
	}
}

func TestBuildChoiceKeyboard(t *testing.T) {
	t.Parallel()

	options := make([]string, 13)
	for i := range options {
		options[i] = fmt.Sprintf("Unit %02d", i+1)
	}

	kb := buildChoiceKeyboard(database.KindUnit, -5, 9, options, 0, "< Prev", "Next >")
	if len(kb.InlineKeyboard) != 4 {
		t.Fatalf("page 0 rows = %d, want 4", len(kb.InlineKeyboard))
	}

	if got := kb.InlineKeyboard[0][0].CallbackData; got != "pick_uom:-5:9:0" {
		t.Errorf("page 0 first pick token = %q", got)
	}

	nav := kb.InlineKeyboard[3]
	if len(nav) != 1 || nav[0].Text != "Next >" || nav[0].CallbackData != "page_uom:-5:9:1" {
		t.Errorf("page 0 nav row = %+v", nav)
	}

	kb = buildChoiceKeyboard(database.KindUnit, -5, 9, options, 1, "< Prev", "Next >")

	if got := kb.InlineKeyboard[0][0].CallbackData; got != "pick_uom:-5:9:6" {
		t.Errorf("page 1 first pick token = %q", got)
	}

	nav = kb.InlineKeyboard[len(kb.InlineKeyboard)-1]
	if len(nav) != 2 {
		t.Fatalf("page 1 nav buttons = %d, want 2", len(nav))
	}

	if nav[0].CallbackData != "page_uom:-5:9:0" || nav[1].CallbackData != "page_uom:-5:9:2" {
		t.Errorf("page 1 nav tokens = %q, %q", nav[0].CallbackData, nav[1].CallbackData)
	}

	// Pages past the end clamp to the last page: one leftover option plus
	// a lone Prev button.
	kb = buildChoiceKeyboard(database.KindUnit, -5, 9, options, 99, "< Prev", "Next >")
	if len(kb.InlineKeyboard) != 2 {
		t.Fatalf("clamped page rows = %d, want 2", len(kb.InlineKeyboard))
	}

	if kb.InlineKeyboard[0][0].Text != "Unit 13" {
		t.Errorf("clamped page first option = %q", kb.InlineKeyboard[0][0].Text)
	}

	nav = kb.InlineKeyboard[1]
	if len(nav) != 1 || nav[0].Text != "< Prev" {
		t.Errorf("clamped page nav row = %+v", nav)
	}
}

func TestClampChoicePage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		page  int
		total int
		want  int
	}{
		{name: "first page", page: 0, total: 13, want: 0},
		{name: "past the end", page: 5, total: 13, want: 2},
		{name: "negative", page: -3, total: 13, want: 0},
		{name: "no options", page: 1, total: 0, want: 0},
		{name: "single page", page: 1, total: 6, want: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := clampChoicePage(tc.page, tc.total); got != tc.want {
				t.Errorf("clampChoicePage(%d, %d) = %d, want %d", tc.page, tc.total, got, tc.want)
			}
		})
	}
}

func TestResolveChoiceIndex(t *testing.T) {
	t.Parallel()

	options := make([]string, 13)
	for i := range options {
		options[i] = fmt.Sprintf("Unit %02d", i+1)
	}

	tests := []struct {
		name   string
		raw    string
		want   string
		wantOK bool
	}{
		{name: "first", raw: "0", want: "Unit 01", wantOK: true},
		{name: "last", raw: "12", want: "Unit 13", wantOK: true},
		{name: "past the end", raw: "13", wantOK: false},
		{name: "negative", raw: "-1", wantOK: false},
		{name: "not a number", raw: "x", wantOK: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, ok := resolveChoiceIndex(tc.raw, options)
			if ok != tc.wantOK || got != tc.want {
				t.Errorf("resolveChoiceIndex(%q) = %q, %v, want %q, %v", tc.raw, got, ok, tc.want, tc.wantOK)
			}
		})
	}
}

func TestMatchChoice(t *testing.T) {
	t.Parallel()

	options := []string{"Nos", "Box", "Square Meter"}

	tests := []struct {
		name    string
		input   string
		options []string
		want    string
		wantOK  bool
	}{
		{name: "exact", input: "Box", options: options, want: "Box", wantOK: true},
		{name: "case folded", input: "nos", options: options, want: "Nos", wantOK: true},
		{name: "mixed case", input: "sQuArE mEtEr", options: options, want: "Square Meter", wantOK: true},
		{name: "absent", input: "Pallet", options: options, wantOK: false},
		{name: "empty cache passes input through", input: "Pallet", options: nil, want: "Pallet", wantOK: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, ok := matchChoice(tc.input, tc.options)
			if ok != tc.wantOK || got != tc.want {
				t.Errorf("matchChoice(%q) = %q, %v, want %q, %v", tc.input, got, ok, tc.want, tc.wantOK)
			}
		})
	}
}

func TestTruncateChoiceLabel(t *testing.T) {
	t.Parallel()

	if got := truncateChoiceLabel("Nos"); got != "Nos" {
		t.Errorf("short label changed: %q", got)
	}

	long := strings.Repeat("é", 40)

	got := truncateChoiceLabel(long)
	if !strings.HasSuffix(got, "…") {
		t.Errorf("truncated label %q has no ellipsis", got)
	}

	if n := utf8.RuneCountInString(got); n != 30 {
		t.Errorf("truncated label runes = %d, want 30", n)
	}
}

func TestChoicePromptText(t *testing.T) {
	t.Parallel()

	got := choicePromptText("Pick one.", "Page %d/%d. Total: %d.", 1, 13)
	if got != "Pick one.\nPage 2/3. Total: 13." {
		t.Errorf("choicePromptText() = %q", got)
	}
}
