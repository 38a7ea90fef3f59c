package handlers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot/models"

	"github.com/edgard/salesbridge/internal/database"
)

const (
	// choicePageSize is how many options one keyboard page shows.
	choicePageSize = 6
	// choiceButtonsPerRow is how many option buttons share a keyboard row.
	choiceButtonsPerRow = 2
	// choiceLabelMaxRunes keeps button labels inside Telegram's comfort zone.
	choiceLabelMaxRunes = 32

	opPick = "pick"
	opPage = "page"
)

// choiceToken is the decoded form of a choice keyboard callback payload.
// RawValue stays unparsed because pick and page interpret it differently.
type choiceToken struct {
	Op       string
	Kind     database.ChoiceKind
	ChatID   int64
	UserID   int64
	RawValue string
}

func encodeChoiceToken(op string, kind database.ChoiceKind, chatID, userID int64, value int) string {
	return fmt.Sprintf("%s_%s:%d:%d:%d", op, kind, chatID, userID, value)
}

// parseChoiceToken splits "op_kind:chatID:userID:value" callback data.
// The kind and value are returned raw; each branch validates its own.
func parseChoiceToken(data string) (choiceToken, bool) {
	parts := strings.Split(data, ":")
	if len(parts) != 4 {
		return choiceToken{}, false
	}

	var op string

	switch {
	case strings.HasPrefix(parts[0], opPick+"_"):
		op = opPick
	case strings.HasPrefix(parts[0], opPage+"_"):
		op = opPage
	default:
		return choiceToken{}, false
	}

	kind := strings.TrimPrefix(parts[0], op+"_")

	chatID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return choiceToken{}, false
	}

	userID, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return choiceToken{}, false
	}

	return choiceToken{
		Op:       op,
		Kind:     database.ChoiceKind(kind),
		ChatID:   chatID,
		UserID:   userID,
		RawValue: parts[3],
	}, true
}

// maxChoicePage returns the last valid zero-based page for total options.
func maxChoicePage(total int) int {
	if total <= 0 {
		return 0
	}

	return (total - 1) / choicePageSize
}

func clampChoicePage(page, total int) int {
	if page < 0 {
		return 0
	}

	if last := maxChoicePage(total); page > last {
		return last
	}

	return page
}

// buildChoiceKeyboard renders one page of options as an inline keyboard.
// Option buttons carry pick tokens with the absolute option index; the
// navigation row carries page tokens with the target page number.
func buildChoiceKeyboard(kind database.ChoiceKind, chatID, userID int64, options []string, page int, prevLabel, nextLabel string) *models.InlineKeyboardMarkup {
	page = clampChoicePage(page, len(options))
	start := page * choicePageSize

	end := start + choicePageSize
	if end > len(options) {
		end = len(options)
	}

	var rows [][]models.InlineKeyboardButton

	var row []models.InlineKeyboardButton

	for i := start; i < end; i++ {
		row = append(row, models.InlineKeyboardButton{
			Text:         truncateChoiceLabel(options[i]),
			CallbackData: encodeChoiceToken(opPick, kind, chatID, userID, i),
		})

		if len(row) == choiceButtonsPerRow {
			rows = append(rows, row)
			row = nil
		}
	}

	if len(row) > 0 {
		rows = append(rows, row)
	}

	var nav []models.InlineKeyboardButton

	if page > 0 {
		nav = append(nav, models.InlineKeyboardButton{
			Text:         prevLabel,
			CallbackData: encodeChoiceToken(opPage, kind, chatID, userID, page-1),
		})
	}

	if end < len(options) {
		nav = append(nav, models.InlineKeyboardButton{
			Text:         nextLabel,
			CallbackData: encodeChoiceToken(opPage, kind, chatID, userID, page+1),
		})
	}

	if len(nav) > 0 {
		rows = append(rows, nav)
	}

	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func truncateChoiceLabel(label string) string {
	runes := []rune(label)
	if len(runes) <= choiceLabelMaxRunes {
		return label
	}

	return string(runes[:choiceLabelMaxRunes-3]) + "…"
}

// resolveChoiceIndex maps a pick token's raw index onto the cached option
// list. Non-numeric and out-of-range indexes report false.
func resolveChoiceIndex(raw string, options []string) (string, bool) {
	index, err := strconv.Atoi(raw)
	if err != nil || index < 0 || index >= len(options) {
		return "", false
	}

	return options[index], true
}

// matchChoice resolves free text against the cached options, ignoring case.
// An empty cache accepts any non-empty input verbatim so typed values still
// work when the option list could not be fetched.
func matchChoice(input string, options []string) (string, bool) {
	if len(options) == 0 {
		return input, true
	}

	for _, option := range options {
		if strings.EqualFold(input, option) {
			return option, true
		}
	}

	return "", false
}

// choicePromptText appends the page indicator to a selection prompt.
func choicePromptText(prompt, pageFmt string, page, total int) string {
	return prompt + "\n" + fmt.Sprintf(pageFmt, page+1, maxChoicePage(total)+1, total)
}
