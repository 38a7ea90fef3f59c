package handlers

import (
	tgbot "github.com/go-telegram/bot"
)

// RegisteredHandler describes a single handler registration for the bot.
type RegisteredHandler struct {
	HandlerType tgbot.HandlerType
	Pattern     string
	Handler     tgbot.HandlerFunc
	Middleware  []tgbot.Middleware
	MatchType   tgbot.MatchType
}

// RegisterAllHandlers returns the complete list of command and callback
// handlers. Patterns omit the leading slash per the bot library convention.
func RegisterAllHandlers(deps HandlerDeps) []RegisteredHandler {
	adminMiddleware := AdminOnly(deps)

	assignHandler := NewAssignManagerHandler(deps)
	choiceHandler := NewChoiceCallbackHandler(deps)

	return []RegisteredHandler{
		{
			HandlerType: tgbot.HandlerTypeMessageText,
			Pattern:     "start",
			Handler:     NewStartHandler(deps),
			MatchType:   tgbot.MatchTypeCommandStartOnly,
		},
		{
			HandlerType: tgbot.HandlerTypeMessageText,
			Pattern:     "help",
			Handler:     NewHelpHandler(deps),
			MatchType:   tgbot.MatchTypeCommandStartOnly,
		},
		{
			HandlerType: tgbot.HandlerTypeMessageText,
			Pattern:     "assign_manager",
			Handler:     assignHandler,
			MatchType:   tgbot.MatchTypeCommandStartOnly,
		},
		{
			// Long-form alias kept for operators used to the full name.
			HandlerType: tgbot.HandlerTypeMessageText,
			Pattern:     "assign_sales_manager",
			Handler:     assignHandler,
			MatchType:   tgbot.MatchTypeCommandStartOnly,
		},
		{
			HandlerType: tgbot.HandlerTypeMessageText,
			Pattern:     "status",
			Handler:     NewStatusHandler(deps),
			MatchType:   tgbot.MatchTypeCommandStartOnly,
		},
		{
			HandlerType: tgbot.HandlerTypeMessageText,
			Pattern:     "report",
			Handler:     NewReportHandler(deps),
			MatchType:   tgbot.MatchTypeCommandStartOnly,
		},
		{
			HandlerType: tgbot.HandlerTypeMessageText,
			Pattern:     "new",
			Handler:     NewItemCommandHandler(deps),
			MatchType:   tgbot.MatchTypeCommandStartOnly,
		},
		{
			HandlerType: tgbot.HandlerTypeMessageText,
			Pattern:     "reset_api",
			Handler:     NewResetAPIHandler(deps),
			MatchType:   tgbot.MatchTypeCommandStartOnly,
		},
		{
			HandlerType: tgbot.HandlerTypeMessageText,
			Pattern:     "clear",
			Handler:     NewClearHandler(deps),
			Middleware:  []tgbot.Middleware{adminMiddleware},
			MatchType:   tgbot.MatchTypeCommandStartOnly,
		},
		{
			HandlerType: tgbot.HandlerTypeCallbackQueryData,
			Pattern:     assignCallbackPrefix,
			Handler:     NewAssignCallbackHandler(deps),
			MatchType:   tgbot.MatchTypePrefix,
		},
		{
			HandlerType: tgbot.HandlerTypeCallbackQueryData,
			Pattern:     opPick + "_",
			Handler:     choiceHandler,
			MatchType:   tgbot.MatchTypePrefix,
		},
		{
			HandlerType: tgbot.HandlerTypeCallbackQueryData,
			Pattern:     opPage + "_",
			Handler:     choiceHandler,
			MatchType:   tgbot.MatchTypePrefix,
		},
	}
}
