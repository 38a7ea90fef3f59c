package config

import "github.com/spf13/viper"

// MessagesConfig collects every user-facing string so deployments can reword
// or translate them without a rebuild. Fields ending in Fmt are format strings
// whose verbs are documented by their defaults.
type MessagesConfig struct {
	GeneralErrorMsg string `mapstructure:"general_error"`
	NotAuthorized   string `mapstructure:"not_authorized"`
	GroupOnlyMsg    string `mapstructure:"group_only"`
	Help            string `mapstructure:"help"`

	StartGroupMsg         string `mapstructure:"start_group"`
	StartUnassignedMsg    string `mapstructure:"start_unassigned"`
	StartPendingKeyFmt    string `mapstructure:"start_pending_key"`
	StartPendingSecretMsg string `mapstructure:"start_pending_secret"`
	StartActiveMsg        string `mapstructure:"start_active"`

	AssignAlreadyFmt      string `mapstructure:"assign_already"`
	AssignNoCandidatesMsg string `mapstructure:"assign_no_candidates"`
	AssignPromptMsg       string `mapstructure:"assign_prompt"`
	AssignAdminOnlyMsg    string `mapstructure:"assign_admin_only"`
	AssignBadTokenMsg     string `mapstructure:"assign_bad_token"`
	AssignWrongChatMsg    string `mapstructure:"assign_wrong_chat"`
	AssignUnknownUserMsg  string `mapstructure:"assign_unknown_user"`
	AssignNotMemberMsg    string `mapstructure:"assign_not_member"`
	AssignDMFmt           string `mapstructure:"assign_dm"`
	AssignDMSentMsg       string `mapstructure:"assign_dm_sent"`
	AssignDMFailedMsg     string `mapstructure:"assign_dm_failed"`
	AssignDoneFmt         string `mapstructure:"assign_done"`

	CredsNotAssignedMsg   string `mapstructure:"creds_not_assigned"`
	CredsBadKeyMsg        string `mapstructure:"creds_bad_key"`
	CredsKeySavedMsg      string `mapstructure:"creds_key_saved"`
	CredsBadSecretMsg     string `mapstructure:"creds_bad_secret"`
	CredsVerifiedMsg      string `mapstructure:"creds_verified"`
	CredsVerifyFailedFmt  string `mapstructure:"creds_verify_failed"`
	CredsGroupVerifiedFmt string `mapstructure:"creds_group_verified"`
	CredsGroupFailedFmt   string `mapstructure:"creds_group_failed"`
	CredsActiveMsg        string `mapstructure:"creds_active"`

	StatusNoManagerMsg  string `mapstructure:"status_no_manager"`
	StatusNotLinkedMsg  string `mapstructure:"status_not_linked"`
	StatusGroupFmt      string `mapstructure:"status_group"`
	StatusPrivateFmt    string `mapstructure:"status_private"`
	StatusNoCustomerMsg string `mapstructure:"status_no_customer"`
	ResetDoneMsg        string `mapstructure:"reset_done"`
	ResetGroupNoticeFmt string `mapstructure:"reset_group_notice"`
	ClearDoneMsg        string `mapstructure:"clear_done"`

	ReportNoAssignmentMsg string `mapstructure:"report_no_assignment"`
	ReportNotActiveMsg    string `mapstructure:"report_not_active"`
	ReportNoCredsMsg      string `mapstructure:"report_no_creds"`
	ReportFetchErrorMsg   string `mapstructure:"report_fetch_error"`
	ReportEmptyMsg        string `mapstructure:"report_empty"`
	ReportHeaderFmt       string `mapstructure:"report_header"`

	NewNotManagerMsg string `mapstructure:"new_not_manager"`
	NewNotActiveMsg  string `mapstructure:"new_not_active"`
	NewNoBaseURLMsg  string `mapstructure:"new_no_base_url"`
	NewStartMsg      string `mapstructure:"new_start"`

	FlowNoCredsMsg        string `mapstructure:"flow_no_creds"`
	FlowEmptyValueMsg     string `mapstructure:"flow_empty_value"`
	FlowAskNameMsg        string `mapstructure:"flow_ask_name"`
	FlowGroupPromptMsg    string `mapstructure:"flow_group_prompt"`
	FlowUnitPromptMsg     string `mapstructure:"flow_unit_prompt"`
	FlowBadGroupMsg       string `mapstructure:"flow_bad_group"`
	FlowBadUnitMsg        string `mapstructure:"flow_bad_unit"`
	FlowGroupsFetchErrMsg string `mapstructure:"flow_groups_fetch_error"`
	FlowUnitsFetchErrMsg  string `mapstructure:"flow_units_fetch_error"`
	FlowCreatedFmt        string `mapstructure:"flow_created"`
	FlowCreateErrorMsg    string `mapstructure:"flow_create_error"`
	FlowRestartMsg        string `mapstructure:"flow_restart"`
	FlowWrongChatMsg      string `mapstructure:"flow_wrong_chat"`

	ChoiceEmptyMsg        string `mapstructure:"choice_empty"`
	ChoicePageFmt         string `mapstructure:"choice_page"`
	ChoicePrevLabel       string `mapstructure:"choice_prev_label"`
	ChoiceNextLabel       string `mapstructure:"choice_next_label"`
	ChoiceNotYoursMsg     string `mapstructure:"choice_not_yours"`
	ChoiceNoAssignmentMsg string `mapstructure:"choice_no_assignment"`
	ChoiceNotActiveMsg    string `mapstructure:"choice_not_active"`
	ChoiceBadTokenMsg     string `mapstructure:"choice_bad_token"`
	ChoiceBadPageMsg      string `mapstructure:"choice_bad_page"`
	ChoiceBadKindMsg      string `mapstructure:"choice_bad_kind"`
	ChoiceGoneMsg         string `mapstructure:"choice_gone"`
	ChoicePickedFmt       string `mapstructure:"choice_picked"`
	ChoiceUnknownMsg      string `mapstructure:"choice_unknown"`
	ChoiceSearchHintFmt   string `mapstructure:"choice_search_hint"`
	InlineResultDescMsg   string `mapstructure:"inline_result_desc"`

	CustomerLinkedFmt string `mapstructure:"customer_linked"`
}

func setMessageDefaults(v *viper.Viper) {
	v.SetDefault("messages.general_error", "Something went wrong. Please try again later.")
	v.SetDefault("messages.not_authorized", "This command is restricted to administrators.")
	v.SetDefault("messages.group_only", "This command only works in group chats.")
	v.SetDefault("messages.help",
		"Main command:\n"+
			"/assign_manager - admins: pick a sales manager for this group.\n\n"+
			"Other commands:\n"+
			"/status - show the current group and manager state.\n"+
			"/new - managers: create a new item in ERPNext.\n"+
			"/report - show the latest ERPNext records.\n"+
			"/reset_api - managers: re-enter the API credentials.\n\n"+
			"Users who send /start to the bot in a private chat become assignable.")

	v.SetDefault("messages.start_group",
		"Hi! This bot assigns one sales manager per group.\nAdmin command: /assign_manager")
	v.SetDefault("messages.start_unassigned",
		"Hello!\n\nOnce an administrator assigns you as a sales manager, the bot will message you here.")
	v.SetDefault("messages.start_pending_key",
		"You are assigned as the sales manager of %q.\nPlease send the API key from your ERPNext profile (example: 3739e78cec4e139).")
	v.SetDefault("messages.start_pending_secret",
		"Your API key is saved. Now send the API secret from your ERPNext profile (example: 2a428d03deaceb8).")
	v.SetDefault("messages.start_active",
		"Your ERPNext API credentials are saved. Contact an administrator if they need to change.")

	v.SetDefault("messages.assign_already", "This group already has a sales manager: %s.")
	v.SetDefault("messages.assign_no_candidates",
		"Nobody has sent /start to the bot in a private chat yet. Ask the candidates to do that first.")
	v.SetDefault("messages.assign_prompt",
		"Pick the user to assign as sales manager.\nIf someone is missing, make sure they have sent /start to the bot.")
	v.SetDefault("messages.assign_admin_only", "Only an administrator can confirm the selection.")
	v.SetDefault("messages.assign_bad_token", "Malformed selection data.")
	v.SetDefault("messages.assign_wrong_chat", "This selection belongs to a different group.")
	v.SetDefault("messages.assign_unknown_user", "This user has never talked to the bot.")
	v.SetDefault("messages.assign_not_member", "The user is not a member of this group or could not be checked.")
	v.SetDefault("messages.assign_dm",
		"Congratulations!\n\nYou are now the sales manager of %q.\nKeep an eye on requests arriving through this bot.\n\nSend the API key from your ERPNext profile to this chat (example: 3739e78cec4e139).\nOnce the key is saved the bot will ask for the API secret.")
	v.SetDefault("messages.assign_dm_sent", "A private notification was sent.")
	v.SetDefault("messages.assign_dm_failed",
		"Could not message the user privately. Remind them to send /start to the bot.")
	v.SetDefault("messages.assign_done", "%s is now the sales manager.\n%s")

	v.SetDefault("messages.creds_not_assigned", "You are not assigned as a sales manager.")
	v.SetDefault("messages.creds_bad_key", "That does not look like an API key. Example: 3739e78cec4e139")
	v.SetDefault("messages.creds_key_saved", "API key saved. Now send the API secret.")
	v.SetDefault("messages.creds_bad_secret",
		"That does not look like an API secret. Example: 2a428d03deaceb8 (15-16 hex characters)")
	v.SetDefault("messages.creds_verified", "API credentials saved.\nConnected to ERPNext successfully.")
	v.SetDefault("messages.creds_verify_failed",
		"API secret saved, but connecting to ERPNext failed. Please double-check the values.%s")
	v.SetDefault("messages.creds_group_verified", "%s entered their ERPNext API credentials.")
	v.SetDefault("messages.creds_group_failed",
		"%s submitted API credentials, but the ERPNext connection failed.")
	v.SetDefault("messages.creds_active",
		"Your API credentials are already saved. Start a new item with /new in your group.")

	v.SetDefault("messages.status_no_manager", "No sales manager is assigned yet.")
	v.SetDefault("messages.status_not_linked", "You are not linked to any group yet.")
	v.SetDefault("messages.status_group", "Group: %s\nSales manager: %s\nAPI status: %s\nCustomer: %s")
	v.SetDefault("messages.status_private", "Group: %s\nAPI status: %s\nCustomer: %s")
	v.SetDefault("messages.status_no_customer", "not created yet")
	v.SetDefault("messages.reset_done", "API credentials were reset. Please send the new API key.")
	v.SetDefault("messages.reset_group_notice", "%s is updating their API credentials.")
	v.SetDefault("messages.clear_done", "All sales manager assignments and API credentials were removed.")

	v.SetDefault("messages.report_no_assignment", "This group has no sales manager yet.")
	v.SetDefault("messages.report_not_active",
		"The sales manager has not verified their ERPNext credentials yet.")
	v.SetDefault("messages.report_no_creds", "No API credentials are stored.")
	v.SetDefault("messages.report_fetch_error", "Fetching the ERPNext report failed.%s")
	v.SetDefault("messages.report_empty", "ERPNext returned no report rows.")
	v.SetDefault("messages.report_header", "ERPNext report (%s), latest %d records:")

	v.SetDefault("messages.new_not_manager", "Only the sales manager assigned to this group can use /new.")
	v.SetDefault("messages.new_not_active", "Verify your ERPNext API credentials first.")
	v.SetDefault("messages.new_no_base_url", "The ERPNext URL is not configured. Contact an administrator.")
	v.SetDefault("messages.new_start",
		"Starting a new item.\nStep 1: enter the item code (for example ITEM-001).\nAnswer every step in this group. Send /new again to restart.")

	v.SetDefault("messages.flow_no_creds", "API credentials are missing. Enter them again first.")
	v.SetDefault("messages.flow_empty_value", "Empty values are not accepted. Try again.")
	v.SetDefault("messages.flow_ask_name", "Step 2: enter the item name.")
	v.SetDefault("messages.flow_group_prompt",
		"Step 3: pick an item group (press a button or type the exact name).")
	v.SetDefault("messages.flow_unit_prompt",
		"Step 4: pick a unit of measure (press a button or type the exact name).")
	v.SetDefault("messages.flow_bad_group", "Unknown item group. Pick one from the list or type an exact name.")
	v.SetDefault("messages.flow_bad_unit",
		"Unknown unit of measure. Pick one from the list or type an exact name.")
	v.SetDefault("messages.flow_groups_fetch_error", "Fetching the item group list failed.%s")
	v.SetDefault("messages.flow_units_fetch_error", "Fetching the unit list failed.%s")
	v.SetDefault("messages.flow_created",
		"Item created in ERPNext.\n- Code: %s\n- Name: %s\n- Group: %s\n- Unit: %s")
	v.SetDefault("messages.flow_create_error", "Creating the item failed.%s")
	v.SetDefault("messages.flow_restart", "No item workflow in progress. Start over with /new.")
	v.SetDefault("messages.flow_wrong_chat",
		"This item draft was started in a different group. Send /new here to restart.")

	v.SetDefault("messages.choice_empty", "There is nothing to choose from.")
	v.SetDefault("messages.choice_page", "Page %d/%d. Total: %d.")
	v.SetDefault("messages.choice_prev_label", "< Prev")
	v.SetDefault("messages.choice_next_label", "Next >")
	v.SetDefault("messages.choice_not_yours", "These buttons are not meant for you.")
	v.SetDefault("messages.choice_no_assignment", "No assignment found for this group.")
	v.SetDefault("messages.choice_not_active", "Verify the API credentials first.")
	v.SetDefault("messages.choice_bad_token", "Malformed button data.")
	v.SetDefault("messages.choice_bad_page", "Bad page number.")
	v.SetDefault("messages.choice_bad_kind", "Unknown choice kind.")
	v.SetDefault("messages.choice_gone", "That option is no longer available.")
	v.SetDefault("messages.choice_picked", "%s selected.")
	v.SetDefault("messages.choice_unknown", "Unknown action.")
	v.SetDefault("messages.choice_search_hint",
		"Use the buttons above, or type @%s followed by a search term to find a unit.")
	v.SetDefault("messages.inline_result_desc", "Send this unit name to the group")

	v.SetDefault("messages.customer_linked", "Customer record linked: %s (%s).")
}
