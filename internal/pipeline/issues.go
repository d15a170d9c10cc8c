package pipeline

import "slices"

// Issue codes are what HTTP responses and staff pages show for a unit that
// needs attention. The full error text goes to the log and the alert only.
const (
	IssueSerialNotIssued       = "serial_not_issued"
	IssueCounterNotAdvanced    = "counter_not_advanced"
	IssueNoteNotUpdated        = "note_not_updated"
	IssueLineItemNotTagged     = "line_item_metafield_not_set"
	IssueSheetNotUpdated       = "tracking_sheet_not_updated"
	IssueArchiveNotWritten     = "tracking_archive_not_written"
	IssueCloningNotConfigured  = "cloning_not_configured"
	IssueCloneNotCreated       = "clone_not_created"
	IssueCloneIncomplete       = "clone_incomplete"
	IssueOrderEditFailed       = "order_edit_failed"
	IssueOrderEditUnverified   = "order_edit_unverified"
	IssueCloneNotArchived      = "orphan_clone_not_archived"
	IssueQuantityNotSerialised = "quantity_not_serialised"
)

func addIssue(issues []string, code string) []string {
	if slices.Contains(issues, code) {
		return issues
	}
	return append(issues, code)
}
