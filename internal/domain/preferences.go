package domain

// PreferenceCategory is the key a delivery decision is made on. It is
// coarser than NotificationType: mentions and comments share a
// notification type but have separate preferences.
type PreferenceCategory string

// Preference categories.
const (
	CategoryAssignment    PreferenceCategory = "assignment"
	CategoryStatusChange  PreferenceCategory = "status_change"
	CategoryComment       PreferenceCategory = "comment"
	CategoryDueDate       PreferenceCategory = "due_date"
	CategoryMention       PreferenceCategory = "mention"
	CategoryProjectInvite PreferenceCategory = "project_invite"
)

// NotificationPreferences holds the per-user email switches. A nil field
// means the user never chose, and the category default applies.
type NotificationPreferences struct {
	EmailTaskAssigned   *bool `json:"email_task_assigned,omitempty"`
	EmailStatusChanges  *bool `json:"email_status_changes,omitempty"`
	EmailComments       *bool `json:"email_comments,omitempty"`
	EmailDueDates       *bool `json:"email_due_dates,omitempty"`
	EmailMentions       *bool `json:"email_mentions,omitempty"`
	EmailProjectInvites *bool `json:"email_project_invites,omitempty"`
}

// DefaultAllows reports the delivery default for a category. Status changes
// are noisy and opt-in; everything else is opt-out. Unknown categories are
// denied.
func DefaultAllows(category PreferenceCategory) bool {
	switch category {
	case CategoryAssignment, CategoryComment, CategoryDueDate,
		CategoryMention, CategoryProjectInvite:
		return true
	default:
		return false
	}
}

// Allows resolves the effective email preference for category.
func (p NotificationPreferences) Allows(category PreferenceCategory) bool {
	var field *bool
	switch category {
	case CategoryAssignment:
		field = p.EmailTaskAssigned
	case CategoryStatusChange:
		field = p.EmailStatusChanges
	case CategoryComment:
		field = p.EmailComments
	case CategoryDueDate:
		field = p.EmailDueDates
	case CategoryMention:
		field = p.EmailMentions
	case CategoryProjectInvite:
		field = p.EmailProjectInvites
	default:
		return false
	}

	if field == nil {
		return DefaultAllows(category)
	}
	return *field
}

// Bool returns a pointer to v, for building preferences literals.
func Bool(v bool) *bool {
	return &v
}
