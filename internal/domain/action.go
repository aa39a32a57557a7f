package domain

// Action is a quota-gated operation. The set is closed: entitlement checks
// reject values outside it with ErrInvalidAction instead of silently allowing
// them.
type Action string

const (
	ActionCreateIntern           Action = "create_intern"
	ActionCreateCase             Action = "create_case"
	ActionUploadResource         Action = "upload_resource"
	ActionScheduleSession        Action = "schedule_session"
	ActionCreateCustomCompetency Action = "create_custom_competency"
	ActionExportReport           Action = "export_report"
	ActionUseAI                  Action = "use_ai"
)

// Valid reports whether a is one of the known gated actions.
func (a Action) Valid() bool {
	switch a {
	case ActionCreateIntern, ActionCreateCase, ActionUploadResource,
		ActionScheduleSession, ActionCreateCustomCompetency,
		ActionExportReport, ActionUseAI:
		return true
	}
	return false
}

// ActionContext carries the per-action payload an entitlement check needs.
// Only ActionUploadResource reads FileSize today.
type ActionContext struct {
	FileSize int64
}
