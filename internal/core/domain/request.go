package domain

import "time"

// ActionType enumerates the kinds of access change a request can carry.
type ActionType string

const (
	ActionAdd    ActionType = "add"
	ActionRemove ActionType = "remove"
	ActionModify ActionType = "modify"
)

// ValidActionType reports whether the value is one of the fixed action set.
func ValidActionType(action ActionType) bool {
	switch action {
	case ActionAdd, ActionRemove, ActionModify:
		return true
	}
	return false
}

// Applicant describes the requesting employee. Resolved once from the
// directory, or from the local environment when the directory is
// unreachable; immutable after the initial load.
type Applicant struct {
	FullName  string
	TabNumber string
	Position  string
	Phone     string
	Account   string
}

// ActionIntent captures what the applicant wants done and why.
type ActionIntent struct {
	Action         ActionType
	Reason         string
	IsTemporary    bool
	TemporaryUntil *time.Time
}

// RequestLine pairs a catalog resource with the requester's current and
// requested access. Granted is ground truth from the last directory fetch
// and is never mutated after reconciliation; only Requested carries user
// intent.
type RequestLine struct {
	Resource  DirectoryResource
	Granted   bool
	Requested bool
}

// AccessRequest is the submission unit: applicant, intent, and the selected
// resource lines in selection order. Constructed at submission time.
type AccessRequest struct {
	ID          string
	Applicant   Applicant
	Intent      ActionIntent
	Lines       []RequestLine
	Workstation *DirectoryResource
	Recipients  []string
	Subject     string
	Body        string
	SubmittedAt time.Time
}

// ResourceNames returns the selected resource names in selection order.
func (r AccessRequest) ResourceNames() []string {
	names := make([]string, 0, len(r.Lines))
	for _, line := range r.Lines {
		names = append(names, line.Resource.Name)
	}
	return names
}

// Draft is a saved, not yet submitted request form.
type Draft struct {
	ID            string
	Account       string
	Intent        ActionIntent
	ResourceNames []string
	SavedAt       time.Time
}

// SubmissionState enumerates the submitter state machine.
type SubmissionState string

const (
	StateIdle           SubmissionState = "idle"
	StateComposing      SubmissionState = "composing"
	StateAwaitingOwners SubmissionState = "awaiting_owner_resolution"
	StateReady          SubmissionState = "ready"
	StateDispatched     SubmissionState = "dispatched"
	StateFailed         SubmissionState = "failed"
)
