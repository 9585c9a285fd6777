package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/practiceaogoznak-del/C-ADDevProgramm/internal/core/domain"
)

// ErrorResponse represents a generic error payload with trace ID for debugging.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with trace ID from context
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	traceID, _ := c.Get("trace_id")
	traceIDStr, _ := traceID.(string)

	return ErrorResponse{
		Error:   errorMsg,
		TraceID: traceIDStr,
	}
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// ResourceSummary describes a catalog entry returned by the API.
type ResourceSummary struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name,omitempty"`
	Description string `json:"description,omitempty"`
}

// RequestLineView pairs a catalog resource with its reconciled state.
type RequestLineView struct {
	Resource  ResourceSummary `json:"resource"`
	Granted   bool            `json:"granted"`
	Requested bool            `json:"requested"`
}

// ApplicantView describes the requester header shown on the form.
type ApplicantView struct {
	FullName  string `json:"full_name"`
	TabNumber string `json:"tab_number,omitempty"`
	Position  string `json:"position,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Account   string `json:"account"`
}

// CatalogResponse lists catalog resources with session metadata.
type CatalogResponse struct {
	Applicant ApplicantView     `json:"applicant"`
	Resources []ResourceSummary `json:"resources"`
	Degraded  bool              `json:"degraded"`
	LoadedAt  time.Time         `json:"loaded_at"`
}

// WorkstationsResponse lists workstations with the local match preselected.
type WorkstationsResponse struct {
	Workstations []ResourceSummary `json:"workstations"`
	Preselected  string            `json:"preselected,omitempty"`
	Degraded     bool              `json:"degraded"`
}

// LinesResponse carries the reconciled request lines for the account.
type LinesResponse struct {
	Applicant ApplicantView     `json:"applicant"`
	Lines     []RequestLineView `json:"lines"`
	Degraded  bool              `json:"degraded"`
}

// SubmitRequestPayload defines the submission payload.
type SubmitRequestPayload struct {
	Action         string     `json:"action" binding:"required"`
	Reason         string     `json:"reason"`
	IsTemporary    bool       `json:"is_temporary"`
	TemporaryUntil *time.Time `json:"temporary_until"`
	ResourceNames  []string   `json:"resource_names" binding:"required"`
	Workstation    string     `json:"workstation"`
}

// DraftPayload defines the draft payload. All fields are optional; a
// draft captures the form as-is.
type DraftPayload struct {
	Action         string     `json:"action"`
	Reason         string     `json:"reason"`
	IsTemporary    bool       `json:"is_temporary"`
	TemporaryUntil *time.Time `json:"temporary_until"`
	ResourceNames  []string   `json:"resource_names"`
}

// SubmitResponse reports the submission outcome.
type SubmitResponse struct {
	RequestID   string    `json:"request_id"`
	State       string    `json:"state"`
	Recipients  int       `json:"recipients"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// DraftResponse describes a saved draft.
type DraftResponse struct {
	ID             string     `json:"id"`
	Action         string     `json:"action"`
	Reason         string     `json:"reason,omitempty"`
	IsTemporary    bool       `json:"is_temporary"`
	TemporaryUntil *time.Time `json:"temporary_until,omitempty"`
	ResourceNames  []string   `json:"resource_names"`
	SavedAt        time.Time  `json:"saved_at"`
}

// RequestSummary is one entry of the submission history.
type RequestSummary struct {
	ID            string    `json:"id"`
	Action        string    `json:"action"`
	ResourceNames []string  `json:"resource_names"`
	Recipients    []string  `json:"recipients"`
	Workstation   string    `json:"workstation,omitempty"`
	SubmittedAt   time.Time `json:"submitted_at"`
}

// HistoryResponse lists dispatched requests, newest first.
type HistoryResponse struct {
	Requests []RequestSummary `json:"requests"`
}

// HealthResponse describes the service health payload.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
	Timestamp time.Time `json:"timestamp"`
}

// ReadyResponse describes readiness probe results with dependency checks.
type ReadyResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

func toResourceSummary(resource domain.DirectoryResource) ResourceSummary {
	return ResourceSummary{
		Name:        resource.Name,
		DisplayName: resource.DisplayName,
		Description: resource.Description,
	}
}

func toResourceSummaries(resources []domain.DirectoryResource) []ResourceSummary {
	summaries := make([]ResourceSummary, 0, len(resources))
	for _, resource := range resources {
		summaries = append(summaries, toResourceSummary(resource))
	}
	return summaries
}

func toApplicantView(applicant domain.Applicant) ApplicantView {
	return ApplicantView{
		FullName:  applicant.FullName,
		TabNumber: applicant.TabNumber,
		Position:  applicant.Position,
		Phone:     applicant.Phone,
		Account:   applicant.Account,
	}
}

func toLineViews(lines []domain.RequestLine) []RequestLineView {
	views := make([]RequestLineView, 0, len(lines))
	for _, line := range lines {
		views = append(views, RequestLineView{
			Resource:  toResourceSummary(line.Resource),
			Granted:   line.Granted,
			Requested: line.Requested,
		})
	}
	return views
}

func toRequestSummary(request domain.AccessRequest) RequestSummary {
	summary := RequestSummary{
		ID:            request.ID,
		Action:        string(request.Intent.Action),
		ResourceNames: request.ResourceNames(),
		Recipients:    request.Recipients,
		SubmittedAt:   request.SubmittedAt,
	}
	if request.Workstation != nil {
		summary.Workstation = request.Workstation.Name
	}
	return summary
}
