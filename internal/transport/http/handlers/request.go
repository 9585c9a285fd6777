package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/practiceaogoznak-del/C-ADDevProgramm/internal/core/domain"
	"github.com/practiceaogoznak-del/C-ADDevProgramm/internal/repository"
	"github.com/practiceaogoznak-del/C-ADDevProgramm/internal/usecase"
)

// RequestHandler serves request submission, drafts, and history.
type RequestHandler struct {
	submit *usecase.SubmitService
}

// NewRequestHandler builds a request handler.
func NewRequestHandler(submit *usecase.SubmitService) *RequestHandler {
	return &RequestHandler{submit: submit}
}

// RegisterRoutes attaches request endpoints to the provided router group.
// submitMiddlewares apply to the submit endpoint only.
func (h *RequestHandler) RegisterRoutes(group *gin.RouterGroup, submitMiddlewares ...gin.HandlerFunc) {
	submitHandlers := append([]gin.HandlerFunc{}, submitMiddlewares...)
	submitHandlers = append(submitHandlers, h.Submit)
	group.POST("", submitHandlers...)

	group.GET("", h.History)
	group.POST("/draft", h.SaveDraft)
}

var submitErrorCases = []ErrorCase{
	{Err: usecase.ErrNoResourcesSelected, Status: http.StatusUnprocessableEntity, Message: "no resources selected"},
	{Err: usecase.ErrNoResolvableOwners, Status: http.StatusUnprocessableEntity, Message: "no owner could be resolved for the selected resources"},
	{Err: usecase.ErrInvalidIntent, Status: http.StatusBadRequest, Message: "invalid action intent"},
	{Err: usecase.ErrDispatchFailed, Status: http.StatusBadGateway, Message: "notification dispatch failed, submission can be retried"},
	{Err: usecase.ErrDirectoryUnavailable, Status: http.StatusServiceUnavailable, Message: "directory unavailable"},
}

// Submit godoc
// @Summary Submit an access request
// @Description Reconciles the requested changes, resolves resource owners, and dispatches one notification to the distinct owners.
// @Tags Requests
// @Accept json
// @Produce json
// @Param request body SubmitRequestPayload true "Submission payload"
// @Success 201 {object} SubmitResponse
// @Failure 400 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Failure 429 {object} middleware.ProblemDetails
// @Failure 502 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /api/v1/requests [post]
// @Security BearerAuth
func (h *RequestHandler) Submit(c *gin.Context) {
	var payload SubmitRequestPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid request payload"))
		return
	}

	action := domain.ActionType(payload.Action)
	if !domain.ValidActionType(action) {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "unknown action"))
		return
	}

	input := usecase.SubmitInput{
		Account: accountFromContext(c),
		Intent: domain.ActionIntent{
			Action:         action,
			Reason:         payload.Reason,
			IsTemporary:    payload.IsTemporary,
			TemporaryUntil: payload.TemporaryUntil,
		},
		ResourceNames:   payload.ResourceNames,
		WorkstationName: payload.Workstation,
	}

	result, err := h.submit.Submit(c.Request.Context(), input)
	if err != nil {
		RespondWithMappedError(c, err, submitErrorCases, http.StatusInternalServerError, "submission failed")
		return
	}

	c.JSON(http.StatusCreated, SubmitResponse{
		RequestID:   result.Request.ID,
		State:       string(result.State),
		Recipients:  len(result.Request.Recipients),
		SubmittedAt: result.Request.SubmittedAt,
	})
}

// SaveDraft godoc
// @Summary Save a request draft
// @Description Stores the current form state for later editing. Unlike submission, a draft may be incomplete.
// @Tags Requests
// @Accept json
// @Produce json
// @Param draft body DraftPayload true "Draft payload"
// @Success 200 {object} DraftResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/requests/draft [post]
// @Security BearerAuth
func (h *RequestHandler) SaveDraft(c *gin.Context) {
	var payload DraftPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid request payload"))
		return
	}

	input := usecase.SubmitInput{
		Account: accountFromContext(c),
		Intent: domain.ActionIntent{
			Action:         domain.ActionType(payload.Action),
			Reason:         payload.Reason,
			IsTemporary:    payload.IsTemporary,
			TemporaryUntil: payload.TemporaryUntil,
		},
		ResourceNames: payload.ResourceNames,
	}

	draft, err := h.submit.SaveDraft(c.Request.Context(), input)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "save draft failed"))
		return
	}

	c.JSON(http.StatusOK, DraftResponse{
		ID:             draft.ID,
		Action:         string(draft.Intent.Action),
		Reason:         draft.Intent.Reason,
		IsTemporary:    draft.Intent.IsTemporary,
		TemporaryUntil: draft.Intent.TemporaryUntil,
		ResourceNames:  draft.ResourceNames,
		SavedAt:        draft.SavedAt,
	})
}

// History godoc
// @Summary List submitted requests
// @Description Lists the account's dispatched requests, newest first.
// @Tags Requests
// @Produce json
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} HistoryResponse
// @Router /api/v1/requests [get]
// @Security BearerAuth
func (h *RequestHandler) History(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	requests, err := h.submit.History(c.Request.Context(), accountFromContext(c), limit, offset)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusOK, HistoryResponse{Requests: []RequestSummary{}})
			return
		}
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "list requests failed"))
		return
	}

	summaries := make([]RequestSummary, 0, len(requests))
	for _, request := range requests {
		summaries = append(summaries, toRequestSummary(request))
	}

	c.JSON(http.StatusOK, HistoryResponse{Requests: summaries})
}
