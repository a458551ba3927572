// internal/handlers/demande.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/footfed/licences-backend/internal/i18n"
	"github.com/footfed/licences-backend/internal/models"
	"github.com/footfed/licences-backend/internal/services"
	"github.com/footfed/licences-backend/internal/utils"
	"github.com/footfed/licences-backend/internal/workflow"
)

type DemandeHandler struct {
	demandeService  *services.DemandeService
	workflowService *services.WorkflowService
	storageService  *services.StorageService
}

type transitionRequest struct {
	Comment string `json:"comment,omitempty"`
}

type changeStatusRequest struct {
	TargetStatusCode int    `json:"target_status_code" binding:"required"`
	Comment          string `json:"comment,omitempty"`
}

func NewDemandeHandler(demandeService *services.DemandeService, workflowService *services.WorkflowService, storageService *services.StorageService) *DemandeHandler {
	return &DemandeHandler{
		demandeService:  demandeService,
		workflowService: workflowService,
		storageService:  storageService,
	}
}

// POST /demandes
func (h *DemandeHandler) CreateDemande(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	submitterID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.CreateDemandeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	demande, err := h.demandeService.CreateDemande(submitterID, &req)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyDemandeCreated),
		"demande": demande,
	})
}

// GET /demandes
func (h *DemandeHandler) GetDemandes(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	searchParams := services.DemandeSearchParams{
		PaginationParams: params,
	}

	if clubIDStr := c.Query("club_id"); clubIDStr != "" {
		if clubID, err := uuid.Parse(clubIDStr); err == nil {
			searchParams.ClubID = &clubID
		}
	}

	if season := c.Query("season"); season != "" {
		searchParams.Season = &season
	}

	if statut := c.Query("statut"); statut != "" {
		if code, ok := statusCodeFromQuery(statut); ok {
			searchParams.StatutCode = &code
		}
	}

	if demandeType := c.Query("type"); demandeType != "" {
		dType := models.DemandeType(demandeType)
		searchParams.Type = &dType
	}

	demandes, total, err := h.demandeService.SearchDemandes(searchParams)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(demandes, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /demandes/:id
func (h *DemandeHandler) GetDemande(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	demande, err := h.demandeService.GetDemande(id)
	if err != nil {
		h.respondWorkflowError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"demande": demande,
	})
}

// PUT /demandes/:id
func (h *DemandeHandler) UpdateDemande(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req services.UpdateDemandeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	demande, err := h.demandeService.UpdateDemande(id, &req)
	if err != nil {
		if errors.Is(err, workflow.ErrDemandeNotFound) {
			utils.NotFoundResponse(c, "demande")
			return
		}
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyDemandeUpdated),
		"demande": demande,
	})
}

// DELETE /demandes/:id
func (h *DemandeHandler) DeleteDemande(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.demandeService.DeleteDemande(id); err != nil {
		if errors.Is(err, workflow.ErrDemandeNotFound) {
			utils.NotFoundResponse(c, "demande")
			return
		}
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyDemandeDeleted),
	})
}

// PUT /demandes/:id/status
func (h *DemandeHandler) ChangeStatus(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	actorID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req changeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	demande, err := h.workflowService.ChangeStatus(id, req.TargetStatusCode, actorID, req.Comment)
	if err != nil {
		h.respondWorkflowError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyWorkflowStatusChanged),
		"demande": demande,
	})
}

// PUT /demandes/:id/validate
func (h *DemandeHandler) ValidateDemande(c *gin.Context) {
	h.runTransition(c, i18n.KeyWorkflowValidated, h.workflowService.Validate)
}

// PUT /demandes/:id/reject
func (h *DemandeHandler) RejectDemande(c *gin.Context) {
	h.runTransition(c, i18n.KeyWorkflowRejected, h.workflowService.Reject)
}

// PUT /demandes/:id/print
func (h *DemandeHandler) MarkPrinted(c *gin.Context) {
	h.runTransition(c, i18n.KeyWorkflowPrinted, h.workflowService.MarkPrinted)
}

func (h *DemandeHandler) runTransition(c *gin.Context, messageKey string, op func(uuid.UUID, uuid.UUID, string) (*models.Demande, error)) {
	lang := utils.GetLangFromContext(c)
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	actorID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	demande, err := op(id, actorID, req.Comment)
	if err != nil {
		h.respondWorkflowError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, messageKey),
		"demande": demande,
	})
}

// GET /demandes/:id/transitions
func (h *DemandeHandler) GetAvailableTransitions(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	transitions, err := h.workflowService.GetAvailableTransitions(id)
	if err != nil {
		h.respondWorkflowError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"transitions": transitions,
	})
}

// GET /demandes/:id/history
func (h *DemandeHandler) GetStatusHistory(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	history, err := h.workflowService.GetStatusHistory(id)
	if err != nil {
		h.respondWorkflowError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"history": history,
	})
}

// POST /demandes/:id/attachments
func (h *DemandeHandler) UploadAttachment(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	uploaderID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyFileUploadFailed), err.Error())
		return
	}
	defer file.Close()

	result, err := h.storageService.UploadFile(file, header, services.UploadOptions{
		Folder:  "pieces",
		MaxSize: 10 * 1024 * 1024,
		AllowedTypes: []string{
			"image/jpeg", "image/png", "application/pdf",
		},
	})
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyFileUploadFailed), err.Error())
		return
	}

	attachment, err := h.demandeService.AddAttachment(id, uploaderID, result, header.Filename)
	if err != nil {
		h.respondWorkflowError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":    i18n.T(lang, i18n.KeyFileUploadSuccess),
		"attachment": attachment,
	})
}

// respondWorkflowError maps the workflow error taxonomy onto HTTP statuses:
// unknown demande -> 404, unknown target status -> 400, corrupt stored status
// -> 500, forbidden transition -> 422, concurrent update -> 409.
func (h *DemandeHandler) respondWorkflowError(c *gin.Context, err error) {
	lang := utils.GetLangFromContext(c)

	var illegal *workflow.IllegalTransitionError
	switch {
	case errors.Is(err, workflow.ErrDemandeNotFound):
		utils.NotFoundResponse(c, "demande")
	case errors.Is(err, workflow.ErrUnknownStatus):
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyWorkflowUnknownStatus), err.Error())
	case errors.Is(err, workflow.ErrCorruptStatus):
		utils.ErrorResponse(c, 500, "INVALID_STATE", i18n.T(lang, i18n.KeyWorkflowCorruptStatus), err.Error())
	case errors.Is(err, workflow.ErrConcurrentUpdate):
		utils.ConflictResponse(c, i18n.T(lang, i18n.KeyWorkflowConflict))
	case errors.As(err, &illegal):
		utils.UnprocessableResponse(c, "ILLEGAL_TRANSITION", err.Error())
	default:
		utils.InternalErrorResponse(c, err.Error())
	}
}

func parseIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid demande ID", nil)
		return uuid.Nil, false
	}
	return id, true
}

func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	userIDStr, exists := utils.GetUserIDFromContext(c)
	if !exists {
		return uuid.Nil, false
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return uuid.Nil, false
	}

	return userID, true
}

func statusCodeFromQuery(value string) (int, bool) {
	for _, s := range workflow.AllStatuses() {
		if s.Name == value {
			return s.Code, true
		}
	}
	return 0, false
}
