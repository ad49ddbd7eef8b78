package note

import (
	"net/http"
	"strconv"

	"team-workspace-server/internal/errors"
	"team-workspace-server/internal/utils"

	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for notes
type Handler struct {
	service Service
}

// NewHandler creates a new note handler
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// FormCreateNote represents note creation form data
type FormCreateNote struct {
	Title string `json:"title" binding:"required"`
}

// Create handles note creation for the caller's company
func (h *Handler) Create(c *gin.Context) {
	var form FormCreateNote
	if err := c.ShouldBindJSON(&form); err != nil {
		errors.HandleError(c, errors.BadRequest("Invalid input", err))
		return
	}

	userID := c.GetUint64("user_id")
	companyCode := c.GetString("company_code")

	note, err := h.service.CreateNote(c.Request.Context(), companyCode, form.Title, userID)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"note": note})
}

// ShowCompanyNotes lists the caller's company notes, paginated
func (h *Handler) ShowCompanyNotes(c *gin.Context) {
	page, pageSize := utils.GetPaginationParams(c)
	companyCode := c.GetString("company_code")

	result, err := h.service.GetCompanyNotes(c.Request.Context(), companyCode, page, pageSize)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ShowNoteLines returns a note with its full line set for page rendering
func (h *Handler) ShowNoteLines(c *gin.Context) {
	noteID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		errors.HandleError(c, errors.BadRequest("Invalid note id", err))
		return
	}

	result, err := h.service.GetNoteLines(c.Request.Context(), noteID)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
