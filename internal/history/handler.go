package history

import (
	"net/http"

	"team-workspace-server/internal/errors"
	"team-workspace-server/internal/utils"

	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for the audit history
type Handler struct {
	repository OperationRepository
}

func NewHandler(repository OperationRepository) *Handler {
	return &Handler{repository: repository}
}

// List returns the caller's company audit trail, newest first
func (h *Handler) List(c *gin.Context) {
	page, pageSize := utils.GetPaginationParams(c)
	companyCode := c.GetString("company_code")

	ops, total, err := h.repository.ListByCompany(c.Request.Context(), companyCode, page, pageSize)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": ops,
		"meta": gin.H{
			"total":        total,
			"current_page": page,
			"per_page":     pageSize,
		},
	})
}
