package tenant

import (
	"net/http"

	"team-workspace-server/internal/errors"

	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for companies
type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// FormProvision represents company registration form data
type FormProvision struct {
	Name string `json:"name" binding:"required"`
	Code string `json:"code" binding:"required,alphanum,min=3,max=16"`
}

// Provision registers a new company
func (h *Handler) Provision(c *gin.Context) {
	var form FormProvision
	if err := c.ShouldBindJSON(&form); err != nil {
		errors.HandleError(c, errors.BadRequest("Invalid input", err))
		return
	}

	company, err := h.service.Provision(c.Request.Context(), form.Name, form.Code)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"company": company})
}

// Show returns the caller's company
func (h *Handler) Show(c *gin.Context) {
	company, err := h.service.GetByCode(c.Request.Context(), c.GetString("company_code"))
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"company": company})
}
