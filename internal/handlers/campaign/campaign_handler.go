// internal/handlers/campaign/campaign_handler.go
package campaign

import (
	"context"
	"net/http"

	"fashionsphere-service/internal/domain/campaign"
	"fashionsphere-service/internal/domain/report"
	"fashionsphere-service/internal/pkg/response"
	service "fashionsphere-service/internal/service/campaign"

	"github.com/gin-gonic/gin"
)

// Reconciliation is the guarded entry point into discount reconciliation.
type Reconciliation interface {
	RunNow(ctx context.Context) (*report.Reconciliation, error)
	LastReport(ctx context.Context) (*report.Reconciliation, error)
}

type CampaignHandler struct {
	campaignService *service.CampaignService
	reconciliation  Reconciliation
}

func NewCampaignHandler(campaignService *service.CampaignService, reconciliation Reconciliation) *CampaignHandler {
	return &CampaignHandler{
		campaignService: campaignService,
		reconciliation:  reconciliation,
	}
}

// ========== Public Endpoints ==========

// GetActiveSale returns the sale currently applied to the catalog
func (h *CampaignHandler) GetActiveSale(c *gin.Context) {
	sale, err := h.campaignService.GetActiveSale(c.Request.Context())
	if err != nil {
		response.FromError(c, "no active sale", err)
		return
	}
	response.Success(c, http.StatusOK, "active sale retrieved", sale)
}

// ========== Admin Only Endpoints ==========

func (h *CampaignHandler) ListCampaigns(c *gin.Context) {
	result, err := h.campaignService.ListCampaigns(c.Request.Context())
	if err != nil {
		response.FromError(c, "failed to list sales", err)
		return
	}
	response.Success(c, http.StatusOK, "sales retrieved", result)
}

func (h *CampaignHandler) GetCampaign(c *gin.Context) {
	result, err := h.campaignService.GetCampaign(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, "sale not found", err)
		return
	}
	response.Success(c, http.StatusOK, "sale retrieved", result)
}

func (h *CampaignHandler) CreateCampaign(c *gin.Context) {
	var req campaign.CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	result, err := h.campaignService.CreateCampaign(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, "failed to create sale", err)
		return
	}
	response.Success(c, http.StatusCreated, "sale created successfully", result)
}

func (h *CampaignHandler) UpdateCampaign(c *gin.Context) {
	var req campaign.UpdateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	result, err := h.campaignService.UpdateCampaign(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		response.FromError(c, "failed to update sale", err)
		return
	}
	response.Success(c, http.StatusOK, "sale updated successfully", result)
}

func (h *CampaignHandler) DeleteCampaign(c *gin.Context) {
	if err := h.campaignService.DeleteCampaign(c.Request.Context(), c.Param("id")); err != nil {
		response.FromError(c, "failed to delete sale", err)
		return
	}
	response.Success(c, http.StatusOK, "sale deleted successfully", nil)
}

// ========== Reconciliation ==========

// Reconcile runs a reconciliation now and returns its report. A dropped client does
// not cut the run short.
func (h *CampaignHandler) Reconcile(c *gin.Context) {
	rep, err := h.reconciliation.RunNow(context.WithoutCancel(c.Request.Context()))
	if err != nil {
		if rep != nil {
			response.Error(c, response.StatusFor(err), "reconciliation failed", err, rep)
			return
		}
		response.FromError(c, "reconciliation not started", err)
		return
	}
	response.Success(c, http.StatusOK, "reconciliation completed", rep)
}

func (h *CampaignHandler) LastReconciliation(c *gin.Context) {
	rep, err := h.reconciliation.LastReport(c.Request.Context())
	if err != nil {
		response.FromError(c, "no reconciliation report", err)
		return
	}
	response.Success(c, http.StatusOK, "last reconciliation", rep)
}
