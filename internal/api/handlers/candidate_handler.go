package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	pgrepo "github.com/yoockh/floorscreen/internal/repositories/postgres"
	"github.com/yoockh/floorscreen/internal/services"
)

// CandidateHandler serves the recruiter dashboard.
type CandidateHandler struct {
	svc services.CandidateService
}

func NewCandidateHandler(svc services.CandidateService) *CandidateHandler {
	return &CandidateHandler{svc: svc}
}

func (h *CandidateHandler) List(c *gin.Context) {
	page, err := h.svc.List(c.Request.Context(), pgrepo.CandidateFilter{
		Status:     c.Query("status"),
		Search:     c.Query("search"),
		Experience: c.Query("experience"),
		Skill:      c.Query("skill"),
		Location:   c.Query("location"),
		Page:       queryInt(c, "page", 1),
		Limit:      queryInt(c, "limit", 20),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *CandidateHandler) Get(c *gin.Context) {
	d, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *CandidateHandler) Create(c *gin.Context) {
	var req services.CandidateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "CandidateHandler.Create", "invalid request body", err)
		return
	}

	cand, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cand)
}

func (h *CandidateHandler) Update(c *gin.Context) {
	var req services.CandidatePatch
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "CandidateHandler.Update", "invalid request body", err)
		return
	}

	cand, err := h.svc.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cand)
}

func (h *CandidateHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
