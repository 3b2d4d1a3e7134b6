package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"sparrow-api/internal/calls"
	"sparrow-api/internal/personas"
	"sparrow-api/internal/plans"
	"sparrow-api/internal/progress"
	"sparrow-api/internal/reporting"
	"sparrow-api/internal/users"
)

// Handlers bundles the services behind the HTTP surface. Handlers stay thin:
// bind, call the service, map the error.
type Handlers struct {
	Users     *users.Service
	Calls     *calls.Service
	Personas  *personas.Service
	Generator *personas.Generator
	Progress  *progress.Service
	Plans     *plans.Service
	Reporting *reporting.Service

	// IdentitySecret authenticates identity-provider webhooks.
	IdentitySecret string
}

func subject(c *gin.Context) string { return c.GetString("subject") }
func email(c *gin.Context) string   { return c.GetString("email") }

// StartCall provisions a practice call and a live voice session.
func (h *Handlers) StartCall(c *gin.Context) {
	var req calls.StartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	res, err := h.Calls.Start(c.Request.Context(), subject(c), email(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"callId":     res.Call.ID,
		"persona":    res.Call.Persona,
		"elevenlabs": res.Session,
	})
}

// EndCall completes a call and returns the debrief.
func (h *Handlers) EndCall(c *gin.Context) {
	var req calls.EndRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	res, err := h.Calls.End(c.Request.Context(), subject(c), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"callId":           res.CallID,
		"duration_seconds": res.DurationSeconds,
		"scores":           res.Scores,
		"feedback":         res.Feedback,
		"transcript":       res.Transcript,
	})
}

// ListCalls returns the caller's call history, newest first.
func (h *Handlers) ListCalls(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	list, err := h.Calls.List(c.Request.Context(), subject(c), limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"calls": list})
}

// GetCall returns one call with transcript, score and feedback.
func (h *Handlers) GetCall(c *gin.Context) {
	d, err := h.Calls.GetDetail(c.Request.Context(), subject(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// GeneratePersona produces a persona config without saving it.
func (h *Handlers) GeneratePersona(c *gin.Context) {
	var req personas.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	cfg, provider, err := h.Generator.Generate(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"persona": cfg, "provider": provider})
}

type createProspectRequest struct {
	Name   string          `json:"name"`
	Config personas.Config `json:"config"`
}

// CreateProspect saves a prospect for reuse.
func (h *Handlers) CreateProspect(c *gin.Context) {
	var req createProspectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	u, err := h.Users.EnsureBySubject(c.Request.Context(), subject(c), email(c))
	if err != nil {
		writeError(c, err)
		return
	}
	p, err := h.Personas.Create(c.Request.Context(), u.ID, req.Name, req.Config)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// ListProspects returns the caller's prospects plus shipped defaults.
func (h *Handlers) ListProspects(c *gin.Context) {
	u, err := h.Users.EnsureBySubject(c.Request.Context(), subject(c), email(c))
	if err != nil {
		writeError(c, err)
		return
	}
	list, err := h.Personas.List(c.Request.Context(), u.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"prospects": list})
}

// GetProspect returns one prospect visible to the caller.
func (h *Handlers) GetProspect(c *gin.Context) {
	u, err := h.Users.EnsureBySubject(c.Request.Context(), subject(c), email(c))
	if err != nil {
		writeError(c, err)
		return
	}
	p, err := h.Personas.Get(c.Request.Context(), u.ID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// DeleteProspect removes a caller-owned prospect.
func (h *Handlers) DeleteProspect(c *gin.Context) {
	u, err := h.Users.EnsureBySubject(c.Request.Context(), subject(c), email(c))
	if err != nil {
		writeError(c, err)
		return
	}
	if err := h.Personas.Delete(c.Request.Context(), u.ID, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ToggleFavorite flips a prospect's favorite flag.
func (h *Handlers) ToggleFavorite(c *gin.Context) {
	u, err := h.Users.EnsureBySubject(c.Request.Context(), subject(c), email(c))
	if err != nil {
		writeError(c, err)
		return
	}
	fav, err := h.Personas.ToggleFavorite(c.Request.Context(), u.ID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"favorite": fav})
}

// GetProgress returns the caller's aggregates. Users with no completed calls
// get a zero-valued row, not a 404.
func (h *Handlers) GetProgress(c *gin.Context) {
	u, err := h.Users.EnsureBySubject(c.Request.Context(), subject(c), email(c))
	if err != nil {
		writeError(c, err)
		return
	}
	p, err := h.Progress.Get(c.Request.Context(), u.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// GetUsage returns plan consumption for the caller.
func (h *Handlers) GetUsage(c *gin.Context) {
	u, err := h.Users.EnsureBySubject(c.Request.Context(), subject(c), email(c))
	if err != nil {
		writeError(c, err)
		return
	}
	usage, err := h.Plans.Current(c.Request.Context(), u.ID, u.Plan)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, usage)
}

// Me returns the caller's user record, creating it on first contact.
func (h *Handlers) Me(c *gin.Context) {
	u, err := h.Users.EnsureBySubject(c.Request.Context(), subject(c), email(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// AdminStats returns the platform snapshot. Route guards restrict this to
// admins.
func (h *Handlers) AdminStats(c *gin.Context) {
	stats, err := h.Reporting.AdminStats(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
