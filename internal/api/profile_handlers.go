package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/payperplay/profiles/internal/profile"
	"github.com/payperplay/profiles/internal/service"
	"github.com/payperplay/profiles/pkg/logger"
)

type ProfileHandler struct {
	profileService *service.ProfileService
}

func NewProfileHandler(profileService *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// SaveProfileTextRequest is the request body for raw profile saves
type SaveProfileTextRequest struct {
	Text *string `json:"text"`
}

// GetProfile handles GET /api/projects/:id/profile
// The text is null when the project has no profile yet.
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	text, err := h.profileService.FetchProfileText(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"text": text,
	})
}

// PutProfile handles PUT /api/projects/:id/profile
func (h *ProfileHandler) PutProfile(c *gin.Context) {
	var req SaveProfileTextRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Text == nil {
		respondBadRequest(c, "Request body must be {\"text\": string}")
		return
	}

	result, err := h.profileService.SaveRaw(c.Request.Context(), c.Param("id"), *req.Text)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// OpenSession handles POST /api/projects/:id/profile/sessions
func (h *ProfileHandler) OpenSession(c *gin.Context) {
	projectID := c.Param("id")

	session, err := h.profileService.OpenSession(c.Request.Context(), projectID)
	if err != nil {
		respondError(c, err)
		return
	}

	logger.Debug("Profile session handed out", map[string]interface{}{
		"project_id":   projectID,
		"has_document": session.HasDocument,
	})
	c.JSON(http.StatusCreated, session)
}

// Preview handles POST /api/profile-sessions/:token/preview
func (h *ProfileHandler) Preview(c *gin.Context) {
	var form profile.FormState
	if err := c.ShouldBindJSON(&form); err != nil {
		respondBadRequest(c, "Invalid form: "+err.Error())
		return
	}

	preview, err := h.profileService.Preview(c.Request.Context(), c.Param("token"), form)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, preview)
}

// Save handles POST /api/profile-sessions/:token/save
func (h *ProfileHandler) Save(c *gin.Context) {
	var form profile.FormState
	if err := c.ShouldBindJSON(&form); err != nil {
		respondBadRequest(c, "Invalid form: "+err.Error())
		return
	}

	result, err := h.profileService.Save(c.Request.Context(), c.Param("token"), form)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// CloseSession handles DELETE /api/profile-sessions/:token
func (h *ProfileHandler) CloseSession(c *gin.Context) {
	if err := h.profileService.Close(c.Param("token")); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
