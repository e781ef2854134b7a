package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/payperplay/profiles/internal/service"
)

type ProjectHandler struct {
	profileService *service.ProfileService
	projectService *service.ProjectService
}

func NewProjectHandler(profileService *service.ProfileService, projectService *service.ProjectService) *ProjectHandler {
	return &ProjectHandler{
		profileService: profileService,
		projectService: projectService,
	}
}

// RegisterConfigRequest is the request body for config file registration
type RegisterConfigRequest struct {
	Path       string    `json:"path" binding:"required"`
	SizeBytes  int64     `json:"size"`
	ModifiedAt time.Time `json:"modifiedAt"`
}

// CreateProject handles POST /api/projects
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	var req service.CreateProjectInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid project: "+err.Error())
		return
	}

	project, err := h.projectService.CreateProject(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":               project.ID,
		"name":             project.Name,
		"minecraftVersion": project.MinecraftVersion,
		"loader":           project.Loader,
		"plugins":          project.PluginList(),
	})
}

// RegisterConfig handles PUT /api/projects/:id/configs
// Uploaded files become passthrough entries of the next profile save.
func (h *ProjectHandler) RegisterConfig(c *gin.Context) {
	var req RegisterConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Request body must include a config path")
		return
	}

	file, err := h.projectService.RegisterConfigFile(c.Request.Context(), c.Param("id"), req.Path, req.SizeBytes, req.ModifiedAt)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, file)
}

// GetProject handles GET /api/projects/:id
func (h *ProjectHandler) GetProject(c *gin.Context) {
	project, err := h.profileService.FetchProject(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":               project.ID,
		"name":             project.Name,
		"minecraftVersion": project.MinecraftVersion,
		"loader":           project.Loader,
		"plugins":          project.PluginList(),
	})
}

// GetProjectConfigs handles GET /api/projects/:id/configs
func (h *ProjectHandler) GetProjectConfigs(c *gin.Context) {
	configs, err := h.profileService.FetchProjectConfigs(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"configs": configs,
	})
}
