package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/kerstenscheffer/my-arc-sub008/internal/domain"
	"github.com/kerstenscheffer/my-arc-sub008/internal/service"

	"github.com/gin-gonic/gin"
)

// PhotoHandler exposes progress photo upload and viewing.
type PhotoHandler struct {
	photoService     service.PhotoService
	challengeService service.ChallengeService
}

// NewPhotoHandler creates a new PhotoHandler.
func NewPhotoHandler(photoService service.PhotoService, challengeService service.ChallengeService) *PhotoHandler {
	return &PhotoHandler{
		photoService:     photoService,
		challengeService: challengeService,
	}
}

// --- Request/Response Structs ---

type PhotoUploadURLRequest struct {
	Type        domain.PhotoType `json:"type" binding:"required,oneof=front side"`
	ContentType string           `json:"contentType" binding:"required"`
}

type PhotoUploadURLResponse struct {
	UploadURL string `json:"uploadUrl"`
	ObjectKey string `json:"objectKey"`
}

type ConfirmPhotoRequest struct {
	Type      domain.PhotoType `json:"type" binding:"required,oneof=front side"`
	Date      time.Time        `json:"date" binding:"required"`
	ObjectKey string           `json:"objectKey" binding:"required"`
}

// --- Handler Methods ---

// RequestUploadURL presigns a PUT URL for a new progress photo. Client only.
func (h *PhotoHandler) RequestUploadURL(c *gin.Context) {
	clientID, err := getUserObjectIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	var req PhotoUploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	uploadURL, objectKey, err := h.photoService.RequestUploadURL(c.Request.Context(), clientID, req.Type, req.ContentType)
	if err != nil {
		if errors.Is(err, service.ErrInvalidPhotoType) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to create upload URL")
		}
		return
	}

	c.JSON(http.StatusOK, PhotoUploadURLResponse{UploadURL: uploadURL, ObjectKey: objectKey})
}

// ConfirmUpload records the photo row after the client finished the PUT.
// Client only.
func (h *PhotoHandler) ConfirmUpload(c *gin.Context) {
	clientID, err := getUserObjectIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	var req ConfirmPhotoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	photo, err := h.photoService.ConfirmUpload(c.Request.Context(), clientID, req.Date, req.Type, req.ObjectKey)
	if err != nil {
		if errors.Is(err, service.ErrPhotoAlreadyExists) {
			abortWithError(c, http.StatusConflict, err.Error())
		} else if errors.Is(err, service.ErrInvalidPhotoType) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to record photo")
		}
		return
	}

	c.JSON(http.StatusCreated, photo)
}

// GetChallengePhotos lists the photos inside the active challenge window,
// each with a temporary view URL.
func (h *PhotoHandler) GetChallengePhotos(c *gin.Context) {
	role, err := getUserRoleFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user role from token")
		return
	}
	clientID, err := getUserObjectIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	if role == domain.RoleCoach {
		var ok bool
		clientID, ok = parseObjectIDParam(c, "clientId")
		if !ok {
			return
		}
	}

	assignment, err := h.challengeService.GetActiveAssignment(c.Request.Context(), clientID)
	if err != nil {
		if errors.Is(err, service.ErrAssignmentNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to load challenge")
		}
		return
	}

	from := assignment.StartDate
	to := assignment.EndDate.AddDate(0, 0, assignment.TotalPausedDays)
	views, err := h.photoService.GetPhotosInRange(c.Request.Context(), clientID, from, to)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load photos")
		return
	}

	c.JSON(http.StatusOK, views)
}
