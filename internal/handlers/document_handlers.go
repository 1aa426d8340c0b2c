package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"campusstay_echo/internal/models"
	"campusstay_echo/internal/services"
)

type DocumentHandler struct {
	docs *services.DocumentService
}

func NewDocumentHandler(docs *services.DocumentService) *DocumentHandler {
	return &DocumentHandler{docs: docs}
}

// SubmitOwnerDocuments receives the four verification files as one bundle
func (h *DocumentHandler) SubmitOwnerDocuments(c echo.Context) error {
	files := make(map[string]*services.Upload, len(models.OwnerDocumentFields))
	for _, field := range models.OwnerDocumentFields {
		// A missing file is reported by the service alongside the others
		if fh, err := c.FormFile(field); err == nil {
			files[field] = services.UploadFromHeader(fh)
		}
	}

	bundle, err := h.docs.SubmitOwnerDocuments(c.Request().Context(), principal(c), files)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, apiResponse{
		"success": true,
		"message": "Documents submitted for review.",
		"version": bundle.Version,
		"status":  bundle.Status,
	})
}

// UploadAgreement stores a tenancy agreement and shares it with the property's tenants
func (h *DocumentHandler) UploadAgreement(c echo.Context) error {
	propertyID, err := strconv.ParseUint(c.FormValue("property_id"), 10, 64)
	if err != nil || propertyID == 0 {
		return c.JSON(http.StatusBadRequest, apiResponse{
			"success": false,
			"message": "Invalid property",
			"errors":  map[string]string{"property_id": "Property is required"},
		})
	}

	var upload *services.Upload
	if fh, err := c.FormFile("agreement"); err == nil {
		upload = services.UploadFromHeader(fh)
	}

	agreement, granted, err := h.docs.UploadAgreement(c.Request().Context(), principal(c), uint(propertyID), c.FormValue("title"), upload)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, apiResponse{
		"success":          true,
		"message":          "Agreement uploaded.",
		"agreement":        agreement,
		"students_granted": granted,
	})
}

// ReviewOwnerDocuments records an admin decision on an owner's pending bundle
func (h *DocumentHandler) ReviewOwnerDocuments(c echo.Context) error {
	ownerID, err := strconv.ParseUint(c.Param("owner_id"), 10, 64)
	if err != nil || ownerID == 0 {
		return c.JSON(http.StatusBadRequest, apiResponse{"success": false, "message": "Invalid owner"})
	}

	bundle, err := h.docs.ReviewOwnerDocuments(c.Request().Context(), principal(c), uint(ownerID), c.FormValue("decision"), c.FormValue("note"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, apiResponse{
		"success": true,
		"message": "Review recorded.",
		"status":  bundle.Status,
		"version": bundle.Version,
	})
}
