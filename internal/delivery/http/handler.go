package http

import (
	"errors"
	"net/http"

	"github.com/chemprice/backend/internal/domain"
	"github.com/chemprice/backend/internal/usecase"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// uploadField is the multipart field carrying an uploaded spreadsheet
const uploadField = "archivo"

// Handler holds dependencies for HTTP handlers
type Handler struct {
	catalog *usecase.CatalogService
	logger  *zap.Logger
}

// NewHandler creates a new HTTP handler. A nil catalog makes catalog endpoints
// answer 503.
func NewHandler(catalog *usecase.CatalogService, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{catalog: catalog, logger: logger.Named("http")}
}

// marginRequest is the body of a manual margin override
type marginRequest struct {
	Name   string   `json:"nombre" binding:"required"`
	Margin *float64 `json:"margen" binding:"required"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	resp := gin.H{
		"status":  "healthy",
		"service": "chemprice-backend",
		"version": "1.0.0",
	}
	if h.catalog != nil {
		resp["products"] = h.catalog.Status(c.Request.Context()).Len()
	}
	c.JSON(http.StatusOK, resp)
}

// SearchProducts returns the cached products matching the optional "q" parameter
func (h *Handler) SearchProducts(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	c.JSON(http.StatusOK, h.catalog.Search(c.Request.Context(), c.Query("q")))
}

// CatalogStatus describes the snapshot currently served
func (h *Handler) CatalogStatus(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	snap := h.catalog.Status(c.Request.Context())
	c.JSON(http.StatusOK, snapshotBody(snap))
}

// RebuildCatalog reruns the pricing pipeline from the stored files
func (h *Handler) RebuildCatalog(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	snap := h.catalog.Rebuild(c.Request.Context())
	c.JSON(http.StatusOK, snapshotBody(snap))
}

// UploadCosts replaces the supplier cost spreadsheet
func (h *Handler) UploadCosts(c *gin.Context) {
	h.upload(c, domain.SourceCosts, "Costos actualizados")
}

// UploadRules replaces the pricing rules spreadsheet
func (h *Handler) UploadRules(c *gin.Context) {
	h.upload(c, domain.SourceRules, "Reglas maestras actualizadas")
}

func (h *Handler) upload(c *gin.Context, kind domain.SourceKind, message string) {
	if !h.ready(c) {
		return
	}

	header, err := c.FormFile(uploadField)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field 'archivo' is required"})
		return
	}
	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read uploaded file"})
		return
	}
	defer file.Close()

	snap, err := h.catalog.ReplaceSource(c.Request.Context(), kind, header.Filename, file)
	if err != nil {
		h.respondError(c, err)
		return
	}

	body := snapshotBody(snap)
	body["mensaje"] = message
	c.JSON(http.StatusOK, body)
}

// SetMargin stores a manual margin (percentage) for one exact product name
func (h *Handler) SetMargin(c *gin.Context) {
	if !h.ready(c) {
		return
	}

	var req marginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nombre and margen are required"})
		return
	}

	snap, err := h.catalog.SetManualMargin(c.Request.Context(), req.Name, *req.Margin)
	if err != nil {
		h.respondError(c, err)
		return
	}

	body := snapshotBody(snap)
	body["success"] = true
	c.JSON(http.StatusOK, body)
}

func (h *Handler) ready(c *gin.Context) bool {
	if h.catalog == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "catalog not configured"})
		return false
	}
	return true
}

func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrUnsupportedFormat):
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "unsupported file type, use .xlsx, .xlsm or .csv"})
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func snapshotBody(snap *domain.Snapshot) gin.H {
	if snap == nil {
		return gin.H{"version": 0, "products": 0}
	}
	return gin.H{
		"version":  snap.Version,
		"builtAt":  snap.BuiltAt,
		"products": snap.Len(),
	}
}
