package handler

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/netiramawat02/DNE-OPUS-POC/middleware"
	"github.com/netiramawat02/DNE-OPUS-POC/model"
	"github.com/netiramawat02/DNE-OPUS-POC/pkg/logger"
	"github.com/netiramawat02/DNE-OPUS-POC/service"
)

type ContractHandler struct {
	registry     *service.Registry
	ingestor     *service.Ingestor
	minioService *service.MinioService // nil when archival is disabled
}

func NewContractHandler(registry *service.Registry, ingestor *service.Ingestor, minioSvc *service.MinioService) *ContractHandler {
	return &ContractHandler{
		registry:     registry,
		ingestor:     ingestor,
		minioService: minioSvc,
	}
}

// Upload accepts a PDF contract and schedules background processing. A
// filename already processed or still in flight is not re-ingested; only a
// previously failed filename may be uploaded again.
func (h *ContractHandler) Upload(c *gin.Context) {
	tenant := middleware.GetTenant(c)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}
	defer file.Close()

	if ext := strings.ToLower(filepath.Ext(header.Filename)); ext != ".pdf" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only PDF files are allowed"})
		return
	}

	record, created := h.registry.Begin(header.Filename, tenant)
	if !created {
		if record.Status == model.StatusProcessed {
			c.JSON(http.StatusOK, gin.H{
				"filename": record.Filename,
				"status":   record.Status,
				"message":  "File already processed",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"id":       record.ID,
			"filename": record.Filename,
			"status":   record.Status,
		})
		return
	}

	tmp, err := os.CreateTemp("", "upload-*.pdf")
	if err != nil {
		h.registry.FinalizeFailure(record.ID, "failed to store upload: "+err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store file"})
		return
	}
	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		h.registry.FinalizeFailure(record.ID, "failed to store upload: "+err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store file"})
		return
	}
	tmp.Close()

	if h.minioService != nil {
		if _, err := file.Seek(0, io.SeekStart); err == nil {
			if err := h.minioService.Archive(c.Request.Context(), tenant, record.ID, header.Filename, file, header.Size); err != nil {
				// Archival is best effort; processing continues from the local copy.
				logger.Warn(c.Request.Context(), "failed to archive upload", "filename", header.Filename, "error", err)
			}
		}
	}

	h.ingestor.Enqueue(tmp.Name(), header.Filename, record.ID)

	c.JSON(http.StatusOK, gin.H{
		"id":       record.ID,
		"filename": record.Filename,
		"status":   record.Status,
	})
}

// List returns all known contracts with their metadata and status.
func (h *ContractHandler) List(c *gin.Context) {
	records := h.registry.ListAll()

	result := make([]gin.H, len(records))
	for i, record := range records {
		result[i] = gin.H{
			"id":       record.ID,
			"filename": record.Filename,
			"metadata": record.Metadata,
			"status":   record.Status,
		}
	}

	c.JSON(http.StatusOK, gin.H{"contracts": result})
}

// GetStatus returns the processing status of a contract
func (h *ContractHandler) GetStatus(c *gin.Context) {
	record := h.registry.Get(c.Param("id"))
	if record == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Contract not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":     record.ID,
		"status": record.Status,
		"error":  record.ErrorMsg,
	})
}
