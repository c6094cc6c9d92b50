package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"clauseguard-backend/document"
	"clauseguard-backend/models"
	"clauseguard-backend/repository"
	"clauseguard-backend/service"
	"clauseguard-backend/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DocumentHandler handles HTTP requests for contract documents
type DocumentHandler struct {
	analysis    *service.AnalysisService
	docRepo     *repository.DocumentRepository
	storage     storage.Storage
	maxFileSize int64
}

// NewDocumentHandler creates a new document handler. docRepo may be nil when
// no database is configured; uploads are then analyzed without persistence.
func NewDocumentHandler(analysis *service.AnalysisService, docRepo *repository.DocumentRepository, store storage.Storage) *DocumentHandler {
	return &DocumentHandler{
		analysis:    analysis,
		docRepo:     docRepo,
		storage:     store,
		maxFileSize: 10 * 1024 * 1024, // 10MB
	}
}

// AnalyzeDocument handles POST /api/documents/analyze
func (h *DocumentHandler) AnalyzeDocument(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MISSING_FILE",
				"message": "File is required",
			},
		})
		return
	}

	if fileHeader.Size > h.maxFileSize {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FILE_TOO_LARGE",
				"message": fmt.Sprintf("File size exceeds maximum of %d bytes", h.maxFileSize),
			},
		})
		return
	}

	// Format comes from an explicit override or the filename extension.
	var format models.DocumentFormat
	if override := c.PostForm("format"); override != "" {
		f, ok := models.ParseFormat(override)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_FORMAT",
					"message": fmt.Sprintf("Unknown format %q. Supported: pdf, docx, text", override),
				},
			})
			return
		}
		format = f
	} else {
		f, ok := models.FormatFromFilename(fileHeader.Filename)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "UNSUPPORTED_FORMAT",
					"message": "Could not determine document format from filename. Supported: PDF, DOCX, TXT",
				},
			})
			return
		}
		format = f
	}

	maxClauses := 0
	if v := c.PostForm("max_clauses"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_MAX_CLAUSES",
					"message": "max_clauses must be a non-negative integer",
				},
			})
			return
		}
		maxClauses = n
	}

	topK := 0
	if v := c.PostForm("top_k"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_TOP_K",
					"message": "top_k must be an integer",
				},
			})
			return
		}
		topK = n
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FILE_OPEN_ERROR",
				"message": err.Error(),
			},
		})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FILE_READ_ERROR",
				"message": err.Error(),
			},
		})
		return
	}

	docID := uuid.New()

	// Persist the original upload before analysis so a failed analysis can
	// be retried against the stored copy.
	storagePath, err := h.storage.Upload(c.Request.Context(), docID, fileHeader.Filename, bytes.NewReader(data))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UPLOAD_FAILED",
				"message": fmt.Sprintf("Failed to store document: %v", err),
			},
		})
		return
	}

	if h.docRepo != nil {
		doc := &models.Document{
			ID:          docID,
			Filename:    fileHeader.Filename,
			Format:      format,
			Size:        fileHeader.Size,
			StoragePath: storagePath,
		}
		if err := h.docRepo.Create(c.Request.Context(), doc); err != nil {
			h.storage.Delete(c.Request.Context(), storagePath)
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "DATABASE_ERROR",
					"message": fmt.Sprintf("Failed to save document record: %v", err),
				},
			})
			return
		}
	}

	report, err := h.analysis.AnalyzeDocument(c.Request.Context(), service.AnalyzeDocumentRequest{
		DocumentID: docID,
		Data:       data,
		Format:     format,
		MaxClauses: maxClauses,
		TopK:       topK,
	})
	if err != nil {
		switch {
		case errors.Is(err, document.ErrUnsupportedFormat):
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "UNSUPPORTED_FORMAT",
					"message": err.Error(),
				},
			})
		case errors.Is(err, document.ErrExtraction):
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "EXTRACTION_FAILED",
					"message": err.Error(),
				},
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "ANALYSIS_FAILED",
					"message": err.Error(),
				},
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    report,
	})
}

// GetDocument handles GET /api/documents/:id
func (h *DocumentHandler) GetDocument(c *gin.Context) {
	if h.docRepo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NO_DATABASE",
				"message": "Document lookup requires a configured database",
			},
		})
		return
	}

	idStr := c.Param("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid document ID format",
			},
		})
		return
	}

	doc, err := h.docRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DOCUMENT_NOT_FOUND",
				"message": "Document not found",
			},
		})
		return
	}

	reader, err := h.storage.Download(c.Request.Context(), doc.StoragePath)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DOWNLOAD_FAILED",
				"message": fmt.Sprintf("Failed to download document: %v", err),
			},
		})
		return
	}
	defer reader.Close()

	contentType := mimeTypeFor(doc.Format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	c.DataFromReader(http.StatusOK, doc.Size, contentType, reader, nil)
}

func mimeTypeFor(format models.DocumentFormat) string {
	switch format {
	case models.FormatPDF:
		return "application/pdf"
	case models.FormatDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return "text/plain"
	}
}
