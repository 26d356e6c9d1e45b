package controller

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/gin-gonic/gin"

	"github.com/dokufrage/dokufrage/models"
	"github.com/dokufrage/dokufrage/services"
)

// RAGController handles the HTTP requests for the document Q&A API. It
// depends on the service layer to perform the actual work.
type RAGController struct {
	ragService      services.RAGService
	indexingService Reindexer

	// indexing guards against concurrent full reindex runs. The web UI
	// disables its trigger button while a request is outstanding; this is
	// the server-side counterpart for clients that do not.
	indexing atomic.Bool
}

// Reindexer is the slice of the indexing service the controller needs.
type Reindexer interface {
	ReindexAll(ctx context.Context) (int, int, error)
}

// NewRAGController is a constructor function that creates a new RAGController.
func NewRAGController(ragService services.RAGService, indexingService Reindexer) *RAGController {
	return &RAGController{
		ragService:      ragService,
		indexingService: indexingService,
	}
}

// IndexDocuments is the Gin handler for POST /api/index-documents. It
// rebuilds the index from the documents directory.
func (c *RAGController) IndexDocuments(ctx *gin.Context) {
	if !c.indexing.CompareAndSwap(false, true) {
		ctx.JSON(http.StatusConflict, models.IndexResponse{
			Success: false,
			Message: "Eine Indexierung läuft bereits",
		})
		return
	}
	defer c.indexing.Store(false)

	files, chunks, err := c.indexingService.ReindexAll(ctx.Request.Context())
	if err != nil {
		if errors.Is(err, services.ErrNoDocuments) {
			ctx.JSON(http.StatusNotFound, models.IndexResponse{
				Success: false,
				Message: "Keine Dokumente im Dokumentenverzeichnis gefunden",
			})
			return
		}
		log.Printf("CONTROLLER ERROR: Reindex failed: %v", err)
		ctx.JSON(http.StatusInternalServerError, models.IndexResponse{
			Success: false,
			Message: fmt.Sprintf("Fehler beim Indexieren: %v", err),
		})
		return
	}

	ctx.JSON(http.StatusOK, models.IndexResponse{
		Success: true,
		Message: fmt.Sprintf("%d Chunks aus %d Dokumenten erfolgreich indexiert", chunks, files),
	})
}

// AskQuestion is the Gin handler for POST /api/ask.
func (c *RAGController) AskQuestion(ctx *gin.Context) {
	var req models.AskRequest

	if err := ctx.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Question) == "" {
		ctx.JSON(http.StatusBadRequest, models.AskResponse{
			Success: false,
			Message: "Keine Frage übermittelt",
		})
		return
	}

	answer, sources, err := c.ragService.Ask(ctx.Request.Context(), req.Question)
	if err != nil {
		log.Printf("CONTROLLER ERROR: Ask failed: %v", err)
		ctx.JSON(http.StatusInternalServerError, models.AskResponse{
			Success: false,
			Message: fmt.Sprintf("Fehler bei der Beantwortung: %v", err),
		})
		return
	}

	ctx.JSON(http.StatusOK, models.AskResponse{
		Success: true,
		Answer:  answer,
		Sources: sources,
	})
}

// Health is the Gin handler for GET /health. The chunk count doubles as a
// cheap liveness probe for the vector store; a count error is reported but
// does not fail the endpoint.
func (c *RAGController) Health(ctx *gin.Context) {
	body := gin.H{
		"status":  "healthy",
		"service": "Dokufrage API",
		"version": "1.0.0",
	}
	if chunks, err := c.ragService.GetTotalChunks(ctx.Request.Context()); err == nil {
		body["indexed_chunks"] = chunks
	} else {
		log.Printf("CONTROLLER WARN: Could not count chunks: %v", err)
	}
	ctx.JSON(http.StatusOK, body)
}
