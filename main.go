package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/dokufrage/dokufrage/config"
	"github.com/dokufrage/dokufrage/controller"
	"github.com/dokufrage/dokufrage/services"
	"github.com/dokufrage/dokufrage/web"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/gin-gonic/gin"
	"google.golang.org/genai"
)

func main() {
	cfg := config.Load()

	httpClient := &http.Client{
		Timeout: 30 * time.Second,
	}

	chromaClient, err := chromago.NewHTTPClient()
	if err != nil {
		log.Fatalf("FATAL: Failed to create chroma client: %v", err)
	}
	defer func() {
		if cerr := chromaClient.Close(); cerr != nil {
			log.Printf("Warning: Failed to close chroma client: %v", cerr)
		}
	}()

	collection, err := getOrCreateCollection(chromaClient, cfg.ChromaCollection)
	if err != nil {
		log.Fatalf("FATAL: Failed to get or create collection: %v", err)
	}

	geminiClient, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to create Gemini client: %v. Make sure GEMINI_API_KEY is set.", err)
	}
	log.Println("Successfully connected to Google Gemini.")

	ragService := services.NewRAGService(httpClient, collection, geminiClient, cfg)
	indexingService := services.NewIndexingService(collection, ragService, cfg)
	ragController := controller.NewRAGController(ragService, indexingService)

	// Pick up documents that changed while the server was down, then keep
	// the index in sync with the directory.
	watchCtx, cancelWatch := context.WithCancel(context.Background())
	defer cancelWatch()
	go indexingService.ScanAndIndexDirectory(watchCtx)
	if cfg.WatchDocuments {
		go indexingService.WatchDirectory(watchCtx)
	}

	router := gin.Default()

	// CORS middleware so the page can be served from elsewhere during development
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.GET("/", func(c *gin.Context) {
		page, err := web.IndexHTML()
		if err != nil {
			c.String(http.StatusInternalServerError, "could not render page")
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", page)
	})

	router.GET("/health", ragController.Health)

	api := router.Group("/api")
	{
		api.POST("/index-documents", ragController.IndexDocuments)
		api.POST("/ask", ragController.AskQuestion)
	}

	log.Printf("Dokufrage server starting on http://localhost:%s", cfg.Port)
	log.Printf("API endpoints:")
	log.Printf("  POST http://localhost:%s/api/index-documents", cfg.Port)
	log.Printf("  POST http://localhost:%s/api/ask", cfg.Port)

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("FATAL: Failed to start server: %v", err)
	}
}

// getOrCreateCollection implements collection management using the chroma v2 API.
func getOrCreateCollection(client chromago.Client, collectionName string) (chromago.Collection, error) {
	ctx := context.Background()

	log.Printf("Getting or creating collection '%s'...", collectionName)

	collection, err := client.GetOrCreateCollection(
		ctx,
		collectionName,
		chromago.WithCollectionMetadataCreate(
			chromago.NewMetadata(
				chromago.NewStringAttribute("description", "Dokufrage document collection"),
				chromago.NewStringAttribute("created_by", "dokufrage"),
			),
		),
	)
	if err != nil {
		return nil, err
	}

	log.Printf("Successfully got/created collection '%s'", collectionName)
	return collection, nil
}
