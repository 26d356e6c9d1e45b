package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/dokufrage/dokufrage/config"
	"github.com/dokufrage/dokufrage/models"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings"
	"google.golang.org/genai"
)

// RAGService answers questions against the indexed documents.
type RAGService interface {
	Ask(c context.Context, question string) (string, []models.Source, error)
	EmbedText(c context.Context, text string) ([]float32, error)
	GetTotalChunks(c context.Context) (int, error)
	InvalidateAnswerCache()
}

// retrievedChunk is one search hit with its similarity score.
type retrievedChunk struct {
	Text     string
	Filename string
	Score    float64
}

// ragServiceImpl holds the dependencies it needs to do its job.
type ragServiceImpl struct {
	httpClient   *http.Client
	collection   chromago.Collection
	geminiClient *genai.Client
	cfg          *config.Config
	cache        *answerCache
}

// NewRAGService creates a new RAG service instance.
func NewRAGService(client *http.Client, collection chromago.Collection, geminiClient *genai.Client, cfg *config.Config) RAGService {
	var cache *answerCache
	if cfg.EnableAnswerCache {
		cache = newAnswerCache(cfg.CacheTTL)
	}
	return &ragServiceImpl{
		httpClient:   client,
		collection:   collection,
		geminiClient: geminiClient,
		cfg:          cfg,
		cache:        cache,
	}
}

// GetTotalChunks counts all the document chunks in the collection.
func (r *ragServiceImpl) GetTotalChunks(c context.Context) (int, error) {
	count, err := r.collection.Count(c)
	if err != nil {
		return 0, fmt.Errorf("failed to count items in collection: %w", err)
	}
	return int(count), nil
}

// InvalidateAnswerCache drops all cached answers. Called after a reindex.
func (r *ragServiceImpl) InvalidateAnswerCache() {
	if r.cache != nil {
		r.cache.clear()
	}
}

// Ask runs the full pipeline: embed the question, retrieve similar chunks,
// and generate an answer grounded in them.
func (r *ragServiceImpl) Ask(c context.Context, question string) (string, []models.Source, error) {
	log.Printf("SERVICE: Answering question: '%s'", question)

	if r.cache != nil {
		if answer, sources, ok := r.cache.get(question); ok {
			log.Printf("SERVICE: Answer served from cache")
			return answer, sources, nil
		}
	}

	chunks, err := r.retrieveChunks(c, question, r.cfg.MaxSources)
	if err != nil {
		return "", nil, fmt.Errorf("could not retrieve documents: %w", err)
	}

	if len(chunks) == 0 {
		log.Printf("SERVICE: No relevant documents found")
		return NoAnswerText, []models.Source{}, nil
	}

	answer, err := r.generateAnswer(c, question, chunks)
	if err != nil {
		return "", nil, fmt.Errorf("could not generate answer: %w", err)
	}

	sources := collectSources(chunks, r.cfg.MaxSources)

	if r.cache != nil {
		r.cache.put(question, answer, sources)
	}
	return answer, sources, nil
}

// collectSources dedupes hits by filename, keeping the first (best) score
// per document, capped at max entries. Retrieval order is preserved.
func collectSources(chunks []retrievedChunk, max int) []models.Source {
	seen := make(map[string]bool)
	sources := make([]models.Source, 0, len(chunks))
	for _, chunk := range chunks {
		if chunk.Filename == "" || seen[chunk.Filename] {
			continue
		}
		seen[chunk.Filename] = true
		sources = append(sources, models.Source{
			Filename: chunk.Filename,
			Score:    chunk.Score,
		})
		if len(sources) == max {
			break
		}
	}
	return sources
}

// retrieveChunks queries ChromaDB for chunks similar to the question.
func (r *ragServiceImpl) retrieveChunks(c context.Context, question string, nResults int) ([]retrievedChunk, error) {
	queryEmbedding, err := r.EmbedText(c, question)
	if err != nil {
		return nil, fmt.Errorf("failed to embed question: %w", err)
	}

	embedding := embeddings.NewEmbeddingFromFloat32(queryEmbedding)

	results, err := r.collection.Query(
		c,
		chromago.WithQueryEmbeddings(embedding),
		chromago.WithNResults(nResults),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query chromadb: %w", err)
	}

	var chunks []retrievedChunk
	documentGroups := results.GetDocumentsGroups()
	metadataGroups := results.GetMetadatasGroups()
	distanceGroups := results.GetDistancesGroups()

	if len(documentGroups) == 0 {
		return chunks, nil
	}

	for i, doc := range documentGroups[0] {
		if doc.ContentString() == "" {
			continue
		}

		var filename string
		if len(metadataGroups) > 0 && i < len(metadataGroups[0]) && metadataGroups[0][i] != nil {
			// The DocumentMetadata struct exposes no map accessor; round-trip
			// through JSON to get at the attributes.
			jsonBytes, err := json.Marshal(metadataGroups[0][i])
			if err == nil {
				var metaMap map[string]interface{}
				if err := json.Unmarshal(jsonBytes, &metaMap); err == nil {
					filename, _ = metaMap["filename"].(string)
				}
			}
		}

		// Chroma reports cosine distance; the UI expects a similarity score
		// in [0,1]. Out-of-range values are passed through as-is.
		score := 0.0
		if len(distanceGroups) > 0 && i < len(distanceGroups[0]) {
			score = 1 - float64(distanceGroups[0][i])
		}

		chunks = append(chunks, retrievedChunk{
			Text:     doc.ContentString(),
			Filename: filename,
			Score:    score,
		})
	}
	log.Printf("SERVICE: Retrieved %d chunks", len(chunks))
	return chunks, nil
}

// generateAnswer asks Gemini for an answer grounded in the retrieved chunks.
func (r *ragServiceImpl) generateAnswer(c context.Context, question string, chunks []retrievedChunk) (string, error) {
	docContext := buildContext(chunks, r.cfg.MaxContextChars)

	prompt := fmt.Sprintf("Hier sind die relevanten Dokumente:\n\n%s\n\nFrage: %s", docContext, question)

	result, err := r.geminiClient.Models.GenerateContent(c, r.cfg.GenerativeModel, genai.Text(prompt), &genai.GenerateContentConfig{
		SystemInstruction: GetSystemPrompt(),
		Temperature:       genai.Ptr[float32](0.2),
		MaxOutputTokens:   1000,
	})
	if err != nil {
		return "", fmt.Errorf("gemini api call failed: %w", err)
	}

	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned an empty response")
	}

	var responseText strings.Builder
	for _, p := range result.Candidates[0].Content.Parts {
		if p.Text != "" {
			responseText.WriteString(p.Text)
		}
	}
	return responseText.String(), nil
}

// buildContext concatenates the chunks with their origin, truncating at
// paragraph boundaries once the character budget is exhausted.
func buildContext(chunks []retrievedChunk, maxChars int) string {
	paragraphs := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		paragraphs = append(paragraphs, fmt.Sprintf("Aus %s: %s", chunk.Filename, chunk.Text))
	}
	joined := strings.Join(paragraphs, "\n\n")
	if len(joined) <= maxChars {
		return joined
	}

	log.Printf("SERVICE WARN: Context too large (%d chars), truncating to ~%d", len(joined), maxChars)
	var sb strings.Builder
	for _, para := range paragraphs {
		if sb.Len()+len(para)+2 > maxChars {
			break
		}
		sb.WriteString(para)
		sb.WriteString("\n\n")
	}
	return strings.TrimSuffix(sb.String(), "\n\n")
}

// EmbedText generates an embedding vector using Ollama.
func (r *ragServiceImpl) EmbedText(c context.Context, textToEmbed string) ([]float32, error) {
	reqBody, err := json.Marshal(models.OllamaEmbedRequest{
		Model:  r.cfg.EmbeddingModel,
		Prompt: textToEmbed,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ollama request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(c, http.MethodPost, r.cfg.OllamaURL+"/api/embeddings", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama http request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to call ollama embedding api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama api returned non-200 status: %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var ollamaResp models.OllamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&ollamaResp); err != nil {
		return nil, fmt.Errorf("failed to decode ollama response: %w", err)
	}
	return ollamaResp.Embedding, nil
}
