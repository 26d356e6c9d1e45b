package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings"
	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/tmc/langchaingo/textsplitter"

	"github.com/dokufrage/dokufrage/config"
)

// ErrNoDocuments is returned by ReindexAll when the documents directory
// contains nothing indexable.
var ErrNoDocuments = errors.New("no indexable documents found")

// IndexingService handles scanning, chunking, and embedding documents.
type IndexingService struct {
	collection chromago.Collection
	ragService RAGService
	cfg        *config.Config
}

// NewIndexingService creates a new indexing service.
func NewIndexingService(collection chromago.Collection, ragService RAGService, cfg *config.Config) *IndexingService {
	return &IndexingService{
		collection: collection,
		ragService: ragService,
		cfg:        cfg,
	}
}

// IndexState holds the current hash of a file in our index.
type IndexState struct {
	Hash string
}

// ReindexAll rebuilds the index from scratch: the collection is emptied,
// then every supported document under the configured directory is extracted,
// chunked, embedded, and stored. Returns the number of documents and chunks
// indexed.
func (s *IndexingService) ReindexAll(ctx context.Context) (int, int, error) {
	log.Printf("INDEXER: Full reindex of %s requested", s.cfg.DocumentsDir)

	if err := s.clearCollection(ctx); err != nil {
		return 0, 0, fmt.Errorf("could not clear collection: %w", err)
	}

	files := 0
	chunks := 0
	err := filepath.Walk(s.cfg.DocumentsDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !isSupportedFile(path) {
			return nil
		}

		hash, err := calculateFileHash(path)
		if err != nil {
			log.Printf("INDEXER WARN: Could not hash file %s: %v", path, err)
			return nil
		}

		n, err := s.processAndEmbedFile(ctx, path, hash)
		if err != nil {
			return fmt.Errorf("failed to process %s: %w", path, err)
		}
		files++
		chunks += n
		return nil
	})
	if err != nil {
		return 0, 0, err
	}

	if files == 0 {
		return 0, 0, ErrNoDocuments
	}

	// Cached answers may cite documents that just changed.
	s.ragService.InvalidateAnswerCache()

	log.Printf("INDEXER: Reindex finished: %d chunks from %d documents", chunks, files)
	return files, chunks, nil
}

// WatchDirectory starts a long-running process to watch for file changes in real-time.
func (s *IndexingService) WatchDirectory(ctx context.Context) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("WATCHER ERROR: Failed to create file watcher: %v", err)
		return
	}
	defer watcher.Close()

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !isSupportedFile(event.Name) {
					continue
				}

				// Many editors perform a "write" by creating a temp file and
				// renaming, which can trigger multiple events. Create and
				// Write are handled the same.
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
					log.Printf("WATCHER: File modified/created: %s. Re-indexing...", event.Name)
					hash, err := calculateFileHash(event.Name)
					if err != nil {
						log.Printf("WATCHER WARN: Could not hash file %s: %v", event.Name, err)
						continue
					}
					s.deleteDocumentsByFilepath(ctx, event.Name)
					if _, err := s.processAndEmbedFile(ctx, event.Name, hash); err != nil {
						log.Printf("WATCHER ERROR: Failed to process file %s: %v", event.Name, err)
					}
					s.ragService.InvalidateAnswerCache()
				} else if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
					// Rename is often reported as Remove by watchers.
					log.Printf("WATCHER: File removed/renamed: %s. Removing from index...", event.Name)
					if err := s.deleteDocumentsByFilepath(ctx, event.Name); err != nil {
						log.Printf("WATCHER ERROR: Failed to delete records for %s: %v", event.Name, err)
					}
					s.ragService.InvalidateAnswerCache()
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("WATCHER ERROR: %v", err)
			case <-ctx.Done():
				log.Println("WATCHER: Context cancelled, shutting down watcher.")
				return
			}
		}
	}()

	log.Printf("WATCHER: Watching directory: %s", s.cfg.DocumentsDir)
	if err := watcher.Add(s.cfg.DocumentsDir); err != nil {
		log.Printf("WATCHER ERROR: Failed to add path to watcher: %v", err)
	}

	<-ctx.Done()
}

// ScanAndIndexDirectory syncs the directory with the index incrementally,
// skipping files whose content hash is unchanged. Used at startup; the
// /api/index-documents endpoint does a full rebuild instead.
func (s *IndexingService) ScanAndIndexDirectory(ctx context.Context) {
	log.Printf("INDEXER: Starting directory scan for: %s", s.cfg.DocumentsDir)

	indexedFiles, err := s.getCurrentIndexState(ctx)
	if err != nil {
		log.Printf("INDEXER ERROR: Could not get current index state: %v", err)
		return
	}
	log.Printf("INDEXER: Found %d files currently in the index.", len(indexedFiles))

	localFiles := make(map[string]bool)
	err = filepath.Walk(s.cfg.DocumentsDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !isSupportedFile(path) {
			return nil
		}
		localFiles[path] = true
		hash, err := calculateFileHash(path)
		if err != nil {
			log.Printf("INDEXER WARN: Could not hash file %s: %v", path, err)
			return nil
		}

		if state, ok := indexedFiles[path]; ok {
			if state.Hash == hash {
				return nil // File is unchanged, skip.
			}
			log.Printf("INDEXER: File has changed: %s. Re-indexing...", path)
			if err := s.deleteDocumentsByFilepath(ctx, path); err != nil {
				log.Printf("INDEXER ERROR: Failed to delete old version of %s: %v", path, err)
				return nil
			}
		}

		log.Printf("INDEXER: Indexing new/modified file: %s", path)
		if _, err := s.processAndEmbedFile(ctx, path, hash); err != nil {
			log.Printf("INDEXER ERROR: Failed to process file %s: %v", path, err)
		}
		return nil
	})
	if err != nil {
		log.Printf("INDEXER ERROR: Error walking the path %s: %v", s.cfg.DocumentsDir, err)
	}

	// Handle deletions
	for path := range indexedFiles {
		if !localFiles[path] {
			log.Printf("INDEXER: File deleted: %s. Removing from index...", path)
			if err := s.deleteDocumentsByFilepath(ctx, path); err != nil {
				log.Printf("INDEXER ERROR: Failed to delete records for %s: %v", path, err)
			}
		}
	}
	log.Println("INDEXER: Directory scan finished.")
}

// processAndEmbedFile extracts, chunks, embeds, and stores one document.
// Returns the number of chunks stored.
func (s *IndexingService) processAndEmbedFile(ctx context.Context, path, hash string) (int, error) {
	content, err := ExtractTextFromFile(path)
	if err != nil {
		return 0, err
	}

	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(s.cfg.ChunkSize),
		textsplitter.WithChunkOverlap(s.cfg.ChunkOverlap),
	)
	chunks, err := splitter.SplitText(content)
	if err != nil {
		return 0, err
	}
	log.Printf("INDEXER: Split %s into %d chunks.", path, len(chunks))

	for i, chunk := range chunks {
		embeddingVector, err := s.ragService.EmbedText(ctx, chunk)
		if err != nil {
			return 0, fmt.Errorf("could not embed chunk %d of %s: %w", i, path, err)
		}
		embedding := embeddings.NewEmbeddingFromFloat32(embeddingVector)
		metadata := chromago.NewDocumentMetadata(
			chromago.NewStringAttribute("source_file", path),
			chromago.NewStringAttribute("filename", filepath.Base(path)),
			chromago.NewStringAttribute("file_hash", hash),
			chromago.NewIntAttribute("chunk_num", int64(i)),
		)
		docID := chromago.DocumentID(fmt.Sprintf("%s-chunk%d", uuid.New().String(), i))
		err = s.collection.Add(ctx,
			chromago.WithIDs(docID),
			chromago.WithTexts(chunk),
			chromago.WithEmbeddings(embedding),
			chromago.WithMetadatas(metadata),
		)
		if err != nil {
			return 0, fmt.Errorf("failed to add chunk %d of %s to chromadb: %w", i, path, err)
		}
	}
	return len(chunks), nil
}

// clearCollection removes every record so a reindex starts empty.
func (s *IndexingService) clearCollection(ctx context.Context) error {
	results, err := s.collection.Get(ctx)
	if err != nil {
		return err
	}
	ids := results.GetIDs()
	if len(ids) == 0 {
		return nil
	}
	return s.collection.Delete(ctx, chromago.WithIDsDelete(ids...))
}

func (s *IndexingService) getCurrentIndexState(ctx context.Context) (map[string]IndexState, error) {
	state := make(map[string]IndexState)
	results, err := s.collection.Get(ctx)
	if err != nil {
		return nil, err
	}
	metadatas := results.GetMetadatas()
	for _, meta := range metadatas {
		if meta == nil {
			continue
		}
		jsonBytes, err := json.Marshal(meta)
		if err != nil {
			continue
		}
		var metaMap map[string]interface{}
		if err := json.Unmarshal(jsonBytes, &metaMap); err != nil {
			continue
		}
		if path, ok := metaMap["source_file"].(string); ok {
			if hash, ok := metaMap["file_hash"].(string); ok {
				if _, exists := state[path]; !exists {
					state[path] = IndexState{Hash: hash}
				}
			}
		}
	}
	return state, nil
}

func (s *IndexingService) deleteDocumentsByFilepath(ctx context.Context, path string) error {
	where := chromago.EqString("source_file", path)
	return s.collection.Delete(ctx, chromago.WithWhereDelete(where))
}

func calculateFileHash(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()
	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}
