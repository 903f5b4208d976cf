package app

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"time"

	"manualhub/internal/config"
	"manualhub/internal/index"
	"manualhub/internal/repository"
)

// LibraryService lists and removes indexed manuals, keeping the vector
// store, the registry and on-disk artifacts in step.
type LibraryService struct {
	storage   config.StorageConfig
	indexer   *index.Service
	docs      *repository.DocumentRepository
	artifacts *repository.ArtifactRepository
}

type DocumentInfo struct {
	Collection string    `json:"collection_name"`
	PDFName    string    `json:"pdf_name"`
	DeviceID   string    `json:"device_id,omitempty"`
	ChunkCount int       `json:"chunk_count"`
	Method     string    `json:"method,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func NewLibraryService(
	storage config.StorageConfig,
	indexer *index.Service,
	docs *repository.DocumentRepository,
	artifacts *repository.ArtifactRepository,
) *LibraryService {
	return &LibraryService{
		storage:   storage,
		indexer:   indexer,
		docs:      docs,
		artifacts: artifacts,
	}
}

// List merges the registry with the vector store's collections. The registry
// row wins for timestamps and names; collections without a row (indexed out
// of band) fall back to collection metadata, and finally to the current time.
func (s *LibraryService) List(ctx context.Context, deviceID string) ([]DocumentInfo, error) {
	docs, err := s.docs.ListByDevice(deviceID)
	if err != nil {
		return nil, err
	}

	infos := make([]DocumentInfo, 0, len(docs))
	seen := make(map[string]bool, len(docs))
	for _, doc := range docs {
		seen[doc.Collection] = true
		infos = append(infos, DocumentInfo{
			Collection: doc.Collection,
			PDFName:    doc.DisplayName,
			DeviceID:   doc.DeviceID,
			ChunkCount: doc.ChunkCount,
			Method:     doc.Method,
			CreatedAt:  doc.CreatedAt,
		})
	}

	stored, err := s.indexer.List(ctx)
	if err != nil {
		log.Printf("[library] list collections failed, registry only: %v", err)
		return infos, nil
	}
	for _, col := range stored {
		if seen[col.Name] || deviceID != "" {
			continue
		}
		created := col.CreatedAt
		if created.IsZero() {
			created = time.Now().UTC()
		}
		infos = append(infos, DocumentInfo{
			Collection: col.Name,
			PDFName:    col.PDFName,
			ChunkCount: col.ChunkCount,
			CreatedAt:  created,
		})
	}
	return infos, nil
}

// Delete removes a manual everywhere: vector collection, registry row,
// generated artifacts, and the extraction output on disk.
func (s *LibraryService) Delete(ctx context.Context, collection string) error {
	doc, err := s.docs.GetByCollection(collection)
	if err != nil {
		return err
	}
	if doc == nil && !s.indexer.Exists(ctx, collection) {
		return ErrDocumentNotFound
	}

	if err := s.indexer.Delete(ctx, collection); err != nil {
		return err
	}
	if doc != nil {
		if err := s.artifacts.DeleteByDocument(doc.ID); err != nil {
			log.Printf("[library] delete artifacts for %s failed: %v", collection, err)
		}
		if err := s.docs.DeleteByCollection(collection); err != nil {
			return err
		}
	}
	if outDir := filepath.Join(s.storage.OutputDir, collection); outDir != s.storage.OutputDir {
		if err := os.RemoveAll(outDir); err != nil {
			log.Printf("[library] remove output dir %s failed: %v", outDir, err)
		}
	}
	return nil
}
