package app

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"manualhub/internal/chunk"
	"manualhub/internal/config"
	"manualhub/internal/extract"
	"manualhub/internal/index"
	"manualhub/internal/model"
	"manualhub/internal/repository"
)

var (
	ErrFileTooLarge = errors.New("file exceeds size limit")
	ErrNoContent    = errors.New("no extractable content")
)

// IngestService runs the upload pipeline: validate, extract, chunk, embed,
// register. Re-uploading a file with identical content is a no-op.
type IngestService struct {
	storage config.StorageConfig
	indexer *index.Service
	chain   *extract.Chain
	docs    *repository.DocumentRepository
	prefix  string
}

type UploadInput struct {
	Filename string
	DeviceID string
	Size     int64
	Reader   io.Reader
}

type UploadResult struct {
	Document       *model.Document
	ChunksStored   int
	AlreadyIndexed bool
}

func NewIngestService(
	storage config.StorageConfig,
	indexCfg config.IndexConfig,
	chain *extract.Chain,
	indexer *index.Service,
	docs *repository.DocumentRepository,
) *IngestService {
	return &IngestService{
		storage: storage,
		indexer: indexer,
		chain:   chain,
		docs:    docs,
		prefix:  indexCfg.CollectionPrefix,
	}
}

func (s *IngestService) Upload(ctx context.Context, input UploadInput) (*UploadResult, error) {
	if input.Filename == "" || input.Reader == nil {
		return nil, ErrInvalidInput
	}
	if s.storage.MaxFileBytes > 0 && input.Size > s.storage.MaxFileBytes {
		return nil, ErrFileTooLarge
	}

	pdfPath, contentHash, size, err := s.saveUpload(input)
	if err != nil {
		return nil, err
	}
	cleanupFile := true
	defer func() {
		if cleanupFile {
			_ = os.Remove(pdfPath)
		}
	}()

	if err := extract.ValidatePDF(pdfPath); err != nil {
		return nil, err
	}

	collection := index.CollectionName(s.prefix, input.Filename, contentHash)
	displayName := index.DisplayName(s.prefix, collection)

	if existing, err := s.docs.GetByCollection(collection); err != nil {
		return nil, err
	} else if existing != nil {
		return &UploadResult{Document: existing, AlreadyIndexed: true}, nil
	}

	outDir := filepath.Join(s.storage.OutputDir, collection)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir failed: %w", err)
	}

	extracted, err := s.chain.Extract(ctx, pdfPath, outDir)
	if err != nil {
		return nil, err
	}

	chunks := chunk.Split(extracted.Text)
	if len(chunks) == 0 {
		return nil, ErrNoContent
	}

	meta := index.CollectionMeta{
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		DeviceID:  input.DeviceID,
		Source:    displayName,
	}
	stored, err := s.indexer.Store(ctx, collection, meta, chunks)
	if err != nil {
		return nil, err
	}
	if stored == 0 {
		// Another upload of the same content won the race; nothing to register.
		existing, lookupErr := s.docs.GetByCollection(collection)
		if lookupErr != nil {
			return nil, lookupErr
		}
		return &UploadResult{Document: existing, AlreadyIndexed: true}, nil
	}

	doc := &model.Document{
		ID:          uuid.NewString(),
		Filename:    input.Filename,
		DisplayName: displayName,
		Collection:  collection,
		DeviceID:    input.DeviceID,
		SizeBytes:   size,
		ContentHash: contentHash,
		ChunkCount:  len(chunks),
		Method:      extracted.Method,
	}
	if err := s.docs.Create(doc); err != nil {
		if delErr := s.indexer.Delete(ctx, collection); delErr != nil {
			log.Printf("[ingest] rollback collection %s failed: %v", collection, delErr)
		}
		return nil, err
	}

	cleanupFile = false // uploaded file is kept alongside the registry row
	log.Printf("[ingest] indexed %s as %s (%d chunks via %s)", input.Filename, collection, len(chunks), extracted.Method)
	return &UploadResult{Document: doc, ChunksStored: len(chunks)}, nil
}

// saveUpload streams the payload into the upload directory while hashing it.
func (s *IngestService) saveUpload(input UploadInput) (string, string, int64, error) {
	if err := os.MkdirAll(s.storage.UploadDir, 0o755); err != nil {
		return "", "", 0, fmt.Errorf("create upload dir failed: %w", err)
	}

	tmp, err := os.CreateTemp(s.storage.UploadDir, "upload-*.pdf")
	if err != nil {
		return "", "", 0, fmt.Errorf("create upload file failed: %w", err)
	}

	hasher := sha256.New()
	reader := input.Reader
	if s.storage.MaxFileBytes > 0 {
		reader = io.LimitReader(reader, s.storage.MaxFileBytes+1)
	}
	size, err := io.Copy(io.MultiWriter(tmp, hasher), reader)
	closeErr := tmp.Close()
	if err != nil || closeErr != nil {
		_ = os.Remove(tmp.Name())
		if err == nil {
			err = closeErr
		}
		return "", "", 0, fmt.Errorf("write upload failed: %w", err)
	}
	if s.storage.MaxFileBytes > 0 && size > s.storage.MaxFileBytes {
		_ = os.Remove(tmp.Name())
		return "", "", 0, ErrFileTooLarge
	}

	return tmp.Name(), hex.EncodeToString(hasher.Sum(nil)), size, nil
}
