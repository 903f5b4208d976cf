package app

import (
	"context"
	"path/filepath"

	"manualhub/internal/chunk"
	"manualhub/internal/config"
	"manualhub/internal/model"
	"manualhub/internal/repository"
	"manualhub/internal/synth"
)

// GenerateService produces structured artifacts (monitoring rules,
// maintenance schedules, safety items) from an indexed manual. Chunks are
// re-read from the extraction output kept on disk, so generation never
// round-trips through the vector store.
type GenerateService struct {
	storage   config.StorageConfig
	generator *synth.Generator
	docs      *repository.DocumentRepository
	artifacts *repository.ArtifactRepository
}

func NewGenerateService(
	storage config.StorageConfig,
	generator *synth.Generator,
	docs *repository.DocumentRepository,
	artifacts *repository.ArtifactRepository,
) *GenerateService {
	return &GenerateService{
		storage:   storage,
		generator: generator,
		docs:      docs,
		artifacts: artifacts,
	}
}

func (s *GenerateService) Rules(ctx context.Context, collection string) ([]model.GeneratedRule, error) {
	doc, chunks, err := s.loadChunks(collection)
	if err != nil {
		return nil, err
	}
	rules, err := s.generator.Rules(ctx, chunks)
	if err != nil {
		return nil, err
	}
	if err := s.artifacts.ReplaceRules(doc.ID, rules); err != nil {
		return nil, err
	}
	return rules, nil
}

func (s *GenerateService) MaintenanceSchedule(ctx context.Context, collection string) ([]model.MaintenanceTask, error) {
	doc, chunks, err := s.loadChunks(collection)
	if err != nil {
		return nil, err
	}
	tasks, err := s.generator.MaintenanceSchedule(ctx, chunks)
	if err != nil {
		return nil, err
	}
	if err := s.artifacts.ReplaceMaintenanceTasks(doc.ID, tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (s *GenerateService) SafetyInformation(ctx context.Context, collection string) ([]model.SafetyItem, error) {
	doc, chunks, err := s.loadChunks(collection)
	if err != nil {
		return nil, err
	}
	items, err := s.generator.SafetyInformation(ctx, chunks)
	if err != nil {
		return nil, err
	}
	if err := s.artifacts.ReplaceSafetyItems(doc.ID, items); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *GenerateService) ListRules(collection string) ([]model.GeneratedRule, error) {
	doc, err := s.requireDocument(collection)
	if err != nil {
		return nil, err
	}
	return s.artifacts.ListRules(doc.ID)
}

func (s *GenerateService) ListMaintenanceTasks(collection string) ([]model.MaintenanceTask, error) {
	doc, err := s.requireDocument(collection)
	if err != nil {
		return nil, err
	}
	return s.artifacts.ListMaintenanceTasks(doc.ID)
}

func (s *GenerateService) ListSafetyItems(collection string) ([]model.SafetyItem, error) {
	doc, err := s.requireDocument(collection)
	if err != nil {
		return nil, err
	}
	return s.artifacts.ListSafetyItems(doc.ID)
}

func (s *GenerateService) requireDocument(collection string) (*model.Document, error) {
	doc, err := s.docs.GetByCollection(collection)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrDocumentNotFound
	}
	return doc, nil
}

func (s *GenerateService) loadChunks(collection string) (*model.Document, []chunk.Chunk, error) {
	doc, err := s.docs.GetByCollection(collection)
	if err != nil {
		return nil, nil, err
	}
	if doc == nil {
		return nil, nil, ErrDocumentNotFound
	}
	chunks := chunk.SplitDir(filepath.Join(s.storage.OutputDir, collection))
	if len(chunks) == 0 {
		return nil, nil, ErrNoContent
	}
	return doc, chunks, nil
}
