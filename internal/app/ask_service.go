package app

import (
	"context"
	"errors"
	"log"
	"strings"

	"manualhub/internal/cache"
	"manualhub/internal/config"
	"manualhub/internal/index"
	"manualhub/internal/model"
	"manualhub/internal/repository"
	"manualhub/internal/synth"
)

var ErrDocumentNotFound = errors.New("document not found")

// queryRecordPublisher is the async persistence hook; satisfied by the
// rabbitmq publisher in production.
type queryRecordPublisher interface {
	Publish(ctx context.Context, record model.QueryRecord) error
}

// AskService answers questions against the indexed manuals and records each
// exchange. Persistence of the record goes through the message queue so the
// caller never waits on MySQL; reads consult the redis cache first.
type AskService struct {
	indexer     *index.Service
	synthesizer *synth.Synthesizer
	docs        *repository.DocumentRepository
	records     *repository.QueryRecordRepository
	publisher   queryRecordPublisher
	history     *cache.HistoryCache
	topK        int
}

type AskInput struct {
	UserID     uint
	Question   string
	Collection string // optional: restrict to one manual
	DeviceID   string // optional scope tag, used when Collection is empty
}

type AskResult struct {
	Answer     string   `json:"answer"`
	Sources    []string `json:"sources"`
	Confidence float64  `json:"confidence"`
	ElapsedMS  int64    `json:"elapsed_ms"`
}

func NewAskService(
	indexCfg config.IndexConfig,
	indexer *index.Service,
	synthesizer *synth.Synthesizer,
	docs *repository.DocumentRepository,
	records *repository.QueryRecordRepository,
	publisher queryRecordPublisher,
	history *cache.HistoryCache,
) *AskService {
	return &AskService{
		indexer:     indexer,
		synthesizer: synthesizer,
		docs:        docs,
		records:     records,
		publisher:   publisher,
		history:     history,
		topK:        indexCfg.TopK,
	}
}

func (s *AskService) Ask(ctx context.Context, input AskInput) (*AskResult, error) {
	question := strings.TrimSpace(input.Question)
	if question == "" {
		return nil, ErrInvalidInput
	}

	var (
		results       []index.Result
		fallbackLabel string
		err           error
	)
	if input.Collection != "" {
		doc, lookupErr := s.docs.GetByCollection(input.Collection)
		if lookupErr != nil {
			return nil, lookupErr
		}
		if doc == nil {
			return nil, ErrDocumentNotFound
		}
		fallbackLabel = doc.DisplayName
		results, err = s.indexer.Query(ctx, input.Collection, question, s.topK)
	} else {
		fallbackLabel = "documentation"
		results, err = s.indexer.QueryScoped(ctx, input.DeviceID, question, s.topK)
	}
	if err != nil {
		return nil, err
	}

	answer := s.synthesizer.Synthesize(question, results, fallbackLabel)

	record := model.QueryRecord{
		UserID:     input.UserID,
		Collection: input.Collection,
		DeviceID:   input.DeviceID,
		Question:   question,
		Answer:     answer.Text,
		Confidence: answer.Confidence,
		ElapsedMS:  answer.Elapsed.Milliseconds(),
	}
	record.SetSources(answer.Sources)
	s.persistRecord(ctx, record)

	return &AskResult{
		Answer:     answer.Text,
		Sources:    answer.Sources,
		Confidence: answer.Confidence,
		ElapsedMS:  answer.Elapsed.Milliseconds(),
	}, nil
}

// persistRecord publishes for async persistence, falling back to a direct
// write if the broker is unavailable. Either way the cached history is
// flagged stale.
func (s *AskService) persistRecord(ctx context.Context, record model.QueryRecord) {
	if err := s.publisher.Publish(ctx, record); err != nil {
		log.Printf("[ask] publish query record failed, writing directly: %v", err)
		if dbErr := s.records.Create(&record); dbErr != nil {
			log.Printf("[ask] persist query record failed: %v", dbErr)
		}
	}
	if s.history != nil {
		if err := s.history.MarkDirty(ctx, record.UserID); err != nil {
			log.Printf("[ask] mark history dirty failed: %v", err)
		}
	}
}

// History returns the user's recent queries, newest first, served from redis
// when the cache is fresh.
func (s *AskService) History(ctx context.Context, userID uint, limit int) ([]model.QueryRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	if s.history != nil {
		dirty, err := s.history.IsDirty(ctx, userID)
		if err != nil {
			log.Printf("[ask] check history dirty failed: %v", err)
		} else if !dirty {
			if cached, ok, err := s.history.GetHistory(ctx, userID); err == nil && ok {
				return cached, nil
			}
		}
	}

	records, err := s.records.ListByUser(userID, limit)
	if err != nil {
		return nil, err
	}
	if s.history != nil {
		if err := s.history.SetHistory(ctx, userID, records); err != nil {
			log.Printf("[ask] refresh history cache failed: %v", err)
		}
	}
	return records, nil
}
