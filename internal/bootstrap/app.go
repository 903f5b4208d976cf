package bootstrap

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"manualhub/internal/ai"
	"manualhub/internal/config"
	"manualhub/internal/index"
	"manualhub/internal/model"
	mysqlClient "manualhub/internal/platform/mysql"
	rabbitmqClient "manualhub/internal/platform/rabbitmq"
	redisClient "manualhub/internal/platform/redis"
	"manualhub/internal/repository"
	"manualhub/internal/worker"
)

// App owns the process-wide resources: connections, the shared LLM client
// handle and the vector index service. Everything else is constructed from
// these in the router.
type App struct {
	Config      *config.Config
	MySQL       *gorm.DB
	Redis       *redis.Client
	MQConn      *amqp.Connection
	LLM         *ai.Client
	Indexer     *index.Service
	QueryWorker *worker.QueryPersistWorker

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	mysqlDB, err := mysqlClient.New(ctx, cfg.MySQLDSN())
	if err != nil {
		return nil, err
	}
	if err := mysqlDB.AutoMigrate(
		&model.User{},
		&model.Document{},
		&model.QueryRecord{},
		&model.GeneratedRule{},
		&model.MaintenanceTask{},
		&model.SafetyItem{},
	); err != nil {
		return nil, fmt.Errorf("auto migrate tables failed: %w", err)
	}

	redisCli, err := redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, err
	}

	mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
	if err != nil {
		return nil, err
	}

	llm := ai.NewClient(cfg.LLM)
	indexer, err := newIndexService(cfg.Index, llm)
	if err != nil {
		return nil, err
	}

	recordRepo := repository.NewQueryRecordRepository(mysqlDB)
	queryWorker := worker.NewQueryPersistWorker(mqConn, recordRepo, cfg.RabbitMQ.QueryRecordQueue)
	if err := queryWorker.Start(ctx); err != nil {
		return nil, fmt.Errorf("start query persist worker failed: %w", err)
	}

	return &App{
		Config:      cfg,
		MySQL:       mysqlDB,
		Redis:       redisCli,
		MQConn:      mqConn,
		LLM:         llm,
		Indexer:     indexer,
		QueryWorker: queryWorker,
		StartedAt:   time.Now(),
	}, nil
}

func newIndexService(cfg config.IndexConfig, llm *ai.Client) (*index.Service, error) {
	switch cfg.Mode {
	case "chroma", "":
		backend := index.NewChromaStore(cfg.ChromaURL, cfg.CollectionPrefix, llm,
			time.Duration(cfg.TimeoutSeconds)*time.Second)
		return index.NewService(backend), nil
	case "tfidf":
		return index.NewService(index.NewTFIDFIndex(cfg.CollectionPrefix)), nil
	default:
		return nil, fmt.Errorf("unknown index mode %q", cfg.Mode)
	}
}

func (a *App) Close() error {
	var closeErr error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.QueryWorker != nil {
		a.QueryWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MySQL != nil {
		sqlDB, err := a.MySQL.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
