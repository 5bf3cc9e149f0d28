package persistence

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/lotto-treasury/internal/config"
	"github.com/hxuan190/lotto-treasury/internal/domain"
)

const REPOSITORY_SERVICE = "repository-service"

// Store is the persistence surface shared by the allocator and exchange
// services.
type Store interface {
	LoadRound(ctx context.Context, id uint64) (*domain.Round, error)
	SaveRound(ctx context.Context, round *domain.Round) error
	ListRounds(ctx context.Context) ([]*domain.Round, error)
	SaveConversion(ctx context.Context, result *domain.ConversionResult) error
	ListConversions(ctx context.Context) ([]*domain.ConversionResult, error)
}

var (
	_ Store = (*Storage)(nil)
	_ Store = (*MemoryStore)(nil)
)

// Repository owns the store lifecycle. With persistence disabled it falls
// back to an in-memory store.
type Repository struct {
	container.BaseDIInstance

	store   Store
	storage *Storage
}

func (r *Repository) ID() string {
	return REPOSITORY_SERVICE
}

func (r *Repository) Configure(c container.IContainer) error {
	conf := c.GetConfig(config.TREASURY_CONFIG_KEY).(*config.TreasuryConfig)
	if conf == nil {
		return errors.New("invalid treasury config")
	}

	if !conf.PersistenceEnabled {
		log.Warn().Msg("[repository] persistence disabled, rounds are kept in memory")
		r.store = NewMemoryStore()
		return nil
	}

	storage, err := NewStorage(conf.DBPath)
	if err != nil {
		return err
	}
	r.storage = storage
	r.store = storage
	return nil
}

func (r *Repository) Stop() error {
	if r.storage != nil {
		return r.storage.Close()
	}
	return nil
}

func (r *Repository) Storage() Store {
	return r.store
}
