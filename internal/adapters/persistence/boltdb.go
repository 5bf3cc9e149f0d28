package persistence

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	boltdb "github.com/andrew-solarstorm/bolt-db"
	"github.com/bytedance/sonic"
	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/hxuan190/lotto-treasury/internal/domain"
)

const (
	RoundsBucket      = "rounds"
	ConversionsBucket = "conversions"

	DefaultDBPath = "./data/treasury.db"
)

type StoredRound struct {
	ID          uint64            `json:"id"`
	Pools       map[string]uint64 `json:"pools"`
	TicketsSold uint64            `json:"ticketsSold"`
	CreatedAt   int64             `json:"createdAt"`
	UpdatedAt   int64             `json:"updatedAt"`
}

type StoredQuote struct {
	Feed        string `json:"feed"`
	Value       string `json:"value"`
	Basis       uint8  `json:"basis"`
	PublishTime int64  `json:"publishTime"`
}

type StoredConversion struct {
	ID          string      `json:"id"`
	AmountIn    uint64      `json:"amountIn"`
	AmountOut   uint64      `json:"amountOut"`
	Factor      string      `json:"factor"`
	InputQuote  StoredQuote `json:"inputQuote"`
	OutputQuote StoredQuote `json:"outputQuote"`
	Recipient   string      `json:"recipient"`
	Signature   string      `json:"signature,omitempty"`
	ExecutedAt  int64       `json:"executedAt"`
}

type Storage struct {
	db     *boltdb.BoltDatabase
	dbPath string
}

func NewStorage(dbPath string) (*Storage, error) {
	if dbPath == "" {
		dbPath = DefaultDBPath
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	db := boltdb.NewBoltDatabase(dbPath)
	if db == nil {
		return nil, fmt.Errorf("failed to open database at %s", dbPath)
	}

	log.Info().Str("path", dbPath).Msg("[treasuryStorage] opened database")

	return &Storage{
		db:     db,
		dbPath: dbPath,
	}, nil
}

func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func roundKey(id uint64) []byte {
	return []byte(fmt.Sprintf("%020d", id))
}

func (s *Storage) SaveRound(_ context.Context, round *domain.Round) error {
	data, err := sonic.Marshal(roundToStored(round))
	if err != nil {
		return fmt.Errorf("failed to marshal round: %w", err)
	}
	return s.db.Set(RoundsBucket, roundKey(round.ID), data)
}

func (s *Storage) LoadRound(_ context.Context, id uint64) (*domain.Round, error) {
	value, err := s.db.Get(RoundsBucket, roundKey(id))
	if err != nil {
		return nil, fmt.Errorf("failed to load round %d: %w", id, err)
	}
	if value == nil {
		return nil, fmt.Errorf("%w: %d", domain.ErrRoundNotFound, id)
	}

	// Bolt values are only valid inside the read transaction.
	var stored StoredRound
	if err := sonic.Unmarshal(bytes.Clone(value), &stored); err != nil {
		return nil, fmt.Errorf("failed to unmarshal round %d: %w", id, err)
	}
	return storedToRound(&stored)
}

func (s *Storage) ListRounds(_ context.Context) ([]*domain.Round, error) {
	data, err := s.db.List(RoundsBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to list rounds: %w", err)
	}

	rounds := make([]*domain.Round, 0, len(data))
	for key, value := range data {
		var stored StoredRound
		if err := sonic.Unmarshal(bytes.Clone(value), &stored); err != nil {
			log.Error().Str("key", key).Err(err).Msg("[treasuryStorage] failed to unmarshal round, skipping")
			continue
		}
		round, err := storedToRound(&stored)
		if err != nil {
			log.Error().Str("key", key).Err(err).Msg("[treasuryStorage] failed to convert stored round, skipping")
			continue
		}
		rounds = append(rounds, round)
	}
	sort.Slice(rounds, func(i, j int) bool { return rounds[i].ID < rounds[j].ID })
	return rounds, nil
}

func (s *Storage) SaveConversion(_ context.Context, result *domain.ConversionResult) error {
	data, err := sonic.Marshal(conversionToStored(result))
	if err != nil {
		return fmt.Errorf("failed to marshal conversion: %w", err)
	}
	return s.db.Set(ConversionsBucket, []byte(result.ID), data)
}

func (s *Storage) ListConversions(_ context.Context) ([]*domain.ConversionResult, error) {
	data, err := s.db.List(ConversionsBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversions: %w", err)
	}

	out := make([]*domain.ConversionResult, 0, len(data))
	for key, value := range data {
		var stored StoredConversion
		if err := sonic.Unmarshal(bytes.Clone(value), &stored); err != nil {
			log.Error().Str("key", key).Err(err).Msg("[treasuryStorage] failed to unmarshal conversion, skipping")
			continue
		}
		result, err := storedToConversion(&stored)
		if err != nil {
			log.Error().Str("key", key).Err(err).Msg("[treasuryStorage] failed to convert stored conversion, skipping")
			continue
		}
		out = append(out, result)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExecutedAt.Before(out[j].ExecutedAt) })
	return out, nil
}

func roundToStored(round *domain.Round) *StoredRound {
	return &StoredRound{
		ID:          round.ID,
		Pools:       round.Pools.Map(),
		TicketsSold: round.TicketsSold,
		CreatedAt:   round.CreatedAt.UnixMilli(),
		UpdatedAt:   round.UpdatedAt.UnixMilli(),
	}
}

func storedToRound(stored *StoredRound) (*domain.Round, error) {
	round := &domain.Round{
		ID:          stored.ID,
		TicketsSold: stored.TicketsSold,
		CreatedAt:   time.UnixMilli(stored.CreatedAt),
		UpdatedAt:   time.UnixMilli(stored.UpdatedAt),
	}
	for name, value := range stored.Pools {
		key, ok := domain.ParsePoolKey(name)
		if !ok {
			return nil, fmt.Errorf("unknown pool %q in round %d", name, stored.ID)
		}
		round.Pools[key] = value
	}
	return round, nil
}

func quoteToStored(q domain.RateQuote) StoredQuote {
	return StoredQuote{
		Feed:        q.Feed,
		Value:       q.Value.String(),
		Basis:       uint8(q.Basis),
		PublishTime: q.PublishTime.UnixMilli(),
	}
}

func storedToQuote(stored StoredQuote) (domain.RateQuote, error) {
	value, err := decimal.NewFromString(stored.Value)
	if err != nil {
		return domain.RateQuote{}, fmt.Errorf("invalid rate %q: %w", stored.Value, err)
	}
	return domain.RateQuote{
		Feed:        stored.Feed,
		Value:       value,
		Basis:       domain.RateBasis(stored.Basis),
		PublishTime: time.UnixMilli(stored.PublishTime),
	}, nil
}

func conversionToStored(result *domain.ConversionResult) *StoredConversion {
	signature := ""
	if result.Signature != (solana.Signature{}) {
		signature = result.Signature.String()
	}
	return &StoredConversion{
		ID:          result.ID,
		AmountIn:    result.AmountIn,
		AmountOut:   result.AmountOut,
		Factor:      result.Factor.String(),
		InputQuote:  quoteToStored(result.InputQuote),
		OutputQuote: quoteToStored(result.OutputQuote),
		Recipient:   result.Recipient.String(),
		Signature:   signature,
		ExecutedAt:  result.ExecutedAt.UnixMilli(),
	}
}

func storedToConversion(stored *StoredConversion) (*domain.ConversionResult, error) {
	factor, err := decimal.NewFromString(stored.Factor)
	if err != nil {
		return nil, fmt.Errorf("invalid factor: %w", err)
	}
	inputQuote, err := storedToQuote(stored.InputQuote)
	if err != nil {
		return nil, err
	}
	outputQuote, err := storedToQuote(stored.OutputQuote)
	if err != nil {
		return nil, err
	}
	recipient, err := solana.PublicKeyFromBase58(stored.Recipient)
	if err != nil {
		return nil, fmt.Errorf("invalid recipient: %w", err)
	}

	var signature solana.Signature
	if stored.Signature != "" {
		signature, err = solana.SignatureFromBase58(stored.Signature)
		if err != nil {
			return nil, fmt.Errorf("invalid signature: %w", err)
		}
	}

	return &domain.ConversionResult{
		ID:          stored.ID,
		AmountIn:    stored.AmountIn,
		AmountOut:   stored.AmountOut,
		Factor:      factor,
		InputQuote:  inputQuote,
		OutputQuote: outputQuote,
		Recipient:   recipient,
		Signature:   signature,
		ExecutedAt:  time.UnixMilli(stored.ExecutedAt),
	}, nil
}
