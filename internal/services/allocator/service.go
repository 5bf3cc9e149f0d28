package allocator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/lotto-treasury/internal/adapters/persistence"
	"github.com/hxuan190/lotto-treasury/internal/common"
	"github.com/hxuan190/lotto-treasury/internal/config"
	"github.com/hxuan190/lotto-treasury/internal/domain"
	"github.com/hxuan190/lotto-treasury/internal/metrics"
	"github.com/hxuan190/lotto-treasury/internal/services"
)

const ALLOCATOR_SERVICE = "allocator-service"

// RoundStore persists rounds. LoadRound returns domain.ErrRoundNotFound for
// unknown ids.
type RoundStore interface {
	LoadRound(ctx context.Context, id uint64) (*domain.Round, error)
	SaveRound(ctx context.Context, round *domain.Round) error
}

// TicketReceipt is the outcome of one ticket purchase.
type TicketReceipt struct {
	Round     *domain.Round
	Breakdown *domain.AllocationBreakdown
}

type Service struct {
	container.BaseDIInstance
	logger *services.ServiceLogger

	// mu serializes read-modify-write cycles on rounds.
	mu          sync.Mutex
	allocator   *FeeAllocator
	store       RoundStore
	ticketPrice uint64
	now         func() time.Time
}

func NewService(allocator *FeeAllocator, store RoundStore, ticketPrice uint64) *Service {
	svc := &Service{
		allocator:   allocator,
		store:       store,
		ticketPrice: ticketPrice,
		now:         time.Now,
	}
	svc.logger = services.NewServiceLogger(svc)
	return svc
}

func (svc *Service) ID() string {
	return ALLOCATOR_SERVICE
}

func (svc *Service) Configure(c container.IContainer) error {
	svc.logger = services.NewServiceLogger(svc)
	svc.now = time.Now

	conf := c.GetConfig(config.TREASURY_CONFIG_KEY).(*config.TreasuryConfig)
	if conf == nil {
		return errors.New("invalid treasury config")
	}

	tiers, err := ParseTierPercents(conf.TierPercents)
	if err != nil {
		return err
	}
	allocator, err := NewFeeAllocator(SplitTable{
		OperationsPct: conf.OperationsPct,
		JackpotPct:    conf.JackpotPct,
		ReferralPct:   conf.ReferralPct,
		Tiers:         tiers,
	})
	if err != nil {
		return err
	}

	// Reject a price/table pair that can never distribute exactly.
	if _, err := allocator.Breakdown(conf.TicketPrice); err != nil {
		return fmt.Errorf("ticket price %d incompatible with split table: %w", conf.TicketPrice, err)
	}

	svc.allocator = allocator
	svc.ticketPrice = conf.TicketPrice
	svc.store = c.Instance(persistence.REPOSITORY_SERVICE).(*persistence.Repository).Storage()
	return nil
}

func (svc *Service) TicketPrice() uint64 {
	return svc.ticketPrice
}

// Preview returns the split of price without touching any round. A zero
// price previews the configured ticket price.
func (svc *Service) Preview(price uint64) (*domain.AllocationBreakdown, error) {
	if price == 0 {
		price = svc.ticketPrice
	}
	return svc.allocator.Breakdown(price)
}

func (svc *Service) CreateRound(ctx context.Context, id uint64) (*domain.Round, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if _, err := svc.store.LoadRound(ctx, id); err == nil {
		return nil, fmt.Errorf("%w: %d", domain.ErrRoundExists, id)
	} else if !errors.Is(err, domain.ErrRoundNotFound) {
		return nil, err
	}

	now := svc.now()
	round := &domain.Round{ID: id, CreatedAt: now, UpdatedAt: now}
	if err := svc.store.SaveRound(ctx, round); err != nil {
		return nil, err
	}
	svc.logger.Info().Uint64("round", id).Msg("[allocatorService] round created")
	return round, nil
}

func (svc *Service) GetRound(ctx context.Context, id uint64) (*domain.Round, error) {
	return svc.store.LoadRound(ctx, id)
}

// BuyTicket splits the configured ticket price into the round's pools. The
// round is saved once, after the allocation and every addition succeeded;
// any failure leaves the stored round unchanged.
func (svc *Service) BuyTicket(ctx context.Context, roundID uint64) (*TicketReceipt, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	receipt, err := svc.buyTicket(ctx, roundID)
	if err != nil {
		metrics.TicketAllocations.WithLabelValues(allocationStatus(err)).Inc()
		svc.logger.Warn().Err(err).Uint64("round", roundID).Msg("[allocatorService] ticket allocation rejected")
		return nil, err
	}

	metrics.TicketAllocations.WithLabelValues("ok").Inc()
	for _, k := range domain.AllPoolKeys() {
		metrics.PoolAllocated.WithLabelValues(k.String()).Add(float64(receipt.Breakdown.Shares[k]))
	}
	svc.logger.Info().
		Uint64("round", roundID).
		Uint64("price", receipt.Breakdown.TicketPrice).
		Uint64("tickets_sold", receipt.Round.TicketsSold).
		Uint64("jackpot", receipt.Round.Pools[domain.PoolFiveBall]).
		Msg("[allocatorService] ticket allocated")
	return receipt, nil
}

func (svc *Service) buyTicket(ctx context.Context, roundID uint64) (*TicketReceipt, error) {
	round, err := svc.store.LoadRound(ctx, roundID)
	if err != nil {
		return nil, err
	}

	pools := round.Pools
	breakdown, err := svc.allocator.Allocate(svc.ticketPrice, &pools)
	if err != nil {
		return nil, err
	}
	sold, err := common.CheckedAdd("tickets sold", round.TicketsSold, 1)
	if err != nil {
		return nil, err
	}

	updated := *round
	updated.Pools = pools
	updated.TicketsSold = sold
	updated.UpdatedAt = svc.now()
	if err := svc.store.SaveRound(ctx, &updated); err != nil {
		return nil, err
	}
	return &TicketReceipt{Round: &updated, Breakdown: breakdown}, nil
}

func allocationStatus(err error) string {
	switch {
	case errors.Is(err, domain.ErrArithmeticOverflow):
		return "overflow"
	case errors.Is(err, domain.ErrDistributionMismatch):
		return "mismatch"
	case errors.Is(err, domain.ErrRoundNotFound):
		return "not_found"
	default:
		return "error"
	}
}
