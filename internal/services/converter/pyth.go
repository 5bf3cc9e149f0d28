package converter

import (
	"context"
	"fmt"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"github.com/hxuan190/lotto-treasury/internal/domain"
)

const (
	pythMagic            uint32 = 0xa1b2c3d4
	pythVersion2         uint32 = 2
	pythAccountTypePrice uint32 = 3
	pythStatusTrading    uint32 = 1
)

type PythPriceInfo struct {
	Price   int64
	Conf    uint64
	Status  uint32
	CorpAct uint32
	PubSlot uint64
}

type PythEma struct {
	Val   int64
	Numer int64
	Denom int64
}

// PythPriceAccount is the fixed-size head of a v2 price account. The
// publisher component array that follows it is not decoded.
type PythPriceAccount struct {
	Magic         uint32
	Version       uint32
	AccountType   uint32
	Size          uint32
	PriceType     uint32
	Exponent      int32
	NumComponents uint32
	NumQuoters    uint32
	LastSlot      uint64
	ValidSlot     uint64
	EmaPrice      PythEma
	EmaConf       PythEma
	Timestamp     int64
	MinPublishers uint8
	Drv2          uint8
	Drv3          uint16
	Drv4          uint32
	Product       solana.PublicKey
	Next          solana.PublicKey
	PrevSlot      uint64
	PrevPrice     int64
	PrevConf      uint64
	PrevTimestamp int64
	Aggregate     PythPriceInfo
}

func DecodePythPriceAccount(data []byte) (*PythPriceAccount, error) {
	var account PythPriceAccount
	if err := bin.NewBinDecoder(data).Decode(&account); err != nil {
		return nil, fmt.Errorf("%w: decode price account: %v", domain.ErrInvalidQuote, err)
	}
	if account.Magic != pythMagic {
		return nil, fmt.Errorf("%w: bad magic %#x", domain.ErrInvalidQuote, account.Magic)
	}
	if account.Version != pythVersion2 {
		return nil, fmt.Errorf("%w: unsupported version %d", domain.ErrInvalidQuote, account.Version)
	}
	if account.AccountType != pythAccountTypePrice {
		return nil, fmt.Errorf("%w: account type %d is not a price account", domain.ErrInvalidQuote, account.AccountType)
	}
	return &account, nil
}

// PythPriceSource reads aggregate prices from Pyth price accounts. The
// prices are USD per unit of the asset.
type PythPriceSource struct {
	client  AccountFetcher
	timeout time.Duration
}

func NewPythPriceSource(client AccountFetcher) *PythPriceSource {
	return &PythPriceSource{client: client, timeout: 5 * time.Second}
}

func (s *PythPriceSource) GetQuote(ctx context.Context, asset domain.Asset) (domain.RateQuote, error) {
	if asset.Feed.IsZero() {
		return domain.RateQuote{}, fmt.Errorf("%w: %s has no price feed", domain.ErrUnknownAsset, asset.Symbol)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	info, err := s.client.GetAccountInfo(timeoutCtx, asset.Feed)
	if err != nil {
		return domain.RateQuote{}, fmt.Errorf("%w: fetch %s: %v", domain.ErrInvalidQuote, asset.Feed, err)
	}
	if info == nil || info.Value == nil || info.Value.Data == nil {
		return domain.RateQuote{}, fmt.Errorf("%w: feed %s not found", domain.ErrInvalidQuote, asset.Feed)
	}

	account, err := DecodePythPriceAccount(info.Value.Data.GetBinary())
	if err != nil {
		return domain.RateQuote{}, err
	}
	if account.Aggregate.Status != pythStatusTrading {
		return domain.RateQuote{}, fmt.Errorf("%w: feed %s status %d is not trading", domain.ErrInvalidQuote, asset.Feed, account.Aggregate.Status)
	}

	return domain.RateQuote{
		Feed:        asset.Feed.String(),
		Value:       decimal.New(account.Aggregate.Price, account.Exponent),
		Basis:       domain.BasisCommonPerAsset,
		PublishTime: time.Unix(account.Timestamp, 0),
	}, nil
}
