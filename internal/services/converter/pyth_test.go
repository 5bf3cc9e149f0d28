package converter

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/lotto-treasury/internal/domain"
)

type fakeFetcher struct {
	accounts map[solana.PublicKey][]byte
	calls    int
	err      error
}

func (f *fakeFetcher) GetAccountInfo(_ context.Context, account solana.PublicKey) (*rpc.GetAccountInfoResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	data, ok := f.accounts[account]
	if !ok {
		return nil, rpc.ErrNotFound
	}
	return &rpc.GetAccountInfoResult{
		Value: &rpc.Account{Data: rpc.DataBytesOrJSONFromBytes(data)},
	}, nil
}

func encodePriceAccount(t *testing.T, account PythPriceAccount) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	require.NoError(t, bin.NewBinEncoder(buf).Encode(&account))
	return buf.Bytes()
}

func samplePriceAccount(price int64, expo int32, publish time.Time) PythPriceAccount {
	return PythPriceAccount{
		Magic:       pythMagic,
		Version:     pythVersion2,
		AccountType: pythAccountTypePrice,
		Size:        240,
		PriceType:   1,
		Exponent:    expo,
		Timestamp:   publish.Unix(),
		Aggregate: PythPriceInfo{
			Price:  price,
			Conf:   1000,
			Status: pythStatusTrading,
		},
	}
}

func TestDecodePythPriceAccount(t *testing.T) {
	publish := time.Unix(1_700_000_000, 0)
	data := encodePriceAccount(t, samplePriceAccount(15_384_615_384, -8, publish))
	require.Len(t, data, 240)

	account, err := DecodePythPriceAccount(data)
	require.NoError(t, err)
	require.Equal(t, int64(15_384_615_384), account.Aggregate.Price)
	require.Equal(t, int32(-8), account.Exponent)
	require.Equal(t, publish.Unix(), account.Timestamp)

	bad := samplePriceAccount(1, -8, publish)
	bad.Magic = 0xdeadbeef
	_, err = DecodePythPriceAccount(encodePriceAccount(t, bad))
	require.ErrorIs(t, err, domain.ErrInvalidQuote)

	product := samplePriceAccount(1, -8, publish)
	product.AccountType = 2
	_, err = DecodePythPriceAccount(encodePriceAccount(t, product))
	require.ErrorIs(t, err, domain.ErrInvalidQuote)

	_, err = DecodePythPriceAccount(data[:100])
	require.ErrorIs(t, err, domain.ErrInvalidQuote)
}

func TestPythPriceSource_GetQuote(t *testing.T) {
	feed := solana.NewWallet().PublicKey()
	publish := time.Unix(1_700_000_000, 0)
	fetcher := &fakeFetcher{accounts: map[solana.PublicKey][]byte{
		feed: encodePriceAccount(t, samplePriceAccount(15_000_000_000, -8, publish)),
	}}
	src := NewPythPriceSource(fetcher)

	quote, err := src.GetQuote(context.Background(), domain.Asset{Symbol: "SOL", Feed: feed})
	require.NoError(t, err)
	require.True(t, quote.Value.Equal(decimal.NewFromInt(150)))
	require.Equal(t, domain.BasisCommonPerAsset, quote.Basis)
	require.Equal(t, publish, quote.PublishTime)
	require.Equal(t, feed.String(), quote.Feed)
}

func TestPythPriceSource_Rejects(t *testing.T) {
	feed := solana.NewWallet().PublicKey()
	publish := time.Unix(1_700_000_000, 0)
	halted := samplePriceAccount(15_000_000_000, -8, publish)
	halted.Aggregate.Status = 0

	fetcher := &fakeFetcher{accounts: map[solana.PublicKey][]byte{
		feed: encodePriceAccount(t, halted),
	}}
	src := NewPythPriceSource(fetcher)

	_, err := src.GetQuote(context.Background(), domain.Asset{Symbol: "SOL", Feed: feed})
	require.ErrorIs(t, err, domain.ErrInvalidQuote)

	_, err = src.GetQuote(context.Background(), domain.Asset{Symbol: "SOL"})
	require.ErrorIs(t, err, domain.ErrUnknownAsset)

	fetcher.err = errors.New("connection refused")
	_, err = src.GetQuote(context.Background(), domain.Asset{Symbol: "SOL", Feed: feed})
	require.ErrorIs(t, err, domain.ErrInvalidQuote)
}

func TestPythQuote_StaleThroughConverter(t *testing.T) {
	feed := solana.NewWallet().PublicKey()
	fetcher := &fakeFetcher{accounts: map[solana.PublicKey][]byte{
		feed: encodePriceAccount(t, samplePriceAccount(15_000_000_000, -8, testNow.Add(-2*time.Minute))),
	}}
	quote, err := NewPythPriceSource(fetcher).GetQuote(context.Background(), domain.Asset{Symbol: "SOL", Feed: feed})
	require.NoError(t, err)

	_, err = newTestConverter(false).Convert(1, quote, oracleQuote("TOKEN1", "0.5"))
	require.ErrorIs(t, err, domain.ErrStaleQuote)
}
