package blockchain

import (
	"context"
	"testing"
	"time"

	pb "github.com/andrew-solarstorm/yellowstone-grpc-client-go/proto"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/lotto-treasury/internal/services"
)

func newTestCache(now time.Time) *BlockhashCacheService {
	svc := &BlockhashCacheService{now: func() time.Time { return now }}
	svc.logger = services.NewServiceLogger(svc)
	return svc
}

func TestBlockhashCache_ServesFreshValue(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	svc := newTestCache(now)

	hash := solana.Hash{1, 2, 3}
	svc.store(hash, 1150, 77)

	got, lastValid, err := svc.GetBlockhash(context.Background())
	require.NoError(t, err)
	require.Equal(t, hash, got)
	require.Equal(t, uint64(1150), lastValid)
}

func TestBlockhashCache_IgnoresUpdatesWithoutBlockMeta(t *testing.T) {
	svc := newTestCache(time.Now())

	require.NoError(t, svc.handleBlockMeta(&pb.SubscribeUpdate{}))
	require.Nil(t, svc.current)
}
