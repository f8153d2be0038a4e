package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"

	"github.com/ipfs-force-community/onet-airdrop/types"
)

type walletListerFunc func(ctx context.Context) ([]*types.WalletDetail, error)

func (f walletListerFunc) ListWalletInfo(ctx context.Context) ([]*types.WalletDetail, error) {
	return f(ctx)
}

func TestRecordMetricsLoop(t *testing.T) {
	addr1, addr2 := common.HexToAddress("0x01"), common.HexToAddress("0x02")
	called := make(chan struct{}, 8)
	lister := walletListerFunc(func(ctx context.Context) ([]*types.WalletDetail, error) {
		select {
		case called <- struct{}{}:
		default:
		}
		return []*types.WalletDetail{
			{Account: "a", ConnectStates: []types.ConnectState{{Addrs: []common.Address{addr1}}, {Addrs: []common.Address{addr1, addr2}}}},
			{Account: "b", ConnectStates: []types.ConnectState{{Addrs: []common.Address{addr2}}}},
		}, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		recordMetricsLoop(ctx, lister, time.Millisecond)
		close(done)
	}()

	select {
	case <-called:
	case <-time.After(time.Second):
		t.Fatal("wallet info never listed")
	}
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("record loop did not stop")
	}
}

func TestRecordWalletConnectionInfoError(t *testing.T) {
	recordWalletConnectionInfo(context.Background(), walletListerFunc(func(ctx context.Context) ([]*types.WalletDetail, error) {
		return nil, errors.New("relay down")
	}))
}

func TestScreenViews(t *testing.T) {
	ctx, err := tag.New(context.Background(), tag.Upsert(MethodKey, "relay"), tag.Upsert(ResultKey, ResultSuccess))
	require.NoError(t, err)
	stats.Record(ctx, ScreenClaim.M(1))

	rows, err := view.RetrieveData(screenClaimView.Name)
	require.NoError(t, err)
	require.NotEmpty(t, rows)
}
