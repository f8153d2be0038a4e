package metrics

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.opencensus.io/tag"

	"github.com/ipfs-force-community/onet-airdrop/types"
)

// WalletLister is the relay view the gauges are computed from.
type WalletLister interface {
	ListWalletInfo(ctx context.Context) ([]*types.WalletDetail, error)
}

func recordMetricsLoop(ctx context.Context, api WalletLister, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			recordWalletConnectionInfo(ctx, api)
		case <-ctx.Done():
			log.Infof("context done, stop record metrics")
			return
		}
	}
}

func recordWalletConnectionInfo(ctx context.Context, api WalletLister) {
	walletDetails, err := api.ListWalletInfo(ctx)
	if err != nil {
		log.Warnf("failed to list wallet info %v", err)
		return
	}

	var walletNum, connNum int64
	addrs := make(map[common.Address]struct{})
	for _, detail := range walletDetails {
		ctx, _ = tag.New(ctx, tag.Upsert(WalletAccountKey, detail.Account))
		walletNum++

		for _, conn := range detail.ConnectStates {
			connNum++
			for _, addr := range conn.Addrs {
				addrs[addr] = struct{}{}
			}
		}
	}

	WalletNum.Set(ctx, walletNum)
	WalletConnNum.Set(ctx, connNum)
	WalletAddressNum.Set(ctx, int64(len(addrs)))
}
