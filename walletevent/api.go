package walletevent

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"

	"github.com/ipfs-force-community/onet-airdrop/types"
)

// IWalletEvent is what the gateway side uses to reach registered wallets.
type IWalletEvent interface {
	ListWalletInfo(ctx context.Context) ([]*types.WalletDetail, error)
	ListWalletInfoByWallet(ctx context.Context, wallet string) (*types.WalletDetail, error)

	HasWallets(ctx context.Context) bool
	WalletHas(ctx context.Context, addr common.Address) (bool, error)
	RequestAccounts(ctx context.Context, origin string) ([]common.Address, error)
	WalletSignTx(ctx context.Context, signer common.Address, tx *ethtypes.Transaction, chainID *big.Int) (*ethtypes.Transaction, error)
}

// IWalletServiceProvider is the relay surface a wallet process calls.
type IWalletServiceProvider interface {
	ResponseWalletEvent(ctx context.Context, resp *types.ResponseEvent) error
	ListenWalletEvent(ctx context.Context, policy *WalletRegisterPolicy) (<-chan *types.RequestEvent, error)
	AddNewAddress(ctx context.Context, channelID uuid.UUID, newAddrs []common.Address) error
	RemoveAddress(ctx context.Context, channelID uuid.UUID, newAddrs []common.Address) error
}

var (
	_ IWalletEvent           = (*WalletEventStream)(nil)
	_ IWalletServiceProvider = (*WalletEventStream)(nil)
	_ IWalletServiceProvider = (*WalletServiceProviderStruct)(nil)
)

// WalletServiceProviderStruct is the json-rpc client of IWalletServiceProvider.
type WalletServiceProviderStruct struct {
	Internal struct {
		ResponseWalletEvent func(ctx context.Context, resp *types.ResponseEvent) error                                  `perm:"sign"`
		ListenWalletEvent   func(ctx context.Context, policy *WalletRegisterPolicy) (<-chan *types.RequestEvent, error) `perm:"sign"`
		AddNewAddress       func(ctx context.Context, channelID uuid.UUID, newAddrs []common.Address) error             `perm:"sign"`
		RemoveAddress       func(ctx context.Context, channelID uuid.UUID, newAddrs []common.Address) error             `perm:"sign"`
	}
}

func (s *WalletServiceProviderStruct) ResponseWalletEvent(ctx context.Context, resp *types.ResponseEvent) error {
	return s.Internal.ResponseWalletEvent(ctx, resp)
}

func (s *WalletServiceProviderStruct) ListenWalletEvent(ctx context.Context, policy *WalletRegisterPolicy) (<-chan *types.RequestEvent, error) {
	return s.Internal.ListenWalletEvent(ctx, policy)
}

func (s *WalletServiceProviderStruct) AddNewAddress(ctx context.Context, channelID uuid.UUID, newAddrs []common.Address) error {
	return s.Internal.AddNewAddress(ctx, channelID, newAddrs)
}

func (s *WalletServiceProviderStruct) RemoveAddress(ctx context.Context, channelID uuid.UUID, newAddrs []common.Address) error {
	return s.Internal.RemoveAddress(ctx, channelID, newAddrs)
}
