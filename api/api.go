package api

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/ipfs-force-community/onet-airdrop/claimscreen"
	"github.com/ipfs-force-community/onet-airdrop/types"
	"github.com/ipfs-force-community/onet-airdrop/walletevent"
)

// Namespace of the json-rpc methods served at /rpc/v0.
const Namespace = "Gateway"

type IGateway interface {
	IWalletEvent
	ISession
	IProxy
	ICommon
}

type IWalletEvent interface {
	ListWalletInfo(ctx context.Context) ([]*types.WalletDetail, error)                      //perm:admin
	ListWalletInfoByWallet(ctx context.Context, wallet string) (*types.WalletDetail, error) //perm:admin

	ResponseWalletEvent(ctx context.Context, resp *types.ResponseEvent) error                                            //perm:sign
	ListenWalletEvent(ctx context.Context, policy *walletevent.WalletRegisterPolicy) (<-chan *types.RequestEvent, error) //perm:sign
	AddNewAddress(ctx context.Context, channelID uuid.UUID, newAddrs []common.Address) error                            //perm:sign
	RemoveAddress(ctx context.Context, channelID uuid.UUID, newAddrs []common.Address) error                            //perm:sign
}

// SessionResult is the session after an operation settled, with the
// notifications it produced.
type SessionResult struct {
	View          claimscreen.View
	Notifications []claimscreen.Notification
}

type ISession interface {
	SessionView(ctx context.Context) (*claimscreen.View, error)                //perm:read
	SessionConnect(ctx context.Context, method string) (*SessionResult, error) //perm:admin
	SessionClaim(ctx context.Context) (*SessionResult, error)                  //perm:admin
	SessionCancel(ctx context.Context) (bool, error)                           //perm:admin
	HasClaimed(ctx context.Context, account common.Address) (bool, error)      //perm:read
}

type IProxy interface {
	RegisterReverse(ctx context.Context, chainID uint64, address string) error //perm:admin
}

type ICommon interface {
	Version(ctx context.Context) (string, error) //perm:read
}

var _ IGateway = (*GatewayStruct)(nil)

// GatewayStruct is both the json-rpc client of IGateway and the permission
// checked facade registered on the server.
type GatewayStruct struct {
	Internal struct {
		ListWalletInfo         func(ctx context.Context) ([]*types.WalletDetail, error)              `perm:"admin"`
		ListWalletInfoByWallet func(ctx context.Context, wallet string) (*types.WalletDetail, error) `perm:"admin"`

		ResponseWalletEvent func(ctx context.Context, resp *types.ResponseEvent) error                                              `perm:"sign"`
		ListenWalletEvent   func(ctx context.Context, policy *walletevent.WalletRegisterPolicy) (<-chan *types.RequestEvent, error) `perm:"sign"`
		AddNewAddress       func(ctx context.Context, channelID uuid.UUID, newAddrs []common.Address) error                         `perm:"sign"`
		RemoveAddress       func(ctx context.Context, channelID uuid.UUID, newAddrs []common.Address) error                         `perm:"sign"`

		SessionView    func(ctx context.Context) (*claimscreen.View, error)             `perm:"read"`
		SessionConnect func(ctx context.Context, method string) (*SessionResult, error) `perm:"admin"`
		SessionClaim   func(ctx context.Context) (*SessionResult, error)                `perm:"admin"`
		SessionCancel  func(ctx context.Context) (bool, error)                          `perm:"admin"`
		HasClaimed     func(ctx context.Context, account common.Address) (bool, error)  `perm:"read"`

		RegisterReverse func(ctx context.Context, chainID uint64, address string) error `perm:"admin"`

		Version func(ctx context.Context) (string, error) `perm:"read"`
	}
}

func (s *GatewayStruct) ListWalletInfo(ctx context.Context) ([]*types.WalletDetail, error) {
	return s.Internal.ListWalletInfo(ctx)
}

func (s *GatewayStruct) ListWalletInfoByWallet(ctx context.Context, wallet string) (*types.WalletDetail, error) {
	return s.Internal.ListWalletInfoByWallet(ctx, wallet)
}

func (s *GatewayStruct) ResponseWalletEvent(ctx context.Context, resp *types.ResponseEvent) error {
	return s.Internal.ResponseWalletEvent(ctx, resp)
}

func (s *GatewayStruct) ListenWalletEvent(ctx context.Context, policy *walletevent.WalletRegisterPolicy) (<-chan *types.RequestEvent, error) {
	return s.Internal.ListenWalletEvent(ctx, policy)
}

func (s *GatewayStruct) AddNewAddress(ctx context.Context, channelID uuid.UUID, newAddrs []common.Address) error {
	return s.Internal.AddNewAddress(ctx, channelID, newAddrs)
}

func (s *GatewayStruct) RemoveAddress(ctx context.Context, channelID uuid.UUID, newAddrs []common.Address) error {
	return s.Internal.RemoveAddress(ctx, channelID, newAddrs)
}

func (s *GatewayStruct) SessionView(ctx context.Context) (*claimscreen.View, error) {
	return s.Internal.SessionView(ctx)
}

func (s *GatewayStruct) SessionConnect(ctx context.Context, method string) (*SessionResult, error) {
	return s.Internal.SessionConnect(ctx, method)
}

func (s *GatewayStruct) SessionClaim(ctx context.Context) (*SessionResult, error) {
	return s.Internal.SessionClaim(ctx)
}

func (s *GatewayStruct) SessionCancel(ctx context.Context) (bool, error) {
	return s.Internal.SessionCancel(ctx)
}

func (s *GatewayStruct) HasClaimed(ctx context.Context, account common.Address) (bool, error) {
	return s.Internal.HasClaimed(ctx, account)
}

func (s *GatewayStruct) RegisterReverse(ctx context.Context, chainID uint64, address string) error {
	return s.Internal.RegisterReverse(ctx, chainID, address)
}

func (s *GatewayStruct) Version(ctx context.Context) (string, error) {
	return s.Internal.Version(ctx)
}
