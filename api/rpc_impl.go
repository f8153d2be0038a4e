package api

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ipfs-force-community/onet-airdrop/claimscreen"
	"github.com/ipfs-force-community/onet-airdrop/connector"
	"github.com/ipfs-force-community/onet-airdrop/proxy"
	"github.com/ipfs-force-community/onet-airdrop/types"
	"github.com/ipfs-force-community/onet-airdrop/version"
	"github.com/ipfs-force-community/onet-airdrop/walletevent"
)

// ClaimStatus answers read-only claim queries without a signer.
type ClaimStatus interface {
	HasClaimed(ctx context.Context, account common.Address) (bool, error)
}

var _ IGateway = (*GatewayAPIImpl)(nil)

type GatewayAPIImpl struct {
	walletevent.IWalletServiceProvider
	we *walletevent.WalletEventStream

	screen *claimscreen.Screen
	inbox  *claimscreen.Inbox
	status ClaimStatus
	proxy  proxy.IProxy
}

func NewGatewayAPIImpl(we *walletevent.WalletEventStream, screen *claimscreen.Screen, status ClaimStatus, p proxy.IProxy) *GatewayAPIImpl {
	return &GatewayAPIImpl{
		IWalletServiceProvider: we,
		we:                     we,
		screen:                 screen,
		inbox:                  screen.NewInbox(),
		status:                 status,
		proxy:                  p,
	}
}

func (g *GatewayAPIImpl) ListWalletInfo(ctx context.Context) ([]*types.WalletDetail, error) {
	return g.we.ListWalletInfo(ctx)
}

func (g *GatewayAPIImpl) ListWalletInfoByWallet(ctx context.Context, wallet string) (*types.WalletDetail, error) {
	return g.we.ListWalletInfoByWallet(ctx, wallet)
}

func (g *GatewayAPIImpl) SessionView(ctx context.Context) (*claimscreen.View, error) {
	view := g.screen.View()
	return &view, nil
}

func (g *GatewayAPIImpl) SessionConnect(ctx context.Context, method string) (*SessionResult, error) {
	m, err := connector.ParseMethod(method)
	if err != nil {
		return nil, err
	}
	g.inbox.Take()
	if err := g.screen.Connect(ctx, m); err != nil {
		return nil, err
	}
	return g.settled(), nil
}

func (g *GatewayAPIImpl) SessionClaim(ctx context.Context) (*SessionResult, error) {
	g.inbox.Take()
	if err := g.screen.Claim(ctx); err != nil {
		return nil, err
	}
	return g.settled(), nil
}

func (g *GatewayAPIImpl) SessionCancel(ctx context.Context) (bool, error) {
	return g.screen.Cancel(), nil
}

// settled reports the session with the notifications raised since the call
// started. The page and the terminal keep their own copies.
func (g *GatewayAPIImpl) settled() *SessionResult {
	return &SessionResult{
		View:          g.screen.View(),
		Notifications: g.inbox.Take(),
	}
}

func (g *GatewayAPIImpl) HasClaimed(ctx context.Context, account common.Address) (bool, error) {
	return g.status.HasClaimed(ctx, account)
}

func (g *GatewayAPIImpl) RegisterReverse(ctx context.Context, chainID uint64, address string) error {
	if chainID == 0 {
		return fmt.Errorf("chain id must not be zero")
	}
	return g.proxy.RegisterReverseByAddr(proxy.ChainHost(chainID), address)
}

func (g *GatewayAPIImpl) Version(ctx context.Context) (string, error) {
	return version.UserVersion, nil
}
