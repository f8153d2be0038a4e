package connector

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
)

// RelayStream is the part of the wallet relay the connector talks to.
type RelayStream interface {
	HasWallets(ctx context.Context) bool
	RequestAccounts(ctx context.Context, origin string) ([]common.Address, error)
	WalletSignTx(ctx context.Context, signer common.Address, tx *ethtypes.Transaction, chainID *big.Int) (*ethtypes.Transaction, error)
}

var _ WalletConnector = (*RelayConnector)(nil)

// RelayConnector is the RelayBased strategy: a remote wallet reached through the relay.
type RelayConnector struct {
	stream RelayStream
	origin string
}

func NewRelayConnector(stream RelayStream, origin string) *RelayConnector {
	return &RelayConnector{stream: stream, origin: origin}
}

func (r *RelayConnector) Connect(ctx context.Context) (*Connection, error) {
	if r.stream == nil || !r.stream.HasWallets(ctx) {
		return nil, unavailable(RelayBased, "no wallet connected to relay")
	}

	accounts, err := r.stream.RequestAccounts(ctx, r.origin)
	if err != nil {
		return nil, &Error{Method: RelayBased, Err: err}
	}
	if len(accounts) == 0 {
		return nil, &Error{Method: RelayBased, Err: errors.New("wallet exposed no account")}
	}

	return &Connection{
		Method:  RelayBased,
		Address: accounts[0],
		Signer:  &relaySigner{stream: r.stream, addr: accounts[0]},
	}, nil
}

type relaySigner struct {
	stream RelayStream
	addr   common.Address
}

func (s *relaySigner) Address() common.Address {
	return s.addr
}

func (s *relaySigner) SignTx(ctx context.Context, tx *ethtypes.Transaction, chainID *big.Int) (*ethtypes.Transaction, error) {
	return s.stream.WalletSignTx(ctx, s.addr, tx, chainID)
}
