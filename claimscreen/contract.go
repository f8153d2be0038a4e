package claimscreen

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/ipfs-force-community/onet-airdrop/airdrop"
	"github.com/ipfs-force-community/onet-airdrop/connector"
)

// Connector obtains an account and signer for a connection method.
type Connector interface {
	Connect(ctx context.Context, method connector.Method) (*connector.Connection, error)
}

// Contract binds the claim contract to a signer. Binding performs no network call.
type Contract interface {
	Bind(signer airdrop.Signer) Handle
}

type Handle interface {
	HasClaimed(ctx context.Context, account common.Address) (bool, error)
	Claim(ctx context.Context) (Transaction, error)
}

type Transaction interface {
	Hash() common.Hash
	Wait(ctx context.Context) (*ethtypes.Receipt, error)
}

// FromContract adapts the on-chain contract client.
func FromContract(c *airdrop.Contract) Contract {
	return contractAdapter{c: c}
}

type contractAdapter struct {
	c *airdrop.Contract
}

func (a contractAdapter) Bind(signer airdrop.Signer) Handle {
	return handleAdapter{h: a.c.Bind(signer)}
}

type handleAdapter struct {
	h *airdrop.Handle
}

func (a handleAdapter) HasClaimed(ctx context.Context, account common.Address) (bool, error) {
	return a.h.HasClaimed(ctx, account)
}

func (a handleAdapter) Claim(ctx context.Context) (Transaction, error) {
	tx, err := a.h.Claim(ctx)
	if err != nil {
		return nil, err
	}
	return tx, nil
}
