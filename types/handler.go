package types

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
)

// IWalletHandler is implemented by the wallet side of a relay connection.
type IWalletHandler interface {
	// WalletList returns every address the wallet is willing to expose to the relay.
	WalletList(ctx context.Context) ([]common.Address, error)
	// WalletSign signs the EIP-191 text hash of toSign.
	WalletSign(ctx context.Context, signer common.Address, toSign []byte) ([]byte, error)
	// RequestAccounts is the connection handshake; returning an error rejects it.
	RequestAccounts(ctx context.Context, origin string) ([]common.Address, error)
	WalletSignTx(ctx context.Context, signer common.Address, tx *ethtypes.Transaction, chainID *big.Int) (*ethtypes.Transaction, error)
}
