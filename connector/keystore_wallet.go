package connector

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/ipfs-force-community/onet-airdrop/types"
)

// ApproveFunc decides whether origin may see the wallet accounts.
type ApproveFunc func(ctx context.Context, origin string) bool

// AutoApprove accepts every connection request.
func AutoApprove(context.Context, string) bool { return true }

var _ types.IWalletHandler = (*KeystoreWallet)(nil)

// KeystoreWallet serves a keystore to the relay from a remote host.
type KeystoreWallet struct {
	ks      *keystore.KeyStore
	pass    string
	approve ApproveFunc
}

func NewKeystoreWallet(ks *keystore.KeyStore, passphrase string, approve ApproveFunc) *KeystoreWallet {
	if approve == nil {
		approve = AutoApprove
	}
	return &KeystoreWallet{ks: ks, pass: passphrase, approve: approve}
}

func (w *KeystoreWallet) WalletList(ctx context.Context) ([]common.Address, error) {
	accs := w.ks.Accounts()
	addrs := make([]common.Address, 0, len(accs))
	for _, acc := range accs {
		addrs = append(addrs, acc.Address)
	}
	return addrs, nil
}

func (w *KeystoreWallet) WalletSign(ctx context.Context, signer common.Address, toSign []byte) ([]byte, error) {
	acc, err := w.ks.Find(accounts.Account{Address: signer})
	if err != nil {
		return nil, fmt.Errorf("address %s not found: %w", signer, err)
	}
	return w.ks.SignHashWithPassphrase(acc, w.pass, accounts.TextHash(toSign))
}

func (w *KeystoreWallet) RequestAccounts(ctx context.Context, origin string) ([]common.Address, error) {
	if !w.approve(ctx, origin) {
		return nil, fmt.Errorf("user rejected the request")
	}
	return w.WalletList(ctx)
}

func (w *KeystoreWallet) WalletSignTx(ctx context.Context, signer common.Address, tx *ethtypes.Transaction, chainID *big.Int) (*ethtypes.Transaction, error) {
	acc, err := w.ks.Find(accounts.Account{Address: signer})
	if err != nil {
		return nil, fmt.Errorf("address %s not found: %w", signer, err)
	}
	return w.ks.SignTxWithPassphrase(acc, w.pass, tx, chainID)
}
