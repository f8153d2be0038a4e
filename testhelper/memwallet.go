package testhelper

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/ipfs-force-community/onet-airdrop/types"
)

var _ types.IWalletHandler = (*MemWallet)(nil)

// MemWallet is an in-memory relay wallet.
type MemWallet struct {
	lk     sync.Mutex
	keys   map[common.Address]*ecdsa.PrivateKey
	order  []common.Address
	fail   bool
	reject bool
}

func NewMemWallet() *MemWallet {
	return &MemWallet{
		lk:   sync.Mutex{},
		keys: make(map[common.Address]*ecdsa.PrivateKey),
	}
}

// SetFail makes every call fail with a mock error.
func (m *MemWallet) SetFail(ctx context.Context, fail bool) {
	m.lk.Lock()
	defer m.lk.Unlock()
	m.fail = fail
}

// SetReject makes the wallet user decline connection handshakes.
func (m *MemWallet) SetReject(reject bool) {
	m.lk.Lock()
	defer m.lk.Unlock()
	m.reject = reject
}

func (m *MemWallet) AddKey(ctx context.Context) (common.Address, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return common.Address{}, err
	}

	m.lk.Lock()
	defer m.lk.Unlock()
	addr := crypto.PubkeyToAddress(key.PublicKey)
	m.keys[addr] = key
	m.order = append(m.order, addr)
	return addr, nil
}

func (m *MemWallet) WalletList(ctx context.Context) ([]common.Address, error) {
	m.lk.Lock()
	defer m.lk.Unlock()
	if m.fail {
		return nil, fmt.Errorf("mock error")
	}
	return append([]common.Address(nil), m.order...), nil
}

func (m *MemWallet) WalletSign(ctx context.Context, signer common.Address, toSign []byte) ([]byte, error) {
	key, err := m.key(signer)
	if err != nil {
		return nil, err
	}
	return crypto.Sign(accounts.TextHash(toSign), key)
}

func (m *MemWallet) RequestAccounts(ctx context.Context, origin string) ([]common.Address, error) {
	m.lk.Lock()
	reject := m.reject
	m.lk.Unlock()
	if reject {
		return nil, fmt.Errorf("user rejected the request")
	}
	return m.WalletList(ctx)
}

func (m *MemWallet) WalletSignTx(ctx context.Context, signer common.Address, tx *ethtypes.Transaction, chainID *big.Int) (*ethtypes.Transaction, error) {
	key, err := m.key(signer)
	if err != nil {
		return nil, err
	}
	return ethtypes.SignTx(tx, ethtypes.LatestSignerForChainID(chainID), key)
}

// Signer exposes one key of the wallet as a direct transaction signer.
func (m *MemWallet) Signer(addr common.Address) *MemSigner {
	return &MemSigner{wallet: m, addr: addr}
}

func (m *MemWallet) key(signer common.Address) (*ecdsa.PrivateKey, error) {
	m.lk.Lock()
	defer m.lk.Unlock()
	if m.fail {
		return nil, fmt.Errorf("mock error")
	}
	key, ok := m.keys[signer]
	if !ok {
		return nil, fmt.Errorf("address %s not found", signer)
	}
	return key, nil
}

type MemSigner struct {
	wallet *MemWallet
	addr   common.Address
}

func (s *MemSigner) Address() common.Address {
	return s.addr
}

func (s *MemSigner) SignTx(ctx context.Context, tx *ethtypes.Transaction, chainID *big.Int) (*ethtypes.Transaction, error) {
	return s.wallet.WalletSignTx(ctx, s.addr, tx, chainID)
}
