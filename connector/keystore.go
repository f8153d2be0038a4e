package connector

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"sync"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
)

// PassphraseFunc supplies the keystore passphrase when a connection is made.
type PassphraseFunc func() (string, error)

// EnvPassphrase reads the passphrase from the environment variable name.
func EnvPassphrase(name string) PassphraseFunc {
	return func() (string, error) {
		pass, ok := os.LookupEnv(name)
		if !ok {
			return "", fmt.Errorf("passphrase variable %s is not set", name)
		}
		return pass, nil
	}
}

// StaticPassphrase always returns pass.
func StaticPassphrase(pass string) PassphraseFunc {
	return func() (string, error) {
		return pass, nil
	}
}

// OpenKeystore opens dir without creating it. A missing or empty keystore is
// reported as ErrAgentUnavailable.
func OpenKeystore(dir string, scryptN, scryptP int) (*keystore.KeyStore, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: keystore %s does not exist", ErrAgentUnavailable, dir)
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: keystore %s is not a directory", ErrAgentUnavailable, dir)
	}
	ks := keystore.NewKeyStore(dir, scryptN, scryptP)
	if len(ks.Accounts()) == 0 {
		return nil, fmt.Errorf("%w: keystore %s holds no account", ErrAgentUnavailable, dir)
	}
	return ks, nil
}

// PickAccount returns the account matching hexAddr, or the first one when hexAddr is empty.
func PickAccount(ks *keystore.KeyStore, hexAddr string) (accounts.Account, error) {
	accs := ks.Accounts()
	if hexAddr == "" {
		return accs[0], nil
	}
	if !common.IsHexAddress(hexAddr) {
		return accounts.Account{}, fmt.Errorf("invalid account %q", hexAddr)
	}
	want := common.HexToAddress(hexAddr)
	for _, acc := range accs {
		if acc.Address == want {
			return acc, nil
		}
	}
	return accounts.Account{}, fmt.Errorf("%w: account %s not found in keystore", ErrAgentUnavailable, want.Hex())
}

var _ WalletConnector = (*KeystoreConnector)(nil)

// KeystoreConnector is the Injected strategy: an encrypted keystore on this host.
type KeystoreConnector struct {
	dir        string
	account    string
	passphrase PassphraseFunc
	scryptN    int
	scryptP    int

	lk sync.Mutex
	ks *keystore.KeyStore
}

func NewKeystoreConnector(dir, account string, passphrase PassphraseFunc) *KeystoreConnector {
	return &KeystoreConnector{
		dir:        dir,
		account:    account,
		passphrase: passphrase,
		scryptN:    keystore.StandardScryptN,
		scryptP:    keystore.StandardScryptP,
	}
}

func (k *KeystoreConnector) keystore() (*keystore.KeyStore, error) {
	k.lk.Lock()
	defer k.lk.Unlock()
	if k.ks != nil {
		return k.ks, nil
	}
	ks, err := OpenKeystore(k.dir, k.scryptN, k.scryptP)
	if err != nil {
		return nil, err
	}
	k.ks = ks
	return ks, nil
}

func (k *KeystoreConnector) Connect(ctx context.Context) (*Connection, error) {
	ks, err := k.keystore()
	if err != nil {
		return nil, &Error{Method: Injected, Err: err}
	}
	acc, err := PickAccount(ks, k.account)
	if err != nil {
		return nil, &Error{Method: Injected, Err: err}
	}

	pass, err := k.passphrase()
	if err != nil {
		return nil, &Error{Method: Injected, Err: errors.Wrap(err, "read passphrase")}
	}
	if err := ks.Unlock(acc, pass); err != nil {
		return nil, &Error{Method: Injected, Err: errors.Wrapf(err, "unlock %s", acc.Address.Hex())}
	}

	return &Connection{
		Method:  Injected,
		Address: acc.Address,
		Signer:  &keystoreSigner{ks: ks, account: acc},
	}, nil
}

type keystoreSigner struct {
	ks      *keystore.KeyStore
	account accounts.Account
}

func (s *keystoreSigner) Address() common.Address {
	return s.account.Address
}

func (s *keystoreSigner) SignTx(ctx context.Context, tx *ethtypes.Transaction, chainID *big.Int) (*ethtypes.Transaction, error) {
	return s.ks.SignTx(s.account, tx, chainID)
}
