package walletevent

import (
	"crypto/rand"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// RandomBytes is mixed into every ownership proof a wallet process signs.
var RandomBytes = func() []byte {
	buf := make([]byte, 32)
	_, _ = rand.Read(buf)
	return buf
}()

type WalletRegisterPolicy struct {
	SignBytes []byte
}

type WalletSignRequest struct {
	Signer common.Address
	Data   []byte
}

type RequestAccountsRequest struct {
	Origin string
}

type WalletSignTxRequest struct {
	Signer  common.Address
	ChainID *big.Int
	Tx      []byte
}
