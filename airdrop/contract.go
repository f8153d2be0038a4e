package airdrop

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	logging "github.com/ipfs/go-log/v2"
	"github.com/lmittmann/w3"
)

var log = logging.Logger("airdrop")

// DefaultContractAddress is the ONET airdrop contract on the tea testnet.
const DefaultContractAddress = "0xd7921f17F11f6897150c100d3d4d433Ad723Ff2B"

var (
	FuncInteract   = w3.MustNewFunc("interact()", "")
	FuncHasClaimed = w3.MustNewFunc("hasClaimed(address)", "bool")
)

// Backend is the subset of ethclient.Client used by the claim contract.
type Backend interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Signer authorizes transactions on behalf of exactly one address.
type Signer interface {
	Address() common.Address
	SignTx(ctx context.Context, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
}

type Contract struct {
	backend      Backend
	address      common.Address
	chainID      *big.Int
	pollInterval time.Duration
}

func NewContract(backend Backend, address common.Address, chainID *big.Int, pollInterval time.Duration) *Contract {
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	return &Contract{
		backend:      backend,
		address:      address,
		chainID:      new(big.Int).Set(chainID),
		pollInterval: pollInterval,
	}
}

func (c *Contract) Address() common.Address {
	return c.address
}

func (c *Contract) ChainID() *big.Int {
	return new(big.Int).Set(c.chainID)
}

// Bind returns a handle that sends claims signed by signer. Binding never fails
// and performs no network call.
func (c *Contract) Bind(signer Signer) *Handle {
	return &Handle{contract: c, signer: signer}
}

// HasClaimed queries the contract without any signer.
func (c *Contract) HasClaimed(ctx context.Context, account common.Address) (bool, error) {
	return c.hasClaimed(ctx, common.Address{}, account)
}

func (c *Contract) hasClaimed(ctx context.Context, from, account common.Address) (bool, error) {
	data, err := FuncHasClaimed.EncodeArgs(account)
	if err != nil {
		return false, queryError("encode hasClaimed", err)
	}

	to := c.address
	out, err := c.backend.CallContract(ctx, ethereum.CallMsg{From: from, To: &to, Data: data}, nil)
	if err != nil {
		return false, queryError("call hasClaimed", err)
	}

	var claimed bool
	if err := FuncHasClaimed.DecodeReturns(out, &claimed); err != nil {
		return false, queryError("decode hasClaimed", err)
	}
	return claimed, nil
}

// Handle is a contract capability bound to one signer.
type Handle struct {
	contract *Contract
	signer   Signer
}

func (h *Handle) Signer() common.Address {
	return h.signer.Address()
}

func (h *Handle) HasClaimed(ctx context.Context, account common.Address) (bool, error) {
	return h.contract.hasClaimed(ctx, h.signer.Address(), account)
}

// Claim signs and submits interact(). The returned Tx has been accepted by the
// node but is not confirmed yet.
func (h *Handle) Claim(ctx context.Context) (*Tx, error) {
	c := h.contract
	from := h.signer.Address()
	to := c.address

	data, err := FuncInteract.EncodeArgs()
	if err != nil {
		return nil, txError("encode interact", err)
	}

	nonce, err := c.backend.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, txError("get nonce", err)
	}
	gasPrice, err := c.backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, txError("suggest gas price", err)
	}
	gas, err := c.backend.EstimateGas(ctx, ethereum.CallMsg{From: from, To: &to, Data: data})
	if err != nil {
		return nil, txError("estimate gas", err)
	}
	gas += gas / 5

	unsigned := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gas,
		To:       &to,
		Data:     data,
	})
	signed, err := h.signer.SignTx(ctx, unsigned, c.ChainID())
	if err != nil {
		return nil, txError("sign interact", err)
	}

	sender, err := types.Sender(types.LatestSignerForChainID(c.chainID), signed)
	if err != nil {
		return nil, txError("recover sender", err)
	}
	if sender != from {
		return nil, txError("recover sender", fmt.Errorf("signed by %s, expected %s", sender, from))
	}

	if err := c.backend.SendTransaction(ctx, signed); err != nil {
		return nil, txError("send interact", err)
	}
	log.Infow("claim submitted", "from", from.Hex(), "tx", signed.Hash().Hex(), "nonce", nonce)

	return &Tx{tx: signed, backend: c.backend, pollInterval: c.pollInterval}, nil
}

// Tx is a submitted claim transaction.
type Tx struct {
	tx           *types.Transaction
	backend      Backend
	pollInterval time.Duration
}

func (t *Tx) Hash() common.Hash {
	return t.tx.Hash()
}

// Wait blocks until the transaction is mined or ctx is done. A receipt with a
// failed status is reported as ErrReverted.
func (t *Tx) Wait(ctx context.Context) (*types.Receipt, error) {
	ticker := time.NewTicker(t.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := t.backend.TransactionReceipt(ctx, t.tx.Hash())
		switch {
		case err == nil:
			if receipt.Status != types.ReceiptStatusSuccessful {
				return receipt, txError("wait "+t.tx.Hash().Hex(), ErrReverted)
			}
			log.Infow("claim confirmed", "tx", t.tx.Hash().Hex(), "block", receipt.BlockNumber)
			return receipt, nil
		case errors.Is(err, ethereum.NotFound):
			log.Debugf("tx %s still pending", t.tx.Hash().Hex())
		default:
			return nil, txError("wait "+t.tx.Hash().Hex(), err)
		}

		select {
		case <-ctx.Done():
			return nil, txError("wait "+t.tx.Hash().Hex(), ctx.Err())
		case <-ticker.C:
		}
	}
}
