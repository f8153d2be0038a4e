package testhelper

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/ipfs-force-community/onet-airdrop/airdrop"
)

var _ airdrop.Backend = (*FakeChain)(nil)

// FakeChain emulates a node hosting the airdrop contract.
type FakeChain struct {
	lk       sync.Mutex
	chainID  *big.Int
	contract common.Address
	claimed  map[common.Address]bool
	nonces   map[common.Address]uint64
	pending  map[common.Hash]*ethtypes.Transaction
	receipts map[common.Hash]*ethtypes.Receipt
	calls    map[string]int

	// PendingPolls is how many receipt polls report not-found before mining.
	PendingPolls int
	// Revert makes every mined claim fail.
	Revert bool
	// CallErr, SendErr and ReceiptErr are returned by the matching method when set.
	CallErr    error
	SendErr    error
	ReceiptErr error

	polls map[common.Hash]int
}

func NewFakeChain(chainID *big.Int, contract common.Address) *FakeChain {
	return &FakeChain{
		chainID:  chainID,
		contract: contract,
		claimed:  make(map[common.Address]bool),
		nonces:   make(map[common.Address]uint64),
		pending:  make(map[common.Hash]*ethtypes.Transaction),
		receipts: make(map[common.Hash]*ethtypes.Receipt),
		calls:    make(map[string]int),
		polls:    make(map[common.Hash]int),
	}
}

func (f *FakeChain) SetClaimed(addr common.Address, claimed bool) {
	f.lk.Lock()
	defer f.lk.Unlock()
	f.claimed[addr] = claimed
}

func (f *FakeChain) Claimed(addr common.Address) bool {
	f.lk.Lock()
	defer f.lk.Unlock()
	return f.claimed[addr]
}

// Calls reports how many times method was invoked; an empty name counts all.
func (f *FakeChain) Calls(method string) int {
	f.lk.Lock()
	defer f.lk.Unlock()
	if method != "" {
		return f.calls[method]
	}
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

// ChainID is not counted by Calls, health checks poll it.
func (f *FakeChain) ChainID(ctx context.Context) (*big.Int, error) {
	return new(big.Int).Set(f.chainID), nil
}

func (f *FakeChain) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	f.lk.Lock()
	defer f.lk.Unlock()
	f.calls["CallContract"]++
	if f.CallErr != nil {
		return nil, f.CallErr
	}
	if msg.To == nil || *msg.To != f.contract {
		return nil, nil
	}

	var account common.Address
	if err := airdrop.FuncHasClaimed.DecodeArgs(msg.Data, &account); err != nil {
		return nil, err
	}
	if f.claimed[account] {
		return common.LeftPadBytes([]byte{1}, 32), nil
	}
	return make([]byte, 32), nil
}

func (f *FakeChain) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	f.lk.Lock()
	defer f.lk.Unlock()
	f.calls["PendingNonceAt"]++
	return f.nonces[account], nil
}

func (f *FakeChain) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	f.lk.Lock()
	defer f.lk.Unlock()
	f.calls["SuggestGasPrice"]++
	return big.NewInt(1_000_000_000), nil
}

func (f *FakeChain) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	f.lk.Lock()
	defer f.lk.Unlock()
	f.calls["EstimateGas"]++
	return 50_000, nil
}

func (f *FakeChain) SendTransaction(ctx context.Context, tx *ethtypes.Transaction) error {
	f.lk.Lock()
	defer f.lk.Unlock()
	f.calls["SendTransaction"]++
	if f.SendErr != nil {
		return f.SendErr
	}

	interact, err := airdrop.FuncInteract.EncodeArgs()
	if err != nil {
		return err
	}
	if tx.To() == nil || *tx.To() != f.contract || !bytes.Equal(tx.Data(), interact) {
		return errors.New("unexpected transaction")
	}
	sender, err := ethtypes.Sender(ethtypes.LatestSignerForChainID(f.chainID), tx)
	if err != nil {
		return err
	}
	if tx.Nonce() != f.nonces[sender] {
		return errors.New("nonce too low")
	}
	f.nonces[sender]++
	f.pending[tx.Hash()] = tx
	return nil
}

func (f *FakeChain) TransactionReceipt(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, error) {
	f.lk.Lock()
	defer f.lk.Unlock()
	f.calls["TransactionReceipt"]++
	if f.ReceiptErr != nil {
		return nil, f.ReceiptErr
	}
	if receipt, ok := f.receipts[txHash]; ok {
		return receipt, nil
	}

	tx, ok := f.pending[txHash]
	if !ok {
		return nil, ethereum.NotFound
	}
	if f.polls[txHash] < f.PendingPolls {
		f.polls[txHash]++
		return nil, ethereum.NotFound
	}

	receipt := &ethtypes.Receipt{
		Status:      ethtypes.ReceiptStatusSuccessful,
		TxHash:      txHash,
		BlockNumber: big.NewInt(1),
	}
	if f.Revert {
		receipt.Status = ethtypes.ReceiptStatusFailed
	} else {
		sender, _ := ethtypes.Sender(ethtypes.LatestSignerForChainID(f.chainID), tx)
		f.claimed[sender] = true
	}
	delete(f.pending, txHash)
	f.receipts[txHash] = receipt
	return receipt, nil
}
