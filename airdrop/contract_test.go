package airdrop_test

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/ipfs-force-community/onet-airdrop/airdrop"
	"github.com/ipfs-force-community/onet-airdrop/testhelper"
)

var chainID = new(big.Int).SetUint64(airdrop.DefaultChainID)

func setupContract(t *testing.T) (*airdrop.Contract, *testhelper.FakeChain, *testhelper.MemWallet, common.Address) {
	ctx := context.Background()
	contractAddr := common.HexToAddress(airdrop.DefaultContractAddress)
	chain := testhelper.NewFakeChain(chainID, contractAddr)
	wallet := testhelper.NewMemWallet()
	addr, err := wallet.AddKey(ctx)
	require.NoError(t, err)
	return airdrop.NewContract(chain, contractAddr, chainID, time.Millisecond), chain, wallet, addr
}

func TestSelectors(t *testing.T) {
	data, err := airdrop.FuncInteract.EncodeArgs()
	require.NoError(t, err)
	require.Equal(t, common.FromHex("0x52337ab0"), data)

	data, err = airdrop.FuncHasClaimed.EncodeArgs(common.HexToAddress("0x01"))
	require.NoError(t, err)
	require.Len(t, data, 4+32)
	require.Equal(t, common.FromHex("0x73b2e80e"), data[:4])
}

func TestHasClaimed(t *testing.T) {
	ctx := context.Background()

	t.Run("not claimed", func(t *testing.T) {
		contract, _, wallet, addr := setupContract(t)
		claimed, err := contract.Bind(wallet.Signer(addr)).HasClaimed(ctx, addr)
		require.NoError(t, err)
		require.False(t, claimed)
	})

	t.Run("claimed", func(t *testing.T) {
		contract, chain, wallet, addr := setupContract(t)
		chain.SetClaimed(addr, true)
		claimed, err := contract.Bind(wallet.Signer(addr)).HasClaimed(ctx, addr)
		require.NoError(t, err)
		require.True(t, claimed)

		claimed, err = contract.HasClaimed(ctx, addr)
		require.NoError(t, err)
		require.True(t, claimed)
	})

	t.Run("node failure", func(t *testing.T) {
		contract, chain, wallet, addr := setupContract(t)
		chain.CallErr = errors.New("connection refused")
		_, err := contract.Bind(wallet.Signer(addr)).HasClaimed(ctx, addr)
		require.Error(t, err)
		require.ErrorIs(t, err, airdrop.ErrQuery)
		require.NotErrorIs(t, err, airdrop.ErrTransaction)
		require.Contains(t, err.Error(), "connection refused")
	})
}

func TestClaim(t *testing.T) {
	ctx := context.Background()

	t.Run("confirmed", func(t *testing.T) {
		contract, chain, wallet, addr := setupContract(t)
		chain.PendingPolls = 2
		tx, err := contract.Bind(wallet.Signer(addr)).Claim(ctx)
		require.NoError(t, err)

		receipt, err := tx.Wait(ctx)
		require.NoError(t, err)
		require.Equal(t, tx.Hash(), receipt.TxHash)
		require.True(t, chain.Claimed(addr))
		require.Equal(t, 3, chain.Calls("TransactionReceipt"))
	})

	t.Run("reverted", func(t *testing.T) {
		contract, chain, wallet, addr := setupContract(t)
		chain.Revert = true
		tx, err := contract.Bind(wallet.Signer(addr)).Claim(ctx)
		require.NoError(t, err)

		_, err = tx.Wait(ctx)
		require.ErrorIs(t, err, airdrop.ErrTransaction)
		require.ErrorIs(t, err, airdrop.ErrReverted)
		require.False(t, chain.Claimed(addr))
	})

	t.Run("signer rejects", func(t *testing.T) {
		contract, chain, wallet, addr := setupContract(t)
		wallet.SetFail(ctx, true)
		_, err := contract.Bind(wallet.Signer(addr)).Claim(ctx)
		require.ErrorIs(t, err, airdrop.ErrTransaction)
		require.Equal(t, 0, chain.Calls("SendTransaction"))
	})

	t.Run("signed by another key", func(t *testing.T) {
		contract, chain, wallet, addr := setupContract(t)
		other, err := wallet.AddKey(ctx)
		require.NoError(t, err)
		_, err = contract.Bind(&mismatchSigner{MemSigner: wallet.Signer(other), claimed: addr}).Claim(ctx)
		require.ErrorIs(t, err, airdrop.ErrTransaction)
		require.Contains(t, err.Error(), "expected "+addr.Hex())
		require.Equal(t, 0, chain.Calls("SendTransaction"))
	})

	t.Run("broadcast failure", func(t *testing.T) {
		contract, chain, wallet, addr := setupContract(t)
		chain.SendErr = errors.New("insufficient funds for gas")
		_, err := contract.Bind(wallet.Signer(addr)).Claim(ctx)
		require.ErrorIs(t, err, airdrop.ErrTransaction)
		require.Contains(t, err.Error(), "insufficient funds")
	})

	t.Run("wait cancelled", func(t *testing.T) {
		contract, chain, wallet, addr := setupContract(t)
		chain.PendingPolls = 1 << 30
		tx, err := contract.Bind(wallet.Signer(addr)).Claim(ctx)
		require.NoError(t, err)

		waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()
		_, err = tx.Wait(waitCtx)
		require.ErrorIs(t, err, airdrop.ErrTransaction)
		require.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestResolveRPC(t *testing.T) {
	url, err := airdrop.ResolveRPC(airdrop.DefaultRPC(), airdrop.DefaultChainID)
	require.NoError(t, err)
	require.Equal(t, "https://rpc.testnet.tea.xyz", url)

	_, err = airdrop.ResolveRPC(airdrop.DefaultRPC(), 1)
	require.Error(t, err)
}

// mismatchSigner claims one address but signs with another key.
type mismatchSigner struct {
	*testhelper.MemSigner
	claimed common.Address
}

func (m *mismatchSigner) Address() common.Address {
	return m.claimed
}
