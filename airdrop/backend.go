package airdrop

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ethereum/go-ethereum/ethclient"
)

// DefaultChainID is the tea testnet network id.
const DefaultChainID uint64 = 10218

// DefaultRPC maps network ids to the public RPC endpoints used by default.
func DefaultRPC() map[string]string {
	return map[string]string{
		strconv.FormatUint(DefaultChainID, 10): "https://rpc.testnet.tea.xyz",
	}
}

// ResolveRPC picks the endpoint mapped to chainID.
func ResolveRPC(rpc map[string]string, chainID uint64) (string, error) {
	url, ok := rpc[strconv.FormatUint(chainID, 10)]
	if !ok || url == "" {
		return "", fmt.Errorf("no rpc endpoint configured for chain %d", chainID)
	}
	return url, nil
}

// Dial connects to the endpoint mapped to chainID. For http endpoints no
// request is made until the first call.
func Dial(ctx context.Context, rpc map[string]string, chainID uint64) (*ethclient.Client, error) {
	url, err := ResolveRPC(rpc, chainID)
	if err != nil {
		return nil, err
	}
	log.Infof("dial chain %d rpc %s", chainID, url)
	return ethclient.DialContext(ctx, url)
}
