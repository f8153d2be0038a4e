package proxy

import (
	"fmt"
	"strconv"
)

// HostKey names a chain endpoint, the decimal chain id.
type HostKey string

const (
	HostUnknown HostKey = ""

	// ChainIDHeader selects the chain endpoint a request is forwarded to.
	ChainIDHeader = "Airdrop-Chain-Id"
)

func ChainHost(chainID uint64) HostKey {
	return HostKey(strconv.FormatUint(chainID, 10))
}

var (
	ErrorInvalidHeader            = fmt.Errorf("invalid proxy header for %s", ChainIDHeader)
	ErrorNoReverseProxyRegistered = fmt.Errorf("no reverse proxy registered")
)
