package connector

import (
	"fmt"
	"strings"
)

// Method selects the wallet connection strategy.
type Method int

const (
	Unknown Method = iota
	// Injected uses a wallet agent living on this host (the local keystore).
	Injected
	// RelayBased uses a remote wallet registered with the relay.
	RelayBased
)

// Methods lists the selectable strategies in display order.
var Methods = []Method{Injected, RelayBased}

func (m Method) String() string {
	switch m {
	case Injected:
		return "injected"
	case RelayBased:
		return "relay"
	default:
		return "unknown"
	}
}

func (m Method) Label() string {
	switch m {
	case Injected:
		return "Injected Wallet"
	case RelayBased:
		return "Relay Wallet"
	default:
		return "Unknown Wallet"
	}
}

// ParseMethod accepts the method names plus the historical button tags.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "injected", "metamask":
		return Injected, nil
	case "relay", "walletconnect":
		return RelayBased, nil
	default:
		return Unknown, fmt.Errorf("unknown connection method %q", s)
	}
}
