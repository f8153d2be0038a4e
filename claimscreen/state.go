package claimscreen

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/ipfs-force-community/onet-airdrop/connector"
)

type State int

const (
	Disconnected State = iota
	Connecting
	ConnectedUnclaimed
	// Claiming is a transient sub-state of ConnectedUnclaimed.
	Claiming
	ConnectedClaimed
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case ConnectedUnclaimed:
		return "connected-unclaimed"
	case Claiming:
		return "claiming"
	case ConnectedClaimed:
		return "connected-claimed"
	default:
		return "unknown"
	}
}

// Session is the per-process claim state. Account is nil until a connect succeeds.
type Session struct {
	Account  *common.Address
	Method   connector.Method
	Claimed  bool
	Loading  bool
	Claiming bool
	TxHash   *common.Hash
}

func (s Session) State() State {
	switch {
	case s.Account == nil && s.Loading:
		return Connecting
	case s.Account == nil:
		return Disconnected
	case s.Claimed:
		return ConnectedClaimed
	case s.Claiming:
		return Claiming
	default:
		return ConnectedUnclaimed
	}
}

// Busy is true while any network-bound operation is in flight.
func (s Session) Busy() bool {
	return s.Loading || s.Claiming
}

// View is an immutable snapshot handed to the front ends.
type View struct {
	State          string   `json:"state"`
	Account        string   `json:"account,omitempty"`
	Method         string   `json:"method,omitempty"`
	Claimed        bool     `json:"claimed"`
	Loading        bool     `json:"loading"`
	ConnectMethods []string `json:"connectMethods,omitempty"`
	CanClaim       bool     `json:"canClaim"`
	CanCancel      bool     `json:"canCancel"`
	TxHash         string   `json:"txHash,omitempty"`
}

func newView(s Session) View {
	v := View{
		State:     s.State().String(),
		Claimed:   s.Claimed,
		Loading:   s.Busy(),
		CanCancel: s.Busy(),
	}
	if s.Account != nil {
		v.Account = s.Account.Hex()
		v.Method = s.Method.String()
	}
	if s.TxHash != nil {
		v.TxHash = s.TxHash.Hex()
	}
	switch s.State() {
	case Disconnected:
		for _, m := range connector.Methods {
			v.ConnectMethods = append(v.ConnectMethods, m.String())
		}
	case ConnectedUnclaimed:
		v.CanClaim = true
	}
	return v
}
