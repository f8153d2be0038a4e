package connector

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	logging "github.com/ipfs/go-log/v2"

	"github.com/ipfs-force-community/onet-airdrop/airdrop"
)

var log = logging.Logger("connector")

var (
	// ErrConnection marks every failure to obtain an account and signer.
	ErrConnection = errors.New("connection failed")
	// ErrAgentUnavailable is a connection failure detected before any network call.
	ErrAgentUnavailable = errors.New("wallet agent unavailable")
)

// Error is a connection failure for one method.
type Error struct {
	Method Method
	Err    error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() []error {
	return []error{ErrConnection, e.Err}
}

func unavailable(method Method, format string, args ...interface{}) error {
	return &Error{Method: method, Err: fmt.Errorf("%w: %s", ErrAgentUnavailable, fmt.Sprintf(format, args...))}
}

// Connection is the result of a successful handshake.
type Connection struct {
	Method  Method
	Address common.Address
	Signer  airdrop.Signer
}

// WalletConnector is one connection strategy.
type WalletConnector interface {
	Connect(ctx context.Context) (*Connection, error)
}

// Dispatcher routes a connect request to the strategy selected by Method.
type Dispatcher struct {
	injected WalletConnector
	relay    WalletConnector
}

// NewDispatcher accepts nil for strategies that are not configured.
func NewDispatcher(injected, relay WalletConnector) *Dispatcher {
	return &Dispatcher{injected: injected, relay: relay}
}

func (d *Dispatcher) Connect(ctx context.Context, method Method) (*Connection, error) {
	var strategy WalletConnector
	switch method {
	case Injected:
		strategy = d.injected
	case RelayBased:
		strategy = d.relay
	default:
		return nil, unavailable(method, "unsupported method %s", method)
	}
	if strategy == nil {
		return nil, unavailable(method, "%s wallet is not configured", method)
	}

	conn, err := strategy.Connect(ctx)
	if err != nil {
		log.Warnf("connect with %s failed: %v", method, err)
		var connErr *Error
		if errors.As(err, &connErr) {
			return nil, err
		}
		return nil, &Error{Method: method, Err: err}
	}
	conn.Method = method
	log.Infof("connected %s with %s", conn.Address.Hex(), method)
	return conn, nil
}
