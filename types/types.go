package types

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

// RequestEvent is pushed from the gateway down a wallet channel.
type RequestEvent struct {
	ID         uuid.UUID
	Method     string
	Payload    []byte
	CreateTime time.Time
	Result     chan *ResponseEvent `json:"-"`
}

// ResponseEvent is the wallet answer to a RequestEvent with the same ID.
type ResponseEvent struct {
	ID      uuid.UUID
	Payload []byte
	Error   string
}

type ConnectedCompleted struct {
	ChannelID uuid.UUID
}

type ChannelInfo struct {
	ChannelID  uuid.UUID
	IP         string
	OutBound   chan *RequestEvent
	CreateTime time.Time

	ctx context.Context
}

func NewChannelInfo(ctx context.Context, ip string, sendEvents chan *RequestEvent) *ChannelInfo {
	return &ChannelInfo{
		ChannelID:  uuid.New(),
		OutBound:   sendEvents,
		IP:         ip,
		CreateTime: time.Now(),
		ctx:        ctx,
	}
}

// Done is closed once the underlying connection has gone away.
func (c *ChannelInfo) Done() <-chan struct{} {
	if c.ctx == nil {
		return nil
	}
	return c.ctx.Done()
}

type RequestConfig struct {
	RequestQueueSize int
	RequestTimeout   time.Duration
	ClearInterval    time.Duration
}

func DefaultConfig() *RequestConfig {
	return &RequestConfig{
		RequestQueueSize: 30,
		RequestTimeout:   time.Minute * 5,
		ClearInterval:    time.Minute * 5,
	}
}

// WalletDetail describes one relay wallet account and its live connections.
type WalletDetail struct {
	Account       string
	ConnectStates []ConnectState
}

type ConnectState struct {
	Addrs        []common.Address
	ChannelID    uuid.UUID
	IP           string
	RequestCount int
	CreateTime   time.Time
}
