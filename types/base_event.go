package types

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	logging "github.com/ipfs/go-log/v2"
	"github.com/modern-go/reflect2"
)

var log = logging.Logger("event_stream")

var (
	ErrCloseChannel   = fmt.Errorf("recover send once")
	ErrRequestTimeout = errors.New("request timeout")
)

type BaseEventStream struct {
	reqLk     sync.RWMutex
	idRequest map[uuid.UUID]*RequestEvent
	cfg       *RequestConfig
}

func NewBaseEventStream(ctx context.Context, cfg *RequestConfig) *BaseEventStream {
	baseEventStream := &BaseEventStream{
		reqLk:     sync.RWMutex{},
		idRequest: make(map[uuid.UUID]*RequestEvent),
		cfg:       cfg,
	}
	go baseEventStream.cleanRequests(ctx)
	return baseEventStream
}

// SendRequest pushes method to the first channel and waits for its answer. When
// the first channel is broken the request is fanned out to the rest and the
// first successful answer wins.
func (e *BaseEventStream) SendRequest(ctx context.Context, channels []*ChannelInfo, method string, payload []byte, result interface{}) error {
	_, err := e.SendRequestFrom(ctx, channels, method, payload, result)
	return err
}

// SendRequestFrom is SendRequest that also reports the channel whose answer was used.
func (e *BaseEventStream) SendRequestFrom(ctx context.Context, channels []*ChannelInfo, method string, payload []byte, result interface{}) (*ChannelInfo, error) {
	if len(channels) == 0 {
		return nil, fmt.Errorf("send request must have channel")
	}

	processResp := func(resp *ResponseEvent) error {
		if len(resp.Error) > 0 {
			respErr := errors.New(resp.Error)
			if isTimeoutError(respErr) {
				log.Warnf("request %s timed out waiting for the wallet", method)
			}
			return respErr
		}

		if !reflect2.IsNil(result) {
			return json.Unmarshal(resp.Payload, result)
		}
		return nil
	}

	resp, err := e.sendOnce(ctx, channels[0], method, payload)
	if err == nil {
		return channels[0], processResp(resp)
	}

	if ctx.Err() != nil || len(channels) == 1 {
		return nil, err
	}

	log.Warnf("the first channel is fail, try to other channel")
	type sendResult struct {
		channel *ChannelInfo
		resp    *ResponseEvent
		err     error
	}
	otherChannels := channels[1:]
	respCh := make(chan sendResult, len(otherChannels))
	for _, channel := range otherChannels {
		go func(channel *ChannelInfo) {
			respEvent, err := e.sendOnce(ctx, channel, method, payload)
			if err != nil {
				log.Errorf("send request %s to %s failed %v", method, channel.IP, err)
			}
			respCh <- sendResult{channel: channel, resp: respEvent, err: err}
		}(channel)
	}

	errs := []string{err.Error()}
	for range otherChannels {
		select {
		case r := <-respCh:
			if r.err == nil {
				return r.channel, processResp(r.resp)
			}
			errs = append(errs, r.err.Error())
		case <-ctx.Done():
			return nil, fmt.Errorf("request cancel by context")
		}
	}
	return nil, fmt.Errorf("all request failed: %s", strings.Join(errs, "; "))
}

func (e *BaseEventStream) sendOnce(ctx context.Context, channel *ChannelInfo, method string, payload []byte) (response *ResponseEvent, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = ErrCloseChannel
		}
	}()

	if ctx.Err() != nil {
		return nil, fmt.Errorf("send request cancel by context %w", ctx.Err())
	}

	id := uuid.New()
	resultCh := make(chan *ResponseEvent, 1)
	request := &RequestEvent{
		ID:         id,
		Method:     method,
		Payload:    payload,
		CreateTime: time.Now(),
		Result:     resultCh,
	}
	e.reqLk.Lock()
	e.idRequest[id] = request
	e.reqLk.Unlock()
	defer e.forget(id)

	select {
	case channel.OutBound <- request: // may panic on a closed channel, recovered above
		log.Debugf("send request %s to %s", method, channel.IP)
	case <-channel.Done():
		return nil, fmt.Errorf("channel %s closed", channel.ChannelID)
	case <-ctx.Done():
		return nil, fmt.Errorf("send request cancel by context %w", ctx.Err())
	}

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("cancel by context %w", ctx.Err())
	case <-channel.Done():
		return nil, fmt.Errorf("channel %s closed before response", channel.ChannelID)
	case respEvent := <-resultCh:
		return respEvent, nil
	}
}

func (e *BaseEventStream) forget(id uuid.UUID) {
	e.reqLk.Lock()
	delete(e.idRequest, id)
	e.reqLk.Unlock()
}

func (e *BaseEventStream) cleanRequests(ctx context.Context) {
	tm := time.NewTicker(e.cfg.ClearInterval)
	defer tm.Stop()
	for {
		select {
		case <-tm.C:
			e.reqLk.Lock()
			for id, request := range e.idRequest {
				if time.Since(request.CreateTime) > e.cfg.RequestTimeout {
					delete(e.idRequest, id)
					// a late wallet answer may race with the timer, never block here
					select {
					case request.Result <- &ResponseEvent{
						ID:    id,
						Error: fmt.Sprintf("%s: create time %s method %s", ErrRequestTimeout, request.CreateTime, request.Method),
					}:
					default:
					}
				}
			}
			e.reqLk.Unlock()
		case <-ctx.Done():
			log.Warnf("return clean request")
			return
		}
	}
}

func (e *BaseEventStream) ResponseEvent(ctx context.Context, resp *ResponseEvent) error {
	e.reqLk.Lock()
	event, ok := e.idRequest[resp.ID]
	if ok {
		delete(e.idRequest, resp.ID)
	}
	e.reqLk.Unlock()

	if !ok {
		return fmt.Errorf("request id %s not exit", resp.ID.String())
	}

	select {
	case event.Result <- resp:
	default:
		log.Warnf("drop response %s, nobody is waiting", resp.ID)
	}
	return nil
}

func isTimeoutError(err error) bool {
	return err != nil && (errors.Is(err, ErrRequestTimeout) || strings.Contains(err.Error(), ErrRequestTimeout.Error()))
}
