package walletevent

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/filecoin-project/go-jsonrpc"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ipfs-force-community/onet-airdrop/types"
)

const AuthorizationHeader = "Authorization"

func NewWalletRegisterClient(ctx context.Context, url, token string) (IWalletServiceProvider, jsonrpc.ClientCloser, error) {
	headers := http.Header{}
	headers.Add(AuthorizationHeader, "Bearer "+token)
	var client WalletServiceProviderStruct
	closer, err := jsonrpc.NewMergeClient(ctx, url, "Gateway", []interface{}{&client.Internal}, headers)
	if err != nil {
		return nil, nil, err
	}
	return &client, closer, nil
}

// WalletEventClient keeps a wallet registered with the relay and answers its requests.
type WalletEventClient struct {
	processor   types.IWalletHandler
	client      IWalletServiceProvider
	randomBytes []byte
	log         *zap.SugaredLogger
	readyCh     chan struct{}

	lk      sync.Mutex
	channel uuid.UUID
}

func NewWalletEventClient(ctx context.Context, process types.IWalletHandler, client IWalletServiceProvider, log *zap.SugaredLogger) *WalletEventClient {
	return &WalletEventClient{
		processor:   process,
		client:      client,
		log:         log,
		randomBytes: RandomBytes,
		readyCh:     make(chan struct{}, 1),
	}
}

func (e *WalletEventClient) channelID() uuid.UUID {
	e.lk.Lock()
	defer e.lk.Unlock()
	return e.channel
}

func (e *WalletEventClient) AddNewAddress(ctx context.Context, newAddrs []common.Address) error {
	return e.client.AddNewAddress(ctx, e.channelID(), newAddrs)
}

func (e *WalletEventClient) RemoveAddress(ctx context.Context, newAddrs []common.Address) error {
	return e.client.RemoveAddress(ctx, e.channelID(), newAddrs)
}

func (e *WalletEventClient) ListenWalletRequest(ctx context.Context) {
	for {
		if err := e.listenWalletRequestOnce(ctx); err != nil {
			e.log.Errorf("listen wallet event errored: %s", err)
		} else {
			e.log.Warn("listenWalletRequestOnce quit, try again")
		}
		select {
		case <-time.After(time.Second):
		case <-ctx.Done():
			e.log.Warnf("not restarting listenWalletRequestOnce: context error: %s", ctx.Err())
			return
		}
		e.log.Info("restarting listenWalletRequestOnce")
		// try clear ready channel
		select {
		case <-e.readyCh:
		default:
		}
	}
}

func (e *WalletEventClient) WaitReady(ctx context.Context) {
	select {
	case <-e.readyCh:
	case <-ctx.Done():
	}
}

func (e *WalletEventClient) listenWalletRequestOnce(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	policy := &WalletRegisterPolicy{
		SignBytes: e.randomBytes,
	}
	walletEventCh, err := e.client.ListenWalletEvent(ctx, policy)
	if err != nil {
		// Retry is handled by caller
		return fmt.Errorf("listenWalletRequestOnce listenWalletRequestOnce call failed: %w", err)
	}

	for event := range walletEventCh {
		switch event.Method {
		case "InitConnect":
			req := types.ConnectedCompleted{}
			err := json.Unmarshal(event.Payload, &req)
			if err != nil {
				e.log.Errorf("init connect error %s", err)
			}
			e.lk.Lock()
			e.channel = req.ChannelID
			e.lk.Unlock()
			e.log.Infof("connect to server success %v", req.ChannelID)
			select {
			case e.readyCh <- struct{}{}:
			default:
			}
			// do not response
		case "WalletList":
			go e.walletList(ctx, event.ID)
		case "WalletSign":
			go e.walletSign(ctx, event)
		case "RequestAccounts":
			go e.requestAccounts(ctx, event)
		case "WalletSignTx":
			go e.walletSignTx(ctx, event)
		default:
			e.log.Errorf("unexpect wallet event type %s", event.Method)
			e.error(ctx, event.ID, fmt.Errorf("unsupported method %s", event.Method))
		}
	}

	return nil
}

func (e *WalletEventClient) walletList(ctx context.Context, id uuid.UUID) {
	addrs, err := e.processor.WalletList(ctx)
	if err != nil {
		e.log.Errorf("WalletList error %s", err)
		e.error(ctx, id, err)
		return
	}
	e.value(ctx, id, addrs)
}

func (e *WalletEventClient) walletSign(ctx context.Context, event *types.RequestEvent) {
	req := WalletSignRequest{}
	err := json.Unmarshal(event.Payload, &req)
	if err != nil {
		e.log.Errorf("unmarshal WalletSignRequest error %s", err)
		e.error(ctx, event.ID, err)
		return
	}
	sig, err := e.processor.WalletSign(ctx, req.Signer, req.Data)
	if err != nil {
		e.log.Errorf("WalletSign error %s", err)
		e.error(ctx, event.ID, err)
		return
	}
	e.value(ctx, event.ID, sig)
}

func (e *WalletEventClient) requestAccounts(ctx context.Context, event *types.RequestEvent) {
	req := RequestAccountsRequest{}
	err := json.Unmarshal(event.Payload, &req)
	if err != nil {
		e.log.Errorf("unmarshal RequestAccountsRequest error %s", err)
		e.error(ctx, event.ID, err)
		return
	}
	e.log.Infof("%s asks for accounts", req.Origin)
	addrs, err := e.processor.RequestAccounts(ctx, req.Origin)
	if err != nil {
		e.log.Warnf("RequestAccounts from %s refused: %s", req.Origin, err)
		e.error(ctx, event.ID, err)
		return
	}
	e.value(ctx, event.ID, addrs)
}

func (e *WalletEventClient) walletSignTx(ctx context.Context, event *types.RequestEvent) {
	req := WalletSignTxRequest{}
	err := json.Unmarshal(event.Payload, &req)
	if err != nil {
		e.log.Errorf("unmarshal WalletSignTxRequest error %s", err)
		e.error(ctx, event.ID, err)
		return
	}
	tx := new(ethtypes.Transaction)
	if err := tx.UnmarshalBinary(req.Tx); err != nil {
		e.log.Errorf("decode transaction error %s", err)
		e.error(ctx, event.ID, err)
		return
	}
	if req.ChainID == nil {
		e.error(ctx, event.ID, fmt.Errorf("missing chain id"))
		return
	}

	signed, err := e.processor.WalletSignTx(ctx, req.Signer, tx, req.ChainID)
	if err != nil {
		e.log.Errorf("WalletSignTx error %s", err)
		e.error(ctx, event.ID, err)
		return
	}
	raw, err := signed.MarshalBinary()
	if err != nil {
		e.error(ctx, event.ID, err)
		return
	}
	e.value(ctx, event.ID, raw)
}

func (e *WalletEventClient) value(ctx context.Context, id uuid.UUID, val interface{}) {
	respBytes, err := json.Marshal(val)
	if err != nil {
		e.log.Errorf("marshal response error %s", err)
		e.error(ctx, id, err)
		return
	}
	err = e.client.ResponseWalletEvent(ctx, &types.ResponseEvent{
		ID:      id,
		Payload: respBytes,
		Error:   "",
	})
	if err != nil {
		e.log.Errorf("response error %v", err)
	}
}

func (e *WalletEventClient) error(ctx context.Context, id uuid.UUID, err error) {
	err = e.client.ResponseWalletEvent(ctx, &types.ResponseEvent{
		ID:      id,
		Payload: nil,
		Error:   err.Error(),
	})
	if err != nil {
		e.log.Errorf("response error %v", err)
	}
}
