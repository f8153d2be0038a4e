package walletevent

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/ipfs-force-community/sophon-auth/core"
	logging "github.com/ipfs/go-log/v2"
	"github.com/pkg/errors"
	"go.opencensus.io/stats"
	"go.opencensus.io/tag"

	"github.com/ipfs-force-community/onet-airdrop/metrics"
	"github.com/ipfs-force-community/onet-airdrop/types"
)

var log = logging.Logger("event_stream")

type WalletEventStream struct {
	walletConnMgr IWalletConnMgr
	cfg           *types.RequestConfig
	randBytes     []byte
	*types.BaseEventStream

	disableVerifyWalletAddrs bool
}

func NewWalletEventStream(ctx context.Context, cfg *types.RequestConfig, disableVerifyWalletAddrs bool) *WalletEventStream {
	walletEventStream := &WalletEventStream{
		walletConnMgr:            newWalletConnMgr(),
		BaseEventStream:          types.NewBaseEventStream(ctx, cfg),
		cfg:                      cfg,
		disableVerifyWalletAddrs: disableVerifyWalletAddrs,
	}
	var err error
	walletEventStream.randBytes, err = io.ReadAll(io.LimitReader(rand.Reader, 32))
	if err != nil {
		panic(fmt.Errorf("rand secret failed %v", err))
	}
	return walletEventStream
}

func (w *WalletEventStream) ListenWalletEvent(ctx context.Context, policy *WalletRegisterPolicy) (<-chan *types.RequestEvent, error) {
	walletAccount, exit := core.CtxGetName(ctx)
	if !exit {
		return nil, errors.New("unable to get account name in method ListenWalletEvent request")
	}
	if policy == nil {
		policy = &WalletRegisterPolicy{}
	}

	ip, _ := core.CtxGetTokenLocation(ctx)
	out := make(chan *types.RequestEvent, w.cfg.RequestQueueSize)
	walletLog := log.With("account", walletAccount).With("ip", ip)
	ctx, _ = tag.New(ctx, tag.Upsert(metrics.WalletAccountKey, walletAccount), tag.Upsert(metrics.IPKey, ip))

	go func() {
		channel := types.NewChannelInfo(ctx, ip, out)
		defer close(out)
		addrs, err := w.getValidatedAddress(ctx, channel, policy.SignBytes, walletAccount)
		if err != nil {
			walletLog.Errorf("unable to validate address %v", err)
			return
		}

		walletChannelInfo := newWalletChannelInfo(channel, addrs, policy.SignBytes)
		err = w.walletConnMgr.addNewConn(walletAccount, walletChannelInfo)
		if err != nil {
			walletLog.Errorf("add connection error %v", err)
			return
		}
		walletLog.Infof("add new connections %s", walletChannelInfo.ChannelID)

		stats.Record(ctx, metrics.WalletRegister.M(1))

		connectBytes, err := json.Marshal(types.ConnectedCompleted{
			ChannelID: walletChannelInfo.ChannelID,
		})
		if err != nil {
			walletLog.Errorf("marshal failed %v", err)
			return
		}

		out <- &types.RequestEvent{
			ID:         uuid.New(),
			Method:     "InitConnect",
			CreateTime: time.Now(),
			Payload:    connectBytes,
			Result:     nil,
		} // not response

		<-ctx.Done()
		stats.Record(ctx, metrics.WalletUnregister.M(1))
		if err = w.walletConnMgr.removeConn(walletAccount, walletChannelInfo); err != nil {
			walletLog.Errorf("remove connect error %v", err)
		}
	}()
	return out, nil
}

func (w *WalletEventStream) ResponseWalletEvent(ctx context.Context, resp *types.ResponseEvent) error {
	return w.ResponseEvent(ctx, resp)
}

func (w *WalletEventStream) AddNewAddress(ctx context.Context, channelID uuid.UUID, addrs []common.Address) error {
	walletAccount, exit := core.CtxGetName(ctx)
	if !exit {
		return errors.New("unable to get account name in method AddNewAddress request")
	}

	info, err := w.walletConnMgr.getConn(walletAccount, channelID)
	if err != nil {
		return err
	}
	ctx, _ = tag.New(ctx, tag.Upsert(metrics.WalletAccountKey, walletAccount))
	for _, addr := range addrs {
		if err := w.verifyAddress(ctx, addr, info.ChannelInfo, info.signBytes, walletAccount); err != nil {
			return err
		}
		_ = stats.RecordWithTags(ctx, []tag.Mutator{tag.Upsert(metrics.WalletAddressKey, addr.Hex())},
			metrics.WalletAddAddr.M(1))
	}

	err = w.walletConnMgr.addNewAddress(walletAccount, channelID, addrs)
	if err != nil {
		log.Errorf("wallet %s add address %v failed %v", walletAccount, addrs, err)
		return err
	}
	log.Infof("wallet %s add address %v successful!", walletAccount, addrs)
	return nil
}

func (w *WalletEventStream) RemoveAddress(ctx context.Context, channelID uuid.UUID, addrs []common.Address) error {
	walletAccount, exit := core.CtxGetName(ctx)
	if !exit {
		return errors.New("unable to get account name in method RemoveAddress request")
	}
	ctx, _ = tag.New(ctx, tag.Upsert(metrics.WalletAccountKey, walletAccount))
	for _, addr := range addrs {
		_ = stats.RecordWithTags(ctx, []tag.Mutator{tag.Upsert(metrics.WalletAddressKey, addr.Hex())},
			metrics.WalletRemoveAddr.M(1))
	}
	err := w.walletConnMgr.removeAddress(walletAccount, channelID, addrs)
	if err != nil {
		log.Infof("wallet %s remove address %v failed %v", walletAccount, addrs, err)
		return err
	}

	log.Infof("wallet %s remove address %v", walletAccount, addrs)
	return nil
}

// HasWallets reports whether any registered wallet holds a verified address.
func (w *WalletEventStream) HasWallets(ctx context.Context) bool {
	return len(w.walletConnMgr.allChannels()) > 0
}

func (w *WalletEventStream) WalletHas(ctx context.Context, addr common.Address) (bool, error) {
	return w.walletConnMgr.hasAddress(addr), nil
}

// RequestAccounts asks the newest wallet connection to expose its accounts to
// origin. Addresses that connection has not verified are dropped.
func (w *WalletEventStream) RequestAccounts(ctx context.Context, origin string) ([]common.Address, error) {
	channels := w.walletConnMgr.allChannels()
	payload, err := json.Marshal(&RequestAccountsRequest{Origin: origin})
	if err != nil {
		return nil, err
	}

	start := time.Now()
	var addrs []common.Address
	answered, err := w.SendRequestFrom(ctx, channels, "RequestAccounts", payload, &addrs)
	stats.Record(ctx, metrics.RequestAccounts.M(metrics.SinceInMilliseconds(start)))
	if err != nil {
		return nil, err
	}

	verified := make([]common.Address, 0, len(addrs))
	for _, addr := range addrs {
		// only keys proven on the answering connection count
		if !w.walletConnMgr.channelHas(answered.ChannelID, addr) {
			log.Warnf("wallet channel %s exposed unverified address %s", answered.ChannelID, addr)
			continue
		}
		verified = append(verified, addr)
	}
	return verified, nil
}

func (w *WalletEventStream) WalletSignTx(ctx context.Context, signer common.Address, tx *ethtypes.Transaction, chainID *big.Int) (*ethtypes.Transaction, error) {
	channels, err := w.walletConnMgr.getChannels(signer)
	if err != nil {
		return nil, err
	}

	raw, err := tx.MarshalBinary()
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(&WalletSignTxRequest{
		Signer:  signer,
		ChainID: chainID,
		Tx:      raw,
	})
	if err != nil {
		return nil, err
	}

	start := time.Now()
	var signedRaw []byte
	err = w.SendRequest(ctx, channels, "WalletSignTx", payload, &signedRaw)
	_ = stats.RecordWithTags(ctx, []tag.Mutator{tag.Upsert(metrics.WalletAddressKey, signer.Hex())},
		metrics.WalletSignTx.M(metrics.SinceInMilliseconds(start)))
	if err != nil {
		return nil, err
	}

	signed := new(ethtypes.Transaction)
	if err := signed.UnmarshalBinary(signedRaw); err != nil {
		return nil, errors.Wrap(err, "decode signed transaction")
	}
	return signed, nil
}

func (w *WalletEventStream) ListWalletInfo(ctx context.Context) ([]*types.WalletDetail, error) {
	return w.walletConnMgr.listWalletInfo(ctx)
}

func (w *WalletEventStream) ListWalletInfoByWallet(ctx context.Context, wallet string) (*types.WalletDetail, error) {
	return w.walletConnMgr.listWalletInfoByWallet(ctx, wallet)
}

func (w *WalletEventStream) getValidatedAddress(ctx context.Context, channel *types.ChannelInfo, signBytes []byte, walletAccount string) ([]common.Address, error) {
	var addrs []common.Address

	start := time.Now()
	err := w.SendRequest(ctx, []*types.ChannelInfo{channel}, "WalletList", nil, &addrs)
	if err != nil {
		return nil, err
	}
	stats.Record(ctx, metrics.WalletList.M(metrics.SinceInMilliseconds(start)))

	// validate the wallet is really has the address
	validAddrs := make([]common.Address, 0, len(addrs))
	for _, addr := range addrs {
		if err := w.verifyAddress(ctx, addr, channel, signBytes, walletAccount); err != nil {
			return nil, err
		}
		validAddrs = append(validAddrs, addr)
	}

	return validAddrs, nil
}

func (w *WalletEventStream) verifyAddress(ctx context.Context, addr common.Address, channel *types.ChannelInfo, signBytes []byte, walletAccount string) error {
	if w.disableVerifyWalletAddrs {
		log.Infof("skip verify account:%s, address: %s, wallet address verification is disabled.",
			walletAccount, addr)
		return nil
	}
	signData := GetSignData(w.randBytes, signBytes)
	payload, err := json.Marshal(&WalletSignRequest{
		Signer: addr,
		Data:   signData,
	})
	if err != nil {
		return err
	}

	start := time.Now()
	var sig []byte
	err = w.SendRequest(ctx, []*types.ChannelInfo{channel}, "WalletSign", payload, &sig)
	stats.Record(ctx, metrics.WalletSign.M(metrics.SinceInMilliseconds(start)))
	if err != nil {
		return fmt.Errorf("wallet %s verify address %s failed, signed error %v", walletAccount, addr.Hex(), err)
	}
	if err := VerifySignature(addr, signData, sig); err != nil {
		return fmt.Errorf("wallet %s verify address %s failed: %v", walletAccount, addr.Hex(), err)
	}
	log.Infof("wallet %s verify address %s success", walletAccount, addr)

	return nil
}

// VerifySignature checks that sig is addr's signature over the EIP-191 text hash of data.
func VerifySignature(addr common.Address, data, sig []byte) error {
	if len(sig) != crypto.SignatureLength {
		return fmt.Errorf("invalid signature length %d", len(sig))
	}
	pub, err := crypto.SigToPub(accounts.TextHash(data), sig)
	if err != nil {
		return err
	}
	if recovered := crypto.PubkeyToAddress(*pub); recovered != addr {
		return fmt.Errorf("signature recovers to %s", recovered.Hex())
	}
	return nil
}

func GetSignData(datas ...[]byte) []byte {
	hasher := sha256.New()
	for _, data := range datas {
		_, _ = hasher.Write(data)
	}
	return hasher.Sum(nil)
}
