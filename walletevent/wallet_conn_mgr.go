package walletevent

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/ipfs-force-community/onet-airdrop/types"
)

type walletChannelInfo struct {
	*types.ChannelInfo
	addrs map[common.Address]struct{} // verified signer address
	// a slice byte provide by wallet, using to verify address is really exist
	signBytes []byte
}

func newWalletChannelInfo(channelInfo *types.ChannelInfo, addrs []common.Address, signBytes []byte) *walletChannelInfo {
	walletInfo := &walletChannelInfo{ChannelInfo: channelInfo, addrs: make(map[common.Address]struct{}), signBytes: signBytes}
	for _, addr := range addrs {
		walletInfo.addrs[addr] = struct{}{}
	}
	return walletInfo
}

type WalletInfo struct {
	walletAccount string
	connections   map[uuid.UUID]*walletChannelInfo
}

type IWalletConnMgr interface {
	addNewConn(string, *walletChannelInfo) error
	getConn(walletAccount string, channelID uuid.UUID) (*walletChannelInfo, error)
	removeConn(string, *walletChannelInfo) error
	getChannels(from common.Address) ([]*types.ChannelInfo, error)
	allChannels() []*types.ChannelInfo
	hasAddress(addr common.Address) bool
	channelHas(channelID uuid.UUID, addr common.Address) bool
	addNewAddress(walletAccount string, channelID uuid.UUID, addrs []common.Address) error
	removeAddress(walletAccount string, channelID uuid.UUID, addrs []common.Address) error

	listWalletInfo(ctx context.Context) ([]*types.WalletDetail, error)
	listWalletInfoByWallet(ctx context.Context, wallet string) (*types.WalletDetail, error)
}

var _ IWalletConnMgr = (*walletConnMgr)(nil)

type walletConnMgr struct {
	infoLk      sync.Mutex
	walletInfos map[string]*WalletInfo
}

func newWalletConnMgr() *walletConnMgr {
	return &walletConnMgr{
		infoLk:      sync.Mutex{},
		walletInfos: make(map[string]*WalletInfo),
	}
}

func (w *walletConnMgr) addNewConn(walletAccount string, channel *walletChannelInfo) error {
	w.infoLk.Lock()
	defer w.infoLk.Unlock()

	walletInfo, ok := w.walletInfos[walletAccount]
	if !ok {
		walletInfo = &WalletInfo{
			walletAccount: walletAccount,
			connections:   make(map[uuid.UUID]*walletChannelInfo),
		}
		w.walletInfos[walletAccount] = walletInfo
	}
	walletInfo.connections[channel.ChannelID] = channel

	log.Infow("add wallet connection", "channel", channel.ChannelID.String(),
		"walletName", walletAccount,
		"addrs", channel.addrs,
	)
	return nil
}

func (w *walletConnMgr) getConn(walletAccount string, channelID uuid.UUID) (*walletChannelInfo, error) {
	w.infoLk.Lock()
	defer w.infoLk.Unlock()

	if walletInfo, ok := w.walletInfos[walletAccount]; ok {
		if conn, ok := walletInfo.connections[channelID]; ok {
			return conn, nil
		}
	}

	return nil, fmt.Errorf("no connect found for wallet %s and channelID %s", walletAccount, channelID)
}

func (w *walletConnMgr) removeConn(walletAccount string, info *walletChannelInfo) error {
	w.infoLk.Lock()
	defer w.infoLk.Unlock()

	if walletInfo, ok := w.walletInfos[walletAccount]; ok {
		delete(walletInfo.connections, info.ChannelID)
		if len(walletInfo.connections) == 0 {
			delete(w.walletInfos, walletAccount)
		}
	}

	log.Infof("wallet %v remove connection %s", walletAccount, info.ChannelID)
	return nil
}

// getChannels returns the connections holding from, newest first.
func (w *walletConnMgr) getChannels(from common.Address) ([]*types.ChannelInfo, error) {
	w.infoLk.Lock()
	defer w.infoLk.Unlock()

	var channels []*types.ChannelInfo
	for _, walletInfo := range w.walletInfos {
		for _, conn := range walletInfo.connections {
			if _, ok := conn.addrs[from]; ok {
				channels = append(channels, conn.ChannelInfo)
			}
		}
	}
	if len(channels) == 0 {
		return nil, fmt.Errorf("no connect found for address %s", from)
	}
	sortNewestFirst(channels)
	return channels, nil
}

// allChannels returns every connection with at least one verified address, newest first.
func (w *walletConnMgr) allChannels() []*types.ChannelInfo {
	w.infoLk.Lock()
	defer w.infoLk.Unlock()

	var channels []*types.ChannelInfo
	for _, walletInfo := range w.walletInfos {
		for _, conn := range walletInfo.connections {
			if len(conn.addrs) > 0 {
				channels = append(channels, conn.ChannelInfo)
			}
		}
	}
	sortNewestFirst(channels)
	return channels
}

func (w *walletConnMgr) hasAddress(addr common.Address) bool {
	w.infoLk.Lock()
	defer w.infoLk.Unlock()

	for _, walletInfo := range w.walletInfos {
		for _, conn := range walletInfo.connections {
			if _, ok := conn.addrs[addr]; ok {
				return true
			}
		}
	}
	return false
}

// channelHas reports whether addr was verified on the connection channelID.
func (w *walletConnMgr) channelHas(channelID uuid.UUID, addr common.Address) bool {
	w.infoLk.Lock()
	defer w.infoLk.Unlock()

	for _, walletInfo := range w.walletInfos {
		if conn, ok := walletInfo.connections[channelID]; ok {
			_, has := conn.addrs[addr]
			return has
		}
	}
	return false
}

func (w *walletConnMgr) addNewAddress(walletAccount string, channelID uuid.UUID, addrs []common.Address) error {
	w.infoLk.Lock()
	defer w.infoLk.Unlock()

	if walletInfo, ok := w.walletInfos[walletAccount]; ok {
		if channel, ok := walletInfo.connections[channelID]; ok {
			for _, addr := range addrs {
				channel.addrs[addr] = struct{}{}
			}
			return nil
		}
	}
	return fmt.Errorf("channel %s not found", channelID.String())
}

func (w *walletConnMgr) removeAddress(walletAccount string, channelID uuid.UUID, addrs []common.Address) error {
	w.infoLk.Lock()
	defer w.infoLk.Unlock()

	if walletInfo, ok := w.walletInfos[walletAccount]; ok {
		if channel, ok := walletInfo.connections[channelID]; ok {
			for _, addr := range addrs {
				delete(channel.addrs, addr)
			}
			return nil
		}
	}
	return fmt.Errorf("channel %s not found", channelID.String())
}

func (w *walletConnMgr) listWalletInfo(ctx context.Context) ([]*types.WalletDetail, error) {
	w.infoLk.Lock()
	defer w.infoLk.Unlock()

	walletDetails := make([]*types.WalletDetail, 0, len(w.walletInfos))
	for _, walletInfo := range w.walletInfos {
		walletDetails = append(walletDetails, walletInfo.detail())
	}
	sort.Slice(walletDetails, func(i, j int) bool {
		return walletDetails[i].Account < walletDetails[j].Account
	})
	return walletDetails, nil
}

func (w *walletConnMgr) listWalletInfoByWallet(ctx context.Context, wallet string) (*types.WalletDetail, error) {
	w.infoLk.Lock()
	defer w.infoLk.Unlock()

	if walletInfo, ok := w.walletInfos[wallet]; ok {
		return walletInfo.detail(), nil
	}
	return nil, fmt.Errorf("wallet %s not exit", wallet)
}

func (walletInfo *WalletInfo) detail() *types.WalletDetail {
	walletDetail := &types.WalletDetail{
		Account:       walletInfo.walletAccount,
		ConnectStates: []types.ConnectState{},
	}
	for channelID, wallet := range walletInfo.connections {
		addrs := make([]common.Address, 0, len(wallet.addrs))
		for addr := range wallet.addrs {
			addrs = append(addrs, addr)
		}
		sort.Slice(addrs, func(i, j int) bool {
			return addrs[i].Cmp(addrs[j]) < 0
		})
		walletDetail.ConnectStates = append(walletDetail.ConnectStates, types.ConnectState{
			Addrs:        addrs,
			ChannelID:    channelID,
			IP:           wallet.IP,
			RequestCount: len(wallet.OutBound),
			CreateTime:   wallet.CreateTime,
		})
	}
	sort.Slice(walletDetail.ConnectStates, func(i, j int) bool {
		return walletDetail.ConnectStates[i].CreateTime.Before(walletDetail.ConnectStates[j].CreateTime)
	})
	return walletDetail
}

func sortNewestFirst(channels []*types.ChannelInfo) {
	sort.SliceStable(channels, func(i, j int) bool {
		return channels[i].CreateTime.After(channels[j].CreateTime)
	})
}
