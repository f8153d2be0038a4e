package proxy

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	logging "github.com/ipfs/go-log/v2"
	"github.com/multiformats/go-multiaddr"
	maNet "github.com/multiformats/go-multiaddr/net"
)

var log = logging.Logger("proxy")

type IProxy interface {
	RegisterReverseHandler(hostKey HostKey, server http.Handler)
	RegisterReverseByAddr(hostKey HostKey, address string) error
	ProxyMiddleware(next http.Handler) http.Handler
}

// Proxy forwards chain json-rpc requests of relay wallets to the node
// endpoint of the chain named in the request header.
type Proxy struct {
	lk      sync.RWMutex
	handler map[HostKey]http.Handler
}

var _ IProxy = (*Proxy)(nil)

func NewProxy() *Proxy {
	return &Proxy{
		handler: make(map[HostKey]http.Handler),
	}
}

// NewProxyFromRPC registers every endpoint of a chain id -> url map.
func NewProxyFromRPC(rpc map[string]string) (*Proxy, error) {
	p := NewProxy()
	for chainID, addr := range rpc {
		if _, err := strconv.ParseUint(chainID, 10, 64); err != nil {
			return nil, fmt.Errorf("chain id %q: %w", chainID, err)
		}
		if err := p.RegisterReverseByAddr(HostKey(chainID), addr); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *Proxy) ProxyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiHeader := r.Header.Get(ChainIDHeader)
		if apiHeader == "" {
			log.Debugf("no chain id header found, skip proxy")
			next.ServeHTTP(w, r)
			return
		}

		ser, err := p.getReverseHandler(apiHeader)
		if err != nil {
			log.Errorf("get reverse handler fail: %s", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		ser.ServeHTTP(w, r)
	})
}

func (p *Proxy) getReverseHandler(header string) (http.Handler, error) {
	if _, err := strconv.ParseUint(header, 10, 64); err != nil {
		return nil, fmt.Errorf("header(%s): %w", header, ErrorInvalidHeader)
	}
	p.lk.RLock()
	defer p.lk.RUnlock()
	server, ok := p.handler[HostKey(header)]
	if !ok {
		return nil, fmt.Errorf("chain(%s) : %w", header, ErrorNoReverseProxyRegistered)
	}
	return server, nil
}

// Hosts lists the chains with a registered endpoint.
func (p *Proxy) Hosts() []HostKey {
	p.lk.RLock()
	defer p.lk.RUnlock()
	keys := make([]HostKey, 0, len(p.handler))
	for k := range p.handler {
		keys = append(keys, k)
	}
	return keys
}

func (p *Proxy) RegisterReverseHandler(hostKey HostKey, server http.Handler) {
	p.lk.Lock()
	defer p.lk.Unlock()
	if server == nil {
		delete(p.handler, hostKey)
		log.Info("unregister reverse proxy for chain ", hostKey)
		return
	}
	log.Infof("register reverse proxy for chain %s", hostKey)
	p.handler[hostKey] = server
}

func (p *Proxy) RegisterReverseByAddr(hostKey HostKey, address string) error {
	// unregister handler if address is empty
	if address == "" {
		p.RegisterReverseHandler(hostKey, nil)
		return nil
	}
	u, err := parseAddr(address)
	if err != nil {
		return err
	}

	log.Infof("register reverse proxy for chain %s: %s", hostKey, u.String())
	p.RegisterReverseHandler(hostKey, NewReverseServer(u))
	return nil
}

// parseAddr parse a multiaddr or normal url string into url.Url
func parseAddr(address string) (*url.URL, error) {
	ma, err := multiaddr.NewMultiaddr(address)
	if err == nil {
		_, addr, err := maNet.DialArgs(ma)
		if err != nil {
			return nil, fmt.Errorf("parser libp2p url fail %w", err)
		}

		hasTLS := false

		_, err = ma.ValueForProtocol(multiaddr.P_WSS)
		if err == nil {
			hasTLS = true
		} else if err != multiaddr.ErrProtocolNotFound {
			return nil, err
		}

		_, err = ma.ValueForProtocol(multiaddr.P_HTTPS)
		if err == nil {
			hasTLS = true
		} else if err != multiaddr.ErrProtocolNotFound {
			return nil, err
		}

		if hasTLS {
			address = "https://" + addr
		} else {
			address = "http://" + addr
		}
	}

	return url.Parse(address)
}
