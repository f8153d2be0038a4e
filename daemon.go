package main

import (
	"context"
	"fmt"
	"math/big"
	"net"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/filecoin-project/go-jsonrpc"
	"github.com/gorilla/mux"
	"github.com/ipfs-force-community/metrics"
	"github.com/multiformats/go-multiaddr"
	manet "github.com/multiformats/go-multiaddr/net"
	"go.opencensus.io/plugin/ochttp"

	"github.com/ipfs-force-community/onet-airdrop/airdrop"
	"github.com/ipfs-force-community/onet-airdrop/api"
	"github.com/ipfs-force-community/onet-airdrop/claimscreen"
	"github.com/ipfs-force-community/onet-airdrop/config"
	"github.com/ipfs-force-community/onet-airdrop/connector"
	airdropMetrics "github.com/ipfs-force-community/onet-airdrop/metrics"
	"github.com/ipfs-force-community/onet-airdrop/proxy"
	"github.com/ipfs-force-community/onet-airdrop/utils"
	"github.com/ipfs-force-community/onet-airdrop/version"
	"github.com/ipfs-force-community/onet-airdrop/walletevent"
	"github.com/ipfs-force-community/onet-airdrop/webui"
)

// daemon hosts the claim screen, the relay and the web page on one listener.
type daemon struct {
	screen   *claimscreen.Screen
	chain    *ethclient.Client
	srv      *http.Server
	listener manet.Listener
	closers  []func()
}

func setupDaemon(ctx context.Context, repo string, cfg *config.Config) (*daemon, error) {
	log.Infof("onet-airdrop current version %s, listen %s", version.UserVersion, cfg.API.ListenAddress)

	d := &daemon{}
	ok := false
	defer func() {
		if !ok {
			d.close()
		}
	}()

	chain, err := airdrop.Dial(ctx, cfg.Chain.RPC, cfg.Chain.ChainID)
	if err != nil {
		return nil, err
	}
	d.chain = chain
	d.closers = append(d.closers, chain.Close)

	contract := airdrop.NewContract(chain, common.HexToAddress(cfg.Chain.ContractAddress),
		new(big.Int).SetUint64(cfg.Chain.ChainID), cfg.Chain.ReceiptPollInterval)

	walletStream := walletevent.NewWalletEventStream(ctx, cfg.RequestConfig(), cfg.Relay.DisableVerifyAddress)

	injected := connector.NewKeystoreConnector(cfg.KeystorePath(repo), cfg.Injected.Account,
		connector.EnvPassphrase(cfg.Injected.PassphraseEnv))
	relay := connector.NewRelayConnector(walletStream, cfg.Relay.Origin)
	d.screen = claimscreen.New(ctx, connector.NewDispatcher(injected, relay), claimscreen.FromContract(contract),
		claimscreen.Config{ConnectTimeout: cfg.Screen.ConnectTimeout, ClaimTimeout: cfg.Screen.ClaimTimeout})
	d.closers = append(d.closers, d.screen.Close)

	chainProxy, err := proxy.NewProxyFromRPC(cfg.Chain.RPC)
	if err != nil {
		return nil, err
	}

	gatewayAPIImpl := api.NewGatewayAPIImpl(walletStream, d.screen, contract, chainProxy)
	gatewayAPI := api.PermissionedGateway(gatewayAPIImpl)

	router := mux.NewRouter()
	rpcServer := jsonrpc.NewServer()
	rpcServer.Register(api.Namespace, gatewayAPI)
	router.Handle("/rpc/v0", rpcServer)
	webui.NewServer(d.screen, chain, cfg.Chain.ChainID).Register(router)

	localJwt, err := utils.NewLocalJwtClient(repo)
	if err != nil {
		return nil, fmt.Errorf("make token failed:%s", err.Error())
	}
	if err = localJwt.SaveToken(); err != nil {
		return nil, err
	}

	var handler http.Handler = chainProxy.ProxyMiddleware(router)
	handler = utils.NewAuthHandler(localJwt, handler)

	if repoter, err := metrics.RegisterJaeger(cfg.Trace.ServerName, cfg.Trace); err != nil {
		return nil, fmt.Errorf("register %s JaegerRepoter to %s failed:%s", cfg.Trace.ServerName, cfg.Trace.JaegerEndpoint, err)
	} else if repoter != nil {
		log.Infof("register jaeger-tracing exporter to %s, with node-name:%s", cfg.Trace.JaegerEndpoint, cfg.Trace.ServerName)
		d.closers = append(d.closers, func() { metrics.UnregisterJaeger(repoter) })
		handler = &ochttp.Handler{Handler: handler}
	}

	if err := airdropMetrics.SetupMetrics(ctx, cfg.Metrics, walletStream); err != nil {
		return nil, err
	}

	addr, err := multiaddr.NewMultiaddr(cfg.API.ListenAddress)
	if err != nil {
		return nil, err
	}
	if d.listener, err = manet.Listen(addr); err != nil {
		return nil, err
	}

	d.srv = &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 30 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	ok = true
	return d, nil
}

func (d *daemon) serve(ctx context.Context) error {
	log.Infof("start to rpc listen %s", d.listener.Addr())
	airdropMetrics.ApiState.Set(ctx, 1)
	defer airdropMetrics.ApiState.Set(ctx, 0)

	if err := d.srv.Serve(manet.NetListener(d.listener)); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (d *daemon) shutdown(ctx context.Context) {
	log.Info("Shutting down...")
	if d.srv != nil {
		if err := d.srv.Shutdown(ctx); err != nil {
			log.Errorf("shutting down RPC server failed: %s", err)
		}
	}
	d.close()
}

func (d *daemon) close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
	d.closers = nil
}
