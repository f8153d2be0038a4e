package integrate

import (
	"context"
	"math/big"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/filecoin-project/go-jsonrpc"
	"github.com/gorilla/mux"
	logging "github.com/ipfs/go-log/v2"
	"github.com/stretchr/testify/require"

	"github.com/ipfs-force-community/onet-airdrop/airdrop"
	"github.com/ipfs-force-community/onet-airdrop/api"
	"github.com/ipfs-force-community/onet-airdrop/claimscreen"
	"github.com/ipfs-force-community/onet-airdrop/config"
	"github.com/ipfs-force-community/onet-airdrop/connector"
	"github.com/ipfs-force-community/onet-airdrop/proxy"
	"github.com/ipfs-force-community/onet-airdrop/testhelper"
	"github.com/ipfs-force-community/onet-airdrop/utils"
	"github.com/ipfs-force-community/onet-airdrop/version"
	"github.com/ipfs-force-community/onet-airdrop/walletevent"
	"github.com/ipfs-force-community/onet-airdrop/webui"
)

var log = logging.Logger("mock main")

type mockDaemon struct {
	// httpURL serves the page, wsURL the json-rpc endpoint.
	httpURL string
	wsURL   string
	token   string
	jwt     *utils.LocalJwtClient
	chain   *testhelper.FakeChain
	proxy   *proxy.Proxy
}

// MockMain wires the daemon the way the run command does, with the chain
// replaced by an in-memory fake and the listener by httptest.
func MockMain(ctx context.Context, repoPath string, cfg *config.Config) (*mockDaemon, func(), error) {
	chainID := new(big.Int).SetUint64(cfg.Chain.ChainID)
	contractAddr := common.HexToAddress(cfg.Chain.ContractAddress)
	chain := testhelper.NewFakeChain(chainID, contractAddr)
	contract := airdrop.NewContract(chain, contractAddr, chainID, time.Millisecond)

	walletStream := walletevent.NewWalletEventStream(ctx, cfg.RequestConfig(), cfg.Relay.DisableVerifyAddress)
	injected := connector.NewKeystoreConnector(cfg.KeystorePath(repoPath), cfg.Injected.Account,
		connector.EnvPassphrase(cfg.Injected.PassphraseEnv))
	relay := connector.NewRelayConnector(walletStream, cfg.Relay.Origin)
	screen := claimscreen.New(ctx, connector.NewDispatcher(injected, relay), claimscreen.FromContract(contract),
		claimscreen.Config{ConnectTimeout: cfg.Screen.ConnectTimeout, ClaimTimeout: cfg.Screen.ClaimTimeout})

	chainProxy := proxy.NewProxy()
	gatewayAPIImpl := api.NewGatewayAPIImpl(walletStream, screen, contract, chainProxy)

	log.Infof("onet-airdrop current version %s", version.UserVersion)

	router := mux.NewRouter()
	rpcServer := jsonrpc.NewServer()
	rpcServer.Register(api.Namespace, api.PermissionedGateway(gatewayAPIImpl))
	router.Handle("/rpc/v0", rpcServer)
	webui.NewServer(screen, chain, cfg.Chain.ChainID).Register(router)

	localJwt, err := utils.NewLocalJwtClient(repoPath)
	if err != nil {
		return nil, nil, err
	}

	handler := utils.NewAuthHandler(localJwt, chainProxy.ProxyMiddleware(router))
	srv := httptest.NewServer(handler)

	closer := func() {
		srv.Close()
		screen.Close()
	}
	return &mockDaemon{
		httpURL: srv.URL,
		wsURL:   "ws" + strings.TrimPrefix(srv.URL, "http") + "/rpc/v0",
		token:   string(localJwt.Token),
		jwt:     localJwt,
		chain:   chain,
		proxy:   chainProxy,
	}, closer, nil
}

func setupDaemon(t *testing.T, ctx context.Context) *mockDaemon {
	repo := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Relay.RequestTimeout = 10 * time.Second
	cfg.Screen.ConnectTimeout = 30 * time.Second
	cfg.Screen.ClaimTimeout = 30 * time.Second

	d, closer, err := MockMain(ctx, repo, cfg)
	require.NoError(t, err)
	t.Cleanup(closer)
	return d
}
