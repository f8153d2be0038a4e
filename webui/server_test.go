package webui

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ipfs-force-community/onet-airdrop/airdrop"
	"github.com/ipfs-force-community/onet-airdrop/claimscreen"
	"github.com/ipfs-force-community/onet-airdrop/connector"
	"github.com/ipfs-force-community/onet-airdrop/testhelper"
)

type injectedFunc func(ctx context.Context) (*connector.Connection, error)

func (f injectedFunc) Connect(ctx context.Context) (*connector.Connection, error) { return f(ctx) }

type chainReader struct {
	id  *big.Int
	err error
}

func (c chainReader) ChainID(ctx context.Context) (*big.Int, error) { return c.id, c.err }

type pageEnv struct {
	t      *testing.T
	srv    *httptest.Server
	screen *claimscreen.Screen
	chain  *testhelper.FakeChain
	addr   common.Address
	client *http.Client
}

func setupPage(t *testing.T, reader ChainReader) *pageEnv {
	ctx := context.Background()
	chainID := big.NewInt(10218)
	contractAddr := common.HexToAddress(airdrop.DefaultContractAddress)
	chain := testhelper.NewFakeChain(chainID, contractAddr)
	wallet := testhelper.NewMemWallet()
	addr, err := wallet.AddKey(ctx)
	require.NoError(t, err)

	injected := injectedFunc(func(ctx context.Context) (*connector.Connection, error) {
		return &connector.Connection{Address: addr, Signer: wallet.Signer(addr)}, nil
	})
	contract := airdrop.NewContract(chain, contractAddr, chainID, time.Millisecond)
	screen := claimscreen.New(ctx, connector.NewDispatcher(injected, nil), claimscreen.FromContract(contract), claimscreen.DefaultConfig())
	t.Cleanup(screen.Close)

	r := mux.NewRouter()
	NewServer(screen, reader, 10218).Register(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &pageEnv{
		t:      t,
		srv:    srv,
		screen: screen,
		chain:  chain,
		addr:   addr,
		client: &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}},
	}
}

func (p *pageEnv) get(path string) (int, string) {
	resp, err := p.client.Get(p.srv.URL + path)
	require.NoError(p.t, err)
	defer resp.Body.Close() //nolint
	body, err := io.ReadAll(resp.Body)
	require.NoError(p.t, err)
	return resp.StatusCode, string(body)
}

// post submits a form and waits for the operation it started to settle.
func (p *pageEnv) post(path string) int {
	resp, err := p.client.Post(p.srv.URL+path, "application/x-www-form-urlencoded", nil)
	require.NoError(p.t, err)
	_ = resp.Body.Close()
	require.Eventually(p.t, func() bool { return !p.screen.Session().Busy() }, 5*time.Second, time.Millisecond)
	return resp.StatusCode
}

func TestPageFlow(t *testing.T) {
	p := setupPage(t, chainReader{id: big.NewInt(10218)})

	code, body := p.get("/")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "<title>ONET Airdrop</title>")
	assert.Contains(t, body, "Klaim token kucing ONET gratis di jaringan Tea Sepolia")
	assert.Contains(t, body, "Airdrop Token ONET")
	assert.Contains(t, body, `action="/connect/injected"`)
	assert.Contains(t, body, `action="/connect/relay"`)
	assert.NotContains(t, body, "Akun:")

	require.Equal(t, http.StatusSeeOther, p.post("/connect/metamask"))
	_, body = p.get("/")
	assert.Contains(t, body, "Akun: "+p.addr.Hex())
	assert.Contains(t, body, "Klaim Sekarang")
	assert.NotContains(t, body, "/connect/")

	require.Equal(t, http.StatusSeeOther, p.post("/claim"))
	_, body = p.get("/")
	assert.Contains(t, body, "Airdrop berhasil diklaim!")
	assert.Contains(t, body, "Anda sudah klaim ONET.")
	assert.NotContains(t, body, "Klaim Sekarang")

	// notifications are shown once
	_, body = p.get("/")
	assert.NotContains(t, body, "Airdrop berhasil diklaim!")
	assert.Contains(t, body, "Anda sudah klaim ONET.")
}

func TestPageUnavailable(t *testing.T) {
	p := setupPage(t, chainReader{id: big.NewInt(10218)})

	require.Equal(t, http.StatusSeeOther, p.post("/connect/relay"))
	_, body := p.get("/")
	assert.Contains(t, body, "Wallet tidak tersedia.")
	assert.Contains(t, body, `action="/connect/relay"`)
	assert.Equal(t, 0, p.chain.Calls(""))
}

func TestUnknownMethod(t *testing.T) {
	p := setupPage(t, chainReader{id: big.NewInt(10218)})
	require.Equal(t, http.StatusBadRequest, p.post("/connect/carrier-pigeon"))
	assert.Equal(t, claimscreen.Disconnected, p.screen.State())
}

func TestSessionJSON(t *testing.T) {
	p := setupPage(t, chainReader{id: big.NewInt(10218)})
	p.chain.SetClaimed(p.addr, true)
	p.post("/connect/injected")

	code, body := p.get("/api/session")
	require.Equal(t, http.StatusOK, code)
	var view claimscreen.View
	require.NoError(t, json.Unmarshal([]byte(body), &view))
	assert.Equal(t, claimscreen.ConnectedClaimed.String(), view.State)
	assert.Equal(t, p.addr.Hex(), view.Account)
	assert.True(t, view.Claimed)
	assert.False(t, view.CanClaim)
}

func TestCancelIdle(t *testing.T) {
	p := setupPage(t, chainReader{id: big.NewInt(10218)})
	require.Equal(t, http.StatusSeeOther, p.post("/cancel"))
	assert.Equal(t, claimscreen.Disconnected, p.screen.State())
}

func TestHealthcheck(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		p := setupPage(t, chainReader{id: big.NewInt(10218)})
		code, _ := p.get("/healthcheck")
		require.Equal(t, http.StatusOK, code)
	})

	t.Run("wrong chain", func(t *testing.T) {
		p := setupPage(t, chainReader{id: big.NewInt(1)})
		code, body := p.get("/healthcheck")
		require.Equal(t, http.StatusServiceUnavailable, code)
		assert.Contains(t, body, "node serves chain 1")
	})

	t.Run("node down", func(t *testing.T) {
		p := setupPage(t, chainReader{err: errors.New("connection refused")})
		code, body := p.get("/healthcheck")
		require.Equal(t, http.StatusServiceUnavailable, code)
		assert.Contains(t, body, "connection refused")
	})
}

func TestCrossSitePostRefused(t *testing.T) {
	p := setupPage(t, chainReader{id: big.NewInt(10218)})

	send := func(path string, header http.Header) int {
		req, err := http.NewRequest(http.MethodPost, p.srv.URL+path, nil)
		require.NoError(t, err)
		req.Header = header
		resp, err := p.client.Do(req)
		require.NoError(t, err)
		_ = resp.Body.Close()
		return resp.StatusCode
	}

	evil := http.Header{"Origin": {"https://evil.example"}, "Sec-Fetch-Site": {"cross-site"}}
	require.Equal(t, http.StatusForbidden, send("/connect/injected", evil))
	require.Equal(t, http.StatusForbidden, send("/connect/injected", http.Header{"Origin": {"https://evil.example"}}))
	require.Equal(t, http.StatusForbidden, send("/connect/injected", http.Header{"Sec-Fetch-Site": {"same-site"}}))
	require.Equal(t, http.StatusForbidden, send("/connect/injected", http.Header{"Origin": {"null"}}))
	assert.Equal(t, claimscreen.Disconnected, p.screen.State())

	require.Equal(t, http.StatusSeeOther, send("/connect/injected", http.Header{
		"Origin":         {p.srv.URL},
		"Sec-Fetch-Site": {"same-origin"},
	}))
	require.Eventually(t, func() bool { return p.screen.State() == claimscreen.ConnectedUnclaimed }, 5*time.Second, time.Millisecond)

	require.Equal(t, http.StatusForbidden, send("/claim", evil))
	require.Never(t, func() bool { return p.screen.Session().Busy() }, 50*time.Millisecond, time.Millisecond)
	assert.Equal(t, 0, p.chain.Calls("SendTransaction"))
	assert.Equal(t, claimscreen.ConnectedUnclaimed, p.screen.State())
}

func TestTokenCarriedByActions(t *testing.T) {
	p := setupPage(t, chainReader{id: big.NewInt(10218)})

	_, body := p.get("/?token=abc.def")
	assert.Contains(t, body, `action="/connect/injected?token=abc.def"`)

	resp, err := p.client.Post(p.srv.URL+"/connect/injected?token=abc.def", "application/x-www-form-urlencoded", nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/?token=abc.def", resp.Header.Get("Location"))
	require.Eventually(t, func() bool { return !p.screen.Session().Busy() }, 5*time.Second, time.Millisecond)

	_, body = p.get("/?token=abc.def")
	assert.Contains(t, body, `action="/claim?token=abc.def"`)
}
