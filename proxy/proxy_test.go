package proxy

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func TestRegisterProxyHeader(t *testing.T) {
	t.Run("test invalid header", func(t *testing.T) {
		proxy := NewProxy()
		_, err := proxy.getReverseHandler("test-header")
		require.Error(t, err)
		require.True(t, errors.Is(err, ErrorInvalidHeader))
	})

	t.Run("test unregistered chain", func(t *testing.T) {
		proxy := NewProxy()
		_, err := proxy.getReverseHandler("10218")
		require.Error(t, err)
		require.NotErrorIs(t, err, ErrorInvalidHeader)
		require.ErrorIs(t, err, ErrorNoReverseProxyRegistered)
	})

	t.Run("test rpc map", func(t *testing.T) {
		proxy, err := NewProxyFromRPC(map[string]string{"10218": "https://rpc.testnet.tea.xyz"})
		require.NoError(t, err)
		_, err = proxy.getReverseHandler("10218")
		require.NoError(t, err)
		require.Equal(t, []HostKey{ChainHost(10218)}, proxy.Hosts())

		_, err = NewProxyFromRPC(map[string]string{"tea": "https://rpc.testnet.tea.xyz"})
		require.Error(t, err)
	})
}

func TestRegisterReverseProxy(t *testing.T) {
	proxy := NewProxy()
	_, err := proxy.getReverseHandler("1")
	require.ErrorIs(t, err, ErrorNoReverseProxyRegistered)

	u, err := url.Parse("http://localhost")
	require.NoError(t, err)

	proxy.RegisterReverseHandler(ChainHost(1), NewReverseServer(u))
	_, err = proxy.getReverseHandler("1")
	require.NoError(t, err)

	// unset
	proxy.RegisterReverseHandler(ChainHost(1), nil)
	_, err = proxy.getReverseHandler("1")
	require.ErrorIs(t, err, ErrorNoReverseProxyRegistered)

	require.NoError(t, proxy.RegisterReverseByAddr(ChainHost(1), "/ip4/127.0.0.1/tcp/8545"))
	_, err = proxy.getReverseHandler("1")
	require.NoError(t, err)

	// unset by empty addr
	require.NoError(t, proxy.RegisterReverseByAddr(ChainHost(1), ""))
	_, err = proxy.getReverseHandler("1")
	require.ErrorIs(t, err, ErrorNoReverseProxyRegistered)
}

func TestParseAddr(t *testing.T) {
	u, err := parseAddr("/ip4/127.0.0.1/tcp/8545")
	require.NoError(t, err)
	require.Equal(t, "http://127.0.0.1:8545", u.String())

	u, err = parseAddr("/dns4/rpc.testnet.tea.xyz/tcp/443/https")
	require.NoError(t, err)
	require.Equal(t, "https://rpc.testnet.tea.xyz:443", u.String())

	u, err = parseAddr("https://rpc.testnet.tea.xyz")
	require.NoError(t, err)
	require.Equal(t, "rpc.testnet.tea.xyz", u.Host)
}

func TestProxyMiddlewareHTTP(t *testing.T) {
	var gotPath, gotAuth string
	node := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_, _ = io.WriteString(w, `{"jsonrpc":"2.0","id":1,"result":"0x27ea"}`)
	}))
	defer node.Close()

	proxy := NewProxy()
	require.NoError(t, proxy.RegisterReverseByAddr(ChainHost(10218), node.URL+"/rpc"))

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "gateway")
	})
	gateway := httptest.NewServer(proxy.ProxyMiddleware(next))
	defer gateway.Close()

	post := func(chainID string) (int, string) {
		req, err := http.NewRequest(http.MethodPost, gateway.URL+"/rpc/v0", strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"eth_chainId"}`))
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer secret")
		if chainID != "" {
			req.Header.Set(ChainIDHeader, chainID)
		}
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close() //nolint
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp.StatusCode, string(body)
	}

	code, body := post("10218")
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, body, "0x27ea")
	require.Equal(t, "/rpc", gotPath)
	require.Empty(t, gotAuth)

	code, body = post("")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "gateway", body)

	code, _ = post("1")
	require.Equal(t, http.StatusBadRequest, code)
}

func TestProxyWebsocket(t *testing.T) {
	upgrader := websocket.Upgrader{}
	node := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close() //nolint
		for {
			mt, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if err := conn.WriteMessage(mt, append([]byte("echo:"), msg...)); err != nil {
				return
			}
		}
	}))
	defer node.Close()

	u, err := url.Parse(node.URL)
	require.NoError(t, err)
	gateway := httptest.NewServer(NewReverseServer(u))
	defer gateway.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(gateway.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close() //nolint

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("eth_blockNumber")))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, "echo:eth_blockNumber", string(msg))
}
