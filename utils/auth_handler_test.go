package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/filecoin-project/go-jsonrpc/auth"
	"github.com/ipfs-force-community/sophon-auth/core"
	"github.com/stretchr/testify/require"
)

type seen struct {
	name  string
	named bool
	ip    string
	admin bool
	sign  bool
}

func recordingHandler(out *seen) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		out.name, out.named = core.CtxGetName(ctx)
		out.ip, _ = core.CtxGetTokenLocation(ctx)
		out.admin = auth.HasPerm(ctx, nil, core.PermAdmin)
		out.sign = auth.HasPerm(ctx, nil, core.PermSign)
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthHandler(t *testing.T) {
	jwt, err := NewLocalJwtClient(t.TempDir())
	require.NoError(t, err)
	walletToken, err := jwt.NewToken("wallet-1", core.PermSign)
	require.NoError(t, err)

	serve := func(remote string, header http.Header) (int, seen) {
		var got seen
		req := httptest.NewRequest(http.MethodPost, "/rpc/v0", nil)
		req.RemoteAddr = remote
		for k, v := range header {
			req.Header[k] = v
		}
		rec := httptest.NewRecorder()
		NewAuthHandler(jwt, recordingHandler(&got)).ServeHTTP(rec, req)
		return rec.Code, got
	}

	t.Run("local without token", func(t *testing.T) {
		code, got := serve("127.0.0.1:5555", nil)
		require.Equal(t, http.StatusOK, code)
		require.True(t, got.admin)
		require.False(t, got.named)
		require.Equal(t, "127.0.0.1:5555", got.ip)
	})

	t.Run("remote without token", func(t *testing.T) {
		code, _ := serve("10.0.0.2:5555", nil)
		require.Equal(t, http.StatusUnauthorized, code)
	})

	t.Run("wallet token", func(t *testing.T) {
		code, got := serve("10.0.0.2:5555", http.Header{
			"Authorization": {"Bearer " + string(walletToken)},
			"X-Real-Ip":     {"1.2.3.4"},
		})
		require.Equal(t, http.StatusOK, code)
		require.Equal(t, "wallet-1", got.name)
		require.True(t, got.sign)
		require.False(t, got.admin)
		require.Equal(t, "1.2.3.4", got.ip)
	})

	t.Run("missing bearer prefix", func(t *testing.T) {
		code, _ := serve("10.0.0.2:5555", http.Header{"Authorization": {string(walletToken)}})
		require.Equal(t, http.StatusUnauthorized, code)
	})

	t.Run("forged token", func(t *testing.T) {
		other, err := NewLocalJwtClient(t.TempDir())
		require.NoError(t, err)
		forged, err := other.NewToken("wallet-1", core.PermAdmin)
		require.NoError(t, err)
		code, _ := serve("127.0.0.1:5555", http.Header{"Authorization": {"Bearer " + string(forged)}})
		require.Equal(t, http.StatusUnauthorized, code)
	})
}

func TestJwtUserFromToken(t *testing.T) {
	jwt, err := NewLocalJwtClient(t.TempDir())
	require.NoError(t, err)
	name, err := jwtUserFromToken(string(jwt.Token))
	require.NoError(t, err)
	require.Equal(t, LocalTokenName, name)

	_, err = jwtUserFromToken("not-a-token")
	require.Error(t, err)
}
