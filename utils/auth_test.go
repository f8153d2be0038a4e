package utils

import (
	"context"
	"testing"

	"github.com/filecoin-project/go-jsonrpc/auth"
	"github.com/ipfs-force-community/sophon-auth/core"
	"github.com/stretchr/testify/require"
)

func TestLocalJwtCreateAndVerify(t *testing.T) {
	ctx := context.Background()
	jwt, err := NewLocalJwtClient(t.TempDir())
	require.NoError(t, err)
	perm, err := jwt.Verify(ctx, string(jwt.Token))
	require.NoError(t, err)
	require.Equal(t, []auth.Permission{"admin", "sign", "write", "read"}, perm)

	payload, err := jwt.VerifyPayload(ctx, string(jwt.Token))
	require.NoError(t, err)
	require.Equal(t, LocalTokenName, payload.Name)
}

func TestSecretPersisted(t *testing.T) {
	ctx := context.Background()
	repo := t.TempDir()

	first, err := NewLocalJwtClient(repo)
	require.NoError(t, err)
	token, err := first.NewToken("wallet-1", core.PermSign)
	require.NoError(t, err)

	second, err := NewLocalJwtClient(repo)
	require.NoError(t, err)
	require.Equal(t, first.Seckey, second.Seckey)

	perm, err := second.Verify(ctx, string(token))
	require.NoError(t, err)
	require.Equal(t, []auth.Permission{"sign", "write", "read"}, perm)

	other, err := NewLocalJwtClient(t.TempDir())
	require.NoError(t, err)
	_, err = other.Verify(ctx, string(token))
	require.Error(t, err)
}

func TestSaveAndReadToken(t *testing.T) {
	repo := t.TempDir()
	jwt, err := NewLocalJwtClient(repo)
	require.NoError(t, err)
	require.NoError(t, jwt.SaveToken())

	token, err := ReadToken(repo)
	require.NoError(t, err)
	require.Equal(t, string(jwt.Token), token)
}
