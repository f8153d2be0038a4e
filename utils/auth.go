package utils

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/filecoin-project/go-jsonrpc/auth"
	jwt3 "github.com/gbrlsnchs/jwt/v3"
	auth2 "github.com/ipfs-force-community/sophon-auth/auth"
	"github.com/ipfs-force-community/sophon-auth/core"
)

const (
	TokenFile  = "token"
	SecretFile = "secret"

	// LocalTokenName is the account name of the admin token written to the repo.
	LocalTokenName = "OnetAirdropLocalToken"
)

// LocalJwtClient issues and verifies the tokens of this daemon. The secret is
// kept in the repo so wallet tokens survive restarts.
type LocalJwtClient struct {
	repo   string
	Seckey []byte
	Token  []byte
}

func NewLocalJwtClient(repo string) (*LocalJwtClient, error) {
	seckey, err := loadOrCreateSecret(filepath.Join(repo, SecretFile))
	if err != nil {
		return nil, err
	}

	l := &LocalJwtClient{
		repo:   repo,
		Seckey: seckey,
	}
	if l.Token, err = l.NewToken(LocalTokenName, core.PermAdmin); err != nil {
		return nil, err
	}
	return l, nil
}

func loadOrCreateSecret(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		return hex.DecodeString(strings.TrimSpace(string(data)))
	}
	if !os.IsNotExist(err) {
		return nil, err
	}

	var seckey []byte
	if seckey, err = io.ReadAll(io.LimitReader(rand.Reader, 32)); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, []byte(hex.EncodeToString(seckey)), 0600); err != nil {
		return nil, err
	}
	return seckey, nil
}

// NewToken signs a token for name with perm, one of the sophon-auth permission levels.
func (l *LocalJwtClient) NewToken(name, perm string) ([]byte, error) {
	return jwt3.Sign(auth2.JWTPayload{
		Perm: perm,
		Name: name,
	}, jwt3.NewHS256(l.Seckey))
}

// VerifyPayload checks token and returns its claims.
func (l *LocalJwtClient) VerifyPayload(ctx context.Context, token string) (*auth2.JWTPayload, error) {
	var payload auth2.JWTPayload
	if _, err := jwt3.Verify([]byte(token), jwt3.NewHS256(l.Seckey), &payload); err != nil {
		return nil, fmt.Errorf("JWT Verification failed: %v", err)
	}
	return &payload, nil
}

func (l *LocalJwtClient) Verify(ctx context.Context, token string) ([]auth.Permission, error) {
	payload, err := l.VerifyPayload(ctx, token)
	if err != nil {
		return nil, err
	}
	jwtPerms := core.AdaptOldStrategy(payload.Perm)
	perms := make([]auth.Permission, len(jwtPerms))
	copy(perms, jwtPerms)
	return perms, nil
}

func (l *LocalJwtClient) SaveToken() error {
	return os.WriteFile(filepath.Join(l.repo, TokenFile), l.Token, 0600)
}

// ReadToken loads the admin token written by a running daemon.
func ReadToken(repo string) (string, error) {
	token, err := os.ReadFile(filepath.Join(repo, TokenFile))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(token)), nil
}
