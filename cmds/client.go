package cmds

import (
	"net/url"

	"github.com/filecoin-project/go-jsonrpc"
	"github.com/multiformats/go-multiaddr"
	manet "github.com/multiformats/go-multiaddr/net"
	"github.com/urfave/cli/v2"

	"github.com/ipfs-force-community/onet-airdrop/api"
	"github.com/ipfs-force-community/onet-airdrop/config"
	"github.com/ipfs-force-community/onet-airdrop/utils"
)

// Shared by the daemon and every client command.
var (
	RepoFlag = &cli.StringFlag{
		Name:    "repo",
		Usage:   "repo directory holding config, secret and keystore",
		EnvVars: []string{"ONET_AIRDROP_PATH"},
		Value:   config.DefaultRepo,
	}
	ListenFlag = &cli.StringFlag{
		Name:  "listen",
		Usage: "daemon api address, overrides the repo config",
	}
	TokenFlag = &cli.StringFlag{
		Name:  "token",
		Usage: "token used to call the daemon, read from the repo by default",
	}
)

// NewGatewayClient dials the daemon named by the repo config or --listen.
func NewGatewayClient(cctx *cli.Context) (api.IGateway, jsonrpc.ClientCloser, error) {
	repo, err := config.RepoPath(cctx.String(RepoFlag.Name))
	if err != nil {
		return nil, nil, err
	}

	listen := cctx.String(ListenFlag.Name)
	if listen == "" {
		cfg, err := config.Load(repo)
		if err != nil {
			return nil, nil, err
		}
		listen = cfg.API.ListenAddress
	}
	addr, err := DialArgs(listen)
	if err != nil {
		return nil, nil, err
	}

	token := cctx.String(TokenFlag.Name)
	if token == "" {
		if token, err = utils.ReadToken(repo); err != nil {
			return nil, nil, err
		}
	}

	return api.NewGatewayClient(cctx.Context, addr, token)
}

func DialArgs(addr string) (string, error) {
	ma, err := multiaddr.NewMultiaddr(addr)
	if err == nil {
		_, addr, err := manet.DialArgs(ma)
		if err != nil {
			return "", err
		}

		return "ws://" + addr + "/rpc/v0", nil
	}

	_, err = url.Parse(addr)
	if err != nil {
		return "", err
	}
	return addr + "/rpc/v0", nil
}
