package cmds

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

var ProxyCmds = &cli.Command{
	Name:        "proxy",
	Usage:       "manipulate chain rpc proxies registered in the daemon",
	Subcommands: []*cli.Command{setProxyCmd},
}

var setProxyCmd = &cli.Command{
	Name:  "set",
	Usage: "set proxy (or unset proxy by setting a empty url)",
	Flags: []cli.Flag{
		&cli.Uint64Flag{
			Name:     "chain-id",
			Usage:    "chain id relay wallets put in the Airdrop-Chain-Id header",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "url",
			Usage: "the node url or multiaddr requests are forwarded to",
		},
	},
	Action: func(cctx *cli.Context) error {
		api, closer, err := NewGatewayClient(cctx)
		if err != nil {
			return err
		}
		defer closer()

		u := cctx.String("url")
		chainID := cctx.Uint64("chain-id")

		err = api.RegisterReverse(cctx.Context, chainID, u)
		if err != nil {
			return err
		}

		if u == "" {
			fmt.Printf("unset chain %d success \n", chainID)
			return nil
		}

		fmt.Printf("set chain %d to %s success \n", chainID, u)
		return nil
	},
}
