package cmds

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli/v2"

	"github.com/ipfs-force-community/onet-airdrop/api"
	"github.com/ipfs-force-community/onet-airdrop/connector"
)

var SessionCmds = &cli.Command{
	Name:        "session",
	Usage:       "drive the claim session of a running daemon",
	Subcommands: []*cli.Command{sessionViewCmd, sessionConnectCmd, sessionClaimCmd, sessionCancelCmd},
}

var sessionViewCmd = &cli.Command{
	Name:  "view",
	Usage: "print the current session",
	Action: func(cctx *cli.Context) error {
		api, closer, err := NewGatewayClient(cctx)
		if err != nil {
			return err
		}
		defer closer()

		view, err := api.SessionView(cctx.Context)
		if err != nil {
			return err
		}
		return printJSON(view)
	},
}

var sessionConnectCmd = &cli.Command{
	Name:      "connect",
	Usage:     "connect a wallet and wait for the result",
	ArgsUsage: fmt.Sprintf("<%s|%s>", connector.Injected, connector.RelayBased),
	Action: func(cctx *cli.Context) error {
		if cctx.NArg() != 1 {
			return fmt.Errorf("expect one connection method")
		}
		api, closer, err := NewGatewayClient(cctx)
		if err != nil {
			return err
		}
		defer closer()

		res, err := api.SessionConnect(cctx.Context, cctx.Args().First())
		if err != nil {
			return err
		}
		return printResult(res)
	},
}

var sessionClaimCmd = &cli.Command{
	Name:  "claim",
	Usage: "claim with the connected wallet and wait for confirmation",
	Action: func(cctx *cli.Context) error {
		api, closer, err := NewGatewayClient(cctx)
		if err != nil {
			return err
		}
		defer closer()

		res, err := api.SessionClaim(cctx.Context)
		if err != nil {
			return err
		}
		return printResult(res)
	},
}

var sessionCancelCmd = &cli.Command{
	Name:  "cancel",
	Usage: "abort the running connect or claim",
	Action: func(cctx *cli.Context) error {
		api, closer, err := NewGatewayClient(cctx)
		if err != nil {
			return err
		}
		defer closer()

		cancelled, err := api.SessionCancel(cctx.Context)
		if err != nil {
			return err
		}
		if !cancelled {
			fmt.Println("nothing to cancel")
			return nil
		}
		fmt.Println("cancelled")
		return nil
	},
}

var StatusCmd = &cli.Command{
	Name:      "status",
	Usage:     "query whether an address already claimed",
	ArgsUsage: "<address>",
	Action: func(cctx *cli.Context) error {
		addr := cctx.Args().First()
		if !common.IsHexAddress(addr) {
			return fmt.Errorf("invalid address %q", addr)
		}
		api, closer, err := NewGatewayClient(cctx)
		if err != nil {
			return err
		}
		defer closer()

		account := common.HexToAddress(addr)
		claimed, err := api.HasClaimed(cctx.Context, account)
		if err != nil {
			return err
		}
		if claimed {
			fmt.Printf("%s: claimed\n", account.Hex())
			return nil
		}
		fmt.Printf("%s: not claimed\n", account.Hex())
		return nil
	},
}

func printResult(res *api.SessionResult) error {
	for _, n := range res.Notifications {
		fmt.Println(n.Message)
	}
	return printJSON(res.View)
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, " ", "\t")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
