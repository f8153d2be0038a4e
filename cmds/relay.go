package cmds

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli/v2"

	"github.com/ipfs-force-community/onet-airdrop/types"
)

var RelayCmds = &cli.Command{
	Name:        "relay",
	Usage:       "inspect wallets registered with the relay",
	Subcommands: []*cli.Command{listWalletCmds, getWalletStateCmds, getWalletByAddressCmds},
}

var listWalletCmds = &cli.Command{
	Name:  "list",
	Flags: []cli.Flag{},
	Action: func(cctx *cli.Context) error {
		api, closer, err := NewGatewayClient(cctx)
		if err != nil {
			return err
		}
		defer closer()

		wallets, err := api.ListWalletInfo(cctx.Context)
		if err != nil {
			return err
		}
		return printJSON(wallets)
	},
}

var getWalletStateCmds = &cli.Command{
	Name:      "state",
	Flags:     []cli.Flag{},
	ArgsUsage: "wallet-account",
	Action: func(cctx *cli.Context) error {
		api, closer, err := NewGatewayClient(cctx)
		if err != nil {
			return err
		}
		defer closer()

		walletAccount := cctx.Args().Get(0)
		walletState, err := api.ListWalletInfoByWallet(cctx.Context, walletAccount)
		if err != nil {
			return err
		}
		return printJSON(walletState)
	},
}

var getWalletByAddressCmds = &cli.Command{
	Name:      "list-support",
	Usage:     "query which wallet holds the address",
	Flags:     []cli.Flag{},
	ArgsUsage: "address",
	Action: func(cctx *cli.Context) error {
		addr := cctx.Args().Get(0)
		if !common.IsHexAddress(addr) {
			return fmt.Errorf("invalid address %q", addr)
		}
		api, closer, err := NewGatewayClient(cctx)
		if err != nil {
			return err
		}
		defer closer()

		wallets, err := api.ListWalletInfo(cctx.Context)
		if err != nil {
			return err
		}
		return printJSON(walletsHolding(wallets, common.HexToAddress(addr)))
	},
}

func walletsHolding(wallets []*types.WalletDetail, addr common.Address) []*types.WalletDetail {
	var supportWallets []*types.WalletDetail
	for _, wallet := range wallets {
		if holds(wallet, addr) {
			supportWallets = append(supportWallets, wallet)
		}
	}
	return supportWallets
}

func holds(wallet *types.WalletDetail, addr common.Address) bool {
	for _, state := range wallet.ConnectStates {
		for _, a := range state.Addrs {
			if a == addr {
				return true
			}
		}
	}
	return false
}
