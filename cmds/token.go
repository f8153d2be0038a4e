package cmds

import (
	"fmt"

	"github.com/ipfs-force-community/sophon-auth/core"
	"github.com/urfave/cli/v2"

	"github.com/ipfs-force-community/onet-airdrop/config"
	"github.com/ipfs-force-community/onet-airdrop/utils"
)

var TokenCmds = &cli.Command{
	Name:        "token",
	Usage:       "issue tokens signed with the repo secret",
	Subcommands: []*cli.Command{tokenCreateCmd},
}

var tokenCreateCmd = &cli.Command{
	Name:      "create",
	Usage:     "create a token, relay wallets need the sign permission",
	ArgsUsage: "<name>",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "perm",
			Usage: fmt.Sprintf("permission, one of %s, %s, %s, %s", core.PermRead, core.PermWrite, core.PermSign, core.PermAdmin),
			Value: core.PermSign,
		},
	},
	Action: func(cctx *cli.Context) error {
		name := cctx.Args().First()
		if name == "" {
			return fmt.Errorf("token name is required")
		}
		perm := cctx.String("perm")
		switch perm {
		case core.PermRead, core.PermWrite, core.PermSign, core.PermAdmin:
		default:
			return fmt.Errorf("invalid permission %s", perm)
		}

		repo, err := config.RepoPath(cctx.String(RepoFlag.Name))
		if err != nil {
			return err
		}
		jwt, err := utils.NewLocalJwtClient(repo)
		if err != nil {
			return err
		}
		token, err := jwt.NewToken(name, perm)
		if err != nil {
			return err
		}
		fmt.Println(string(token))
		return nil
	},
}
