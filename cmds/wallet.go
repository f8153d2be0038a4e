package cmds

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	logging "github.com/ipfs/go-log/v2"
	"github.com/urfave/cli/v2"

	"github.com/ipfs-force-community/onet-airdrop/config"
	"github.com/ipfs-force-community/onet-airdrop/connector"
	"github.com/ipfs-force-community/onet-airdrop/walletevent"
)

var WalletCmds = &cli.Command{
	Name:        "wallet",
	Usage:       "local keystore wallet, usable directly or through a relay",
	Subcommands: []*cli.Command{walletNewCmd, walletListCmd, walletServeCmd},
}

var keystoreFlag = &cli.StringFlag{
	Name:  "keystore",
	Usage: "keystore directory, the repo keystore by default",
}

var passphraseEnvFlag = &cli.StringFlag{
	Name:  "passphrase-env",
	Usage: "environment variable holding the keystore passphrase",
	Value: config.DefaultConfig().Injected.PassphraseEnv,
}

func keystoreDir(cctx *cli.Context) (string, error) {
	if dir := cctx.String(keystoreFlag.Name); dir != "" {
		return filepath.Abs(dir)
	}
	repo, err := config.RepoPath(cctx.String(RepoFlag.Name))
	if err != nil {
		return "", err
	}
	cfg, err := config.Load(repo)
	if err != nil {
		return "", err
	}
	return cfg.KeystorePath(repo), nil
}

var walletNewCmd = &cli.Command{
	Name:  "new",
	Usage: "create an account in the keystore",
	Flags: []cli.Flag{keystoreFlag, passphraseEnvFlag},
	Action: func(cctx *cli.Context) error {
		dir, err := keystoreDir(cctx)
		if err != nil {
			return err
		}
		pass, err := connector.EnvPassphrase(cctx.String(passphraseEnvFlag.Name))()
		if err != nil {
			return err
		}
		ks := keystore.NewKeyStore(dir, keystore.StandardScryptN, keystore.StandardScryptP)
		acc, err := ks.NewAccount(pass)
		if err != nil {
			return err
		}
		fmt.Println(acc.Address.Hex())
		return nil
	},
}

var walletListCmd = &cli.Command{
	Name:  "list",
	Usage: "list keystore accounts",
	Flags: []cli.Flag{keystoreFlag},
	Action: func(cctx *cli.Context) error {
		dir, err := keystoreDir(cctx)
		if err != nil {
			return err
		}
		ks, err := connector.OpenKeystore(dir, keystore.StandardScryptN, keystore.StandardScryptP)
		if err != nil {
			return err
		}
		for _, acc := range ks.Accounts() {
			fmt.Println(acc.Address.Hex())
		}
		return nil
	},
}

var walletServeCmd = &cli.Command{
	Name:  "serve",
	Usage: "register the keystore with a relay and answer its requests",
	Flags: []cli.Flag{
		keystoreFlag,
		passphraseEnvFlag,
		&cli.StringFlag{
			Name:     "url",
			Usage:    "relay address, multiaddr or ws url",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "relay-token",
			Usage:    "token with sign permission issued by the relay",
			Required: true,
		},
		&cli.BoolFlag{
			Name:  "auto-approve",
			Usage: "approve every connection request without asking",
		},
	},
	Action: func(cctx *cli.Context) error {
		ctx, cancel := context.WithCancel(cctx.Context)
		defer cancel()

		dir, err := keystoreDir(cctx)
		if err != nil {
			return err
		}
		ks, err := connector.OpenKeystore(dir, keystore.StandardScryptN, keystore.StandardScryptP)
		if err != nil {
			return err
		}
		pass, err := connector.EnvPassphrase(cctx.String(passphraseEnvFlag.Name))()
		if err != nil {
			return err
		}

		approve := connector.AutoApprove
		if !cctx.Bool("auto-approve") {
			approve = promptApprove(bufio.NewReader(os.Stdin))
		}

		url, err := DialArgs(cctx.String("url"))
		if err != nil {
			return err
		}
		client, closer, err := walletevent.NewWalletRegisterClient(ctx, url, cctx.String("relay-token"))
		if err != nil {
			return err
		}
		defer closer()

		wallet := connector.NewKeystoreWallet(ks, pass, approve)
		evtClient := walletevent.NewWalletEventClient(ctx, wallet, client, logging.Logger("wallet").With())
		go evtClient.ListenWalletRequest(ctx)
		evtClient.WaitReady(ctx)
		fmt.Printf("serving %d account(s) to %s\n", len(ks.Accounts()), url)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-sigCh:
		case <-ctx.Done():
		}
		return nil
	},
}

func promptApprove(in *bufio.Reader) connector.ApproveFunc {
	return func(ctx context.Context, origin string) bool {
		fmt.Printf("%s requests your accounts, approve? [y/N] ", origin)
		line, err := in.ReadString('\n')
		if err != nil {
			return false
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes"
	}
}
