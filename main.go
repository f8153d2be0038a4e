package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	logging "github.com/ipfs/go-log/v2"
	"github.com/urfave/cli/v2"

	"github.com/ipfs-force-community/onet-airdrop/cmds"
	"github.com/ipfs-force-community/onet-airdrop/config"
	"github.com/ipfs-force-community/onet-airdrop/tui"
	"github.com/ipfs-force-community/onet-airdrop/utils"
	"github.com/ipfs-force-community/onet-airdrop/version"
)

var log = logging.Logger("main")

func main() {
	app := &cli.App{
		Name:  "onet-airdrop",
		Usage: "claim the ONET airdrop with a local keystore or a relayed wallet",
		Flags: []cli.Flag{
			cmds.RepoFlag,
			cmds.ListenFlag,
			cmds.TokenFlag,
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level of every subsystem",
				Value: "info",
			},
		},
		Before: func(cctx *cli.Context) error {
			return logging.SetLogLevel("*", cctx.String("log-level"))
		},
		Commands: []*cli.Command{
			initCmd, runCmd, claimCmd,
			cmds.SessionCmds, cmds.StatusCmd, cmds.RelayCmds, cmds.WalletCmds, cmds.ProxyCmds, cmds.TokenCmds,
		},
	}
	app.Version = version.UserVersion
	if err := app.Run(os.Args); err != nil {
		log.Warn(err)
		os.Exit(1)
	}
}

var initCmd = &cli.Command{
	Name:  "init",
	Usage: "write the default config and the api secret into the repo",
	Action: func(cctx *cli.Context) error {
		repo, err := config.RepoPath(cctx.String(cmds.RepoFlag.Name))
		if err != nil {
			return err
		}
		if err := os.MkdirAll(repo, 0755); err != nil {
			return err
		}

		cfgPath := filepath.Join(repo, config.ConfigFile)
		if _, err := os.Stat(cfgPath); err == nil {
			return fmt.Errorf("config %s already exists", cfgPath)
		}
		cfg := config.DefaultConfig()
		if err := config.WriteConfig(cfgPath, cfg); err != nil {
			return err
		}
		if err := os.MkdirAll(cfg.KeystorePath(repo), 0700); err != nil {
			return err
		}

		localJwt, err := utils.NewLocalJwtClient(repo)
		if err != nil {
			return err
		}
		if err := localJwt.SaveToken(); err != nil {
			return err
		}
		fmt.Printf("initialized repo %s\n", repo)
		return nil
	},
}

var runCmd = &cli.Command{
	Name:  "run",
	Usage: "start onet-airdrop daemon",
	Action: func(cctx *cli.Context) error {
		repo, cfg, err := loadRepo(cctx)
		if err != nil {
			return err
		}
		return RunMain(cctx.Context, repo, cfg)
	},
}

var claimCmd = &cli.Command{
	Name:  "claim",
	Usage: "start the daemon and drive the claim screen from this terminal",
	Action: func(cctx *cli.Context) error {
		repo, cfg, err := loadRepo(cctx)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(cctx.Context)
		defer cancel()
		d, err := setupDaemon(ctx, repo, cfg)
		if err != nil {
			return err
		}

		serveErr := make(chan error, 1)
		go func() { serveErr <- d.serve(ctx) }()

		// keep the terminal for the screen
		if err := setScreenLogLevel(screenLogLevel); err != nil {
			log.Warnf("keep log level: %v", err)
		}
		err = tui.Run(d.screen, tea.WithContext(ctx))
		d.shutdown(context.Background())
		if serr := <-serveErr; serr != nil && err == nil {
			err = serr
		}
		return err
	},
}

// screenLogLevel silences everything below errors while the terminal screen runs.
const screenLogLevel = "error"

func setScreenLogLevel(level string) error {
	if err := logging.SetLogLevel("*", level); err != nil {
		return fmt.Errorf("set log level %q: %w", level, err)
	}
	return nil
}

func loadRepo(cctx *cli.Context) (string, *config.Config, error) {
	repo, err := config.RepoPath(cctx.String(cmds.RepoFlag.Name))
	if err != nil {
		return "", nil, err
	}
	cfg, err := config.Load(repo)
	if err != nil {
		return "", nil, err
	}
	if listen := cctx.String(cmds.ListenFlag.Name); listen != "" {
		cfg.API.ListenAddress = listen
	}
	return repo, cfg, nil
}

func RunMain(ctx context.Context, repo string, cfg *config.Config) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	d, err := setupDaemon(ctx, repo, cfg)
	if err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			log.Warnw("received shutdown", "signal", sig)
		case <-ctx.Done():
			log.Warn("received shutdown")
		}
		d.shutdown(context.TODO())
	}()

	if err := d.serve(ctx); err != nil {
		return err
	}
	log.Info("Graceful shutdown successful")
	return nil
}
