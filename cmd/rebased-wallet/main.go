// rebased-wallet is a command-line wallet for the IOTA Rebased network.
//
// Usage:
//
//	rebased-wallet [options] <command> [arguments]
//	rebased-wallet --help
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Klingon-tech/rebased-wallet/config"
	klog "github.com/Klingon-tech/rebased-wallet/internal/log"
	"github.com/Klingon-tech/rebased-wallet/internal/storage"
	"github.com/Klingon-tech/rebased-wallet/internal/wallet"
	"golang.org/x/term"
)

const version = "0.1.0"

func main() {
	cfg, flags, err := config.Load(os.Args[1:])
	if err != nil {
		if errors.Is(err, config.ErrHelp) {
			config.PrintUsage(os.Stdout)
			os.Exit(0)
		}
		fatal("%v", err)
	}
	if flags.Version {
		fmt.Printf("rebased-wallet version %s\n", version)
		return
	}
	if flags.Help || len(flags.Args) == 0 {
		config.PrintUsage(os.Stdout)
		return
	}

	if err := klog.Init(cfg.Log.Level, cfg.Log.JSON, cfg.Log.File); err != nil {
		fatal("init logging: %v", err)
	}

	db, err := storage.NewBadger(cfg.StoreDir())
	if err != nil {
		fatal("open store: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	a := &app{
		cfg:          cfg,
		db:           db,
		vault:        wallet.NewVault(db, wallet.DefaultParams()),
		out:          os.Stdout,
		readPassword: readPassword,
		logger:       klog.CLI,
	}
	err = a.run(ctx, flags.Args)
	stop()
	if cerr := db.Close(); cerr != nil {
		klog.Storage.Warn().Err(cerr).Msg("close store")
	}
	if err != nil {
		fatal("%v", err)
	}
}

func readPassword(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr) // newline after hidden input
	if err != nil {
		return nil, err
	}
	return password, nil
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
