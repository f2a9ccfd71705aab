package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ethereum/go-ethereum/common"

	"github.com/gikenye/givecaesar/internal/batch"
	"github.com/gikenye/givecaesar/internal/blockchain"
	"github.com/gikenye/givecaesar/internal/config"
	"github.com/gikenye/givecaesar/internal/distributor"
	"github.com/gikenye/givecaesar/internal/lifecycle"
	"github.com/gikenye/givecaesar/internal/logging"
	"github.com/gikenye/givecaesar/internal/metrics"
	"github.com/gikenye/givecaesar/internal/names"
	"github.com/gikenye/givecaesar/internal/recipients"
	"github.com/gikenye/givecaesar/internal/views"
	"github.com/gikenye/givecaesar/internal/wallet"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "keystore" {
		if err := runKeystore(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.Setup(logging.Config{
		Level:      logLevel(cfg),
		Path:       logPath(cfg),
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})
	if err != nil {
		return fmt.Errorf("set up logging: %w", err)
	}
	defer logging.Close()
	logger.Info("starting", "network", cfg.Network.Name, "contract", cfg.Network.Contract)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	keystore, err := loadKeystore(cfg)
	if err != nil {
		return err
	}
	session := wallet.NewSession(keystore, wallet.SessionConfig{Timeout: cfg.SessionTimeout},
		wallet.WithSessionLogger(logging.Named("wallet")))
	session.StartCleanupRoutine()
	defer session.Shutdown()

	m := metrics.New()
	if cfg.MetricsAddr != "" {
		go func() {
			if err := m.Serve(ctx, cfg.MetricsAddr, logging.Named("metrics")); err != nil {
				logger.Error("metrics endpoint stopped", "error", err)
			}
		}()
	}

	var nameService recipients.NameService
	if cfg.ENSRPCURL != "" && len(cfg.Network.NameSuffixes) > 0 {
		ens, err := names.Dial(ctx, cfg.ENSRPCURL,
			names.WithRegistry(common.HexToAddress(cfg.ENSRegistry)),
			names.WithCacheTTL(cfg.NameTTL),
			names.WithRateLimit(cfg.LookupRate, names.DefaultLookupBurst),
			names.WithLogger(logging.Named("names")),
		)
		if err != nil {
			return err
		}
		defer ens.Close()
		nameService = ens
	}

	resolver := recipients.NewResolver(nameService, recipients.WithSuffixes(cfg.Network.NameSuffixes...))
	list := recipients.NewList(m.InstrumentResolver(resolver), cfg.Unit(),
		recipients.WithLogger(logging.Named("recipients")),
		recipients.WithContext(ctx),
		recipients.WithResolveTimeout(cfg.ResolveTimeout),
	)

	tracker := lifecycle.NewTracker(lifecycle.WithLogger(logging.Named("lifecycle")))
	defer m.ObserveTracker(tracker)()

	backend, err := blockchain.Dial(ctx, cfg.ToBlockchainConfig(), session, blockchain.WithLogger(logging.Named("chain")))
	if err != nil {
		return fmt.Errorf("connect to %s: %w", cfg.Network.Name, err)
	}
	defer backend.Close()

	contract, err := distributor.New(cfg.ContractAddress(), cfg.Network.Method)
	if err != nil {
		return err
	}

	bridge := views.NewBridge()
	sender, err := batch.NewSender(batch.Deps{
		List:     list,
		Gate:     wallet.NewGate(session, logging.Named("gate")),
		Encoder:  contract,
		Signer:   wallet.NewConfirmingSigner(backend, bridge.Approve),
		Network:  backend,
		Receipts: backend,
		Tracker:  tracker,
	},
		batch.WithLogger(logging.Named("batch")),
		batch.WithBalanceCheck(backend),
		batch.WithReceiptTimeout(cfg.ReceiptTimeout),
		batch.WithNotice(func(n batch.Notice) { bridge.Post(views.NoticeMsg{Notice: n}) }),
		batch.WithPlanObserver(func(p recipients.Plan) { m.ObservePlan(p.Len()) }),
	)
	if err != nil {
		return err
	}

	app := views.NewAppModel(views.AppDeps{
		List:    list,
		Tracker: tracker,
		Sender:  sender,
		Session: session,
		Bridge:  bridge,
		Network: cfg.Network.Name,
		Method:  contract.Method(),
		TxURL:   cfg.TxURL,
		Logger:  logging.Named("ui"),
	})
	defer app.Shutdown()

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run application: %w", err)
	}
	return nil
}

func loadKeystore(cfg *config.Config) (*wallet.Keystore, error) {
	path := keystorePath(cfg)
	keystore, err := wallet.LoadKeystore(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Info("no keystore found", "path", path)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load keystore: %w", err)
	}
	return keystore, nil
}

func keystorePath(cfg *config.Config) string {
	if cfg.Keystore != "" {
		return cfg.Keystore
	}
	return wallet.DefaultKeystorePath()
}

func logPath(cfg *config.Config) string {
	if cfg.LogFile != "" {
		return cfg.LogFile
	}
	return filepath.Join(filepath.Dir(wallet.DefaultKeystorePath()), "caesar.log")
}

func logLevel(cfg *config.Config) string {
	if config.IsDebugEnabled() {
		return "debug"
	}
	return cfg.LogLevel
}
