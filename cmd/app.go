package cmd

import (
	"context"
	"os"
	"time"

	"github.com/claimstake/console/internal/config"
	"github.com/claimstake/console/internal/logger"
	"github.com/claimstake/console/internal/metrics"
	"github.com/claimstake/console/pkg/accountState"
	"github.com/claimstake/console/pkg/clients/ethereum"
	"github.com/claimstake/console/pkg/clients/recordKeeper"
	"github.com/claimstake/console/pkg/contractGateway"
	"github.com/claimstake/console/pkg/eventBus"
	"github.com/claimstake/console/pkg/orchestrator"
	"github.com/claimstake/console/pkg/paginator"
	"github.com/claimstake/console/pkg/session"
	"github.com/claimstake/console/pkg/storage"
	"github.com/claimstake/console/pkg/storage/journalStore"
	"github.com/claimstake/console/pkg/viewState"
	"github.com/claimstake/console/pkg/wallet"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// app is everything a command needs, wired the same way for every command.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	metrics  *metrics.MetricsSink
	location *time.Location

	ethClient    *ethereum.Client
	wallet       *wallet.Wallet
	gateway      *contractGateway.ContractGateway
	store        *viewState.Store
	session      *session.Session
	orchestrator *orchestrator.Orchestrator
	records      *recordKeeper.Client
	journal      storage.JournalStore
	eventBus     *eventBus.EventBus
}

type appOptions struct {
	// console logging keeps log lines apart from rendered output
	console bool
}

func newApp(ctx context.Context, opts *appOptions) (*app, error) {
	cfg, err := config.NewConfig()
	if err != nil {
		return nil, err
	}

	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: cfg.Debug, Console: opts.console})
	if err != nil {
		return nil, err
	}

	loc, err := cfg.GetDisplayLocation()
	if err != nil {
		return nil, errors.Wrap(err, "invalid display timezone")
	}

	if cfg.EthereumRpcConfig.RpcUrl == "" {
		return nil, errors.New("ethereum.rpc-url is required")
	}

	clients, err := metrics.InitMetricsSinksFromConfig(cfg, l)
	if err != nil {
		l.Sugar().Errorw("Failed to setup metrics sink", zap.Error(err))
		return nil, err
	}
	sink, err := metrics.NewMetricsSink(&metrics.MetricsSinkConfig{}, clients)
	if err != nil {
		l.Sugar().Errorw("Failed to setup metrics sink", zap.Error(err))
		return nil, err
	}

	addressCfg, err := cfg.GetContractAddresses()
	if err != nil {
		return nil, err
	}
	addresses, err := contractGateway.ParseAddresses(addressCfg)
	if err != nil {
		return nil, err
	}

	ethClient := ethereum.NewClient(ethereum.ConvertGlobalConfigToEthereumConfig(&cfg.EthereumRpcConfig), l)
	backend, err := ethClient.GetEthereumContractCaller()
	if err != nil {
		return nil, errors.Wrap(err, "failed to dial ethereum node")
	}

	var approver wallet.Approver = wallet.AutoApprover{}
	if !cfg.WalletConfig.AutoApprove {
		approver = wallet.NewPromptApprover(os.Stdin, os.Stderr)
	}
	w, err := wallet.NewWallet(&cfg.WalletConfig, approver, l)
	if err != nil {
		return nil, err
	}

	journal, err := journalStore.NewJournalStoreFromConfig(cfg, l)
	if err != nil {
		return nil, err
	}

	eb := eventBus.NewEventBus(l)
	store := viewState.NewStore(l)
	gw := contractGateway.NewContractGateway(backend, w, addresses, l)
	records := recordKeeper.NewClient(&cfg.BackendConfig, sink, l)

	sess := session.NewSession(
		accountState.NewReader(gw, store, sink, l),
		paginator.NewPaginator(gw, l),
		store, eb, sink, l,
	)
	orch := orchestrator.NewOrchestrator(&orchestrator.OrchestratorConfig{
		ConfirmationTimeout: cfg.EthereumRpcConfig.ConfirmationTimeout,
		Location:            loc,
	}, gw, w, store, sess, records, journal, eb, sink, l)

	a := &app{
		cfg:          cfg,
		logger:       l,
		metrics:      sink,
		location:     loc,
		ethClient:    ethClient,
		wallet:       w,
		gateway:      gw,
		store:        store,
		session:      sess,
		orchestrator: orch,
		records:      records,
		journal:      journal,
		eventBus:     eb,
	}
	return a, nil
}

// connect connects the wallet, when a key is configured, and loads the
// full view state for it.
func (a *app) connect(ctx context.Context) error {
	if !a.wallet.HasKey() {
		a.logger.Sugar().Infow("No wallet key configured, showing defaults")
		return a.session.OnConnectionChanged(ctx, wallet.Disconnected())
	}
	conn, err := a.wallet.Connect(ctx, a.ethClient)
	if err != nil {
		return err
	}
	if err := a.session.OnConnectionChanged(ctx, conn); err != nil {
		// partial state is still usable
		a.logger.Sugar().Errorw("Some reads failed while loading state", zap.Error(err))
	}
	return nil
}

func (a *app) close() {
	if err := a.journal.Close(); err != nil {
		a.logger.Sugar().Errorw("Failed to close journal", zap.Error(err))
	}
	_ = a.logger.Sync()
}

// setupApp builds and connects the app.
func setupApp(ctx context.Context, opts *appOptions) (*app, error) {
	a, err := newApp(ctx, opts)
	if err != nil {
		return nil, err
	}
	if err := a.connect(ctx); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}
