// Package orchestrator runs every user action through the same sequential
// state machine: validate, submit, wait for one confirmation, refresh.
package orchestrator

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/claimstake/console/internal/metrics"
	"github.com/claimstake/console/internal/metrics/metricsTypes"
	"github.com/claimstake/console/pkg/actionErrors"
	"github.com/claimstake/console/pkg/clients/recordKeeper"
	"github.com/claimstake/console/pkg/contractGateway"
	"github.com/claimstake/console/pkg/eventBus/eventBusTypes"
	"github.com/claimstake/console/pkg/storage"
	"github.com/claimstake/console/pkg/viewState"
	"github.com/claimstake/console/pkg/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ActionKind string

const (
	Action_Claim          ActionKind = "claim"
	Action_StakeFromClaim ActionKind = "stakeFromClaim"
	Action_Stake          ActionKind = "stake"
	Action_Withdraw       ActionKind = "withdraw"
	Action_ClaimRewards   ActionKind = "claimRewards"
	Action_SetClaimStart  ActionKind = "setClaimStart"
	Action_SetClaim       ActionKind = "setClaim"
)

type State string

const (
	State_Idle                 State = "idle"
	State_Validating           State = "validating"
	State_Submitting           State = "submitting"
	State_AwaitingConfirmation State = "awaitingConfirmation"
	State_Succeeded            State = "succeeded"
	State_Failed               State = "failed"
)

type RefreshTarget string

const (
	Refresh_ClaimableAmount RefreshTarget = "claimableAmount"
	Refresh_TokenBalance    RefreshTarget = "tokenBalance"
	Refresh_StakeList       RefreshTarget = "stakeList"
	Refresh_ClaimStart      RefreshTarget = "claimStart"
)

var refreshSets = map[ActionKind][]RefreshTarget{
	Action_Claim:          {Refresh_ClaimableAmount, Refresh_TokenBalance},
	Action_StakeFromClaim: {Refresh_ClaimableAmount, Refresh_StakeList},
	Action_Stake:          {Refresh_TokenBalance, Refresh_StakeList},
	Action_Withdraw:       {Refresh_TokenBalance, Refresh_StakeList},
	Action_ClaimRewards:   {Refresh_TokenBalance, Refresh_StakeList},
	Action_SetClaimStart:  {Refresh_ClaimStart},
	Action_SetClaim:       {Refresh_ClaimableAmount},
}

// RefreshSetFor returns the reads to repeat once an action of the given
// kind has been confirmed.
func RefreshSetFor(kind ActionKind) []RefreshTarget {
	set := refreshSets[kind]
	out := make([]RefreshTarget, len(set))
	copy(out, set)
	return out
}

// RecordStakeApy is the apy sent with every stake-from-claim record,
// whatever the chosen duration.
const RecordStakeApy uint64 = 10

type Gateway interface {
	Addresses() contractGateway.Addresses
	Approve(ctx context.Context, spender common.Address, amount *big.Int) (*types.Transaction, error)
	Stake(ctx context.Context, amount *big.Int, months uint64) (*types.Transaction, error)
	Withdraw(ctx context.Context, index uint64) (*types.Transaction, error)
	ClaimRewards(ctx context.Context, index uint64) (*types.Transaction, error)
	Claim(ctx context.Context, user common.Address, amount *big.Int) (*types.Transaction, error)
	StakeFromClaim(ctx context.Context, amount *big.Int, months uint64) (*types.Transaction, error)
	SetClaimStart(ctx context.Context, epoch uint64) (*types.Transaction, error)
	SetClaim(ctx context.Context, user common.Address, amount *big.Int) (*types.Transaction, error)
	NumStakes(ctx context.Context, user common.Address) (uint64, error)
	GetStakeInfo(ctx context.Context, user common.Address, index uint64) (*contractGateway.StakeRecord, error)
	WaitForConfirmation(ctx context.Context, tx *types.Transaction) (*types.Receipt, error)
}

// Refresher re-reads state after a confirmed action.
type Refresher interface {
	OnActionConfirmed(ctx context.Context, kind ActionKind) error
}

type RecordSink interface {
	Enabled() bool
	CreateStake(ctx context.Context, stake *recordKeeper.StakeSummary) (*recordKeeper.StakeSummary, error)
}

type StateObserver func(actionId string, kind ActionKind, state State)

type OrchestratorConfig struct {
	// ConfirmationTimeout bounds each confirmation wait; zero means none.
	ConfirmationTimeout time.Duration

	// Location interprets admin claim-start dates without a zone.
	Location *time.Location
}

type Outcome struct {
	ActionId string
	Kind     ActionKind
	State    State
	TxHashes []common.Hash
	Message  string
	Err      error
}

func (o *Outcome) Succeeded() bool {
	return o.State == State_Succeeded
}

type Orchestrator struct {
	config    *OrchestratorConfig
	gateway   Gateway
	store     *viewState.Store
	signer    contractGateway.Signer
	refresher Refresher
	records   RecordSink
	journal   storage.JournalStore
	eventBus  eventBusTypes.IEventBus
	metrics   *metrics.MetricsSink
	logger    *zap.Logger

	// one action at a time
	actionLock sync.Mutex

	stateLock sync.Mutex
	state     State
	observers []StateObserver
}

func NewOrchestrator(
	cfg *OrchestratorConfig,
	gw Gateway,
	signer contractGateway.Signer,
	store *viewState.Store,
	refresher Refresher,
	records RecordSink,
	journal storage.JournalStore,
	eb eventBusTypes.IEventBus,
	ms *metrics.MetricsSink,
	l *zap.Logger,
) *Orchestrator {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if journal == nil {
		journal = storage.NewNoopJournalStore()
	}
	return &Orchestrator{
		config:    cfg,
		gateway:   gw,
		signer:    signer,
		store:     store,
		refresher: refresher,
		records:   records,
		journal:   journal,
		eventBus:  eb,
		metrics:   ms,
		logger:    l,
		state:     State_Idle,
		observers: make([]StateObserver, 0),
	}
}

// Observe registers a callback invoked on every state change.
func (o *Orchestrator) Observe(observer StateObserver) {
	o.stateLock.Lock()
	defer o.stateLock.Unlock()
	o.observers = append(o.observers, observer)
}

func (o *Orchestrator) State() State {
	o.stateLock.Lock()
	defer o.stateLock.Unlock()
	return o.state
}

func (o *Orchestrator) setState(actionId string, kind ActionKind, state State) {
	o.stateLock.Lock()
	o.state = state
	observers := make([]StateObserver, len(o.observers))
	copy(observers, o.observers)
	o.stateLock.Unlock()

	o.logger.Sugar().Debugw("Action state changed",
		zap.String("actionId", actionId),
		zap.String("kind", string(kind)),
		zap.String("state", string(state)),
	)
	for _, observer := range observers {
		observer(actionId, kind, state)
	}
}

// step is one transaction of an action.
type step struct {
	name   string
	submit func(ctx context.Context) (*types.Transaction, error)
}

type action struct {
	kind     ActionKind
	validate func(s viewState.ViewState) error
	steps    func() []step
	success  string

	// confirmed runs after the last step succeeded, before refreshing.
	confirmed func(ctx context.Context, outcome *Outcome)
}

func (o *Orchestrator) run(ctx context.Context, a *action) *Outcome {
	o.actionLock.Lock()
	defer o.actionLock.Unlock()

	start := time.Now()
	outcome := &Outcome{
		ActionId: uuid.New().String(),
		Kind:     a.kind,
		TxHashes: make([]common.Hash, 0),
	}
	defer o.setState(outcome.ActionId, a.kind, State_Idle)

	o.setState(outcome.ActionId, a.kind, State_Validating)
	snapshot := o.store.Snapshot()
	conn := o.signer.Connection()
	if !conn.Connected {
		return o.fail(outcome, actionErrors.ErrNotConnected, start)
	}
	if a.validate != nil {
		if err := a.validate(snapshot); err != nil {
			return o.fail(outcome, err, start)
		}
	}

	_ = o.metrics.Incr(metricsTypes.Metric_Incr_ActionSubmitted, []metricsTypes.MetricsLabel{
		{Name: "action", Value: string(a.kind)},
	}, 1)

	for _, s := range a.steps() {
		o.setState(outcome.ActionId, a.kind, State_Submitting)
		tx, err := s.submit(ctx)
		if err != nil {
			o.logger.Sugar().Errorw("Failed to submit transaction",
				zap.String("actionId", outcome.ActionId),
				zap.String("step", s.name),
				zap.Error(err),
			)
			return o.fail(outcome, actionErrors.Classify(s.name, err), start)
		}
		outcome.TxHashes = append(outcome.TxHashes, tx.Hash())
		entry := o.journalSubmitted(outcome, s.name, conn, tx)

		o.setState(outcome.ActionId, a.kind, State_AwaitingConfirmation)
		receipt, err := o.waitForConfirmation(ctx, tx)
		if err == nil && receipt.Status != types.ReceiptStatusSuccessful {
			err = &actionErrors.RevertError{}
		}
		if err != nil {
			err = actionErrors.Classify(s.name, err)
			o.logger.Sugar().Errorw("Transaction was not confirmed",
				zap.String("actionId", outcome.ActionId),
				zap.String("step", s.name),
				zap.String("txHash", tx.Hash().Hex()),
				zap.Error(err),
			)
			if receipt == nil {
				// the transaction may still be mined; history reconciles it later
				o.logger.Sugar().Infow("Leaving journal entry pending", zap.String("txHash", tx.Hash().Hex()))
			} else {
				o.journalResolved(entry, storage.JournalStatus_Failed, actionErrors.DisplayMessage(err), receipt)
			}
			return o.fail(outcome, err, start)
		}
		o.journalResolved(entry, storage.JournalStatus_Confirmed, "", receipt)
	}

	outcome.State = State_Succeeded
	outcome.Message = a.success
	o.setState(outcome.ActionId, a.kind, State_Succeeded)

	if a.confirmed != nil {
		a.confirmed(ctx, outcome)
	}
	if o.refresher != nil {
		if err := o.refresher.OnActionConfirmed(ctx, a.kind); err != nil {
			o.logger.Sugar().Errorw("Failed to refresh after action",
				zap.String("actionId", outcome.ActionId),
				zap.Error(err),
			)
		}
	}

	o.store.Apply(viewState.MessageSet(outcome.Message))
	o.complete(outcome, eventBusTypes.Event_ActionConfirmed, start)
	return outcome
}

func (o *Orchestrator) fail(outcome *Outcome, err error, start time.Time) *Outcome {
	outcome.State = State_Failed
	outcome.Err = err
	outcome.Message = actionErrors.DisplayMessage(err)
	o.setState(outcome.ActionId, outcome.Kind, State_Failed)

	o.store.Apply(viewState.MessageSet(outcome.Message))
	o.complete(outcome, eventBusTypes.Event_ActionFailed, start)
	return outcome
}

func (o *Orchestrator) complete(outcome *Outcome, eventName string, start time.Time) {
	_ = o.metrics.Incr(metricsTypes.Metric_Incr_ActionCompleted, []metricsTypes.MetricsLabel{
		{Name: "action", Value: string(outcome.Kind)},
		{Name: "state", Value: string(outcome.State)},
	}, 1)
	_ = o.metrics.Timing(metricsTypes.Metric_Timing_ActionDuration, time.Since(start), []metricsTypes.MetricsLabel{
		{Name: "action", Value: string(outcome.Kind)},
	})

	if o.eventBus == nil {
		return
	}
	hashes := make([]string, 0, len(outcome.TxHashes))
	for _, h := range outcome.TxHashes {
		hashes = append(hashes, h.Hex())
	}
	o.eventBus.Publish(eventBusTypes.NewEvent(eventName, &eventBusTypes.ActionData{
		ActionId: outcome.ActionId,
		Kind:     string(outcome.Kind),
		State:    string(outcome.State),
		TxHashes: hashes,
		Message:  outcome.Message,
	}))
}

func (o *Orchestrator) waitForConfirmation(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	if o.config.ConfirmationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.config.ConfirmationTimeout)
		defer cancel()
	}
	return o.gateway.WaitForConfirmation(ctx, tx)
}

func (o *Orchestrator) journalSubmitted(outcome *Outcome, stepName string, conn wallet.Connection, tx *types.Transaction) *storage.JournalEntry {
	entry, err := o.journal.AppendEntry(&storage.JournalEntry{
		ActionId:        outcome.ActionId,
		Kind:            string(outcome.Kind),
		Step:            stepName,
		Account:         conn.Address.Hex(),
		TransactionHash: tx.Hash().Hex(),
		Status:          storage.JournalStatus_Pending,
	})
	if err != nil {
		o.logger.Sugar().Errorw("Failed to journal transaction", zap.String("txHash", tx.Hash().Hex()), zap.Error(err))
		return nil
	}
	return entry
}

func (o *Orchestrator) journalResolved(entry *storage.JournalEntry, status storage.JournalStatus, reason string, receipt *types.Receipt) {
	if entry == nil || entry.ID == 0 {
		return
	}
	var blockNumber uint64
	if receipt != nil && receipt.BlockNumber != nil {
		blockNumber = receipt.BlockNumber.Uint64()
	}
	if err := o.journal.ResolveEntry(entry.ID, status, reason, blockNumber); err != nil {
		o.logger.Sugar().Errorw("Failed to resolve journal entry", zap.Uint64("entryId", entry.ID), zap.Error(err))
	}
}
