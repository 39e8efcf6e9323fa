package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/claimstake/console/internal/metrics"
	"github.com/claimstake/console/pkg/actionErrors"
	"github.com/claimstake/console/pkg/clients/recordKeeper"
	"github.com/claimstake/console/pkg/contractGateway"
	"github.com/claimstake/console/pkg/eventBus"
	"github.com/claimstake/console/pkg/eventBus/eventBusTypes"
	"github.com/claimstake/console/pkg/storage"
	"github.com/claimstake/console/pkg/viewState"
	"github.com/claimstake/console/pkg/wallet"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

var (
	user        = common.HexToAddress("0x00000000000000000000000000000000000000c1")
	stakingAddr = common.HexToAddress("0x00000000000000000000000000000000000000a2")
)

type fakeSigner struct {
	conn wallet.Connection
}

func (f *fakeSigner) Connection() wallet.Connection {
	return f.conn
}

func (f *fakeSigner) TransactOpts(ctx context.Context, label string) (*bind.TransactOpts, error) {
	return nil, errors.New("not used")
}

type fakeGateway struct {
	mu        sync.Mutex
	nonce     uint64
	submitted []string
	submitErr map[string]error
	failed    map[string]bool
	waitErr   error
	waits     int

	claimArgs []*big.Int
	stakeArgs []uint64
	epochs    []uint64

	numStakes uint64
	newest    *contractGateway.StakeRecord
	infoCalls []uint64
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		submitErr: map[string]error{},
		failed:    map[string]bool{},
		numStakes: 3,
		newest: &contractGateway.StakeRecord{
			Index:   2,
			Amount:  big.NewInt(5000),
			LockOn:  1700000000,
			LockEnd: 1700000000 + 90*86400,
			Rewards: big.NewInt(0),
		},
	}
}

func (f *fakeGateway) submit(name string) (*types.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.submitErr[name]; err != nil {
		return nil, err
	}
	f.nonce++
	f.submitted = append(f.submitted, name)
	return types.NewTx(&types.LegacyTx{Nonce: f.nonce, Data: []byte(name)}), nil
}

func (f *fakeGateway) Addresses() contractGateway.Addresses {
	return contractGateway.Addresses{Staking: stakingAddr}
}

func (f *fakeGateway) Approve(ctx context.Context, spender common.Address, amount *big.Int) (*types.Transaction, error) {
	return f.submit("approve")
}

func (f *fakeGateway) Stake(ctx context.Context, amount *big.Int, months uint64) (*types.Transaction, error) {
	f.stakeArgs = append(f.stakeArgs, months)
	return f.submit("stake")
}

func (f *fakeGateway) Withdraw(ctx context.Context, index uint64) (*types.Transaction, error) {
	return f.submit("withdraw")
}

func (f *fakeGateway) ClaimRewards(ctx context.Context, index uint64) (*types.Transaction, error) {
	return f.submit("claimRewards")
}

func (f *fakeGateway) Claim(ctx context.Context, u common.Address, amount *big.Int) (*types.Transaction, error) {
	f.claimArgs = append(f.claimArgs, amount)
	return f.submit("claim")
}

func (f *fakeGateway) StakeFromClaim(ctx context.Context, amount *big.Int, months uint64) (*types.Transaction, error) {
	f.stakeArgs = append(f.stakeArgs, months)
	return f.submit("stakeFromClaim")
}

func (f *fakeGateway) SetClaimStart(ctx context.Context, epoch uint64) (*types.Transaction, error) {
	f.epochs = append(f.epochs, epoch)
	return f.submit("setClaimStart")
}

func (f *fakeGateway) SetClaim(ctx context.Context, u common.Address, amount *big.Int) (*types.Transaction, error) {
	f.claimArgs = append(f.claimArgs, amount)
	return f.submit("setClaim")
}

func (f *fakeGateway) NumStakes(ctx context.Context, u common.Address) (uint64, error) {
	return f.numStakes, nil
}

func (f *fakeGateway) GetStakeInfo(ctx context.Context, u common.Address, index uint64) (*contractGateway.StakeRecord, error) {
	f.infoCalls = append(f.infoCalls, index)
	return f.newest, nil
}

func (f *fakeGateway) WaitForConfirmation(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.waits++
	if f.waitErr != nil {
		return nil, f.waitErr
	}
	status := types.ReceiptStatusSuccessful
	if f.failed[string(tx.Data())] {
		status = types.ReceiptStatusFailed
	}
	return &types.Receipt{Status: status, TxHash: tx.Hash(), BlockNumber: big.NewInt(100)}, nil
}

type fakeRefresher struct {
	confirmed []ActionKind
}

func (f *fakeRefresher) OnActionConfirmed(ctx context.Context, kind ActionKind) error {
	f.confirmed = append(f.confirmed, kind)
	return nil
}

type fakeRecords struct {
	enabled bool
	err     error
	created []*recordKeeper.StakeSummary
}

func (f *fakeRecords) Enabled() bool {
	return f.enabled
}

func (f *fakeRecords) CreateStake(ctx context.Context, stake *recordKeeper.StakeSummary) (*recordKeeper.StakeSummary, error) {
	f.created = append(f.created, stake)
	if f.err != nil {
		return nil, f.err
	}
	return stake, nil
}

type fakeJournal struct {
	storage.NoopJournalStore
	entries  []*storage.JournalEntry
	resolved map[uint64]storage.JournalStatus
}

func (f *fakeJournal) AppendEntry(entry *storage.JournalEntry) (*storage.JournalEntry, error) {
	entry.ID = uint64(len(f.entries) + 1)
	f.entries = append(f.entries, entry)
	return entry, nil
}

func (f *fakeJournal) ResolveEntry(id uint64, status storage.JournalStatus, reason string, blockNumber uint64) error {
	f.resolved[id] = status
	return nil
}

type fixture struct {
	orchestrator *Orchestrator
	gateway      *fakeGateway
	signer       *fakeSigner
	refresher    *fakeRefresher
	records      *fakeRecords
	journal      *fakeJournal
	store        *viewState.Store
	consumer     *eventBusTypes.Consumer
}

func setup(t *testing.T) *fixture {
	l := zap.NewNop()
	conn := wallet.Connection{Connected: true, Address: user, ChainId: big.NewInt(1)}

	store := viewState.NewStore(l)
	store.Apply(viewState.ConnectionChanged(conn))
	store.Apply(viewState.TokenMetadataLoaded(contractGateway.TokenMetadata{Decimals: 18, Symbol: "CLM"}))

	eb := eventBus.NewEventBus(l)
	consumer := eventBusTypes.NewConsumer(context.Background(), 10)
	eb.Subscribe(consumer)

	f := &fixture{
		gateway:   newFakeGateway(),
		signer:    &fakeSigner{conn: conn},
		refresher: &fakeRefresher{},
		records:   &fakeRecords{enabled: true},
		journal:   &fakeJournal{resolved: map[uint64]storage.JournalStatus{}},
		store:     store,
		consumer:  consumer,
	}
	f.orchestrator = NewOrchestrator(
		&OrchestratorConfig{Location: time.UTC},
		f.gateway, f.signer, store, f.refresher, f.records, f.journal, eb,
		metrics.NewNoopMetricsSink(), l,
	)
	return f
}

func Test_Validation(t *testing.T) {
	t.Run("Zero claim amount submits nothing", func(t *testing.T) {
		f := setup(t)

		outcome := f.orchestrator.Claim(context.Background(), "0")
		assert.Equal(t, State_Failed, outcome.State)
		assert.Equal(t, MessageInputClaimAmount, outcome.Message)

		var invalid *actionErrors.InvalidInputError
		assert.True(t, errors.As(outcome.Err, &invalid))
		assert.Len(t, f.gateway.submitted, 0)
		assert.Len(t, f.refresher.confirmed, 0)
		assert.Equal(t, MessageInputClaimAmount, f.store.Snapshot().LastMessage)
	})
	t.Run("Absent amounts and durations", func(t *testing.T) {
		f := setup(t)

		assert.Equal(t, MessageInputStakingAmount, f.orchestrator.Stake(context.Background(), "", 3).Message)
		assert.Equal(t, MessageInputDuration, f.orchestrator.Stake(context.Background(), "10", 0).Message)
		assert.Equal(t, MessageInputStakingAmount, f.orchestrator.StakeFromClaim(context.Background(), "0.0", 3).Message)
		assert.Equal(t, MessageInvalidAmount, f.orchestrator.Claim(context.Background(), "ten").Message)
		assert.Len(t, f.gateway.submitted, 0)
	})
	t.Run("Oversized amounts are invalid input", func(t *testing.T) {
		f := setup(t)

		done := make(chan *Outcome, 1)
		go func() { done <- f.orchestrator.Claim(context.Background(), "1e50000000") }()
		select {
		case outcome := <-done:
			assert.Equal(t, MessageInvalidAmount, outcome.Message)
		case <-time.After(time.Second):
			t.Fatal("exponent amount was not rejected promptly")
		}

		tooLarge := "1" + strings.Repeat("0", 78)
		outcome := f.orchestrator.Stake(context.Background(), tooLarge, 3)
		assert.Equal(t, MessageInvalidAmount, outcome.Message)
		var invalid *actionErrors.InvalidInputError
		assert.True(t, errors.As(outcome.Err, &invalid))

		assert.Equal(t, MessageInvalidAmount, f.orchestrator.SetClaim(context.Background(), user.Hex(), tooLarge).Message)
		assert.Len(t, f.gateway.submitted, 0)
	})
	t.Run("Disconnected asks for a wallet", func(t *testing.T) {
		f := setup(t)
		f.signer.conn = wallet.Disconnected()

		outcome := f.orchestrator.Withdraw(context.Background(), 1)
		assert.True(t, errors.Is(outcome.Err, actionErrors.ErrNotConnected))
		assert.Equal(t, "Connect the wallet please", outcome.Message)
		assert.Len(t, f.gateway.submitted, 0)
	})
	t.Run("Admin inputs are validated", func(t *testing.T) {
		f := setup(t)

		assert.Equal(t, MessageInvalidClaimStart, f.orchestrator.SetClaimStart(context.Background(), "tomorrow").Message)
		assert.Equal(t, MessageInvalidAddress, f.orchestrator.SetClaim(context.Background(), "0x123", "1").Message)
		assert.Equal(t, MessageInvalidAmount, f.orchestrator.SetClaim(context.Background(), user.Hex(), "1.0000000000000000001").Message)
		assert.Len(t, f.gateway.submitted, 0)
	})
}

func Test_Claim(t *testing.T) {
	f := setup(t)

	outcome := f.orchestrator.Claim(context.Background(), "1.5")
	assert.True(t, outcome.Succeeded())
	assert.Equal(t, []string{"claim"}, f.gateway.submitted)
	assert.Equal(t, "1500000000000000000", f.gateway.claimArgs[0].String())
	assert.Equal(t, []ActionKind{Action_Claim}, f.refresher.confirmed)
	assert.Equal(t, 1, f.gateway.waits)
	assert.Len(t, f.records.created, 0)
	assert.Equal(t, State_Idle, f.orchestrator.State())

	event := <-f.consumer.Channel
	assert.Equal(t, eventBusTypes.Event_ActionConfirmed, event.Name)
	data := event.Data.(*eventBusTypes.ActionData)
	assert.Equal(t, outcome.ActionId, data.ActionId)
	assert.Equal(t, []string{outcome.TxHashes[0].Hex()}, data.TxHashes)

	assert.Len(t, f.journal.entries, 1)
	assert.Equal(t, storage.JournalStatus_Confirmed, f.journal.resolved[1])
}

func Test_ConfirmationWaitEnds(t *testing.T) {
	f := setup(t)
	f.gateway.waitErr = &actionErrors.NetworkError{Op: "waitForConfirmation", Err: context.DeadlineExceeded}

	outcome := f.orchestrator.Claim(context.Background(), "1")
	assert.Equal(t, State_Failed, outcome.State)
	assert.Len(t, outcome.TxHashes, 1)
	assert.Len(t, f.refresher.confirmed, 0)

	assert.Len(t, f.journal.entries, 1)
	assert.Equal(t, storage.JournalStatus_Pending, f.journal.entries[0].Status)
	_, resolved := f.journal.resolved[1]
	assert.False(t, resolved)
}

func Test_Stake(t *testing.T) {
	t.Run("Approves then stakes and refreshes once", func(t *testing.T) {
		f := setup(t)

		states := make([]State, 0)
		f.orchestrator.Observe(func(actionId string, kind ActionKind, state State) {
			states = append(states, state)
		})

		outcome := f.orchestrator.Stake(context.Background(), "100", 6)
		assert.True(t, outcome.Succeeded())
		assert.Equal(t, []string{"approve", "stake"}, f.gateway.submitted)
		assert.Equal(t, 2, f.gateway.waits)
		assert.Len(t, outcome.TxHashes, 2)
		assert.Equal(t, []ActionKind{Action_Stake}, f.refresher.confirmed)
		assert.Equal(t, []RefreshTarget{Refresh_TokenBalance, Refresh_StakeList}, RefreshSetFor(Action_Stake))

		assert.Equal(t, []State{
			State_Validating,
			State_Submitting,
			State_AwaitingConfirmation,
			State_Submitting,
			State_AwaitingConfirmation,
			State_Succeeded,
			State_Idle,
		}, states)
	})
	t.Run("Reverted approval never submits the stake", func(t *testing.T) {
		f := setup(t)
		f.gateway.failed["approve"] = true

		outcome := f.orchestrator.Stake(context.Background(), "100", 6)
		assert.Equal(t, State_Failed, outcome.State)
		assert.Equal(t, []string{"approve"}, f.gateway.submitted)
		assert.Equal(t, actionErrors.GenericFailureMessage, outcome.Message)
		assert.Len(t, f.refresher.confirmed, 0)
		assert.Equal(t, storage.JournalStatus_Failed, f.journal.resolved[1])

		event := <-f.consumer.Channel
		assert.Equal(t, eventBusTypes.Event_ActionFailed, event.Name)
	})
	t.Run("Revert reason is shown", func(t *testing.T) {
		f := setup(t)
		f.gateway.submitErr["stake"] = errors.New("execution reverted: Staking is disabled")

		outcome := f.orchestrator.Stake(context.Background(), "100", 6)
		assert.Equal(t, State_Failed, outcome.State)
		assert.Equal(t, "Staking is disabled", outcome.Message)

		var revert *actionErrors.RevertError
		assert.True(t, errors.As(outcome.Err, &revert))
	})
	t.Run("Rejected signature fails without a transaction", func(t *testing.T) {
		f := setup(t)
		f.gateway.submitErr["approve"] = actionErrors.ErrUserRejectedSignature

		outcome := f.orchestrator.Stake(context.Background(), "100", 6)
		assert.True(t, errors.Is(outcome.Err, actionErrors.ErrUserRejectedSignature))
		assert.Len(t, outcome.TxHashes, 0)
		assert.Len(t, f.journal.entries, 0)
	})
}

func Test_StakeFromClaim(t *testing.T) {
	t.Run("Records the newest stake", func(t *testing.T) {
		f := setup(t)

		outcome := f.orchestrator.StakeFromClaim(context.Background(), "5", 3)
		assert.True(t, outcome.Succeeded())
		assert.Equal(t, []ActionKind{Action_StakeFromClaim}, f.refresher.confirmed)
		assert.Equal(t, []uint64{2}, f.gateway.infoCalls)

		assert.Len(t, f.records.created, 1)
		record := f.records.created[0]
		assert.Equal(t, user.Hex(), record.User)
		assert.Equal(t, uint64(3), record.Duration)
		assert.Equal(t, uint64(10), record.Apy)
		assert.Equal(t, outcome.TxHashes[0].Hex(), record.TrxHash)
		assert.Equal(t, uint64(2), record.Index)
		assert.Equal(t, json.Number("5000"), record.Amount)
		assert.Equal(t, uint64(1700000000), record.StakedOn)
		assert.Equal(t, json.Number("0"), record.Rewards)
	})
	t.Run("Apy is recorded as 10 for every duration", func(t *testing.T) {
		f := setup(t)

		outcome := f.orchestrator.StakeFromClaim(context.Background(), "5", 12)
		assert.True(t, outcome.Succeeded())
		assert.Equal(t, uint64(10), f.records.created[0].Apy)
	})
	t.Run("Record failure does not fail the action", func(t *testing.T) {
		f := setup(t)
		f.records.err = errors.New("API request failed with status 500: boom")

		outcome := f.orchestrator.StakeFromClaim(context.Background(), "5", 3)
		assert.True(t, outcome.Succeeded())
		assert.Nil(t, outcome.Err)
		assert.Len(t, f.records.created, 1)
	})
	t.Run("Disabled record keeper is skipped", func(t *testing.T) {
		f := setup(t)
		f.records.enabled = false

		outcome := f.orchestrator.StakeFromClaim(context.Background(), "5", 3)
		assert.True(t, outcome.Succeeded())
		assert.Len(t, f.records.created, 0)
		assert.Len(t, f.gateway.infoCalls, 0)
	})
}

func Test_AdminActions(t *testing.T) {
	f := setup(t)

	outcome := f.orchestrator.SetClaimStart(context.Background(), "2024-01-02 03:04:05")
	assert.True(t, outcome.Succeeded())
	assert.Equal(t, uint64(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC).Unix()), f.gateway.epochs[0])

	outcome = f.orchestrator.SetClaim(context.Background(), user.Hex(), "2.25")
	assert.True(t, outcome.Succeeded())
	assert.Equal(t, "2250000000000000000", f.gateway.claimArgs[0].String())

	assert.Equal(t, []ActionKind{Action_SetClaimStart, Action_SetClaim}, f.refresher.confirmed)
}

func Test_ParseClaimStart(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*3600)
	expected := uint64(time.Date(2024, 3, 1, 12, 0, 0, 0, loc).Unix())

	for _, input := range []string{"2024-03-01 12:00:00", "2024-03-01 12:00", "2024-03-01T10:00:00Z"} {
		epoch, err := ParseClaimStart(input, loc)
		assert.Nil(t, err, input)
		assert.Equal(t, expected, epoch, input)
	}

	epoch, err := ParseClaimStart("1700000000", loc)
	assert.Nil(t, err)
	assert.Equal(t, uint64(1700000000), epoch)

	epoch, err = ParseClaimStart("2024-03-01", loc)
	assert.Nil(t, err)
	assert.Equal(t, uint64(time.Date(2024, 3, 1, 0, 0, 0, 0, loc).Unix()), epoch)

	_, err = ParseClaimStart("", loc)
	assert.NotNil(t, err)
}

func Test_RefreshSetFor(t *testing.T) {
	assert.Equal(t, []RefreshTarget{Refresh_ClaimableAmount, Refresh_TokenBalance}, RefreshSetFor(Action_Claim))
	assert.Equal(t, []RefreshTarget{Refresh_ClaimableAmount, Refresh_StakeList}, RefreshSetFor(Action_StakeFromClaim))
	assert.Equal(t, []RefreshTarget{Refresh_TokenBalance, Refresh_StakeList}, RefreshSetFor(Action_Withdraw))
	assert.Equal(t, []RefreshTarget{Refresh_TokenBalance, Refresh_StakeList}, RefreshSetFor(Action_ClaimRewards))
	assert.Equal(t, []RefreshTarget{Refresh_ClaimStart}, RefreshSetFor(Action_SetClaimStart))
	assert.Equal(t, []RefreshTarget{Refresh_ClaimableAmount}, RefreshSetFor(Action_SetClaim))
}
