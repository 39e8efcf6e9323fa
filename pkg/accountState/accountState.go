// Package accountState populates the view state from independent contract
// reads. A failed read is logged and leaves its field as it was.
package accountState

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/claimstake/console/internal/metrics"
	"github.com/claimstake/console/internal/metrics/metricsTypes"
	"github.com/claimstake/console/pkg/contractGateway"
	"github.com/claimstake/console/pkg/viewState"
	"github.com/claimstake/console/pkg/wallet"
	"github.com/ethereum/go-ethereum/common"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"go.uber.org/zap"
)

type Gateway interface {
	TokenMetadata(ctx context.Context) (*contractGateway.TokenMetadata, error)
	StakingEnabled(ctx context.Context) (bool, error)
	ClaimStart(ctx context.Context) (uint64, error)
	Owner(ctx context.Context) (common.Address, error)
	GetClaimableAmount(ctx context.Context, user common.Address) (*big.Int, error)
	BalanceOf(ctx context.Context, account common.Address) (*big.Int, error)
}

type ReadName string

const (
	Read_TokenMetadata   ReadName = "tokenMetadata"
	Read_StakingEnabled  ReadName = "stakingEnabled"
	Read_ClaimStart      ReadName = "claimStart"
	Read_Owner           ReadName = "owner"
	Read_ClaimableAmount ReadName = "claimableAmount"
	Read_TokenBalance    ReadName = "tokenBalance"
)

type readFunc func(ctx context.Context, conn wallet.Connection) (viewState.Transition, error)

type Reader struct {
	gateway Gateway
	store   *viewState.Store
	metrics *metrics.MetricsSink
	logger  *zap.Logger

	// reads in the order LoadAll reports them
	reads *orderedmap.OrderedMap[ReadName, readFunc]
}

func NewReader(gw Gateway, store *viewState.Store, ms *metrics.MetricsSink, l *zap.Logger) *Reader {
	r := &Reader{
		gateway: gw,
		store:   store,
		metrics: ms,
		logger:  l,
		reads:   orderedmap.New[ReadName, readFunc](),
	}

	r.reads.Set(Read_TokenMetadata, func(ctx context.Context, conn wallet.Connection) (viewState.Transition, error) {
		md, err := r.gateway.TokenMetadata(ctx)
		if err != nil {
			return viewState.Transition{}, err
		}
		return viewState.TokenMetadataLoaded(*md), nil
	})
	r.reads.Set(Read_StakingEnabled, func(ctx context.Context, conn wallet.Connection) (viewState.Transition, error) {
		enabled, err := r.gateway.StakingEnabled(ctx)
		if err != nil {
			return viewState.Transition{}, err
		}
		return viewState.StakingEnabledLoaded(enabled), nil
	})
	r.reads.Set(Read_ClaimStart, func(ctx context.Context, conn wallet.Connection) (viewState.Transition, error) {
		start, err := r.gateway.ClaimStart(ctx)
		if err != nil {
			return viewState.Transition{}, err
		}
		return viewState.ClaimStartLoaded(start), nil
	})
	r.reads.Set(Read_Owner, func(ctx context.Context, conn wallet.Connection) (viewState.Transition, error) {
		owner, err := r.gateway.Owner(ctx)
		if err != nil {
			return viewState.Transition{}, err
		}
		return viewState.OwnerLoaded(owner), nil
	})
	r.reads.Set(Read_ClaimableAmount, func(ctx context.Context, conn wallet.Connection) (viewState.Transition, error) {
		amount, err := r.gateway.GetClaimableAmount(ctx, conn.Address)
		if err != nil {
			return viewState.Transition{}, err
		}
		return viewState.ClaimableAmountLoaded(amount), nil
	})
	r.reads.Set(Read_TokenBalance, func(ctx context.Context, conn wallet.Connection) (viewState.Transition, error) {
		balance, err := r.gateway.BalanceOf(ctx, conn.Address)
		if err != nil {
			return viewState.Transition{}, err
		}
		return viewState.TokenBalanceLoaded(balance), nil
	})
	return r
}

// ReadNames lists every read LoadAll performs, in order.
func (r *Reader) ReadNames() []ReadName {
	names := make([]ReadName, 0, r.reads.Len())
	for pair := r.reads.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

// LoadAll runs every read concurrently. The returned error joins the
// individual failures; the state already reflects every read that worked.
func (r *Reader) LoadAll(ctx context.Context, conn wallet.Connection) error {
	return r.Refresh(ctx, conn, r.ReadNames()...)
}

// Refresh runs the named reads concurrently.
func (r *Reader) Refresh(ctx context.Context, conn wallet.Connection, names ...ReadName) error {
	if !conn.Connected || len(names) == 0 {
		return nil
	}
	start := time.Now()

	errs := make([]error, len(names))
	wg := sync.WaitGroup{}
	for i, name := range names {
		read, ok := r.reads.Get(name)
		if !ok {
			errs[i] = fmt.Errorf("unknown read '%s'", name)
			continue
		}
		wg.Add(1)
		go func(i int, name ReadName, read readFunc) {
			defer wg.Done()
			errs[i] = r.runRead(ctx, conn, name, read)
		}(i, name, read)
	}
	wg.Wait()

	_ = r.metrics.Timing(metricsTypes.Metric_Timing_ReadBatchDuration, time.Since(start), nil)
	return errors.Join(errs...)
}

func (r *Reader) runRead(ctx context.Context, conn wallet.Connection, name ReadName, read readFunc) error {
	transition, err := read(ctx, conn)
	status := "success"
	if err != nil {
		status = "failure"
	}
	_ = r.metrics.Incr(metricsTypes.Metric_Incr_ContractRead, []metricsTypes.MetricsLabel{
		{Name: "read", Value: string(name)},
		{Name: "status", Value: status},
	}, 1)

	if err != nil {
		r.logger.Sugar().Errorw("Failed to read account state",
			zap.String("read", string(name)),
			zap.String("address", conn.Address.Hex()),
			zap.Error(err),
		)
		return fmt.Errorf("%s: %w", name, err)
	}

	// the identity may have changed while the read was in flight
	if current := r.store.Snapshot().Connection; !current.Equal(conn) {
		r.logger.Sugar().Debugw("Dropping stale read", zap.String("read", string(name)))
		return nil
	}
	r.store.Apply(transition)
	return nil
}
