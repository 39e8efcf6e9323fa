// Package session maps the three events a console reacts to (connection
// changed, page changed, action confirmed) onto fixed refresh sets.
package session

import (
	"context"
	"errors"

	"github.com/claimstake/console/internal/metrics"
	"github.com/claimstake/console/internal/metrics/metricsTypes"
	"github.com/claimstake/console/pkg/accountState"
	"github.com/claimstake/console/pkg/eventBus/eventBusTypes"
	"github.com/claimstake/console/pkg/orchestrator"
	"github.com/claimstake/console/pkg/paginator"
	"github.com/claimstake/console/pkg/viewState"
	"github.com/claimstake/console/pkg/wallet"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var readsForTarget = map[orchestrator.RefreshTarget]accountState.ReadName{
	orchestrator.Refresh_ClaimableAmount: accountState.Read_ClaimableAmount,
	orchestrator.Refresh_TokenBalance:    accountState.Read_TokenBalance,
	orchestrator.Refresh_ClaimStart:      accountState.Read_ClaimStart,
}

type Session struct {
	Id string

	reader    *accountState.Reader
	paginator *paginator.Paginator
	store     *viewState.Store
	eventBus  eventBusTypes.IEventBus
	metrics   *metrics.MetricsSink
	logger    *zap.Logger
}

func NewSession(
	reader *accountState.Reader,
	pg *paginator.Paginator,
	store *viewState.Store,
	eb eventBusTypes.IEventBus,
	ms *metrics.MetricsSink,
	l *zap.Logger,
) *Session {
	return &Session{
		Id:        uuid.New().String(),
		reader:    reader,
		paginator: pg,
		store:     store,
		eventBus:  eb,
		metrics:   ms,
		logger:    l,
	}
}

func (s *Session) Store() *viewState.Store {
	return s.store
}

func (s *Session) Snapshot() viewState.ViewState {
	return s.store.Snapshot()
}

func (s *Session) publish(name string, data any) {
	if s.eventBus == nil {
		return
	}
	s.eventBus.Publish(eventBusTypes.NewEvent(name, data))
}

// OnConnectionChanged resets the state to the new identity, moves the stake
// list to page 1 and runs the full read batch plus one page read.
func (s *Session) OnConnectionChanged(ctx context.Context, conn wallet.Connection) error {
	next := s.store.Apply(viewState.ConnectionChanged(conn))

	chainId := ""
	if conn.ChainId != nil {
		chainId = conn.ChainId.String()
	}
	s.publish(eventBusTypes.Event_ConnectionChanged, &eventBusTypes.ConnectionChangedData{
		SessionId: s.Id,
		Connected: conn.Connected,
		Address:   conn.Address.Hex(),
		ChainId:   chainId,
	})

	if !conn.Connected {
		s.logger.Sugar().Infow("Wallet disconnected", zap.String("sessionId", s.Id))
		return nil
	}
	s.logger.Sugar().Infow("Wallet connected",
		zap.String("sessionId", s.Id),
		zap.String("address", conn.Address.Hex()),
		zap.String("chainId", chainId),
	)

	loadErr := s.reader.LoadAll(ctx, conn)
	pageErr := s.loadPage(ctx, conn, next.Window)
	return errors.Join(loadErr, pageErr)
}

// OnPageChanged fetches exactly the slice the window covers.
func (s *Session) OnPageChanged(ctx context.Context, window paginator.PageWindow) error {
	if err := window.Validate(); err != nil {
		return err
	}
	conn := s.store.Snapshot().Connection
	if !conn.Connected {
		s.store.Apply(viewState.WindowChanged(window))
		return nil
	}
	return s.loadPage(ctx, conn, window)
}

// OnActionConfirmed repeats the reads the action may have changed.
func (s *Session) OnActionConfirmed(ctx context.Context, kind orchestrator.ActionKind) error {
	conn := s.store.Snapshot().Connection
	if !conn.Connected {
		return nil
	}

	names := make([]accountState.ReadName, 0)
	refreshStakes := false
	for _, target := range orchestrator.RefreshSetFor(kind) {
		if target == orchestrator.Refresh_StakeList {
			refreshStakes = true
			continue
		}
		if name, ok := readsForTarget[target]; ok {
			names = append(names, name)
		}
	}

	s.logger.Sugar().Debugw("Refreshing after action",
		zap.String("sessionId", s.Id),
		zap.String("kind", string(kind)),
		zap.Any("reads", names),
		zap.Bool("stakes", refreshStakes),
	)

	errs := make([]error, 0, 2)
	if len(names) > 0 {
		errs = append(errs, s.reader.Refresh(ctx, conn, names...))
	}
	if refreshStakes {
		errs = append(errs, s.loadPage(ctx, conn, s.store.Snapshot().Window))
	}
	return errors.Join(errs...)
}

func (s *Session) loadPage(ctx context.Context, conn wallet.Connection, window paginator.PageWindow) error {
	records, err := s.paginator.FetchPage(ctx, conn, window)
	if err != nil {
		return err
	}
	if current := s.store.Snapshot().Connection; !current.Equal(conn) {
		s.logger.Sugar().Debugw("Dropping stale stake page", zap.String("sessionId", s.Id))
		return nil
	}
	s.store.Apply(viewState.StakePageLoaded(window, records))
	_ = s.metrics.Gauge(metricsTypes.Metric_Gauge_StakePageSize, float64(len(records)), nil)

	s.publish(eventBusTypes.Event_PageChanged, &eventBusTypes.PageChangedData{
		SessionId: s.Id,
		Page:      window.Page,
		Limit:     window.Limit,
		Count:     len(records),
	})
	return nil
}
