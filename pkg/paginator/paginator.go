// Package paginator maps a page window onto a ranged stake-array read.
package paginator

import (
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/claimstake/console/pkg/contractGateway"
	"github.com/claimstake/console/pkg/wallet"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

var AllowedLimits = []uint64{5, 10, 25, 50}

const (
	DefaultPage  uint64 = 1
	DefaultLimit uint64 = 10
)

type PageWindow struct {
	Page  uint64
	Limit uint64
}

func DefaultWindow() PageWindow {
	return PageWindow{Page: DefaultPage, Limit: DefaultLimit}
}

func (w PageWindow) Validate() error {
	if w.Page < 1 {
		return fmt.Errorf("page must be at least 1")
	}
	if !slices.Contains(AllowedLimits, w.Limit) {
		return fmt.Errorf("limit must be one of %v", AllowedLimits)
	}
	if w.Page > math.MaxUint64/w.Limit {
		return fmt.Errorf("page %d is out of range for limit %d", w.Page, w.Limit)
	}
	return nil
}

// Range returns the inclusive index range [from, to] the window covers.
func (w PageWindow) Range() (uint64, uint64) {
	from := (w.Page - 1) * w.Limit
	to := w.Page*w.Limit - 1
	return from, to
}

type StakeReader interface {
	GetStakeInfoArray(ctx context.Context, user common.Address, from uint64, to uint64) ([]*contractGateway.StakeRecord, error)
}

type Paginator struct {
	reader StakeReader
	logger *zap.Logger
}

func NewPaginator(reader StakeReader, l *zap.Logger) *Paginator {
	return &Paginator{
		reader: reader,
		logger: l,
	}
}

// FetchPage issues exactly one ranged read. Before a connection exists it
// returns an empty page without touching the network.
func (p *Paginator) FetchPage(ctx context.Context, conn wallet.Connection, window PageWindow) ([]*contractGateway.StakeRecord, error) {
	if !conn.Connected {
		return []*contractGateway.StakeRecord{}, nil
	}
	if err := window.Validate(); err != nil {
		return nil, err
	}
	from, to := window.Range()

	records, err := p.reader.GetStakeInfoArray(ctx, conn.Address, from, to)
	if err != nil {
		p.logger.Sugar().Errorw("Failed to fetch stake page",
			zap.Uint64("page", window.Page),
			zap.Uint64("limit", window.Limit),
			zap.Error(err),
		)
		return nil, err
	}
	p.logger.Sugar().Debugw("Fetched stake page",
		zap.Uint64("from", from),
		zap.Uint64("to", to),
		zap.Int("count", len(records)),
	)
	return records, nil
}
