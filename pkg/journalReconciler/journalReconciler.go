// Package journalReconciler settles journal entries whose confirmation wait
// ended before a receipt arrived.
package journalReconciler

import (
	"context"

	"github.com/claimstake/console/pkg/actionErrors"
	"github.com/claimstake/console/pkg/clients/ethereum"
	"github.com/claimstake/console/pkg/storage"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"
)

type ChainReader interface {
	GetTransactionReceipt(ctx context.Context, txHash string) (*ethereum.EthereumTransactionReceipt, error)
	GetBlockNumberUint64(ctx context.Context) (uint64, error)
}

type Result struct {
	Resolved     int
	StillPending int

	// HeadBlock is the chain head seen while entries remained pending.
	HeadBlock uint64
}

type Reconciler struct {
	chain   ChainReader
	journal storage.JournalStore
	logger  *zap.Logger
}

func NewReconciler(chain ChainReader, journal storage.JournalStore, l *zap.Logger) *Reconciler {
	return &Reconciler{
		chain:   chain,
		journal: journal,
		logger:  l,
	}
}

// Reconcile looks up the receipt of every pending entry and resolves the
// ones that have been mined. Resolved entries are updated in place.
func (r *Reconciler) Reconcile(ctx context.Context, entries []*storage.JournalEntry) (*Result, error) {
	result := &Result{}

	for _, entry := range entries {
		if entry.Status != storage.JournalStatus_Pending {
			continue
		}
		receipt, err := r.chain.GetTransactionReceipt(ctx, entry.TransactionHash)
		if err != nil {
			r.logger.Sugar().Errorw("Failed to fetch receipt for journal entry",
				zap.Uint64("entryId", entry.ID),
				zap.String("txHash", entry.TransactionHash),
				zap.Error(err),
			)
			result.StillPending++
			continue
		}
		if receipt == nil {
			result.StillPending++
			continue
		}

		status := storage.JournalStatus_Confirmed
		reason := ""
		if !receipt.Succeeded() {
			status = storage.JournalStatus_Failed
			reason = actionErrors.DisplayMessage(&actionErrors.RevertError{})
		}
		blockNumber, err := hexutil.DecodeUint64(receipt.BlockNumber)
		if err != nil {
			r.logger.Sugar().Debugw("Receipt has no usable block number", zap.String("blockNumber", receipt.BlockNumber))
			blockNumber = 0
		}

		if err := r.journal.ResolveEntry(entry.ID, status, reason, blockNumber); err != nil {
			return result, err
		}
		entry.Status = status
		entry.Reason = reason
		entry.BlockNumber = blockNumber
		result.Resolved++
	}

	if result.StillPending > 0 {
		head, err := r.chain.GetBlockNumberUint64(ctx)
		if err != nil {
			r.logger.Sugar().Errorw("Failed to fetch head block", zap.Error(err))
		} else {
			result.HeadBlock = head
		}
	}
	r.logger.Sugar().Debugw("Reconciled journal",
		zap.Int("resolved", result.Resolved),
		zap.Int("stillPending", result.StillPending),
	)
	return result, nil
}
