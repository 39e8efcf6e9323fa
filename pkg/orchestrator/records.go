package orchestrator

import (
	"context"
	"encoding/json"

	"github.com/claimstake/console/pkg/clients/recordKeeper"
	"go.uber.org/zap"
)

// recordStake forwards the newest stake to the record keeper. Failures are
// logged and never change the outcome.
func (o *Orchestrator) recordStake(ctx context.Context, months uint64, outcome *Outcome) {
	if o.records == nil || !o.records.Enabled() {
		o.logger.Sugar().Debugw("Record keeper disabled, not recording stake", zap.String("actionId", outcome.ActionId))
		return
	}
	if len(outcome.TxHashes) == 0 {
		return
	}
	user := o.signer.Connection().Address

	summary := &recordKeeper.StakeSummary{
		User:     user.Hex(),
		Duration: months,
		Apy:      RecordStakeApy,
		TrxHash:  outcome.TxHashes[len(outcome.TxHashes)-1].Hex(),
	}

	numStakes, err := o.gateway.NumStakes(ctx, user)
	if err != nil {
		o.logger.Sugar().Errorw("Failed to read stake count for record", zap.String("actionId", outcome.ActionId), zap.Error(err))
		return
	}
	if numStakes == 0 {
		o.logger.Sugar().Errorw("No stake found to record", zap.String("actionId", outcome.ActionId))
		return
	}
	info, err := o.gateway.GetStakeInfo(ctx, user, numStakes-1)
	if err != nil {
		o.logger.Sugar().Errorw("Failed to read newest stake for record", zap.String("actionId", outcome.ActionId), zap.Error(err))
		return
	}
	summary.Index = info.Index
	summary.Amount = json.Number(info.Amount.String())
	summary.StakedOn = info.LockOn
	summary.Rewards = json.Number(info.Rewards.String())

	if _, err := o.records.CreateStake(ctx, summary); err != nil {
		o.logger.Sugar().Errorw("Failed to record stake",
			zap.String("actionId", outcome.ActionId),
			zap.String("txHash", summary.TrxHash),
			zap.Error(err),
		)
		return
	}
	o.logger.Sugar().Infow("Recorded stake",
		zap.String("actionId", outcome.ActionId),
		zap.Uint64("index", summary.Index),
	)
}
