package orchestrator

import (
	"context"
	"fmt"
	"math/big"

	"github.com/claimstake/console/pkg/actionErrors"
	"github.com/claimstake/console/pkg/units"
	"github.com/claimstake/console/pkg/viewState"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

const (
	MessageInputClaimAmount   = "Input amount to claim"
	MessageInputStakingAmount = "Input staking amount"
	MessageInputDuration      = "Input duration in months"
	MessageInvalidAmount      = "Input a valid amount"
	MessageInvalidAddress     = "Input a valid address"
	MessageInvalidClaimStart  = "Input a valid claim start date"
	MessageTokenNotLoaded     = "Token details are still loading"
)

// parseAmount converts a display amount with the token's decimals. An
// empty or zero amount yields emptyMessage.
func parseAmount(s viewState.ViewState, field string, display string, emptyMessage string) (*big.Int, error) {
	if display == "" || units.IsZero(display) {
		return nil, actionErrors.NewInvalidInput(field, emptyMessage)
	}
	if !s.TokenKnown {
		return nil, actionErrors.NewInvalidInput("decimals", MessageTokenNotLoaded)
	}
	raw, err := units.ToRaw(display, s.Decimals)
	if err != nil {
		return nil, actionErrors.NewInvalidInput(field, MessageInvalidAmount)
	}
	if raw.Sign() == 0 {
		return nil, actionErrors.NewInvalidInput(field, emptyMessage)
	}
	return raw, nil
}

func validateDuration(months uint64) error {
	if months == 0 {
		return actionErrors.NewInvalidInput("duration", MessageInputDuration)
	}
	return nil
}

// Claim moves the given amount of the connected account's claimable
// balance into its wallet.
func (o *Orchestrator) Claim(ctx context.Context, amount string) *Outcome {
	var raw *big.Int
	return o.run(ctx, &action{
		kind: Action_Claim,
		validate: func(s viewState.ViewState) (err error) {
			raw, err = parseAmount(s, "amount", amount, MessageInputClaimAmount)
			return err
		},
		steps: func() []step {
			user := o.signer.Connection().Address
			return []step{{
				name: "claim",
				submit: func(ctx context.Context) (*types.Transaction, error) {
					return o.gateway.Claim(ctx, user, raw)
				},
			}}
		},
		success: "Claimed successfully",
	})
}

// StakeFromClaim stakes part of the claimable balance directly through the
// claiming contract and forwards the new stake to the record keeper.
func (o *Orchestrator) StakeFromClaim(ctx context.Context, amount string, months uint64) *Outcome {
	var raw *big.Int
	return o.run(ctx, &action{
		kind: Action_StakeFromClaim,
		validate: func(s viewState.ViewState) (err error) {
			raw, err = parseAmount(s, "amount", amount, MessageInputStakingAmount)
			if err != nil {
				return err
			}
			return validateDuration(months)
		},
		steps: func() []step {
			return []step{{
				name: "stakeFromClaim",
				submit: func(ctx context.Context) (*types.Transaction, error) {
					return o.gateway.StakeFromClaim(ctx, raw, months)
				},
			}}
		},
		success: "Staked from claim successfully",
		confirmed: func(ctx context.Context, outcome *Outcome) {
			o.recordStake(ctx, months, outcome)
		},
	})
}

// Stake approves the staking contract for the amount and, once the
// approval is confirmed, stakes it.
func (o *Orchestrator) Stake(ctx context.Context, amount string, months uint64) *Outcome {
	var raw *big.Int
	return o.run(ctx, &action{
		kind: Action_Stake,
		validate: func(s viewState.ViewState) (err error) {
			raw, err = parseAmount(s, "amount", amount, MessageInputStakingAmount)
			if err != nil {
				return err
			}
			return validateDuration(months)
		},
		steps: func() []step {
			spender := o.gateway.Addresses().Staking
			return []step{
				{
					name: "approve",
					submit: func(ctx context.Context) (*types.Transaction, error) {
						return o.gateway.Approve(ctx, spender, raw)
					},
				},
				{
					name: "stake",
					submit: func(ctx context.Context) (*types.Transaction, error) {
						return o.gateway.Stake(ctx, raw, months)
					},
				},
			}
		},
		success: "Staked successfully",
	})
}

func (o *Orchestrator) Withdraw(ctx context.Context, index uint64) *Outcome {
	return o.run(ctx, &action{
		kind: Action_Withdraw,
		steps: func() []step {
			return []step{{
				name: "withdraw",
				submit: func(ctx context.Context) (*types.Transaction, error) {
					return o.gateway.Withdraw(ctx, index)
				},
			}}
		},
		success: fmt.Sprintf("Withdrew stake %d successfully", index),
	})
}

func (o *Orchestrator) ClaimRewards(ctx context.Context, index uint64) *Outcome {
	return o.run(ctx, &action{
		kind: Action_ClaimRewards,
		steps: func() []step {
			return []step{{
				name: "claimRewards",
				submit: func(ctx context.Context) (*types.Transaction, error) {
					return o.gateway.ClaimRewards(ctx, index)
				},
			}}
		},
		success: fmt.Sprintf("Claimed rewards of stake %d successfully", index),
	})
}

// SetClaimStart sets when claiming opens. See ParseClaimStart for the
// accepted formats.
func (o *Orchestrator) SetClaimStart(ctx context.Context, input string) *Outcome {
	var epoch uint64
	return o.run(ctx, &action{
		kind: Action_SetClaimStart,
		validate: func(s viewState.ViewState) error {
			parsed, err := ParseClaimStart(input, o.config.Location)
			if err != nil {
				return actionErrors.NewInvalidInput("claimStart", MessageInvalidClaimStart)
			}
			epoch = parsed
			return nil
		},
		steps: func() []step {
			return []step{{
				name: "setClaimStart",
				submit: func(ctx context.Context) (*types.Transaction, error) {
					return o.gateway.SetClaimStart(ctx, epoch)
				},
			}}
		},
		success: "Claim start updated",
	})
}

// SetClaim assigns a claimable amount to a user. The amount must be exactly
// representable with the token's decimals.
func (o *Orchestrator) SetClaim(ctx context.Context, user string, amount string) *Outcome {
	var raw *big.Int
	return o.run(ctx, &action{
		kind: Action_SetClaim,
		validate: func(s viewState.ViewState) error {
			if !common.IsHexAddress(user) {
				return actionErrors.NewInvalidInput("user", MessageInvalidAddress)
			}
			if amount == "" {
				return actionErrors.NewInvalidInput("amount", MessageInputClaimAmount)
			}
			if !s.TokenKnown {
				return actionErrors.NewInvalidInput("decimals", MessageTokenNotLoaded)
			}
			parsed, err := units.ParseUnits(amount, s.Decimals)
			if err != nil {
				return actionErrors.NewInvalidInput("amount", MessageInvalidAmount)
			}
			raw = parsed
			return nil
		},
		steps: func() []step {
			return []step{{
				name: "setClaim",
				submit: func(ctx context.Context) (*types.Transaction, error) {
					return o.gateway.SetClaim(ctx, common.HexToAddress(user), raw)
				},
			}}
		},
		success: "Claim updated",
	})
}
