package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/claimstake/console/pkg/orchestrator"
	"github.com/claimstake/console/pkg/presentation"
	"github.com/spf13/cobra"
)

// runAction connects, runs one orchestrator action and prints its outcome.
func runAction(ownerOnly bool, do func(ctx context.Context, o *orchestrator.Orchestrator) *orchestrator.Outcome) error {
	ctx := context.Background()
	a, err := setupApp(ctx, &appOptions{console: true})
	if err != nil {
		return err
	}
	defer a.close()

	if ownerOnly {
		s := a.session.Snapshot()
		if !presentation.IsOwner(s.Connection, s.Claim.Owner, s.Claim.OwnerKnown) {
			return fmt.Errorf("only the claiming contract owner can do this")
		}
	}

	spinner := &confirmationSpinner{}
	a.orchestrator.Observe(spinner.observe)

	outcome := do(ctx, a.orchestrator)
	for _, h := range outcome.TxHashes {
		fmt.Fprintf(os.Stdout, "Transaction: %s\n", h.Hex())
	}
	fmt.Fprintln(os.Stdout, outcome.Message)
	if !outcome.Succeeded() {
		return fmt.Errorf("%s failed", outcome.Kind)
	}
	return nil
}

func parseIndex(arg string) (uint64, error) {
	index, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid stake index '%s'", arg)
	}
	return index, nil
}

var claimCmd = &cobra.Command{
	Use:   "claim <amount>",
	Short: "Claim tokens from the claiming contract",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount := ""
		if len(args) > 0 {
			amount = args[0]
		}
		return runAction(false, func(ctx context.Context, o *orchestrator.Orchestrator) *orchestrator.Outcome {
			return o.Claim(ctx, amount)
		})
	},
}

var stakeCmd = &cobra.Command{
	Use:   "stake <amount>",
	Short: "Approve and stake tokens from the wallet",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount := ""
		if len(args) > 0 {
			amount = args[0]
		}
		months, _ := cmd.Flags().GetUint64("months")
		return runAction(false, func(ctx context.Context, o *orchestrator.Orchestrator) *orchestrator.Outcome {
			return o.Stake(ctx, amount, months)
		})
	},
}

var stakeFromClaimCmd = &cobra.Command{
	Use:   "stake-from-claim <amount>",
	Short: "Stake part of the claimable amount without claiming it first",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount := ""
		if len(args) > 0 {
			amount = args[0]
		}
		months, _ := cmd.Flags().GetUint64("months")
		return runAction(false, func(ctx context.Context, o *orchestrator.Orchestrator) *orchestrator.Outcome {
			return o.StakeFromClaim(ctx, amount, months)
		})
	},
}

var withdrawCmd = &cobra.Command{
	Use:   "withdraw <index>",
	Short: "Withdraw a stake",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := parseIndex(args[0])
		if err != nil {
			return err
		}
		return runAction(false, func(ctx context.Context, o *orchestrator.Orchestrator) *orchestrator.Outcome {
			return o.Withdraw(ctx, index)
		})
	},
}

var claimRewardsCmd = &cobra.Command{
	Use:   "claim-rewards <index>",
	Short: "Claim the rewards of a stake",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := parseIndex(args[0])
		if err != nil {
			return err
		}
		return runAction(false, func(ctx context.Context, o *orchestrator.Orchestrator) *orchestrator.Outcome {
			return o.ClaimRewards(ctx, index)
		})
	},
}

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Claiming contract owner functions",
}

var setClaimStartCmd = &cobra.Command{
	Use:   "set-claim-start <YYYY-MM-DD HH:MM:SS>",
	Short: "Set when claiming opens",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAction(true, func(ctx context.Context, o *orchestrator.Orchestrator) *orchestrator.Outcome {
			return o.SetClaimStart(ctx, args[0])
		})
	},
}

var setClaimCmd = &cobra.Command{
	Use:   "set-claim <address> <amount>",
	Short: "Set the claimable amount of an address",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAction(true, func(ctx context.Context, o *orchestrator.Orchestrator) *orchestrator.Outcome {
			return o.SetClaim(ctx, args[0], args[1])
		})
	},
}
