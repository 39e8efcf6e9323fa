package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/claimstake/console/pkg/actionErrors"
	"github.com/claimstake/console/pkg/journalReconciler"
	"github.com/claimstake/console/pkg/utils"
	"github.com/spf13/cobra"
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "List the stakes the record API keeps for the connected wallet",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := setupApp(ctx, &appOptions{console: true})
		if err != nil {
			return err
		}
		defer a.close()

		conn := a.wallet.Connection()
		if !conn.Connected {
			return actionErrors.ErrNotConnected
		}
		records, err := a.records.ListStakes(ctx, conn.Address.Hex())
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "Index\tAmount\tDuration\tAPY\tStaked On\tRewards\tTransaction\t")
		for _, r := range records {
			fmt.Fprintf(tw, "%d\t%s\t%d\t%d %%\t%d\t%s\t%s\t\n",
				r.Index, r.Amount, r.Duration, r.Apy, r.StakedOn, r.Rewards, utils.ShortenHash(r.TrxHash))
		}
		return tw.Flush()
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List journaled transactions of the connected wallet",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := setupApp(ctx, &appOptions{console: true})
		if err != nil {
			return err
		}
		defer a.close()

		conn := a.wallet.Connection()
		if !conn.Connected {
			return actionErrors.ErrNotConnected
		}
		entries, err := a.journal.ListEntriesForAccount(conn.Address.Hex(), limit)
		if err != nil {
			return err
		}
		result, err := journalReconciler.NewReconciler(a.ethClient, a.journal, a.logger).Reconcile(ctx, entries)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "Time\tAction\tStep\tStatus\tBlock\tTransaction\tReason\t")
		for _, e := range entries {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%s\t\n",
				e.CreatedAt.In(a.location).Format("02/01/2006 15:04:05"),
				e.Kind, e.Step, e.Status, e.BlockNumber, utils.ShortenHash(e.TransactionHash), e.Reason)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		if result.StillPending > 0 {
			fmt.Printf("%d transaction(s) still pending at block %d\n", result.StillPending, result.HeadBlock)
		}
		return nil
	},
}
