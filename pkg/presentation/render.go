package presentation

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/gocarina/gocsv"
)

func rowActions(r *StakeRow) string {
	actions := make([]string, 0, 2)
	if r.CanWithdraw {
		actions = append(actions, "Withdraw")
	}
	if r.CanClaimRewards {
		actions = append(actions, "Rewards")
	}
	return strings.Join(actions, " ")
}

// RenderStakeTable writes the stake list with its pagination footer.
func RenderStakeTable(w io.Writer, v *View) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "No\tStaked Amount\tStart Time\tDuration\tRemaining\tAPY\tReward\t")
	if len(v.Staking.Rows) == 0 {
		fmt.Fprintf(tw, "%s\t\t\t\t\t\t\t\n", NoDataText)
	}
	for _, r := range v.Staking.Rows {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.No, r.StakedAmount, r.StartTime, r.Duration, r.Remaining, r.Apy, r.Reward, rowActions(r))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Page: %d  Per page: %d\n", v.Staking.Page, v.Staking.Limit)
	return err
}

// RenderText writes both sections and, for the owner, the owner panel.
func RenderText(w io.Writer, v *View) error {
	if v.Connected {
		fmt.Fprintf(w, "Wallet: %s (chain %s)\n\n", v.Address, v.ChainId)
	} else {
		fmt.Fprintf(w, "Wallet: not connected\n\n")
	}

	fmt.Fprintf(w, "%s | Claiming is available from: %s\n", v.Claiming.StatusText, v.Claiming.AvailableFrom)
	fmt.Fprintf(w, "Claimable Amount: %s\n\n", v.Claiming.ClaimableAmount)

	fmt.Fprintf(w, "%s | Token Balance: %s\n", v.Staking.StatusText, v.Staking.TokenBalance)
	if err := RenderStakeTable(w, v); err != nil {
		return err
	}

	if v.OwnerPanel {
		fmt.Fprintf(w, "\n%s\n", OwnerPanelTitle)
		fmt.Fprintln(w, "  admin set-claim-start <YYYY-MM-DD HH:MM:SS>")
		fmt.Fprintln(w, "  admin set-claim <address> <amount>")
	}
	if v.Message != "" {
		fmt.Fprintf(w, "\n%s\n", v.Message)
	}
	return nil
}

func WriteStakeRowsCSV(w io.Writer, rows []*StakeRow) error {
	return gocsv.Marshal(rows, w)
}
