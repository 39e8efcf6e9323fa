package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/claimstake/console/pkg/paginator"
	"github.com/claimstake/console/pkg/presentation"
	"github.com/spf13/cobra"
)

const (
	output_Text = "text"
	output_Json = "json"
	output_Csv  = "csv"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Show the claiming and staking sections for the connected wallet",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := setupApp(ctx, &appOptions{console: true})
		if err != nil {
			return err
		}
		defer a.close()

		output, _ := cmd.Flags().GetString("output")
		view := presentation.BuildView(a.session.Snapshot(), time.Now(), a.location)

		switch output {
		case output_Json:
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(view)
		case output_Text:
			return presentation.RenderText(os.Stdout, view)
		}
		return fmt.Errorf("unsupported output '%s'", output)
	},
}

var stakesCmd = &cobra.Command{
	Use:   "stakes",
	Short: "Show one page of the connected wallet's stakes",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		page, _ := cmd.Flags().GetUint64("page")
		limit, _ := cmd.Flags().GetUint64("limit")
		output, _ := cmd.Flags().GetString("output")
		window := paginator.PageWindow{Page: page, Limit: limit}
		if err := window.Validate(); err != nil {
			return err
		}

		a, err := setupApp(ctx, &appOptions{console: true})
		if err != nil {
			return err
		}
		defer a.close()

		if window != a.session.Snapshot().Window {
			if err := a.session.OnPageChanged(ctx, window); err != nil {
				return err
			}
		}
		view := presentation.BuildView(a.session.Snapshot(), time.Now(), a.location)

		switch output {
		case output_Csv:
			return presentation.WriteStakeRowsCSV(os.Stdout, view.Staking.Rows)
		case output_Json:
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(view.Staking)
		case output_Text:
			return presentation.RenderStakeTable(os.Stdout, view)
		}
		return fmt.Errorf("unsupported output '%s'", output)
	},
}
