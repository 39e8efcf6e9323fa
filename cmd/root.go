package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/claimstake/console/internal/config"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:          "claimstake",
	Short:        "Claim, stake and manage stakes on the claimstake contracts",
	SilenceUsage: true,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	initConfig(rootCmd)

	rootCmd.PersistentFlags().Bool(config.Debug, false, `"true" or "false"`)
	rootCmd.PersistentFlags().StringP(config.ChainKey, "c", "production", "The chain to use (production, local)")

	rootCmd.PersistentFlags().String(config.EthereumRpcUrl, "", `e.g. "http://<hostname>:8545"`)
	rootCmd.PersistentFlags().Duration(config.EthereumConfirmationTimeout, 0, `Give up waiting for a confirmation after this long (0 waits indefinitely)`)

	rootCmd.PersistentFlags().String(config.ContractsToken, "", `Token contract address (defaults to the chain's deployment)`)
	rootCmd.PersistentFlags().String(config.ContractsStaking, "", `Staking contract address (defaults to the chain's deployment)`)
	rootCmd.PersistentFlags().String(config.ContractsClaiming, "", `Claiming contract address (defaults to the chain's deployment)`)

	rootCmd.PersistentFlags().String(config.WalletPrivateKey, "", `Hex private key of the wallet to connect`)
	rootCmd.PersistentFlags().Bool(config.WalletAutoApprove, false, `Sign transactions without asking for confirmation`)

	rootCmd.PersistentFlags().String(config.BackendEndpoint, "", `Base url of the stake record API, e.g. "https://api.example.com/api"`)

	rootCmd.PersistentFlags().String(config.DisplayTimezone, "local", `Time zone timestamps are shown and parsed in`)

	rootCmd.PersistentFlags().String(config.JournalDriverKey, "none", `Transaction journal driver (none, sqlite, postgres)`)
	rootCmd.PersistentFlags().String(config.JournalSqlitePath, "", `Path of the sqlite transaction journal`)

	rootCmd.PersistentFlags().String(config.DatabaseHost, "localhost", `PostgreSQL host`)
	rootCmd.PersistentFlags().Int(config.DatabasePort, 5432, `PostgreSQL port`)
	rootCmd.PersistentFlags().String(config.DatabaseUser, "claimstake", `PostgreSQL username`)
	rootCmd.PersistentFlags().String(config.DatabasePassword, "", `PostgreSQL password`)
	rootCmd.PersistentFlags().String(config.DatabaseDbName, "claimstake", `PostgreSQL database name`)
	rootCmd.PersistentFlags().String(config.DatabaseSchemaName, "", `PostgreSQL schema name (default "public")`)
	rootCmd.PersistentFlags().String(config.DatabaseSSLMode, "disable", `PostgreSQL ssl mode (disable, require, verify-ca, verify-full)`)

	rootCmd.PersistentFlags().Int(config.HttpPort, 7200, `Port the view server listens on`)
	rootCmd.PersistentFlags().String(config.HttpCorsOrigins, "", `Comma separated list of allowed CORS origins (default "*")`)

	rootCmd.PersistentFlags().Bool(config.DataDogStatsdEnabled, false, `e.g. "true" or "false"`)
	rootCmd.PersistentFlags().String(config.DataDogStatsdUrl, "", `e.g. "localhost:8125"`)
	rootCmd.PersistentFlags().Float64(config.DataDogStatsdSampleRate, 1.0, `The sample rate to use for statsd metrics`)

	rootCmd.PersistentFlags().Bool(config.PrometheusEnabled, false, `e.g. "true" or "false"`)
	rootCmd.PersistentFlags().Int(config.PrometheusPort, 2112, `The port to run the prometheus server on`)

	// setup sub commands
	rootCmd.AddCommand(stateCmd)
	rootCmd.AddCommand(stakesCmd)
	rootCmd.AddCommand(claimCmd)
	rootCmd.AddCommand(stakeCmd)
	rootCmd.AddCommand(stakeFromClaimCmd)
	rootCmd.AddCommand(withdrawCmd)
	rootCmd.AddCommand(claimRewardsCmd)
	rootCmd.AddCommand(adminCmd)
	rootCmd.AddCommand(recordsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(runVersionCmd)

	adminCmd.AddCommand(setClaimStartCmd)
	adminCmd.AddCommand(setClaimCmd)

	// bind any subcommand flags
	stakesCmd.Flags().Uint64("page", 1, "Page of the stake list to show")
	stakesCmd.Flags().Uint64("limit", 10, "Stakes per page (5, 10, 25, 50)")
	stakesCmd.Flags().StringP("output", "o", "text", "Output format (text, json, csv)")
	stateCmd.Flags().StringP("output", "o", "text", "Output format (text, json)")
	stakeCmd.Flags().Uint64P("months", "m", 0, "Lock duration in months")
	stakeFromClaimCmd.Flags().Uint64P("months", "m", 0, "Lock duration in months")
	historyCmd.Flags().Int("limit", 50, "Number of journal entries to show")

	rootCmd.PersistentFlags().VisitAll(func(f *pflag.Flag) {
		key := config.KebabToSnakeCase(f.Name)
		viper.BindPFlag(key, f) //nolint:errcheck
		viper.BindEnv(key)      //nolint:errcheck
	})
}

func initConfig(cmd *cobra.Command) {
	// a missing .env file is fine; the environment and flags still apply
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Printf("Failed to load .env file - %+v\n", err)
	}

	viper.SetEnvPrefix(config.ENV_PREFIX)

	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	viper.AutomaticEnv()
}
