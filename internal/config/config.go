package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const ENV_PREFIX = "CLAIMSTAKE"

type Chain string

const (
	Chain_Production Chain = "production"
	Chain_Local      Chain = "local"
)

type JournalDriver string

const (
	JournalDriver_None     JournalDriver = "none"
	JournalDriver_Sqlite   JournalDriver = "sqlite"
	JournalDriver_Postgres JournalDriver = "postgres"
)

// viper keys
const (
	Debug    = "debug"
	ChainKey = "chain"

	EthereumRpcUrl              = "ethereum.rpc-url"
	EthereumConfirmationTimeout = "ethereum.confirmation-timeout"

	ContractsToken    = "contracts.token"
	ContractsStaking  = "contracts.staking"
	ContractsClaiming = "contracts.claiming"

	WalletPrivateKey  = "wallet.private-key"
	WalletAutoApprove = "wallet.auto-approve"

	BackendEndpoint = "backend.endpoint"

	DisplayTimezone = "display.timezone"

	JournalDriverKey  = "journal.driver"
	JournalSqlitePath = "journal.sqlite-path"

	DatabaseHost       = "database.host"
	DatabasePort       = "database.port"
	DatabaseUser       = "database.user"
	DatabasePassword   = "database.password"
	DatabaseDbName     = "database.db-name"
	DatabaseSchemaName = "database.schema-name"
	DatabaseSSLMode    = "database.ssl-mode"

	HttpPort        = "http.port"
	HttpCorsOrigins = "http.cors-origins"

	PrometheusEnabled = "prometheus.enabled"
	PrometheusPort    = "prometheus.port"

	DataDogStatsdEnabled    = "datadog.statsd.enabled"
	DataDogStatsdUrl        = "datadog.statsd.url"
	DataDogStatsdSampleRate = "datadog.statsd.sample-rate"
)

type Config struct {
	Debug             bool
	Chain             Chain
	EthereumRpcConfig EthereumRpcConfig
	ContractsConfig   ContractAddresses
	WalletConfig      WalletConfig
	BackendConfig     BackendConfig
	DisplayConfig     DisplayConfig
	JournalConfig     JournalConfig
	DatabaseConfig    DatabaseConfig
	HttpConfig        HttpConfig
	PrometheusConfig  PrometheusConfig
	DataDogConfig     DataDogConfig
}

type EthereumRpcConfig struct {
	RpcUrl string

	// ConfirmationTimeout bounds the single confirmation wait. Zero waits
	// until the network resolves the transaction.
	ConfirmationTimeout time.Duration
}

type ContractAddresses struct {
	Token    string
	Staking  string
	Claiming string
}

type WalletConfig struct {
	PrivateKey  string
	AutoApprove bool
}

type BackendConfig struct {
	Endpoint string
}

type DisplayConfig struct {
	Timezone string
}

type JournalConfig struct {
	Driver     JournalDriver
	SqlitePath string
}

type DatabaseConfig struct {
	Host       string
	Port       int
	User       string
	Password   string
	DbName     string
	SchemaName string
	SSLMode    string
}

type HttpConfig struct {
	Port        int
	CorsOrigins []string
}

type PrometheusConfig struct {
	Enabled bool
	Port    int
}

type DataDogConfig struct {
	StatsdConfig StatsdConfig
}

type StatsdConfig struct {
	Enabled    bool
	Url        string
	SampleRate float64
}

// KebabToSnakeCase converts a flag name into the key viper stores it under.
func KebabToSnakeCase(str string) string {
	return strings.ReplaceAll(str, "-", "_")
}

func normalizeFlagName(name string) string {
	return KebabToSnakeCase(name)
}

func parseChain(name string) (Chain, error) {
	switch Chain(name) {
	case Chain_Production, Chain_Local:
		return Chain(name), nil
	case "":
		return Chain_Production, nil
	}
	return "", fmt.Errorf("unsupported chain %s", name)
}

func parseJournalDriver(name string) (JournalDriver, error) {
	switch JournalDriver(name) {
	case JournalDriver_None, JournalDriver_Sqlite, JournalDriver_Postgres:
		return JournalDriver(name), nil
	case "":
		return JournalDriver_None, nil
	}
	return "", fmt.Errorf("unsupported journal driver %s", name)
}

func parseStringAsList(envVar string) []string {
	if envVar == "" {
		return []string{}
	}
	// split on commas
	stringList := strings.Split(envVar, ",")

	l := make([]string, 0)
	for _, s := range stringList {
		s = strings.TrimSpace(s)
		if s != "" {
			l = append(l, s)
		}
	}
	return l
}

// NewConfig materialises the typed config from whatever viper has bound
// (flags, CLAIMSTAKE_* env vars, .env file).
func NewConfig() (*Config, error) {
	chain, err := parseChain(viper.GetString(normalizeFlagName(ChainKey)))
	if err != nil {
		return nil, err
	}
	driver, err := parseJournalDriver(viper.GetString(normalizeFlagName(JournalDriverKey)))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Debug: viper.GetBool(normalizeFlagName(Debug)),
		Chain: chain,

		EthereumRpcConfig: EthereumRpcConfig{
			RpcUrl:              viper.GetString(normalizeFlagName(EthereumRpcUrl)),
			ConfirmationTimeout: viper.GetDuration(normalizeFlagName(EthereumConfirmationTimeout)),
		},

		ContractsConfig: ContractAddresses{
			Token:    viper.GetString(normalizeFlagName(ContractsToken)),
			Staking:  viper.GetString(normalizeFlagName(ContractsStaking)),
			Claiming: viper.GetString(normalizeFlagName(ContractsClaiming)),
		},

		WalletConfig: WalletConfig{
			PrivateKey:  viper.GetString(normalizeFlagName(WalletPrivateKey)),
			AutoApprove: viper.GetBool(normalizeFlagName(WalletAutoApprove)),
		},

		BackendConfig: BackendConfig{
			Endpoint: viper.GetString(normalizeFlagName(BackendEndpoint)),
		},

		DisplayConfig: DisplayConfig{
			Timezone: viper.GetString(normalizeFlagName(DisplayTimezone)),
		},

		JournalConfig: JournalConfig{
			Driver:     driver,
			SqlitePath: viper.GetString(normalizeFlagName(JournalSqlitePath)),
		},

		DatabaseConfig: DatabaseConfig{
			Host:       viper.GetString(normalizeFlagName(DatabaseHost)),
			Port:       viper.GetInt(normalizeFlagName(DatabasePort)),
			User:       viper.GetString(normalizeFlagName(DatabaseUser)),
			Password:   viper.GetString(normalizeFlagName(DatabasePassword)),
			DbName:     viper.GetString(normalizeFlagName(DatabaseDbName)),
			SchemaName: viper.GetString(normalizeFlagName(DatabaseSchemaName)),
			SSLMode:    viper.GetString(normalizeFlagName(DatabaseSSLMode)),
		},

		HttpConfig: HttpConfig{
			Port:        viper.GetInt(normalizeFlagName(HttpPort)),
			CorsOrigins: parseStringAsList(viper.GetString(normalizeFlagName(HttpCorsOrigins))),
		},

		PrometheusConfig: PrometheusConfig{
			Enabled: viper.GetBool(normalizeFlagName(PrometheusEnabled)),
			Port:    viper.GetInt(normalizeFlagName(PrometheusPort)),
		},

		DataDogConfig: DataDogConfig{
			StatsdConfig: StatsdConfig{
				Enabled:    viper.GetBool(normalizeFlagName(DataDogStatsdEnabled)),
				Url:        viper.GetString(normalizeFlagName(DataDogStatsdUrl)),
				SampleRate: viper.GetFloat64(normalizeFlagName(DataDogStatsdSampleRate)),
			},
		},
	}
	return cfg, nil
}

var defaultContractAddresses = map[Chain]ContractAddresses{
	Chain_Production: {
		Token:    "0xE7981188f8D10DAB0aba03C1974E496CE83E2876",
		Staking:  "0xe5f438191cA1C051373239748BF8E0cd55155A3E",
		Claiming: "0xE097A30Ba2c5737e0d9b73603e91c600DBf4a8Dc",
	},
}

// GetContractAddresses returns the deployment addresses for the configured
// chain. Explicitly configured addresses take precedence.
func (c *Config) GetContractAddresses() (*ContractAddresses, error) {
	addresses := defaultContractAddresses[c.Chain]

	if c.ContractsConfig.Token != "" {
		addresses.Token = c.ContractsConfig.Token
	}
	if c.ContractsConfig.Staking != "" {
		addresses.Staking = c.ContractsConfig.Staking
	}
	if c.ContractsConfig.Claiming != "" {
		addresses.Claiming = c.ContractsConfig.Claiming
	}

	if addresses.Token == "" || addresses.Staking == "" || addresses.Claiming == "" {
		return nil, fmt.Errorf("contract addresses for chain '%s' are incomplete", c.Chain)
	}
	return &addresses, nil
}

// GetDisplayLocation returns the zone timestamps are rendered in.
func (c *Config) GetDisplayLocation() (*time.Location, error) {
	if c.DisplayConfig.Timezone == "" || strings.EqualFold(c.DisplayConfig.Timezone, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(c.DisplayConfig.Timezone)
}

func (c *Config) ValidateJournalConfig() error {
	switch c.JournalConfig.Driver {
	case JournalDriver_Sqlite:
		if c.JournalConfig.SqlitePath == "" {
			return errors.New("journal.sqlite-path is required for the sqlite journal")
		}
	case JournalDriver_Postgres:
		if c.DatabaseConfig.Host == "" || c.DatabaseConfig.DbName == "" {
			return errors.New("database.host and database.db-name are required for the postgres journal")
		}
	}
	return nil
}
