package postgres

import (
	"database/sql"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/claimstake/console/internal/config"
	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const defaultSSLMode = "disable"

var validSSLModes = []string{
	"disable",
	"require",
	"verify-ca",
	"verify-full",
}

type PostgresConfig struct {
	Host                string
	Port                int
	Username            string
	Password            string
	DbName              string
	CreateDbIfNotExists bool
	SchemaName          string
	SSLMode             string
}

type Postgres struct {
	Db *sql.DB
}

func PostgresConfigFromDbConfig(dbCfg *config.DatabaseConfig) *PostgresConfig {
	return &PostgresConfig{
		Host:       dbCfg.Host,
		Port:       dbCfg.Port,
		Username:   dbCfg.User,
		Password:   dbCfg.Password,
		DbName:     dbCfg.DbName,
		SchemaName: dbCfg.SchemaName,
		SSLMode:    dbCfg.SSLMode,
	}
}

func getPostgresRootConnection(cfg *PostgresConfig) (*sql.DB, error) {
	postgresConnStr, err := getPostgresConnectionString(&PostgresConfig{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.Username,
		Password: cfg.Password,
		DbName:   "postgres",
		SSLMode:  cfg.SSLMode,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres connection string: %v", err)
	}

	postgresDB, err := sql.Open("postgres", postgresConnStr)
	if err != nil {
		return nil, fmt.Errorf("error connecting to postgres database: %v", err)
	}
	return postgresDB, nil
}

func getPostgresConnectionString(cfg *PostgresConfig) (string, error) {
	authString := ""
	sslMode := defaultSSLMode

	if cfg.Username != "" {
		authString = fmt.Sprintf("%s user=%s", authString, cfg.Username)
	}
	if cfg.Password != "" {
		authString = fmt.Sprintf("%s password=%s", authString, cfg.Password)
	}

	if cfg.SSLMode != "" {
		if !slices.Contains(validSSLModes, cfg.SSLMode) {
			return "", fmt.Errorf("invalid ssl mode: %s. Must be one of: %s", cfg.SSLMode, strings.Join(validSSLModes, ", "))
		}
		sslMode = cfg.SSLMode
	}

	port := cfg.Port
	if port == 0 {
		port = 5432
	}

	baseString := fmt.Sprintf("host=%s%s dbname=%s port=%d sslmode=%s TimeZone=UTC",
		cfg.Host,
		authString,
		cfg.DbName,
		port,
		sslMode,
	)
	if cfg.SchemaName != "" {
		baseString = fmt.Sprintf("%s search_path=%s", baseString, cfg.SchemaName)
	}
	return baseString, nil
}

func CreateDatabaseIfNotExists(cfg *PostgresConfig) error {
	postgresDB, err := getPostgresRootConnection(cfg)
	if err != nil {
		return err
	}
	defer postgresDB.Close()

	var exists bool
	err = postgresDB.QueryRow(`SELECT EXISTS(SELECT datname FROM pg_catalog.pg_database WHERE datname = $1);`, cfg.DbName).Scan(&exists)
	if err != nil {
		return fmt.Errorf("error checking if database exists: %v", err)
	}

	if !exists {
		if !validDbName.MatchString(cfg.DbName) {
			return fmt.Errorf("refusing to create database with name '%s'", cfg.DbName)
		}
		_, err = postgresDB.Exec(fmt.Sprintf("CREATE DATABASE %s", cfg.DbName))
		if err != nil {
			return fmt.Errorf("error creating database: %v", err)
		}
	}
	return nil
}

var validDbName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func NewPostgres(cfg *PostgresConfig) (*Postgres, error) {
	if cfg.CreateDbIfNotExists {
		if err := CreateDatabaseIfNotExists(cfg); err != nil {
			return nil, fmt.Errorf("failed to create database if not exists %+v", err)
		}
	}
	connectString, err := getPostgresConnectionString(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres connection string: %v", err)
	}

	db, err := sql.Open("postgres", connectString)
	if err != nil {
		return nil, fmt.Errorf("failed to setup database %+v", err)
	}

	return &Postgres{
		Db: db,
	}, nil
}

func NewGormFromPostgresConnection(pgDb *sql.DB) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn: pgDb,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to setup database %+v", err)
	}

	return db, nil
}

var duplicateKeyRegex = regexp.MustCompile(`duplicate key value violates unique constraint|UNIQUE constraint failed`)

// IsDuplicateKeyError matches unique violations from postgres and sqlite.
func IsDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	return duplicateKeyRegex.MatchString(err.Error())
}
