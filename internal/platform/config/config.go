package config

import (
	"errors"
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/mathisdt/optigem-spoonfeeder/internal/core/domain"
)

// Config holds application configuration. Dir is the base directory all
// persisted artifacts live in: the rule script, the lookup table files, the
// optional accounts.yaml and the saved-months snapshots.
type Config struct {
	Dir          string
	Port         string
	IsProduction bool

	// the fixed counter-leg of every posting
	CounterMainAccount int
	CounterSubAccount  int
	CounterProject     int

	// RateLimit is a ulule/limiter formatted rate, e.g. "30-M".
	RateLimit string

	// BankAccounts is the registry from <dir>/accounts.yaml, may be empty.
	BankAccounts []domain.BankAccount
}

// LoadConfig loads configuration from environment variables and .env file
// if present, then reads the bank account registry from the data directory.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("SPOONFEEDER_DIR", "./data")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("COUNTER_MAIN_ACCOUNT", 1200)
	viper.SetDefault("COUNTER_SUB_ACCOUNT", 0)
	viper.SetDefault("COUNTER_PROJECT", 0)
	viper.SetDefault("RATE_LIMIT", "30-M")

	viper.AutomaticEnv()

	cfg := &Config{
		Dir:                viper.GetString("SPOONFEEDER_DIR"),
		Port:               viper.GetString("PORT"),
		IsProduction:       viper.GetBool("IS_PRODUCTION"),
		CounterMainAccount: viper.GetInt("COUNTER_MAIN_ACCOUNT"),
		CounterSubAccount:  viper.GetInt("COUNTER_SUB_ACCOUNT"),
		CounterProject:     viper.GetInt("COUNTER_PROJECT"),
		RateLimit:          viper.GetString("RATE_LIMIT"),
	}

	if cfg.Dir == "" {
		return nil, fmt.Errorf("SPOONFEEDER_DIR must not be empty")
	}

	accounts, err := loadBankAccounts(cfg.Dir)
	if err != nil {
		return nil, err
	}
	cfg.BankAccounts = accounts
	if len(cfg.BankAccounts) == 0 {
		log.Println("Warning: no bank accounts configured, per-account lookup tables are unavailable.")
	}

	return cfg, nil
}

// OwnAccount returns the configured own-account triple used as the fixed
// counter-leg of every exported ledger entry.
func (c *Config) OwnAccount() domain.AccountRef {
	return domain.AccountRef{
		MainAccount: c.CounterMainAccount,
		SubAccount:  c.CounterSubAccount,
		Project:     c.CounterProject,
	}
}

// BankAccountByLabel finds the configured account whose IBAN or name equals
// the statement's account label, or nil.
func (c *Config) BankAccountByLabel(label string) *domain.BankAccount {
	for i := range c.BankAccounts {
		if c.BankAccounts[i].IBAN == label || c.BankAccounts[i].Name == label {
			return &c.BankAccounts[i]
		}
	}
	return nil
}

// loadBankAccounts reads <dir>/accounts.yaml. A missing file is fine.
func loadBankAccounts(dir string) ([]domain.BankAccount, error) {
	v := viper.New()
	v.SetConfigName("accounts")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("could not read accounts.yaml from %s: %w", dir, err)
	}

	var accounts []domain.BankAccount
	if err := v.UnmarshalKey("accounts", &accounts); err != nil {
		return nil, fmt.Errorf("could not parse accounts.yaml: %w", err)
	}
	return accounts, nil
}
