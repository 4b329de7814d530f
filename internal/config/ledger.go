package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// RewardRuleConfig defines one catalog entry in the config file.
type RewardRuleConfig struct {
	Amount             int64 `yaml:"amount"`
	MaxPerActionPerDay int64 `yaml:"max-per-action-per-day"`
}

// LedgerConfig holds the ledger engine settings and the reward catalog.
type LedgerConfig struct {
	WelcomeBonus        int64                       `yaml:"welcome-bonus"`
	DecayAmount         int64                       `yaml:"decay-amount"`
	LowBalanceThreshold int64                       `yaml:"low-balance-threshold"`
	MaxCreditsPerDay    int64                       `yaml:"max-credits-per-day"`
	EligibleRole        string                      `yaml:"eligible-role"`
	Rewards             map[string]RewardRuleConfig `yaml:"rewards"`
	SweepEnabled        *bool                       `yaml:"sweep-enabled"`
}

// Ledger engine defaults, applied when the config file omits a field.
const (
	DefaultWelcomeBonus        = 90
	DefaultDecayAmount         = 1
	DefaultLowBalanceThreshold = 7
	DefaultMaxCreditsPerDay    = 100
)

// DefaultLedgerConfig returns the built-in engine settings.
func DefaultLedgerConfig() LedgerConfig {
	enabled := true
	return LedgerConfig{
		WelcomeBonus:        DefaultWelcomeBonus,
		DecayAmount:         DefaultDecayAmount,
		LowBalanceThreshold: DefaultLowBalanceThreshold,
		MaxCreditsPerDay:    DefaultMaxCreditsPerDay,
		Rewards:             map[string]RewardRuleConfig{},
		SweepEnabled:        &enabled,
	}
}

// LoadLedgerConfig loads ledger settings from the YAML config file, falling
// back to defaults when the file or individual fields are absent.
func LoadLedgerConfig(configPath string) (LedgerConfig, error) {
	// fileConfig maps the YAML fields needed for ledger settings.
	type fileConfig struct {
		Ledger LedgerConfig `yaml:"ledger"`
	}

	result := DefaultLedgerConfig()

	data, errRead := os.ReadFile(configPath)
	if errRead != nil {
		if os.IsNotExist(errRead) {
			return result, nil
		}
		return result, fmt.Errorf("read config file: %w", errRead)
	}

	var cfg fileConfig
	if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal != nil {
		return result, fmt.Errorf("parse config file: %w", errUnmarshal)
	}

	loaded := cfg.Ledger
	if loaded.WelcomeBonus > 0 {
		result.WelcomeBonus = loaded.WelcomeBonus
	}
	if loaded.DecayAmount > 0 {
		result.DecayAmount = loaded.DecayAmount
	}
	if loaded.LowBalanceThreshold > 0 {
		result.LowBalanceThreshold = loaded.LowBalanceThreshold
	}
	if loaded.MaxCreditsPerDay > 0 {
		result.MaxCreditsPerDay = loaded.MaxCreditsPerDay
	}
	if role := strings.TrimSpace(loaded.EligibleRole); role != "" {
		result.EligibleRole = role
	}
	if len(loaded.Rewards) > 0 {
		result.Rewards = loaded.Rewards
	}
	if loaded.SweepEnabled != nil {
		result.SweepEnabled = loaded.SweepEnabled
	}
	return result, nil
}
