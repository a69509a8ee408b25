package common

import (
	"fmt"
	"os"
	"path/filepath"

	"auto-topup-go/internal/bank"
	"auto-topup-go/internal/models"

	"gopkg.in/yaml.v2"
)

type banksFile struct {
	Banks []models.BankConfig `yaml:"banks"`
}

// LoadBankConfigs reads the bank feed seed file. Every entry is validated
// before any is returned.
func LoadBankConfigs(banksPath string) ([]models.BankConfig, error) {
	if !filepath.IsAbs(banksPath) {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		banksPath = filepath.Join(wd, banksPath)
	}

	data, err := os.ReadFile(banksPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", banksPath, err)
	}

	var file banksFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", banksPath, err)
	}

	for i, cfg := range file.Banks {
		if err := bank.ValidateConfig(cfg); err != nil {
			return nil, fmt.Errorf("bank at index %d: %w", i, err)
		}
	}

	return file.Banks, nil
}
