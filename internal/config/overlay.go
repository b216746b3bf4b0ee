// config/overlay.go
package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// CompaniesFile is the shape of the optional companies overlay, so the board
// list can live apart from the scoring rules.
type CompaniesFile struct {
	Companies []Company `yaml:"companies"`
}

func OverlayCompanies(cfg *Config, companiesPath string) error {
	b, err := os.ReadFile(companiesPath)
	if err != nil {
		// Missing companies file should not kill startup
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	var cf CompaniesFile
	if err := yaml.Unmarshal(b, &cf); err != nil {
		return err
	}

	if len(cf.Companies) > 0 {
		cfg.Companies = cf.Companies
	}
	return nil
}

func resolveRelative(base, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(filepath.Dir(base), p)
}
