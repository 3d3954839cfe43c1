package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hireline/internal/config"
	"hireline/internal/repo"
)

// ResolveCompanyAndConfig picks the active company and ensures a company and
// config row exist in the database, seeding defaults if missing. It prefers
// the override, then a single-company database.
func ResolveCompanyAndConfig(ctx context.Context, companyOverride string, r repo.Repo) (string, *config.Config, error) {
	companyID := companyOverride
	if companyID == "" {
		companies, err := r.ListCompanies(ctx)
		if err != nil {
			return "", nil, err
		}
		if len(companies) != 1 {
			return "", nil, fmt.Errorf("company not specified; use --company")
		}
		companyID = companies[0].ID
	}
	seedCfg := config.Default(companyID)

	if _, err := r.GetCompany(ctx, companyID); err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			return "", nil, err
		}
		if err := createCompany(ctx, r, companyID, seedCfg); err != nil {
			return "", nil, err
		}
	}
	cfg, err := r.GetCompanyConfig(ctx, companyID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			if err := r.UpsertCompanyConfig(ctx, companyID, seedCfg); err != nil {
				return "", nil, fmt.Errorf("seed company config: %w", err)
			}
			cfg = seedCfg
		} else {
			return "", nil, err
		}
	}
	cfg.Company.ID = companyID
	return companyID, cfg, nil
}

func createCompany(ctx context.Context, r repo.Repo, companyID string, seedCfg *config.Config) error {
	if seedCfg == nil {
		seedCfg = config.Default(companyID)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `INSERT INTO companies(id,name,created_at) VALUES (?,?,?)`,
		companyID, companyID, now); err != nil {
		return fmt.Errorf("insert company: %w", err)
	}
	if err := r.UpsertCompanyConfigTx(ctx, tx, companyID, seedCfg); err != nil {
		return fmt.Errorf("insert company config: %w", err)
	}
	return tx.Commit()
}
