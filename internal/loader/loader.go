// Package loader reads the four input collections from JSON snapshot files.
// Records are decoded individually so one malformed record is skipped and
// logged rather than failing the whole collection.
package loader

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/annuityworks/kestrel/internal/domain"
)

// Snapshot-relative file names the loader expects.
const (
	PoliciesFile  = "policies.json"
	ClientsFile   = "clients.json"
	ProductsFile  = "products.json"
	PositionsFile = "positions.json"
)

// Snapshot is one batch run's complete input set.
type Snapshot struct {
	Policies   []domain.Policy
	Clients    []domain.ClientProfile
	Products   []domain.Product
	Portfolios []domain.Portfolio

	// Skipped counts records dropped as malformed, by file.
	Skipped map[string]int
}

// ProfileByAccount indexes the client profiles.
func (s *Snapshot) ProfileByAccount() map[string]*domain.ClientProfile {
	idx := make(map[string]*domain.ClientProfile, len(s.Clients))
	for i := range s.Clients {
		idx[s.Clients[i].AccountNumber] = &s.Clients[i]
	}
	return idx
}

// SkippedTotal sums the skip counts across files.
func (s *Snapshot) SkippedTotal() int {
	total := 0
	for _, n := range s.Skipped {
		total += n
	}
	return total
}

// Loader reads snapshots from a directory.
type Loader struct {
	dir    string
	logger *slog.Logger
}

// New builds a loader rooted at dir.
func New(dir string, logger *slog.Logger) *Loader {
	return &Loader{dir: dir, logger: logger}
}

// Load reads all four collections. The products and clients files are
// required; positions may be absent when no acquisition analysis is wanted.
func (l *Loader) Load() (*Snapshot, error) {
	snap := &Snapshot{Skipped: make(map[string]int)}

	if err := loadCollection(l, PoliciesFile, &snap.Policies, snap, validatePolicy); err != nil {
		return nil, err
	}
	if err := loadCollection(l, ClientsFile, &snap.Clients, snap, validateClient); err != nil {
		return nil, err
	}
	if err := loadCollection(l, ProductsFile, &snap.Products, snap, validateProduct); err != nil {
		return nil, err
	}
	if err := loadCollection(l, PositionsFile, &snap.Portfolios, snap, validatePortfolio); err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		l.logger.Info("positions file absent, skipping acquisition analysis")
	}

	l.logger.Info("snapshot loaded",
		"policies", len(snap.Policies),
		"clients", len(snap.Clients),
		"products", len(snap.Products),
		"portfolios", len(snap.Portfolios),
		"skipped", snap.SkippedTotal())
	return snap, nil
}

// loadCollection decodes one file as a JSON array, record by record.
func loadCollection[T any](l *Loader, name string, out *[]T, snap *Snapshot, validate func(*T) error) error {
	path := filepath.Join(l.dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return err
		}
		return fmt.Errorf("reading %s: %w", name, err)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parsing %s: %w", name, err)
	}

	for i, msg := range raw {
		var rec T
		if err := json.Unmarshal(msg, &rec); err != nil {
			snap.Skipped[name]++
			l.logger.Warn("skipping malformed record", "file", name, "index", i, "error", err)
			continue
		}
		if err := validate(&rec); err != nil {
			snap.Skipped[name]++
			l.logger.Warn("skipping invalid record", "file", name, "index", i, "error", err)
			continue
		}
		*out = append(*out, rec)
	}
	return nil
}

func validatePolicy(p *domain.Policy) error {
	if p.ID == "" {
		return fmt.Errorf("missing policyId")
	}
	if p.ClientAccountNumber == "" {
		return fmt.Errorf("policy %s: missing clientAccountNumber", p.ID)
	}
	if p.AccountValue < 0 {
		return fmt.Errorf("policy %s: negative account value", p.ID)
	}
	return nil
}

func validateClient(c *domain.ClientProfile) error {
	if c.AccountNumber == "" {
		return fmt.Errorf("missing clientAccountNumber")
	}
	return nil
}

func validateProduct(p *domain.Product) error {
	if p.ID == "" {
		return fmt.Errorf("missing productId")
	}
	if p.Type == "" {
		return fmt.Errorf("product %s: missing productType", p.ID)
	}
	return nil
}

func validatePortfolio(p *domain.Portfolio) error {
	if p.ClientAccountNumber == "" {
		return fmt.Errorf("missing clientAccountNumber")
	}
	if p.TotalValue < 0 {
		return fmt.Errorf("portfolio %s: negative total value", p.ClientAccountNumber)
	}
	return nil
}
