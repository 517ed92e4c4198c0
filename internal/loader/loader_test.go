package loader

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func writeRequired(t *testing.T, dir string) {
	t.Helper()
	writeFile(t, dir, PoliciesFile, `[
		{"policyId": "POL-001", "clientAccountNumber": "ACC-001", "accountValue": 250000}
	]`)
	writeFile(t, dir, ClientsFile, `[
		{"clientAccountNumber": "ACC-001", "clientName": "Jordan Hale"}
	]`)
	writeFile(t, dir, ProductsFile, `[
		{"productId": "FIA-001", "productType": "Fixed Indexed Annuity"}
	]`)
}

func TestLoadCompleteSnapshot(t *testing.T) {
	dir := t.TempDir()
	writeRequired(t, dir)
	writeFile(t, dir, PositionsFile, `[
		{"clientAccountNumber": "ACC-001", "totalPortfolioValue": 900000}
	]`)

	snap, err := New(dir, discardLogger()).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(snap.Policies) != 1 || len(snap.Clients) != 1 || len(snap.Products) != 1 || len(snap.Portfolios) != 1 {
		t.Errorf("counts = %d/%d/%d/%d, want 1 each",
			len(snap.Policies), len(snap.Clients), len(snap.Products), len(snap.Portfolios))
	}
	if snap.SkippedTotal() != 0 {
		t.Errorf("skipped = %d", snap.SkippedTotal())
	}
}

func TestLoadMissingPositionsTolerated(t *testing.T) {
	dir := t.TempDir()
	writeRequired(t, dir)

	snap, err := New(dir, discardLogger()).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(snap.Portfolios) != 0 {
		t.Errorf("portfolios = %d, want none", len(snap.Portfolios))
	}
}

func TestLoadMissingPoliciesFails(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ClientsFile, `[]`)
	writeFile(t, dir, ProductsFile, `[]`)

	if _, err := New(dir, discardLogger()).Load(); err == nil {
		t.Fatal("Load succeeded without a policies file")
	}
}

func TestLoadSkipsBadRecords(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, PoliciesFile, `[
		{"policyId": "POL-001", "clientAccountNumber": "ACC-001", "accountValue": 250000},
		{"policyId": "POL-002", "clientAccountNumber": "ACC-002", "accountValue": "not-a-number"},
		{"policyId": "", "clientAccountNumber": "ACC-003"},
		{"policyId": "POL-004", "clientAccountNumber": "ACC-004", "accountValue": -5}
	]`)
	writeFile(t, dir, ClientsFile, `[
		{"clientAccountNumber": "ACC-001"},
		{"clientName": "No Account"}
	]`)
	writeFile(t, dir, ProductsFile, `[
		{"productId": "FIA-001", "productType": "Fixed Indexed Annuity"},
		{"productId": "FIA-002"}
	]`)

	snap, err := New(dir, discardLogger()).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(snap.Policies) != 1 {
		t.Errorf("policies = %d, want the one valid record", len(snap.Policies))
	}
	if snap.Skipped[PoliciesFile] != 3 {
		t.Errorf("skipped policies = %d, want 3", snap.Skipped[PoliciesFile])
	}
	if snap.Skipped[ClientsFile] != 1 || snap.Skipped[ProductsFile] != 1 {
		t.Errorf("skipped clients/products = %d/%d, want 1/1",
			snap.Skipped[ClientsFile], snap.Skipped[ProductsFile])
	}
	if snap.SkippedTotal() != 5 {
		t.Errorf("total skipped = %d, want 5", snap.SkippedTotal())
	}
}

func TestLoadRejectsNonArrayFile(t *testing.T) {
	dir := t.TempDir()
	writeRequired(t, dir)
	writeFile(t, dir, PoliciesFile, `{"policyId": "POL-001"}`)

	if _, err := New(dir, discardLogger()).Load(); err == nil {
		t.Fatal("Load accepted an object where an array is required")
	}
}

func TestProfileByAccount(t *testing.T) {
	dir := t.TempDir()
	writeRequired(t, dir)

	snap, err := New(dir, discardLogger()).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	idx := snap.ProfileByAccount()
	if p := idx["ACC-001"]; p == nil || p.Name != "Jordan Hale" {
		t.Errorf("index[ACC-001] = %+v", idx["ACC-001"])
	}
}
