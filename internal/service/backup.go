package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cloudsupply/storebot/internal/repository"
)

// BackupService exports point-in-time snapshots of the whole store and
// performs the guarded wipe of order and cart data.
type BackupService struct {
	snapshotRepo repository.SnapshotRepository
	orderRepo    repository.OrderRepository
	cartRepo     repository.CartRepository
	dataDir      string
}

func NewBackupService(
	snapshotRepo repository.SnapshotRepository,
	orderRepo repository.OrderRepository,
	cartRepo repository.CartRepository,
	dataDir string,
) *BackupService {
	return &BackupService{
		snapshotRepo: snapshotRepo,
		orderRepo:    orderRepo,
		cartRepo:     cartRepo,
		dataDir:      dataDir,
	}
}

// Export dumps every table to a timestamped JSON file under the data
// directory and returns its path.
func (s *BackupService) Export(ctx context.Context) (string, error) {
	snap, err := s.snapshotRepo.Dump(ctx)
	if err != nil {
		return "", fmt.Errorf("dump snapshot: %w", err)
	}

	dir := filepath.Join(s.dataDir, "backups")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("backup_%s.json", time.Now().Format("20060102_150405")))

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}
	return path, nil
}

// Reset exports a backup, then wipes all orders and carts. Users, catalog
// and settings survive. Returns the backup path.
func (s *BackupService) Reset(ctx context.Context) (string, error) {
	path, err := s.Export(ctx)
	if err != nil {
		return "", err
	}
	if err := s.orderRepo.WipeAll(ctx); err != nil {
		return path, fmt.Errorf("wipe orders: %w", err)
	}
	if err := s.cartRepo.ClearAll(ctx); err != nil {
		return path, fmt.Errorf("wipe carts: %w", err)
	}
	return path, nil
}
