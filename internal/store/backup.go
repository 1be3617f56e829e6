package store

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	backupsDir   = "backups"
	backupPrefix = "backup_"
	backupStamp  = "20060102_150405"
)

// CreateBackup copies every top-level document byte-for-byte into a
// timestamped directory under backups/ and returns its path.
func (s *Store) CreateBackup() (string, error) {
	dir := filepath.Join(s.DataDir, backupsDir, backupPrefix+s.now().Format(backupStamp))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}
	docs, err := filepath.Glob(filepath.Join(s.DataDir, "*.json"))
	if err != nil {
		return "", err
	}
	for _, doc := range docs {
		if err := copyFile(doc, filepath.Join(dir, filepath.Base(doc))); err != nil {
			return "", fmt.Errorf("copy %s: %w", filepath.Base(doc), err)
		}
	}
	return dir, nil
}

// RestoreBackup copies documents from a backup directory back over the live
// ones. Best effort: a mid-way failure leaves a partial restore behind.
func (s *Store) RestoreBackup(path string) error {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("backup %s: %w", path, ErrNotFound)
	}
	docs, err := filepath.Glob(filepath.Join(path, "*.json"))
	if err != nil {
		return err
	}
	for _, doc := range docs {
		if err := copyFile(doc, filepath.Join(s.DataDir, filepath.Base(doc))); err != nil {
			return fmt.Errorf("restore %s: %w", filepath.Base(doc), err)
		}
	}
	return nil
}

// ListBackups returns backup directory paths, most recent first. The stamp in
// the name sorts lexicographically in time order.
func (s *Store) ListBackups() []string {
	entries, err := os.ReadDir(filepath.Join(s.DataDir, backupsDir))
	if err != nil {
		return nil
	}
	var backups []string
	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), backupPrefix) {
			backups = append(backups, filepath.Join(s.DataDir, backupsDir, e.Name()))
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(backups)))
	return backups
}

// CleanupBackups removes all but the newest keep backups and reports how many
// were deleted. Individual removal failures are logged and skipped.
func (s *Store) CleanupBackups(keep int) int {
	if keep < 0 {
		keep = 0
	}
	backups := s.ListBackups()
	if len(backups) <= keep {
		return 0
	}
	removed := 0
	for _, b := range backups[keep:] {
		if err := os.RemoveAll(b); err != nil {
			log.Printf("store: remove backup %s: %v", b, err)
			continue
		}
		removed++
	}
	return removed
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}
