// Package backup manages point-in-time snapshots of the SQLite database.
// Snapshots are taken with VACUUM INTO, which produces a consistent copy
// without blocking readers, and restores replace the database file.
package backup

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"
)

// backup filenames: backup_YYYYMMDD_HHMMSS.db
var backupNamePattern = regexp.MustCompile(`^backup_\d{8}_\d{6}\.db$`)

// sqliteMagic is the first 16 bytes of every SQLite database file.
const sqliteMagic = "SQLite format 3\x00"

var (
	ErrBackupNotFound = errors.New("backup not found")
	ErrInvalidName    = errors.New("invalid backup filename")
	ErrNotSQLite      = errors.New("file is not a SQLite database")
	ErrUploadTooLarge = errors.New("uploaded database exceeds the size limit")
)

// Info describes one stored backup.
type Info struct {
	Name      string    `json:"name"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

// Manager creates, lists and restores database backups.
type Manager struct {
	db      *gorm.DB
	dbPath  string
	dir     string
	maxSize int64
}

// NewManager creates a backup manager storing snapshots under dir.
func NewManager(db *gorm.DB, dbPath, dir string, maxUploadBytes int64) (*Manager, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create backup dir: %w", err)
	}
	return &Manager{
		db:      db,
		dbPath:  dbPath,
		dir:     dir,
		maxSize: maxUploadBytes,
	}, nil
}

// Create takes a consistent snapshot of the live database and returns its
// metadata.
func (m *Manager) Create() (*Info, error) {
	name := fmt.Sprintf("backup_%s.db", time.Now().Format("20060102_150405"))
	target := filepath.Join(m.dir, name)

	// VACUUM INTO refuses to overwrite; a same-second snapshot already
	// exists, so hand it back.
	if info, err := os.Stat(target); err == nil {
		return &Info{Name: name, SizeBytes: info.Size(), CreatedAt: info.ModTime()}, nil
	}

	// VACUUM INTO does not support bound parameters for the target.
	escaped := strings.ReplaceAll(target, "'", "''")
	if err := m.db.Exec(fmt.Sprintf("VACUUM INTO '%s'", escaped)).Error; err != nil {
		return nil, fmt.Errorf("snapshot database: %w", err)
	}

	info, err := os.Stat(target)
	if err != nil {
		return nil, fmt.Errorf("stat snapshot: %w", err)
	}
	return &Info{Name: name, SizeBytes: info.Size(), CreatedAt: info.ModTime()}, nil
}

// List returns all stored backups, newest first.
func (m *Manager) List() ([]Info, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, fmt.Errorf("read backup dir: %w", err)
	}

	backups := make([]Info, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !backupNamePattern.MatchString(entry.Name()) {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, Info{
			Name:      entry.Name(),
			SizeBytes: fi.Size(),
			CreatedAt: fi.ModTime(),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Name > backups[j].Name
	})
	return backups, nil
}

// Delete removes a stored backup by name.
func (m *Manager) Delete(name string) error {
	if !backupNamePattern.MatchString(name) {
		return ErrInvalidName
	}
	err := os.Remove(filepath.Join(m.dir, name))
	if os.IsNotExist(err) {
		return ErrBackupNotFound
	}
	return err
}

// RestoreFromBackup replaces the database file with a stored snapshot. The
// server must re-open its database connections afterwards; callers are
// expected to trigger a restart.
func (m *Manager) RestoreFromBackup(name string) error {
	if !backupNamePattern.MatchString(name) {
		return ErrInvalidName
	}

	src, err := os.Open(filepath.Join(m.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return ErrBackupNotFound
		}
		return err
	}
	defer src.Close()

	return m.replaceDatabase(src)
}

// RestoreFromUpload replaces the database file with an uploaded snapshot
// after verifying it is a SQLite database.
func (m *Manager) RestoreFromUpload(r io.Reader) error {
	if m.maxSize > 0 {
		r = io.LimitReader(r, m.maxSize+1)
	}
	return m.replaceDatabase(r)
}

// replaceDatabase validates the source and swaps it in for the live file via
// a temp file and rename. Stale WAL and SHM siblings are removed so SQLite
// does not replay old writes over the restored copy.
func (m *Manager) replaceDatabase(r io.Reader) error {
	header := make([]byte, len(sqliteMagic))
	if _, err := io.ReadFull(r, header); err != nil {
		return ErrNotSQLite
	}
	if string(header) != sqliteMagic {
		return ErrNotSQLite
	}

	dir := filepath.Dir(m.dbPath)
	tmpFile, err := os.CreateTemp(dir, "restore_tmp_")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()
	defer func() {
		tmpFile.Close()
		os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(header); err != nil {
		return err
	}
	written, err := io.Copy(tmpFile, r)
	if err != nil {
		return err
	}
	if m.maxSize > 0 && written+int64(len(header)) > m.maxSize {
		return ErrUploadTooLarge
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmpPath, m.dbPath); err != nil {
		return err
	}

	for _, suffix := range []string{"-wal", "-shm"} {
		if err := os.Remove(m.dbPath + suffix); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// Dir returns the directory backups are stored in.
func (m *Manager) Dir() string {
	return m.dir
}

// Path returns the full path of a stored backup, for download handlers.
func (m *Manager) Path(name string) (string, error) {
	if !backupNamePattern.MatchString(name) {
		return "", ErrInvalidName
	}
	full := filepath.Join(m.dir, name)
	if _, err := os.Stat(full); err != nil {
		if os.IsNotExist(err) {
			return "", ErrBackupNotFound
		}
		return "", err
	}
	return full, nil
}
