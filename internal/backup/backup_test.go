package backup

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/SmoothCdoer9981/bookclub/internal/entities"
)

func setupTestManager(t *testing.T) (*Manager, *gorm.DB, string) {
	t.Helper()

	dir := t.TempDir()
	dbPath := filepath.Join(dir, "app.db")

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if err := db.AutoMigrate(&entities.Book{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	mgr, err := NewManager(db, dbPath, filepath.Join(dir, "backups"), 10<<20)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
	})

	return mgr, db, dbPath
}

func TestManager_CreateAndList(t *testing.T) {
	mgr, db, _ := setupTestManager(t)

	if err := db.Create(&entities.Book{Title: "Dune", Description: "Desert planet."}).Error; err != nil {
		t.Fatalf("failed to seed book: %v", err)
	}

	info, err := mgr.Create()
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if info.SizeBytes == 0 {
		t.Error("backup size should be non-zero")
	}

	backups, err := mgr.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(backups) != 1 {
		t.Fatalf("List() count = %d, want 1", len(backups))
	}
	if backups[0].Name != info.Name {
		t.Errorf("List()[0].Name = %q, want %q", backups[0].Name, info.Name)
	}

	// Snapshot content must be a readable database with the seeded row
	var count int64
	backupDB, err := gorm.Open(sqlite.Open(filepath.Join(mgr.Dir(), info.Name)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open backup: %v", err)
	}
	backupDB.Model(&entities.Book{}).Count(&count)
	if count != 1 {
		t.Errorf("books in backup = %d, want 1", count)
	}
	sqlDB, _ := backupDB.DB()
	sqlDB.Close()
}

func TestManager_List_IgnoresForeignFiles(t *testing.T) {
	mgr, _, _ := setupTestManager(t)

	for _, name := range []string{"notes.txt", "backup_bad.db", "app.db"} {
		if err := os.WriteFile(filepath.Join(mgr.Dir(), name), []byte("x"), 0644); err != nil {
			t.Fatalf("failed to plant file: %v", err)
		}
	}

	backups, err := mgr.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(backups) != 0 {
		t.Errorf("List() count = %d, want 0", len(backups))
	}
}

func TestManager_RestoreFromBackup(t *testing.T) {
	mgr, db, dbPath := setupTestManager(t)

	if err := db.Create(&entities.Book{Title: "Dune", Description: "Desert planet."}).Error; err != nil {
		t.Fatalf("failed to seed book: %v", err)
	}
	info, err := mgr.Create()
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Mutate the live database after the snapshot
	if err := db.Create(&entities.Book{Title: "Dune Messiah", Description: "Sequel."}).Error; err != nil {
		t.Fatalf("failed to add second book: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.Close()

	if err := mgr.RestoreFromBackup(info.Name); err != nil {
		t.Fatalf("RestoreFromBackup() error = %v", err)
	}

	restored, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to reopen database: %v", err)
	}
	var count int64
	restored.Model(&entities.Book{}).Count(&count)
	if count != 1 {
		t.Errorf("books after restore = %d, want 1", count)
	}
	rdb, _ := restored.DB()
	rdb.Close()
}

func TestManager_Restore_RejectsBadNames(t *testing.T) {
	mgr, _, _ := setupTestManager(t)

	for _, name := range []string{
		"../app.db",
		"backup_20240101_000000.db/../../etc/passwd",
		"whatever.db",
		"",
	} {
		if err := mgr.RestoreFromBackup(name); !errors.Is(err, ErrInvalidName) {
			t.Errorf("RestoreFromBackup(%q) error = %v, want ErrInvalidName", name, err)
		}
	}

	if err := mgr.RestoreFromBackup("backup_20240101_000000.db"); !errors.Is(err, ErrBackupNotFound) {
		t.Errorf("RestoreFromBackup(missing) error = %v, want ErrBackupNotFound", err)
	}
}

func TestManager_RestoreFromUpload_RejectsNonSQLite(t *testing.T) {
	mgr, _, _ := setupTestManager(t)

	err := mgr.RestoreFromUpload(bytes.NewReader([]byte("definitely not a database")))
	if !errors.Is(err, ErrNotSQLite) {
		t.Errorf("RestoreFromUpload(garbage) error = %v, want ErrNotSQLite", err)
	}

	err = mgr.RestoreFromUpload(bytes.NewReader(nil))
	if !errors.Is(err, ErrNotSQLite) {
		t.Errorf("RestoreFromUpload(empty) error = %v, want ErrNotSQLite", err)
	}
}

func TestManager_RestoreFromUpload(t *testing.T) {
	mgr, db, dbPath := setupTestManager(t)

	if err := db.Create(&entities.Book{Title: "Dune", Description: "Desert planet."}).Error; err != nil {
		t.Fatalf("failed to seed book: %v", err)
	}
	info, err := mgr.Create()
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	data, err := os.ReadFile(filepath.Join(mgr.Dir(), info.Name))
	if err != nil {
		t.Fatalf("failed to read backup: %v", err)
	}

	sqlDB, _ := db.DB()
	sqlDB.Close()

	if err := mgr.RestoreFromUpload(bytes.NewReader(data)); err != nil {
		t.Fatalf("RestoreFromUpload() error = %v", err)
	}

	restored, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to reopen database: %v", err)
	}
	var count int64
	restored.Model(&entities.Book{}).Count(&count)
	if count != 1 {
		t.Errorf("books after upload restore = %d, want 1", count)
	}
	rdb, _ := restored.DB()
	rdb.Close()
}

func TestManager_Delete(t *testing.T) {
	mgr, _, _ := setupTestManager(t)

	info, err := mgr.Create()
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := mgr.Delete(info.Name); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := mgr.Delete(info.Name); !errors.Is(err, ErrBackupNotFound) {
		t.Errorf("Delete(missing) error = %v, want ErrBackupNotFound", err)
	}
	if err := mgr.Delete("../app.db"); !errors.Is(err, ErrInvalidName) {
		t.Errorf("Delete(traversal) error = %v, want ErrInvalidName", err)
	}
}
