package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SmoothCdoer9981/bookclub/internal/backup"
)

// BackupController manages database snapshots. All routes require the head
// tier.
type BackupController struct {
	manager *backup.Manager
}

func NewBackupController(manager *backup.Manager) *BackupController {
	return &BackupController{manager: manager}
}

// CreateBackup takes an immediate snapshot of the database.
func (controller *BackupController) CreateBackup(c *gin.Context) {
	info, err := controller.manager.Create()
	if err != nil {
		respondInternalError(c, err, "create backup")
		return
	}
	respondCreated(c, info)
}

// ListBackups returns all stored snapshots, newest first.
func (controller *BackupController) ListBackups(c *gin.Context) {
	backups, err := controller.manager.List()
	if err != nil {
		respondInternalError(c, err, "list backups")
		return
	}
	c.JSON(http.StatusOK, gin.H{"backups": backups, "count": len(backups)})
}

// DownloadBackup streams a stored snapshot to the client.
func (controller *BackupController) DownloadBackup(c *gin.Context) {
	name := c.Param("name")
	path, err := controller.manager.Path(name)
	if err != nil {
		controller.respondBackupError(c, err, "download backup")
		return
	}
	c.FileAttachment(path, name)
}

// DeleteBackup removes a stored snapshot.
func (controller *BackupController) DeleteBackup(c *gin.Context) {
	if err := controller.manager.Delete(c.Param("name")); err != nil {
		controller.respondBackupError(c, err, "delete backup")
		return
	}
	respondSuccess(c, "backup deleted")
}

// RestoreBackup replaces the live database with a stored snapshot. The
// process must be restarted afterwards to pick up the restored file.
func (controller *BackupController) RestoreBackup(c *gin.Context) {
	if err := controller.manager.RestoreFromBackup(c.Param("name")); err != nil {
		controller.respondBackupError(c, err, "restore backup")
		return
	}
	respondSuccess(c, "database restored, restart the server to load it")
}

// RestoreUpload replaces the live database with an uploaded snapshot from
// the "database" form file.
func (controller *BackupController) RestoreUpload(c *gin.Context) {
	header, err := c.FormFile("database")
	if err != nil {
		respondBadRequest(c, "database file is required")
		return
	}

	file, err := header.Open()
	if err != nil {
		respondInternalError(c, err, "open uploaded database")
		return
	}
	defer file.Close()

	if err := controller.manager.RestoreFromUpload(file); err != nil {
		controller.respondBackupError(c, err, "restore uploaded database")
		return
	}
	respondSuccess(c, "database restored, restart the server to load it")
}

func (controller *BackupController) respondBackupError(c *gin.Context, err error, context string) {
	switch {
	case errors.Is(err, backup.ErrBackupNotFound):
		respondNotFound(c, "backup")
	case errors.Is(err, backup.ErrInvalidName):
		respondBadRequest(c, err.Error())
	case errors.Is(err, backup.ErrNotSQLite):
		respondBadRequest(c, err.Error())
	case errors.Is(err, backup.ErrUploadTooLarge):
		respondError(c, http.StatusRequestEntityTooLarge, err.Error())
	default:
		respondInternalError(c, err, context)
	}
}
