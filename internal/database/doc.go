// Package database owns the SQLite connection and schema migration.
//
// Domain-specific data access lives in sub-packages:
//
//   - books:    catalog of books and their ordered chapters
//   - reviews:  reader review submissions and moderation
//   - progress: per-(user, book) reading position
//
// Each sub-package exposes a Repository constructed from the shared *gorm.DB.
package database
