// Package interfaces holds compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...
package interfaces

import (
	"github.com/SmoothCdoer9981/bookclub/internal/database/books"
	"github.com/SmoothCdoer9981/bookclub/internal/database/progress"
	"github.com/SmoothCdoer9981/bookclub/internal/database/reviews"
	"github.com/SmoothCdoer9981/bookclub/internal/http"
	"github.com/SmoothCdoer9981/bookclub/internal/mail"
	"github.com/SmoothCdoer9981/bookclub/internal/uploads"
)

// Data access layer

var _ http.CatalogStore = (*books.Repository)(nil)
var _ http.ReviewStore = (*reviews.Repository)(nil)
var _ http.ProgressStore = (*progress.Repository)(nil)

// File storage

var _ http.CoverStore = (*uploads.Store)(nil)

// Mail delivery

var _ mail.Sender = (*mail.NoopSender)(nil)
