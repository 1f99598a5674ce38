package internal

import (
	"blogapi/internal/service"
	"blogapi/internal/storage"
	"blogapi/pkg/security"

	"gorm.io/gorm"
)

// Deps carries every dependency the handlers need. Built once at startup and
// passed in explicitly, nothing hangs off package globals.
type Deps struct {
	DB      *gorm.DB
	Argon   *security.ArgonHash
	Reset   *service.PasswordReset
	Storage storage.Storage
}
