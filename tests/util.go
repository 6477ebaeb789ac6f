package testutil

import (
	"context"
	"database/sql"
	"io"
	"log"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/sms/core"
	"github.com/trezcool/sms/core/access"
	"github.com/trezcool/sms/core/user"
	logsvc "github.com/trezcool/sms/services/logger"
	"github.com/trezcool/sms/storage/database"
)

// PrepareDB opens a migrated in-memory SQLite database, closed at the end of the test.
func PrepareDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = database.Migrate(db, database.EngineSQLite); err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	return db
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	firstName, lastName, email, pwd string,
	userType access.Role,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()

	tstamp := time.Now().UTC().Truncate(time.Microsecond)
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
		UserType:  userType,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	} else {
		usr.PasswordHash = []byte("!") // unusable
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

// NewLogger returns a logger that discards everything and never reports to Rollbar.
func NewLogger() core.Logger {
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), &core.Config{Env: "TEST"})
	logger.Enable(false)
	return logger
}

// NewValidator returns a validator with the global and user validators registered, and its translator.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate, translator := core.NewValidator()
	user.InitValidators(validate, translator)
	return validate, translator
}
