package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/kat-co/vala"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/trezcool/sms/core/access"
	"github.com/trezcool/sms/core/user"
)

func init() {
	// modernc.org/sqlite registers itself as "sqlite"
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

const userColumns = `id, first_name, last_name, email, user_type, is_active, password_hash, created_at, updated_at, last_login`

// userRow is the "user" table row.
type userRow struct {
	ID           string      `db:"id"`
	FirstName    string      `db:"first_name"`
	LastName     null.String `db:"last_name"`
	Email        string      `db:"email"`
	UserType     string      `db:"user_type"`
	IsActive     bool        `db:"is_active"`
	PasswordHash []byte      `db:"password_hash"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
	LastLogin    null.Time   `db:"last_login"`
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

// NewUserRepository wraps db, opened with the given driver ("postgres" or "sqlite").
func NewUserRepository(db *sql.DB, driverName string) user.Repository {
	vala.BeginValidation().Validate(
		vala.IsNotNil(db, "db"),
		vala.StringNotEmpty(driverName, "driverName"),
	).CheckAndPanic()

	return &userRepository{db: sqlx.NewDb(db, driverName)}
}

func (repo *userRepository) toRow(usr user.User) userRow {
	return userRow{
		ID:           usr.ID,
		FirstName:    usr.FirstName,
		LastName:     null.NewString(usr.LastName, usr.LastName != ""),
		Email:        usr.Email,
		UserType:     usr.UserType.String(),
		IsActive:     usr.IsActive,
		PasswordHash: usr.PasswordHash,
		CreatedAt:    usr.CreatedAt.UTC(),
		UpdatedAt:    usr.UpdatedAt.UTC(),
		LastLogin:    null.NewTime(usr.LastLogin.UTC(), !usr.LastLogin.IsZero()),
	}
}

func (repo *userRepository) fromRow(row userRow) (user.User, error) {
	role, err := access.ParseRole(row.UserType)
	if err != nil {
		return user.User{}, errors.Wrapf(err, "parsing user_type %q", row.UserType)
	}
	usr := user.User{
		ID:           row.ID,
		FirstName:    row.FirstName,
		LastName:     row.LastName.String,
		Email:        row.Email,
		UserType:     role,
		IsActive:     row.IsActive,
		PasswordHash: row.PasswordHash,
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
	}
	if row.LastLogin.Valid {
		usr.LastLogin = row.LastLogin.Time.UTC()
	}
	return usr, nil
}

// pgUniqueViolation is the postgres unique_violation SQLSTATE.
const pgUniqueViolation = "23505"

// trapUniqueErr maps unique constraint violations (only email is unique besides the PK) to user.ErrEmailExists.
func (repo *userRepository) trapUniqueErr(err error, msg string) error {
	var (
		pgErr     *pq.Error
		sqliteErr *sqlite.Error
	)
	switch {
	case errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation:
		return user.ErrEmailExists
	case errors.As(err, &sqliteErr) &&
		(sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || strings.Contains(sqliteErr.Error(), "UNIQUE constraint failed")):
		return user.ErrEmailExists
	}
	return errors.Wrap(err, msg)
}

// trapNoRowsErr maps "no rows" err to user.ErrNotFound
func (repo *userRepository) trapNoRowsErr(err error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return user.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo *userRepository) EmailExists(ctx context.Context, email string, excludedIDs ...string) (bool, error) {
	query := `SELECT COUNT(*) FROM "user" WHERE email = ?`
	args := []interface{}{email}
	if len(excludedIDs) > 0 {
		q, inArgs, err := sqlx.In(`id NOT IN (?)`, excludedIDs)
		if err != nil {
			return false, errors.Wrap(err, "building exclusion")
		}
		query += " AND " + q
		args = append(args, inArgs...)
	}

	var count int
	if err := repo.db.GetContext(ctx, &count, repo.db.Rebind(query), args...); err != nil {
		return false, errors.Wrap(err, "counting users by email")
	}
	return count > 0, nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = uuid.New().String()
	row := repo.toRow(usr)

	query := `INSERT INTO "user" (` + userColumns + `) VALUES (` + namedParams(userColumns) + `)`
	if _, err := repo.db.NamedExecContext(ctx, query, row); err != nil {
		return user.User{}, repo.trapUniqueErr(err, "inserting user")
	}
	return repo.fromRow(row)
}

func (repo *userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	var (
		query = `SELECT ` + userColumns + ` FROM "user" WHERE `
		arg   string
	)
	switch {
	case filter.ID != "":
		if _, err := uuid.Parse(filter.ID); err != nil {
			return user.User{}, user.ErrNotFound
		}
		query += "id = ?"
		arg = filter.ID
	case filter.Email != "":
		query += "email = ?"
		arg = filter.Email
	default:
		return user.User{}, user.ErrNotFound
	}

	var row userRow
	if err := repo.db.GetContext(ctx, &row, repo.db.Rebind(query), arg); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "finding user")
	}
	return repo.fromRow(row)
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	row := repo.toRow(usr)

	query := `UPDATE "user" SET
		first_name = :first_name,
		last_name = :last_name,
		email = :email,
		user_type = :user_type,
		is_active = :is_active,
		password_hash = :password_hash,
		updated_at = :updated_at,
		last_login = :last_login
	WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, query, row)
	if err != nil {
		return user.User{}, repo.trapUniqueErr(err, "updating user")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return user.User{}, errors.Wrap(err, "counting updated rows")
	}
	if n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return repo.GetUser(ctx, user.GetFilter{ID: usr.ID})
}

// namedParams turns "a, b" into ":a, :b".
func namedParams(columns string) string {
	cols := strings.Split(columns, ",")
	for i, col := range cols {
		cols[i] = ":" + strings.TrimSpace(col)
	}
	return strings.Join(cols, ", ")
}
