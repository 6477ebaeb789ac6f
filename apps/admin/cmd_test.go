package main

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/sms/core"
	"github.com/trezcool/sms/core/access"
	"github.com/trezcool/sms/core/user"
	"github.com/trezcool/sms/storage/database"
	sqlxrepos "github.com/trezcool/sms/storage/database/sqlx"
	testutil "github.com/trezcool/sms/tests"
)

const strongPwd = "Xy7#kQ2!zR"

var usrRepo user.Repository

func setup(t *testing.T) *commandLine {
	// set up DB & repos
	db := testutil.PrepareDB(t)
	usrRepo = sqlxrepos.NewUserRepository(db, database.EngineSQLite)
	validate, translator := testutil.NewValidator()

	// start CLI
	return &commandLine{
		db:     db,
		engine: database.EngineSQLite,
		conf: &core.Config{
			Superuser: core.SuperuserConfig{Email: "ijtaba@ijtaba.com", Password: "ijtaba"},
		},
		usrSvc:     user.NewService(usrRepo, validate, testutil.NewLogger()),
		translator: translator,
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

type pwdInput struct {
	pwd, confirm string
}

// mockPasswords makes the password prompts answer pwd, then confirm.
func mockPasswords(in interface{}) {
	var answers []string
	if input, ok := in.(pwdInput); ok && input.pwd != "" {
		answers = []string{input.pwd, input.confirm}
	}
	readPasswordFunc = func(fd int) ([]byte, error) {
		if len(answers) == 0 {
			return nil, nil
		}
		answer := answers[0]
		answers = answers[1:]
		return []byte(answer), nil
	}
}

func checkErr(t *testing.T, tt cliTest, err error) {
	t.Helper()
	switch {
	case tt.wantErr != nil:
		assert.Equal(t, tt.wantErr, err)
	case tt.wantErrStr != "":
		if assert.Error(t, err) {
			assert.Equal(t, tt.wantErrStr, err.Error())
		}
	default:
		assert.NoError(t, err)
	}
}

func Test_commandLine_usage(t *testing.T) {
	cli := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "unknown flag", args: []string{"adduser", "-lol"}, wantErr: errHelp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkErr(t, tt, cli.run(append([]string{"admin"}, tt.args...)))
		})
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	dbRunFunc = func(command string, db *sql.DB, engine string, args ...string) error {
		if engine != database.EngineSQLite {
			return fmt.Errorf("unexpected engine %q", engine)
		}
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}
	defer func() { dbRunFunc = database.Run }()

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "create", args: []string{"migrate", "create", "course", "sql"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkErr(t, tt, cli.run(append([]string{"admin"}, tt.args...)))
		})
	}
}

func Test_commandLine_migrate_real(t *testing.T) {
	cli := setup(t) // already migrated

	require.NoError(t, cli.run([]string{"admin", "migrate", "version"}))
	require.NoError(t, cli.run([]string{"admin", "migrate", "down"}))
	_, err := usrRepo.EmailExists(context.Background(), "x@test.cd")
	assert.Error(t, err, "user table should be dropped")
	require.NoError(t, cli.run([]string{"admin", "migrate", "up"}))
	_, err = usrRepo.EmailExists(context.Background(), "x@test.cd")
	assert.NoError(t, err)
}

func Test_commandLine_addUser(t *testing.T) {
	cli := setup(t)
	testutil.CreateUser(t, usrRepo, "Bill", "", "bill@ms.com", "123", access.Staff, true)

	ok := pwdInput{pwd: strongPwd, confirm: strongPwd}
	tests := []cliTest{
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "missing type", args: []string{"adduser", "-email", "ali@nu.edu.pk", "-first", "Ali"}, extra: ok, wantErr: errHelp},
		{name: "no password", args: []string{"adduser", "-email", "ali@nu.edu.pk", "-type", "student", "-first", "Ali"}, wantErr: errHelp},
		{
			name: "unknown type", args: []string{"adduser", "-email", "ali@nu.edu.pk", "-type", "janitor", "-first", "Ali"},
			extra: ok, wantErrStr: `user_type: unknown user type "janitor"`,
		},
		{
			name: "mismatch", args: []string{"adduser", "-email", "ali@nu.edu.pk", "-type", "student", "-first", "Ali"},
			extra: pwdInput{pwd: strongPwd, confirm: "lol"}, wantErrStr: "password_confirm: password_confirm must be equal to Password",
		},
		{
			name: "duplicate", args: []string{"adduser", "-email", "BILL@ms.com", "-type", "staff", "-first", "Bill"},
			extra: ok, wantErrStr: "email: " + user.ErrEmailExists.Error(),
		},
		{name: "student", args: []string{"adduser", "-email", "ali@nu.edu.pk", "-type", "student", "-first", "Ali", "-last", "Raza"}, extra: ok},
		{name: "hod (legacy code)", args: []string{"adduser", "-email", "hod@nu.edu.pk", "-type", "1", "-first", "Head"}, extra: ok},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockPasswords(tt.extra)
			checkErr(t, tt, cli.run(append([]string{"admin"}, tt.args...)))
		})
	}

	usr, err := usrRepo.GetUser(context.Background(), user.GetFilter{Email: "ali@nu.edu.pk"})
	require.NoError(t, err)
	assert.Equal(t, access.Student, usr.UserType)
	assert.Equal(t, "Raza", usr.LastName)
	assert.NoError(t, usr.CheckPassword(strongPwd))

	usr, err = usrRepo.GetUser(context.Background(), user.GetFilter{Email: "hod@nu.edu.pk"})
	require.NoError(t, err)
	assert.Equal(t, access.Admin, usr.UserType)
}

func Test_commandLine_addSuperuser(t *testing.T) {
	cli := setup(t)
	ctx := context.Background()

	require.NoError(t, cli.run([]string{"admin", "addsuperuser"}))
	usr, err := usrRepo.GetUser(ctx, user.GetFilter{Email: "ijtaba@ijtaba.com"})
	require.NoError(t, err)
	assert.Equal(t, access.Admin, usr.UserType)
	assert.True(t, usr.IsActive)
	assert.NoError(t, usr.CheckPassword("ijtaba"))

	// running it again keeps a single account
	require.NoError(t, cli.run([]string{"admin", "addsuperuser"}))
	again, err := usrRepo.GetUser(ctx, user.GetFilter{Email: "ijtaba@ijtaba.com"})
	require.NoError(t, err)
	assert.Equal(t, usr.ID, again.ID)

	// an existing account is promoted
	staff := testutil.CreateUser(t, usrRepo, "Bill", "", "bill@ms.com", "123", access.Staff, false)
	require.NoError(t, cli.run([]string{"admin", "addsuperuser", "-email", "bill@ms.com"}))
	promoted, err := usrRepo.GetUser(ctx, user.GetFilter{ID: staff.ID})
	require.NoError(t, err)
	assert.Equal(t, access.Admin, promoted.UserType)
	assert.True(t, promoted.IsActive)
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)

	usr := testutil.CreateUser(t, usrRepo, "User", "Awe", "awe@test.cd", "mdr", access.Student, true)

	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "email but no password", args: []string{"resetpassword", "-email", "lol@test.cd"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-email", "lol@test.cd"}, extra: pwdInput{pwd: strongPwd, confirm: strongPwd}, wantErr: user.ErrNotFound},
		{name: "weak password", args: []string{"resetpassword", "-email", usr.Email}, extra: pwdInput{pwd: "lol", confirm: "lol"}, wantErrStr: "password: " + "password must contain at least 8 characters"},
		{name: "reset", args: []string{"resetpassword", "-email", " AWE@test.cd"}, extra: pwdInput{pwd: strongPwd, confirm: strongPwd}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockPasswords(tt.extra)
			checkErr(t, tt, cli.run(append([]string{"admin"}, tt.args...)))
		})
	}

	refreshed, err := usrRepo.GetUser(context.Background(), user.GetFilter{ID: usr.ID})
	require.NoError(t, err)
	assert.NoError(t, refreshed.CheckPassword(strongPwd))
}
