package main

import (
	"database/sql"
	"flag"
	"fmt"
	"sort"
	"strings"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/trezcool/sms/core"
	"github.com/trezcool/sms/core/user"
	"github.com/trezcool/sms/storage/database"
)

var (
	readPasswordFunc = term.ReadPassword // mockable
	dbRunFunc        = database.Run      // mockable

	errHelp             = errors.New("help provided")
	errPasswordMismatch = errors.New("passwords do not match")
)

type commandLine struct {
	db         *sql.DB
	engine     string
	conf       *core.Config
	usrSvc     user.Service
	translator ut.Translator
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  adduser -email EMAIL -type admin|staff|student -first FIRST_NAME [-last LAST_NAME] - create a user")
	fmt.Println("  addsuperuser [-email EMAIL] - create or update the superuser (password from config)")
	fmt.Println("  resetpassword -email EMAIL - reset user's password")
	fmt.Println("  migrate COMMAND [ARGS] - run a migration command (up, down, status, version, redo, ...)")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserEmail := addUserCmd.String("email", "", "The user's email. The password will be prompted next.")
	addUserType := addUserCmd.String("type", "", "The user type: admin, staff or student.")
	addUserFirst := addUserCmd.String("first", "", "The user's first name.")
	addUserLast := addUserCmd.String("last", "", "The user's last name.")

	addSuperuserCmd := flag.NewFlagSet("addsuperuser", flag.ContinueOnError)
	addSuperuserEmail := addSuperuserCmd.String("email", cli.conf.Superuser.Email, "The superuser's email.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordEmail := resetPasswordCmd.String("email", "", "The user's email. The password will be prompted next.")

	switch args[1] {
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *addUserEmail == "" || *addUserType == "" || *addUserFirst == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, confirm, err := promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(*addUserEmail, *addUserType, *addUserFirst, *addUserLast, pwd, confirm)
	case "addsuperuser":
		if err := addSuperuserCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		return cli.addSuperuser(*addSuperuserEmail, cli.conf.Superuser.Password)
	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *resetPasswordEmail == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, confirm, err := promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordEmail, pwd, confirm)
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	default:
		cli.printUsage()
		return errHelp
	}
}

// promptPassword reads a password and its confirmation from the terminal.
func promptPassword() (string, string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", "", err
	}
	if len(pwd) == 0 {
		return "", "", nil
	}

	fmt.Print("Confirm password:")
	confirm, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", "", err
	}
	return string(pwd), string(confirm), nil
}

// readableError flattens validation errors into a single line, sorted by field.
func (cli *commandLine) readableError(err error) error {
	var fldErrs map[string]string
	switch origErr := errors.Cause(err).(type) {
	case validator.ValidationErrors:
		fldErrs = core.TranslateErrors(origErr, cli.translator)
	case *core.ValidationError:
		fldErrs = origErr.FieldMap()
	}
	if len(fldErrs) == 0 {
		return err
	}

	msgs := make([]string, 0, len(fldErrs))
	for fld, msg := range fldErrs {
		msgs = append(msgs, fld+": "+msg)
	}
	sort.Strings(msgs)
	return errors.New(strings.Join(msgs, "; "))
}
