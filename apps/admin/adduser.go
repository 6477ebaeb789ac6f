package main

import (
	"context"
	"fmt"

	"github.com/trezcool/sms/core"
	"github.com/trezcool/sms/core/access"
	"github.com/trezcool/sms/core/user"
)

// addUser creates a user.User, applying the same validation as any other account creation.
func (cli *commandLine) addUser(email, userType, firstName, lastName, pwd, confirm string) error {
	role, err := access.ParseRole(userType)
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "user_type", Error: fmt.Sprintf("unknown user type %q", userType)})
	}

	usr, err := cli.usrSvc.Create(context.Background(), user.NewUser{
		FirstName:       firstName,
		LastName:        lastName,
		Email:           email,
		UserType:        role,
		Password:        pwd,
		PasswordConfirm: confirm,
	})
	if err != nil {
		return cli.readableError(err)
	}
	fmt.Printf("%s %s (%s) created.\n", usr.UserType, usr.Email, usr.ID)
	return nil
}

// addSuperuser creates the superuser, or resets the account holding its email into one.
func (cli *commandLine) addSuperuser(email, pwd string) error {
	usr, created, err := cli.usrSvc.EnsureSuperuser(context.Background(), email, pwd)
	if err != nil {
		return cli.readableError(err)
	}
	if created {
		fmt.Printf("Superuser %s created.\n", usr.Email)
	} else {
		fmt.Printf("Superuser %s updated.\n", usr.Email)
	}
	return nil
}
