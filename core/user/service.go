package user

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/sms/core"
	"github.com/trezcool/sms/core/access"
)

var (
	// errors
	ErrNotFound             = errors.New("user not found")
	ErrEmailExists          = errors.New("a user with this email already exists")
	ErrAuthenticationFailed = errors.New("Invalid Login Details")
	ErrAccountDeactivated   = errors.New("account deactivated")
)

var nowFunc = time.Now // mockable

type (
	Repository interface {
		// EmailExists reports whether a User other than the excluded ones has the given email.
		EmailExists(ctx context.Context, email string, excludedIDs ...string) (bool, error)
		// CreateUser returns ErrEmailExists when the email is taken.
		CreateUser(ctx context.Context, usr User) (User, error)
		// GetUser returns ErrNotFound when no User matches the filter.
		GetUser(ctx context.Context, filter GetFilter) (User, error)
		// UpdateUser saves every field of usr but ID and CreatedAt.
		UpdateUser(ctx context.Context, usr User) (User, error)
	}

	Service interface {
		Authenticate(ctx context.Context, email, pwd string) (User, error)
		Create(ctx context.Context, nu NewUser) (User, error)
		GetByID(ctx context.Context, id string) (User, error)
		GetByEmail(ctx context.Context, email string) (User, error)
		EmailAvailable(ctx context.Context, email string) (bool, error)
		ResetPassword(ctx context.Context, pr PasswordReset) error
		EnsureSuperuser(ctx context.Context, email, pwd string) (usr User, created bool, err error)
	}

	service struct {
		repo     Repository
		validate *validator.Validate
		logger   core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, validate *validator.Validate, logger core.Logger) Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(validate, "validate"),
		vala.IsNotNil(logger, "logger"),
	).CheckAndPanic()

	return &service{repo: repo, validate: validate, logger: logger}
}

func (svc *service) checkUniqueness(ctx context.Context, email string, excludedIDs ...string) error {
	exists, err := svc.repo.EmailExists(ctx, email, excludedIDs...)
	if err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	}
	if exists {
		return emailExistsError()
	}
	return nil
}

func emailExistsError() error {
	return core.NewValidationError(ErrEmailExists, core.FieldError{Field: "email", Error: ErrEmailExists.Error()})
}

func (svc *service) Authenticate(ctx context.Context, email, pwd string) (User, error) {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return User{}, ErrAuthenticationFailed
		}
		return User{}, errors.Wrap(err, "finding user by email")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return User{}, ErrAuthenticationFailed
	}
	if !usr.IsActive {
		return User{}, ErrAccountDeactivated
	}

	usr.LastLogin = nowFunc().UTC()
	usr, err = svc.repo.UpdateUser(ctx, usr)
	if err != nil {
		return User{}, errors.Wrap(err, "setting lastLogin")
	}
	return usr, nil
}

func (svc *service) Create(ctx context.Context, nu NewUser) (User, error) {
	if err := nu.Validate(svc.validate); err != nil {
		return User{}, err
	}
	if err := svc.checkUniqueness(ctx, nu.Email); err != nil {
		return User{}, err
	}

	now := nowFunc().UTC()
	usr := User{
		FirstName: nu.FirstName,
		LastName:  nu.LastName,
		Email:     nu.Email,
		UserType:  nu.UserType,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}

	usr, err := svc.repo.CreateUser(ctx, usr)
	if err != nil {
		// lost a race against another create
		if errors.Cause(err) == ErrEmailExists {
			return User{}, emailExistsError()
		}
		return User{}, errors.Wrap(err, "creating user")
	}
	svc.logger.Info("user created", map[string]interface{}{"email": usr.Email, "user_type": usr.UserType.String()})
	return usr, nil
}

func (svc *service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{ID: core.CleanString(id)})
}

func (svc *service) GetByEmail(ctx context.Context, email string) (User, error) {
	email = core.CleanString(email, true /* lower */)
	if email == "" {
		return User{}, ErrNotFound
	}
	return svc.repo.GetUser(ctx, GetFilter{Email: email})
}

func (svc *service) EmailAvailable(ctx context.Context, email string) (bool, error) {
	email = core.CleanString(email, true /* lower */)
	if email == "" {
		return false, nil
	}
	exists, err := svc.repo.EmailExists(ctx, email)
	if err != nil {
		return false, errors.Wrap(err, "checking email availability")
	}
	return !exists, nil
}

func (svc *service) ResetPassword(ctx context.Context, pr PasswordReset) error {
	if err := pr.Validate(svc.validate); err != nil {
		return err
	}
	usr, err := svc.GetByEmail(ctx, pr.Email)
	if err != nil {
		return err
	}
	if err = usr.SetPassword(pr.Password); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	usr.UpdatedAt = nowFunc().UTC()
	if _, err = svc.repo.UpdateUser(ctx, usr); err != nil {
		return errors.Wrap(err, "updating user")
	}
	return nil
}

// EnsureSuperuser creates an active Admin with the given credentials, or updates the existing
// User with this email into one. The password policy is not applied.
func (svc *service) EnsureSuperuser(ctx context.Context, email, pwd string) (User, bool, error) {
	email = core.CleanString(email, true /* lower */)
	if email == "" || pwd == "" {
		return User{}, false, core.NewValidationError(errors.New("email and password are required"))
	}

	now := nowFunc().UTC()
	usr, err := svc.GetByEmail(ctx, email)
	created := errors.Cause(err) == ErrNotFound
	if err != nil && !created {
		return User{}, false, errors.Wrap(err, "finding user by email")
	}
	if created {
		usr = User{Email: email, FirstName: "Admin", CreatedAt: now}
	}

	usr.UserType = access.Admin
	usr.IsActive = true
	usr.UpdatedAt = now
	if err = usr.SetPassword(pwd); err != nil {
		return User{}, false, errors.Wrap(err, "hashing password")
	}

	if created {
		usr, err = svc.repo.CreateUser(ctx, usr)
	} else {
		usr, err = svc.repo.UpdateUser(ctx, usr)
	}
	if err != nil {
		return User{}, false, errors.Wrap(err, "saving superuser")
	}
	return usr, created, nil
}
