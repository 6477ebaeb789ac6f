// Package access decides whether a principal may reach a page, based on the principal's role
// and the module the page's handler belongs to.
package access

import (
	"errors"
	"strings"
)

var (
	// ErrInvalidInput is returned by Decide when the principal is missing, its role is not one
	// of the known roles, or the module was never set.
	ErrInvalidInput = errors.New("invalid access input")

	// ErrUnrecognizedModule describes a module tag outside the known set.
	// Decide does not return it: authenticated principals are let through (fail-open).
	ErrUnrecognizedModule = errors.New("unrecognized module")
)

// Role is the kind of user making a request.
type Role int

const (
	Guest Role = iota
	Admin
	Staff
	Student
)

var roleNames = [...]string{
	Guest:   "guest",
	Admin:   "admin",
	Staff:   "staff",
	Student: "student",
}

// Roles lists the roles a user account can hold.
var Roles = []Role{Admin, Staff, Student}

func (r Role) Valid() bool {
	return r >= Guest && r <= Student
}

func (r Role) String() string {
	if !r.Valid() {
		return "unknown"
	}
	return roleNames[r]
}

// ParseRole accepts role names and the legacy user type codes: "1" (HOD/admin), "2" (staff)
// and "3" (student).
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "guest":
		return Guest, nil
	case "admin", "hod", "1":
		return Admin, nil
	case "staff", "2":
		return Staff, nil
	case "student", "3":
		return Student, nil
	}
	return Guest, ErrInvalidInput
}

func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, ErrInvalidInput
	}
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(text []byte) error {
	role, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = role
	return nil
}

// Module classifies a page by the group of handlers implementing it.
type Module int

const (
	moduleUnset Module = iota
	Public
	Unclassified
	AdminModule
	StaffModule
	StudentModule
)

var moduleNames = [...]string{
	moduleUnset:   "unset",
	Public:        "public",
	Unclassified:  "unclassified",
	AdminModule:   "admin",
	StaffModule:   "staff",
	StudentModule: "student",
}

// Recognized reports whether m is one of the known module tags.
func (m Module) Recognized() bool {
	return m > moduleUnset && m <= StudentModule
}

func (m Module) String() string {
	if m == moduleUnset || m.Recognized() {
		return moduleNames[m]
	}
	return "unrecognized"
}

func ParseModule(s string) (Module, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for m := Public; m <= StudentModule; m++ {
		if moduleNames[m] == name {
			return m, nil
		}
	}
	return moduleUnset, ErrUnrecognizedModule
}

// Location is where a redirect sends the principal.
type Location int

const (
	Login Location = iota
	AdminHome
	StaffHome
	StudentHome
)

func (l Location) String() string {
	switch l {
	case Login:
		return "login"
	case AdminHome:
		return "admin_home"
	case StaffHome:
		return "staff_home"
	case StudentHome:
		return "student_home"
	}
	return "unknown"
}

// HomeOf returns the landing location of a role. Guests land on the login page.
func HomeOf(r Role) Location {
	switch r {
	case Admin:
		return AdminHome
	case Staff:
		return StaffHome
	case Student:
		return StudentHome
	default:
		return Login
	}
}

// Principal is the actor of a request.
type Principal struct {
	Email string
	Role  Role
}

// Anonymous returns a Guest principal.
func Anonymous() *Principal {
	return &Principal{Role: Guest}
}

func (p *Principal) Authenticated() bool {
	return p != nil && p.Role != Guest
}

type Effect int

const (
	Allow Effect = iota
	RedirectToOwnHome
)

func (e Effect) String() string {
	if e == RedirectToOwnHome {
		return "redirect"
	}
	return "allow"
}

// Decision is the outcome of Decide. Target is set only when Effect is RedirectToOwnHome.
type Decision struct {
	Effect Effect
	Target Location
}

func (d Decision) Allowed() bool {
	return d.Effect == Allow
}

func allow() Decision {
	return Decision{Effect: Allow}
}

func redirect(to Location) Decision {
	return Decision{Effect: RedirectToOwnHome, Target: to}
}

// Decide returns whether principal may reach a page of the given module.
//
// Guests only reach Public pages. Otherwise a role is only kept out of the view modules of
// the other roles: admins out of student views, staff out of admin and student views,
// students out of admin and staff views. Dashboards are Unclassified, so every role can open
// every dashboard. Unrecognized modules are allowed for authenticated principals.
func Decide(principal *Principal, module Module) (Decision, error) {
	if principal == nil || module == moduleUnset {
		return Decision{}, ErrInvalidInput
	}

	switch principal.Role {
	case Guest:
		if module == Public {
			return allow(), nil
		}
		return redirect(Login), nil
	case Admin:
		if module == StudentModule {
			return redirect(AdminHome), nil
		}
		return allow(), nil
	case Staff:
		if module == AdminModule || module == StudentModule {
			return redirect(StaffHome), nil
		}
		return allow(), nil
	case Student:
		if module == AdminModule || module == StaffModule {
			return redirect(StudentHome), nil
		}
		return allow(), nil
	default:
		return Decision{}, ErrInvalidInput
	}
}
