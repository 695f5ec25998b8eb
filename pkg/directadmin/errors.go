package directadmin

import (
	"errors"
	"fmt"

	"github.com/edvin/directadmin/pkg/directadmin/api"
)

var (
	ErrPrivilege          = errors.New("insufficient privilege")
	ErrUnknownAccountType = errors.New("unknown account type")
	// ErrUnexpectedResponse marks server data that does not have the expected shape.
	ErrUnexpectedResponse = errors.New("unexpected response")
)

// RemoteAPIError is a failure reported by the server.
type RemoteAPIError = api.Error

// PrivilegeError is returned before any request is made when an operation
// needs more privilege than the context or account holds.
type PrivilegeError struct {
	Op   string
	Have Level
	Need Level
}

func (e *PrivilegeError) Error() string {
	if !e.Need.valid() {
		return fmt.Sprintf("%s: not permitted with %s privilege", e.Op, e.Have)
	}
	return fmt.Sprintf("%s: requires %s privilege, have %s", e.Op, e.Need, e.Have)
}

func (e *PrivilegeError) Is(target error) bool {
	return target == ErrPrivilege
}

type UnknownAccountTypeError struct {
	Type string
}

func (e *UnknownAccountTypeError) Error() string {
	return fmt.Sprintf("unknown account type %q", e.Type)
}

func (e *UnknownAccountTypeError) Is(target error) bool {
	return target == ErrUnknownAccountType
}
