//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"fmt"
	"os"
	"os/user"
)

// Actor identifies who performed an administrative action.
type Actor struct {
	// Hostname is the machine the action came from.
	Hostname string
	// Username is the operating system user.
	Username string
}

// String implements fmt.Stringer.
func (a Actor) String() string {
	return a.Username + "@" + a.Hostname
}

// DetectActor gathers host and user information for the audit log.
func DetectActor() (Actor, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return Actor{}, fmt.Errorf("hostname: %w", err)
	}

	currentUser, err := user.Current()
	if err != nil {
		return Actor{}, fmt.Errorf("current user: %w", err)
	}

	return Actor{
		Hostname: hostname,
		Username: currentUser.Username,
	}, nil
}
