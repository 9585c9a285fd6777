package localos

import (
	"os"
	"os/user"
	"strings"

	"github.com/practiceaogoznak-del/C-ADDevProgramm/internal/core/port"
)

// Identity supplies the local process identity used as fallback when the
// directory is unreachable and as the development-mode requester identity.
type Identity struct{}

// NewIdentity constructs the local identity collaborator.
func NewIdentity() *Identity {
	return &Identity{}
}

// Username returns the local account name without a domain qualifier.
func (Identity) Username() string {
	current, err := user.Current()
	if err != nil {
		return os.Getenv("USER")
	}

	name := current.Username
	// Windows-style DOMAIN\user qualifiers are stripped to the bare account.
	if idx := strings.LastIndex(name, `\`); idx >= 0 {
		name = name[idx+1:]
	}
	return name
}

// Hostname returns the local machine name.
func (Identity) Hostname() string {
	hostname, err := os.Hostname()
	if err != nil {
		return ""
	}
	return hostname
}

var _ port.LocalIdentity = (*Identity)(nil)
