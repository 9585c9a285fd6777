package port

// LocalIdentity supplies the local user and machine names used as fallback
// applicant and workstation identity when the directory is unreachable.
type LocalIdentity interface {
	Username() string
	Hostname() string
}
