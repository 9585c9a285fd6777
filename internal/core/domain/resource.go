package domain

import "strings"

// ResourceCategory identifies the directory object class a catalog query
// targets.
type ResourceCategory string

const (
	CategoryGroup       ResourceCategory = "group"
	CategoryWorkstation ResourceCategory = "computer"
)

// DirectoryResource is a directory object of interest: an access group or a
// workstation. Populated once at the directory boundary with absent
// attributes resolved to empty strings; immutable for the rest of the
// session.
type DirectoryResource struct {
	Name              string
	DisplayName       string
	Description       string
	DistinguishedName string
	Email             string
	Telephone         string
	EmployeeID        string
}

// NormalizeResourceName produces the canonical lower-cased key under which
// resource names are compared or stored as set members. Every name
// comparison in the service goes through this helper.
func NormalizeResourceName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// MembershipSet is the set of resource names the requester currently
// belongs to, keyed by normalized name. Read-only input to reconciliation.
type MembershipSet map[string]struct{}

// NewMembershipSet normalizes and collects the provided names. Empty names
// are discarded so an empty resource key can never match.
func NewMembershipSet(names []string) MembershipSet {
	set := make(MembershipSet, len(names))
	for _, name := range names {
		key := NormalizeResourceName(name)
		if key == "" {
			continue
		}
		set[key] = struct{}{}
	}
	return set
}

// Contains reports whether the normalized form of name is in the set.
func (s MembershipSet) Contains(name string) bool {
	key := NormalizeResourceName(name)
	if key == "" {
		return false
	}
	_, ok := s[key]
	return ok
}
