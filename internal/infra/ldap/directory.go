package ldap

import (
	"context"
	"fmt"
	"time"

	ldapv3 "github.com/go-ldap/ldap/v3"
	"go.uber.org/zap"

	"github.com/practiceaogoznak-del/C-ADDevProgramm/internal/core/domain"
	"github.com/practiceaogoznak-del/C-ADDevProgramm/internal/core/port"
	"github.com/practiceaogoznak-del/C-ADDevProgramm/internal/infra/config"
)

// resourceAttributes is the attribute set loaded for every catalog entry.
// Absent attributes are resolved to empty strings at this boundary; nothing
// downstream deals with maybe-missing properties.
var resourceAttributes = []string{
	"cn",
	"name",
	"description",
	"displayName",
	"mail",
	"telephoneNumber",
	"employeeID",
	"distinguishedName",
	"managedBy",
}

const defaultSizeLimit = 500

// Directory implements port.Directory against an LDAP directory (Active
// Directory in the original deployment). Connections are dialed per call;
// query volume here is a handful of searches per session.
type Directory struct {
	cfg    config.LDAPSettings
	logger *zap.Logger
}

// NewDirectory constructs the LDAP-backed directory collaborator.
func NewDirectory(cfg config.LDAPSettings, logger *zap.Logger) *Directory {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.FilterAttribute == "" {
		cfg.FilterAttribute = "objectCategory"
	}
	if cfg.SizeLimit <= 0 {
		cfg.SizeLimit = defaultSizeLimit
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	return &Directory{cfg: cfg, logger: logger}
}

func (d *Directory) connect(ctx context.Context) (*ldapv3.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	conn, err := ldapv3.DialURL(d.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial ldap: %w", err)
	}

	timeout := d.cfg.RequestTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining > 0 && remaining < timeout {
			timeout = remaining
		}
	}
	conn.SetTimeout(timeout)

	if d.cfg.BindDN != "" {
		if err := conn.Bind(d.cfg.BindDN, d.cfg.BindPassword); err != nil {
			conn.Close()
			return nil, fmt.Errorf("bind ldap: %w", err)
		}
	}

	return conn, nil
}

func (d *Directory) search(ctx context.Context, filter string, attributes []string) ([]*ldapv3.Entry, error) {
	conn, err := d.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	request := ldapv3.NewSearchRequest(
		d.cfg.BaseDN,
		ldapv3.ScopeWholeSubtree,
		ldapv3.NeverDerefAliases,
		d.cfg.SizeLimit,
		int(d.cfg.RequestTimeout.Seconds()),
		false,
		filter,
		attributes,
		nil,
	)

	result, err := conn.SearchWithPaging(request, uint32(d.cfg.SizeLimit))
	if err != nil {
		return nil, fmt.Errorf("ldap search %s: %w", filter, err)
	}

	return result.Entries, nil
}

// ResourcesByCategory lists directory objects of the given category. The
// filter attribute (objectCategory vs objectClass) is deployment
// configuration; both occur in the wild for the same query.
func (d *Directory) ResourcesByCategory(ctx context.Context, category domain.ResourceCategory) ([]domain.DirectoryResource, error) {
	filter := fmt.Sprintf("(%s=%s)", d.cfg.FilterAttribute, ldapv3.EscapeFilter(string(category)))

	entries, err := d.search(ctx, filter, resourceAttributes)
	if err != nil {
		return nil, fmt.Errorf("list %s resources: %w", category, err)
	}

	resources := make([]domain.DirectoryResource, 0, len(entries))
	for _, entry := range entries {
		resources = append(resources, domain.DirectoryResource{
			Name:              entry.GetAttributeValue("name"),
			DisplayName:       entry.GetAttributeValue("displayName"),
			Description:       entry.GetAttributeValue("description"),
			DistinguishedName: entry.GetAttributeValue("distinguishedName"),
			Email:             entry.GetAttributeValue("mail"),
			Telephone:         entry.GetAttributeValue("telephoneNumber"),
			EmployeeID:        entry.GetAttributeValue("employeeID"),
		})
	}

	return resources, nil
}

// GroupsForUser returns the names of the groups the account belongs to,
// read from the account's memberOf references.
func (d *Directory) GroupsForUser(ctx context.Context, account string) ([]string, error) {
	filter := fmt.Sprintf("(&(objectClass=user)(sAMAccountName=%s))", ldapv3.EscapeFilter(account))

	entries, err := d.search(ctx, filter, []string{"memberOf"})
	if err != nil {
		return nil, fmt.Errorf("groups for %s: %w", account, err)
	}
	if len(entries) == 0 {
		return nil, nil
	}

	references := entries[0].GetAttributeValues("memberOf")
	groups := make([]string, 0, len(references))
	for _, dn := range references {
		if name := firstRDNValue(dn); name != "" {
			groups = append(groups, name)
		}
	}

	return groups, nil
}

// OwnerEmail dereferences the resource's managedBy relation to the owning
// identity's mail attribute. Every failure mode maps to (_, false, err);
// the caller treats the owner as absent.
func (d *Directory) OwnerEmail(ctx context.Context, resourceName string) (string, bool, error) {
	filter := fmt.Sprintf("(name=%s)", ldapv3.EscapeFilter(resourceName))

	entries, err := d.search(ctx, filter, []string{"managedBy"})
	if err != nil {
		return "", false, fmt.Errorf("resource %s: %w", resourceName, err)
	}
	if len(entries) == 0 {
		return "", false, nil
	}

	ownerDN := entries[0].GetAttributeValue("managedBy")
	if ownerDN == "" {
		return "", false, nil
	}

	email, err := d.mailForDN(ctx, ownerDN)
	if err != nil {
		return "", false, fmt.Errorf("owner of %s: %w", resourceName, err)
	}
	if email == "" {
		return "", false, nil
	}

	return email, true, nil
}

func (d *Directory) mailForDN(ctx context.Context, dn string) (string, error) {
	conn, err := d.connect(ctx)
	if err != nil {
		return "", err
	}
	defer conn.Close()

	request := ldapv3.NewSearchRequest(
		dn,
		ldapv3.ScopeBaseObject,
		ldapv3.NeverDerefAliases,
		1,
		int(d.cfg.RequestTimeout.Seconds()),
		false,
		"(objectClass=*)",
		[]string{"mail"},
		nil,
	)

	result, err := conn.Search(request)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", dn, err)
	}
	if len(result.Entries) == 0 {
		return "", nil
	}

	return result.Entries[0].GetAttributeValue("mail"), nil
}

// UserProfile resolves the applicant attributes for an account.
func (d *Directory) UserProfile(ctx context.Context, account string) (*domain.Applicant, error) {
	filter := fmt.Sprintf("(&(objectClass=user)(sAMAccountName=%s))", ldapv3.EscapeFilter(account))

	entries, err := d.search(ctx, filter, []string{
		"displayName",
		"description",
		"telephoneNumber",
		"employeeID",
		"sAMAccountName",
	})
	if err != nil {
		return nil, fmt.Errorf("profile for %s: %w", account, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("account %s not found", account)
	}

	entry := entries[0]
	applicant := &domain.Applicant{
		FullName:  entry.GetAttributeValue("displayName"),
		Position:  entry.GetAttributeValue("description"),
		Phone:     entry.GetAttributeValue("telephoneNumber"),
		TabNumber: entry.GetAttributeValue("employeeID"),
		Account:   entry.GetAttributeValue("sAMAccountName"),
	}
	if applicant.FullName == "" {
		applicant.FullName = account
	}
	if applicant.Account == "" {
		applicant.Account = account
	}

	return applicant, nil
}

// Reachable probes directory connectivity with a dial and bind.
func (d *Directory) Reachable(ctx context.Context) bool {
	conn, err := d.connect(ctx)
	if err != nil {
		d.logger.Warn("ldap unreachable", zap.Error(err))
		return false
	}
	conn.Close()
	return true
}

// firstRDNValue extracts the leading RDN value of a distinguished name,
// e.g. "CN=Finance,OU=Groups,DC=corp" -> "Finance".
func firstRDNValue(dn string) string {
	parsed, err := ldapv3.ParseDN(dn)
	if err != nil || len(parsed.RDNs) == 0 || len(parsed.RDNs[0].Attributes) == 0 {
		return ""
	}
	return parsed.RDNs[0].Attributes[0].Value
}

var _ port.Directory = (*Directory)(nil)
