package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/practiceaogoznak-del/C-ADDevProgramm/internal/core/domain"
	"github.com/practiceaogoznak-del/C-ADDevProgramm/internal/core/port"
)

// ErrDirectoryUnavailable indicates the directory could not serve a catalog
// query. Callers degrade to empty data and the local fallback identity.
var ErrDirectoryUnavailable = errors.New("directory unavailable")

// Session is the per-requester snapshot of directory state. Loaded once and
// read-only afterwards; only request lines derived from it carry mutable
// user intent.
type Session struct {
	Applicant        domain.Applicant
	Resources        []domain.DirectoryResource
	Workstations     []domain.DirectoryResource
	Memberships      domain.MembershipSet
	LocalWorkstation *domain.DirectoryResource
	Degraded         bool
	LoadedAt         time.Time
}

// Lines reconciles the session catalog against the session memberships.
func (s *Session) Lines() []domain.RequestLine {
	return Reconcile(s.Resources, s.Memberships)
}

// CatalogService loads and caches directory sessions. One snapshot is kept
// per account until explicitly refreshed.
type CatalogService struct {
	directory port.Directory
	local     port.LocalIdentity
	logger    *zap.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewCatalogService constructs a CatalogService.
func NewCatalogService(directory port.Directory, local port.LocalIdentity) *CatalogService {
	return &CatalogService{
		directory: directory,
		local:     local,
		logger:    zap.NewNop(),
		sessions:  make(map[string]*Session),
	}
}

// WithLogger attaches a structured logger.
func (s *CatalogService) WithLogger(logger *zap.Logger) *CatalogService {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// Session returns the cached snapshot for the account, loading it on first
// use. A degraded load (directory unreachable) still yields a usable
// session with empty catalog data and the local fallback applicant.
func (s *CatalogService) Session(ctx context.Context, account string) (*Session, error) {
	account = strings.TrimSpace(account)
	if account == "" && s.local != nil {
		account = s.local.Username()
	}

	s.mu.Lock()
	if session, ok := s.sessions[account]; ok {
		s.mu.Unlock()
		return session, nil
	}
	s.mu.Unlock()

	session := s.load(ctx, account)

	s.mu.Lock()
	s.sessions[account] = session
	s.mu.Unlock()

	return session, nil
}

// Refresh discards the cached snapshot for the account and loads a new one.
func (s *CatalogService) Refresh(ctx context.Context, account string) (*Session, error) {
	s.mu.Lock()
	delete(s.sessions, strings.TrimSpace(account))
	s.mu.Unlock()

	return s.Session(ctx, account)
}

func (s *CatalogService) load(ctx context.Context, account string) *Session {
	session := &Session{
		Memberships: domain.MembershipSet{},
		LoadedAt:    time.Now().UTC(),
	}

	if s.directory == nil || !s.directory.Reachable(ctx) {
		s.logger.Warn("directory unreachable, loading degraded session",
			zap.String("account", account),
		)
		session.Degraded = true
		session.Applicant = s.fallbackApplicant(account)
		return session
	}

	session.Applicant = s.loadApplicant(ctx, account)

	resources, err := s.directory.ResourcesByCategory(ctx, domain.CategoryGroup)
	if err != nil {
		s.logger.Warn("load resource catalog failed", zap.Error(err))
		session.Degraded = true
	}
	session.Resources = resources

	groups, err := s.directory.GroupsForUser(ctx, account)
	if err != nil {
		s.logger.Warn("load current memberships failed",
			zap.String("account", account),
			zap.Error(err),
		)
		session.Degraded = true
	}
	session.Memberships = domain.NewMembershipSet(groups)

	workstations, err := s.directory.ResourcesByCategory(ctx, domain.CategoryWorkstation)
	if err != nil {
		s.logger.Warn("load workstations failed", zap.Error(err))
		session.Degraded = true
	}
	session.Workstations = workstations
	session.LocalWorkstation = s.matchLocalWorkstation(workstations)

	s.logger.Info("directory session loaded",
		zap.String("account", account),
		zap.Int("resources", len(session.Resources)),
		zap.Int("workstations", len(session.Workstations)),
		zap.Int("memberships", len(session.Memberships)),
		zap.Bool("degraded", session.Degraded),
	)

	return session
}

func (s *CatalogService) loadApplicant(ctx context.Context, account string) domain.Applicant {
	applicant, err := s.directory.UserProfile(ctx, account)
	if err != nil || applicant == nil {
		s.logger.Warn("load applicant profile failed, using local identity",
			zap.String("account", account),
			zap.Error(err),
		)
		return s.fallbackApplicant(account)
	}

	resolved := *applicant
	if resolved.Account == "" {
		resolved.Account = account
	}
	return resolved
}

func (s *CatalogService) fallbackApplicant(account string) domain.Applicant {
	name := account
	if name == "" && s.local != nil {
		name = s.local.Username()
	}
	return domain.Applicant{
		FullName: name,
		Account:  name,
	}
}

func (s *CatalogService) matchLocalWorkstation(workstations []domain.DirectoryResource) *domain.DirectoryResource {
	if s.local == nil {
		return nil
	}
	hostname := domain.NormalizeResourceName(s.local.Hostname())
	if hostname == "" {
		return nil
	}
	for i := range workstations {
		if domain.NormalizeResourceName(workstations[i].Name) == hostname {
			return &workstations[i]
		}
	}
	return nil
}
