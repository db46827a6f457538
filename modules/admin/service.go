package admin

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/zphere-app/tenantdb/pkg/masterdb"
	"github.com/zphere-app/tenantdb/pkg/provisioner"
	"github.com/zphere-app/tenantdb/pkg/schema"
)

var (
	ErrInvalidName = errors.New("admin: organization name is required")
	ErrInvalidSlug = errors.New("admin: slug must be non-empty, lowercase and URL-safe")
)

// Service exposes the engine's administrative operations: tenant signup,
// suspension, offboarding, and schema sync across all tenants.
type Service struct {
	store *masterdb.Store
	prov  *provisioner.Provisioner
	rec   *schema.Reconciler
	log   *slog.Logger
}

func NewService(store *masterdb.Store, prov *provisioner.Provisioner, rec *schema.Reconciler, log *slog.Logger) *Service {
	return &Service{store: store, prov: prov, rec: rec, log: log}
}

// CreateTenant registers an organization and provisions its database
// eagerly. A provisioning failure leaves the organization in place with
// provisioning pending; the first tenant request or the next sweep
// retries.
func (s *Service) CreateTenant(ctx context.Context, name, slug string) (*masterdb.Organization, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}
	if !validSlug(slug) {
		return nil, ErrInvalidSlug
	}

	org, err := s.store.Create(ctx, name, slug)
	if err != nil {
		return nil, err
	}

	if _, err := s.prov.EnsureDatabase(ctx, org.ID.String()); err != nil {
		s.log.ErrorContext(ctx, "eager provisioning failed, will retry on first use",
			slog.String("tenant_id", org.ID.String()), slog.Any("error", err))
		return org, err
	}

	org, err = s.store.GetByID(ctx, org.ID.String())
	if err != nil {
		return nil, err
	}
	return org, nil
}

// GetTenant returns an organization together with its provisioning state.
func (s *Service) GetTenant(ctx context.Context, id string) (*masterdb.Organization, error) {
	return s.store.GetByID(ctx, id)
}

// Suspend deactivates an organization. Subdomain resolution stops matching
// it and reconciliation sweeps skip it; the physical database is untouched.
func (s *Service) Suspend(ctx context.Context, id string) error {
	return s.store.SetActive(ctx, id, false)
}

// Activate reactivates a suspended organization.
func (s *Service) Activate(ctx context.Context, id string) error {
	return s.store.SetActive(ctx, id, true)
}

// DropTenantDatabase is the offboarding path: it evicts the cached handle,
// drops the physical database and clears the provisioning flag. The
// organization row survives, deactivated by the caller beforehand.
func (s *Service) DropTenantDatabase(ctx context.Context, id string) error {
	return s.prov.DropDatabase(ctx, id)
}

// SyncSchemas runs a full reconciliation sweep over all active tenants and
// returns the per-tenant report.
func (s *Service) SyncSchemas(ctx context.Context) (schema.Report, error) {
	return s.rec.ReconcileAll(ctx, schema.Catalog())
}

func validSlug(slug string) bool {
	if slug == "" {
		return false
	}
	for _, c := range slug {
		switch {
		case c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9':
		case c == '-':
		default:
			return false
		}
	}
	return true
}
