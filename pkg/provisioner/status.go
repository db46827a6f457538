package provisioner

import "context"

// Check reports whether the tenant's database has been provisioned without
// triggering provisioning. Returns ErrNotProvisioned when the durable flag
// is still false.
func (p *Provisioner) Check(ctx context.Context, tenantID string) error {
	org, err := p.store.GetByID(ctx, tenantID)
	if err != nil {
		return err
	}
	if !org.Settings.DatabaseCreated {
		return ErrNotProvisioned
	}
	return nil
}
