// Package admin implements the administrative HTTP API: tenant signup
// with eager provisioning, suspension and reactivation, database
// offboarding, and the full-fleet schema sync trigger.
package admin
