// Package preflight provides readiness checks for the external services and
// filesystem paths animelists depends on.
//
// The CLI "animelists check" command runs RunAll and renders one row per
// Result. Catalog and mapping checks perform one real request each so a
// passing check means the next run can reach both endpoints.
package preflight
