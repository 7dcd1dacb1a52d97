// Package mocks provides gomock doubles for the tenant routing ports.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	dir := mocks.NewMockDirectory(ctrl)
//	dir.EXPECT().FindByBranchName(gomock.Any(), "IT Department").Return(tenant.Tenant{...}, nil)
//
// Hand-written doubles for session storage live in internal/mocks/auth.
package mocks

// Directory: ListTenants, FindByBranchName
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=directory_mock.go github.com/qldt/qldt-api/internal/ports Directory

// IdentityGateway: LookupIdentity, CheckRestrictedExists
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=identity_gateway_mock.go github.com/qldt/qldt-api/internal/ports IdentityGateway

// PoolRegistry: Acquire, Report, Evict
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=pool_registry_mock.go github.com/qldt/qldt-api/internal/ports PoolRegistry

// LoginAuditor: Record
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=login_auditor_mock.go github.com/qldt/qldt-api/internal/ports LoginAuditor
