package tenantcontext

// Shared Locals keys used across controllers and middlewares
const (
	KeyPrincipal      = "TENANT_PRINCIPAL"
	KeyOrganizationID = "organization_id"
	KeyUserID         = "user_id"
)
