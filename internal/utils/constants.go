package utils

const (
	OrganizationName = "PG Finder"

	CORSLowSecurityAllowedOriginLocalhost = "http://localhost:*"

	OwnerAccountType  = "owner"
	TenantAccountType = "tenant"
)
