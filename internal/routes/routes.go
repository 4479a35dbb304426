package routes

const (
	// Health
	Health = "/health"

	// Owner endpoints
	Properties               = "/api/v1/properties"
	Property                 = "/api/v1/properties/{propertyID}"
	PropertyMaterializeRooms = "/api/v1/properties/{propertyID}/rooms/materialize"
	PropertyRoster           = "/api/v1/properties/{propertyID}/roster"
	PropertyConsistency      = "/api/v1/properties/{propertyID}/consistency"
	PropertyRoomType         = "/api/v1/properties/{propertyID}/room-types/{roomTypeID}"
	PropertyTenants          = "/api/v1/properties/{propertyID}/tenants"
	PropertyNotices          = "/api/v1/properties/{propertyID}/notices"
	Room                     = "/api/v1/rooms/{roomID}"
	RoomTenants              = "/api/v1/rooms/{roomID}/tenants"
	Tenant                   = "/api/v1/tenants/{tenantID}"
	TenantMoveOut            = "/api/v1/tenants/{tenantID}/move-out"
	TenantRent               = "/api/v1/tenants/{tenantID}/rent"
	TenantContact            = "/api/v1/tenants/{tenantID}/contact"
	NoticeDecision           = "/api/v1/notices/{noticeID}/decision"

	// Tenant self-service endpoints
	MyNotices      = "/api/v1/me/notices"
	MyNoticeRevoke = "/api/v1/me/notices/{noticeID}/revoke"
	MyTenancy      = "/api/v1/me/tenancy"
)
