package controllers

import (
	"crypto/rsa"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/middleware"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/repositories"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/routes"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/services"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/utils"
)

// NewRouter mounts every endpoint. Owner routes require the owner role,
// /me routes the tenant role.
func NewRouter(pub *rsa.PublicKey, svc *services.OccupancyService, store repositories.Store) *mux.Router {
	healthController := NewHealthController(store)
	propertyController := NewPropertyController(svc)
	roomController := NewRoomController(svc)
	tenantController := NewTenantController(svc)
	noticeController := NewNoticeController(svc)

	router := mux.NewRouter()

	// Public
	router.HandleFunc(routes.Health, healthController.HealthCheckHandler).Methods(http.MethodGet)

	owner := router.NewRoute().Subrouter()
	owner.Use(middleware.AuthMiddleware(pub), middleware.RequireRole(utils.OwnerAccountType))

	owner.HandleFunc(routes.Properties, propertyController.CreatePropertyHandler).Methods(http.MethodPost)
	owner.HandleFunc(routes.Properties, propertyController.ListPropertiesHandler).Methods(http.MethodGet)
	owner.HandleFunc(routes.Property, propertyController.GetPropertyHandler).Methods(http.MethodGet)
	owner.HandleFunc(routes.Property, propertyController.UpdatePropertyHandler).Methods(http.MethodPatch)
	owner.HandleFunc(routes.PropertyMaterializeRooms, propertyController.MaterializeRoomsHandler).Methods(http.MethodPost)
	owner.HandleFunc(routes.PropertyRoster, propertyController.RosterHandler).Methods(http.MethodGet)
	owner.HandleFunc(routes.PropertyConsistency, propertyController.ConsistencyHandler).Methods(http.MethodGet)
	owner.HandleFunc(routes.PropertyRoomType, propertyController.EditRoomPricingHandler).Methods(http.MethodPatch)

	owner.HandleFunc(routes.RoomTenants, roomController.AssignTenantHandler).Methods(http.MethodPost)
	owner.HandleFunc(routes.Room, roomController.RenameRoomHandler).Methods(http.MethodPatch)
	owner.HandleFunc(routes.Room, roomController.DeleteRoomHandler).Methods(http.MethodDelete)

	owner.HandleFunc(routes.PropertyTenants, tenantController.ListTenantsHandler).Methods(http.MethodGet)
	owner.HandleFunc(routes.Tenant, tenantController.GetTenantHandler).Methods(http.MethodGet)
	owner.HandleFunc(routes.TenantMoveOut, tenantController.RemoveTenantHandler).Methods(http.MethodPost)
	owner.HandleFunc(routes.TenantRent, tenantController.RentChangeHandler).Methods(http.MethodPost)
	owner.HandleFunc(routes.TenantContact, tenantController.UpdateContactHandler).Methods(http.MethodPatch)

	owner.HandleFunc(routes.PropertyNotices, noticeController.ListNoticesHandler).Methods(http.MethodGet)
	owner.HandleFunc(routes.NoticeDecision, noticeController.DecideNoticeHandler).Methods(http.MethodPost)

	tenant := router.NewRoute().Subrouter()
	tenant.Use(middleware.AuthMiddleware(pub), middleware.RequireRole(utils.TenantAccountType))

	tenant.HandleFunc(routes.MyNotices, noticeController.SubmitNoticeHandler).Methods(http.MethodPost)
	tenant.HandleFunc(routes.MyNotices, noticeController.ListMyNoticesHandler).Methods(http.MethodGet)
	tenant.HandleFunc(routes.MyNoticeRevoke, noticeController.RevokeNoticeHandler).Methods(http.MethodPost)
	tenant.HandleFunc(routes.MyTenancy, tenantController.MyTenancyHandler).Methods(http.MethodGet)

	return router
}
