package service

import (
	"testing"

	"backend/internal/database"
	"backend/internal/model"
	"backend/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testEnv wires the full engine stack against an in-memory sqlite DB.
// The websocket hub stays nil; Notify is a no-op without one.
type testEnv struct {
	db *gorm.DB

	requests   RequestService
	quotations QuotationService
	orders     OrderService
	deliveries DeliveryService
	auditSvc   AuditService

	supervisor model.UserSummary
	engineer   model.UserSummary
	procurer   model.UserSummary
	manager    model.UserSummary
	tracker    model.UserSummary
	admin      model.UserSummary

	project model.Project
	cement  model.CatalogItem
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}

	env := &testEnv{db: db}

	env.supervisor = seedUser(t, db, "site.supervisor", model.RoleSupervisor)
	env.engineer = seedUser(t, db, "site.engineer", model.RoleEngineer)
	env.procurer = seedUser(t, db, "procurement.manager", model.RoleProcurementManager)
	env.manager = seedUser(t, db, "general.manager", model.RoleGeneralManager)
	env.tracker = seedUser(t, db, "delivery.tracker", model.RoleDeliveryTracker)
	env.admin = seedUser(t, db, "sys.admin", model.RoleAdmin)

	env.project = model.Project{Name: "Riverside Tower", Code: "RT-01", Location: "District 7"}
	if err := db.Create(&env.project).Error; err != nil {
		t.Fatalf("seed project: %v", err)
	}

	env.cement = model.CatalogItem{
		ItemCode:  "CEM-40",
		Name:      "Portland cement 40kg",
		Unit:      "bag",
		UnitPrice: decimal.NewFromInt(95),
		IsActive:  true,
	}
	if err := db.Create(&env.cement).Error; err != nil {
		t.Fatalf("seed catalog item: %v", err)
	}

	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	requestRepo := repository.NewRequestRepository(db)
	quotationRepo := repository.NewQuotationRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	deliveryRepo := repository.NewDeliveryRepository(db)
	sequenceRepo := repository.NewSequenceRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	env.requests = NewRequestService(txManager, requestRepo, projectRepo, userRepo, catalogRepo, sequenceRepo, auditRepo, nil)
	env.quotations = NewQuotationService(txManager, quotationRepo, requestRepo, auditRepo, nil)
	env.orders = NewOrderService(txManager, orderRepo, requestRepo, quotationRepo, catalogRepo, sequenceRepo, auditRepo, nil, decimal.NewFromInt(10000))
	env.deliveries = NewDeliveryService(txManager, deliveryRepo, orderRepo, auditRepo, nil)
	env.auditSvc = NewAuditService(auditRepo)

	return env
}

func seedUser(t *testing.T, db *gorm.DB, username, role string) model.UserSummary {
	t.Helper()
	u := model.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "x",
		Role:     role,
	}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("seed user %s: %v", username, err)
	}
	return u.Summary()
}

// twoItemRequest creates and returns a pending request with two items,
// the first one linked to the seeded catalog entry.
func (env *testEnv) twoItemRequest(t *testing.T) *model.MaterialRequest {
	t.Helper()
	catalogID := env.cement.ID.String()
	request, err := env.requests.Create(t.Context(), env.supervisor, CreateRequestDTO{
		ProjectID:  env.project.ID.String(),
		EngineerID: env.engineer.ID.String(),
		Reason:     "foundation pour",
		Items: []RequestItemDTO{
			{Name: "Portland cement", Quantity: 100, Unit: "bag", CatalogItemID: &catalogID},
			{Name: "Rebar 12mm", Quantity: 40, Unit: "pc"},
		},
	})
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	return request
}

// approvedRequest creates a two-item request and has the assigned engineer
// approve it.
func (env *testEnv) approvedRequest(t *testing.T) *model.MaterialRequest {
	t.Helper()
	request := env.twoItemRequest(t)
	approved, err := env.requests.Decide(t.Context(), env.engineer, request.ID.String(), DecideRequestDTO{Decision: "approve"})
	if err != nil {
		t.Fatalf("approve request: %v", err)
	}
	return approved
}
