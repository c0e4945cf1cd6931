package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-gearbox-mes/internal/config"
	"go-gearbox-mes/internal/handler"
	"go-gearbox-mes/internal/metrics"
	"go-gearbox-mes/internal/middleware"
	"go-gearbox-mes/internal/model"
	"go-gearbox-mes/internal/report"
	"go-gearbox-mes/internal/repository"
	"go-gearbox-mes/internal/service"
	"go-gearbox-mes/internal/ws"
	"go-gearbox-mes/pkg/database"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"
)

func main() {
	logg := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logg)

	// 1. Load configuration (config.yaml + APP_* env overrides)
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}
	if cfg.JWT.Secret != "" {
		os.Setenv("JWT_SECRET", cfg.JWT.Secret)
	}

	// 2. Setup Database
	db := database.ConnectDB(cfg.Database.DSN)
	// Auto Migrate (Hati-hati di production, sebaiknya pakai tools migrasi terpisah)
	if err := db.AutoMigrate(
		&model.Material{}, &model.StockLot{}, &model.StockMovement{},
		&model.BomRevision{}, &model.BomItem{},
		&model.Unit{}, &model.PartMapping{}, &model.UnitStatusLog{}, &model.SerialCounter{},
		&model.ControlPlanRevision{}, &model.ControlPlanItem{},
		&model.Inspection{}, &model.Measurement{}, &model.Nonconformance{},
		&model.QuarantineItem{},
		&model.ShipmentBatch{}, &model.ShipmentItem{}, &model.VehicleAssembly{},
		&model.User{}, &model.Privilege{}, &model.Role{},
	); err != nil {
		log.Fatal("Failed to migrate database: ", err)
	}

	// 3. Seed default privileges, roles, and admin user
	seedPrivilegesRolesAndAdmin(db)

	// 4. Setup WebSocket Hub
	wsHub := ws.NewHub()
	go wsHub.Run()

	// 5. Metrics sidecar
	var metricsSrv *metrics.Server
	if cfg.Metrics.Enabled {
		metricsSrv = metrics.NewServer(cfg.Metrics.Addr)
		go func() {
			if err := metricsSrv.Start(); err != nil && err != http.ErrServerClosed {
				logg.Error("metrics server failed", "error", err)
			}
		}()
	}

	// 6. Dependency Injection (Wiring Layers)
	materialRepo := repository.NewMaterialRepo(db)
	bomRepo := repository.NewBomRepo(db)
	unitRepo := repository.NewUnitRepo(db)
	planRepo := repository.NewControlPlanRepo(db)
	inspectionRepo := repository.NewInspectionRepo(db)
	quarantineRepo := repository.NewQuarantineRepo(db)
	shipmentRepo := repository.NewShipmentRepo(db)
	userRepo := repository.NewUserRepo(db)
	privilegeRepo := repository.NewPrivilegeRepo(db)
	roleRepo := repository.NewRoleRepo(db)

	ledgerService := service.NewLedgerService(materialRepo, db, wsHub)
	bomService := service.NewBomService(bomRepo, materialRepo, db)
	capacityService := service.NewCapacityService(bomRepo, materialRepo)
	lifecycleService := service.NewLifecycleService(unitRepo, inspectionRepo, shipmentRepo, db, wsHub)
	unitService := service.NewUnitService(unitRepo, bomRepo, materialRepo, db, wsHub)
	qualityService := service.NewQualityService(planRepo, inspectionRepo, unitRepo, materialRepo, quarantineRepo, lifecycleService, db, wsHub)
	quarantineService := service.NewQuarantineService(quarantineRepo, materialRepo, db, wsHub)
	shipmentService := service.NewShipmentService(shipmentRepo, unitRepo, lifecycleService, db, wsHub)
	dashboardService := service.NewDashboardService(unitRepo, materialRepo, quarantineRepo)
	authService := service.NewAuthService(userRepo, wsHub)
	userService := service.NewUserService(userRepo, privilegeRepo, roleRepo)

	stockReporter := report.NewStockReporter(materialRepo)

	materialHandler := handler.NewMaterialHandler(ledgerService, stockReporter)
	bomHandler := handler.NewBomHandler(bomService, capacityService)
	unitHandler := handler.NewUnitHandler(unitService, lifecycleService)
	qualityHandler := handler.NewQualityHandler(qualityService)
	quarantineHandler := handler.NewQuarantineHandler(quarantineService)
	shipmentHandler := handler.NewShipmentHandler(shipmentService)
	dashboardHandler := handler.NewDashboardHandler(dashboardService)
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	roleHandler := handler.NewRoleHandler(roleRepo)

	// 7. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: "Gearbox MES v1.0",
	})

	// Middleware
	app.Use(logger.New())  // Logging request
	app.Use(recover.New()) // Panic recovery
	app.Use(cors.New())    // CORS

	// 8. Routes
	api := app.Group("/api/v1")

	// ============ PUBLIC ROUTES ============
	// Auth Routes (No authentication required)
	auth := api.Group("/auth")
	auth.Post("/login", authHandler.Login)
	auth.Post("/reset-password", authHandler.ResetPassword)
	auth.Post("/validate-token", authHandler.ValidateToken)
	auth.Post("/heartbeat", middleware.RequireAuth(userRepo), authHandler.Heartbeat)

	// ============ PROTECTED ROUTES ============
	// All routes below require authentication
	protected := api.Group("", middleware.RequireAuth(userRepo))

	// Material / ledger
	protected.Get("/materials", middleware.RequirePrivilege("material:view"), materialHandler.GetMaterials)
	protected.Post("/materials", middleware.RequirePrivilege("material:create"), materialHandler.CreateMaterial)
	protected.Get("/materials/:id", middleware.RequirePrivilege("material:view"), materialHandler.GetMaterial)
	protected.Get("/materials/:id/lots", middleware.RequirePrivilege("material:view"), materialHandler.GetMaterialLots)
	protected.Post("/materials/receive", middleware.RequirePrivilege("material:receive"), materialHandler.ReceiveStock)
	protected.Get("/movements", middleware.RequirePrivilege("material:view"), materialHandler.GetMovements)

	// BOM, capacity & procurement
	protected.Get("/bom/:model/active", middleware.RequirePrivilege("bom:view"), bomHandler.GetActive)
	protected.Get("/bom/:model/revisions", middleware.RequirePrivilege("bom:view"), bomHandler.ListRevisions)
	protected.Post("/bom/:model/activate", middleware.RequirePrivilege("bom:activate"), bomHandler.ActivateRevision)
	protected.Get("/capacity/:model", middleware.RequirePrivilege("bom:view"), bomHandler.GetCapacity)
	protected.Get("/capacity/:model/procurement", middleware.RequirePrivilege("bom:view"), bomHandler.GetProcurementNeeds)

	// Units & lifecycle
	protected.Get("/units", middleware.RequirePrivilege("unit:view"), unitHandler.GetUnits)
	protected.Post("/units", middleware.RequirePrivilege("unit:create"), unitHandler.CreateUnit)
	protected.Get("/units/:id", middleware.RequirePrivilege("unit:view"), unitHandler.GetUnit)
	protected.Get("/units/:id/mappings", middleware.RequirePrivilege("unit:view"), unitHandler.GetMappings)
	protected.Post("/units/:id/mappings", middleware.RequirePrivilege("mapping:create"), unitHandler.MapPart)
	protected.Post("/units/:id/transition", middleware.RequirePrivilege("unit:transition"), unitHandler.Transition)
	protected.Get("/units/:id/logs", middleware.RequirePrivilege("unit:view"), unitHandler.GetStatusLogs)
	protected.Get("/units/:id/inspections", middleware.RequirePrivilege("inspection:view"), qualityHandler.GetUnitInspections)

	// Quality
	protected.Post("/control-plans/activate", middleware.RequirePrivilege("controlplan:activate"), qualityHandler.ActivateControlPlan)
	protected.Post("/inspections", middleware.RequirePrivilege("inspection:submit"), qualityHandler.SubmitInspection)
	protected.Get("/inspections/:id", middleware.RequirePrivilege("inspection:view"), qualityHandler.GetInspection)

	// Quarantine
	protected.Get("/quarantine", middleware.RequirePrivilege("quarantine:view"), quarantineHandler.GetItems)
	protected.Get("/quarantine/:id", middleware.RequirePrivilege("quarantine:view"), quarantineHandler.GetItem)
	protected.Post("/quarantine/:id/decide", middleware.RequirePrivilege("quarantine:decide"), quarantineHandler.Decide)

	// Shipping & assembly
	protected.Get("/shipments", middleware.RequirePrivilege("unit:view"), shipmentHandler.GetBatches)
	protected.Post("/shipments", middleware.RequirePrivilege("shipment:create"), shipmentHandler.CreateShipment)
	protected.Get("/shipments/:id", middleware.RequirePrivilege("unit:view"), shipmentHandler.GetBatch)
	protected.Post("/assemblies", middleware.RequirePrivilege("assembly:create"), shipmentHandler.RecordAssembly)

	// Dashboard & reports
	protected.Get("/dashboard/summary", middleware.RequirePrivilege("dashboard:view"), dashboardHandler.GetSummary)
	protected.Get("/dashboard/movements", middleware.RequirePrivilege("dashboard:view"), dashboardHandler.GetMovementSeries)
	protected.Get("/reports/stock", middleware.RequirePrivilege("report:view"), materialHandler.DownloadStockReport)

	// User Management Routes (with privilege checks)
	protected.Get("/users", userHandler.GetUsers)
	protected.Get("/users/:id", userHandler.GetUser)
	protected.Post("/users", middleware.RequirePrivilege("user:create"), userHandler.CreateUser)
	protected.Put("/users/:id", middleware.RequirePrivilege("user:update"), userHandler.UpdateUser)
	protected.Delete("/users/:id", middleware.RequirePrivilege("user:delete"), userHandler.DeleteUser)
	protected.Put("/users/:id/privileges", middleware.RequirePrivilege("user:update_privilege"), userHandler.UpdateUserPrivileges)

	// Role Routes
	protected.Get("/roles", roleHandler.GetRoles)

	// Privileges Route (list all available privileges)
	protected.Get("/privileges", func(c *fiber.Ctx) error {
		privileges, err := privilegeRepo.FindAll()
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch privileges"})
		}
		return c.JSON(privileges)
	})

	// WebSocket Route
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		wsHub.Register <- c
		defer func() { wsHub.Unregister <- c }()

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	// 9. Graceful Shutdown
	go func() {
		if err := app.Listen(cfg.HTTP.Addr); err != nil {
			log.Panic(err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logg.Info("shutting down server")
	if err := app.Shutdown(); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}
	if metricsSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logg.Error("metrics shutdown failed", "error", err)
		}
	}

	logg.Info("server exited")
}

// seedPrivilegesRolesAndAdmin creates default privileges, roles, and admin user if they don't exist
func seedPrivilegesRolesAndAdmin(db *gorm.DB) {
	privilegeRepo := repository.NewPrivilegeRepo(db)
	userRepo := repository.NewUserRepo(db)
	roleRepo := repository.NewRoleRepo(db)

	// 1. Seed privileges first
	if err := privilegeRepo.SeedDefaults(); err != nil {
		log.Printf("Warning: Failed to seed privileges: %v", err)
	}

	// 2. Seed roles
	if err := roleRepo.SeedDefaults(); err != nil {
		log.Printf("Warning: Failed to seed roles: %v", err)
	}

	// 3. Assign privileges to roles
	allPrivileges, _ := privilegeRepo.FindAll()
	byCode := make(map[string]model.Privilege, len(allPrivileges))
	for _, p := range allPrivileges {
		byCode[p.Code] = p
	}
	pick := func(codes ...string) []model.Privilege {
		out := make([]model.Privilege, 0, len(codes))
		for _, code := range codes {
			if p, ok := byCode[code]; ok {
				out = append(out, p)
			}
		}
		return out
	}

	// MASTER_ADMIN gets ALL privileges
	masterRole, err := roleRepo.FindByCode(model.RoleMasterAdmin)
	if err == nil && len(masterRole.Privileges) == 0 {
		db.Model(&masterRole).Association("Privileges").Replace(allPrivileges)
		log.Println("MASTER_ADMIN role assigned all privileges")
	}

	// ADMIN gets everything except user management
	adminRole, err := roleRepo.FindByCode(model.RoleAdmin)
	if err == nil && len(adminRole.Privileges) == 0 {
		adminPrivileges := []model.Privilege{}
		for _, p := range allPrivileges {
			if p.Code != "user:create" && p.Code != "user:update" && p.Code != "user:delete" && p.Code != "user:update_privilege" {
				adminPrivileges = append(adminPrivileges, p)
			}
		}
		db.Model(&adminRole).Association("Privileges").Replace(adminPrivileges)
		log.Println("ADMIN role assigned limited privileges")
	}

	// OPERATOR runs production: units, mappings, transitions, shipping
	operatorRole, err := roleRepo.FindByCode(model.RoleOperator)
	if err == nil && len(operatorRole.Privileges) == 0 {
		db.Model(&operatorRole).Association("Privileges").Replace(pick(
			"material:view", "material:receive",
			"bom:view",
			"unit:view", "unit:create", "unit:transition", "mapping:create",
			"shipment:create", "assembly:create",
			"dashboard:view",
		))
		log.Println("OPERATOR role assigned production privileges")
	}

	// QC_INSPECTOR submits inspections and decides quarantine
	qcRole, err := roleRepo.FindByCode(model.RoleQCInspector)
	if err == nil && len(qcRole.Privileges) == 0 {
		db.Model(&qcRole).Association("Privileges").Replace(pick(
			"material:view",
			"unit:view",
			"inspection:view", "inspection:submit",
			"quarantine:view", "quarantine:decide",
			"dashboard:view",
		))
		log.Println("QC_INSPECTOR role assigned quality privileges")
	}

	// 4. Create default admin user with MASTER_ADMIN role
	_, err = userRepo.FindByEmail("admin@example.com")
	if err != nil {
		masterRole, _ := roleRepo.FindByCode(model.RoleMasterAdmin)

		admin := &model.User{
			Email:       "admin@example.com",
			FullName:    "Master Administrator",
			PhoneNumber: "",
			RoleID:      &masterRole.ID,
			IsActive:    true,
			Privileges:  masterRole.Privileges,
		}
		admin.CreatedBy = "system"
		admin.UpdatedBy = "system"

		if err := admin.SetPassword("admin123"); err != nil {
			log.Printf("Warning: Failed to hash admin password: %v", err)
			return
		}

		if err := userRepo.Create(admin); err != nil {
			log.Printf("Warning: Failed to create admin user: %v", err)
		} else {
			log.Println("Admin user created: admin@example.com / admin123 (MASTER_ADMIN)")
		}
	}
}
