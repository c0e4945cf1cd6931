package model

// Privilege represents a permission that can be assigned to users
type Privilege struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Code string `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"` // e.g., "unit:create"
	Name string `gorm:"type:varchar(100)" json:"name"`                     // e.g., "Create Unit"
}

// Default privileges for the system
var DefaultPrivileges = []Privilege{
	// User management
	{Code: "user:view", Name: "View User"},
	{Code: "user:create", Name: "Create User"},
	{Code: "user:update", Name: "Update User"},
	{Code: "user:delete", Name: "Delete User"},
	{Code: "user:update_privilege", Name: "Update User Privileges"},
	// Material / ledger
	{Code: "material:view", Name: "View Material"},
	{Code: "material:create", Name: "Create Material"},
	{Code: "material:receive", Name: "Receive Stock"},
	// BOM & control plans
	{Code: "bom:view", Name: "View BOM"},
	{Code: "bom:activate", Name: "Activate BOM Revision"},
	{Code: "controlplan:activate", Name: "Activate Control Plan"},
	// Units & allocation
	{Code: "unit:view", Name: "View Unit"},
	{Code: "unit:create", Name: "Create Unit"},
	{Code: "unit:transition", Name: "Transition Unit"},
	{Code: "unit:scrap", Name: "Scrap Unit"},
	{Code: "mapping:create", Name: "Map Part"},
	// Quality
	{Code: "inspection:view", Name: "View Inspection"},
	{Code: "inspection:submit", Name: "Submit Inspection"},
	// Quarantine
	{Code: "quarantine:view", Name: "View Quarantine"},
	{Code: "quarantine:decide", Name: "Decide Quarantine"},
	// Shipping
	{Code: "shipment:create", Name: "Create Shipment"},
	{Code: "assembly:create", Name: "Record Vehicle Assembly"},
	// Dashboard & reports
	{Code: "dashboard:view", Name: "View Dashboard"},
	{Code: "report:view", Name: "Export Reports"},
}
