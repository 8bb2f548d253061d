package model

// Host and Group mirror the external inventory tables (assets_hosts,
// assets_groups) the core consults read-only (spec §3, §6). The core never
// migrates or writes these tables; this shape exists only so orchestrator
// code can bind query results without depending on the identity/inventory
// service's own package.
type HostState string

const (
	HostStateActive        HostState = "active"
	HostStateInactive      HostState = "inactive"
	HostStateMaintenance   HostState = "maintenance"
	HostStateDecommissioned HostState = "decommissioned"
)

// Host is one managed remote target.
type Host struct {
	ID          string    `gorm:"type:varchar(36);primaryKey"`
	Identifier  string    `gorm:"type:varchar(255)"`
	Address     string    `gorm:"type:varchar(255);not null"`
	Port        int       `gorm:"not null;default:22"`
	Username    string    `gorm:"type:varchar(64)"`
	Password    string    `gorm:"type:varchar(255)"`
	PrivateKey  string    `gorm:"type:text"`
	Passphrase  string    `gorm:"type:varchar(255)"`
	Environment string    `gorm:"type:varchar(16);not null"`
	GroupIDs    JSONStringList `gorm:"type:text"`
	State       HostState `gorm:"type:varchar(16);not null"`
}

// TableName pins the GORM table name (external — read only).
func (Host) TableName() string { return "assets_hosts" }

// HasCredential reports whether the host row itself carries login material.
func (h Host) HasCredential() bool {
	return h.Username != "" && (h.Password != "" || h.PrivateKey != "")
}

// Group is a named, environment-scoped host grouping.
type Group struct {
	ID         string `gorm:"type:varchar(36);primaryKey"`
	Name       string `gorm:"type:varchar(255);not null"`
	Environment string `gorm:"type:varchar(16);not null"`
	IsCritical bool   `gorm:"not null;default:false"`
}

// TableName pins the GORM table name (external — read only).
func (Group) TableName() string { return "assets_groups" }
