package main

import (
	"log"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"kasdana/models"
)

var db *gorm.DB

func initDB(cfg *Config) {
	dsn := cfg.Database.DSN
	if dsn == "" {
		dsn = os.Getenv("DB_DSN")
	}
	if dsn == "" {
		log.Fatal("database DSN is not set; provide database.dsn in config.yaml or DB_DSN in the environment")
	}
	var err error
	db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect postgres database:", err)
	}
	// Control schema migrations with env DB_AUTO_MIGRATE (default true).
	shouldMigrate := true
	if v := os.Getenv("DB_AUTO_MIGRATE"); v != "" {
		lv := strings.ToLower(v)
		if lv == "false" || lv == "0" || lv == "no" {
			shouldMigrate = false
		}
	}
	if shouldMigrate {
		autoMigrate(db)
	}
	seedDB(db)
}

// autoMigrate migrates models individually so a failure on one doesn't block
// the others. Roles go first so the users FK can be applied safely.
func autoMigrate(conn *gorm.DB) {
	if err := conn.AutoMigrate(&models.Role{}); err != nil {
		log.Printf("migration warning (roles): %v", err)
	}
	if err := conn.AutoMigrate(&models.User{}); err != nil {
		log.Printf("migration warning (users): %v", err)
	}
	if err := conn.AutoMigrate(&models.FundAccount{}); err != nil {
		log.Printf("migration warning (fund_accounts): %v", err)
	}
	if err := conn.AutoMigrate(&models.LedgerEntry{}); err != nil {
		log.Printf("migration warning (ledger_entries): %v", err)
	}
	if err := conn.AutoMigrate(&models.Pembelian{}); err != nil {
		log.Printf("migration warning (pembelians): %v", err)
	}
	if err := conn.AutoMigrate(&models.PembelianItem{}); err != nil {
		log.Printf("migration warning (pembelian_items): %v", err)
	}
}

func seedDB(conn *gorm.DB) {
	// master roles
	roles := []models.Role{
		{Name: "administrator", Description: "full access"},
		{Name: "bendahara", Description: "approves and pays purchase batches"},
		{Name: "user", Description: "regular user"},
	}
	for _, r := range roles {
		var cnt int64
		conn.Model(&models.Role{}).Where("name = ?", r.Name).Count(&cnt)
		if cnt == 0 {
			conn.Create(&r)
		}
	}

	// seed admin user once
	var count int64
	conn.Model(&models.User{}).Where("username = ?", "admin").Count(&count)
	if count == 0 {
		var role models.Role
		if err := conn.Where("name = ?", "administrator").First(&role).Error; err != nil {
			log.Printf("failed to find administrator role: %v", err)
		}
		rid := role.ID
		admin := models.User{Username: "admin", RoleID: &rid}
		hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
		admin.HashedPassword = hashedPassword
		conn.Create(&admin)
		log.Println("Seeded admin user: username=admin, password=admin123")
	}
}
