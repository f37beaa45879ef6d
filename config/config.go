package config

import (
	"fmt"
	"log"
	"os"

	"github.com/pablofelipe01/sirius-meets/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

// ConnectDB opens the PostgreSQL connection and migrates the tables.
func ConnectDB() {
	host := os.Getenv("DB_HOST")
	port := os.Getenv("DB_PORT")
	user := os.Getenv("DB_USER")
	password := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		host, user, password, dbName, port)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	if err := Migrate(db); err != nil {
		log.Fatalf("failed to migrate: %v", err)
	}

	DB = db
	log.Println("Connected to PostgreSQL & migrated successfully")
}

// Migrate creates or updates the schema. Split out so the tests can run
// it against their own database.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Profile{},
		&models.Meeting{},
		&models.MeetingParticipant{},
		&models.MeetingInvitation{},
	)
}

// AgoraConfig carries the vendor RTC credentials. The certificate is
// read and reported but tokenless join is used, matching the vendor
// project settings.
type AgoraConfig struct {
	AppID       string
	Certificate string
}

func Agora() AgoraConfig {
	return AgoraConfig{
		AppID:       os.Getenv("AGORA_APP_ID"),
		Certificate: os.Getenv("AGORA_APP_CERTIFICATE"),
	}
}

// IsConfigured reports whether video sessions can be started at all.
func (a AgoraConfig) IsConfigured() bool {
	return a.AppID != ""
}

// AllowedEmailDomain is the corporate domain registrations are
// restricted to.
func AllowedEmailDomain() string {
	if d := os.Getenv("ALLOWED_EMAIL_DOMAIN"); d != "" {
		return d
	}
	return "@siriusregenerative.com"
}

// FrontendBaseURL is used to build the /join links put into invitation
// emails.
func FrontendBaseURL() string {
	if u := os.Getenv("FRONTEND_BASE_URL"); u != "" {
		return u
	}
	return "http://localhost:3000"
}
