// Schema migration and account maintenance for the protocol review API.
// cmd/migrate/main.go
package main

import (
	"errors"
	"flag"
	"log"
	"time"

	"protocol-review-api/config"
	"protocol-review-api/models"
	"protocol-review-api/services"
	"protocol-review-api/utils"

	"gorm.io/gorm"
)

func main() {
	hashPasswords := flag.Bool("hash-passwords", false, "hash any plaintext passwords left in users")
	seed := flag.Bool("seed", false, "create demo committee accounts when missing")
	seedPassword := flag.String("seed-password", "changeme123", "password for seeded accounts")
	flag.Parse()

	settings, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load settings:", err)
	}
	if err := config.InitDB(settings); err != nil {
		log.Fatal(err)
	}

	if err := services.AutoMigrate(config.DB); err != nil {
		log.Fatal("Failed to migrate schema:", err)
	}
	log.Println("Schema migrated")

	if *seed {
		if err := seedUsers(config.DB, *seedPassword); err != nil {
			log.Fatal("Failed to seed users:", err)
		}
	}
	if *hashPasswords {
		migratePasswords(config.DB)
	}
}

var demoUsers = []models.User{
	{UserFname: "Ada", UserLname: "Admin", Email: "admin@example.org", Roles: "ADMIN"},
	{UserFname: "Chris", UserLname: "Chair", Email: "chair@example.org", Roles: "CHAIR"},
	{UserFname: "Rae", UserLname: "Reviewer", Email: "reviewer@example.org", Roles: "REVIEWER"},
	{UserFname: "Val", UserLname: "Vet", Email: "vet@example.org", Roles: "VETERINARIAN,REVIEWER"},
	{UserFname: "Pat", UserLname: "Investigator", Email: "pi@example.org"},
}

func seedUsers(db *gorm.DB, password string) error {
	if ok, msg := utils.ValidatePassword(password); !ok {
		return errors.New(msg)
	}
	hashed, err := utils.HashPassword(password)
	if err != nil {
		return err
	}
	now := time.Now()
	for _, user := range demoUsers {
		user.Password = hashed
		user.CreateAt = &now
		result := db.Where(models.User{Email: user.Email}).FirstOrCreate(&user)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected > 0 {
			log.Printf("Seeded user %s (%s)", user.Email, user.Roles)
		}
	}
	return nil
}

func migratePasswords(db *gorm.DB) {
	var users []models.User
	if err := db.Find(&users).Error; err != nil {
		log.Fatal("Failed to fetch users:", err)
	}

	for _, user := range users {
		if utils.IsHashed(user.Password) {
			log.Printf("User %s already has hashed password, skipping\n", user.Email)
			continue
		}

		hashedPassword, err := utils.HashPassword(user.Password)
		if err != nil {
			log.Printf("Failed to hash password for user %s: %v\n", user.Email, err)
			continue
		}

		if err := db.Model(&user).Update("password", hashedPassword).Error; err != nil {
			log.Printf("Failed to update password for user %s: %v\n", user.Email, err)
			continue
		}

		log.Printf("Successfully updated password for user %s\n", user.Email)
	}

	log.Println("Password migration completed!")
}
