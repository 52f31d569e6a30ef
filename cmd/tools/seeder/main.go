package main

import (
	"database/sql"
	"flag"
	"log"
	"os"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	force := flag.Bool("force", false, "upsert sample rows even when the tables already hold data")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping DB: %v", err)
	}

	if *force || isEmpty(db, "plants") {
		seedPlants(db)
	} else {
		log.Println("plants already present, skipping")
	}
	if *force || isEmpty(db, "discount_codes") {
		seedDiscounts(db, time.Now().UTC())
	} else {
		log.Println("discount codes already present, skipping")
	}
	seedAdmin(db, os.Getenv("SEED_ADMIN_EMAIL"), os.Getenv("SEED_ADMIN_PASSWORD"))

	log.Println("Seeding completed successfully!")
}

func isEmpty(db *sql.DB, table string) bool {
	var n int
	// table is one of the fixed names above, never user input.
	if err := db.QueryRow("SELECT count(*) FROM " + table).Scan(&n); err != nil {
		log.Fatalf("Failed to count %s: %v", table, err)
	}
	return n == 0
}

func seedPlants(db *sql.DB) {
	log.Println("Seeding plants...")
	for _, p := range samplePlants {
		_, err := db.Exec(`
			INSERT INTO plants (id, name, price, description, care_instructions, sunlight_requirements,
			                    category, stock_quantity, image_url, weight)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				price = EXCLUDED.price,
				description = EXCLUDED.description,
				care_instructions = EXCLUDED.care_instructions,
				sunlight_requirements = EXCLUDED.sunlight_requirements,
				category = EXCLUDED.category,
				stock_quantity = EXCLUDED.stock_quantity,
				image_url = EXCLUDED.image_url,
				weight = EXCLUDED.weight,
				updated_at = now();
		`, p.ID, p.Name, p.Price, p.Description, p.CareInstructions, p.SunlightRequirements,
			p.Category, p.StockQuantity, p.ImageURL, p.Weight)
		if err != nil {
			log.Printf("Failed to seed plant %s: %v", p.ID, err)
		}
	}
}

func seedDiscounts(db *sql.DB, now time.Time) {
	log.Println("Seeding discount codes...")
	for _, d := range sampleDiscounts {
		_, err := db.Exec(`
			INSERT INTO discount_codes (code, kind, value, active, expires_at)
			VALUES ($1, $2, $3, TRUE, $4)
			ON CONFLICT (code) DO UPDATE SET
				kind = EXCLUDED.kind,
				value = EXCLUDED.value,
				active = TRUE,
				expires_at = EXCLUDED.expires_at;
		`, d.Code, d.Kind, d.Value, now.Add(d.Expires))
		if err != nil {
			log.Printf("Failed to seed discount %s: %v", d.Code, err)
		}
	}
}

// seedAdmin creates or promotes an admin account so order statuses can be
// advanced. Skipped unless both variables are set.
func seedAdmin(db *sql.DB, email, password string) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return
	}
	hash, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		log.Fatalf("Failed to hash admin password: %v", err)
	}
	_, err = db.Exec(`
		INSERT INTO users (email, password_hash, first_name, last_name, role)
		VALUES ($1, $2, 'Nursery', 'Admin', 'admin')
		ON CONFLICT (email) DO UPDATE SET role = 'admin';
	`, email, hash)
	if err != nil {
		log.Printf("Failed to seed admin %s: %v", email, err)
		return
	}
	log.Printf("Admin account ready: %s", email)
}
