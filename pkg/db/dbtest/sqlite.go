// Package dbtest opens throwaway SQLite databases carrying the marketplace
// schema so repositories can be exercised without Postgres.
package dbtest

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/feirinha/feirinha-backend/pkg/db"
	"github.com/feirinha/feirinha-backend/pkg/db/models"
)

// schema mirrors pkg/migrate/migrations constraint for constraint; enums
// become CHECK lists.
var schema = []string{
	`CREATE TABLE users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE categories (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		created_at DATETIME
	)`,
	`CREATE TABLE cities (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		state TEXT NOT NULL,
		created_at DATETIME,
		CONSTRAINT cities_name_state_key UNIQUE (name, state)
	)`,
	`CREATE TABLE user_profiles (
		user_id TEXT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
		photo_url TEXT,
		city_id TEXT REFERENCES cities(id) ON DELETE SET NULL,
		bio TEXT,
		notifications_enabled BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE items (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		type TEXT NOT NULL CHECK (type IN ('Sell', 'Donation', 'Trade')),
		price NUMERIC CHECK (price IS NULL OR price >= 0),
		trade_interest TEXT,
		category_id TEXT NOT NULL REFERENCES categories(id) ON DELETE RESTRICT,
		city_id TEXT REFERENCES cities(id) ON DELETE SET NULL,
		condition TEXT NOT NULL CHECK (condition IN ('new', 'used')),
		listing_state TEXT NOT NULL DEFAULT 'active' CHECK (listing_state IN ('active', 'inactive')),
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE item_photos (
		id TEXT PRIMARY KEY,
		item_id TEXT NOT NULL REFERENCES items(id) ON DELETE CASCADE,
		object_key TEXT NOT NULL UNIQUE,
		url TEXT NOT NULL,
		position INTEGER NOT NULL,
		created_at DATETIME,
		CONSTRAINT item_photos_item_position_key UNIQUE (item_id, position),
		CONSTRAINT item_photos_position_check CHECK (position >= 1)
	)`,
	`CREATE TABLE favorites (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		item_id TEXT NOT NULL REFERENCES items(id) ON DELETE CASCADE,
		created_at DATETIME,
		CONSTRAINT favorites_user_item_key UNIQUE (user_id, item_id)
	)`,
	`CREATE TABLE notifications (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		type TEXT NOT NULL CHECK (type IN ('profile', 'item', 'system')),
		reference_id TEXT,
		message TEXT NOT NULL,
		read_at DATETIME,
		created_at DATETIME
	)`,
	`CREATE TABLE orphaned_blobs (
		id TEXT PRIMARY KEY,
		object_key TEXT NOT NULL UNIQUE,
		reason TEXT NOT NULL,
		attempts INTEGER NOT NULL DEFAULT 0,
		last_error TEXT,
		created_at DATETIME,
		updated_at DATETIME,
		CONSTRAINT orphaned_blobs_attempts_check CHECK (attempts >= 0)
	)`,
}

// Open returns a client over a private in-memory database with the schema applied.
func Open(t testing.TB) *db.Client {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	// One connection keeps the shared-cache database from reporting table locks
	// when a transaction and a plain read overlap.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range schema {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("apply schema: %v", err)
		}
	}
	return db.Wrap(conn)
}

// SeedUser inserts a user with an enabled profile.
func SeedUser(t testing.TB, client *db.Client) models.User {
	t.Helper()
	id := uuid.New()
	user := models.User{
		ID:        id,
		Email:     id.String() + "@example.com",
		FirstName: "Ana",
		LastName:  "Souza",
	}
	if err := client.DB().Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	profile := models.UserProfile{UserID: id, NotificationsEnabled: true}
	if err := client.DB().Create(&profile).Error; err != nil {
		t.Fatalf("seed profile: %v", err)
	}
	return user
}

// SeedCategory inserts a category with a unique name.
func SeedCategory(t testing.TB, client *db.Client) models.Category {
	t.Helper()
	category := models.Category{ID: uuid.New(), Name: "cat-" + uuid.NewString()[:8]}
	if err := client.DB().Create(&category).Error; err != nil {
		t.Fatalf("seed category: %v", err)
	}
	return category
}

// ItemOption tweaks a seeded item before insert.
type ItemOption func(*models.Item)

// SeedItem inserts an active item owned by ownerID.
func SeedItem(t testing.TB, client *db.Client, ownerID, categoryID uuid.UUID, opts ...ItemOption) models.Item {
	t.Helper()
	item := models.Item{
		ID:           uuid.New(),
		OwnerID:      ownerID,
		Title:        "Bicicleta aro 26",
		Description:  "Pouco usada",
		Type:         "Donation",
		CategoryID:   categoryID,
		Condition:    "used",
		ListingState: "active",
		CreatedAt:    time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(&item)
	}
	if err := client.DB().Create(&item).Error; err != nil {
		t.Fatalf("seed item: %v", err)
	}
	return item
}
