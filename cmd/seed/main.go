package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/slotbook/booking-api/internal/auth"
	"github.com/slotbook/booking-api/internal/booking"
	"github.com/slotbook/booking-api/internal/db"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	_ = godotenv.Load()

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	if err := db.ApplyMigration(context.Background(), pool, "db/migrations/001_init.sql"); err != nil {
		log.Fatalf("apply migration: %v", err)
	}

	if err := seedAdmin(context.Background(), pool); err != nil {
		log.Fatalf("seed admin: %v", err)
	}
	if err := seedSlots(context.Background(), pool); err != nil {
		log.Fatalf("seed slots: %v", err)
	}

	if os.Getenv("SEED_DEMO") == "true" {
		gofakeit.Seed(time.Now().UnixNano())
		if err := seedDemoBookings(context.Background(), pool, 5); err != nil {
			log.Fatalf("seed demo bookings: %v", err)
		}
	}

	log.Println("seed complete")
}

func seedAdmin(ctx context.Context, pool *pgxpool.Pool) error {
	email := envOr("ADMIN_EMAIL", "admin@example.com")
	password := envOr("ADMIN_PASSWORD", "admin123")

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	_, err = pool.Exec(ctx, `
		INSERT INTO users (id, email, password_hash, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		ON CONFLICT (email) DO NOTHING
	`, uuid.New(), email, hash, booking.RoleAdmin)
	if err != nil {
		return err
	}

	log.Printf("admin user ready: %s", email)
	return nil
}

// seedSlots creates slots for the next 3 days, 08:00 to 16:00 every 2
// hours, skipping timestamps that already exist.
func seedSlots(ctx context.Context, pool *pgxpool.Pool) error {
	today := time.Now().Truncate(24 * time.Hour)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	count := 0
	for d := 1; d <= 3; d++ {
		day := today.AddDate(0, 0, d)

		for hour := 8; hour <= 16; hour += 2 {
			slot := time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, time.Local)

			_, err := tx.Exec(ctx, `
				INSERT INTO appointment_slots (id, date_time, is_booked, created_at, updated_at)
				VALUES ($1, $2, false, now(), now())
				ON CONFLICT (date_time) DO NOTHING
			`, uuid.New(), slot)
			if err != nil {
				return err
			}
			count++
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Printf("slots seeded: %d", count)
	return nil
}

// seedDemoBookings books up to count available slots with fake clients.
func seedDemoBookings(ctx context.Context, pool *pgxpool.Pool, count int) error {
	rows, err := pool.Query(ctx, `
		SELECT id FROM appointment_slots
		WHERE is_booked = false AND date_time >= now()
		ORDER BY date_time ASC
		LIMIT $1
	`, count)
	if err != nil {
		return err
	}
	defer rows.Close()

	var slotIDs []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return err
		}
		slotIDs = append(slotIDs, id)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	repo := booking.NewPgRepository(pool)
	for _, slotID := range slotIDs {
		if _, err := repo.BookSlot(ctx, gofakeit.Name(), gofakeit.Email(), slotID); err != nil {
			return err
		}
	}

	log.Printf("demo bookings seeded: %d", len(slotIDs))
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
