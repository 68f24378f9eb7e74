package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/slotbook/booking-api/internal/config"
	"github.com/slotbook/booking-api/internal/db"
)

// The simulator hammers a running server with concurrent bookings,
// cancellations and reads, then audits the database: every booked slot
// must hold exactly one appointment, no matter how contended it was.

type SimConfig struct {
	APIBaseURL  string
	Duration    time.Duration
	Workers     int
	BookRatio   float64
	CancelRatio float64
	ReadRatio   float64
	SlotLimit   int
	PostgresDSN string
}

type DataPool struct {
	Slots        []uuid.UUID
	mu           sync.RWMutex
	appointments []uuid.UUID
	emails       []string
}

func (dp *DataPool) AddAppointment(id uuid.UUID, email string) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.appointments = append(dp.appointments, id)
	dp.emails = append(dp.emails, email)
}

func (dp *DataPool) TakeRandomAppointment(rng *rand.Rand) (uuid.UUID, bool) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	if len(dp.appointments) == 0 {
		return uuid.Nil, false
	}
	idx := rng.Intn(len(dp.appointments))
	id := dp.appointments[idx]
	dp.appointments = append(dp.appointments[:idx], dp.appointments[idx+1:]...)
	return id, true
}

func (dp *DataPool) GetRandomEmail(rng *rand.Rand) (string, bool) {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	if len(dp.emails) == 0 {
		return "", false
	}
	return dp.emails[rng.Intn(len(dp.emails))], true
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, success bool, conflict bool) {
	atomic.AddInt64(&om.Total, 1)
	if success {
		atomic.AddInt64(&om.Success, 1)
	} else if conflict {
		atomic.AddInt64(&om.Conflict, 1)
	} else {
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, min, max, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.Latencies) == 0 {
		return 0, 0, 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)

	sort.Slice(latencies, func(i, j int) bool {
		return latencies[i] < latencies[j]
	})

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	avg = sum / time.Duration(len(latencies))
	min = latencies[0]
	max = latencies[len(latencies)-1]

	p50Idx := len(latencies) * 50 / 100
	if p50Idx >= len(latencies) {
		p50Idx = len(latencies) - 1
	}
	p50 = latencies[p50Idx]

	p95Idx := len(latencies) * 95 / 100
	if p95Idx >= len(latencies) {
		p95Idx = len(latencies) - 1
	}
	p95 = latencies[p95Idx]

	return avg, min, max, p50, p95
}

type Metrics struct {
	Booking     OperationMetrics
	Cancel      OperationMetrics
	ListSlots   OperationMetrics
	ListByEmail OperationMetrics
}

type Simulator struct {
	config  SimConfig
	pool    *DataPool
	client  *http.Client
	metrics Metrics
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("simulator starting")

	cfg := loadConfig()
	if err := validateConfig(cfg); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	log.Printf("config: duration=%s workers=%d book=%.2f cancel=%.2f read=%.2f",
		cfg.Duration, cfg.Workers, cfg.BookRatio, cfg.CancelRatio, cfg.ReadRatio)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pgPool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pgPool.Close()

	dataPool, err := loadDataPool(ctx, pgPool, cfg)
	if err != nil {
		log.Fatalf("load data pool: %v", err)
	}

	log.Printf("loaded: %d open slots", len(dataPool.Slots))

	gofakeit.Seed(time.Now().UnixNano())

	sim := &Simulator{
		config: cfg,
		pool:   dataPool,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	sim.Run()
	sim.PrintReport()

	if err := auditConsistency(context.Background(), pgPool); err != nil {
		log.Fatalf("consistency audit FAILED: %v", err)
	}
	log.Println("consistency audit passed: no double bookings, no orphaned flags")
}

func loadConfig() SimConfig {
	baseCfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load base config: %v", err)
	}

	cfg := SimConfig{
		APIBaseURL:  getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Duration:    getDuration("SIM_DURATION", 30*time.Second),
		Workers:     getInt("SIM_WORKERS", 10),
		BookRatio:   getFloat("SIM_BOOK_RATIO", 0.5),
		CancelRatio: getFloat("SIM_CANCEL_RATIO", 0.2),
		ReadRatio:   getFloat("SIM_READ_RATIO", 0.3),
		SlotLimit:   getInt("SIM_SLOT_LIMIT", 500),
		PostgresDSN: baseCfg.PostgresDSN,
	}

	// Normalize ratios
	total := cfg.BookRatio + cfg.CancelRatio + cfg.ReadRatio
	if total > 0 {
		cfg.BookRatio /= total
		cfg.CancelRatio /= total
		cfg.ReadRatio /= total
	}

	return cfg
}

func validateConfig(cfg SimConfig) error {
	if cfg.PostgresDSN == "" {
		return fmt.Errorf("POSTGRES_DSN is required (set in .env or environment)")
	}
	if cfg.Workers <= 0 {
		return fmt.Errorf("SIM_WORKERS must be > 0")
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("SIM_DURATION must be > 0")
	}
	return nil
}

func loadDataPool(ctx context.Context, pool *pgxpool.Pool, cfg SimConfig) (*DataPool, error) {
	dataPool := &DataPool{}

	rows, err := pool.Query(ctx, `
		SELECT id FROM appointment_slots
		WHERE is_booked = false AND date_time > now()
		LIMIT $1
	`, cfg.SlotLimit)
	if err != nil {
		return nil, fmt.Errorf("load slots: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		dataPool.Slots = append(dataPool.Slots, id)
	}

	if len(dataPool.Slots) == 0 {
		return nil, fmt.Errorf("no open slots loaded, run cmd/seed first")
	}

	return dataPool, nil
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	log.Printf("starting simulation for %s with %d workers", s.config.Duration, s.config.Workers)

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	log.Println("simulation complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))

	for {
		select {
		case <-ctx.Done():
			return
		default:
			r := rng.Float64()
			if r < s.config.BookRatio {
				s.doBooking(ctx, rng)
			} else if r < s.config.BookRatio+s.config.CancelRatio {
				s.doCancel(ctx, rng)
			} else {
				if rng.Intn(2) == 0 {
					s.doListSlots(ctx)
				} else {
					s.doListByEmail(ctx, rng)
				}
			}
		}
	}
}

func (s *Simulator) doBooking(ctx context.Context, rng *rand.Rand) {
	if len(s.pool.Slots) == 0 {
		return
	}

	slotID := s.pool.Slots[rng.Intn(len(s.pool.Slots))]
	email := gofakeit.Email()

	start := time.Now()

	reqBody := map[string]string{
		"name":   gofakeit.Name(),
		"email":  email,
		"slotId": slotID.String(),
	}
	body, _ := json.Marshal(reqBody)

	req, _ := http.NewRequestWithContext(ctx, "POST", s.config.APIBaseURL+"/api/appointments", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success := false
	conflict := false

	if err == nil {
		defer resp.Body.Close()

		switch resp.StatusCode {
		case http.StatusCreated:
			success = true
			var apptResp struct {
				ID uuid.UUID `json:"id"`
			}
			bodyBytes, _ := io.ReadAll(resp.Body)
			if len(bodyBytes) > 0 {
				json.Unmarshal(bodyBytes, &apptResp)
				if apptResp.ID != uuid.Nil {
					s.pool.AddAppointment(apptResp.ID, email)
				}
			}
		case http.StatusBadRequest, http.StatusConflict:
			// already booked, or another worker holds the slot lock
			conflict = true
		}
	}

	s.metrics.Booking.Record(latency, success, conflict)
}

func (s *Simulator) doCancel(ctx context.Context, rng *rand.Rand) {
	apptID, ok := s.pool.TakeRandomAppointment(rng)
	if !ok {
		return
	}

	start := time.Now()

	req, _ := http.NewRequestWithContext(ctx, "DELETE",
		fmt.Sprintf("%s/api/appointments/%s", s.config.APIBaseURL, apptID.String()), nil)

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success := false
	conflict := false

	if err == nil {
		defer resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			success = true
		} else if resp.StatusCode == http.StatusNotFound {
			conflict = true
		}
	}

	s.metrics.Cancel.Record(latency, success, conflict)
}

func (s *Simulator) doListSlots(ctx context.Context) {
	start := time.Now()

	req, _ := http.NewRequestWithContext(ctx, "GET", s.config.APIBaseURL+"/api/slots", nil)

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success := false
	if err == nil {
		defer resp.Body.Close()
		success = resp.StatusCode == http.StatusOK
	}

	s.metrics.ListSlots.Record(latency, success, false)
}

func (s *Simulator) doListByEmail(ctx context.Context, rng *rand.Rand) {
	email, ok := s.pool.GetRandomEmail(rng)
	if !ok {
		return
	}

	start := time.Now()

	req, _ := http.NewRequestWithContext(ctx, "GET",
		fmt.Sprintf("%s/api/appointments/%s", s.config.APIBaseURL, email), nil)

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success := false
	if err == nil {
		defer resp.Body.Close()
		success = resp.StatusCode == http.StatusOK
	}

	s.metrics.ListByEmail.Record(latency, success, false)
}

// auditConsistency verifies the booking invariants directly in the
// database after the run.
func auditConsistency(ctx context.Context, pool *pgxpool.Pool) error {
	var doubled int
	err := pool.QueryRow(ctx, `
		SELECT count(*) FROM (
			SELECT slot_id FROM appointments GROUP BY slot_id HAVING count(*) > 1
		) d
	`).Scan(&doubled)
	if err != nil {
		return err
	}
	if doubled > 0 {
		return fmt.Errorf("%d slots hold more than one appointment", doubled)
	}

	var orphaned int
	err = pool.QueryRow(ctx, `
		SELECT count(*) FROM appointment_slots s
		WHERE s.is_booked = true
		  AND NOT EXISTS (SELECT 1 FROM appointments a WHERE a.slot_id = s.id)
	`).Scan(&orphaned)
	if err != nil {
		return err
	}
	if orphaned > 0 {
		return fmt.Errorf("%d slots flagged booked without an appointment", orphaned)
	}

	var stale int
	err = pool.QueryRow(ctx, `
		SELECT count(*) FROM appointments a
		JOIN appointment_slots s ON s.id = a.slot_id
		WHERE s.is_booked = false
	`).Scan(&stale)
	if err != nil {
		return err
	}
	if stale > 0 {
		return fmt.Errorf("%d appointments reference an unbooked slot", stale)
	}

	return nil
}

func (s *Simulator) PrintReport() {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("SIMULATION REPORT")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n", s.config.Workers)
	fmt.Println()

	printOperationReport("Booking", &s.metrics.Booking)
	printOperationReport("Cancel", &s.metrics.Cancel)
	printOperationReport("List Slots", &s.metrics.ListSlots)
	printOperationReport("List by Email", &s.metrics.ListByEmail)
}

func printOperationReport(name string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}

	success := atomic.LoadInt64(&om.Success)
	conflict := atomic.LoadInt64(&om.Conflict)
	errCount := atomic.LoadInt64(&om.Error)

	avg, min, max, p50, p95 := om.Stats()

	fmt.Printf("%s:\n", name)
	fmt.Printf("  Total: %d\n", total)
	fmt.Printf("  Success: %d (%.1f%%)\n", success, float64(success)/float64(total)*100)
	if conflict > 0 {
		fmt.Printf("  Conflicts: %d (%.1f%%)\n", conflict, float64(conflict)/float64(total)*100)
	}
	if errCount > 0 {
		fmt.Printf("  Errors: %d (%.1f%%)\n", errCount, float64(errCount)/float64(total)*100)
	}
	fmt.Printf("  Latency: avg=%s min=%s max=%s p50=%s p95=%s\n",
		avg.Round(time.Millisecond), min.Round(time.Millisecond), max.Round(time.Millisecond),
		p50.Round(time.Millisecond), p95.Round(time.Millisecond))
	fmt.Println()
}

// Helper functions

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
