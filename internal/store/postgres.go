// Package store provides storage backends for HealthMate.
//
// This file implements the PostgreSQL-backed record store.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	_ "embed"

	"github.com/carebridge/healthmate/internal/models"
	_ "github.com/lib/pq"
)

//go:embed migrations_postgres.sql
var postgresMigrations string

// PostgresStore implements Store on top of a PostgreSQL database.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL store from a connection string.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	if _, err := db.Exec(postgresMigrations); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres store opened")

	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) GetProfile(identity string) (*models.Profile, error) {
	var p models.Profile
	err := s.db.QueryRow(`SELECT identity, name, age, sex, height_cm, weight_kg, bmi, medical_history, created_at, updated_at
		FROM profiles WHERE identity = $1`, identity).Scan(
		&p.Identity, &p.Name, &p.Age, &p.Sex, &p.HeightCm, &p.WeightKg, &p.BMI, &p.MedicalHistory, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetProfile failed", "error", err, "identity", identity)
		return nil, fmt.Errorf("failed to query profile for %s: %w", identity, err)
	}
	return &p, nil
}

func (s *PostgresStore) SaveProfile(p models.Profile) error {
	_, err := s.db.Exec(`INSERT INTO profiles
		(identity, name, age, sex, height_cm, weight_kg, bmi, medical_history, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (identity) DO UPDATE SET
			name = EXCLUDED.name, age = EXCLUDED.age, sex = EXCLUDED.sex,
			height_cm = EXCLUDED.height_cm, weight_kg = EXCLUDED.weight_kg,
			bmi = EXCLUDED.bmi, medical_history = EXCLUDED.medical_history,
			updated_at = EXCLUDED.updated_at`,
		p.Identity, p.Name, p.Age, p.Sex, p.HeightCm, p.WeightKg, p.BMI, p.MedicalHistory, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		slog.Error("PostgresStore SaveProfile failed", "error", err, "identity", p.Identity)
		return fmt.Errorf("failed to save profile for %s: %w", p.Identity, err)
	}
	slog.Debug("PostgresStore SaveProfile succeeded", "identity", p.Identity)
	return nil
}

func (s *PostgresStore) SaveAssessment(a models.Assessment) error {
	data, err := json.Marshal(a.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal assessment data: %w", err)
	}
	_, err = s.db.Exec(`INSERT INTO assessments (id, identity, score, data, recommendation, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID, a.Identity, a.Score, string(data), a.Recommendation, a.CreatedAt)
	if err != nil {
		slog.Error("PostgresStore SaveAssessment failed", "error", err, "identity", a.Identity)
		return fmt.Errorf("failed to save assessment for %s: %w", a.Identity, err)
	}
	return nil
}

func (s *PostgresStore) LatestAssessment(identity string) (*models.Assessment, error) {
	var a models.Assessment
	var dataJSON string
	err := s.db.QueryRow(`SELECT id, identity, score, data, recommendation, created_at
		FROM assessments WHERE identity = $1 ORDER BY created_at DESC LIMIT 1`, identity).Scan(
		&a.ID, &a.Identity, &a.Score, &dataJSON, &a.Recommendation, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore LatestAssessment failed", "error", err, "identity", identity)
		return nil, fmt.Errorf("failed to query assessment for %s: %w", identity, err)
	}
	if dataJSON != "" {
		a.Data = make(map[string]string)
		if err := json.Unmarshal([]byte(dataJSON), &a.Data); err != nil {
			slog.Error("PostgresStore LatestAssessment unmarshal failed", "error", err, "identity", identity)
			a.Data = make(map[string]string)
		}
	}
	return &a, nil
}

func (s *PostgresStore) SaveDiagnosis(d models.Diagnosis) error {
	_, err := s.db.Exec(`INSERT INTO diagnoses (id, identity, symptoms, result, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		d.ID, d.Identity, d.Symptoms, d.Result, d.CreatedAt)
	if err != nil {
		slog.Error("PostgresStore SaveDiagnosis failed", "error", err, "identity", d.Identity)
		return fmt.Errorf("failed to save diagnosis for %s: %w", d.Identity, err)
	}
	return nil
}

func (s *PostgresStore) SaveFitnessPlan(p models.FitnessPlan) error {
	_, err := s.db.Exec(`INSERT INTO fitness_plans (id, identity, goals, frequency, equipment, plan, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.Identity, p.Goals, p.Frequency, p.Equipment, p.Plan, p.CreatedAt)
	if err != nil {
		slog.Error("PostgresStore SaveFitnessPlan failed", "error", err, "identity", p.Identity)
		return fmt.Errorf("failed to save fitness plan for %s: %w", p.Identity, err)
	}
	return nil
}

func (s *PostgresStore) SaveMealPlan(p models.MealPlan) error {
	_, err := s.db.Exec(`INSERT INTO meal_plans (id, identity, preferences, allergies, frequency, plan, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.Identity, p.Preferences, p.Allergies, p.Frequency, p.Plan, p.CreatedAt)
	if err != nil {
		slog.Error("PostgresStore SaveMealPlan failed", "error", err, "identity", p.Identity)
		return fmt.Errorf("failed to save meal plan for %s: %w", p.Identity, err)
	}
	return nil
}

func (s *PostgresStore) SaveCycleData(c models.CycleData) error {
	_, err := s.db.Exec(`INSERT INTO cycle_data
		(id, identity, last_period, cycle_length, next_period, ovulation, fertile_start, fertile_end, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		c.ID, c.Identity, c.LastPeriod, c.CycleLength, c.NextPeriod, c.Ovulation, c.FertileStart, c.FertileEnd, c.CreatedAt)
	if err != nil {
		slog.Error("PostgresStore SaveCycleData failed", "error", err, "identity", c.Identity)
		return fmt.Errorf("failed to save cycle data for %s: %w", c.Identity, err)
	}
	return nil
}

// Close closes the PostgreSQL database connection.
func (s *PostgresStore) Close() error {
	err := s.db.Close()
	if err != nil {
		slog.Error("Failed to close Postgres database", "error", err)
	}
	return err
}
