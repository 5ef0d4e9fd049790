// Package store provides storage backends for HealthMate.
//
// This file implements the SQLite-backed record store.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "embed"

	"github.com/carebridge/healthmate/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// DefaultDirPermissions defines the default permissions for database directories.
const DefaultDirPermissions = 0755

//go:embed migrations_sqlite.sql
var sqliteMigrations string

// SQLiteStore implements Store on top of an SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store. The DSN is a file path; its
// directory is created when missing.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(cfg.DSN)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	if _, err := db.Exec(sqliteMigrations); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite store opened", "path", cfg.DSN)

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) GetProfile(identity string) (*models.Profile, error) {
	var p models.Profile
	err := s.db.QueryRow(`SELECT identity, name, age, sex, height_cm, weight_kg, bmi, medical_history, created_at, updated_at
		FROM profiles WHERE identity = ?`, identity).Scan(
		&p.Identity, &p.Name, &p.Age, &p.Sex, &p.HeightCm, &p.WeightKg, &p.BMI, &p.MedicalHistory, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetProfile failed", "error", err, "identity", identity)
		return nil, fmt.Errorf("failed to query profile for %s: %w", identity, err)
	}
	return &p, nil
}

func (s *SQLiteStore) SaveProfile(p models.Profile) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO profiles
		(identity, name, age, sex, height_cm, weight_kg, bmi, medical_history, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Identity, p.Name, p.Age, p.Sex, p.HeightCm, p.WeightKg, p.BMI, p.MedicalHistory, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		slog.Error("SQLiteStore SaveProfile failed", "error", err, "identity", p.Identity)
		return fmt.Errorf("failed to save profile for %s: %w", p.Identity, err)
	}
	slog.Debug("SQLiteStore SaveProfile succeeded", "identity", p.Identity)
	return nil
}

func (s *SQLiteStore) SaveAssessment(a models.Assessment) error {
	data, err := json.Marshal(a.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal assessment data: %w", err)
	}
	_, err = s.db.Exec(`INSERT INTO assessments (id, identity, score, data, recommendation, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.Identity, a.Score, string(data), a.Recommendation, a.CreatedAt)
	if err != nil {
		slog.Error("SQLiteStore SaveAssessment failed", "error", err, "identity", a.Identity)
		return fmt.Errorf("failed to save assessment for %s: %w", a.Identity, err)
	}
	slog.Debug("SQLiteStore SaveAssessment succeeded", "identity", a.Identity, "score", a.Score)
	return nil
}

func (s *SQLiteStore) LatestAssessment(identity string) (*models.Assessment, error) {
	var a models.Assessment
	var dataJSON string
	err := s.db.QueryRow(`SELECT id, identity, score, data, recommendation, created_at
		FROM assessments WHERE identity = ? ORDER BY created_at DESC LIMIT 1`, identity).Scan(
		&a.ID, &a.Identity, &a.Score, &dataJSON, &a.Recommendation, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore LatestAssessment failed", "error", err, "identity", identity)
		return nil, fmt.Errorf("failed to query assessment for %s: %w", identity, err)
	}
	if dataJSON != "" {
		a.Data = make(map[string]string)
		if err := json.Unmarshal([]byte(dataJSON), &a.Data); err != nil {
			slog.Error("SQLiteStore LatestAssessment unmarshal failed", "error", err, "identity", identity)
			a.Data = make(map[string]string)
		}
	}
	return &a, nil
}

func (s *SQLiteStore) SaveDiagnosis(d models.Diagnosis) error {
	_, err := s.db.Exec(`INSERT INTO diagnoses (id, identity, symptoms, result, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		d.ID, d.Identity, d.Symptoms, d.Result, d.CreatedAt)
	if err != nil {
		slog.Error("SQLiteStore SaveDiagnosis failed", "error", err, "identity", d.Identity)
		return fmt.Errorf("failed to save diagnosis for %s: %w", d.Identity, err)
	}
	return nil
}

func (s *SQLiteStore) SaveFitnessPlan(p models.FitnessPlan) error {
	_, err := s.db.Exec(`INSERT INTO fitness_plans (id, identity, goals, frequency, equipment, plan, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Identity, p.Goals, p.Frequency, p.Equipment, p.Plan, p.CreatedAt)
	if err != nil {
		slog.Error("SQLiteStore SaveFitnessPlan failed", "error", err, "identity", p.Identity)
		return fmt.Errorf("failed to save fitness plan for %s: %w", p.Identity, err)
	}
	return nil
}

func (s *SQLiteStore) SaveMealPlan(p models.MealPlan) error {
	_, err := s.db.Exec(`INSERT INTO meal_plans (id, identity, preferences, allergies, frequency, plan, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Identity, p.Preferences, p.Allergies, p.Frequency, p.Plan, p.CreatedAt)
	if err != nil {
		slog.Error("SQLiteStore SaveMealPlan failed", "error", err, "identity", p.Identity)
		return fmt.Errorf("failed to save meal plan for %s: %w", p.Identity, err)
	}
	return nil
}

func (s *SQLiteStore) SaveCycleData(c models.CycleData) error {
	_, err := s.db.Exec(`INSERT INTO cycle_data
		(id, identity, last_period, cycle_length, next_period, ovulation, fertile_start, fertile_end, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Identity, c.LastPeriod, c.CycleLength, c.NextPeriod, c.Ovulation, c.FertileStart, c.FertileEnd, c.CreatedAt)
	if err != nil {
		slog.Error("SQLiteStore SaveCycleData failed", "error", err, "identity", c.Identity)
		return fmt.Errorf("failed to save cycle data for %s: %w", c.Identity, err)
	}
	return nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	err := s.db.Close()
	if err != nil {
		slog.Error("Failed to close SQLite database", "error", err)
	}
	return err
}
