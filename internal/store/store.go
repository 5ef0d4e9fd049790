// Package store provides the persistent record store for HealthMate.
//
// It includes an in-memory store for tests and SQLite/PostgreSQL backends
// for production. Writes are fire-and-forget from the router's point of
// view; only GetProfile gates routing decisions.
package store

import (
	"sync"

	"github.com/carebridge/healthmate/internal/models"
)

// Store is the record store consumed by the router.
type Store interface {
	// GetProfile returns the stored profile, or nil when absent.
	GetProfile(identity string) (*models.Profile, error)
	// SaveProfile inserts or replaces the profile for its identity.
	SaveProfile(p models.Profile) error
	// SaveAssessment appends a completed assessment.
	SaveAssessment(a models.Assessment) error
	// LatestAssessment returns the most recent assessment, or nil when none.
	LatestAssessment(identity string) (*models.Assessment, error)
	// SaveDiagnosis appends a diagnosis record.
	SaveDiagnosis(d models.Diagnosis) error
	// SaveFitnessPlan appends a fitness plan record.
	SaveFitnessPlan(p models.FitnessPlan) error
	// SaveMealPlan appends a meal plan record.
	SaveMealPlan(p models.MealPlan) error
	// SaveCycleData appends a cycle computation record.
	SaveCycleData(c models.CycleData) error
	// Close releases any underlying resources.
	Close() error
}

// InMemoryStore is a mutex-guarded in-memory Store, used in tests and as a
// fallback when no DSN is configured.
type InMemoryStore struct {
	mu           sync.RWMutex
	profiles     map[string]models.Profile
	assessments  []models.Assessment
	diagnoses    []models.Diagnosis
	fitnessPlans []models.FitnessPlan
	mealPlans    []models.MealPlan
	cycleData    []models.CycleData
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{profiles: make(map[string]models.Profile)}
}

func (s *InMemoryStore) GetProfile(identity string) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[identity]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *InMemoryStore) SaveProfile(p models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.Identity] = p
	return nil
}

func (s *InMemoryStore) SaveAssessment(a models.Assessment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assessments = append(s.assessments, a)
	return nil
}

func (s *InMemoryStore) LatestAssessment(identity string) (*models.Assessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.assessments) - 1; i >= 0; i-- {
		if s.assessments[i].Identity == identity {
			a := s.assessments[i]
			return &a, nil
		}
	}
	return nil, nil
}

func (s *InMemoryStore) SaveDiagnosis(d models.Diagnosis) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.diagnoses = append(s.diagnoses, d)
	return nil
}

func (s *InMemoryStore) SaveFitnessPlan(p models.FitnessPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fitnessPlans = append(s.fitnessPlans, p)
	return nil
}

func (s *InMemoryStore) SaveMealPlan(p models.MealPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mealPlans = append(s.mealPlans, p)
	return nil
}

func (s *InMemoryStore) SaveCycleData(c models.CycleData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cycleData = append(s.cycleData, c)
	return nil
}

func (s *InMemoryStore) Close() error { return nil }

// Assessments returns all stored assessments (for tests).
func (s *InMemoryStore) Assessments() []models.Assessment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Assessment, len(s.assessments))
	copy(out, s.assessments)
	return out
}

// Diagnoses returns all stored diagnoses (for tests).
func (s *InMemoryStore) Diagnoses() []models.Diagnosis {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Diagnosis, len(s.diagnoses))
	copy(out, s.diagnoses)
	return out
}

// FitnessPlans returns all stored fitness plans (for tests).
func (s *InMemoryStore) FitnessPlans() []models.FitnessPlan {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.FitnessPlan, len(s.fitnessPlans))
	copy(out, s.fitnessPlans)
	return out
}

// MealPlans returns all stored meal plans (for tests).
func (s *InMemoryStore) MealPlans() []models.MealPlan {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.MealPlan, len(s.mealPlans))
	copy(out, s.mealPlans)
	return out
}

// CycleRecords returns all stored cycle computations (for tests).
func (s *InMemoryStore) CycleRecords() []models.CycleData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.CycleData, len(s.cycleData))
	copy(out, s.cycleData)
	return out
}
