// Package models defines the core data structures for HealthMate.
//
// It includes user profiles, assessment records, generated plans, and the
// message envelope types shared across modules.
package models

import (
	"errors"
	"time"
)

// Sex is the recorded sex attribute of a profile.
type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
	SexOther  Sex = "other"
)

// IsValidSex checks if the given sex value is one of the accepted enumeration values.
func IsValidSex(s Sex) bool {
	switch s {
	case SexMale, SexFemale, SexOther:
		return true
	default:
		return false
	}
}

// Error variables for better error handling and testability
var (
	ErrEmptyRecipient = errors.New("recipient cannot be empty")
	ErrEmptyBody      = errors.New("message body cannot be empty")
	ErrServiceStopped = errors.New("messaging service is stopped")
)

// Profile holds the identity data collected during onboarding.
type Profile struct {
	Identity       string    `json:"identity"` // canonical channel address, primary key
	Name           string    `json:"name"`
	Age            int       `json:"age"`
	Sex            Sex       `json:"sex"`
	HeightCm       float64   `json:"height_cm"`
	WeightKg       float64   `json:"weight_kg"`
	BMI            float64   `json:"bmi"`
	MedicalHistory string    `json:"medical_history,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Assessment holds one completed lifestyle assessment and its derived score.
type Assessment struct {
	ID             string            `json:"id"`
	Identity       string            `json:"identity"`
	Score          int               `json:"score"`
	Data           map[string]string `json:"data"` // validated answers keyed by step name
	Recommendation string            `json:"recommendation"`
	CreatedAt      time.Time         `json:"created_at"`
}

// Diagnosis records one symptom inquiry and the generated result.
type Diagnosis struct {
	ID        string    `json:"id"`
	Identity  string    `json:"identity"`
	Symptoms  string    `json:"symptoms"`
	Result    string    `json:"result"`
	CreatedAt time.Time `json:"created_at"`
}

// FitnessPlan records the answers of a fitness flow and the built plan text.
type FitnessPlan struct {
	ID        string    `json:"id"`
	Identity  string    `json:"identity"`
	Goals     string    `json:"goals"`
	Frequency int       `json:"frequency"` // workout days per week
	Equipment string    `json:"equipment"`
	Plan      string    `json:"plan"`
	CreatedAt time.Time `json:"created_at"`
}

// MealPlan records the answers of a meals flow and the built plan text.
type MealPlan struct {
	ID          string    `json:"id"`
	Identity    string    `json:"identity"`
	Preferences string    `json:"preferences"`
	Allergies   string    `json:"allergies"`
	Frequency   int       `json:"frequency"` // meals per day
	Plan        string    `json:"plan"`
	CreatedAt   time.Time `json:"created_at"`
}

// CycleData records one cycle computation.
type CycleData struct {
	ID           string    `json:"id"`
	Identity     string    `json:"identity"`
	LastPeriod   time.Time `json:"last_period"`
	CycleLength  int       `json:"cycle_length"` // days
	NextPeriod   time.Time `json:"next_period"`
	Ovulation    time.Time `json:"ovulation"`
	FertileStart time.Time `json:"fertile_start"`
	FertileEnd   time.Time `json:"fertile_end"`
	CreatedAt    time.Time `json:"created_at"`
}

// MessageStatus represents the delivery status of an outbound message.
type MessageStatus string

const (
	MessageStatusSent      MessageStatus = "sent"
	MessageStatusDelivered MessageStatus = "delivered"
	MessageStatusRead      MessageStatus = "read"
	MessageStatusFailed    MessageStatus = "failed"
)

// Receipt is a delivery/read receipt event from the messaging channel.
type Receipt struct {
	To     string        `json:"to"`
	Status MessageStatus `json:"status"`
	Time   int64         `json:"time"`
}

// Response represents an incoming message from a user.
type Response struct {
	From string `json:"from"`
	Body string `json:"body"`
	Time int64  `json:"time"`
}
