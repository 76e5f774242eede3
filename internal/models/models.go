package models

import (
	"fmt"
	"strings"
)

// Experience levels a reader can declare on signup. The raw string values are
// what the HTTP API accepts and what gets persisted.
type SoftwareExperience string

const (
	SoftwareBeginner     SoftwareExperience = "BEGINNER"
	SoftwareIntermediate SoftwareExperience = "INTERMEDIATE"
	SoftwareAdvanced     SoftwareExperience = "ADVANCED"
)

type HardwareExperience string

const (
	HardwareNone     HardwareExperience = "NONE"
	HardwareBasic    HardwareExperience = "BASIC"
	HardwareAdvanced HardwareExperience = "ADVANCED"
)

// MaxInterests bounds the interest tag list on a profile.
const MaxInterests = 10

func ParseSoftwareExperience(s string) (SoftwareExperience, error) {
	switch e := SoftwareExperience(strings.ToUpper(s)); e {
	case SoftwareBeginner, SoftwareIntermediate, SoftwareAdvanced:
		return e, nil
	}
	return "", fmt.Errorf("invalid software experience %q", s)
}

func ParseHardwareExperience(s string) (HardwareExperience, error) {
	switch e := HardwareExperience(strings.ToUpper(s)); e {
	case HardwareNone, HardwareBasic, HardwareAdvanced:
		return e, nil
	}
	return "", fmt.Errorf("invalid hardware experience %q", s)
}

// Rank orders software experience from 0 (beginner) upward.
func (e SoftwareExperience) Rank() int {
	switch e {
	case SoftwareIntermediate:
		return 1
	case SoftwareAdvanced:
		return 2
	}
	return 0
}

// Rank orders hardware experience from 0 (none) upward.
func (e HardwareExperience) Rank() int {
	switch e {
	case HardwareBasic:
		return 1
	case HardwareAdvanced:
		return 2
	}
	return 0
}

type Account struct {
	ID           int64  `json:"id" db:"id"`
	Email        string `json:"email" db:"email"`
	PasswordHash string `json:"-" db:"password_hash"`
	Active       bool   `json:"active" db:"active"`
	Created      int64  `json:"created" db:"created"`
	LastLogin    *int64 `json:"last_login,omitempty" db:"last_login"`
}

type Profile struct {
	ID                 int64              `json:"id" db:"id"`
	AccountID          int64              `json:"account_id" db:"account_id"`
	SoftwareExperience SoftwareExperience `json:"software_experience" db:"software_experience"`
	HardwareExperience HardwareExperience `json:"hardware_experience" db:"hardware_experience"`
	Interests          []string           `json:"interests" db:"interests"`
	Created            int64              `json:"created" db:"created"`
	Updated            int64              `json:"updated" db:"updated"`
}

// Session is one issued rotating credential. Only the SHA-256 hex of the
// credential is stored; the plaintext value leaves the process exactly once,
// in the response that minted it.
type Session struct {
	ID        int64   `json:"id" db:"id"`
	AccountID int64   `json:"account_id" db:"account_id"`
	TokenHash string  `json:"-" db:"token_hash"`
	ExpiresAt int64   `json:"expires_at" db:"expires_at"`
	UserAgent *string `json:"user_agent,omitempty" db:"user_agent"`
	IPAddress *string `json:"ip_address,omitempty" db:"ip_address"`
	Created   int64   `json:"created" db:"created"`
}

// QueryRecord is an answered question kept for analytics. AccountID is a weak
// reference: deleting the account clears it but keeps the record.
type QueryRecord struct {
	ID              int64   `json:"id" db:"id"`
	AccountID       *int64  `json:"account_id,omitempty" db:"account_id"`
	Question        string  `json:"question" db:"question"`
	Answer          string  `json:"answer" db:"answer"`
	Personalization *string `json:"personalization,omitempty" db:"personalization"`
	Created         int64   `json:"created" db:"created"`
}
