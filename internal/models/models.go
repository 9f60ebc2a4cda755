package models

import (
	"fmt"
	"strings"
	"time"
)

// ProcessType is an enum for the workflow the operator is running
type ProcessType string

const (
	// ProcessShipping represents the outbound shipping workflow
	ProcessShipping ProcessType = "shipping"
	// ProcessReturn represents the return-intake workflow
	ProcessReturn ProcessType = "return"
	// ProcessDisposal represents the disposal workflow
	ProcessDisposal ProcessType = "disposal"
)

// ParseProcessType converts a user-supplied string into a ProcessType
func ParseProcessType(s string) (ProcessType, error) {
	switch ProcessType(strings.ToLower(strings.TrimSpace(s))) {
	case ProcessShipping:
		return ProcessShipping, nil
	case ProcessReturn:
		return ProcessReturn, nil
	case ProcessDisposal:
		return ProcessDisposal, nil
	}
	return "", fmt.Errorf("unknown process type %q (want shipping, return or disposal)", s)
}

// Company is an organization record fetched from the backend.
// Identity and equality are both keyed by ID.
type Company struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Group is a company subdivision fetched from the backend
type Group struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Location is a physical site within a group fetched from the backend
type Location struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// User is an operator account scraped from the backend login page.
// IDs are synthesized client-side from scrape order, so equality is
// by (Name, Email), never by Ordinal.
type User struct {
	Ordinal int    `json:"ordinal"`
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
}

// Equal reports whether two users refer to the same account
func (u User) Equal(o User) bool {
	return u.Name == o.Name && u.Email == o.Email
}

// ScanEvent is a single decoded label read delivered by the external
// camera/decoder collaborator
type ScanEvent struct {
	Code       string    `json:"code"`
	ObservedAt time.Time `json:"observed_at"`
	Source     string    `json:"source,omitempty"`
}

// ScannedItem is one successfully processed asset as reported by the
// backend; it is the row type of the in-memory session ledger
type ScannedItem struct {
	ManagementNumber string `json:"management_number"`
	Company          string `json:"company,omitempty"`
	Group            string `json:"group,omitempty"`
	Location         string `json:"location,omitempty"`
	Status           string `json:"status"`
}

// ScanResult is the backend's response to a status-update submission
type ScanResult struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Item    *ScannedItem `json:"item,omitempty"`
}
