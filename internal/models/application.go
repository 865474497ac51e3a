package models

import (
	"strings"
	"time"
)

// ApplicationStatus represents the review lifecycle of an application.
type ApplicationStatus string

const (
	ApplicationStatusPending  ApplicationStatus = "PENDING"
	ApplicationStatusApproved ApplicationStatus = "APPROVED"
	ApplicationStatusRejected ApplicationStatus = "REJECTED"
)

// Valid returns true when the status is a supported value.
func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationStatusPending, ApplicationStatusApproved, ApplicationStatusRejected:
		return true
	default:
		return false
	}
}

// ParseApplicationStatus case-normalises a raw status string from the API.
// Anything outside the known enum maps to the empty status, which callers
// treat as "no application".
func ParseApplicationStatus(raw string) ApplicationStatus {
	s := ApplicationStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if s.Valid() {
		return s
	}
	return ""
}

// Application captures one member's application to a study.
type Application struct {
	ID            int64             `json:"applicationId"`
	StudyID       int64             `json:"studyId"`
	ApplicantName string            `json:"applicantName"`
	PhoneNumber   string            `json:"phoneNumber"`
	StudentNumber string            `json:"studentNumber"`
	Reason        string            `json:"applicationReason"`
	Status        ApplicationStatus `json:"status"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}
