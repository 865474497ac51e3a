package models

import "time"

// Member is an approved participant as listed on the members view.
type Member struct {
	ID            int64     `json:"memberId"`
	Name          string    `json:"name"`
	StudentNumber string    `json:"studentNumber"`
	JoinedAt      time.Time `json:"joinedAt"`
}

// EnrollmentStatus is the session user's standing toward one study. The empty
// value means no application exists. It is derived from a dedicated status
// endpoint for review-based studies and inferred from role sets for
// first-come-first-served studies.
type EnrollmentStatus = ApplicationStatus
