package models

import "time"

// AttendanceCode is the ephemeral code an instructor issues for one session.
// Participants redeem it once each while it is live.
type AttendanceCode struct {
	StudyID   int64     `json:"studyId"`
	SessionID int64     `json:"sessionId"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// AttendanceRecord is one participant's check-in for one session.
type AttendanceRecord struct {
	SessionID     int64     `json:"sessionId"`
	MemberName    string    `json:"memberName"`
	StudentNumber string    `json:"studentNumber"`
	Present       bool      `json:"present"`
	CheckedAt     time.Time `json:"checkedAt"`
}
