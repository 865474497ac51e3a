package models

// RecruitmentMethod controls how members join a study.
type RecruitmentMethod string

const (
	// RecruitmentFCFS auto-approves enrollment in arrival order.
	RecruitmentFCFS RecruitmentMethod = "FCFS"
	// RecruitmentApplication requires a written reason reviewed by the instructor.
	RecruitmentApplication RecruitmentMethod = "APPLICATION"
)

// Study represents a study group as served by the platform API.
type Study struct {
	ID                int64             `json:"studyId"`
	Title             string            `json:"title"`
	Category          string            `json:"category"`
	Level             string            `json:"level"`
	Introduction      string            `json:"introduction"`
	RecruitmentMethod RecruitmentMethod `json:"recruitmentMethod"`
	ParticipantCount  int               `json:"participantCount"`
	MaxParticipants   int               `json:"maxParticipants"`
	Schedule          string            `json:"schedule"`
	Curricula         []string          `json:"curricula"`
	Qualifications    []string          `json:"qualifications"`
	InstructorName    string            `json:"instructorName"`
}

// Unlimited reports whether the study accepts any number of participants.
func (s *Study) Unlimited() bool {
	return s.MaxParticipants == 0
}

// Full reports whether the study has reached capacity.
func (s *Study) Full() bool {
	return !s.Unlimited() && s.ParticipantCount >= s.MaxParticipants
}

// StudySummary is the list-view projection of a study.
type StudySummary struct {
	ID                int64             `json:"studyId"`
	Title             string            `json:"title"`
	Category          string            `json:"category"`
	Level             string            `json:"level"`
	RecruitmentMethod RecruitmentMethod `json:"recruitmentMethod"`
	ParticipantCount  int               `json:"participantCount"`
	MaxParticipants   int               `json:"maxParticipants"`
	InstructorName    string            `json:"instructorName"`
}
