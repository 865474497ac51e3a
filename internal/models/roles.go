package models

// StudyRole classifies the session user's relationship to one study.
type StudyRole string

const (
	StudyRoleGuest       StudyRole = "GUEST"
	StudyRoleApplicant   StudyRole = "APPLICANT"
	StudyRoleParticipant StudyRole = "PARTICIPANT"
	StudyRoleInstructor  StudyRole = "INSTRUCTOR"
)

// StudyRoles holds the three role-id sets for the current session's user.
// The sets are disjoint by convention in steady state; overlap can appear
// transiently while caches converge after a membership mutation.
type StudyRoles struct {
	InstructorStudyIDs  []int64 `json:"instructorStudyIds"`
	ParticipantStudyIDs []int64 `json:"participantStudyIds"`
	AppliedStudyIDs     []int64 `json:"appliedStudyIds"`
}
