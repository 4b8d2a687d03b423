package search

import (
	"time"

	"steeple/pkg/domain"
)

// MemberResult is one person row in a family search result, ordered adults
// before children.
type MemberResult struct {
	PersonID      domain.PersonID `json:"person_id"`
	Name          string          `json:"name"`
	Age           int             `json:"age"`
	Grade         string          `json:"grade,omitempty"`
	IsAdult       bool            `json:"is_adult"`
	HasAllergy    bool            `json:"has_allergy"`
	SpecialNeeds  bool            `json:"special_needs"`
	RecentCheckin bool            `json:"recent_checkin"`
	LastCheckinAt *time.Time      `json:"last_checkin_at,omitempty"`
}

// FamilyResult is one family in a phone or name search response.
type FamilyResult struct {
	FamilyID   domain.FamilyID `json:"family_id"`
	Name       string          `json:"name"`
	CampusName string          `json:"campus_name,omitempty"`
	Members    []MemberResult  `json:"members"`
}

// CodeResult resolves a security code to the checked-in child and their
// family. Nil when the code matched nothing issued today.
type CodeResult struct {
	AttendanceID domain.AttendanceID `json:"attendance_id"`
	Child        MemberResult        `json:"child"`
	Family       FamilyResult        `json:"family"`
	CheckedInAt  time.Time           `json:"checked_in_at"`
}
