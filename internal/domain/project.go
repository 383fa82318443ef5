package domain

import (
	"time"

	"github.com/google/uuid"
)

// Project groups tasks and members. LeadID is optional.
type Project struct {
	ID             uuid.UUID   `json:"id"`
	OrganizationID uuid.UUID   `json:"organization_id"`
	Name           string      `json:"name"`
	LeadID         *uuid.UUID  `json:"lead_id,omitempty"`
	MemberIDs      []uuid.UUID `json:"member_ids"`
	CreatedAt      time.Time   `json:"created_at"`
}

// HasMember reports whether userID belongs to the project. The lead
// always does.
func (p *Project) HasMember(userID uuid.UUID) bool {
	if p.LeadID != nil && *p.LeadID == userID {
		return true
	}
	for _, id := range p.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Comment is a message posted on a task.
type Comment struct {
	ID        uuid.UUID `json:"id"`
	TaskID    uuid.UUID `json:"task_id"`
	AuthorID  uuid.UUID `json:"author_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}
