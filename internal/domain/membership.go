package domain

import "time"

type MembershipType string

const (
	MembershipRegular  MembershipType = "REGULAR"
	MembershipAcademic MembershipType = "ACADEMIC"
	MembershipBusiness MembershipType = "BUSINESS"
)

func ValidMembershipType(t MembershipType) bool {
	switch t {
	case MembershipRegular, MembershipAcademic, MembershipBusiness:
		return true
	}
	return false
}

// Membership is a yearly-renewable standing independent of any single event.
type Membership struct {
	ID          int32          `json:"id"`
	UserID      int32          `json:"user_id"`
	Type        MembershipType `json:"type"`
	Until       int32          `json:"until"`
	PaymentID   *int32         `json:"payment_id,omitempty"`
	MailingList bool           `json:"mailing_list"`
	CreatedOn   time.Time      `json:"created_on"`
	UpdatedOn   time.Time      `json:"updated_on"`
}

// ActiveIn reports whether the membership covers the given year.
func (m *Membership) ActiveIn(year int) bool {
	return int32(year) <= m.Until
}
