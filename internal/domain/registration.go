package domain

import "time"

type RegistrationStatus string

const (
	RegistrationSubmitted      RegistrationStatus = "SUBMITTED"
	RegistrationSelected       RegistrationStatus = "SELECTED"
	RegistrationWaitlist       RegistrationStatus = "WAITLIST"
	RegistrationDeclined       RegistrationStatus = "DECLINED"
	RegistrationPaymentPending RegistrationStatus = "PAYMENT_PENDING"
	RegistrationRegistered     RegistrationStatus = "REGISTERED"
	RegistrationWithdrawn      RegistrationStatus = "WITHDRAWN"
	RegistrationCancelled      RegistrationStatus = "CANCELLED"
)

// registrationTransitions is the closed transition table. Anything not listed
// here is rejected; callers never write status values directly.
var registrationTransitions = map[RegistrationStatus][]RegistrationStatus{
	RegistrationSubmitted: {
		RegistrationSelected, RegistrationWaitlist, RegistrationDeclined,
		RegistrationWithdrawn, RegistrationCancelled,
	},
	RegistrationWaitlist: {
		RegistrationSelected, RegistrationDeclined,
		RegistrationWithdrawn, RegistrationCancelled,
	},
	RegistrationSelected: {
		RegistrationPaymentPending, RegistrationRegistered,
		RegistrationWithdrawn, RegistrationCancelled,
	},
	RegistrationDeclined: {
		RegistrationWithdrawn, RegistrationCancelled,
	},
	RegistrationPaymentPending: {
		RegistrationRegistered,
		RegistrationWithdrawn, RegistrationCancelled,
	},
	RegistrationRegistered: {
		RegistrationWithdrawn, RegistrationCancelled,
	},
	RegistrationWithdrawn: {},
	RegistrationCancelled: {},
}

// CanTransitionTo reports whether the status change is listed in the
// transition table.
func (s RegistrationStatus) CanTransitionTo(next RegistrationStatus) bool {
	for _, allowed := range registrationTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Active reports whether the registration still occupies the per-(event,user)
// uniqueness slot. Withdrawn and cancelled registrations free the slot.
func (s RegistrationStatus) Active() bool {
	return s != RegistrationWithdrawn && s != RegistrationCancelled
}

// Terminal reports whether no further transitions are possible.
func (s RegistrationStatus) Terminal() bool {
	return len(registrationTransitions[s]) == 0
}

type Registration struct {
	ID                int32              `json:"id"`
	EventID           int32              `json:"event_id"`
	UserID            int32              `json:"user_id"`
	OptionID          *int32             `json:"option_id,omitempty"`
	AddOnIDs          []int32            `json:"add_on_ids,omitempty"`
	Status            RegistrationStatus `json:"status"`
	SendUpdateEmails  bool               `json:"send_update_emails"`
	PaymentID         *int32             `json:"payment_id,omitempty"`
	ApplicationAnswer *string            `json:"application_answer,omitempty"`
	CreatedOn         time.Time          `json:"created_on"`
	UpdatedOn         time.Time          `json:"updated_on"`
}
