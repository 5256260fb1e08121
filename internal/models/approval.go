package models

import "time"

// Approval status constants. Transitions are one-way: pending moves to
// exactly one of the terminal states and never changes again.
const (
	ApprovalStatusPending      = "pending"
	ApprovalStatusApproved     = "approved"
	ApprovalStatusAutoApproved = "auto_approved"
	ApprovalStatusRejected     = "rejected"
)

// ApprovalEntry is a proposed action awaiting human sign-off.
type ApprovalEntry struct {
	ID            string
	ChannelID     string
	ActionRef     string
	Payload       string // proposed action as JSON
	Priority      int
	Status        string
	Urgent        bool
	AutoApproveAt *time.Time
	ApprovedBy    string
	ApprovedAt    *time.Time
	Reason        string
	CreatedAt     time.Time
}

// ApprovalPayload is the JSON body stored with a respond approval.
type ApprovalPayload struct {
	ItemID     int64  `json:"item_id"`
	RuleID     string `json:"rule_id"`
	VariantKey string `json:"variant_key,omitempty"`
	Text       string `json:"text"`
}
