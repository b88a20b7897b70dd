package constants

import (
	"database/sql/driver"
	"fmt"
)

// RoundStatus is the lifecycle state of a round.
type RoundStatus string

const (
	RoundActive    RoundStatus = "active"
	RoundCompleted RoundStatus = "completed"
	RoundCancelled RoundStatus = "cancelled"
)

// ApprovalState replaces the nullable approved flag: pending until a peer decides.
type ApprovalState string

const (
	ApprovalPending  ApprovalState = "pending"
	ApprovalApproved ApprovalState = "approved"
	ApprovalRejected ApprovalState = "rejected"
)

func (a ApprovalState) String() string { return string(a) }

// IsTerminal reports whether no further flagging or voting may change the state.
func (a ApprovalState) IsTerminal() bool { return a == ApprovalRejected }

/* ---------- DB adapters so sqlx (or database/sql) scans/values cleanly ---------- */

// Scan implements the sql.Scanner interface
func (a *ApprovalState) Scan(src interface{}) error {
	if src == nil {
		*a = ApprovalPending
		return nil
	}
	switch v := src.(type) {
	case string:
		*a = ApprovalState(v)
	case []byte:
		*a = ApprovalState(v)
	default:
		return fmt.Errorf("ApprovalState: cannot scan type %T", src)
	}
	return nil
}

// Value implements the driver.Valuer interface
func (a ApprovalState) Value() (driver.Value, error) { return string(a), nil }

type VoteKind string

const (
	VoteApproval       VoteKind = "approval"
	VoteFlagValidation VoteKind = "flag_validation"
)

// FlagVerdict records how a quorum settled a flag dispute. Empty while undecided.
type FlagVerdict string

const (
	FlagVerdictNone       FlagVerdict = ""
	FlagVerdictUpheld     FlagVerdict = "upheld"
	FlagVerdictOverturned FlagVerdict = "overturned"
)

type ProofType string

const (
	ProofText       ProofType = "text"
	ProofPhoto      ProofType = "photo"
	ProofScreenshot ProofType = "screenshot"
	ProofLink       ProofType = "link"
)

func (p ProofType) Valid() bool {
	switch p {
	case ProofText, ProofPhoto, ProofScreenshot, ProofLink:
		return true
	}
	return false
}

// StoresBlob reports whether raw proof bytes of this type go to blob storage.
func (p ProofType) StoresBlob() bool {
	return p == ProofPhoto || p == ProofScreenshot
}

func (p ProofType) FileExtension() string {
	if p == ProofPhoto {
		return "jpg"
	}
	return "png"
}

func (p ProofType) ContentType() string {
	if p == ProofPhoto {
		return "image/jpeg"
	}
	return "image/png"
}
