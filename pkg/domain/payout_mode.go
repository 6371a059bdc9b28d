package domain

import dErrors "payflow/pkg/domain-errors"

// PayoutMode is the disbursement rail for a payout.
// Invariant: the value must be one of the supported modes.
type PayoutMode string

const (
	ModeUPI  PayoutMode = "UPI"
	ModeIMPS PayoutMode = "IMPS"
	ModeNEFT PayoutMode = "NEFT"
)

var validPayoutModes = map[PayoutMode]bool{
	ModeUPI:  true,
	ModeIMPS: true,
	ModeNEFT: true,
}

// ParsePayoutMode constructs a PayoutMode from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or unsupported.
func ParsePayoutMode(s string) (PayoutMode, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "mode cannot be empty")
	}
	m := PayoutMode(s)
	if !m.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid mode")
	}
	return m, nil
}

// IsValid checks the mode against the supported enum values.
func (m PayoutMode) IsValid() bool {
	return validPayoutModes[m]
}

func (m PayoutMode) String() string { return string(m) }
