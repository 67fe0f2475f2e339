package permission

import "errors"

var (
	ErrUnknownMode       = errors.New("unknown permission mode")
	ErrApprovalPending   = errors.New("another call is awaiting approval")
	ErrNoPendingApproval = errors.New("no call is awaiting approval")
	ErrWrongCall         = errors.New("resolution does not match pending call")
)
