// Package permission decides whether tool calls may run, pause for the
// operator, or are refused outright.
package permission

import (
	"context"
	"fmt"
	"sync"
)

// Mode is the session-wide permission mode.
type Mode string

const (
	// ModeFullAutonomous allows every call without pausing.
	ModeFullAutonomous Mode = "full_autonomous"

	// ModeManualApproval allows safe calls and pauses for everything else.
	ModeManualApproval Mode = "manual_approval"

	// ModeDenyAll allows safe calls and denies everything else.
	ModeDenyAll Mode = "deny_all"
)

// ParseMode validates a config-supplied mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeFullAutonomous, ModeManualApproval, ModeDenyAll:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// Risk classifies a tool's effect. It is declared on the tool descriptor,
// never derived from arguments.
type Risk string

const (
	RiskSafe        Risk = "safe"
	RiskMutating    Risk = "mutating"
	RiskDestructive Risk = "destructive"
	RiskNetwork     Risk = "network"
)

// Verdict is the outcome of an authorization check.
type Verdict int

const (
	VerdictAllow Verdict = iota
	VerdictDeny
	VerdictAsk
)

func (v Verdict) String() string {
	switch v {
	case VerdictAllow:
		return "allow"
	case VerdictDeny:
		return "deny"
	case VerdictAsk:
		return "ask"
	default:
		return "unknown"
	}
}

// Decision pairs a verdict with a reason for denials.
type Decision struct {
	Verdict Verdict
	Reason  string
}

// Decide maps (mode, risk) to a decision. It is a pure function: no
// argument inspection, no history, no heuristics.
func Decide(mode Mode, risk Risk) Decision {
	switch mode {
	case ModeFullAutonomous:
		return Decision{Verdict: VerdictAllow}
	case ModeManualApproval:
		if risk == RiskSafe {
			return Decision{Verdict: VerdictAllow}
		}
		return Decision{Verdict: VerdictAsk}
	case ModeDenyAll:
		if risk == RiskSafe {
			return Decision{Verdict: VerdictAllow}
		}
		return Decision{
			Verdict: VerdictDeny,
			Reason:  fmt.Sprintf("%s tools are not permitted in deny_all mode", risk),
		}
	default:
		return Decision{
			Verdict: VerdictDeny,
			Reason:  fmt.Sprintf("unknown permission mode %q", mode),
		}
	}
}

// Resolution is the operator's answer to a pending approval.
type Resolution struct {
	Approved bool
	Reason   string
}

// Gate authorizes calls under the session mode and owns the single
// pending-approval slot. At most one call may wait for the operator at a
// time; a second authorization attempt fails with ErrApprovalPending
// until the first resolves.
type Gate struct {
	mode Mode

	mu      sync.Mutex
	pending *pendingAsk
}

type pendingAsk struct {
	callID   string
	done     chan Resolution
	resolved bool
}

// NewGate creates a gate for the given mode.
func NewGate(mode Mode) *Gate {
	return &Gate{mode: mode}
}

// Mode returns the session mode.
func (g *Gate) Mode() Mode {
	return g.mode
}

// Authorize checks one call. On VerdictAsk the call is registered as
// pending and the caller must block in Await until the operator resolves
// it. Calls arriving while another is pending are not authorized.
func (g *Gate) Authorize(callID string, risk Risk) (Decision, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.pending != nil {
		return Decision{}, fmt.Errorf("%w: call %s", ErrApprovalPending, g.pending.callID)
	}

	decision := Decide(g.mode, risk)
	if decision.Verdict == VerdictAsk {
		g.pending = &pendingAsk{
			callID: callID,
			done:   make(chan Resolution, 1),
		}
	}
	return decision, nil
}

// PendingCallID reports the call waiting for the operator, if any.
func (g *Gate) PendingCallID() (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pending == nil {
		return "", false
	}
	return g.pending.callID, true
}

// Await blocks until the pending call is approved or rejected, or the
// context is cancelled. Either way the pending slot is cleared. A
// resolution that arrived before Await is not lost: the answer is buffered
// until consumed here.
func (g *Gate) Await(ctx context.Context) (Resolution, error) {
	g.mu.Lock()
	pending := g.pending
	g.mu.Unlock()
	if pending == nil {
		return Resolution{}, ErrNoPendingApproval
	}

	select {
	case res := <-pending.done:
		g.clear(pending)
		return res, nil
	case <-ctx.Done():
		g.clear(pending)
		return Resolution{}, ctx.Err()
	}
}

// Approve resolves the pending call affirmatively.
func (g *Gate) Approve(callID string) error {
	return g.resolve(callID, Resolution{Approved: true})
}

// Reject resolves the pending call negatively with an operator reason.
func (g *Gate) Reject(callID, reason string) error {
	return g.resolve(callID, Resolution{Approved: false, Reason: reason})
}

func (g *Gate) resolve(callID string, res Resolution) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.pending == nil || g.pending.resolved {
		return ErrNoPendingApproval
	}
	if g.pending.callID != callID {
		return fmt.Errorf("%w: pending %s, got %s", ErrWrongCall, g.pending.callID, callID)
	}
	g.pending.resolved = true
	g.pending.done <- res
	return nil
}

func (g *Gate) clear(pending *pendingAsk) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pending == pending {
		g.pending = nil
	}
}
