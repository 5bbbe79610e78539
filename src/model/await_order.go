package model

import (
	"errors"
	"fmt"
	"time"
)

const AwaitStatusWaiting = "waiting"
const AwaitStatusProcessing = "processing"
const AwaitStatusCompleted = "completed"

const AwaitReasonAutoTakeProfit = "auto_take_profit"
const AwaitReasonUserRequestedClose = "user_requested_close"

// status only advances forward, completed is terminal
var awaitStatusFlow = map[string][]string{
	AwaitStatusWaiting:    {AwaitStatusProcessing},
	AwaitStatusProcessing: {AwaitStatusCompleted},
	AwaitStatusCompleted:  {},
}

// AwaitOrder is a durable sell intent. The decision engine enqueues it, the
// settlement sweep claims and completes it.
type AwaitOrder struct {
	Id           int64   `json:"id"`
	StrategyId   int64   `json:"strategyId"`
	Reason       string  `json:"reason"`
	TriggerPrice float64 `json:"triggerPrice"`
	Status       string  `json:"status"`
	CreatedAt    string  `json:"createdAt"`
	ClaimedAt    *string `json:"claimedAt"`
}

func (a *AwaitOrder) IsWaiting() bool {
	return a.Status == AwaitStatusWaiting
}

func (a *AwaitOrder) IsProcessing() bool {
	return a.Status == AwaitStatusProcessing
}

func (a *AwaitOrder) IsCompleted() bool {
	return a.Status == AwaitStatusCompleted
}

func (a *AwaitOrder) IsUserRequested() bool {
	return a.Reason == AwaitReasonUserRequestedClose
}

func (a *AwaitOrder) CanTransitionTo(status string) bool {
	allowed, ok := awaitStatusFlow[a.Status]

	if !ok {
		return false
	}

	for _, next := range allowed {
		if next == status {
			return true
		}
	}

	return false
}

func (a *AwaitOrder) TransitionTo(status string) error {
	if !a.CanTransitionTo(status) {
		return errors.New(fmt.Sprintf("await order %d: transition %s -> %s is not allowed", a.Id, a.Status, status))
	}

	a.Status = status

	return nil
}

// IsLeaseExpired reports whether a processing claim is older than the lease
// window and may be taken over by another sweep.
func (a *AwaitOrder) IsLeaseExpired(now time.Time, lease time.Duration) bool {
	if !a.IsProcessing() || a.ClaimedAt == nil {
		return false
	}

	claimedAt, err := time.Parse("2006-01-02 15:04:05", *a.ClaimedAt)
	if err != nil {
		return false
	}

	return now.Sub(claimedAt) > lease
}
