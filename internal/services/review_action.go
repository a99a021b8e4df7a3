package services

import (
	"strings"

	apierrors "github.com/yukikurage/solver-marketplace-api/internal/errors"
)

// ReviewAction is the verdict on a request or a submitted task.
type ReviewAction string

const (
	ActionAccept ReviewAction = "ACCEPT"
	ActionReject ReviewAction = "REJECT"
)

// ParseReviewAction accepts ACCEPT or REJECT in any case.
func ParseReviewAction(raw string) (ReviewAction, error) {
	switch action := ReviewAction(strings.ToUpper(strings.TrimSpace(raw))); action {
	case ActionAccept, ActionReject:
		return action, nil
	}
	return "", apierrors.Validation("action must be ACCEPT or REJECT")
}
