package push

import (
	"context"

	"go.uber.org/zap"
)

// AuthorizationStatus is the OS's answer to a notification permission
// prompt.
type AuthorizationStatus int

const (
	AuthorizationNotDetermined AuthorizationStatus = iota
	AuthorizationDenied
	AuthorizationAuthorized
	AuthorizationProvisional
)

func (s AuthorizationStatus) String() string {
	switch s {
	case AuthorizationNotDetermined:
		return "not_determined"
	case AuthorizationDenied:
		return "denied"
	case AuthorizationAuthorized:
		return "authorized"
	case AuthorizationProvisional:
		return "provisional"
	default:
		return "unknown"
	}
}

// PermissionRequester is the OS capability that shows the permission
// prompt.
type PermissionRequester interface {
	RequestPermission(ctx context.Context) (AuthorizationStatus, error)
}

// PermissionManager interprets the OS permission outcome. Stateless beyond
// the prompt itself; a denial is a valid terminal outcome, not an error.
type PermissionManager struct {
	log *zap.Logger
	os  PermissionRequester
}

func NewPermissionManager(log *zap.Logger, os PermissionRequester) *PermissionManager {
	return &PermissionManager{
		log: log,
		os:  os,
	}
}

// Request prompts for notification permission. Both full and provisional
// authorization count as granted; everything else does not.
func (p *PermissionManager) Request(ctx context.Context) (bool, error) {
	status, err := p.os.RequestPermission(ctx)
	if err != nil {
		return false, err
	}

	granted := status == AuthorizationAuthorized || status == AuthorizationProvisional
	if granted {
		p.log.Info("Notification permission granted", zap.String("status", status.String()))
	} else {
		p.log.Info("Notification permission declined", zap.String("status", status.String()))
	}

	return granted, nil
}
