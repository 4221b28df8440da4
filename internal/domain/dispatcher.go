package domain

import "context"

//go:generate mockgen -source=dispatcher.go -destination=dispatcher_mock.go -package=domain

// Dispatcher delivers a push and returns the transport's message id.
// Failures wrap ErrInvalidToken or ErrDispatchTransient.
type Dispatcher interface {
	Send(ctx context.Context, n *Notification) (string, error)
}
