package viewsync

import (
	"github.com/hrdesk/viewsync/internal"
)

// NotificationKind is the kind of a toast
type NotificationKind string

// Notification kinds
const (
	NotifySuccess NotificationKind = "success"
	NotifyError   NotificationKind = "error"
	NotifyWarning NotificationKind = "warning"
)

// Notifier shows toasts. The library only decides whether and what to
// notify; rendering is up to the Notifier.
type Notifier interface {
	Notify(kind NotificationKind, message string)
}

// NotifierFunc adapts a function to the Notifier interface
type NotifierFunc func(kind NotificationKind, message string)

// Notify implements the Notifier interface
func (f NotifierFunc) Notify(kind NotificationKind, message string) {
	f(kind, message)
}

type logNotifier struct{}

func (logNotifier) Notify(kind NotificationKind, message string) {
	internal.WithField("kind", string(kind)).Info(message)
}

// FieldErrors receives per-field validation errors of a mutation, e.g. to
// show them next to the form inputs. It returns false if it could not map
// the errors, in which case they are shown as toasts.
type FieldErrors interface {
	SetFieldErrors(fields map[string][]string) bool
}

// FieldErrorsFunc adapts a function to the FieldErrors interface
type FieldErrorsFunc func(fields map[string][]string) bool

// SetFieldErrors implements the FieldErrors interface
func (f FieldErrorsFunc) SetFieldErrors(fields map[string][]string) bool {
	return f(fields)
}
