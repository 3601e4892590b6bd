package platform

import "time"

// defaultTimeout is how long a notification stays up when Options.Timeout is zero.
const defaultTimeout = 5 * time.Second

// Options configures how a notification is displayed on the host platform.
type Options struct {
	// AppName identifies the sender to the notification center.
	AppName string
	// IconPath points to an image shown with the notification, typically
	// a preview of the retouched page.
	IconPath string
	// Category is a freedesktop category hint such as "transfer.complete".
	Category string
	// Timeout overrides how long the notification is displayed.
	Timeout time.Duration
}

func (o Options) appName() string {
	if o.AppName == "" {
		return "toonretouch"
	}
	return o.AppName
}

// expireMillis converts the timeout into the milliseconds freedesktop expects.
func (o Options) expireMillis() int32 {
	d := o.Timeout
	if d <= 0 {
		d = defaultTimeout
	}
	return int32(d / time.Millisecond)
}
