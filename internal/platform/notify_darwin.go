//go:build darwin

package platform

import (
	"fmt"
	"os/exec"
)

// Notify displays a notification through Notification Center. The preview
// image is not supported by osascript and is ignored.
func Notify(title, body string, opts Options) error {
	script := fmt.Sprintf("display notification %q with title %q subtitle %q", body, opts.appName(), title)
	if title == opts.appName() {
		script = fmt.Sprintf("display notification %q with title %q", body, title)
	}
	return exec.Command("osascript", "-e", script).Run()
}
