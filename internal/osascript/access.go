package osascript

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// AccessTimeout bounds the script run by CheckAccess.
const AccessTimeout = 5 * time.Second

// CheckAccess reports whether app can be scripted. Any failure (app missing,
// automation permission denied, app unlaunchable) yields false; the reason is
// not distinguished.
func CheckAccess(ctx context.Context, exec Executor, app string) bool {
	res := exec.Run(ctx, AccessScript(app), AccessTimeout)
	return res.Success
}

// AccessScript is the no-op script used by CheckAccess.
func AccessScript(app string) string {
	app = strings.ReplaceAll(app, `\`, `\\`)
	app = strings.ReplaceAll(app, `"`, `\"`)
	return fmt.Sprintf(`tell application "%s" to get name`, app)
}
