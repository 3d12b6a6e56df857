// Package identity resolves the local computer's display name and OS kind
// for the session handshake's hello message and the GUI's get_computer_name
// operation.
package identity

import (
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v3/host"

	"github.com/macwinctl/macwinctl/internal/model"
	"github.com/macwinctl/macwinctl/internal/logging"
)

var log = logging.L("identity")

// Kind returns this host's ComputerKind.
func Kind() model.ComputerKind {
	switch runtime.GOOS {
	case "darwin":
		return model.KindMac
	case "windows":
		return model.KindWindows
	default:
		return model.KindOther
	}
}

// Name resolves the human-friendly computer name. It prefers the same
// platform-native sources the original client used (scutil on macOS, the
// COMPUTERNAME environment convention on Windows) and falls back to
// gopsutil's cross-platform host info when those are unavailable, such as
// inside a minimal container.
func Name() string {
	if name, ok := platformName(); ok {
		return name
	}
	if info, err := host.Info(); err == nil && info.Hostname != "" {
		return info.Hostname
	}
	log.Warn("could not resolve computer name from any source")
	return "unknown"
}

func platformName() (string, bool) {
	switch runtime.GOOS {
	case "darwin":
		out, err := exec.Command("scutil", "--get", "ComputerName").Output()
		if err != nil {
			return "", false
		}
		name := strings.TrimSpace(string(out))
		return name, name != ""
	case "windows":
		name := strings.TrimSpace(os.Getenv("COMPUTERNAME"))
		return name, name != ""
	default:
		return "", false
	}
}
