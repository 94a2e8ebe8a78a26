package session

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// clipboardCommands returns the platform's clipboard read and write
// commands as argv slices.
func clipboardCommands(goos string) (read, write []string, err error) {
	switch goos {
	case "darwin":
		return []string{"pbpaste"}, []string{"pbcopy"}, nil
	case "linux":
		return []string{"xclip", "-selection", "clipboard", "-o"},
			[]string{"xclip", "-selection", "clipboard"}, nil
	case "windows":
		return []string{"powershell", "-NoProfile", "-Command", "Get-Clipboard"},
			[]string{"clip"}, nil
	default:
		return nil, nil, fmt.Errorf("clipboard not supported on %s", goos)
	}
}

func readClipboard() (string, error) {
	read, _, err := clipboardCommands(runtime.GOOS)
	if err != nil {
		return "", err
	}

	out, err := exec.Command(read[0], read[1:]...).Output()
	if err != nil {
		return "", fmt.Errorf("failed to read clipboard with %s: %w", read[0], err)
	}
	return string(out), nil
}

func writeClipboard(s string) error {
	_, write, err := clipboardCommands(runtime.GOOS)
	if err != nil {
		return err
	}

	cmd := exec.Command(write[0], write[1:]...)
	cmd.Stdin = strings.NewReader(s)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to write clipboard with %s: %w", write[0], err)
	}
	return nil
}
