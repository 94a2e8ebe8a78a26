package session

import (
	"testing"

	"github.com/shoenig/test/must"
)

func TestClipboardCommands(t *testing.T) {
	for goos, want := range map[string]struct {
		read  string
		write string
	}{
		"darwin":  {read: "pbpaste", write: "pbcopy"},
		"linux":   {read: "xclip", write: "xclip"},
		"windows": {read: "powershell", write: "clip"},
	} {
		read, write, err := clipboardCommands(goos)
		must.NoError(t, err, must.Sprintf("%s should have clipboard commands", goos))
		must.Eq(t, want.read, read[0])
		must.Eq(t, want.write, write[0])
	}

	_, _, err := clipboardCommands("plan9")
	must.Error(t, err)
}
