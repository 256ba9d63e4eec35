//go:build linux

package clipboard

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/godbus/dbus/v5"
)

// readTimeout bounds every external clipboard read. Selection owners
// that stall (common under X11) must not stall a probe tick.
const readTimeout = 250 * time.Millisecond

// linuxAccessor reads the clipboard through the session's selection
// tool (wl-paste on Wayland, xclip on X11), falling back to Klipper
// over D-Bus for text when neither tool is present.
type linuxAccessor struct{}

func newPlatformAccessor() Accessor {
	return &linuxAccessor{}
}

func (a *linuxAccessor) wayland() bool {
	return os.Getenv("WAYLAND_DISPLAY") != ""
}

func (a *linuxAccessor) run(name string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), readTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (a *linuxAccessor) Formats() ([]string, error) {
	var out string
	var err error
	if a.wayland() {
		out, err = a.run("wl-paste", "--list-types")
	} else {
		out, err = a.run("xclip", "-selection", "clipboard", "-o", "-t", "TARGETS")
	}
	if err != nil {
		return nil, err
	}

	var formats []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			formats = append(formats, line)
		}
	}
	return formats, nil
}

func (a *linuxAccessor) readTarget(target string) (string, error) {
	if a.wayland() {
		return a.run("wl-paste", "--no-newline", "--type", target)
	}
	return a.run("xclip", "-selection", "clipboard", "-o", "-t", target)
}

func (a *linuxAccessor) ReadFileURLs() ([]string, error) {
	out, err := a.readTarget("text/uri-list")
	if err != nil {
		return nil, err
	}

	var urls []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(strings.TrimSpace(line), "\r")
		// uri-list comment lines start with '#'.
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	return urls, nil
}

func (a *linuxAccessor) ReadText() (string, error) {
	out, err := a.readTarget("UTF8_STRING")
	if err == nil {
		return out, nil
	}
	return a.klipperText()
}

func (a *linuxAccessor) ReadMarkup() (string, error) {
	return a.readTarget("text/html")
}

// klipperText asks KDE's clipboard manager for the current contents.
// Works even when no selection tool is installed.
func (a *linuxAccessor) klipperText() (string, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(context.Background(), readTimeout)
	defer cancel()

	obj := conn.Object("org.kde.klipper", "/klipper")
	call := obj.CallWithContext(ctx, "org.kde.klipper.klipper.getClipboardContents", 0)
	if call.Err != nil {
		return "", call.Err
	}

	var text string
	if err := call.Store(&text); err != nil {
		return "", err
	}
	if text == "" {
		return "", errors.New("klipper returned empty clipboard")
	}
	return text, nil
}
