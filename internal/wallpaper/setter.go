// Package wallpaper applies a background image through the desktop
// environment's own command line tools.
package wallpaper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// Setter sets the desktop background to the image at an absolute path and
// returns whatever the underlying tool printed.
type Setter interface {
	SetWallpaper(ctx context.Context, absPath string) (string, error)
}

// CommandSetter runs Name with Args, where every "{uri}" is replaced by the
// image's file:// URI and "{path}" by the plain path.
type CommandSetter struct {
	Name string
	Args []string
}

// FileURI returns the file:// URI for an absolute path.
func FileURI(absPath string) string {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(absPath)}
	return u.String()
}

func (c CommandSetter) SetWallpaper(ctx context.Context, absPath string) (string, error) {
	if !filepath.IsAbs(absPath) {
		return "", fmt.Errorf("wallpaper path %q is not absolute", absPath)
	}
	uri := FileURI(absPath)
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		a = strings.ReplaceAll(a, "{uri}", uri)
		args[i] = strings.ReplaceAll(a, "{path}", absPath)
	}

	cmd := exec.CommandContext(ctx, c.Name, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	return strings.TrimSpace(out.String()), err
}

var errUnsupported = errors.New("setting the wallpaper is not supported on this platform")

type unsupportedSetter struct{ goos string }

func (u unsupportedSetter) SetWallpaper(context.Context, string) (string, error) {
	return "", fmt.Errorf("%w (%s)", errUnsupported, u.goos)
}

// DefaultSetter returns the setter for the running platform.
func DefaultSetter() Setter {
	return setterFor(runtime.GOOS)
}

func setterFor(goos string) Setter {
	switch goos {
	case "linux", "freebsd", "openbsd", "netbsd":
		return CommandSetter{
			Name: "gsettings",
			Args: []string{"set", "org.gnome.desktop.background", "picture-uri", "{uri}"},
		}
	case "darwin":
		return CommandSetter{
			Name: "osascript",
			Args: []string{"-e", `tell application "System Events" to tell every desktop to set picture to POSIX file "{path}"`},
		}
	default:
		return unsupportedSetter{goos: goos}
	}
}
