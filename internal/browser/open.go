// Package browser opens web pages in the user's default browser.
package browser

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
)

// start launches the opener without waiting for it. Tests replace it.
var start = func(name string, args ...string) error {
	return exec.Command(name, args...).Start()
}

// Command returns the program and arguments that open rawURL on goos.
func Command(goos, rawURL string) (string, []string, error) {
	switch goos {
	case "darwin":
		return "open", []string{rawURL}, nil
	case "linux", "freebsd", "openbsd", "netbsd":
		return "xdg-open", []string{rawURL}, nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", rawURL}, nil
	default:
		return "", nil, fmt.Errorf("unsupported OS: %s", goos)
	}
}

// Open opens an http(s) URL in the user's default browser.
func Open(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("refusing to open %q: not an http(s) URL", rawURL)
	}
	name, args, err := Command(runtime.GOOS, u.String())
	if err != nil {
		return err
	}
	return start(name, args...)
}
