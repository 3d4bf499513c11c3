package tui

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// releasesURL is queried once at startup for a newer CLI build.
var releasesURL = "https://api.github.com/repos/aada-edu/aada/releases/latest"

// versionCheckMsg carries the result of the background release check.
type versionCheckMsg struct {
	latestVersion string
	hasUpdate     bool
}

// checkVersion asks GitHub for the latest release. It is skipped for dev
// builds and every failure reads as "no update".
func checkVersion(current string) tea.Cmd {
	if current == "" || current == "dev" {
		return nil
	}
	url := releasesURL
	return func() tea.Msg {
		hc := &http.Client{Timeout: 5 * time.Second}
		resp, err := hc.Get(url)
		if err != nil {
			return versionCheckMsg{}
		}
		defer resp.Body.Close() //nolint:errcheck
		if resp.StatusCode != http.StatusOK {
			return versionCheckMsg{}
		}
		var release struct {
			TagName string `json:"tag_name"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
			return versionCheckMsg{}
		}
		latest := strings.TrimPrefix(release.TagName, "v")
		if isNewerVersion(latest, current) {
			return versionCheckMsg{latestVersion: "v" + latest, hasUpdate: true}
		}
		return versionCheckMsg{}
	}
}

// isNewerVersion compares dotted major.minor.patch strings; a leading "v"
// and non-numeric parts are tolerated.
func isNewerVersion(latest, current string) bool {
	l := parseVersion(latest)
	c := parseVersion(current)
	for i := range l {
		if l[i] != c[i] {
			return l[i] > c[i]
		}
	}
	return false
}

func parseVersion(v string) [3]int {
	var out [3]int
	parts := strings.SplitN(strings.TrimPrefix(v, "v"), ".", 3)
	for i, p := range parts {
		out[i], _ = strconv.Atoi(p) //nolint:errcheck
	}
	return out
}
