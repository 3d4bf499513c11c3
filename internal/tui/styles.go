package tui

import (
	"fmt"
	"math"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aada-edu/aada/pkg/domain"
)

// Shimmer animation for the AADA logo.
type shimmerTickMsg time.Time

func shimmerTickCmd() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg {
		return shimmerTickMsg(t)
	})
}

// renderShimmerLogo renders "A A D A" as a slow wave of blue light.
// Deep navy (#1a2a4a) -> bright sky (#60a5fa).
func renderShimmerLogo(frame int) string {
	const text = "AADA"
	n := len(text)
	t := float64(frame)

	var out string
	for i := 0; i < n; i++ {
		x := float64(i) / float64(n-1)
		phase := t*0.1 - x*3.0 + math.Sin(t*0.023)*2.0

		b := math.Pow(math.Sin(phase)*0.5+0.5, 1.3)
		b = b*0.75 + math.Sin(t*0.035)*0.12 + 0.18
		if b > 1.0 {
			b = 1.0
		} else if b < 0.05 {
			b = 0.05
		}

		r := clampByte(26 + b*(96-26))
		g := clampByte(42 + b*(165-42))
		bl := clampByte(74 + b*(250-74))
		s := lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(fmt.Sprintf("#%02X%02X%02X", r, g, bl)))
		out += s.Render(string(text[i]))

		if i < n-1 {
			out += "  "
		}
	}
	return out
}

func clampByte(v float64) int {
	if v > 255 {
		return 255
	}
	if v < 0 {
		return 0
	}
	return int(v)
}

var (
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8890a0"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e4e4ec")).
			Bold(true)

	normalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#c0c4d0"))

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#505868"))

	helpKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8890a0"))

	helpLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#505868"))

	accentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#60a5fa"))

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e4e4ec")).
			Bold(true)

	sectionHeaderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#8890a0")).
				Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f44336"))

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4caf50"))

	checkOKStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4caf50"))

	checkPendingStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#666666"))

	selectedRowBg = lipgloss.NewStyle().Background(lipgloss.Color("#1e1e2a"))

	borderGrey = lipgloss.Color("#505868")
)

// Verification status colours.
var statusColors = map[domain.VerificationStatus]lipgloss.Color{
	domain.StatusApproved: lipgloss.Color("#4caf50"),
	domain.StatusRejected: lipgloss.Color("#f44336"),
	domain.StatusPending:  lipgloss.Color("#ff9800"),
}

// statusStyle colours a document by its verification status; unknown
// statuses render as pending.
func statusStyle(s domain.VerificationStatus) lipgloss.Style {
	c, ok := statusColors[s]
	if !ok {
		c = statusColors[domain.StatusPending]
	}
	return lipgloss.NewStyle().Foreground(c).Bold(true)
}

func statusIcon(s domain.VerificationStatus) string {
	switch s {
	case domain.StatusApproved:
		return "✓"
	case domain.StatusRejected:
		return "✗"
	default:
		return "◷"
	}
}

// cardStyle draws a rounded card whose border takes the given colour.
func cardStyle(c lipgloss.Color, width int) lipgloss.Style {
	s := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(c).
		Padding(0, 1)
	if width > 4 {
		s = s.Width(width - 4)
	}
	return s
}

var tuitionColors = map[string]lipgloss.Color{
	"past_due": lipgloss.Color("#ef5350"),
	"upcoming": lipgloss.Color("#81c784"),
	"balance":  lipgloss.Color("#bbdefb"),
}

var quizColors = map[string]lipgloss.Color{
	"not_started": lipgloss.Color("#8890a0"),
	"in_progress": lipgloss.Color("#ffca28"),
	"completed":   lipgloss.Color("#81c784"),
}

func helpEntry(key, label string) string {
	return helpKeyStyle.Render(key) + " " + helpLabelStyle.Render(label)
}
