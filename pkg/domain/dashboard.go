package domain

import "strconv"

// Quiz is a course quiz card on the dashboard.
type Quiz struct {
	Title  string
	Status string // "not_started", "in_progress", "completed"
	Score  int    // percent, completed quizzes only
}

// Job is a job-board listing.
type Job struct {
	Title    string
	Employer string
	Location string
}

// TuitionItem is a line on the tuition tab.
type TuitionItem struct {
	Label  string
	Detail string
	Kind   string // "past_due", "upcoming", "balance"
}

// The backend has no endpoints for these yet; the dashboard shows fixed content.
var (
	Quizzes = []Quiz{
		{Title: "Dental Anatomy Quiz", Status: "not_started"},
		{Title: "Chairside Assisting Quiz", Status: "in_progress"},
		{Title: "OSHA Guidelines Quiz", Status: "completed", Score: 90},
	}

	Jobs = []Job{
		{Title: "Dental Assistant", Employer: "Smile Dental", Location: "Atlanta, GA"},
		{Title: "Sterilization Tech", Employer: "Tooth & Co.", Location: "Marietta, GA"},
		{Title: "Front Desk Admin", Employer: "Clear Dental", Location: "Kennesaw, GA"},
	}

	Tuition = []TuitionItem{
		{Label: "Past Due", Detail: "$400 due on June 15", Kind: "past_due"},
		{Label: "Upcoming", Detail: "$500 due on July 10", Kind: "upcoming"},
		{Label: "Tuition Balance", Detail: "$2,100 remaining", Kind: "balance"},
	}
)

// StatusText renders a quiz status line.
func (q Quiz) StatusText() string {
	switch q.Status {
	case "completed":
		return "Status: Completed • Score: " + strconv.Itoa(q.Score) + "%"
	case "in_progress":
		return "Status: In Progress"
	default:
		return "Status: Not Started"
	}
}
