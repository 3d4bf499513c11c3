package tui

import (
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/aada-edu/aada/internal/wizard"
)

type personalField int

const (
	pFirstName personalField = iota
	pLastName
	pPhone
	pAddress1
	pAddress2
	pCity
	pState
	pZip
	pEmergencyName
	pEmergencyPhone
	numPersonalFields
)

var personalLabels = [numPersonalFields]string{
	"first name", "last name", "phone", "address", "address line 2 (optional)",
	"city", "state", "ZIP code", "emergency contact name", "emergency contact phone",
}

// fieldIndex maps a wizard.ValidationError field to the input that owns it.
var fieldIndex = map[string]personalField{
	"first_name":              pFirstName,
	"last_name":               pLastName,
	"phone":                   pPhone,
	"address_line1":           pAddress1,
	"city":                    pCity,
	"state":                   pState,
	"zip_code":                pZip,
	"emergency_contact_name":  pEmergencyName,
	"emergency_contact_phone": pEmergencyPhone,
}

// personalModel is step two of the wizard.
type personalModel struct {
	draft     *wizard.Draft
	fields    [numPersonalFields]string
	focus     personalField
	statusMsg string
}

func newPersonalModel(d *wizard.Draft) personalModel {
	m := personalModel{draft: d}
	if d != nil && d.Personal != nil {
		p := d.Personal
		m.fields = [numPersonalFields]string{
			p.FirstName, p.LastName, p.Phone, p.AddressLine1, p.AddressLine2,
			p.City, p.State, p.ZipCode, p.EmergencyContactName, p.EmergencyContactPhone,
		}
	}
	return m
}

func (m personalModel) info() wizard.PersonalInfo {
	f := m.fields
	return wizard.PersonalInfo{
		FirstName:             f[pFirstName],
		LastName:              f[pLastName],
		Phone:                 f[pPhone],
		AddressLine1:          f[pAddress1],
		AddressLine2:          f[pAddress2],
		City:                  f[pCity],
		State:                 f[pState],
		ZipCode:               f[pZip],
		EmergencyContactName:  f[pEmergencyName],
		EmergencyContactPhone: f[pEmergencyPhone],
	}
}

func (m personalModel) Update(msg tea.Msg) (personalModel, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "esc":
		return m, navigate(routeRegister, nil, "")
	case "ctrl+s":
		return m.submit()
	case "enter":
		if m.focus == numPersonalFields-1 {
			return m.submit()
		}
		m.focus++
	case "tab", "down":
		m.focus = (m.focus + 1) % numPersonalFields
	case "shift+tab", "up":
		m.focus = (m.focus - 1 + numPersonalFields) % numPersonalFields
	case "left", "right":
		if m.focus == pState {
			m.fields[pState] = cycleState(m.fields[pState], key.String() == "right")
		}
	default:
		m.statusMsg = ""
		if m.focus == pState {
			return m, nil
		}
		v := editRune(m.fields[m.focus], key.String())
		if m.focus == pPhone || m.focus == pEmergencyPhone {
			v = wizard.FormatPhone(v)
		}
		m.fields[m.focus] = v
	}
	return m, nil
}

func cycleState(current string, forward bool) string {
	states := wizard.States
	idx := -1
	for i, s := range states {
		if s == current {
			idx = i
			break
		}
	}
	switch {
	case idx < 0 && forward:
		return states[0]
	case idx < 0:
		return states[len(states)-1]
	case forward:
		return states[(idx+1)%len(states)]
	default:
		return states[(idx-1+len(states))%len(states)]
	}
}

func (m personalModel) submit() (personalModel, tea.Cmd) {
	next, err := wizard.SubmitPersonalInfo(m.draft, m.info())
	if errors.Is(err, wizard.ErrNoDraft) {
		return m, navigate(routeRegister, nil, "")
	}
	if err != nil {
		m.statusMsg = err.Error()
		var ve *wizard.ValidationError
		if errors.As(err, &ve) {
			if f, ok := fieldIndex[ve.Field]; ok {
				m.focus = f
			}
		}
		return m, nil
	}
	return m, navigate(routeUpload, next, "")
}

func (m personalModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Personal information") + "\n")
	b.WriteString(dimStyle.Render("Step 2 of 3") + "\n\n")

	for i := personalField(0); i < numPersonalFields; i++ {
		if i == pEmergencyName {
			b.WriteString("\n" + sectionHeaderStyle.Render("Emergency contact") + "\n")
		}
		if i == pState {
			v := m.fields[pState]
			if v == "" {
				v = "select"
			}
			cursor := " "
			style := metaStyle
			if m.focus == pState {
				cursor = accentStyle.Render(">")
				style = selectedStyle
			}
			b.WriteString(cursor + " " + style.Render("state") + ": " + accentStyle.Render("‹ "+v+" ›") + "\n")
			continue
		}
		b.WriteString(renderField(personalLabels[i], m.fields[i], m.focus == i, false) + "\n")
	}
	b.WriteString("\n" + renderStatus(false, "", m.statusMsg))
	return b.String()
}
