package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/myway/internal/form"
	"github.com/five82/myway/internal/marker"
)

type fieldSpec struct {
	label       string
	placeholder string
}

var fieldSpecs = map[form.Field]fieldSpec{
	form.FieldName:      {"Name", "Ibirapuera Park"},
	form.FieldLatitude:  {"Latitude", "-23.5874"},
	form.FieldLongitude: {"Longitude", "-46.6576"},
	form.FieldColor:     {"Marker color", "#FF5733"},
	form.FieldCountry:   {"Country", "Brazil"},
	form.FieldCurrency:  {"Currency", "BRL"},
}

const labelWidth = 14

// openForm builds a controller for location, or a create-mode form when
// location is nil.
func (m *Model) openForm(location *marker.Marker) {
	deps := form.Deps{
		Navigator:      m.nav,
		Lookup:         m.lookup,
		RequireCountry: m.requireCountry,
		Logger:         m.logger,
	}
	if m.markers != nil {
		deps.Markers = m.markers
	}
	ctl := form.New(deps, location)

	fields := []form.Field{form.FieldName, form.FieldLatitude, form.FieldLongitude, form.FieldColor}
	if ctl.RequiresCountry() || ctl.LookupAvailable() {
		fields = append(fields, form.FieldCountry, form.FieldCurrency)
	}

	inputs := make([]textinput.Model, len(fields))
	for i, f := range fields {
		in := textinput.New()
		in.Prompt = ""
		in.Placeholder = fieldSpecs[f].placeholder
		in.CharLimit = 128
		in.SetValue(ctl.Field(f))
		inputs[i] = in
	}
	if len(inputs) > 0 {
		inputs[0].Focus()
	}

	m.form = formState{
		ctl:    ctl,
		param:  location,
		inputs: inputs,
		fields: fields,
	}
	m.resizeInputs()
}

func (m *Model) resizeInputs() {
	width := minInt(formInputWidth, maxInt(m.width-labelWidth-6, 10))
	for i := range m.form.inputs {
		m.form.inputs[i].Width = width
	}
}

// handleFormKey processes keyboard input for the form screen.
func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ctl := m.form.ctl
	if ctl == nil {
		return m, nil
	}
	// One store call at a time per form.
	if m.form.busy {
		return m, nil
	}

	switch {
	case matches(msg, m.keys.Cancel):
		m.nav.Back()
		return m, nil

	case matches(msg, m.keys.NextField):
		m.focusField(m.form.focus + 1)
		return m, nil

	case matches(msg, m.keys.PrevField):
		m.focusField(m.form.focus - 1)
		return m, nil

	case matches(msg, m.keys.Save):
		sub, err := ctl.Prepare()
		if err != nil {
			m.setFormMessage(form.UserMessage(err), true)
			return m, nil
		}
		m.form.busy = true
		m.setFormMessage("Saving...", false)
		return m, submitCmd(m.ctx, ctl, sub)

	case matches(msg, m.keys.FormDelete):
		sub, err := ctl.PrepareDelete()
		if err != nil {
			m.setFormMessage(form.UserMessage(err), true)
			return m, nil
		}
		m.form.busy = true
		m.setFormMessage("Deleting...", false)
		return m, submitCmd(m.ctx, ctl, sub)

	case matches(msg, m.keys.ShowOnMap):
		if err := ctl.ShowOnMap(); err != nil {
			m.setFormMessage(form.UserMessage(err), true)
		}
		return m, nil

	case matches(msg, m.keys.Lookup):
		if !ctl.LookupAvailable() {
			m.setFormMessage(form.UserMessage(form.ErrLookupUnavailable), true)
			return m, nil
		}
		if m.form.looking {
			return m, nil
		}
		name := strings.TrimSpace(ctl.Field(form.FieldCountry))
		if name == "" {
			m.setFormMessage("Enter a country first.", true)
			return m, nil
		}
		// The form stays editable while the lookup runs.
		m.form.looking = true
		m.setFormMessage("Looking up the currency of "+name+"...", false)
		return m, lookupCmd(m.ctx, ctl, name)
	}

	return m.updateFocusedInput(msg)
}

// updateFocusedInput forwards msg to the focused input and copies its value
// into the controller.
func (m Model) updateFocusedInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.form.ctl == nil || len(m.form.inputs) == 0 {
		return m, nil
	}
	i := m.form.focus
	var cmd tea.Cmd
	m.form.inputs[i], cmd = m.form.inputs[i].Update(msg)
	m.form.ctl.SetField(m.form.fields[i], m.form.inputs[i].Value())
	return m, cmd
}

func (m *Model) focusField(i int) {
	n := len(m.form.inputs)
	if n == 0 {
		return
	}
	i = ((i % n) + n) % n
	m.form.inputs[m.form.focus].Blur()
	m.form.focus = i
	m.form.inputs[i].Focus()
}

func (m *Model) setFormMessage(text string, isError bool) {
	m.form.message = text
	m.form.msgError = isError
}

// reloadInputs copies the controller fields back into the inputs.
func (m *Model) reloadInputs() {
	for i, f := range m.form.fields {
		m.form.inputs[i].SetValue(m.form.ctl.Field(f))
	}
}

func (m *Model) handleSubmitDone(msg submitDoneMsg) {
	if msg.ctl != m.form.ctl {
		// The form was closed while the call was in flight.
		if msg.err != nil {
			m.setFlash(form.UserMessage(msg.ctl.Complete(msg.sub, msg.err)), true)
		}
		return
	}

	m.form.busy = false
	if err := msg.ctl.Complete(msg.sub, msg.err); err != nil {
		m.setFormMessage(form.UserMessage(err), true)
		return
	}
	m.reloadInputs()
	m.setFormMessage("", false)
	m.setFlash(msg.sub.SuccessMessage(), false)
}

func (m *Model) handleLookupDone(msg lookupDoneMsg) {
	if msg.ctl != m.form.ctl {
		return
	}
	m.form.looking = false

	res := msg.res
	switch {
	case msg.ctl.Stale(res):
		// The form was saved or reset while the lookup ran.
		return
	case res.Err != nil:
		m.setFormMessage("Currency lookup failed. You can still type it in.", true)
	case msg.ctl.ApplyLookup(res):
		m.reloadInputs()
		m.setFormMessage("Currency of "+res.Country+": "+res.Currency, false)
	default:
		m.setFormMessage("No currency found for "+res.Country+".", true)
	}
}

// renderForm renders the create/edit form.
func (m Model) renderForm() string {
	styles := m.theme.Styles()
	ctl := m.form.ctl
	if ctl == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n")
	for i, f := range m.form.fields {
		label := fieldSpecs[f].label
		if m.isRequired(f) {
			label += " *"
		}
		labelStyle := styles.MutedText
		if i == m.form.focus {
			labelStyle = styles.AccentText.Bold(true)
		}
		b.WriteString("  ")
		b.WriteString(labelStyle.Render(padRight(label, labelWidth)))
		b.WriteString(m.form.inputs[i].View())
		if f == form.FieldColor {
			b.WriteString(" ")
			b.WriteString(styles.MarkerStyle(ctl.Field(f)).Render(string(glyphMarker)))
		}
		b.WriteString("\n\n")
	}

	if m.form.message != "" {
		style := styles.InfoText
		if m.form.msgError {
			style = styles.DangerText
		}
		b.WriteString("  ")
		b.WriteString(style.Render(m.form.message))
		b.WriteString("\n")
	}

	b.WriteString("  ")
	b.WriteString(styles.FaintText.Render("* required"))
	return b.String()
}

func (m Model) isRequired(f form.Field) bool {
	switch f {
	case form.FieldCountry, form.FieldCurrency:
		return m.form.ctl.RequiresCountry()
	default:
		return true
	}
}
