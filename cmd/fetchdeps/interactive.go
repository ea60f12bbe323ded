package main

import (
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/GrimEthos/backwater/internal/manifest"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	hintStyle     = lipgloss.NewStyle().Faint(true)
	errStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Underline(true)
)

var errAborted = fmt.Errorf("user aborted")

type formStep int

const (
	stepURL formStep = iota
	stepName
	stepRequired
	stepDone
)

// addForm collects a new dependency in one program: the URL, then the name
// (defaulting to the one inferred from the URL), then whether a failed clone
// should fail the fetch.
type addForm struct {
	step     formStep
	input    textinput.Model
	existing map[string]bool

	url      string
	name     string
	required bool

	errMsg  string
	aborted bool
}

func newAddForm(existing map[string]bool) addForm {
	in := textinput.New()
	in.Placeholder = "https://github.com/org/repo.git"
	in.Focus()
	return addForm{input: in, existing: existing}
}

func (f addForm) Init() tea.Cmd {
	return textinput.Blink
}

func (f addForm) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, isKey := msg.(tea.KeyMsg)
	if isKey && (key.Type == tea.KeyCtrlC || key.Type == tea.KeyEsc) {
		f.aborted = true
		return f, tea.Quit
	}

	if f.step == stepRequired {
		if isKey {
			return f.answerRequired(key)
		}
		return f, nil
	}

	if isKey && key.Type == tea.KeyEnter {
		return f.submitText()
	}
	f.errMsg = ""
	var cmd tea.Cmd
	f.input, cmd = f.input.Update(msg)
	return f, cmd
}

// submitText accepts the URL or name step, staying on it when the value is
// rejected.
func (f addForm) submitText() (tea.Model, tea.Cmd) {
	v := strings.TrimSpace(f.input.Value())

	switch f.step {
	case stepURL:
		if err := validateURL(v); err != nil {
			f.errMsg = err.Error()
			return f, nil
		}
		f.url = v
		f.step = stepName
		f.input.Reset()
		f.input.Placeholder = nameFromURL(v)
	case stepName:
		if v == "" {
			v = nameFromURL(f.url)
		}
		if err := nameValidator(f.existing)(v); err != nil {
			f.errMsg = err.Error()
			return f, nil
		}
		f.name = v
		f.step = stepRequired
		f.input.Blur()
	}
	f.errMsg = ""
	return f, nil
}

func (f addForm) answerRequired(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "y", "Y":
		f.required = true
	case "n", "N":
		f.required = false
	case "enter":
	case "left", "right", "tab", "h", "l":
		f.required = !f.required
		return f, nil
	default:
		return f, nil
	}
	f.step = stepDone
	return f, tea.Quit
}

func (f addForm) View() string {
	if f.aborted || f.step == stepDone {
		return ""
	}

	var b strings.Builder
	switch f.step {
	case stepURL:
		b.WriteString(titleStyle.Render("Git repository URL") + "\n")
		b.WriteString(f.input.View() + "\n")
	case stepName:
		b.WriteString(hintStyle.Render("url: "+f.url) + "\n")
		b.WriteString(titleStyle.Render("Dependency name") + " " +
			hintStyle.Render("(empty for "+nameFromURL(f.url)+")") + "\n")
		b.WriteString(f.input.View() + "\n")
	case stepRequired:
		yes, no := " Yes ", " No "
		if f.required {
			yes = selectedStyle.Render(yes)
		} else {
			no = selectedStyle.Render(no)
		}
		fmt.Fprintf(&b, "%s %s / %s\n",
			titleStyle.Render("Fail the fetch when "+f.name+" cannot be cloned?"), yes, no)
	}
	if f.errMsg != "" {
		b.WriteString(errStyle.Render(f.errMsg) + "\n")
	}
	return b.String()
}

// nameFromURL extracts a repository name from a Git URL.
// Handles both SSH (git@host:org/repo.git) and HTTPS (https://host/org/repo.git).
func nameFromURL(url string) string {
	url = strings.TrimRight(url, "/")

	if idx := strings.LastIndex(url, ":"); idx != -1 && !strings.Contains(url, "://") {
		url = url[idx+1:]
	}

	return strings.TrimSuffix(path.Base(url), ".git")
}

// validateURL rejects empty URLs and URLs no name can be inferred from.
func validateURL(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("repository URL is required")
	}
	name := nameFromURL(s)
	if name == "" || name == "." {
		return fmt.Errorf("cannot infer dependency name from URL")
	}
	return nil
}

// nameValidator accepts an empty value (meaning: use the default) or a valid,
// unused dependency name.
func nameValidator(existing map[string]bool) func(string) error {
	return func(s string) error {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		if err := manifest.ValidateName(s); err != nil {
			return err
		}
		if existing[s] {
			return fmt.Errorf("dependency %q already exists", s)
		}
		return nil
	}
}

// interactiveAddDependency runs the add form on out and echoes the result.
func interactiveAddDependency(out io.Writer, existing map[string]bool) (manifest.Dependency, error) {
	result, err := tea.NewProgram(newAddForm(existing), tea.WithOutput(out)).Run()
	if err != nil {
		return manifest.Dependency{}, err
	}
	form := result.(addForm)
	if form.aborted {
		return manifest.Dependency{}, errAborted
	}
	_, _ = fmt.Fprintf(out, "  → name: %s, url: %s\n", form.name, form.url)

	return buildDependency(form.url, form.name, form.required)
}
