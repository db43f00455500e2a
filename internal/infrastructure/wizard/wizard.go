package wizard

import (
	"fmt"
	"io"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/felixgeelhaar/rela/internal/application"
)

type (
	wizardState int

	initWizardModel struct {
		state     wizardState
		cfg       application.Config
		pythons   []string
		python    int
		cursor    int
		confirmed bool
		aborted   bool
	}
)

const (
	stateIntro wizardState = iota
	stateEdit
	stateConfirm
)

// Editable rows in the edit view.
const (
	rowPython = iota
	rowNamespace
	rowVerbosity
	rowFailfast
	rowCount
)

const maxVerbosity = 3

// Run lets the user review cfg interactively. It reports false when the
// wizard was cancelled.
func Run(cfg application.Config, stdout io.Writer, stdin io.Reader) (application.Config, bool, error) {
	return runInitWizard(cfg, stdout, stdin)
}

func runInitWizard(cfg application.Config, stdout io.Writer, stdin io.Reader) (application.Config, bool, error) {
	model := newInitWizardModel(cfg)
	program := tea.NewProgram(model, tea.WithInput(stdin), tea.WithOutput(stdout))
	res, err := program.Run()
	if err != nil {
		return cfg, false, err
	}
	finalModel, ok := res.(*initWizardModel)
	if !ok {
		return cfg, false, fmt.Errorf("unexpected wizard state")
	}
	if finalModel.aborted || !finalModel.confirmed {
		return cfg, false, nil
	}
	return finalModel.toConfig(), true, nil
}

func newInitWizardModel(cfg application.Config) *initWizardModel {
	pythons := []string{}
	for _, p := range []string{cfg.Python, "python3", "python"} {
		if p != "" && !slices.Contains(pythons, p) {
			pythons = append(pythons, p)
		}
	}
	cfg.Test.Verbosity = clamp(cfg.Test.Verbosity, 0, maxVerbosity)
	return &initWizardModel{
		state:   stateIntro,
		cfg:     cfg,
		pythons: pythons,
	}
}

func (m *initWizardModel) Init() tea.Cmd {
	return nil
}

func (m *initWizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "ctrl+c", "q":
		m.aborted = true
		return m, tea.Quit
	case "enter":
		switch m.state {
		case stateIntro:
			m.state = stateEdit
		case stateEdit:
			m.state = stateConfirm
		case stateConfirm:
			m.confirmed = true
			return m, tea.Quit
		}
	case "esc":
		if m.state == stateConfirm {
			m.state = stateEdit
		}
	case "up", "k":
		if m.state == stateEdit {
			m.moveCursor(-1)
		}
	case "down", "j":
		if m.state == stateEdit {
			m.moveCursor(1)
		}
	case "left", "-":
		if m.state == stateEdit {
			m.adjustSelection(-1)
		}
	case "right", "+", " ":
		if m.state == stateEdit {
			m.adjustSelection(1)
		}
	}
	return m, nil
}

func (m *initWizardModel) View() string {
	switch m.state {
	case stateIntro:
		return m.viewIntro()
	case stateEdit:
		return m.viewEdit()
	case stateConfirm:
		return m.viewConfirm()
	default:
		return ""
	}
}

func (m *initWizardModel) moveCursor(delta int) {
	m.cursor = clamp(m.cursor+delta, 0, rowCount-1)
}

func (m *initWizardModel) adjustSelection(delta int) {
	switch m.cursor {
	case rowPython:
		n := len(m.pythons)
		m.python = ((m.python+delta)%n + n) % n
	case rowNamespace:
		m.cfg.NamespacePackages = !m.cfg.NamespacePackages
	case rowVerbosity:
		m.cfg.Test.Verbosity = clamp(m.cfg.Test.Verbosity+delta, 0, maxVerbosity)
	case rowFailfast:
		m.cfg.Test.Failfast = !m.cfg.Test.Failfast
	}
}

func (m *initWizardModel) viewIntro() string {
	var b strings.Builder
	fmt.Fprintf(&b, "\nrela init wizard\n\n")
	fmt.Fprintf(&b, "rela will launch scripts with %s and look for packages marked by %s.\n\n", m.pythons[m.python], m.cfg.Marker)
	fmt.Fprintf(&b, "Press Enter to continue, or Ctrl+C to cancel.\n")
	return b.String()
}

func (m *initWizardModel) viewEdit() string {
	var b strings.Builder
	fmt.Fprintf(&b, "\nReview settings\n\n")
	fmt.Fprintf(&b, "Use ↑/↓ to move, ←/→ or space to change values.\n\n")
	rows := []string{
		fmt.Sprintf("Interpreter: %s", m.pythons[m.python]),
		fmt.Sprintf("Namespace packages: %s", yesNo(m.cfg.NamespacePackages)),
		fmt.Sprintf("Test verbosity: %d", m.cfg.Test.Verbosity),
		fmt.Sprintf("Stop tests on first failure: %s", yesNo(m.cfg.Test.Failfast)),
	}
	for i, row := range rows {
		prefix := "  "
		if m.cursor == i {
			prefix = "> "
		}
		fmt.Fprintf(&b, "%s%s\n", prefix, row)
	}
	fmt.Fprintf(&b, "\nEnter to continue, q to cancel.\n")
	return b.String()
}

func (m *initWizardModel) viewConfirm() string {
	cfg := m.toConfig()
	var b strings.Builder
	fmt.Fprintf(&b, "\nReady to write configuration\n\n")
	fmt.Fprintf(&b, "Interpreter: %s\n", cfg.Python)
	fmt.Fprintf(&b, "Package marker: %s\n", cfg.Marker)
	fmt.Fprintf(&b, "Namespace packages: %s\n", yesNo(cfg.NamespacePackages))
	fmt.Fprintf(&b, "Test prefix: %s (verbosity %d)\n", cfg.Test.Prefix, cfg.Test.Verbosity)
	if len(cfg.SearchPath) > 0 {
		fmt.Fprintf(&b, "\nExtra search path entries:\n")
		for _, entry := range cfg.SearchPath {
			fmt.Fprintf(&b, "  - %s\n", entry)
		}
	} else {
		fmt.Fprintf(&b, "\nNo extra search path entries.\n")
	}
	fmt.Fprintf(&b, "\nPress Enter to save, Esc to go back, q to cancel.\n")
	return b.String()
}

func (m *initWizardModel) toConfig() application.Config {
	cfg := m.cfg
	cfg.Python = m.pythons[m.python]
	cfg.SearchPath = append([]string(nil), m.cfg.SearchPath...)
	return cfg
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func clamp(value, lo, hi int) int {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}
