package main

import (
	"fmt"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"avon/internal/deploy"
	"avon/internal/eval"
	"avon/internal/value"
)

// workDirOf returns the absolute directory a source file's relative
// paths/imports resolve against: the directory containing the file itself.
func workDirOf(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.Dir(abs), nil
}

// confirmDeploy shows an interactive yes/no prompt before writing to disk,
// built with charmbracelet/huh the way the design's ambient stack specifies
// for every destructive CLI action.
func confirmDeploy(root string) (bool, error) {
	confirmed := false
	err := huh.NewConfirm().
		Title(fmt.Sprintf("Deploy files under %s?", root)).
		Affirmative("Yes").
		Negative("No").
		Value(&confirmed).
		Run()
	if err != nil {
		return false, err
	}
	return confirmed, nil
}

// runDeploy runs the five-phase deployer against an already-evaluated
// program result, driving a bubbletea progress display the same way the
// teacher's sibling TUI tools (tcpo, testshell) use bubbletea for live
// status rather than a static log.
func runDeploy(evaluator *eval.Evaluator, v value.Value, root string, mode deploy.Mode) error {
	d := deploy.New(root, evaluator)
	d.Mode = mode

	p := tea.NewProgram(newDeployModel())
	d.Progress = func(msg string) { p.Send(deployProgressMsg(msg)) }

	var deployErr error
	go func() {
		deployErr = d.Deploy(v)
		p.Send(deployDoneMsg{err: deployErr})
	}()

	if _, err := p.Run(); err != nil {
		return err
	}
	return deployErr
}

type deployProgressMsg string

type deployDoneMsg struct{ err error }

// deployModel is a minimal Elm-architecture bubbletea model: a scrolling log
// of phase-transition lines, styled with lipgloss, that quits itself once
// the deploy goroutine reports done.
type deployModel struct {
	lines []string
	done  bool
	err   error
}

func newDeployModel() deployModel { return deployModel{} }

func (m deployModel) Init() tea.Cmd { return nil }

func (m deployModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case deployProgressMsg:
		m.lines = append(m.lines, string(msg))
		return m, nil
	case deployDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}
	return m, nil
}

var (
	deployLineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	deployOKStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	deployErrStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

func (m deployModel) View() string {
	var b string
	for _, l := range m.lines {
		b += deployLineStyle.Render("  "+l) + "\n"
	}
	if m.done {
		if m.err != nil {
			b += deployErrStyle.Render("deploy failed: "+m.err.Error()) + "\n"
		} else {
			b += deployOKStyle.Render("deploy complete") + "\n"
		}
	}
	return b
}
