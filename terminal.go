package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/turbekoff/calcpad/pkg/calc"
)

var (
	displayStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3f3f46")).
			Foreground(lipgloss.Color("#d4d4d8")).
			Align(lipgloss.Right).
			Padding(0, 1).
			Width(18)

	operatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#71717a")).
			Padding(0, 1)

	activeOperatorStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#fde68a")).
				Bold(true).
				Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#fca5a5"))

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#52525b"))
)

var terminalKeys = map[string]string{
	"enter":     "=",
	"esc":       calc.KeyClear,
	"c":         calc.KeyClear,
	"backspace": calc.KeyClearEntry,
	"n":         calc.KeyToggleSign,
	"x":         "*",
	",":         ".",
}

var terminalOperators = []calc.Operator{calc.Add, calc.Subtract, calc.Multiply, calc.Divide}

type terminalModel struct {
	calculator *calc.Calculator
	err        error
}

func newTerminalModel() terminalModel {
	return terminalModel{calculator: calc.NewCalculator()}
}

func (m terminalModel) Init() tea.Cmd {
	return nil
}

func (m terminalModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	}

	token, ok := terminalKeys[key.String()]
	if !ok {
		token = key.String()
	}
	m.err = m.calculator.Press(token)
	return m, nil
}

func (m terminalModel) View() string {
	var b strings.Builder
	b.WriteString(displayStyle.Render(m.calculator.Display()))
	b.WriteString("\n")

	ops := make([]string, 0, len(terminalOperators))
	for _, op := range terminalOperators {
		style := operatorStyle
		if op == m.calculator.Active() {
			style = activeOperatorStyle
		}
		ops = append(ops, style.Render(op.String()))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, ops...))
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render(m.err.Error()))
		b.WriteString("\n")
	}
	b.WriteString(hintStyle.Render("enter = · esc clear · ⌫ entry · n ± · % · q quit"))
	b.WriteString("\n")
	return b.String()
}

type Terminal struct {
	program   *tea.Program
	logger    *slog.Logger
	isStarted atomic.Bool
	isDone    chan struct{}
}

func NewTerminal(logger *slog.Logger, opts ...tea.ProgramOption) *Terminal {
	return &Terminal{
		program: tea.NewProgram(newTerminalModel(), opts...),
		logger:  logger.With("adapter", "terminal"),
		isDone:  make(chan struct{}),
	}
}

func (t *Terminal) Run() error {
	if !t.isStarted.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	defer close(t.isDone)

	t.logger.Info("terminal keypad started")
	if _, err := t.program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run terminal: %w", err)
	}
	return ErrClosed
}

func (t *Terminal) Shutdown(ctx context.Context) error {
	t.program.Quit()

	select {
	case <-t.isDone:
		return nil
	case <-ctx.Done():
		t.program.Kill()
		return ctx.Err()
	}
}
