package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Reflector mirrors session state to the user.
type Reflector interface {
	SetTrigger(label string, enabled bool)
	Status(msg string)
	Append(role Role, content string)
	Notice(msg string)
}

type uiStyles struct {
	user      lipgloss.Style
	assistant lipgloss.Style
	system    lipgloss.Style
	status    lipgloss.Style
	trigger   lipgloss.Style
	disabled  lipgloss.Style
	notice    lipgloss.Style
}

func newUIStyles(r *lipgloss.Renderer) uiStyles {
	return uiStyles{
		user: r.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("255")).
			Background(lipgloss.Color("28")),
		assistant: r.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("255")).
			Background(lipgloss.Color("208")),
		system: r.NewStyle().
			Foreground(lipgloss.Color("242")).
			Italic(true),
		status: r.NewStyle().
			Foreground(lipgloss.Color("242")),
		trigger: r.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")),
		disabled: r.NewStyle().
			Foreground(lipgloss.Color("242")),
		notice: r.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196")),
	}
}

// TerminalUI writes chat bubbles and status lines to a terminal.
type TerminalUI struct {
	mu     sync.Mutex
	w      io.Writer
	styles uiStyles
}

func NewTerminalUI(w io.Writer) *TerminalUI {
	return &TerminalUI{w: w, styles: newUIStyles(lipgloss.NewRenderer(w))}
}

func (u *TerminalUI) SetTrigger(label string, enabled bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if enabled {
		fmt.Fprintf(u.w, "%s press Enter\n", u.styles.trigger.Render("[ "+label+" ]"))
		return
	}
	fmt.Fprintln(u.w, u.styles.disabled.Render("[ "+label+" ]"))
}

func (u *TerminalUI) Status(msg string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	fmt.Fprintln(u.w, u.styles.status.Render("» "+msg))
}

func (u *TerminalUI) Append(role Role, content string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	switch role {
	case RoleUser:
		fmt.Fprintf(u.w, "%s %s\n", u.styles.user.Render(" You "), content)
	case RoleAssistant:
		fmt.Fprintf(u.w, "%s %s\n", u.styles.assistant.Render(" Tutor "), content)
	default:
		fmt.Fprintln(u.w, u.styles.system.Render("System: "+content))
	}
}

func (u *TerminalUI) Notice(msg string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	fmt.Fprintln(u.w, u.styles.notice.Render("! "+msg))
}
