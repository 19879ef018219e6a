package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/vidyasagar/gsurf/internal/theme"
)

// CommandType identifies the kind of command bar interaction.
type CommandType int

const (
	CommandNone CommandType = iota
	CommandEx               // : commands
	CommandPrompt           // input requested by a server
)

// CommandResult is emitted when a command is submitted.
type CommandResult struct {
	Type  CommandType
	Value string
}

// CommandBar reads a line of text on the last screen row: either a : command or the
// answer to a server prompt.
type CommandBar struct {
	input      textinput.Model
	active     bool
	cmdType    CommandType
	width      int
	history    []string
	historyPos int
}

// NewCommandBar creates a new command bar.
func NewCommandBar() CommandBar {
	ti := textinput.New()
	ti.CharLimit = 1024

	return CommandBar{
		input:      ti,
		historyPos: -1,
	}
}

// SetWidth sets the command bar width.
func (c *CommandBar) SetWidth(w int) {
	c.width = w
	c.input.Width = max(w-lipgloss.Width(c.input.Prompt)-1, 1)
}

// Open activates the command bar for : commands.
func (c *CommandBar) Open() tea.Cmd {
	c.open(CommandEx, ":")
	c.input.Placeholder = "g <url> | q"
	return c.input.Focus()
}

// OpenPrompt activates the command bar to answer a server prompt. Sensitive input is
// not echoed.
func (c *CommandBar) OpenPrompt(prompt string, sensitive bool) tea.Cmd {
	c.open(CommandPrompt, prompt+" ")
	if sensitive {
		c.input.EchoMode = textinput.EchoPassword
	}
	return c.input.Focus()
}

func (c *CommandBar) open(ct CommandType, prompt string) {
	c.active = true
	c.cmdType = ct
	c.input.Reset()
	c.input.Placeholder = ""
	c.input.EchoMode = textinput.EchoNormal
	c.input.Prompt = prompt
	c.historyPos = -1
	c.SetWidth(c.width)
}

// Close deactivates the command bar.
func (c *CommandBar) Close() {
	c.active = false
	c.cmdType = CommandNone
	c.input.Blur()
	c.input.Reset()
}

// IsActive reports whether the command bar is open.
func (c *CommandBar) IsActive() bool {
	return c.active
}

// Type returns the current command type.
func (c *CommandBar) Type() CommandType {
	return c.cmdType
}

// Submit returns the entered line, records : commands in the history and closes the bar.
func (c *CommandBar) Submit() CommandResult {
	val := c.input.Value()
	if c.cmdType == CommandEx {
		val = strings.TrimSpace(val)
		if val != "" {
			c.history = append(c.history, val)
		}
	}

	result := CommandResult{
		Type:  c.cmdType,
		Value: val,
	}

	c.Close()
	return result
}

// Update processes messages for the command bar. Enter and cancellation are left
// to the caller.
func (c *CommandBar) Update(msg tea.Msg) (*CommandBar, tea.Cmd) {
	if !c.active {
		return c, nil
	}

	if msg, ok := msg.(tea.KeyMsg); ok && c.cmdType == CommandEx {
		switch msg.Type {
		case tea.KeyUp:
			if len(c.history) > 0 {
				if c.historyPos < len(c.history)-1 {
					c.historyPos++
				}
				c.setValue(c.history[len(c.history)-1-c.historyPos])
			}
			return c, nil
		case tea.KeyDown:
			if c.historyPos > 0 {
				c.historyPos--
				c.setValue(c.history[len(c.history)-1-c.historyPos])
			} else if c.historyPos == 0 {
				c.historyPos = -1
				c.input.Reset()
			}
			return c, nil
		}
	}

	var cmd tea.Cmd
	c.input, cmd = c.input.Update(msg)
	return c, cmd
}

func (c *CommandBar) setValue(val string) {
	c.input.SetValue(val)
	c.input.SetCursor(len(val))
}

// View renders the command bar.
func (c *CommandBar) View() string {
	if !c.active {
		return ""
	}

	t := theme.Current

	return lipgloss.NewStyle().
		Foreground(t.StatusFg).
		Render(c.input.View())
}
