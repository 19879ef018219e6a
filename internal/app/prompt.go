package app

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/vidyasagar/gsurf/internal/gemini"
)

type promptReply struct {
	value string
	ok    bool
}

type promptRequest struct {
	prompt    string
	sensitive bool
	reply     chan<- promptReply
}

// promptRequestMsg carries a server prompt from a running fetch to the model.
type promptRequestMsg promptRequest

// Prompter lets a fetch running outside the event loop ask the user for input. The
// question is shown in the command bar and Input blocks until it is answered.
type Prompter struct {
	requests chan promptRequest
}

func NewPrompter() *Prompter {
	return &Prompter{requests: make(chan promptRequest)}
}

// Input implements browser.Prompter.
func (p *Prompter) Input(ctx context.Context, prompt string, sensitive bool) (string, error) {
	reply := make(chan promptReply, 1)

	select {
	case p.requests <- promptRequest{prompt: prompt, sensitive: sensitive, reply: reply}:
	case <-ctx.Done():
		return "", ctx.Err()
	}

	select {
	case r := <-reply:
		if !r.ok {
			return "", gemini.ErrInputCancelled
		}
		return r.value, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// wait delivers the next prompt to the model.
func (p *Prompter) wait() tea.Cmd {
	return func() tea.Msg {
		return promptRequestMsg(<-p.requests)
	}
}
