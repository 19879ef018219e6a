package ui

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// CommandKind identifies what a Command asks the application to do.
type CommandKind int

const (
	CommandExit CommandKind = iota + 1
	// CommandLoad fetches an absolute URL.
	CommandLoad
	// CommandTryLoad fetches a link target that may be relative to the current page.
	CommandTryLoad
)

// Command is a navigation request produced by the viewport or the command line.
type Command struct {
	Kind   CommandKind
	URL    *url.URL
	Target string
}

func Exit() Command { return Command{Kind: CommandExit} }

func Load(u *url.URL) Command { return Command{Kind: CommandLoad, URL: u} }

func TryLoad(target string) Command { return Command{Kind: CommandTryLoad, Target: target} }

var ErrUnknownCommand = errors.New("unknown command")

// ParseCommand interprets a line typed after ':'.
func ParseCommand(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, ErrUnknownCommand
	}

	switch fields[0] {
	case "q":
		return Exit(), nil

	case "g":
		if len(fields) < 2 {
			return Command{}, errors.New("g: missing URL")
		}
		u, err := ParseTarget(fields[1])
		if err != nil {
			return Command{}, err
		}
		return Load(u), nil

	default:
		return Command{}, ErrUnknownCommand
	}
}

// ParseTarget parses a user-typed URL. A target without a scheme, like
// "example.org/page", is taken to be a gemini:// URL.
func ParseTarget(target string) (*url.URL, error) {
	u, err := url.Parse(target)
	if err == nil && u.Scheme != "" && (u.Host != "" || u.Opaque == "") {
		return u, nil
	}

	u, err = url.Parse("gemini://" + target)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", target, err)
	}
	return u, nil
}
