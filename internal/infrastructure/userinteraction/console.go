// Package userinteraction implements the operator prompts on a terminal.
package userinteraction

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"autolike/internal/domain/entity"
	"autolike/internal/domain/ports"
)

var _ ports.UserInteraction = (*ConsoleUserInteraction)(nil)

type ConsoleUserInteraction struct {
	lines <-chan string
	// readErr is set before lines is closed.
	readErr error
	out     io.Writer
}

func NewConsoleUserInteraction() *ConsoleUserInteraction {
	return New(os.Stdin, color.Output)
}

// New reads answers from in and writes prompts to out.
func New(in io.Reader, out io.Writer) *ConsoleUserInteraction {
	lines := make(chan string)
	u := &ConsoleUserInteraction{lines: lines, out: out}
	go func() {
		reader := bufio.NewReader(in)
		for {
			line, err := reader.ReadString('\n')
			if line != "" || err == nil {
				lines <- strings.TrimSpace(line)
			}
			if err != nil {
				u.readErr = err
				close(lines)
				return
			}
		}
	}()
	return u
}

func (u *ConsoleUserInteraction) readLine(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-u.lines:
		if !ok {
			return "", fmt.Errorf("failed to read user input: %w", u.readErr)
		}
		return line, nil
	}
}

func (u *ConsoleUserInteraction) ask(ctx context.Context, prompt string) (string, error) {
	fmt.Fprintf(u.out, "%s\n> ", prompt)
	return u.readLine(ctx)
}

// AskConsent prompts y / n, with an upper-case answer meaning "always".
func (u *ConsoleUserInteraction) AskConsent(ctx context.Context, channel string) (ports.Consent, error) {
	color.New(color.FgCyan, color.Bold).Fprintf(u.out, "\n[UNKNOWN CHANNEL] %s\n", channel)
	for {
		answer, err := u.ask(ctx, "Like this video? y = yes, n = no, Y = always, N = never")
		if err != nil {
			return ports.Consent{}, err
		}
		switch answer {
		case "y", "yes":
			return ports.Consent{Like: true}, nil
		case "n", "no":
			return ports.Consent{Like: false}, nil
		case "Y", "YES":
			return ports.Consent{Like: true, Remember: true}, nil
		case "N", "NO":
			return ports.Consent{Like: false, Remember: true}, nil
		}
		color.New(color.FgRed).Fprintln(u.out, "Please answer y, n, Y or N.")
	}
}

// ChooseComment lists suggestions; the user picks a number, types "e <n>"
// to edit one, or presses Enter to cancel.
func (u *ConsoleUserInteraction) ChooseComment(ctx context.Context, suggestions []string) (string, bool, error) {
	if len(suggestions) == 0 {
		return "", false, nil
	}
	color.New(color.FgYellow, color.Bold).Fprintln(u.out, "\nComment suggestions:")
	for i, s := range suggestions {
		fmt.Fprintf(u.out, "  %d) %s\n", i+1, s)
	}

	for {
		answer, err := u.ask(ctx, "Pick a number, e <number> to edit, Enter to skip")
		if err != nil {
			return "", false, err
		}
		if answer == "" {
			return "", false, nil
		}

		edit := false
		if rest, found := strings.CutPrefix(answer, "e "); found {
			edit, answer = true, strings.TrimSpace(rest)
		}
		n, err := strconv.Atoi(answer)
		if err != nil || n < 1 || n > len(suggestions) {
			color.New(color.FgRed).Fprintf(u.out, "Choose between 1 and %d.\n", len(suggestions))
			continue
		}
		choice := suggestions[n-1]
		if !edit {
			return choice, true, nil
		}

		edited, err := u.ask(ctx, "New text (Enter keeps: "+truncate(choice, 60)+")")
		if err != nil {
			return "", false, err
		}
		if edited != "" {
			choice = edited
		}
		return choice, true, nil
	}
}

func (u *ConsoleUserInteraction) WaitForUserAction(ctx context.Context, message string) error {
	fmt.Fprintf(u.out, "\n[USER ACTION REQUIRED] %s\n", message)
	fmt.Fprint(u.out, "Press Enter when done...")

	if _, err := u.readLine(ctx); err != nil {
		return fmt.Errorf("failed to wait for user: %w", err)
	}
	return nil
}

func (u *ConsoleUserInteraction) ShowStep(ctx context.Context, step, total int, instruction string) {
	color.New(color.FgCyan, color.Bold).Fprintf(u.out, "\n━━━ Step %d/%d ━━━\n", step, total)
	fmt.Fprintln(u.out, instruction)
}

func (u *ConsoleUserInteraction) ShowResult(ctx context.Context, message string, isError bool) {
	if isError {
		color.New(color.FgRed).Fprint(u.out, "❌ ")
		color.New(color.Faint).Fprintln(u.out, truncate(message, 300))
		return
	}
	color.New(color.FgGreen).Fprintf(u.out, "✓ %s\n", message)
}

func (u *ConsoleUserInteraction) ShowReport(ctx context.Context, reports []entity.RoleReport) {
	color.New(color.FgCyan, color.Bold).Fprintln(u.out, "\nDiagnostic")
	for _, r := range reports {
		if !r.Found {
			color.New(color.FgRed).Fprintf(u.out, "  ✗ %-20s not found\n", r.Role)
			continue
		}
		line := fmt.Sprintf("  ✓ %-20s %s", r.Role, truncate(r.Locator.String(), 60))
		if r.Text != "" {
			line += " (" + truncate(r.Text, 40) + ")"
		}
		color.New(color.FgGreen).Fprintln(u.out, line)
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
