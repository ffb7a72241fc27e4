package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/PabloGalante/coollearn/internal/app/session"
	"github.com/PabloGalante/coollearn/internal/domain"
)

func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat <topic>",
		Short: "Continue the lesson of a saved plan interactively",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			if err := loadTopic(cmd.Context(), a, args[0]); err != nil {
				return err
			}
			return repl(cmd.Context(), a.svc, cmd.InOrStdin(), cmd.OutOrStdout())
		}),
	}
}

// repl runs the chat loop until /quit or end of input.
func repl(ctx context.Context, svc *session.Service, in io.Reader, out io.Writer) error {
	snap := svc.Snapshot()
	fmt.Fprintf(out, "# %s\n\n", snap.Topic)
	if svc.State() == domain.StatePlanReady {
		fmt.Fprintf(out, "assistant: %s\n\n", session.WelcomeMessage)
	}
	for _, m := range snap.Messages {
		fmt.Fprintf(out, "%s: %s\n\n", m.Role, m.Content)
	}

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		quit, err := handleLine(ctx, svc, line, out)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		}
		if quit {
			return nil
		}
	}
}

func handleLine(ctx context.Context, svc *session.Service, line string, out io.Writer) (quit bool, err error) {
	cmd, isCmd := strings.CutPrefix(line, "/")
	if !isCmd {
		if err := svc.AppendUserTurn(ctx, line); err != nil {
			return false, err
		}
		return false, reply(ctx, svc, out)
	}

	switch cmd = strings.ToLower(cmd); cmd {
	case "quit", "exit":
		return true, nil
	case "help":
		fmt.Fprint(out, chatHelp())
	case "retry":
		return false, reply(ctx, svc, out)
	case "outline":
		fmt.Fprintln(out, svc.Snapshot().Outline)
	case "export":
		paths, err := export(svc.Snapshot(), ".")
		if err != nil {
			return false, err
		}
		fmt.Fprintln(out, strings.Join(paths, "\n"))
	case "reset":
		svc.Reset()
		fmt.Fprintln(out, "Plan cleared. Create a new one with `coollearn plan <topic>`.")
		return true, nil
	default:
		if err := svc.TriggerShortcut(ctx, cmd); err != nil {
			return false, err
		}
		return false, reply(ctx, svc, out)
	}
	return false, nil
}

func reply(ctx context.Context, svc *session.Service, out io.Writer) error {
	fmt.Fprint(out, "assistant: ")
	_, err := svc.ProduceAssistantTurn(ctx, printer(out))
	fmt.Fprint(out, "\n\n")
	return err
}
