package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/PabloGalante/coollearn/internal/app/session"
	"github.com/PabloGalante/coollearn/internal/app/stream"
	"github.com/PabloGalante/coollearn/internal/domain"
)

func newPlanCmd() *cobra.Command {
	var depth, style, tone, framework string

	cmd := &cobra.Command{
		Use:   "plan <topic>",
		Short: "Generate a lesson plan for a topic and save it",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			prefs, err := domain.NewPreferences(depth, style, tone, framework)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if err := a.svc.CreatePlan(cmd.Context(), args[0], prefs, printer(out)); err != nil {
				return err
			}
			fmt.Fprintln(out)
			fmt.Fprintf(out, "\nPlan saved for %q. Run `coollearn chat %q` to begin.\n", args[0], args[0])
			return nil
		}),
	}

	def := domain.DefaultPreferences()
	cmd.Flags().StringVar(&depth, "depth", string(def.Depth), fmt.Sprintf("Learning depth %v.", domain.Depths))
	cmd.Flags().StringVar(&style, "style", string(def.Style), fmt.Sprintf("Teaching style %v.", domain.Styles))
	cmd.Flags().StringVar(&tone, "tone", string(def.Tone), fmt.Sprintf("Tone %v.", domain.Tones))
	cmd.Flags().StringVar(&framework, "framework", string(def.Framework), fmt.Sprintf("Reasoning framework %v.", domain.Frameworks))
	return cmd
}

func newTopicsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "topics [query]",
		Short: "List saved lesson plans, or those resembling query",
		Args:  cobra.MaximumNArgs(1),
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			var (
				topics []string
				err    error
			)
			if len(args) == 1 {
				topics, err = a.svc.SuggestTopics(cmd.Context(), args[0])
			} else {
				topics, err = a.svc.Topics(cmd.Context())
			}
			if err != nil {
				return err
			}
			for _, t := range topics {
				fmt.Fprintln(cmd.OutOrStdout(), t)
			}
			return nil
		}),
	}
}

func newExportCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "export <topic>",
		Short: "Write the plan outline and the Markdown transcript of a topic",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			if err := loadTopic(cmd.Context(), a, args[0]); err != nil {
				return err
			}
			paths, err := export(a.svc.Snapshot(), dir)
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		}),
	}
	cmd.Flags().StringVar(&dir, "out", ".", "Output directory.")
	return cmd
}

// export writes the outline and transcript files into dir.
func export(snap *domain.Session, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating export dir: %w", err)
	}
	files := map[string]string{
		session.OutlineFileName(snap.Topic):    snap.Outline,
		session.TranscriptFileName(snap.Topic): session.Transcript(snap.Topic, snap.Messages),
	}
	paths := make([]string, 0, len(files))
	for _, name := range []string{session.OutlineFileName(snap.Topic), session.TranscriptFileName(snap.Topic)} {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(files[name]), 0o644); err != nil {
			return nil, fmt.Errorf("writing %s: %w", name, err)
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// printer writes only the newly streamed part of the cumulative text.
func printer(w io.Writer) stream.Observer {
	printed := 0
	return func(text string) {
		if len(text) > printed {
			io.WriteString(w, text[printed:])
			printed = len(text)
		}
	}
}

// chatHelp lists the REPL commands.
func chatHelp() string {
	var b strings.Builder
	b.WriteString("Type a message, or one of:\n")
	for _, sc := range session.Shortcuts {
		fmt.Fprintf(&b, "  /%-9s sends %q\n", sc.Name, sc.Label)
	}
	b.WriteString("  /retry     asks again for the last unanswered turn\n")
	b.WriteString("  /outline   shows the lesson plan\n")
	b.WriteString("  /export    writes outline and transcript to the current directory\n")
	b.WriteString("  /reset     forgets the current plan\n")
	b.WriteString("  /quit      leaves\n")
	return b.String()
}
