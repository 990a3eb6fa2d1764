package cli

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vytor/sbx/internal/card"
)

const (
	frontPlaceholder = "Enter front of the card here ..."
	backPlaceholder  = "Enter back of the card here..."
)

func newEditCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <file>",
		Short: "edit a card",
		Long:  "Open a card in $SBX_EDITOR (or $EDITOR). Missing files are created first.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			path := absPath(args[0])

			if _, err := os.Stat(path); os.IsNotExist(err) {
				if err := writeNewCard(a, path, nil, false); err != nil {
					return err
				}
				a.log.Info("created %s", path)
			}

			if err := a.runEditor(cmd, path); err != nil {
				return err
			}

			c, err := card.Open(path, card.WithClock(a.now))
			if err != nil {
				fmt.Fprintf(out, "Card %q is not valid after editing: %v\n", path, err)
				return failed()
			}
			if _, err := c.Front(); err != nil {
				return err
			}
			fmt.Fprint(out, c.Info())
			return nil
		},
	}
}

// runEditor hands the terminal to the configured editor until it exits.
func (a *app) runEditor(cmd *cobra.Command, path string) error {
	parts := strings.Fields(a.cfg.Editor)
	if len(parts) == 0 {
		return fmt.Errorf("no editor configured")
	}
	a.log.Debug("running editor: %s %s", a.cfg.Editor, path)

	ed := exec.CommandContext(cmd.Context(), parts[0], append(parts[1:], path)...)
	ed.Stdin = cmd.InOrStdin()
	ed.Stdout = cmd.OutOrStdout()
	ed.Stderr = cmd.ErrOrStderr()
	if err := ed.Run(); err != nil {
		return fmt.Errorf("editor %q failed: %w", a.cfg.Editor, err)
	}
	return nil
}

func newCreateCmd(a *app) *cobra.Command {
	var markdown bool

	cmd := &cobra.Command{
		Use:   "create <file> [content...]",
		Short: "create a new card",
		Long: `Create a new card file. The first content argument becomes the front,
every further argument a line of the back.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			path := absPath(args[0])

			if _, err := os.Stat(path); err == nil {
				fmt.Fprintf(out, "File %q already exists!\n", path)
				return failed()
			}
			if err := writeNewCard(a, path, args[1:], markdown); err != nil {
				return err
			}
			fmt.Fprintf(out, "File written to %q\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&markdown, "markdown-header-and-bullet", "m", false,
		"prefix the front with '# ' and every back line with '* '")
	return cmd
}

func writeNewCard(a *app, path string, content []string, markdown bool) error {
	c, err := card.Open(path, card.WithClock(a.now))
	if err != nil {
		return err
	}
	front, back := frontPlaceholder, backPlaceholder
	if len(content) > 0 {
		titlePrefix, linePrefix := "", ""
		if markdown {
			titlePrefix, linePrefix = "# ", "* "
		}
		front = titlePrefix + content[0]
		if len(content) > 1 {
			lines := make([]string, 0, len(content)-1)
			for _, line := range content[1:] {
				lines = append(lines, linePrefix+line)
			}
			back = strings.Join(lines, "\n")
		}
	}
	if err := c.SetFront(front); err != nil {
		return err
	}
	if err := c.SetBack(back); err != nil {
		return err
	}
	return c.Save()
}

func newResetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reset <file>",
		Short: "reset a card",
		Long:  "Forget the review history of a card. Its content is kept.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			path := absPath(args[0])

			if info, err := os.Stat(path); err != nil || !info.Mode().IsRegular() {
				fmt.Fprintf(out, "File %q doesn't exist\n", path)
				return failed()
			}
			c, err := card.Open(path, card.WithClock(a.now))
			if err != nil {
				return err
			}
			c.Reset()
			if err := c.Save(); err != nil {
				return err
			}
			fmt.Fprintf(out, "File written to %q\n", path)
			return nil
		},
	}
}
