package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/colonyops/leaf/internal/core/epub"
	"github.com/colonyops/leaf/internal/tui"
)

// ReadCmd opens the interactive reader. It is the default action when no
// subcommand is given.
type ReadCmd struct {
	flags *Flags
}

// NewReadCmd creates a new read command.
func NewReadCmd(flags *Flags) *ReadCmd {
	return &ReadCmd{flags: flags}
}

// Run opens the archive, indexes it, and hands the session to the TUI.
func (cmd *ReadCmd) Run(ctx context.Context, c *cli.Command) error {
	path := c.Args().First()
	if path == "" {
		return fmt.Errorf("missing EPUB argument. Run 'leaf --help' for usage")
	}
	if !epub.IsEpub(path) {
		// Not a readable EPUB: the contract is a silent no-op.
		log.Debug().Str("path", path).Msg("not an epub file, nothing to do")
		return nil
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("interactive mode needs a terminal; use --dump for plain text")
	}

	book, err := epub.Open(path)
	if err != nil {
		return err
	}
	defer book.Close()

	toc, err := epub.Index(book)
	if err != nil {
		return err
	}

	log.Info().Str("path", path).Int("entries", len(toc)).Msg("opening reader")

	m := tui.New(tui.Deps{
		Book:   book,
		TOC:    toc,
		Config: cmd.flags.Config,
	})

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		// A signal-killed program is a clean user interrupt, not a
		// reader defect.
		if errors.Is(err, tea.ErrProgramKilled) {
			return nil
		}
		return fmt.Errorf("run reader: %w", err)
	}
	return nil
}
