package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/leaf/internal/core/epub"
	"github.com/colonyops/leaf/internal/core/htmltext"
)

// DumpCmd implements the non-interactive text dump mode.
type DumpCmd struct {
	flags *Flags

	// flags
	dump bool
	cols int
}

// NewDumpCmd creates a new dump command.
func NewDumpCmd(flags *Flags) *DumpCmd {
	return &DumpCmd{flags: flags}
}

// Flags returns the dump flags for registration on the root command.
func (cmd *DumpCmd) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:        "dump",
			Aliases:     []string{"d"},
			Usage:       "dump the EPUB as plain text instead of opening the reader",
			Destination: &cmd.dump,
		},
		&cli.IntFlag{
			Name:        "cols",
			Aliases:     []string{"c"},
			Usage:       "number of columns to wrap to; 0 means no wrapping",
			Destination: &cmd.cols,
		},
	}
}

// Requested reports whether --dump was given.
func (cmd *DumpCmd) Requested() bool { return cmd.dump }

// Run prints every TOC entry's title and reflowed chapter text to stdout.
func (cmd *DumpCmd) Run(ctx context.Context, c *cli.Command) error {
	path := c.Args().First()
	if !epub.IsEpub(path) {
		// Not a readable EPUB: the contract is a silent no-op.
		log.Debug().Str("path", path).Msg("not an epub file, nothing to do")
		return nil
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

	cols := cmd.cols
	if !c.IsSet("cols") {
		cols = cmd.flags.Config.Cols
	}

	return Dump(c.Root().Writer, book, toc, cols)
}

// Dump writes the whole book as plain text: each entry's title underlined
// with '-' characters, then its reflowed chapter text (nothing for
// header-only entries), separated by a blank line.
func Dump(w io.Writer, book *epub.Book, toc epub.TableOfContents, cols int) error {
	for _, entry := range toc {
		if _, err := fmt.Fprintln(w, entry.Title); err != nil {
			return err
		}
		underline := strings.Repeat("-", runewidth.StringWidth(entry.Title))
		if _, err := fmt.Fprintln(w, underline); err != nil {
			return err
		}

		if entry.ContentRef != "" {
			data, err := book.Read(entry.ContentRef)
			if err != nil {
				// Spine entries that fail to read degrade to an
				// empty section rather than aborting the dump.
				log.Warn().Err(err).Str("ref", entry.ContentRef).Msg("chapter unreadable")
			} else {
				text := htmltext.Convert(data)
				for _, line := range htmltext.Lines(text, cols) {
					if _, err := fmt.Fprintln(w, line); err != nil {
						return err
					}
				}
			}
		}

		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}
