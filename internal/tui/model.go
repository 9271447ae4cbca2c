// Package tui implements the interactive reader: a two-mode state machine
// over a table of contents view and a chapter view, driven by one key event
// at a time.
package tui

import (
	"fmt"
	"os"
	"os/exec"
	"path"
	"slices"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/h2non/filetype"
	"github.com/rs/zerolog/log"

	"github.com/colonyops/leaf/internal/core/config"
	"github.com/colonyops/leaf/internal/core/epub"
	"github.com/colonyops/leaf/internal/core/htmltext"
)

// ContentSource reads named entries out of the open archive.
type ContentSource interface {
	Read(name string) ([]byte, error)
}

// Deps are the collaborators the reader needs. The table of contents and the
// archive are read-only for the whole session.
type Deps struct {
	Book   ContentSource
	TOC    epub.TableOfContents
	Config *config.Config
}

type mode int

const (
	modeTOC mode = iota
	modeChapter
)

// chapterContent is a chapter materialized for display. Cached per entry so
// re-entering a chapter never re-parses markup; dropped wholesale when the
// terminal width changes since the wrap width is baked into the lines.
type chapterContent struct {
	lines []string
	raw   []byte // original markup, for the source viewer
}

// execDoneMsg reports a finished external viewer/editor process. tmp is the
// temp file handed to it, removed on receipt.
type execDoneMsg struct {
	tmp string
	err error
}

// Model is the reader's bubbletea model.
type Model struct {
	book ContentSource
	toc  epub.TableOfContents
	cfg  *config.Config

	mode mode

	// TOC view state.
	windowStart int
	cursorRow   int

	// Chapter view state: the active entry plus one persistent scroll
	// offset per TOC entry, surviving switches back to the TOC.
	entry   int
	offsets []int
	cache   map[int]*chapterContent

	width  int
	height int
	status string

	tocKeys  tocKeyMap
	chapKeys chapterKeyMap
	helpView help.Model

	quitting bool
}

// New builds the initial model: TOC mode, cursor at the top.
func New(deps Deps) Model {
	return Model{
		book:     deps.Book,
		toc:      deps.TOC,
		cfg:      deps.Config,
		offsets:  make([]int, len(deps.TOC)),
		cache:    make(map[int]*chapterContent),
		width:    80,
		height:   24,
		tocKeys:  defaultTOCKeys(),
		chapKeys: defaultChapterKeys(),
		helpView: help.New(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd { return nil }

// Update implements tea.Model. One event in, at most one state transition out.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.helpView.Width = msg.Width
		// Lines are wrapped to the old width; rebuild on next entry.
		m.cache = make(map[int]*chapterContent)
		m.clampTOC()
		if m.mode == modeChapter {
			// Re-materialize the open chapter at the new width.
			m.openChapter(m.entry)
		}
		return m, nil

	case execDoneMsg:
		if msg.tmp != "" {
			_ = os.Remove(msg.tmp)
		}
		if msg.err != nil {
			log.Warn().Err(msg.err).Msg("external program failed")
			m.status = fmt.Sprintf("external program failed: %v", msg.err)
		}
		return m, nil

	case tea.KeyMsg:
		m.status = ""
		switch m.mode {
		case modeChapter:
			return m.updateChapter(msg)
		default:
			return m.updateTOC(msg)
		}
	}
	return m, nil
}

func (m Model) updateTOC(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	vh := m.viewHeight()
	switch {
	case key.Matches(msg, m.tocKeys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.tocKeys.Down):
		// Scroll the window under a fixed cursor while there are
		// entries below it; only then walk the cursor down.
		if m.windowStart < len(m.toc)-vh {
			m.windowStart++
		} else if m.cursorRow < vh-1 && m.windowStart+m.cursorRow < len(m.toc)-1 {
			m.cursorRow++
		}

	case key.Matches(msg, m.tocKeys.Up):
		if m.windowStart > 0 {
			m.windowStart--
		} else if m.cursorRow > 0 {
			m.cursorRow--
		}

	case key.Matches(msg, m.tocKeys.PageDown):
		m.windowStart = clamp(m.windowStart+vh-1, 0, max(0, len(m.toc)-vh))

	case key.Matches(msg, m.tocKeys.PageUp):
		m.windowStart = clamp(m.windowStart-(vh-1), 0, max(0, len(m.toc)-vh))

	case key.Matches(msg, m.tocKeys.Open):
		m.openChapter(m.windowStart + m.cursorRow)
	}
	return m, nil
}

func (m Model) updateChapter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var (
		vh    = m.viewHeight()
		o     = m.offsets[m.entry]
		total = 0
	)
	if cc := m.cache[m.entry]; cc != nil {
		total = len(cc.lines)
	}

	switch {
	case key.Matches(msg, m.chapKeys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.chapKeys.Back):
		// TOC cursor and window were never touched; returning restores
		// them as-is.
		m.mode = modeTOC

	case key.Matches(msg, m.chapKeys.Down):
		if o+vh-1 < total {
			m.offsets[m.entry] = o + 1
		}

	case key.Matches(msg, m.chapKeys.Up):
		if o > 0 {
			m.offsets[m.entry] = o - 1
		}

	case key.Matches(msg, m.chapKeys.LineDown):
		if o+vh-1 < total {
			m.offsets[m.entry] = o + vh - 1
		}

	case key.Matches(msg, m.chapKeys.LineUp):
		m.offsets[m.entry] = max(0, o-(vh-1))

	case key.Matches(msg, m.chapKeys.Images):
		cmd := m.showImages()
		return m, cmd

	case key.Matches(msg, m.chapKeys.Edit):
		cmd := m.viewSource()
		return m, cmd
	}
	return m, nil
}

// openChapter materializes the entry's content (or reuses the session cache)
// and switches to chapter mode. Header-only entries are not enterable.
func (m *Model) openChapter(idx int) {
	if idx < 0 || idx >= len(m.toc) {
		return
	}
	entry := m.toc[idx]
	if entry.ContentRef == "" {
		return
	}

	if _, ok := m.cache[idx]; !ok {
		data, err := m.book.Read(entry.ContentRef)
		if err != nil {
			log.Warn().Err(err).Str("ref", entry.ContentRef).Msg("chapter unreadable")
			m.status = fmt.Sprintf("cannot read %s", entry.ContentRef)
			return
		}
		text := htmltext.Convert(data)
		m.cache[idx] = &chapterContent{
			lines: htmltext.Lines(text, m.width),
			raw:   data,
		}
	}

	m.entry = idx
	m.mode = modeChapter
}

// showImages hands every image on the visible page to the configured viewer,
// one blocking subprocess at a time. A missing archive entry reports a status
// message and the rest still open.
func (m *Model) showImages() tea.Cmd {
	cc := m.cache[m.entry]
	if cc == nil {
		return nil
	}

	refs := htmltext.ImageRefs(m.visibleLines(cc))
	var cmds []tea.Cmd
	for _, ref := range refs {
		data, err := m.book.Read(ref.Path)
		if err != nil {
			log.Warn().Err(err).Str("image", ref.Path).Msg("image unreadable")
			m.status = "image not found: " + ref.Path
			continue
		}
		cmd, err := m.openExternal(m.cfg.Viewer, data, imageExt(ref.Path, data))
		if err != nil {
			m.status = err.Error()
			continue
		}
		cmds = append(cmds, cmd)
	}

	if len(cmds) == 0 {
		if m.status == "" {
			m.status = "no images on this page"
		}
		return nil
	}
	return tea.Sequence(cmds...)
}

// viewSource opens the chapter's original markup in the configured editor.
// The temp file is thrown away afterwards; nothing is written back into the
// archive.
func (m *Model) viewSource() tea.Cmd {
	cc := m.cache[m.entry]
	if cc == nil {
		return nil
	}
	cmd, err := m.openExternal(m.cfg.Editor, cc.raw, ".xhtml")
	if err != nil {
		m.status = err.Error()
		return nil
	}
	return cmd
}

// openExternal writes data to a temp file and returns a command that runs
// argv on it, blocking the session with the terminal handed over until the
// program exits.
func (m *Model) openExternal(argv []string, data []byte, ext string) (tea.Cmd, error) {
	tmp, err := os.CreateTemp("", "leaf-*"+ext)
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = os.Remove(name)
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return nil, fmt.Errorf("write temp file: %w", err)
	}

	args := append(slices.Clone(argv[1:]), name)
	c := exec.Command(argv[0], args...)
	return tea.ExecProcess(c, func(err error) tea.Msg {
		return execDoneMsg{tmp: name, err: err}
	}), nil
}

// visibleLines returns the chapter slice currently on screen.
func (m Model) visibleLines(cc *chapterContent) []string {
	o := clamp(m.offsets[m.entry], 0, len(cc.lines))
	end := min(o+m.viewHeight(), len(cc.lines))
	return cc.lines[o:end]
}

// viewHeight is the number of content rows: the viewport minus the status
// and help lines.
func (m Model) viewHeight() int {
	return max(1, m.height-2)
}

// clampTOC re-establishes the TOC invariants after a resize.
func (m *Model) clampTOC() {
	vh := m.viewHeight()
	m.windowStart = clamp(m.windowStart, 0, max(0, len(m.toc)-vh))
	m.cursorRow = clamp(m.cursorRow, 0, vh-1)
	if last := len(m.toc) - 1 - m.windowStart; m.cursorRow > last {
		m.cursorRow = max(0, last)
	}
}

// imageExt picks a temp-file extension for image bytes: sniffed from the
// content when recognizable, else whatever the path carries.
func imageExt(name string, data []byte) string {
	if kind, err := filetype.Match(data); err == nil && kind != filetype.Unknown {
		return "." + kind.Extension
	}
	return path.Ext(name)
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
