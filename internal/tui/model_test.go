package tui

import (
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/leaf/internal/core/config"
	"github.com/colonyops/leaf/internal/core/epub"
)

// fakeBook records every archive read so tests can assert on them.
type fakeBook struct {
	entries map[string][]byte
	reads   []string
}

func (f *fakeBook) Read(name string) ([]byte, error) {
	f.reads = append(f.reads, name)
	data, ok := f.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", epub.ErrNotFound, name)
	}
	return data, nil
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	return &cfg
}

// newTestModel builds a model sized to width x height. vh (content rows) is
// height - 2: one status line, one help line.
func newTestModel(t *testing.T, toc epub.TableOfContents, book *fakeBook, width, height int) Model {
	t.Helper()
	m := New(Deps{Book: book, TOC: toc, Config: testConfig()})
	return resize(m, width, height)
}

func resize(m Model, width, height int) Model {
	next, _ := m.Update(tea.WindowSizeMsg{Width: width, Height: height})
	return next.(Model)
}

func press(m Model, keys ...string) Model {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		case "pgdown":
			msg = tea.KeyMsg{Type: tea.KeyPgDown}
		case "pgup":
			msg = tea.KeyMsg{Type: tea.KeyPgUp}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

// wideToc builds a title row plus n content entries backed by book content.
func wideToc(n, linesPer int) (epub.TableOfContents, *fakeBook) {
	toc := epub.TableOfContents{{Title: "Big Book"}}
	book := &fakeBook{entries: map[string][]byte{}}
	for i := 1; i <= n; i++ {
		ref := fmt.Sprintf("ch%d.xhtml", i)
		toc = append(toc, epub.Entry{Title: fmt.Sprintf("Chapter %d", i), ContentRef: ref})
		body := strings.Repeat("line\n", linesPer)
		book.entries[ref] = []byte("<body>" + body + "</body>")
	}
	return toc, book
}

func assertTOCInvariants(t *testing.T, m Model) {
	t.Helper()
	vh := m.viewHeight()
	assert.GreaterOrEqual(t, m.windowStart, 0)
	assert.LessOrEqual(t, m.windowStart, max(0, len(m.toc)-vh))
	assert.GreaterOrEqual(t, m.cursorRow, 0)
	assert.Less(t, m.cursorRow, vh)
	assert.Less(t, m.windowStart+m.cursorRow, len(m.toc))
}

func TestTOCScrollInvariants(t *testing.T) {
	toc, book := wideToc(29, 3)
	m := newTestModel(t, toc, book, 40, 12) // vh = 10

	sequences := [][]string{
		{"down", "down", "down"},
		{"pgdown", "pgdown", "pgdown", "pgdown", "pgdown"},
		{"down", "down", "down", "down", "down", "down", "down", "down"},
		{"up", "pgup", "up"},
		{"pgup", "pgup", "pgup", "pgup"},
		{"up", "up", "up", "up", "up"},
	}
	for _, seq := range sequences {
		for _, k := range seq {
			m = press(m, k)
			assertTOCInvariants(t, m)
		}
	}
}

func TestTOCLineDownScrollsWindowBeforeCursor(t *testing.T) {
	toc, book := wideToc(29, 3)
	m := newTestModel(t, toc, book, 40, 12) // vh = 10

	m = press(m, "down")
	assert.Equal(t, 1, m.windowStart, "window scrolls while entries remain below")
	assert.Equal(t, 0, m.cursorRow)

	// Bottom out the window, then the cursor starts walking.
	for i := 0; i < 40; i++ {
		m = press(m, "down")
	}
	assert.Equal(t, len(toc)-10, m.windowStart)
	assert.Equal(t, 9, m.cursorRow)

	// Fully saturated: another press changes nothing.
	before := m
	m = press(m, "down")
	assert.Equal(t, before.windowStart, m.windowStart)
	assert.Equal(t, before.cursorRow, m.cursorRow)
}

func TestTOCPageKeysClamp(t *testing.T) {
	toc, book := wideToc(29, 3)
	m := newTestModel(t, toc, book, 40, 12) // vh = 10

	m = press(m, "pgdown", "pgdown", "pgdown", "pgdown")
	assert.Equal(t, len(toc)-10, m.windowStart, "page down clamps at the bottom window")

	m = press(m, "pgup", "pgup", "pgup", "pgup", "pgup")
	assert.Equal(t, 0, m.windowStart, "page up clamps at zero")
}

func TestHeaderEntryIsNotEnterable(t *testing.T) {
	toc, book := wideToc(3, 3)
	m := newTestModel(t, toc, book, 40, 12)

	// Cursor sits on the title row, which has no content.
	m = press(m, "enter")
	assert.Equal(t, modeTOC, m.mode)
	assert.Empty(t, book.reads)
}

func TestEnterOpensChapterAndCachesIt(t *testing.T) {
	toc, book := wideToc(3, 5)
	m := newTestModel(t, toc, book, 40, 12)

	m = press(m, "down", "enter")
	require.Equal(t, modeChapter, m.mode)
	assert.Equal(t, 1, m.entry)
	assert.Equal(t, []string{"ch1.xhtml"}, book.reads)

	// Re-entry reuses the session cache: no second read.
	m = press(m, "tab", "enter")
	require.Equal(t, modeChapter, m.mode)
	assert.Equal(t, []string{"ch1.xhtml"}, book.reads)
}

func TestChapterScrollPersistsAcrossTOCSwitch(t *testing.T) {
	toc, book := wideToc(2, 60)
	m := newTestModel(t, toc, book, 40, 12) // vh = 10

	m = press(m, "down", "enter")
	require.Equal(t, modeChapter, m.mode)

	for i := 0; i < 12; i++ {
		m = press(m, "down")
	}
	assert.Equal(t, 12, m.offsets[m.entry])

	m = press(m, "tab")
	require.Equal(t, modeTOC, m.mode)
	m = press(m, "enter")
	require.Equal(t, modeChapter, m.mode)
	assert.Equal(t, 12, m.offsets[m.entry], "scroll offset survives the round trip")
}

func TestChapterArrowStepsOneLine(t *testing.T) {
	toc, book := wideToc(1, 60)
	m := newTestModel(t, toc, book, 40, 12)

	m = press(m, "down", "enter", "down", "down", "down")
	assert.Equal(t, 3, m.offsets[m.entry])

	m = press(m, "up")
	assert.Equal(t, 2, m.offsets[m.entry])
}

func TestChapterPageKeysJumpViewport(t *testing.T) {
	toc, book := wideToc(1, 60)
	m := newTestModel(t, toc, book, 40, 12) // vh = 10

	m = press(m, "down", "enter", "pgdown")
	assert.Equal(t, 9, m.offsets[m.entry], "page key jumps viewportHeight-1 lines")

	m = press(m, "pgup")
	assert.Equal(t, 0, m.offsets[m.entry])

	m = press(m, "pgup")
	assert.Equal(t, 0, m.offsets[m.entry], "floor at zero")
}

func TestChapterScrollClampIsIdempotent(t *testing.T) {
	toc, book := wideToc(1, 25)
	m := newTestModel(t, toc, book, 40, 12) // vh = 10

	m = press(m, "down", "enter")
	for i := 0; i < 50; i++ {
		m = press(m, "pgdown")
	}
	at := m.offsets[m.entry]

	m = press(m, "pgdown")
	assert.Equal(t, at, m.offsets[m.entry], "page down past the clamp mutates nothing")
	m = press(m, "down")
	assert.Equal(t, at, m.offsets[m.entry], "line down past the clamp mutates nothing")
}

func TestShowImagesRequestsEachVisibleImage(t *testing.T) {
	toc := epub.TableOfContents{
		{Title: "Pictures"},
		{Title: "Plates", ContentRef: "plates.xhtml"},
	}
	book := &fakeBook{entries: map[string][]byte{
		"plates.xhtml":     []byte(`<body><img src="images/cover.jpg" alt="Cover"/></body>`),
		"images/cover.jpg": {0xFF, 0xD8, 0xFF, 0xE0},
	}}
	m := newTestModel(t, toc, book, 40, 12)

	m = press(m, "down", "enter", "i")

	var imageReads []string
	for _, r := range book.reads {
		if r != "plates.xhtml" {
			imageReads = append(imageReads, r)
		}
	}
	assert.Equal(t, []string{"images/cover.jpg"}, imageReads,
		"exactly one display request for the visible image")
}

func TestShowImagesMissingEntryIsNonFatal(t *testing.T) {
	toc := epub.TableOfContents{
		{Title: "Pictures"},
		{Title: "Plates", ContentRef: "plates.xhtml"},
	}
	book := &fakeBook{entries: map[string][]byte{
		"plates.xhtml": []byte(`<body><img src="images/ghost.png" alt=""/></body>`),
	}}
	m := newTestModel(t, toc, book, 40, 12)

	m = press(m, "down", "enter", "i")
	assert.Equal(t, modeChapter, m.mode, "session continues")
	assert.Contains(t, m.status, "image not found")
	assert.Contains(t, m.status, "images/ghost.png")
}

func TestQuitFromBothModes(t *testing.T) {
	toc, book := wideToc(2, 5)

	m := newTestModel(t, toc, book, 40, 12)
	m = press(m, "q")
	assert.True(t, m.quitting)

	m = newTestModel(t, toc, book, 40, 12)
	m = press(m, "down", "enter", "esc")
	assert.True(t, m.quitting)
}

func TestResizeRestoresInvariants(t *testing.T) {
	toc, book := wideToc(29, 3)
	m := newTestModel(t, toc, book, 40, 12)

	m = press(m, "pgdown", "pgdown", "down", "down", "down")
	m = resize(m, 40, 40) // taller than the list needs
	assertTOCInvariants(t, m)

	m = resize(m, 40, 5)
	assertTOCInvariants(t, m)
}

func TestViewShowsTitleRowAndChapterText(t *testing.T) {
	toc, book := wideToc(2, 5)
	m := newTestModel(t, toc, book, 60, 12)

	assert.Contains(t, m.View(), "Big Book")
	assert.Contains(t, m.View(), "Chapter 1")

	m = press(m, "down", "enter")
	assert.Contains(t, m.View(), "line")
}
