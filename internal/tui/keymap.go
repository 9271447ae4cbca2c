package tui

import "github.com/charmbracelet/bubbles/key"

// Arrow keys move by one row or line, PgUp/PgDn by a window at a time. In
// chapter mode the page keys carry the historical line-command naming and the
// single-step guard is shared with the arrow keys; inherited behavior, keep
// it as is.

type tocKeyMap struct {
	Down     key.Binding
	Up       key.Binding
	PageDown key.Binding
	PageUp   key.Binding
	Open     key.Binding
	Quit     key.Binding
}

func (k tocKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Down, k.PageDown, k.Open, k.Quit}
}

func (k tocKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Down, k.Up},
		{k.PageDown, k.PageUp},
		{k.Open, k.Quit},
	}
}

type chapterKeyMap struct {
	Down     key.Binding
	Up       key.Binding
	LineDown key.Binding
	LineUp   key.Binding
	Back     key.Binding
	Images   key.Binding
	Edit     key.Binding
	Quit     key.Binding
}

func (k chapterKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Down, k.LineDown, k.Back, k.Images, k.Quit}
}

func (k chapterKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Down, k.Up},
		{k.LineDown, k.LineUp},
		{k.Back, k.Images, k.Edit, k.Quit},
	}
}

func defaultTOCKeys() tocKeyMap {
	return tocKeyMap{
		Down:     key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "down")),
		Up:       key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "up")),
		PageDown: key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "page down")),
		PageUp:   key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "page up")),
		Open:     key.NewBinding(key.WithKeys("enter", "tab", "right", "left"), key.WithHelp("enter/tab", "open")),
		Quit:     key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func defaultChapterKeys() chapterKeyMap {
	return chapterKeyMap{
		Down:     key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "scroll down")),
		Up:       key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "scroll up")),
		LineDown: key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "forward a page")),
		LineUp:   key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "back a page")),
		Back:     key.NewBinding(key.WithKeys("tab", "right", "left"), key.WithHelp("tab", "contents")),
		Images:   key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "view images")),
		Edit:     key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "view source")),
		Quit:     key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}
