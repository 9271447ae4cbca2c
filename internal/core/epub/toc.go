package epub

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/beevik/etree"
	"github.com/rs/zerolog/log"
)

// containerPath is the fixed location of the container descriptor that names
// the package document.
const containerPath = "META-INF/container.xml"

// ncxMediaType marks the legacy navigation document in the manifest.
const ncxMediaType = "application/x-dtbncx+xml"

// Entry is one row of the table of contents. ContentRef is the archive path
// of the entry's content document; an empty ContentRef marks a header-only
// row (the package title, section headings) that cannot be opened. An empty
// Title is valid: it means the navigation document had no label for the path.
type Entry struct {
	Title      string
	ContentRef string
}

// TableOfContents is the book's reading order: the package title first
// (header-only), then one entry per spine item. Immutable once built.
type TableOfContents []Entry

// Index builds the table of contents from the open book.
//
// A missing or unparseable container descriptor or package document is fatal:
// without them there is no reading order. Defects inside the spine or the
// navigation document degrade per entry instead — unknown spine references
// are skipped, unlabeled entries keep an empty title, and a missing
// navigation document just means no labels at all.
func Index(b *Book) (TableOfContents, error) {
	opfPath, err := packagePath(b)
	if err != nil {
		return nil, err
	}

	data, err := b.Read(opfPath)
	if err != nil {
		return nil, fmt.Errorf("read package document: %w", err)
	}

	doc := etree.NewDocument()
	doc.ReadSettings.Permissive = true
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("parse package document %s: %w", opfPath, err)
	}

	base := path.Dir(opfPath)

	toc := TableOfContents{{Title: packageTitle(doc, b.path)}}

	// Manifest: id -> archive path, plus the NCX location if declared.
	var (
		items = map[string]string{}
		ncx   string
	)
	for _, item := range doc.FindElements("//manifest/item") {
		id := item.SelectAttrValue("id", "")
		href := item.SelectAttrValue("href", "")
		if id == "" || href == "" {
			continue
		}
		resolved := resolve(base, href)
		items[id] = resolved
		if item.SelectAttrValue("media-type", "") == ncxMediaType {
			ncx = resolved
		}
	}

	// Spine order, resolved through the manifest.
	var order []string
	for _, ref := range doc.FindElements("//spine/itemref") {
		idref := ref.SelectAttrValue("idref", "")
		p, ok := items[idref]
		if !ok {
			log.Warn().Str("idref", idref).Msg("spine references unknown manifest item")
			continue
		}
		order = append(order, p)
	}

	labels := navLabels(b, ncx)

	for _, p := range order {
		toc = append(toc, Entry{Title: labels[p], ContentRef: strings.TrimSpace(p)})
	}
	return toc, nil
}

// packagePath reads the container descriptor and returns the package
// document's archive path.
func packagePath(b *Book) (string, error) {
	data, err := b.Read(containerPath)
	if err != nil {
		return "", fmt.Errorf("read container descriptor: %w", err)
	}

	doc := etree.NewDocument()
	doc.ReadSettings.Permissive = true
	if err := doc.ReadFromBytes(data); err != nil {
		return "", fmt.Errorf("parse container descriptor: %w", err)
	}

	root := doc.FindElement("//rootfile")
	if root == nil {
		return "", fmt.Errorf("container descriptor has no rootfile element")
	}
	full := root.SelectAttrValue("full-path", "")
	if full == "" {
		return "", fmt.Errorf("container rootfile has no full-path")
	}
	return full, nil
}

// packageTitle extracts the dc:title text, falling back to the archive's
// filename stem when the metadata omits it.
func packageTitle(doc *etree.Document, archivePath string) string {
	if el := doc.FindElement("//title"); el != nil {
		if t := strings.TrimSpace(el.Text()); t != "" {
			return t
		}
	}
	stem := filepath.Base(archivePath)
	return strings.TrimSuffix(stem, filepath.Ext(stem))
}

// navLabels parses the NCX document into a content-path -> label map. Any
// failure here degrades to an empty map: entries still appear in the table of
// contents, just untitled.
func navLabels(b *Book, ncxPath string) map[string]string {
	labels := map[string]string{}
	if ncxPath == "" {
		return labels
	}

	data, err := b.Read(ncxPath)
	if err != nil {
		log.Warn().Err(err).Str("ncx", ncxPath).Msg("navigation document unreadable")
		return labels
	}

	doc := etree.NewDocument()
	doc.ReadSettings.Permissive = true
	if err := doc.ReadFromBytes(data); err != nil {
		log.Warn().Err(err).Str("ncx", ncxPath).Msg("navigation document unparseable")
		return labels
	}

	base := path.Dir(ncxPath)
	for _, np := range doc.FindElements("//navPoint") {
		content := np.FindElement("content")
		if content == nil {
			continue
		}
		src := content.SelectAttrValue("src", "")
		// Anchor fragments address positions inside a document; labels
		// map whole documents.
		src, _, _ = strings.Cut(src, "#")
		if src == "" {
			continue
		}

		text := np.FindElement("navLabel/text")
		if text == nil {
			continue
		}
		labels[resolve(base, src)] = strings.TrimSpace(text.Text())
	}
	return labels
}

// resolve joins an href to the base directory of the document that declared
// it. Archive paths always use forward slashes.
func resolve(base, href string) string {
	if base == "." || base == "" {
		return href
	}
	return path.Join(base, href)
}
