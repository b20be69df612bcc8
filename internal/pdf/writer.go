// Package pdf serializes a laid-out document as PDF 1.4.
//
// Output is written one object at a time, so a reader on the other end of a
// pipe sees bytes as soon as each page is ready. The embedded face is stored
// as a TrueType program with WinAnsi encoding.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zlib"

	"github.com/aretw0/quire/internal/fonts"
	"github.com/aretw0/quire/internal/layout"
)

const header = "%PDF-1.4\n%\xe2\xe3\xcf\xd3\n"

// Fixed object numbers; pages follow.
const (
	objCatalog = iota + 1
	objPages
	objFont
	objWidths
	objDescriptor
	objFontFile
	objInfo
	firstPageObj
)

type config struct {
	compress bool
	created  time.Time
}

// Option configures a Write call.
type Option func(*config)

// WithCompression toggles Flate compression of page content streams.
// Embedded fonts and decoded images are always compressed.
func WithCompression(on bool) Option {
	return func(c *config) {
		c.compress = on
	}
}

// WithCreationDate stamps the document info dictionary.
// Without it the output is deterministic for a given layout.
func WithCreationDate(t time.Time) Option {
	return func(c *config) {
		c.created = t
	}
}

// pagePlan holds the object numbers reserved for one page.
type pagePlan struct {
	page    int
	content int
	images  []int // per item index, 0 when the item has no image
	annots  []int
}

// Write serializes doc to w. The context is checked between objects.
func Write(ctx context.Context, w io.Writer, doc *layout.Document, face *fonts.Face, opts ...Option) error {
	cfg := config{compress: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	if face == nil {
		face = fonts.Default()
	}

	pw := &writer{w: w, offsets: []int64{0}}
	plans := plan(doc)
	if err := pw.raw(header); err != nil {
		return err
	}

	kids := make([]string, len(plans))
	for i, pl := range plans {
		kids[i] = ref(pl.page)
	}
	steps := []func() error{
		func() error {
			return pw.object(objCatalog, fmt.Sprintf("<< /Type /Catalog /Pages %s >>", ref(objPages)))
		},
		func() error {
			return pw.object(objPages, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(plans)))
		},
		func() error { return pw.object(objFont, fontDict(face)) },
		func() error { return pw.object(objWidths, widthsArray(face)) },
		func() error { return pw.object(objDescriptor, descriptorDict(face)) },
		func() error {
			data, err := fontProgram(face)
			if err != nil {
				return err
			}
			return pw.stream(objFontFile, fmt.Sprintf("/Length1 %d /Filter /FlateDecode", len(face.Data())), data)
		},
		func() error { return pw.object(objInfo, infoDict(doc.Info, cfg.created)) },
	}
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := step(); err != nil {
			return err
		}
	}

	for i, page := range doc.Pages {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := pw.page(page, plans[i], cfg); err != nil {
			return fmt.Errorf("page %d: %w", page.Number, err)
		}
	}
	return pw.trailer()
}

// plan reserves object numbers for every page, image and annotation.
func plan(doc *layout.Document) []pagePlan {
	next := firstPageObj
	alloc := func() int {
		id := next
		next++
		return id
	}
	plans := make([]pagePlan, len(doc.Pages))
	for i, page := range doc.Pages {
		pl := pagePlan{page: alloc(), content: alloc(), images: make([]int, len(page.Items))}
		for j, it := range page.Items {
			if it.Image != nil {
				pl.images[j] = alloc()
			}
		}
		for range annotations(page) {
			pl.annots = append(pl.annots, alloc())
		}
		plans[i] = pl
	}
	return plans
}

// writer tracks byte offsets for the cross-reference table.
type writer struct {
	w       io.Writer
	off     int64
	offsets []int64 // index is the object number
}

func (pw *writer) raw(s string) error {
	n, err := io.WriteString(pw.w, s)
	pw.off += int64(n)
	return err
}

func (pw *writer) mark(id int) {
	for len(pw.offsets) <= id {
		pw.offsets = append(pw.offsets, 0)
	}
	pw.offsets[id] = pw.off
}

func (pw *writer) object(id int, body string) error {
	pw.mark(id)
	return pw.raw(fmt.Sprintf("%d 0 obj\n%s\nendobj\n", id, body))
}

// stream writes a stream object; extra is spliced into its dictionary.
func (pw *writer) stream(id int, extra string, data []byte) error {
	pw.mark(id)
	var b bytes.Buffer
	fmt.Fprintf(&b, "%d 0 obj\n<< /Length %d", id, len(data))
	if extra != "" {
		b.WriteString(" " + extra)
	}
	b.WriteString(" >>\nstream\n")
	b.Write(data)
	b.WriteString("\nendstream\nendobj\n")
	n, err := pw.w.Write(b.Bytes())
	pw.off += int64(n)
	return err
}

func (pw *writer) page(page *layout.Page, pl pagePlan, cfg config) error {
	var xobjects []string
	for i, id := range pl.images {
		if id != 0 {
			xobjects = append(xobjects, fmt.Sprintf("/Im%d %s", i, ref(id)))
		}
	}
	resources := fmt.Sprintf("/Font << /F1 %s >>", ref(objFont))
	if len(xobjects) > 0 {
		resources += fmt.Sprintf(" /XObject << %s >>", strings.Join(xobjects, " "))
	}
	dict := fmt.Sprintf("<< /Type /Page /Parent %s /MediaBox [0 0 %s %s] /Resources << %s >> /Contents %s",
		ref(objPages), num(page.Width), num(page.Height), resources, ref(pl.content))
	if len(pl.annots) > 0 {
		refs := make([]string, len(pl.annots))
		for i, id := range pl.annots {
			refs[i] = ref(id)
		}
		dict += fmt.Sprintf(" /Annots [%s]", strings.Join(refs, " "))
	}
	if err := pw.object(pl.page, dict+" >>"); err != nil {
		return err
	}

	content, err := pageContent(page)
	if err != nil {
		return err
	}
	extra := ""
	if cfg.compress {
		if content, err = deflate(content); err != nil {
			return err
		}
		extra = "/Filter /FlateDecode"
	}
	if err := pw.stream(pl.content, extra, content); err != nil {
		return err
	}

	for i, id := range pl.images {
		if id == 0 {
			continue
		}
		dict, data, err := imageXObject(page.Items[i].Image)
		if err != nil {
			return fmt.Errorf("image %s: %w", page.Items[i].Path, err)
		}
		if err := pw.stream(id, dict, data); err != nil {
			return err
		}
	}

	for i, a := range annotations(page) {
		if err := pw.object(pl.annots[i], a.dict(page.Height)); err != nil {
			return err
		}
	}
	return nil
}

func (pw *writer) trailer() error {
	xref := pw.off
	var b strings.Builder
	fmt.Fprintf(&b, "xref\n0 %d\n0000000000 65535 f \n", len(pw.offsets))
	for _, off := range pw.offsets[1:] {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root %s /Info %s >>\nstartxref\n%d\n%%%%EOF\n",
		len(pw.offsets), ref(objCatalog), ref(objInfo), xref)
	return pw.raw(b.String())
}

func ref(id int) string { return fmt.Sprintf("%d 0 R", id) }

func fontDict(face *fonts.Face) string {
	return fmt.Sprintf("<< /Type /Font /Subtype /TrueType /BaseFont /%s /FirstChar %d /LastChar %d /Widths %s /FontDescriptor %s /Encoding /WinAnsiEncoding >>",
		name(face.Name()), fonts.FirstChar, fonts.LastChar, ref(objWidths), ref(objDescriptor))
}

func widthsArray(face *fonts.Face) string {
	ws := face.Widths()
	parts := make([]string, len(ws))
	for i, w := range ws {
		parts[i] = num(w)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func descriptorDict(face *fonts.Face) string {
	bb := face.BBox()
	return fmt.Sprintf("<< /Type /FontDescriptor /FontName /%s /Flags 32 /FontBBox [%s %s %s %s] /ItalicAngle 0 /Ascent %s /Descent %s /CapHeight %s /StemV 80 /FontFile2 %s >>",
		name(face.Name()), num(bb[0]), num(bb[1]), num(bb[2]), num(bb[3]),
		num(face.Ascent()), num(face.Descent()), num(face.CapHeight()), ref(objFontFile))
}

var (
	programsMu sync.Mutex
	programs   = map[*fonts.Face][]byte{}
)

// fontProgram returns the compressed font file, computed once per face.
func fontProgram(face *fonts.Face) ([]byte, error) {
	programsMu.Lock()
	defer programsMu.Unlock()
	if data, ok := programs[face]; ok {
		return data, nil
	}
	data, err := deflate(face.Data())
	if err != nil {
		return nil, err
	}
	programs[face] = data
	return data, nil
}

func infoDict(info layout.Info, created time.Time) string {
	var b strings.Builder
	b.WriteString("<<")
	for _, f := range []struct{ key, val string }{
		{"Title", info.Title},
		{"Author", info.Author},
		{"Subject", info.Subject},
		{"Keywords", info.Keywords},
		{"Creator", info.Creator},
		{"Producer", info.Producer},
	} {
		if f.val != "" {
			fmt.Fprintf(&b, " /%s %s", f.key, literal(f.val))
		}
	}
	if !created.IsZero() {
		fmt.Fprintf(&b, " /CreationDate (D:%s)", created.UTC().Format("20060102150405Z"))
	}
	b.WriteString(" >>")
	return b.String()
}

func deflate(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
