package exporter

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"image"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"text/template"
	"time"
)

// Slide geometry in EMU on a 16:9 canvas.
const (
	slideWidth  = 12192000
	slideHeight = 6858000
	margin      = 457200

	titleTop    = 228600
	titleHeight = 685800

	pictureTop    = 1005840
	pictureHeight = 4297680

	descriptionTop    = 5440680
	descriptionHeight = 1005840
)

// descriptionPrefix labels the description text box.
const descriptionPrefix = "数据描述："

// Slide is one chart page of a deck.
type Slide struct {
	Title       string
	ImagePath   string
	Description string
}

type slidePart struct {
	Slide
	image  []byte
	width  int
	height int
}

// Deck assembles a PowerPoint presentation with one chart per slide.
type Deck struct {
	Title  string
	Author string
	slides []slidePart
	now    func() time.Time
}

// NewDeck creates an empty deck.
func NewDeck(title string) *Deck {
	return &Deck{Title: title, Author: "SheetPulse", now: time.Now}
}

// AddSlide appends a slide. The image is read immediately so the file may be
// removed afterwards; it must be a PNG.
func (d *Deck) AddSlide(s Slide) error {
	data, err := os.ReadFile(s.ImagePath)
	if err != nil {
		return fmt.Errorf("failed to read slide image: %w", err)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to decode slide image: %w", err)
	}
	if format != "png" {
		return fmt.Errorf("slide image is %s, want png", format)
	}
	d.slides = append(d.slides, slidePart{Slide: s, image: data, width: cfg.Width, height: cfg.Height})
	return nil
}

// Len returns the number of slides.
func (d *Deck) Len() int {
	return len(d.slides)
}

// Save writes the deck to path, replacing any existing file.
func (d *Deck) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create deck directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".deck-*.pptx")
	if err != nil {
		return fmt.Errorf("failed to create deck file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := d.Write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close deck file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move deck into place: %w", err)
	}
	return nil
}

// Write writes the deck as a .pptx package.
func (d *Deck) Write(w io.Writer) error {
	zw := zip.NewWriter(w)

	stamp := d.now().UTC().Format(time.RFC3339)
	data := deckData{
		Title:    d.Title,
		Author:   d.Author,
		Created:  stamp,
		Modified: stamp,
		Slides:   make([]slideData, len(d.slides)),
		SlideCX:  slideWidth,
		SlideCY:  slideHeight,
	}
	for i, s := range d.slides {
		data.Slides[i] = layoutSlide(i+1, s)
	}

	parts := []struct {
		name string
		tmpl *template.Template
		data any
	}{
		{"[Content_Types].xml", contentTypesTmpl, data},
		{"_rels/.rels", rootRelsTmpl, data},
		{"docProps/app.xml", appTmpl, data},
		{"docProps/core.xml", coreTmpl, data},
		{"ppt/presentation.xml", presentationTmpl, data},
		{"ppt/_rels/presentation.xml.rels", presentationRelsTmpl, data},
		{"ppt/slideMasters/slideMaster1.xml", slideMasterTmpl, data},
		{"ppt/slideMasters/_rels/slideMaster1.xml.rels", slideMasterRelsTmpl, data},
		{"ppt/slideLayouts/slideLayout1.xml", slideLayoutTmpl, data},
		{"ppt/slideLayouts/_rels/slideLayout1.xml.rels", slideLayoutRelsTmpl, data},
		{"ppt/theme/theme1.xml", themeTmpl, data},
	}
	for _, p := range parts {
		if err := writeTemplate(zw, p.name, p.tmpl, p.data); err != nil {
			return err
		}
	}

	for i, s := range data.Slides {
		if err := writeTemplate(zw, fmt.Sprintf("ppt/slides/slide%d.xml", s.Number), slideTmpl, s); err != nil {
			return err
		}
		if err := writeTemplate(zw, fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", s.Number), slideRelsTmpl, s); err != nil {
			return err
		}
		fw, err := zw.Create(fmt.Sprintf("ppt/media/image%d.png", s.Number))
		if err != nil {
			return fmt.Errorf("failed to add slide image: %w", err)
		}
		if _, err := fw.Write(d.slides[i].image); err != nil {
			return fmt.Errorf("failed to write slide image: %w", err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finish deck: %w", err)
	}
	return nil
}

func writeTemplate(zw *zip.Writer, name string, tmpl *template.Template, data any) error {
	fw, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("failed to add %s: %w", name, err)
	}
	if err := tmpl.Execute(fw, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

type rect struct {
	X, Y, CX, CY int64
}

type slideData struct {
	Number      int
	Title       string
	Description string
	TitleBox    rect
	Picture     rect
	TextBox     rect
}

type deckData struct {
	Title    string
	Author   string
	Created  string
	Modified string
	Slides   []slideData
	SlideCX  int64
	SlideCY  int64
}

// layoutSlide places the title, the picture scaled to fit its box with the
// aspect ratio kept, and the description.
func layoutSlide(n int, s slidePart) slideData {
	boxW := int64(slideWidth - 2*margin)
	boxH := int64(pictureHeight)

	cx, cy := boxW, boxH
	if s.width > 0 && s.height > 0 {
		// Compare aspect ratios without floating point.
		if boxW*int64(s.height) > boxH*int64(s.width) {
			cx = boxH * int64(s.width) / int64(s.height)
		} else {
			cy = boxW * int64(s.height) / int64(s.width)
		}
	}

	desc := ""
	if s.Description != "" {
		desc = descriptionPrefix + s.Description
	}

	return slideData{
		Number:      n,
		Title:       s.Title,
		Description: desc,
		TitleBox:    rect{X: margin, Y: titleTop, CX: boxW, CY: titleHeight},
		Picture:     rect{X: margin + (boxW-cx)/2, Y: pictureTop + (boxH-cy)/2, CX: cx, CY: cy},
		TextBox:     rect{X: margin, Y: descriptionTop, CX: boxW, CY: descriptionHeight},
	}
}

func xmlEscape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

func add(a, b int) int { return a + b }

func parse(name, text string) *template.Template {
	return template.Must(template.New(name).Funcs(template.FuncMap{
		"xml": xmlEscape,
		"add": add,
	}).Parse(text))
}
