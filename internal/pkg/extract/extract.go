// Package extract turns uploaded documents into plain text.
package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
)

const (
	MIMEPlain    = "text/plain"
	MIMEMarkdown = "text/markdown"
	MIMEPDF      = "application/pdf"
	MIMEDOCX     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

var (
	ErrEmpty           = errors.New("document is empty")
	ErrInvalidUTF8     = errors.New("text is not valid utf-8")
	ErrUnsupportedType = errors.New("unsupported document type")
)

type Kind string

const (
	KindUnknown Kind = ""
	KindText    Kind = "text"
	KindPDF     Kind = "pdf"
	KindDOCX    Kind = "docx"
)

// Extract dispatches on the declared MIME type, then on the file extension,
// and sniffs the bytes only when neither is conclusive.
func Extract(name string, raw []byte, mimeType string) (string, error) {
	if len(raw) == 0 {
		return "", ErrEmpty
	}
	switch kind := Detect(name, raw, mimeType); kind {
	case KindText:
		return Text(raw)
	case KindPDF:
		return PDF(raw)
	case KindDOCX:
		return DOCX(raw)
	default:
		return "", fmt.Errorf("%w: name=%s mime=%s", ErrUnsupportedType, name, mimeType)
	}
}

func Detect(name string, raw []byte, mimeType string) Kind {
	if kind := kindFromMIME(mimeType); kind != KindUnknown {
		return kind
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".md", ".markdown", ".text":
		return KindText
	case ".pdf":
		return KindPDF
	case ".docx":
		return KindDOCX
	}
	sniffed := mimetype.Detect(raw)
	switch {
	case sniffed.Is(MIMEPDF):
		return KindPDF
	case sniffed.Is(MIMEDOCX):
		return KindDOCX
	case sniffed.Is(MIMEPlain):
		return KindText
	}
	return KindUnknown
}

func kindFromMIME(mimeType string) Kind {
	mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(mimeType))
	if err != nil {
		return KindUnknown
	}
	switch {
	case mediaType == MIMEPDF:
		return KindPDF
	case mediaType == MIMEDOCX:
		return KindDOCX
	case mediaType == MIMEPlain, mediaType == MIMEMarkdown:
		return KindText
	}
	return KindUnknown
}

func Text(raw []byte) (string, error) {
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(raw) {
		return "", ErrInvalidUTF8
	}
	return string(raw), nil
}

// PDF extracts the plain text layer. The parser panics on some malformed
// files, so panics are reported as errors.
func PDF(raw []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("pdf parse: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", fmt.Errorf("pdf reader: %w", err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("pdf plaintext: %w", err)
	}
	out, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("pdf read: %w", err)
	}
	return string(out), nil
}

// DOCX gathers the <w:t> runs of word/document.xml, one line per paragraph.
func DOCX(raw []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", fmt.Errorf("docx container: %w", err)
	}
	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return "", fmt.Errorf("docx container: word/document.xml not found")
	}

	rc, err := doc.Open()
	if err != nil {
		return "", fmt.Errorf("docx open: %w", err)
	}
	defer rc.Close()

	var out strings.Builder
	dec := xml.NewDecoder(rc)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("docx xml: %w", err)
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "t":
				var text string
				if err := dec.DecodeElement(&text, &el); err != nil {
					return "", fmt.Errorf("docx text run: %w", err)
				}
				out.WriteString(text)
			case "tab":
				out.WriteString("\t")
			case "br":
				out.WriteString("\n")
			}
		case xml.EndElement:
			if el.Name.Local == "p" {
				out.WriteString("\n")
			}
		}
	}
	return strings.TrimSpace(out.String()), nil
}
