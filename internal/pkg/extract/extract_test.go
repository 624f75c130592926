package extract

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func buildDOCX(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	files := map[string]string{
		"[Content_Types].xml": `<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/></Types>`,
		"word/document.xml": `<?xml version="1.0" encoding="UTF-8"?>` +
			`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
			body + `</w:body></w:document>`,
	}
	for _, name := range []string{"[Content_Types].xml", "word/document.xml"} {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(files[name])); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestExtractPlainText(t *testing.T) {
	got, err := Extract("notes.txt", []byte("\xef\xbb\xbfMIMS password reset form"), "text/plain; charset=utf-8")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if got != "MIMS password reset form" {
		t.Fatalf("Extract() = %q", got)
	}
}

func TestExtractRejectsInvalidUTF8(t *testing.T) {
	_, err := Extract("notes.txt", []byte{0xff, 0xfe, 0x41}, "text/plain")
	if !errors.Is(err, ErrInvalidUTF8) {
		t.Fatalf("err = %v, want ErrInvalidUTF8", err)
	}
}

func TestExtractDOCX(t *testing.T) {
	raw := buildDOCX(t, `<w:p><w:r><w:t>Staff meeting</w:t></w:r><w:r><w:t xml:space="preserve"> on Tuesday.</w:t></w:r></w:p>`+
		`<w:p><w:r><w:t>Bring</w:t><w:tab/><w:t>laptops.</w:t></w:r></w:p>`)

	got, err := Extract("agenda.docx", raw, MIMEDOCX)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	want := "Staff meeting on Tuesday.\nBring\tlaptops."
	if got != want {
		t.Fatalf("Extract() = %q, want %q", got, want)
	}
}

func TestDetect(t *testing.T) {
	docx := buildDOCX(t, `<w:p><w:r><w:t>x</w:t></w:r></w:p>`)
	cases := []struct {
		name     string
		file     string
		raw      []byte
		mimeType string
		want     Kind
	}{
		{name: "declared pdf", file: "a.bin", raw: []byte("%PDF-1.4"), mimeType: MIMEPDF, want: KindPDF},
		{name: "markdown", file: "a", raw: []byte("# hi"), mimeType: "text/markdown", want: KindText},
		{name: "extension", file: "a.DOCX", raw: docx, mimeType: "application/octet-stream", want: KindDOCX},
		{name: "sniffed pdf", file: "upload", raw: []byte("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n"), mimeType: "", want: KindPDF},
		{name: "sniffed text", file: "upload", raw: []byte("just some words\n"), mimeType: "application/octet-stream", want: KindText},
		{name: "png", file: "upload", raw: []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), mimeType: "", want: KindUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Detect(tc.file, tc.raw, tc.mimeType); got != tc.want {
				t.Fatalf("Detect() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestExtractUnsupported(t *testing.T) {
	_, err := Extract("photo", []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), "image/png")
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("err = %v, want ErrUnsupportedType", err)
	}
}

// buildPDF writes a one-page PDF whose content stream shows each line with
// Helvetica, computing the xref offsets as it goes.
func buildPDF(lines ...string) []byte {
	var content strings.Builder
	content.WriteString("BT /F1 12 Tf 72 720 Td 14 TL\n")
	for _, line := range lines {
		fmt.Fprintf(&content, "(%s) Tj T*\n", line)
	}
	content.WriteString("ET")

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 4 0 R >> >> /Contents 5 0 R >>",
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", content.Len(), content.String()),
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func TestExtractPDF(t *testing.T) {
	raw := buildPDF("Staff meetings are on Tuesday.", "Lunch is at noon.")

	for _, tt := range []struct {
		name     string
		fileName string
		mimeType string
	}{
		{name: "declared mime", fileName: "notes.pdf", mimeType: MIMEPDF},
		{name: "extension", fileName: "notes.pdf"},
		{name: "sniffed", fileName: "upload", mimeType: "application/octet-stream"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			text, err := Extract(tt.fileName, raw, tt.mimeType)
			if err != nil {
				t.Fatalf("Extract() error = %v", err)
			}
			for _, want := range []string{"Staff meetings are on Tuesday.", "Lunch is at noon."} {
				if !strings.Contains(text, want) {
					t.Fatalf("Extract() = %q, missing %q", text, want)
				}
			}
		})
	}
}

func TestExtractBrokenPDF(t *testing.T) {
	if _, err := Extract("broken.pdf", []byte("%PDF-1.4 not really"), MIMEPDF); err == nil {
		t.Fatal("expected error for broken pdf")
	}
}

func TestExtractEmpty(t *testing.T) {
	if _, err := Extract("a.txt", nil, MIMEPlain); !errors.Is(err, ErrEmpty) {
		t.Fatalf("err = %v, want ErrEmpty", err)
	}
}
