// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package document

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// Upload is one uploaded file.
type Upload struct {
	Name string
	Data []byte
}

// Size returns the upload size in bytes.
func (u Upload) Size() int {
	return len(u.Data)
}

// Format returns the lowercased file extension without the dot.
func (u Upload) Format() string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(u.Name)), ".")
}

// Extract returns the text of all uploads in upload order, separated by newlines.
func Extract(ctx context.Context, uploads ...Upload) (string, error) {
	if len(uploads) == 0 {
		return "", ErrNoUploads
	}

	var sb strings.Builder
	for i, u := range uploads {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		text, err := extractOne(u)
		if err != nil {
			return "", fmt.Errorf("extract %q: %w", u.Name, err)
		}

		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(text)
	}
	return sb.String(), nil
}

func extractOne(u Upload) (string, error) {
	switch u.Format() {
	case "txt":
		return extractText(u.Data)
	case "pdf":
		return extractPDF(u.Data)
	case "docx":
		return extractDOCX(u.Data)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(u.Name))
	}
}

func extractText(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", errors.New("text file is not valid UTF-8")
	}
	return string(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))), nil
}

func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to create PDF reader: %w", err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract PDF text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("failed to read PDF text: %w", err)
	}
	return buf.String(), nil
}

func extractDOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open docx archive: %w", err)
	}

	var docFile *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return "", errors.New("docx archive has no word/document.xml")
	}

	rc, err := docFile.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open document.xml: %w", err)
	}
	defer rc.Close()

	text, err := docxText(rc)
	if err != nil {
		return "", fmt.Errorf("failed to parse document.xml: %w", err)
	}
	return text, nil
}

// docxText walks word/document.xml in document order. Text comes from w:t,
// w:tab inside a run becomes a tab, w:br and w:cr become newlines and each
// w:p ends a line. Paragraphs nested in tables and text boxes are included.
func docxText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)

	var (
		lines  []string
		line   strings.Builder
		inRun  int
		inText bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}

		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "r":
				inRun++
			case "t":
				inText = true
			case "tab":
				// w:tabs/w:tab in paragraph properties defines tab stops.
				if inRun > 0 {
					line.WriteByte('\t')
				}
			case "br", "cr":
				if inRun > 0 {
					line.WriteByte('\n')
				}
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "r":
				inRun--
			case "t":
				inText = false
			case "p":
				lines = append(lines, line.String())
				line.Reset()
			}
		case xml.CharData:
			if inText {
				line.Write(el)
			}
		}
	}
	if line.Len() > 0 {
		lines = append(lines, line.String())
	}
	return strings.Join(lines, "\n"), nil
}
