package scanning

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif" // Register GIF decoder
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
	"github.com/ledongthuc/pdf"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// maxPreparedSide caps the long edge of the image sent to the model
const maxPreparedSide = 3072

// Prepare turns an uploaded file into a Document.
// PDFs with a text layer are read as text; scanned PDFs have their first page rendered and
// go down the image path. Images are decoded, enhanced and re-encoded as JPEG.
func Prepare(data []byte, contentType string) (Document, error) {
	mimeType := normalizeMIMEType(contentType)

	if mimeType == "application/pdf" {
		text, err := pdfText(data)
		if err != nil {
			slog.Warn("Reading PDF text layer failed, rendering instead", "error", err)
		} else if strings.TrimSpace(text) != "" {
			return Document{Text: text}, nil
		}

		img, err := renderPDF(data)
		if err != nil {
			return Document{}, fmt.Errorf("%w: converting PDF to image: %w", ErrUnreadableDocument, err)
		}
		return imageDocument(img)
	}

	if !IsImage(mimeType) && !isHEICFormat(data) {
		return Document{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, mimeType)
	}

	img, err := decodeImage(data, mimeType)
	if err != nil {
		return Document{}, err
	}
	return imageDocument(img)
}

// Preprocess enhances an invoice photo for reading: grayscale, doubled contrast, a light
// sharpen and a 2x bicubic upscale, capped at maxPreparedSide.
func Preprocess(img image.Image) image.Image {
	out := imaging.Grayscale(img)
	out = imaging.AdjustContrast(out, 100)
	out = imaging.Sharpen(out, 1)

	b := out.Bounds()
	w, h := b.Dx()*2, b.Dy()*2
	if longest := max(w, h); longest > maxPreparedSide {
		w = w * maxPreparedSide / longest
		h = h * maxPreparedSide / longest
	}
	return imaging.Resize(out, w, h, imaging.CatmullRom)
}

func imageDocument(img image.Image) (Document, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, Preprocess(img), imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
		return Document{}, fmt.Errorf("encoding JPEG: %w", err)
	}
	return Document{Image: buf.Bytes(), MIMEType: "image/jpeg"}, nil
}

// pdfText reads the text layer of every page, one line per text row
func pdfText(data []byte) (text string, err error) {
	// the pdf reader panics on some malformed files
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("reading PDF: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("opening PDF: %w", err)
	}

	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return "", fmt.Errorf("reading page %d: %w", i, err)
		}
		for _, row := range rows {
			words := make([]string, 0, len(row.Content))
			for _, word := range row.Content {
				words = append(words, word.S)
			}
			b.WriteString(strings.Join(words, " "))
			b.WriteString("\n")
		}
	}
	return b.String(), nil
}

// renderPDF renders the first page of a PDF
func renderPDF(pdfData []byte) (image.Image, error) {
	doc, err := fitz.NewFromMemory(pdfData)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	img, err := doc.Image(0)
	if err != nil {
		return nil, fmt.Errorf("rendering PDF page: %w", err)
	}
	return img, nil
}

// decodeImage decodes JPEG, PNG, GIF, WebP and HEIC/HEIF, honoring EXIF orientation
func decodeImage(imageData []byte, mimeType string) (image.Image, error) {
	// Go's standard image package doesn't support HEIC (common on iPhones)
	if isHEICFormat(imageData) || isHEICMimeType(mimeType) {
		img, err := heic.Decode(bytes.NewReader(imageData))
		if err != nil {
			return nil, fmt.Errorf("%w: decoding HEIC/HEIF image: %w", ErrUnreadableDocument, err)
		}
		return img, nil
	}

	img, err := imaging.Decode(bytes.NewReader(imageData), imaging.AutoOrientation(true))
	if err != nil {
		if strings.Contains(err.Error(), "unknown format") || strings.Contains(err.Error(), "unsupported") {
			return nil, fmt.Errorf("%w: supported formats are JPEG, PNG, GIF, WebP, HEIC, HEIF and PDF: %v", ErrUnsupportedFormat, err)
		}
		return nil, fmt.Errorf("%w: decoding image: %w", ErrUnreadableDocument, err)
	}
	return img, nil
}

// isHEICFormat checks for an ftyp box with a HEIC-related brand at offset 4
func isHEICFormat(data []byte) bool {
	if len(data) < 12 {
		return false
	}
	if string(data[4:8]) == "ftyp" {
		brand := string(data[8:12])
		if brand == "heic" || brand == "heif" || brand == "mif1" || brand == "msf1" {
			return true
		}
	}
	return false
}

// isHEICMimeType checks if the MIME type indicates HEIC/HEIF format
func isHEICMimeType(mimeType string) bool {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	return strings.Contains(mimeType, "heic") || strings.Contains(mimeType, "heif")
}

// IsImage reports whether a MIME type is an image type
func IsImage(mimeType string) bool {
	return strings.HasPrefix(normalizeMIMEType(mimeType), "image/")
}

func normalizeMIMEType(contentType string) string {
	mimeType := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	if mimeType == "" {
		mimeType = "image/jpeg" // default
	}
	return mimeType
}

// DetectContentType returns the MIME type of an upload, falling back to the file
// extension when the client sent none
func DetectContentType(filename, declared string) string {
	declared = strings.ToLower(strings.TrimSpace(declared))
	if declared != "" && declared != "application/octet-stream" {
		return normalizeMIMEType(declared)
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".pdf":
		return "application/pdf"
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	default:
		return "application/octet-stream"
	}
}
