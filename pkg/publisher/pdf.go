package publisher

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
)

const defaultFontFamily = "Helvetica"

// PDFDocument は fpdf による Document の実装です。
type PDFDocument struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

// NewPDFDocument は PDFDocument を生成して最初のページを追加します。
// 標準フォントは cp1252 なので、スペイン語のアクセント記号は変換してから描画するのだ。
func NewPDFDocument(orientation, unit, size string) Document {
	pdf := fpdf.New(orientation, unit, size, "")
	pdf.SetFont(defaultFontFamily, "", 16)
	pdf.AddPage()
	return &PDFDocument{
		pdf: pdf,
		tr:  pdf.UnicodeTranslatorFromDescriptor(""),
	}
}

func (d *PDFDocument) SetFontSize(size float64) {
	d.pdf.SetFontSize(size)
}

func (d *PDFDocument) CenteredText(text string, centerX, y float64) {
	s := d.tr(text)
	w := d.pdf.GetStringWidth(s)
	d.pdf.Text(centerX-w/2, y, s)
}

func (d *PDFDocument) SetLineWidth(width float64) {
	d.pdf.SetLineWidth(width)
}

func (d *PDFDocument) SetDrawColor(r, g, b int) {
	d.pdf.SetDrawColor(r, g, b)
}

func (d *PDFDocument) StrokeRoundedRect(x, y, w, h, radius float64) {
	d.pdf.RoundedRect(x, y, w, h, radius, "1234", "D")
}

func (d *PDFDocument) AddPage() {
	d.pdf.AddPage()
}

// AddImage は画像を登録して現在のページに配置します。
func (d *PDFDocument) AddImage(name, mimeType string, data []byte, x, y, w, h float64) error {
	imageType, err := imageTypeFor(mimeType)
	if err != nil {
		return err
	}
	opts := fpdf.ImageOptions{ImageType: imageType}
	d.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
	if err := d.pdf.Error(); err != nil {
		return fmt.Errorf("画像 %s の登録に失敗しました: %w", name, err)
	}
	d.pdf.ImageOptions(name, x, y, w, h, false, opts, 0, "")
	return d.pdf.Error()
}

func (d *PDFDocument) PageCount() int {
	return d.pdf.PageCount()
}

func (d *PDFDocument) Output(w io.Writer) error {
	if err := d.pdf.Error(); err != nil {
		return err
	}
	return d.pdf.Output(w)
}

func imageTypeFor(mimeType string) (string, error) {
	switch mimeType {
	case "image/jpeg", "image/jpg":
		return "JPEG", nil
	case "image/png":
		return "PNG", nil
	default:
		return "", fmt.Errorf("未対応の画像形式です: %s", mimeType)
	}
}
