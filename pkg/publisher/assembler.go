package publisher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/shouni/go-coloring-kit/pkg/domain"
)

// A4 縦置きのレイアウト定数 (mm) です。
const (
	pageWidth  = 210.0
	pageHeight = 297.0

	imageMargin = 15.0
	imageWidth  = pageWidth - imageMargin*2
	imageHeight = imageWidth * 4 / 3
	imageY      = (pageHeight - imageHeight) / 2

	titleFontSize   = 28
	nameFontSize    = 60
	closingFontSize = 20
	titleY          = 40
	belongsToY      = 55
	nameY           = 120
	closingY        = 170

	nameBoxWidth  = 160.0
	nameBoxHeight = 60.0
	nameBoxY      = 80.0
	nameBoxRadius = 5.0
	nameBoxLine   = 0.8
	nameBoxGrey   = 100

	pdfContentType = "application/pdf"
)

// ErrAssemblyFailed は PDF の組み立てまたは保存に失敗したことを表します。
var ErrAssemblyFailed = errors.New("document assembly failed")

// Translator は献辞ページの文言を引くための契約です。
type Translator interface {
	T(key string, replacements ...map[string]any) string
}

// Dedication は1ページ目に印字する文言です。
type Dedication struct {
	Title     string
	BelongsTo string
	Enjoy     string
}

// DedicationFrom は翻訳から献辞の文言を組み立てます。
func DedicationFrom(tr Translator) Dedication {
	return Dedication{
		Title:     tr.T("pdf.title"),
		BelongsTo: tr.T("pdf.belongsTo"),
		Enjoy:     tr.T("pdf.enjoy"),
	}
}

// Assembler は献辞ページ、表紙、ぬりえページを1冊の PDF にまとめて保存します。
type Assembler struct {
	factory   DocumentFactory
	writer    OutputWriter
	outputDir string
}

// NewAssembler は Assembler を生成します。factory が nil なら fpdf を使うのだ。
func NewAssembler(factory DocumentFactory, writer OutputWriter, outputDir string) *Assembler {
	if factory == nil {
		factory = NewPDFDocument
	}
	return &Assembler{
		factory:   factory,
		writer:    writer,
		outputDir: outputDir,
	}
}

// Assemble は PDF を組み立てて保存し、保存先のパスを返します。
// どのページの配置に失敗しても、ファイルは1つも書き出しません。
func (a *Assembler) Assemble(ctx context.Context, cover domain.ImageRef, pages []domain.ImageRef, theme, name string, dedication Dedication) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrAssemblyFailed, err)
	}

	doc := a.factory("P", "mm", "A4")
	writeDedication(doc, name, dedication)

	doc.AddPage()
	if err := placeImage(doc, "cover", cover); err != nil {
		return "", fmt.Errorf("%w: 表紙: %w", ErrAssemblyFailed, err)
	}
	for i, page := range pages {
		doc.AddPage()
		if err := placeImage(doc, fmt.Sprintf("page_%d", i+1), page); err != nil {
			return "", fmt.Errorf("%w: ページ %d: %w", ErrAssemblyFailed, i+1, err)
		}
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return "", fmt.Errorf("%w: PDF の出力に失敗しました: %w", ErrAssemblyFailed, err)
	}

	outPath := filepath.Join(a.outputDir, FileName(name, theme))
	if err := a.writer.Write(ctx, outPath, &buf, pdfContentType); err != nil {
		return "", fmt.Errorf("%w: %w", ErrAssemblyFailed, err)
	}

	slog.Info("PDF を保存しました", "path", outPath, "pages", doc.PageCount())
	return outPath, nil
}

func writeDedication(doc Document, name string, d Dedication) {
	center := pageWidth / 2

	doc.SetFontSize(titleFontSize)
	doc.CenteredText(d.Title, center, titleY)
	doc.CenteredText(d.BelongsTo, center, belongsToY)

	doc.SetLineWidth(nameBoxLine)
	doc.SetDrawColor(nameBoxGrey, nameBoxGrey, nameBoxGrey)
	doc.StrokeRoundedRect((pageWidth-nameBoxWidth)/2, nameBoxY, nameBoxWidth, nameBoxHeight, nameBoxRadius)

	doc.SetFontSize(nameFontSize)
	doc.CenteredText(name, center, nameY)

	doc.SetFontSize(closingFontSize)
	doc.CenteredText(d.Enjoy, center, closingY)
}

func placeImage(doc Document, name string, ref domain.ImageRef) error {
	mimeType, data, err := ref.Decode()
	if err != nil {
		return err
	}
	return doc.AddImage(name, mimeType, data, imageMargin, imageY, imageWidth, imageHeight)
}
