package publisher

import (
	"io"
)

// Document は PDF を組み立てるための描画機能です。
// 単位は mm、原点は左上で、生成直後に1ページ目が用意されています。
type Document interface {
	SetFontSize(size float64)
	// CenteredText は centerX を中心に水平方向へ揃えて描画します。
	CenteredText(text string, centerX, y float64)
	SetLineWidth(width float64)
	SetDrawColor(r, g, b int)
	// StrokeRoundedRect は角丸の枠線だけを描きます。
	StrokeRoundedRect(x, y, w, h, radius float64)
	AddPage()
	AddImage(name, mimeType string, data []byte, x, y, w, h float64) error
	PageCount() int
	// Output はドキュメントを書き出します。描画中に発生したエラーもここで返ります。
	Output(w io.Writer) error
}

// DocumentFactory は向き、単位、用紙サイズを指定して Document を生成します。
type DocumentFactory func(orientation, unit, size string) Document
