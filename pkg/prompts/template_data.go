package prompts

import (
	"embed"
)

// TemplateData はプロンプトテンプレートに渡すデータ構造です。
type TemplateData struct {
	Theme string
	Name  string
}

// Archetype はぬりえページの構図の種類です。
type Archetype string

const (
	ArchetypeCharacter Archetype = "page.character"
	ArchetypeScene     Archetype = "page.scene"
	ArchetypeItems     Archetype = "page.items"
	ArchetypeAction    Archetype = "page.action"
	ArchetypePortrait  Archetype = "page.portrait"

	templateSuffix = "suffix"
	templateCover  = "cover"
)

// PageArchetypes はページの並び順そのものなのだ。この順序で PDF に綴じられます。
var PageArchetypes = []Archetype{
	ArchetypeCharacter,
	ArchetypeScene,
	ArchetypeItems,
	ArchetypeAction,
	ArchetypePortrait,
}

//go:embed templates/*.tmpl
var templateFS embed.FS
