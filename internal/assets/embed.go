package assets

import "embed"

//go:embed cake.example.yaml
//go:embed templates/*.tmpl
//go:embed scripts/*
var Embedded embed.FS

// Nom de l'asset de config par défaut (chemin DANS Embedded)
const DefaultConfigAsset = "cake.example.yaml"

// DemoScriptAsset est le script d'exemple copié par "cake init".
const DemoScriptAsset = "scripts/demo.cake.yaml"

// DefaultTemplatePaths : templates embarqués, chemins relatifs DANS Embedded.
var DefaultTemplatePaths = []string{
	"templates/script_sheet.md.tmpl",
}
