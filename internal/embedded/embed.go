package embedded

import (
	"embed"
)

// FS embeds the bundled atlas lookup tables at build time.
//
//go:embed atlases/*.yaml
var FS embed.FS

// AtlasDir is the directory inside FS holding atlas definitions.
const AtlasDir = "atlases"
