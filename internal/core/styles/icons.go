package styles

// Glyphs used by CLI output. Nerd font icons are avoided so plain terminals
// render them.
var (
	IconPass    = "✔"
	IconWarn    = "●"
	IconFail    = "✘"
	IconHidden  = "◌"
	IconTodo    = "☐"
	IconDone    = "☑"
	IconActive  = "▸"
	IconCurrent = "*"
)
