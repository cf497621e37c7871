package battle

// DefaultIcons maps the well known action types to codicon identifiers.
var DefaultIcons = []IconMapping{
	{Type: TypeShell, Icon: "terminal"},
	{Type: TypeNPM, Icon: "package"},
	{Type: TypeVSCode, Icon: "vscode"},
	{Type: TypeTask, Icon: "checklist"},
	{Type: TypeLaunch, Icon: "debug-alt"},
	{Type: "docker", Icon: "server-environment"},
	{Type: "docker-compose", Icon: "layers"},
	{Type: "python", Icon: "symbol-namespace"},
	{Type: "go", Icon: "symbol-method"},
	{Type: "rust", Icon: "gear"},
	{Type: "make", Icon: "tools"},
	{Type: "gradle", Icon: "symbol-structure"},
	{Type: "maven", Icon: "symbol-package"},
	{Type: "cmake", Icon: "symbol-constructor"},
	{Type: "git", Icon: "git-branch"},
}

// MergeIcons layers icon tables in priority order. A type keeps the icon from
// the first table that maps it; later tables only fill gaps.
func MergeIcons(tables ...[]IconMapping) []IconMapping {
	seen := make(map[string]bool)
	var out []IconMapping
	for _, table := range tables {
		for _, m := range table {
			if m.Type == "" || seen[m.Type] {
				continue
			}
			seen[m.Type] = true
			out = append(out, m)
		}
	}
	return out
}

// IconFor returns the icon mapped to typ, or "" when none is.
func IconFor(icons []IconMapping, typ string) string {
	for _, m := range icons {
		if m.Type == typ {
			return m.Icon
		}
	}
	return ""
}
