package execute

import "strings"

// blockKeywords start a multi-line statement when they open a line at
// column 0.
var blockKeywords = map[string]bool{
	"def": true, "theorem": true, "lemma": true, "example": true,
	"structure": true, "inductive": true, "class": true, "instance": true,
	"namespace": true, "section": true, "end": true, "open": true,
	"variable": true, "abbrev": true, "axiom": true, "noncomputable": true,
	"private": true, "protected": true, "set_option": true, "universe": true,
	"import": true, "opaque": true, "macro": true, "macro_rules": true,
	"syntax": true, "notation": true, "infix": true, "infixl": true,
	"infixr": true, "prefix": true, "postfix": true, "attribute": true,
	"mutual": true, "deriving": true,
}

// SplitStatements splits source into statement units. A line starting
// with '#' is a unit of its own. A line opening with a block keyword
// starts a new unit unless it follows an attribute line, and any other
// line continues the current unit. Blank units are dropped and trailing
// blank lines are trimmed.
func SplitStatements(source string) []string {
	var (
		units []string
		cur   []string
	)

	flush := func() {
		unit := strings.TrimRight(strings.Join(cur, "\n"), " \t\n")
		if strings.TrimSpace(unit) != "" {
			units = append(units, unit)
		}
		cur = nil
	}

	for _, line := range strings.Split(source, "\n") {
		switch {
		case strings.HasPrefix(line, "#"):
			flush()
			units = append(units, strings.TrimRight(line, " \t"))
		case startsBlock(line) && !attributeOnly(cur):
			flush()
			cur = append(cur, line)
		case len(cur) == 0 && strings.TrimSpace(line) == "":
			// Blank lines between units.
		default:
			cur = append(cur, line)
		}
	}
	flush()

	return units
}

func startsBlock(line string) bool {
	if line == "" || line[0] == ' ' || line[0] == '\t' {
		return false
	}
	if strings.HasPrefix(line, "@[") {
		return true
	}
	word := line
	if i := strings.IndexAny(line, " \t("); i >= 0 {
		word = line[:i]
	}
	return blockKeywords[word]
}

// attributeOnly reports whether cur holds nothing but attribute lines, which
// belong to the declaration that follows them.
func attributeOnly(cur []string) bool {
	if len(cur) == 0 {
		return false
	}
	for _, line := range cur {
		if strings.TrimSpace(line) != "" && !strings.HasPrefix(line, "@[") {
			return false
		}
	}
	return true
}
