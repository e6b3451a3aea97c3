package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/frame/pkg/domain"
)

// ManifestMarkdown documents a blueprint manifest as markdown.
func ManifestMarkdown(m *domain.Manifest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", m.Name)
	fmt.Fprintf(&b, "**Implementation:** `%s`", m.Impl)
	if m.Singleton {
		b.WriteString(" (singleton)")
	}
	b.WriteString("\n\n")

	if m.Description != "" {
		b.WriteString(m.Description)
		b.WriteString("\n\n")
	}

	phases := make([]string, 0, len(m.Describe))
	for phase := range m.Describe {
		phases = append(phases, phase)
	}
	sort.Strings(phases)

	for _, phase := range phases {
		params := m.Describe[phase]
		if len(params) == 0 {
			continue
		}
		fmt.Fprintf(&b, "## %s\n\n", phase)
		b.WriteString("| # | Name | Type | Description |\n|---|---|---|---|\n")
		for i, p := range params {
			typ := p.Type
			if typ == "" {
				typ = "any"
			}
			fmt.Fprintf(&b, "| %d | %s | %s | %s |\n", i, p.Name, typ, p.Description)
		}
		b.WriteString("\n")
	}

	if len(m.Metadata) > 0 {
		keys := make([]string, 0, len(m.Metadata))
		for k := range m.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteString("## metadata\n\n")
		for _, k := range keys {
			fmt.Fprintf(&b, "- **%s**: %s\n", k, m.Metadata[k])
		}
	}
	return b.String()
}
