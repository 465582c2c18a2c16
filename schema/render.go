package schema

import (
	"fmt"
	"strings"
)

// Render formats the registry as the markdown field guide embedded in the
// extraction prompt: one block per field with type, method, description,
// and glossed options for classification fields.
func Render() string {
	var parts []string
	for _, f := range registry {
		var b strings.Builder
		fmt.Fprintf(&b, "### %s\n", f.Name)
		fmt.Fprintf(&b, "- **Type**: %s\n", f.Type)
		fmt.Fprintf(&b, "- **Method**: %s\n", f.Method)
		fmt.Fprintf(&b, "- **Description**: %s\n", f.Description)
		if len(f.Enum) > 0 {
			b.WriteString("- **Options**:\n")
			for _, option := range f.Enum {
				if desc, ok := f.EnumDescriptions[option]; ok {
					fmt.Fprintf(&b, "  - `%s`: %s\n", option, desc)
				} else {
					fmt.Fprintf(&b, "  - `%s`\n", option)
				}
			}
		}
		parts = append(parts, b.String())
	}
	return strings.Join(parts, "\n")
}
