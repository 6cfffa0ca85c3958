// Package skills maintains the catalog of scientific skill documents. Skills
// are packaged as directories containing a SKILL.md file with YAML frontmatter
// describing the skill's name and purpose; the registry scans a root
// directory, indexes each document by its canonical name, and serves lookups
// for the MCP dispatcher.
package skills

// SkillFileName is the fixed document name looked up inside each skill directory.
const SkillFileName = "SKILL.md"

// Skill represents one indexed skill document
type Skill struct {
	Name        string // Canonical name from frontmatter, or the directory name
	Description string // Brief description from frontmatter
	Directory   string // On-disk directory name under the skills root
	Content     string // Full SKILL.md text, frontmatter included, byte-for-byte
}

// Tool is the MCP-facing descriptor for a skill
type Tool struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema InputSchema `json:"inputSchema"`
}

// InputSchema describes a tool's accepted arguments as a JSON object schema
type InputSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
}

// Property is a single property within an InputSchema
type Property struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// queryInputSchema returns the input schema shared by every skill tool: a
// single free-form query string. Skills are instructions, not functions, so
// the schema is not derived per document.
func queryInputSchema() InputSchema {
	return InputSchema{
		Type: "object",
		Properties: map[string]Property{
			"query": {
				Type:        "string",
				Description: "The query or task to perform with this skill",
			},
		},
	}
}
