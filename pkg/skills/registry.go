package skills

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/parser"

	"github.com/novaflow/sciskills/pkg/logger"
)

// Registry indexes skill documents by canonical name. The catalog is built by
// Load and immutable between loads; reads take a shared lock so concurrent
// requests never observe a partially built index.
type Registry struct {
	skillsDir    string
	describeFunc func(name string) string

	loadMu sync.Mutex // serializes scans; queries never hold it

	mu     sync.RWMutex
	skills map[string]*Skill // canonical name -> skill
	byDir  map[string]*Skill // directory name -> skill, fast path for lookups
	order  []string          // canonical names in scan order, stable per load
	loaded bool
}

// Option is a function that configures a Registry
type Option func(*Registry)

// WithSynthesizedDescriptions makes skills without a description in their
// frontmatter advertise "Scientific skill: <name>" instead of an empty string.
func WithSynthesizedDescriptions() Option {
	return func(r *Registry) {
		r.describeFunc = func(name string) string {
			return fmt.Sprintf("Scientific skill: %s", name)
		}
	}
}

// NewRegistry creates a registry rooted at skillsDir. The directory is not
// scanned until Load is called or the first query arrives.
func NewRegistry(skillsDir string, opts ...Option) *Registry {
	r := &Registry{
		skillsDir:    skillsDir,
		describeFunc: func(string) string { return "" },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load scans the skills directory and replaces the entire catalog in one
// atomic publish. A missing or unreadable root is not an error: the registry
// comes up empty and the server keeps serving. Documents that cannot be read
// are skipped individually.
func (r *Registry) Load(ctx context.Context) {
	r.loadMu.Lock()
	defer r.loadMu.Unlock()
	r.scanAndPublish(ctx)
}

// ensureLoaded triggers exactly one implicit load on the first query.
func (r *Registry) ensureLoaded(ctx context.Context) {
	r.mu.RLock()
	loaded := r.loaded
	r.mu.RUnlock()
	if loaded {
		return
	}

	r.loadMu.Lock()
	defer r.loadMu.Unlock()

	// Another goroutine may have completed the load while we waited.
	r.mu.RLock()
	loaded = r.loaded
	r.mu.RUnlock()
	if loaded {
		return
	}

	r.scanAndPublish(ctx)
}

// scanAndPublish builds a fresh index and swaps it in under the write lock.
// Callers must hold loadMu.
func (r *Registry) scanAndPublish(ctx context.Context) {
	log := logger.G(ctx).WithField("skills_dir", r.skillsDir)

	skills := make(map[string]*Skill)
	byDir := make(map[string]*Skill)
	var order []string

	entries, err := os.ReadDir(r.skillsDir)
	if err != nil {
		log.WithError(err).Warn("Skills directory not readable, serving an empty catalog")
		entries = nil
	}

	// os.ReadDir sorts entries lexicographically, which fixes the
	// last-write-wins order for canonical name collisions.
	for _, entry := range entries {
		dirName := entry.Name()
		entryPath := filepath.Join(r.skillsDir, dirName)

		info, err := os.Stat(entryPath)
		if err != nil || !info.IsDir() {
			continue
		}

		// Directories without a SKILL.md are not skills; skip quietly.
		skillPath := filepath.Join(entryPath, SkillFileName)
		if _, err := os.Stat(skillPath); err != nil {
			continue
		}

		skill, err := r.loadSkill(skillPath, dirName)
		if err != nil {
			log.WithError(err).WithField("skill_dir", dirName).Warn("Skipping unreadable skill")
			continue
		}

		if _, exists := skills[skill.Name]; !exists {
			order = append(order, skill.Name)
		}
		skills[skill.Name] = skill
	}

	// Directory aliases point at the canonical winners only, so both lookup
	// paths agree with the same index.
	for _, skill := range skills {
		byDir[skill.Directory] = skill
	}

	r.mu.Lock()
	r.skills = skills
	r.byDir = byDir
	r.order = order
	r.loaded = true
	r.mu.Unlock()

	log.WithField("count", len(skills)).Info("Skill catalog loaded")
}

// loadSkill parses one SKILL.md into a Skill. Frontmatter problems degrade
// to directory-derived defaults; only a read failure is an error.
func (r *Registry) loadSkill(skillPath, dirName string) (*Skill, error) {
	content, err := os.ReadFile(skillPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read skill file")
	}

	metadata := parseFrontmatter(content)

	name, _ := metadata["name"].(string)
	if name == "" {
		name = dirName
	}
	description, _ := metadata["description"].(string)
	if description == "" {
		description = r.describeFunc(name)
	}

	return &Skill{
		Name:        name,
		Description: description,
		Directory:   dirName,
		Content:     string(content),
	}, nil
}

// parseFrontmatter extracts YAML frontmatter from a skill document. A
// document without a leading marker line, without a closing marker, or with
// YAML that does not parse yields an empty map rather than an error; such
// documents keep their directory-derived defaults.
func parseFrontmatter(content []byte) map[string]any {
	if !hasFrontmatter(string(content)) {
		return nil
	}

	md := goldmark.New(
		goldmark.WithExtensions(meta.Meta),
	)

	var buf bytes.Buffer
	pctx := parser.NewContext()

	if err := md.Convert(content, &buf, parser.WithContext(pctx)); err != nil {
		return nil
	}

	return meta.Get(pctx)
}

// hasFrontmatter reports whether the document opens with a "---" marker line
// that is closed by a second one.
func hasFrontmatter(content string) bool {
	lines := strings.Split(content, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return false
	}

	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			return true
		}
	}

	return false
}

// Count returns the number of indexed skills, loading the catalog first if needed.
func (r *Registry) Count(ctx context.Context) int {
	r.ensureLoaded(ctx)

	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.skills)
}

// ListTools returns an MCP tool descriptor for every indexed skill. The order
// follows the scan order of the current load and is stable between calls.
func (r *Registry) ListTools(ctx context.Context) []Tool {
	r.ensureLoaded(ctx)

	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		skill := r.skills[name]
		tools = append(tools, Tool{
			Name:        skill.Name,
			Description: skill.Description,
			InputSchema: queryInputSchema(),
		})
	}
	return tools
}

// ListSkills returns the indexed skills in scan order.
func (r *Registry) ListSkills(ctx context.Context) []*Skill {
	r.ensureLoaded(ctx)

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Skill, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.skills[name])
	}
	return out
}

// GetContent returns the verbatim SKILL.md text for a skill. The name is
// tried as a directory name first, then as a canonical frontmatter name; the
// second return value is false when neither matches.
func (r *Registry) GetContent(ctx context.Context, name string) (string, bool) {
	r.ensureLoaded(ctx)

	r.mu.RLock()
	defer r.mu.RUnlock()

	if skill, ok := r.byDir[name]; ok {
		return skill.Content, true
	}
	if skill, ok := r.skills[name]; ok {
		return skill.Content, true
	}
	return "", false
}
