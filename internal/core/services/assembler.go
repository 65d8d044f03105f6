package services

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/custodia-labs/codetutor/internal/core/domain"
)

// Template placeholders.
const (
	PlaceholderContext  = "{context}"
	PlaceholderQuestion = "{question}"
)

// contextSeparator joins passages in the context block.
const contextSeparator = "\n\n"

var versionHeader = regexp.MustCompile(`^#[ \t]*version:[ \t]*(\d+)[ \t]*(?:\r?\n|$)`)

// ParseTemplate strips a leading "# version: N" line.
// Templates without the header report version 0.
func ParseTemplate(raw string) (body string, version int) {
	m := versionHeader.FindStringSubmatch(raw)
	if m == nil {
		return raw, 0
	}
	v, err := strconv.Atoi(m[1])
	if err != nil {
		return raw, 0
	}
	return raw[len(m[0]):], v
}

// Assembler renders a prompt from retrieved passages and a question.
// It is immutable and safe for concurrent use.
type Assembler struct {
	template string
	version  int
}

// NewAssembler validates template and returns an assembler for it.
func NewAssembler(template string) (*Assembler, error) {
	body, version := ParseTemplate(template)
	for _, p := range []string{PlaceholderContext, PlaceholderQuestion} {
		if !strings.Contains(body, p) {
			return nil, fmt.Errorf("%w: prompt template is missing %s", domain.ErrInvalidArgument, p)
		}
	}
	return &Assembler{template: body, version: version}, nil
}

// Assemble substitutes the passages and question into the template.
// Substitution is a single pass, so placeholder text inside the inputs
// is left as is.
func (a *Assembler) Assemble(chunks []domain.Chunk, question string) string {
	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Content
	}
	r := strings.NewReplacer(
		PlaceholderContext, strings.Join(texts, contextSeparator),
		PlaceholderQuestion, question,
	)
	return r.Replace(a.template)
}

// Version returns the template version, 0 when unversioned.
func (a *Assembler) Version() int {
	return a.version
}

// Template returns the template body without its version header.
func (a *Assembler) Template() string {
	return a.template
}
