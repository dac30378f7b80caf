// Package fortios parses FortiOS "show full-configuration" output and
// normalizes its firewall policies into uniform table rows.
package fortios

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Item types.
const (
	TypeConfig  = "config"
	TypeEdit    = "edit"
	TypeSet     = "set"
	TypeUnset   = "unset"
	TypeComment = "comment"
)

// Configuration groups.
const (
	GroupFirewall = "firewall"
	GroupRouter   = "router"
)

// Groups lists the supported configuration groups; the first is the default.
var Groups = []string{GroupFirewall, GroupRouter}

var (
	// ErrInvalidGroup is returned for a group not in Groups.
	ErrInvalidGroup = errors.New("invalid config group")
	// ErrUnknownProfile is returned for an unknown normalization profile.
	ErrUnknownProfile = errors.New("unknown normalization profile")
)

// SyntaxError reports malformed configuration input.
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// Item is a node of the parsed configuration tree: a config or edit block,
// a set or unset statement, or a top-level comment.
type Item struct {
	Type     string   `json:"type"`
	Name     string   `json:"name,omitempty"`
	ID       *int     `json:"_id,omitempty"`
	Values   []string `json:"values,omitempty"`
	Content  string   `json:"content,omitempty"`
	Children []*Item  `json:"children,omitempty"`
}

// Configs is the parse result of one configuration dump.
type Configs struct {
	Configs []*Item `json:"configs"`
}

// Parse reads "show" output and returns its top-level items.
func Parse(r io.Reader) (*Configs, error) {
	p := &parser{}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		p.line++
		if err := p.parseLine(sc.Text()); err != nil {
			return nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if len(p.stack) > 0 {
		top := p.stack[len(p.stack)-1]
		return nil, &SyntaxError{Line: p.line, Msg: fmt.Sprintf("unterminated %s %q", top.Type, top.Name)}
	}
	return &Configs{Configs: p.top}, nil
}

type parser struct {
	line   int
	nextID int
	stack  []*Item
	top    []*Item
}

func (p *parser) current() *Item {
	if len(p.stack) == 0 {
		return nil
	}
	return p.stack[len(p.stack)-1]
}

func (p *parser) newBlock(typ, name string) *Item {
	id := p.nextID
	p.nextID++
	return &Item{Type: typ, Name: name, ID: &id, Children: []*Item{}}
}

func (p *parser) parseLine(raw string) error {
	line := strings.TrimSpace(raw)
	if line == "" {
		return nil
	}
	if strings.HasPrefix(line, "#") {
		if len(p.stack) == 0 {
			p.top = append(p.top, &Item{Type: TypeComment, Content: strings.TrimPrefix(line, "#")})
		}
		return nil
	}

	keyword, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	cur := p.current()

	switch keyword {
	case "config":
		if rest == "" {
			return &SyntaxError{Line: p.line, Msg: "config without name"}
		}
		p.stack = append(p.stack, p.newBlock(TypeConfig, rest))
	case "edit":
		if cur == nil || cur.Type != TypeConfig {
			return &SyntaxError{Line: p.line, Msg: "edit outside config"}
		}
		words, err := splitWords(rest)
		if err != nil || len(words) != 1 {
			return &SyntaxError{Line: p.line, Msg: fmt.Sprintf("invalid edit %q", rest)}
		}
		p.stack = append(p.stack, p.newBlock(TypeEdit, words[0]))
	case "next":
		if cur == nil || cur.Type != TypeEdit {
			return &SyntaxError{Line: p.line, Msg: "next outside edit"}
		}
		p.pop()
	case "end":
		if cur == nil || cur.Type != TypeConfig {
			return &SyntaxError{Line: p.line, Msg: "end outside config"}
		}
		p.pop()
	case "set", "unset":
		if cur == nil {
			return &SyntaxError{Line: p.line, Msg: keyword + " outside config"}
		}
		name, args, _ := strings.Cut(rest, " ")
		if name == "" {
			return &SyntaxError{Line: p.line, Msg: keyword + " without name"}
		}
		item := &Item{Type: keyword, Name: name}
		if keyword == "set" {
			values, err := splitWords(args)
			if err != nil {
				return &SyntaxError{Line: p.line, Msg: err.Error()}
			}
			item.Values = values
		}
		cur.Children = append(cur.Children, item)
	default:
		// Other CLI output (prompts, banners) outside blocks is ignored.
		if cur != nil {
			return &SyntaxError{Line: p.line, Msg: fmt.Sprintf("unexpected %q", keyword)}
		}
	}
	return nil
}

func (p *parser) pop() {
	item := p.stack[len(p.stack)-1]
	p.stack = p.stack[:len(p.stack)-1]
	if parent := p.current(); parent != nil {
		parent.Children = append(parent.Children, item)
		return
	}
	p.top = append(p.top, item)
}

// splitWords splits bare and double-quoted words. Inside quotes a backslash
// escapes the next character.
func splitWords(s string) ([]string, error) {
	var (
		words []string
		buf   strings.Builder
	)
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case c == '"':
			buf.Reset()
			i++
			closed := false
			for i < len(s) {
				if s[i] == '\\' && i+1 < len(s) {
					buf.WriteByte(s[i+1])
					i += 2
					continue
				}
				if s[i] == '"' {
					closed = true
					i++
					break
				}
				buf.WriteByte(s[i])
				i++
			}
			if !closed {
				return nil, fmt.Errorf("unterminated quote in %q", s)
			}
			words = append(words, buf.String())
		default:
			start := i
			for i < len(s) && s[i] != ' ' && s[i] != '\t' {
				i++
			}
			words = append(words, s[start:i])
		}
	}
	return words, nil
}

// Entry is the settings of one edit block. Single values are strings, lists
// are []string, and unset names are listed under "unset".
type Entry map[string]any

// Section maps edit names to their settings.
type Section map[string]Entry

// GroupConfig maps section names (the config name without its group
// prefix, e.g. "policy") to sections.
type GroupConfig map[string]Section

// ValidateGroup returns ErrInvalidGroup for unknown groups.
func ValidateGroup(group string) error {
	for _, g := range Groups {
		if g == group {
			return nil
		}
	}
	return fmt.Errorf("%w: %q, try one of %s", ErrInvalidGroup, group, strings.Join(Groups, ", "))
}

// Group collects the top-level configs of group, such as "firewall policy"
// and "firewall address" for GroupFirewall.
func (c *Configs) Group(group string) (GroupConfig, error) {
	if err := ValidateGroup(group); err != nil {
		return nil, err
	}
	prefix := group + " "
	out := make(GroupConfig)
	for _, item := range c.Configs {
		if item.Type != TypeConfig || !strings.HasPrefix(item.Name, prefix) {
			continue
		}
		section := make(Section)
		for _, child := range item.Children {
			if child.Type == TypeEdit {
				section[child.Name] = entryOf(child)
			}
		}
		out[strings.TrimPrefix(item.Name, prefix)] = section
	}
	return out, nil
}

func entryOf(edit *Item) Entry {
	e := make(Entry)
	var unsets []string
	for _, c := range edit.Children {
		switch c.Type {
		case TypeSet:
			if len(c.Values) == 1 {
				e[c.Name] = c.Values[0]
			} else {
				e[c.Name] = append([]string{}, c.Values...)
			}
		case TypeUnset:
			unsets = append(unsets, c.Name)
		}
	}
	if len(unsets) > 0 {
		e[TypeUnset] = unsets
	}
	return e
}

// Hostname returns the hostname set in "config system global".
func (c *Configs) Hostname() (string, bool) {
	for _, item := range c.Configs {
		if item.Type != TypeConfig || item.Name != "system global" {
			continue
		}
		for _, s := range item.Children {
			if s.Type == TypeSet && s.Name == "hostname" && len(s.Values) > 0 {
				return s.Values[0], true
			}
		}
	}
	return "", false
}

// Policies returns the normalized firewall policies of c.
func (c *Configs) Policies(profile Profile) ([]Row, error) {
	g, err := c.Group(GroupFirewall)
	if err != nil {
		return nil, err
	}
	return Normalize(g["policy"], profile), nil
}
