package entities

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrGuideNotFound    = errors.New("guide not found")
	ErrGuideExists      = errors.New("guide already exists")
	ErrSectionNotFound  = errors.New("section not found")
	ErrItemNotFound     = errors.New("item not found")
	ErrNoSections       = errors.New("guide has no sections")
	ErrDuplicateSection = errors.New("duplicate section id")
	ErrMissingFile      = errors.New("no file uploaded")
	ErrUnsupportedMedia = errors.New("unsupported file type")
	ErrFileTooLarge     = errors.New("file too large")
)

// ItemType distinguishes image items from rich-text items
type ItemType string

const (
	// ItemTypeText is the default; it serializes as an absent type
	ItemTypeText  ItemType = ""
	ItemTypeImage ItemType = "image"
)

const (
	sectionIDPrefix = "s_"
	itemIDPrefix    = "i_"
)

// Guide represents a character/build guide composed of ordered sections
type Guide struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Hero     string    `json:"hero"`
	Sections []Section `json:"sections"`
}

// Section is a named, collapsible grouping of items within a guide
type Section struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Items []Item `json:"items"`
	Open  bool   `json:"open"`
}

// Item is a leaf content unit, either rich text or an image reference
type Item struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Type    ItemType `json:"type,omitempty"`
	Open    bool     `json:"open"`
}

// GuideSummary is the listing projection of a guide
type GuideSummary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Hero  string `json:"hero"`
}

// GuidePatch enumerates the top-level fields an update may replace.
// Nil fields keep their previous value.
type GuidePatch struct {
	Title    *string    `json:"title,omitempty"`
	Hero     *string    `json:"hero,omitempty"`
	Sections *[]Section `json:"sections,omitempty"`
}

// IsEmpty reports whether the patch changes nothing
func (p GuidePatch) IsEmpty() bool {
	return p.Title == nil && p.Hero == nil && p.Sections == nil
}

// Summary returns the listing projection of the guide
func (g *Guide) Summary() GuideSummary {
	return GuideSummary{ID: g.ID, Title: g.Title, Hero: g.Hero}
}

// Apply merges the patch over the guide
func (g *Guide) Apply(p GuidePatch) {
	if p.Title != nil {
		g.Title = *p.Title
	}
	if p.Hero != nil {
		g.Hero = *p.Hero
	}
	if p.Sections != nil {
		g.Sections = cloneSections(*p.Sections)
	}
}

// Clone returns a deep copy of the guide
func (g *Guide) Clone() *Guide {
	if g == nil {
		return nil
	}
	c := *g
	c.Sections = cloneSections(g.Sections)
	return &c
}

func cloneSections(in []Section) []Section {
	if in == nil {
		return nil
	}
	out := make([]Section, len(in))
	for i, s := range in {
		out[i] = s
		if s.Items != nil {
			out[i].Items = make([]Item, len(s.Items))
			copy(out[i].Items, s.Items)
		}
	}
	return out
}

// Normalize assigns identifiers to sections and items that lack one and
// replaces nil slices with empty ones so the document always serializes
// sections and items as arrays.
func (g *Guide) Normalize() error {
	if g.Sections == nil {
		g.Sections = []Section{}
	}
	seen := make(map[string]struct{}, len(g.Sections))
	for i := range g.Sections {
		s := &g.Sections[i]
		s.ID = strings.TrimSpace(s.ID)
		if s.ID == "" {
			s.ID = NewSectionID()
		}
		if _, dup := seen[s.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateSection, s.ID)
		}
		seen[s.ID] = struct{}{}
		if s.Items == nil {
			s.Items = []Item{}
		}
		for j := range s.Items {
			if strings.TrimSpace(s.Items[j].ID) == "" {
				s.Items[j].ID = NewItemID()
			}
		}
	}
	return nil
}

// Section returns the section with the given id
func (g *Guide) Section(id string) (*Section, bool) {
	for i := range g.Sections {
		if g.Sections[i].ID == id {
			return &g.Sections[i], true
		}
	}
	return nil, false
}

// SectionIndex returns the index of the section with the given id, or -1
func (g *Guide) SectionIndex(id string) int {
	for i := range g.Sections {
		if g.Sections[i].ID == id {
			return i
		}
	}
	return -1
}

// TargetSection resolves the section an upload lands in: the requested
// section when it exists, the first section otherwise.
func (g *Guide) TargetSection(id string) (*Section, error) {
	if len(g.Sections) == 0 {
		return nil, ErrNoSections
	}
	if id != "" {
		if s, ok := g.Section(id); ok {
			return s, nil
		}
	}
	return &g.Sections[0], nil
}

// MoveSection moves a section so that it sits right before another one.
// An empty beforeID moves the section to the end.
func (g *Guide) MoveSection(id, beforeID string) error {
	from := g.SectionIndex(id)
	if from == -1 {
		return fmt.Errorf("%w: %s", ErrSectionNotFound, id)
	}
	if beforeID != "" && g.SectionIndex(beforeID) == -1 {
		return fmt.Errorf("%w: %s", ErrSectionNotFound, beforeID)
	}
	if id == beforeID {
		return nil
	}

	section := g.Sections[from]
	g.Sections = append(g.Sections[:from], g.Sections[from+1:]...)

	to := len(g.Sections)
	if beforeID != "" {
		to = g.SectionIndex(beforeID)
	}
	g.Sections = append(g.Sections, Section{})
	copy(g.Sections[to+1:], g.Sections[to:])
	g.Sections[to] = section
	return nil
}

// ItemIndex returns the index of the item with the given id, or -1
func (s *Section) ItemIndex(id string) int {
	for i := range s.Items {
		if s.Items[i].ID == id {
			return i
		}
	}
	return -1
}

// NewSectionID generates a stable section identifier
func NewSectionID() string {
	return sectionIDPrefix + uuid.NewString()
}

// NewItemID generates a stable item identifier
func NewItemID() string {
	return itemIDPrefix + uuid.NewString()
}
