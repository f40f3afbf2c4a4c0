// Package editor implements the edit mode of a guide view. Every structural
// change applies to a private working copy; nothing is durable until Save
// sends the whole document back.
package editor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/guidebook/core/internal/domain/entities"
)

// Mode is the state of a guide view
type Mode int

const (
	Viewing Mode = iota
	Editing
)

func (m Mode) String() string {
	if m == Editing {
		return "editing"
	}
	return "viewing"
}

// DefaultItemTitle is the title given to items added without one
const DefaultItemTitle = "New Act"

var (
	// ErrNotEditing is returned by mutations issued outside edit mode
	ErrNotEditing = errors.New("not in edit mode")
	// ErrAlreadyEditing is returned by Edit while a working copy exists
	ErrAlreadyEditing = errors.New("already editing")
)

// Saver persists a full guide document
type Saver interface {
	UpdateGuide(ctx context.Context, id string, patch entities.GuidePatch) (*entities.Guide, error)
}

// Session is one guide view
type Session struct {
	saver   Saver
	guide   *entities.Guide
	working *entities.Guide
}

// NewSession opens a view on a loaded guide
func NewSession(guide *entities.Guide, saver Saver) *Session {
	return &Session{
		saver: saver,
		guide: guide.Clone(),
	}
}

// Mode reports whether the session is viewing or editing
func (s *Session) Mode() Mode {
	if s.working != nil {
		return Editing
	}
	return Viewing
}

// Guide returns the document being displayed: the working copy while
// editing, the last loaded or saved version otherwise.
func (s *Session) Guide() *entities.Guide {
	if s.working != nil {
		return s.working
	}
	return s.guide
}

// Edit enters edit mode with a fresh copy of the guide
func (s *Session) Edit() error {
	if s.working != nil {
		return ErrAlreadyEditing
	}
	s.working = s.guide.Clone()
	return nil
}

// Dirty reports whether the working copy differs from the saved guide
func (s *Session) Dirty() bool {
	return s.working != nil && !reflect.DeepEqual(s.working, s.guide)
}

// Discard leaves edit mode and drops every unsaved change
func (s *Session) Discard() {
	s.working = nil
}

// Save sends the working copy as a full-document update and adopts the
// stored result. The session returns to viewing on success.
func (s *Session) Save(ctx context.Context) error {
	if s.working == nil {
		return ErrNotEditing
	}

	sections := s.working.Sections
	title, hero := s.working.Title, s.working.Hero
	saved, err := s.saver.UpdateGuide(ctx, s.working.ID, entities.GuidePatch{
		Title:    &title,
		Hero:     &hero,
		Sections: &sections,
	})
	if err != nil {
		return fmt.Errorf("save guide %s: %w", s.working.ID, err)
	}

	s.guide = saved.Clone()
	s.working = nil
	return nil
}

// SetTitle changes the guide title
func (s *Session) SetTitle(title string) error {
	g, err := s.edit()
	if err != nil {
		return err
	}
	g.Title = title
	return nil
}

// SetHero changes the hero blurb
func (s *Session) SetHero(hero string) error {
	g, err := s.edit()
	if err != nil {
		return err
	}
	g.Hero = hero
	return nil
}

// AddSection appends an open section and returns its id
func (s *Session) AddSection(title string) (string, error) {
	g, err := s.edit()
	if err != nil {
		return "", err
	}
	id := entities.NewSectionID()
	g.Sections = append(g.Sections, entities.Section{
		ID:    id,
		Title: title,
		Items: []entities.Item{},
		Open:  true,
	})
	return id, nil
}

// DeleteSection removes a section and its items
func (s *Session) DeleteSection(id string) error {
	g, err := s.edit()
	if err != nil {
		return err
	}
	idx := g.SectionIndex(id)
	if idx == -1 {
		return fmt.Errorf("%w: %s", entities.ErrSectionNotFound, id)
	}
	g.Sections = append(g.Sections[:idx], g.Sections[idx+1:]...)
	return nil
}

// RenameSection changes a section title
func (s *Session) RenameSection(id, title string) error {
	sec, err := s.section(id)
	if err != nil {
		return err
	}
	sec.Title = title
	return nil
}

// MoveSection places a section right before another one, or last when
// beforeID is empty
func (s *Session) MoveSection(id, beforeID string) error {
	g, err := s.edit()
	if err != nil {
		return err
	}
	return g.MoveSection(id, beforeID)
}

// AddItem appends an open text item to a section and returns its id
func (s *Session) AddItem(sectionID, title string) (string, error) {
	sec, err := s.section(sectionID)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(title) == "" {
		title = DefaultItemTitle
	}
	id := entities.NewItemID()
	sec.Items = append(sec.Items, entities.Item{
		ID:    id,
		Title: title,
		Open:  true,
	})
	return id, nil
}

// DeleteItem removes an item from a section
func (s *Session) DeleteItem(sectionID, itemID string) error {
	sec, err := s.section(sectionID)
	if err != nil {
		return err
	}
	idx := sec.ItemIndex(itemID)
	if idx == -1 {
		return fmt.Errorf("%w: %s", entities.ErrItemNotFound, itemID)
	}
	sec.Items = append(sec.Items[:idx], sec.Items[idx+1:]...)
	return nil
}

// MoveItem moves an item to position to within its section. Positions past
// the end are clamped.
func (s *Session) MoveItem(sectionID, itemID string, to int) error {
	sec, err := s.section(sectionID)
	if err != nil {
		return err
	}
	from := sec.ItemIndex(itemID)
	if from == -1 {
		return fmt.Errorf("%w: %s", entities.ErrItemNotFound, itemID)
	}
	if to < 0 {
		to = 0
	}
	if to > len(sec.Items)-1 {
		to = len(sec.Items) - 1
	}

	item := sec.Items[from]
	sec.Items = append(sec.Items[:from], sec.Items[from+1:]...)
	sec.Items = append(sec.Items, entities.Item{})
	copy(sec.Items[to+1:], sec.Items[to:])
	sec.Items[to] = item
	return nil
}

// SetItemTitle changes an item title
func (s *Session) SetItemTitle(sectionID, itemID, title string) error {
	item, err := s.item(sectionID, itemID)
	if err != nil {
		return err
	}
	item.Title = title
	return nil
}

// SetItemContent replaces an item's HTML or image URL
func (s *Session) SetItemContent(sectionID, itemID, content string) error {
	item, err := s.item(sectionID, itemID)
	if err != nil {
		return err
	}
	item.Content = content
	return nil
}

// ToggleSection flips a section between open and collapsed. It works in
// both modes and only touches the displayed document.
func (s *Session) ToggleSection(id string) error {
	sec, ok := s.Guide().Section(id)
	if !ok {
		return fmt.Errorf("%w: %s", entities.ErrSectionNotFound, id)
	}
	sec.Open = !sec.Open
	return nil
}

// ToggleItem flips an item between open and collapsed
func (s *Session) ToggleItem(sectionID, itemID string) error {
	sec, ok := s.Guide().Section(sectionID)
	if !ok {
		return fmt.Errorf("%w: %s", entities.ErrSectionNotFound, sectionID)
	}
	idx := sec.ItemIndex(itemID)
	if idx == -1 {
		return fmt.Errorf("%w: %s", entities.ErrItemNotFound, itemID)
	}
	sec.Items[idx].Open = !sec.Items[idx].Open
	return nil
}

// Outline writes the collapsible outline of the displayed guide. Collapsed
// sections and items hide their children.
func (s *Session) Outline(w io.Writer) error {
	return WriteOutline(w, s.Guide())
}

// WriteOutline renders a guide as an indented outline
func WriteOutline(w io.Writer, g *entities.Guide) error {
	var b strings.Builder

	fmt.Fprintf(&b, "%s [%s]\n", g.Title, g.ID)
	if g.Hero != "" {
		fmt.Fprintf(&b, "  %s\n", g.Hero)
	}
	for _, sec := range g.Sections {
		fmt.Fprintf(&b, "%s %s [%s]\n", marker(sec.Open), sec.Title, sec.ID)
		if !sec.Open {
			continue
		}
		for _, item := range sec.Items {
			label := item.Title
			if item.Type == entities.ItemTypeImage {
				label += " (image)"
			}
			fmt.Fprintf(&b, "    %s %s [%s]\n", marker(item.Open), label, item.ID)
			if item.Open && item.Content != "" {
				fmt.Fprintf(&b, "        %s\n", item.Content)
			}
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func marker(open bool) string {
	if open {
		return "▾"
	}
	return "▸"
}

func (s *Session) edit() (*entities.Guide, error) {
	if s.working == nil {
		return nil, ErrNotEditing
	}
	return s.working, nil
}

func (s *Session) section(id string) (*entities.Section, error) {
	g, err := s.edit()
	if err != nil {
		return nil, err
	}
	sec, ok := g.Section(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", entities.ErrSectionNotFound, id)
	}
	return sec, nil
}

func (s *Session) item(sectionID, itemID string) (*entities.Item, error) {
	sec, err := s.section(sectionID)
	if err != nil {
		return nil, err
	}
	idx := sec.ItemIndex(itemID)
	if idx == -1 {
		return nil, fmt.Errorf("%w: %s", entities.ErrItemNotFound, itemID)
	}
	return &sec.Items[idx], nil
}
