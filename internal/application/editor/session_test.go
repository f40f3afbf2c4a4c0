package editor

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guidebook/core/internal/domain/entities"
)

type fakeSaver struct {
	calls []entities.GuidePatch
	err   error
}

func (f *fakeSaver) UpdateGuide(ctx context.Context, id string, patch entities.GuidePatch) (*entities.Guide, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.calls = append(f.calls, patch)
	g := &entities.Guide{ID: id}
	g.Apply(patch)
	return g, nil
}

func loadedGuide() *entities.Guide {
	return &entities.Guide{
		ID:    "g1",
		Title: "Ana",
		Hero:  "Ana",
		Sections: []entities.Section{
			{ID: "s0", Title: "Skills", Open: true, Items: []entities.Item{
				{ID: "i0", Title: "Q", Content: "<p>q</p>"},
				{ID: "i1", Title: "W"},
				{ID: "i2", Title: "E"},
			}},
			{ID: "s1", Title: "Build", Items: []entities.Item{}},
		},
	}
}

func TestSession_MutationsRequireEditMode(t *testing.T) {
	s := NewSession(loadedGuide(), &fakeSaver{})

	assert.Equal(t, Viewing, s.Mode())
	assert.ErrorIs(t, s.SetTitle("x"), ErrNotEditing)
	_, err := s.AddSection("x")
	assert.ErrorIs(t, err, ErrNotEditing)
	assert.ErrorIs(t, s.Save(context.Background()), ErrNotEditing)

	require.NoError(t, s.Edit())
	assert.Equal(t, Editing, s.Mode())
	assert.ErrorIs(t, s.Edit(), ErrAlreadyEditing)
}

func TestSession_DiscardDropsChanges(t *testing.T) {
	saver := &fakeSaver{}
	s := NewSession(loadedGuide(), saver)

	require.NoError(t, s.Edit())
	require.NoError(t, s.SetTitle("Changed"))
	require.NoError(t, s.DeleteSection("s1"))
	assert.True(t, s.Dirty())

	s.Discard()
	assert.Equal(t, Viewing, s.Mode())
	assert.False(t, s.Dirty())
	assert.Equal(t, loadedGuide(), s.Guide())
	assert.Empty(t, saver.calls)
}

func TestSession_SaveSendsWholeDocument(t *testing.T) {
	saver := &fakeSaver{}
	s := NewSession(loadedGuide(), saver)

	require.NoError(t, s.Edit())
	assert.False(t, s.Dirty())

	id, err := s.AddSection("Tips")
	require.NoError(t, err)
	itemID, err := s.AddItem(id, "")
	require.NoError(t, err)
	require.NoError(t, s.SetItemContent(id, itemID, "<b>hi</b>"))
	require.NoError(t, s.SetHero("Mei"))
	assert.True(t, s.Dirty())

	require.NoError(t, s.Save(context.Background()))
	assert.Equal(t, Viewing, s.Mode())

	require.Len(t, saver.calls, 1)
	patch := saver.calls[0]
	require.NotNil(t, patch.Title)
	require.NotNil(t, patch.Hero)
	require.NotNil(t, patch.Sections)
	assert.Equal(t, "Mei", *patch.Hero)
	require.Len(t, *patch.Sections, 3)

	added := s.Guide().Sections[2]
	assert.Equal(t, "Tips", added.Title)
	assert.True(t, added.Open)
	require.Len(t, added.Items, 1)
	assert.Equal(t, DefaultItemTitle, added.Items[0].Title)
	assert.Equal(t, "<b>hi</b>", added.Items[0].Content)
}

func TestSession_SaveFailureKeepsWorkingCopy(t *testing.T) {
	saver := &fakeSaver{err: errors.New("offline")}
	s := NewSession(loadedGuide(), saver)

	require.NoError(t, s.Edit())
	require.NoError(t, s.SetTitle("Changed"))

	err := s.Save(context.Background())
	assert.Error(t, err)
	assert.Equal(t, Editing, s.Mode())
	assert.Equal(t, "Changed", s.Guide().Title)
}

func TestSession_SectionAndItemEdits(t *testing.T) {
	s := NewSession(loadedGuide(), &fakeSaver{})
	require.NoError(t, s.Edit())

	require.NoError(t, s.RenameSection("s1", "Items"))
	require.NoError(t, s.MoveSection("s1", "s0"))
	assert.Equal(t, "s1", s.Guide().Sections[0].ID)
	assert.Equal(t, "Items", s.Guide().Sections[0].Title)

	require.NoError(t, s.MoveItem("s0", "i2", 0))
	require.NoError(t, s.MoveItem("s0", "i0", 99))
	items := s.Guide().Sections[1].Items
	assert.Equal(t, []string{"i2", "i1", "i0"}, []string{items[0].ID, items[1].ID, items[2].ID})

	require.NoError(t, s.SetItemTitle("s0", "i1", "W+"))
	require.NoError(t, s.DeleteItem("s0", "i2"))
	items = s.Guide().Sections[1].Items
	require.Len(t, items, 2)
	assert.Equal(t, "W+", items[0].Title)

	assert.ErrorIs(t, s.DeleteSection("zz"), entities.ErrSectionNotFound)
	assert.ErrorIs(t, s.DeleteItem("s0", "zz"), entities.ErrItemNotFound)
	assert.ErrorIs(t, s.SetItemTitle("zz", "i0", "x"), entities.ErrSectionNotFound)
	_, err := s.AddItem("zz", "x")
	assert.ErrorIs(t, err, entities.ErrSectionNotFound)
}

func TestSession_ToggleWorksWhileViewing(t *testing.T) {
	s := NewSession(loadedGuide(), nil)

	require.NoError(t, s.ToggleSection("s1"))
	assert.True(t, s.Guide().Sections[1].Open)

	require.NoError(t, s.ToggleItem("s0", "i0"))
	assert.True(t, s.Guide().Sections[0].Items[0].Open)

	assert.ErrorIs(t, s.ToggleSection("zz"), entities.ErrSectionNotFound)
	assert.ErrorIs(t, s.ToggleItem("s0", "zz"), entities.ErrItemNotFound)
}

func TestOutline(t *testing.T) {
	g := loadedGuide()
	g.Sections[0].Items[0].Open = true
	g.Sections[0].Items[1].Type = entities.ItemTypeImage

	var buf bytes.Buffer
	require.NoError(t, WriteOutline(&buf, g))

	want := "Ana [g1]\n" +
		"  Ana\n" +
		"▾ Skills [s0]\n" +
		"    ▾ Q [i0]\n" +
		"        <p>q</p>\n" +
		"    ▸ W (image) [i1]\n" +
		"    ▸ E [i2]\n" +
		"▸ Build [s1]\n"
	assert.Equal(t, want, buf.String())
}
