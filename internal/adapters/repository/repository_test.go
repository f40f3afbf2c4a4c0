package repository

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guidebook/core/internal/domain/entities"
	"github.com/guidebook/core/internal/infrastructure/logger"
	"github.com/guidebook/core/internal/ports"
)

func sampleGuide(id string) *entities.Guide {
	return &entities.Guide{
		ID:    id,
		Title: "Guide " + id,
		Hero:  "Ana",
		Sections: []entities.Section{
			{ID: "s0", Title: "Skills", Items: []entities.Item{{ID: "i0", Title: "Q", Content: "<p>q</p>"}}},
			{ID: "s1", Title: "Build", Items: []entities.Item{}},
		},
	}
}

// runRepositoryContract exercises the behaviour every guide store shares
func runRepositoryContract(t *testing.T, newRepo func(t *testing.T) ports.GuideRepository) {
	ctx := context.Background()

	t.Run("empty store lists nothing", func(t *testing.T) {
		repo := newRepo(t)
		guides, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, guides)
	})

	t.Run("create then get and list in insertion order", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, sampleGuide("b")))
		require.NoError(t, repo.Create(ctx, sampleGuide("a")))

		got, err := repo.Get(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, sampleGuide("a"), got)

		guides, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, guides, 2)
		assert.Equal(t, "b", guides[0].ID)
		assert.Equal(t, "a", guides[1].ID)
	})

	t.Run("duplicate create is rejected", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, sampleGuide("a")))

		err := repo.Create(ctx, sampleGuide("a"))
		assert.ErrorIs(t, err, entities.ErrGuideExists)
	})

	t.Run("missing guide", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.Get(ctx, "nope")
		assert.ErrorIs(t, err, entities.ErrGuideNotFound)

		err = repo.Update(ctx, sampleGuide("nope"))
		assert.ErrorIs(t, err, entities.ErrGuideNotFound)
	})

	t.Run("update replaces the document", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, sampleGuide("a")))

		g := sampleGuide("a")
		g.Title = "Renamed"
		g.Sections = g.Sections[1:]
		require.NoError(t, repo.Update(ctx, g))

		got, err := repo.Get(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, "Renamed", got.Title)
		require.Len(t, got.Sections, 1)
		assert.Equal(t, "s1", got.Sections[0].ID)
	})

	t.Run("returned guides are copies", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, sampleGuide("a")))

		got, err := repo.Get(ctx, "a")
		require.NoError(t, err)
		got.Sections[0].Title = "mutated"

		again, err := repo.Get(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, "Skills", again.Sections[0].Title)
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, newRepo(t).Ping(ctx))
	})
}

func TestMemoryGuideRepository(t *testing.T) {
	runRepositoryContract(t, func(t *testing.T) ports.GuideRepository {
		return NewMemoryGuideRepository()
	})
}

func TestFileGuideRepository(t *testing.T) {
	runRepositoryContract(t, func(t *testing.T) ports.GuideRepository {
		repo, err := NewFileGuideRepository(filepath.Join(t.TempDir(), "data", "guides.json"), logger.NewNop())
		require.NoError(t, err)
		return repo
	})
}

func TestRedisGuideRepository(t *testing.T) {
	runRepositoryContract(t, func(t *testing.T) ports.GuideRepository {
		s := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: s.Addr()})
		t.Cleanup(func() { client.Close() })
		return NewRedisGuideRepository(client, "test:")
	})
}

func TestRedisGuideRepository_KeyLayout(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	repo := NewRedisGuideRepository(client, "gb:")
	require.NoError(t, repo.Create(context.Background(), sampleGuide("g_1")))

	assert.True(t, s.Exists("gb:guide:g_1"))
	ids, err := s.List("gb:guides")
	require.NoError(t, err)
	assert.Equal(t, []string{"g_1"}, ids)
}

func TestFileGuideRepository_WritesIndentedArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guides.json")
	repo, err := NewFileGuideRepository(path, logger.NewNop())
	require.NoError(t, err)

	require.NoError(t, repo.Create(context.Background(), sampleGuide("g1")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "[\n  {\n    \"id\": \"g1\""), "got %q", string(data))

	var onDisk []entities.Guide
	require.NoError(t, json.Unmarshal(data, &onDisk))
	assert.Len(t, onDisk, 1)
	assert.Equal(t, "<p>q</p>", onDisk[0].Sections[0].Items[0].Content)

	leftovers, err := filepath.Glob(path + ".*.tmp")
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestFileGuideRepository_KeepsMarkupReadable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guides.json")
	repo, err := NewFileGuideRepository(path, logger.NewNop())
	require.NoError(t, err)

	g := sampleGuide("g1")
	g.Sections[0].Items[0].Content = `<p>Tom & Jerry</p><img src="/uploads/a.png">`
	require.NoError(t, repo.Create(context.Background(), g))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"content": "<p>Tom & Jerry</p><img src=\"/uploads/a.png\">"`)
	assert.NotContains(t, string(data), `\u003c`)
	assert.NotContains(t, string(data), `\u0026`)

	got, err := repo.Get(context.Background(), "g1")
	require.NoError(t, err)
	assert.Equal(t, g.Sections[0].Items[0].Content, got.Sections[0].Items[0].Content)
}

func TestFileGuideRepository_CorruptFileReadsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guides.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	repo, err := NewFileGuideRepository(path, logger.NewNop())
	require.NoError(t, err)

	guides, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, guides)

	_, err = repo.Get(context.Background(), "g1")
	assert.ErrorIs(t, err, entities.ErrGuideNotFound)

	require.NoError(t, repo.Create(context.Background(), sampleGuide("g1")))
	guides, err = repo.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, guides, 1)
}

func TestFileGuideRepository_ReadsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guides.json")
	raw := `[{"id":"g_1700000000000","title":"Old","hero":"Ana","sections":[{"id":"s0","title":"Skills","items":[{"id":"i0","title":"img","content":"/uploads/x.png","type":"image"}]}]}]`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	repo, err := NewFileGuideRepository(path, logger.NewNop())
	require.NoError(t, err)

	g, err := repo.Get(context.Background(), "g_1700000000000")
	require.NoError(t, err)
	assert.Equal(t, entities.ItemTypeImage, g.Sections[0].Items[0].Type)
}
