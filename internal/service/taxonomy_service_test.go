package service_test

import (
	"context"
	"testing"

	"github.com/editorial-cms/internal/models"
	"github.com/editorial-cms/internal/service"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nopLogger() zerolog.Logger { return zerolog.Nop() }

func TestTaxonomyService_Categories(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cat, err := env.svc.Taxonomy.CreateCategory(ctx, &models.CategoryInput{Name: " <b>World</b> News ", Description: "<i>Global</i>"})
	require.NoError(t, err)
	assert.Equal(t, "World News", cat.Name)
	assert.Equal(t, "world-news", cat.Slug)
	assert.Equal(t, "Global", cat.Description)

	_, err = env.svc.Taxonomy.CreateCategory(ctx, &models.CategoryInput{Name: "World news"})
	assert.ErrorIs(t, err, service.ErrConflict)

	_, err = env.svc.Taxonomy.CreateCategory(ctx, &models.CategoryInput{Name: "!!!"})
	assert.Error(t, err)

	all, err := env.svc.Taxonomy.Categories(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestTaxonomyService_DeleteCategoryKeepsArticles(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cat, err := env.svc.Taxonomy.CreateCategory(ctx, &models.CategoryInput{Name: "Temporary"})
	require.NoError(t, err)
	a := env.createArticle(t, &models.ArticleInput{Title: "Survivor", CategoryID: cat.ID, Status: "published"})

	require.NoError(t, env.svc.Taxonomy.DeleteCategory(ctx, cat.ID))
	assert.ErrorIs(t, env.svc.Taxonomy.DeleteCategory(ctx, cat.ID), service.ErrNotFound)

	got, err := env.svc.Article.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, got.CategorySlug)

	_, err = env.svc.Public.CategoryArchive(ctx, "temporary", 1)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestTaxonomyService_Tags(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tag := env.createTag(t, "Go Lang")
	assert.Equal(t, "go-lang", tag.Slug)

	_, err := env.svc.Taxonomy.CreateTag(ctx, &models.TagInput{Name: "go lang"})
	assert.ErrorIs(t, err, service.ErrConflict)

	a := env.createArticle(t, &models.ArticleInput{Title: "Tagged", TagIDs: []int64{tag.ID}})
	require.Equal(t, []int64{tag.ID}, a.TagIDs)
	require.NoError(t, env.svc.Taxonomy.DeleteTag(ctx, tag.ID))
	assert.ErrorIs(t, env.svc.Taxonomy.DeleteTag(ctx, tag.ID), service.ErrNotFound)

	tags, err := env.svc.Taxonomy.Tags(ctx)
	require.NoError(t, err)
	assert.Empty(t, tags)
}
