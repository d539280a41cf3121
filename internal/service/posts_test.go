package service

import (
	"context"
	"strings"
	"testing"

	"github.com/UkralStul/blog-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePost(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.account(t, "author@example.com")

	t.Run("draft", func(t *testing.T) {
		post, err := env.posts.Create(ctx, author.ID, "Hello", "World", false)
		require.NoError(t, err)
		assert.Equal(t, domain.PostDraft, post.State())
		assert.Nil(t, post.PublishedAt)
		assert.Equal(t, post.CreatedAt, post.UpdatedAt)
		assert.Equal(t, author.ID, post.AuthorID)
	})

	t.Run("published", func(t *testing.T) {
		post, err := env.posts.Create(ctx, author.ID, "Hello", "World", true)
		require.NoError(t, err)
		assert.Equal(t, domain.PostPublished, post.State())
		require.NotNil(t, post.PublishedAt)
		assert.Equal(t, post.CreatedAt, *post.PublishedAt)
	})

	t.Run("unknown author", func(t *testing.T) {
		_, err := env.posts.Create(ctx, "ghost", "Hello", "World", false)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestCreatePost_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.account(t, "author@example.com")

	tests := []struct {
		name        string
		title, body string
		message     string
	}{
		{"empty title", "", "body", "title is required"},
		{"empty body", "title", "", "body is required"},
		{"long title", strings.Repeat("т", 201), "body", "title must be at most 200 characters"},
		{"long body", "title", strings.Repeat("b", 2001), "body must be at most 2000 characters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.posts.Create(ctx, author.ID, tt.title, tt.body, false)
			require.ErrorIs(t, err, domain.ErrValidation)
			assert.EqualError(t, err, tt.message)
		})
	}

	t.Run("limits are inclusive and counted in characters", func(t *testing.T) {
		_, err := env.posts.Create(ctx, author.ID, strings.Repeat("т", 200), strings.Repeat("б", 2000), false)
		assert.NoError(t, err)
	})
}

func TestEditPost(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.account(t, "author@example.com")
	other := env.account(t, "other@example.com")

	draft := env.draftPost(t, author)

	edited, err := env.posts.Edit(ctx, author.ID, draft.ID, "New title", "New body")
	require.NoError(t, err)
	assert.Equal(t, "New title", edited.Title)
	assert.Equal(t, "New body", edited.Body)
	assert.True(t, edited.UpdatedAt.After(draft.UpdatedAt))
	assert.Equal(t, draft.CreatedAt, edited.CreatedAt)

	_, err = env.posts.Edit(ctx, other.ID, draft.ID, "Hijack", "Body")
	assert.ErrorIs(t, err, domain.ErrPermission)

	_, err = env.posts.Edit(ctx, author.ID, draft.ID, "", "Body")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = env.posts.Edit(ctx, author.ID, "missing", "Title", "Body")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEditPost_PublishedIsLocked(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.account(t, "author@example.com")
	post := env.publishedPost(t, author)

	_, err := env.posts.Edit(ctx, author.ID, post.ID, "Changed", "Changed")
	require.ErrorIs(t, err, domain.ErrConflict)

	stored, err := env.posts.Get(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Title", stored.Title)

	// После возврата в черновики правка снова разрешена
	_, err = env.posts.MoveToDraft(ctx, author.ID, post.ID)
	require.NoError(t, err)
	_, err = env.posts.Edit(ctx, author.ID, post.ID, "Changed", "Changed")
	assert.NoError(t, err)
}

func TestPublish(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.account(t, "author@example.com")
	other := env.account(t, "other@example.com")
	draft := env.draftPost(t, author)

	_, err := env.posts.Publish(ctx, other.ID, draft.ID)
	require.ErrorIs(t, err, domain.ErrPermission)

	published, err := env.posts.Publish(ctx, author.ID, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PostPublished, published.State())
	require.NotNil(t, published.PublishedAt)
	assert.Equal(t, published.UpdatedAt, *published.PublishedAt)

	_, err = env.posts.Publish(ctx, author.ID, draft.ID)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestMoveToDraft(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.account(t, "author@example.com")
	reader := env.account(t, "reader@example.com")

	t.Run("without comments", func(t *testing.T) {
		post := env.publishedPost(t, author)
		draft, err := env.posts.MoveToDraft(ctx, author.ID, post.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.PostDraft, draft.State())
		assert.Nil(t, draft.PublishedAt)

		_, err = env.posts.MoveToDraft(ctx, author.ID, post.ID)
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("not the author", func(t *testing.T) {
		post := env.publishedPost(t, author)
		_, err := env.posts.MoveToDraft(ctx, reader.ID, post.ID)
		assert.ErrorIs(t, err, domain.ErrPermission)
	})

	t.Run("blocked by a nested reply", func(t *testing.T) {
		post := env.publishedPost(t, author)
		root, err := env.comments.Comment(ctx, post.ID, reader.ID, "root")
		require.NoError(t, err)
		reply, err := env.comments.Reply(ctx, root.ID, author.ID, "reply")
		require.NoError(t, err)

		_, err = env.posts.MoveToDraft(ctx, author.ID, post.ID)
		require.ErrorIs(t, err, domain.ErrConflict)

		// Удаление только ответа оставляет корень, перевод всё ещё запрещён
		_, err = env.comments.DeleteComment(ctx, reply.ID, author.ID)
		require.NoError(t, err)
		_, err = env.posts.MoveToDraft(ctx, author.ID, post.ID)
		require.ErrorIs(t, err, domain.ErrConflict)

		_, err = env.comments.DeleteComment(ctx, root.ID, reader.ID)
		require.NoError(t, err)
		_, err = env.posts.MoveToDraft(ctx, author.ID, post.ID)
		assert.NoError(t, err)
	})
}

func TestDeletePost(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.account(t, "author@example.com")
	other := env.account(t, "other@example.com")

	post := env.publishedPost(t, author)

	err := env.posts.Delete(ctx, other.ID, post.ID)
	require.ErrorIs(t, err, domain.ErrPermission)

	require.NoError(t, env.posts.Delete(ctx, author.ID, post.ID))

	// Удалённый пост терминален: любые переходы дают NotFound
	_, err = env.posts.Publish(ctx, author.ID, post.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = env.posts.MoveToDraft(ctx, author.ID, post.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = env.posts.Edit(ctx, author.ID, post.ID, "Title", "Body")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, env.posts.Delete(ctx, author.ID, post.ID), domain.ErrNotFound)
	_, err = env.posts.Get(ctx, post.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Даже чужой запрос не раскрывает, что пост существовал
	_, err = env.posts.Publish(ctx, other.ID, post.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Строка остаётся в хранилище
	stored, err := env.store.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PostDeleted, stored.State())
}

func TestDeletePost_WithComments(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.account(t, "author@example.com")

	post := env.publishedPost(t, author)
	_, err := env.comments.Comment(ctx, post.ID, author.ID, "first")
	require.NoError(t, err)

	// Комментарии блокируют только перевод в черновики, не удаление
	assert.NoError(t, env.posts.Delete(ctx, author.ID, post.ID))
}

func TestViewPublished(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.account(t, "author@example.com")

	first := env.publishedPost(t, author)
	env.draftPost(t, author)
	second := env.publishedPost(t, author)
	deleted := env.publishedPost(t, author)
	require.NoError(t, env.posts.Delete(ctx, author.ID, deleted.ID))

	// Позднее опубликованный черновик оказывается первым
	late := env.draftPost(t, author)
	_, err := env.posts.Publish(ctx, author.ID, late.ID)
	require.NoError(t, err)

	posts, err := env.posts.ViewPublished(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, late.ID, posts[0].ID)
	assert.Equal(t, second.ID, posts[1].ID)
	assert.Equal(t, first.ID, posts[2].ID)
}

func TestViewPublished_Empty(t *testing.T) {
	env := newTestEnv(t)

	posts, err := env.posts.ViewPublished(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, posts)
	assert.Empty(t, posts)
}

func TestViewDrafts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.account(t, "author@example.com")
	other := env.account(t, "other@example.com")

	older := env.draftPost(t, author)
	newer := env.draftPost(t, author)
	env.publishedPost(t, author)
	env.draftPost(t, other)
	gone := env.draftPost(t, author)
	require.NoError(t, env.posts.Delete(ctx, author.ID, gone.ID))

	// Правка поднимает черновик наверх
	_, err := env.posts.Edit(ctx, author.ID, older.ID, "Edited", "Body")
	require.NoError(t, err)

	drafts, err := env.posts.ViewDrafts(ctx, author.ID)
	require.NoError(t, err)
	require.Len(t, drafts, 2)
	assert.Equal(t, older.ID, drafts[0].ID)
	assert.Equal(t, newer.ID, drafts[1].ID)

	none, err := env.posts.ViewDrafts(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestPostStateMachineIsClosed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.account(t, "author@example.com")

	type step struct {
		name string
		run  func(postID string) error
	}
	steps := []step{
		{"publish", func(id string) error { _, err := env.posts.Publish(ctx, author.ID, id); return err }},
		{"move to draft", func(id string) error { _, err := env.posts.MoveToDraft(ctx, author.ID, id); return err }},
		{"edit", func(id string) error { _, err := env.posts.Edit(ctx, author.ID, id, "T", "B"); return err }},
		{"delete", func(id string) error { return env.posts.Delete(ctx, author.ID, id) }},
	}

	// Из каждого состояния каждая операция либо переводит пост в допустимое
	// состояние, либо отказывает доменной ошибкой без изменений.
	for _, setup := range []domain.PostState{domain.PostDraft, domain.PostPublished, domain.PostDeleted} {
		for _, s := range steps {
			t.Run(string(setup)+"/"+s.name, func(t *testing.T) {
				post := env.draftPost(t, author)
				switch setup {
				case domain.PostPublished:
					_, err := env.posts.Publish(ctx, author.ID, post.ID)
					require.NoError(t, err)
				case domain.PostDeleted:
					require.NoError(t, env.posts.Delete(ctx, author.ID, post.ID))
				}

				before, err := env.store.GetPostByID(ctx, post.ID)
				require.NoError(t, err)

				err = s.run(post.ID)
				after, getErr := env.store.GetPostByID(ctx, post.ID)
				require.NoError(t, getErr)

				if err != nil {
					assert.NotNil(t, domain.KindOf(err))
					assert.NotErrorIs(t, err, domain.ErrStorage)
					assert.Equal(t, before, after)
				}
				switch after.State() {
				case domain.PostDraft:
					assert.Nil(t, after.PublishedAt)
				case domain.PostPublished:
					assert.NotNil(t, after.PublishedAt)
				case domain.PostDeleted:
					assert.True(t, setup == domain.PostDeleted || s.name == "delete")
				}
			})
		}
	}
}
