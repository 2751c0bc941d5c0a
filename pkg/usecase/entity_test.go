package usecase_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/everecall/pkg/repository/memory"
	"github.com/secmon-lab/everecall/pkg/usecase"
)

func TestEntityUseCase(t *testing.T) {
	ctx := context.Background()

	t.Run("create and lookup by name", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.NewEntityUseCase(repo, &fakeEmbedder{})

		created, err := uc.CreateEntity(ctx, "alice", "person", map[string]string{"role": "admin"})
		gt.NoError(t, err).Required()
		gt.Value(t, created.Name).Equal("alice")

		found, err := uc.GetEntityByName(ctx, "alice")
		gt.NoError(t, err).Required()
		gt.Value(t, found.ID).Equal(created.ID)
	})

	t.Run("empty name is rejected", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.NewEntityUseCase(repo, &fakeEmbedder{})

		_, err := uc.CreateEntity(ctx, "  ", "person", nil)
		gt.Error(t, err)
	})

	t.Run("duplicate name is rejected", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.NewEntityUseCase(repo, &fakeEmbedder{})

		_, err := uc.CreateEntity(ctx, "alice", "person", nil)
		gt.NoError(t, err).Required()

		_, err = uc.CreateEntity(ctx, "alice", "person", nil)
		gt.Error(t, err)
	})

	t.Run("update changes data and bumps timestamp", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.NewEntityUseCase(repo, &fakeEmbedder{})

		created, err := uc.CreateEntity(ctx, "bob", "person", map[string]string{"rev": "v1"})
		gt.NoError(t, err).Required()

		updated, err := uc.UpdateEntity(ctx, created.ID, "", map[string]string{"rev": "v2"})
		gt.NoError(t, err).Required()
		gt.Value(t, updated.Data["rev"]).Equal("v2")
		gt.Value(t, updated.Type).Equal("person")
		gt.Value(t, updated.UpdatedAt.Before(created.UpdatedAt)).Equal(false)
	})

	t.Run("relation requires both endpoints", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.NewEntityUseCase(repo, &fakeEmbedder{})

		alice, err := uc.CreateEntity(ctx, "alice", "person", nil)
		gt.NoError(t, err).Required()
		bob, err := uc.CreateEntity(ctx, "bob", "person", nil)
		gt.NoError(t, err).Required()

		rel, err := uc.CreateRelation(ctx, alice.ID, bob.ID, "knows")
		gt.NoError(t, err).Required()
		gt.Value(t, rel.SourceEntityID).Equal(alice.ID)
		gt.Value(t, rel.TargetEntityID).Equal(bob.ID)

		_, err = uc.CreateRelation(ctx, alice.ID, "no-such-entity", "knows")
		gt.Error(t, err)

		_, err = uc.CreateRelation(ctx, "", bob.ID, "knows")
		gt.Error(t, err)
	})

	t.Run("list relations by entity covers both directions", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.NewEntityUseCase(repo, &fakeEmbedder{})

		alice, err := uc.CreateEntity(ctx, "alice", "person", nil)
		gt.NoError(t, err).Required()
		bob, err := uc.CreateEntity(ctx, "bob", "person", nil)
		gt.NoError(t, err).Required()
		carol, err := uc.CreateEntity(ctx, "carol", "person", nil)
		gt.NoError(t, err).Required()

		_, err = uc.CreateRelation(ctx, alice.ID, bob.ID, "knows")
		gt.NoError(t, err).Required()
		_, err = uc.CreateRelation(ctx, carol.ID, alice.ID, "manages")
		gt.NoError(t, err).Required()

		relations, err := uc.ListRelationsByEntity(ctx, alice.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, relations).Length(2)

		relations, err = uc.ListRelationsByEntity(ctx, bob.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, relations).Length(1)
	})

	t.Run("delete entity", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.NewEntityUseCase(repo, &fakeEmbedder{})

		created, err := uc.CreateEntity(ctx, "temp", "note", nil)
		gt.NoError(t, err).Required()

		gt.NoError(t, uc.DeleteEntity(ctx, created.ID))
		_, err = uc.GetEntity(ctx, created.ID)
		gt.Error(t, err)
	})
}
