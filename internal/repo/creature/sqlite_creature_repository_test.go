package creature_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/bestiary/internal/domain"
	"github.com/mkrupp/bestiary/internal/infra/clock"
	"github.com/mkrupp/bestiary/internal/repo/combat"
	"github.com/mkrupp/bestiary/internal/repo/sqlitedb"
	"github.com/mkrupp/bestiary/internal/repo/user"

	. "github.com/mkrupp/bestiary/internal/repo/creature"
)

type fixture struct {
	db    *sqlitedb.DB
	clock *clock.MockClock
	repo  *SQLiteRepository
	owner int64
}

func setupTestRepo(t *testing.T) *fixture {
	t.Helper()

	ctx := context.Background()

	db, err := sqlitedb.Open(ctx, sqlitedb.Config{
		Path:        filepath.Join(t.TempDir(), "test.db"),
		BusyTimeout: time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mock := clock.NewMock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	db.WithClock(mock)

	owner, err := user.NewSQLiteUserRepository(db).CreateUser(ctx, "alice", "alice@example.com", []byte("hash"))
	require.NoError(t, err)

	return &fixture{db: db, clock: mock, repo: NewSQLiteRepository(db), owner: owner.ID}
}

func (f *fixture) creature(t *testing.T, name string, typeID int64) *domain.Creature {
	t.Helper()

	heads := 2
	c, err := f.repo.CreateCreature(context.Background(), domain.NewCreature{
		Name:         name,
		Description:  name + " description",
		TypeID:       typeID,
		HealthScore:  70,
		DefenseScore: 40,
		AttackScore:  50,
		Heads:        &heads,
		CreatedBy:    f.owner,
	}, func(id int64) string { return fmt.Sprintf("https://img.test/%d", id) })
	require.NoError(t, err)

	f.clock.Advance(time.Second)

	return c
}

func TestSQLiteRepository_CreateCreature(t *testing.T) {
	t.Parallel()

	f := setupTestRepo(t)
	ctx := context.Background()

	dragon, err := f.repo.CreateType(ctx, "Dragon", f.owner)
	require.NoError(t, err)

	c := f.creature(t, "Basilic", dragon.ID)

	assert.Equal(t, "Basilic", c.Name)
	assert.Equal(t, "Dragon", c.TypeName)
	assert.Equal(t, fmt.Sprintf("https://img.test/%d", c.ID), c.Image)
	assert.Equal(t, 2, c.HeadsOr(0))
	assert.Equal(t, "2024-05-01 12:00:00", c.CreatedAt)
	assert.False(t, c.IsHybrid)

	tests := []struct {
		name    string
		input   domain.NewCreature
		wantErr error
	}{
		{
			name:    "duplicate name",
			input:   domain.NewCreature{Name: "Basilic", TypeID: dragon.ID, CreatedBy: f.owner},
			wantErr: domain.ErrCreatureNameTaken,
		},
		{
			name:    "unknown type",
			input:   domain.NewCreature{Name: "Hydre", TypeID: 999, CreatedBy: f.owner},
			wantErr: domain.ErrUnknownType,
		},
		{
			name:    "unknown creator",
			input:   domain.NewCreature{Name: "Hydre", TypeID: dragon.ID, CreatedBy: 999},
			wantErr: domain.ErrUnknownCreator,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.repo.CreateCreature(ctx, tt.input, nil)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}

	list, err := f.repo.ListCreatures(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSQLiteRepository_ListOrder(t *testing.T) {
	t.Parallel()

	f := setupTestRepo(t)
	ctx := context.Background()

	dragon, err := f.repo.CreateType(ctx, "Dragon", f.owner)
	require.NoError(t, err)
	griffin, err := f.repo.CreateType(ctx, "Griffon", f.owner)
	require.NoError(t, err)

	first := f.creature(t, "First", dragon.ID)
	second := f.creature(t, "Second", griffin.ID)
	third := f.creature(t, "Third", dragon.ID)

	list, err := f.repo.ListCreatures(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []int64{third.ID, second.ID, first.ID}, []int64{list[0].ID, list[1].ID, list[2].ID})
	assert.Equal(t, "Dragon", list[0].TypeName)

	byType, err := f.repo.ListCreaturesByType(ctx, dragon.ID)
	require.NoError(t, err)
	require.Len(t, byType, 2)
	assert.Equal(t, third.ID, byType[0].ID)
	assert.Equal(t, first.ID, byType[1].ID)
}

func TestSQLiteRepository_UpdateCreature(t *testing.T) {
	t.Parallel()

	f := setupTestRepo(t)
	ctx := context.Background()

	dragon, err := f.repo.CreateType(ctx, "Dragon", f.owner)
	require.NoError(t, err)

	a := f.creature(t, "Alpha", dragon.ID)
	f.creature(t, "Beta", dragon.ID)

	updated, err := f.repo.UpdateCreature(ctx, a.ID, domain.CreatureUpdate{
		Name:         "Alpha Prime",
		Description:  "renamed",
		TypeID:       dragon.ID,
		HealthScore:  99,
		DefenseScore: 1,
		AttackScore:  2,
	})
	require.NoError(t, err)
	assert.Equal(t, "Alpha Prime", updated.Name)
	assert.Equal(t, 99, updated.HealthScore)
	assert.Nil(t, updated.Heads)
	assert.Equal(t, a.Image, updated.Image)

	_, err = f.repo.UpdateCreature(ctx, a.ID, domain.CreatureUpdate{Name: "Beta", TypeID: dragon.ID})
	require.ErrorIs(t, err, domain.ErrCreatureNameTaken)

	_, err = f.repo.UpdateCreature(ctx, 404, domain.CreatureUpdate{Name: "Gamma", TypeID: dragon.ID})
	require.ErrorIs(t, err, domain.ErrCreatureNotFound)

	withImage, err := f.repo.UpdateImage(ctx, a.ID, "https://img.test/new")
	require.NoError(t, err)
	assert.Equal(t, "https://img.test/new", withImage.Image)
}

func TestSQLiteRepository_DeleteCreature(t *testing.T) {
	t.Parallel()

	f := setupTestRepo(t)
	ctx := context.Background()

	dragon, err := f.repo.CreateType(ctx, "Dragon", f.owner)
	require.NoError(t, err)

	a := f.creature(t, "Alpha", dragon.ID)
	b := f.creature(t, "Beta", dragon.ID)
	c := f.creature(t, "Gamma", dragon.ID)

	_, err = combat.NewSQLiteCombatRepository(f.db).CreateCombat(ctx, "draw", a.ID, b.ID)
	require.NoError(t, err)

	require.ErrorIs(t, f.repo.DeleteCreature(ctx, a.ID), domain.ErrCreatureInUse)
	require.NoError(t, f.repo.DeleteCreature(ctx, c.ID))
	require.ErrorIs(t, f.repo.DeleteCreature(ctx, c.ID), domain.ErrCreatureNotFound)

	_, err = f.repo.GetCreature(ctx, c.ID)
	require.ErrorIs(t, err, domain.ErrCreatureNotFound)
}

func TestSQLiteRepository_Types(t *testing.T) {
	t.Parallel()

	f := setupTestRepo(t)
	ctx := context.Background()

	_, err := f.repo.CreateType(ctx, "Griffon", f.owner)
	require.NoError(t, err)
	_, err = f.repo.CreateType(ctx, "Dragon", f.owner)
	require.NoError(t, err)

	_, err = f.repo.CreateType(ctx, "Dragon", f.owner)
	require.ErrorIs(t, err, domain.ErrTypeNameTaken)

	_, err = f.repo.CreateType(ctx, "Wyvern", 999)
	require.ErrorIs(t, err, domain.ErrUnknownCreator)

	types, err := f.repo.ListTypes(ctx)
	require.NoError(t, err)
	require.Len(t, types, 2)
	assert.Equal(t, "Dragon", types[0].Name)
	assert.Equal(t, "Griffon", types[1].Name)

	chimera, err := f.repo.CreateCreature(ctx, domain.NewCreature{ //nolint:exhaustruct
		Name: "Chimera", TypeName: domain.HybridTypeName, CreatedBy: f.owner,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.HybridTypeName, chimera.TypeName)

	hydra, err := f.repo.CreateCreature(ctx, domain.NewCreature{ //nolint:exhaustruct
		Name: "Hydra", TypeName: domain.HybridTypeName, CreatedBy: f.owner,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, chimera.TypeID, hydra.TypeID)

	got, ok, err := f.repo.GetTypeByName(ctx, "Hybrid")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, chimera.TypeID, got.ID)
	assert.Equal(t, f.owner, got.CreatedBy)

	_, err = f.repo.CreateCreature(ctx, domain.NewCreature{ //nolint:exhaustruct
		Name: "Hydra", TypeName: "Kraken", CreatedBy: f.owner,
	}, nil)
	require.ErrorIs(t, err, domain.ErrCreatureNameTaken)

	_, ok, err = f.repo.GetTypeByName(ctx, "Kraken")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = f.repo.GetType(ctx, 999)
	require.ErrorIs(t, err, domain.ErrTypeNotFound)
}
