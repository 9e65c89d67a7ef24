package user_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"tutoring-service/internal/metrics"
	"tutoring-service/internal/user"
	"tutoring-service/testing/testdb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_Shared(t *testing.T) {
	pgContainer := testdb.SetupSharedPostgres(t)
	defer pgContainer.Cleanup(t)

	pgContainer.RunMigrations(t, (*user.User)(nil))

	repo := user.NewRepository(pgContainer.DB, metrics.NewMock())
	ctx := context.Background()

	t.Run("FirstUserBecomesAdmin", func(t *testing.T) {
		testdb.CleanupTables(t, pgContainer.DB, "users")

		a, err := repo.Create(ctx, &user.User{Name: "A", Email: "a@x.com", Password: "hash", Role: user.RoleStudent})
		require.NoError(t, err)
		assert.Equal(t, user.RoleAdmin, a.Role)

		b, err := repo.Create(ctx, &user.User{Name: "B", Email: "b@x.com", Password: "hash", Role: user.RoleStudent})
		require.NoError(t, err)
		assert.Equal(t, user.RoleStudent, b.Role)
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		testdb.CleanupTables(t, pgContainer.DB, "users")

		_, err := repo.Create(ctx, &user.User{Name: "A", Email: "dup@x.com", Password: "hash", Role: user.RoleStudent})
		require.NoError(t, err)

		_, err = repo.Create(ctx, &user.User{Name: "A2", Email: "dup@x.com", Password: "hash", Role: user.RoleTutor})
		assert.ErrorIs(t, err, user.ErrEmailExists)
	})

	t.Run("ConcurrentRegistrationsProduceOneAdmin", func(t *testing.T) {
		testdb.CleanupTables(t, pgContainer.DB, "users")

		const n = 8
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := repo.Create(ctx, &user.User{
					Name:     fmt.Sprintf("user-%d", i),
					Email:    fmt.Sprintf("user-%d@x.com", i),
					Password: "hash",
					Role:     user.RoleStudent,
				})
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()

		admins, total, err := repo.Search(ctx, user.SearchFilter{Role: user.RoleAdmin, Page: 1, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		assert.Len(t, admins, 1)
	})

	t.Run("UpdateProfileAndRole", func(t *testing.T) {
		testdb.CleanupTables(t, pgContainer.DB, "users")

		_, err := repo.Create(ctx, &user.User{Name: "Admin", Email: "admin@x.com", Password: "hash"})
		require.NoError(t, err)
		created, err := repo.Create(ctx, &user.User{Name: "Tom", Email: "tom@x.com", Password: "hash", Role: user.RoleStudent})
		require.NoError(t, err)

		phone := "555-0100"
		updated, err := repo.UpdateProfile(ctx, "tom@x.com", user.ProfileUpdate{Phone: &phone})
		require.NoError(t, err)
		assert.Equal(t, "555-0100", updated.Phone)
		assert.Equal(t, "Tom", updated.Name)

		promoted, err := repo.UpdateRole(ctx, created.ID, user.RoleTutor)
		require.NoError(t, err)
		assert.Equal(t, user.RoleTutor, promoted.Role)

		tutors, err := repo.ListByRole(ctx, user.RoleTutor)
		require.NoError(t, err)
		require.Len(t, tutors, 1)
		assert.Equal(t, "tom@x.com", tutors[0].Email)
	})

	t.Run("NotFound", func(t *testing.T) {
		testdb.CleanupTables(t, pgContainer.DB, "users")

		_, err := repo.GetByEmail(ctx, "ghost@x.com")
		assert.ErrorIs(t, err, user.ErrUserNotFound)

		_, err = repo.GetByID(ctx, "not-a-uuid")
		assert.ErrorIs(t, err, user.ErrUserNotFound)

		_, err = repo.UpdateRole(ctx, "1b4e28ba-2fa1-11d2-883f-0016d3cca427", user.RoleTutor)
		assert.ErrorIs(t, err, user.ErrUserNotFound)
	})

	t.Run("Search", func(t *testing.T) {
		testdb.CleanupTables(t, pgContainer.DB, "users")

		for _, name := range []string{"Alice", "Bob", "Alicia"} {
			_, err := repo.Create(ctx, &user.User{Name: name, Email: name + "@x.com", Password: "hash", Role: user.RoleStudent})
			require.NoError(t, err)
		}

		found, total, err := repo.Search(ctx, user.SearchFilter{Search: "ali", Page: 1, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		assert.Len(t, found, 2)

		for _, wildcard := range []string{"%", "_", "A_i"} {
			_, total, err = repo.Search(ctx, user.SearchFilter{Search: wildcard, Page: 1, Limit: 10})
			require.NoError(t, err)
			assert.Zero(t, total, "search %q must match literally", wildcard)
		}
	})
}
