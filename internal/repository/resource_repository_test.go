package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citopen/hours-api/internal/models"
)

func TestResourceRepositoryList(t *testing.T) {
	db, mock, cleanup := newPeriodRepoMock(t)
	defer cleanup()
	repo := NewResourceRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "name", "timezone", "created_at", "updated_at"}).
		AddRow("resource-1", "Main library", "UTC", now, now).
		AddRow("resource-2", "Branch library", "UTC", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM resources WHERE name ILIKE $1")).
		WithArgs("%library%").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM resources")).
		WithArgs("%library%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	resources, total, err := repo.List(context.Background(), models.ResourceFilter{Name: "library", Page: 1, PageSize: 50})
	require.NoError(t, err)
	assert.Len(t, resources, 2)
	assert.Equal(t, 2, total)
	assert.Equal(t, "Main library", resources[0].Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResourceRepositoryCreateAssignsIdentity(t *testing.T) {
	db, mock, cleanup := newPeriodRepoMock(t)
	defer cleanup()
	repo := NewResourceRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO resources")).
		WithArgs(sqlmock.AnyArg(), "Main library", "UTC", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	resource := &models.Resource{Name: "Main library", Timezone: "UTC"}
	require.NoError(t, repo.Create(context.Background(), resource))
	assert.NotEmpty(t, resource.ID)
	assert.False(t, resource.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResourceRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newPeriodRepoMock(t)
	defer cleanup()
	repo := NewResourceRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM resources WHERE id = $1")).
		WithArgs("resource-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "resource-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
