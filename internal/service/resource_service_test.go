package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citopen/hours-api/internal/dto"
	"github.com/citopen/hours-api/internal/models"
	appErrors "github.com/citopen/hours-api/pkg/errors"
)

type resourceStoreStub struct {
	resources map[string]*models.Resource
	listErr   error
}

func newResourceStoreStub() *resourceStoreStub {
	return &resourceStoreStub{resources: make(map[string]*models.Resource)}
}

func (s *resourceStoreStub) List(_ context.Context, _ models.ResourceFilter) ([]models.Resource, int, error) {
	if s.listErr != nil {
		return nil, 0, s.listErr
	}
	var out []models.Resource
	for _, r := range s.resources {
		out = append(out, *r)
	}
	return out, len(out), nil
}

func (s *resourceStoreStub) GetByID(_ context.Context, id string) (*models.Resource, error) {
	resource, ok := s.resources[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *resource
	return &copied, nil
}

func (s *resourceStoreStub) Create(_ context.Context, resource *models.Resource) error {
	if resource.ID == "" {
		resource.ID = "res-generated"
	}
	s.resources[resource.ID] = resource
	return nil
}

func (s *resourceStoreStub) Update(_ context.Context, resource *models.Resource) error {
	s.resources[resource.ID] = resource
	return nil
}

func (s *resourceStoreStub) Delete(_ context.Context, id string) error {
	delete(s.resources, id)
	return nil
}

func TestCreateResourceDefaultsTimezone(t *testing.T) {
	store := newResourceStoreStub()
	svc := NewResourceService(store, nil, nil)

	created, err := svc.Create(context.Background(), dto.CreateResourceRequest{Name: "Main library"})
	require.NoError(t, err)
	assert.Equal(t, "UTC", created.Timezone)
	assert.NotEmpty(t, created.ID)
}

func TestCreateResourceRequiresName(t *testing.T) {
	svc := NewResourceService(newResourceStoreStub(), nil, nil)

	_, err := svc.Create(context.Background(), dto.CreateResourceRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestGetResourceNotFound(t *testing.T) {
	svc := NewResourceService(newResourceStoreStub(), nil, nil)

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestUpdateResourceKeepsTimezoneWhenOmitted(t *testing.T) {
	store := newResourceStoreStub()
	store.resources["res-1"] = &models.Resource{ID: "res-1", Name: "Old name", Timezone: "Europe/Helsinki"}
	svc := NewResourceService(store, nil, nil)

	updated, err := svc.Update(context.Background(), "res-1", dto.UpdateResourceRequest{Name: "New name"})
	require.NoError(t, err)
	assert.Equal(t, "New name", updated.Name)
	assert.Equal(t, "Europe/Helsinki", updated.Timezone)
}

func TestDeleteResource(t *testing.T) {
	store := newResourceStoreStub()
	store.resources["res-1"] = &models.Resource{ID: "res-1", Name: "Main library"}
	svc := NewResourceService(store, nil, nil)

	require.NoError(t, svc.Delete(context.Background(), "res-1"))
	assert.Empty(t, store.resources)

	err := svc.Delete(context.Background(), "res-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestListResourcesPagination(t *testing.T) {
	store := newResourceStoreStub()
	store.resources["res-1"] = &models.Resource{ID: "res-1", Name: "Main library"}
	svc := NewResourceService(store, nil, nil)

	resources, page, err := svc.List(context.Background(), models.ResourceFilter{})
	require.NoError(t, err)
	assert.Len(t, resources, 1)
	require.NotNil(t, page)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 50, page.PageSize)
	assert.Equal(t, 1, page.TotalCount)
}
