package center

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/SultokTheF/uiren-mobile/internal/api"
)

type MockDoer struct{ mock.Mock }

func (m *MockDoer) Get(ctx context.Context, path string, query url.Values, out interface{}) error {
	args := m.Called(ctx, path, query, out)
	return args.Error(0)
}

func (m *MockDoer) Post(ctx context.Context, path string, body interface{}, out interface{}) error {
	args := m.Called(ctx, path, body, out)
	return args.Error(0)
}

func TestCenters(t *testing.T) {
	ctx := context.Background()
	doer := new(MockDoer)

	doer.On("Get", ctx, centersPath, url.Values(nil), mock.Anything).
		Run(func(args mock.Arguments) {
			out := args.Get(3).(*[]Center)
			*out = []Center{{ID: 1, Name: "Aqua Center"}}
		}).
		Return(nil)

	svc := NewService(doer, nil)
	centers, err := svc.Centers(ctx)
	require.NoError(t, err)
	require.Len(t, centers, 1)
	assert.Equal(t, "Aqua Center", centers[0].Name)
}

func TestCentersHTTPErrorDoesNotFallBack(t *testing.T) {
	ctx := context.Background()
	doer := new(MockDoer)

	doer.On("Get", ctx, centersPath, url.Values(nil), mock.Anything).
		Return(&api.HTTPError{Status: 500})

	svc := NewService(doer, nil)
	_, err := svc.Centers(ctx)
	require.Error(t, err)
}

func TestSectionsFilterByCenter(t *testing.T) {
	ctx := context.Background()
	doer := new(MockDoer)

	expectedQuery := url.Values{}
	expectedQuery.Set("page", "all")
	expectedQuery.Set("center", "4")

	doer.On("Get", ctx, sectionsPath, expectedQuery, mock.Anything).
		Run(func(args mock.Arguments) {
			out := args.Get(3).(*[]Section)
			*out = []Section{{ID: 2, Name: "Swimming"}}
		}).
		Return(nil)

	svc := NewService(doer, nil)
	sections, err := svc.Sections(ctx, 4)
	require.NoError(t, err)
	require.Len(t, sections, 1)
	doer.AssertExpectations(t)
}

func TestDistanceKm(t *testing.T) {
	// Almaty to Astana, roughly 970 km
	d := DistanceKm(43.238949, 76.889709, 51.169392, 71.449074)
	assert.InDelta(t, 970, d, 30)

	assert.InDelta(t, 0, DistanceKm(43.0, 76.0, 43.0, 76.0), 0.001)
}

func TestSortByDistance(t *testing.T) {
	almatyLat, almatyLon := 43.238949, 76.889709
	nearLat, nearLon := 43.25, 76.9
	astanaLat, astanaLon := 51.169392, 71.449074

	centers := []Center{
		{ID: 1, Name: "Astana", Latitude: &astanaLat, Longitude: &astanaLon},
		{ID: 2, Name: "No coords"},
		{ID: 3, Name: "Almaty", Latitude: &nearLat, Longitude: &nearLon},
	}

	SortByDistance(centers, almatyLat, almatyLon)

	assert.Equal(t, 3, centers[0].ID)
	assert.Equal(t, 1, centers[1].ID)
	// centers without coordinates go last
	assert.Equal(t, 2, centers[2].ID)
}
