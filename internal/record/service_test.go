package record

import (
	"bytes"
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/SultokTheF/uiren-mobile/internal/api"
	"github.com/SultokTheF/uiren-mobile/internal/schedule"
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

func TestCreate(t *testing.T) {
	ctx := context.Background()
	doer := new(MockDoer)

	doer.On("Post", ctx, recordsPath, map[string]int{"schedule": 10, "subscription": 2}, mock.Anything).
		Run(func(args mock.Arguments) {
			out := args.Get(3).(*Record)
			out.ID = 99
		}).
		Return(nil)

	svc := NewService(doer)
	rec, err := svc.Create(ctx, 10, 2)
	require.NoError(t, err)
	assert.Equal(t, 99, rec.ID)
	doer.AssertExpectations(t)
}

func TestCreateMapsRejection(t *testing.T) {
	ctx := context.Background()
	doer := new(MockDoer)

	doer.On("Post", ctx, recordsPath, mock.Anything, mock.Anything).
		Return(&api.HTTPError{Status: 409, Body: []byte(`{"cause":"capacity_full"}`)})

	svc := NewService(doer)
	_, err := svc.Create(ctx, 10, 2)

	var rejected *RejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, "capacity_full", rejected.Cause)
	assert.Equal(t, 409, rejected.Status)
}

func TestCreateServerErrorIsNotARejection(t *testing.T) {
	ctx := context.Background()
	doer := new(MockDoer)

	doer.On("Post", ctx, recordsPath, mock.Anything, mock.Anything).
		Return(&api.HTTPError{Status: 500, Body: []byte(`{}`)})

	svc := NewService(doer)
	_, err := svc.Create(ctx, 10, 2)

	var rejected *RejectedError
	require.Error(t, err)
	require.NotErrorAs(t, err, &rejected)
}

func TestCancel(t *testing.T) {
	ctx := context.Background()
	doer := new(MockDoer)

	doer.On("Post", ctx, cancelReservationPath, map[string]int{"record_id": 42}, nil).
		Return(nil)

	svc := NewService(doer)
	require.NoError(t, svc.Cancel(ctx, 42))
	doer.AssertExpectations(t)
}

func TestCancelAlreadyCanceledIsSuccess(t *testing.T) {
	// Оба ответа сервера допустимы: успех и конфликт.
	tests := []struct {
		name string
		err  error
	}{
		{"server returns success", nil},
		{"server returns conflict", &api.HTTPError{Status: 409, Body: []byte(`{"error":"record already canceled"}`)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			doer := new(MockDoer)
			doer.On("Post", ctx, cancelReservationPath, mock.Anything, nil).Return(tt.err)

			svc := NewService(doer)
			assert.NoError(t, svc.Cancel(ctx, 42))
		})
	}
}

func TestCancelOtherErrorsPropagate(t *testing.T) {
	ctx := context.Background()
	doer := new(MockDoer)
	doer.On("Post", ctx, cancelReservationPath, mock.Anything, nil).
		Return(&api.HTTPError{Status: 500, Body: []byte(`{}`)})

	svc := NewService(doer)
	require.Error(t, svc.Cancel(ctx, 42))
}

func TestConfirmAttendance(t *testing.T) {
	ctx := context.Background()
	doer := new(MockDoer)

	doer.On("Post", ctx, confirmAttendancePath, map[string]int{"record_id": 7}, nil).
		Return(nil)

	svc := NewService(doer)
	require.NoError(t, svc.ConfirmAttendance(ctx, 7))
	doer.AssertExpectations(t)
}

func TestForUserSortsByDateThenTime(t *testing.T) {
	ctx := context.Background()
	doer := new(MockDoer)

	doer.On("Get", ctx, recordsPath, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			out := args.Get(3).(*[]Record)
			*out = []Record{
				{ID: 1, Schedule: schedule.Slot{Date: "2024-06-02", StartTime: "10:00:00"}},
				{ID: 2, Schedule: schedule.Slot{Date: "2024-06-01", StartTime: "18:00:00"}},
				{ID: 3, Schedule: schedule.Slot{Date: "2024-06-01", StartTime: "09:00:00"}},
			}
		}).
		Return(nil)

	svc := NewService(doer)
	records, err := svc.ForUser(ctx, 3)
	require.NoError(t, err)

	ids := []int{records[0].ID, records[1].ID, records[2].ID}
	assert.Equal(t, []int{3, 2, 1}, ids)
}

func TestCheckInQR(t *testing.T) {
	png, err := CheckInQR(&Record{ID: 99})
	require.NoError(t, err)

	// PNG magic bytes
	require.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
}
