package service_test

import (
	"context"
	"testing"
	"time"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/himarplupi/bot-himarpl/internal/dal"
	"github.com/himarplupi/bot-himarpl/internal/dal/testutil"
	"github.com/himarplupi/bot-himarpl/internal/metrics"
	"github.com/himarplupi/bot-himarpl/internal/service"
	"github.com/himarplupi/bot-himarpl/internal/service/mocks"
)

func TestResumer_Resume(t *testing.T) {
	first := testutil.NewCampaign("first").Build()
	second := testutil.NewCampaign("second").WithAuthor("Rina", "rina").Build()

	tests := []struct {
		name       string
		store      func(*gomock.Controller) service.CampaignsStore
		dispatcher func(*gomock.Controller) service.Dispatcher
		wantErr    assert.ErrorAssertionFunc
	}{
		{
			name: "dispatches_every_campaign",
			store: func(ctrl *gomock.Controller) service.CampaignsStore {
				res := mocks.NewMockCampaignsStore(ctrl)
				res.EXPECT().CountSubscribers(gomock.Any()).Return(7, nil)
				res.EXPECT().GetCampaigns(gomock.Any()).Return([]dal.Campaign{first, second}, nil)
				return res
			},
			dispatcher: func(ctrl *gomock.Controller) service.Dispatcher {
				res := mocks.NewMockDispatcher(ctrl)
				res.EXPECT().Dispatch(gomock.Any(), first).Return(true)
				res.EXPECT().Dispatch(gomock.Any(), second).Return(false)
				return res
			},
			wantErr: assert.NoError,
		},
		{
			name: "nothing_to_resume",
			store: func(ctrl *gomock.Controller) service.CampaignsStore {
				res := mocks.NewMockCampaignsStore(ctrl)
				res.EXPECT().CountSubscribers(gomock.Any()).Return(7, nil)
				res.EXPECT().GetCampaigns(gomock.Any()).Return(nil, nil)
				return res
			},
			dispatcher: func(ctrl *gomock.Controller) service.Dispatcher {
				return mocks.NewMockDispatcher(ctrl)
			},
			wantErr: assert.NoError,
		},
		{
			name: "count_error_still_resumes",
			store: func(ctrl *gomock.Controller) service.CampaignsStore {
				res := mocks.NewMockCampaignsStore(ctrl)
				res.EXPECT().CountSubscribers(gomock.Any()).Return(0, assert.AnError)
				res.EXPECT().GetCampaigns(gomock.Any()).Return([]dal.Campaign{first}, nil)
				return res
			},
			dispatcher: func(ctrl *gomock.Controller) service.Dispatcher {
				res := mocks.NewMockDispatcher(ctrl)
				res.EXPECT().Dispatch(gomock.Any(), first).Return(true)
				return res
			},
			wantErr: assert.NoError,
		},
		{
			name: "store_error",
			store: func(ctrl *gomock.Controller) service.CampaignsStore {
				res := mocks.NewMockCampaignsStore(ctrl)
				res.EXPECT().CountSubscribers(gomock.Any()).Return(7, nil)
				res.EXPECT().GetCampaigns(gomock.Any()).Return(nil, assert.AnError)
				return res
			},
			dispatcher: func(ctrl *gomock.Controller) service.Dispatcher {
				return mocks.NewMockDispatcher(ctrl)
			},
			wantErr: func(t assert.TestingT, err error, _ ...interface{}) bool {
				return assert.ErrorIs(t, err, assert.AnError) && assert.ErrorContains(t, err, "get campaigns")
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			r := service.NewResumer(tt.store(ctrl), tt.dispatcher(ctrl), "", discard)

			tt.wantErr(t, r.Resume(context.Background()))
		})
	}
}

func TestResumer_Start(t *testing.T) {
	t.Run("empty_schedule_runs_once", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mocks.NewMockCampaignsStore(ctrl)
		store.EXPECT().CountSubscribers(gomock.Any()).Return(0, nil).AnyTimes()
		store.EXPECT().GetCampaigns(gomock.Any()).Return(nil, nil)

		r := service.NewResumer(store, mocks.NewMockDispatcher(ctrl), "", discard)
		require.NoError(t, r.Start(context.Background()))
	})

	t.Run("stops_with_context", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mocks.NewMockCampaignsStore(ctrl)
		store.EXPECT().CountSubscribers(gomock.Any()).Return(0, nil).AnyTimes()
		store.EXPECT().GetCampaigns(gomock.Any()).Return(nil, assert.AnError).MinTimes(1)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		r := service.NewResumer(store, mocks.NewMockDispatcher(ctrl), "@every 1h", discard)
		require.NoError(t, r.Start(ctx))
	})

	t.Run("invalid_schedule", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mocks.NewMockCampaignsStore(ctrl)
		store.EXPECT().CountSubscribers(gomock.Any()).Return(0, nil).AnyTimes()
		store.EXPECT().GetCampaigns(gomock.Any()).Return(nil, nil)

		r := service.NewResumer(store, mocks.NewMockDispatcher(ctrl), "not a schedule", discard)
		assert.ErrorContains(t, r.Start(context.Background()), "add resume job")
	})

	t.Run("recovers_panic", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mocks.NewMockCampaignsStore(ctrl)
		store.EXPECT().CountSubscribers(gomock.Any()).Return(0, nil).AnyTimes()
		store.EXPECT().GetCampaigns(gomock.Any()).DoAndReturn(func(context.Context) ([]dal.Campaign, error) {
			panic("boom")
		})

		r := service.NewResumer(store, mocks.NewMockDispatcher(ctrl), "", discard)
		require.NoError(t, r.Start(context.Background()))
	})
}

func TestResumer_Resume_RefreshesSubscribersGauge(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockCampaignsStore(ctrl)
	store.EXPECT().CountSubscribers(gomock.Any()).Return(30, nil)
	store.EXPECT().GetCampaigns(gomock.Any()).Return(nil, nil)

	r := service.NewResumer(store, mocks.NewMockDispatcher(ctrl), "", discard)
	require.NoError(t, r.Resume(context.Background()))

	assert.Equal(t, 30.0, promtestutil.ToFloat64(metrics.Subscribers))
}

func TestValidateSchedule(t *testing.T) {
	assert.NoError(t, service.ValidateSchedule(""))
	assert.NoError(t, service.ValidateSchedule("*/5 * * * *"))
	assert.NoError(t, service.ValidateSchedule("@every 10m"))
	assert.Error(t, service.ValidateSchedule("every five minutes"))
}
