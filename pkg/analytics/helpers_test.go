package analytics_test

import (
	"context"

	"github.com/KeithSSmith/switcheolytics-api/pkg/analytics"
	"github.com/stretchr/testify/mock"
)

func amount(v int64) *int64 { return &v }

func legacyFee(asset string, value int64, blockTime int64, date string) analytics.FeeRecord {
	return analytics.FeeRecord{
		FeeAssetName:    asset,
		FeeAmount:       amount(value),
		ContractVersion: analytics.ContractV2,
		BlockTime:       blockTime,
		BlockDate:       date,
	}
}

func burnFee(asset string, value int64, blockTime int64, date string) analytics.FeeRecord {
	return analytics.FeeRecord{
		ContractVersion:    analytics.ContractV3,
		TakerFeeAssetName:  asset,
		TakerFeeBurnAmount: amount(value),
		TakerFeeBurn:       true,
		BlockTime:          blockTime,
		BlockDate:          date,
	}
}

func fixedClock(now int64) analytics.Clock {
	return func() int64 { return now }
}

type mockFeeStore struct {
	mock.Mock
}

func (m *mockFeeStore) AggregateFees(ctx context.Context, q analytics.FeeQuery) ([]analytics.FeeGroup, error) {
	args := m.Called(ctx, q)
	rows, _ := args.Get(0).([]analytics.FeeGroup)
	return rows, args.Error(1)
}

func (m *mockFeeStore) DistinctFeeAssets(ctx context.Context, s analytics.Scheme) ([]string, error) {
	args := m.Called(ctx, s)
	assets, _ := args.Get(0).([]string)
	return assets, args.Error(1)
}

type mockBalanceSource struct {
	mock.Mock
}

func (m *mockBalanceSource) Balance(ctx context.Context, address string) ([]analytics.Holding, error) {
	args := m.Called(ctx, address)
	holdings, _ := args.Get(0).([]analytics.Holding)
	return holdings, args.Error(1)
}
