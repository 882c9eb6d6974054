package service

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/streamnest/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func TestHousekeepingCleanup(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	stale := f.issue(t, testPhone)
	f.clock.Advance(15 * time.Minute)
	fresh := f.issue(t, "+15550000000")

	hk := NewHousekeepingService(f.raw, slogx.Discard(), time.Hour)
	hk.Now = f.clock.Now

	require.EqualValues(t, 1, hk.Cleanup(ctx))
	require.EqualValues(t, 0, hk.Cleanup(ctx))

	_, err := f.otp.VerifyAndConsume(ctx, testPhone, stale)
	require.ErrorIs(t, err, ErrInvalidOrExpiredOTP)
	_, err = f.otp.VerifyAndConsume(ctx, "+15550000000", fresh)
	require.NoError(t, err)
}

func TestHousekeepingStartStop(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	hk := NewHousekeepingService(f.raw, slogx.Discard(), 0)
	require.Equal(t, time.Hour, hk.Interval)

	hk.Start()
	hk.Stop()
}
