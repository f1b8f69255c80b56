package services

import (
	"context"
	"testing"
	"time"

	"github.com/biileprince/ReferX/internal/models"
	"github.com/biileprince/ReferX/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type dashboardFixture struct {
	svc   DashboardService
	users *fakeUserRepo
	refs  *fakeReferralRepo
}

func newDashboardFixture() *dashboardFixture {
	users := newFakeUserRepo()
	refs := newFakeReferralRepo()

	return &dashboardFixture{
		svc:   NewDashboardService(users, refs, testLogger()),
		users: users,
		refs:  refs,
	}
}

func (f *dashboardFixture) addReferral(t *testing.T, user *models.User, email string, status models.ReferralStatus) {
	t.Helper()

	referral := &models.Referral{
		Referrer:      user.ID,
		RefereeEmail:  email,
		Status:        status,
		PointsAwarded: utils.ReferralSignupBonus,
	}
	require.NoError(t, f.refs.Create(context.Background(), referral))
}

func TestDashboardStats(t *testing.T) {
	f := newDashboardFixture()
	ctx := context.Background()

	user := &models.User{
		Name:         "Ama",
		Email:        "ama@example.com",
		Password:     "hash",
		ReferralCode: "AAAA1111",
		Points:       60,
	}
	require.NoError(t, f.users.Create(ctx, user))

	f.addReferral(t, user, "a@example.com", models.ReferralStatusCompleted)
	f.addReferral(t, user, "b@example.com", models.ReferralStatusCompleted)
	f.addReferral(t, user, "c@example.com", models.ReferralStatusPending)
	f.addReferral(t, user, "d@example.com", models.ReferralStatusRejected)

	stats, err := f.svc.Stats(ctx, user.ID)
	require.NoError(t, err)

	assert.Equal(t, 60, stats.Points)
	assert.Equal(t, "AAAA1111", stats.ReferralCode)
	assert.Equal(t, int64(4), stats.TotalReferrals)
	assert.Equal(t, int64(2), stats.CompletedReferrals)
	assert.Equal(t, int64(1), stats.PendingReferrals)
	assert.InDelta(t, 50.0, stats.ConversionRate, 0.001)
}

func TestDashboardStatsNoReferrals(t *testing.T) {
	f := newDashboardFixture()
	ctx := context.Background()

	user := &models.User{
		Name:         "Ama",
		Email:        "ama@example.com",
		Password:     "hash",
		ReferralCode: "AAAA1111",
	}
	require.NoError(t, f.users.Create(ctx, user))

	stats, err := f.svc.Stats(ctx, user.ID)
	require.NoError(t, err)

	assert.Equal(t, int64(0), stats.TotalReferrals)
	assert.Equal(t, 0.0, stats.ConversionRate)
}

func TestDashboardRecentReferralsLimit(t *testing.T) {
	f := newDashboardFixture()
	ctx := context.Background()

	user := &models.User{
		Name:         "Ama",
		Email:        "ama@example.com",
		Password:     "hash",
		ReferralCode: "AAAA1111",
	}
	require.NoError(t, f.users.Create(ctx, user))

	emails := []string{"a@x.com", "b@x.com", "c@x.com", "d@x.com", "e@x.com", "f@x.com", "g@x.com"}
	for _, email := range emails {
		f.addReferral(t, user, email, models.ReferralStatusPending)
		time.Sleep(2 * time.Millisecond)
	}

	recent, err := f.svc.RecentReferrals(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, recent, utils.RecentReferralsLimit)

	// Newest first.
	assert.Equal(t, "g@x.com", recent[0].RefereeEmail)
}
