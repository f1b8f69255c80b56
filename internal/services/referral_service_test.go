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

type referralFixture struct {
	svc   ReferralService
	users *fakeUserRepo
	refs  *fakeReferralRepo
	cache *memCache
}

func newReferralFixture() *referralFixture {
	users := newFakeUserRepo()
	refs := newFakeReferralRepo()
	mc := newMemCache()

	return &referralFixture{
		svc:   NewReferralService(refs, users, mc, testLogger()),
		users: users,
		refs:  refs,
		cache: mc,
	}
}

func (f *referralFixture) addUser(t *testing.T, name, email, code, ip string, points int) *models.User {
	t.Helper()

	user := &models.User{
		Name:         name,
		Email:        email,
		Password:     "hash",
		ReferralCode: code,
		IsVerified:   true,
		Points:       points,
	}
	if ip != "" {
		user.IPAddresses = []models.IPRecord{{IP: ip, Timestamp: time.Now()}}
	}
	require.NoError(t, f.users.Create(context.Background(), user))
	return user
}

func submitRequest(email, name string) *SubmitReferralRequest {
	return &SubmitReferralRequest{RefereeEmail: email, RefereeName: name}
}

func TestSubmitReferral(t *testing.T) {
	f := newReferralFixture()
	ctx := context.Background()

	referrer := f.addUser(t, "Ama", "ama@example.com", "AAAA1111", "1.1.1.1", 0)

	referral, err := f.svc.SubmitReferral(ctx, referrer, submitRequest("Kofi@Example.com", "Kofi"), "2.2.2.2")
	require.NoError(t, err)

	assert.Equal(t, models.ReferralStatusPending, referral.Status)
	assert.Equal(t, "kofi@example.com", referral.RefereeEmail)
	assert.Equal(t, utils.ReferralSignupBonus, referral.PointsAwarded)

	// Submission never credits; that happens at verification.
	stored, err := f.users.GetByID(ctx, referrer.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.Points)
}

func TestSubmitReferralSelf(t *testing.T) {
	f := newReferralFixture()

	referrer := f.addUser(t, "Ama", "ama@example.com", "AAAA1111", "1.1.1.1", 0)

	_, err := f.svc.SubmitReferral(context.Background(), referrer, submitRequest("AMA@example.com", "Ama"), "1.1.1.1")
	assert.ErrorIs(t, err, ErrSelfReferral)
}

func TestSubmitReferralEmailAlreadyRegistered(t *testing.T) {
	f := newReferralFixture()

	referrer := f.addUser(t, "Ama", "ama@example.com", "AAAA1111", "1.1.1.1", 0)
	f.addUser(t, "Kofi", "kofi@example.com", "BBBB2222", "2.2.2.2", 0)

	_, err := f.svc.SubmitReferral(context.Background(), referrer, submitRequest("kofi@example.com", "Kofi"), "1.1.1.1")
	assert.ErrorIs(t, err, ErrEmailAlreadyRegistered)
}

func TestSubmitReferralDuplicate(t *testing.T) {
	f := newReferralFixture()
	ctx := context.Background()

	referrer := f.addUser(t, "Ama", "ama@example.com", "AAAA1111", "1.1.1.1", 0)

	_, err := f.svc.SubmitReferral(ctx, referrer, submitRequest("kofi@example.com", "Kofi"), "2.2.2.2")
	require.NoError(t, err)

	_, err = f.svc.SubmitReferral(ctx, referrer, submitRequest("kofi@example.com", "Kofi"), "3.3.3.3")
	assert.ErrorIs(t, err, ErrDuplicateReferral)
}

func TestSubmitReferralIPThrottle(t *testing.T) {
	f := newReferralFixture()
	ctx := context.Background()

	referrer := f.addUser(t, "Ama", "ama@example.com", "AAAA1111", "1.1.1.1", 0)

	_, err := f.svc.SubmitReferral(ctx, referrer, submitRequest("kofi@example.com", "Kofi"), "4.4.4.4")
	require.NoError(t, err)

	// Second referral from the same address within the window.
	_, err = f.svc.SubmitReferral(ctx, referrer, submitRequest("yaw@example.com", "Yaw"), "4.4.4.4")
	assert.ErrorIs(t, err, ErrReferralIPThrottled)
}

func TestSubmitReferralSameDevice(t *testing.T) {
	f := newReferralFixture()

	referrer := f.addUser(t, "Ama", "ama@example.com", "AAAA1111", "1.1.1.1", 0)

	_, err := f.svc.SubmitReferral(context.Background(), referrer, submitRequest("kofi@example.com", "Kofi"), "1.1.1.1")
	assert.ErrorIs(t, err, ErrSameDeviceReferral)
}

func TestSubmitReferralSharedDevice(t *testing.T) {
	f := newReferralFixture()

	referrer := f.addUser(t, "Ama", "ama@example.com", "AAAA1111", "1.1.1.1", 0)
	f.addUser(t, "B", "b@example.com", "BBBB2222", "7.7.7.7", 0)
	f.addUser(t, "C", "c@example.com", "CCCC3333", "7.7.7.7", 0)
	f.addUser(t, "D", "d@example.com", "DDDD4444", "7.7.7.7", 0)

	_, err := f.svc.SubmitReferral(context.Background(), referrer, submitRequest("kofi@example.com", "Kofi"), "7.7.7.7")
	assert.ErrorIs(t, err, ErrDeviceShared)
}

func TestListReferralsNewestFirst(t *testing.T) {
	f := newReferralFixture()
	ctx := context.Background()

	referrer := f.addUser(t, "Ama", "ama@example.com", "AAAA1111", "1.1.1.1", 0)

	first, err := f.svc.SubmitReferral(ctx, referrer, submitRequest("kofi@example.com", "Kofi"), "2.2.2.2")
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	second, err := f.svc.SubmitReferral(ctx, referrer, submitRequest("yaw@example.com", "Yaw"), "3.3.3.3")
	require.NoError(t, err)

	list, err := f.svc.ListReferrals(ctx, referrer.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}

func TestListReferralsEmpty(t *testing.T) {
	f := newReferralFixture()

	referrer := f.addUser(t, "Ama", "ama@example.com", "AAAA1111", "1.1.1.1", 0)

	list, err := f.svc.ListReferrals(context.Background(), referrer.ID)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestLeaderboard(t *testing.T) {
	f := newReferralFixture()
	ctx := context.Background()

	f.addUser(t, "A", "a@example.com", "AAAA1111", "", 90)
	f.addUser(t, "B", "b@example.com", "BBBB2222", "", 150)
	f.addUser(t, "C", "c@example.com", "CCCC3333", "", 30)
	f.addUser(t, "D", "d@example.com", "DDDD4444", "", 0)
	f.addUser(t, "E", "e@example.com", "EEEE5555", "", 60)
	f.addUser(t, "F", "f@example.com", "FFFF6666", "", 120)
	f.addUser(t, "G", "g@example.com", "GGGG7777", "", 45)

	entries, err := f.svc.Leaderboard(ctx)
	require.NoError(t, err)
	require.Len(t, entries, utils.LeaderboardSize)

	assert.Equal(t, "B", entries[0].Name)
	assert.Equal(t, 150, entries[0].Points)
	for _, e := range entries {
		assert.NotEqual(t, "D", e.Name, "zero-point accounts are excluded")
	}
	for i := 1; i < len(entries); i++ {
		assert.GreaterOrEqual(t, entries[i-1].Points, entries[i].Points)
	}
}

func TestLeaderboardServedFromCache(t *testing.T) {
	f := newReferralFixture()
	ctx := context.Background()

	winner := f.addUser(t, "A", "a@example.com", "AAAA1111", "", 90)

	first, err := f.svc.Leaderboard(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)

	// A points change inside the cache window is not reflected yet.
	require.NoError(t, f.users.IncrementPoints(ctx, winner.ID, 500))

	second, err := f.svc.Leaderboard(ctx)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, 90, second[0].Points)
}
