package services

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/biileprince/ReferX/internal/config"
	"github.com/biileprince/ReferX/internal/models"
	"github.com/biileprince/ReferX/internal/repositories/interfaces"
	"github.com/biileprince/ReferX/pkg/logger"
	"github.com/biileprince/ReferX/pkg/oauth"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// fakeUserRepo is an in-memory stand-in for the mongo user repository.
type fakeUserRepo struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[primitive.ObjectID]*models.User)}
}

func cloneUser(u *models.User) *models.User {
	c := *u
	c.IPAddresses = append([]models.IPRecord(nil), u.IPAddresses...)
	c.Rewards = append([]models.RewardClaim(nil), u.Rewards...)
	return &c
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == user.Email {
			return interfaces.ErrDuplicateEmail
		}
		if u.ReferralCode == user.ReferralCode {
			return interfaces.ErrDuplicateReferralCode
		}
	}

	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	if user.IPAddresses == nil {
		user.IPAddresses = []models.IPRecord{}
	}
	if user.Rewards == nil {
		user.Rewards = []models.RewardClaim{}
	}

	r.users[user.ID] = cloneUser(user)
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if u, ok := r.users[id]; ok {
		return cloneUser(u), nil
	}
	return nil, interfaces.ErrNotFound
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return cloneUser(u), nil
		}
	}
	return nil, interfaces.ErrNotFound
}

func (r *fakeUserRepo) GetByReferralCode(ctx context.Context, code string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.ReferralCode == code {
			return cloneUser(u), nil
		}
	}
	return nil, interfaces.ErrNotFound
}

func (r *fakeUserRepo) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return interfaces.ErrNotFound
	}

	for key, value := range updates {
		switch key {
		case "name":
			u.Name = value.(string)
		case "password":
			u.Password = value.(string)
		case "isVerified":
			u.IsVerified = value.(bool)
		case "verificationToken":
			u.VerificationToken = value.(string)
		case "refreshToken":
			u.RefreshToken = value.(string)
		case "resetPasswordToken":
			u.ResetPasswordToken = value.(string)
		case "resetPasswordExpire":
			if value == nil {
				u.ResetPasswordExpire = nil
			} else {
				t := value.(time.Time)
				u.ResetPasswordExpire = &t
			}
		}
	}
	u.UpdatedAt = time.Now()

	return nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) ExistsByReferralCode(ctx context.Context, code string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.ReferralCode == code {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeUserRepo) AddIPAddress(ctx context.Context, id primitive.ObjectID, record models.IPRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return interfaces.ErrNotFound
	}
	u.IPAddresses = append(u.IPAddresses, record)
	return nil
}

func (r *fakeUserRepo) IncrementPoints(ctx context.Context, id primitive.ObjectID, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return interfaces.ErrNotFound
	}
	u.Points += delta
	return nil
}

func (r *fakeUserRepo) ClaimReward(ctx context.Context, id primitive.ObjectID, rewardID primitive.ObjectID, points int) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok || u.Points < points {
		return nil, interfaces.ErrNotFound
	}

	u.Points -= points
	u.Rewards = append(u.Rewards, models.RewardClaim{RewardID: rewardID, ClaimedAt: time.Now()})
	return cloneUser(u), nil
}

func (r *fakeUserRepo) CountCreatedFromIPSince(ctx context.Context, ip string, since time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var count int64
	for _, u := range r.users {
		if u.HasIP(ip) && u.CreatedAt.After(since) {
			count++
		}
	}
	return count, nil
}

func (r *fakeUserRepo) CountByIP(ctx context.Context, ip string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var count int64
	for _, u := range r.users {
		if u.HasIP(ip) {
			count++
		}
	}
	return count, nil
}

func (r *fakeUserRepo) TopByPoints(ctx context.Context, limit int) ([]*models.LeaderboardEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var entries []*models.LeaderboardEntry
	for _, u := range r.users {
		if u.Points > 0 {
			entries = append(entries, &models.LeaderboardEntry{
				Name:         u.Name,
				Points:       u.Points,
				ReferralCode: u.ReferralCode,
			})
		}
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Points > entries[j].Points })
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (r *fakeUserRepo) snapshot() map[primitive.ObjectID]*models.User {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := make(map[primitive.ObjectID]*models.User, len(r.users))
	for id, u := range r.users {
		copied[id] = cloneUser(u)
	}
	return copied
}

func (r *fakeUserRepo) restore(users map[primitive.ObjectID]*models.User) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.users = users
}

func (r *fakeUserRepo) PruneIPAddresses(ctx context.Context, olderThan time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var modified int64
	for _, u := range r.users {
		kept := u.IPAddresses[:0]
		for _, rec := range u.IPAddresses {
			if !rec.Timestamp.Before(olderThan) {
				kept = append(kept, rec)
			}
		}
		if len(kept) != len(u.IPAddresses) {
			modified++
		}
		u.IPAddresses = kept
	}
	return modified, nil
}

// fakeReferralRepo is an in-memory stand-in for the mongo referral
// repository, including the pending partial-unique constraint.
type fakeReferralRepo struct {
	mu         sync.Mutex
	referrals  []*models.Referral
	failCreate error
}

func newFakeReferralRepo() *fakeReferralRepo {
	return &fakeReferralRepo{}
}

func cloneReferral(r *models.Referral) *models.Referral {
	c := *r
	return &c
}

func (r *fakeReferralRepo) Create(ctx context.Context, referral *models.Referral) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failCreate != nil {
		return r.failCreate
	}

	for _, existing := range r.referrals {
		if existing.Referrer == referral.Referrer &&
			existing.RefereeEmail == referral.RefereeEmail &&
			existing.Status == models.ReferralStatusPending {
			return interfaces.ErrDuplicatePendingReferral
		}
	}

	if referral.ID.IsZero() {
		referral.ID = primitive.NewObjectID()
	}
	if referral.Status == "" {
		referral.Status = models.ReferralStatusPending
	}
	referral.CreatedAt = time.Now()
	referral.UpdatedAt = time.Now()

	r.referrals = append(r.referrals, cloneReferral(referral))
	return nil
}

func (r *fakeReferralRepo) ListByReferrer(ctx context.Context, referrer primitive.ObjectID, limit int) ([]*models.Referral, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []*models.Referral
	for _, ref := range r.referrals {
		if ref.Referrer == referrer {
			result = append(result, cloneReferral(ref))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *fakeReferralRepo) FindPendingByEmail(ctx context.Context, email string) ([]*models.Referral, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []*models.Referral
	for _, ref := range r.referrals {
		if strings.EqualFold(ref.RefereeEmail, email) && ref.Status == models.ReferralStatusPending {
			result = append(result, cloneReferral(ref))
		}
	}
	return result, nil
}

func (r *fakeReferralRepo) Complete(ctx context.Context, id primitive.ObjectID, referee primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ref := range r.referrals {
		if ref.ID == id && ref.Status == models.ReferralStatusPending {
			ref.Status = models.ReferralStatusCompleted
			ref.Referee = &referee
			ref.UpdatedAt = time.Now()
			return nil
		}
	}
	return interfaces.ErrNotFound
}

func (r *fakeReferralRepo) ExistsByReferrerAndEmail(ctx context.Context, referrer primitive.ObjectID, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ref := range r.referrals {
		if ref.Referrer == referrer && strings.EqualFold(ref.RefereeEmail, email) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeReferralRepo) ExistsByReferrerAndIPSince(ctx context.Context, referrer primitive.ObjectID, ip string, since time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ref := range r.referrals {
		if ref.Referrer == referrer && ref.RefereeIP == ip && ref.CreatedAt.After(since) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeReferralRepo) CountByReferrer(ctx context.Context, referrer primitive.ObjectID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var count int64
	for _, ref := range r.referrals {
		if ref.Referrer == referrer {
			count++
		}
	}
	return count, nil
}

func (r *fakeReferralRepo) CountByReferrerAndStatus(ctx context.Context, referrer primitive.ObjectID, status models.ReferralStatus) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var count int64
	for _, ref := range r.referrals {
		if ref.Referrer == referrer && ref.Status == status {
			count++
		}
	}
	return count, nil
}

func (r *fakeReferralRepo) snapshot() []*models.Referral {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := make([]*models.Referral, len(r.referrals))
	for i, ref := range r.referrals {
		copied[i] = cloneReferral(ref)
	}
	return copied
}

func (r *fakeReferralRepo) restore(referrals []*models.Referral) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.referrals = referrals
}

func (r *fakeReferralRepo) DeleteByEmail(ctx context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.referrals[:0]
	for _, ref := range r.referrals {
		if !strings.EqualFold(ref.RefereeEmail, email) {
			kept = append(kept, ref)
		}
	}
	r.referrals = kept
	return nil
}

// fakeRewardRepo is an in-memory stand-in for the mongo reward repository.
type fakeRewardRepo struct {
	mu      sync.Mutex
	rewards map[primitive.ObjectID]*models.Reward
}

func newFakeRewardRepo() *fakeRewardRepo {
	return &fakeRewardRepo{rewards: make(map[primitive.ObjectID]*models.Reward)}
}

func (r *fakeRewardRepo) Create(ctx context.Context, reward *models.Reward) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if reward.ID.IsZero() {
		reward.ID = primitive.NewObjectID()
	}
	reward.CreatedAt = time.Now()
	reward.UpdatedAt = time.Now()

	c := *reward
	r.rewards[reward.ID] = &c
	return nil
}

func (r *fakeRewardRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Reward, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if reward, ok := r.rewards[id]; ok {
		c := *reward
		return &c, nil
	}
	return nil, interfaces.ErrNotFound
}

func (r *fakeRewardRepo) ListActive(ctx context.Context) ([]*models.Reward, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []*models.Reward
	for _, reward := range r.rewards {
		if reward.IsActive {
			c := *reward
			result = append(result, &c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].PointsRequired < result[j].PointsRequired })
	return result, nil
}

func (r *fakeRewardRepo) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*models.Reward, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []*models.Reward
	for _, id := range ids {
		if reward, ok := r.rewards[id]; ok {
			c := *reward
			result = append(result, &c)
		}
	}
	return result, nil
}

// fakeTx mirrors a mongo transaction over the in-memory fakes: when the
// function errors, repository state is restored to the pre-call snapshot.
type fakeTx struct {
	users *fakeUserRepo
	refs  *fakeReferralRepo
}

func (t fakeTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	users := t.users.snapshot()
	refs := t.refs.snapshot()

	result, err := fn(ctx)
	if err != nil {
		t.users.restore(users)
		t.refs.restore(refs)
	}
	return result, err
}

// memCache is a map-backed CacheService with JSON round-tripping, matching
// the redis implementation's semantics.
type memCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string][]byte)}
}

func (c *memCache) Get(ctx context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, ok := c.entries[key]
	if !ok {
		return errors.New("cache miss")
	}
	return json.Unmarshal(data, dest)
}

func (c *memCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = data
	return nil
}

func (c *memCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, key := range keys {
		delete(c.entries, key)
	}
	return nil
}

// recorderEmail records sends and can be told to fail.
type recorderEmail struct {
	mu               sync.Mutex
	verifications    []string
	resets           []string
	referralSuccess  []string
	failVerification bool
}

func (e *recorderEmail) SendVerification(ctx context.Context, to, name, verifyURL string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.failVerification {
		return errors.New("smtp unavailable")
	}
	e.verifications = append(e.verifications, to)
	return nil
}

func (e *recorderEmail) SendPasswordReset(ctx context.Context, to, name, resetURL string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.resets = append(e.resets, to)
	return nil
}

func (e *recorderEmail) SendReferralSuccess(ctx context.Context, to, name, refereeName string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.referralSuccess = append(e.referralSuccess, to)
	return nil
}

// fakeOAuth returns canned provider responses.
type fakeOAuth struct {
	info *oauth.UserInfo
}

func (f *fakeOAuth) GetAuthURL(state string) string {
	return "https://accounts.google.com/o/oauth2/auth?state=" + state
}

func (f *fakeOAuth) ExchangeCode(ctx context.Context, code string) (*oauth.TokenResponse, error) {
	if code != "good-code" {
		return nil, errors.New("invalid code")
	}
	return &oauth.TokenResponse{AccessToken: "provider-access-token"}, nil
}

func (f *fakeOAuth) GetUserInfo(ctx context.Context, accessToken string) (*oauth.UserInfo, error) {
	return f.info, nil
}

func testSecurityConfig() *config.SecurityConfig {
	return &config.SecurityConfig{
		JWTSecret:         "test-access-secret",
		JWTRefreshSecret:  "test-refresh-secret",
		JWTVerifySecret:   "test-verify-secret",
		JWTResetSecret:    "test-reset-secret",
		AccessTokenTTL:    time.Hour,
		RefreshTokenTTL:   7 * 24 * time.Hour,
		VerifyTokenTTL:    time.Hour,
		ResetTokenTTL:     10 * time.Minute,
		BcryptCost:        bcrypt.MinCost,
		LoginFailureDelay: 0,
	}
}

func testAppConfig() *config.AppConfig {
	return &config.AppConfig{
		Name:      "ReferX",
		ClientURL: "http://localhost:3000",
	}
}

func testLogger() *logger.Logger {
	log, err := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Format: "text"})
	if err != nil {
		panic(err)
	}
	return log
}

// authFixture wires an auth service against the in-memory fakes.
type authFixture struct {
	svc      AuthService
	users    *fakeUserRepo
	refs     *fakeReferralRepo
	email    *recorderEmail
	cache    *memCache
	provider *fakeOAuth
}

func newAuthFixture() *authFixture {
	users := newFakeUserRepo()
	refs := newFakeReferralRepo()
	mail := &recorderEmail{}
	mc := newMemCache()
	provider := &fakeOAuth{}

	svc := NewAuthService(users, refs, fakeTx{users: users, refs: refs}, mc, mail, provider, testSecurityConfig(), testAppConfig(), testLogger())

	return &authFixture{
		svc:      svc,
		users:    users,
		refs:     refs,
		email:    mail,
		cache:    mc,
		provider: provider,
	}
}

func (f *authFixture) storedUser(ctx context.Context, email string) *models.User {
	user, err := f.users.GetByEmail(ctx, email)
	if err != nil {
		return nil
	}
	return user
}
