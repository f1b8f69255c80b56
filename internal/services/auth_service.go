package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/biileprince/ReferX/internal/config"
	"github.com/biileprince/ReferX/internal/models"
	"github.com/biileprince/ReferX/internal/repositories/interfaces"
	"github.com/biileprince/ReferX/internal/utils"
	"github.com/biileprince/ReferX/pkg/logger"
	"github.com/biileprince/ReferX/pkg/oauth"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RegisterRequest struct {
	Name            string `json:"name" validate:"required,min=2,max=100"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
	ReferralCode    string `json:"ref"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Session is the result of a successful authentication: the account plus
// a fresh access/refresh token pair. The refresh token is also persisted
// on the account, so issuing a new session invalidates the previous one.
type Session struct {
	User         *models.User
	AccessToken  string
	RefreshToken string
}

type VerifyOutcome int

const (
	// VerifyCompleted means the account was just verified and any pending
	// referrals were credited.
	VerifyCompleted VerifyOutcome = iota
	// VerifyAlreadyDone means the account was verified before this call.
	VerifyAlreadyDone
	// VerifyLinkResent means the token had expired and a fresh
	// verification email was sent.
	VerifyLinkResent
)

type AuthService interface {
	Register(ctx context.Context, req *RegisterRequest, ip, userAgent string) (*models.User, error)
	VerifyEmail(ctx context.Context, token string) (VerifyOutcome, error)
	Login(ctx context.Context, req *LoginRequest, ip, userAgent string) (*Session, error)
	Refresh(ctx context.Context, refreshToken string) (*Session, error)
	Logout(ctx context.Context, userID primitive.ObjectID) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, password, confirmPassword string) error
	GetProfile(ctx context.Context, userID primitive.ObjectID) (*models.Profile, error)
	UpdateProfile(ctx context.Context, userID primitive.ObjectID, name string) (*models.Profile, error)
	GoogleAuthURL(ctx context.Context) (string, error)
	GoogleCallback(ctx context.Context, state, code, ip, userAgent string) (*Session, error)
}

type authService struct {
	userRepo     interfaces.UserRepository
	referralRepo interfaces.ReferralRepository
	tx           TxRunner
	cache        CacheService
	email        EmailService
	google       oauth.Provider
	security     *config.SecurityConfig
	app          *config.AppConfig
	logger       *logger.Logger
}

func NewAuthService(
	userRepo interfaces.UserRepository,
	referralRepo interfaces.ReferralRepository,
	tx TxRunner,
	cache CacheService,
	email EmailService,
	google oauth.Provider,
	security *config.SecurityConfig,
	app *config.AppConfig,
	log *logger.Logger,
) AuthService {
	return &authService{
		userRepo:     userRepo,
		referralRepo: referralRepo,
		tx:           tx,
		cache:        cache,
		email:        email,
		google:       google,
		security:     security,
		app:          app,
		logger:       log,
	}
}

func (s *authService) Register(ctx context.Context, req *RegisterRequest, ip, userAgent string) (*models.User, error) {
	req.Email = normalizeEmail(req.Email)

	if req.Password != req.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}
	if err := utils.ValidatePasswordPolicy(req.Password); err != nil {
		return nil, ErrWeakPassword
	}

	if _, err := s.userRepo.GetByEmail(ctx, req.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, interfaces.ErrNotFound) {
		return nil, err
	}

	var referrer *models.User
	if req.ReferralCode != "" {
		found, err := s.userRepo.GetByReferralCode(ctx, req.ReferralCode)
		switch {
		case err == nil:
			if err := s.checkRegistrationFraud(ctx, found, ip); err != nil {
				return nil, err
			}
			referrer = found
		case errors.Is(err, interfaces.ErrNotFound):
			// An unknown code never blocks the signup; the account is
			// simply created without a referral.
			s.logger.WithField("code", req.ReferralCode).Warn("referral code not found, registering without referral")
		default:
			return nil, err
		}
	}

	code, err := s.generateUniqueReferralCode(ctx)
	if err != nil {
		return nil, err
	}

	hash, err := utils.HashPassword(req.Password, s.security.BcryptCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:         req.Name,
		Email:        req.Email,
		Password:     hash,
		ReferralCode: code,
		Role:         models.RoleUser,
		IPAddresses: []models.IPRecord{{
			IP:        ip,
			Timestamp: time.Now(),
			UserAgent: userAgent,
		}},
	}

	_, err = s.tx.WithTransaction(ctx, func(ctx context.Context) (interface{}, error) {
		if err := s.userRepo.Create(ctx, user); err != nil {
			if errors.Is(err, interfaces.ErrDuplicateEmail) {
				return nil, ErrEmailTaken
			}
			// Lost a race on the code despite the pre-check.
			if errors.Is(err, interfaces.ErrDuplicateReferralCode) {
				return nil, ErrReferralCodeExhausted
			}
			return nil, err
		}

		if referrer != nil {
			referral := &models.Referral{
				Referrer:      referrer.ID,
				RefereeEmail:  user.Email,
				RefereeName:   user.Name,
				RefereeIP:     ip,
				Status:        models.ReferralStatusPending,
				PointsAwarded: utils.ReferralSignupBonus,
			}
			if err := s.referralRepo.Create(ctx, referral); err != nil &&
				!errors.Is(err, interfaces.ErrDuplicatePendingReferral) {
				return nil, err
			}
		}

		return nil, nil
	})
	if err != nil {
		return nil, err
	}

	token, err := s.issueVerificationToken(ctx, user)
	if err != nil {
		// The account exists but can never be verified; undo the partial
		// state so the email can be registered again.
		s.compensateRegistration(ctx, user)
		return nil, err
	}
	s.deliverVerificationEmail(ctx, user, token)

	s.logger.WithUserID(user.ID).WithField("email", user.Email).Info("user registered, verification pending")

	return user, nil
}

func (s *authService) VerifyEmail(ctx context.Context, token string) (VerifyOutcome, error) {
	userID, err := utils.VerifyToken(token, s.security.JWTVerifySecret)
	if err != nil {
		if errors.Is(err, utils.ErrTokenExpired) {
			return s.resendVerification(ctx, token)
		}
		return 0, ErrInvalidToken
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return 0, ErrInvalidToken
		}
		return 0, err
	}
	if user.IsVerified {
		return VerifyAlreadyDone, nil
	}

	completed, err := s.completeVerification(ctx, user)
	if err != nil {
		return 0, err
	}

	for _, referral := range completed {
		s.notifyReferrer(ctx, referral, user.Name)
	}

	s.logger.WithUserID(user.ID).WithField("referrals_completed", len(completed)).Info("email verified")

	return VerifyCompleted, nil
}

// completeVerification marks the account verified and settles all pending
// referrals naming its email, crediting each referrer, in one transaction.
func (s *authService) completeVerification(ctx context.Context, user *models.User) ([]*models.Referral, error) {
	result, err := s.tx.WithTransaction(ctx, func(ctx context.Context) (interface{}, error) {
		if err := s.userRepo.Update(ctx, user.ID, map[string]interface{}{
			"isVerified":        true,
			"verificationToken": "",
		}); err != nil {
			return nil, err
		}

		pending, err := s.referralRepo.FindPendingByEmail(ctx, user.Email)
		if err != nil {
			return nil, err
		}

		for _, referral := range pending {
			if err := s.referralRepo.Complete(ctx, referral.ID, user.ID); err != nil {
				return nil, err
			}
			if err := s.userRepo.IncrementPoints(ctx, referral.Referrer, referral.PointsAwarded); err != nil {
				return nil, err
			}
		}

		return pending, nil
	})
	if err != nil {
		return nil, err
	}

	completed, _ := result.([]*models.Referral)
	return completed, nil
}

// resendVerification handles an expired verification link: the signature
// is not trusted anymore, but the embedded id still tells us which
// account asked to be verified.
func (s *authService) resendVerification(ctx context.Context, token string) (VerifyOutcome, error) {
	userID, err := utils.DecodeTokenUnverified(token)
	if err != nil {
		return 0, ErrInvalidToken
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return 0, ErrInvalidToken
		}
		return 0, err
	}
	if user.IsVerified {
		return VerifyAlreadyDone, nil
	}

	token, err = s.issueVerificationToken(ctx, user)
	if err != nil {
		return 0, err
	}
	s.deliverVerificationEmail(ctx, user, token)

	s.logger.WithUserID(user.ID).Info("verification link expired, new one sent")

	return VerifyLinkResent, nil
}

func (s *authService) Login(ctx context.Context, req *LoginRequest, ip, userAgent string) (*Session, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !utils.CheckPassword(req.Password, user.Password) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsVerified {
		return nil, ErrEmailNotVerified
	}

	if !user.HasIP(ip) {
		if err := s.userRepo.AddIPAddress(ctx, user.ID, models.IPRecord{
			IP:        ip,
			Timestamp: time.Now(),
			UserAgent: userAgent,
		}); err != nil {
			s.logger.WithError(err).WithUserID(user.ID).Warn("failed to record login ip")
		}
	}

	session, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.WithUserID(user.ID).Info("user logged in")

	return session, nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	userID, err := utils.VerifyToken(refreshToken, s.security.JWTRefreshSecret)
	if err != nil {
		if errors.Is(err, utils.ErrTokenExpired) {
			return nil, ErrRefreshExpired
		}
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}

	// Only the most recently issued refresh token is honored.
	if user.RefreshToken == "" || user.RefreshToken != refreshToken {
		return nil, ErrInvalidRefreshToken
	}

	return s.issueSession(ctx, user)
}

func (s *authService) Logout(ctx context.Context, userID primitive.ObjectID) error {
	err := s.userRepo.Update(ctx, userID, map[string]interface{}{
		"refreshToken": "",
	})
	if err != nil && !errors.Is(err, interfaces.ErrNotFound) {
		return err
	}

	s.logger.WithUserID(userID).Info("user logged out")

	return nil
}

func (s *authService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	token, err := utils.SignToken(user.ID, s.security.JWTResetSecret, s.security.ResetTokenTTL)
	if err != nil {
		return err
	}

	expire := time.Now().Add(s.security.ResetTokenTTL)
	if err := s.userRepo.Update(ctx, user.ID, map[string]interface{}{
		"resetPasswordToken":  token,
		"resetPasswordExpire": expire,
	}); err != nil {
		return err
	}

	resetURL := fmt.Sprintf("%s/reset-password/%s", s.app.ClientURL, token)
	if err := s.email.SendPasswordReset(ctx, user.Email, user.Name, resetURL); err != nil {
		// Clear the token so a half-issued reset cannot linger.
		if clearErr := s.userRepo.Update(ctx, user.ID, map[string]interface{}{
			"resetPasswordToken":  "",
			"resetPasswordExpire": nil,
		}); clearErr != nil {
			s.logger.WithError(clearErr).WithUserID(user.ID).Error("failed to clear reset token after send failure")
		}
		return fmt.Errorf("failed to send reset email: %w", err)
	}

	s.logger.WithUserID(user.ID).Info("password reset email sent")

	return nil
}

func (s *authService) ResetPassword(ctx context.Context, token, password, confirmPassword string) error {
	if password != confirmPassword {
		return ErrPasswordMismatch
	}
	if err := utils.ValidatePasswordPolicy(password); err != nil {
		return ErrWeakPassword
	}

	userID, err := utils.VerifyToken(token, s.security.JWTResetSecret)
	if err != nil {
		return ErrInvalidToken
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return ErrInvalidToken
		}
		return err
	}

	if user.ResetPasswordToken != token {
		return ErrInvalidToken
	}
	if user.ResetPasswordExpire == nil || time.Now().After(*user.ResetPasswordExpire) {
		return ErrInvalidToken
	}

	hash, err := utils.HashPassword(password, s.security.BcryptCost)
	if err != nil {
		return err
	}

	// Resetting the password also revokes the active session.
	if err := s.userRepo.Update(ctx, user.ID, map[string]interface{}{
		"password":            hash,
		"resetPasswordToken":  "",
		"resetPasswordExpire": nil,
		"refreshToken":        "",
	}); err != nil {
		return err
	}

	s.logger.WithUserID(user.ID).Info("password reset")

	return nil
}

func (s *authService) GetProfile(ctx context.Context, userID primitive.ObjectID) (*models.Profile, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user.Profile(), nil
}

func (s *authService) UpdateProfile(ctx context.Context, userID primitive.ObjectID, name string) (*models.Profile, error) {
	if err := s.userRepo.Update(ctx, userID, map[string]interface{}{
		"name": name,
	}); err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return s.GetProfile(ctx, userID)
}

const oauthStateTTL = 10 * time.Minute

func (s *authService) GoogleAuthURL(ctx context.Context) (string, error) {
	state := utils.GenerateRandomString(32)

	if err := s.cache.Set(ctx, "oauth_state_"+state, true, oauthStateTTL); err != nil {
		return "", err
	}

	return s.google.GetAuthURL(state), nil
}

func (s *authService) GoogleCallback(ctx context.Context, state, code, ip, userAgent string) (*Session, error) {
	var seen bool
	if err := s.cache.Get(ctx, "oauth_state_"+state, &seen); err != nil || !seen {
		return nil, ErrOAuthStateMismatch
	}
	s.cache.Delete(ctx, "oauth_state_"+state)

	token, err := s.google.ExchangeCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange oauth code: %w", err)
	}

	info, err := s.google.GetUserInfo(ctx, token.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch oauth user info: %w", err)
	}
	if !info.EmailVerified {
		return nil, ErrOAuthEmailNotVerified
	}

	info.Email = normalizeEmail(info.Email)

	user, err := s.userRepo.GetByEmail(ctx, info.Email)
	switch {
	case err == nil:
		if !user.IsVerified {
			// The provider vouches for the address; treat it like a
			// verification-link click so pending referrals settle.
			if _, err := s.completeVerification(ctx, user); err != nil {
				return nil, err
			}
			user.IsVerified = true
		}
	case errors.Is(err, interfaces.ErrNotFound):
		user, err = s.createGoogleUser(ctx, info, ip, userAgent)
		if err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	if !user.HasIP(ip) {
		if err := s.userRepo.AddIPAddress(ctx, user.ID, models.IPRecord{
			IP:        ip,
			Timestamp: time.Now(),
			UserAgent: userAgent,
		}); err != nil {
			s.logger.WithError(err).WithUserID(user.ID).Warn("failed to record oauth login ip")
		}
	}

	return s.issueSession(ctx, user)
}

// createGoogleUser provisions an account for a first-time Google sign-in.
// The account is verified from the start, so any pending referrals for the
// address settle immediately.
func (s *authService) createGoogleUser(ctx context.Context, info *oauth.UserInfo, ip, userAgent string) (*models.User, error) {
	code, err := s.generateUniqueReferralCode(ctx)
	if err != nil {
		return nil, err
	}

	// The account has no usable password; a random one keeps the login
	// path closed without a schema exception.
	hash, err := utils.HashPassword(utils.GenerateRandomString(32), s.security.BcryptCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:         info.Name,
		Email:        info.Email,
		Password:     hash,
		ReferralCode: code,
		Role:         models.RoleUser,
		IsVerified:   true,
		IPAddresses: []models.IPRecord{{
			IP:        ip,
			Timestamp: time.Now(),
			UserAgent: userAgent,
		}},
	}

	result, err := s.tx.WithTransaction(ctx, func(ctx context.Context) (interface{}, error) {
		if err := s.userRepo.Create(ctx, user); err != nil {
			return nil, err
		}

		pending, err := s.referralRepo.FindPendingByEmail(ctx, user.Email)
		if err != nil {
			return nil, err
		}
		for _, referral := range pending {
			if err := s.referralRepo.Complete(ctx, referral.ID, user.ID); err != nil {
				return nil, err
			}
			if err := s.userRepo.IncrementPoints(ctx, referral.Referrer, referral.PointsAwarded); err != nil {
				return nil, err
			}
		}

		return pending, nil
	})
	if err != nil {
		return nil, err
	}

	if completed, ok := result.([]*models.Referral); ok {
		for _, referral := range completed {
			s.notifyReferrer(ctx, referral, user.Name)
		}
	}

	s.logger.WithUserID(user.ID).WithField("provider", info.Provider).Info("oauth user provisioned")

	return user, nil
}

// issueSession signs a fresh token pair and rotates the stored refresh
// token so earlier sessions stop refreshing.
func (s *authService) issueSession(ctx context.Context, user *models.User) (*Session, error) {
	access, err := utils.SignToken(user.ID, s.security.JWTSecret, s.security.AccessTokenTTL)
	if err != nil {
		return nil, err
	}

	refresh, err := utils.SignToken(user.ID, s.security.JWTRefreshSecret, s.security.RefreshTokenTTL)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.Update(ctx, user.ID, map[string]interface{}{
		"refreshToken": refresh,
	}); err != nil {
		return nil, err
	}
	user.RefreshToken = refresh

	return &Session{
		User:         user,
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

// checkRegistrationFraud applies the signup-time heuristics when a
// referral code is presented.
func (s *authService) checkRegistrationFraud(ctx context.Context, referrer *models.User, ip string) error {
	if referrer.HasIP(ip) {
		return ErrSameDeviceReferral
	}

	since := time.Now().Add(-24 * time.Hour)
	count, err := s.userRepo.CountCreatedFromIPSince(ctx, ip, since)
	if err != nil {
		return err
	}
	if count >= 3 {
		return ErrTooManyRegistrations
	}

	return nil
}

func (s *authService) generateUniqueReferralCode(ctx context.Context) (string, error) {
	for i := 0; i < utils.MaxReferralCodeAttempts; i++ {
		code := utils.GenerateReferralCode()

		exists, err := s.userRepo.ExistsByReferralCode(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}

	return "", ErrReferralCodeExhausted
}

func (s *authService) issueVerificationToken(ctx context.Context, user *models.User) (string, error) {
	token, err := utils.SignToken(user.ID, s.security.JWTVerifySecret, s.security.VerifyTokenTTL)
	if err != nil {
		return "", err
	}

	if err := s.userRepo.Update(ctx, user.ID, map[string]interface{}{
		"verificationToken": token,
	}); err != nil {
		return "", err
	}
	user.VerificationToken = token

	return token, nil
}

// deliverVerificationEmail is best-effort: a failed send is logged, never
// fatal, and never rolls the account back. The verify flow re-issues on
// demand.
func (s *authService) deliverVerificationEmail(ctx context.Context, user *models.User, token string) {
	verifyURL := fmt.Sprintf("%s/verify-email/%s", s.app.ClientURL, token)
	if err := s.email.SendVerification(ctx, user.Email, user.Name, verifyURL); err != nil {
		s.logger.WithError(err).WithUserID(user.ID).Warn("failed to send verification email")
	}
}

// compensateRegistration undoes a registration whose verification mail
// could not be delivered: the account and any referral created alongside
// it are removed.
func (s *authService) compensateRegistration(ctx context.Context, user *models.User) {
	if err := s.userRepo.Delete(ctx, user.ID); err != nil {
		s.logger.WithError(err).WithUserID(user.ID).Error("failed to roll back user after email failure")
	}
	if err := s.referralRepo.DeleteByEmail(ctx, user.Email); err != nil {
		s.logger.WithError(err).WithField("email", user.Email).Error("failed to roll back referral after email failure")
	}
}

func (s *authService) notifyReferrer(ctx context.Context, referral *models.Referral, refereeName string) {
	referrer, err := s.userRepo.GetByID(ctx, referral.Referrer)
	if err != nil {
		s.logger.WithError(err).Warn("failed to load referrer for success email")
		return
	}
	if err := s.email.SendReferralSuccess(ctx, referrer.Email, referrer.Name, refereeName); err != nil {
		s.logger.WithError(err).WithUserID(referrer.ID).Warn("failed to send referral success email")
	}
}
