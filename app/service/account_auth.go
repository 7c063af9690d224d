package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vibast-solutions/ms-go-accounts/app/entity"
	"github.com/vibast-solutions/ms-go-accounts/app/repository"
	"github.com/vibast-solutions/ms-go-accounts/app/security"
	"github.com/vibast-solutions/ms-go-accounts/app/types"
	"github.com/vibast-solutions/ms-go-accounts/config"

	"github.com/sirupsen/logrus"
)

var (
	ErrDuplicateEmail        = errors.New("email already registered")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrNotVerified           = errors.New("email not verified")
	ErrNotFound              = errors.New("account not found")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
	ErrWeakPassword          = errors.New("password does not meet policy requirements")
)

const (
	TokenTypeBearer = "bearer"

	operationRegister       = "register"
	operationLogin          = "login"
	operationForgotPassword = "forgot_password"
	operationResetPassword  = "reset_password"
	operationVerifyEmail    = "verify_email"

	mailKindVerification = "verification"
	mailKindReset        = "reset"

	defaultMailTimeout = 10 * time.Second
)

// AccountRepository is the persistence the workflow needs. Both the MySQL
// and the in-memory repositories implement it.
type AccountRepository interface {
	Create(ctx context.Context, account *entity.Account) error
	FindByEmail(ctx context.Context, email string) (*entity.Account, error)
	FindByEmailAndVerificationToken(ctx context.Context, email, token string) (*entity.Account, error)
	FindByEmailAndResetToken(ctx context.Context, email, token string) (*entity.Account, error)
	SetResetToken(ctx context.Context, id uint64, token string) error
	ConsumeVerificationToken(ctx context.Context, id uint64, token string) (bool, error)
	ConsumeResetToken(ctx context.Context, id uint64, token, passwordHash string) (bool, error)
}

type passwordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

type tokenService interface {
	Issue(subject string, purpose security.Purpose, ttl time.Duration) (string, error)
	Validate(token string, purpose security.Purpose) (*security.Claims, error)
}

type accountMailer interface {
	SendVerification(ctx context.Context, email, token string) error
	SendPasswordReset(ctx context.Context, email, token string) error
}

type AccountAuthService interface {
	Register(ctx context.Context, req *types.RegisterRequest) (*types.MessageResponse, error)
	Login(ctx context.Context, req *types.LoginRequest) (*types.LoginResponse, error)
	ForgotPassword(ctx context.Context, req *types.ForgotPasswordRequest) (*types.MessageResponse, error)
	ResetPassword(ctx context.Context, req *types.ResetPasswordRequest) (*types.MessageResponse, error)
	VerifyEmail(ctx context.Context, req *types.VerifyEmailRequest) (*types.MessageResponse, error)
	CurrentAccount(ctx context.Context, email string) (*types.AccountResponse, error)
	AuthenticateSession(tokenString string) (*security.Claims, error)
}

type AsyncRunner func(task func())

type AccountAuthServiceOption func(*accountAuthService)

type accountAuthService struct {
	repo        AccountRepository
	hasher      passwordHasher
	tokens      tokenService
	mailer      accountMailer
	cfg         *config.Config
	asyncRunner AsyncRunner
	metrics     *Metrics

	dummyHashOnce sync.Once
	dummyHash     string
}

func NewAccountAuthService(
	repo AccountRepository,
	hasher passwordHasher,
	tokens tokenService,
	mailer accountMailer,
	cfg *config.Config,
	opts ...AccountAuthServiceOption,
) AccountAuthService {
	svc := &accountAuthService{
		repo:   repo,
		hasher: hasher,
		tokens: tokens,
		mailer: mailer,
		cfg:    cfg,
		asyncRunner: func(task func()) {
			go task()
		},
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func WithAsyncRunner(runner AsyncRunner) AccountAuthServiceOption {
	return func(s *accountAuthService) {
		if runner != nil {
			s.asyncRunner = runner
		}
	}
}

func WithMetrics(metrics *Metrics) AccountAuthServiceOption {
	return func(s *accountAuthService) {
		s.metrics = metrics
	}
}

func (s *accountAuthService) Register(ctx context.Context, req *types.RegisterRequest) (res *types.MessageResponse, err error) {
	defer func() { s.metrics.observeOperation(operationRegister, err) }()

	email := req.GetEmail()
	existing, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateEmail
	}

	passwordHash, err := s.hashPassword(req.GetPassword())
	if err != nil {
		return nil, err
	}

	verificationToken, err := s.tokens.Issue(email, security.PurposeVerification, s.cfg.Tokens.VerificationTTL)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	account := &entity.Account{
		Email:             email,
		PasswordHash:      passwordHash,
		IsVerified:        false,
		VerificationToken: sql.NullString{String: verificationToken, Valid: true},
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err = s.repo.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}

	s.sendAsync(mailKindVerification, account, func(ctx context.Context) error {
		return s.mailer.SendVerification(ctx, email, verificationToken)
	})

	return &types.MessageResponse{
		Message: "registration successful, check your email to verify your account",
	}, nil
}

func (s *accountAuthService) Login(ctx context.Context, req *types.LoginRequest) (res *types.LoginResponse, err error) {
	defer func() { s.metrics.observeOperation(operationLogin, err) }()

	account, err := s.repo.FindByEmail(ctx, req.GetEmail())
	if err != nil {
		return nil, err
	}
	if account == nil {
		// Keep the response time of unknown emails close to a wrong password.
		s.hasher.Verify(req.GetPassword(), s.getDummyHash())
		return nil, ErrInvalidCredentials
	}

	if !s.hasher.Verify(req.GetPassword(), account.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	if !account.IsVerified {
		return nil, ErrNotVerified
	}

	accessToken, err := s.tokens.Issue(account.Email, security.PurposeSession, s.cfg.JWT.SessionTTL)
	if err != nil {
		return nil, err
	}

	return &types.LoginResponse{
		AccessToken: accessToken,
		TokenType:   TokenTypeBearer,
		ExpiresIn:   int64(s.cfg.JWT.SessionTTL.Seconds()),
	}, nil
}

func (s *accountAuthService) ForgotPassword(ctx context.Context, req *types.ForgotPasswordRequest) (res *types.MessageResponse, err error) {
	defer func() { s.metrics.observeOperation(operationForgotPassword, err) }()

	account, err := s.repo.FindByEmail(ctx, req.GetEmail())
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrNotFound
	}

	resetToken, err := s.tokens.Issue(account.Email, security.PurposeReset, s.cfg.Tokens.ResetTTL)
	if err != nil {
		return nil, err
	}

	if err = s.repo.SetResetToken(ctx, account.ID, resetToken); err != nil {
		return nil, err
	}

	s.sendAsync(mailKindReset, account, func(ctx context.Context) error {
		return s.mailer.SendPasswordReset(ctx, account.Email, resetToken)
	})

	return &types.MessageResponse{Message: "reset token sent to email"}, nil
}

func (s *accountAuthService) ResetPassword(ctx context.Context, req *types.ResetPasswordRequest) (res *types.MessageResponse, err error) {
	defer func() { s.metrics.observeOperation(operationResetPassword, err) }()

	claims, err := s.tokens.Validate(req.GetToken(), security.PurposeReset)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidOrExpiredToken, err.Error())
	}

	account, err := s.repo.FindByEmailAndResetToken(ctx, claims.Subject, req.GetToken())
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrNotFound
	}

	passwordHash, err := s.hashPassword(req.GetNewPassword())
	if err != nil {
		return nil, err
	}

	consumed, err := s.repo.ConsumeResetToken(ctx, account.ID, req.GetToken(), passwordHash)
	if err != nil {
		return nil, err
	}
	if !consumed {
		return nil, ErrNotFound
	}

	return &types.MessageResponse{Message: "password reset successful"}, nil
}

func (s *accountAuthService) VerifyEmail(ctx context.Context, req *types.VerifyEmailRequest) (res *types.MessageResponse, err error) {
	defer func() { s.metrics.observeOperation(operationVerifyEmail, err) }()

	claims, err := s.tokens.Validate(req.GetToken(), security.PurposeVerification)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidOrExpiredToken, err.Error())
	}

	account, err := s.repo.FindByEmailAndVerificationToken(ctx, claims.Subject, req.GetToken())
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrNotFound
	}

	consumed, err := s.repo.ConsumeVerificationToken(ctx, account.ID, req.GetToken())
	if err != nil {
		return nil, err
	}
	if !consumed {
		return nil, ErrNotFound
	}

	return &types.MessageResponse{Message: "email verified successfully"}, nil
}

func (s *accountAuthService) CurrentAccount(ctx context.Context, email string) (*types.AccountResponse, error) {
	account, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrNotFound
	}

	return &types.AccountResponse{
		ID:         account.ID,
		Email:      account.Email,
		IsVerified: account.IsVerified,
	}, nil
}

func (s *accountAuthService) AuthenticateSession(tokenString string) (*security.Claims, error) {
	claims, err := s.tokens.Validate(tokenString, security.PurposeSession)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidOrExpiredToken, err.Error())
	}
	return claims, nil
}

func (s *accountAuthService) hashPassword(password string) (string, error) {
	if err := s.cfg.Password.Policy.Validate(password); err != nil {
		return "", fmt.Errorf("%w: %s", ErrWeakPassword, err.Error())
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		if errors.Is(err, security.ErrPasswordTooLong) {
			return "", fmt.Errorf("%w: %s", ErrWeakPassword, err.Error())
		}
		return "", err
	}
	return hash, nil
}

func (s *accountAuthService) getDummyHash() string {
	s.dummyHashOnce.Do(func() {
		hash, err := s.hasher.Hash("account-does-not-exist")
		if err != nil {
			logrus.WithError(err).Warn("failed to prepare dummy password hash")
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

// sendAsync hands mail delivery to the async runner. Failures are logged and
// counted; the account change has already been persisted.
func (s *accountAuthService) sendAsync(kind string, account *entity.Account, send func(ctx context.Context) error) {
	s.asyncRunner(func() {
		timeout := s.cfg.Mail.SendTimeout
		if timeout <= 0 {
			timeout = defaultMailTimeout
		}
		sendCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		err := send(sendCtx)
		s.metrics.observeMail(kind, err)
		if err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"account_id": account.ID,
				"mail_kind":  kind,
			}).Error("failed to send account email")
			return
		}
		logrus.WithFields(logrus.Fields{
			"account_id": account.ID,
			"mail_kind":  kind,
		}).Debug("account email sent")
	})
}
