package grpc

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-accounts/app/service"
	"github.com/vibast-solutions/ms-go-accounts/app/types"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type AccountServer struct {
	accountAuthService service.AccountAuthService
}

func NewAccountServer(accountAuthService service.AccountAuthService) *AccountServer {
	return &AccountServer{accountAuthService: accountAuthService}
}

func (s *AccountServer) Register(ctx context.Context, req *types.RegisterRequest) (*types.MessageResponse, error) {
	if err := req.Validate(); err != nil {
		logrus.WithField("email", req.GetEmail()).Debug("Register validation failed (grpc)")
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	logrus.WithField("email", req.GetEmail()).Info("Register request received (grpc)")
	res, err := s.accountAuthService.Register(ctx, req)
	if err != nil {
		if errors.Is(err, service.ErrDuplicateEmail) {
			logrus.WithField("email", req.GetEmail()).Warn("Register failed: email already registered (grpc)")
			return nil, status.Error(codes.AlreadyExists, "email already registered")
		}
		if errors.Is(err, service.ErrWeakPassword) {
			logrus.WithField("email", req.GetEmail()).Warn("Register failed: weak password (grpc)")
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		logrus.WithError(err).WithField("email", req.GetEmail()).Error("Register failed (grpc)")
		return nil, status.Error(codes.Internal, "internal server error")
	}

	logrus.WithField("email", req.GetEmail()).Info("Account registered (grpc)")
	return res, nil
}

func (s *AccountServer) Login(ctx context.Context, req *types.LoginRequest) (*types.LoginResponse, error) {
	if err := req.Validate(); err != nil {
		logrus.WithField("email", req.GetEmail()).Debug("Login validation failed (grpc)")
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	logrus.WithField("email", req.GetEmail()).Info("Login request received (grpc)")
	res, err := s.accountAuthService.Login(ctx, req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			logrus.WithField("email", req.GetEmail()).Warn("Login failed: invalid credentials (grpc)")
			return nil, status.Error(codes.Unauthenticated, "invalid credentials")
		}
		if errors.Is(err, service.ErrNotVerified) {
			logrus.WithField("email", req.GetEmail()).Warn("Login failed: email not verified (grpc)")
			return nil, status.Error(codes.PermissionDenied, "email not verified")
		}
		logrus.WithError(err).WithField("email", req.GetEmail()).Error("Login failed (grpc)")
		return nil, status.Error(codes.Internal, "internal server error")
	}

	logrus.WithField("email", req.GetEmail()).Info("Login successful (grpc)")
	return res, nil
}

func (s *AccountServer) ForgotPassword(ctx context.Context, req *types.ForgotPasswordRequest) (*types.MessageResponse, error) {
	if err := req.Validate(); err != nil {
		logrus.WithField("email", req.GetEmail()).Debug("Forgot password validation failed (grpc)")
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	logrus.WithField("email", req.GetEmail()).Info("Forgot password request received (grpc)")
	res, err := s.accountAuthService.ForgotPassword(ctx, req)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			logrus.WithField("email", req.GetEmail()).Warn("Forgot password failed: account not found (grpc)")
			return nil, status.Error(codes.NotFound, "account not found")
		}
		logrus.WithError(err).WithField("email", req.GetEmail()).Error("Forgot password failed (grpc)")
		return nil, status.Error(codes.Internal, "internal server error")
	}

	return res, nil
}

func (s *AccountServer) ResetPassword(ctx context.Context, req *types.ResetPasswordRequest) (*types.MessageResponse, error) {
	if err := req.Validate(); err != nil {
		logrus.Debug("Reset password validation failed (grpc)")
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	res, err := s.accountAuthService.ResetPassword(ctx, req)
	if err != nil {
		return nil, tokenFlowStatus("Reset password", err)
	}

	logrus.Info("Password reset successful (grpc)")
	return res, nil
}

func (s *AccountServer) VerifyEmail(ctx context.Context, req *types.VerifyEmailRequest) (*types.MessageResponse, error) {
	if err := req.Validate(); err != nil {
		logrus.Debug("Verify email validation failed (grpc)")
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	res, err := s.accountAuthService.VerifyEmail(ctx, req)
	if err != nil {
		return nil, tokenFlowStatus("Verify email", err)
	}

	logrus.Info("Email verified (grpc)")
	return res, nil
}

func (s *AccountServer) CurrentAccount(ctx context.Context, req *types.CurrentAccountRequest) (*types.AccountResponse, error) {
	if req.GetAccessToken() == "" {
		logrus.Debug("Current account validation failed (grpc)")
		return nil, status.Error(codes.InvalidArgument, "access_token is required")
	}

	claims, err := s.accountAuthService.AuthenticateSession(req.GetAccessToken())
	if err != nil {
		logrus.WithError(err).Debug("Current account failed: invalid session token (grpc)")
		return nil, status.Error(codes.Unauthenticated, "invalid or expired token")
	}

	res, err := s.accountAuthService.CurrentAccount(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return nil, status.Error(codes.NotFound, "account not found")
		}
		logrus.WithError(err).WithField("email", claims.Subject).Error("Current account failed (grpc)")
		return nil, status.Error(codes.Internal, "internal server error")
	}

	return res, nil
}

// tokenFlowStatus maps errors of the token-consuming operations.
func tokenFlowStatus(operation string, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidOrExpiredToken):
		logrus.WithError(err).Warn(operation + " failed: invalid or expired token (grpc)")
		return status.Error(codes.InvalidArgument, "invalid or expired token")
	case errors.Is(err, service.ErrNotFound):
		logrus.Warn(operation + " failed: account not found (grpc)")
		return status.Error(codes.NotFound, "account not found")
	case errors.Is(err, service.ErrWeakPassword):
		logrus.Warn(operation + " failed: weak password (grpc)")
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		logrus.WithError(err).Error(operation + " failed (grpc)")
		return status.Error(codes.Internal, "internal server error")
	}
}
