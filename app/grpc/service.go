package grpc

import (
	"context"

	"github.com/vibast-solutions/ms-go-accounts/app/types"

	"google.golang.org/grpc"
)

const AccountServiceName = "accounts.v1.AccountService"

const (
	methodRegister       = "/" + AccountServiceName + "/Register"
	methodLogin          = "/" + AccountServiceName + "/Login"
	methodForgotPassword = "/" + AccountServiceName + "/ForgotPassword"
	methodResetPassword  = "/" + AccountServiceName + "/ResetPassword"
	methodVerifyEmail    = "/" + AccountServiceName + "/VerifyEmail"
	methodCurrentAccount = "/" + AccountServiceName + "/CurrentAccount"
)

type AccountServiceServer interface {
	Register(context.Context, *types.RegisterRequest) (*types.MessageResponse, error)
	Login(context.Context, *types.LoginRequest) (*types.LoginResponse, error)
	ForgotPassword(context.Context, *types.ForgotPasswordRequest) (*types.MessageResponse, error)
	ResetPassword(context.Context, *types.ResetPasswordRequest) (*types.MessageResponse, error)
	VerifyEmail(context.Context, *types.VerifyEmailRequest) (*types.MessageResponse, error)
	CurrentAccount(context.Context, *types.CurrentAccountRequest) (*types.AccountResponse, error)
}

func RegisterAccountServiceServer(s grpc.ServiceRegistrar, srv AccountServiceServer) {
	s.RegisterService(&AccountServiceDesc, srv)
}

// unaryHandler adapts a typed method to the grpc.MethodDesc handler shape.
func unaryHandler[Req any, Res any](fullMethod string, call func(AccountServiceServer, context.Context, *Req) (*Res, error)) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(AccountServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(AccountServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var AccountServiceDesc = grpc.ServiceDesc{
	ServiceName: AccountServiceName,
	HandlerType: (*AccountServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Register",
			Handler:    unaryHandler(methodRegister, AccountServiceServer.Register),
		},
		{
			MethodName: "Login",
			Handler:    unaryHandler(methodLogin, AccountServiceServer.Login),
		},
		{
			MethodName: "ForgotPassword",
			Handler:    unaryHandler(methodForgotPassword, AccountServiceServer.ForgotPassword),
		},
		{
			MethodName: "ResetPassword",
			Handler:    unaryHandler(methodResetPassword, AccountServiceServer.ResetPassword),
		},
		{
			MethodName: "VerifyEmail",
			Handler:    unaryHandler(methodVerifyEmail, AccountServiceServer.VerifyEmail),
		},
		{
			MethodName: "CurrentAccount",
			Handler:    unaryHandler(methodCurrentAccount, AccountServiceServer.CurrentAccount),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "accounts/v1/account_service",
}

// AccountServiceClient calls AccountService over a connection using the JSON
// codec registered by this package.
type AccountServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewAccountServiceClient(cc grpc.ClientConnInterface) *AccountServiceClient {
	return &AccountServiceClient{cc: cc}
}

func (c *AccountServiceClient) Register(ctx context.Context, in *types.RegisterRequest, opts ...grpc.CallOption) (*types.MessageResponse, error) {
	out := new(types.MessageResponse)
	if err := c.invoke(ctx, methodRegister, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AccountServiceClient) Login(ctx context.Context, in *types.LoginRequest, opts ...grpc.CallOption) (*types.LoginResponse, error) {
	out := new(types.LoginResponse)
	if err := c.invoke(ctx, methodLogin, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AccountServiceClient) ForgotPassword(ctx context.Context, in *types.ForgotPasswordRequest, opts ...grpc.CallOption) (*types.MessageResponse, error) {
	out := new(types.MessageResponse)
	if err := c.invoke(ctx, methodForgotPassword, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AccountServiceClient) ResetPassword(ctx context.Context, in *types.ResetPasswordRequest, opts ...grpc.CallOption) (*types.MessageResponse, error) {
	out := new(types.MessageResponse)
	if err := c.invoke(ctx, methodResetPassword, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AccountServiceClient) VerifyEmail(ctx context.Context, in *types.VerifyEmailRequest, opts ...grpc.CallOption) (*types.MessageResponse, error) {
	out := new(types.MessageResponse)
	if err := c.invoke(ctx, methodVerifyEmail, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AccountServiceClient) CurrentAccount(ctx context.Context, in *types.CurrentAccountRequest, opts ...grpc.CallOption) (*types.AccountResponse, error) {
	out := new(types.AccountResponse)
	if err := c.invoke(ctx, methodCurrentAccount, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AccountServiceClient) invoke(ctx context.Context, method string, in, out any, opts ...grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	return c.cc.Invoke(ctx, method, in, out, opts...)
}
