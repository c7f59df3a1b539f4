package v1

import (
	"context"

	"google.golang.org/grpc"
)

const (
	CheckoutService_ProcessCheckout_FullMethodName       = "/loyalty.v1.CheckoutService/ProcessCheckout"
	CheckoutService_VoidTransaction_FullMethodName       = "/loyalty.v1.CheckoutService/VoidTransaction"
	CheckoutService_GetTransaction_FullMethodName        = "/loyalty.v1.CheckoutService/GetTransaction"
	CheckoutService_GetTransactionHistory_FullMethodName = "/loyalty.v1.CheckoutService/GetTransactionHistory"

	WalletService_GetBalance_FullMethodName       = "/loyalty.v1.WalletService/GetBalance"
	WalletService_GetLedgerEntries_FullMethodName = "/loyalty.v1.WalletService/GetLedgerEntries"
	WalletService_AdjustBalance_FullMethodName    = "/loyalty.v1.WalletService/AdjustBalance"

	ReferralService_ValidateCode_FullMethodName     = "/loyalty.v1.ReferralService/ValidateCode"
	ReferralService_SaveReferralCode_FullMethodName = "/loyalty.v1.ReferralService/SaveReferralCode"
	ReferralService_GetUplineChain_FullMethodName   = "/loyalty.v1.ReferralService/GetUplineChain"

	RestaurantService_GetRewardConfig_FullMethodName = "/loyalty.v1.RestaurantService/GetRewardConfig"
	RestaurantService_SetRewardConfig_FullMethodName = "/loyalty.v1.RestaurantService/SetRewardConfig"

	ReceiptService_GetUploadUrl_FullMethodName = "/loyalty.v1.ReceiptService/GetUploadUrl"
)

// unary adapts a typed server method to a grpc.MethodHandler, the way
// protoc-gen-go-grpc emits one handler per method.
func unary[S any, Req any, Resp any](fullMethod string, call func(S, context.Context, *Req) (*Resp, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(S), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(S), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{CallOption()}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// CheckoutService

type CheckoutServiceServer interface {
	ProcessCheckout(context.Context, *ProcessCheckoutRequest) (*ProcessCheckoutResponse, error)
	VoidTransaction(context.Context, *VoidTransactionRequest) (*VoidTransactionResponse, error)
	GetTransaction(context.Context, *GetTransactionRequest) (*GetTransactionResponse, error)
	GetTransactionHistory(context.Context, *GetTransactionHistoryRequest) (*GetTransactionHistoryResponse, error)
}

var CheckoutService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "loyalty.v1.CheckoutService",
	HandlerType: (*CheckoutServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ProcessCheckout", Handler: unary(CheckoutService_ProcessCheckout_FullMethodName, CheckoutServiceServer.ProcessCheckout)},
		{MethodName: "VoidTransaction", Handler: unary(CheckoutService_VoidTransaction_FullMethodName, CheckoutServiceServer.VoidTransaction)},
		{MethodName: "GetTransaction", Handler: unary(CheckoutService_GetTransaction_FullMethodName, CheckoutServiceServer.GetTransaction)},
		{MethodName: "GetTransactionHistory", Handler: unary(CheckoutService_GetTransactionHistory_FullMethodName, CheckoutServiceServer.GetTransactionHistory)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "api/v1/services.go",
}

func RegisterCheckoutServiceServer(s grpc.ServiceRegistrar, srv CheckoutServiceServer) {
	s.RegisterService(&CheckoutService_ServiceDesc, srv)
}

type CheckoutServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewCheckoutServiceClient(cc grpc.ClientConnInterface) *CheckoutServiceClient {
	return &CheckoutServiceClient{cc: cc}
}

func (c *CheckoutServiceClient) ProcessCheckout(ctx context.Context, in *ProcessCheckoutRequest, opts ...grpc.CallOption) (*ProcessCheckoutResponse, error) {
	return invoke[ProcessCheckoutResponse](ctx, c.cc, CheckoutService_ProcessCheckout_FullMethodName, in, opts)
}

func (c *CheckoutServiceClient) VoidTransaction(ctx context.Context, in *VoidTransactionRequest, opts ...grpc.CallOption) (*VoidTransactionResponse, error) {
	return invoke[VoidTransactionResponse](ctx, c.cc, CheckoutService_VoidTransaction_FullMethodName, in, opts)
}

func (c *CheckoutServiceClient) GetTransaction(ctx context.Context, in *GetTransactionRequest, opts ...grpc.CallOption) (*GetTransactionResponse, error) {
	return invoke[GetTransactionResponse](ctx, c.cc, CheckoutService_GetTransaction_FullMethodName, in, opts)
}

func (c *CheckoutServiceClient) GetTransactionHistory(ctx context.Context, in *GetTransactionHistoryRequest, opts ...grpc.CallOption) (*GetTransactionHistoryResponse, error) {
	return invoke[GetTransactionHistoryResponse](ctx, c.cc, CheckoutService_GetTransactionHistory_FullMethodName, in, opts)
}

// WalletService

type WalletServiceServer interface {
	GetBalance(context.Context, *GetBalanceRequest) (*GetBalanceResponse, error)
	GetLedgerEntries(context.Context, *GetLedgerEntriesRequest) (*GetLedgerEntriesResponse, error)
	AdjustBalance(context.Context, *AdjustBalanceRequest) (*AdjustBalanceResponse, error)
}

var WalletService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "loyalty.v1.WalletService",
	HandlerType: (*WalletServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetBalance", Handler: unary(WalletService_GetBalance_FullMethodName, WalletServiceServer.GetBalance)},
		{MethodName: "GetLedgerEntries", Handler: unary(WalletService_GetLedgerEntries_FullMethodName, WalletServiceServer.GetLedgerEntries)},
		{MethodName: "AdjustBalance", Handler: unary(WalletService_AdjustBalance_FullMethodName, WalletServiceServer.AdjustBalance)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "api/v1/services.go",
}

func RegisterWalletServiceServer(s grpc.ServiceRegistrar, srv WalletServiceServer) {
	s.RegisterService(&WalletService_ServiceDesc, srv)
}

type WalletServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewWalletServiceClient(cc grpc.ClientConnInterface) *WalletServiceClient {
	return &WalletServiceClient{cc: cc}
}

func (c *WalletServiceClient) GetBalance(ctx context.Context, in *GetBalanceRequest, opts ...grpc.CallOption) (*GetBalanceResponse, error) {
	return invoke[GetBalanceResponse](ctx, c.cc, WalletService_GetBalance_FullMethodName, in, opts)
}

func (c *WalletServiceClient) GetLedgerEntries(ctx context.Context, in *GetLedgerEntriesRequest, opts ...grpc.CallOption) (*GetLedgerEntriesResponse, error) {
	return invoke[GetLedgerEntriesResponse](ctx, c.cc, WalletService_GetLedgerEntries_FullMethodName, in, opts)
}

func (c *WalletServiceClient) AdjustBalance(ctx context.Context, in *AdjustBalanceRequest, opts ...grpc.CallOption) (*AdjustBalanceResponse, error) {
	return invoke[AdjustBalanceResponse](ctx, c.cc, WalletService_AdjustBalance_FullMethodName, in, opts)
}

// ReferralService

type ReferralServiceServer interface {
	ValidateCode(context.Context, *ValidateCodeRequest) (*ValidateCodeResponse, error)
	SaveReferralCode(context.Context, *SaveReferralCodeRequest) (*SaveReferralCodeResponse, error)
	GetUplineChain(context.Context, *GetUplineChainRequest) (*GetUplineChainResponse, error)
}

var ReferralService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "loyalty.v1.ReferralService",
	HandlerType: (*ReferralServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ValidateCode", Handler: unary(ReferralService_ValidateCode_FullMethodName, ReferralServiceServer.ValidateCode)},
		{MethodName: "SaveReferralCode", Handler: unary(ReferralService_SaveReferralCode_FullMethodName, ReferralServiceServer.SaveReferralCode)},
		{MethodName: "GetUplineChain", Handler: unary(ReferralService_GetUplineChain_FullMethodName, ReferralServiceServer.GetUplineChain)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "api/v1/services.go",
}

func RegisterReferralServiceServer(s grpc.ServiceRegistrar, srv ReferralServiceServer) {
	s.RegisterService(&ReferralService_ServiceDesc, srv)
}

type ReferralServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewReferralServiceClient(cc grpc.ClientConnInterface) *ReferralServiceClient {
	return &ReferralServiceClient{cc: cc}
}

func (c *ReferralServiceClient) ValidateCode(ctx context.Context, in *ValidateCodeRequest, opts ...grpc.CallOption) (*ValidateCodeResponse, error) {
	return invoke[ValidateCodeResponse](ctx, c.cc, ReferralService_ValidateCode_FullMethodName, in, opts)
}

func (c *ReferralServiceClient) SaveReferralCode(ctx context.Context, in *SaveReferralCodeRequest, opts ...grpc.CallOption) (*SaveReferralCodeResponse, error) {
	return invoke[SaveReferralCodeResponse](ctx, c.cc, ReferralService_SaveReferralCode_FullMethodName, in, opts)
}

func (c *ReferralServiceClient) GetUplineChain(ctx context.Context, in *GetUplineChainRequest, opts ...grpc.CallOption) (*GetUplineChainResponse, error) {
	return invoke[GetUplineChainResponse](ctx, c.cc, ReferralService_GetUplineChain_FullMethodName, in, opts)
}

// RestaurantService

type RestaurantServiceServer interface {
	GetRewardConfig(context.Context, *GetRewardConfigRequest) (*GetRewardConfigResponse, error)
	SetRewardConfig(context.Context, *SetRewardConfigRequest) (*SetRewardConfigResponse, error)
}

var RestaurantService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "loyalty.v1.RestaurantService",
	HandlerType: (*RestaurantServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetRewardConfig", Handler: unary(RestaurantService_GetRewardConfig_FullMethodName, RestaurantServiceServer.GetRewardConfig)},
		{MethodName: "SetRewardConfig", Handler: unary(RestaurantService_SetRewardConfig_FullMethodName, RestaurantServiceServer.SetRewardConfig)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "api/v1/services.go",
}

func RegisterRestaurantServiceServer(s grpc.ServiceRegistrar, srv RestaurantServiceServer) {
	s.RegisterService(&RestaurantService_ServiceDesc, srv)
}

type RestaurantServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewRestaurantServiceClient(cc grpc.ClientConnInterface) *RestaurantServiceClient {
	return &RestaurantServiceClient{cc: cc}
}

func (c *RestaurantServiceClient) GetRewardConfig(ctx context.Context, in *GetRewardConfigRequest, opts ...grpc.CallOption) (*GetRewardConfigResponse, error) {
	return invoke[GetRewardConfigResponse](ctx, c.cc, RestaurantService_GetRewardConfig_FullMethodName, in, opts)
}

func (c *RestaurantServiceClient) SetRewardConfig(ctx context.Context, in *SetRewardConfigRequest, opts ...grpc.CallOption) (*SetRewardConfigResponse, error) {
	return invoke[SetRewardConfigResponse](ctx, c.cc, RestaurantService_SetRewardConfig_FullMethodName, in, opts)
}

// ReceiptService

type ReceiptServiceServer interface {
	GetUploadUrl(context.Context, *GetUploadUrlRequest) (*GetUploadUrlResponse, error)
}

var ReceiptService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "loyalty.v1.ReceiptService",
	HandlerType: (*ReceiptServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetUploadUrl", Handler: unary(ReceiptService_GetUploadUrl_FullMethodName, ReceiptServiceServer.GetUploadUrl)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "api/v1/services.go",
}

func RegisterReceiptServiceServer(s grpc.ServiceRegistrar, srv ReceiptServiceServer) {
	s.RegisterService(&ReceiptService_ServiceDesc, srv)
}

type ReceiptServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewReceiptServiceClient(cc grpc.ClientConnInterface) *ReceiptServiceClient {
	return &ReceiptServiceClient{cc: cc}
}

func (c *ReceiptServiceClient) GetUploadUrl(ctx context.Context, in *GetUploadUrlRequest, opts ...grpc.CallOption) (*GetUploadUrlResponse, error) {
	return invoke[GetUploadUrlResponse](ctx, c.cc, ReceiptService_GetUploadUrl_FullMethodName, in, opts)
}
