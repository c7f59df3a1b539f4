package grpc

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	pb "loyalty-ledger-backend/api/v1"
	"loyalty-ledger-backend/internal/domain"
	"loyalty-ledger-backend/internal/service"
)

type CheckoutHandler struct {
	checkoutSvc service.CheckoutService
}

func NewCheckoutHandler(checkoutSvc service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkoutSvc: checkoutSvc}
}

func (h *CheckoutHandler) ProcessCheckout(ctx context.Context, req *pb.ProcessCheckoutRequest) (*pb.ProcessCheckoutResponse, error) {
	claims, err := requireStaff(ctx, req.RestaurantId)
	if err != nil {
		return nil, err
	}
	res, err := h.checkoutSvc.ProcessCheckout(ctx, &domain.CheckoutRequest{
		CustomerID:            req.CustomerId,
		RestaurantID:          req.RestaurantId,
		BranchID:              req.BranchId,
		StaffID:               claims.StaffID,
		BillAmount:            req.BillAmount,
		RequestedRedeemAmount: req.RequestedRedeemAmount,
		ReceiptRef:            req.ReceiptRef,
		Notes:                 req.Notes,
	})
	if err != nil {
		return nil, toStatus(ctx, "ProcessCheckout", err)
	}
	return &pb.ProcessCheckoutResponse{
		TransactionId: res.TransactionID,
		Breakdown:     MapDomainBreakdownToProto(&res.Breakdown),
	}, nil
}

func (h *CheckoutHandler) VoidTransaction(ctx context.Context, req *pb.VoidTransactionRequest) (*pb.VoidTransactionResponse, error) {
	detail, err := h.staffTransaction(ctx, "VoidTransaction", req.TransactionId)
	if err != nil {
		return nil, err
	}
	claims, err := requireManager(ctx, detail.Transaction.RestaurantID)
	if err != nil {
		return nil, err
	}
	txn, err := h.checkoutSvc.VoidTransaction(ctx, &domain.VoidRequest{
		TransactionID: req.TransactionId,
		Reason:        req.Reason,
		VoidedBy:      claims.StaffID,
	})
	if err != nil {
		return nil, toStatus(ctx, "VoidTransaction", err)
	}
	return &pb.VoidTransactionResponse{Transaction: MapDomainTransactionToProto(txn)}, nil
}

func (h *CheckoutHandler) GetTransaction(ctx context.Context, req *pb.GetTransactionRequest) (*pb.GetTransactionResponse, error) {
	detail, err := h.staffTransaction(ctx, "GetTransaction", req.TransactionId)
	if err != nil {
		return nil, err
	}
	return &pb.GetTransactionResponse{
		Transaction: MapDomainTransactionToProto(&detail.Transaction),
		Entries:     MapDomainLedgerEntriesToProto(detail.Entries),
	}, nil
}

func (h *CheckoutHandler) GetTransactionHistory(ctx context.Context, req *pb.GetTransactionHistoryRequest) (*pb.GetTransactionHistoryResponse, error) {
	if err := requireSelfOrStaff(ctx, req.CustomerId, req.RestaurantId); err != nil {
		return nil, err
	}
	txns, count, err := h.checkoutSvc.GetTransactionHistory(ctx, req.CustomerId, req.RestaurantId, req.Page, req.PageSize)
	if err != nil {
		return nil, toStatus(ctx, "GetTransactionHistory", err)
	}
	return &pb.GetTransactionHistoryResponse{
		Transactions: MapDomainTransactionsToProto(txns),
		TotalCount:   count,
	}, nil
}

// staffTransaction loads a transaction for staff of the restaurant it belongs
// to. Transactions of other restaurants are reported exactly like missing ones.
func (h *CheckoutHandler) staffTransaction(ctx context.Context, method, id string) (*domain.TransactionDetail, error) {
	claims, err := GetClaimsFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if !claims.IsStaffOf(claims.RestaurantID) {
		return nil, status.Error(codes.PermissionDenied, "staff access required")
	}
	detail, err := h.checkoutSvc.GetTransaction(ctx, id)
	if errors.Is(err, domain.ErrNotFound) || (err == nil && detail.Transaction.RestaurantID != claims.RestaurantID) {
		return nil, status.Errorf(codes.NotFound, "transaction %s not found", id)
	}
	if err != nil {
		return nil, toStatus(ctx, method, err)
	}
	return detail, nil
}
