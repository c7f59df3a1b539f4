package grpc

import (
	"context"
	"strings"

	pb "loyalty-ledger-backend/api/v1"
	"loyalty-ledger-backend/internal/domain"
	"loyalty-ledger-backend/internal/service"
)

type WalletHandler struct {
	ledgerSvc service.LedgerService
}

func NewWalletHandler(ledgerSvc service.LedgerService) *WalletHandler {
	return &WalletHandler{ledgerSvc: ledgerSvc}
}

func (h *WalletHandler) GetBalance(ctx context.Context, req *pb.GetBalanceRequest) (*pb.GetBalanceResponse, error) {
	if err := requireSelfOrStaff(ctx, req.UserId, req.RestaurantId); err != nil {
		return nil, err
	}
	balance, err := h.ledgerSvc.GetBalance(ctx, req.UserId, req.RestaurantId)
	if err != nil {
		return nil, toStatus(ctx, "GetBalance", err)
	}
	return &pb.GetBalanceResponse{Balance: MapDomainBalanceToProto(balance)}, nil
}

func (h *WalletHandler) GetLedgerEntries(ctx context.Context, req *pb.GetLedgerEntriesRequest) (*pb.GetLedgerEntriesResponse, error) {
	if err := requireSelfOrStaff(ctx, req.UserId, req.RestaurantId); err != nil {
		return nil, err
	}
	entries, count, err := h.ledgerSvc.GetLedgerEntries(ctx, req.UserId, req.RestaurantId, req.Page, req.PageSize)
	if err != nil {
		return nil, toStatus(ctx, "GetLedgerEntries", err)
	}
	return &pb.GetLedgerEntriesResponse{
		Entries:    MapDomainLedgerEntriesToProto(entries),
		TotalCount: count,
	}, nil
}

func (h *WalletHandler) AdjustBalance(ctx context.Context, req *pb.AdjustBalanceRequest) (*pb.AdjustBalanceResponse, error) {
	claims, err := requireManager(ctx, req.RestaurantId)
	if err != nil {
		return nil, err
	}
	entry, err := h.ledgerSvc.AdjustBalance(ctx, &domain.AdjustRequest{
		UserID:       req.UserId,
		RestaurantID: req.RestaurantId,
		Amount:       req.Amount,
		Direction:    domain.AdjustDirection(strings.ToUpper(req.Direction)),
		Reason:       strings.TrimSpace(req.Reason),
		StaffID:      claims.StaffID,
	})
	if err != nil {
		return nil, toStatus(ctx, "AdjustBalance", err)
	}
	return &pb.AdjustBalanceResponse{Entry: MapDomainLedgerEntryToProto(entry)}, nil
}
