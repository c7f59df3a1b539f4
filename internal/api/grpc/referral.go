package grpc

import (
	"context"

	pb "loyalty-ledger-backend/api/v1"
	"loyalty-ledger-backend/internal/service"
)

type ReferralHandler struct {
	referralSvc service.ReferralService
}

func NewReferralHandler(referralSvc service.ReferralService) *ReferralHandler {
	return &ReferralHandler{referralSvc: referralSvc}
}

func (h *ReferralHandler) ValidateCode(ctx context.Context, req *pb.ValidateCodeRequest) (*pb.ValidateCodeResponse, error) {
	if err := requireSelfOrStaff(ctx, req.CustomerId, req.RestaurantId); err != nil {
		return nil, err
	}
	v, err := h.referralSvc.ValidateCode(ctx, req.CustomerId, req.RestaurantId, req.Code)
	if err != nil {
		return nil, toStatus(ctx, "ValidateCode", err)
	}
	return &pb.ValidateCodeResponse{
		Valid:        v.Valid,
		UplineUserId: v.UplineUserID,
		Reason:       string(v.Reason),
	}, nil
}

func (h *ReferralHandler) SaveReferralCode(ctx context.Context, req *pb.SaveReferralCodeRequest) (*pb.SaveReferralCodeResponse, error) {
	if err := requireSelfOrStaff(ctx, req.CustomerId, req.RestaurantId); err != nil {
		return nil, err
	}
	p, err := h.referralSvc.SaveReferralCode(ctx, req.CustomerId, req.RestaurantId, req.Code)
	if err != nil {
		return nil, toStatus(ctx, "SaveReferralCode", err)
	}
	return &pb.SaveReferralCodeResponse{Pending: MapDomainPendingReferralToProto(p)}, nil
}

func (h *ReferralHandler) GetUplineChain(ctx context.Context, req *pb.GetUplineChainRequest) (*pb.GetUplineChainResponse, error) {
	if err := requireSelfOrStaff(ctx, req.CustomerId, req.RestaurantId); err != nil {
		return nil, err
	}
	chain, err := h.referralSvc.GetUplineChain(ctx, req.CustomerId, req.RestaurantId)
	if err != nil {
		return nil, toStatus(ctx, "GetUplineChain", err)
	}
	return &pb.GetUplineChainResponse{Uplines: MapDomainUplinesToProto(chain)}, nil
}
