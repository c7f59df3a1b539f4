package grpc

import (
	"context"

	pb "loyalty-ledger-backend/api/v1"
	"loyalty-ledger-backend/internal/service"
)

type RestaurantHandler struct {
	restaurantSvc service.RestaurantService
}

func NewRestaurantHandler(restaurantSvc service.RestaurantService) *RestaurantHandler {
	return &RestaurantHandler{restaurantSvc: restaurantSvc}
}

func (h *RestaurantHandler) GetRewardConfig(ctx context.Context, req *pb.GetRewardConfigRequest) (*pb.GetRewardConfigResponse, error) {
	if _, err := requireStaff(ctx, req.RestaurantId); err != nil {
		return nil, err
	}
	cfg, err := h.restaurantSvc.GetRewardConfig(ctx, req.RestaurantId)
	if err != nil {
		return nil, toStatus(ctx, "GetRewardConfig", err)
	}
	return &pb.GetRewardConfigResponse{Config: MapDomainRewardConfigToProto(cfg)}, nil
}

func (h *RestaurantHandler) SetRewardConfig(ctx context.Context, req *pb.SetRewardConfigRequest) (*pb.SetRewardConfigResponse, error) {
	cfg, err := MapProtoRewardConfigToDomain(req.Config)
	if err != nil {
		return nil, toStatus(ctx, "SetRewardConfig", err)
	}
	if _, err := requireManager(ctx, cfg.RestaurantID); err != nil {
		return nil, err
	}
	if err := h.restaurantSvc.SetRewardConfig(ctx, cfg); err != nil {
		return nil, toStatus(ctx, "SetRewardConfig", err)
	}
	return &pb.SetRewardConfigResponse{Config: MapDomainRewardConfigToProto(cfg)}, nil
}
