package service

import (
	"context"
	"errors"
	"fmt"

	"loyalty-ledger-backend/internal/domain"
	"loyalty-ledger-backend/internal/logger"
	"loyalty-ledger-backend/internal/repository"
	"loyalty-ledger-backend/internal/utils"
)

type restaurantService struct {
	store repository.Store
	settings
}

func NewRestaurantService(store repository.Store, opts ...Option) RestaurantService {
	return &restaurantService{store: store, settings: newSettings(opts)}
}

func (s *restaurantService) GetRewardConfig(ctx context.Context, restaurantID int32) (*domain.RewardConfig, error) {
	if restaurantID <= 0 {
		return nil, fmt.Errorf("%w: restaurant is required", domain.ErrValidation)
	}
	return s.store.Restaurants().GetRewardConfig(ctx, restaurantID)
}

// SetRewardConfig replaces the restaurant's reward settings. Transactions
// already processed keep the snapshot they were priced with.
func (s *restaurantService) SetRewardConfig(ctx context.Context, cfg *domain.RewardConfig) error {
	logger.EnterMethod("restaurantService.SetRewardConfig", "restaurantID", cfg.RestaurantID)
	if err := validateStruct(cfg); err != nil {
		return err
	}
	if err := errors.Join(
		utils.ValidatePercent("guaranteed_discount_percent", cfg.GuaranteedDiscountPercent),
		utils.ValidatePercent("upline_reward_percent", cfg.UplineRewardPercent),
		utils.ValidatePercent("max_redemption_percent", cfg.MaxRedemptionPercent),
	); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if _, err := s.store.Restaurants().GetByID(ctx, cfg.RestaurantID); err != nil {
		logger.ExitMethodWithError("restaurantService.SetRewardConfig", err)
		return err
	}
	cfg.UpdatedAt = s.now()
	if err := s.store.Restaurants().UpsertRewardConfig(ctx, cfg); err != nil {
		logger.ExitMethodWithError("restaurantService.SetRewardConfig", err)
		return err
	}

	logger.Info("Reward config updated", "restaurantID", cfg.RestaurantID,
		"guaranteedDiscountPercent", cfg.GuaranteedDiscountPercent.String(),
		"uplineRewardPercent", cfg.UplineRewardPercent.String(),
		"maxRedemptionPercent", cfg.MaxRedemptionPercent.String(),
		"vcExpiryDays", cfg.VCExpiryDays)
	logger.ExitMethod("restaurantService.SetRewardConfig")
	return nil
}
