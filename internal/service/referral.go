package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"loyalty-ledger-backend/internal/domain"
	"loyalty-ledger-backend/internal/logger"
	"loyalty-ledger-backend/internal/repository"
	"loyalty-ledger-backend/internal/utils"
)

type referralService struct {
	store repository.Store
	settings
}

func NewReferralService(store repository.Store, opts ...Option) ReferralService {
	return &referralService{store: store, settings: newSettings(opts)}
}

func (s *referralService) ValidateCode(ctx context.Context, customerID, restaurantID int32, code string) (*domain.CodeValidation, error) {
	if customerID <= 0 || restaurantID <= 0 {
		return nil, fmt.Errorf("%w: customer and restaurant are required", domain.ErrValidation)
	}
	return checkCode(ctx, s.store, customerID, restaurantID, code, false)
}

func (s *referralService) SaveReferralCode(ctx context.Context, customerID, restaurantID int32, code string) (*domain.PendingReferral, error) {
	logger.EnterMethod("referralService.SaveReferralCode", "customerID", customerID, "restaurantID", restaurantID)
	if customerID <= 0 || restaurantID <= 0 {
		return nil, fmt.Errorf("%w: customer and restaurant are required", domain.ErrValidation)
	}
	if strings.TrimSpace(code) == "" {
		return nil, fmt.Errorf("%w: referral code is required", domain.ErrValidation)
	}

	var pending *domain.PendingReferral
	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		if _, err := tx.Users().GetByID(ctx, customerID); err != nil {
			return err
		}
		v, err := checkCode(ctx, tx, customerID, restaurantID, code, false)
		if err != nil {
			return err
		}
		if !v.Valid {
			if v.Reason == domain.CodeRejectAlreadyReferred {
				return domain.ErrAlreadyReferred
			}
			return fmt.Errorf("%w: referral code rejected: %s", domain.ErrValidation, v.Reason)
		}
		pending = &domain.PendingReferral{
			CustomerID:   customerID,
			RestaurantID: restaurantID,
			Code:         normalizeCode(code),
			UplineUserID: v.UplineUserID,
			Status:       domain.PendingReferralStatusPending,
			CreatedAt:    s.now(),
		}
		return tx.Referrals().SavePending(ctx, pending)
	})
	if err != nil {
		logger.ExitMethodWithError("referralService.SaveReferralCode", err)
		return nil, err
	}

	logger.Info("Referral code saved", "customerID", customerID, "restaurantID", restaurantID, "uplineUserID", pending.UplineUserID)
	logger.ExitMethod("referralService.SaveReferralCode")
	return pending, nil
}

func (s *referralService) GetUplineChain(ctx context.Context, customerID, restaurantID int32) ([]domain.UplineLink, error) {
	return resolveUplines(ctx, s.store, restaurantID, customerID, domain.MaxReferralLevels)
}

func normalizeCode(code string) string {
	return strings.TrimSpace(code)
}

// checkCode runs the validation chain in order: restaurant, code owner,
// self-referral, cycle, existing referral. A pending code for the customer
// counts as an existing referral unless converting is set.
func checkCode(ctx context.Context, repos repository.Repositories, customerID, restaurantID int32, code string, converting bool) (*domain.CodeValidation, error) {
	reject := func(r domain.CodeRejectReason) (*domain.CodeValidation, error) {
		return &domain.CodeValidation{Valid: false, Reason: r}, nil
	}

	restaurant, err := repos.Restaurants().GetByID(ctx, restaurantID)
	if errors.Is(err, domain.ErrNotFound) {
		return reject(domain.CodeRejectRestaurantNotFound)
	}
	if err != nil {
		return nil, err
	}
	if !restaurant.Active {
		return reject(domain.CodeRejectRestaurantNotFound)
	}

	code = normalizeCode(code)
	if code == "" {
		return reject(domain.CodeRejectUnknownCode)
	}
	upline, err := repos.Users().GetByReferralCode(ctx, code)
	if errors.Is(err, domain.ErrNotFound) {
		return reject(domain.CodeRejectUnknownCode)
	}
	if err != nil {
		return nil, err
	}

	if upline.ID == customerID {
		return reject(domain.CodeRejectSelfReferral)
	}

	cycle, err := reachesUpward(ctx, repos, restaurantID, upline.ID, customerID)
	if err != nil {
		return nil, err
	}
	if cycle {
		return reject(domain.CodeRejectCycle)
	}

	edge, err := repos.Referrals().GetEdge(ctx, customerID, restaurantID)
	if err != nil {
		return nil, err
	}
	if edge != nil {
		return reject(domain.CodeRejectAlreadyReferred)
	}
	if !converting {
		p, err := repos.Referrals().GetPending(ctx, customerID, restaurantID)
		if err != nil {
			return nil, err
		}
		if p != nil {
			return reject(domain.CodeRejectAlreadyReferred)
		}
	}

	return &domain.CodeValidation{Valid: true, UplineUserID: upline.ID}, nil
}

// reachesUpward reports whether target is from or one of from's transitive
// uplines at the restaurant.
func reachesUpward(ctx context.Context, repos repository.Repositories, restaurantID, from, target int32) (bool, error) {
	visited := make(map[int32]bool)
	for cur := from; ; {
		if cur == target {
			return true, nil
		}
		if visited[cur] {
			logger.Defect(ctx, "Referral cycle found in stored edges", "restaurantID", restaurantID, "userID", cur)
			return false, fmt.Errorf("%w: referral cycle through user %d at restaurant %d", domain.ErrInvariantViolation, cur, restaurantID)
		}
		visited[cur] = true

		edge, err := repos.Referrals().GetEdge(ctx, cur, restaurantID)
		if err != nil {
			return false, err
		}
		if edge == nil {
			return false, nil
		}
		cur = edge.UplineUserID
	}
}

// resolveUplines walks at most maxLevels edges up from the downline.
func resolveUplines(ctx context.Context, repos repository.Repositories, restaurantID, downlineID int32, maxLevels int32) ([]domain.UplineLink, error) {
	if maxLevels <= 0 || maxLevels > domain.MaxReferralLevels {
		maxLevels = domain.MaxReferralLevels
	}
	visited := map[int32]bool{downlineID: true}
	links := make([]domain.UplineLink, 0, maxLevels)
	cur := downlineID
	for level := int32(1); level <= maxLevels; level++ {
		edge, err := repos.Referrals().GetEdge(ctx, cur, restaurantID)
		if err != nil {
			return nil, err
		}
		if edge == nil {
			break
		}
		if visited[edge.UplineUserID] {
			logger.Defect(ctx, "Referral cycle found while resolving uplines",
				"restaurantID", restaurantID, "downlineUserID", downlineID, "level", level)
			return nil, fmt.Errorf("%w: referral cycle above user %d at restaurant %d", domain.ErrInvariantViolation, downlineID, restaurantID)
		}
		visited[edge.UplineUserID] = true
		links = append(links, domain.UplineLink{UplineUserID: edge.UplineUserID, Level: level})
		cur = edge.UplineUserID
	}
	return links, nil
}

// ResolveRewards returns the flat-rate reward of every resolvable upline of
// the downline, level 1 first. Levels without an upline, and zero rewards,
// are omitted.
func ResolveRewards(ctx context.Context, repos repository.Repositories, restaurantID, downlineID int32, billAmount int64, rewardPercent decimal.Decimal, maxLevels int32) ([]domain.AttributedReward, error) {
	amount := utils.CalculateUplineReward(billAmount, rewardPercent)
	if amount <= 0 {
		return nil, nil
	}
	links, err := resolveUplines(ctx, repos, restaurantID, downlineID, maxLevels)
	if err != nil {
		return nil, err
	}
	rewards := make([]domain.AttributedReward, 0, len(links))
	for _, l := range links {
		rewards = append(rewards, domain.AttributedReward{UplineUserID: l.UplineUserID, Level: l.Level, Amount: amount})
	}
	return rewards, nil
}

// convertPendingReferral turns the customer's saved code into an edge on
// their first transaction. An edge to the same upline already in place
// converts the code without a new edge. A code that no longer validates is
// rejected and the checkout continues without an edge.
func convertPendingReferral(ctx context.Context, tx repository.Tx, customerID, restaurantID int32, at time.Time) (bool, error) {
	p, err := tx.Referrals().GetPending(ctx, customerID, restaurantID)
	if err != nil || p == nil || p.Status != domain.PendingReferralStatusPending {
		return false, err
	}

	existing, err := tx.Referrals().GetEdge(ctx, customerID, restaurantID)
	if err != nil {
		return false, err
	}
	if existing != nil && existing.UplineUserID == p.UplineUserID {
		return false, tx.Referrals().ResolvePending(ctx, customerID, restaurantID, domain.PendingReferralStatusConverted, "", at)
	}

	v, err := checkCode(ctx, tx, customerID, restaurantID, p.Code, true)
	if err != nil {
		return false, err
	}
	if !v.Valid {
		logger.Info("Pending referral code rejected at first visit",
			"customerID", customerID, "restaurantID", restaurantID, "reason", v.Reason)
		return false, tx.Referrals().ResolvePending(ctx, customerID, restaurantID, domain.PendingReferralStatusRejected, string(v.Reason), at)
	}

	edge := &domain.ReferralEdge{
		DownlineUserID: customerID,
		UplineUserID:   v.UplineUserID,
		RestaurantID:   restaurantID,
		Level:          1,
		CreatedAt:      at,
	}
	created, err := tx.Referrals().CreateEdge(ctx, edge)
	if err != nil {
		return false, err
	}
	if err := tx.Referrals().ResolvePending(ctx, customerID, restaurantID, domain.PendingReferralStatusConverted, "", at); err != nil {
		return false, err
	}
	return created, nil
}
