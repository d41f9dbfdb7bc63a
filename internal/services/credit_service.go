package services

import (
	"context"

	"tradeboard_backend/internal/dto"
	"tradeboard_backend/internal/models"
	"tradeboard_backend/internal/repositories"
	"tradeboard_backend/pkg/apperrors"
)

type CreditService interface {
	Balance(ctx context.Context, userID string) (*dto.CreditBalanceResponse, error)

	// Consume spends credits after the lazy monthly refresh, draining
	// the monthly pool before the purchased one. Short balances fail the
	// whole spend; there is no partial debit.
	Consume(ctx context.Context, userID string, amount int) (*dto.CreditBalanceResponse, error)

	Packs(currency string) []dto.CreditPackResponse
}

type creditService struct {
	creditRepo   repositories.CreditRepository
	entitlements EntitlementService
}

func NewCreditService(creditRepo repositories.CreditRepository, entitlements EntitlementService) CreditService {
	return &creditService{creditRepo: creditRepo, entitlements: entitlements}
}

func (s *creditService) Balance(ctx context.Context, userID string) (*dto.CreditBalanceResponse, error) {
	balance, err := s.entitlements.Balance(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toBalanceResponse(balance), nil
}

func (s *creditService) Consume(ctx context.Context, userID string, amount int) (*dto.CreditBalanceResponse, error) {
	// Resolve first so a stale monthly pool is topped up before the
	// check, not after the user was refused.
	if _, err := s.entitlements.Resolve(ctx, userID); err != nil {
		return nil, err
	}
	balance, err := s.creditRepo.Consume(userID, amount)
	if err != nil {
		if err == repositories.ErrInsufficientCredits {
			return nil, apperrors.ErrInsufficientCredits()
		}
		return nil, apperrors.InternalError(err)
	}
	return toBalanceResponse(balance), nil
}

func (s *creditService) Packs(currency string) []dto.CreditPackResponse {
	packs := make([]dto.CreditPackResponse, 0, 3)
	for _, pack := range []models.CreditPack{models.CreditPackTen, models.CreditPackTwentyFive, models.CreditPackFifty} {
		info, _ := models.PackInfo(pack)
		packs = append(packs, dto.CreditPackResponse{
			Pack:       string(pack),
			Credits:    info.Credits,
			PriceCents: info.PriceCents,
			Currency:   currency,
		})
	}
	return packs
}

func toBalanceResponse(balance *models.CreditBalance) *dto.CreditBalanceResponse {
	return &dto.CreditBalanceResponse{
		MonthlyCredits:     balance.MonthlyCredits,
		PurchasedCredits:   balance.PurchasedCredits,
		Total:              balance.Total(),
		LastMonthlyRefresh: balance.LastMonthlyRefresh,
	}
}
