package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"asser-platform/internal/config"
	"asser-platform/internal/farm"
	"asser-platform/internal/model"
	"asser-platform/internal/pkg/lock"
	"asser-platform/internal/repository"
)

// FarmView is a farm as returned to its owner.
type FarmView struct {
	*model.FarmState
	Harvested decimal.Decimal `json:"harvested"` // credited by this read, usually zero
}

// FarmService runs the virtual farm.
type FarmService struct {
	base
	rules farm.Rules
}

// NewFarmService creates a new FarmService instance.
func NewFarmService(store repository.Store, locks *lock.UserLock, cfg config.FarmConfig) *FarmService {
	return &FarmService{
		base: newBase(store, locks),
		rules: farm.Rules{
			MaxPlants:        cfg.MaxPlants,
			HarvestInterval:  cfg.HarvestInterval,
			WateringInterval: cfg.WateringInterval,
		},
	}
}

// Catalog lists the plants that can be bought.
func (s *FarmService) Catalog() []farm.PlantConfig {
	return farm.AllPlants()
}

// loadFarm returns the user's farm, creating it when missing.
func (s *FarmService) loadFarm(ctx context.Context, q repository.Queries, userID int64, now time.Time) (*model.FarmState, error) {
	state, err := q.Farms().GetForUpdate(ctx, userID)
	if errors.Is(err, repository.ErrFarmNotFound) {
		state = farm.NewState(userID, now)
		if err := q.Farms().Create(ctx, state); err != nil {
			return nil, err
		}
		return state, nil
	}
	return state, err
}

// settle credits a due harvest. It must run before any other change to the
// farm so production is computed from the plants that earned it.
func (s *FarmService) settle(ctx context.Context, q repository.Queries, state *model.FarmState, bal *model.Balance, now time.Time) (decimal.Decimal, error) {
	amount, ok := s.rules.Harvest(state, now)
	if !ok {
		return decimal.Zero, nil
	}

	bal.Add(model.CurrencyAsser, amount)
	err := record(ctx, q, &model.Transaction{
		UserID:      state.UserID,
		Type:        model.TxTypeFarmHarvest,
		ToCurrency:  model.CurrencyAsser,
		ToAmount:    amount,
		Description: fmt.Sprintf("Farm harvest %s AC from %d plants", amount.String(), len(state.PlantedItems)),
	})
	return amount, err
}

// Plant buys a plant of the given size with AsserCoin.
func (s *FarmService) Plant(ctx context.Context, userID int64, size model.PlantSize) (*FarmView, error) {
	cfg, ok := farm.GetPlant(size)
	if !ok {
		return nil, farm.ErrUnknownSize
	}

	var view *FarmView
	err := s.mutate(ctx, []int64{userID}, func(q repository.Queries) error {
		now := s.now()
		state, err := s.loadFarm(ctx, q, userID, now)
		if err != nil {
			return err
		}
		if err := s.rules.CanPlant(state); err != nil {
			return err
		}
		bal, err := q.Balances().GetForUpdate(ctx, userID)
		if err != nil {
			return err
		}

		harvested, err := s.settle(ctx, q, state, bal, now)
		if err != nil {
			return err
		}
		if err := debit(bal, model.CurrencyAsser, cfg.Price); err != nil {
			return err
		}
		p, err := s.rules.Plant(state, cfg, uuid.NewString(), now)
		if err != nil {
			return err
		}
		s.rules.RefreshWaterNeeds(state, now)

		if err := q.Balances().Update(ctx, bal); err != nil {
			return err
		}
		if err := q.Farms().Update(ctx, state); err != nil {
			return err
		}
		err = record(ctx, q, &model.Transaction{
			UserID:       userID,
			Type:         model.TxTypePurchase,
			FromCurrency: model.CurrencyAsser,
			FromAmount:   cfg.Price,
			Reference:    p.ID,
			Description:  fmt.Sprintf("Bought %s for %s AC", cfg.Name, cfg.Price.String()),
		})
		view = &FarmView{FarmState: state, Harvested: harvested}
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Int64("user_id", userID).
		Str("size", string(size)).
		Int("plants", len(view.PlantedItems)).
		Msg("Plant purchased")
	return view, nil
}

// State returns the farm, crediting a due harvest first. Reading again
// before the next harvest time never credits twice.
func (s *FarmService) State(ctx context.Context, userID int64) (*FarmView, error) {
	var view *FarmView
	err := s.mutate(ctx, []int64{userID}, func(q repository.Queries) error {
		now := s.now()
		state, err := s.loadFarm(ctx, q, userID, now)
		if err != nil {
			return err
		}
		view = &FarmView{FarmState: state, Harvested: decimal.Zero}

		if s.rules.HarvestDue(state, now) {
			bal, err := q.Balances().GetForUpdate(ctx, userID)
			if err != nil {
				return err
			}
			if view.Harvested, err = s.settle(ctx, q, state, bal, now); err != nil {
				return err
			}
			if err := q.Balances().Update(ctx, bal); err != nil {
				return err
			}
			if err := q.Farms().Update(ctx, state); err != nil {
				return err
			}
		}

		s.rules.RefreshWaterNeeds(state, now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if view.Harvested.IsPositive() {
		log.Info().
			Int64("user_id", userID).
			Str("amount", view.Harvested.String()).
			Msg("Farm harvested")
	}
	return view, nil
}

// Water waters every plant. It costs nothing and is allowed once per
// watering interval.
func (s *FarmService) Water(ctx context.Context, userID int64) (*FarmView, error) {
	var view *FarmView
	err := s.mutate(ctx, []int64{userID}, func(q repository.Queries) error {
		now := s.now()
		state, err := s.loadFarm(ctx, q, userID, now)
		if err != nil {
			return err
		}
		if err := s.rules.Water(state, now); err != nil {
			return err
		}
		if err := q.Farms().Update(ctx, state); err != nil {
			return err
		}
		view = &FarmView{FarmState: state, Harvested: decimal.Zero}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Int64("user_id", userID).Msg("Farm watered")
	return view, nil
}
