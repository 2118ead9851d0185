package sync

import (
	"context"
	"encoding/json"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"

	"github.com/warungclub/warung/internal/catalog"
)

// CatalogSources bundles the central-store repos the master-data warmup
// reads from.
type CatalogSources struct {
	MenuItems   catalog.MenuItemRepo
	Categories  catalog.CategoryRepo
	Ingredients catalog.IngredientRepo
	Profiles    catalog.ProfileRepo
}

// MasterDataWarmupFunc returns a lifecycle OnStart-compatible function that
// fills the syncer: first from the durable local cache, then from the
// central store when it is reachable. A store failure is not fatal; the
// terminal keeps serving the cached copy until the next push arrives.
func MasterDataWarmupFunc(branchID uuid.UUID, syncer *MasterDataSyncer, src CatalogSources, logger apt.Logger) func(ctx context.Context) error {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}

	return func(ctx context.Context) error {
		if err := syncer.Warm(); err != nil {
			logger.Error("cannot warm master data from local cache", "error", err)
		}

		seed := func(kind string, v interface{}, err error) {
			if err != nil {
				logger.Info("master data kind unavailable from store", "kind", kind, "error", err)
				return
			}
			payload, err := json.Marshal(v)
			if err != nil {
				logger.Error("cannot marshal master data", "kind", kind, "error", err)
				return
			}
			syncer.Seed(kind, payload)
		}

		items, err := src.MenuItems.ListByBranch(ctx, branchID)
		seed(catalog.KindMenu, items, err)

		cats, err := src.Categories.ListByBranch(ctx, branchID)
		seed(catalog.KindCategories, cats, err)

		ings, err := src.Ingredients.ListByBranch(ctx, branchID)
		seed(catalog.KindIngredients, ings, err)

		profile, err := src.Profiles.Get(ctx, branchID)
		seed(catalog.KindProfile, profile, err)

		return nil
	}
}
