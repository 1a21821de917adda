package usecase

import (
	"context"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"nutriplan-backend/internal/domain/model"
	"nutriplan-backend/internal/domain/ports/repository"
)

// Compile-time check
var _ RecipeUseCase = (*recipeUC)(nil)

// RecipeUseCase manages the admin-side recipe catalog.
type RecipeUseCase interface {
	Create(ctx context.Context, title, mealType string, calories, prepMinutes int, ingredients, instructions, imageURL string) (*model.Recipe, error)
	Update(ctx context.Context, recipe *model.Recipe) error
	Get(ctx context.Context, id string) (*model.Recipe, error)
	List(ctx context.Context) ([]*model.Recipe, error)
	Delete(ctx context.Context, id string) error
}

type recipeUC struct {
	repo repository.RecipeRepository
	log  *zerolog.Logger
}

func NewRecipeUseCase(repo repository.RecipeRepository, logger *zerolog.Logger) *recipeUC {
	l := logger.With().Str("component", "RecipeUC").Logger()
	return &recipeUC{repo: repo, log: &l}
}

func (uc *recipeUC) Create(ctx context.Context, title, mealType string, calories, prepMinutes int, ingredients, instructions, imageURL string) (*model.Recipe, error) {
	mt, err := model.ParseMealType(mealType)
	if err != nil {
		return nil, err
	}
	recipe, err := model.NewRecipe(ulid.Make().String(), title, mt, calories, prepMinutes, ingredients, instructions, imageURL)
	if err != nil {
		return nil, err
	}
	if err := uc.repo.Save(ctx, repository.NoTX, recipe); err != nil {
		return nil, err
	}
	uc.log.Info().Str("recipe_id", recipe.ID).Str("meal_type", string(mt)).Msg("recipe created")
	return recipe, nil
}

func (uc *recipeUC) Update(ctx context.Context, recipe *model.Recipe) error {
	if err := recipe.Validate(); err != nil {
		return err
	}
	return uc.repo.Save(ctx, repository.NoTX, recipe)
}

func (uc *recipeUC) Get(ctx context.Context, id string) (*model.Recipe, error) {
	return uc.repo.FindByID(ctx, repository.NoTX, id)
}

func (uc *recipeUC) List(ctx context.Context) ([]*model.Recipe, error) {
	return uc.repo.ListAll(ctx, repository.NoTX)
}

func (uc *recipeUC) Delete(ctx context.Context, id string) error {
	return uc.repo.Delete(ctx, repository.NoTX, id)
}
