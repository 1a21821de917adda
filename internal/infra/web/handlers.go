package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"nutriplan-backend/internal/domain"
	"nutriplan-backend/internal/domain/model"
	"nutriplan-backend/internal/usecase"
)

// The expected JSON request body for creating or updating a recipe.
type recipeRequest struct {
	Title        string `json:"title"`
	MealType     string `json:"meal_type"`
	Calories     int    `json:"calories"`
	PrepMinutes  int    `json:"prep_minutes"`
	Ingredients  string `json:"ingredients"`
	Instructions string `json:"instructions"`
	ImageURL     string `json:"image_url"`
}

type recipeResponse struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	MealType     string `json:"meal_type"`
	Calories     int    `json:"calories"`
	PrepMinutes  int    `json:"prep_minutes"`
	Ingredients  string `json:"ingredients"`
	Instructions string `json:"instructions"`
	ImageURL     string `json:"image_url,omitempty"`
}

func toRecipeResponse(rec *model.Recipe) recipeResponse {
	return recipeResponse{
		ID:           rec.ID,
		Title:        rec.Title,
		MealType:     string(rec.MealType),
		Calories:     rec.Calories,
		PrepMinutes:  rec.PrepMinutes,
		Ingredients:  rec.Ingredients,
		Instructions: rec.Instructions,
		ImageURL:     rec.ImageURL,
	}
}

func recipesCreateHandler(recipeUC usecase.RecipeUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req recipeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		rec, err := recipeUC.Create(ctx, req.Title, req.MealType, req.Calories, req.PrepMinutes,
			req.Ingredients, req.Instructions, req.ImageURL)
		if err != nil {
			if errors.Is(err, domain.ErrInvalidArgument) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, "Failed to create recipe", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(toRecipeResponse(rec))
	}
}

func recipesListHandler(recipeUC usecase.RecipeUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recs, err := recipeUC.List(r.Context())
		if err != nil {
			http.Error(w, "Failed to list recipes", http.StatusInternalServerError)
			return
		}
		out := make([]recipeResponse, 0, len(recs))
		for _, rec := range recs {
			out = append(out, toRecipeResponse(rec))
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	}
}

func recipesGetHandler(recipeUC usecase.RecipeUseCase, id string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := recipeUC.Get(r.Context(), id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				http.Error(w, "Recipe not found", http.StatusNotFound)
				return
			}
			http.Error(w, "Failed to get recipe", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(toRecipeResponse(rec))
	}
}

func recipesUpdateHandler(recipeUC usecase.RecipeUseCase, id string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req recipeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		rec := &model.Recipe{
			ID:           id,
			Title:        req.Title,
			MealType:     model.MealType(req.MealType),
			Calories:     req.Calories,
			PrepMinutes:  req.PrepMinutes,
			Ingredients:  req.Ingredients,
			Instructions: req.Instructions,
			ImageURL:     req.ImageURL,
		}
		if err := recipeUC.Update(ctx, rec); err != nil {
			switch {
			case errors.Is(err, domain.ErrInvalidArgument):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, domain.ErrNotFound):
				http.Error(w, "Recipe not found", http.StatusNotFound)
			default:
				http.Error(w, "Failed to update recipe", http.StatusInternalServerError)
			}
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(toRecipeResponse(rec))
	}
}

func recipesDeleteHandler(recipeUC usecase.RecipeUseCase, id string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := recipeUC.Delete(r.Context(), id); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				http.Error(w, "Recipe not found", http.StatusNotFound)
				return
			}
			http.Error(w, "Failed to delete recipe", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// statsHandler serves operator dashboard totals.
func statsHandler(statsUC usecase.StatsUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		totals, err := statsUC.Totals(r.Context())
		if err != nil {
			http.Error(w, "Failed to get totals", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(totals)
	}
}
