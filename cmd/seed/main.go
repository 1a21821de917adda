package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"nutriplan-backend/internal/config"
	pg "nutriplan-backend/internal/infra/db/postgres"
	"nutriplan-backend/internal/infra/logging"
	"nutriplan-backend/internal/usecase"
)

type seedRecipe struct {
	title        string
	mealType     string
	calories     int
	prepMinutes  int
	ingredients  string
	instructions string
}

var starterCatalog = []seedRecipe{
	{"Overnight Oats with Berries", "breakfast", 340, 10, "rolled oats, milk, blueberries, honey", "Mix oats and milk, refrigerate overnight, top with berries."},
	{"Greek Yogurt Parfait", "breakfast", 290, 5, "greek yogurt, granola, strawberries", "Layer yogurt, granola and fruit in a glass."},
	{"Spinach Omelette", "breakfast", 310, 15, "eggs, spinach, feta, olive oil", "Whisk eggs, fold in spinach and feta, cook until set."},
	{"Banana Peanut Toast", "breakfast", 360, 5, "wholegrain bread, peanut butter, banana", "Toast bread, spread peanut butter, top with banana slices."},
	{"Grilled Chicken Salad", "lunch", 420, 20, "chicken breast, mixed greens, cherry tomatoes, vinaigrette", "Grill chicken, slice over dressed greens."},
	{"Quinoa Veggie Bowl", "lunch", 450, 25, "quinoa, chickpeas, roasted vegetables, tahini", "Cook quinoa, top with chickpeas and vegetables, drizzle tahini."},
	{"Turkey Avocado Wrap", "lunch", 430, 10, "tortilla, turkey, avocado, lettuce", "Fill tortilla, roll tightly, halve."},
	{"Lentil Soup", "lunch", 380, 35, "red lentils, carrot, onion, cumin", "Simmer everything until lentils are soft, blend half."},
	{"Baked Salmon with Greens", "dinner", 520, 30, "salmon fillet, broccoli, lemon, olive oil", "Bake salmon at 200C for 15 minutes, steam broccoli."},
	{"Chicken Stir-Fry", "dinner", 480, 25, "chicken, bell pepper, soy sauce, rice", "Stir-fry chicken and vegetables, serve over rice."},
	{"Vegetarian Chili", "dinner", 440, 40, "black beans, tomato, corn, chili powder", "Simmer all ingredients for 30 minutes."},
	{"Pasta Primavera", "dinner", 510, 25, "wholewheat pasta, zucchini, parmesan, garlic", "Cook pasta, toss with sauteed vegetables and parmesan."},
	{"Apple with Almond Butter", "snack", 180, 2, "apple, almond butter", "Slice apple, serve with almond butter."},
	{"Hummus and Carrots", "snack", 160, 5, "hummus, carrot sticks", "Dip and enjoy."},
	{"Trail Mix", "snack", 210, 1, "almonds, raisins, dark chocolate chips", "Combine in a small bowl."},
	{"Cottage Cheese Bowl", "snack", 170, 3, "cottage cheese, pineapple", "Top cottage cheese with pineapple chunks."},
}

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, false)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, true)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connect failed")
	}
	defer pool.Close()

	recipeUC := usecase.NewRecipeUseCase(pg.NewRecipeRepo(pool), logger)

	// If the catalog already has recipes, do nothing.
	existing, err := recipeUC.List(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("list recipes failed")
	}
	if len(existing) > 0 {
		fmt.Printf("%d recipes already present. No changes.\n", len(existing))
		return
	}

	for _, r := range starterCatalog {
		if _, err := recipeUC.Create(ctx, r.title, r.mealType, r.calories, r.prepMinutes, r.ingredients, r.instructions, ""); err != nil {
			logger.Fatal().Err(err).Str("title", r.title).Msg("seed recipe failed")
		}
	}
	fmt.Printf("seeded %d recipes\n", len(starterCatalog))
}
