package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"shoplist-service/internal/auth"
	"shoplist-service/internal/models"
	"shoplist-service/internal/realtime"
	"shoplist-service/internal/repositories/postgres"
	"shoplist-service/internal/services"

	"github.com/spf13/cobra"
)

var (
	seedPassword string
	seedRecipe   bool
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create demo users, a shared list and a recipe",
	Long: `seed creates the users alice (owner), bob (editor) and carol (viewer),
a "Weekly groceries" list shared between them and a pancake recipe added to
the list. Existing users are reused, so the command can run more than once.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := connect()
		if err != nil {
			return err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("failed to get database instance: %w", err)
		}
		defer sqlDB.Close()

		userRepo := postgres.NewUserRepository(db)
		listRepo := postgres.NewListRepository(db)
		itemRepo := postgres.NewItemRepository(db)
		categoryRepo := postgres.NewCategoryRepository(db)

		// Seeding runs offline, so there is nobody to notify.
		var quiet realtime.MultiPublisher
		users := services.NewUserService(userRepo, auth.NewJWTAuthenticator("seed", 0))
		lists := services.NewListService(listRepo, postgres.NewCollaboratorRepository(db), userRepo)
		items := services.NewItemService(itemRepo, categoryRepo, lists, quiet)
		categories := services.NewCategoryService(categoryRepo, lists, quiet)
		recipes := services.NewRecipeService(postgres.NewRecipeRepository(db), itemRepo, categoryRepo, lists, nil, quiet)

		return seed(cmd.Context(), users, lists, items, categories, recipes)
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedPassword, "password", "123456", "password for every demo user")
	seedCmd.Flags().BoolVar(&seedRecipe, "recipe", true, "also create a recipe and add it to the list")
}

func seed(ctx context.Context, users *services.UserService, lists *services.ListService, items *services.ItemService, categories *services.CategoryService, recipes *services.RecipeService) error {
	slog.Info("Creating demo users...")
	ids := make(map[string]uint, 3)
	for _, name := range []string{"alice", "bob", "carol"} {
		id, err := ensureUser(ctx, users, name)
		if err != nil {
			return err
		}
		ids[name] = id
	}

	list, err := lists.CreateList(ctx, ids["alice"], &models.CreateListRequest{Name: "Weekly groceries"})
	if err != nil {
		return fmt.Errorf("failed to create list: %w", err)
	}
	slog.Info("Created list", "id", list.ID, "name", list.Name)

	for name, role := range map[string]string{"bob": models.RoleEditor, "carol": models.RoleViewer} {
		if _, err := lists.AddCollaborator(ctx, ids["alice"], list.ID, &models.AddCollaboratorRequest{UserID: ids[name], Role: role}); err != nil {
			return fmt.Errorf("failed to share list with %s: %w", name, err)
		}
	}

	for _, mapping := range []models.SetCategoryRequest{
		{ItemName: "milk", Category: "Dairy"},
		{ItemName: "bread", Category: "Bakery"},
		{ItemName: "apples", Category: "Produce"},
	} {
		if _, err := categories.SetCategory(ctx, ids["alice"], list.ID, &mapping); err != nil {
			return fmt.Errorf("failed to set category for %s: %w", mapping.ItemName, err)
		}
	}

	for _, req := range []models.CreateItemRequest{
		{Name: "Milk", Quantity: "2L"},
		{Name: "Bread"},
		{Name: "Apples", Quantity: "6"},
		{Name: "Coffee", Category: "Pantry"},
	} {
		if _, err := items.CreateItem(ctx, ids["bob"], list.ID, &req); err != nil {
			return fmt.Errorf("failed to create item %s: %w", req.Name, err)
		}
	}

	if seedRecipe {
		recipe, err := recipes.CreateRecipe(ctx, ids["alice"], &models.RecipeRequest{
			Name:     "Pancakes",
			Servings: 4,
			Ingredients: []models.IngredientRequest{
				{Name: "Flour", Quantity: "200g", Category: "Baking"},
				{Name: "Milk", Quantity: "300ml"},
				{Name: "Eggs", Quantity: "2", Category: "Dairy"},
			},
		})
		if err != nil {
			return fmt.Errorf("failed to create recipe: %w", err)
		}
		added, err := recipes.AddToList(ctx, ids["alice"], list.ID, recipe.ID)
		if err != nil {
			return fmt.Errorf("failed to add recipe to list: %w", err)
		}
		slog.Info("Added recipe to list", "recipe", recipe.Name, "items", added.Count)
	}

	slog.Info("Database seeding completed successfully", "listID", list.ID)
	return nil
}

// ensureUser registers name, or looks the user up when it already exists.
func ensureUser(ctx context.Context, users *services.UserService, name string) (uint, error) {
	email := name + "@shoplist.local"
	user, err := users.Register(ctx, &models.RegisterRequest{Username: name, Email: email, Password: seedPassword})
	if err == nil {
		slog.Info("Created user", "username", name, "id", user.ID)
		return user.ID, nil
	}
	if !errors.Is(err, services.ErrUserAlreadyExists) {
		return 0, fmt.Errorf("failed to create %s: %w", name, err)
	}

	login, err := users.Login(ctx, &models.LoginRequest{Email: email, Password: seedPassword})
	if err != nil {
		return 0, fmt.Errorf("user %s exists with a different password: %w", name, err)
	}
	slog.Info("Reusing existing user", "username", name, "id", login.User.ID)
	return login.User.ID, nil
}
