// Command seed loads the default staff accounts and a starter catalog. It is
// safe to run repeatedly: existing records are kept and staff passwords are
// reset to the configured values.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"go-vetpos/internal/config"
	"go-vetpos/internal/events"
	"go-vetpos/internal/model"
	"go-vetpos/internal/repository"
	"go-vetpos/internal/service"
	"go-vetpos/pkg/database"
	"go-vetpos/pkg/logger"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type staff struct {
	email, name, password string
	role                  model.Role
}

type starter struct {
	name, category string
	stock          int
	cost, price    int64
}

var seedActor = service.Actor{ID: "seed", Name: "Seed", Role: model.RoleAdmin}

func main() {
	envErr := godotenv.Load()
	cfg := config.Load()
	log := logger.New(cfg.LogLevel)
	if envErr != nil {
		log.Warn(".env file not found, relying on system env")
	}

	db, err := database.ConnectDB(cfg.Database(), log)
	if err != nil {
		log.Error("database unavailable", "err", err)
		os.Exit(1)
	}
	defer database.Close(db)
	if err := repository.Migrate(db); err != nil {
		log.Error("migration failed", "err", err)
		os.Exit(1)
	}

	ctx := context.Background()
	users := []staff{
		{"admin@vetpos.local", "Administrator", getenv("SEED_ADMIN_PASSWORD", "admin123"), model.RoleAdmin},
		{"kasir@vetpos.local", "Kasir", getenv("SEED_CASHIER_PASSWORD", "kasir123"), model.RoleCashier},
	}
	if err := seedUsers(ctx, repository.NewUserRepo(db), users, log); err != nil {
		log.Error("seeding users failed", "err", err)
		os.Exit(1)
	}

	catalog := service.NewCatalogService(
		repository.NewCategoryRepo(db),
		repository.NewSupplierRepo(db),
		repository.NewProductRepo(db),
		events.Discard(),
		log,
	)
	if err := seedCatalog(ctx, catalog, log); err != nil {
		log.Error("seeding catalog failed", "err", err)
		os.Exit(1)
	}
	log.Info("seed complete")
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func seedUsers(ctx context.Context, repo repository.UserRepository, users []staff, log *slog.Logger) error {
	for _, s := range users {
		u := &model.User{Email: s.email, Name: s.name, Role: s.role, IsActive: true}
		if err := u.SetPassword(s.password); err != nil {
			return err
		}

		existing, err := repo.FindByEmail(ctx, s.email)
		switch {
		case err == nil:
			if err := repo.UpdatePassword(ctx, existing.ID, u.Password); err != nil {
				return err
			}
			log.Info("password reset", "email", s.email)
		case errors.Is(err, gorm.ErrRecordNotFound):
			u.CreatedBy, u.UpdatedBy = seedActor.ID, seedActor.ID
			if err := repo.Create(ctx, u); err != nil {
				return err
			}
			log.Info("user created", "email", s.email, "role", s.role)
		default:
			return err
		}
	}
	return nil
}

func seedCatalog(ctx context.Context, catalog service.CatalogService, log *slog.Logger) error {
	existing, err := catalog.ListCategories(ctx)
	if err != nil {
		return err
	}
	categoryIDs := map[string]*model.Category{}
	for i := range existing {
		categoryIDs[existing[i].Name] = &existing[i]
	}
	for _, name := range []string{"Obat", "Vitamin", "Pakan", "Aksesoris"} {
		if _, ok := categoryIDs[name]; ok {
			continue
		}
		c, err := catalog.CreateCategory(ctx, seedActor, service.CategoryInput{Name: name})
		if err != nil {
			return err
		}
		categoryIDs[name] = c
	}

	suppliers, err := catalog.ListSuppliers(ctx)
	if err != nil {
		return err
	}
	if len(suppliers) == 0 {
		if _, err := catalog.CreateSupplier(ctx, seedActor, service.SupplierInput{
			Name:         "PT Satwa Farma",
			Contact:      "021-5550123",
			Address:      "Jakarta",
			PaymentTerms: "NET 30",
		}); err != nil {
			return err
		}
	}

	products, err := catalog.ListProducts(ctx, model.ProductFilter{})
	if err != nil {
		return err
	}
	have := map[string]bool{}
	for _, p := range products {
		have[p.Name] = true
	}
	for _, s := range []starter{
		{"Obat Cacing Kucing", "Obat", 24, 18000, 27000},
		{"Antibiotik Amoxicillin 250mg", "Obat", 8, 42000, 60000},
		{"Vitamin Bulu Anjing", "Vitamin", 15, 35000, 52000},
		{"Pakan Kucing Dewasa 1kg", "Pakan", 30, 55000, 72000},
		{"Kalung Anti Kutu", "Aksesoris", 5, 25000, 40000},
	} {
		if have[s.name] {
			continue
		}
		cat := categoryIDs[s.category]
		if _, err := catalog.CreateProduct(ctx, seedActor, service.ProductInput{
			Name:         s.name,
			CategoryID:   &cat.ID,
			Stock:        s.stock,
			PurchaseCost: decimal.NewFromInt(s.cost),
			SalePrice:    decimal.NewFromInt(s.price),
		}); err != nil {
			return err
		}
		log.Info("product created", "name", s.name, "stock", s.stock)
	}
	return nil
}
