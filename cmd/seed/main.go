// seed はローカル確認用のデモデータを入れる。何度実行しても重複しない。
package main

import (
	"log"

	"marketplace/internal/config"
	"marketplace/internal/domain/model"
	"marketplace/internal/infra/db"
	auth "marketplace/internal/usecase/auth_usecase"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const demoPassword = "password123"

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	gormDB, err := db.Connect(cfg.DSN(), false)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	if err := db.Migrate(gormDB); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	hasher := auth.NewBcryptPasswordHasher(0)
	if err := gormDB.Transaction(func(tx *gorm.DB) error {
		return seed(tx, hasher)
	}); err != nil {
		log.Fatalf("seed: %v", err)
	}
	log.Println("seed done")
}

func seed(tx *gorm.DB, hasher auth.PasswordHasher) error {
	pixKey := "loja@example.com"
	store := model.Company{
		LegalName:  "Mercado Bom Preço Ltda",
		FinalName:  "Mercado Bom Preço",
		CNPJ:       "12345678000199",
		Phone:      "11999990000",
		Street:     "Rua das Flores, 123",
		City:       "São Paulo",
		State:      "SP",
		PostalCode: "01000-000",
		PixKey:     &pixKey,
		Active:     true,
	}
	if err := tx.Where(model.Company{CNPJ: store.CNPJ}).FirstOrCreate(&store).Error; err != nil {
		return err
	}

	hash, err := hasher.Hash(demoPassword)
	if err != nil {
		return err
	}

	users := []model.User{
		{Name: "Cliente Demo", Email: "client@example.com", Role: model.RoleClient},
		{Name: "Loja Demo", Email: "store@example.com", Role: model.RoleStore, CompanyID: &store.ID},
		{Name: "Entregador Demo", Email: "driver@example.com", Role: model.RoleDriver, CompanyID: &store.ID},
		{Name: "Admin", Email: "admin@example.com", Role: model.RoleAdmin},
	}
	for i := range users {
		users[i].PasswordHash = hash
		if err := tx.Where(model.User{Email: users[i].Email}).FirstOrCreate(&users[i]).Error; err != nil {
			return err
		}
	}

	products := []model.Product{
		{Name: "Arroz 5kg", Price: decimal.RequireFromString("22.90"), StockQuantity: 50},
		{Name: "Feijão 1kg", Price: decimal.RequireFromString("8.45"), StockQuantity: 40},
		{Name: "Café 500g", Price: decimal.RequireFromString("15.00"), StockQuantity: 30},
	}
	for i := range products {
		products[i].CompanyID = store.ID
		products[i].Status = model.ProductStatusActive
		if err := tx.Where(model.Product{CompanyID: store.ID, Name: products[i].Name}).FirstOrCreate(&products[i]).Error; err != nil {
			return err
		}
	}
	return nil
}
