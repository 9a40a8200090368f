// Package main provides a CLI tool for seeding the database with demo data.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	"partstock/internal/domain/catalogs/product"
	"partstock/internal/infrastructure/storage/postgres"
	"partstock/pkg/logger"
)

type seedProduct struct {
	sku         string
	name        string
	description string
	price       string
	quantity    int64
	minQuantity int64
}

var demoProducts = []seedProduct{
	{"CPU-0001", "Ryzen 7 9800X3D", "8-core AM5 processor", "479.00", 12, 3},
	{"CPU-0002", "Core i5-14600K", "14-core LGA1700 processor", "289.00", 20, 5},
	{"GPU-0001", "GeForce RTX 4070 Super", "12GB GDDR6X graphics card", "599.00", 8, 2},
	{"RAM-0001", "32GB DDR5-6000 Kit", "2x16GB CL30", "109.00", 40, 10},
	{"SSD-0001", "NVMe SSD 2TB", "PCIe 4.0, 7000 MB/s", "129.00", 35, 8},
	{"PSU-0001", "850W 80+ Gold PSU", "Fully modular power supply", "119.00", 15, 4},
	{"MB-0001", "B650 ATX Motherboard", "AM5, DDR5, WiFi 6E", "179.00", 10, 3},
	{"CASE-0001", "Mid Tower Case", "Tempered glass, 3 fans included", "89.00", 18, 5},
}

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dbURL := os.Getenv("PARTSTOCK_DATABASE_URL")
	if dbURL == "" {
		log.Fatal("PARTSTOCK_DATABASE_URL environment variable is required")
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dbURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	txManager := postgres.NewTxManager(pool)
	repo := postgres.NewProductRepo(txManager)

	seeded := 0
	for _, sp := range demoProducts {
		exists, err := repo.ExistsBySKU(ctx, sp.sku)
		if err != nil {
			log.Fatalw("failed to check sku", "sku", sp.sku, "error", err)
		}
		if exists {
			log.Infow("product already exists, skipping", "sku", sp.sku)
			continue
		}

		p := product.NewProduct(sp.sku, sp.name)
		p.Description = sp.description
		p.Price = decimal.RequireFromString(sp.price)
		p.Quantity = sp.quantity
		p.MinQuantity = sp.minQuantity

		if err := repo.Create(ctx, p); err != nil {
			log.Fatalw("failed to insert product", "sku", sp.sku, "error", err)
		}
		seeded++
	}

	log.Infow("seeding completed", "inserted", seeded, "skipped", len(demoProducts)-seeded)
}
