package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/shophub/supportflow/internal/shop"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load demo users, products, and orders into the store database",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		database, err := openDatabase(cfg)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		return seedStore(cmd.Context(), shop.NewStore(database))
	},
}

func seedStore(ctx context.Context, store *shop.Store) error {
	john, err := store.CreateUser(ctx, shop.User{Name: "John Doe", Email: "john@example.com"})
	if err != nil {
		return err
	}
	jane, err := store.CreateUser(ctx, shop.User{Name: "Jane Smith", Email: "jane@example.com"})
	if err != nil {
		return err
	}

	products := []shop.Product{
		{Name: "iPhone 15 Pro", Description: "Latest flagship smartphone with A17 Pro chip and titanium design", Category: "Electronics", Price: 999, Stock: 50},
		{Name: "MacBook Pro M3", Description: "Powerful laptop for professionals with M3 chip", Category: "Electronics", Price: 1999, Stock: 30},
		{Name: "AirPods Pro", Description: "Wireless earbuds with active noise cancellation", Category: "Electronics", Price: 249, Stock: 100},
		{Name: "Nike Running Shoes", Description: "Comfortable running shoes for daily training", Category: "Fashion", Price: 120, Stock: 75},
		{Name: "Levi's Jeans", Description: "Classic denim jeans, regular fit", Category: "Fashion", Price: 80, Stock: 60},
	}
	for i, p := range products {
		if products[i], err = store.CreateProduct(ctx, p); err != nil {
			return err
		}
	}

	now := time.Now().UTC()
	orders := []shop.Order{
		{
			UserID:          john.ID,
			Status:          shop.StatusProcessing,
			TotalAmount:     999,
			ShippingAddress: "123 Main St, New York, USA",
			Items: []shop.OrderItem{
				{ProductID: products[0].ID, Name: products[0].Name, Quantity: 1, Price: products[0].Price},
			},
		},
		{
			UserID:          jane.ID,
			Status:          shop.StatusShipped,
			TotalAmount:     2497,
			ShippingAddress: "456 Oak Ave, Los Angeles, USA",
			Items: []shop.OrderItem{
				{ProductID: products[1].ID, Name: products[1].Name, Quantity: 1, Price: products[1].Price},
				{ProductID: products[2].ID, Name: products[2].Name, Quantity: 2, Price: products[2].Price},
			},
		},
		{
			UserID:          john.ID,
			Status:          shop.StatusDelivered,
			TotalAmount:     120,
			ShippingAddress: "789 Elm St, Chicago, USA",
			DeliveredAt:     &now,
			Items: []shop.OrderItem{
				{ProductID: products[3].ID, Name: products[3].Name, Quantity: 1, Price: products[3].Price},
			},
		},
	}

	fmt.Println("Order IDs for testing:")
	for _, o := range orders {
		created, err := store.CreateOrder(ctx, o)
		if err != nil {
			return err
		}
		fmt.Printf("  %-10s %s\n", created.Status, created.ID)
	}

	fmt.Printf("\nSeeded 2 users, %d products, %d orders.\n", len(products), len(orders))
	fmt.Printf("Demo customer IDs: john=%s jane=%s\n", john.ID, jane.ID)
	return nil
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
