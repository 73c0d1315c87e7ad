package main

import (
	"fmt"
	"os"

	"tradyfit/backend/internal/auth"
	jwtpkg "tradyfit/backend/internal/auth/jwt"
	"tradyfit/backend/internal/config"
	"tradyfit/backend/internal/service"
	sqlstore "tradyfit/backend/internal/storage/sql"
	"tradyfit/backend/internal/urls"
)

// seed 在已配置的数据库中创建一个卖家、一个买家、一件商品和一条消息，
// 并打印卖家的访问令牌，供 msgpanel 直接使用。
func main() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: seed <seller-email> <buyer-email> [password]")
		os.Exit(1)
	}
	sellerEmail, buyerEmail := os.Args[1], os.Args[2]
	password := "tradyfit-demo"
	if len(os.Args) >= 4 {
		password = os.Args[3]
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if cfg.Database.Type == "" || cfg.Database.DSN == "" {
		fmt.Println("TRADYFIT_DATABASE_TYPE and TRADYFIT_DATABASE_DSN must be set")
		os.Exit(1)
	}

	store, err := sqlstore.NewStore(cfg.Database.Type, cfg.Database.DSN, 2, 1, cfg.Database.ConnMaxLifetime)
	if err != nil {
		fmt.Printf("Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()
	if err := store.Migrate(); err != nil {
		fmt.Printf("Failed to migrate: %v\n", err)
		os.Exit(1)
	}

	tokens := jwtpkg.NewManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.AccessExpiry)
	authService := auth.NewService(store, tokens)

	seller, err := authService.Register(auth.RegisterInput{Email: sellerEmail, Username: usernameOf(sellerEmail), Password: password})
	if err != nil {
		fmt.Printf("Failed to create seller: %v\n", err)
		os.Exit(1)
	}
	buyer, err := authService.Register(auth.RegisterInput{Email: buyerEmail, Username: usernameOf(buyerEmail), Password: password})
	if err != nil {
		fmt.Printf("Failed to create buyer: %v\n", err)
		os.Exit(1)
	}

	item, err := service.NewItemService(store).Create(seller.ID, service.CreateItemInput{Name: "Road bike", Description: "Lightly used"})
	if err != nil {
		fmt.Printf("Failed to create item: %v\n", err)
		os.Exit(1)
	}

	msg, err := service.NewMessageService(store, nil).Send(buyer.ID, item.ID, service.ComposeInput{
		Subject:     "Is the bike still available?",
		Description: "Could pick it up this weekend.",
	})
	if err != nil {
		fmt.Printf("Failed to send message: %v\n", err)
		os.Exit(1)
	}

	login, err := authService.Login(auth.LoginInput{Identifier: sellerEmail, Password: password})
	if err != nil {
		fmt.Printf("Failed to log in: %v\n", err)
		os.Exit(1)
	}

	link := urls.NewGenerator(cfg.Panel.BaseURL)
	fmt.Printf("✓ Demo data created\n")
	fmt.Printf("  Seller:  %s (id %d)\n", seller.Email, seller.ID)
	fmt.Printf("  Buyer:   %s (id %d)\n", buyer.Email, buyer.ID)
	fmt.Printf("  Item:    %s (id %d)\n", item.Name, item.ID)
	fmt.Printf("  Message: %s\n", link.MessageURL(msg.ID))
	fmt.Printf("\nexport TRADYFIT_PANEL_TOKEN=%s\n", login.AccessToken)
}

func usernameOf(email string) string {
	for i, r := range email {
		if r == '@' {
			return email[:i]
		}
	}
	return email
}
