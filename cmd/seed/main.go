package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"vpn-storefront/internal/config"
	"vpn-storefront/internal/domain/model"
	pg "vpn-storefront/internal/infra/db/postgres"
	"vpn-storefront/internal/usecase"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	planUC := usecase.NewPlanUseCase(pg.NewPlanRepo(pool))

	// If plans already exist, do nothing
	plans, err := planUC.List(ctx)
	if err != nil {
		log.Fatalf("list plans: %v", err)
	}
	if len(plans) > 0 {
		fmt.Printf("%d plans already present. No changes.\n", len(plans))
		for _, p := range plans {
			fmt.Printf("  - %s (kind=%s, price=%d centavos)\n", p.Name, p.Kind, p.PriceCentavos)
		}
		return
	}

	seed := []struct {
		Name    string
		Kind    model.PlanKind
		Days    int
		Devices int
		Credits int64
		Price   int64
	}{
		{"VPN Mensual", model.PlanKindVPNAccess, 30, 3, 0, 350_000},
		{"VPN Trimestral", model.PlanKindVPNAccess, 90, 3, 0, 900_000},
		{"VPN Anual", model.PlanKindVPNAccess, 365, 5, 0, 3_000_000},
		{"Créditos Revendedor x10", model.PlanKindResellerCredit, 0, 0, 10, 2_500_000},
	}

	for _, s := range seed {
		p, err := planUC.Create(ctx, s.Name, s.Kind, s.Days, s.Devices, s.Credits, s.Price)
		if err != nil {
			log.Fatalf("create plan %q: %v", s.Name, err)
		}
		fmt.Printf("seeded: %s (id=%s, price=%d centavos)\n", p.Name, p.ID, p.PriceCentavos)
	}

	fmt.Println("Seeding complete.")
}
