// migrate aplica las migraciones SQL embebidas sobre la base configurada.
//
// Uso: go run ./cmd/migrate [-list]
// Con -list solo imprime las migraciones disponibles, sin conectarse.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/saludtotal/farmacia-ventas/internal/infrastructure/postgres"
	"github.com/saludtotal/farmacia-ventas/pkg/config"
	"github.com/saludtotal/farmacia-ventas/pkg/logger"
)

func main() {
	list := flag.Bool("list", false, "listar migraciones embebidas y salir")
	flag.Parse()

	if *list {
		ms, err := postgres.Migrations()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Leer migraciones: %v\n", err)
			os.Exit(1)
		}
		for _, m := range ms {
			fmt.Println(m.Version)
		}
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, App: "migrate"})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	applied, err := postgres.Migrate(ctx, pool, log)
	if err != nil {
		log.Fatal().Err(err).Msg("aplicar migraciones")
	}
	log.Info().Int("applied", len(applied)).Strs("versions", applied).Msg("migraciones al día")
}
