// seed carga un catálogo YAML (productos, precios, stock de apertura y ofertas) usando los mismos
// casos de uso que la API, de modo que el stock inicial queda como movimientos initial_stock.
//
// Uso: go run ./cmd/seed [-latin1] [ruta/catalogo.yaml]
// Por defecto lee catalog.yaml en el directorio actual.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/kardex-api/internal/application/inventory"
	"github.com/jhoicas/kardex-api/internal/application/usecase"
	"github.com/jhoicas/kardex-api/internal/domain"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/internal/infrastructure/storage"
	"github.com/jhoicas/kardex-api/pkg/config"
	"github.com/jhoicas/kardex-api/pkg/logger"
)

// seedUser autor de los movimientos de apertura.
const seedUser = "seed"

func main() {
	latin1 := flag.Bool("latin1", false, "el archivo viene en ISO-8859-1")
	flag.Parse()

	path := "catalog.yaml"
	if flag.NArg() > 0 {
		path = flag.Arg(0)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	f, err := os.Open(path)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("abrir catálogo")
	}
	cat, err := parseCatalog(f, *latin1)
	f.Close()
	if err != nil {
		log.Fatal().Err(err).Msg("catálogo inválido")
	}

	ctx := context.Background()
	backend, err := storage.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("almacenamiento")
	}
	defer backend.Close()

	s := &seeder{
		products:  usecase.NewProductUseCase(backend.Products),
		offers:    usecase.NewOfferUseCase(backend.Offers),
		movements: inventory.NewRegisterMovementUseCase(backend.Tx, nil, nil, log),
		lookup:    backend.Products,
		log:       log,
	}
	if err := s.run(ctx, cat); err != nil {
		log.Fatal().Err(err).Msg("seed")
	}
}

type productLookup interface {
	GetBySKU(ctx context.Context, sku string) (*entity.Product, error)
}

type seeder struct {
	products  *usecase.ProductUseCase
	offers    *usecase.OfferUseCase
	movements *inventory.RegisterMovementUseCase
	lookup    productLookup
	log       *logger.Logger
}

type seedResult struct {
	created, skipped, offers int
}

// run crea los productos que no existen (un SKU ya cargado se omite) y luego las ofertas.
func (s *seeder) run(ctx context.Context, cat *catalog) error {
	res, err := s.load(ctx, cat)
	if err != nil {
		return err
	}
	s.log.Info().
		Int("productos", res.created).
		Int("omitidos", res.skipped).
		Int("ofertas", res.offers).
		Msg("seed completado")
	return nil
}

func (s *seeder) load(ctx context.Context, cat *catalog) (seedResult, error) {
	var res seedResult
	ids := make(map[string]string, len(cat.Products))
	for _, p := range cat.Products {
		req, err := p.request()
		if err != nil {
			return res, err
		}
		created, err := s.products.Create(ctx, req)
		if errors.Is(err, domain.ErrDuplicate) {
			existing, err := s.lookup.GetBySKU(ctx, req.SKU)
			if err != nil {
				return res, err
			}
			ids[req.SKU] = existing.ID
			res.skipped++
			s.log.Warn().Str("sku", req.SKU).Msg("producto existente, se omite")
			continue
		}
		if err != nil {
			return res, fmt.Errorf("producto %s: %w", req.SKU, err)
		}
		ids[req.SKU] = created.ID
		res.created++

		if p.InitialStock > 0 {
			in := inventory.MovementInputDTO{
				UserID:    seedUser,
				ProductID: created.ID,
				Type:      string(entity.MovementInitialStock),
				Quantity:  decimal.NewFromInt(p.InitialStock),
				Note:      "carga inicial",
			}
			if p.Cost != "" {
				cost, err := decimal.NewFromString(p.Cost)
				if err != nil {
					return res, fmt.Errorf("producto %s: cost: %w", req.SKU, err)
				}
				in.CostPerUnit = &cost
			}
			if _, err := s.movements.RegisterMovement(ctx, in); err != nil {
				return res, fmt.Errorf("stock inicial %s: %w", req.SKU, err)
			}
		}
	}

	for _, o := range cat.Offers {
		req, err := o.request(ids)
		if err != nil {
			return res, err
		}
		if _, err := s.offers.Create(ctx, req); err != nil {
			return res, fmt.Errorf("oferta %s: %w", o.Name, err)
		}
		res.offers++
	}
	return res, nil
}
