// Package seed loads the bootstrap admin user and an optional catalog of
// activities and crews.
package seed

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"nomina/internal/domain/activities"
	"nomina/internal/domain/auth"
	"nomina/internal/domain/crews"
	"nomina/internal/platform/config"
	"nomina/internal/platform/querier"
)

type Catalog struct {
	Actividades []CatalogActivity `yaml:"actividades"`
	Cuadrillas  []CatalogCrew     `yaml:"cuadrillas"`
}

type CatalogActivity struct {
	Nombre string `yaml:"nombre"`
}

type CatalogCrew struct {
	Clave     string `yaml:"clave"`
	Nombre    string `yaml:"nombre"`
	Grupo     string `yaml:"grupo"`
	Actividad string `yaml:"actividad"`
}

func LoadCatalog(path string) (Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, err
	}
	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return Catalog{}, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	for i, a := range c.Actividades {
		if strings.TrimSpace(a.Nombre) == "" {
			return Catalog{}, fmt.Errorf("catalog actividades[%d]: nombre is required", i)
		}
	}
	for i, cr := range c.Cuadrillas {
		if strings.TrimSpace(cr.Nombre) == "" {
			return Catalog{}, fmt.Errorf("catalog cuadrillas[%d]: nombre is required", i)
		}
	}
	return c, nil
}

// Run creates the admin user and applies the catalog file when configured.
// Every step is safe to repeat.
func Run(ctx context.Context, pool querier.DB, cfg config.Config, log *zap.Logger) error {
	users := auth.NewService(auth.NewStore(pool), cfg.JWTSecret, cfg.TokenTTL)
	if err := ensureAdmin(ctx, users, cfg, log); err != nil {
		return err
	}
	if cfg.SeedCatalogFile == "" {
		return nil
	}
	catalog, err := LoadCatalog(cfg.SeedCatalogFile)
	if err != nil {
		return err
	}
	return Apply(ctx, pool, catalog, log)
}

func ensureAdmin(ctx context.Context, users *auth.Service, cfg config.Config, log *zap.Logger) error {
	if strings.TrimSpace(cfg.SeedAdminEmail) == "" || strings.TrimSpace(cfg.SeedAdminPassword) == "" {
		log.Info("admin seed skipped", zap.String("reason", "SEED_ADMIN_EMAIL or SEED_ADMIN_PASSWORD empty"))
		return nil
	}
	created, err := users.EnsureUser(ctx, cfg.SeedAdminEmail, "Administrador", auth.RoleAdmin, cfg.SeedAdminPassword)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if created {
		log.Info("admin user created", zap.String("email", cfg.SeedAdminEmail))
	}
	return nil
}

// Apply ensures every catalog activity exists by name and creates the crews
// whose name is not taken yet.
func Apply(ctx context.Context, pool querier.DB, c Catalog, log *zap.Logger) error {
	acts := activities.NewStore(pool)
	crewStore := crews.NewStore(pool, acts)

	for _, a := range c.Actividades {
		err := pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
			_, err := acts.EnsureByName(ctx, tx, a.Nombre)
			return err
		})
		if err != nil {
			return fmt.Errorf("seed actividad %q: %w", a.Nombre, err)
		}
	}

	created := 0
	for _, cr := range c.Cuadrillas {
		var exists bool
		if err := pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM cuadrillas WHERE lower(nombre) = lower($1::text))`,
			strings.TrimSpace(cr.Nombre)).Scan(&exists); err != nil {
			return err
		}
		if exists {
			continue
		}
		_, err := crewStore.Create(ctx, crews.Input{
			Clave:     strings.TrimSpace(cr.Clave),
			Nombre:    strings.TrimSpace(cr.Nombre),
			Grupo:     strings.TrimSpace(cr.Grupo),
			Actividad: strings.TrimSpace(cr.Actividad),
		})
		if err != nil {
			return fmt.Errorf("seed cuadrilla %q: %w", cr.Nombre, err)
		}
		created++
	}
	log.Info("catalog applied", zap.Int("actividades", len(c.Actividades)), zap.Int("cuadrillasCreadas", created))
	return nil
}
