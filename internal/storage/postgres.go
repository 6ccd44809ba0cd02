package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"codeberg.org/qemxa/server/internal/chat"
	"codeberg.org/qemxa/server/internal/history"
	"codeberg.org/qemxa/server/internal/llm"
	"codeberg.org/qemxa/server/internal/quota"
	"codeberg.org/qemxa/server/internal/tiers"
	"codeberg.org/qemxa/server/qemxa/chats"
	"codeberg.org/qemxa/server/qemxa/partners"
	"codeberg.org/qemxa/server/qemxa/profiles"
	"codeberg.org/qemxa/server/qemxa/vehicles"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store backed by the Supabase Postgres database
type PostgresGateway struct {
	pool     *pgxpool.Pool
	chats    *chats.Repository
	profiles *profiles.Repository
	vehicles *vehicles.Repository
	partners *partners.Repository
}

// opens a pool sized for the Supabase pooler and wires the repositories
func NewPostgresGateway(ctx context.Context, connString string) (*PostgresGateway, error) {
	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	// free tier has ~10-15 pooler connections, so keep our pool small
	poolConfig.MaxConns = 5
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	// PgBouncer in transaction mode doesn't support prepared statements
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create database pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresGateway{
		pool:     pool,
		chats:    chats.NewRepository(pool),
		profiles: profiles.NewRepository(pool),
		vehicles: vehicles.NewRepository(pool),
		partners: partners.NewRepository(pool),
	}, nil
}

func (g *PostgresGateway) Pool() *pgxpool.Pool {
	return g.pool
}

func (g *PostgresGateway) Ping(ctx context.Context) error {
	return g.pool.Ping(ctx)
}

func (g *PostgresGateway) Close() error {
	g.pool.Close()
	return nil
}

func (g *PostgresGateway) LoadSession(ctx context.Context, key chat.SessionKey) (*chat.Session, error) {
	row, err := g.chats.FindByKey(ctx, key.VIN, key.UserID)
	if errors.Is(err, chats.ErrChatNotFound) {
		return nil, chat.ErrSessionNotFound
	}

	if err != nil {
		return nil, err
	}

	return &chat.Session{
		VIN:            row.VIN,
		UserID:         row.UserID,
		History:        history.History(row.Messages),
		ServiceHistory: row.ServiceHistory,
	}, nil
}

func (g *PostgresGateway) SaveHistory(ctx context.Context, key chat.SessionKey, h history.History) error {
	return g.chats.UpsertMessages(ctx, key.VIN, key.UserID, chats.Messages(h))
}

func (g *PostgresGateway) GetProfile(ctx context.Context, userID string) (*chat.Profile, error) {
	p, err := g.profiles.FindOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &chat.Profile{
		ID:               p.ID,
		Tier:             p.Tier,
		DailyUsage:       quota.UsageCounter(p.DailyUsage),
		StripeCustomerID: p.StripeCustomerID,
	}, nil
}

func (g *PostgresGateway) SaveUsage(ctx context.Context, userID string, usage quota.UsageCounter) error {
	return g.profiles.UpdateDailyUsage(ctx, userID, usage)
}

func (g *PostgresGateway) SetTier(ctx context.Context, userID string, tier tiers.Tier) error {
	if _, err := g.profiles.FindOrCreate(ctx, userID); err != nil {
		return err
	}

	return g.profiles.UpdateTier(ctx, userID, tier)
}

func (g *PostgresGateway) GetVehicle(ctx context.Context, key chat.SessionKey) (*history.VehicleInfo, error) {
	v, err := g.vehicles.FindByKey(ctx, key.VIN, key.UserID)
	if errors.Is(err, vehicles.ErrVehicleNotFound) {
		return nil, chat.ErrVehicleNotFound
	}

	if err != nil {
		return nil, err
	}

	info := v.Info()

	return &info, nil
}

func (g *PostgresGateway) ListVehicles(ctx context.Context, userID string) ([]vehicles.Vehicle, error) {
	return g.vehicles.ListByUser(ctx, userID)
}

func (g *PostgresGateway) CreateVehicle(ctx context.Context, userID string, req vehicles.CreateVehicleRequest) (*vehicles.Vehicle, error) {
	p, err := g.profiles.FindOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	return g.vehicles.Create(ctx, userID, p.Tier, req)
}

func (g *PostgresGateway) ListPartners(ctx context.Context, userID string) ([]llm.PartnerSummary, error) {
	list, err := g.partners.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	return partners.Summaries(list), nil
}

func (g *PostgresGateway) ListPartnerProfiles(ctx context.Context, userID string) ([]partners.Profile, error) {
	return g.partners.ListByUser(ctx, userID)
}

func (g *PostgresGateway) SavePartnerProfile(ctx context.Context, p *partners.Profile) error {
	return g.partners.Save(ctx, p)
}
