package caching

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"saasbase/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const activeTenantTTL = 30 * 24 * time.Hour

type CacheService interface {
	// Session management. The active-tenant entry is the session side of
	// tenant switching: the membership service validates, this records.
	SetActiveTenant(ctx context.Context, userID, tenantID uuid.UUID) error
	GetActiveTenant(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)
	ClearActiveTenant(ctx context.Context, userID uuid.UUID) error

	// Tenant caching
	GetTenant(ctx context.Context, tenantID uuid.UUID) (*models.Tenant, error)
	SetTenant(ctx context.Context, tenant *models.Tenant, ttl time.Duration) error
	DeleteTenant(ctx context.Context, tenantID uuid.UUID) error

	// Rate limiting
	IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	IncrementRateLimit(ctx context.Context, key string, window time.Duration) error

	// Generic string operations for token management
	SetString(ctx context.Context, key string, value string, ttl time.Duration) error
	GetString(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

type redisCacheService struct {
	client *redis.Client
}

func NewRedisCacheService(addr, password string, db int) CacheService {
	// Accept redis:// and rediss:// URLs as well as bare host:port
	parsedAddr := strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://")

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	if pingErr := client.Ping(context.Background()).Err(); pingErr != nil {
		log.Printf("WARN: Redis ping failed on initialization: %v (address: %s)", pingErr, parsedAddr)
	}

	return &redisCacheService{client: client}
}

func activeTenantKey(userID uuid.UUID) string {
	return fmt.Sprintf("saasbase:session:active_tenant:%s", userID.String())
}

func tenantKey(tenantID uuid.UUID) string {
	return fmt.Sprintf("saasbase:tenant:%s", tenantID.String())
}

func (r *redisCacheService) SetActiveTenant(ctx context.Context, userID, tenantID uuid.UUID) error {
	return r.client.Set(ctx, activeTenantKey(userID), tenantID.String(), activeTenantTTL).Err()
}

func (r *redisCacheService) GetActiveTenant(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	val, err := r.client.Get(ctx, activeTenantKey(userID)).Result()
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.Parse(val)
}

func (r *redisCacheService) ClearActiveTenant(ctx context.Context, userID uuid.UUID) error {
	return r.client.Del(ctx, activeTenantKey(userID)).Err()
}

func (r *redisCacheService) GetTenant(ctx context.Context, tenantID uuid.UUID) (*models.Tenant, error) {
	data, err := r.client.Get(ctx, tenantKey(tenantID)).Bytes()
	if err != nil {
		return nil, err
	}
	tenant := &models.Tenant{}
	if err := json.Unmarshal(data, tenant); err != nil {
		return nil, err
	}
	return tenant, nil
}

func (r *redisCacheService) SetTenant(ctx context.Context, tenant *models.Tenant, ttl time.Duration) error {
	data, err := json.Marshal(tenant)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, tenantKey(tenant.ID), data, ttl).Err()
}

func (r *redisCacheService) DeleteTenant(ctx context.Context, tenantID uuid.UUID) error {
	return r.client.Del(ctx, tenantKey(tenantID)).Err()
}

func (r *redisCacheService) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	count, err := r.client.Get(ctx, fmt.Sprintf("saasbase:ratelimit:%s", key)).Int()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return count >= limit, nil
}

func (r *redisCacheService) IncrementRateLimit(ctx context.Context, key string, window time.Duration) error {
	rateKey := fmt.Sprintf("saasbase:ratelimit:%s", key)
	pipe := r.client.TxPipeline()
	pipe.Incr(ctx, rateKey)
	pipe.Expire(ctx, rateKey, window)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *redisCacheService) SetString(ctx context.Context, key string, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *redisCacheService) GetString(ctx context.Context, key string) (string, error) {
	return r.client.Get(ctx, key).Result()
}

func (r *redisCacheService) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}
