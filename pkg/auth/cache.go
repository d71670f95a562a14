package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dashmart-ai/dashmart/pkg/types"
	"github.com/dashmart-ai/dashmart/pkg/utils"
)

const adminTokenTTL = time.Minute * 10

func adminTokenKey(token string) string {
	return fmt.Sprintf("admin:token:%s", utils.MD5(token))
}

// GetAdminFromCache 缓存未命中或内容损坏都按 miss 处理，由调用方回源。
func GetAdminFromCache(ctx context.Context, rds *redis.Client, token string) *types.AdminUser {
	if rds == nil {
		return nil
	}
	raw, err := rds.Get(ctx, adminTokenKey(token)).Result()
	if err != nil || raw == "" {
		return nil
	}

	var user types.AdminUser
	if err = json.Unmarshal([]byte(raw), &user); err != nil {
		return nil
	}
	return &user
}

func CacheAdmin(ctx context.Context, rds *redis.Client, token string, user *types.AdminUser) error {
	if rds == nil {
		return nil
	}
	raw, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return rds.Set(ctx, adminTokenKey(token), raw, adminTokenTTL).Err()
}
