package service

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// TokenBlacklist 保存已注销的访问令牌，直到令牌本身过期
type TokenBlacklist struct {
	tokens *cache.Cache
}

func NewTokenBlacklist() *TokenBlacklist {
	return &TokenBlacklist{tokens: cache.New(cache.NoExpiration, 10*time.Minute)}
}

// Add 把令牌加入黑名单，expiresAt 已过去时忽略
func (b *TokenBlacklist) Add(token string, expiresAt time.Time) {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return
	}
	b.tokens.Set(token, struct{}{}, ttl)
}

func (b *TokenBlacklist) Contains(token string) bool {
	_, found := b.tokens.Get(token)
	return found
}
