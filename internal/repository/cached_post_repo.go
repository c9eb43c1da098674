package repository

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/hitoshi/travelblog/internal/model"
)

// CachedPostRepo はPostRepositoryの結果をTTL付きでキャッシュするデコレータ。
// コメント投稿のたびに記事のモデレーション設定を読むため、DB往復を減らす。
// 存在しない記事はキャッシュしない。
type CachedPostRepo struct {
	next  PostRepository
	cache *ttlcache.Cache[string, *model.Post]
}

// NewCachedPostRepo はCachedPostRepoを生成し、期限切れエントリの掃除を開始する。
// 使用後はCloseを呼び出すこと。
func NewCachedPostRepo(next PostRepository, ttl time.Duration) *CachedPostRepo {
	cache := ttlcache.New[string, *model.Post](
		ttlcache.WithTTL[string, *model.Post](ttl),
	)
	go cache.Start()

	return &CachedPostRepo{next: next, cache: cache}
}

// FindByID はキャッシュを優先して記事を取得する。
func (r *CachedPostRepo) FindByID(ctx context.Context, id string) (*model.Post, error) {
	if item := r.cache.Get(id); item != nil {
		return item.Value(), nil
	}

	post, err := r.next.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post != nil {
		r.cache.Set(id, post, ttlcache.DefaultTTL)
	}
	return post, nil
}

// Invalidate は指定記事のキャッシュを破棄する。
func (r *CachedPostRepo) Invalidate(id string) {
	r.cache.Delete(id)
}

// Close はキャッシュの掃除を停止する。
func (r *CachedPostRepo) Close() {
	r.cache.Stop()
}

// compile-time interface check
var _ PostRepository = (*CachedPostRepo)(nil)
