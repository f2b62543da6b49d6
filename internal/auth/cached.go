package auth

import "context"

// CachedResolver memoizes an inner resolver's results for a short TTL and
// attaches a derived role. Failures are never cached.
type CachedResolver struct {
	inner Resolver
	roles RoleFunc
	cache *Cache
}

func NewCachedResolver(inner Resolver, roles RoleFunc, cache *Cache) *CachedResolver {
	return &CachedResolver{inner: inner, roles: roles, cache: cache}
}

// User resolves the request's identity and role, consulting the cache first.
// A nil identity with a nil error is an anonymous request.
func (r *CachedResolver) User(ctx context.Context, path, cookieHeader string) (*Identity, string, error) {
	key := CacheKey(path, cookieHeader)
	if user, role, ok := r.cache.Get(key); ok {
		return user, role, nil
	}
	user, err := r.inner.Resolve(ctx, cookieHeader)
	if err != nil {
		return nil, "", err
	}
	role := ""
	if user != nil {
		role = r.roles(*user)
	}
	r.cache.Put(key, user, role)
	return user, role, nil
}
