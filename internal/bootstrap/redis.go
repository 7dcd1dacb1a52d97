package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/qldt/qldt-api/config"
)

const redisPingTimeout = 5 * time.Second

type redisMode string

const (
	redisDirect   redisMode = "direct"
	redisSentinel redisMode = "sentinel"
	redisCluster  redisMode = "cluster"
)

// redisTarget is a RedisConfig resolved into client options plus a credential-free
// description for logs.
type redisTarget struct {
	mode redisMode
	opts redis.UniversalOptions
	desc string
}

// ConnectRedis builds a direct, sentinel, or cluster client and pings it.
//
//nolint:ireturn // returning redis.UniversalClient lets us pick single, sentinel, or cluster clients at runtime.
func ConnectRedis(cfg DatabaseConfig) (redis.UniversalClient, error) {
	target, err := resolveRedisTarget(cfg.RedisConfig)
	if err != nil {
		return nil, err
	}
	client := target.client()

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()
	if pingErr := client.Ping(ctx).Err(); pingErr != nil {
		if closeErr := client.Close(); closeErr != nil {
			pingErr = errors.Join(pingErr, fmt.Errorf("close redis client: %w", closeErr))
		}
		return nil, fmt.Errorf("ping redis %s: %w", target.desc, pingErr)
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("redis connected", "mode", string(target.mode), "addr", target.desc)
	}
	return client, nil
}

//nolint:ireturn // the concrete client depends on the mode.
func (t redisTarget) client() redis.UniversalClient {
	switch t.mode {
	case redisCluster:
		return redis.NewClusterClient(t.opts.Cluster())
	case redisSentinel:
		return redis.NewFailoverClient(t.opts.Failover())
	default:
		return redis.NewClient(t.opts.Simple())
	}
}

func resolveRedisTarget(cfg config.RedisConfig) (redisTarget, error) {
	switch {
	case cfg.UseCluster:
		return clusterTarget(cfg)
	case cfg.UseSentinel:
		return sentinelTarget(cfg)
	default:
		return directTarget(cfg)
	}
}

func clusterTarget(cfg config.RedisConfig) (redisTarget, error) {
	t := redisTarget{mode: redisCluster, opts: redis.UniversalOptions{
		Addrs:    normalizeAddrs(cfg.ClusterNodes),
		Password: cfg.Password,
	}}
	if len(t.opts.Addrs) == 0 {
		// A single seed node may come from REDIS_URI instead of REDIS_CLUSTER_NODES.
		seed, err := optionsFromURI(cfg.URI, cfg.Password)
		if err != nil {
			return redisTarget{}, fmt.Errorf("parse redis cluster url: %w", err)
		}
		t.opts = seed
	}
	if len(t.opts.Addrs) == 0 {
		return redisTarget{}, errors.New("redis cluster configuration requires at least one address")
	}
	t.desc = "cluster:" + strings.Join(t.opts.Addrs, ",")
	return t, nil
}

func sentinelTarget(cfg config.RedisConfig) (redisTarget, error) {
	nodes := normalizeAddrs(cfg.SentinelNodes)
	if len(nodes) == 0 {
		return redisTarget{}, errors.New("redis sentinel configuration requires at least one sentinel node")
	}
	return redisTarget{
		mode: redisSentinel,
		opts: redis.UniversalOptions{
			Addrs:            nodes,
			MasterName:       cfg.SentinelMasterName,
			Password:         cfg.Password,
			SentinelPassword: cfg.SentinelPassword,
		},
		desc: "sentinel:" + cfg.SentinelMasterName,
	}, nil
}

func directTarget(cfg config.RedisConfig) (redisTarget, error) {
	opts, err := optionsFromURI(cfg.URI, cfg.Password)
	if err != nil {
		return redisTarget{}, fmt.Errorf("parse redis url: %w", err)
	}
	if len(opts.Addrs) == 0 {
		return redisTarget{}, errors.New("redis direct configuration requires a URI")
	}
	return redisTarget{mode: redisDirect, opts: opts, desc: opts.Addrs[0]}, nil
}

// optionsFromURI accepts either host:port or a redis:// / rediss:// URL. Credentials in
// the URL win over password. A blank uri yields no addresses.
func optionsFromURI(uri, password string) (redis.UniversalOptions, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return redis.UniversalOptions{Password: password}, nil
	}
	if !isRedisURL(uri) {
		return redis.UniversalOptions{Addrs: []string{uri}, Password: password}, nil
	}

	parsed, err := redis.ParseURL(uri)
	if err != nil {
		return redis.UniversalOptions{}, err
	}
	opts := redis.UniversalOptions{
		Addrs:     []string{parsed.Addr},
		Username:  parsed.Username,
		Password:  password,
		DB:        parsed.DB,
		TLSConfig: parsed.TLSConfig,
	}
	if parsed.Password != "" {
		opts.Password = parsed.Password
	}
	return opts, nil
}

func normalizeAddrs(raw []string) []string {
	result := make([]string, 0, len(raw))
	for _, addr := range raw {
		if trimmed := strings.TrimSpace(addr); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func isRedisURL(value string) bool {
	return strings.HasPrefix(value, "redis://") || strings.HasPrefix(value, "rediss://")
}
