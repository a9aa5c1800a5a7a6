package config

import (
    "strings"
    "time"
)

// Rate limit key strategies understood by the token bucket middleware.
const (
    RateKeySender   = "sender"   // webhook "From" field
    RateKeyIP       = "ip"       // client address
    RateKeyOperator = "operator" // authenticated operator
)

// RateLimitConfig configures the Redis token bucket in front of the
// webhook.  The default key strategy buckets by chat sender so one noisy
// sender cannot starve the others.
type RateLimitConfig struct {
    Enabled        bool
    Capacity       int           // bucket size, also the burst
    RefillTokens   int           // tokens added per RefillInterval
    RefillInterval time.Duration
    TTL            time.Duration // idle buckets expire after this
    KeyStrategy    string
    Prefix         string
    Debug          bool
}

// LoadRateLimitConfig reads RATE_LIMIT_* variables.  Out-of-range numbers
// are clamped and an unknown key strategy falls back to sender.
func LoadRateLimitConfig() RateLimitConfig {
    cfg := RateLimitConfig{
        Enabled:        envBool("RATE_LIMIT_ENABLED", true),
        Capacity:       max(envInt("RATE_LIMIT_CAPACITY", 20), 1),
        RefillTokens:   max(envInt("RATE_LIMIT_REFILL_TOKENS", 1), 1),
        RefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", time.Second),
        TTL:            envDur("RATE_LIMIT_TTL", 10*time.Minute),
        KeyStrategy:    strings.ToLower(envStr("RATE_LIMIT_KEY_STRATEGY", RateKeySender)),
        Prefix:         envStr("RATE_LIMIT_PREFIX", "rl"),
        Debug:          envBool("RATE_LIMIT_DEBUG", false),
    }
    if cfg.RefillInterval <= 0 {
        cfg.RefillInterval = time.Second
    }
    // A bucket must outlive a few refills or it resets to full too early.
    cfg.TTL = max(cfg.TTL, 5*cfg.RefillInterval)
    switch cfg.KeyStrategy {
    case RateKeySender, RateKeyIP, RateKeyOperator:
    default:
        cfg.KeyStrategy = RateKeySender
    }
    return cfg
}
