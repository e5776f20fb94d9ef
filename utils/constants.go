// File: utils/constants.go
package utils

import "time"

// MatchCachePrefix is the prefix used for Redis match-result cache keys.
const MatchCachePrefix = "match:"

// CategoryCachePrefix is the prefix used for Redis category-name cache keys.
const CategoryCachePrefix = "category:"

// CategoryCacheTTL is the time-to-live for category name entries.
const CategoryCacheTTL = time.Hour

// StoreTimeout bounds a single storage round trip.
const StoreTimeout = 5 * time.Second

// DateLayout is the calendar date format used throughout the engine.
const DateLayout = "2006-01-02"
