package redisx

import "time"

const (
	// Session cart: cart:{user_id} -> JSON cart blob
	KeyCart = "cart:%s"

	// Auth session: session:{token} -> JSON session blob
	KeySession = "session:%s"

	// Project detail cache: project:{project_id} -> JSON project
	KeyProject = "project:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLCart         = 7 * 24 * time.Hour
	TTLSession      = 24 * time.Hour
	TTLProjectCache = 10 * time.Minute
	TTLDedup        = 48 * time.Hour
)
