package protocol

import (
	"encoding/json"
	"time"
)

// Unsent messages older than their TTL are dropped by the outbox drainer.
var ttlByType = map[string]time.Duration{
	TypeRecordSaved:      30 * time.Minute,
	TypeRecordDeleted:    30 * time.Minute,
	TypePredictionLogged: 10 * time.Minute,
}

const FallbackTTL = 10 * time.Minute

// DefaultTTLFor returns how long a message of msgType may sit unsent.
func DefaultTTLFor(msgType string) time.Duration {
	if ttl, ok := ttlByType[msgType]; ok {
		return ttl
	}
	return FallbackTTL
}

func expiredAt(exp, now time.Time) bool {
	return !exp.IsZero() && now.After(exp)
}

// IsExpired reports whether env is past its expiry. A zero expiry never expires.
func IsExpired(env *Envelope) bool { return expiredAt(env.ExpiresAt, time.Now().UTC()) }

func IsExpiredHeader(hdr *RawHeader) bool { return expiredAt(hdr.ExpiresAt, time.Now().UTC()) }

// PeekHeader decodes only the routing header of an encoded envelope.
func PeekHeader(data []byte) (*RawHeader, error) {
	var hdr RawHeader
	if err := json.Unmarshal(data, &hdr); err != nil {
		return nil, err
	}
	return &hdr, nil
}
