// Copyright 2026 The Star4ce Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package audit

import (
	"context"
	"log/slog"
	"time"
)

// Security event types mirrored to the application log. These are
// observability events, not the durable audit trail.
const (
	TypeSignatureRejected = "webhook_signature_rejected"
	TypeEnvelopeRejected  = "webhook_envelope_rejected"
	TypeAccessDenied      = "access_denied"
	TypeLoginFailed       = "login_failed"
	TypeLoginSuccess      = "login_success"
)

// SecurityEvent is a security-relevant occurrence flagged for review.
type SecurityEvent struct {
	Type      string
	ActorID   string
	TenantID  string
	Resource  string
	Metadata  map[string]any
	Timestamp time.Time
	IPAddress string
}

// Logger defines the interface for security event logging
type Logger interface {
	Log(ctx context.Context, event SecurityEvent)
}

// SlogLogger implements Logger using slog
type SlogLogger struct{}

// NewSlogLogger creates a new security event logger
func NewSlogLogger() *SlogLogger {
	return &SlogLogger{}
}

// Log records a security event
func (l *SlogLogger) Log(ctx context.Context, event SecurityEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	attrs := []any{
		slog.String("security_event", event.Type),
		slog.Time("timestamp", event.Timestamp),
	}
	if event.TenantID != "" {
		attrs = append(attrs, slog.String("tenant_id", event.TenantID))
	}
	if event.ActorID != "" {
		attrs = append(attrs, slog.String("actor_id", event.ActorID))
	}
	if event.Resource != "" {
		attrs = append(attrs, slog.String("resource", event.Resource))
	}
	if event.IPAddress != "" {
		attrs = append(attrs, slog.String("ip_address", event.IPAddress))
	}
	if len(event.Metadata) > 0 {
		group := []any{}
		for k, v := range event.Metadata {
			if isSecret(k) {
				v = "[REDACTED]"
			}
			group = append(group, slog.Any(k, v))
		}
		attrs = append(attrs, slog.Group("metadata", group...))
	}

	slog.WarnContext(ctx, "SECURITY_EVENT", append(attrs, slog.String("component", "audit"))...)
}

// isSecret checks if a key likely contains a secret
func isSecret(key string) bool {
	secrets := []string{"password", "secret", "token", "key", "authorization", "signature"}
	for _, s := range secrets {
		if key == s {
			return true
		}
	}
	return false
}
