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

package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignatureVerify(t *testing.T) {
	v := NewSignatureVerifier("whsec_test")
	payload := []byte(`{"id":"evt_1","type":"invoice.payment_succeeded"}`)

	sig := v.Sign(payload)
	require.NoError(t, v.Verify(payload, sig))

	t.Run("accepts sha256 prefix", func(t *testing.T) {
		assert.NoError(t, v.Verify(payload, "sha256="+sig))
	})

	t.Run("rejects tampered payload", func(t *testing.T) {
		tampered := []byte(`{"id":"evt_2","type":"invoice.payment_succeeded"}`)
		assert.ErrorIs(t, v.Verify(tampered, sig), ErrInvalidSignature)
	})

	t.Run("rejects wrong secret", func(t *testing.T) {
		other := NewSignatureVerifier("whsec_other")
		assert.ErrorIs(t, other.Verify(payload, sig), ErrInvalidSignature)
	})

	t.Run("rejects non-hex signature", func(t *testing.T) {
		assert.ErrorIs(t, v.Verify(payload, "not-hex!"), ErrInvalidSignature)
	})

	t.Run("rejects empty signature", func(t *testing.T) {
		assert.ErrorIs(t, v.Verify(payload, ""), ErrInvalidSignature)
	})
}

func TestParseEnvelope(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		ev, err := ParseEnvelope([]byte(`{
			"id": "evt_1",
			"type": "checkout.session.completed",
			"occurred_at": 1756400000,
			"data": {"tenant_ref": "dlr_1", "user_ref": "usr_1", "plan": "monthly"}
		}`))
		require.NoError(t, err)
		assert.Equal(t, "evt_1", ev.ID)
		assert.Equal(t, EventCheckoutCompleted, ev.Type)
		assert.Equal(t, "dlr_1", ev.TenantRef)
		assert.Equal(t, "usr_1", ev.UserRef)
		assert.Equal(t, PlanMonthly, ev.Plan)
		assert.Equal(t, int64(1756400000), ev.OccurredAt.Unix())
	})

	t.Run("not json", func(t *testing.T) {
		_, err := ParseEnvelope([]byte(`<xml/>`))
		assert.ErrorIs(t, err, ErrMalformedEnvelope)
	})

	t.Run("missing id", func(t *testing.T) {
		_, err := ParseEnvelope([]byte(`{"type":"x","occurred_at":1,"data":{"tenant_ref":"d"}}`))
		assert.ErrorIs(t, err, ErrMalformedEnvelope)
	})

	t.Run("no tenant reference at all", func(t *testing.T) {
		_, err := ParseEnvelope([]byte(`{"id":"e","type":"x","occurred_at":1,"data":{}}`))
		assert.ErrorIs(t, err, ErrMalformedEnvelope)
	})

	t.Run("correlation id alone is enough", func(t *testing.T) {
		ev, err := ParseEnvelope([]byte(`{"id":"e","type":"x","occurred_at":1,"data":{"correlation_id":"co_1"}}`))
		require.NoError(t, err)
		assert.Equal(t, "co_1", ev.CorrelationID)
	})

	t.Run("missing occurred_at", func(t *testing.T) {
		_, err := ParseEnvelope([]byte(`{"id":"e","type":"x","data":{"tenant_ref":"d"}}`))
		assert.ErrorIs(t, err, ErrMalformedEnvelope)
	})
}
