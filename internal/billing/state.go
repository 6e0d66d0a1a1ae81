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

// NextState computes the state transition for (current, eventType). The
// table is total: every pair not listed returns ok=false, which the caller
// records as Stale rather than an error, because providers redeliver
// semantically irrelevant events.
//
//	None → PendingPayment → Active ⇄ PastDue → Canceled
//	Active/PastDue → Expired
//
// Each event type matches all six states exhaustively so that adding a
// state forces every site here to be revisited.
func NextState(current Status, eventType string) (next Status, ok bool) {
	switch eventType {
	case EventCheckoutStarted:
		switch current {
		case StatusNone, StatusCanceled, StatusExpired:
			return StatusPendingPayment, true
		case StatusPendingPayment, StatusActive, StatusPastDue:
			return current, false
		}

	case EventCheckoutCompleted:
		switch current {
		case StatusNone, StatusPendingPayment:
			return StatusActive, true
		case StatusActive, StatusPastDue, StatusCanceled, StatusExpired:
			return current, false
		}

	case EventPaymentSucceeded:
		switch current {
		case StatusPendingPayment, StatusActive, StatusPastDue:
			// Active → Active is a renewal: applied, it advances the
			// period anchor and the last event timestamp.
			return StatusActive, true
		case StatusNone, StatusCanceled, StatusExpired:
			return current, false
		}

	case EventPaymentFailed:
		switch current {
		case StatusActive:
			return StatusPastDue, true
		case StatusNone, StatusPendingPayment, StatusPastDue, StatusCanceled, StatusExpired:
			return current, false
		}

	case EventSubscriptionUpdated:
		switch current {
		case StatusActive, StatusPastDue:
			// Plan or period change within the same status.
			return current, true
		case StatusNone, StatusPendingPayment, StatusCanceled, StatusExpired:
			return current, false
		}

	case EventSubscriptionDeleted, EventUserCanceled:
		switch current {
		case StatusActive, StatusPastDue:
			return StatusCanceled, true
		case StatusNone, StatusPendingPayment, StatusCanceled, StatusExpired:
			return current, false
		}

	case EventSubscriptionExpired:
		switch current {
		case StatusActive, StatusPastDue:
			return StatusExpired, true
		case StatusNone, StatusPendingPayment, StatusCanceled, StatusExpired:
			return current, false
		}
	}

	// Unknown event type or unknown state: accepted, never applied.
	return current, false
}
