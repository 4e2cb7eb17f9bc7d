// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/productreco/backend

package eventprocessor

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

func TestMutationEvent_RoundTrips(t *testing.T) {
	event := MutationEvent{
		Kind:      MutationUpdated,
		ProductID: "veh-123",
		Domain:    "vehicles",
		At:        time.Now().UTC().Truncate(time.Second),
	}

	data, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded MutationEvent
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded != event {
		t.Errorf("expected %+v, got %+v", event, decoded)
	}
}

func TestCacheInvalidationService_Interface(t *testing.T) {
	var _ suture.Service = (*CacheInvalidationService)(nil)
}

type recordingInvalidator struct {
	calls []string
}

func (r *recordingInvalidator) InvalidateProduct(ctx context.Context, domain, productID string) error {
	r.calls = append(r.calls, domain+":"+productID)
	return nil
}

func TestCacheInvalidationService_String(t *testing.T) {
	svc := &CacheInvalidationService{name: "cache-invalidation"}
	if svc.String() != "cache-invalidation" {
		t.Errorf("expected 'cache-invalidation', got %q", svc.String())
	}
}
