package memstore

import (
	"testing"

	"careops/backend/internal/store"
	"careops/backend/internal/store/storetest"
)

func TestMemStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) *store.Store { return New() })
}
