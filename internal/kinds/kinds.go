package kinds

import (
	"github.com/roach88/stately/internal/activity"
	"github.com/roach88/stately/internal/registry"
)

// RegisterAll registers every built-in kind on a registry.
func RegisterAll(reg *registry.Registry) {
	RegisterCounter(reg)
	RegisterStringStore(reg)
	RegisterStringStoreV2(reg)
	RegisterPhonebook(reg)
	RegisterTextStore(reg)
}

// RegisterActivities registers the activities the built-in kinds await.
func RegisterActivities(inv *activity.Local) error {
	return RegisterChecksumActivity(inv)
}
