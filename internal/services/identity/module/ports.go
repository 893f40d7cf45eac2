package module

import "batchcognito/internal/services/identity/domain"

// Ports defines identity module ports exposed via the registry
type Ports struct {
	Builder domain.BuilderPort
	Sync    domain.SyncPort
	Loader  domain.LoaderPort
}
