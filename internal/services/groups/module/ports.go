package module

import "batchcognito/internal/services/groups/domain"

// Ports defines groups module ports exposed via the registry
type Ports struct {
	Executor domain.ExecutorPort
	Progress domain.ProgressPort
	Targets  domain.TargetsPort
}
