package service

import (
	"context"

	"batchcognito/internal/services/identity/domain"
)

// LoadIndex reads a persisted snapshot and builds the lookup index
// Email collisions become ambiguity tombstones and are logged, not fatal
func (s *Svc) LoadIndex(ctx context.Context, path string) (*domain.Index, error) {
	recs, err := s.Repo.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	ix := domain.NewIndex(recs)
	st := ix.Stats()

	log := s.log(ctx)
	log.Info().Str("path", path).Int("records", st.Records).Int("keys", st.Keys).Msg("index loaded")
	if st.Ambiguous > 0 {
		log.Warn().Int("ambiguous_emails", st.Ambiguous).Strs("emails", ix.AmbiguousEmails()).
			Msg("index has emails shared by several users; they will not resolve")
	}
	return ix, nil
}
