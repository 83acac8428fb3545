package services

import (
	"github.com/custodia-labs/wrapshake/internal/core/domain"
)

// Clash reports whether candidate comes strictly closer than minDistance to
// any atom of an accepted pose. A candidate without atoms always clashes,
// since an empty extraction cannot be placed safely. With no accepted poses
// there is nothing to clash with.
func Clash(candidate []domain.AtomRecord, accepted [][]domain.AtomRecord, minDistance float64) bool {
	if len(candidate) == 0 {
		return true
	}
	for _, pose := range accepted {
		if d, ok := domain.MinDistance(candidate, pose); ok && d < minDistance {
			return true
		}
	}
	return false
}
