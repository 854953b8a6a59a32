package ingestion

import (
	"context"
	"fmt"

	"salesinsight/internal/domain"
	"salesinsight/internal/repository"
)

// Partition is the result of deduplicating a batch: records safe to insert
// and the natural keys that were skipped as duplicates.
type Partition struct {
	New        []domain.SalesRecord
	Duplicates []domain.NaturalKey
}

// Deduplicate splits a batch into new and duplicate rows by natural key.
// Existing keys are fetched with one bulk query; within the batch the first
// occurrence of a key wins and later ones are marked duplicate.
func Deduplicate(ctx context.Context, repo repository.SalesRecordRepository, records []domain.SalesRecord) (Partition, error) {
	partition := Partition{
		New:        []domain.SalesRecord{},
		Duplicates: []domain.NaturalKey{},
	}
	if len(records) == 0 {
		return partition, nil
	}

	keys := make([]domain.NaturalKey, 0, len(records))
	seen := make(map[domain.NaturalKey]bool, len(records))
	for _, record := range records {
		key := record.Key()
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}

	existing, err := repo.ExistingKeys(ctx, keys)
	if err != nil {
		return Partition{}, fmt.Errorf("failed to check existing keys: %w", err)
	}

	taken := make(map[domain.NaturalKey]bool, len(records))
	for _, record := range records {
		key := record.Key()
		if _, exists := existing[key]; exists {
			partition.Duplicates = append(partition.Duplicates, key)
			continue
		}
		if taken[key] {
			partition.Duplicates = append(partition.Duplicates, key)
			continue
		}
		taken[key] = true
		partition.New = append(partition.New, record)
	}

	return partition, nil
}
