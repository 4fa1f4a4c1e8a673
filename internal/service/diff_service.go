package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/oliveandembers/backoffice-api/internal/baseline"
	"github.com/oliveandembers/backoffice-api/internal/models"
	appErrors "github.com/oliveandembers/backoffice-api/pkg/errors"
)

// DiffVariableReader is the store surface the diff engine needs.
type DiffVariableReader interface {
	ListByCategories(ctx context.Context, categories []models.VariableCategory) ([]models.ConfigVariable, error)
}

// ProviderResolver maps source names to baseline providers.
type ProviderResolver interface {
	Sources() []string
	Resolve(sources []string) ([]baseline.Provider, error)
}

// DiffService compares code-declared baselines against the persisted store.
// It performs no writes; sync applies the result, admin endpoints render it.
type DiffService struct {
	variables DiffVariableReader
	registry  ProviderResolver
}

// NewDiffService constructs a diff service.
func NewDiffService(variables DiffVariableReader, registry ProviderResolver) *DiffService {
	return &DiffService{variables: variables, registry: registry}
}

// Sources lists every registered baseline source.
func (s *DiffService) Sources() []string {
	return s.registry.Sources()
}

// Compute diffs each requested source. An empty source list selects all
// registered sources. The first source failure aborts the whole computation;
// callers that need per-source isolation use ComputeProvider directly.
func (s *DiffService) Compute(ctx context.Context, sources []string) ([]models.SyncDiff, error) {
	providers, err := s.registry.Resolve(sources)
	if err != nil {
		return nil, err
	}
	diffs := make([]models.SyncDiff, 0, len(providers))
	for _, p := range providers {
		diff, err := s.ComputeProvider(ctx, p)
		if err != nil {
			return nil, err
		}
		diffs = append(diffs, diff)
	}
	return diffs, nil
}

// ComputeProvider diffs a single source. Comparison happens on canonical
// values, so a numeric baseline of 5 matches a stored 5.0. Removals are only
// reported for complete sources; a partial baseline says nothing about keys
// it does not declare.
func (s *DiffService) ComputeProvider(ctx context.Context, p baseline.Provider) (models.SyncDiff, error) {
	source := p.Source()
	diff := models.SyncDiff{Source: source}

	entries, err := p.Entries(ctx)
	if err != nil {
		return diff, appErrors.Wrap(err,
			appErrors.ErrSourceUnavailable.Code,
			appErrors.ErrSourceUnavailable.Status,
			fmt.Sprintf("baseline source %s unavailable", source))
	}

	categories := distinctCategories(entries)
	stored, err := s.variables.ListByCategories(ctx, categories)
	if err != nil {
		return diff, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "read config store")
	}

	storedByKey := make(map[string]models.ConfigVariable, len(stored))
	for _, v := range stored {
		storedByKey[variableKey(v.Category, v.Key)] = v
	}

	declared := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		id := variableKey(e.Category, e.Key)
		declared[id] = struct{}{}

		current, exists := storedByKey[id]
		if !exists {
			value := e.Value
			diff.Added = append(diff.Added, models.DiffEntry{
				Category: e.Category,
				Key:      e.Key,
				Type:     e.Type,
				NewValue: &value,
			})
			continue
		}
		if current.Type != e.Type || !models.ValuesEqual(e.Type, current.Value, e.Value) {
			oldValue := current.Value
			newValue := e.Value
			diff.Changed = append(diff.Changed, models.DiffEntry{
				Category: e.Category,
				Key:      e.Key,
				Type:     e.Type,
				OldValue: &oldValue,
				NewValue: &newValue,
			})
		}
	}

	if p.Complete() {
		for _, v := range stored {
			if _, ok := declared[variableKey(v.Category, v.Key)]; ok {
				continue
			}
			oldValue := v.Value
			diff.Removed = append(diff.Removed, models.DiffEntry{
				Category: v.Category,
				Key:      v.Key,
				Type:     v.Type,
				OldValue: &oldValue,
			})
		}
	}

	sortDiffEntries(diff.Added)
	sortDiffEntries(diff.Changed)
	sortDiffEntries(diff.Removed)
	return diff, nil
}

func distinctCategories(entries []models.BaselineEntry) []models.VariableCategory {
	seen := make(map[models.VariableCategory]struct{}, len(entries))
	var out []models.VariableCategory
	for _, e := range entries {
		if _, ok := seen[e.Category]; ok {
			continue
		}
		seen[e.Category] = struct{}{}
		out = append(out, e.Category)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func sortDiffEntries(entries []models.DiffEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Category != entries[j].Category {
			return entries[i].Category < entries[j].Category
		}
		return entries[i].Key < entries[j].Key
	})
}

func variableKey(category models.VariableCategory, key string) string {
	return string(category) + ":" + key
}
