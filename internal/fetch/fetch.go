// Package fetch imports remote tenant state into local blueprint files:
// it lists the inventory for the configured families, imports the
// canonical documents over a bounded worker pool, decodes them into model
// elements and writes one .hcl file per family, plus settings.hcl and
// features.hcl.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/vk/tenantgridgo/internal/ctxlog"
	"github.com/vk/tenantgridgo/internal/model"
	"github.com/vk/tenantgridgo/internal/serializer"
	"github.com/vk/tenantgridgo/internal/tenant"
)

// Client is the slice of the tenant client fetch needs.
type Client interface {
	ListObjects(ctx context.Context, family string) ([]tenant.RemoteObject, error)
	ImportObjects(ctx context.Context, family string, keys []string) ([]json.RawMessage, error)
	ImportSettings(ctx context.Context, configType string) (json.RawMessage, error)
	ListFeatures(ctx context.Context) (map[string]bool, error)
}

// Fetcher imports remote state into a blueprint directory.
type Fetcher struct {
	client  Client
	workers int
}

// New creates a Fetcher importing through client with the given worker
// pool size for per-family imports.
func New(client Client, workers int) *Fetcher {
	if workers < 1 {
		workers = 1
	}
	return &Fetcher{client: client, workers: workers}
}

// familyResult is one worker's output: every object element of one family,
// or the error that stopped it.
type familyResult struct {
	family   string
	elements []*model.ObjectElement
	err      error
}

// Fetch imports the given families and configuration types into outDir.
// Families fan out over the worker pool; settings and features are few
// enough to import sequentially afterwards.
func (f *Fetcher) Fetch(ctx context.Context, families, configTypes []string, outDir string) error {
	logger := ctxlog.FromContext(ctx)
	logger.Info("🚚 Fetch starting.", "families", families, "workers", f.workers)

	jobs := make(chan string)
	results := make(chan familyResult)

	var wg sync.WaitGroup
	workerCount := f.workers
	if workerCount > len(families) {
		workerCount = len(families)
	}
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for family := range jobs {
				elements, err := f.importFamily(ctx, family)
				results <- familyResult{family: family, elements: elements, err: err}
				logger.Debug("Worker finished family.", "workerID", workerID, "family", family)
			}
		}(i)
	}

	go func() {
		for _, family := range families {
			jobs <- family
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	byFamily := make(map[string][]*model.ObjectElement)
	var firstErr error
	for result := range results {
		if result.err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("fetching family %s: %w", result.family, result.err)
			}
			continue
		}
		byFamily[result.family] = result.elements
	}
	if firstErr != nil {
		return firstErr
	}

	for _, family := range families {
		elements := byFamily[family]
		if err := writeObjectsFile(outDir, family, elements); err != nil {
			return err
		}
		logger.Info("Family imported.", "family", family, "objects", len(elements))
	}

	if err := f.fetchSettings(ctx, configTypes, outDir); err != nil {
		return err
	}
	if err := f.fetchFeatures(ctx, outDir); err != nil {
		return err
	}

	logger.Info("🏁 Fetch finished.", "families", len(families))
	return nil
}

// importFamily lists one family's inventory and imports and decodes its
// documents.
func (f *Fetcher) importFamily(ctx context.Context, family string) ([]*model.ObjectElement, error) {
	remote, err := f.client.ListObjects(ctx, family)
	if err != nil {
		return nil, err
	}
	if len(remote) == 0 {
		return nil, nil
	}

	keys := make([]string, 0, len(remote))
	for _, obj := range remote {
		keys = append(keys, obj.Key)
	}
	sort.Strings(keys)

	docs, err := f.client.ImportObjects(ctx, family, keys)
	if err != nil {
		return nil, err
	}

	elements := make([]*model.ObjectElement, 0, len(docs))
	for _, doc := range docs {
		el, err := serializer.Decode(doc)
		if err != nil {
			return nil, err
		}
		obj, ok := el.(*model.ObjectElement)
		if !ok {
			return nil, fmt.Errorf("family %s import returned a non-object document", family)
		}
		elements = append(elements, obj)
	}

	sort.Slice(elements, func(i, j int) bool { return elements[i].Name < elements[j].Name })
	return elements, nil
}

// fetchSettings imports the configuration types and writes settings.hcl.
func (f *Fetcher) fetchSettings(ctx context.Context, configTypes []string, outDir string) error {
	if len(configTypes) == 0 {
		return nil
	}

	var elements []*model.SettingsElement
	for _, configType := range configTypes {
		doc, err := f.client.ImportSettings(ctx, configType)
		if err != nil {
			return fmt.Errorf("fetching settings %s: %w", configType, err)
		}
		el, err := serializer.Decode(doc)
		if err != nil {
			return err
		}
		settings, ok := el.(*model.SettingsElement)
		if !ok {
			return fmt.Errorf("settings %s import returned a non-settings document", configType)
		}
		elements = append(elements, settings)
	}

	return writeSettingsFile(outDir, elements)
}

// fetchFeatures imports the feature toggle state and writes features.hcl.
func (f *Fetcher) fetchFeatures(ctx context.Context, outDir string) error {
	features, err := f.client.ListFeatures(ctx)
	if err != nil {
		return fmt.Errorf("fetching features: %w", err)
	}
	return writeFeaturesFile(outDir, &model.FeaturesElement{Enabled: features})
}
