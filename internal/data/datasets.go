// README: Dataset registry — resolves --dataset names to order/courier file pairs.
package data

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Dataset is a paired orders/couriers input.
type Dataset struct {
	Name     string
	Orders   string
	Couriers string
}

// ListDatasets scans dataDir for <name>_orders.csv / <name>_couriers.csv
// pairs. Files missing their partner are skipped.
func ListDatasets(dataDir string) ([]Dataset, error) {
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInputSchema, err)
	}

	byName := make(map[string]*Dataset)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		switch {
		case strings.HasSuffix(name, "_orders.csv"):
			base := strings.TrimSuffix(name, "_orders.csv")
			ds := getOrInit(byName, base)
			ds.Orders = filepath.Join(dataDir, name)
		case strings.HasSuffix(name, "_couriers.csv"):
			base := strings.TrimSuffix(name, "_couriers.csv")
			ds := getOrInit(byName, base)
			ds.Couriers = filepath.Join(dataDir, name)
		}
	}

	var out []Dataset
	for _, ds := range byName {
		if ds.Orders != "" && ds.Couriers != "" {
			out = append(out, *ds)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ResolveDataset finds a dataset by name.
func ResolveDataset(dataDir, name string) (Dataset, error) {
	datasets, err := ListDatasets(dataDir)
	if err != nil {
		return Dataset{}, err
	}
	for _, ds := range datasets {
		if ds.Name == name {
			return ds, nil
		}
	}
	return Dataset{}, fmt.Errorf("%w: unknown dataset %q in %s", ErrInputSchema, name, dataDir)
}

func getOrInit(m map[string]*Dataset, name string) *Dataset {
	if ds, ok := m[name]; ok {
		return ds
	}
	ds := &Dataset{Name: name}
	m[name] = ds
	return ds
}
