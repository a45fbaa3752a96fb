package calendar

import (
	_ "embed"
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed calendar.yaml
var calendarYAML []byte

// DefaultDataset returns the dataset embedded in the binary.
func DefaultDataset() Dataset {
	var data Dataset
	if err := yaml.Unmarshal(calendarYAML, &data); err != nil {
		// Embedded file, cannot fail in practice.
		panic("failed to unmarshal embedded calendar.yaml: " + err.Error())
	}
	return data
}

// EmptyDataset returns a dataset with no entries. The service stays fully
// functional with it: every day classifies as regular and only the
// Easter-relative rules apply.
func EmptyDataset() Dataset {
	return Dataset{SaintDays: map[string]string{}}
}

// LoadDataset reads a dataset from a YAML file.
func LoadDataset(path string) (Dataset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Dataset{}, fmt.Errorf("reading calendar data: %w", err)
	}
	var data Dataset
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return Dataset{}, fmt.Errorf("parsing calendar data: %w", err)
	}
	return data, nil
}

// DatasetFromFileOrDefault loads a dataset from path, or the embedded default
// when path is empty. A missing or unparseable file is logged and degrades to
// the empty dataset so the calendar keeps answering instead of failing hard.
func DatasetFromFileOrDefault(path string) Dataset {
	if path == "" {
		return DefaultDataset()
	}
	data, err := LoadDataset(path)
	if err != nil {
		log.Printf("calendar: falling back to empty dataset: %v", err)
		return EmptyDataset()
	}
	return data
}
