package jurisdictions

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/duihelp/leadgen/internal/core/domain"
)

type seedFile struct {
	States []domain.StateSeed `yaml:"states"`
}

func LoadYAMLFile(path string) ([]domain.StateSeed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	return DecodeYAML(f)
}

func DecodeYAML(r io.Reader) ([]domain.StateSeed, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file seedFile
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("seed file is empty")
		}
		return nil, fmt.Errorf("decode seed yaml: %w", err)
	}
	return file.States, nil
}
