package engine

import (
	_ "embed"
	"log"
	"sync"

	"gopkg.in/yaml.v3"

	"led-display/internal/models"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type defaultSet struct {
	Slides []defaultSlide `yaml:"slides"`
}

type defaultSlide struct {
	Name      string         `yaml:"name"`
	Type      string         `yaml:"type"`
	Duration  float64        `yaml:"duration"`
	Active    bool           `yaml:"active"`
	Singleton bool           `yaml:"singleton"`
	Data      map[string]any `yaml:"data"`
}

var (
	defaultsOnce sync.Once
	defaultsCfg  defaultSet
)

func loadDefaults() defaultSet {
	defaultsOnce.Do(func() {
		if err := yaml.Unmarshal(defaultsYAML, &defaultsCfg); err != nil {
			// The file is embedded at build time; a parse failure is a
			// programming error, not a runtime condition.
			log.Fatalf("defaults.yaml is invalid: %v", err)
		}
	})
	return defaultsCfg
}

// DefaultSlides synthesizes the built-in slide set with fresh ids. Each call
// returns independent copies, so callers may mutate freely.
func DefaultSlides() []models.Slide {
	cfg := loadDefaults()
	slides := make([]models.Slide, 0, len(cfg.Slides))
	for _, d := range cfg.Slides {
		data := make(map[string]any, len(d.Data))
		for k, v := range d.Data {
			data[k] = v
		}
		slides = append(slides, models.Slide{
			ID:         models.NewSlideID(),
			Name:       d.Name,
			Type:       models.SlideType(d.Type),
			DataSource: models.SourceAutomated,
			Duration:   d.Duration,
			Active:     d.Active,
			Data:       data,
		})
	}
	return slides
}

// SingletonCategories lists the categories the defaults guarantee to exist,
// in default sequence order.
func SingletonCategories() []string {
	var cats []string
	for _, s := range DefaultSlides() {
		if s.IsSingleton() {
			cats = append(cats, s.Category())
		}
	}
	return cats
}
