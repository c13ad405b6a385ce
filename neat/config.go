package neat

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"
)

// Config stores the configuration parameters for the NEAT algorithm.
// Every tunable consumed by mutation, crossover, speciation and reproduction
// lives here; nothing is passed per call.
type Config struct {
	Neat         NeatConfig         `yaml:"neat"`
	Genome       GenomeConfig       `yaml:"genome"`
	Reproduction ReproductionConfig `yaml:"reproduction"`
	SpeciesSet   SpeciesSetConfig   `yaml:"species_set"`
	Stagnation   StagnationConfig   `yaml:"stagnation"`
}

// NeatConfig holds population-wide switches.
type NeatConfig struct {
	PopSize    int  `ini:"pop_size" yaml:"pop_size"`
	NumInputs  int  `ini:"num_inputs" yaml:"num_inputs"`
	NumOutputs int  `ini:"num_outputs" yaml:"num_outputs"`
	UseBias    bool `ini:"use_bias" yaml:"use_bias"` // Appends an input pinned to 1.0 on every evaluation
	// PersistSpecies keeps species and their champions across generations.
	// When false, species are rebuilt from scratch every generation.
	PersistSpecies bool `ini:"persist_species" yaml:"persist_species"`
	// ResetInnovations clears the innovation registry at every generation boundary.
	ResetInnovations bool  `ini:"reset_innovations" yaml:"reset_innovations"`
	Seed             int64 `ini:"seed" yaml:"seed"` // 0 seeds from the clock
}

// GenomeConfig holds parameters for mutation, crossover and evaluation of genomes.
type GenomeConfig struct {
	WeightMutateProb   float64 `ini:"weight_mutate_prob" yaml:"weight_mutate_prob"`     // Gate for the weight pass
	WeightPerturbProb  float64 `ini:"weight_perturb_prob" yaml:"weight_perturb_prob"`   // Per connection: perturb instead of replace
	WeightPerturbPower float64 `ini:"weight_perturb_power" yaml:"weight_perturb_power"` // Perturbation drawn from [-power, power]
	WeightInitRange    float64 `ini:"weight_init_range" yaml:"weight_init_range"`       // Fresh weights drawn from [-range, range]

	ConnAddProb      float64 `ini:"conn_add_prob" yaml:"conn_add_prob"`
	NodeAddProb      float64 `ini:"node_add_prob" yaml:"node_add_prob"`
	ToggleEnableProb float64 `ini:"toggle_enable_prob" yaml:"toggle_enable_prob"`

	// KeepDisabledProb is the chance an inherited disabled gene stays disabled in an offspring.
	KeepDisabledProb float64 `ini:"keep_disabled_prob" yaml:"keep_disabled_prob"`

	SigmoidSteepness float64 `ini:"sigmoid_steepness" yaml:"sigmoid_steepness"`
}

// ReproductionConfig holds parameters related to reproduction.
type ReproductionConfig struct {
	CrossoverFraction float64 `ini:"crossover_fraction" yaml:"crossover_fraction"` // Share of a quota filled by mating
	ChampionMinSize   int     `ini:"champion_min_size" yaml:"champion_min_size"`   // Species at least this big keep an unmutated champion
	SurvivalThreshold float64 `ini:"survival_threshold" yaml:"survival_threshold"` // Share of members eligible as parents
}

// SpeciesSetConfig holds parameters related to speciation.
type SpeciesSetConfig struct {
	CompatibilityThreshold float64 `ini:"compatibility_threshold" yaml:"compatibility_threshold"`
	ExcessCoefficient      float64 `ini:"excess_coefficient" yaml:"excess_coefficient"`
	DisjointCoefficient    float64 `ini:"disjoint_coefficient" yaml:"disjoint_coefficient"`
	WeightCoefficient      float64 `ini:"weight_coefficient" yaml:"weight_coefficient"`
}

// StagnationConfig holds parameters related to species stagnation.
// Only consulted when species persist across generations.
type StagnationConfig struct {
	MaxStagnation int `ini:"max_stagnation" yaml:"max_stagnation"` // 0 disables stagnation
}

// DefaultConfig returns a configuration populated with the library defaults.
func DefaultConfig() *Config {
	return &Config{
		Neat: NeatConfig{
			PopSize:    100,
			NumInputs:  2,
			NumOutputs: 1,
		},
		Genome: GenomeConfig{
			WeightMutateProb:   0.8,
			WeightPerturbProb:  0.9,
			WeightPerturbPower: 0.5,
			WeightInitRange:    2.0,
			ConnAddProb:        0.3,
			NodeAddProb:        0.1,
			ToggleEnableProb:   0.01,
			KeepDisabledProb:   0.75,
			SigmoidSteepness:   4.9,
		},
		Reproduction: ReproductionConfig{
			CrossoverFraction: 0.75,
			ChampionMinSize:   5,
			SurvivalThreshold: 0.5,
		},
		SpeciesSet: SpeciesSetConfig{
			CompatibilityThreshold: 2.0,
			ExcessCoefficient:      1.0,
			DisjointCoefficient:    1.0,
			WeightCoefficient:      1.0,
		},
	}
}

// LoadConfig loads configuration parameters from an INI or YAML file.
// Values missing from the file keep their defaults.
func LoadConfig(filePath string) (*Config, error) {
	var (
		config *Config
		err    error
	)
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".yaml", ".yml":
		config, err = loadYAMLConfig(filePath)
	default:
		config, err = loadINIConfig(filePath)
	}
	if err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func loadINIConfig(filePath string) (*Config, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:         true,
		UnescapeValueCommentSymbols: true,
	}, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file '%s': %w", filePath, err)
	}

	config := DefaultConfig()
	sections := []struct {
		name   string
		target any
	}{
		{"NEAT", &config.Neat},
		{"DefaultGenome", &config.Genome},
		{"DefaultReproduction", &config.Reproduction},
		{"DefaultSpeciesSet", &config.SpeciesSet},
		{"DefaultStagnation", &config.Stagnation},
	}
	for _, s := range sections {
		if !cfg.HasSection(s.name) {
			continue
		}
		if err := cfg.Section(s.name).MapTo(s.target); err != nil {
			return nil, fmt.Errorf("failed to map [%s] section: %w", s.name, err)
		}
	}
	return config, nil
}

func loadYAMLConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", filePath, err)
	}
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file '%s': %w", filePath, err)
	}
	return config, nil
}

// Validate checks that every parameter is within its legal range.
func (c *Config) Validate() error {
	if c.Neat.PopSize <= 0 {
		return fmt.Errorf("config error: pop_size must be positive")
	}
	if c.Neat.NumInputs <= 0 {
		return fmt.Errorf("config error: num_inputs must be positive")
	}
	if c.Neat.NumOutputs <= 0 {
		return fmt.Errorf("config error: num_outputs must be positive")
	}

	probs := []struct {
		name  string
		value float64
	}{
		{"weight_mutate_prob", c.Genome.WeightMutateProb},
		{"weight_perturb_prob", c.Genome.WeightPerturbProb},
		{"conn_add_prob", c.Genome.ConnAddProb},
		{"node_add_prob", c.Genome.NodeAddProb},
		{"toggle_enable_prob", c.Genome.ToggleEnableProb},
		{"keep_disabled_prob", c.Genome.KeepDisabledProb},
		{"crossover_fraction", c.Reproduction.CrossoverFraction},
		{"survival_threshold", c.Reproduction.SurvivalThreshold},
	}
	for _, p := range probs {
		if p.value < 0 || p.value > 1 {
			return fmt.Errorf("config error: %s must be between 0 and 1", p.name)
		}
	}

	if c.Genome.WeightPerturbPower < 0 {
		return fmt.Errorf("config error: weight_perturb_power cannot be negative")
	}
	if c.Genome.WeightInitRange <= 0 {
		return fmt.Errorf("config error: weight_init_range must be positive")
	}
	if c.Genome.SigmoidSteepness <= 0 {
		return fmt.Errorf("config error: sigmoid_steepness must be positive")
	}
	if c.Reproduction.ChampionMinSize <= 0 {
		return fmt.Errorf("config error: champion_min_size must be positive")
	}
	if c.SpeciesSet.CompatibilityThreshold < 0 {
		return fmt.Errorf("config error: compatibility_threshold cannot be negative")
	}
	if c.SpeciesSet.ExcessCoefficient < 0 || c.SpeciesSet.DisjointCoefficient < 0 || c.SpeciesSet.WeightCoefficient < 0 {
		return fmt.Errorf("config error: compatibility coefficients cannot be negative")
	}
	if c.Stagnation.MaxStagnation < 0 {
		return fmt.Errorf("config error: max_stagnation cannot be negative")
	}
	return nil
}

// genomeInputs is the number of Input nodes each genome carries, bias included.
func (c *Config) genomeInputs() int {
	if c.Neat.UseBias {
		return c.Neat.NumInputs + 1
	}
	return c.Neat.NumInputs
}
