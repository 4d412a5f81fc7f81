package unitmix

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"retrofit_valuation/pkg/core/llm"
	"retrofit_valuation/pkg/core/utils"
	"retrofit_valuation/pkg/models"
)

// Heuristic parameters: NYC multifamily averages. The distribution
// fractions intentionally sum below 1; three-bedrooms absorb the
// remainder, including rounding.
const (
	heuristicSqftPerUnit = 850.0
	heuristicStudioPct   = 0.20
	heuristicOneBedPct   = 0.45
	heuristicTwoBedPct   = 0.25
)

const systemPrompt = `You are a NYC residential building analyst. Given a building's characteristics, estimate its apartment unit mix. Respond with ONLY a JSON object of this exact shape: {"studio": <int>, "one_bedroom": <int>, "two_bedroom": <int>, "three_bedroom": <int>}. No prose, no markdown.`

// mixReply is the JSON shape the model is instructed to return.
type mixReply struct {
	Studio       int `json:"studio"`
	OneBedroom   int `json:"one_bedroom"`
	TwoBedroom   int `json:"two_bedroom"`
	ThreeBedroom int `json:"three_bedroom"`
}

// Service infers unit mixes through the configured LLM provider, falling
// back to the deterministic heuristic whenever inference cannot produce a
// usable mix. The active provider can be switched at runtime.
type Service struct {
	mu        sync.RWMutex
	config    Config
	providers map[string]llm.Provider
}

// NewService wires the known providers against the loaded config.
func NewService(config Config) *Service {
	return &Service{
		config: config,
		providers: map[string]llm.Provider{
			"gemini":   &llm.GeminiProvider{},
			"deepseek": &llm.DeepSeekProvider{},
			"qwen":     &llm.QwenProvider{},
		},
	}
}

// InferUnitMix produces the initial unit mix for a building. The result's
// Source field records how it was obtained ("llm" or "heuristic"). The
// explicit PTAC count stays zero; the unit-breakdown stage derives the
// fleet size from the per-type counts.
func (s *Service) InferUnitMix(ctx context.Context, building models.BuildingInfo) (models.UnitMix, error) {
	provider, providerName := s.activeProvider()
	if provider == nil {
		fmt.Printf("[UNITMIX] No provider configured; using heuristic for %s\n", building.Name)
		return s.heuristicMix(building), nil
	}

	options := map[string]interface{}{
		"response_format": map[string]interface{}{"type": "json_object"},
	}
	if cfg, ok := s.config.Providers[providerName]; ok && cfg.Model != "" {
		options["model"] = cfg.Model
	}

	reply, err := provider.GenerateResponse(ctx, buildPrompt(building), systemPrompt, options)
	if err != nil {
		fmt.Printf("[UNITMIX] Provider %s failed for %s: %v; using heuristic\n", providerName, building.Name, err)
		return s.heuristicMix(building), nil
	}

	var parsed mixReply
	if _, err := utils.SmartParse(reply, &parsed); err != nil {
		fmt.Printf("[UNITMIX] Unparseable reply from %s for %s; using heuristic\n", providerName, building.Name)
		return s.heuristicMix(building), nil
	}
	if parsed.Studio < 0 || parsed.OneBedroom < 0 || parsed.TwoBedroom < 0 || parsed.ThreeBedroom < 0 {
		fmt.Printf("[UNITMIX] Negative counts from %s for %s; using heuristic\n", providerName, building.Name)
		return s.heuristicMix(building), nil
	}
	total := parsed.Studio + parsed.OneBedroom + parsed.TwoBedroom + parsed.ThreeBedroom
	if total == 0 {
		fmt.Printf("[UNITMIX] Empty mix from %s for %s; using heuristic\n", providerName, building.Name)
		return s.heuristicMix(building), nil
	}

	return models.UnitMix{
		Studio:       parsed.Studio,
		OneBedroom:   parsed.OneBedroom,
		TwoBedroom:   parsed.TwoBedroom,
		ThreeBedroom: parsed.ThreeBedroom,
		TotalUnits:   total,
		Source:       "llm",
	}, nil
}

// ActiveProvider returns the provider name in use, empty in heuristic
// mode.
func (s *Service) ActiveProvider() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config.ActiveProvider
}

// AvailableProviders lists the wired provider names.
func (s *Service) AvailableProviders() []string {
	names := make([]string, 0, len(s.providers))
	for name := range s.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetActiveProvider switches inference to the named provider. The empty
// string selects heuristic mode.
func (s *Service) SetActiveProvider(name string) error {
	if name != "" {
		if _, ok := s.providers[name]; !ok {
			return fmt.Errorf("unknown provider %q", name)
		}
	}
	s.mu.Lock()
	s.config.ActiveProvider = name
	s.mu.Unlock()
	fmt.Printf("[UNITMIX] Active provider set to %q\n", name)
	return nil
}

// activeProvider resolves the configured provider, or nil for heuristic
// mode.
func (s *Service) activeProvider() (llm.Provider, string) {
	s.mu.RLock()
	name := s.config.ActiveProvider
	s.mu.RUnlock()
	if name == "" {
		return nil, ""
	}
	provider, ok := s.providers[name]
	if !ok {
		fmt.Printf("[UNITMIX] Unknown provider %q in config\n", name)
		return nil, ""
	}
	return provider, name
}

// heuristicMix distributes sqft/850 units across the unit types.
func (s *Service) heuristicMix(building models.BuildingInfo) models.UnitMix {
	totalUnits := int(building.TotalSqft / heuristicSqftPerUnit)
	if totalUnits <= 0 && building.TotalSqft > 0 {
		totalUnits = 1
	}

	studio := int(float64(totalUnits) * heuristicStudioPct)
	oneBed := int(float64(totalUnits) * heuristicOneBedPct)
	twoBed := int(float64(totalUnits) * heuristicTwoBedPct)
	threeBed := totalUnits - studio - oneBed - twoBed

	return models.UnitMix{
		Studio:       studio,
		OneBedroom:   oneBed,
		TwoBedroom:   twoBed,
		ThreeBedroom: threeBed,
		TotalUnits:   totalUnits,
		Source:       "heuristic",
	}
}

// buildPrompt renders the building attributes the model reasons over.
func buildPrompt(building models.BuildingInfo) string {
	return fmt.Sprintf(
		"Building: %s\nAddress: %s\nBBL: %s\nBuilding class: %s\nType: %s\nConstruction year: %d\nFloors: %d\nTotal square feet: %.0f\n\nEstimate the apartment unit mix.",
		building.Name, building.Address, building.BBL, building.BuildingClass,
		building.BuildingType, building.ConstructionYear, building.FloorCount,
		building.TotalSqft,
	)
}
