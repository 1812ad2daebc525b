package monitor

import (
	"fmt"

	"github.com/GxAditya/LinguaSpark-sub001/pkg/config"
)

// CostModel prices completed requests. Token-based operations cost
// (tokens/1000) * baseRate * modelMultiplier; fixed-unit operations (one
// image) cost baseRate * sizeMultiplier * modelMultiplier.
type CostModel struct {
	rates config.CostRates
}

// NewCostModel builds a CostModel from configured rates.
func NewCostModel(rates config.CostRates) *CostModel {
	return &CostModel{rates: rates}
}

// TextCost prices a token-based generation.
func (m *CostModel) TextCost(tokens int, modelMultiplier float64) float64 {
	if modelMultiplier <= 0 {
		modelMultiplier = 1.0
	}
	return float64(tokens) / 1000 * m.rates.TextPer1KTokens * modelMultiplier
}

// ImageCost prices a single generated image by its dimensions.
func (m *CostModel) ImageCost(width, height int, modelMultiplier float64) float64 {
	if modelMultiplier <= 0 {
		modelMultiplier = 1.0
	}
	size := fmt.Sprintf("%dx%d", width, height)
	mult, ok := m.rates.SizeMultipliers[size]
	if !ok {
		mult = 1.0
	}
	return m.rates.ImageBase * mult * modelMultiplier
}
