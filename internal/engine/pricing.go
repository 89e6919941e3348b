package engine

import (
	"bouquet-builder-backend/internal/domain"
)

// LayerPriceTotal — сумма наценок по слоям
func LayerPriceTotal(layers []domain.Layer) float64 {
	total := 0.0
	for _, l := range layers {
		total += l.PriceDelta
	}
	return total
}

// PriceDelta считает наценку одного выбора.
//
// Количество применяется ровно один раз: для типа quantity оно входит
// в саму формулу, для остальных типов умножается весь результат,
// если у опции включён счётчик количества.
func PriceDelta(opt domain.Option, layers []domain.Layer, basePrice float64, quantity int, customPrice float64) float64 {
	if quantity < 1 {
		quantity = 1
	}
	layerTotal := LayerPriceTotal(layers)

	if opt.PriceType == domain.PriceQuantity {
		return opt.PriceValue*float64(quantity) + layerTotal
	}

	var base float64
	switch opt.PriceType {
	case domain.PriceFixed:
		base = opt.PriceValue
	case domain.PricePercentage:
		base = basePrice * opt.PriceValue / 100
	case domain.PriceCustom:
		base = customPrice
	default:
		// legacy-поле плоской наценки, когда явный тип цены не задан
		base = opt.PriceDelta
	}

	delta := base + layerTotal
	if opt.QuantityEnabled {
		delta *= float64(quantity)
	}
	return delta
}

// Total — итоговая цена: база плюс уже посчитанные наценки выборов
func Total(basePrice float64, selections []domain.Selection) float64 {
	total := basePrice
	for _, s := range selections {
		total += s.PriceDelta
	}
	return total
}
