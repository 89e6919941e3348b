package engine

import (
	"bouquet-builder-backend/internal/domain"
)

// EffectiveLayers — слои, которые реально рисуются и тарифицируются
// для опции при заданном количестве. Таблица quantity_layers задаёт
// подмену слоёв по количеству; последняя запись повторяется для
// количеств за пределами таблицы, пустая запись возвращает базовые слои.
func EffectiveLayers(opt domain.Option, quantity int) []domain.Layer {
	if opt.SkipLayers {
		return []domain.Layer{}
	}

	if quantity > 1 && opt.QuantityEnabled && len(opt.QuantityLayers) > 0 {
		idx := quantity - 1
		if idx >= len(opt.QuantityLayers) {
			idx = len(opt.QuantityLayers) - 1
		}
		if entry := opt.QuantityLayers[idx]; len(entry) > 0 {
			return entry
		}
	}

	return opt.Layers
}

// RenderStack — порядок отрисовки превью: слои всех активных выборов
// в порядке шаг-затем-опция. Поздние элементы рисуются поверх ранних.
// Слои в Selection уже эффективные, skip-опции дают пустой список.
func RenderStack(selections []domain.Selection) []domain.Layer {
	stack := []domain.Layer{}
	for _, s := range selections {
		stack = append(stack, s.Layers...)
	}
	return stack
}
