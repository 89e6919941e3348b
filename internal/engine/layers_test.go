package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"bouquet-builder-backend/internal/domain"
)

func TestEffectiveLayersQuantityTable(t *testing.T) {
	opt := domain.Option{
		QuantityEnabled: true,
		Layers:          []domain.Layer{{URL: "/base.png"}},
		QuantityLayers: [][]domain.Layer{
			{{URL: "/q1.png"}},
			{},
			{{URL: "/q3.png"}},
		},
	}

	// количество 1 всегда рисует базовые слои
	assert.Equal(t, []domain.Layer{{URL: "/base.png"}}, EffectiveLayers(opt, 1))

	// пустая запись таблицы откатывается к базовым слоям
	assert.Equal(t, []domain.Layer{{URL: "/base.png"}}, EffectiveLayers(opt, 2))

	// запись по индексу количество-1
	assert.Equal(t, []domain.Layer{{URL: "/q3.png"}}, EffectiveLayers(opt, 3))

	// за пределами таблицы повторяется последняя запись
	assert.Equal(t, []domain.Layer{{URL: "/q3.png"}}, EffectiveLayers(opt, 9))
}

func TestEffectiveLayersSkipAndDisabled(t *testing.T) {
	opt := domain.Option{
		SkipLayers:     true,
		Layers:         []domain.Layer{{URL: "/base.png"}},
		QuantityLayers: [][]domain.Layer{{{URL: "/q1.png"}}},
	}
	assert.Empty(t, EffectiveLayers(opt, 5))

	// таблица количеств не действует без включённого счётчика
	opt = domain.Option{
		Layers:         []domain.Layer{{URL: "/base.png"}},
		QuantityLayers: [][]domain.Layer{{{URL: "/q1.png"}}, {{URL: "/q2.png"}}},
	}
	assert.Equal(t, []domain.Layer{{URL: "/base.png"}}, EffectiveLayers(opt, 2))
}

func TestRenderStackOrder(t *testing.T) {
	selections := []domain.Selection{
		{StepIndex: 0, Layers: []domain.Layer{{URL: "/base.png"}}},
		{StepIndex: 1, Layers: []domain.Layer{{URL: "/rose.png"}, {URL: "/peony.png"}}},
		{StepIndex: 2, Layers: []domain.Layer{}},
	}

	stack := RenderStack(selections)
	assert.Equal(t, []domain.Layer{
		{URL: "/base.png"},
		{URL: "/rose.png"},
		{URL: "/peony.png"},
	}, stack)

	assert.Empty(t, RenderStack(nil))
}
