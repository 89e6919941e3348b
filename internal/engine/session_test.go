package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bouquet-builder-backend/internal/domain"
)

func sessionConfig() *domain.Config {
	return &domain.Config{
		Steps: []domain.Step{
			{
				Title:     "Основа",
				InputType: domain.InputRadio,
				Selection: domain.SelectionSingle,
				Required:  true,
				Options: []domain.Option{
					{Title: "Классика", Layers: []domain.Layer{{URL: "/base_a.png"}}},
					{Title: "Премиум", PriceType: domain.PriceFixed, PriceValue: 15, Layers: []domain.Layer{{URL: "/base_b.png"}}},
				},
			},
			{
				Title:           "Цветы",
				InputType:       domain.InputCheckboxes,
				Selection:       domain.SelectionMultiple,
				MaxSelections:   2,
				Required:        true,
				DependencyRules: []domain.DependencyRule{{Step: 0, Option: domain.AnyOption()}},
				Options: []domain.Option{
					{
						Title:           "Розы",
						PriceType:       domain.PriceQuantity,
						PriceValue:      4.5,
						QuantityEnabled: true,
						MaxQuantity:     5,
						Layers:          []domain.Layer{{URL: "/rose.png"}},
					},
					{Title: "Пионы", Layers: []domain.Layer{{URL: "/peony.png", PriceDelta: 2}}},
					{Title: "Тюльпаны", Layers: []domain.Layer{{URL: "/tulip.png"}}},
				},
			},
			{
				Title:     "Открытка",
				InputType: domain.InputTextInput,
				Selection: domain.SelectionSingle,
				Options:   []domain.Option{{Title: "Текст", SkipLayers: true}},
			},
			{
				Title:     "Своя сумма",
				InputType: domain.InputCustomPrice,
				Selection: domain.SelectionSingle,
				Options:   []domain.Option{{Title: "Сумма", SkipLayers: true}},
			},
		},
	}
}

func TestSessionSingleModeExclusive(t *testing.T) {
	s := NewSession(sessionConfig(), 100)

	require.NoError(t, s.Select(0, 0, 1))
	require.NoError(t, s.Select(0, 1, 1))

	sels := s.Selections()
	require.Len(t, sels, 1)
	assert.Equal(t, 1, sels[0].OptionIndex)
	assert.Equal(t, 15.0, sels[0].PriceDelta)
	assert.Equal(t, 115.0, s.Total())
}

func TestSessionMultipleToggleAndCap(t *testing.T) {
	s := NewSession(sessionConfig(), 100)
	require.NoError(t, s.Select(0, 0, 1))

	require.NoError(t, s.Select(1, 0, 1))
	require.NoError(t, s.Select(1, 1, 1))

	// лимит 2 достигнут
	assert.ErrorIs(t, s.Select(1, 2, 1), ErrSelectionCap)

	// повторный Select снимает выбор, освобождая место
	require.NoError(t, s.Select(1, 0, 1))
	require.NoError(t, s.Select(1, 2, 1))

	sels := s.Selections()
	require.Len(t, sels, 3)
	assert.Equal(t, []int{0, 1, 2}, []int{sels[0].StepIndex, sels[1].OptionIndex, sels[2].OptionIndex})
}

func TestSessionQuantity(t *testing.T) {
	s := NewSession(sessionConfig(), 100)
	require.NoError(t, s.Select(0, 0, 1))

	// увеличение количества невыбранной опции неявно выбирает её
	require.NoError(t, s.SetQuantity(1, 0, 2))
	sels := s.Selections()
	require.Len(t, sels, 2)
	assert.Equal(t, 3, sels[1].Quantity)
	assert.Equal(t, 4.5*3, sels[1].PriceDelta)

	// зажим сверху в max_quantity
	require.NoError(t, s.SetQuantity(1, 0, 100))
	sels = s.Selections()
	assert.Equal(t, 5, sels[1].Quantity)

	// зажим снизу в 1
	require.NoError(t, s.SetQuantity(1, 0, -100))
	sels = s.Selections()
	assert.Equal(t, 1, sels[1].Quantity)

	// неположительная дельта на невыбранной опции — no-op
	s.Deselect(1, 0)
	require.NoError(t, s.SetQuantity(1, 0, 0))
	assert.Len(t, s.Selections(), 1)

	// у опции без счётчика количества нет
	assert.Error(t, s.SetQuantity(1, 1, 1))
}

func TestSessionTextAndCustomPrice(t *testing.T) {
	s := NewSession(sessionConfig(), 100)

	// текстовый шаг не принимает Select
	assert.Error(t, s.Select(2, 0, 1))

	require.NoError(t, s.SetTextValue(2, 0, "  С днём рождения  "))
	sels := s.Selections()
	require.Len(t, sels, 1)
	assert.Equal(t, "С днём рождения", sels[0].CustomValue)

	// пустое значение снимает выбор
	require.NoError(t, s.SetTextValue(2, 0, "   "))
	assert.Empty(t, s.Selections())

	// custom_price учитывается в цене как есть
	require.NoError(t, s.SetCustomPrice(3, 0, 50))
	sels = s.Selections()
	require.Len(t, sels, 1)
	assert.Equal(t, domain.PriceCustom, sels[0].PriceType)
	assert.Equal(t, 50.0, sels[0].PriceDelta)

	// неположительная сумма снимает выбор
	require.NoError(t, s.SetCustomPrice(3, 0, 0))
	assert.Empty(t, s.Selections())

	assert.Error(t, s.SetCustomPrice(2, 0, 10))
	assert.Error(t, s.SetTextValue(0, 0, "нет"))
}

func TestSessionHiddenStepLosesSelections(t *testing.T) {
	s := NewSession(sessionConfig(), 100)

	require.NoError(t, s.Select(0, 0, 1))
	require.NoError(t, s.Select(1, 1, 1))
	assert.Len(t, s.Selections(), 2)

	// снятие основы скрывает шаг цветов и забирает его выборы
	require.NoError(t, s.Select(0, 0, 1)) // single: повторный Select замещает сам себя
	s.Deselect(0, 0)

	assert.Equal(t, []bool{true, false, true, true}, s.Visible())
	assert.Empty(t, s.Selections())
}

func TestSessionCompleteAndStack(t *testing.T) {
	s := NewSession(sessionConfig(), 100)
	assert.False(t, s.IsComplete())

	require.NoError(t, s.Select(0, 1, 1))
	assert.False(t, s.IsComplete()) // обязательный шаг цветов ещё пуст

	require.NoError(t, s.Select(1, 1, 1))
	assert.True(t, s.IsComplete())

	stack := s.RenderStack()
	assert.Equal(t, []domain.Layer{
		{URL: "/base_b.png"},
		{URL: "/peony.png", PriceDelta: 2},
	}, stack)
	assert.Equal(t, 100+15+2.0, s.Total())
}

func TestSessionUnknownIndexes(t *testing.T) {
	s := NewSession(sessionConfig(), 100)
	assert.Error(t, s.Select(-1, 0, 1))
	assert.Error(t, s.Select(9, 0, 1))
	assert.Error(t, s.Select(0, 9, 1))
	assert.Error(t, s.SetQuantity(9, 0, 1))
}
