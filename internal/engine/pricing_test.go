package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"bouquet-builder-backend/internal/domain"
)

func TestPriceDeltaByType(t *testing.T) {
	layers := []domain.Layer{{URL: "/a.png", PriceDelta: 2}, {URL: "/b.png", PriceDelta: 1}}

	// fixed: значение плюс слои
	opt := domain.Option{PriceType: domain.PriceFixed, PriceValue: 10}
	assert.Equal(t, 13.0, PriceDelta(opt, layers, 100, 1, 0))

	// percentage: процент от базовой цены
	opt = domain.Option{PriceType: domain.PricePercentage, PriceValue: 20}
	assert.Equal(t, 23.0, PriceDelta(opt, layers, 100, 1, 0))

	// custom: цена покупателя
	opt = domain.Option{PriceType: domain.PriceCustom}
	assert.Equal(t, 53.0, PriceDelta(opt, layers, 100, 1, 50))

	// none: legacy-поле плоской наценки
	opt = domain.Option{PriceType: domain.PriceNone, PriceDelta: 4}
	assert.Equal(t, 7.0, PriceDelta(opt, layers, 100, 1, 0))
}

func TestPriceDeltaQuantityAppliedOnce(t *testing.T) {
	layers := []domain.Layer{{URL: "/a.png", PriceDelta: 1}}

	// quantity-тип: количество входит в формулу и больше нигде не умножается,
	// даже при включённом счётчике
	opt := domain.Option{
		PriceType:       domain.PriceQuantity,
		PriceValue:      4.5,
		QuantityEnabled: true,
	}
	assert.Equal(t, 4.5*3+1, PriceDelta(opt, layers, 100, 3, 0))

	// другие типы умножаются на количество целиком при включённом счётчике
	opt = domain.Option{
		PriceType:       domain.PriceFixed,
		PriceValue:      10,
		QuantityEnabled: true,
	}
	assert.Equal(t, (10.0+1)*3, PriceDelta(opt, layers, 100, 3, 0))

	// без счётчика количество игнорируется
	opt.QuantityEnabled = false
	assert.Equal(t, 11.0, PriceDelta(opt, layers, 100, 3, 0))

	// процентная цена тоже умножается один раз: 10% от 100 на три штуки
	opt = domain.Option{
		PriceType:       domain.PricePercentage,
		PriceValue:      10,
		QuantityEnabled: true,
	}
	assert.Equal(t, 30.0, PriceDelta(opt, nil, 100, 3, 0))
}

func TestPriceDeltaClampsQuantity(t *testing.T) {
	opt := domain.Option{PriceType: domain.PriceQuantity, PriceValue: 5}
	assert.Equal(t, 5.0, PriceDelta(opt, nil, 0, 0, 0))
	assert.Equal(t, 5.0, PriceDelta(opt, nil, 0, -3, 0))
}

func TestTotalIsAdditive(t *testing.T) {
	selections := []domain.Selection{
		{PriceDelta: 15},
		{PriceDelta: -5},
		{PriceDelta: 2.5},
	}
	assert.Equal(t, 100+15-5+2.5, Total(100, selections))
	assert.Equal(t, 100.0, Total(100, nil))
}
