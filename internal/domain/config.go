package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// InputType — тип ввода для шага кастомизации
type InputType string

const (
	InputRadio        InputType = "radio"
	InputCheckboxes   InputType = "checkboxes"
	InputImageButtons InputType = "image_buttons"
	InputTextInput    InputType = "text_input"
	InputTextLabel    InputType = "text_label"
	InputCustomPrice  InputType = "custom_price"
)

// AllowedInputTypes — белый список типов ввода, всё остальное приводится к radio
var AllowedInputTypes = []InputType{
	InputRadio,
	InputCheckboxes,
	InputImageButtons,
	InputTextInput,
	InputTextLabel,
	InputCustomPrice,
}

// SelectionMode — сколько опций можно выбрать в шаге
type SelectionMode string

const (
	SelectionSingle   SelectionMode = "single"
	SelectionMultiple SelectionMode = "multiple"
)

// DependencyOperator — как комбинируются правила видимости шага
type DependencyOperator string

const (
	OperatorAll DependencyOperator = "all"
	OperatorAny DependencyOperator = "any"
)

// PriceType — способ расчёта цены опции
type PriceType string

const (
	PriceNone       PriceType = "none"
	PriceFixed      PriceType = "fixed"
	PricePercentage PriceType = "percentage"
	PriceQuantity   PriceType = "quantity"
	PriceCustom     PriceType = "custom"
)

// PlaceholderLayerURL — маркер для слоя, у которого не удалось определить картинку.
// Такие слои не рисуются, но сохраняют позицию и цену.
const PlaceholderLayerURL = "bq-missing-media"

// Layer — один прозрачный слой превью: картинка + наценка
type Layer struct {
	URL        string  `json:"url"`
	PriceDelta float64 `json:"price_delta"`
}

// OptionRef — ссылка на опцию в правиле зависимости: индекс или "any"
type OptionRef struct {
	Any   bool
	Index int
}

// AnyOption — wildcard "любая выбранная опция шага"
func AnyOption() OptionRef { return OptionRef{Any: true} }

// OptionIndex — ссылка на конкретную опцию
func OptionIndex(i int) OptionRef { return OptionRef{Index: i} }

func (r OptionRef) MarshalJSON() ([]byte, error) {
	if r.Any {
		return json.Marshal("any")
	}
	return json.Marshal(r.Index)
}

func (r *OptionRef) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if strings.EqualFold(strings.TrimSpace(s), "any") {
			*r = OptionRef{Any: true}
			return nil
		}
		return fmt.Errorf("bad option ref %q", s)
	}

	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*r = OptionRef{Index: n}
	return nil
}

func (r OptionRef) String() string {
	if r.Any {
		return "any"
	}
	return fmt.Sprintf("%d", r.Index)
}

// DependencyRule — условие видимости: в шаге Step выбрана опция Option
// (или любая опция, если Option = "any"). Step всегда ссылается строго назад.
type DependencyRule struct {
	Step   int       `json:"step"`
	Option OptionRef `json:"option"`
}

// Option — одна выбираемая опция шага
type Option struct {
	Title           string    `json:"title"`
	PriceType       PriceType `json:"price_type"`
	PriceValue      float64   `json:"price_value"`
	PriceDelta      float64   `json:"price_delta"` // плоская наценка из старых конфигов
	Layers          []Layer   `json:"layers"`
	SkipLayers      bool      `json:"skip_layers"`
	Color           string    `json:"color,omitempty"`
	QuantityEnabled bool      `json:"quantity_enabled"`
	MaxQuantity     int       `json:"max_quantity"` // 0 = без ограничения
	QuantityLayers  [][]Layer `json:"quantity_layers,omitempty"`
}

// Step — один шаг флоу кастомизации
type Step struct {
	Title              string             `json:"title"`
	InputType          InputType          `json:"input_type"`
	Selection          SelectionMode      `json:"selection"`
	MaxSelections      int                `json:"max_selections"` // 0 = без ограничения
	Required           bool               `json:"required"`
	ChoiceSource       string             `json:"choice_source,omitempty"`
	Attribute          string             `json:"attribute,omitempty"`
	Dependency         string             `json:"dependency,omitempty"` // legacy-строка "step:option"
	DependencyRules    []DependencyRule   `json:"dependency_rules"`
	DependencyOperator DependencyOperator `json:"dependency_operator"`
	Options            []Option           `json:"options"`
}

// IsTextual — шаги с вводом значения вместо выбора карточек
func (s Step) IsTextual() bool {
	switch s.InputType {
	case InputTextInput, InputTextLabel, InputCustomPrice:
		return true
	}
	return false
}

// RequiresSelection — нужно ли шагу хотя бы одно выбранное значение для сабмита.
// Информационные шаги (text_label) освобождены всегда.
func (s Step) RequiresSelection() bool {
	if !s.Required {
		return false
	}
	return s.InputType != InputTextLabel
}

// Config — каноническая конфигурация флоу для одного товара.
// После нормализации считается read-only на всё время сессии.
type Config struct {
	GroupID int64  `json:"group_id,omitempty"`
	Steps   []Step `json:"steps"`
}

// NewDemoConfig — стартовый флоу букета для демо-товара
func NewDemoConfig() *Config {
	return &Config{
		Steps: []Step{
			{
				Title:              "Основа",
				InputType:          InputRadio,
				Selection:          SelectionSingle,
				MaxSelections:      1,
				Required:           true,
				DependencyRules:    []DependencyRule{},
				DependencyOperator: OperatorAll,
				Options: []Option{
					{
						Title:     "Классическая",
						PriceType: PriceNone,
						Layers:    []Layer{{URL: "/uploads/base_classic.png"}},
					},
					{
						Title:      "Премиум",
						PriceType:  PriceFixed,
						PriceValue: 15,
						Layers:     []Layer{{URL: "/uploads/base_premium.png"}},
					},
				},
			},
			{
				Title:              "Цветы",
				InputType:          InputImageButtons,
				Selection:          SelectionMultiple,
				MaxSelections:      3,
				Required:           true,
				DependencyRules:    []DependencyRule{{Step: 0, Option: AnyOption()}},
				DependencyOperator: OperatorAll,
				Options: []Option{
					{
						Title:           "Розы",
						PriceType:       PriceQuantity,
						PriceValue:      4.5,
						QuantityEnabled: true,
						MaxQuantity:     9,
						Layers:          []Layer{{URL: "/uploads/flower_rose.png", PriceDelta: 0}},
					},
					{
						Title:  "Пионы",
						Layers: []Layer{{URL: "/uploads/flower_peony.png", PriceDelta: 2}},
					},
				},
			},
			{
				Title:              "Открытка",
				InputType:          InputTextInput,
				Selection:          SelectionSingle,
				MaxSelections:      1,
				DependencyRules:    []DependencyRule{},
				DependencyOperator: OperatorAll,
				Options: []Option{
					{Title: "Текст открытки", SkipLayers: true},
				},
			},
		},
	}
}
