package engine

import (
	"fmt"
	"strings"

	"bouquet-builder-backend/internal/domain"
)

// Коды ошибок валидации сабмита. Ошибка всегда указывает на конкретный
// шаг/опцию — финализация ничего не исправляет молча.
const (
	VErrNoSelections    = "no_selections"
	VErrNoSteps         = "no_steps"
	VErrUnknownStep     = "unknown_step"
	VErrUnknownOption   = "unknown_option"
	VErrSingleMode      = "single_mode_conflict"
	VErrCapExceeded     = "cap_exceeded"
	VErrMissingText     = "missing_text_value"
	VErrBadCustomPrice  = "invalid_custom_price"
	VErrHiddenStep      = "hidden_step"
	VErrMissingRequired = "missing_required_step"
)

// ValidationError — структурированная ошибка проверки сабмита
type ValidationError struct {
	Code        string `json:"code"`
	StepIndex   int    `json:"stepIndex"`
	OptionIndex int    `json:"optionIndex"`
	Message     string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s (step %d, option %d): %s", e.Code, e.StepIndex, e.OptionIndex, e.Message)
}

func validationErr(code string, step, option int, format string, args ...interface{}) *ValidationError {
	return &ValidationError{
		Code:        code,
		StepIndex:   step,
		OptionIndex: option,
		Message:     fmt.Sprintf(format, args...),
	}
}

// SubmittedSelection — выбор в том виде, как его прислал клиент.
// Старые клиенты шлют snake_case поля, новые — camelCase; принимаем оба.
type SubmittedSelection struct {
	StepIndex   int     `json:"stepIndex"`
	OptionIndex int     `json:"optionIndex"`
	Quantity    int     `json:"quantity"`
	CustomValue string  `json:"customValue"`
	CustomPrice float64 `json:"customPrice"`

	LegacyCustomValue string  `json:"custom_value"`
	LegacyCustomPrice float64 `json:"custom_price"`
}

func (s SubmittedSelection) customValue() string {
	if v := strings.TrimSpace(s.CustomValue); v != "" {
		return v
	}
	return strings.TrimSpace(s.LegacyCustomValue)
}

func (s SubmittedSelection) customPrice() float64 {
	if s.CustomPrice != 0 {
		return s.CustomPrice
	}
	return s.LegacyCustomPrice
}

// ValidateSubmission — авторитетная проверка на границе финализации:
// присланные выборы прогоняются против канонической серверной конфигурации,
// цена пересчитывается движком и никогда не берётся у клиента.
// Дубликаты (шаг, опция) схлопываются молча, всё остальное — ошибка.
func ValidateSubmission(cfg *domain.Config, submitted []SubmittedSelection, basePrice float64) ([]domain.Selection, float64, error) {
	if cfg == nil || len(cfg.Steps) == 0 {
		return nil, 0, validationErr(VErrNoSteps, -1, -1, "configuration has no steps")
	}
	if len(submitted) == 0 {
		return nil, 0, validationErr(VErrNoSelections, -1, -1, "no selections submitted")
	}

	seen := make(map[[2]int]bool)
	counts := make(map[int]int)
	out := []domain.Selection{}

	for _, sub := range submitted {
		if sub.StepIndex < 0 || sub.StepIndex >= len(cfg.Steps) {
			return nil, 0, validationErr(VErrUnknownStep, sub.StepIndex, sub.OptionIndex, "step does not exist")
		}
		step := cfg.Steps[sub.StepIndex]
		if sub.OptionIndex < 0 || sub.OptionIndex >= len(step.Options) {
			return nil, 0, validationErr(VErrUnknownOption, sub.StepIndex, sub.OptionIndex, "option does not exist")
		}
		opt := step.Options[sub.OptionIndex]

		key := [2]int{sub.StepIndex, sub.OptionIndex}
		if seen[key] {
			continue
		}
		seen[key] = true

		counts[sub.StepIndex]++
		if step.Selection == domain.SelectionSingle && counts[sub.StepIndex] > 1 {
			return nil, 0, validationErr(VErrSingleMode, sub.StepIndex, sub.OptionIndex, "only one option can be selected for this step")
		}
		if step.Selection == domain.SelectionMultiple && step.MaxSelections > 0 && counts[sub.StepIndex] > step.MaxSelections {
			return nil, 0, validationErr(VErrCapExceeded, sub.StepIndex, sub.OptionIndex, "too many options selected for this step (max %d)", step.MaxSelections)
		}

		customValue := sanitizeText(sub.customValue())
		customPrice := sub.customPrice()

		if step.InputType == domain.InputTextInput && customValue == "" {
			return nil, 0, validationErr(VErrMissingText, sub.StepIndex, sub.OptionIndex, "text value is required")
		}
		if step.InputType == domain.InputCustomPrice && customPrice <= 0 {
			return nil, 0, validationErr(VErrBadCustomPrice, sub.StepIndex, sub.OptionIndex, "custom price must be positive")
		}

		quantity := clampQuantity(sub.Quantity, opt.MaxQuantity)
		layers := EffectiveLayers(opt, quantity)

		effective := opt
		if step.InputType == domain.InputCustomPrice {
			effective.PriceType = domain.PriceCustom
		}

		out = append(out, domain.Selection{
			StepIndex:   sub.StepIndex,
			OptionIndex: sub.OptionIndex,
			StepTitle:   step.Title,
			OptionTitle: opt.Title,
			PriceType:   effective.PriceType,
			PriceValue:  opt.PriceValue,
			Layers:      layers,
			Quantity:    quantity,
			CustomValue: customValue,
			CustomPrice: customPrice,
			PriceDelta:  PriceDelta(effective, layers, basePrice, quantity, customPrice),
			Color:       opt.Color,
		})
	}

	// независимый прогон оценщика зависимостей: выбор в скрытом шаге
	// означает расхождение клиента с серверной конфигурацией
	visible := VisibleSteps(cfg, out)
	for _, sel := range out {
		if !visible[sel.StepIndex] {
			return nil, 0, validationErr(VErrHiddenStep, sel.StepIndex, sel.OptionIndex, "step is hidden by its dependency rules")
		}
	}
	for i, step := range cfg.Steps {
		if visible[i] && step.RequiresSelection() && counts[i] == 0 {
			return nil, 0, validationErr(VErrMissingRequired, i, -1, "required step has no selection")
		}
	}

	return out, Total(basePrice, out), nil
}
