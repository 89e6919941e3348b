package engine

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"bouquet-builder-backend/internal/domain"
)

// ErrSelectionCap — добавление превысило бы лимит выборов шага.
// Вызывающая сторона сама решает, как показать это пользователю.
var ErrSelectionCap = errors.New("selection cap reached")

// Session — состояние одной сессии кастомизации. Единственный владелец
// изменяемого набора выборов; конфигурация для сессии read-only.
// Не потокобезопасна: одна сессия — один пользователь, один писатель.
type Session struct {
	cfg        *domain.Config
	basePrice  float64
	selections map[int]map[int]*domain.Selection
}

func NewSession(cfg *domain.Config, basePrice float64) *Session {
	return &Session{
		cfg:        cfg,
		basePrice:  basePrice,
		selections: make(map[int]map[int]*domain.Selection),
	}
}

func (s *Session) step(i int) (*domain.Step, error) {
	if i < 0 || i >= len(s.cfg.Steps) {
		return nil, fmt.Errorf("unknown step %d", i)
	}
	return &s.cfg.Steps[i], nil
}

func (s *Session) option(stepIndex, optionIndex int) (*domain.Step, *domain.Option, error) {
	step, err := s.step(stepIndex)
	if err != nil {
		return nil, nil, err
	}
	if optionIndex < 0 || optionIndex >= len(step.Options) {
		return nil, nil, fmt.Errorf("unknown option %d in step %d", optionIndex, stepIndex)
	}
	return step, &step.Options[optionIndex], nil
}

func (s *Session) stepSelections(stepIndex int) map[int]*domain.Selection {
	if s.selections[stepIndex] == nil {
		s.selections[stepIndex] = make(map[int]*domain.Selection)
	}
	return s.selections[stepIndex]
}

func (s *Session) remove(stepIndex, optionIndex int) {
	if sel := s.selections[stepIndex]; sel != nil {
		delete(sel, optionIndex)
		if len(sel) == 0 {
			delete(s.selections, stepIndex)
		}
	}
}

func clampQuantity(q, max int) int {
	if q < 1 {
		q = 1
	}
	if max > 0 && q > max {
		q = max
	}
	return q
}

func (s *Session) makeSelection(step *domain.Step, opt *domain.Option, stepIndex, optionIndex, quantity int, customValue string, customPrice float64) *domain.Selection {
	quantity = clampQuantity(quantity, opt.MaxQuantity)
	layers := EffectiveLayers(*opt, quantity)

	effective := *opt
	if step.InputType == domain.InputCustomPrice {
		effective.PriceType = domain.PriceCustom
	}

	return &domain.Selection{
		StepIndex:   stepIndex,
		OptionIndex: optionIndex,
		StepTitle:   step.Title,
		OptionTitle: opt.Title,
		PriceType:   effective.PriceType,
		PriceValue:  opt.PriceValue,
		Layers:      layers,
		Quantity:    quantity,
		CustomValue: customValue,
		CustomPrice: customPrice,
		PriceDelta:  PriceDelta(effective, layers, s.basePrice, quantity, customPrice),
		Color:       opt.Color,
	}
}

// Select активирует опцию. Single-режим вытесняет прежний выбор шага,
// multiple-режим переключает членство и соблюдает лимит.
func (s *Session) Select(stepIndex, optionIndex, quantity int) error {
	step, opt, err := s.option(stepIndex, optionIndex)
	if err != nil {
		return err
	}
	if step.IsTextual() {
		return fmt.Errorf("step %d takes a value, not a selection", stepIndex)
	}

	if step.Selection == domain.SelectionSingle {
		delete(s.selections, stepIndex)
		s.stepSelections(stepIndex)[optionIndex] = s.makeSelection(step, opt, stepIndex, optionIndex, quantity, "", 0)
		s.applyDependencies()
		return nil
	}

	sel := s.stepSelections(stepIndex)
	if _, active := sel[optionIndex]; active {
		s.remove(stepIndex, optionIndex)
		s.applyDependencies()
		return nil
	}
	if step.MaxSelections > 0 && len(sel) >= step.MaxSelections {
		return ErrSelectionCap
	}
	sel[optionIndex] = s.makeSelection(step, opt, stepIndex, optionIndex, quantity, "", 0)
	s.applyDependencies()
	return nil
}

// Deselect снимает выбор опции; пустой шаг удаляется из набора целиком
func (s *Session) Deselect(stepIndex, optionIndex int) {
	s.remove(stepIndex, optionIndex)
	s.applyDependencies()
}

// SetQuantity меняет количество на delta с зажимом в [1, max_quantity].
// Увеличение количества невыбранной опции неявно выбирает её.
func (s *Session) SetQuantity(stepIndex, optionIndex, delta int) error {
	step, opt, err := s.option(stepIndex, optionIndex)
	if err != nil {
		return err
	}
	if !opt.QuantityEnabled {
		return fmt.Errorf("option %d in step %d has no quantity counter", optionIndex, stepIndex)
	}

	existing := s.selections[stepIndex][optionIndex]
	if existing == nil {
		if delta <= 0 {
			return nil
		}
		return s.Select(stepIndex, optionIndex, clampQuantity(1+delta, opt.MaxQuantity))
	}

	next := clampQuantity(existing.Quantity+delta, opt.MaxQuantity)
	s.stepSelections(stepIndex)[optionIndex] = s.makeSelection(step, opt, stepIndex, optionIndex, next, "", 0)
	s.applyDependencies()
	return nil
}

// SetTextValue — ввод для text_input шага: непустое значение создаёт или
// обновляет выбор, пустое — снимает его
func (s *Session) SetTextValue(stepIndex, optionIndex int, value string) error {
	step, opt, err := s.option(stepIndex, optionIndex)
	if err != nil {
		return err
	}
	if step.InputType != domain.InputTextInput {
		return fmt.Errorf("step %d is not a text input step", stepIndex)
	}

	value = strings.TrimSpace(value)
	if value == "" {
		s.remove(stepIndex, optionIndex)
		s.applyDependencies()
		return nil
	}

	s.stepSelections(stepIndex)[optionIndex] = s.makeSelection(step, opt, stepIndex, optionIndex, 1, value, 0)
	s.applyDependencies()
	return nil
}

// SetCustomPrice — цена от покупателя: выбором считается только строго
// положительное значение
func (s *Session) SetCustomPrice(stepIndex, optionIndex int, price float64) error {
	step, opt, err := s.option(stepIndex, optionIndex)
	if err != nil {
		return err
	}
	if step.InputType != domain.InputCustomPrice {
		return fmt.Errorf("step %d is not a custom price step", stepIndex)
	}

	if price <= 0 {
		s.remove(stepIndex, optionIndex)
		s.applyDependencies()
		return nil
	}

	s.stepSelections(stepIndex)[optionIndex] = s.makeSelection(step, opt, stepIndex, optionIndex, 1, "", price)
	s.applyDependencies()
	return nil
}

// applyDependencies — после каждой мутации: скрытые шаги теряют свои выборы.
// Правила ссылаются только назад, поэтому второй проход не нужен.
func (s *Session) applyDependencies() {
	visible := VisibleSteps(s.cfg, s.Selections())
	for i, v := range visible {
		if !v {
			delete(s.selections, i)
		}
	}
}

// Visible — текущая видимость шагов
func (s *Session) Visible() []bool {
	return VisibleSteps(s.cfg, s.Selections())
}

// Selections — активные выборы в порядке шаг-затем-опция
func (s *Session) Selections() []domain.Selection {
	stepKeys := make([]int, 0, len(s.selections))
	for k := range s.selections {
		stepKeys = append(stepKeys, k)
	}
	sort.Ints(stepKeys)

	out := make([]domain.Selection, 0, len(stepKeys))
	for _, sk := range stepKeys {
		optKeys := make([]int, 0, len(s.selections[sk]))
		for k := range s.selections[sk] {
			optKeys = append(optKeys, k)
		}
		sort.Ints(optKeys)
		for _, ok := range optKeys {
			out = append(out, *s.selections[sk][ok])
		}
	}
	return out
}

// IsComplete — у каждого видимого обязательного шага есть выбор.
// Текстовые шаги попадают в набор только с непустым значением,
// поэтому наличия выбора достаточно.
func (s *Session) IsComplete() bool {
	visible := s.Visible()
	for i, step := range s.cfg.Steps {
		if !visible[i] || !step.RequiresSelection() {
			continue
		}
		if len(s.selections[i]) == 0 {
			return false
		}
	}
	return true
}

// Total — базовая цена плюс наценки всех активных выборов
func (s *Session) Total() float64 {
	return Total(s.basePrice, s.Selections())
}

// RenderStack — слои превью для текущего набора
func (s *Session) RenderStack() []domain.Layer {
	return RenderStack(s.Selections())
}
