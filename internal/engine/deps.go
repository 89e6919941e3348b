package engine

import (
	"bouquet-builder-backend/internal/domain"
)

// selectionIndex — быстрые проверки "в шаге что-то выбрано" /
// "выбрана конкретная опция" для оценки правил видимости
type selectionIndex struct {
	steps   map[int]bool
	options map[[2]int]bool
}

func buildSelectionIndex(selections []domain.Selection) selectionIndex {
	idx := selectionIndex{
		steps:   make(map[int]bool, len(selections)),
		options: make(map[[2]int]bool, len(selections)),
	}
	for _, s := range selections {
		idx.steps[s.StepIndex] = true
		idx.options[[2]int{s.StepIndex, s.OptionIndex}] = true
	}
	return idx
}

func (idx selectionIndex) satisfies(rule domain.DependencyRule) bool {
	if rule.Option.Any {
		return idx.steps[rule.Step]
	}
	return idx.options[[2]int{rule.Step, rule.Option.Index}]
}

// StepVisible — чистая функция видимости одного шага при текущем наборе выборов
func StepVisible(step domain.Step, idx selectionIndex) bool {
	if len(step.DependencyRules) == 0 {
		return true
	}

	if step.DependencyOperator == domain.OperatorAny {
		for _, rule := range step.DependencyRules {
			if idx.satisfies(rule) {
				return true
			}
		}
		return false
	}

	for _, rule := range step.DependencyRules {
		if !idx.satisfies(rule) {
			return false
		}
	}
	return true
}

// VisibleSteps пересчитывает видимость всех шагов. Правила ссылаются строго
// назад, поэтому одного прохода сверху вниз достаточно: скрытие шага роняет
// только более поздние шаги, которые проход ещё не оценивал. Выборы скрытых
// шагов не участвуют в оценке последующих правил.
func VisibleSteps(cfg *domain.Config, selections []domain.Selection) []bool {
	visible := make([]bool, len(cfg.Steps))
	idx := buildSelectionIndex(selections)

	for i, step := range cfg.Steps {
		visible[i] = StepVisible(step, idx)
		if !visible[i] {
			// выборы скрытого шага больше не удовлетворяют ничьих правил
			delete(idx.steps, i)
			for key := range idx.options {
				if key[0] == i {
					delete(idx.options, key)
				}
			}
		}
	}

	return visible
}
