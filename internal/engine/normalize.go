package engine

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"bouquet-builder-backend/internal/domain"
)

// MediaResolver — внешний коллаборатор: числовой id медиа → URL.
// Для уже готовых URL резолвер не нужен.
type MediaResolver interface {
	ResolveMediaURL(id int64) (string, error)
}

// Normalizer приводит произвольные сохранённые/импортированные конфиги
// к канонической модели. Любой вход даёт валидный результат: при проблемах
// отбрасывается минимальная единица (слой, правило), а не вся конфигурация.
type Normalizer struct {
	Media MediaResolver      // может быть nil
	Log   *zap.SugaredLogger // может быть nil
}

// Таблицы ключей-синонимов. Исторические версии хранили одни и те же поля
// под разными именами; порядок в таблице — это приоритет поиска.
var (
	layerURLKeys         = []string{"url", "image", "src", "image_url", "imageUrl", "layer_url", "layerUrl", "link", "value", "path"}
	layerIDKeys          = []string{"attachment_id", "attachment", "id", "image_id", "media_id"}
	layerPriceKeys       = []string{"price_delta", "priceDelta", "price", "delta", "cost", "amount"}
	layerRawFallbackKeys = []string{"url", "path", "value", "image", "src"}

	ruleStepKeys   = []string{"step", "step_index", "stepIndex", "step_id", "stepId", "parent_step", "parentStep"}
	ruleOptionKeys = []string{"option", "option_index", "optionIndex", "option_id", "optionId", "choice", "choice_index", "choiceIndex"}

	stepRuleListKeys     = []string{"dependency_rules", "dependencyRules", "conditional_rules", "conditionalRules", "conditions", "condition_rules"}
	stepLegacyRuleKeys   = []string{"dependency", "condition", "conditional", "legacy_dependency"}
	stepMaxSelectionKeys = []string{"max_selections", "maxSelections", "maxSelection"}
	stepOperatorKeys     = []string{"dependency_operator", "dependencyOperator", "conditional_operator"}

	optionColorKeys = []string{"color", "swatch_color", "swatchColor", "colour"}
)

var legacyRulePattern = regexp.MustCompile(`^(\d+):((?i:any)|\d+)$`)

func (n *Normalizer) warnf(format string, args ...interface{}) {
	if n.Log != nil {
		n.Log.Warnf(format, args...)
	}
}

func (n *Normalizer) debugf(format string, args ...interface{}) {
	if n.Log != nil {
		n.Log.Debugf(format, args...)
	}
}

// NormalizeConfigJSON — вход с границы хранилища/импорта: сырой JSON документ.
func (n *Normalizer) NormalizeConfigJSON(data []byte) (*domain.Config, error) {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	m, ok := asMap(raw)
	if !ok {
		return nil, fmt.Errorf("config is not an object")
	}
	return n.NormalizeConfig(m), nil
}

// NormalizeConfig обходит сырое дерево steps → options → layers и строит
// каноническую конфигурацию. Идемпотентен: канонический вход возвращается
// без изменений.
func (n *Normalizer) NormalizeConfig(raw map[string]interface{}) *domain.Config {
	cfg := &domain.Config{Steps: []domain.Step{}}
	if id, ok := asInt64(raw["group_id"]); ok && id > 0 {
		cfg.GroupID = id
	}

	stepsRaw, _ := asSlice(raw["steps"])
	for i, stepVal := range stepsRaw {
		sm, ok := asMap(stepVal)
		if !ok {
			// пустая заглушка вместо удаления: индексы шагов участвуют
			// в правилах зависимостей и сдвигаться не должны
			n.warnf("config: step %d is not an object, keeping empty placeholder", i)
			cfg.Steps = append(cfg.Steps, emptyStep())
			continue
		}
		cfg.Steps = append(cfg.Steps, n.normalizeStep(sm, i))
	}

	return cfg
}

func emptyStep() domain.Step {
	return domain.Step{
		InputType:          domain.InputRadio,
		Selection:          domain.SelectionSingle,
		MaxSelections:      1,
		DependencyRules:    []domain.DependencyRule{},
		DependencyOperator: domain.OperatorAll,
		Options:            []domain.Option{},
	}
}

func (n *Normalizer) normalizeStep(m map[string]interface{}, index int) domain.Step {
	step := emptyStep()
	step.Title = sanitizeText(asString(m["title"]))

	inputType := domain.InputType(sanitizeKey(asString(m["input_type"])))
	for _, t := range domain.AllowedInputTypes {
		if inputType == t {
			step.InputType = t
			break
		}
	}

	if sanitizeKey(asString(m["selection"])) == string(domain.SelectionMultiple) {
		step.Selection = domain.SelectionMultiple
	}
	// инварианты типа ввода перекрывают сохранённый режим
	switch step.InputType {
	case domain.InputCheckboxes:
		step.Selection = domain.SelectionMultiple
	case domain.InputTextInput, domain.InputTextLabel, domain.InputCustomPrice:
		step.Selection = domain.SelectionSingle
	}

	for _, key := range stepMaxSelectionKeys {
		if v, ok := present(m, key); ok {
			if max, ok := asInt(v); ok && max > 0 {
				step.MaxSelections = max
			}
			break
		}
	}
	if step.Selection != domain.SelectionMultiple {
		step.MaxSelections = 1
	}

	step.Required = truthy(m["required"])

	if sanitizeKey(asString(m["choice_source"])) == "attribute" {
		step.ChoiceSource = "attribute"
		step.Attribute = slugify(asString(m["attribute"]))
	}

	for _, key := range stepOperatorKeys {
		if v, ok := present(m, key); ok {
			if sanitizeKey(asString(v)) == string(domain.OperatorAny) {
				step.DependencyOperator = domain.OperatorAny
			}
			break
		}
	}

	var ruleSource interface{}
	for _, key := range stepRuleListKeys {
		if v, ok := present(m, key); ok {
			ruleSource = v
			break
		}
	}

	legacy := ""
	for _, key := range stepLegacyRuleKeys {
		if v, ok := present(m, key); ok {
			if s := strings.TrimSpace(asString(v)); s != "" {
				legacy = s
				break
			}
		}
	}
	step.Dependency = sanitizeText(asString(m["dependency"]))
	step.DependencyRules = n.NormalizeDependencyRules(ruleSource, legacy, index)

	optionsRaw, _ := asSlice(m["options"])
	for i, optVal := range optionsRaw {
		om, ok := asMap(optVal)
		if !ok {
			// та же логика, что и для шагов: индекс опции — часть правил
			n.warnf("config: step %d option %d is not an object, keeping empty placeholder", index, i)
			step.Options = append(step.Options, domain.Option{PriceType: domain.PriceNone, Layers: []domain.Layer{}})
			continue
		}
		step.Options = append(step.Options, n.normalizeOption(om))
	}

	// text_label всегда получает одну синтетическую опцию,
	// чтобы флоу продвигался единообразно
	if step.InputType == domain.InputTextLabel && len(step.Options) == 0 {
		step.Options = append(step.Options, domain.Option{
			PriceType:  domain.PriceNone,
			Layers:     []domain.Layer{},
			SkipLayers: true,
		})
	}

	return step
}

func (n *Normalizer) normalizeOption(m map[string]interface{}) domain.Option {
	opt := domain.Option{
		Title:  sanitizeText(asString(m["title"])),
		Layers: []domain.Layer{},
	}

	opt.Layers = n.NormalizeLayerCollection(m["layers"])
	if len(opt.Layers) == 0 {
		// старые конфиги хранили одну "display image" вместо списка слоёв
		if v, ok := present(m, "display_image"); ok {
			if s := strings.TrimSpace(asString(v)); s != "" {
				url := sanitizeURL(s)
				if url == "" {
					url = sanitizeText(s)
				}
				opt.Layers = append(opt.Layers, domain.Layer{URL: url})
			}
		}
	}

	opt.PriceType = normalizePriceType(asString(m["price_type"]))

	// цена исторически жила под разными ключами: сначала price_value,
	// потом price_delta, потом вся опция как источник по таблице синонимов
	if v, ok := present(m, "price_value"); ok {
		opt.PriceValue = extractPrice(v, 0)
	} else if v, ok := present(m, "price_delta"); ok {
		opt.PriceValue = extractPrice(v, 0)
	} else {
		opt.PriceValue = extractPrice(m, 0)
	}
	opt.PriceDelta = extractPrice(m, 0)

	opt.SkipLayers = truthy(m["skip_layers"])
	opt.QuantityEnabled = truthy(m["quantity_enabled"])
	if v, ok := present(m, "max_quantity"); ok {
		if max, ok := asInt(v); ok && max > 0 {
			opt.MaxQuantity = max
		}
	}

	for _, key := range optionColorKeys {
		if v, ok := present(m, key); ok {
			opt.Color = sanitizeText(asString(v))
			break
		}
	}

	if qlRaw, ok := asSlice(m["quantity_layers"]); ok {
		for _, entry := range qlRaw {
			// позиции в таблице количеств значимы, поэтому даже пустая
			// запись сохраняется (композитор вернётся к базовым слоям)
			opt.QuantityLayers = append(opt.QuantityLayers, n.NormalizeLayerCollection(entry))
		}
	}

	return opt
}

func normalizePriceType(raw string) domain.PriceType {
	switch domain.PriceType(sanitizeKey(raw)) {
	case domain.PriceFixed:
		return domain.PriceFixed
	case domain.PricePercentage:
		return domain.PricePercentage
	case domain.PriceQuantity:
		return domain.PriceQuantity
	case domain.PriceCustom:
		return domain.PriceCustom
	}
	return domain.PriceNone
}

// NormalizeLayerCollection приводит коллекцию слоёв любой исторической формы:
// массив, объект-словарь, JSON-строка, строка с запятыми, одиночное значение.
func (n *Normalizer) NormalizeLayerCollection(raw interface{}) []domain.Layer {
	entries := layerEntries(raw)

	out := []domain.Layer{}
	for _, entry := range entries {
		if layer := n.NormalizeLayerEntry(entry); layer != nil {
			out = append(out, *layer)
		}
	}
	return out
}

func layerEntries(raw interface{}) []interface{} {
	switch v := raw.(type) {
	case nil:
		return nil
	case []interface{}:
		return v
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil
		}
		var decoded interface{}
		if err := json.Unmarshal([]byte(s), &decoded); err == nil {
			if _, isMap := asMap(decoded); isMap {
				return layerEntries(decoded)
			}
			if _, isSlice := asSlice(decoded); isSlice {
				return layerEntries(decoded)
			}
		}
		// запасной вариант — список URL через запятую
		parts := strings.Split(s, ",")
		out := make([]interface{}, 0, len(parts))
		for _, p := range parts {
			out = append(out, strings.TrimSpace(p))
		}
		return out
	case float64:
		return []interface{}{v}
	case map[string]interface{}:
		// объект с прямым URL-ключом — это одиночный слой,
		// иначе словарь "индекс -> слой"
		for _, key := range layerURLKeys {
			if _, ok := v[key]; ok {
				return []interface{}{v}
			}
		}
		return sortedValues(v)
	}
	return nil
}

// NormalizeLayerEntry приводит одну запись слоя к паре url + price_delta.
// Возвращает nil только для заведомо пустого входа: запись с хоть каким-то
// содержимым никогда не теряется, в худшем случае URL становится placeholder.
func (n *Normalizer) NormalizeLayerEntry(raw interface{}) *domain.Layer {
	switch v := raw.(type) {
	case nil:
		return nil

	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil
		}
		var decoded interface{}
		if err := json.Unmarshal([]byte(s), &decoded); err == nil {
			if _, isMap := asMap(decoded); isMap {
				return n.NormalizeLayerEntry(decoded)
			}
		}
		url := sanitizeURL(s)
		if url == "" {
			url = sanitizeText(s)
		}
		if url == "" {
			return nil
		}
		return &domain.Layer{URL: url}

	case float64:
		id := int64(v)
		if id <= 0 {
			return nil
		}
		if url := n.resolveAttachment(id); url != "" {
			return &domain.Layer{URL: url}
		}
		return &domain.Layer{URL: fmt.Sprintf("attachment://%d", id)}

	case map[string]interface{}:
		url := ""
		for _, key := range layerURLKeys {
			val, ok := present(v, key)
			if !ok {
				continue
			}
			if u := sanitizeURL(asString(val)); u != "" {
				url = u
				break
			}
		}

		if url == "" {
			for _, key := range layerIDKeys {
				val, ok := present(v, key)
				if !ok {
					continue
				}
				if id, ok := asInt64(val); ok && id > 0 {
					if u := n.resolveAttachment(id); u != "" {
						url = u
						break
					}
				}
			}
		}

		price := extractPrice(v, 0)

		if url == "" {
			// медиа не нашлось — сохраняем хоть какую-то строку,
			// чтобы импорт с битыми вложениями не терял структуру
			for _, key := range layerRawFallbackKeys {
				if val, ok := present(v, key); ok {
					if s := sanitizeText(asString(val)); s != "" {
						url = s
						break
					}
				}
			}
		}
		if url == "" {
			if val, ok := present(v, "id"); ok {
				if id, ok := asInt64(val); ok && id > 0 {
					url = fmt.Sprintf("attachment://%d", id)
				}
			}
		}
		if url == "" {
			url = domain.PlaceholderLayerURL
		}

		return &domain.Layer{URL: url, PriceDelta: price}
	}

	return nil
}

func (n *Normalizer) resolveAttachment(id int64) string {
	if n.Media == nil {
		return ""
	}
	url, err := n.Media.ResolveMediaURL(id)
	if err != nil {
		n.debugf("media %d not resolved: %v", id, err)
		return ""
	}
	return sanitizeURL(url)
}

// extractPrice достаёт число из разнородного источника: у объектов цена
// ищется по таблице синонимов, скаляры парсятся напрямую.
func extractPrice(source interface{}, fallback float64) float64 {
	if m, ok := asMap(source); ok {
		for _, key := range layerPriceKeys {
			v, ok := present(m, key)
			if !ok {
				continue
			}
			f, _ := asFloat(v)
			return f
		}
		return fallback
	}

	if f, ok := asFloat(source); ok {
		return f
	}
	return fallback
}

// NormalizeDependencyRules приводит список правил видимости. ownerIndex —
// индекс шага-владельца: правила, ссылающиеся на него или вперёд, являются
// ошибкой конфигурации и отбрасываются (ownerIndex < 0 отключает проверку).
func (n *Normalizer) NormalizeDependencyRules(raw interface{}, legacy string, ownerIndex int) []domain.DependencyRule {
	out := []domain.DependencyRule{}

	for _, entry := range ruleEntries(raw) {
		rule := n.normalizeRuleEntry(entry)
		if rule == nil {
			continue
		}
		if ownerIndex >= 0 && rule.Step >= ownerIndex {
			n.warnf("config: step %d dependency references step %d (not an earlier step), rule dropped", ownerIndex, rule.Step)
			continue
		}
		out = append(out, *rule)
	}

	if len(out) == 0 && legacy != "" {
		if rule := parseLegacyRule(legacy); rule != nil {
			if ownerIndex >= 0 && rule.Step >= ownerIndex {
				n.warnf("config: step %d legacy dependency %q references a non-earlier step, dropped", ownerIndex, legacy)
				return out
			}
			// совместимость со старым одиночным правилом-строкой;
			// диагностика нужна, чтобы заметить правила, потерянные выше
			n.warnf("config: step %d has no structured dependency rules, using legacy string %q", ownerIndex, legacy)
			out = append(out, *rule)
		}
	}

	return out
}

func ruleEntries(raw interface{}) []interface{} {
	switch v := raw.(type) {
	case nil:
		return nil
	case []interface{}:
		return v
	case map[string]interface{}:
		return sortedValues(v)
	case string:
		var decoded interface{}
		if err := json.Unmarshal([]byte(v), &decoded); err == nil {
			if _, isSlice := asSlice(decoded); isSlice {
				return ruleEntries(decoded)
			}
			if _, isMap := asMap(decoded); isMap {
				return ruleEntries(decoded)
			}
		}
		return nil
	}
	return nil
}

func (n *Normalizer) normalizeRuleEntry(entry interface{}) *domain.DependencyRule {
	if s, ok := entry.(string); ok {
		return parseLegacyRule(s)
	}

	m, ok := asMap(entry)
	if !ok {
		return nil
	}

	step, found := extractRuleIndex(m, ruleStepKeys)
	if !found || step < 0 {
		return nil
	}

	for _, key := range ruleOptionKeys {
		v, ok := present(m, key)
		if !ok {
			continue
		}
		if s, isStr := v.(string); isStr && strings.EqualFold(strings.TrimSpace(s), "any") {
			return &domain.DependencyRule{Step: step, Option: domain.AnyOption()}
		}
		if idx, ok := asInt(v); ok {
			if idx < 0 {
				return nil
			}
			return &domain.DependencyRule{Step: step, Option: domain.OptionIndex(idx)}
		}
	}

	// опция не распознана — правило целиком отбрасывается
	return nil
}

func extractRuleIndex(m map[string]interface{}, keys []string) (int, bool) {
	for _, key := range keys {
		v, ok := present(m, key)
		if !ok {
			continue
		}
		if idx, ok := asInt(v); ok {
			return idx, true
		}
	}
	return 0, false
}

func parseLegacyRule(s string) *domain.DependencyRule {
	match := legacyRulePattern.FindStringSubmatch(strings.TrimSpace(s))
	if match == nil {
		return nil
	}

	step, err := strconv.Atoi(match[1])
	if err != nil {
		return nil
	}
	if strings.EqualFold(match[2], "any") {
		return &domain.DependencyRule{Step: step, Option: domain.AnyOption()}
	}
	option, err := strconv.Atoi(match[2])
	if err != nil {
		return nil
	}
	return &domain.DependencyRule{Step: step, Option: domain.OptionIndex(option)}
}
