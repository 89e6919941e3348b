package engine

import (
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// Хелперы приведения значений из произвольного JSON (interface{} после Unmarshal).
// Исторические конфиги хранят числа строками, булевы — как "0"/"1" и т.п.,
// поэтому приведение всегда максимально терпимое.

func asMap(v interface{}) (map[string]interface{}, bool) {
	m, ok := v.(map[string]interface{})
	return m, ok
}

func asSlice(v interface{}) ([]interface{}, bool) {
	s, ok := v.([]interface{})
	return s, ok
}

func asString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return ""
}

func asFloat(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func asInt(v interface{}) (int, bool) {
	switch t := v.(type) {
	case float64:
		return int(t), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			// число с дробной частью в строке тоже принимаем
			f, ferr := strconv.ParseFloat(strings.TrimSpace(t), 64)
			if ferr != nil {
				return 0, false
			}
			return int(f), true
		}
		return i, true
	}
	return 0, false
}

func asInt64(v interface{}) (int64, bool) {
	i, ok := asInt(v)
	return int64(i), ok
}

// truthy — аналог "! empty()" для флагов из старых конфигов
func truthy(v interface{}) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		s := strings.TrimSpace(strings.ToLower(t))
		return s != "" && s != "0" && s != "false" && s != "no"
	case nil:
		return false
	}
	return true
}

// present — ключ существует и значение не пустое (nil или "")
func present(m map[string]interface{}, key string) (interface{}, bool) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, false
	}
	if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
		return nil, false
	}
	return v, true
}

// sortedValues — значения map в стабильном порядке ключей
// (коллекции слоёв иногда сохранены объектом вместо массива)
func sortedValues(m map[string]interface{}) []interface{} {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]interface{}, 0, len(m))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}

// sanitizeKey — нижний регистр, только [a-z0-9_-]
func sanitizeKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// sanitizeText — убрать управляющие символы и лишние пробелы
func sanitizeText(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsControl(r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// sanitizeURL — принять значение как URL слоя или отвергнуть.
// Относительные пути без ведущего слэша сюда не проходят,
// их подбирает текстовый fallback нормализатора.
func sanitizeURL(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	for _, r := range s {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return ""
		}
	}

	prefixes := []string{"http://", "https://", "//", "/", "data:image/", "attachment://"}
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return s
		}
	}
	return ""
}

// slugify — аналог sanitize_title для атрибутов и слагов
func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	lastDash := false
	for _, r := range s {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastDash = false
		case r == '-' || r == '_' || unicode.IsSpace(r):
			if !lastDash && b.Len() > 0 {
				b.WriteRune('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
