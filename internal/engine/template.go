package engine

import (
	"regexp"
	"sort"
	"strings"

	"github.com/shaiso/plotmerge/internal/document"
	"github.com/shaiso/plotmerge/internal/tabular"
)

// Substituter — подстановщик для фиксированного набора токенов.
//
// Все строки DataSet используют один заголовок, поэтому шаблон
// компилируется один раз на задание.
type Substituter struct {
	pattern *regexp.Regexp
}

// NewSubstituter компилирует общий шаблон для токенов.
// Пустой набор токенов даёт подстановщик, не меняющий документ.
func NewSubstituter(tokens []string) *Substituter {
	if len(tokens) == 0 {
		return &Substituter{}
	}

	sorted := make([]string, len(tokens))
	copy(sorted, tokens)
	// Длинные токены раньше: при общем префиксе выигрывает самый длинный
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i]) > len(sorted[j])
	})

	quoted := make([]string, len(sorted))
	for i, tok := range sorted {
		quoted[i] = regexp.QuoteMeta(tok)
	}

	return &Substituter{
		pattern: regexp.MustCompile(strings.Join(quoted, "|")),
	}
}

// Replace выполняет один проход подстановки по тексту.
// Токены, отсутствующие в values, остаются как есть.
func (s *Substituter) Replace(src []byte, values map[string]string) ([]byte, bool) {
	if s.pattern == nil || !s.pattern.Match(src) {
		return src, false
	}

	replaced := false
	out := s.pattern.ReplaceAllFunc(src, func(match []byte) []byte {
		if v, ok := values[string(match)]; ok {
			replaced = true
			return []byte(v)
		}
		return match
	})
	return out, replaced
}

// Substitute возвращает новый документ со значениями строки row.
//
// Документ сериализуется, обрабатывается одним проходом и разбирается заново.
// Если результат не разбирается, возвращается *SubstitutionError с номером строки.
// Документ без токенов возвращается как копия без повторного разбора.
func (s *Substituter) Substitute(doc *document.Document, row tabular.Row) (*document.Document, error) {
	src, err := doc.Bytes()
	if err != nil {
		return nil, &SubstitutionError{Row: row.Index(), Err: err}
	}

	out, replaced := s.Replace(src, row.Values())
	if !replaced {
		return doc.Copy(), nil
	}

	merged, err := document.Parse(out)
	if err != nil {
		return nil, &SubstitutionError{Row: row.Index(), Err: err}
	}
	return merged, nil
}

// Substitute подставляет строку в документ, компилируя шаблон по токенам строки.
func Substitute(doc *document.Document, row tabular.Row) (*document.Document, error) {
	return NewSubstituter(row.Tokens()).Substitute(doc, row)
}
