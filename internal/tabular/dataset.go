package tabular

import "strings"

// Token возвращает токен подстановки для имени колонки: name → {{name}}.
func Token(column string) string {
	return "{{" + column + "}}"
}

// Row — одна строка данных: токен подстановки → значение.
// Row не изменяется после чтения.
type Row struct {
	index  int
	tokens []string
	values []string
}

// Index возвращает номер строки (с 1).
func (r Row) Index() int {
	return r.index
}

// Tokens возвращает токены в порядке колонок.
func (r Row) Tokens() []string {
	out := make([]string, len(r.tokens))
	copy(out, r.tokens)
	return out
}

// Get возвращает значение токена.
func (r Row) Get(token string) (string, bool) {
	for i, t := range r.tokens {
		if t == token {
			return r.values[i], true
		}
	}
	return "", false
}

// Values возвращает копию отображения токен → значение.
func (r Row) Values() map[string]string {
	m := make(map[string]string, len(r.tokens))
	for i, t := range r.tokens {
		m[t] = r.values[i]
	}
	return m
}

// DataSet — упорядоченный набор строк с общим заголовком.
//
// Количество строк вычисляется один раз при загрузке и не меняется
// в течение задания.
type DataSet struct {
	source  string
	columns []string
	tokens  []string
	records [][]string
	count   int
}

// Source возвращает описание источника (путь или "embedded").
func (d *DataSet) Source() string {
	return d.source
}

// Count возвращает количество строк данных (без заголовка).
func (d *DataSet) Count() int {
	return d.count
}

// Columns возвращает имена колонок.
func (d *DataSet) Columns() []string {
	out := make([]string, len(d.columns))
	copy(out, d.columns)
	return out
}

// Tokens возвращает токены подстановки всех колонок.
func (d *DataSet) Tokens() []string {
	out := make([]string, len(d.tokens))
	copy(out, d.tokens)
	return out
}

// TokenList возвращает токены через запятую: "{{a}}, {{b}}".
func (d *DataSet) TokenList() string {
	return strings.Join(d.tokens, ", ")
}

// RowAt возвращает строку n (с 1).
// Для n вне [1, Count] возвращает *RangeError.
func (d *DataSet) RowAt(n int) (Row, error) {
	if n < 1 || n > d.count {
		return Row{}, &RangeError{Row: n, Count: d.count}
	}

	rec := d.records[n-1]
	values := make([]string, len(d.tokens))
	// Недостающие поля — пустые строки, лишние игнорируются
	for i := range values {
		if i < len(rec) {
			values[i] = rec[i]
		}
	}

	return Row{index: n, tokens: d.tokens, values: values}, nil
}

// ClampLast приводит запрошенную последнюю строку к размеру данных.
// 0 означает "до конца данных". Это не ошибка, а допустимый запрос.
func (d *DataSet) ClampLast(last int) int {
	if last <= 0 || last > d.count {
		return d.count
	}
	return last
}
