package document

import (
	"strings"

	"github.com/beevik/etree"
)

// DataSourceTag — узел с путём к табличным данным (или самими данными).
const DataSourceTag = "MergeData"

// DataSource возвращает значение узла MergeData.
// false — узла нет, контекста слияния нет.
func (d *Document) DataSource() (string, bool) {
	el := d.Find(DataSourceTag)
	if el == nil {
		return "", false
	}
	value := el.Text()
	if strings.TrimSpace(value) == "" {
		return "", false
	}
	return value, true
}

// SetDataSource сохраняет путь или данные в единственный узел MergeData.
// Значение пишется экранированным текстом: встроенные данные могут содержать "]]>".
func (d *Document) SetDataSource(value string) {
	el := d.Ensure(DataSourceTag)
	for _, tok := range append([]etree.Token(nil), el.Child...) {
		if cd, ok := tok.(*etree.CharData); ok {
			el.RemoveChild(cd)
		}
	}
	el.SetText(value)
}
