package document

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/beevik/etree"
	"golang.org/x/net/html/charset"
)

// ErrParse — документ не является корректным XML.
var ErrParse = errors.New("document parse failed")

// Document — дерево документа с индексом элементов по локальному имени тега.
type Document struct {
	tree  *etree.Document
	index map[string][]*etree.Element
}

// Parse разбирает документ из байтов и строит индекс тегов.
// Кодировки, отличные от UTF-8, поддерживаются через charset reader.
func Parse(data []byte) (*Document, error) {
	tree := etree.NewDocument()
	tree.ReadSettings.CharsetReader = charset.NewReaderLabel
	tree.ReadSettings.PreserveCData = true

	if err := tree.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if tree.Root() == nil {
		return nil, fmt.Errorf("%w: no root element", ErrParse)
	}
	normalizeDeclaration(tree)

	return wrap(tree), nil
}

var encodingAttr = regexp.MustCompile(`encoding\s*=\s*("[^"]*"|'[^']*')`)

// normalizeDeclaration переписывает encoding в XML-декларации на UTF-8:
// после charset reader дерево хранит уже декодированный текст,
// а Bytes всегда пишет UTF-8.
func normalizeDeclaration(tree *etree.Document) {
	for _, tok := range tree.Child {
		pi, ok := tok.(*etree.ProcInst)
		if !ok || pi.Target != "xml" {
			continue
		}
		pi.Inst = encodingAttr.ReplaceAllString(pi.Inst, `encoding="UTF-8"`)
		return
	}
}

// ParseFile читает и разбирает документ из файла.
func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return Parse(data)
}

// wrap оборачивает дерево и строит индекс.
func wrap(tree *etree.Document) *Document {
	d := &Document{
		tree:  tree,
		index: make(map[string][]*etree.Element),
	}
	d.indexElement(tree.Root())
	return d
}

// indexElement рекурсивно добавляет элемент и потомков в индекс.
func (d *Document) indexElement(el *etree.Element) {
	d.index[el.Tag] = append(d.index[el.Tag], el)
	for _, child := range el.ChildElements() {
		d.indexElement(child)
	}
}

// Root возвращает корневой элемент.
func (d *Document) Root() *etree.Element {
	return d.tree.Root()
}

// Find возвращает первый (в порядке документа) элемент с локальным именем tag.
// Пространство имён не учитывается: "WCB" и "svg:WCB" — один узел.
func (d *Document) Find(tag string) *etree.Element {
	if els := d.index[tag]; len(els) > 0 {
		return els[0]
	}
	return nil
}

// Count возвращает количество элементов с локальным именем tag.
func (d *Document) Count(tag string) int {
	return len(d.index[tag])
}

// Ensure возвращает первый элемент tag, создавая его под корнем при отсутствии.
// Повторные вызовы возвращают тот же элемент.
func (d *Document) Ensure(tag string) *etree.Element {
	if el := d.Find(tag); el != nil {
		return el
	}
	el := d.tree.Root().CreateElement(tag)
	d.index[tag] = append(d.index[tag], el)
	return el
}

// Copy возвращает глубокую копию документа с собственным индексом.
func (d *Document) Copy() *Document {
	return wrap(d.tree.Copy())
}

// Bytes сериализует документ.
func (d *Document) Bytes() ([]byte, error) {
	data, err := d.tree.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("serialize document: %w", err)
	}
	return data, nil
}

// WriteFile атомарно записывает документ: во временный файл рядом, затем rename.
// Прерванная запись не оставляет половину документа на месте результата.
func (d *Document) WriteFile(path string) error {
	data, err := d.Bytes()
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
