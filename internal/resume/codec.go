package resume

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/shaiso/plotmerge/internal/document"
)

const (
	// NodeTag — локальное имя узла с прогрессом.
	NodeTag = "WCB"

	// ApplicationTag — метка, которой plotmerge подписывает свой прогресс.
	ApplicationTag = "Plotmerge"
)

// Имена атрибутов узла.
const (
	attrApplication = "application"
	attrRow         = "row"
	attrSeed        = "randseed"
	attrLastRow     = "lastrow"
	attrHalted      = "halted"
	attrCheckpoint  = "checkpoint"
)

// Ошибки кодека.
var (
	// ErrCorrupt — узел с нашей меткой есть, но его атрибуты не читаются.
	ErrCorrupt = errors.New("resume data is corrupt")

	// ErrInvalidRecord — запись не может быть сохранена.
	ErrInvalidRecord = errors.New("invalid resume record")
)

// Record — прогресс задания, сохранённый в документе.
type Record struct {
	Application string
	Row         int
	Seed        float64
	LastRow     int
	Halted      bool
	Checkpoint  string
}

// NextRow возвращает строку, с которой продолжается задание:
// остановленная посреди печати строка повторяется, иначе — следующая.
func (r Record) NextRow() int {
	if r.Halted {
		return r.Row
	}
	return r.Row + 1
}

// Codec читает и пишет Record с заданной меткой приложения.
type Codec struct {
	Application string
}

// NewCodec создаёт кодек с меткой plotmerge.
func NewCodec() *Codec {
	return &Codec{Application: ApplicationTag}
}

// Read возвращает запись из документа.
//
// (Record{}, false, nil) — узла нет или метка чужая.
// ErrCorrupt — узел наш, но атрибуты не читаются.
func (c *Codec) Read(doc *document.Document) (Record, bool, error) {
	el := doc.Find(NodeTag)
	if el == nil {
		return Record{}, false, nil
	}

	app := el.SelectAttrValue(attrApplication, "")
	if app != c.Application {
		return Record{}, false, nil
	}

	rec := Record{Application: app}

	row, err := parseRow(el.SelectAttrValue(attrRow, ""))
	if err != nil {
		return Record{}, false, fmt.Errorf("%w: row: %v", ErrCorrupt, err)
	}
	if row < 1 {
		return Record{}, false, fmt.Errorf("%w: row %d", ErrCorrupt, row)
	}
	rec.Row = row

	seedAttr := el.SelectAttr(attrSeed)
	if seedAttr == nil {
		return Record{}, false, fmt.Errorf("%w: randseed missing", ErrCorrupt)
	}
	seed, err := strconv.ParseFloat(seedAttr.Value, 64)
	if err != nil || math.IsNaN(seed) || math.IsInf(seed, 0) {
		return Record{}, false, fmt.Errorf("%w: randseed %q", ErrCorrupt, seedAttr.Value)
	}
	rec.Seed = seed

	if v := el.SelectAttrValue(attrLastRow, ""); v != "" {
		last, err := parseRow(v)
		if err != nil || last < 0 {
			return Record{}, false, fmt.Errorf("%w: lastrow %q", ErrCorrupt, v)
		}
		rec.LastRow = last
	}

	if v := el.SelectAttrValue(attrHalted, ""); v != "" {
		halted, err := strconv.ParseBool(v)
		if err != nil {
			return Record{}, false, fmt.Errorf("%w: halted %q", ErrCorrupt, v)
		}
		rec.Halted = halted
	}

	rec.Checkpoint = el.SelectAttrValue(attrCheckpoint, "")

	return rec, true, nil
}

// Write записывает запись в первый узел WCB, создавая его при отсутствии.
// Повторные записи обновляют тот же узел.
func (c *Codec) Write(doc *document.Document, rec Record) error {
	if rec.Application == "" {
		rec.Application = c.Application
	}
	if rec.Row < 1 {
		return fmt.Errorf("%w: row %d", ErrInvalidRecord, rec.Row)
	}
	if math.IsNaN(rec.Seed) || math.IsInf(rec.Seed, 0) {
		return fmt.Errorf("%w: seed %v", ErrInvalidRecord, rec.Seed)
	}

	el := doc.Ensure(NodeTag)
	el.CreateAttr(attrApplication, rec.Application)
	el.CreateAttr(attrRow, strconv.Itoa(rec.Row))
	el.CreateAttr(attrSeed, strconv.FormatFloat(rec.Seed, 'f', -1, 64))

	if rec.LastRow > 0 {
		el.CreateAttr(attrLastRow, strconv.Itoa(rec.LastRow))
	} else {
		el.RemoveAttr(attrLastRow)
	}

	if rec.Halted {
		el.CreateAttr(attrHalted, "true")
	} else {
		el.RemoveAttr(attrHalted)
	}

	if rec.Checkpoint != "" {
		el.CreateAttr(attrCheckpoint, rec.Checkpoint)
	} else {
		el.RemoveAttr(attrCheckpoint)
	}

	return nil
}

// parseRow разбирает номер строки. Допускается целое в записи с плавающей
// точкой ("12.0"): так номер строки пишут другие инструменты.
func parseRow(s string) (int, error) {
	if s == "" {
		return 0, errors.New("missing")
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, fmt.Errorf("not an integer: %q", s)
	}
	return int(f), nil
}
