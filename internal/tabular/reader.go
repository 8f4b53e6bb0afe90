package tabular

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// SourceEmbedded — описание источника, сохранённого внутри документа.
const SourceEmbedded = "embedded"

// candidateDelimiters — возможные разделители в порядке предпочтения.
var candidateDelimiters = []rune{',', '\t', ';', '|', ':'}

// Dialect — параметры разбора, определённые по первой строке.
type Dialect struct {
	// Delimiter — разделитель полей.
	Delimiter rune
	// SkipInitialSpace — пробелы сразу после разделителя не входят в поле.
	SkipInitialSpace bool
}

// LoadFile загружает данные из файла.
func LoadFile(path string) (*DataSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDataSource, path, err)
	}
	return LoadBytes(data, path)
}

// Load загружает данные из io.Reader.
func Load(r io.Reader, source string) (*DataSet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDataSource, source, err)
	}
	return LoadBytes(data, source)
}

// LoadBytes разбирает данные: нормализует переводы строк,
// определяет формат по первой строке и читает записи.
func LoadBytes(data []byte, source string) (*DataSet, error) {
	text := Normalize(data)
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: %s: no data found", ErrDataSource, source)
	}

	firstLine, _, _ := strings.Cut(text, "\n")
	dialect, err := Sniff(firstLine)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}

	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = dialect.Delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = dialect.SkipInitialSpace

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFormat, source, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s: no header row", ErrDataSource, source)
	}

	header := records[0]
	tokens := make([]string, len(header))
	seen := make(map[string]bool, len(header))
	for i, column := range header {
		if seen[column] {
			return nil, fmt.Errorf("%w: %s: duplicate column %q", ErrFormat, source, column)
		}
		seen[column] = true
		tokens[i] = Token(column)
	}

	rows := records[1:]
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s: header only, no data rows", ErrDataSource, source)
	}

	return &DataSet{
		source:  source,
		columns: header,
		tokens:  tokens,
		records: rows,
		count:   len(rows),
	}, nil
}

// Normalize приводит переводы строк к "\n" и убирает UTF-8 BOM.
//
// Данные, сохранённые внутри XML-документа, теряют "\r\n" при разборе,
// поэтому нормализация делает сохранённую и исходную копии идентичными.
func Normalize(data []byte) string {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	s := strings.ReplaceAll(string(data), "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.TrimRight(s, "\n")
}

// Sniff определяет разделитель по строке заголовка.
//
// Выбирается кандидат, чаще всего встречающийся вне кавычек;
// при равенстве — первый в порядке предпочтения (",", "\t", ";", "|", ":").
// SkipInitialSpace включается, если за каждым таким разделителем следует пробел
// ("name, city" даёт столбец "city").
// Если ни одного кандидата нет, возвращает ErrFormat, а не угадывает.
func Sniff(line string) (Dialect, error) {
	if strings.TrimSpace(line) == "" {
		return Dialect{}, fmt.Errorf("%w: empty header line", ErrFormat)
	}

	counts := make(map[rune]int, len(candidateDelimiters))
	spaced := make(map[rune]int, len(candidateDelimiters))
	runes := []rune(line)
	inQuotes := false
	for i, ch := range runes {
		if ch == '"' {
			inQuotes = !inQuotes
			continue
		}
		if inQuotes {
			continue
		}
		for _, d := range candidateDelimiters {
			if ch == d {
				counts[d]++
				if i+1 < len(runes) && runes[i+1] == ' ' {
					spaced[d]++
				}
			}
		}
	}
	if inQuotes {
		return Dialect{}, fmt.Errorf("%w: unbalanced quotes in header line", ErrFormat)
	}

	best, bestCount := rune(0), 0
	for _, d := range candidateDelimiters {
		if counts[d] > bestCount {
			best, bestCount = d, counts[d]
		}
	}
	if bestCount == 0 {
		return Dialect{}, fmt.Errorf("%w: unable to determine delimiter", ErrFormat)
	}

	return Dialect{Delimiter: best, SkipInitialSpace: spaced[best] == bestCount}, nil
}

// IsInline сообщает, содержит ли значение сами данные, а не путь к ним.
func IsInline(value string) bool {
	return strings.ContainsAny(value, "\n\r")
}

// LoadValue загружает данные из значения узла документа:
// многострочное значение — встроенные данные, иначе — путь к файлу.
func LoadValue(value string) (*DataSet, error) {
	if value == "" {
		return nil, fmt.Errorf("%w: no data source selected", ErrDataSource)
	}
	if IsInline(value) {
		return LoadBytes([]byte(value), SourceEmbedded)
	}
	return LoadFile(strings.TrimSpace(value))
}
