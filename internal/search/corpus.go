package search

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"travelplanner/internal/model"
)

// Обязательные колонки CSV корпуса.
const (
	ColumnCity        = "City"
	ColumnBestTime    = "Best Time to visit"
	ColumnDescription = "About the city (long Description)"
)

var (
	ErrEmptyCorpus   = errors.New("corpus has no usable rows")
	ErrMissingColumn = errors.New("corpus is missing a required column")
)

// LoadCorpus читает CSV в кодировке ISO-8859-1.
func LoadCorpus(path string) ([]model.Place, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть корпус: %w", err)
	}
	defer f.Close()

	places, err := ReadCorpus(charmap.ISO8859_1.NewDecoder().Reader(f))
	if err != nil {
		return nil, fmt.Errorf("корпус %s: %w", path, err)
	}
	return places, nil
}

// ReadCorpus разбирает CSV: строки с пустыми полями отбрасываются,
// из повторов одного города остается первая строка.
func ReadCorpus(r io.Reader) ([]model.Place, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyCorpus
		}
		return nil, fmt.Errorf("не удалось прочитать заголовок: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	idx := make([]int, 0, 3)
	for _, name := range []string{ColumnCity, ColumnBestTime, ColumnDescription} {
		i, ok := cols[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, name)
		}
		idx = append(idx, i)
	}

	var places []model.Place
	seen := make(map[string]struct{})
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения строки корпуса: %w", err)
		}
		fields := make([]string, len(idx))
		complete := true
		for j, i := range idx {
			if i >= len(record) {
				complete = false
				break
			}
			fields[j] = strings.TrimSpace(record[i])
			if fields[j] == "" {
				complete = false
				break
			}
		}
		if !complete {
			continue
		}
		if _, dup := seen[fields[0]]; dup {
			continue
		}
		seen[fields[0]] = struct{}{}
		places = append(places, model.Place{City: fields[0], BestTime: fields[1], Description: fields[2]})
	}

	if len(places) == 0 {
		return nil, ErrEmptyCorpus
	}
	return places, nil
}
