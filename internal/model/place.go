package model

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Place строка корпуса туристических мест.
type Place struct {
	City        string `json:"city"`
	BestTime    string `json:"best_time"`
	Description string `json:"description"`
}

// Coordinates географические координаты места.
type Coordinates struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// MapLink возвращает ссылку на Google Maps для координат.
func (c Coordinates) MapLink() string {
	return "https://www.google.com/maps?q=" +
		strconv.FormatFloat(c.Latitude, 'f', -1, 64) + "," +
		strconv.FormatFloat(c.Longitude, 'f', -1, 64)
}

// Recommendation место из выдачи поиска с обогащением.
type Recommendation struct {
	Place   Place
	MapLink string // пустая строка, если геокодирование не удалось
	Blurb   *Blurb // nil, если описание не запрашивалось
}

// Blurb сгенерированное (или шаблонное) описание места.
type Blurb struct {
	Text      string `json:"text"`
	Generated bool   `json:"generated"`
}

// Recommendations упорядоченная выдача поиска.
// В JSON сериализуется объектом city -> [best_time, description, map_link] с сохранением порядка ранжирования.
type Recommendations []Recommendation

func (rs Recommendations) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, r := range rs {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(r.Place.City)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal([]string{r.Place.BestTime, r.Place.Description, r.MapLink})
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Blurbs возвращает описания по городам для мест, у которых они есть.
func (rs Recommendations) Blurbs() map[string]Blurb {
	out := make(map[string]Blurb)
	for _, r := range rs {
		if r.Blurb != nil {
			out[r.Place.City] = *r.Blurb
		}
	}
	return out
}
