package records

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// DecodeBatch decodes the scraper's batch format, an object mapping each name
// to its observation fields:
//
//	{"Streamer1": {"views": "1.1K viewers", "category": "FPS", "date": "24/07/2023 13:05", "lang": "English"}}
//	{"Game1": {"views": "25.3K", "category": ["FPS", "Shooter"], "date": "24/07/2023 13:05"}}
//
// Entries are returned in document order, duplicate names included.
func DecodeBatch(kind Kind, data []byte) ([]Record, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w '%s'", ErrUnknownKind, kind)
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("decode batch: invalid json")
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, fmt.Errorf("decode batch: expected an object of name -> fields")
	}

	var out []Record
	var err error
	root.ForEach(func(key, value gjson.Result) bool {
		if !value.IsObject() {
			err = fmt.Errorf("decode batch: fields of '%s' are not an object", key.String())
			return false
		}
		switch kind {
		case KindStreamer:
			out = append(out, NewStreamer(StreamerObservation{
				Name:     key.String(),
				Views:    value.Get("views").String(),
				Category: value.Get("category").String(),
				Language: value.Get("lang").String(),
				Date:     value.Get("date").String(),
			}))
		case KindGame:
			categories := []string{}
			value.Get("category").ForEach(func(_, c gjson.Result) bool {
				categories = append(categories, c.String())
				return true
			})
			out = append(out, NewGame(GameObservation{
				Name:       key.String(),
				Views:      value.Get("views").String(),
				Categories: categories,
				Date:       value.Get("date").String(),
			}))
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
