package records

import (
	"errors"
	"fmt"
	"time"
)

// Kind discriminates streamer observations from game observations. It
// decides both the table a record is written to and the pending queue
// partition it is diverted to.
type Kind string

const (
	KindStreamer Kind = "streamer"
	KindGame     Kind = "game"
)

// Kinds lists every kind in reconciliation order.
var Kinds = []Kind{KindStreamer, KindGame}

func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindStreamer, KindGame:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown record kind '%s'", s)
}

func (k Kind) Valid() bool {
	return k == KindStreamer || k == KindGame
}

// DateLayout is the minute-precision layout scrapers stamp observations with.
const DateLayout = "02/01/2006 15:04"

type StreamerObservation struct {
	Name     string `json:"name"`
	Views    string `json:"views"`
	Category string `json:"category"`
	Language string `json:"lang"`
	Date     string `json:"date"`
}

type GameObservation struct {
	Name       string   `json:"name"`
	Views      string   `json:"views"`
	Categories []string `json:"categories"`
	Date       string   `json:"date"`
}

// Record is a tagged variant, exactly one of Streamer or Game is set and it
// must agree with Kind.
type Record struct {
	Kind     Kind                 `json:"kind"`
	Streamer *StreamerObservation `json:"streamer,omitempty"`
	Game     *GameObservation     `json:"game,omitempty"`
}

func NewStreamer(obs StreamerObservation) Record {
	return Record{Kind: KindStreamer, Streamer: &obs}
}

func NewGame(obs GameObservation) Record {
	return Record{Kind: KindGame, Game: &obs}
}

func (r Record) Name() string {
	switch {
	case r.Streamer != nil:
		return r.Streamer.Name
	case r.Game != nil:
		return r.Game.Name
	}
	return ""
}

func (r Record) Views() string {
	switch {
	case r.Streamer != nil:
		return r.Streamer.Views
	case r.Game != nil:
		return r.Game.Views
	}
	return ""
}

func (r Record) Date() string {
	switch {
	case r.Streamer != nil:
		return r.Streamer.Date
	case r.Game != nil:
		return r.Game.Date
	}
	return ""
}

// Time parses the record's date in the given location.
func (r Record) Time(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(DateLayout, r.Date(), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %w", ErrMalformedDate, err)
	}
	return t, nil
}

var (
	ErrUnknownKind     = errors.New("unknown record kind")
	ErrPayloadMismatch = errors.New("record payload does not match its kind")
	ErrEmptyName       = errors.New("record name is empty")
	ErrMalformedDate   = errors.New("malformed record date")
	ErrMalformedViews  = errors.New("malformed view count")
)

// Validate checks the fields required by the record's kind.
func (r Record) Validate() error {
	if !r.Kind.Valid() {
		return fmt.Errorf("%w '%s'", ErrUnknownKind, r.Kind)
	}
	switch r.Kind {
	case KindStreamer:
		if r.Streamer == nil || r.Game != nil {
			return ErrPayloadMismatch
		}
	case KindGame:
		if r.Game == nil || r.Streamer != nil {
			return ErrPayloadMismatch
		}
	}
	if r.Name() == "" {
		return ErrEmptyName
	}
	_, err := ParseViewCount(r.Views())
	if err != nil {
		return err
	}
	_, err = r.Time(time.UTC)
	if err != nil {
		return err
	}
	return nil
}
