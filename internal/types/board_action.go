package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// ActionKind tags one visual command on the teaching board.
type ActionKind string

const (
	ActionText    ActionKind = "text"
	ActionLine    ActionKind = "line"
	ActionRect    ActionKind = "rect"
	ActionCircle  ActionKind = "circle"
	ActionSVGPath ActionKind = "svg_path"
	ActionClear   ActionKind = "clear"
)

// BoardAction is one timestamped draw command. Timestamp starts as an
// LLM-guessed estimate and is replaced by the re-sync engine; the payload is
// opaque to everything except the renderer.
//
// Draft timestamps from the LLM are not guaranteed monotonic. Nothing here
// enforces ordering; the re-sync engine does.
type BoardAction struct {
	Kind      ActionKind
	Timestamp float64
	Payload   ActionPayload
}

type ActionPayload interface {
	isActionPayload()
}

type TextPayload struct {
	Content  string  `json:"content"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	FontSize float64 `json:"fontSize,omitempty"`
	Fill     string  `json:"fill,omitempty"`
}

type LinePayload struct {
	// Points is a flat [x1, y1, x2, y2, ...] polyline.
	Points      []float64 `json:"points"`
	Stroke      string    `json:"stroke,omitempty"`
	StrokeWidth float64   `json:"strokeWidth,omitempty"`
}

type RectPayload struct {
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	Stroke      string  `json:"stroke,omitempty"`
	StrokeWidth float64 `json:"strokeWidth,omitempty"`
	Fill        string  `json:"fill,omitempty"`
}

type CirclePayload struct {
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Radius      float64 `json:"radius"`
	Stroke      string  `json:"stroke,omitempty"`
	StrokeWidth float64 `json:"strokeWidth,omitempty"`
	Fill        string  `json:"fill,omitempty"`
}

type SVGPathPayload struct {
	Data        string  `json:"data"`
	Stroke      string  `json:"stroke,omitempty"`
	StrokeWidth float64 `json:"strokeWidth,omitempty"`
	Fill        string  `json:"fill,omitempty"`
}

// ClearPayload wipes the board at its timestamp.
type ClearPayload struct{}

func (TextPayload) isActionPayload()    {}
func (LinePayload) isActionPayload()    {}
func (RectPayload) isActionPayload()    {}
func (CirclePayload) isActionPayload()  {}
func (SVGPathPayload) isActionPayload() {}
func (ClearPayload) isActionPayload()   {}

// WithTimestamp returns a copy with only the timestamp replaced. The payload
// is shared, which is fine because payloads are never mutated after creation.
func (a BoardAction) WithTimestamp(ts float64) BoardAction {
	a.Timestamp = ts
	return a
}

// wireAction is the flat JSON shape the LLM produces and the frontend
// consumes: variant fields live next to "type" and "timestamp".
type wireAction struct {
	Type      string          `json:"type"`
	Timestamp float64         `json:"timestamp"`
	Content   *string         `json:"content,omitempty"`
	X         *float64        `json:"x,omitempty"`
	Y         *float64        `json:"y,omitempty"`
	Width     *float64        `json:"width,omitempty"`
	Height    *float64        `json:"height,omitempty"`
	Radius    *float64        `json:"radius,omitempty"`
	FontSize  *float64        `json:"fontSize,omitempty"`
	Points    json.RawMessage `json:"points,omitempty"`
	Data      *string         `json:"data,omitempty"`
	Stroke    *string         `json:"stroke,omitempty"`
	Fill      *string         `json:"fill,omitempty"`
	StrokeW   *float64        `json:"strokeWidth,omitempty"`
}

func (a BoardAction) MarshalJSON() ([]byte, error) {
	w := wireAction{Type: string(a.Kind), Timestamp: a.Timestamp}
	switch p := a.Payload.(type) {
	case TextPayload:
		w.Content = &p.Content
		w.X, w.Y = &p.X, &p.Y
		if p.FontSize != 0 {
			w.FontSize = &p.FontSize
		}
		if p.Fill != "" {
			w.Fill = &p.Fill
		}
	case LinePayload:
		pts, err := json.Marshal(p.Points)
		if err != nil {
			return nil, err
		}
		w.Points = pts
		setStroke(&w, p.Stroke, p.StrokeWidth)
	case RectPayload:
		w.X, w.Y = &p.X, &p.Y
		w.Width, w.Height = &p.Width, &p.Height
		setStroke(&w, p.Stroke, p.StrokeWidth)
		if p.Fill != "" {
			w.Fill = &p.Fill
		}
	case CirclePayload:
		w.X, w.Y = &p.X, &p.Y
		w.Radius = &p.Radius
		setStroke(&w, p.Stroke, p.StrokeWidth)
		if p.Fill != "" {
			w.Fill = &p.Fill
		}
	case SVGPathPayload:
		w.Data = &p.Data
		setStroke(&w, p.Stroke, p.StrokeWidth)
		if p.Fill != "" {
			w.Fill = &p.Fill
		}
	case ClearPayload, nil:
		// no payload fields
	default:
		return nil, fmt.Errorf("unknown board action payload %T", a.Payload)
	}
	return json.Marshal(w)
}

func setStroke(w *wireAction, stroke string, width float64) {
	if stroke != "" {
		w.Stroke = &stroke
	}
	if width != 0 {
		w.StrokeW = &width
	}
}

func (a *BoardAction) UnmarshalJSON(data []byte) error {
	var w wireAction
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	a.Kind = ActionKind(w.Type)
	a.Timestamp = w.Timestamp
	switch a.Kind {
	case ActionText:
		a.Payload = TextPayload{
			Content:  deref(w.Content),
			X:        derefF(w.X),
			Y:        derefF(w.Y),
			FontSize: derefF(w.FontSize),
			Fill:     deref(w.Fill),
		}
	case ActionLine:
		pts, err := decodePoints(w.Points)
		if err != nil {
			return fmt.Errorf("line points: %w", err)
		}
		a.Payload = LinePayload{Points: pts, Stroke: deref(w.Stroke), StrokeWidth: derefF(w.StrokeW)}
	case ActionRect:
		a.Payload = RectPayload{
			X: derefF(w.X), Y: derefF(w.Y),
			Width: derefF(w.Width), Height: derefF(w.Height),
			Stroke: deref(w.Stroke), StrokeWidth: derefF(w.StrokeW), Fill: deref(w.Fill),
		}
	case ActionCircle:
		a.Payload = CirclePayload{
			X: derefF(w.X), Y: derefF(w.Y), Radius: derefF(w.Radius),
			Stroke: deref(w.Stroke), StrokeWidth: derefF(w.StrokeW), Fill: deref(w.Fill),
		}
	case ActionSVGPath:
		a.Payload = SVGPathPayload{Data: deref(w.Data), Stroke: deref(w.Stroke), StrokeWidth: derefF(w.StrokeW), Fill: deref(w.Fill)}
	case ActionClear:
		a.Payload = ClearPayload{}
	default:
		return fmt.Errorf("unknown board action type %q", w.Type)
	}
	return nil
}

// decodePoints accepts both the flat [x1,y1,x2,y2] form and the nested
// [[x1,y1],[x2,y2]] form the LLM sometimes emits, normalizing to flat.
func decodePoints(raw json.RawMessage) ([]float64, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var flat []float64
	if err := json.Unmarshal(raw, &flat); err == nil {
		return flat, nil
	}
	var nested [][]float64
	if err := json.Unmarshal(raw, &nested); err != nil {
		return nil, err
	}
	out := make([]float64, 0, len(nested)*2)
	for _, pair := range nested {
		out = append(out, pair...)
	}
	return out, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefF(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

// BoardActionList stores an action sequence as a JSONB column.
type BoardActionList []BoardAction

func (l BoardActionList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

func (l *BoardActionList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into BoardActionList", value)
	}
	return json.Unmarshal(raw, l)
}

func (BoardActionList) GormDataType() string { return "jsonb" }
