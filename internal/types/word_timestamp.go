package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// WordTimestamp is one (word, start, end) triple from speech recognition over
// synthesized narration audio. Start <= End; gaps between consecutive words
// are silence and are meaningful to the re-sync engine.
type WordTimestamp struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// WordTimestampList stores the full-narration word sequence as JSONB.
type WordTimestampList []WordTimestamp

// TotalDuration is the end of the last spoken word, 0 when empty.
func (l WordTimestampList) TotalDuration() float64 {
	if len(l) == 0 {
		return 0
	}
	return l[len(l)-1].End
}

func (l WordTimestampList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

func (l *WordTimestampList) Scan(value interface{}) error {
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
		return fmt.Errorf("cannot scan %T into WordTimestampList", value)
	}
	return json.Unmarshal(raw, l)
}

func (WordTimestampList) GormDataType() string { return "jsonb" }
