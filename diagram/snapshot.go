package diagram

import (
	"encoding/json"
	"math"
	"time"
)

// A Snapshot is the playback state as seen by observers. Step is the number
// of fully revealed steps. Speed is encoded in JSON as milliseconds.
type Snapshot struct {
	Step  int           `json:"step"`
	Total int           `json:"total"`
	State State         `json:"state"`
	Speed time.Duration `json:"speed"`
	Cause Event         `json:"cause"`
	Seq   uint64        `json:"seq"`
}

type plainSnapshot Snapshot

type snapshotJSON struct {
	plainSnapshot
	Speed int64 `json:"speed"`
}

// MarshalJSON encodes the snapshot with its speed in milliseconds.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(snapshotJSON{plainSnapshot: plainSnapshot(s), Speed: s.Speed.Milliseconds()})
}

// UnmarshalJSON decodes a snapshot whose speed is in milliseconds.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var aux snapshotJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*s = Snapshot(aux.plainSnapshot)
	s.Speed = time.Duration(aux.Speed) * time.Millisecond
	return nil
}

// Playing reports whether the cursor is advancing.
func (s Snapshot) Playing() bool {
	return s.State == Playing
}

// Revealed reports whether step i is shown at full opacity.
func (s Snapshot) Revealed(i int) bool {
	return i < s.Step
}

// Active reports whether step i is the most recently revealed step.
func (s Snapshot) Active(i int) bool {
	return i == s.Step-1
}

// Highlighted returns, per actor, whether it takes part in any revealed step.
func (s Snapshot) Highlighted(actorCount int, steps []Step) []bool {
	out := make([]bool, actorCount)
	for i := 0; i < s.Step && i < len(steps); i++ {
		st := steps[i]
		if st.From >= 0 && st.From < actorCount {
			out[st.From] = true
		}
		if st.To >= 0 && st.To < actorCount {
			out[st.To] = true
		}
	}
	return out
}

// Fraction is Step/Total, or 0 for an empty diagram.
func (s Snapshot) Fraction() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Step) / float64(s.Total)
}

// Percent is the rounded progress percentage.
func (s Snapshot) Percent() int {
	return int(math.Round(s.Fraction() * 100))
}
