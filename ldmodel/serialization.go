package ldmodel

import "encoding/json"

// Preprocess precomputes derived data (compiled regexes, parsed semvers/dates, `in`-operator
// lookup sets) for every clause owned directly or transitively by this flag. It must be called
// once after a flag is received from the data source, before it is evaluated.
func (f *FeatureFlag) Preprocess() {
	for i := range f.Rules {
		for j := range f.Rules[i].Clauses {
			f.Rules[i].Clauses[j].Preprocess()
		}
	}
}

// Preprocess precomputes derived clause data for every rule in this segment.
func (s *Segment) Preprocess() {
	for i := range s.Rules {
		for j := range s.Rules[i].Clauses {
			s.Rules[i].Clauses[j].Preprocess()
		}
	}
}

// MarshalFeatureFlag serializes a flag to its canonical JSON wire representation, the same format
// used by the polling/streaming endpoints and by the persistent-store serialization contract.
func MarshalFeatureFlag(f FeatureFlag) ([]byte, error) {
	return json.Marshal(f)
}

// UnmarshalFeatureFlag parses a flag from its JSON wire representation and preprocesses its
// clauses.
func UnmarshalFeatureFlag(data []byte) (FeatureFlag, error) {
	var f FeatureFlag
	if err := json.Unmarshal(data, &f); err != nil {
		return FeatureFlag{}, err
	}
	f.Preprocess()
	return f, nil
}

// MarshalSegment serializes a segment to its canonical JSON wire representation.
func MarshalSegment(s Segment) ([]byte, error) {
	return json.Marshal(s)
}

// UnmarshalSegment parses a segment from its JSON wire representation and preprocesses its rule
// clauses.
func UnmarshalSegment(data []byte) (Segment, error) {
	var s Segment
	if err := json.Unmarshal(data, &s); err != nil {
		return Segment{}, err
	}
	s.Preprocess()
	return s, nil
}

// AllData is the shape of the full dataset payload delivered by a `put` stream event or a
// polling response: {"flags": {key: flag}, "segments": {key: segment}}.
type AllData struct {
	Flags    map[string]FeatureFlag `json:"flags"`
	Segments map[string]Segment     `json:"segments"`
}
