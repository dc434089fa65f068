package model

// PassengerRecord identifies a rider. Records are never mutated once
// registered; IDs are assigned sequentially from zero.
type PassengerRecord struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Names returns the names of the given records in order.
func Names(recs []PassengerRecord) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Name
	}
	return out
}
