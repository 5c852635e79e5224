package model

// Snapshot is the persisted part of the client state.
// Fields may be added over time; readers must tolerate missing ones.
type Snapshot struct {
	Cart       []CartItem  `json:"cart"`
	Products   []Product   `json:"products,omitempty"`
	PriceRange *PriceRange `json:"price_range,omitempty"`
	SortKey    SortKey     `json:"sort_key,omitempty"`
}
