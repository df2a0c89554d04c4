package entities

import "time"

// DashboardPayload is what the marketplace API returned for one dashboard read.
// Records keep the order of the server's named arrays.
type DashboardPayload struct {
	Role         Role
	Records      []Record
	ServerTotals map[string]int
}

// RecordView is one record as it should be rendered
type RecordView struct {
	Record      Record   `json:"record"`
	Domain      Domain   `json:"domain"`
	Bucket      Bucket   `json:"bucket"`
	Actions     []Action `json:"actions"`
	DisplayTime string   `json:"display_time,omitempty"`
}

// Allows reports whether the action is enabled on this record
func (v RecordView) Allows(action Action) bool {
	for _, a := range v.Actions {
		if a == action {
			return true
		}
	}
	return false
}

// BucketView is one rendered group and its displayed count
type BucketView struct {
	Name    Bucket       `json:"name"`
	Records []RecordView `json:"records"`
	Count   int          `json:"count"`
}

// DashboardView is the fully derived state of a dashboard
type DashboardView struct {
	Role       Role          `json:"role"`
	Buckets    []*BucketView `json:"buckets"`
	Generation uint64        `json:"generation"`
	FetchedAt  time.Time     `json:"fetched_at"`
}

// Bucket returns the named bucket, or nil
func (v *DashboardView) Bucket(name Bucket) *BucketView {
	if v == nil {
		return nil
	}
	for _, b := range v.Buckets {
		if b.Name == name {
			return b
		}
	}
	return nil
}

// Find locates a record by id across all buckets
func (v *DashboardView) Find(id string) (RecordView, bool) {
	if v == nil {
		return RecordView{}, false
	}
	for _, b := range v.Buckets {
		for _, r := range b.Records {
			if r.Record.RecordID() == id {
				return r, true
			}
		}
	}
	return RecordView{}, false
}

// Counts returns the displayed count per bucket
func (v *DashboardView) Counts() map[Bucket]int {
	out := make(map[Bucket]int, len(Buckets))
	if v == nil {
		return out
	}
	for _, b := range v.Buckets {
		out[b.Name] = b.Count
	}
	return out
}
