package stale

func (r Rec) removed() string { return r.Removed }
