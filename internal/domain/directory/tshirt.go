package directory

// Tshirt is a stored t-shirt size choice. Zero means not set.
type Tshirt int

var tshirtLabels = map[Tshirt]string{
	1:  "Fitted Small",
	2:  "Fitted Medium",
	3:  "Fitted Large",
	4:  "Fitted X-Large",
	5:  "Fitted XX-Large",
	6:  "Fitted XXX-Large",
	7:  "Straight-cut Small",
	8:  "Straight-cut Medium",
	9:  "Straight-cut Large",
	10: "Straight-cut X-Large",
	11: "Straight-cut XX-Large",
	12: "Straight-cut XXX-Large",
}

// Label returns the human-readable size, or "" when unset or unknown
func (t Tshirt) Label() string {
	return tshirtLabels[t]
}

// IsValid reports whether t is unset or a known choice
func (t Tshirt) IsValid() bool {
	if t == 0 {
		return true
	}
	_, ok := tshirtLabels[t]
	return ok
}
