package contentdm

// ItemInfo is the subset of dmGetItemInfo fields the pipeline reads.
type ItemInfo struct {
	Title       string
	Date        string
	Description string
}

// ParseItemInfo extracts known fields from a dmGetItemInfo response.
// Missing or empty-object fields read as "".
func ParseItemInfo(doc any) ItemInfo {
	m, ok := doc.(map[string]any)
	if !ok {
		return ItemInfo{}
	}
	title, _ := text(m["title"])
	date, _ := text(m["date"])
	descri, _ := text(m["descri"])
	return ItemInfo{Title: title, Date: date, Description: descri}
}
