package contentdm

import (
	"fmt"
	"strings"
)

// Archive addresses one CONTENTdm collection.
type Archive struct {
	BaseURL    string // e.g. https://dc.library.okstate.edu
	APIPath    string // e.g. /digital/bl/dmwebservices/index.php
	Collection string // e.g. kapplers
}

func (a Archive) apiBase() string {
	return strings.TrimRight(a.BaseURL, "/") + "/" + strings.TrimLeft(a.APIPath, "/")
}

// IndexURL returns the dmGetCompoundObjectInfo URL for a compound object.
func (a Archive) IndexURL(pointer string) string {
	return fmt.Sprintf("%s?q=dmGetCompoundObjectInfo/%s/%s/json", a.apiBase(), a.Collection, pointer)
}

// ItemInfoURL returns the dmGetItemInfo URL for a single item.
func (a Archive) ItemInfoURL(pointer string) string {
	return fmt.Sprintf("%s?q=dmGetItemInfo/%s/%s/json", a.apiBase(), a.Collection, pointer)
}

// ItemPageURL returns the public viewer URL for an item.
func (a Archive) ItemPageURL(pointer string) string {
	return fmt.Sprintf("%s/digital/collection/%s/id/%s", strings.TrimRight(a.BaseURL, "/"), a.Collection, pointer)
}
