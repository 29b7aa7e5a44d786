package contentdm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArchiveURLs(t *testing.T) {
	a := Archive{
		BaseURL:    "https://dc.library.okstate.edu/",
		APIPath:    "/digital/bl/dmwebservices/index.php",
		Collection: "kapplers",
	}

	assert.Equal(t,
		"https://dc.library.okstate.edu/digital/bl/dmwebservices/index.php?q=dmGetCompoundObjectInfo/kapplers/29743/json",
		a.IndexURL("29743"))
	assert.Equal(t,
		"https://dc.library.okstate.edu/digital/bl/dmwebservices/index.php?q=dmGetItemInfo/kapplers/29750/json",
		a.ItemInfoURL("29750"))
	assert.Equal(t,
		"https://dc.library.okstate.edu/digital/collection/kapplers/id/29750",
		a.ItemPageURL("29750"))
}
