package pricing

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
)

const keyHexLen = 32

type canonicalSection struct {
	Title   string   `json:"t"`
	Options []string `json:"o"`
}

type canonicalLine struct {
	ProductID string             `json:"p"`
	Sections  []canonicalSection `json:"s"`
}

// LineKey derives the identity of a product plus its customizations. Sections are sorted
// by title and option names inside a section are sorted, so map iteration order and the
// order options were ticked never change the key. Empty selections are left out: leaving
// an optional section blank is the same line as never touching it.
func LineKey(productID string, customizations Customizations) string {
	canon := canonicalLine{ProductID: productID, Sections: []canonicalSection{}}
	for title, sel := range customizations {
		if sel.IsEmpty() {
			continue
		}
		names := make([]string, 0, len(sel.Options()))
		for _, opt := range sel.Options() {
			names = append(names, opt.Name)
		}
		sort.Strings(names)
		canon.Sections = append(canon.Sections, canonicalSection{Title: title, Options: names})
	}
	sort.Slice(canon.Sections, func(i, j int) bool {
		return canon.Sections[i].Title < canon.Sections[j].Title
	})

	// marshalling plain strings and slices cannot fail
	payload, _ := json.Marshal(canon)
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])[:keyHexLen]
}
